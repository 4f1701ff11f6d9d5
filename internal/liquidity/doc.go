// Package liquidity scores the depth of market behind a quoted option.
//
// The liquidity factor combines two components:
//
//  1. Spread score: the bid-ask spread as a ratio of the midpoint, so a $0.50
//     spread on a $100 option and on a $1 option score very differently.
//  2. Open interest score: outstanding contracts, a depth signal that is
//     harder to fake than a displayed quote.
//
// The composite is 0.4*spreadScore + 0.6*oiScore, clamped to [0,1]. Known open
// interest below 10 forces the factor to 0 regardless of the spread, so a
// tight single-sided quote with nobody behind it never looks liquid. Unknown
// open interest is scored conservatively at 0.3 and is not a veto.
//
// # Usage Example
//
//	oi := int64(600)
//	a := liquidity.NewAssessor(liquidity.DefaultParams()).Assess(2.40, 2.60, &oi)
//	// a.SpreadRatio = 0.08, a.SpreadScore = 0.32, a.OIScore = 1.0, a.Factor = 0.728
package liquidity
