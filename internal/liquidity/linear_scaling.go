package liquidity

import (
	"optionrank/internal/scale"
)

// SpreadTable maps the spread ratio onto a 0-1 score (lower is better).
//
// Scaling ranges:
//   - up to 1%: 1.0
//   - 1% to 3%: 1.0 to 0.8
//   - 3% to 5%: 0.8 to 0.5
//   - 5% to 10%: 0.5 to 0.2
//   - above 10%: 0
var SpreadTable = scale.MustNew("liquidity_spread", scale.LowerIsBetter,
	scale.Point{X: 0.01, Y: 1.0},
	scale.Point{X: 0.03, Y: 0.8},
	scale.Point{X: 0.05, Y: 0.5},
	scale.Point{X: 0.10, Y: 0.2},
)

// OpenInterestTable maps open interest onto a 0-1 score (higher is better).
//
// Scaling ranges:
//   - 10 to 50: 0.3 to 0.6
//   - 50 to 200: 0.6 to 0.8
//   - 200 to 500: 0.8 to 0.95
//   - 500 and above: 1.0
var OpenInterestTable = scale.MustNew("liquidity_open_interest", scale.HigherIsBetter,
	scale.Point{X: 10, Y: 0.3},
	scale.Point{X: 50, Y: 0.6},
	scale.Point{X: 200, Y: 0.8},
	scale.Point{X: 500, Y: 0.95},
	scale.Point{X: 500, Y: 1.0},
)
