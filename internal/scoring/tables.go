package scoring

import (
	"optionrank/internal/scale"
)

// Factor tables. Each table's top score is the factor's raw weight; a
// profile's total is normalized onto the score scale by its MaxPoints.
var (
	// AnnualReturnTable scores the annualized return (fraction)
	AnnualReturnTable = scale.MustNew("annualized_return", scale.HigherIsBetter,
		scale.Point{X: 0.03, Y: 5},
		scale.Point{X: 0.05, Y: 10},
		scale.Point{X: 0.08, Y: 15},
		scale.Point{X: 0.12, Y: 20},
		scale.Point{X: 0.15, Y: 25},
	)

	// AssignmentTable scores the assignment probability (0-100), lower is better
	AssignmentTable = scale.MustNew("assignment_probability", scale.LowerIsBetter,
		scale.Point{X: 15, Y: 25},
		scale.Point{X: 25, Y: 20},
		scale.Point{X: 35, Y: 15},
		scale.Point{X: 50, Y: 10},
		scale.Point{X: 70, Y: 5},
		scale.Point{X: 100, Y: 0},
	)

	// LiquidityTable scores the liquidity factor (0-1)
	LiquidityTable = scale.MustNew("liquidity_factor", scale.HigherIsBetter,
		scale.Point{X: 0.3, Y: 10},
		scale.Point{X: 0.4, Y: 15},
		scale.Point{X: 0.6, Y: 20},
		scale.Point{X: 0.8, Y: 25},
	)

	// SpreadTable scores the spread ratio (fraction), lower is better
	SpreadTable = scale.MustNew("spread_ratio", scale.LowerIsBetter,
		scale.Point{X: 0.01, Y: 15},
		scale.Point{X: 0.03, Y: 12},
		scale.Point{X: 0.05, Y: 8},
		scale.Point{X: 0.10, Y: 4},
	)

	// WinRateTable scores the breakeven win rate (0-100) of a bought option
	WinRateTable = scale.MustNew("win_rate", scale.HigherIsBetter,
		scale.Point{X: 20, Y: 5},
		scale.Point{X: 30, Y: 10},
		scale.Point{X: 40, Y: 15},
		scale.Point{X: 50, Y: 20},
		scale.Point{X: 60, Y: 25},
	)

	// GreeksEfficiencyTable scores gamma per unit of daily theta
	GreeksEfficiencyTable = scale.MustNew("greeks_efficiency", scale.HigherIsBetter,
		scale.Point{X: 0.1, Y: 3},
		scale.Point{X: 0.25, Y: 6},
		scale.Point{X: 0.5, Y: 10},
		scale.Point{X: 1.0, Y: 13},
		scale.Point{X: 2.0, Y: 15},
	)
)
