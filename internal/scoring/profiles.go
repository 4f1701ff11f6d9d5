package scoring

import (
	"math"

	"optionrank/internal/probability"
	"optionrank/internal/scale"
	"optionrank/pkg/contracts/domain"
)

// position carries the per-share quantities a profile works from
type position struct {
	spot       float64
	strike     float64
	premium    float64
	sigma      float64
	rate       float64
	years      float64
	days       float64
	assignment *float64 // 0-100
}

// annualize turns a holding-period return into a simple annual rate
func (p position) annualize(ret float64) float64 {
	if p.days <= 0 || math.IsNaN(ret) || math.IsInf(ret, 0) {
		return 0
	}
	return ret * 365 / p.days
}

// oneSigma returns the underlying after a one standard deviation move to expiry
func (p position) oneSigma(up bool) float64 {
	if p.sigma <= 0 || p.years <= 0 || math.IsNaN(p.years) {
		return p.spot
	}
	move := p.sigma * math.Sqrt(p.years)
	if !up {
		move = -move
	}
	return p.spot * math.Exp(move)
}

// Factor is one weighted component of the recommendation score
type Factor struct {
	Table scale.Table
	Value func(b *ScoreBundle) float64
}

// Profile is the direction-specific part of scoring. All money figures are
// per share; the scorer applies the contract multiplier.
type Profile struct {
	Direction        domain.StrategyDirection
	Factors          []Factor
	AssignmentVeto   bool
	AnnualizedReturn func(p position) float64
	WinRate          func(p position) float64 // 0-100
	Breakeven        func(p position) float64
	MaxLoss          func(p position) float64
	Margin           func(p position) float64
	AvgProfit        func(p position) float64
	AvgLoss          func(p position) float64
	PnL              func(p position, terminal float64) float64
}

// MaxPoints returns the sum of the factor weights
func (pr Profile) MaxPoints() float64 {
	total := 0.0
	for _, f := range pr.Factors {
		total += f.Table.Max()
	}
	return total
}

var (
	annualReturnFactor = Factor{Table: AnnualReturnTable, Value: func(b *ScoreBundle) float64 { return b.AnnualizedReturn }}
	liquidityFactor    = Factor{Table: LiquidityTable, Value: func(b *ScoreBundle) float64 { return b.LiquidityFactor }}
	spreadFactor       = Factor{Table: SpreadTable, Value: func(b *ScoreBundle) float64 { return b.SpreadRatio }}
	winRateFactor      = Factor{Table: WinRateTable, Value: func(b *ScoreBundle) float64 { return b.WinRate }}
	greeksFactor       = Factor{Table: GreeksEfficiencyTable, Value: func(b *ScoreBundle) float64 { return b.GreeksEfficiency }}
	assignmentFactor   = Factor{Table: AssignmentTable, Value: func(b *ScoreBundle) float64 {
		if b.AssignmentProbability == nil {
			return math.Inf(1)
		}
		return *b.AssignmentProbability
	}}

	sellFactors = []Factor{annualReturnFactor, assignmentFactor, liquidityFactor, spreadFactor}
	buyFactors  = []Factor{winRateFactor, liquidityFactor, spreadFactor, greeksFactor}
)

func sellWinRate(p position) float64 {
	if p.assignment == nil {
		return 0
	}
	return 100 - *p.assignment
}

// profiles dispatches every direction to its weights and formulas
var profiles = map[domain.StrategyDirection]Profile{
	domain.DirectionSellPut: {
		Direction:      domain.DirectionSellPut,
		Factors:        sellFactors,
		AssignmentVeto: true,
		AnnualizedReturn: func(p position) float64 {
			return p.annualize(p.premium / p.strike)
		},
		WinRate:   sellWinRate,
		Breakeven: func(p position) float64 { return p.strike - p.premium },
		MaxLoss:   func(p position) float64 { return math.Max(p.strike-p.premium, 0) },
		Margin:    func(p position) float64 { return p.strike },
		AvgProfit: func(p position) float64 { return p.premium },
		AvgLoss: func(p position) float64 {
			payoff, ok := probability.ConditionalPayoff(p.spot, p.strike, p.rate, p.sigma, p.years, domain.OptionTypePut)
			if !ok {
				return 0
			}
			return math.Max(payoff-p.premium, 0)
		},
		PnL: func(p position, terminal float64) float64 {
			return p.premium - math.Max(p.strike-terminal, 0)
		},
	},
	// sell-call is a covered call: long 100 shares, short one call
	domain.DirectionSellCall: {
		Direction:      domain.DirectionSellCall,
		Factors:        sellFactors,
		AssignmentVeto: true,
		AnnualizedReturn: func(p position) float64 {
			return p.annualize(p.premium / p.spot)
		},
		WinRate:   sellWinRate,
		Breakeven: func(p position) float64 { return p.spot - p.premium },
		MaxLoss:   func(p position) float64 { return math.Max(p.spot-p.premium, 0) },
		Margin:    func(p position) float64 { return p.spot },
		AvgProfit: func(p position) float64 { return p.premium },
		AvgLoss: func(p position) float64 {
			payoff, ok := probability.ConditionalPayoff(p.spot, p.strike, p.rate, p.sigma, p.years, domain.OptionTypeCall)
			if !ok {
				return 0
			}
			return math.Max(payoff-p.premium, 0)
		},
		PnL: func(p position, terminal float64) float64 {
			return terminal - p.spot + p.premium - math.Max(terminal-p.strike, 0)
		},
	},
	domain.DirectionBuyCall: {
		Direction: domain.DirectionBuyCall,
		Factors:   buyFactors,
		AnnualizedReturn: func(p position) float64 {
			if p.premium <= 0 {
				return 0
			}
			payoff := math.Max(p.oneSigma(true)-p.strike, 0)
			return p.annualize((payoff - p.premium) / p.premium)
		},
		WinRate: func(p position) float64 {
			win, ok := probability.Assignment(p.spot, p.strike+p.premium, p.rate, p.sigma, p.years, domain.OptionTypeCall)
			if !ok {
				return 0
			}
			return win
		},
		Breakeven: func(p position) float64 { return p.strike + p.premium },
		MaxLoss:   func(p position) float64 { return p.premium },
		Margin:    func(p position) float64 { return p.premium },
		AvgProfit: func(p position) float64 {
			gain, ok := probability.ConditionalPayoff(p.spot, p.strike+p.premium, p.rate, p.sigma, p.years, domain.OptionTypeCall)
			if !ok {
				return 0
			}
			return gain
		},
		AvgLoss: func(p position) float64 { return p.premium },
		PnL: func(p position, terminal float64) float64 {
			return math.Max(terminal-p.strike, 0) - p.premium
		},
	},
	domain.DirectionBuyPut: {
		Direction: domain.DirectionBuyPut,
		Factors:   buyFactors,
		AnnualizedReturn: func(p position) float64 {
			if p.premium <= 0 {
				return 0
			}
			payoff := math.Max(p.strike-p.oneSigma(false), 0)
			return p.annualize((payoff - p.premium) / p.premium)
		},
		WinRate: func(p position) float64 {
			breakeven := p.strike - p.premium
			if breakeven <= 0 {
				return 0
			}
			win, ok := probability.Assignment(p.spot, breakeven, p.rate, p.sigma, p.years, domain.OptionTypePut)
			if !ok {
				return 0
			}
			return win
		},
		Breakeven: func(p position) float64 { return p.strike - p.premium },
		MaxLoss:   func(p position) float64 { return p.premium },
		Margin:    func(p position) float64 { return p.premium },
		AvgProfit: func(p position) float64 {
			breakeven := p.strike - p.premium
			if breakeven <= 0 {
				return 0
			}
			gain, ok := probability.ConditionalPayoff(p.spot, breakeven, p.rate, p.sigma, p.years, domain.OptionTypePut)
			if !ok {
				return 0
			}
			return gain
		},
		AvgLoss: func(p position) float64 { return p.premium },
		PnL: func(p position, terminal float64) float64 {
			return math.Max(p.strike-terminal, 0) - p.premium
		},
	},
}

// ProfileFor returns the scoring profile of a direction
func ProfileFor(d domain.StrategyDirection) (Profile, bool) {
	p, ok := profiles[d]
	return p, ok
}
