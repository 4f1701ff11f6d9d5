package liquidity

import (
	"math"
)

// Assessor computes liquidity factors for option quotes
type Assessor struct {
	params Params
}

// NewAssessor creates an assessor. Invalid params fall back to the defaults.
func NewAssessor(params Params) *Assessor {
	if params.Validate() != nil {
		params = DefaultParams()
	}
	return &Assessor{params: params}
}

// Params returns the parameters in use
func (a *Assessor) Params() Params {
	return a.params
}

// Factor returns the composite liquidity factor in [0,1]
func (a *Assessor) Factor(bid, ask float64, openInterest *int64) float64 {
	return a.Assess(bid, ask, openInterest).Factor
}

// Assess computes the liquidity factor together with its components.
// A nil openInterest means the feed did not report it.
func (a *Assessor) Assess(bid, ask float64, openInterest *int64) Assessment {
	ratio, crossed := SpreadRatio(bid, ask)
	result := Assessment{
		SpreadRatio: ratio,
		SpreadScore: SpreadTable.Score(ratio),
		OIScore:     a.params.UnknownOIScore,
		Crossed:     crossed,
		OIKnown:     openInterest != nil,
	}

	if openInterest != nil {
		if *openInterest < a.params.MinOpenInterest {
			result.OIScore = 0
			result.ThinOI = true
			return result
		}
		result.OIScore = OpenInterestTable.Score(float64(*openInterest))
	}

	factor := a.params.SpreadWeight*result.SpreadScore + a.params.OIWeight*result.OIScore
	if math.IsNaN(factor) {
		factor = 0
	}
	result.Factor = clamp(factor, 0, 1)
	return result
}

// SpreadRatio returns (ask-bid)/mid. A crossed quote uses the absolute
// spread and reports crossed. A non-positive midpoint yields +Inf.
func SpreadRatio(bid, ask float64) (ratio float64, crossed bool) {
	crossed = bid > ask
	mid := (bid + ask) / 2
	if mid <= 0 || math.IsNaN(mid) {
		return math.Inf(1), crossed
	}
	return math.Abs(ask-bid) / mid, crossed
}

// Factor computes the liquidity factor with default parameters
func Factor(bid, ask float64, openInterest *int64) float64 {
	return defaultAssessor.Factor(bid, ask, openInterest)
}

var defaultAssessor = NewAssessor(DefaultParams())

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
