package volatility

import (
	"math"
	"sort"
)

// IVRank positions current within the range of history on a 0-100 scale.
// Fewer than minPoints values, or a flat history, gives the neutral 50.
func IVRank(current float64, history []float64, minPoints int) float64 {
	if len(history) < minPoints || len(history) == 0 || math.IsNaN(current) {
		return neutralRank
	}
	lo, hi := history[0], history[0]
	for _, v := range history[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if hi-lo <= 0 {
		return neutralRank
	}
	return clamp((current-lo)/(hi-lo)*100, 0, 100)
}

// IVPercentile is the share of history strictly below current on a 0-100
// scale. Fewer than minPoints values gives the neutral 50.
func IVPercentile(current float64, history []float64, minPoints int) float64 {
	if len(history) < minPoints || len(history) == 0 || math.IsNaN(current) {
		return neutralRank
	}
	sorted := make([]float64, len(history))
	copy(sorted, history)
	sort.Float64s(sorted)
	below := sort.SearchFloat64s(sorted, current)
	return float64(below) / float64(len(sorted)) * 100
}

// ClassifyBias maps a volatility risk premium onto a trading bias
func ClassifyBias(vrp, threshold float64) Bias {
	switch {
	case vrp > threshold:
		return BiasSell
	case vrp < -threshold:
		return BiasBuy
	default:
		return BiasNeutral
	}
}

// Premium combines a contract's implied volatility with a chain-level
// forecast. It is the per-contract half of Analyze.
func (f *Forecaster) Premium(currentIV float64, forecast Forecast, ivHistory []float64) VRPResult {
	vrp := currentIV - forecast.Volatility
	return VRPResult{
		VRP:          vrp,
		RVForecast:   forecast.Volatility,
		IVRank:       IVRank(currentIV, ivHistory, f.params.MinIVHistory),
		IVPercentile: IVPercentile(currentIV, ivHistory, f.params.MinIVHistory),
		Bias:         ClassifyBias(vrp, f.params.BiasThreshold),
		Method:       forecast.Method,
	}
}

// Analyze forecasts realized volatility and computes the premium for one
// implied volatility. When the forecast fails the error is returned together
// with a result that still carries the IV rank and percentile.
func (f *Forecaster) Analyze(currentIV float64, prices, ivHistory []float64) (VRPResult, error) {
	forecast, err := f.Forecast(prices)
	if err != nil {
		return VRPResult{
			IVRank:       IVRank(currentIV, ivHistory, f.params.MinIVHistory),
			IVPercentile: IVPercentile(currentIV, ivHistory, f.params.MinIVHistory),
			Bias:         BiasNeutral,
		}, err
	}
	return f.Premium(currentIV, forecast, ivHistory), nil
}

// Analyze is Forecaster.Analyze with explicit parameters
func Analyze(currentIV float64, prices, ivHistory []float64, params Params) (VRPResult, error) {
	return NewForecaster(params).Analyze(currentIV, prices, ivHistory)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
