package volatility

import (
	"math"

	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/stat"

	"optionrank/pkg/contracts/domain"
)

// Forecaster produces realized volatility forecasts
type Forecaster struct {
	params Params
}

// NewForecaster creates a forecaster. Invalid params fall back to the defaults.
func NewForecaster(params Params) *Forecaster {
	if params.Validate() != nil {
		params = DefaultParams()
	}
	return &Forecaster{params: params}
}

// Params returns the parameters in use
func (f *Forecaster) Params() Params {
	return f.params
}

// Forecast estimates forward annualized realized volatility from prices
// ordered oldest to newest. Fewer than MinPrices prices is an
// *domain.InsufficientDataError; it is the one failure with no safe default.
// A GARCH fit that fails for any reason falls back to EWMA silently.
func (f *Forecaster) Forecast(prices []float64) (Forecast, error) {
	if len(prices) < f.params.MinPrices {
		return Forecast{}, &domain.InsufficientDataError{Field: "price_history", Have: len(prices), Need: f.params.MinPrices}
	}
	returns, err := LogReturns(prices)
	if err != nil {
		return Forecast{}, err
	}

	ewma := EWMAVariance(returns, f.params.Lambda)
	result := Forecast{
		Volatility:   f.annualize(ewma),
		Method:       MethodEWMA,
		Observations: len(returns),
	}

	if f.params.Method != MethodGARCH {
		return result, nil
	}

	g, ok := FitGARCH(returns, f.params.MinGARCHReturns)
	if !ok {
		result.FellBack = true
		return result, nil
	}
	variance, ok := g.forecastVariance(returns, f.params.HorizonDays)
	if !ok {
		result.FellBack = true
		return result, nil
	}
	result.Volatility = f.annualize(variance)
	result.Method = MethodGARCH
	result.GARCH = &g
	return result, nil
}

func (f *Forecaster) annualize(dailyVariance float64) float64 {
	return math.Sqrt(dailyVariance * float64(f.params.TradingDays))
}

// LogReturns converts prices into log returns. Non-positive prices are invalid.
func LogReturns(prices []float64) ([]float64, error) {
	if len(prices) < 2 {
		return nil, &domain.InsufficientDataError{Field: "price_history", Have: len(prices), Need: 2}
	}
	returns := make([]float64, 0, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		prev, cur := prices[i-1], prices[i]
		if prev <= 0 || cur <= 0 || math.IsNaN(prev) || math.IsNaN(cur) {
			return nil, &domain.InvalidInputError{Field: "price_history", Value: "non-positive price"}
		}
		returns = append(returns, math.Log(cur/prev))
	}
	return returns, nil
}

// EWMAVariance returns the exponentially weighted daily variance of returns.
// The recursion is seeded with the mean squared return.
func EWMAVariance(returns []float64, lambda float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	squares := make([]float64, len(returns))
	for i, r := range returns {
		squares[i] = r * r
	}
	variance := stat.Mean(squares, nil)
	for _, sq := range squares {
		variance = lambda*variance + (1-lambda)*sq
	}
	return variance
}

// FitGARCH fits GARCH(1,1) by maximum likelihood with Nelder-Mead. ok is
// false when the series is too short, the optimizer fails, or the fit is
// not stationary.
func FitGARCH(returns []float64, minReturns int) (GARCH11, bool) {
	if len(returns) < minReturns || len(returns) < 3 {
		return GARCH11{}, false
	}
	sampleVar := stat.Variance(returns, nil)
	if sampleVar <= 0 || math.IsNaN(sampleVar) {
		return GARCH11{}, false
	}

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			return garchNegLogLikelihood(decodeGARCH(x, sampleVar), returns, sampleVar)
		},
	}
	// start near the usual equity fit: alpha 0.08, beta 0.90
	init := []float64{math.Log(0.02), logit(0.08), logit(0.90 / 0.92)}
	settings := &optimize.Settings{MajorIterations: 2000}

	res, err := optimize.Minimize(problem, init, settings, &optimize.NelderMead{})
	if err != nil || res == nil || math.IsNaN(res.F) || math.IsInf(res.F, 0) {
		return GARCH11{}, false
	}
	g := decodeGARCH(res.X, sampleVar)
	if g.Omega <= 0 || g.Alpha < 0 || g.Beta < 0 || g.Persistence() >= 1 {
		return GARCH11{}, false
	}
	return g, true
}

// decodeGARCH maps unconstrained optimizer coordinates onto a stationary
// parameter set: omega > 0, alpha in (0,1), beta in (0, 1-alpha).
func decodeGARCH(x []float64, sampleVar float64) GARCH11 {
	alpha := sigmoid(x[1])
	return GARCH11{
		Omega: math.Exp(x[0]) * sampleVar,
		Alpha: alpha,
		Beta:  sigmoid(x[2]) * (1 - alpha),
	}
}

func garchNegLogLikelihood(g GARCH11, returns []float64, seed float64) float64 {
	variance := seed
	nll := 0.0
	for i, r := range returns {
		if i > 0 {
			prev := returns[i-1]
			variance = g.Omega + g.Alpha*prev*prev + g.Beta*variance
		}
		if variance <= 0 || math.IsNaN(variance) {
			return math.Inf(1)
		}
		nll += 0.5 * (math.Log(variance) + r*r/variance)
	}
	return nll
}

// forecastVariance returns the average daily variance over the next
// horizon days given the fitted model and the observed returns.
func (g GARCH11) forecastVariance(returns []float64, horizon int) (float64, bool) {
	if horizon < 1 {
		horizon = 1
	}
	variance := stat.Variance(returns, nil)
	for i := 1; i < len(returns); i++ {
		prev := returns[i-1]
		variance = g.Omega + g.Alpha*prev*prev + g.Beta*variance
	}
	last := returns[len(returns)-1]
	next := g.Omega + g.Alpha*last*last + g.Beta*variance

	persistence := g.Persistence()
	longRun := g.Omega / (1 - persistence)
	sum := 0.0
	for h := 0; h < horizon; h++ {
		sum += longRun + math.Pow(persistence, float64(h))*(next-longRun)
	}
	avg := sum / float64(horizon)
	if avg <= 0 || math.IsNaN(avg) || math.IsInf(avg, 0) {
		return 0, false
	}
	return avg, true
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

func logit(p float64) float64 {
	return math.Log(p / (1 - p))
}
