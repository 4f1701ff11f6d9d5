// Package volatility forecasts realized volatility and derives the
// volatility risk premium (implied minus forecast realized volatility).
//
// All volatilities are annualized fractions (0.30 = 30%). IV rank and
// percentile are on a 0-100 scale.
package volatility

import (
	"fmt"
	"strings"
)

const (
	// DefaultLambda is the RiskMetrics EWMA decay
	DefaultLambda = 0.94
	// DefaultTradingDays annualizes daily variance
	DefaultTradingDays = 252
	// DefaultMinPrices is the shortest price history a forecast accepts
	DefaultMinPrices = 30
	// DefaultMinIVHistory is the shortest IV history ranked against
	DefaultMinIVHistory = 10
	// DefaultBiasThreshold is the |VRP| above which a bias is reported
	DefaultBiasThreshold = 0.05
	// DefaultHorizonDays is the trading-day horizon a GARCH forecast averages over
	DefaultHorizonDays = 21
	// DefaultMinGARCHReturns is the shortest return series a GARCH fit is attempted on
	DefaultMinGARCHReturns = 100

	neutralRank = 50.0
)

// Method names the forecaster that produced a result
type Method string

const (
	MethodEWMA  Method = "ewma"
	MethodGARCH Method = "garch"
)

// IsValid reports whether the method is known
func (m Method) IsValid() bool {
	return m == MethodEWMA || m == MethodGARCH
}

// ParseMethod parses a case-insensitive method name
func ParseMethod(s string) (Method, error) {
	m := Method(strings.ToLower(strings.TrimSpace(s)))
	if !m.IsValid() {
		return "", fmt.Errorf("unknown forecast method %q", s)
	}
	return m, nil
}

// Bias is the trading bias implied by the volatility risk premium
type Bias string

const (
	BiasSell    Bias = "sell"
	BiasBuy     Bias = "buy"
	BiasNeutral Bias = "neutral"
)

// Params holds forecaster settings
type Params struct {
	Lambda          float64 `json:"lambda" yaml:"lambda"`
	TradingDays     int     `json:"trading_days" yaml:"trading_days"`
	MinPrices       int     `json:"min_prices" yaml:"min_prices"`
	MinIVHistory    int     `json:"min_iv_history" yaml:"min_iv_history"`
	BiasThreshold   float64 `json:"bias_threshold" yaml:"bias_threshold"`
	Method          Method  `json:"method" yaml:"method"`
	HorizonDays     int     `json:"horizon_days" yaml:"horizon_days"`
	MinGARCHReturns int     `json:"min_garch_returns" yaml:"min_garch_returns"`
}

// DefaultParams returns EWMA settings with lambda 0.94
func DefaultParams() Params {
	return Params{
		Lambda:          DefaultLambda,
		TradingDays:     DefaultTradingDays,
		MinPrices:       DefaultMinPrices,
		MinIVHistory:    DefaultMinIVHistory,
		BiasThreshold:   DefaultBiasThreshold,
		Method:          MethodEWMA,
		HorizonDays:     DefaultHorizonDays,
		MinGARCHReturns: DefaultMinGARCHReturns,
	}
}

// Validate checks the parameters
func (p Params) Validate() error {
	if p.Lambda <= 0 || p.Lambda >= 1 {
		return fmt.Errorf("lambda must be within (0,1), got %g", p.Lambda)
	}
	if p.TradingDays <= 0 {
		return fmt.Errorf("trading days must be positive, got %d", p.TradingDays)
	}
	if p.MinPrices < 3 {
		return fmt.Errorf("min prices must be at least 3, got %d", p.MinPrices)
	}
	if p.BiasThreshold < 0 {
		return fmt.Errorf("bias threshold must be non-negative, got %g", p.BiasThreshold)
	}
	if !p.Method.IsValid() {
		return fmt.Errorf("unknown forecast method %q", p.Method)
	}
	return nil
}

// Forecast is an annualized realized volatility forecast
type Forecast struct {
	Volatility   float64  `json:"volatility"`
	Method       Method   `json:"method"`
	FellBack     bool     `json:"fell_back"` // GARCH requested but EWMA used
	Observations int      `json:"observations"`
	GARCH        *GARCH11 `json:"garch,omitempty"`
}

// GARCH11 holds fitted GARCH(1,1) coefficients on daily returns
type GARCH11 struct {
	Omega float64 `json:"omega"`
	Alpha float64 `json:"alpha"`
	Beta  float64 `json:"beta"`
}

// Persistence returns alpha+beta
func (g GARCH11) Persistence() float64 {
	return g.Alpha + g.Beta
}

// VRPResult is the volatility premium view of one contract
type VRPResult struct {
	VRP          float64 `json:"vrp"`
	RVForecast   float64 `json:"rv_forecast"`
	IVRank       float64 `json:"iv_rank"`
	IVPercentile float64 `json:"iv_percentile"`
	Bias         Bias    `json:"bias"`
	Method       Method  `json:"method"`
}
