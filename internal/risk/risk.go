// Package risk computes expectancy and tail statistics for a single option
// position. Every result is advisory: nothing here vetoes a contract.
package risk

import (
	"fmt"
	"math"
)

const (
	// DefaultTailMultiplier scales max loss into the parametric tail estimate
	DefaultTailMultiplier = 1.5
	// DefaultTailWarningRatio is the historical/stress loss ratio above which a warning is raised
	DefaultTailWarningRatio = 2.0
	// DefaultStressZ is the one-tailed 99% standard normal quantile
	DefaultStressZ = 2.326
	// DefaultHighWinRate is the win probability treated as "high"
	DefaultHighWinRate = 0.70
	// DefaultLossAsymmetry is the average loss/profit ratio treated as asymmetric
	DefaultLossAsymmetry = 3.0
	// DefaultScenarioHorizon is the rolling window, in trading days, of the historical replay
	DefaultScenarioHorizon = 21
)

// Level classifies risk-adjusted expectancy
type Level string

const (
	LevelLow     Level = "LOW"
	LevelMedium  Level = "MEDIUM"
	LevelHigh    Level = "HIGH"
	LevelExtreme Level = "EXTREME"
)

// Params holds risk thresholds
type Params struct {
	TailMultiplier   float64 `json:"tail_multiplier" yaml:"tail_multiplier"`
	TailWarningRatio float64 `json:"tail_warning_ratio" yaml:"tail_warning_ratio"`
	HighWinRate      float64 `json:"high_win_rate" yaml:"high_win_rate"`
	LossAsymmetry    float64 `json:"loss_asymmetry" yaml:"loss_asymmetry"`
	ScenarioHorizon  int     `json:"scenario_horizon" yaml:"scenario_horizon"`
	StressZ          float64 `json:"stress_z" yaml:"stress_z"`
}

// DefaultParams returns the standard thresholds
func DefaultParams() Params {
	return Params{
		TailMultiplier:   DefaultTailMultiplier,
		TailWarningRatio: DefaultTailWarningRatio,
		HighWinRate:      DefaultHighWinRate,
		LossAsymmetry:    DefaultLossAsymmetry,
		ScenarioHorizon:  DefaultScenarioHorizon,
		StressZ:          DefaultStressZ,
	}
}

// Validate checks the parameters
func (p Params) Validate() error {
	if p.TailMultiplier < 1 {
		return fmt.Errorf("tail multiplier must be at least 1, got %g", p.TailMultiplier)
	}
	if p.HighWinRate <= 0 || p.HighWinRate > 1 {
		return fmt.Errorf("high win rate must be within (0,1], got %g", p.HighWinRate)
	}
	if p.ScenarioHorizon < 1 {
		return fmt.Errorf("scenario horizon must be positive, got %d", p.ScenarioHorizon)
	}
	if p.StressZ <= 0 {
		return fmt.Errorf("stress quantile must be positive, got %g", p.StressZ)
	}
	return nil
}

// Input describes one position in dollars per contract
type Input struct {
	WinProbability float64 // 0-1
	AvgProfit      float64
	AvgLoss        float64
	MaxLoss        float64
	StressLoss     float64 // loss after a model stress move, 0 when unknown
	ScenarioLoss   float64 // worst historical replay loss, 0 when unknown
}

// Assessment is the risk view of one position
type Assessment struct {
	ExpectedValue          float64  `json:"expected_value"`
	RiskAdjustedExpectancy float64  `json:"risk_adjusted_expectancy"`
	TailRisk               float64  `json:"tail_risk"`
	Level                  Level    `json:"level"`
	Warnings               []string `json:"warnings,omitempty"`
}

// ExpectedValue returns p*avgProfit - (1-p)*avgLoss for p in [0,1]
func ExpectedValue(winProb, avgProfit, avgLoss float64) float64 {
	p := math.Max(0, math.Min(1, winProb))
	return p*avgProfit - (1-p)*avgLoss
}

// RiskAdjustedExpectancy returns ev/maxLoss, or 0 when maxLoss is not positive
func RiskAdjustedExpectancy(ev, maxLoss float64) float64 {
	if maxLoss <= 0 || math.IsNaN(maxLoss) || math.IsInf(maxLoss, 0) {
		return 0
	}
	return ev / maxLoss
}

// TailRisk returns max(maxLoss*multiplier, scenarioLoss). It is never below maxLoss.
func TailRisk(maxLoss, scenarioLoss float64, params Params) float64 {
	multiplier := params.TailMultiplier
	if multiplier < 1 {
		multiplier = 1
	}
	tail := math.Max(0, maxLoss) * multiplier
	if scenarioLoss > tail && !math.IsInf(scenarioLoss, 0) {
		tail = scenarioLoss
	}
	return tail
}

// HistoricalScenarioLoss replays every rolling horizon-day return in prices
// on spot and returns the worst loss of the position, where pnl maps a
// terminal underlying price to the position's profit. The result is 0 when
// the history is shorter than the horizon or no replay loses money.
func HistoricalScenarioLoss(prices []float64, horizon int, spot float64, pnl func(terminal float64) float64) float64 {
	if horizon < 1 || len(prices) <= horizon || spot <= 0 || pnl == nil {
		return 0
	}
	worst := 0.0
	for i := 0; i+horizon < len(prices); i++ {
		from, to := prices[i], prices[i+horizon]
		if from <= 0 || to <= 0 {
			continue
		}
		loss := -pnl(spot * to / from)
		if loss > worst && !math.IsNaN(loss) {
			worst = loss
		}
	}
	return worst
}

// StressLoss returns the worst loss of pnl after a lognormal move of z
// standard deviations over years, taken both up and down from spot. The
// result is 0 when the move is undefined or neither side loses money.
func StressLoss(spot, sigma, years, z float64, pnl func(terminal float64) float64) float64 {
	if spot <= 0 || sigma <= 0 || z <= 0 || pnl == nil {
		return 0
	}
	if years <= 0 || math.IsNaN(years) || math.IsInf(years, 0) {
		return 0
	}
	move := z * sigma * math.Sqrt(years)
	worst := 0.0
	for _, terminal := range []float64{spot * math.Exp(-move), spot * math.Exp(move)} {
		loss := -pnl(terminal)
		if loss > worst && !math.IsNaN(loss) {
			worst = loss
		}
	}
	return worst
}

// ClassifyLevel maps risk-adjusted expectancy onto a level
func ClassifyLevel(rae float64) Level {
	switch {
	case rae > 0.05:
		return LevelLow
	case rae >= 0:
		return LevelMedium
	case rae >= -0.05:
		return LevelHigh
	default:
		return LevelExtreme
	}
}

// Assess computes expectancy, tail risk and advisory warnings. The tail
// warning fires when the historical replay loses materially more than the
// naive estimate: the model stress loss, or MaxLoss when no stress loss is known.
func Assess(in Input, params Params) Assessment {
	if params.Validate() != nil {
		params = DefaultParams()
	}
	ev := ExpectedValue(in.WinProbability, in.AvgProfit, in.AvgLoss)
	rae := RiskAdjustedExpectancy(ev, in.MaxLoss)
	a := Assessment{
		ExpectedValue:          ev,
		RiskAdjustedExpectancy: rae,
		TailRisk:               TailRisk(in.MaxLoss, in.ScenarioLoss, params),
		Level:                  ClassifyLevel(rae),
	}

	naive, basis := in.MaxLoss, "max loss"
	if in.StressLoss > 0 {
		naive, basis = in.StressLoss, "stress loss"
	}
	if naive > 0 && in.ScenarioLoss > naive*params.TailWarningRatio {
		a.Warnings = append(a.Warnings, fmt.Sprintf(
			"tail risk: historical loss %.2f is %.1fx the %s %.2f", in.ScenarioLoss, in.ScenarioLoss/naive, basis, naive))
	}
	if in.WinProbability >= params.HighWinRate && in.AvgProfit > 0 && in.AvgLoss >= in.AvgProfit*params.LossAsymmetry {
		a.Warnings = append(a.Warnings, fmt.Sprintf(
			"win rate %.0f%% hides an average loss %.1fx the average profit",
			in.WinProbability*100, in.AvgLoss/in.AvgProfit))
	}
	return a
}
