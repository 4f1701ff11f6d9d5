package scoring

import (
	"fmt"

	"github.com/shopspring/decimal"

	"optionrank/internal/liquidity"
	"optionrank/internal/risk"
	"optionrank/internal/volatility"
)

// Tier is the recommendation band of a score
type Tier string

const (
	TierStronglyRecommended Tier = "Strongly Recommended"
	TierRecommended         Tier = "Recommended"
	TierNeutral             Tier = "Neutral"
	TierNotRecommended      Tier = "Not Recommended"
)

// Tiers lists every tier from best to worst
func Tiers() []Tier {
	return []Tier{TierStronglyRecommended, TierRecommended, TierNeutral, TierNotRecommended}
}

// VetoReason is the machine readable cause of a disqualification
type VetoReason string

const (
	VetoLowLiquidity      VetoReason = "low_liquidity"
	VetoInsufficientYield VetoReason = "insufficient_yield"
	VetoAssignmentRisk    VetoReason = "assignment_risk"
	VetoWideSpread        VetoReason = "wide_spread"
	VetoThinOpenInterest  VetoReason = "thin_open_interest"
)

// VetoReasons lists every reason in the order the gate checks them
func VetoReasons() []VetoReason {
	return []VetoReason{VetoLowLiquidity, VetoInsufficientYield, VetoAssignmentRisk, VetoWideSpread, VetoThinOpenInterest}
}

// FactorScore is the contribution of one weighted factor
type FactorScore struct {
	Name      string  `json:"name"`
	Value     float64 `json:"value"`
	Points    float64 `json:"points"`
	MaxPoints float64 `json:"max_points"`
}

// ScoreBundle is everything computed for one contract, market and direction.
// Probabilities and IV ranks are on a 0-100 scale; volatilities, returns and
// spread ratios are fractions. Money amounts are dollars per contract.
type ScoreBundle struct {
	AssignmentProbability  *float64        `json:"assignment_probability,omitempty"`
	WinRate                float64         `json:"win_rate"`
	LiquidityFactor        float64         `json:"liquidity_factor"`
	SpreadRatio            float64         `json:"spread_ratio"`
	VRP                    *float64        `json:"vrp,omitempty"`
	RVForecast             *float64        `json:"rv_forecast,omitempty"`
	IVRank                 float64         `json:"iv_rank"`
	IVPercentile           float64         `json:"iv_percentile"`
	VolBias                volatility.Bias `json:"vol_bias"`
	AnnualizedReturn       float64         `json:"annualized_return"`
	DaysToExpiry           float64         `json:"days_to_expiry"`
	Premium                float64         `json:"premium"` // per share
	Breakeven              float64         `json:"breakeven"`
	PremiumIncome          decimal.Decimal `json:"premium_income"`
	MarginRequirement      decimal.Decimal `json:"margin_requirement"`
	MaxLoss                float64         `json:"max_loss"`
	ExpectedValue          float64         `json:"expected_value"`
	RiskAdjustedExpectancy float64         `json:"risk_adjusted_expectancy"`
	TailRiskEstimate       float64         `json:"tail_risk_estimate"`
	RiskLevel              risk.Level      `json:"risk_level"`
	GreeksEfficiency       float64         `json:"greeks_efficiency"`
	Factors                []FactorScore   `json:"factors,omitempty"`
	RecommendationScore    float64         `json:"recommendation_score"`
	Tier                   Tier            `json:"tier"`
	Highlight              bool            `json:"highlight"`
	VetoReason             VetoReason      `json:"veto_reason,omitempty"`
	VetoReasons            []VetoReason    `json:"veto_reasons,omitempty"`
	Warnings               []string        `json:"warnings,omitempty"`
}

// Vetoed reports whether the contract was disqualified
func (b ScoreBundle) Vetoed() bool {
	return b.VetoReason != ""
}

const (
	// DefaultContractMultiplier is the number of shares per contract
	DefaultContractMultiplier = 100
	// DefaultScoreScale is the maximum recommendation score
	DefaultScoreScale = 80
	// DefaultAssignmentCeiling is the sell-side assignment probability veto, 0-100
	DefaultAssignmentCeiling = 75
)

// VetoParams holds the hard disqualification thresholds
type VetoParams struct {
	MinLiquidity      float64 `json:"min_liquidity" yaml:"min_liquidity"`
	MinAnnualReturn   float64 `json:"min_annual_return" yaml:"min_annual_return"`
	AssignmentCeiling float64 `json:"assignment_ceiling" yaml:"assignment_ceiling"` // 0-100, sell directions only
	MaxSpreadRatio    float64 `json:"max_spread_ratio" yaml:"max_spread_ratio"`
	MinOpenInterest   int64   `json:"min_open_interest" yaml:"min_open_interest"`
}

// TierParams holds the score thresholds of each tier
type TierParams struct {
	StronglyRecommended float64 `json:"strongly_recommended" yaml:"strongly_recommended"`
	Recommended         float64 `json:"recommended" yaml:"recommended"`
	Neutral             float64 `json:"neutral" yaml:"neutral"`
}

// Params holds every scorer setting
type Params struct {
	ContractMultiplier float64           `json:"contract_multiplier" yaml:"contract_multiplier"`
	ScoreScale         float64           `json:"score_scale" yaml:"score_scale"`
	Veto               VetoParams        `json:"veto" yaml:"veto"`
	Tiers              TierParams        `json:"tiers" yaml:"tiers"`
	Liquidity          liquidity.Params  `json:"liquidity" yaml:"liquidity"`
	Risk               risk.Params       `json:"risk" yaml:"risk"`
	Volatility         volatility.Params `json:"volatility" yaml:"volatility"`
}

// DefaultParams returns the canonical 80-point configuration
func DefaultParams() Params {
	return Params{
		ContractMultiplier: DefaultContractMultiplier,
		ScoreScale:         DefaultScoreScale,
		Veto: VetoParams{
			MinLiquidity:      0.3,
			MinAnnualReturn:   0.03,
			AssignmentCeiling: DefaultAssignmentCeiling,
			MaxSpreadRatio:    0.10,
			MinOpenInterest:   liquidity.DefaultMinOpenInterest,
		},
		Tiers: TierParams{
			StronglyRecommended: 60,
			Recommended:         52,
			Neutral:             40,
		},
		Liquidity:  liquidity.DefaultParams(),
		Risk:       risk.DefaultParams(),
		Volatility: volatility.DefaultParams(),
	}
}

// Validate checks the parameters
func (p Params) Validate() error {
	if p.ContractMultiplier <= 0 {
		return fmt.Errorf("contract multiplier must be positive, got %g", p.ContractMultiplier)
	}
	if p.ScoreScale <= 0 {
		return fmt.Errorf("score scale must be positive, got %g", p.ScoreScale)
	}
	if p.Veto.AssignmentCeiling <= 0 || p.Veto.AssignmentCeiling > 100 {
		return fmt.Errorf("assignment ceiling must be within (0,100], got %g", p.Veto.AssignmentCeiling)
	}
	t := p.Tiers
	if !(t.StronglyRecommended >= t.Recommended && t.Recommended >= t.Neutral && t.Neutral >= 0) {
		return fmt.Errorf("tier thresholds must be descending: %g, %g, %g", t.StronglyRecommended, t.Recommended, t.Neutral)
	}
	if err := p.Liquidity.Validate(); err != nil {
		return fmt.Errorf("liquidity: %w", err)
	}
	if err := p.Risk.Validate(); err != nil {
		return fmt.Errorf("risk: %w", err)
	}
	if err := p.Volatility.Validate(); err != nil {
		return fmt.Errorf("volatility: %w", err)
	}
	return nil
}

// TierFor returns the tier of score and whether it is highlighted
func (t TierParams) TierFor(score float64) (Tier, bool) {
	switch {
	case score >= t.StronglyRecommended:
		return TierStronglyRecommended, true
	case score >= t.Recommended:
		return TierRecommended, false
	case score >= t.Neutral:
		return TierNeutral, false
	default:
		return TierNotRecommended, false
	}
}
