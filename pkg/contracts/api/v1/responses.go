package api

import (
	"time"

	"github.com/shopspring/decimal"
)

// FiltersResponse echoes the filters a ranking was produced with
type FiltersResponse struct {
	MinAnnualReturnPct float64 `json:"min_annual_return_pct"`
	MaxAnnualReturnPct float64 `json:"max_annual_return_pct"`
	MinPremium         float64 `json:"min_premium"`
	MaxPremium         float64 `json:"max_premium"`
	MaxSpread          float64 `json:"max_spread"`
	PremiumBasis       string  `json:"premium_basis"`
}

// FactorResponse is one weighted factor of a recommendation score
type FactorResponse struct {
	Name      string  `json:"name"`
	Value     float64 `json:"value"`
	Points    float64 `json:"points"`
	MaxPoints float64 `json:"max_points"`
}

// ScoredContract is one ranked contract with its scores
type ScoredContract struct {
	Rank                     int              `json:"rank"`
	Key                      string           `json:"key"`
	Type                     string           `json:"type"`
	Strike                   float64          `json:"strike"`
	Expiry                   time.Time        `json:"expiry"`
	Bid                      float64          `json:"bid"`
	Ask                      float64          `json:"ask"`
	OpenInterest             *int64           `json:"open_interest,omitempty"`
	ImpliedVolatilityPct     float64          `json:"implied_volatility_pct"`
	Score                    float64          `json:"score"`
	Tier                     string           `json:"tier"`
	Highlight                bool             `json:"highlight"`
	AssignmentProbabilityPct *float64         `json:"assignment_probability_pct,omitempty"`
	WinRatePct               float64          `json:"win_rate_pct"`
	LiquidityFactor          float64          `json:"liquidity_factor"`
	SpreadPct                float64          `json:"spread_pct"`
	AnnualizedReturnPct      float64          `json:"annualized_return_pct"`
	DaysToExpiry             float64          `json:"days_to_expiry"`
	Premium                  float64          `json:"premium"`
	Breakeven                float64          `json:"breakeven"`
	PremiumIncome            decimal.Decimal  `json:"premium_income"`
	MarginRequirement        decimal.Decimal  `json:"margin_requirement"`
	MaxLoss                  float64          `json:"max_loss"`
	ExpectedValue            float64          `json:"expected_value"`
	RiskAdjustedExpectancy   float64          `json:"risk_adjusted_expectancy"`
	TailRiskEstimate         float64          `json:"tail_risk_estimate"`
	RiskLevel                string           `json:"risk_level"`
	VRPPct                   *float64         `json:"vrp_pct,omitempty"`
	RVForecastPct            *float64         `json:"rv_forecast_pct,omitempty"`
	IVRank                   float64          `json:"iv_rank"`
	IVPercentile             float64          `json:"iv_percentile"`
	VolBias                  string           `json:"vol_bias"`
	GreeksEfficiency         float64          `json:"greeks_efficiency"`
	VetoReason               string           `json:"veto_reason,omitempty"`
	VetoReasons              []string         `json:"veto_reasons,omitempty"`
	Warnings                 []string         `json:"warnings,omitempty"`
	Factors                  []FactorResponse `json:"factors,omitempty"`
}

// SkippedContract is a contract that could not be scored
type SkippedContract struct {
	Key    string  `json:"key"`
	Strike float64 `json:"strike"`
	Reason string  `json:"reason"`
}

// VolatilityResponse is the chain-level realized volatility forecast
type VolatilityResponse struct {
	ForecastPct  *float64 `json:"forecast_pct,omitempty"`
	Method       string   `json:"method,omitempty"`
	FellBack     bool     `json:"fell_back,omitempty"`
	Observations int      `json:"observations,omitempty"`
	Error        string   `json:"error,omitempty"`
}

// SummaryResponse aggregates one ranked chain
type SummaryResponse struct {
	Total            int            `json:"total"`
	Ranked           int            `json:"ranked"`
	Vetoed           int            `json:"vetoed"`
	Highlighted      int            `json:"highlighted"`
	Skipped          int            `json:"skipped"`
	Filtered         int            `json:"filtered"`
	TierCounts       map[string]int `json:"tier_counts"`
	VetoCounts       map[string]int `json:"veto_counts"`
	AverageLiquidity float64        `json:"average_liquidity"`
	AverageScore     float64        `json:"average_score"`
	Best             string         `json:"best,omitempty"`
}

// ScoreChainResponse is the ranking of one chain for one direction
type ScoreChainResponse struct {
	Symbol          string             `json:"symbol"`
	Direction       string             `json:"direction"`
	UnderlyingPrice float64            `json:"underlying_price"`
	AsOf            time.Time          `json:"as_of"`
	Filters         FiltersResponse    `json:"filters"`
	Contracts       []ScoredContract   `json:"contracts"`
	Skipped         []SkippedContract  `json:"skipped"`
	Volatility      VolatilityResponse `json:"volatility"`
	Summary         SummaryResponse    `json:"summary"`
	DurationMs      int64              `json:"duration_ms"`
}

// ScoreAllResponse holds one ranking per direction
type ScoreAllResponse struct {
	Symbol  string               `json:"symbol"`
	Results []ScoreChainResponse `json:"results"`
}

// ChainInfo describes a stored snapshot
type ChainInfo struct {
	Symbol    string    `json:"symbol"`
	SizeBytes int64     `json:"size_bytes"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ChainListResponse lists the stored snapshots
type ChainListResponse struct {
	Chains []ChainInfo `json:"chains"`
	Count  int         `json:"count"`
}

// StoreChainResponse acknowledges a stored snapshot
type StoreChainResponse struct {
	Symbol    string `json:"symbol"`
	Contracts int    `json:"contracts"`
}
