// Package api holds the JSON contracts of the optionrank HTTP API.
// Version v1 represents the current stable API version.
//
// Volatilities, returns, probabilities and spreads are percentages on the
// wire (30.0 means 30%). Premiums and prices are dollars.
package api

import (
	"time"

	"optionrank/pkg/contracts/domain"
)

// FilterRequest overrides the configured range filters. Omitted fields keep
// their configured value.
type FilterRequest struct {
	MinAnnualReturnPct *float64 `json:"min_annual_return_pct,omitempty"`
	MaxAnnualReturnPct *float64 `json:"max_annual_return_pct,omitempty"`
	MinPremium         *float64 `json:"min_premium,omitempty" validate:"omitempty,gte=0"`
	MaxPremium         *float64 `json:"max_premium,omitempty" validate:"omitempty,gte=0"`
	MaxSpread          *float64 `json:"max_spread,omitempty" validate:"omitempty,gte=0"`
	PremiumBasis       string   `json:"premium_basis,omitempty" validate:"omitempty,oneof=contract share"`
}

// ScoreChainRequest is the body of POST /api/v1/chains/score. The chain is
// not validated field by field: a malformed contract is skipped by the
// engine instead of failing the request.
type ScoreChainRequest struct {
	Chain   *ChainRequest  `json:"chain" validate:"-"`
	Filters *FilterRequest `json:"filters,omitempty"`
	Limit   int            `json:"limit,omitempty" validate:"omitempty,min=1,max=500"`
}

// StoreChainRequest is the body of PUT /api/v1/chains/{symbol}
type StoreChainRequest struct {
	Chain *ChainRequest `json:"chain" validate:"required"`
}

// ChainRequest is an option chain snapshot on the wire. The risk-free rate
// and every volatility are percentages.
type ChainRequest struct {
	Symbol               string            `json:"symbol" validate:"required"`
	Expiry               time.Time         `json:"expiry,omitempty"`
	UnderlyingPrice      float64           `json:"underlying_price" validate:"gt=0"`
	RiskFreeRatePct      *float64          `json:"risk_free_rate_pct,omitempty"`
	Contracts            []ContractRequest `json:"contracts" validate:"dive"`
	PriceHistory         []float64         `json:"price_history,omitempty"`
	ImpliedVolHistoryPct []float64         `json:"implied_vol_history_pct,omitempty"`
	AsOf                 time.Time         `json:"as_of"`
}

// ContractRequest is one quoted contract of a ChainRequest
type ContractRequest struct {
	Symbol               string            `json:"symbol" validate:"required"`
	Strike               float64           `json:"strike" validate:"gt=0"`
	Expiry               time.Time         `json:"expiry" validate:"required"`
	Type                 domain.OptionType `json:"type" validate:"required,oneof=CALL PUT"`
	Bid                  float64           `json:"bid" validate:"min=0"`
	Ask                  float64           `json:"ask" validate:"min=0"`
	Last                 float64           `json:"last,omitempty" validate:"min=0"`
	Volume               int64             `json:"volume,omitempty" validate:"min=0"`
	OpenInterest         *int64            `json:"open_interest,omitempty"`
	ImpliedVolatilityPct float64           `json:"implied_volatility_pct" validate:"min=0"`
	Greeks               *domain.Greeks    `json:"greeks,omitempty"`
}

// NewChainRequest converts a snapshot to its wire form
func NewChainRequest(snap *domain.ChainSnapshot) *ChainRequest {
	if snap == nil {
		return nil
	}
	out := &ChainRequest{
		Symbol:               snap.Symbol,
		Expiry:               snap.Expiry,
		UnderlyingPrice:      snap.UnderlyingPrice,
		Contracts:            make([]ContractRequest, 0, len(snap.Contracts)),
		PriceHistory:         snap.PriceHistory,
		ImpliedVolHistoryPct: percents(snap.ImpliedVolHistory),
		AsOf:                 snap.AsOf,
	}
	if snap.RiskFreeRate != nil {
		r := *snap.RiskFreeRate * 100
		out.RiskFreeRatePct = &r
	}
	for _, c := range snap.Contracts {
		out.Contracts = append(out.Contracts, ContractRequest{
			Symbol:               c.Symbol,
			Strike:               c.Strike,
			Expiry:               c.Expiry,
			Type:                 c.Type,
			Bid:                  c.Bid,
			Ask:                  c.Ask,
			Last:                 c.Last,
			Volume:               c.Volume,
			OpenInterest:         c.OpenInterest,
			ImpliedVolatilityPct: c.ImpliedVolatility * 100,
			Greeks:               c.Greeks,
		})
	}
	return out
}

// Snapshot converts the wire chain to the engine's form, turning every
// percentage into a fraction
func (c *ChainRequest) Snapshot() *domain.ChainSnapshot {
	if c == nil {
		return nil
	}
	snap := &domain.ChainSnapshot{
		Symbol:            c.Symbol,
		Expiry:            c.Expiry,
		UnderlyingPrice:   c.UnderlyingPrice,
		Contracts:         make([]domain.OptionContract, 0, len(c.Contracts)),
		PriceHistory:      c.PriceHistory,
		ImpliedVolHistory: fractions(c.ImpliedVolHistoryPct),
		AsOf:              c.AsOf,
	}
	if c.RiskFreeRatePct != nil {
		r := *c.RiskFreeRatePct / 100
		snap.RiskFreeRate = &r
	}
	for _, k := range c.Contracts {
		snap.Contracts = append(snap.Contracts, domain.OptionContract{
			Symbol:            k.Symbol,
			Strike:            k.Strike,
			Expiry:            k.Expiry,
			Type:              k.Type,
			Bid:               k.Bid,
			Ask:               k.Ask,
			Last:              k.Last,
			Volume:            k.Volume,
			OpenInterest:      k.OpenInterest,
			ImpliedVolatility: k.ImpliedVolatilityPct / 100,
			Greeks:            k.Greeks,
		})
	}
	return snap
}

func percents(values []float64) []float64 {
	if values == nil {
		return nil
	}
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = v * 100
	}
	return out
}

func fractions(values []float64) []float64 {
	if values == nil {
		return nil
	}
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = v / 100
	}
	return out
}
