package domain

import (
	"fmt"
	"strings"
	"time"
)

// DefaultRiskFreeRate is used when a snapshot does not carry a rate
const DefaultRiskFreeRate = 0.05

// OptionType represents the right carried by an option contract
type OptionType string

const (
	OptionTypeCall OptionType = "CALL"
	OptionTypePut  OptionType = "PUT"
)

// IsValid reports whether the option type is known
func (t OptionType) IsValid() bool {
	return t == OptionTypeCall || t == OptionTypePut
}

// Greeks holds first and second order sensitivities. Theta is per calendar day.
type Greeks struct {
	Delta float64 `json:"delta"`
	Gamma float64 `json:"gamma"`
	Theta float64 `json:"theta"`
	Vega  float64 `json:"vega"`
}

// OptionContract represents a single quoted contract in a chain.
// Quotes are per share. A nil OpenInterest means the feed did not report it.
type OptionContract struct {
	Symbol            string     `json:"symbol" validate:"required"`
	Strike            float64    `json:"strike" validate:"gt=0"`
	Expiry            time.Time  `json:"expiry" validate:"required"`
	Type              OptionType `json:"type" validate:"required,oneof=CALL PUT"`
	Bid               float64    `json:"bid" validate:"min=0"`
	Ask               float64    `json:"ask" validate:"min=0"`
	Last              float64    `json:"last,omitempty" validate:"min=0"`
	Volume            int64      `json:"volume,omitempty" validate:"min=0"`
	OpenInterest      *int64     `json:"open_interest,omitempty"`
	ImpliedVolatility float64    `json:"implied_volatility" validate:"min=0"` // fraction, 0.30 = 30%
	Greeks            *Greeks    `json:"greeks,omitempty"`
}

// Mid returns the midpoint of the quote
func (c OptionContract) Mid() float64 {
	return (c.Bid + c.Ask) / 2
}

// Crossed reports whether the bid is above the ask
func (c OptionContract) Crossed() bool {
	return c.Bid > c.Ask
}

// HasOpenInterest reports whether open interest was reported
func (c OptionContract) HasOpenInterest() bool {
	return c.OpenInterest != nil
}

// Key identifies a contract within a chain for logs and skip records
func (c OptionContract) Key() string {
	return fmt.Sprintf("%s %s %.2f %s", c.Symbol, c.Expiry.Format("2006-01-02"), c.Strike, c.Type)
}

// Validate checks the per-contract fields the engine depends on
func (c OptionContract) Validate() error {
	if !c.Type.IsValid() {
		return &InvalidInputError{Field: "type", Value: string(c.Type)}
	}
	if c.Strike <= 0 {
		return &InvalidInputError{Field: "strike", Value: fmt.Sprintf("%g", c.Strike)}
	}
	if c.Bid < 0 {
		return &InvalidInputError{Field: "bid", Value: fmt.Sprintf("%g", c.Bid)}
	}
	if c.Ask < 0 {
		return &InvalidInputError{Field: "ask", Value: fmt.Sprintf("%g", c.Ask)}
	}
	if c.ImpliedVolatility < 0 {
		return &InvalidInputError{Field: "implied_volatility", Value: fmt.Sprintf("%g", c.ImpliedVolatility)}
	}
	if c.OpenInterest != nil && *c.OpenInterest < 0 {
		return &InvalidInputError{Field: "open_interest", Value: fmt.Sprintf("%d", *c.OpenInterest)}
	}
	return nil
}

// MarketContext is the market state shared by every contract of a chain
type MarketContext struct {
	UnderlyingPrice   float64   `json:"underlying_price"`
	RiskFreeRate      float64   `json:"risk_free_rate"`
	PriceHistory      []float64 `json:"price_history"`       // oldest to newest
	ImpliedVolHistory []float64 `json:"implied_vol_history"` // fractions
	AsOf              time.Time `json:"as_of"`
}

// ChainSnapshot is an immutable view of an option chain at one instant
type ChainSnapshot struct {
	Symbol            string           `json:"symbol" validate:"required"`
	Expiry            time.Time        `json:"expiry,omitempty"`
	UnderlyingPrice   float64          `json:"underlying_price" validate:"gt=0"`
	RiskFreeRate      *float64         `json:"risk_free_rate,omitempty"`
	Contracts         []OptionContract `json:"contracts" validate:"dive"`
	PriceHistory      []float64        `json:"price_history,omitempty"`
	ImpliedVolHistory []float64        `json:"implied_vol_history,omitempty"`
	AsOf              time.Time        `json:"as_of"`
}

// Context builds the market context for the snapshot, applying the default rate
func (s ChainSnapshot) Context() MarketContext {
	rate := DefaultRiskFreeRate
	if s.RiskFreeRate != nil {
		rate = *s.RiskFreeRate
	}
	return MarketContext{
		UnderlyingPrice:   s.UnderlyingPrice,
		RiskFreeRate:      rate,
		PriceHistory:      s.PriceHistory,
		ImpliedVolHistory: s.ImpliedVolHistory,
		AsOf:              s.AsOf,
	}
}

// Validate checks snapshot-level inputs. Contract-level problems are not
// reported here; they are skipped individually during scoring.
func (s ChainSnapshot) Validate() error {
	if strings.TrimSpace(s.Symbol) == "" {
		return &InvalidInputError{Field: "symbol", Value: s.Symbol}
	}
	if s.UnderlyingPrice <= 0 {
		return &InvalidInputError{Field: "underlying_price", Value: fmt.Sprintf("%g", s.UnderlyingPrice)}
	}
	if s.AsOf.IsZero() {
		return &InvalidInputError{Field: "as_of", Value: "zero"}
	}
	for i, p := range s.PriceHistory {
		if p <= 0 {
			return &InvalidInputError{Field: fmt.Sprintf("price_history[%d]", i), Value: fmt.Sprintf("%g", p)}
		}
	}
	return nil
}

// StrategyDirection selects which side of which option type is being evaluated
type StrategyDirection string

const (
	DirectionSellPut  StrategyDirection = "sell-put"
	DirectionSellCall StrategyDirection = "sell-call"
	DirectionBuyCall  StrategyDirection = "buy-call"
	DirectionBuyPut   StrategyDirection = "buy-put"
)

// AllDirections lists every supported direction in display order
func AllDirections() []StrategyDirection {
	return []StrategyDirection{DirectionSellPut, DirectionSellCall, DirectionBuyCall, DirectionBuyPut}
}

// ParseDirection parses a direction name, case-insensitively
func ParseDirection(s string) (StrategyDirection, error) {
	d := StrategyDirection(strings.ToLower(strings.TrimSpace(s)))
	if !d.IsValid() {
		return "", &InvalidInputError{Field: "direction", Value: s}
	}
	return d, nil
}

// IsValid reports whether the direction is one of the supported values
func (d StrategyDirection) IsValid() bool {
	switch d {
	case DirectionSellPut, DirectionSellCall, DirectionBuyCall, DirectionBuyPut:
		return true
	}
	return false
}

// OptionType returns the contract type the direction trades
func (d StrategyDirection) OptionType() OptionType {
	switch d {
	case DirectionSellPut, DirectionBuyPut:
		return OptionTypePut
	default:
		return OptionTypeCall
	}
}

// IsSell reports whether the direction writes the option
func (d StrategyDirection) IsSell() bool {
	return d == DirectionSellPut || d == DirectionSellCall
}

func (d StrategyDirection) String() string {
	return string(d)
}

// IsValidSymbol reports whether s looks like an underlying ticker: 1 to 10
// upper-case letters, digits, dots or dashes
func IsValidSymbol(s string) bool {
	if len(s) < 1 || len(s) > 10 {
		return false
	}
	for _, ch := range s {
		if !((ch >= 'A' && ch <= 'Z') || (ch >= '0' && ch <= '9') || ch == '.' || ch == '-') {
			return false
		}
	}
	return true
}
