package liquidity

import (
	"fmt"
)

const (
	// DefaultSpreadWeight is the share of the factor driven by the spread score
	DefaultSpreadWeight = 0.4
	// DefaultOIWeight is the share of the factor driven by open interest
	DefaultOIWeight = 0.6
	// DefaultMinOpenInterest is the known open interest below which the factor is 0
	DefaultMinOpenInterest = 10
	// DefaultUnknownOIScore is used when open interest was not reported
	DefaultUnknownOIScore = 0.3
)

// Params holds the tunable inputs of the liquidity factor
type Params struct {
	SpreadWeight    float64 `json:"spread_weight" yaml:"spread_weight"`
	OIWeight        float64 `json:"oi_weight" yaml:"oi_weight"`
	MinOpenInterest int64   `json:"min_open_interest" yaml:"min_open_interest"`
	UnknownOIScore  float64 `json:"unknown_oi_score" yaml:"unknown_oi_score"`
}

// DefaultParams returns the standard 40/60 spread/open-interest weighting
func DefaultParams() Params {
	return Params{
		SpreadWeight:    DefaultSpreadWeight,
		OIWeight:        DefaultOIWeight,
		MinOpenInterest: DefaultMinOpenInterest,
		UnknownOIScore:  DefaultUnknownOIScore,
	}
}

// Validate checks that the weights are usable
func (p Params) Validate() error {
	if p.SpreadWeight < 0 || p.OIWeight < 0 {
		return ValidationError{Field: "weights", Message: "weights must be non-negative", Value: p}
	}
	sum := p.SpreadWeight + p.OIWeight
	if sum < 0.99 || sum > 1.01 {
		return ValidationError{Field: "weights", Message: fmt.Sprintf("weights must sum to 1, got %.3f", sum), Value: p}
	}
	if p.UnknownOIScore < 0 || p.UnknownOIScore > 1 {
		return ValidationError{Field: "unknown_oi_score", Message: "must be within [0,1]", Value: p.UnknownOIScore}
	}
	if p.MinOpenInterest < 0 {
		return ValidationError{Field: "min_open_interest", Message: "must be non-negative", Value: p.MinOpenInterest}
	}
	return nil
}

// Assessment is the breakdown behind a liquidity factor
type Assessment struct {
	SpreadRatio float64 `json:"spread_ratio"` // (ask-bid)/mid, +Inf when mid <= 0
	SpreadScore float64 `json:"spread_score"` // 0-1
	OIScore     float64 `json:"oi_score"`     // 0-1
	Factor      float64 `json:"factor"`       // 0-1
	ThinOI      bool    `json:"thin_oi"`      // known open interest below the minimum
	OIKnown     bool    `json:"oi_known"`
	Crossed     bool    `json:"crossed"` // bid above ask
}

// ValidationError represents validation errors
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
}

// Error implements the error interface
func (ve ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", ve.Field, ve.Message)
}
