package testutil

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"optionrank/pkg/contracts/domain"
)

var (
	// FixtureAsOf is 16:00 New York, exactly 30 days before FixtureExpiry
	FixtureAsOf   = time.Date(2024, 1, 2, 21, 0, 0, 0, time.UTC)
	FixtureExpiry = time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
)

// OpenInterest returns a pointer to a known open interest
func OpenInterest(v int64) *int64 { return &v }

// PriceHistory returns n deterministic closes around start, oldest first
func PriceHistory(n int, start float64) []float64 {
	prices := make([]float64, n)
	level := start
	for i := range prices {
		r := 0.012*math.Sin(float64(i)*0.7) + 0.006*math.Cos(float64(i)*1.9)
		level *= math.Exp(r)
		prices[i] = level
	}
	return prices
}

// IVHistory returns n implied volatilities between lo and hi
func IVHistory(n int, lo, hi float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = lo + (hi-lo)*(0.5+0.5*math.Sin(float64(i)*0.4))
	}
	return out
}

func contract(t domain.OptionType, strike, bid, ask float64, oi *int64) domain.OptionContract {
	return domain.OptionContract{
		Symbol:            "XYZ",
		Strike:            strike,
		Expiry:            FixtureExpiry,
		Type:              t,
		Bid:               bid,
		Ask:               ask,
		Last:              (bid + ask) / 2,
		Volume:            250,
		OpenInterest:      oi,
		ImpliedVolatility: 0.30,
	}
}

// SampleChain returns a 30 day XYZ chain around a spot of 100. It holds
// liquid and illiquid strikes of both types, one contract with unknown
// open interest and one with a thin book.
func SampleChain() *domain.ChainSnapshot {
	return &domain.ChainSnapshot{
		Symbol:          "XYZ",
		Expiry:          FixtureExpiry,
		UnderlyingPrice: 100,
		AsOf:            FixtureAsOf,
		Contracts: []domain.OptionContract{
			contract(domain.OptionTypePut, 85, 0.38, 0.40, OpenInterest(1500)),
			contract(domain.OptionTypePut, 90, 1.20, 1.24, OpenInterest(800)),
			contract(domain.OptionTypePut, 95, 2.10, 2.20, OpenInterest(300)),
			contract(domain.OptionTypePut, 100, 3.75, 3.85, nil),
			contract(domain.OptionTypePut, 105, 6.40, 7.60, OpenInterest(5)),
			contract(domain.OptionTypeCall, 95, 6.60, 6.80, OpenInterest(400)),
			contract(domain.OptionTypeCall, 100, 3.90, 4.10, OpenInterest(2000)),
			contract(domain.OptionTypeCall, 105, 1.95, 2.05, OpenInterest(900)),
			contract(domain.OptionTypeCall, 110, 0.85, 0.90, OpenInterest(600)),
			contract(domain.OptionTypeCall, 115, 0.30, 0.34, OpenInterest(40)),
		},
		PriceHistory:      PriceHistory(160, 95),
		ImpliedVolHistory: IVHistory(60, 0.20, 0.40),
	}
}

// WriteSnapshot writes snap as indented JSON to dir/name and returns the path
func WriteSnapshot(dir, name string, snap *domain.ChainSnapshot) (string, error) {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}
	return path, nil
}
