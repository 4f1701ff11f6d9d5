package domain

import (
	"context"
	"time"
)

// ChainProvider supplies option chain snapshots. Market-data acquisition
// (brokerage clients, credentials, provider rate limits) lives behind this
// interface and outside the engine.
type ChainProvider interface {
	// FetchChain returns the snapshot for symbol. A zero expiry means every
	// expiry the provider holds.
	FetchChain(ctx context.Context, symbol string, expiry time.Time) (*ChainSnapshot, error)
}
