package http

import (
	"context"
	"time"

	"optionrank/internal/pipeline"
	"optionrank/internal/services"
	"optionrank/pkg/contracts/domain"
)

// ChainScoringService ranks option chains
type ChainScoringService interface {
	ScoreChain(ctx context.Context, snap *domain.ChainSnapshot, d domain.StrategyDirection, filters *pipeline.FilterParams) (*pipeline.Result, error)
	ScoreAll(ctx context.Context, snap *domain.ChainSnapshot, filters *pipeline.FilterParams) ([]*pipeline.Result, error)
	Fetch(ctx context.Context, symbol string, expiry time.Time) (*domain.ChainSnapshot, error)
	DefaultFilters() pipeline.FilterParams
}

// ChainStorage lists and stores snapshots
type ChainStorage interface {
	List(ctx context.Context) ([]services.ChainInfo, error)
	Save(ctx context.Context, snap *domain.ChainSnapshot) (string, error)
}

var (
	_ ChainScoringService = (*services.ScoringService)(nil)
	_ ChainStorage        = (*services.ChainStore)(nil)
)
