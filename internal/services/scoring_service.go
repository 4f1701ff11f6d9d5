package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"optionrank/internal/config"
	"optionrank/internal/pipeline"
	"optionrank/pkg/contracts/domain"
)

// ScoringService applies the configured defaults to a scoring request and
// runs it through the pipeline
type ScoringService struct {
	pipeline     *pipeline.Pipeline
	provider     domain.ChainProvider
	filters      pipeline.FilterParams
	riskFreeRate float64
	logger       *slog.Logger
}

// NewScoringService creates a scoring service. provider may be nil when only
// inline snapshots are scored.
func NewScoringService(p *pipeline.Pipeline, provider domain.ChainProvider, engine config.EngineConfig, logger *slog.Logger) *ScoringService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ScoringService{
		pipeline:     p,
		provider:     provider,
		filters:      FiltersFromConfig(engine.Filters),
		riskFreeRate: engine.RiskFreeRate,
		logger:       logger.With(slog.String("component", "scoring_service")),
	}
}

// FiltersFromConfig maps the configured default filters onto the pipeline's
func FiltersFromConfig(f config.FiltersConfig) pipeline.FilterParams {
	basis := pipeline.PremiumBasis(f.PremiumBasis)
	if basis == "" {
		basis = pipeline.PremiumPerContract
	}
	return pipeline.FilterParams{
		MinAnnualReturn: f.MinAnnualReturn,
		MaxAnnualReturn: f.MaxAnnualReturn,
		MinPremium:      f.MinPremium,
		MaxPremium:      f.MaxPremium,
		MaxSpread:       f.MaxSpread,
		PremiumBasis:    basis,
	}
}

// DefaultFilters returns the configured filters
func (s *ScoringService) DefaultFilters() pipeline.FilterParams {
	return s.filters
}

// ContractMultiplier returns the shares per contract the scorer uses
func (s *ScoringService) ContractMultiplier() float64 {
	return s.pipeline.Scorer().Params().ContractMultiplier
}

// ScoreChain ranks snap for direction d. A nil filters uses the configured
// defaults; a snapshot without a risk-free rate gets the configured one.
func (s *ScoringService) ScoreChain(ctx context.Context, snap *domain.ChainSnapshot, d domain.StrategyDirection, filters *pipeline.FilterParams) (*pipeline.Result, error) {
	f := s.filters
	if filters != nil {
		f = *filters
	}
	return s.pipeline.Run(ctx, s.withRate(snap), d, f)
}

// ScoreAll ranks snap for every direction, in domain.AllDirections order
func (s *ScoringService) ScoreAll(ctx context.Context, snap *domain.ChainSnapshot, filters *pipeline.FilterParams) ([]*pipeline.Result, error) {
	start := time.Now()
	snap = s.withRate(snap)

	results := make([]*pipeline.Result, 0, len(domain.AllDirections()))
	for _, d := range domain.AllDirections() {
		res, err := s.ScoreChain(ctx, snap, d, filters)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", d, err)
		}
		results = append(results, res)
	}

	if snap != nil {
		s.logger.InfoContext(ctx, "chain scored in every direction",
			slog.String("symbol", snap.Symbol),
			slog.Duration("duration", time.Since(start)))
	}
	return results, nil
}

// ScoreSymbol fetches symbol from the provider and ranks it for d
func (s *ScoringService) ScoreSymbol(ctx context.Context, symbol string, expiry time.Time, d domain.StrategyDirection, filters *pipeline.FilterParams) (*pipeline.Result, error) {
	snap, err := s.Fetch(ctx, symbol, expiry)
	if err != nil {
		return nil, err
	}
	return s.ScoreChain(ctx, snap, d, filters)
}

// Fetch loads symbol from the provider
func (s *ScoringService) Fetch(ctx context.Context, symbol string, expiry time.Time) (*domain.ChainSnapshot, error) {
	if s.provider == nil {
		return nil, fmt.Errorf("no chain provider configured")
	}
	snap, err := s.provider.FetchChain(ctx, symbol, expiry)
	if err != nil {
		s.logger.WarnContext(ctx, "chain fetch failed",
			slog.String("symbol", symbol),
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("fetch chain %s: %w", symbol, err)
	}
	return snap, nil
}

// withRate returns snap with the configured rate filled in, leaving the
// caller's snapshot untouched
func (s *ScoringService) withRate(snap *domain.ChainSnapshot) *domain.ChainSnapshot {
	if snap == nil || snap.RiskFreeRate != nil {
		return snap
	}
	cp := *snap
	rate := s.riskFreeRate
	cp.RiskFreeRate = &rate
	return &cp
}
