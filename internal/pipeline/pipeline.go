// Package pipeline scores a whole option chain for one strategy direction.
// It selects the contracts matching the direction, applies the user range
// filters, scores the survivors in parallel and returns them ranked.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sort"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"optionrank/internal/infrastructure"
	"optionrank/internal/scoring"
	"optionrank/internal/volatility"
	"optionrank/pkg/contracts/domain"
)

const tracerName = "optionrank/pipeline"

// Options configures a Pipeline
type Options struct {
	// MaxConcurrency bounds the scoring goroutines; 0 uses GOMAXPROCS
	MaxConcurrency int
	Tracer         trace.Tracer
	Metrics        *infrastructure.EngineMetrics
}

// RankedContract is one scored contract in result order
type RankedContract struct {
	Rank     int                   `json:"rank"`
	Contract domain.OptionContract `json:"contract"`
	Score    scoring.ScoreBundle   `json:"score"`
}

// SkippedContract is a contract that could not be scored
type SkippedContract struct {
	Key    string  `json:"key"`
	Strike float64 `json:"strike"`
	Reason string  `json:"reason"`
}

// VolatilityOutcome is the chain-level realized volatility forecast
type VolatilityOutcome struct {
	Forecast *volatility.Forecast `json:"forecast,omitempty"`
	Error    string               `json:"error,omitempty"`
}

// Result is the ranked output of one chain and direction
type Result struct {
	Symbol          string                   `json:"symbol"`
	Direction       domain.StrategyDirection `json:"direction"`
	UnderlyingPrice float64                  `json:"underlying_price"`
	AsOf            time.Time                `json:"as_of"`
	Ranked          []RankedContract         `json:"ranked"`
	Skipped         []SkippedContract        `json:"skipped"`
	Filtered        int                      `json:"filtered"`
	Volatility      VolatilityOutcome        `json:"volatility"`
	Summary         Summary                  `json:"summary"`
	Duration        time.Duration            `json:"duration"`
}

// Pipeline ranks option chains
type Pipeline struct {
	scorer  *scoring.Scorer
	logger  *slog.Logger
	tracer  trace.Tracer
	metrics *infrastructure.EngineMetrics
	limit   int
}

// New creates a pipeline around scorer
func New(scorer *scoring.Scorer, logger *slog.Logger, opts Options) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	tracer := opts.Tracer
	if tracer == nil {
		tracer = otel.Tracer(tracerName)
	}
	limit := opts.MaxConcurrency
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}
	return &Pipeline{
		scorer:  scorer,
		logger:  logger.With(slog.String("component", "pipeline")),
		tracer:  tracer,
		metrics: opts.Metrics,
		limit:   limit,
	}
}

// Scorer returns the scorer the pipeline uses
func (p *Pipeline) Scorer() *scoring.Scorer {
	return p.scorer
}

// outcome is the result slot of one candidate
type outcome struct {
	bundle scoring.ScoreBundle
	err    error
}

// Run scores every contract of snap matching direction d. Snapshot and
// filter problems fail the whole call; per-contract problems are recorded
// in Result.Skipped.
func (p *Pipeline) Run(ctx context.Context, snap *domain.ChainSnapshot, d domain.StrategyDirection, filters FilterParams) (*Result, error) {
	start := time.Now()
	if snap == nil {
		return nil, &domain.InvalidInputError{Field: "snapshot", Value: "nil"}
	}
	if !d.IsValid() {
		return nil, &domain.InvalidInputError{Field: "direction", Value: string(d)}
	}
	if err := snap.Validate(); err != nil {
		return nil, err
	}
	if err := filters.Validate(); err != nil {
		return nil, err
	}

	ctx, span := p.tracer.Start(ctx, "pipeline.Run", trace.WithAttributes(
		attribute.String("chain.symbol", snap.Symbol),
		attribute.String("chain.direction", d.String()),
		attribute.Int("chain.contracts", len(snap.Contracts)),
	))
	defer span.End()

	logger := p.logger.With(
		slog.String("symbol", snap.Symbol),
		slog.String("direction", d.String()),
	)
	logger.InfoContext(ctx, "scoring chain",
		slog.Int("contracts", len(snap.Contracts)),
		slog.Float64("underlying_price", snap.UnderlyingPrice))

	mkt := snap.Context()
	res := &Result{
		Symbol:          snap.Symbol,
		Direction:       d,
		UnderlyingPrice: snap.UnderlyingPrice,
		AsOf:            snap.AsOf,
		Ranked:          []RankedContract{},
		Skipped:         []SkippedContract{},
	}

	forecast, ferr := p.scorer.Forecaster().Forecast(mkt.PriceHistory)
	var fc *volatility.Forecast
	if ferr == nil {
		fc = &forecast
		res.Volatility.Forecast = fc
	} else {
		res.Volatility.Error = ferr.Error()
		logger.WarnContext(ctx, "volatility forecast unavailable", slog.String("error", ferr.Error()))
		p.count(ctx, func(m *infrastructure.EngineMetrics) metric.Int64Counter { return m.ForecastFailures }, 1)
	}

	multiplier := p.scorer.Params().ContractMultiplier
	candidates := make([]domain.OptionContract, 0, len(snap.Contracts))
	for _, c := range snap.Contracts {
		if c.Type != d.OptionType() {
			continue
		}
		if !filters.acceptsQuote(c, multiplier) {
			res.Filtered++
			continue
		}
		candidates = append(candidates, c)
	}

	outcomes, err := p.scoreAll(ctx, candidates, mkt, d, fc, ferr)
	if err != nil {
		infrastructure.RecordError(ctx, err)
		logger.WarnContext(ctx, "chain scoring cancelled", slog.String("error", err.Error()))
		return nil, fmt.Errorf("score chain %s: %w", snap.Symbol, err)
	}

	for i, o := range outcomes {
		c := candidates[i]
		if o.err != nil {
			res.Skipped = append(res.Skipped, SkippedContract{Key: c.Key(), Strike: c.Strike, Reason: o.err.Error()})
			logger.DebugContext(ctx, "contract skipped",
				slog.String("contract", c.Key()),
				slog.String("error", o.err.Error()))
			continue
		}
		if !filters.acceptsScore(d, o.bundle) {
			res.Filtered++
			continue
		}
		res.Ranked = append(res.Ranked, RankedContract{Contract: c, Score: o.bundle})
	}

	rank(res.Ranked)
	res.Summary = summarize(res)
	res.Duration = time.Since(start)

	p.record(ctx, res)
	span.SetAttributes(
		attribute.Int("chain.ranked", len(res.Ranked)),
		attribute.Int("chain.skipped", len(res.Skipped)),
		attribute.Int("chain.filtered", res.Filtered),
	)
	span.SetStatus(codes.Ok, "")

	logger.InfoContext(ctx, "chain scored",
		slog.Int("ranked", len(res.Ranked)),
		slog.Int("vetoed", res.Summary.Vetoed),
		slog.Int("skipped", len(res.Skipped)),
		slog.Int("filtered", res.Filtered),
		slog.Duration("duration", res.Duration))

	return res, nil
}

// scoreAll scores candidates concurrently. Every goroutine writes only its
// own slot; an item failure never cancels its siblings.
func (p *Pipeline) scoreAll(ctx context.Context, candidates []domain.OptionContract, mkt domain.MarketContext,
	d domain.StrategyDirection, fc *volatility.Forecast, ferr error) ([]outcome, error) {
	outcomes := make([]outcome, len(candidates))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.limit)
	for i := range candidates {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			outcomes[i] = p.scoreOne(scoring.Request{
				Contract:    candidates[i],
				Market:      mkt,
				Direction:   d,
				Forecast:    fc,
				ForecastErr: ferr,
			})
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return outcomes, nil
}

func (p *Pipeline) scoreOne(req scoring.Request) (o outcome) {
	defer func() {
		if r := recover(); r != nil {
			o = outcome{err: fmt.Errorf("panic while scoring: %v", r)}
		}
	}()
	b, err := p.scorer.Score(req)
	return outcome{bundle: b, err: err}
}

// rank sorts by score descending, then strike and expiry ascending, and
// numbers the result from 1
func rank(ranked []RankedContract) {
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Score.RecommendationScore != b.Score.RecommendationScore {
			return a.Score.RecommendationScore > b.Score.RecommendationScore
		}
		if a.Contract.Strike != b.Contract.Strike {
			return a.Contract.Strike < b.Contract.Strike
		}
		return a.Contract.Expiry.Before(b.Contract.Expiry)
	})
	for i := range ranked {
		ranked[i].Rank = i + 1
	}
}

func (p *Pipeline) count(ctx context.Context, pick func(*infrastructure.EngineMetrics) metric.Int64Counter, n int64, opts ...metric.AddOption) {
	if p.metrics == nil || n == 0 {
		return
	}
	pick(p.metrics).Add(ctx, n, opts...)
}

func (p *Pipeline) record(ctx context.Context, res *Result) {
	if p.metrics == nil {
		return
	}
	dir := metric.WithAttributes(attribute.String("direction", res.Direction.String()))
	p.metrics.ChainsScored.Add(ctx, 1, dir)
	p.metrics.ScoringDuration.Record(ctx, res.Duration.Seconds(), dir)
	p.count(ctx, func(m *infrastructure.EngineMetrics) metric.Int64Counter { return m.ContractsScored }, int64(len(res.Ranked)), dir)
	p.count(ctx, func(m *infrastructure.EngineMetrics) metric.Int64Counter { return m.ContractsSkipped }, int64(len(res.Skipped)), dir)
	p.count(ctx, func(m *infrastructure.EngineMetrics) metric.Int64Counter { return m.ContractsFiltered }, int64(res.Filtered), dir)
	for reason, n := range res.Summary.VetoCounts {
		p.metrics.ContractsVetoed.Add(ctx, int64(n), metric.WithAttributes(
			attribute.String("direction", res.Direction.String()),
			attribute.String("reason", string(reason)),
		))
	}
}
