package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"optionrank/internal/infrastructure"
	"optionrank/internal/scoring"
	"optionrank/internal/shared/testutil"
	"optionrank/pkg/contracts/domain"
)

func newTestPipeline(t *testing.T, opts Options) (*Pipeline, *testutil.BufferedSlogHandler) {
	t.Helper()
	scorer, err := scoring.NewScorer(scoring.DefaultParams())
	require.NoError(t, err)
	logger, logs := testutil.NewTestLogger(t)
	return New(scorer, logger, opts), logs
}

func TestRunRanksSellPuts(t *testing.T) {
	p, logs := newTestPipeline(t, Options{MaxConcurrency: 2})

	res, err := p.Run(context.Background(), testutil.SampleChain(), domain.DirectionSellPut, DefaultFilters())
	require.NoError(t, err)

	require.Len(t, res.Ranked, 5)
	assert.Empty(t, res.Skipped)
	assert.Zero(t, res.Filtered)
	assert.Equal(t, "XYZ", res.Symbol)
	assert.Equal(t, domain.DirectionSellPut, res.Direction)
	require.NotNil(t, res.Volatility.Forecast)
	assert.Empty(t, res.Volatility.Error)

	for i, rc := range res.Ranked {
		assert.Equal(t, i+1, rc.Rank)
		assert.Equal(t, domain.OptionTypePut, rc.Contract.Type)
		if i > 0 {
			assert.LessOrEqual(t, rc.Score.RecommendationScore, res.Ranked[i-1].Score.RecommendationScore)
		}
	}

	last := res.Ranked[len(res.Ranked)-1]
	assert.Equal(t, 105.0, last.Contract.Strike)
	assert.Equal(t, scoring.VetoLowLiquidity, last.Score.VetoReason)
	assert.Zero(t, last.Score.RecommendationScore)

	s := res.Summary
	assert.Equal(t, 5, s.Total)
	assert.Equal(t, 5, s.Ranked)
	assert.Equal(t, 1, s.Vetoed)
	assert.Equal(t, map[scoring.VetoReason]int{scoring.VetoLowLiquidity: 1}, s.VetoCounts)
	tiers := 0
	for _, n := range s.TierCounts {
		tiers += n
	}
	assert.Equal(t, 5, tiers)
	require.NotNil(t, s.Best)
	assert.False(t, s.Best.Score.Vetoed())
	assert.Equal(t, 1, s.Best.Rank)
	assert.Greater(t, s.AverageLiquidity, 0.0)

	testutil.AssertLogContains(t, logs, slog.LevelInfo, "chain scored")
	testutil.AssertLogAttr(t, logs, "symbol", "XYZ")
	testutil.AssertLogAttr(t, logs, "component", "pipeline")
	testutil.AssertNoErrors(t, logs)
}

func TestRunBuyDirectionsWithDefaultFilters(t *testing.T) {
	tests := []struct {
		direction     domain.StrategyDirection
		wantType      domain.OptionType
		vetoedStrikes []float64
	}{
		{domain.DirectionBuyCall, domain.OptionTypeCall, []float64{110, 115}},
		{domain.DirectionBuyPut, domain.OptionTypePut, []float64{85, 90, 105}},
	}

	p, _ := newTestPipeline(t, Options{})
	for _, tt := range tests {
		t.Run(tt.direction.String(), func(t *testing.T) {
			res, err := p.Run(context.Background(), testutil.SampleChain(), tt.direction, DefaultFilters())
			require.NoError(t, err)

			require.Len(t, res.Ranked, 5)
			assert.Zero(t, res.Filtered)
			assert.Empty(t, res.Skipped)

			vetoed := make(map[float64]bool)
			for _, rc := range res.Ranked {
				assert.Equal(t, tt.wantType, rc.Contract.Type)
				assert.NotContains(t, rc.Score.VetoReasons, scoring.VetoAssignmentRisk)
				if rc.Score.Vetoed() {
					vetoed[rc.Contract.Strike] = true
				}
			}
			for _, strike := range tt.vetoedStrikes {
				assert.True(t, vetoed[strike], "strike %v", strike)
			}

			best := res.Ranked[0]
			assert.False(t, best.Score.Vetoed(), best.Score.VetoReasons)
			assert.Greater(t, best.Score.RecommendationScore, 0.0)
			assert.NotEqual(t, scoring.TierNotRecommended, best.Score.Tier)
			assert.Equal(t, 5-len(tt.vetoedStrikes), res.Summary.Ranked-res.Summary.Vetoed)
		})
	}
}

func TestRunSkipsUnpriceableContract(t *testing.T) {
	snap := testutil.SampleChain()
	snap.Contracts[1].ImpliedVolatility = 0

	p, _ := newTestPipeline(t, Options{})
	res, err := p.Run(context.Background(), snap, domain.DirectionSellPut, DefaultFilters())
	require.NoError(t, err)

	require.Len(t, res.Skipped, 1)
	assert.Equal(t, 90.0, res.Skipped[0].Strike)
	assert.Contains(t, res.Skipped[0].Reason, "insufficient data for implied_volatility")
	for _, rc := range res.Ranked {
		assert.NotEqual(t, 90.0, rc.Contract.Strike)
	}
	assert.Len(t, res.Ranked, 4)
	assert.Equal(t, 5, res.Summary.Total)
	assert.Equal(t, 1, res.Summary.Skipped)
}

func TestRunFilters(t *testing.T) {
	tests := []struct {
		name         string
		mutate       func(*FilterParams)
		wantStrikes  []float64
		wantFiltered int
	}{
		{
			name:         "max premium per contract",
			mutate:       func(f *FilterParams) { f.MaxPremium = 100 },
			wantStrikes:  []float64{85},
			wantFiltered: 4,
		},
		{
			name: "max premium per share",
			mutate: func(f *FilterParams) {
				f.PremiumBasis = PremiumPerShare
				f.MaxPremium = 1.0
			},
			wantStrikes:  []float64{85},
			wantFiltered: 4,
		},
		{
			name: "min premium per share",
			mutate: func(f *FilterParams) {
				f.PremiumBasis = PremiumPerShare
				f.MinPremium = 3.0
			},
			wantStrikes:  []float64{100, 105},
			wantFiltered: 3,
		},
		{
			name:         "max absolute spread",
			mutate:       func(f *FilterParams) { f.MaxSpread = 0.5 },
			wantStrikes:  []float64{85, 90, 95, 100},
			wantFiltered: 1,
		},
		{
			name:         "max annualized return",
			mutate:       func(f *FilterParams) { f.MaxAnnualReturn = 0.30 },
			wantStrikes:  []float64{85, 90, 95},
			wantFiltered: 2,
		},
	}

	p, _ := newTestPipeline(t, Options{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := DefaultFilters()
			tt.mutate(&f)

			res, err := p.Run(context.Background(), testutil.SampleChain(), domain.DirectionSellPut, f)
			require.NoError(t, err)

			strikes := make([]float64, 0, len(res.Ranked))
			for _, rc := range res.Ranked {
				strikes = append(strikes, rc.Contract.Strike)
			}
			assert.ElementsMatch(t, tt.wantStrikes, strikes)
			assert.Equal(t, tt.wantFiltered, res.Filtered)
			assert.Equal(t, tt.wantFiltered, res.Summary.Filtered)
		})
	}
}

func TestRunFilteringKeepsScores(t *testing.T) {
	p, _ := newTestPipeline(t, Options{})
	all, err := p.Run(context.Background(), testutil.SampleChain(), domain.DirectionSellPut, DefaultFilters())
	require.NoError(t, err)

	f := DefaultFilters()
	f.MaxAnnualReturn = 0.30
	some, err := p.Run(context.Background(), testutil.SampleChain(), domain.DirectionSellPut, f)
	require.NoError(t, err)

	byKey := make(map[string]scoring.ScoreBundle, len(all.Ranked))
	for _, rc := range all.Ranked {
		byKey[rc.Contract.Key()] = rc.Score
	}
	for _, rc := range some.Ranked {
		assert.Equal(t, byKey[rc.Contract.Key()], rc.Score, rc.Contract.Key())
	}
}

func TestRunSkipsInvalidContracts(t *testing.T) {
	snap := testutil.SampleChain()
	bad := snap.Contracts[1]
	bad.Strike = 92
	bad.ImpliedVolatility = -0.2
	snap.Contracts = append(snap.Contracts, bad)

	p, logs := newTestPipeline(t, Options{})
	res, err := p.Run(context.Background(), snap, domain.DirectionSellPut, DefaultFilters())
	require.NoError(t, err)

	assert.Len(t, res.Ranked, 5)
	require.Len(t, res.Skipped, 1)
	assert.Equal(t, 92.0, res.Skipped[0].Strike)
	assert.Contains(t, res.Skipped[0].Reason, "implied_volatility")
	assert.Equal(t, 1, res.Summary.Skipped)
	assert.Equal(t, 6, res.Summary.Total)
	assert.True(t, logs.ContainsMessage("contract skipped"))
}

func TestRunWithoutPriceHistory(t *testing.T) {
	snap := testutil.SampleChain()
	snap.PriceHistory = nil

	p, logs := newTestPipeline(t, Options{})
	res, err := p.Run(context.Background(), snap, domain.DirectionSellPut, DefaultFilters())
	require.NoError(t, err)

	assert.Nil(t, res.Volatility.Forecast)
	assert.NotEmpty(t, res.Volatility.Error)
	require.NotEmpty(t, res.Ranked)
	assert.Nil(t, res.Ranked[0].Score.VRP)
	testutil.AssertLogContains(t, logs, slog.LevelWarn, "volatility forecast unavailable")
}

func TestRunRejectsBadRequests(t *testing.T) {
	p, _ := newTestPipeline(t, Options{})
	ctx := context.Background()

	noSpot := testutil.SampleChain()
	noSpot.UnderlyingPrice = 0
	_, err := p.Run(ctx, noSpot, domain.DirectionSellPut, DefaultFilters())
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = p.Run(ctx, testutil.SampleChain(), "iron-condor", DefaultFilters())
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = p.Run(ctx, nil, domain.DirectionSellPut, DefaultFilters())
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	f := DefaultFilters()
	f.MaxPremium = 10
	f.MinPremium = 20
	_, err = p.Run(ctx, testutil.SampleChain(), domain.DirectionSellPut, f)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRunCancelled(t *testing.T) {
	p, _ := newTestPipeline(t, Options{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Run(ctx, testutil.SampleChain(), domain.DirectionSellPut, DefaultFilters())
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestRunDeterministic(t *testing.T) {
	p, _ := newTestPipeline(t, Options{MaxConcurrency: 8})

	first, err := p.Run(context.Background(), testutil.SampleChain(), domain.DirectionSellCall, DefaultFilters())
	require.NoError(t, err)
	second, err := p.Run(context.Background(), testutil.SampleChain(), domain.DirectionSellCall, DefaultFilters())
	require.NoError(t, err)

	assert.Equal(t, first.Ranked, second.Ranked)
	assert.Equal(t, first.Summary, second.Summary)
}

func TestRankTieBreak(t *testing.T) {
	early := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	late := early.AddDate(0, 1, 0)
	ranked := []RankedContract{
		{Contract: domain.OptionContract{Strike: 95, Expiry: late}, Score: scoring.ScoreBundle{RecommendationScore: 50}},
		{Contract: domain.OptionContract{Strike: 95, Expiry: early}, Score: scoring.ScoreBundle{RecommendationScore: 50}},
		{Contract: domain.OptionContract{Strike: 90, Expiry: late}, Score: scoring.ScoreBundle{RecommendationScore: 50}},
		{Contract: domain.OptionContract{Strike: 100, Expiry: early}, Score: scoring.ScoreBundle{RecommendationScore: 70}},
	}

	rank(ranked)

	assert.Equal(t, 100.0, ranked[0].Contract.Strike)
	assert.Equal(t, 90.0, ranked[1].Contract.Strike)
	assert.Equal(t, 95.0, ranked[2].Contract.Strike)
	assert.Equal(t, early, ranked[2].Contract.Expiry)
	assert.Equal(t, late, ranked[3].Contract.Expiry)
	for i, rc := range ranked {
		assert.Equal(t, i+1, rc.Rank)
	}
}

func TestScoreOneRecoversPanic(t *testing.T) {
	snap := testutil.SampleChain()
	p := &Pipeline{}
	o := p.scoreOne(scoring.Request{
		Contract:  snap.Contracts[1],
		Market:    snap.Context(),
		Direction: domain.DirectionSellPut,
	})
	require.Error(t, o.err)
	assert.Contains(t, o.err.Error(), "panic")
}

func TestRunRecordsTelemetry(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	metrics, err := infrastructure.CreateEngineMetrics(mp.Meter("test"))
	require.NoError(t, err)

	spans := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spans))

	p, _ := newTestPipeline(t, Options{Tracer: tp.Tracer("test"), Metrics: metrics})
	_, err = p.Run(context.Background(), testutil.SampleChain(), domain.DirectionSellPut, DefaultFilters())
	require.NoError(t, err)

	ended := spans.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "pipeline.Run", ended[0].Name())

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	sums := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if data, ok := m.Data.(metricdata.Sum[int64]); ok {
				for _, dp := range data.DataPoints {
					sums[m.Name] += dp.Value
				}
			}
		}
	}
	assert.Equal(t, int64(1), sums["optionrank_chains_scored_total"])
	assert.Equal(t, int64(5), sums["optionrank_contracts_scored_total"])
	assert.Equal(t, int64(1), sums["optionrank_contracts_vetoed_total"])
}
