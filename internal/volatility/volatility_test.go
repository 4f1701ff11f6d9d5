package volatility

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"optionrank/pkg/contracts/domain"
)

// trendingPrices returns n prices with a constant daily log return
func trendingPrices(n int, dailyReturn float64) []float64 {
	prices := make([]float64, n)
	for i := range prices {
		prices[i] = 100 * math.Exp(dailyReturn*float64(i))
	}
	return prices
}

// garchPrices simulates a GARCH(1,1) path with a fixed seed
func garchPrices(n int, g GARCH11, seed int64) []float64 {
	rng := rand.New(rand.NewSource(seed))
	prices := make([]float64, n)
	prices[0] = 100
	variance := g.Omega / (1 - g.Persistence())
	prev := 0.0
	for i := 1; i < n; i++ {
		variance = g.Omega + g.Alpha*prev*prev + g.Beta*variance
		r := math.Sqrt(variance) * rng.NormFloat64()
		prices[i] = prices[i-1] * math.Exp(r)
		prev = r
	}
	return prices
}

func TestForecastInsufficientData(t *testing.T) {
	f := NewForecaster(DefaultParams())

	_, err := f.Forecast(trendingPrices(29, 0.01))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInsufficientData)

	var insufficient *domain.InsufficientDataError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, 29, insufficient.Have)
	assert.Equal(t, 30, insufficient.Need)

	_, err = f.Forecast(trendingPrices(30, 0.01))
	assert.NoError(t, err)
}

func TestForecastEWMA(t *testing.T) {
	tests := []struct {
		name   string
		prices []float64
		want   float64
	}{
		{"constant drift", trendingPrices(40, 0.01), 0.01 * math.Sqrt(252)},
		{"flat", trendingPrices(40, 0), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewForecaster(DefaultParams()).Forecast(tt.prices)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got.Volatility, 1e-9)
			assert.Equal(t, MethodEWMA, got.Method)
			assert.False(t, got.FellBack)
			assert.Equal(t, len(tt.prices)-1, got.Observations)
		})
	}
}

func TestForecastAlternatingReturns(t *testing.T) {
	prices := []float64{100}
	for i := 1; i < 60; i++ {
		step := 0.02
		if i%2 == 0 {
			step = -0.02
		}
		prices = append(prices, prices[i-1]*math.Exp(step))
	}
	got, err := NewForecaster(DefaultParams()).Forecast(prices)
	require.NoError(t, err)
	assert.InDelta(t, 0.02*math.Sqrt(252), got.Volatility, 1e-9)
}

func TestForecastRejectsNonPositivePrice(t *testing.T) {
	prices := trendingPrices(40, 0.01)
	prices[10] = 0

	_, err := NewForecaster(DefaultParams()).Forecast(prices)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestForecastGARCHFallsBackOnShortSeries(t *testing.T) {
	params := DefaultParams()
	params.Method = MethodGARCH
	prices := trendingPrices(50, 0.005)

	got, err := NewForecaster(params).Forecast(prices)
	require.NoError(t, err)
	assert.True(t, got.FellBack)
	assert.Equal(t, MethodEWMA, got.Method)
	assert.Nil(t, got.GARCH)

	ewma, err := NewForecaster(DefaultParams()).Forecast(prices)
	require.NoError(t, err)
	assert.Equal(t, ewma.Volatility, got.Volatility)
}

func TestForecastGARCHOnSimulatedPath(t *testing.T) {
	params := DefaultParams()
	params.Method = MethodGARCH
	truth := GARCH11{Omega: 2e-6, Alpha: 0.08, Beta: 0.90}
	prices := garchPrices(750, truth, 42)

	got, err := NewForecaster(params).Forecast(prices)
	require.NoError(t, err)
	assert.Greater(t, got.Volatility, 0.0)
	assert.False(t, math.IsInf(got.Volatility, 0))

	if got.Method == MethodGARCH {
		require.NotNil(t, got.GARCH)
		assert.Less(t, got.GARCH.Persistence(), 1.0)
		assert.Greater(t, got.GARCH.Omega, 0.0)
	} else {
		assert.True(t, got.FellBack)
	}
}

func TestIVRankAndPercentile(t *testing.T) {
	history := []float64{0.10, 0.12, 0.14, 0.16, 0.18, 0.20, 0.22, 0.24, 0.26, 0.30}

	tests := []struct {
		name           string
		current        float64
		history        []float64
		wantRank       float64
		wantPercentile float64
	}{
		{"middle of range", 0.20, history, 50, 50},
		{"at the low", 0.10, history, 0, 0},
		{"above the high", 0.40, history, 100, 100},
		{"short history is neutral", 0.40, history[:9], 50, 50},
		{"flat history", 0.20, []float64{0.2, 0.2, 0.2, 0.2, 0.2, 0.2, 0.2, 0.2, 0.2, 0.2}, 50, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.wantRank, IVRank(tt.current, tt.history, DefaultMinIVHistory), 1e-9)
			assert.InDelta(t, tt.wantPercentile, IVPercentile(tt.current, tt.history, DefaultMinIVHistory), 1e-9)
		})
	}
}

func TestClassifyBias(t *testing.T) {
	assert.Equal(t, BiasSell, ClassifyBias(0.06, DefaultBiasThreshold))
	assert.Equal(t, BiasBuy, ClassifyBias(-0.06, DefaultBiasThreshold))
	assert.Equal(t, BiasNeutral, ClassifyBias(0.05, DefaultBiasThreshold))
	assert.Equal(t, BiasNeutral, ClassifyBias(-0.05, DefaultBiasThreshold))
	assert.Equal(t, BiasNeutral, ClassifyBias(0, DefaultBiasThreshold))
}

func TestAnalyze(t *testing.T) {
	prices := trendingPrices(40, 0.01)
	rv := 0.01 * math.Sqrt(252)

	got, err := Analyze(0.40, prices, nil, DefaultParams())
	require.NoError(t, err)
	assert.InDelta(t, rv, got.RVForecast, 1e-9)
	assert.InDelta(t, 0.40-rv, got.VRP, 1e-9)
	assert.Equal(t, BiasSell, got.Bias)
	assert.Equal(t, 50.0, got.IVRank)
	assert.Equal(t, MethodEWMA, got.Method)

	got, err = Analyze(0.05, prices, nil, DefaultParams())
	require.NoError(t, err)
	assert.Equal(t, BiasBuy, got.Bias)
}

func TestAnalyzeInsufficientPricesKeepsRank(t *testing.T) {
	history := []float64{0.10, 0.12, 0.14, 0.16, 0.18, 0.20, 0.22, 0.24, 0.26, 0.30}

	got, err := Analyze(0.30, trendingPrices(10, 0.01), history, DefaultParams())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInsufficientData)
	assert.Equal(t, 100.0, got.IVRank)
	assert.Equal(t, BiasNeutral, got.Bias)
}

func TestParamsValidate(t *testing.T) {
	require.NoError(t, DefaultParams().Validate())

	p := DefaultParams()
	p.Lambda = 1
	assert.Error(t, p.Validate())

	p = DefaultParams()
	p.Method = "arima"
	assert.Error(t, p.Validate())
	assert.Equal(t, DefaultParams(), NewForecaster(p).Params())
}

func TestParseMethod(t *testing.T) {
	m, err := ParseMethod(" GARCH ")
	require.NoError(t, err)
	assert.Equal(t, MethodGARCH, m)

	m, err = ParseMethod("ewma")
	require.NoError(t, err)
	assert.Equal(t, MethodEWMA, m)

	_, err = ParseMethod("heston")
	assert.Error(t, err)
}
