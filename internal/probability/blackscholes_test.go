package probability

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"optionrank/pkg/contracts/domain"
)

func TestAssignmentWorkedScenario(t *testing.T) {
	// S=100, K=95, r=5%, sigma=30%, 30 days: d1=0.6872, d2=0.6012, N(d2)=0.7261
	years := 30.0 / 365.0

	d1, d2, err := D1D2(100, 95, 0.05, 0.30, years)
	require.NoError(t, err)
	assert.InDelta(t, 0.6872, d1, 1e-3)
	assert.InDelta(t, 0.6012, d2, 1e-3)

	put, ok := Assignment(100, 95, 0.05, 0.30, years, domain.OptionTypePut)
	require.True(t, ok)
	assert.InDelta(t, 27.39, put, 0.01)

	call, ok := Assignment(100, 95, 0.05, 0.30, years, domain.OptionTypeCall)
	require.True(t, ok)
	assert.InDelta(t, 100, put+call, 1e-9)
}

func TestAssignmentAbsent(t *testing.T) {
	tests := []struct {
		name                       string
		spot, strike, sigma, years float64
	}{
		{"zero volatility", 100, 95, 0, 0.1},
		{"negative volatility", 100, 95, -0.2, 0.1},
		{"zero strike", 100, 0, 0.3, 0.1},
		{"negative spot", -1, 95, 0.3, 0.1},
		{"unknown expiry", 100, 95, 0.3, math.NaN()},
		{"infinite expiry", 100, 95, 0.3, math.Inf(1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := Assignment(tt.spot, tt.strike, 0.05, tt.sigma, tt.years, domain.OptionTypePut)
			assert.False(t, ok)
		})
	}
}

func TestAssignmentAtExpiry(t *testing.T) {
	tests := []struct {
		name         string
		spot, strike float64
		typ          domain.OptionType
		years        float64
		want         float64
	}{
		{"put in the money", 90, 95, domain.OptionTypePut, 0, 100},
		{"put out of the money", 100, 95, domain.OptionTypePut, 0, 0},
		{"put at the money", 95, 95, domain.OptionTypePut, 0, 0},
		{"call in the money", 100, 95, domain.OptionTypeCall, -0.01, 100},
		{"call out of the money", 90, 95, domain.OptionTypeCall, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Assignment(tt.spot, tt.strike, 0.05, 0.3, tt.years, tt.typ)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAssignmentBoundsAndMonotonicity(t *testing.T) {
	years := 45.0 / 365.0
	prevPut, prevCall := -1.0, 101.0
	for strike := 50.0; strike <= 150; strike += 2.5 {
		put, ok := Assignment(100, strike, 0.05, 0.35, years, domain.OptionTypePut)
		require.True(t, ok)
		call, ok := Assignment(100, strike, 0.05, 0.35, years, domain.OptionTypeCall)
		require.True(t, ok)

		assert.GreaterOrEqual(t, put, 0.0)
		assert.LessOrEqual(t, put, 100.0)
		assert.GreaterOrEqual(t, put, prevPut, "put probability must rise with strike")
		assert.LessOrEqual(t, call, prevCall, "call probability must fall with strike")
		prevPut, prevCall = put, call
	}
}

func TestAssignmentExtremeInputsStayBounded(t *testing.T) {
	got, ok := Assignment(1e6, 1e-6, 0.05, 5, 30, domain.OptionTypeCall)
	require.True(t, ok)
	assert.GreaterOrEqual(t, got, 0.0)
	assert.LessOrEqual(t, got, 100.0)
}

func TestD1D2NumericalError(t *testing.T) {
	_, _, err := D1D2(100, 95, 0.05, 0, 0.1)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNumerical)

	_, _, err = D1D2(0, 95, 0.05, 0.3, 0.1)
	assert.ErrorIs(t, err, domain.ErrNumerical)
}

func TestYearsToExpiry(t *testing.T) {
	// 16:00 New York in January is 21:00 UTC
	asOf := time.Date(2024, 1, 2, 21, 0, 0, 0, time.UTC)
	expiry := time.Date(2024, 1, 12, 0, 0, 0, 0, time.UTC)

	assert.InDelta(t, 10.0/365.0, YearsToExpiry(asOf, expiry), 1e-12)
	assert.InDelta(t, 10.0, DaysToExpiry(asOf, expiry), 1e-9)
	assert.True(t, math.IsNaN(YearsToExpiry(asOf, time.Time{})))

	past := time.Date(2023, 12, 29, 0, 0, 0, 0, time.UTC)
	assert.Less(t, YearsToExpiry(asOf, past), 0.0)
	assert.Equal(t, 0.0, DaysToExpiry(asOf, past))
}

func TestGreeks(t *testing.T) {
	years := 30.0 / 365.0
	call, ok := Greeks(100, 100, 0.05, 0.25, years, domain.OptionTypeCall)
	require.True(t, ok)
	put, ok := Greeks(100, 100, 0.05, 0.25, years, domain.OptionTypePut)
	require.True(t, ok)

	assert.InDelta(t, 1.0, call.Delta-put.Delta, 1e-12)
	assert.Greater(t, call.Delta, 0.5)
	assert.Greater(t, call.Gamma, 0.0)
	assert.InDelta(t, call.Gamma, put.Gamma, 1e-12)
	assert.InDelta(t, call.Vega, put.Vega, 1e-12)
	assert.Less(t, call.Theta, 0.0)
	assert.Less(t, call.Theta, put.Theta, "call decays faster than put when r > 0")

	_, ok = Greeks(100, 100, 0.05, 0, years, domain.OptionTypeCall)
	assert.False(t, ok)
}

func TestConditionalPayoff(t *testing.T) {
	years := 30.0 / 365.0

	put, ok := ConditionalPayoff(100, 95, 0.05, 0.30, years, domain.OptionTypePut)
	require.True(t, ok)
	assert.Greater(t, put, 0.0)
	assert.Less(t, put, 95.0)

	call, ok := ConditionalPayoff(100, 95, 0.05, 0.30, years, domain.OptionTypeCall)
	require.True(t, ok)
	assert.Greater(t, call, 5.0, "conditional call payoff exceeds the intrinsic value")

	intrinsic, ok := ConditionalPayoff(90, 95, 0.05, 0.30, 0, domain.OptionTypePut)
	require.True(t, ok)
	assert.InDelta(t, 5.0, intrinsic, 1e-12)

	_, ok = ConditionalPayoff(100, 95, 0.05, 0.30, 0, domain.OptionTypePut)
	assert.False(t, ok)
}
