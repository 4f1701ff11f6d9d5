package scale

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableScoreHigherIsBetter(t *testing.T) {
	table := MustNew("return", HigherIsBetter,
		Point{0.15, 25}, Point{0.03, 5}, Point{0.05, 10}, Point{0.08, 15}, Point{0.12, 20})

	tests := []struct {
		name  string
		value float64
		want  float64
	}{
		{"below first saturates at zero", 0.02, 0},
		{"at first point", 0.03, 5},
		{"mid first band", 0.04, 7.5},
		{"at interior point", 0.08, 15},
		{"mid last band", 0.135, 22.5},
		{"at last point", 0.15, 25},
		{"above last point", 0.90, 25},
		{"positive infinity", math.Inf(1), 25},
		{"NaN", math.NaN(), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, table.Score(tt.value), 1e-9)
		})
	}
}

func TestTableScoreLowerIsBetter(t *testing.T) {
	table := MustNew("spread", LowerIsBetter,
		Point{0.01, 1.0}, Point{0.03, 0.8}, Point{0.05, 0.5}, Point{0.10, 0.2})

	tests := []struct {
		name  string
		value float64
		want  float64
	}{
		{"zero saturates at first", 0, 1.0},
		{"at first point", 0.01, 1.0},
		{"mid first band", 0.02, 0.9},
		{"at 5%", 0.05, 0.5},
		{"8% in last band", 0.08, 0.32},
		{"at last point", 0.10, 0.2},
		{"just past last point", 0.1001, 0},
		{"positive infinity", math.Inf(1), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, table.Score(tt.value), 1e-9)
		})
	}
}

func TestTableStep(t *testing.T) {
	table := MustNew("oi", HigherIsBetter,
		Point{10, 0.3}, Point{50, 0.6}, Point{200, 0.8}, Point{500, 0.95}, Point{500, 1.0})

	assert.InDelta(t, 0.95-0.15/300, table.Score(499), 1e-9)
	assert.Equal(t, 1.0, table.Score(500))
	assert.Equal(t, 1.0, table.Score(10000))
	assert.Equal(t, 0.0, table.Score(9))
	assert.Equal(t, 1.0, table.Max())
}

func TestTableMonotonic(t *testing.T) {
	higher := MustNew("h", HigherIsBetter, Point{0.3, 10}, Point{0.4, 15}, Point{0.6, 20}, Point{0.8, 25})
	lower := MustNew("l", LowerIsBetter, Point{15, 25}, Point{25, 20}, Point{35, 15}, Point{50, 10}, Point{70, 5}, Point{100, 0})

	prevH, prevL := -1.0, math.Inf(1)
	for x := 0.0; x <= 1.0; x += 0.01 {
		h := higher.Score(x)
		assert.GreaterOrEqual(t, h, prevH, "higher table decreased at %g", x)
		prevH = h
	}
	for x := 0.0; x <= 110; x += 0.5 {
		l := lower.Score(x)
		assert.LessOrEqual(t, l, prevL, "lower table increased at %g", x)
		prevL = l
	}
}

func TestNewRejectsInvalidTables(t *testing.T) {
	_, err := New("empty", HigherIsBetter)
	require.Error(t, err)

	_, err = New("nan", HigherIsBetter, Point{math.NaN(), 1})
	require.Error(t, err)

	assert.Panics(t, func() { MustNew("empty", LowerIsBetter) })
}

func TestNewDoesNotAliasInput(t *testing.T) {
	pts := []Point{{2, 20}, {1, 10}}
	table, err := New("copy", HigherIsBetter, pts...)
	require.NoError(t, err)

	assert.Equal(t, 2.0, pts[0].X)
	assert.Equal(t, 1.0, table.Points[0].X)
}
