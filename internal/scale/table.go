// Package scale implements piecewise-linear breakpoint tables.
//
// Every scoring factor in the engine is a Table: a sorted list of
// (threshold, score) points. Values between two points are linearly
// interpolated. Direction decides which end saturates:
//
//   - HigherIsBetter: below the first point scores 0, at or above the last
//     point saturates at the last score.
//   - LowerIsBetter: at or below the first point saturates at the first
//     score, above the last point scores 0.
//
// Two points with the same threshold express a step.
package scale

import (
	"fmt"
	"math"
	"sort"
)

// Direction states which end of the axis is favourable
type Direction int

const (
	HigherIsBetter Direction = iota
	LowerIsBetter
)

// String returns the string representation of the direction
func (d Direction) String() string {
	switch d {
	case HigherIsBetter:
		return "higher"
	case LowerIsBetter:
		return "lower"
	default:
		return "unknown"
	}
}

// Point is one breakpoint of a table
type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Table maps a raw value onto a score
type Table struct {
	Name      string
	Direction Direction
	Points    []Point
}

// New builds a table, sorting the points by threshold. It returns an error
// for an empty table or a non-finite breakpoint.
func New(name string, dir Direction, points ...Point) (Table, error) {
	if len(points) == 0 {
		return Table{}, fmt.Errorf("table %s: no breakpoints", name)
	}
	sorted := make([]Point, len(points))
	copy(sorted, points)
	for _, p := range sorted {
		if math.IsNaN(p.X) || math.IsInf(p.X, 0) || math.IsNaN(p.Y) || math.IsInf(p.Y, 0) {
			return Table{}, fmt.Errorf("table %s: non-finite breakpoint (%g, %g)", name, p.X, p.Y)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].X < sorted[j].X })
	return Table{Name: name, Direction: dir, Points: sorted}, nil
}

// MustNew is New for package-level tables known to be valid
func MustNew(name string, dir Direction, points ...Point) Table {
	t, err := New(name, dir, points...)
	if err != nil {
		panic(err)
	}
	return t
}

// Max returns the highest score the table can produce
func (t Table) Max() float64 {
	m := 0.0
	for _, p := range t.Points {
		if p.Y > m {
			m = p.Y
		}
	}
	return m
}

// Score maps x onto the table. NaN scores 0. +Inf saturates like any value
// past the last point.
func (t Table) Score(x float64) float64 {
	n := len(t.Points)
	if n == 0 || math.IsNaN(x) {
		return 0
	}
	first, last := t.Points[0], t.Points[n-1]

	if t.Direction == LowerIsBetter {
		if x <= first.X {
			return first.Y
		}
		if x > last.X {
			return 0
		}
		for i := 0; i < n-1; i++ {
			lo, hi := t.Points[i], t.Points[i+1]
			if x > lo.X && x <= hi.X {
				return interpolate(lo, hi, x)
			}
		}
		return last.Y
	}

	if x < first.X {
		return 0
	}
	if x >= last.X {
		return last.Y
	}
	for i := 0; i < n-1; i++ {
		lo, hi := t.Points[i], t.Points[i+1]
		if x >= lo.X && x < hi.X {
			return interpolate(lo, hi, x)
		}
	}
	return last.Y
}

func interpolate(lo, hi Point, x float64) float64 {
	width := hi.X - lo.X
	if width == 0 {
		return hi.Y
	}
	return lo.Y + (x-lo.X)/width*(hi.Y-lo.Y)
}
