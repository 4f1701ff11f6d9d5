// Package probability implements the Black-Scholes probability model.
//
// The probability that a contract finishes in-the-money is N(d2), not delta:
// N(d1) weights the outcome by its magnitude, N(d2) is the plain
// risk-neutral probability that the strike is crossed.
package probability

import (
	"math"
	"time"

	"gonum.org/v1/gonum/stat/distuv"

	"optionrank/pkg/contracts/domain"
)

const (
	daysPerYear = 365.0

	// sessionClose is the hour, New York time, at which contracts expire
	sessionClose = 16
)

var newYork = loadNewYork()

func loadNewYork() *time.Location {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		return time.FixedZone("EST", -5*60*60)
	}
	return loc
}

// D1D2 returns the Black-Scholes d1 and d2 terms. It fails with a
// *domain.NumericalError when an input makes the terms undefined.
func D1D2(spot, strike, rate, sigma, years float64) (float64, float64, error) {
	if spot <= 0 || strike <= 0 {
		return 0, 0, &domain.NumericalError{Op: "log(S/K)"}
	}
	if sigma <= 0 || years <= 0 || !finite(sigma) || !finite(years) || !finite(rate) {
		return 0, 0, &domain.NumericalError{Op: "sigma*sqrt(T)"}
	}
	volTime := sigma * math.Sqrt(years)
	d1 := (math.Log(spot/strike) + (rate+0.5*sigma*sigma)*years) / volTime
	d2 := d1 - volTime
	if !finite(d1) || !finite(d2) {
		return 0, 0, &domain.NumericalError{Op: "d2"}
	}
	return d1, d2, nil
}

// Assignment returns the probability, on a 0-100 scale, that a contract of
// type t finishes in-the-money. ok is false when the probability cannot be
// computed: non-positive spot, strike or volatility, or an unknown expiry.
//
// At or past expiry the outcome is already decided and the result is 0 or 100.
func Assignment(spot, strike, rate, sigma, years float64, t domain.OptionType) (float64, bool) {
	if spot <= 0 || strike <= 0 || sigma <= 0 || math.IsNaN(sigma) {
		return 0, false
	}
	if math.IsNaN(years) || math.IsInf(years, 0) {
		return 0, false
	}
	if years <= 0 {
		return expired(spot, strike, t), true
	}

	_, d2, err := D1D2(spot, strike, rate, sigma, years)
	if err != nil {
		return 0, false
	}

	p := distuv.UnitNormal.CDF(d2)
	if t == domain.OptionTypePut {
		p = 1 - p
	}
	return clamp(p*100, 0, 100), true
}

func expired(spot, strike float64, t domain.OptionType) float64 {
	if t == domain.OptionTypePut {
		if spot < strike {
			return 100
		}
		return 0
	}
	if spot > strike {
		return 100
	}
	return 0
}

// YearsToExpiry measures time from asOf to the 16:00 New York close on the
// expiry date, in years of 365 days. A zero expiry returns NaN. The result is
// negative once the close has passed.
func YearsToExpiry(asOf, expiry time.Time) float64 {
	if expiry.IsZero() {
		return math.NaN()
	}
	y, m, d := expiry.Date()
	closeAt := time.Date(y, m, d, sessionClose, 0, 0, 0, newYork)
	return closeAt.Sub(asOf).Hours() / 24 / daysPerYear
}

// DaysToExpiry returns the calendar days left until expiry, floored at zero
func DaysToExpiry(asOf, expiry time.Time) float64 {
	years := YearsToExpiry(asOf, expiry)
	if math.IsNaN(years) || years < 0 {
		return 0
	}
	return years * daysPerYear
}

// Greeks returns Black-Scholes sensitivities. Theta is per calendar day and
// vega per one volatility point.
func Greeks(spot, strike, rate, sigma, years float64, t domain.OptionType) (domain.Greeks, bool) {
	d1, d2, err := D1D2(spot, strike, rate, sigma, years)
	if err != nil {
		return domain.Greeks{}, false
	}
	sqrtT := math.Sqrt(years)
	pdf := distuv.UnitNormal.Prob(d1)
	discount := math.Exp(-rate * years)

	g := domain.Greeks{
		Gamma: pdf / (spot * sigma * sqrtT),
		Vega:  spot * pdf * sqrtT / 100,
	}
	decay := -spot * pdf * sigma / (2 * sqrtT)
	if t == domain.OptionTypePut {
		g.Delta = distuv.UnitNormal.CDF(d1) - 1
		g.Theta = (decay + rate*strike*discount*distuv.UnitNormal.CDF(-d2)) / daysPerYear
	} else {
		g.Delta = distuv.UnitNormal.CDF(d1)
		g.Theta = (decay - rate*strike*discount*distuv.UnitNormal.CDF(d2)) / daysPerYear
	}
	return g, true
}

// ConditionalPayoff returns the expected per-share payoff at expiry given that
// the contract finishes in-the-money: E[(S_T-K)+ | S_T>K] for a call and
// E[(K-S_T)+ | S_T<K] for a put, under the lognormal model drifting at rate.
// ok is false when the in-the-money probability is zero or not computable.
func ConditionalPayoff(spot, strike, rate, sigma, years float64, t domain.OptionType) (float64, bool) {
	if spot <= 0 || strike <= 0 || math.IsNaN(years) {
		return 0, false
	}
	if years <= 0 {
		intrinsic := spot - strike
		if t == domain.OptionTypePut {
			intrinsic = -intrinsic
		}
		if intrinsic <= 0 {
			return 0, false
		}
		return intrinsic, true
	}

	d1, d2, err := D1D2(spot, strike, rate, sigma, years)
	if err != nil {
		return 0, false
	}
	forward := spot * math.Exp(rate*years)

	var expected, itm float64
	if t == domain.OptionTypePut {
		itm = distuv.UnitNormal.CDF(-d2)
		expected = strike*itm - forward*distuv.UnitNormal.CDF(-d1)
	} else {
		itm = distuv.UnitNormal.CDF(d2)
		expected = forward*distuv.UnitNormal.CDF(d1) - strike*itm
	}
	if itm < 1e-12 {
		return 0, false
	}
	v := expected / itm
	if !finite(v) || v < 0 {
		return 0, false
	}
	return v, true
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
