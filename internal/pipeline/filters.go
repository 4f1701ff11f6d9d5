package pipeline

import (
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"optionrank/internal/scoring"
	"optionrank/pkg/contracts/domain"
)

// PremiumBasis states how MinPremium and MaxPremium are read
type PremiumBasis string

const (
	PremiumPerContract PremiumBasis = "contract"
	PremiumPerShare    PremiumBasis = "share"
)

// FilterParams are the user range filters. Returns are fractions, premiums
// are dollars on PremiumBasis and MaxSpread is the absolute per-share
// bid/ask spread in dollars. The annualized return range only applies to
// sell directions, where the return is a premium yield; a bought option's
// return is a projected one sigma payoff and is not range filtered.
type FilterParams struct {
	MinAnnualReturn float64      `json:"min_annual_return" yaml:"min_annual_return"`
	MaxAnnualReturn float64      `json:"max_annual_return" yaml:"max_annual_return" validate:"gtefield=MinAnnualReturn"`
	MinPremium      float64      `json:"min_premium" yaml:"min_premium" validate:"gte=0"`
	MaxPremium      float64      `json:"max_premium" yaml:"max_premium" validate:"gtefield=MinPremium"`
	MaxSpread       float64      `json:"max_spread" yaml:"max_spread" validate:"gte=0"`
	PremiumBasis    PremiumBasis `json:"premium_basis" yaml:"premium_basis" validate:"oneof=contract share"`
}

// DefaultFilters returns the documented defaults: 0% to 100% annualized
// return, $0 to $10000 premium per contract and a $10 spread.
func DefaultFilters() FilterParams {
	return FilterParams{
		MinAnnualReturn: 0,
		MaxAnnualReturn: 1.0,
		MinPremium:      0,
		MaxPremium:      10000,
		MaxSpread:       10,
		PremiumBasis:    PremiumPerContract,
	}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks the filter ranges. The returned error is a
// *domain.InvalidInputError naming the first offending field.
func (f FilterParams) Validate() error {
	for _, v := range []float64{f.MinAnnualReturn, f.MaxAnnualReturn, f.MinPremium, f.MaxPremium, f.MaxSpread} {
		if math.IsNaN(v) {
			return &domain.InvalidInputError{Field: "filters", Value: "NaN"}
		}
	}
	err := validate.Struct(f)
	if err == nil {
		return nil
	}
	if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
		fe := verrs[0]
		return &domain.InvalidInputError{
			Field: fe.Field(),
			Value: fmt.Sprintf("%v (%s %s)", fe.Value(), fe.Tag(), fe.Param()),
		}
	}
	return fmt.Errorf("validate filters: %w", err)
}

// premiumOnBasis converts a per-share premium to the filter's basis
func (f FilterParams) premiumOnBasis(perShare, multiplier float64) float64 {
	if f.PremiumBasis == PremiumPerShare {
		return perShare
	}
	return perShare * multiplier
}

// acceptsQuote runs the predicates that need no scoring
func (f FilterParams) acceptsQuote(c domain.OptionContract, multiplier float64) bool {
	p := f.premiumOnBasis(quotedPremium(c), multiplier)
	if p < f.MinPremium || p > f.MaxPremium {
		return false
	}
	return math.Abs(c.Ask-c.Bid) <= f.MaxSpread
}

// acceptsScore runs the predicates on computed fields
func (f FilterParams) acceptsScore(d domain.StrategyDirection, b scoring.ScoreBundle) bool {
	if !d.IsSell() {
		return true
	}
	return b.AnnualizedReturn >= f.MinAnnualReturn && b.AnnualizedReturn <= f.MaxAnnualReturn
}

// quotedPremium mirrors the scorer's premium: mid, else last trade
func quotedPremium(c domain.OptionContract) float64 {
	if mid := c.Mid(); mid > 0 {
		return mid
	}
	if c.Last > 0 {
		return c.Last
	}
	return 0
}
