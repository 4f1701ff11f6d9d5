// Package scoring turns the probability, liquidity, volatility and risk
// factors of one contract into a recommendation.
//
// Scoring is a two stage decision. The veto gate runs first: any hard
// disqualification sets the score to 0 and records the reason. Otherwise the
// direction's factor points are summed, normalized onto the score scale and
// mapped onto a tier. Identical inputs always produce identical bundles.
package scoring

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"optionrank/internal/liquidity"
	"optionrank/internal/probability"
	"optionrank/internal/risk"
	"optionrank/internal/volatility"
	"optionrank/pkg/contracts/domain"
)

// Request is one contract to score
type Request struct {
	Contract  domain.OptionContract
	Market    domain.MarketContext
	Direction domain.StrategyDirection

	// Forecast is the chain-level realized volatility forecast. When nil and
	// ForecastErr is nil the scorer forecasts from Market.PriceHistory.
	Forecast    *volatility.Forecast
	ForecastErr error
}

// Scorer scores contracts with a fixed parameter set
type Scorer struct {
	params     Params
	assessor   *liquidity.Assessor
	forecaster *volatility.Forecaster
}

// NewScorer creates a scorer
func NewScorer(params Params) (*Scorer, error) {
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("validate scoring params: %w", err)
	}
	return &Scorer{
		params:     params,
		assessor:   liquidity.NewAssessor(params.Liquidity),
		forecaster: volatility.NewForecaster(params.Volatility),
	}, nil
}

// Params returns the parameters in use
func (s *Scorer) Params() Params {
	return s.params
}

// Forecaster returns the volatility forecaster the scorer uses
func (s *Scorer) Forecaster() *volatility.Forecaster {
	return s.forecaster
}

// Score computes the bundle of one contract. It fails with a
// *domain.InvalidInputError for a malformed contract and with a
// *domain.InsufficientDataError when no assignment probability can be
// computed; a vetoed contract is a successful result with VetoReason set.
func (s *Scorer) Score(req Request) (ScoreBundle, error) {
	c := req.Contract
	if err := c.Validate(); err != nil {
		return ScoreBundle{}, err
	}
	profile, ok := profiles[req.Direction]
	if !ok {
		return ScoreBundle{}, &domain.InvalidInputError{Field: "direction", Value: string(req.Direction)}
	}
	if c.Type != req.Direction.OptionType() {
		return ScoreBundle{}, &domain.InvalidInputError{Field: "type", Value: fmt.Sprintf("%s for %s", c.Type, req.Direction)}
	}
	mkt := req.Market
	if mkt.UnderlyingPrice <= 0 {
		return ScoreBundle{}, &domain.InvalidInputError{Field: "underlying_price", Value: fmt.Sprintf("%g", mkt.UnderlyingPrice)}
	}

	var b ScoreBundle
	pos := position{
		spot:    mkt.UnderlyingPrice,
		strike:  c.Strike,
		premium: premium(c),
		sigma:   c.ImpliedVolatility,
		rate:    mkt.RiskFreeRate,
		years:   probability.YearsToExpiry(mkt.AsOf, c.Expiry),
		days:    probability.DaysToExpiry(mkt.AsOf, c.Expiry),
	}

	p, ok := probability.Assignment(pos.spot, pos.strike, pos.rate, pos.sigma, pos.years, c.Type)
	if !ok {
		return ScoreBundle{}, unpriceable(c)
	}
	pos.assignment = &p
	b.AssignmentProbability = &p

	liq := s.assessor.Assess(c.Bid, c.Ask, c.OpenInterest)
	b.LiquidityFactor = liq.Factor
	b.SpreadRatio = liq.SpreadRatio
	if liq.Crossed {
		b.Warnings = append(b.Warnings, fmt.Sprintf("crossed quote: bid %.2f above ask %.2f", c.Bid, c.Ask))
	}

	s.applyVolatility(&b, req)

	mult := s.params.ContractMultiplier
	b.DaysToExpiry = pos.days
	b.Premium = pos.premium
	b.Breakeven = profile.Breakeven(pos)
	b.AnnualizedReturn = profile.AnnualizedReturn(pos)
	b.WinRate = clamp(profile.WinRate(pos), 0, 100)
	b.PremiumIncome = money(pos.premium, mult)
	b.MarginRequirement = money(profile.Margin(pos), mult)
	b.MaxLoss = profile.MaxLoss(pos) * mult
	b.GreeksEfficiency = s.greeksEfficiency(c, pos)

	pnl := func(terminal float64) float64 { return profile.PnL(pos, terminal) * mult }
	assessment := risk.Assess(risk.Input{
		WinProbability: b.WinRate / 100,
		AvgProfit:      profile.AvgProfit(pos) * mult,
		AvgLoss:        profile.AvgLoss(pos) * mult,
		MaxLoss:        b.MaxLoss,
		StressLoss:     risk.StressLoss(pos.spot, pos.sigma, pos.years, s.params.Risk.StressZ, pnl),
		ScenarioLoss:   risk.HistoricalScenarioLoss(mkt.PriceHistory, scenarioHorizon(pos.days), pos.spot, pnl),
	}, s.params.Risk)
	b.ExpectedValue = assessment.ExpectedValue
	b.RiskAdjustedExpectancy = assessment.RiskAdjustedExpectancy
	b.TailRiskEstimate = assessment.TailRisk
	b.RiskLevel = assessment.Level
	b.Warnings = append(b.Warnings, assessment.Warnings...)

	b.VetoReasons = s.vetoes(profile, &b, c.OpenInterest)

	total := 0.0
	for _, f := range profile.Factors {
		value := f.Value(&b)
		points := f.Table.Score(value)
		b.Factors = append(b.Factors, FactorScore{
			Name:      f.Table.Name,
			Value:     value,
			Points:    points,
			MaxPoints: f.Table.Max(),
		})
		total += points
	}

	if len(b.VetoReasons) > 0 {
		b.VetoReason = b.VetoReasons[0]
		b.RecommendationScore = 0
		b.Tier = TierNotRecommended
		return b, nil
	}

	b.RecommendationScore = normalize(total, profile.MaxPoints(), s.params.ScoreScale)
	b.Tier, b.Highlight = s.params.Tiers.TierFor(b.RecommendationScore)
	return b, nil
}

// normalize maps a factor total out of maxPoints onto the score scale
func normalize(total, maxPoints, scale float64) float64 {
	if maxPoints <= 0 {
		return 0
	}
	return math.Min(total*scale/maxPoints, scale)
}

// unpriceable explains why a contract has no assignment probability
func unpriceable(c domain.OptionContract) error {
	if c.ImpliedVolatility <= 0 {
		return &domain.InsufficientDataError{Field: "implied_volatility", Reason: "zero implied volatility, contract cannot be priced"}
	}
	return &domain.InsufficientDataError{Field: "assignment_probability", Reason: "probability model has no solution, contract cannot be priced"}
}

// vetoes returns every triggered veto in gate order
func (s *Scorer) vetoes(profile Profile, b *ScoreBundle, openInterest *int64) []VetoReason {
	v := s.params.Veto
	var reasons []VetoReason
	if b.LiquidityFactor < v.MinLiquidity {
		reasons = append(reasons, VetoLowLiquidity)
	}
	if b.AnnualizedReturn < v.MinAnnualReturn {
		reasons = append(reasons, VetoInsufficientYield)
	}
	if profile.AssignmentVeto && b.AssignmentProbability != nil && *b.AssignmentProbability > v.AssignmentCeiling {
		reasons = append(reasons, VetoAssignmentRisk)
	}
	if b.SpreadRatio > v.MaxSpreadRatio {
		reasons = append(reasons, VetoWideSpread)
	}
	if openInterest != nil && *openInterest < v.MinOpenInterest {
		reasons = append(reasons, VetoThinOpenInterest)
	}
	return reasons
}

func (s *Scorer) applyVolatility(b *ScoreBundle, req Request) {
	mkt := req.Market
	forecast, err := req.Forecast, req.ForecastErr
	if forecast == nil && err == nil {
		f, ferr := s.forecaster.Forecast(mkt.PriceHistory)
		if ferr == nil {
			forecast = &f
		}
		err = ferr
	}

	minIV := s.forecaster.Params().MinIVHistory
	if forecast == nil {
		b.IVRank = volatility.IVRank(req.Contract.ImpliedVolatility, mkt.ImpliedVolHistory, minIV)
		b.IVPercentile = volatility.IVPercentile(req.Contract.ImpliedVolatility, mkt.ImpliedVolHistory, minIV)
		b.VolBias = volatility.BiasNeutral
		if err != nil {
			b.Warnings = append(b.Warnings, fmt.Sprintf("volatility forecast unavailable: %v", err))
		}
		return
	}

	vr := s.forecaster.Premium(req.Contract.ImpliedVolatility, *forecast, mkt.ImpliedVolHistory)
	vrp, rv := vr.VRP, vr.RVForecast
	b.VRP = &vrp
	b.RVForecast = &rv
	b.IVRank = vr.IVRank
	b.IVPercentile = vr.IVPercentile
	b.VolBias = vr.Bias
	if forecast.FellBack {
		b.Warnings = append(b.Warnings, "GARCH fit failed, EWMA forecast used")
	}
}

// greeksEfficiency is gamma per unit of daily theta decay. Quoted Greeks are
// preferred; Black-Scholes Greeks are used when the quote carries none.
func (s *Scorer) greeksEfficiency(c domain.OptionContract, pos position) float64 {
	var g domain.Greeks
	if c.Greeks != nil {
		g = *c.Greeks
	} else {
		computed, ok := probability.Greeks(pos.spot, pos.strike, pos.rate, pos.sigma, pos.years, c.Type)
		if !ok {
			return 0
		}
		g = computed
	}
	theta := math.Abs(g.Theta)
	if theta < 1e-9 || g.Gamma <= 0 {
		return 0
	}
	return g.Gamma / theta
}

// Score is a convenience wrapper scoring one contract with params
func Score(c domain.OptionContract, mkt domain.MarketContext, d domain.StrategyDirection, params Params) (ScoreBundle, error) {
	s, err := NewScorer(params)
	if err != nil {
		return ScoreBundle{}, err
	}
	return s.Score(Request{Contract: c, Market: mkt, Direction: d})
}

// premium is the per-share mid, or the last trade when there is no quote
func premium(c domain.OptionContract) float64 {
	if mid := c.Mid(); mid > 0 {
		return mid
	}
	if c.Last > 0 {
		return c.Last
	}
	return 0
}

func money(perShare, multiplier float64) decimal.Decimal {
	return decimal.NewFromFloat(perShare).Mul(decimal.NewFromFloat(multiplier)).Round(2)
}

// scenarioHorizon converts calendar days to expiry into trading days
func scenarioHorizon(days float64) int {
	h := int(math.Ceil(days * 252 / 365))
	if h < 1 {
		return 1
	}
	return h
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
