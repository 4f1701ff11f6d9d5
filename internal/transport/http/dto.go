package http

import (
	"optionrank/internal/pipeline"
	"optionrank/internal/scoring"
	api "optionrank/pkg/contracts/api/v1"
)

// filterParams overlays req on defaults. Return bounds arrive as percentages.
func filterParams(defaults pipeline.FilterParams, req *api.FilterRequest) pipeline.FilterParams {
	f := defaults
	if req == nil {
		return f
	}
	if req.MinAnnualReturnPct != nil {
		f.MinAnnualReturn = *req.MinAnnualReturnPct / 100
	}
	if req.MaxAnnualReturnPct != nil {
		f.MaxAnnualReturn = *req.MaxAnnualReturnPct / 100
	}
	if req.MinPremium != nil {
		f.MinPremium = *req.MinPremium
	}
	if req.MaxPremium != nil {
		f.MaxPremium = *req.MaxPremium
	}
	if req.MaxSpread != nil {
		f.MaxSpread = *req.MaxSpread
	}
	if req.PremiumBasis != "" {
		f.PremiumBasis = pipeline.PremiumBasis(req.PremiumBasis)
	}
	return f
}

func toFiltersResponse(f pipeline.FilterParams) api.FiltersResponse {
	return api.FiltersResponse{
		MinAnnualReturnPct: pct(f.MinAnnualReturn),
		MaxAnnualReturnPct: pct(f.MaxAnnualReturn),
		MinPremium:         f.MinPremium,
		MaxPremium:         f.MaxPremium,
		MaxSpread:          f.MaxSpread,
		PremiumBasis:       string(f.PremiumBasis),
	}
}

// toScoreChainResponse converts a pipeline result. limit > 0 truncates the
// contract list; the summary still covers the whole chain.
func toScoreChainResponse(res *pipeline.Result, filters pipeline.FilterParams, limit int) api.ScoreChainResponse {
	ranked := res.Ranked
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}

	contracts := make([]api.ScoredContract, 0, len(ranked))
	for _, rc := range ranked {
		contracts = append(contracts, toScoredContract(rc))
	}

	skipped := make([]api.SkippedContract, 0, len(res.Skipped))
	for _, s := range res.Skipped {
		skipped = append(skipped, api.SkippedContract{Key: s.Key, Strike: s.Strike, Reason: s.Reason})
	}

	return api.ScoreChainResponse{
		Symbol:          res.Symbol,
		Direction:       string(res.Direction),
		UnderlyingPrice: res.UnderlyingPrice,
		AsOf:            res.AsOf,
		Filters:         toFiltersResponse(filters),
		Contracts:       contracts,
		Skipped:         skipped,
		Volatility:      toVolatilityResponse(res.Volatility),
		Summary:         toSummaryResponse(res.Summary),
		DurationMs:      res.Duration.Milliseconds(),
	}
}

func toScoredContract(rc pipeline.RankedContract) api.ScoredContract {
	c, b := rc.Contract, rc.Score

	out := api.ScoredContract{
		Rank:                     rc.Rank,
		Key:                      c.Key(),
		Type:                     string(c.Type),
		Strike:                   c.Strike,
		Expiry:                   c.Expiry,
		Bid:                      c.Bid,
		Ask:                      c.Ask,
		OpenInterest:             c.OpenInterest,
		ImpliedVolatilityPct:     pct(c.ImpliedVolatility),
		Score:                    b.RecommendationScore,
		Tier:                     string(b.Tier),
		Highlight:                b.Highlight,
		AssignmentProbabilityPct: b.AssignmentProbability,
		WinRatePct:               b.WinRate,
		LiquidityFactor:          b.LiquidityFactor,
		SpreadPct:                pct(b.SpreadRatio),
		AnnualizedReturnPct:      pct(b.AnnualizedReturn),
		DaysToExpiry:             b.DaysToExpiry,
		Premium:                  b.Premium,
		Breakeven:                b.Breakeven,
		PremiumIncome:            b.PremiumIncome,
		MarginRequirement:        b.MarginRequirement,
		MaxLoss:                  b.MaxLoss,
		ExpectedValue:            b.ExpectedValue,
		RiskAdjustedExpectancy:   b.RiskAdjustedExpectancy,
		TailRiskEstimate:         b.TailRiskEstimate,
		RiskLevel:                string(b.RiskLevel),
		VRPPct:                   pctPtr(b.VRP),
		RVForecastPct:            pctPtr(b.RVForecast),
		IVRank:                   b.IVRank,
		IVPercentile:             b.IVPercentile,
		VolBias:                  string(b.VolBias),
		GreeksEfficiency:         b.GreeksEfficiency,
		VetoReason:               string(b.VetoReason),
		Warnings:                 b.Warnings,
	}
	for _, v := range b.VetoReasons {
		out.VetoReasons = append(out.VetoReasons, string(v))
	}
	for _, f := range b.Factors {
		out.Factors = append(out.Factors, api.FactorResponse(f))
	}
	return out
}

func toVolatilityResponse(v pipeline.VolatilityOutcome) api.VolatilityResponse {
	out := api.VolatilityResponse{Error: v.Error}
	if v.Forecast != nil {
		f := pct(v.Forecast.Volatility)
		out.ForecastPct = &f
		out.Method = string(v.Forecast.Method)
		out.FellBack = v.Forecast.FellBack
		out.Observations = v.Forecast.Observations
	}
	return out
}

func toSummaryResponse(s pipeline.Summary) api.SummaryResponse {
	out := api.SummaryResponse{
		Total:            s.Total,
		Ranked:           s.Ranked,
		Vetoed:           s.Vetoed,
		Highlighted:      s.Highlighted,
		Skipped:          s.Skipped,
		Filtered:         s.Filtered,
		TierCounts:       make(map[string]int, len(s.TierCounts)),
		VetoCounts:       make(map[string]int, len(s.VetoCounts)),
		AverageLiquidity: s.AverageLiquidity,
		AverageScore:     s.AverageScore,
	}
	for t, n := range s.TierCounts {
		out.TierCounts[string(t)] = n
	}
	for _, v := range scoring.VetoReasons() {
		out.VetoCounts[string(v)] = s.VetoCounts[v]
	}
	if s.Best != nil {
		out.Best = s.Best.Contract.Key()
	}
	return out
}

func pct(fraction float64) float64 {
	return fraction * 100
}

func pctPtr(fraction *float64) *float64 {
	if fraction == nil {
		return nil
	}
	v := pct(*fraction)
	return &v
}
