package exporter

import (
	"strings"

	"optionrank/internal/pipeline"
)

var rankingHeaders = []string{
	"Rank", "Direction", "Symbol", "Type", "Strike", "Expiry", "Bid", "Ask",
	"Premium", "Score", "Tier", "Highlight", "Assignment %", "Win Rate %",
	"Liquidity", "Spread %", "Annualized Return %", "Days To Expiry",
	"Breakeven", "Premium Income", "Margin", "Max Loss", "Expected Value",
	"Risk Adjusted Expectancy", "Tail Risk", "Risk Level", "IV %", "IV Rank",
	"VRP %", "Vol Bias", "Veto Reason", "Warnings",
}

// RankingHeaders returns the column names shared by every ranking export
func RankingHeaders() []string {
	return append([]string(nil), rankingHeaders...)
}

// rankingValues returns the cells of one ranked contract in RankingHeaders
// order. Absent values are nil.
func rankingValues(res *pipeline.Result, rc pipeline.RankedContract) []interface{} {
	c, b := rc.Contract, rc.Score

	var assignment, vrp interface{}
	if b.AssignmentProbability != nil {
		assignment = *b.AssignmentProbability
	}
	if b.VRP != nil {
		vrp = pct(*b.VRP)
	}

	return []interface{}{
		rc.Rank,
		string(res.Direction),
		c.Symbol,
		string(c.Type),
		c.Strike,
		c.Expiry,
		c.Bid,
		c.Ask,
		b.Premium,
		b.RecommendationScore,
		string(b.Tier),
		b.Highlight,
		assignment,
		b.WinRate,
		b.LiquidityFactor,
		pct(b.SpreadRatio),
		pct(b.AnnualizedReturn),
		b.DaysToExpiry,
		b.Breakeven,
		b.PremiumIncome,
		b.MarginRequirement,
		b.MaxLoss,
		b.ExpectedValue,
		b.RiskAdjustedExpectancy,
		b.TailRiskEstimate,
		string(b.RiskLevel),
		pct(c.ImpliedVolatility),
		b.IVRank,
		vrp,
		string(b.VolBias),
		string(b.VetoReason),
		strings.Join(b.Warnings, "; "),
	}
}

// RankingRecords flattens results into CSV records, one per ranked contract
func RankingRecords(results []*pipeline.Result) [][]string {
	var records [][]string
	for _, res := range results {
		if res == nil {
			continue
		}
		for _, rc := range res.Ranked {
			values := rankingValues(res, rc)
			record := make([]string, len(values))
			for i, v := range values {
				record[i] = formatCell(v)
			}
			records = append(records, record)
		}
	}
	return records
}

func pct(fraction float64) float64 {
	return fraction * 100
}
