package pipeline

import (
	"optionrank/internal/scoring"
)

// Summary aggregates one ranked chain
type Summary struct {
	Total            int                        `json:"total"`
	Ranked           int                        `json:"ranked"`
	Vetoed           int                        `json:"vetoed"`
	Highlighted      int                        `json:"highlighted"`
	Skipped          int                        `json:"skipped"`
	Filtered         int                        `json:"filtered"`
	TierCounts       map[scoring.Tier]int       `json:"tier_counts"`
	VetoCounts       map[scoring.VetoReason]int `json:"veto_counts"`
	AverageLiquidity float64                    `json:"average_liquidity"`
	AverageScore     float64                    `json:"average_score"`
	Best             *RankedContract            `json:"best,omitempty"`
}

// summarize expects res.Ranked to be sorted already. Veto counts use the
// first triggered reason only so they add up to Vetoed.
func summarize(res *Result) Summary {
	s := Summary{
		Ranked:     len(res.Ranked),
		Skipped:    len(res.Skipped),
		Filtered:   res.Filtered,
		TierCounts: make(map[scoring.Tier]int, len(scoring.Tiers())),
		VetoCounts: make(map[scoring.VetoReason]int),
	}
	s.Total = s.Ranked + s.Skipped + s.Filtered
	for _, t := range scoring.Tiers() {
		s.TierCounts[t] = 0
	}

	var liquidity, score float64
	for i := range res.Ranked {
		b := res.Ranked[i].Score
		s.TierCounts[b.Tier]++
		liquidity += b.LiquidityFactor
		score += b.RecommendationScore
		if b.Highlight {
			s.Highlighted++
		}
		if b.Vetoed() {
			s.Vetoed++
			s.VetoCounts[b.VetoReason]++
			continue
		}
		if s.Best == nil {
			best := res.Ranked[i]
			s.Best = &best
		}
	}
	if s.Ranked > 0 {
		s.AverageLiquidity = liquidity / float64(s.Ranked)
		s.AverageScore = score / float64(s.Ranked)
	}
	return s
}
