package scan

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/eddiefleurent/pmcc_scout/internal/models"
	"github.com/eddiefleurent/pmcc_scout/internal/util"
)

// ScoringWeights control the composite score blend. The defaults are
// empirically chosen policy constants, not derived values; override them via
// config when calibrating.
type ScoringWeights struct {
	ROI         float64 `yaml:"roi"`
	RiskReward  float64 `yaml:"risk_reward"`
	Probability float64 `yaml:"probability"`
	Liquidity   float64 `yaml:"liquidity"`

	// LEAPSSpread and ShortSpread split the liquidity score between the two
	// legs' bid-ask spreads.
	LEAPSSpread float64 `yaml:"leaps_spread"`
	ShortSpread float64 `yaml:"short_spread"`
}

// DefaultScoringWeights returns the standard 25/25/30/20 blend with the
// 60/40 liquidity split.
func DefaultScoringWeights() ScoringWeights {
	return ScoringWeights{
		ROI:         0.25,
		RiskReward:  0.25,
		Probability: 0.30,
		Liquidity:   0.20,
		LEAPSSpread: 0.60,
		ShortSpread: 0.40,
	}
}

// ProbabilityScore estimates how likely the position works out, on a 0-100
// scale starting from a neutral 50. Adjustments: breakeven distance from spot,
// short-call DTE runway, and the short/LEAPS delta ratio.
func ProbabilityScore(o *models.Opportunity) float64 {
	score := 50.0

	if dist, ok := o.BreakevenDistancePct(); ok {
		distF := dist.InexactFloat64()
		switch {
		case distF <= 5:
			score += 20
		case distF <= 10:
			score += 10
		case distF >= 20:
			score -= 10
		}
	}

	switch {
	case o.Short.DTE >= 35:
		score += 15
	case o.Short.DTE >= 28:
		score += 10
	case o.Short.DTE <= 14:
		score -= 10
	}

	if shortDelta, ok := o.Short.Delta(); ok {
		if leapsDelta, ok := o.LEAPS.Delta(); ok && !leapsDelta.IsZero() {
			ratio := shortDelta.Abs().Div(leapsDelta.Abs()).InexactFloat64()
			switch {
			case ratio >= 0.25 && ratio <= 0.45:
				score += 15
			case ratio >= 0.15 && ratio <= 0.55:
				score += 5
			}
		}
	}

	return util.ClampScore(score)
}

// LiquidityScore rates how cheaply the position can be entered and exited,
// on a 0-100 scale: tight spreads on both legs weighted by the configured
// split, with bonuses for combined volume and open interest.
func LiquidityScore(o *models.Opportunity, w ScoringWeights) float64 {
	score := 0.0

	if spread, ok := o.LEAPS.SpreadPct(); ok {
		leg := 100 - spread.InexactFloat64()*5
		if leg < 0 {
			leg = 0
		}
		score += leg * w.LEAPSSpread
	}
	if spread, ok := o.Short.SpreadPct(); ok {
		leg := 100 - spread.InexactFloat64()*3
		if leg < 0 {
			leg = 0
		}
		score += leg * w.ShortSpread
	}

	combinedVolume := o.LEAPS.Volume + o.Short.Volume
	switch {
	case combinedVolume >= 50:
		score += 10
	case combinedVolume >= 20:
		score += 5
	}

	combinedOI := o.LEAPS.OpenInterest + o.Short.OpenInterest
	switch {
	case combinedOI >= 100:
		score += 10
	case combinedOI >= 50:
		score += 5
	}

	return util.ClampScore(score)
}

// TotalScore blends ROI, risk/reward, probability, and liquidity into the
// final 0-100 attractiveness score. ROI and risk/reward contributions are
// capped at 100 before weighting so outliers cannot dominate.
func TotalScore(o *models.Opportunity, w ScoringWeights) float64 {
	roi := o.ROIPotential.InexactFloat64()
	if roi > 100 {
		roi = 100
	}
	rr := o.RiskRewardRatio.Mul(decimal.NewFromInt(50)).InexactFloat64()
	if rr > 100 {
		rr = 100
	}

	total := w.ROI*roi +
		w.RiskReward*rr +
		w.Probability*o.ProbabilityScore +
		w.Liquidity*o.LiquidityScore

	return util.ClampScore(total)
}

// ScoreAndRank fills in the three scores for every opportunity and sorts by
// total score descending. The sort is stable: ties keep builder order so
// identical inputs always produce identical rankings.
func ScoreAndRank(opportunities []models.Opportunity, w ScoringWeights) {
	for i := range opportunities {
		o := &opportunities[i]
		o.ProbabilityScore = ProbabilityScore(o)
		o.LiquidityScore = LiquidityScore(o, w)
		o.TotalScore = TotalScore(o, w)
	}

	sort.SliceStable(opportunities, func(i, j int) bool {
		return opportunities[i].TotalScore > opportunities[j].TotalScore
	})
}
