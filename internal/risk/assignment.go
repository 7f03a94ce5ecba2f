// Package risk computes downstream analytics for a selected PMCC opportunity:
// early-assignment risk, position sizing, scenario P&L, tail metrics, and
// greeks exposure. Everything here is synchronous, derived computation; the
// package performs no I/O.
package risk

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/eddiefleurent/pmcc_scout/internal/models"
)

var (
	baseAssignmentProb = decimal.NewFromInt(5)
	maxAssignmentProb  = decimal.NewFromInt(90)
	two                = decimal.NewFromInt(2)
	hundred            = decimal.NewFromInt(100)
)

// AnalyzeEarlyAssignment estimates the probability the short call is assigned
// before expiration. The probability starts at a 5% floor and each observed
// pressure adds to it; the level escalates with the worst contributing factor
// and is never downgraded by the final probability tiers.
func AnalyzeEarlyAssignment(short *models.OptionContract, quote models.StockQuote, dividend *models.DividendInfo) models.EarlyAssignmentRisk {
	result := models.EarlyAssignmentRisk{
		Level:       models.RiskLow,
		Probability: baseAssignmentProb,
	}
	spot := quote.Price()

	if spot.Cmp(short.Strike) > 0 && short.Strike.Sign() > 0 {
		itmPct := spot.Sub(short.Strike).Div(short.Strike).Mul(hundred)
		result.Probability = result.Probability.Add(itmPct.Mul(two))
		result.Factors = append(result.Factors,
			fmt.Sprintf("short call is %s%% in the money", itmPct.Round(2)))
		switch {
		case itmPct.Cmp(decimal.NewFromInt(10)) > 0:
			result.Level = escalate(result.Level, models.RiskHigh)
		case itmPct.Cmp(decimal.NewFromInt(5)) > 0:
			result.Level = escalate(result.Level, models.RiskMedium)
		}
	}

	switch {
	case short.DTE <= 7:
		result.Probability = result.Probability.Add(decimal.NewFromInt(15))
		result.Level = escalate(result.Level, models.RiskHigh)
		result.Factors = append(result.Factors,
			fmt.Sprintf("only %d days to expiration", short.DTE))
	case short.DTE <= 14:
		result.Probability = result.Probability.Add(decimal.NewFromInt(5))
		result.Factors = append(result.Factors,
			fmt.Sprintf("%d days to expiration", short.DTE))
	}

	if dividend != nil && !dividend.ExDate.IsZero() && dividend.ExDate.Before(short.Expiration) {
		ext, ok := short.ExtrinsicValue(spot)
		if ok && dividend.Amount.Cmp(ext) > 0 {
			// Holders capture the dividend by exercising when it exceeds the
			// remaining time value.
			result.Probability = result.Probability.Add(decimal.NewFromInt(25))
			result.Level = escalate(result.Level, models.RiskHigh)
			result.Factors = append(result.Factors,
				fmt.Sprintf("dividend %s exceeds remaining time value before expiration", dividend.Amount))
		} else {
			result.Probability = result.Probability.Add(decimal.NewFromInt(10))
			result.Factors = append(result.Factors, "ex-dividend date falls before expiration")
		}
	}

	if spread, ok := short.SpreadPct(); ok && spread.Cmp(decimal.NewFromInt(20)) > 0 {
		result.Probability = result.Probability.Add(decimal.NewFromInt(5))
		result.Factors = append(result.Factors, "wide bid-ask spread signals thin quoting")
	}
	if short.OpenInterest < 10 {
		result.Probability = result.Probability.Add(decimal.NewFromInt(5))
		result.Factors = append(result.Factors, "very low open interest")
	}

	if result.Probability.Cmp(maxAssignmentProb) > 0 {
		result.Probability = maxAssignmentProb
	}

	switch {
	case result.Probability.Cmp(decimal.NewFromInt(50)) > 0:
		result.Level = escalate(result.Level, models.RiskHigh)
	case result.Probability.Cmp(decimal.NewFromInt(25)) > 0:
		result.Level = escalate(result.Level, models.RiskMedium)
	}

	return result
}

// escalate returns the more severe of the two levels.
func escalate(current, candidate models.RiskLevel) models.RiskLevel {
	rank := map[models.RiskLevel]int{
		models.RiskLow:    0,
		models.RiskMedium: 1,
		models.RiskHigh:   2,
	}
	if rank[candidate] > rank[current] {
		return candidate
	}
	return current
}
