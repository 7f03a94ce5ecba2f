package risk

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/eddiefleurent/pmcc_scout/internal/models"
)

// VaR95 is the 5th-percentile loss of the scenario P&L distribution, reported
// as a positive magnitude. Zero when even the tail scenario is profitable.
func VaR95(pnls []decimal.Decimal) decimal.Decimal {
	if len(pnls) == 0 {
		return decimal.Zero
	}
	sorted := sortedCopy(pnls)
	idx := len(sorted) * 5 / 100
	return lossMagnitude(sorted[idx])
}

// ExpectedShortfall is the mean P&L at and below the VaR cutoff, reported as
// a positive magnitude. With a nine-point grid the cutoff index is 0, so this
// degenerates to the single worst scenario.
func ExpectedShortfall(pnls []decimal.Decimal) decimal.Decimal {
	if len(pnls) == 0 {
		return decimal.Zero
	}
	sorted := sortedCopy(pnls)
	idx := len(sorted) * 5 / 100

	sum := decimal.Zero
	for _, pnl := range sorted[:idx+1] {
		sum = sum.Add(pnl)
	}
	mean := sum.Div(decimal.NewFromInt(int64(idx + 1)))
	return lossMagnitude(mean)
}

// SharpeRatio is a deliberately simplistic risk-adjusted return estimate:
// expected return blends the capped profit and the full loss 60/40, the
// volatility proxy is half the outcome range, both annualized by the short
// call's runway and expressed as percentages of the net debit.
func SharpeRatio(o *models.Opportunity, riskFreeRatePct decimal.Decimal) float64 {
	netDebit := o.NetDebit.InexactFloat64()
	if netDebit <= 0 || o.Short.DTE <= 0 {
		return 0
	}

	maxProfit := o.MaxProfit.InexactFloat64()
	maxLoss := o.MaxLoss.InexactFloat64()
	annualFactor := 365.0 / float64(o.Short.DTE)

	expectedReturn := 0.6*maxProfit - 0.4*maxLoss
	annualReturnPct := expectedReturn / netDebit * 100 * annualFactor

	volatility := (maxProfit + maxLoss) / 2
	annualVolPct := volatility / netDebit * 100 * annualFactor
	if annualVolPct == 0 {
		return 0
	}

	return (annualReturnPct - riskFreeRatePct.InexactFloat64()) / annualVolPct
}

func sortedCopy(pnls []decimal.Decimal) []decimal.Decimal {
	sorted := make([]decimal.Decimal, len(pnls))
	copy(sorted, pnls)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Cmp(sorted[j]) < 0
	})
	return sorted
}

func lossMagnitude(pnl decimal.Decimal) decimal.Decimal {
	if pnl.Sign() >= 0 {
		return decimal.Zero
	}
	return pnl.Neg()
}
