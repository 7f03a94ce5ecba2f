package risk

import (
	"github.com/shopspring/decimal"

	"github.com/eddiefleurent/pmcc_scout/internal/models"
)

// sharesPerContract is the standard US equity option multiplier.
const sharesPerContract = 100

var (
	defaultAccountSize = decimal.NewFromInt(100_000)
	maxRiskPerTrade    = decimal.RequireFromString("0.02")
	maxCapitalPerTrade = decimal.RequireFromString("0.10")
)

// SizePosition recommends contract counts under the account's risk and capital
// budgets: 2% of the account may be lost per trade, 10% may be deployed.
// netDebit and maxLoss are per-share; the option multiplier is applied here.
// A zero accountSize falls back to the 100k default.
func SizePosition(netDebit, maxLoss, accountSize decimal.Decimal) models.PositionSizing {
	if accountSize.Sign() <= 0 {
		accountSize = defaultAccountSize
	}

	sizing := models.PositionSizing{
		AccountSize:   accountSize,
		RiskBudget:    accountSize.Mul(maxRiskPerTrade),
		CapitalBudget: accountSize.Mul(maxCapitalPerTrade),
	}

	lossPerContract := maxLoss.Mul(decimal.NewFromInt(sharesPerContract))
	debitPerContract := netDebit.Mul(decimal.NewFromInt(sharesPerContract))
	if lossPerContract.Sign() <= 0 || debitPerContract.Sign() <= 0 {
		sizing.MaxContracts = 1
		sizing.RecommendedContracts = 1
		return sizing
	}

	byRisk := int(sizing.RiskBudget.Div(lossPerContract).IntPart())
	byCapital := int(sizing.CapitalBudget.Div(debitPerContract).IntPart())

	maxContracts := byRisk
	if byCapital < maxContracts {
		maxContracts = byCapital
	}
	if maxContracts < 1 {
		maxContracts = 1
	}

	recommended := maxContracts / 2
	if recommended < 1 {
		recommended = 1
	}

	sizing.MaxContracts = maxContracts
	sizing.RecommendedContracts = recommended
	return sizing
}
