package risk

import (
	"github.com/shopspring/decimal"

	"github.com/eddiefleurent/pmcc_scout/internal/models"
	"github.com/eddiefleurent/pmcc_scout/internal/util"
)

// scenarioMoves is the fixed grid of underlying moves, in percent, evaluated
// at short-call expiration. The grid skews upward because a PMCC is a bullish
// position.
var scenarioMoves = []decimal.Decimal{
	decimal.NewFromInt(-20),
	decimal.NewFromInt(-10),
	decimal.NewFromInt(-5),
	decimal.NewFromInt(0),
	decimal.NewFromInt(5),
	decimal.NewFromInt(10),
	decimal.NewFromInt(15),
	decimal.NewFromInt(20),
	decimal.NewFromInt(30),
}

// expectedMove is the scenario reported as the expected case.
var expectedMove = decimal.NewFromInt(5)

var penny = decimal.RequireFromString("0.01")

// RunScenarios evaluates the position P&L across the fixed move grid. P&L is
// per contract in dollars, treating the LEAPS at intrinsic value at the short
// call's expiration:
//
//	pnl = max(0, price-leaps.strike) - max(0, price-short.strike) - net_debit
func RunScenarios(o *models.Opportunity) models.ScenarioAnalysis {
	spot := o.Quote.Price()
	analysis := models.ScenarioAnalysis{
		Outcomes: make([]models.ScenarioOutcome, 0, len(scenarioMoves)),
	}

	for _, move := range scenarioMoves {
		price := util.RoundToTick(spot.Add(spot.Mul(move).Div(hundred)), penny)
		perShare := util.PositiveOrZero(price.Sub(o.LEAPS.Strike)).
			Sub(util.PositiveOrZero(price.Sub(o.Short.Strike))).
			Sub(o.NetDebit)
		outcome := models.ScenarioOutcome{
			MovePct: move,
			Price:   price,
			PnL:     perShare.Mul(decimal.NewFromInt(sharesPerContract)),
		}
		analysis.Outcomes = append(analysis.Outcomes, outcome)

		if len(analysis.Outcomes) == 1 {
			analysis.Best = outcome
			analysis.Worst = outcome
		} else {
			if outcome.PnL.Cmp(analysis.Best.PnL) > 0 {
				analysis.Best = outcome
			}
			if outcome.PnL.Cmp(analysis.Worst.PnL) < 0 {
				analysis.Worst = outcome
			}
		}
		if move.Equal(expectedMove) {
			analysis.Expected = outcome
		}
	}

	return analysis
}
