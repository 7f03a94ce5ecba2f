package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Opportunity is a validated PMCC pairing: a deep-ITM long-dated call financed
// partially by a short-dated OTM call on the same underlying.
//
// Records are immutable after construction. Invariants enforced by the
// builder in internal/scan:
//
//	Short.Strike > LEAPS.Strike
//	Short.DTE    < LEAPS.DTE
//	NetDebit  = LEAPS.Ask - Short.Bid > 0
//	MaxProfit = (Short.Strike - LEAPS.Strike) - NetDebit > 0
type Opportunity struct {
	ID     string         `json:"id"`
	Symbol string         `json:"symbol"`
	LEAPS  OptionContract `json:"leaps_contract"`
	Short  OptionContract `json:"short_contract"`
	Quote  StockQuote     `json:"underlying_quote"`

	NetDebit        decimal.Decimal `json:"net_debit"`
	MaxProfit       decimal.Decimal `json:"max_profit"`
	MaxLoss         decimal.Decimal `json:"max_loss"`
	Breakeven       decimal.Decimal `json:"breakeven"`
	ROIPotential    decimal.Decimal `json:"roi_potential"`
	RiskRewardRatio decimal.Decimal `json:"risk_reward_ratio"`

	ProbabilityScore float64 `json:"probability_score"`
	LiquidityScore   float64 `json:"liquidity_score"`
	TotalScore       float64 `json:"total_score"`

	AnalyzedAt time.Time `json:"analyzed_at"`
}

// BreakevenDistancePct returns how far spot must rise to reach breakeven,
// as a percentage of spot. Negative means breakeven is below spot.
func (o *Opportunity) BreakevenDistancePct() (decimal.Decimal, bool) {
	spot := o.Quote.Price()
	if spot.IsZero() {
		return decimal.Zero, false
	}
	return o.Breakeven.Sub(spot).Div(spot).Mul(decimal.NewFromInt(100)), true
}
