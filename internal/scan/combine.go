package scan

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/eddiefleurent/pmcc_scout/internal/models"
)

// PairRejection names why a (LEAPS, short) pairing was discarded.
type PairRejection string

// Pair rejection reasons, in check order.
const (
	PairStrikeOrder     PairRejection = "short_strike_not_above_leaps"
	PairDTEOrder        PairRejection = "short_dte_not_below_leaps"
	PairShortNotOTM     PairRejection = "short_strike_not_above_spot"
	PairMissingPricing  PairRejection = "missing_pricing"
	PairNetDebit        PairRejection = "net_debit_not_positive"
	PairMaxProfit       PairRejection = "max_profit_not_positive"
	PairRiskReward      PairRejection = "risk_reward_below_minimum"
	PairPremiumCoverage PairRejection = "premium_coverage_too_low"
)

// PairRejectionCounts tallies pair rejections for diagnostics.
type PairRejectionCounts map[PairRejection]int

// Add increments the counter for reason.
func (p PairRejectionCounts) Add(reason PairRejection) {
	p[reason]++
}

// Total returns the sum of all pair rejection counts.
func (p PairRejectionCounts) Total() int {
	total := 0
	for _, n := range p {
		total += n
	}
	return total
}

// PairConfig carries the tunable pairing gates.
type PairConfig struct {
	// MinRiskReward is the minimum max_profit/net_debit ratio.
	MinRiskReward decimal.Decimal
	// MinPremiumCoverage requires short.bid / leaps_extrinsic >= ratio
	// when positive; zero disables the gate.
	MinPremiumCoverage decimal.Decimal
}

// PairEconomics holds the derived numbers a valid pairing produces.
type PairEconomics struct {
	NetDebit   decimal.Decimal
	MaxProfit  decimal.Decimal
	Breakeven  decimal.Decimal
	RiskReward decimal.Decimal
}

// ValidatePair applies every pairing rule to one (LEAPS, short) combination.
// It is the single source of truth for pair validity: both the opportunity
// builder and the feasibility reporter call it, so the two paths cannot drift.
//
// leapsExtrinsic is the LEAPS time value (mid - intrinsic), precomputed once
// per LEAPS contract so the coverage gate does not recompute it per pairing.
// Pass ok=false extrinsic when the LEAPS mid was unavailable.
func ValidatePair(leaps, short *models.OptionContract, quote models.StockQuote, leapsExtrinsic decimal.NullDecimal, cfg PairConfig) (PairEconomics, PairRejection, bool) {
	var econ PairEconomics

	if short.Strike.Cmp(leaps.Strike) <= 0 {
		return econ, PairStrikeOrder, false
	}
	if leaps.DTE > 0 && short.DTE > 0 && short.DTE >= leaps.DTE {
		return econ, PairDTEOrder, false
	}
	if short.Strike.Cmp(quote.Price()) <= 0 {
		return econ, PairShortNotOTM, false
	}
	if !leaps.Ask.Valid || !short.Bid.Valid {
		return econ, PairMissingPricing, false
	}

	econ.NetDebit = leaps.Ask.Decimal.Sub(short.Bid.Decimal)
	if econ.NetDebit.Sign() <= 0 {
		return econ, PairNetDebit, false
	}

	econ.MaxProfit = short.Strike.Sub(leaps.Strike).Sub(econ.NetDebit)
	if econ.MaxProfit.Sign() <= 0 {
		return econ, PairMaxProfit, false
	}

	econ.RiskReward = econ.MaxProfit.Div(econ.NetDebit)
	minRR := cfg.MinRiskReward
	if minRR.IsZero() {
		minRR = DefaultMinRiskReward
	}
	if econ.RiskReward.Cmp(minRR) < 0 {
		return econ, PairRiskReward, false
	}

	if cfg.MinPremiumCoverage.Sign() > 0 {
		if !leapsExtrinsic.Valid || leapsExtrinsic.Decimal.Sign() <= 0 {
			return econ, PairPremiumCoverage, false
		}
		coverage := short.Bid.Decimal.Div(leapsExtrinsic.Decimal)
		if coverage.Cmp(cfg.MinPremiumCoverage) < 0 {
			return econ, PairPremiumCoverage, false
		}
	}

	econ.Breakeven = leaps.Strike.Add(econ.NetDebit)
	return econ, "", true
}

// BuildOpportunities walks the cartesian product of the two candidate pools
// and constructs an Opportunity for every valid pairing. Scores are filled in
// later by the scorer; ordering here is the deterministic product order.
func BuildOpportunities(leapsPool, shortPool []models.OptionContract, quote models.StockQuote, cfg PairConfig, analyzedAt time.Time) ([]models.Opportunity, PairRejectionCounts) {
	rejections := make(PairRejectionCounts)
	var opportunities []models.Opportunity

	spot := quote.Price()
	hundred := decimal.NewFromInt(100)

	for i := range leapsPool {
		leaps := &leapsPool[i]

		// Extrinsic value computed once per LEAPS and reused across every
		// paired short call.
		var leapsExtrinsic decimal.NullDecimal
		if ext, ok := leaps.ExtrinsicValue(spot); ok {
			leapsExtrinsic = decimal.NewNullDecimal(ext)
		}

		for j := range shortPool {
			short := &shortPool[j]

			econ, reason, ok := ValidatePair(leaps, short, quote, leapsExtrinsic, cfg)
			if !ok {
				rejections.Add(reason)
				continue
			}

			opportunities = append(opportunities, models.Opportunity{
				ID:              uuid.NewString(),
				Symbol:          quote.Symbol,
				LEAPS:           *leaps,
				Short:           *short,
				Quote:           quote,
				NetDebit:        econ.NetDebit,
				MaxProfit:       econ.MaxProfit,
				MaxLoss:         econ.NetDebit,
				Breakeven:       econ.Breakeven,
				ROIPotential:    econ.RiskReward.Mul(hundred),
				RiskRewardRatio: econ.RiskReward,
				AnalyzedAt:      analyzedAt,
			})
		}
	}

	return opportunities, rejections
}
