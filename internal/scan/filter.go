package scan

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/eddiefleurent/pmcc_scout/internal/models"
)

// RejectionReason names the first failing check for a filtered contract.
type RejectionReason string

// Per-contract rejection reasons, in check order.
const (
	RejectNotCall      RejectionReason = "not_call"
	RejectDTE          RejectionReason = "dte_out_of_range"
	RejectDelta        RejectionReason = "delta_out_of_range"
	RejectOpenInterest RejectionReason = "open_interest_too_low"
	RejectVolume       RejectionReason = "volume_too_low"
	RejectSpread       RejectionReason = "spread_too_wide"
	RejectMoneyness    RejectionReason = "wrong_moneyness"
	RejectPricing      RejectionReason = "invalid_pricing"
	RejectPremiumPct   RejectionReason = "premium_too_expensive"
	RejectExtrinsicPct RejectionReason = "extrinsic_too_high"
)

// RejectionCounts tallies rejections by reason for diagnostics.
type RejectionCounts map[RejectionReason]int

// Add increments the counter for reason.
func (r RejectionCounts) Add(reason RejectionReason) {
	r[reason]++
}

// Total returns the sum of all rejection counts.
func (r RejectionCounts) Total() int {
	total := 0
	for _, n := range r {
		total += n
	}
	return total
}

// Dominant returns the reason with the highest count, or "" when empty.
// Ties break lexicographically so diagnostics stay deterministic.
func (r RejectionCounts) Dominant() RejectionReason {
	var best RejectionReason
	bestN := 0
	for reason, n := range r {
		if n > bestN || (n == bestN && n > 0 && reason < best) {
			best = reason
			bestN = n
		}
	}
	return best
}

// FilterLEAPS reduces the chain to LEAPS candidates: long-dated deep-ITM calls
// within the criteria gates. Checks run in order and stop at the first failure,
// recording the reason. Survivors are sorted by delta descending (deepest ITM
// first) and capped at maxLEAPSCandidates.
func FilterLEAPS(chain []models.OptionContract, crit LEAPSCriteria, quote models.StockQuote) ([]models.OptionContract, RejectionCounts) {
	rejections := make(RejectionCounts)
	spot := quote.Price()

	var candidates []models.OptionContract
	for _, c := range chain {
		if c.Side != models.SideCall {
			rejections.Add(RejectNotCall)
			continue
		}
		if reason, ok := checkCommonGates(&c, commonGates{
			minDTE:    crit.MinDTE,
			maxDTE:    crit.MaxDTE,
			minDelta:  crit.MinDelta,
			maxDelta:  crit.MaxDelta,
			minOI:     crit.MinOpenInterest,
			minVolume: crit.MinVolume,
			maxSpread: crit.MaxBidAskSpreadPct,
			moneyness: crit.Moneyness,
		}); !ok {
			rejections.Add(reason)
			continue
		}

		// Premium gate: the LEAPS must not cost more than MaxPremiumPct of spot.
		if crit.MaxPremiumPct.Sign() > 0 && spot.Sign() > 0 {
			premiumRatio := c.Ask.Decimal.Div(spot)
			if premiumRatio.Cmp(crit.MaxPremiumPct) > 0 {
				rejections.Add(RejectPremiumPct)
				continue
			}
		}

		// Extrinsic gate: time value paid relative to the option's own price.
		if crit.MaxExtrinsicPct.Sign() > 0 {
			ext, ok := c.ExtrinsicValue(spot)
			if !ok {
				rejections.Add(RejectPricing)
				continue
			}
			extRatio := ext.Div(c.Mid.Decimal) // mid validity implied by ExtrinsicValue
			if extRatio.Cmp(crit.MaxExtrinsicPct) > 0 {
				rejections.Add(RejectExtrinsicPct)
				continue
			}
		}

		candidates = append(candidates, c)
	}

	// Deepest ITM first. SliceStable keeps chain order on equal deltas so
	// identical inputs always rank identically.
	sort.SliceStable(candidates, func(i, j int) bool {
		di, _ := candidates[i].Delta()
		dj, _ := candidates[j].Delta()
		return di.Cmp(dj) > 0
	})

	if len(candidates) > maxLEAPSCandidates {
		candidates = candidates[:maxLEAPSCandidates]
	}
	return candidates, rejections
}

// FilterShortCalls reduces the chain to short-call candidates: short-dated OTM
// calls within the criteria gates. Survivors are sorted by bid descending
// (richest premium first) and capped at maxShortCandidates.
func FilterShortCalls(chain []models.OptionContract, crit ShortCallCriteria, quote models.StockQuote) ([]models.OptionContract, RejectionCounts) {
	rejections := make(RejectionCounts)

	var candidates []models.OptionContract
	for _, c := range chain {
		if c.Side != models.SideCall {
			rejections.Add(RejectNotCall)
			continue
		}
		if reason, ok := checkCommonGates(&c, commonGates{
			minDTE:    crit.MinDTE,
			maxDTE:    crit.MaxDTE,
			minDelta:  crit.MinDelta,
			maxDelta:  crit.MaxDelta,
			minOI:     crit.MinOpenInterest,
			minVolume: crit.MinVolume,
			maxSpread: crit.MaxBidAskSpreadPct,
			moneyness: crit.Moneyness,
		}); !ok {
			rejections.Add(reason)
			continue
		}
		candidates = append(candidates, c)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Bid.Decimal.Cmp(candidates[j].Bid.Decimal) > 0
	})

	if len(candidates) > maxShortCandidates {
		candidates = candidates[:maxShortCandidates]
	}
	return candidates, rejections
}

// commonGates holds the checks shared by both candidate pools.
type commonGates struct {
	minDTE, maxDTE     int
	minDelta, maxDelta decimal.Decimal
	minOI, minVolume   int64
	maxSpread          decimal.Decimal
	moneyness          models.Moneyness
}

// checkCommonGates runs the ordered shared checks: DTE, delta, liquidity,
// moneyness, pricing. Returns the first failing reason. Data absence (missing
// greeks, missing quotes) is a rejection, never an error.
func checkCommonGates(c *models.OptionContract, g commonGates) (RejectionReason, bool) {
	if c.DTE < g.minDTE || c.DTE > g.maxDTE {
		return RejectDTE, false
	}

	delta, ok := c.Delta()
	if !ok {
		return RejectDelta, false
	}
	delta = delta.Abs()
	if delta.Cmp(g.minDelta) < 0 || delta.Cmp(g.maxDelta) > 0 {
		return RejectDelta, false
	}

	if g.minOI > 0 && c.OpenInterest < g.minOI {
		return RejectOpenInterest, false
	}
	if g.minVolume > 0 && c.Volume < g.minVolume {
		return RejectVolume, false
	}
	if g.maxSpread.Sign() > 0 {
		spreadPct, ok := c.SpreadPct()
		if ok && spreadPct.Cmp(g.maxSpread.Mul(decimal.NewFromInt(100))) > 0 {
			return RejectSpread, false
		}
	}

	if g.moneyness != "" && c.Moneyness != g.moneyness {
		return RejectMoneyness, false
	}

	if !c.HasValidPricing() {
		return RejectPricing, false
	}

	return "", true
}
