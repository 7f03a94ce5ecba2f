package scan

import (
	"fmt"
	"sort"
	"time"

	"github.com/montanaflynn/stats"
	"github.com/shopspring/decimal"

	"github.com/eddiefleurent/pmcc_scout/internal/models"
)

// ChainStatistics summarizes the raw chain independently of any filtering,
// giving the report reader context about what the scanner had to work with.
type ChainStatistics struct {
	TotalContracts    int `json:"total_contracts"`
	CallContracts     int `json:"call_contracts"`
	UniqueStrikes     int `json:"unique_strikes"`
	UniqueExpirations int `json:"unique_expirations"`

	MeanSpreadPct   float64 `json:"mean_spread_pct"`
	MedianSpreadPct float64 `json:"median_spread_pct"`
	P90SpreadPct    float64 `json:"p90_spread_pct"`

	MeanIV   float64 `json:"mean_iv"`
	MedianIV float64 `json:"median_iv"`
}

// FeasibilityReport explains why a chain did or did not produce PMCC
// opportunities. It is built by re-walking the same filter and validation
// logic as the primary pipeline, so it stays accurate even when the pipeline
// short-circuits early.
type FeasibilityReport struct {
	Symbol    string    `json:"symbol"`
	SpotPrice string    `json:"spot_price"`
	CheckedAt time.Time `json:"checked_at"`

	ChainStats ChainStatistics `json:"chain_stats"`

	LEAPSCandidates   int `json:"leaps_candidates"`
	ShortCandidates   int `json:"short_candidates"`
	ValidCombinations int `json:"valid_combinations"`

	LEAPSRejections RejectionCounts     `json:"leaps_rejections"`
	ShortRejections RejectionCounts     `json:"short_rejections"`
	PairRejections  PairRejectionCounts `json:"pair_rejections"`

	IsPMCCFeasible  bool     `json:"is_pmcc_feasible"`
	Recommendations []string `json:"recommendations,omitempty"`
}

// recommendation rule tables, keyed on the dominant rejection reason per
// failure category. Free text is intentionally actionable for a human reading
// the scan log.
var leapsRecommendations = map[RejectionReason]string{
	RejectDTE:          "widen the LEAPS DTE window; the chain has no expirations in the configured range",
	RejectDelta:        "lower the LEAPS minimum delta; no strikes are deep enough in the money",
	RejectOpenInterest: "reduce min_open_interest for LEAPS or pick a more liquid underlying",
	RejectVolume:       "reduce min_volume for LEAPS; long-dated contracts rarely trade daily",
	RejectSpread:       "allow a wider LEAPS bid-ask spread; long-dated quotes are wide on this underlying",
	RejectMoneyness:    "spot may have moved; the chain has no ITM strikes matching the LEAPS criteria",
	RejectPricing:      "LEAPS quotes are missing bids; retry during market hours",
	RejectPremiumPct:   "raise max_premium_pct; deep ITM LEAPS on this underlying cost more than the cap",
	RejectExtrinsicPct: "raise max_extrinsic_pct; LEAPS time value exceeds the configured share of price",
}

var shortRecommendations = map[RejectionReason]string{
	RejectDTE:          "widen the short-call DTE window; no near-dated expirations matched",
	RejectDelta:        "widen the short-call delta band; available OTM strikes fall outside it",
	RejectOpenInterest: "reduce min_open_interest for short calls",
	RejectVolume:       "reduce min_volume for short calls",
	RejectSpread:       "allow a wider short-call bid-ask spread",
	RejectMoneyness:    "no OTM strikes above spot passed; the chain may be sparse above the money",
	RejectPricing:      "short-call quotes are missing bids; retry during market hours",
}

var pairRecommendations = map[PairRejection]string{
	PairStrikeOrder:     "LEAPS strikes sit above the short strikes; deepen the LEAPS pool or raise short deltas",
	PairDTEOrder:        "candidate expirations overlap; widen the gap between LEAPS and short DTE windows",
	PairShortNotOTM:     "short strikes are at or below spot; tighten the short-call moneyness requirement",
	PairMissingPricing:  "candidates are missing executable quotes; retry during market hours",
	PairNetDebit:        "short premium exceeds LEAPS cost; quotes look crossed, refresh the chain",
	PairMaxProfit:       "strike width cannot cover the net debit; look for wider strike spacing or cheaper LEAPS",
	PairRiskReward:      "no pairing clears the minimum risk/reward gate; lower min_risk_reward or seek cheaper LEAPS",
	PairPremiumCoverage: "short premium does not cover enough LEAPS time value; lower min_premium_coverage_ratio",
}

// BuildFeasibilityReport re-runs filtering and pairing over the chain and
// aggregates the outcome into an explanation. Tolerates an empty chain.
func BuildFeasibilityReport(chain []models.OptionContract, quote models.StockQuote, leapsCrit LEAPSCriteria, shortCrit ShortCallCriteria, pairCfg PairConfig, asOf time.Time) *FeasibilityReport {
	report := &FeasibilityReport{
		Symbol:    quote.Symbol,
		SpotPrice: quote.Price().String(),
		CheckedAt: asOf,
	}

	report.ChainStats = buildChainStatistics(chain)

	leapsPool, leapsRej := FilterLEAPS(chain, leapsCrit, quote)
	shortPool, shortRej := FilterShortCalls(chain, shortCrit, quote)
	report.LEAPSCandidates = len(leapsPool)
	report.ShortCandidates = len(shortPool)
	report.LEAPSRejections = leapsRej
	report.ShortRejections = shortRej

	report.PairRejections = make(PairRejectionCounts)
	spot := quote.Price()
	for i := range leapsPool {
		leaps := &leapsPool[i]
		var leapsExtrinsic decimal.NullDecimal
		if ext, ok := leaps.ExtrinsicValue(spot); ok {
			leapsExtrinsic = decimal.NewNullDecimal(ext)
		}
		for j := range shortPool {
			// Same ValidatePair as the builder: one logic path, no drift.
			_, reason, ok := ValidatePair(leaps, &shortPool[j], quote, leapsExtrinsic, pairCfg)
			if !ok {
				report.PairRejections.Add(reason)
				continue
			}
			report.ValidCombinations++
		}
	}

	report.IsPMCCFeasible = report.ValidCombinations > 0
	report.Recommendations = buildRecommendations(report)
	return report
}

// buildChainStatistics computes distribution context over the raw chain.
// Spread and IV statistics are descriptive only, so float64 via the stats
// library is fine here; no gating decisions are made from them.
func buildChainStatistics(chain []models.OptionContract) ChainStatistics {
	cs := ChainStatistics{TotalContracts: len(chain)}

	strikes := make(map[string]struct{})
	expirations := make(map[string]struct{})
	var spreads, ivs []float64

	for i := range chain {
		c := &chain[i]
		strikes[c.Strike.String()] = struct{}{}
		expirations[c.Expiration.Format("2006-01-02")] = struct{}{}
		if c.Side == models.SideCall {
			cs.CallContracts++
		}
		if spread, ok := c.SpreadPct(); ok {
			spreads = append(spreads, spread.InexactFloat64())
		}
		if c.Greeks != nil && c.Greeks.MidIV.Sign() > 0 {
			ivs = append(ivs, c.Greeks.MidIV.InexactFloat64())
		}
	}

	cs.UniqueStrikes = len(strikes)
	cs.UniqueExpirations = len(expirations)

	if len(spreads) > 0 {
		cs.MeanSpreadPct, _ = stats.Mean(spreads)
		cs.MedianSpreadPct, _ = stats.Median(spreads)
		cs.P90SpreadPct, _ = stats.Percentile(spreads, 90)
	}
	if len(ivs) > 0 {
		cs.MeanIV, _ = stats.Mean(ivs)
		cs.MedianIV, _ = stats.Median(ivs)
	}

	return cs
}

// failureCategory pairs a recommendation with the rejection volume that
// triggered it, for ranking.
type failureCategory struct {
	count int
	text  string
}

// buildRecommendations selects recommendations from the rule tables, one per
// failure category, ranked by how many contracts or pairings the category
// rejected. A feasible chain yields no recommendations.
func buildRecommendations(r *FeasibilityReport) []string {
	if r.IsPMCCFeasible {
		return nil
	}

	var categories []failureCategory

	if r.ChainStats.TotalContracts == 0 {
		return []string{"the option chain is empty; verify the symbol has listed options and the provider returned data"}
	}

	if r.LEAPSCandidates == 0 {
		if dominant := r.LEAPSRejections.Dominant(); dominant != "" {
			if text, ok := leapsRecommendations[dominant]; ok {
				categories = append(categories, failureCategory{r.LEAPSRejections.Total(), text})
			}
		}
	}
	if r.ShortCandidates == 0 {
		if dominant := r.ShortRejections.Dominant(); dominant != "" {
			if text, ok := shortRecommendations[dominant]; ok {
				categories = append(categories, failureCategory{r.ShortRejections.Total(), text})
			}
		}
	}
	if r.LEAPSCandidates > 0 && r.ShortCandidates > 0 {
		dominant := dominantPairRejection(r.PairRejections)
		if text, ok := pairRecommendations[dominant]; ok {
			categories = append(categories, failureCategory{r.PairRejections.Total(), text})
		}
	}

	if len(categories) == 0 {
		return []string{fmt.Sprintf("no PMCC combinations found for %s; review criteria against the chain statistics", r.Symbol)}
	}

	sort.SliceStable(categories, func(i, j int) bool {
		return categories[i].count > categories[j].count
	})

	recommendations := make([]string, 0, len(categories))
	for _, c := range categories {
		recommendations = append(recommendations, c.text)
	}
	return recommendations
}

func dominantPairRejection(counts PairRejectionCounts) PairRejection {
	var best PairRejection
	bestN := 0
	for reason, n := range counts {
		if n > bestN || (n == bestN && n > 0 && reason < best) {
			best = reason
			bestN = n
		}
	}
	return best
}
