// Package scan implements the PMCC opportunity pipeline: candidate filtering,
// pair validation, composite scoring, and feasibility diagnostics.
package scan

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/eddiefleurent/pmcc_scout/internal/models"
)

// Candidate pool caps bound the cartesian product in the combination step.
const (
	maxLEAPSCandidates = 10
	maxShortCandidates = 20
)

// DefaultMinRiskReward is the minimum max_profit/net_debit ratio a pairing
// must clear. Empirically chosen; a policy knob, not a law.
var DefaultMinRiskReward = decimal.RequireFromString("0.33")

// LEAPSCriteria gates the long-dated deep-ITM call pool.
// All thresholds are inclusive unless noted. Zero-valued optional gates
// (open interest, volume, spread, extrinsic) are disabled.
type LEAPSCriteria struct {
	MinDTE int
	MaxDTE int

	MinDelta decimal.Decimal
	MaxDelta decimal.Decimal

	MaxBidAskSpreadPct decimal.Decimal // fraction of mid, e.g. 0.10 for 10%
	MinOpenInterest    int64
	MinVolume          int64

	Moneyness models.Moneyness // required classification, normally ITM

	MaxPremiumPct   decimal.Decimal // ask as fraction of spot
	MaxExtrinsicPct decimal.Decimal // extrinsic as fraction of mid; 0 disables
}

// ShortCallCriteria gates the short-dated OTM call pool.
type ShortCallCriteria struct {
	MinDTE int
	MaxDTE int

	MinDelta decimal.Decimal
	MaxDelta decimal.Decimal

	MaxBidAskSpreadPct decimal.Decimal
	MinOpenInterest    int64
	MinVolume          int64

	Moneyness models.Moneyness // normally OTM

	// MinPremiumCoverageRatio requires short.bid / leaps_extrinsic to reach
	// this ratio during pairing; 0 disables the gate.
	MinPremiumCoverageRatio decimal.Decimal
}

// Validate rejects caller misuse before any scanning begins.
func (c *LEAPSCriteria) Validate() error {
	if c.MinDTE < 0 || c.MaxDTE < 0 {
		return fmt.Errorf("leaps criteria: DTE bounds must be non-negative")
	}
	if c.MinDTE > c.MaxDTE {
		return fmt.Errorf("leaps criteria: min_dte (%d) must be <= max_dte (%d)", c.MinDTE, c.MaxDTE)
	}
	if c.MinDelta.Sign() < 0 || c.MaxDelta.Sign() < 0 {
		return fmt.Errorf("leaps criteria: delta bounds must be non-negative")
	}
	if c.MinDelta.Cmp(c.MaxDelta) > 0 {
		return fmt.Errorf("leaps criteria: min_delta (%s) must be <= max_delta (%s)", c.MinDelta, c.MaxDelta)
	}
	if c.MaxBidAskSpreadPct.Sign() < 0 {
		return fmt.Errorf("leaps criteria: max_bid_ask_spread_pct must be non-negative")
	}
	if c.MinOpenInterest < 0 || c.MinVolume < 0 {
		return fmt.Errorf("leaps criteria: liquidity thresholds must be non-negative")
	}
	if c.MaxPremiumPct.Sign() < 0 {
		return fmt.Errorf("leaps criteria: max_premium_pct must be non-negative")
	}
	if c.MaxExtrinsicPct.Sign() < 0 {
		return fmt.Errorf("leaps criteria: max_extrinsic_pct must be non-negative")
	}
	return nil
}

// Validate rejects caller misuse before any scanning begins.
func (c *ShortCallCriteria) Validate() error {
	if c.MinDTE < 0 || c.MaxDTE < 0 {
		return fmt.Errorf("short criteria: DTE bounds must be non-negative")
	}
	if c.MinDTE > c.MaxDTE {
		return fmt.Errorf("short criteria: min_dte (%d) must be <= max_dte (%d)", c.MinDTE, c.MaxDTE)
	}
	if c.MinDelta.Sign() < 0 || c.MaxDelta.Sign() < 0 {
		return fmt.Errorf("short criteria: delta bounds must be non-negative")
	}
	if c.MinDelta.Cmp(c.MaxDelta) > 0 {
		return fmt.Errorf("short criteria: min_delta (%s) must be <= max_delta (%s)", c.MinDelta, c.MaxDelta)
	}
	if c.MaxBidAskSpreadPct.Sign() < 0 {
		return fmt.Errorf("short criteria: max_bid_ask_spread_pct must be non-negative")
	}
	if c.MinOpenInterest < 0 || c.MinVolume < 0 {
		return fmt.Errorf("short criteria: liquidity thresholds must be non-negative")
	}
	if c.MinPremiumCoverageRatio.Sign() < 0 {
		return fmt.Errorf("short criteria: min_premium_coverage_ratio must be non-negative")
	}
	return nil
}

// DefaultLEAPSCriteria returns the standard deep-ITM LEAPS gate set.
func DefaultLEAPSCriteria() LEAPSCriteria {
	return LEAPSCriteria{
		MinDTE:             270,
		MaxDTE:             730,
		MinDelta:           decimal.RequireFromString("0.70"),
		MaxDelta:           decimal.RequireFromString("0.95"),
		MaxBidAskSpreadPct: decimal.RequireFromString("0.10"),
		MinOpenInterest:    10,
		MinVolume:          0,
		Moneyness:          models.MoneynessITM,
		MaxPremiumPct:      decimal.RequireFromString("0.35"),
		MaxExtrinsicPct:    decimal.RequireFromString("0.15"),
	}
}

// DefaultShortCallCriteria returns the standard short-call gate set.
func DefaultShortCallCriteria() ShortCallCriteria {
	return ShortCallCriteria{
		MinDTE:                  21,
		MaxDTE:                  45,
		MinDelta:                decimal.RequireFromString("0.15"),
		MaxDelta:                decimal.RequireFromString("0.40"),
		MaxBidAskSpreadPct:      decimal.RequireFromString("0.15"),
		MinOpenInterest:         10,
		MinVolume:               0,
		Moneyness:               models.MoneynessOTM,
		MinPremiumCoverageRatio: decimal.Zero,
	}
}
