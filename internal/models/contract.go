// Package models defines the option chain, opportunity, and risk report types
// shared across the scanner.
package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/eddiefleurent/pmcc_scout/internal/util"
)

// OptionSide represents the type of option contract.
type OptionSide string

const (
	// SideCall represents a call option contract
	SideCall OptionSide = "call"
	// SidePut represents a put option contract
	SidePut OptionSide = "put"
)

// Valid returns true if the OptionSide is one of the defined constants
func (s OptionSide) Valid() bool {
	return s == SideCall || s == SidePut
}

// Moneyness classifies a contract's strike relative to the spot price.
type Moneyness string

const (
	// MoneynessITM marks in-the-money contracts
	MoneynessITM Moneyness = "ITM"
	// MoneynessATM marks at-the-money contracts (within the ATM band of spot)
	MoneynessATM Moneyness = "ATM"
	// MoneynessOTM marks out-of-the-money contracts
	MoneynessOTM Moneyness = "OTM"
)

// atmBand is the half-width of the at-the-money classification band in dollars.
var atmBand = decimal.RequireFromString("0.50")

// Greeks contains option sensitivity data supplied by the data provider.
// The engine consumes these values; it never derives them.
type Greeks struct {
	Delta decimal.Decimal `json:"delta"`
	Gamma decimal.Decimal `json:"gamma"`
	Theta decimal.Decimal `json:"theta"`
	Vega  decimal.Decimal `json:"vega"`
	MidIV decimal.Decimal `json:"mid_iv"`
}

// OptionContract is a single row of an option chain. It is immutable once
// sanitized at the provider boundary; the engine treats it as read-only.
//
// Optional quote fields use decimal.NullDecimal so absence is explicit rather
// than encoded as zero. Sanitize is the single place that fills derived fields
// (mid, DTE, moneyness) so downstream code never repeats nil-handling.
type OptionContract struct {
	Symbol     string          `json:"symbol"`
	Underlying string          `json:"underlying"`
	Side       OptionSide      `json:"side"`
	Expiration time.Time       `json:"expiration"`
	Strike     decimal.Decimal `json:"strike"`

	Bid  decimal.NullDecimal `json:"bid"`
	Ask  decimal.NullDecimal `json:"ask"`
	Mid  decimal.NullDecimal `json:"mid"`
	Last decimal.NullDecimal `json:"last"`

	Volume       int64 `json:"volume"`
	OpenInterest int64 `json:"open_interest"`

	Greeks *Greeks `json:"greeks,omitempty"`

	// DTE is derived at sanitize time; zero means "not yet derived" for
	// contracts that skipped sanitization.
	DTE       int       `json:"dte"`
	Moneyness Moneyness `json:"moneyness,omitempty"`
}

// StockQuote is a read-only snapshot of the underlying's price.
type StockQuote struct {
	Symbol string              `json:"symbol"`
	Last   decimal.Decimal     `json:"last"`
	Bid    decimal.NullDecimal `json:"bid"`
	Ask    decimal.NullDecimal `json:"ask"`
}

// Price returns the reference price for moneyness and gating decisions:
// the last trade, falling back to the bid/ask midpoint when last is missing.
func (q StockQuote) Price() decimal.Decimal {
	if q.Last.Sign() > 0 {
		return q.Last
	}
	if q.Bid.Valid && q.Ask.Valid {
		return q.Bid.Decimal.Add(q.Ask.Decimal).Div(decimal.NewFromInt(2))
	}
	return q.Last
}

// Sanitize validates structural fields and fills derived ones (mid, DTE,
// moneyness). It is called once at the provider boundary so scoring and
// filtering code can rely on derived fields being present.
func (c *OptionContract) Sanitize(asOf time.Time, spot decimal.Decimal) error {
	if !c.Side.Valid() {
		return fmt.Errorf("contract %s: invalid side %q", c.Symbol, c.Side)
	}
	if c.Strike.Sign() <= 0 {
		return fmt.Errorf("contract %s: strike must be positive, got %s", c.Symbol, c.Strike)
	}
	if c.Expiration.IsZero() {
		return fmt.Errorf("contract %s: expiration is unset", c.Symbol)
	}

	if c.DTE == 0 {
		c.DTE = daysToExpiration(asOf, c.Expiration)
	}

	if !c.Mid.Valid && c.Bid.Valid && c.Ask.Valid {
		mid := c.Bid.Decimal.Add(c.Ask.Decimal).Div(decimal.NewFromInt(2))
		c.Mid = decimal.NewNullDecimal(mid)
	}

	if c.Moneyness == "" {
		c.Moneyness = ClassifyMoneyness(c.Side, c.Strike, spot)
	}

	return nil
}

// ClassifyMoneyness derives ITM/ATM/OTM from strike vs spot with the
// standard $0.50 ATM band.
func ClassifyMoneyness(side OptionSide, strike, spot decimal.Decimal) Moneyness {
	diff := spot.Sub(strike).Abs()
	if diff.Cmp(atmBand) <= 0 {
		return MoneynessATM
	}
	itm := spot.Cmp(strike) > 0
	if side == SidePut {
		itm = spot.Cmp(strike) < 0
	}
	if itm {
		return MoneynessITM
	}
	return MoneynessOTM
}

// HasValidPricing reports whether both sides of the quote are present with a
// positive bid. Contracts without valid pricing are filter rejections, never
// errors.
func (c *OptionContract) HasValidPricing() bool {
	return c.Bid.Valid && c.Ask.Valid && c.Bid.Decimal.Sign() > 0
}

// SpreadPct returns the bid-ask spread as a percentage of mid price.
// ok is false when mid is missing or zero.
func (c *OptionContract) SpreadPct() (decimal.Decimal, bool) {
	if !c.Bid.Valid || !c.Ask.Valid || !c.Mid.Valid {
		return decimal.Zero, false
	}
	return util.PctOf(c.Ask.Decimal.Sub(c.Bid.Decimal), c.Mid.Decimal)
}

// IntrinsicValue returns max(0, spot - strike) for calls and
// max(0, strike - spot) for puts.
func (c *OptionContract) IntrinsicValue(spot decimal.Decimal) decimal.Decimal {
	if c.Side == SidePut {
		return util.PositiveOrZero(c.Strike.Sub(spot))
	}
	return util.PositiveOrZero(spot.Sub(c.Strike))
}

// ExtrinsicValue returns mid - intrinsic, or ok=false when mid is missing.
// The result can be negative for stale quotes; callers decide how to treat that.
func (c *OptionContract) ExtrinsicValue(spot decimal.Decimal) (decimal.Decimal, bool) {
	if !c.Mid.Valid {
		return decimal.Zero, false
	}
	return c.Mid.Decimal.Sub(c.IntrinsicValue(spot)), true
}

// Delta returns the contract delta, or ok=false when greeks are absent.
func (c *OptionContract) Delta() (decimal.Decimal, bool) {
	if c.Greeks == nil {
		return decimal.Zero, false
	}
	return c.Greeks.Delta, true
}

func daysToExpiration(asOf, expiration time.Time) int {
	from := asOf.UTC().Truncate(24 * time.Hour)
	to := expiration.UTC().Truncate(24 * time.Hour)
	days := int(to.Sub(from).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}
