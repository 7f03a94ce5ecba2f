package scan

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/eddiefleurent/pmcc_scout/internal/models"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func nd(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.RequireFromString(s))
}

// timeNowFixed is the reference clock for tests that stamp records.
func timeNowFixed() time.Time {
	return time.Date(2026, 3, 2, 15, 0, 0, 0, time.UTC)
}

// testQuote is the reference underlying used across the scan tests.
func testQuote(last string) models.StockQuote {
	return models.StockQuote{Symbol: "XYZ", Last: d(last)}
}

// testCall builds a sanitized call with sensible liquidity defaults. The
// expiration is back-derived from dte so Sanitize and pair DTE checks agree.
func testCall(strike, bid, ask string, dte int, delta string, spot string) models.OptionContract {
	asOf := timeNowFixed()
	c := models.OptionContract{
		Symbol:       "XYZ-C-" + strike,
		Underlying:   "XYZ",
		Side:         models.SideCall,
		Expiration:   asOf.AddDate(0, 0, dte),
		Strike:       d(strike),
		Bid:          nd(bid),
		Ask:          nd(ask),
		Volume:       100,
		OpenInterest: 500,
		Greeks: &models.Greeks{
			Delta: d(delta),
			Gamma: d("0.01"),
			Theta: d("-0.02"),
			Vega:  d("0.30"),
			MidIV: d("0.25"),
		},
	}
	if err := c.Sanitize(asOf, d(spot)); err != nil {
		panic(err)
	}
	return c
}
