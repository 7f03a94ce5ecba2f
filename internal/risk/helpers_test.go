package risk

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

func timeNowFixed() time.Time {
	return time.Date(2026, 3, 2, 15, 0, 0, 0, time.UTC)
}

// testCall builds a sanitized call with tight quoting and healthy liquidity.
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

// testOpportunity is the canonical pairing used across the risk tests:
// LEAPS 100 / short 130 on a 110 underlying, a 20.00 debit.
func testOpportunity() models.Opportunity {
	leaps := testCall("100", "21.60", "22", 365, "0.85", "110")
	leaps.Greeks.Theta = d("-0.02")
	leaps.Greeks.Vega = d("0.45")
	short := testCall("130", "2", "2.10", 35, "0.20", "110")
	short.Greeks.Theta = d("-0.05")
	short.Greeks.Vega = d("0.12")

	return models.Opportunity{
		ID:              "opp-1",
		Symbol:          "XYZ",
		LEAPS:           leaps,
		Short:           short,
		Quote:           models.StockQuote{Symbol: "XYZ", Last: d("110")},
		NetDebit:        d("20"),
		MaxProfit:       d("10"),
		MaxLoss:         d("20"),
		Breakeven:       d("120"),
		ROIPotential:    d("50"),
		RiskRewardRatio: d("0.5"),
		AnalyzedAt:      timeNowFixed(),
	}
}
