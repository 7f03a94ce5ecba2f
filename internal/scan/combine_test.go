package scan

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eddiefleurent/pmcc_scout/internal/models"
)

func TestValidatePairEconomics(t *testing.T) {
	quote := testQuote("110")
	leaps := testCall("100", "21.60", "22", 365, "0.85", "110")
	short := testCall("130", "2", "2.10", 30, "0.20", "110")

	econ, reason, ok := ValidatePair(&leaps, &short, quote, decimal.NullDecimal{}, PairConfig{})

	require.True(t, ok, "expected valid pair, got rejection %q", reason)
	assert.True(t, econ.NetDebit.Equal(d("20")), "net debit: got %s", econ.NetDebit)
	assert.True(t, econ.MaxProfit.Equal(d("10")), "max profit: got %s", econ.MaxProfit)
	assert.True(t, econ.Breakeven.Equal(d("120")), "breakeven: got %s", econ.Breakeven)
	assert.True(t, econ.RiskReward.Equal(d("0.5")), "risk reward: got %s", econ.RiskReward)
}

func TestValidatePairRejections(t *testing.T) {
	quote := testQuote("110")

	tests := []struct {
		name  string
		leaps models.OptionContract
		short models.OptionContract
		cfg   PairConfig
		want  PairRejection
	}{
		{
			name:  "short strike below leaps strike",
			leaps: testCall("100", "21.60", "22", 365, "0.85", "110"),
			short: testCall("90", "21", "21.20", 30, "0.80", "110"),
			want:  PairStrikeOrder,
		},
		{
			name:  "short expires with the leaps",
			leaps: testCall("100", "21.60", "22", 365, "0.85", "110"),
			short: testCall("130", "2", "2.10", 365, "0.20", "110"),
			want:  PairDTEOrder,
		},
		{
			name:  "short strike not above spot",
			leaps: testCall("95", "25.60", "26", 365, "0.88", "110"),
			short: testCall("105", "6", "6.20", 30, "0.55", "110"),
			want:  PairShortNotOTM,
		},
		{
			name:  "net debit not positive",
			leaps: testCall("100", "1.80", "2", 365, "0.85", "110"),
			short: testCall("130", "2", "2.10", 30, "0.20", "110"),
			want:  PairNetDebit,
		},
		{
			name:  "strike width cannot cover debit",
			leaps: testCall("100", "34.60", "35", 365, "0.85", "110"),
			short: testCall("130", "2", "2.10", 30, "0.20", "110"),
			want:  PairMaxProfit,
		},
		{
			name:  "risk reward below floor",
			leaps: testCall("100", "27.60", "28", 365, "0.85", "110"),
			short: testCall("130", "2", "2.10", 30, "0.20", "110"),
			want:  PairRiskReward,
		},
		{
			name:  "explicit floor overrides default",
			leaps: testCall("100", "21.60", "22", 365, "0.85", "110"),
			short: testCall("130", "2", "2.10", 30, "0.20", "110"),
			cfg:   PairConfig{MinRiskReward: d("0.60")},
			want:  PairRiskReward,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, reason, ok := ValidatePair(&tt.leaps, &tt.short, quote, decimal.NullDecimal{}, tt.cfg)
			assert.False(t, ok)
			assert.Equal(t, tt.want, reason)
		})
	}
}

func TestValidatePairMissingPricing(t *testing.T) {
	quote := testQuote("110")
	leaps := testCall("100", "21.60", "22", 365, "0.85", "110")
	leaps.Ask = decimal.NullDecimal{}
	short := testCall("130", "2", "2.10", 30, "0.20", "110")

	_, reason, ok := ValidatePair(&leaps, &short, quote, decimal.NullDecimal{}, PairConfig{})

	assert.False(t, ok)
	assert.Equal(t, PairMissingPricing, reason)
}

func TestValidatePairPremiumCoverage(t *testing.T) {
	quote := testQuote("110")
	leaps := testCall("100", "21.60", "22", 365, "0.85", "110")
	short := testCall("130", "2", "2.10", 30, "0.20", "110")
	cfg := PairConfig{MinPremiumCoverage: d("0.50")}

	// Extrinsic 11.80 against a 2.00 bid is only 17% coverage.
	ext := nd("11.80")
	_, reason, ok := ValidatePair(&leaps, &short, quote, ext, cfg)
	assert.False(t, ok)
	assert.Equal(t, PairPremiumCoverage, reason)

	// With a small enough time value the same bid clears the ratio.
	_, _, ok = ValidatePair(&leaps, &short, quote, nd("3"), cfg)
	assert.True(t, ok)

	// Unknown extrinsic cannot satisfy the gate.
	_, reason, ok = ValidatePair(&leaps, &short, quote, decimal.NullDecimal{}, cfg)
	assert.False(t, ok)
	assert.Equal(t, PairPremiumCoverage, reason)
}

func TestBuildOpportunitiesFields(t *testing.T) {
	quote := testQuote("110")
	leapsPool := []models.OptionContract{testCall("100", "21.60", "22", 365, "0.85", "110")}
	shortPool := []models.OptionContract{testCall("130", "2", "2.10", 30, "0.20", "110")}
	analyzedAt := time.Date(2026, 3, 2, 15, 0, 0, 0, time.UTC)

	opportunities, rejections := BuildOpportunities(leapsPool, shortPool, quote, PairConfig{}, analyzedAt)

	require.Len(t, opportunities, 1)
	assert.Equal(t, 0, rejections.Total())

	o := opportunities[0]
	assert.NotEmpty(t, o.ID)
	assert.Equal(t, "XYZ", o.Symbol)
	assert.True(t, o.MaxLoss.Equal(o.NetDebit), "max loss is the net debit")
	assert.True(t, o.ROIPotential.Equal(d("50")), "roi potential: got %s", o.ROIPotential)
	assert.True(t, o.RiskRewardRatio.Equal(d("0.5")))
	assert.Equal(t, analyzedAt, o.AnalyzedAt)
}

func TestBuildOpportunitiesDeterministicOrder(t *testing.T) {
	quote := testQuote("110")
	leapsPool := []models.OptionContract{
		testCall("95", "26.60", "27", 365, "0.90", "110"),
		testCall("100", "21.60", "22", 365, "0.85", "110"),
	}
	shortPool := []models.OptionContract{
		testCall("130", "2", "2.10", 30, "0.20", "110"),
		testCall("127", "2.40", "2.50", 30, "0.23", "110"),
	}
	analyzedAt := time.Date(2026, 3, 2, 15, 0, 0, 0, time.UTC)

	first, _ := BuildOpportunities(leapsPool, shortPool, quote, PairConfig{}, analyzedAt)
	second, _ := BuildOpportunities(leapsPool, shortPool, quote, PairConfig{}, analyzedAt)

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].LEAPS.Symbol, second[i].LEAPS.Symbol)
		assert.Equal(t, first[i].Short.Symbol, second[i].Short.Symbol)
		assert.True(t, first[i].NetDebit.Equal(second[i].NetDebit))
		assert.True(t, first[i].TotalScore == second[i].TotalScore)
	}
}
