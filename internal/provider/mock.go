package provider

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/eddiefleurent/pmcc_scout/internal/models"
)

// MockProvider serves a deterministic synthetic chain for tests and paper
// scans. Identical inputs always yield identical chains, which the engine's
// determinism guarantee depends on in tests.
type MockProvider struct {
	spot  decimal.Decimal
	asOf  time.Time
	chain []models.OptionContract
}

// Ensure MockProvider implements DataProvider at compile time.
var _ DataProvider = (*MockProvider)(nil)

// NewMockProvider builds a provider around the given spot price. The chain
// contains deep-ITM long-dated calls and OTM short-dated calls shaped like a
// liquid large-cap underlying.
func NewMockProvider(spot decimal.Decimal, asOf time.Time) *MockProvider {
	m := &MockProvider{spot: spot, asOf: asOf}
	m.chain = m.buildChain()
	return m
}

// GetStockQuote returns the fixed synthetic quote.
func (m *MockProvider) GetStockQuote(_ context.Context, symbol string) (*models.StockQuote, error) {
	return &models.StockQuote{
		Symbol: symbol,
		Last:   m.spot,
	}, nil
}

// GetOptionsChain returns the synthetic chain with the requested underlying
// stamped on each contract.
func (m *MockProvider) GetOptionsChain(_ context.Context, symbol string) ([]models.OptionContract, error) {
	chain := make([]models.OptionContract, len(m.chain))
	copy(chain, m.chain)
	for i := range chain {
		chain[i].Underlying = symbol
	}
	return chain, nil
}

// GetExpirations returns the distinct expirations in the synthetic chain.
func (m *MockProvider) GetExpirations(_ context.Context, _ string) ([]string, error) {
	seen := make(map[string]struct{})
	var dates []string
	for i := range m.chain {
		date := m.chain[i].Expiration.Format("2006-01-02")
		if _, ok := seen[date]; ok {
			continue
		}
		seen[date] = struct{}{}
		dates = append(dates, date)
	}
	return dates, nil
}

func (m *MockProvider) buildChain() []models.OptionContract {
	var chain []models.OptionContract

	hundred := decimal.NewFromInt(100)
	leapsExp := m.asOf.AddDate(0, 0, 365)
	shortExp := m.asOf.AddDate(0, 0, 35)

	// LEAPS strikes from 60% to 90% of spot in 5% steps: deep to moderately ITM.
	for pct := int64(60); pct <= 90; pct += 5 {
		strike := m.spot.Mul(decimal.NewFromInt(pct)).Div(hundred).Round(0)
		intrinsic := m.spot.Sub(strike)
		// Time value shrinks as the strike goes deeper ITM.
		timeValue := m.spot.Mul(decimal.NewFromInt(100 - pct)).Div(decimal.NewFromInt(1200))
		mid := intrinsic.Add(timeValue)
		half := decimal.RequireFromString("0.25")
		delta := decimal.NewFromInt(100 - (pct-60)/2).Div(hundred) // 1.00 down to 0.85

		contract := models.OptionContract{
			Symbol:       mockOptionSymbol("MOCK", leapsExp, strike),
			Side:         models.SideCall,
			Expiration:   leapsExp,
			Strike:       strike,
			Bid:          decimal.NewNullDecimal(mid.Sub(half)),
			Ask:          decimal.NewNullDecimal(mid.Add(half)),
			Volume:       40,
			OpenInterest: 250,
			Greeks: &models.Greeks{
				Delta: delta,
				Gamma: decimal.RequireFromString("0.002"),
				Theta: decimal.RequireFromString("-0.01"),
				Vega:  decimal.RequireFromString("0.45"),
				MidIV: decimal.RequireFromString("0.24"),
			},
		}
		if err := contract.Sanitize(m.asOf, m.spot); err == nil {
			chain = append(chain, contract)
		}
	}

	// Short strikes from 102% to 120% of spot in 3% steps: OTM.
	for pct := int64(102); pct <= 120; pct += 3 {
		strike := m.spot.Mul(decimal.NewFromInt(pct)).Div(hundred).Round(0)
		// Premium decays with distance from spot.
		mid := m.spot.Mul(decimal.NewFromInt(125 - pct)).Div(decimal.NewFromInt(1000))
		half := decimal.RequireFromString("0.05")
		delta := decimal.NewFromInt(130 - pct).Div(hundred) // 0.28 down to 0.10

		contract := models.OptionContract{
			Symbol:       mockOptionSymbol("MOCK", shortExp, strike),
			Side:         models.SideCall,
			Expiration:   shortExp,
			Strike:       strike,
			Bid:          decimal.NewNullDecimal(mid.Sub(half)),
			Ask:          decimal.NewNullDecimal(mid.Add(half)),
			Volume:       120,
			OpenInterest: 800,
			Greeks: &models.Greeks{
				Delta: delta,
				Gamma: decimal.RequireFromString("0.015"),
				Theta: decimal.RequireFromString("-0.04"),
				Vega:  decimal.RequireFromString("0.12"),
				MidIV: decimal.RequireFromString("0.21"),
			},
		}
		if err := contract.Sanitize(m.asOf, m.spot); err == nil {
			chain = append(chain, contract)
		}
	}

	return chain
}

func mockOptionSymbol(root string, exp time.Time, strike decimal.Decimal) string {
	return root + exp.Format("060102") + "C" + strike.StringFixed(0)
}
