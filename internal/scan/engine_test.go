package scan

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eddiefleurent/pmcc_scout/internal/models"
	"github.com/eddiefleurent/pmcc_scout/internal/provider"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newTestEngine(t *testing.T, p provider.DataProvider) *Engine {
	t.Helper()
	engine, err := NewEngine(p, DefaultConfig(), quietLogger())
	require.NoError(t, err)
	return engine.WithNow(timeNowFixed)
}

func TestNewEngineRejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LEAPS.MinDTE = 500
	cfg.LEAPS.MaxDTE = 100

	_, err := NewEngine(provider.NewMockProvider(d("100"), timeNowFixed()), cfg, quietLogger())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid scan config")
}

func TestEngineEvaluateSymbol(t *testing.T) {
	mock := provider.NewMockProvider(d("100"), timeNowFixed())
	engine := newTestEngine(t, mock)

	result, err := engine.EvaluateSymbol(context.Background(), "AAPL")

	require.NoError(t, err)
	assert.Equal(t, "AAPL", result.Symbol)
	require.NotEmpty(t, result.Opportunities)
	assert.LessOrEqual(t, len(result.Opportunities), 10)
	require.NotNil(t, result.Feasibility)
	assert.True(t, result.Feasibility.IsPMCCFeasible)

	for i, o := range result.Opportunities {
		assert.NotEmpty(t, o.ID)
		assert.True(t, o.NetDebit.Sign() > 0)
		assert.True(t, o.MaxProfit.Sign() > 0)
		assert.True(t, o.Short.Strike.Cmp(o.LEAPS.Strike) > 0)
		if i > 0 {
			assert.GreaterOrEqual(t, result.Opportunities[i-1].TotalScore, o.TotalScore,
				"opportunities must rank by total score descending")
		}
	}

	best := result.Best()
	require.NotNil(t, best)
	assert.Equal(t, result.Opportunities[0].ID, best.ID)
}

func TestEngineEvaluateDeterministic(t *testing.T) {
	mock := provider.NewMockProvider(d("100"), timeNowFixed())
	engine := newTestEngine(t, mock)

	first, err := engine.EvaluateSymbol(context.Background(), "AAPL")
	require.NoError(t, err)
	second, err := engine.EvaluateSymbol(context.Background(), "AAPL")
	require.NoError(t, err)

	require.Equal(t, len(first.Opportunities), len(second.Opportunities))
	for i := range first.Opportunities {
		a, b := first.Opportunities[i], second.Opportunities[i]
		assert.Equal(t, a.LEAPS.Symbol, b.LEAPS.Symbol)
		assert.Equal(t, a.Short.Symbol, b.Short.Symbol)
		assert.True(t, a.NetDebit.Equal(b.NetDebit))
		assert.Equal(t, a.TotalScore, b.TotalScore)
	}
}

func TestEngineMaxOpportunitiesCap(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxOpportunities = 2
	engine, err := NewEngine(provider.NewMockProvider(d("100"), timeNowFixed()), cfg, quietLogger())
	require.NoError(t, err)

	result, err := engine.EvaluateSymbol(context.Background(), "AAPL")

	require.NoError(t, err)
	assert.Len(t, result.Opportunities, 2)
	// The diagnostics still see every valid pairing, not just the kept ones.
	assert.Greater(t, result.Feasibility.ValidCombinations, 2)
}

func TestEngineEvaluateEmptyChain(t *testing.T) {
	engine := newTestEngine(t, &staticProvider{})

	result := engine.Evaluate(nil, models.StockQuote{Symbol: "THIN", Last: d("40")})

	assert.Empty(t, result.Opportunities)
	require.NotNil(t, result.Feasibility)
	assert.False(t, result.Feasibility.IsPMCCFeasible)
	assert.NotEmpty(t, result.Feasibility.Recommendations)
}

func TestEngineScanSymbols(t *testing.T) {
	mock := provider.NewMockProvider(d("100"), timeNowFixed())
	engine := newTestEngine(t, mock)

	results, err := engine.ScanSymbols(context.Background(), []string{"AAPL", "MSFT", "NVDA"}, 2)

	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "AAPL", results[0].Symbol)
	assert.Equal(t, "MSFT", results[1].Symbol)
	assert.Equal(t, "NVDA", results[2].Symbol)
}

func TestEngineScanSymbolsSkipsFailures(t *testing.T) {
	flaky := &flakyProvider{
		DataProvider: provider.NewMockProvider(d("100"), timeNowFixed()),
		failSymbol:   "MSFT",
	}
	engine := newTestEngine(t, flaky)

	results, err := engine.ScanSymbols(context.Background(), []string{"AAPL", "MSFT", "NVDA"}, 1)

	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "AAPL", results[0].Symbol)
	assert.Equal(t, "NVDA", results[1].Symbol)
}

func TestEngineScanSymbolsCanceledContext(t *testing.T) {
	engine := newTestEngine(t, provider.NewMockProvider(d("100"), timeNowFixed()))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := engine.ScanSymbols(ctx, []string{"AAPL", "MSFT"}, 1)

	assert.Error(t, err)
}

// flakyProvider fails every call for one symbol and delegates the rest.
type flakyProvider struct {
	provider.DataProvider
	failSymbol string
}

func (f *flakyProvider) GetStockQuote(ctx context.Context, symbol string) (*models.StockQuote, error) {
	if symbol == f.failSymbol {
		return nil, errors.New("quote feed unavailable")
	}
	return f.DataProvider.GetStockQuote(ctx, symbol)
}

// staticProvider returns nothing; used where the test drives Evaluate directly.
type staticProvider struct{}

var _ provider.DataProvider = (*staticProvider)(nil)

func (s *staticProvider) GetStockQuote(context.Context, string) (*models.StockQuote, error) {
	return &models.StockQuote{}, nil
}

func (s *staticProvider) GetOptionsChain(context.Context, string) ([]models.OptionContract, error) {
	return nil, nil
}

func (s *staticProvider) GetExpirations(context.Context, string) ([]string, error) {
	return nil, nil
}
