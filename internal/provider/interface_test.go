package provider

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eddiefleurent/pmcc_scout/internal/models"
)

// stubProvider counts calls and fails on demand.
type stubProvider struct {
	calls    int
	failNext int
	err      error
}

var _ DataProvider = (*stubProvider)(nil)

func (s *stubProvider) fail() error {
	s.calls++
	if s.failNext > 0 {
		s.failNext--
		if s.err != nil {
			return s.err
		}
		return errors.New("upstream down")
	}
	return nil
}

func (s *stubProvider) GetStockQuote(context.Context, string) (*models.StockQuote, error) {
	if err := s.fail(); err != nil {
		return nil, err
	}
	return &models.StockQuote{Symbol: "XYZ", Last: decimal.NewFromInt(100)}, nil
}

func (s *stubProvider) GetOptionsChain(context.Context, string) ([]models.OptionContract, error) {
	if err := s.fail(); err != nil {
		return nil, err
	}
	return []models.OptionContract{}, nil
}

func (s *stubProvider) GetExpirations(context.Context, string) ([]string, error) {
	if err := s.fail(); err != nil {
		return nil, err
	}
	return []string{"2027-01-15"}, nil
}

func TestCircuitBreakerPassesThrough(t *testing.T) {
	stub := &stubProvider{}
	breaker := NewCircuitBreakerProvider(stub)

	quote, err := breaker.GetStockQuote(context.Background(), "XYZ")
	require.NoError(t, err)
	assert.Equal(t, "XYZ", quote.Symbol)

	dates, err := breaker.GetExpirations(context.Background(), "XYZ")
	require.NoError(t, err)
	assert.Equal(t, []string{"2027-01-15"}, dates)

	chain, err := breaker.GetOptionsChain(context.Background(), "XYZ")
	require.NoError(t, err)
	assert.NotNil(t, chain)
}

func TestCircuitBreakerOpensAfterRepeatedFailures(t *testing.T) {
	stub := &stubProvider{failNext: 100}
	breaker := NewCircuitBreakerProviderWithSettings(stub, CircuitBreakerSettings{
		MaxRequests:  1,
		Interval:     time.Minute,
		Timeout:      time.Minute,
		MinRequests:  3,
		FailureRatio: 0.6,
	})

	for i := 0; i < 3; i++ {
		_, err := breaker.GetStockQuote(context.Background(), "XYZ")
		require.Error(t, err)
	}
	callsBeforeOpen := stub.calls

	// The breaker is now open; calls fail fast without touching the upstream.
	_, err := breaker.GetStockQuote(context.Background(), "XYZ")
	require.Error(t, err)
	assert.Equal(t, callsBeforeOpen, stub.calls)
}
