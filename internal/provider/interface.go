// Package provider defines the market data boundary for the scanner and its
// implementations: a Tradier-backed client, a circuit-breaker decorator, a
// retry decorator, and a deterministic mock for tests and paper scans.
package provider

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/sony/gobreaker"

	"github.com/eddiefleurent/pmcc_scout/internal/models"
)

// DataProvider is the single explicit interface the engine depends on.
// Implementations own quote retrieval and return sanitized contracts; the
// engine never sees provider-specific types.
type DataProvider interface {
	// GetStockQuote returns the current quote for the underlying.
	GetStockQuote(ctx context.Context, symbol string) (*models.StockQuote, error)
	// GetOptionsChain returns every listed contract for the symbol across
	// all expirations, sanitized (mid/DTE/moneyness derived).
	GetOptionsChain(ctx context.Context, symbol string) ([]models.OptionContract, error)
	// GetExpirations returns available expiration dates in YYYY-MM-DD form.
	GetExpirations(ctx context.Context, symbol string) ([]string, error)
}

// CircuitBreakerProvider wraps a DataProvider with circuit breaker
// functionality so a flapping upstream cannot stall every scan cycle.
type CircuitBreakerProvider struct {
	provider DataProvider
	breaker  *gobreaker.CircuitBreaker
}

// Ensure CircuitBreakerProvider implements DataProvider at compile time.
var _ DataProvider = (*CircuitBreakerProvider)(nil)

// execBreaker is a generic helper for circuit breaker wrapper methods
func execBreaker[T any](
	breaker *gobreaker.CircuitBreaker,
	provider DataProvider,
	fn func(DataProvider) (T, error),
) (T, error) {
	var zero T
	res, err := breaker.Execute(func() (interface{}, error) { return fn(provider) })
	if err != nil {
		return zero, err
	}
	if res == nil {
		return zero, nil
	}
	v, ok := res.(T)
	if !ok {
		return zero, errors.New("circuit breaker: type assertion failed")
	}
	return v, nil
}

// CircuitBreakerSettings configures circuit breaker behavior
type CircuitBreakerSettings struct {
	MaxRequests  uint32        // Max requests when half-open
	Interval     time.Duration // Reset counts interval
	Timeout      time.Duration // Open circuit duration
	MinRequests  uint32        // Min requests before tripping
	FailureRatio float64       // Failure ratio threshold
}

// NewCircuitBreakerProvider creates a CircuitBreakerProvider with sensible defaults
func NewCircuitBreakerProvider(provider DataProvider) *CircuitBreakerProvider {
	return NewCircuitBreakerProviderWithSettings(provider, CircuitBreakerSettings{
		MaxRequests:  3,                // Allow 3 requests when half-open
		Interval:     60 * time.Second, // Reset counts every minute
		Timeout:      30 * time.Second, // Open circuit for 30 seconds
		MinRequests:  5,                // Minimum requests before tripping
		FailureRatio: 0.6,              // Trip if 60% failure rate
	})
}

// NewCircuitBreakerProviderWithSettings creates a CircuitBreakerProvider with custom settings
func NewCircuitBreakerProviderWithSettings(provider DataProvider, settings CircuitBreakerSettings) *CircuitBreakerProvider {
	gbSettings := gobreaker.Settings{
		Name:        "DataProviderCircuitBreaker",
		MaxRequests: settings.MaxRequests,
		Interval:    settings.Interval,
		Timeout:     settings.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests == 0 || counts.Requests < settings.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= settings.FailureRatio
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Printf("Circuit breaker %s state changed from %s to %s", name, from, to)
		},
	}

	return &CircuitBreakerProvider{
		provider: provider,
		breaker:  gobreaker.NewCircuitBreaker(gbSettings),
	}
}

// GetStockQuote wraps the underlying provider call with circuit breaker
func (c *CircuitBreakerProvider) GetStockQuote(ctx context.Context, symbol string) (*models.StockQuote, error) {
	return execBreaker(c.breaker, c.provider, func(p DataProvider) (*models.StockQuote, error) {
		return p.GetStockQuote(ctx, symbol)
	})
}

// GetOptionsChain wraps the underlying provider call with circuit breaker
func (c *CircuitBreakerProvider) GetOptionsChain(ctx context.Context, symbol string) ([]models.OptionContract, error) {
	return execBreaker(c.breaker, c.provider, func(p DataProvider) ([]models.OptionContract, error) {
		return p.GetOptionsChain(ctx, symbol)
	})
}

// GetExpirations wraps the underlying provider call with circuit breaker
func (c *CircuitBreakerProvider) GetExpirations(ctx context.Context, symbol string) ([]string, error) {
	return execBreaker(c.breaker, c.provider, func(p DataProvider) ([]string, error) {
		return p.GetExpirations(ctx, symbol)
	})
}
