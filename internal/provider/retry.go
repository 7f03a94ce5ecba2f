package provider

import (
	"context"
	"crypto/rand"
	"fmt"
	"log"
	"math/big"
	"strings"
	"time"

	"github.com/eddiefleurent/pmcc_scout/internal/models"
)

// RetryConfig controls the retry decorator's backoff behavior.
type RetryConfig struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// DefaultRetryConfig is tuned for market data endpoints: quick retries, short cap.
var DefaultRetryConfig = RetryConfig{
	MaxRetries:     3,
	InitialBackoff: 1 * time.Second,
	MaxBackoff:     15 * time.Second,
}

// RetryProvider wraps a DataProvider with bounded retries on transient
// failures. Permanent API errors (4xx other than 429) are returned
// immediately.
type RetryProvider struct {
	provider DataProvider
	logger   *log.Logger
	config   RetryConfig
}

// Ensure RetryProvider implements DataProvider at compile time.
var _ DataProvider = (*RetryProvider)(nil)

// NewRetryProvider wraps provider with the given (or default) retry config.
func NewRetryProvider(provider DataProvider, logger *log.Logger, config ...RetryConfig) *RetryProvider {
	cfg := DefaultRetryConfig
	if len(config) > 0 {
		cfg = config[0]
	}
	return &RetryProvider{
		provider: provider,
		logger:   logger,
		config:   cfg,
	}
}

// GetStockQuote retries the underlying quote call on transient errors.
func (r *RetryProvider) GetStockQuote(ctx context.Context, symbol string) (*models.StockQuote, error) {
	return retryCall(ctx, r, "quote", symbol, func() (*models.StockQuote, error) {
		return r.provider.GetStockQuote(ctx, symbol)
	})
}

// GetOptionsChain retries the underlying chain call on transient errors.
func (r *RetryProvider) GetOptionsChain(ctx context.Context, symbol string) ([]models.OptionContract, error) {
	return retryCall(ctx, r, "chain", symbol, func() ([]models.OptionContract, error) {
		return r.provider.GetOptionsChain(ctx, symbol)
	})
}

// GetExpirations retries the underlying expirations call on transient errors.
func (r *RetryProvider) GetExpirations(ctx context.Context, symbol string) ([]string, error) {
	return retryCall(ctx, r, "expirations", symbol, func() ([]string, error) {
		return r.provider.GetExpirations(ctx, symbol)
	})
}

func retryCall[T any](ctx context.Context, r *RetryProvider, op, symbol string, fn func() (T, error)) (T, error) {
	var zero T
	var lastErr error
	backoff := r.config.InitialBackoff

	for attempt := 0; attempt <= r.config.MaxRetries; attempt++ {
		if ctx.Err() != nil {
			return zero, fmt.Errorf("%s %s canceled: %w", op, symbol, ctx.Err())
		}

		result, err := fn()
		if err == nil {
			return result, nil
		}
		lastErr = err
		r.logger.Printf("%s %s attempt %d/%d failed: %v", op, symbol, attempt+1, r.config.MaxRetries+1, err)

		if !isTransientError(err) || attempt == r.config.MaxRetries {
			break
		}

		select {
		case <-time.After(backoff):
			backoff = r.nextBackoff(backoff)
		case <-ctx.Done():
			return zero, fmt.Errorf("%s %s canceled during backoff: %w", op, symbol, ctx.Err())
		}
	}

	return zero, fmt.Errorf("%s %s failed after %d attempts: %w", op, symbol, r.config.MaxRetries+1, lastErr)
}

func (r *RetryProvider) nextBackoff(currentBackoff time.Duration) time.Duration {
	backoff := time.Duration(float64(currentBackoff) * 1.5)
	if backoff > r.config.MaxBackoff {
		backoff = r.config.MaxBackoff
	}

	maxJitter := int64(backoff / 4)
	if maxJitter > 0 {
		jitterVal, err := rand.Int(rand.Reader, big.NewInt(maxJitter))
		if err != nil {
			log.Printf("Failed to generate jitter: %v", err)
		} else {
			backoff += time.Duration(jitterVal.Int64())
		}
	}

	return backoff
}

func isTransientError(err error) bool {
	if err == nil {
		return false
	}

	errStr := strings.ToLower(err.Error())

	transientPatterns := []string{
		"timeout",
		"connection refused",
		"connection reset",
		"temporary failure",
		"server error",
		"rate limit",
		"429", // HTTP 429 Too Many Requests
		"502", // HTTP 502 Bad Gateway
		"503", // HTTP 503 Service Unavailable
		"504", // HTTP 504 Gateway Timeout
		"network",
		"dns",
		"tcp",
	}

	for _, pattern := range transientPatterns {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}

	return false
}
