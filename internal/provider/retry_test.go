package provider

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietStdLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func fastRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:     2,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
	}
}

func TestRetryProviderRecoversFromTransientErrors(t *testing.T) {
	stub := &stubProvider{failNext: 2, err: errors.New("503 service unavailable")}
	retry := NewRetryProvider(stub, quietStdLogger(), fastRetryConfig())

	quote, err := retry.GetStockQuote(context.Background(), "XYZ")

	require.NoError(t, err)
	assert.Equal(t, "XYZ", quote.Symbol)
	assert.Equal(t, 3, stub.calls)
}

func TestRetryProviderStopsOnPermanentError(t *testing.T) {
	stub := &stubProvider{failNext: 5, err: errors.New("401 unauthorized")}
	retry := NewRetryProvider(stub, quietStdLogger(), fastRetryConfig())

	_, err := retry.GetStockQuote(context.Background(), "XYZ")

	require.Error(t, err)
	assert.Equal(t, 1, stub.calls, "permanent errors must not be retried")
}

func TestRetryProviderExhaustsRetries(t *testing.T) {
	stub := &stubProvider{failNext: 10, err: errors.New("connection reset by peer")}
	retry := NewRetryProvider(stub, quietStdLogger(), fastRetryConfig())

	_, err := retry.GetExpirations(context.Background(), "XYZ")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 3 attempts")
	assert.Equal(t, 3, stub.calls)
}

func TestRetryProviderHonorsContextCancellation(t *testing.T) {
	stub := &stubProvider{failNext: 10, err: errors.New("timeout")}
	retry := NewRetryProvider(stub, quietStdLogger(), RetryConfig{
		MaxRetries:     5,
		InitialBackoff: time.Hour,
		MaxBackoff:     time.Hour,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := retry.GetOptionsChain(ctx, "XYZ")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "canceled")
	assert.Equal(t, 1, stub.calls, "cancellation during backoff must stop retrying")
}

func TestIsTransientError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"rate limit", errors.New("429 too many requests"), true},
		{"gateway", errors.New("502 bad gateway"), true},
		{"timeout", errors.New("request timeout"), true},
		{"dns", errors.New("dns lookup failed"), true},
		{"auth", errors.New("401 unauthorized"), false},
		{"validation", errors.New("invalid symbol"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isTransientError(tt.err))
		})
	}
}
