package provider

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eddiefleurent/pmcc_scout/internal/models"
)

func quietLogrus() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newTestTradier(t *testing.T, handler http.Handler) *TradierProvider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewTradierProvider("test-key", false, quietLogrus()).WithBaseURL(server.URL)
}

func TestGetStockQuote(t *testing.T) {
	provider := newTestTradier(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/markets/quotes", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "AAPL", r.URL.Query().Get("symbols"))
		fmt.Fprint(w, `{"quotes":{"quote":{"symbol":"AAPL","bid":172.5,"ask":172.7,"last":172.55}}}`)
	}))

	quote, err := provider.GetStockQuote(context.Background(), "AAPL")

	require.NoError(t, err)
	assert.Equal(t, "AAPL", quote.Symbol)
	assert.True(t, quote.Last.Equal(decimal.RequireFromString("172.55")))
	require.True(t, quote.Bid.Valid)
	assert.True(t, quote.Bid.Decimal.Equal(decimal.RequireFromString("172.5")))
}

func TestGetStockQuoteArrayResponse(t *testing.T) {
	provider := newTestTradier(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"quotes":{"quote":[{"symbol":"AAPL","last":172.55},{"symbol":"AAPL2","last":1}]}}`)
	}))

	quote, err := provider.GetStockQuote(context.Background(), "AAPL")

	require.NoError(t, err)
	assert.Equal(t, "AAPL", quote.Symbol)
	assert.False(t, quote.Bid.Valid, "zero bid stays null")
}

func TestGetStockQuoteNotFound(t *testing.T) {
	provider := newTestTradier(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"quotes":{"quote":null}}`)
	}))

	_, err := provider.GetStockQuote(context.Background(), "NOPE")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no quote found")
}

func TestMakeRequestAPIError(t *testing.T) {
	provider := newTestTradier(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"fault":"invalid access token"}`)
	}))

	_, err := provider.GetStockQuote(context.Background(), "AAPL")

	require.Error(t, err)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Contains(t, apiErr.Body, "invalid access token")
}

func TestGetExpirations(t *testing.T) {
	provider := newTestTradier(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/markets/options/expirations", r.URL.Path)
		fmt.Fprint(w, `{"expirations":{"date":["2026-04-17","2027-01-15"]}}`)
	}))

	dates, err := provider.GetExpirations(context.Background(), "AAPL")

	require.NoError(t, err)
	assert.Equal(t, []string{"2026-04-17", "2027-01-15"}, dates)
}

func TestGetOptionsChain(t *testing.T) {
	provider := newTestTradier(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/markets/quotes":
			fmt.Fprint(w, `{"quotes":{"quote":{"symbol":"AAPL","last":100}}}`)
		case "/markets/options/expirations":
			fmt.Fprint(w, `{"expirations":{"date":["2027-01-15"]}}`)
		case "/markets/options/chains":
			assert.Equal(t, "true", r.URL.Query().Get("greeks"))
			fmt.Fprint(w, `{"options":{"option":[
				{"symbol":"AAPL270115C00080000","option_type":"call","expiration_date":"2027-01-15",
				 "underlying":"AAPL","strike":80,"bid":21.8,"ask":22.2,"volume":40,"open_interest":250,
				 "greeks":{"delta":0.88,"gamma":0.002,"theta":-0.01,"vega":0.45,"mid_iv":0.24}},
				{"symbol":"AAPL270115C00000000","option_type":"call","expiration_date":"2027-01-15",
				 "underlying":"AAPL","strike":0,"bid":1,"ask":1.1,"volume":1,"open_interest":1}
			]}}`)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))

	chain, err := provider.GetOptionsChain(context.Background(), "AAPL")

	require.NoError(t, err)
	// The zero-strike contract fails sanitization and is skipped, not fatal.
	require.Len(t, chain, 1)

	c := chain[0]
	assert.Equal(t, models.SideCall, c.Side)
	assert.True(t, c.Strike.Equal(decimal.NewFromInt(80)))
	assert.Equal(t, models.MoneynessITM, c.Moneyness)
	assert.GreaterOrEqual(t, c.DTE, 0)
	require.True(t, c.Mid.Valid)
	assert.True(t, c.Mid.Decimal.Equal(decimal.NewFromInt(22)))
	require.NotNil(t, c.Greeks)
	assert.True(t, c.Greeks.Delta.Equal(decimal.RequireFromString("0.88")))
}

func TestGetOptionsChainSkipsBadExpiration(t *testing.T) {
	provider := newTestTradier(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/markets/quotes":
			fmt.Fprint(w, `{"quotes":{"quote":{"symbol":"AAPL","last":100}}}`)
		case "/markets/options/expirations":
			fmt.Fprint(w, `{"expirations":{"date":["2026-04-17","2027-01-15"]}}`)
		case "/markets/options/chains":
			if r.URL.Query().Get("expiration") == "2026-04-17" {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			fmt.Fprint(w, `{"options":{"option":{"symbol":"AAPL270115C00080000","option_type":"call",
				"expiration_date":"2027-01-15","underlying":"AAPL","strike":80,"bid":21.8,"ask":22.2,
				"volume":40,"open_interest":250}}}`)
		}
	}))

	chain, err := provider.GetOptionsChain(context.Background(), "AAPL")

	require.NoError(t, err, "one failing expiration must not sink the fetch")
	assert.Len(t, chain, 1)
}

func TestSingleOrArray(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  int
	}{
		{"single object", `{"symbol":"A","last":1}`, 1},
		{"array", `[{"symbol":"A"},{"symbol":"B"}]`, 2},
		{"null", `null`, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var s singleOrArray[quoteItem]
			require.NoError(t, s.UnmarshalJSON([]byte(tt.input)))
			assert.Len(t, []quoteItem(s), tt.want)
		})
	}
}
