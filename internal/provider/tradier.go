package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/eddiefleurent/pmcc_scout/internal/models"
)

const (
	tradierProdURL    = "https://api.tradier.com/v1"
	tradierSandboxURL = "https://sandbox.tradier.com/v1"
	defaultTimeout    = 30 * time.Second
)

// APIError represents an API error with status code and response body
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error %d: %s", e.Status, e.Body)
}

// TradierProvider implements DataProvider against the Tradier market data API.
// Only the market data endpoints are used; account and trading endpoints are
// out of scope for the scanner.
type TradierProvider struct {
	client  *http.Client
	apiKey  string
	baseURL string
	logger  *logrus.Logger
}

// Ensure TradierProvider implements DataProvider at compile time.
var _ DataProvider = (*TradierProvider)(nil)

// NewTradierProvider creates a Tradier-backed market data provider.
func NewTradierProvider(apiKey string, sandbox bool, logger *logrus.Logger) *TradierProvider {
	baseURL := tradierProdURL
	if sandbox {
		baseURL = tradierSandboxURL
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &TradierProvider{
		client:  &http.Client{Timeout: defaultTimeout},
		apiKey:  apiKey,
		baseURL: baseURL,
		logger:  logger,
	}
}

// WithBaseURL overrides the API endpoint, used by tests against httptest servers.
func (t *TradierProvider) WithBaseURL(baseURL string) *TradierProvider {
	if baseURL != "" {
		t.baseURL = baseURL
	}
	return t
}

// WithTimeout overrides the HTTP client timeout.
func (t *TradierProvider) WithTimeout(timeout time.Duration) *TradierProvider {
	if timeout > 0 {
		t.client.Timeout = timeout
	}
	return t
}

// ============ API Response Structures ============

// Handle single-object vs array responses from Tradier
type singleOrArray[T any] []T

func (s *singleOrArray[T]) UnmarshalJSON(b []byte) error {
	if len(b) == 0 || string(b) == "null" || string(b) == `"null"` {
		return nil
	}
	if b[0] == '[' {
		return json.Unmarshal(b, (*[]T)(s))
	}
	var one T
	if err := json.Unmarshal(b, &one); err != nil {
		return err
	}
	*s = append(*s, one)
	return nil
}

type quotesResponse struct {
	Quotes struct {
		Quote singleOrArray[quoteItem] `json:"quote"`
	} `json:"quotes"`
}

type quoteItem struct {
	Symbol string  `json:"symbol"`
	Bid    float64 `json:"bid"`
	Ask    float64 `json:"ask"`
	Last   float64 `json:"last"`
}

type expirationsResponse struct {
	Expirations struct {
		Date []string `json:"date"`
	} `json:"expirations"`
}

type chainResponse struct {
	Options struct {
		Option singleOrArray[chainOption] `json:"option"`
	} `json:"options"`
}

type chainOption struct {
	Greeks         *chainGreeks `json:"greeks,omitempty"`
	Symbol         string       `json:"symbol"`
	OptionType     string       `json:"option_type"`
	ExpirationDate string       `json:"expiration_date"`
	Underlying     string       `json:"underlying"`
	Bid            *float64     `json:"bid"`
	Ask            *float64     `json:"ask"`
	Last           *float64     `json:"last"`
	Volume         int64        `json:"volume"`
	OpenInterest   int64        `json:"open_interest"`
	Strike         float64      `json:"strike"`
}

type chainGreeks struct {
	Delta float64 `json:"delta"`
	Gamma float64 `json:"gamma"`
	Theta float64 `json:"theta"`
	Vega  float64 `json:"vega"`
	MidIV float64 `json:"mid_iv"`
}

// ============ API Methods ============

// GetStockQuote retrieves the current market quote for a symbol.
func (t *TradierProvider) GetStockQuote(ctx context.Context, symbol string) (*models.StockQuote, error) {
	params := url.Values{}
	params.Set("symbols", symbol)
	params.Set("greeks", "false")
	endpoint := t.baseURL + "/markets/quotes?" + params.Encode()

	var response quotesResponse
	if err := t.makeRequest(ctx, endpoint, &response); err != nil {
		return nil, err
	}

	quotes := response.Quotes.Quote
	if len(quotes) == 0 {
		return nil, fmt.Errorf("no quote found for symbol: %s", symbol)
	}

	first := quotes[0]
	quote := &models.StockQuote{
		Symbol: first.Symbol,
		Last:   decimal.NewFromFloat(first.Last),
	}
	if first.Bid > 0 {
		quote.Bid = decimal.NewNullDecimal(decimal.NewFromFloat(first.Bid))
	}
	if first.Ask > 0 {
		quote.Ask = decimal.NewNullDecimal(decimal.NewFromFloat(first.Ask))
	}
	return quote, nil
}

// GetExpirations retrieves available expiration dates for options on a symbol.
func (t *TradierProvider) GetExpirations(ctx context.Context, symbol string) ([]string, error) {
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("includeAllRoots", "true")
	params.Set("strikes", "false")
	endpoint := t.baseURL + "/markets/options/expirations?" + params.Encode()

	var response expirationsResponse
	if err := t.makeRequest(ctx, endpoint, &response); err != nil {
		return nil, err
	}

	return response.Expirations.Date, nil
}

// GetOptionsChain retrieves and sanitizes the full option chain for a symbol
// across all expirations. Contracts that fail sanitization are skipped and
// logged, never aborting the whole fetch.
func (t *TradierProvider) GetOptionsChain(ctx context.Context, symbol string) ([]models.OptionContract, error) {
	quote, err := t.GetStockQuote(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("fetching spot for chain sanitization: %w", err)
	}

	expirations, err := t.GetExpirations(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("fetching expirations: %w", err)
	}

	now := time.Now().UTC()
	var chain []models.OptionContract
	for _, expiration := range expirations {
		options, err := t.getChainForExpiration(ctx, symbol, expiration)
		if err != nil {
			// A single bad expiration should not sink the scan.
			t.logger.WithFields(logrus.Fields{
				"symbol":     symbol,
				"expiration": expiration,
			}).WithError(err).Warn("skipping expiration")
			continue
		}
		for _, raw := range options {
			contract := sanitizeChainOption(raw)
			if err := contract.Sanitize(now, quote.Price()); err != nil {
				t.logger.WithField("contract", raw.Symbol).WithError(err).Debug("skipping contract")
				continue
			}
			chain = append(chain, contract)
		}
	}

	return chain, nil
}

func (t *TradierProvider) getChainForExpiration(ctx context.Context, symbol, expiration string) ([]chainOption, error) {
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("expiration", expiration)
	params.Set("greeks", "true")
	endpoint := t.baseURL + "/markets/options/chains?" + params.Encode()

	var response chainResponse
	if err := t.makeRequest(ctx, endpoint, &response); err != nil {
		return nil, err
	}

	return []chainOption(response.Options.Option), nil
}

// sanitizeChainOption converts the wire DTO into the engine's decimal model.
// Missing bid/ask stay null rather than becoming zero.
func sanitizeChainOption(raw chainOption) models.OptionContract {
	contract := models.OptionContract{
		Symbol:       raw.Symbol,
		Underlying:   raw.Underlying,
		Side:         models.OptionSide(raw.OptionType),
		Strike:       decimal.NewFromFloat(raw.Strike),
		Volume:       raw.Volume,
		OpenInterest: raw.OpenInterest,
	}

	if exp, err := time.Parse("2006-01-02", raw.ExpirationDate); err == nil {
		contract.Expiration = exp
	}

	if raw.Bid != nil && *raw.Bid >= 0 {
		contract.Bid = decimal.NewNullDecimal(decimal.NewFromFloat(*raw.Bid))
	}
	if raw.Ask != nil && *raw.Ask >= 0 {
		contract.Ask = decimal.NewNullDecimal(decimal.NewFromFloat(*raw.Ask))
	}
	if raw.Last != nil && *raw.Last > 0 {
		contract.Last = decimal.NewNullDecimal(decimal.NewFromFloat(*raw.Last))
	}

	if raw.Greeks != nil {
		contract.Greeks = &models.Greeks{
			Delta: decimal.NewFromFloat(raw.Greeks.Delta),
			Gamma: decimal.NewFromFloat(raw.Greeks.Gamma),
			Theta: decimal.NewFromFloat(raw.Greeks.Theta),
			Vega:  decimal.NewFromFloat(raw.Greeks.Vega),
			MidIV: decimal.NewFromFloat(raw.Greeks.MidIV),
		}
	}

	return contract
}

// makeRequest performs a GET against the Tradier API with auth headers and
// decodes the JSON response.
func (t *TradierProvider) makeRequest(ctx context.Context, endpoint string, response interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return err
	}

	req.Header.Add("Authorization", "Bearer "+t.apiKey)
	req.Header.Add("Accept", "application/json")
	req.Header.Add("User-Agent", "pmcc-scout/1.0 (+tradier)")

	resp, err := t.client.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			log.Printf("Failed to close response body: %v", err)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		body, readErr := io.ReadAll(io.LimitReader(resp.Body, 64<<10)) // 64KB cap to avoid huge payloads
		if readErr != nil {
			return &APIError{Status: resp.StatusCode, Body: "failed to read error body"}
		}
		return &APIError{Status: resp.StatusCode, Body: string(body)}
	}

	dec := json.NewDecoder(resp.Body)
	if err := dec.Decode(response); err != nil && err != io.EOF {
		return err
	}
	return nil
}
