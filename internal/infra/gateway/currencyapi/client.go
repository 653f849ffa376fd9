// Package currencyapi adapts the fawazahmed0 currency-api dataset served
// from the jsDelivr CDN to the rates.Provider capability. It is the last
// resort in the chain: daily data, but effectively always up.
package currencyapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"github.com/kislikjeka/safewallet/internal/rates"
	"github.com/kislikjeka/safewallet/pkg/logger"
)

const (
	defaultBaseURL = "https://cdn.jsdelivr.net/npm/@fawazahmed0/currency-api@latest"
	requestTimeout = 10 * time.Second
)

// Client fetches rates from the currency-api CDN dataset
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *logger.Logger
}

// NewClient creates a new currency-api client
func NewClient(log *logger.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
		limiter: rate.NewLimiter(rate.Every(time.Second), 1),
		baseURL: defaultBaseURL,
		logger:  log.WithField("component", "currencyapi"),
	}
}

// SetBaseURL overrides the default base URL (useful for testing)
func (c *Client) SetBaseURL(u string) {
	c.baseURL = strings.TrimRight(u, "/")
}

// Name implements rates.Provider
func (c *Client) Name() string {
	return "currency-api"
}

// Resolve implements rates.Provider. The dataset keys currencies in
// lowercase and nests the rate map under the base code:
//
//	{"date": "2024-06-15", "usd": {"hnl": 24.7, ...}}
func (c *Client) Resolve(ctx context.Context, base, target string) (decimal.Decimal, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return decimal.Zero, err
	}

	baseLower := strings.ToLower(base)
	targetLower := strings.ToLower(target)

	reqURL := fmt.Sprintf("%s/v1/currencies/%s.min.json", c.baseURL, baseLower)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return decimal.Zero, fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, string(body))
	}

	var parsed map[string]json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return decimal.Zero, fmt.Errorf("failed to decode response: %w", err)
	}

	rawRates, ok := parsed[baseLower]
	if !ok {
		return decimal.Zero, fmt.Errorf("response missing rates for base %s", base)
	}

	var pairRates map[string]json.Number
	if err := json.Unmarshal(rawRates, &pairRates); err != nil {
		return decimal.Zero, fmt.Errorf("failed to decode rate map: %w", err)
	}

	num, ok := pairRates[targetLower]
	if !ok {
		return decimal.Zero, fmt.Errorf("response missing rate for %s/%s", base, target)
	}

	value, err := decimal.NewFromString(num.String())
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid rate %q: %w", num.String(), err)
	}
	return value, nil
}

var _ rates.Provider = (*Client)(nil)
