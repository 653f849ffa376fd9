// Package exchangeratehost adapts the exchangerate.host API to the
// rates.Provider capability. It is the preferred provider when an access
// key is configured.
package exchangeratehost

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kislikjeka/safewallet/internal/rates"
	"github.com/kislikjeka/safewallet/pkg/logger"
)

const (
	defaultBaseURL = "https://api.exchangerate.host"
	requestTimeout = 10 * time.Second
)

// Client is an HTTP client for the exchangerate.host API
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     *logger.Logger
}

// NewClient creates a new exchangerate.host client
func NewClient(apiKey string, log *logger.Logger) *Client {
	return &Client{
		apiKey: apiKey,
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
		baseURL: defaultBaseURL,
		logger:  log.WithField("component", "exchangeratehost"),
	}
}

// SetBaseURL overrides the default base URL (useful for testing)
func (c *Client) SetBaseURL(u string) {
	c.baseURL = strings.TrimRight(u, "/")
}

// Name implements rates.Provider
func (c *Client) Name() string {
	return "exchangerate.host"
}

// latestResponse is the shape of the /latest endpoint. Rates stay as
// json.Number so they convert to decimal without a float round trip.
type latestResponse struct {
	Success *bool                  `json:"success"`
	Rates   map[string]json.Number `json:"rates"`
}

// Resolve implements rates.Provider
func (c *Client) Resolve(ctx context.Context, base, target string) (decimal.Decimal, error) {
	params := url.Values{}
	params.Set("base", base)
	params.Set("symbols", target)
	if c.apiKey != "" {
		params.Set("access_key", c.apiKey)
	}

	reqURL := fmt.Sprintf("%s/latest?%s", c.baseURL, params.Encode())

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

	var parsed latestResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return decimal.Zero, fmt.Errorf("failed to decode response: %w", err)
	}

	if parsed.Success != nil && !*parsed.Success {
		return decimal.Zero, fmt.Errorf("exchangerate.host reported failure")
	}

	num, ok := parsed.Rates[strings.ToUpper(target)]
	if !ok {
		return decimal.Zero, fmt.Errorf("response missing rate for %s/%s", base, target)
	}

	rate, err := decimal.NewFromString(num.String())
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid rate %q: %w", num.String(), err)
	}
	return rate, nil
}

var _ rates.Provider = (*Client)(nil)
