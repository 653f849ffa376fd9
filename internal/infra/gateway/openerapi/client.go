// Package openerapi adapts the free open.er-api.com service to the
// rates.Provider capability. The free tier has no credential but is rate
// limited, so outbound calls go through a local limiter.
package openerapi

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
	defaultBaseURL = "https://open.er-api.com"
	requestTimeout = 10 * time.Second
)

// Client is an HTTP client for the open.er-api.com API
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *logger.Logger
}

// NewClient creates a new open.er-api.com client
func NewClient(log *logger.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
		// one request per second keeps us well under the free-tier quota
		limiter: rate.NewLimiter(rate.Every(time.Second), 1),
		baseURL: defaultBaseURL,
		logger:  log.WithField("component", "openerapi"),
	}
}

// SetBaseURL overrides the default base URL (useful for testing)
func (c *Client) SetBaseURL(u string) {
	c.baseURL = strings.TrimRight(u, "/")
}

// Name implements rates.Provider
func (c *Client) Name() string {
	return "open.er-api.com"
}

type latestResponse struct {
	Result string                 `json:"result"`
	Rates  map[string]json.Number `json:"rates"`
}

// Resolve implements rates.Provider
func (c *Client) Resolve(ctx context.Context, base, target string) (decimal.Decimal, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return decimal.Zero, err
	}

	reqURL := fmt.Sprintf("%s/v6/latest/%s", c.baseURL, strings.ToUpper(base))

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

	if parsed.Result != "success" {
		return decimal.Zero, fmt.Errorf("open.er-api.com reported result %q", parsed.Result)
	}

	num, ok := parsed.Rates[strings.ToUpper(target)]
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
