// Package supabase implements ledger.Backend over the Supabase PostgREST
// API. The client holds the project anon key plus an optional user access
// token; row-level security on the backend scopes every query to the
// authenticated owner.
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kislikjeka/safewallet/internal/ledger"
	"github.com/kislikjeka/safewallet/pkg/logger"
)

const (
	restPath       = "/rest/v1"
	expensesTable  = "expenses"
	usersTable     = "users"
	requestTimeout = 15 * time.Second
	maxRetries     = 3
)

// Client is an HTTP client for the Supabase REST API
type Client struct {
	baseURL     string
	anonKey     string
	accessToken string
	ownerID     string
	httpClient  *http.Client
	logger      *logger.Logger
}

// NewClient creates a new Supabase client authenticated with the project
// anon key only. Call SetSession once a user token is available.
func NewClient(baseURL, anonKey string, log *logger.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		anonKey: anonKey,
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
		logger: log.WithField("component", "supabase"),
	}
}

// SetSession installs a user access token. The owner identity is derived
// from the token's subject claim and attached to inserts so rows are
// correctly owned even when row-level security is permissive.
func (c *Client) SetSession(accessToken string) error {
	ownerID, err := UserIDFromToken(accessToken)
	if err != nil {
		return err
	}
	c.accessToken = accessToken
	c.ownerID = ownerID
	return nil
}

// ClearSession drops the user token, reverting to anon-key-only access
func (c *Client) ClearSession() {
	c.accessToken = ""
	c.ownerID = ""
}

// OwnerID returns the identity derived from the current session token
func (c *Client) OwnerID() string {
	return c.ownerID
}

// SetBaseURL overrides the project URL (useful for testing)
func (c *Client) SetBaseURL(u string) {
	c.baseURL = strings.TrimRight(u, "/")
}

// doRequest performs an authenticated REST request with rate-limit retry.
// 429 responses are retried up to maxRetries times with exponential backoff.
func (c *Client) doRequest(ctx context.Context, method, path string, params url.Values, body any, prefer string) ([]byte, error) {
	reqURL := c.baseURL + restPath + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
	}

	backoff := time.Second
	for attempt := 0; attempt <= maxRetries; attempt++ {
		c.logger.Debug("API request", "method", method, "url", reqURL, "attempt", attempt)

		var reqBody io.Reader
		if payload != nil {
			reqBody = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, reqURL, reqBody)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}

		req.Header.Set("apikey", c.anonKey)
		token := c.accessToken
		if token == "" {
			token = c.anonKey
		}
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if prefer != "" {
			req.Header.Set("Prefer", prefer)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("failed to execute request: %w", err)
		}

		respBody, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			return nil, fmt.Errorf("failed to read response body: %w", readErr)
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return respBody, nil
		}

		if resp.StatusCode == http.StatusTooManyRequests && attempt < maxRetries {
			c.logger.Warn("rate limited, retrying", "attempt", attempt, "backoff_ms", backoff.Milliseconds())
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
				backoff *= 2
				continue
			}
		}

		c.logger.Error("API error", "status_code", resp.StatusCode, "method", method, "path", path)
		return nil, fmt.Errorf("supabase API error: status %d, body: %s", resp.StatusCode, string(respBody))
	}

	return nil, fmt.Errorf("supabase API: retries exhausted")
}

// List returns all expense rows owned by the given identity, newest first
func (c *Client) List(ctx context.Context, owner string) ([]ledger.RemoteRow, error) {
	params := url.Values{}
	params.Set("select", "*")
	params.Set("owner_id", "eq."+owner)
	params.Set("order", "created_at.desc")

	body, err := c.doRequest(ctx, http.MethodGet, "/"+expensesTable, params, nil, "")
	if err != nil {
		return nil, err
	}

	var raw []expenseRow
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode expenses: %w", err)
	}

	rows := make([]ledger.RemoteRow, 0, len(raw))
	for _, r := range raw {
		rows = append(rows, r.toRemoteRow())
	}
	return rows, nil
}

// Create inserts a new expense row and returns the stored representation.
// When the response carries no row (insert accepted without representation)
// it returns (nil, nil) so the engine can reconcile via refresh.
func (c *Client) Create(ctx context.Context, draft ledger.Draft) (*ledger.RemoteRow, error) {
	payload := insertPayload{
		Title:   strings.TrimSpace(draft.Label),
		Amount:  draft.Amount,
		OwnerID: c.ownerID,
	}
	if cat := strings.TrimSpace(draft.Category); cat != "" {
		payload.Category = cat
	}
	if !draft.OccurredAt.IsZero() {
		payload.Date = draft.OccurredAt.UTC().Format(time.RFC3339)
	}

	body, err := c.doRequest(ctx, http.MethodPost, "/"+expensesTable, nil, []insertPayload{payload}, "return=representation")
	if err != nil {
		return nil, err
	}

	var raw []expenseRow
	if err := json.Unmarshal(body, &raw); err != nil || len(raw) == 0 || raw[0].ID == "" {
		// insert went through but the response has no usable identifier
		return nil, nil
	}

	row := raw[0].toRemoteRow()
	return &row, nil
}

// Update patches the row with the given remote identifier
func (c *Client) Update(ctx context.Context, id string, patch ledger.Patch) error {
	if !ledger.IsRemoteID(id) {
		return fmt.Errorf("id %q is not a remote identifier", id)
	}

	payload := make(map[string]any)
	if patch.Label != nil {
		payload["title"] = strings.TrimSpace(*patch.Label)
	}
	if patch.Category != nil {
		payload["category"] = *patch.Category
	}
	if patch.Amount != nil {
		payload["amount"] = *patch.Amount
	}
	if len(payload) == 0 {
		return nil
	}

	params := url.Values{}
	params.Set("id", "eq."+id)

	_, err := c.doRequest(ctx, http.MethodPatch, "/"+expensesTable, params, payload, "")
	return err
}

// Delete removes the row with the given remote identifier
func (c *Client) Delete(ctx context.Context, id string) error {
	if !ledger.IsRemoteID(id) {
		return fmt.Errorf("id %q is not a remote identifier", id)
	}

	params := url.Values{}
	params.Set("id", "eq."+id)

	_, err := c.doRequest(ctx, http.MethodDelete, "/"+expensesTable, params, nil, "")
	return err
}

// DeleteAllForOwner removes every row owned by the given identity
func (c *Client) DeleteAllForOwner(ctx context.Context, owner string) error {
	params := url.Values{}
	params.Set("owner_id", "eq."+owner)

	_, err := c.doRequest(ctx, http.MethodDelete, "/"+expensesTable, params, nil, "")
	return err
}

// FetchCeiling returns the budget stored on the user's profile row. A
// missing profile or null budget maps to zero.
func (c *Client) FetchCeiling(ctx context.Context, owner string) (decimal.Decimal, error) {
	params := url.Values{}
	params.Set("select", "budget")
	params.Set("id", "eq."+owner)

	body, err := c.doRequest(ctx, http.MethodGet, "/"+usersTable, params, nil, "")
	if err != nil {
		return decimal.Zero, err
	}

	var rows []profileRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return decimal.Zero, fmt.Errorf("failed to decode profile: %w", err)
	}
	if len(rows) == 0 || rows[0].Budget == nil {
		return decimal.Zero, nil
	}
	return *rows[0].Budget, nil
}

// StoreCeiling mirrors the ceiling to the user's profile row, creating the
// row via upsert when the update matched nothing.
func (c *Client) StoreCeiling(ctx context.Context, owner string, value decimal.Decimal) error {
	params := url.Values{}
	params.Set("id", "eq."+owner)

	body, err := c.doRequest(ctx, http.MethodPatch, "/"+usersTable, params,
		map[string]any{"budget": value}, "return=representation")
	if err != nil {
		return err
	}

	var updated []profileRow
	if err := json.Unmarshal(body, &updated); err == nil && len(updated) > 0 {
		return nil
	}

	// no profile row yet: upsert one carrying the budget
	upsertParams := url.Values{}
	upsertParams.Set("on_conflict", "id")
	_, err = c.doRequest(ctx, http.MethodPost, "/"+usersTable, upsertParams,
		[]profileRow{{ID: owner, Budget: &value}}, "resolution=merge-duplicates")
	return err
}

var _ ledger.Backend = (*Client)(nil)
