package currencyapi_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kislikjeka/safewallet/internal/infra/gateway/currencyapi"
	"github.com/kislikjeka/safewallet/pkg/logger"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *currencyapi.Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := currencyapi.NewClient(logger.Discard())
	client.SetBaseURL(server.URL)
	return client
}

func TestClient_Resolve(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/currencies/usd.min.json", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"date": "2025-11-20", "usd": {"hnl": 24.73, "eur": 0.92}}`))
	})

	rate, err := client.Resolve(context.Background(), "USD", "HNL")
	require.NoError(t, err)
	assert.True(t, rate.Equal(decimal.RequireFromString("24.73")), "got %s", rate)
}

func TestClient_Resolve_MissingBase(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"date": "2025-11-20"}`))
	})

	_, err := client.Resolve(context.Background(), "USD", "HNL")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing rates for base")
}

func TestClient_Resolve_MissingTarget(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"date": "2025-11-20", "usd": {"eur": 0.92}}`))
	})

	_, err := client.Resolve(context.Background(), "USD", "HNL")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing rate for USD/HNL")
}

func TestClient_Resolve_HTTPError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := client.Resolve(context.Background(), "USD", "HNL")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}
