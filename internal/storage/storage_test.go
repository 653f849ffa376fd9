package storage_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kislikjeka/safewallet/internal/storage"
)

func TestKey_String(t *testing.T) {
	tests := []struct {
		name     string
		key      storage.Key
		expected string
	}{
		{
			name:     "ledger key with identity",
			key:      storage.LedgerKey("user-123"),
			expected: "expenses_user-123",
		},
		{
			name:     "budget key with identity",
			key:      storage.BudgetKey("user-123"),
			expected: "budget_user-123",
		},
		{
			name:     "empty identity maps to anon",
			key:      storage.LedgerKey(""),
			expected: "expenses_anon",
		},
		{
			name:     "rate key uppercases the pair",
			key:      storage.RateKey("hnl", "usd"),
			expected: "exchange_rate_HNL_USD",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.key.String())
		})
	}
}

func TestKey_NamespacesDoNotCollide(t *testing.T) {
	// The same identity under different namespaces must map to distinct keys.
	id := "user-1"
	assert.NotEqual(t, storage.LedgerKey(id).String(), storage.BudgetKey(id).String())
}

func TestMemoryStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()

	_, found, err := store.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, store.Set(ctx, "a", "1"))
	require.NoError(t, store.Set(ctx, "b", "2"))

	value, found, err := store.Get(ctx, "a")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "1", value)

	keys, err := store.Keys(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "b"}, keys)
}

func TestMemoryStore_Delete(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()

	require.NoError(t, store.Set(ctx, "a", "1"))
	require.NoError(t, store.Set(ctx, "b", "2"))
	require.NoError(t, store.Set(ctx, "c", "3"))

	require.NoError(t, store.Delete(ctx, "a"))
	require.NoError(t, store.Delete(ctx, "a")) // deleting twice is fine

	require.NoError(t, store.DeleteMany(ctx, []string{"b", "c"}))
	assert.Equal(t, 0, store.Len())
}
