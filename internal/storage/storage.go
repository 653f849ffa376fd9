// Package storage defines the opaque key-value persistence substrate the
// ledger engine and rate resolver write through, plus the composite key
// scheme that partitions entries by namespace and identity.
package storage

import (
	"context"
	"strings"
)

// Store is an opaque string key-value store. Every call takes a context
// because real substrates (Redis, device storage bridges) are remote or
// asynchronous; the in-memory implementation ignores it.
type Store interface {
	// Get returns the value for key. found is false on a miss; a miss is
	// not an error.
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	DeleteMany(ctx context.Context, keys []string) error
	// Keys returns every key currently present in the store.
	Keys(ctx context.Context) ([]string, error)
}

// Namespaces for the entries the core persists.
const (
	NamespaceLedger = "expenses"
	NamespaceBudget = "budget"
	NamespaceRate   = "exchange_rate"
)

// AnonymousIdentity is the identity segment used when no user is active.
const AnonymousIdentity = "anon"

// Key is a composite storage key. Using a struct instead of ad-hoc string
// concatenation keeps namespaces from colliding with identity values.
type Key struct {
	Namespace string
	Identity  string
}

// LedgerKey returns the key holding the serialized record list for identity.
func LedgerKey(identity string) Key {
	return Key{Namespace: NamespaceLedger, Identity: identity}
}

// BudgetKey returns the key holding the persisted ceiling for identity.
func BudgetKey(identity string) Key {
	return Key{Namespace: NamespaceBudget, Identity: identity}
}

// RateKey returns the key holding the cached quote for a currency pair.
// Codes are uppercased so "usd"/"USD" share one entry.
func RateKey(base, target string) Key {
	pair := strings.ToUpper(base) + "_" + strings.ToUpper(target)
	return Key{Namespace: NamespaceRate, Identity: pair}
}

// String maps the composite key to the flat storage key format
// "<namespace>_<identity>". An empty identity maps to the anonymous segment.
func (k Key) String() string {
	id := k.Identity
	if id == "" {
		id = AnonymousIdentity
	}
	return k.Namespace + "_" + id
}

// RatePrefix is the flat-key prefix shared by every cached quote. Used to
// enumerate rate entries for bulk invalidation.
func RatePrefix() string {
	return NamespaceRate + "_"
}
