// Package rates resolves currency exchange rates through a cache backed by
// the key-value store and an ordered chain of unreliable upstream providers.
// The cache plus degrade-to-stale policy is the availability boundary here,
// not any single provider's uptime.
package rates

import (
	"context"

	"github.com/shopspring/decimal"
)

// Provider answers "exchange rate from base to target now". Each upstream
// service has its own request/response shape; adapters normalize that down
// to a single positive rate or an error so the resolver's ordering and retry
// logic stays provider-agnostic.
type Provider interface {
	Name() string
	Resolve(ctx context.Context, base, target string) (decimal.Decimal, error)
}
