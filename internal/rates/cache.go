package rates

import (
	"context"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kislikjeka/safewallet/internal/storage"
)

// Quote is a cached exchange rate for one currency pair
type Quote struct {
	Base      string          `json:"base"`
	Target    string          `json:"target"`
	Rate      decimal.Decimal `json:"rate"`
	FetchedAt time.Time       `json:"fetched_at"`
}

// IsFresh reports whether the quote is still within the TTL window
func (q Quote) IsFresh(now time.Time, ttl time.Duration) bool {
	return now.Sub(q.FetchedAt) < ttl
}

// readQuote loads the cached quote for key. Storage errors and unparsable
// entries degrade to a miss.
func (r *Resolver) readQuote(ctx context.Context, key string) (Quote, bool) {
	raw, found, err := r.kv.Get(ctx, key)
	if err != nil {
		r.logger.WithError(err).Warn("rate cache read failed", "key", key)
		return Quote{}, false
	}
	if !found {
		return Quote{}, false
	}

	var quote Quote
	if err := json.Unmarshal([]byte(raw), &quote); err != nil {
		r.logger.WithError(err).Warn("discarding unparsable rate cache entry", "key", key)
		return Quote{}, false
	}
	return quote, true
}

// writeQuote stores a freshly resolved quote. A persistence failure only
// costs us the cache entry, so it is logged and swallowed.
func (r *Resolver) writeQuote(ctx context.Context, key string, quote Quote) {
	data, err := json.Marshal(quote)
	if err != nil {
		r.logger.WithError(err).Error("failed to serialize rate quote")
		return
	}
	if err := r.kv.Set(ctx, key, string(data)); err != nil {
		r.logger.WithError(err).Warn("failed to persist rate quote", "key", key)
	}
}

// Invalidate removes the cached quote for one pair when both codes are
// given, otherwise every cached quote. Used when the caller wants to force a
// fresh resolution.
func (r *Resolver) Invalidate(ctx context.Context, base, target string) error {
	if base != "" && target != "" {
		return r.kv.Delete(ctx, storage.RateKey(base, target).String())
	}

	keys, err := r.kv.Keys(ctx)
	if err != nil {
		return err
	}

	var stale []string
	for _, key := range keys {
		if len(key) >= len(storage.RatePrefix()) && key[:len(storage.RatePrefix())] == storage.RatePrefix() {
			stale = append(stale, key)
		}
	}
	if len(stale) == 0 {
		return nil
	}
	return r.kv.DeleteMany(ctx, stale)
}
