package rates

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	apperrors "github.com/kislikjeka/safewallet/internal/shared/errors"
	"github.com/kislikjeka/safewallet/internal/storage"
	"github.com/kislikjeka/safewallet/pkg/logger"
)

const (
	// DefaultTTL is the freshness window for cached quotes
	DefaultTTL = time.Hour

	// DefaultTimeout bounds a single provider call
	DefaultTimeout = 8 * time.Second

	// DefaultRetries is how many extra attempts a provider gets after its
	// first failure before the chain falls through to the next one
	DefaultRetries = 2

	// DefaultBackoff is the base delay between attempts; the actual delay
	// grows linearly with the attempt number
	DefaultBackoff = 400 * time.Millisecond
)

// ErrNoRate is returned only on a true cold start: no cached value for the
// pair and every provider attempt failed.
var ErrNoRate = errors.New("could not get exchange rate")

// Resolver owns the rate cache, TTL policy, and the ordered provider
// fallback chain.
type Resolver struct {
	kv        storage.Store
	providers []Provider
	logger    *logger.Logger

	ttl     time.Duration
	timeout time.Duration
	retries int
	backoff time.Duration
	now     func() time.Time
}

// Option configures a Resolver
type Option func(*Resolver)

// WithTTL overrides the cache freshness window
func WithTTL(ttl time.Duration) Option {
	return func(r *Resolver) { r.ttl = ttl }
}

// WithTimeout overrides the per-call provider bound
func WithTimeout(timeout time.Duration) Option {
	return func(r *Resolver) { r.timeout = timeout }
}

// WithRetries overrides the extra attempts per provider
func WithRetries(retries int) Option {
	return func(r *Resolver) { r.retries = retries }
}

// WithBackoff overrides the base delay between attempts
func WithBackoff(backoff time.Duration) Option {
	return func(r *Resolver) { r.backoff = backoff }
}

// WithClock overrides the time source. Tests use this to age cache entries.
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) { r.now = now }
}

// NewResolver creates a resolver over the given providers, most-preferred
// first.
func NewResolver(kv storage.Store, providers []Provider, log *logger.Logger, opts ...Option) *Resolver {
	r := &Resolver{
		kv:        kv,
		providers: providers,
		logger:    log.WithField("component", "rate_resolver"),
		ttl:       DefaultTTL,
		timeout:   DefaultTimeout,
		retries:   DefaultRetries,
		backoff:   DefaultBackoff,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// GetRate resolves the exchange rate from base to target.
//
// Resolution order: identity shortcut, fresh cache hit, then each provider
// in turn with bounded retries, then the cached value even if expired. Only
// a cold start with every provider down fails.
func (r *Resolver) GetRate(ctx context.Context, base, target string) (decimal.Decimal, error) {
	base = strings.ToUpper(strings.TrimSpace(base))
	target = strings.ToUpper(strings.TrimSpace(target))

	if base == target {
		return decimal.NewFromInt(1), nil
	}

	key := storage.RateKey(base, target).String()

	cached, hasCached := r.readQuote(ctx, key)
	if hasCached && cached.IsFresh(r.now(), r.ttl) {
		return cached.Rate, nil
	}

	rate, err := r.resolveThroughChain(ctx, base, target)
	if err == nil {
		r.writeQuote(ctx, key, Quote{
			Base:      base,
			Target:    target,
			Rate:      rate,
			FetchedAt: r.now(),
		})
		return rate, nil
	}

	if hasCached {
		// a stale rate beats no rate at all
		r.logger.Warn("all providers failed, serving stale quote",
			"base", base, "target", target, "fetched_at", cached.FetchedAt)
		return cached.Rate, nil
	}

	return decimal.Zero, apperrors.Wrap(errors.Join(ErrNoRate, err),
		apperrors.ErrCodeRateUnavailable, "could not get exchange rate")
}

// resolveThroughChain walks the provider chain in order. A provider gets its
// retries before the chain falls through; a success stops the walk.
func (r *Resolver) resolveThroughChain(ctx context.Context, base, target string) (decimal.Decimal, error) {
	if len(r.providers) == 0 {
		return decimal.Zero, errors.New("no providers configured")
	}

	var lastErr error
	for _, provider := range r.providers {
		rate, err := r.resolveWithRetries(ctx, provider, base, target)
		if err == nil {
			return rate, nil
		}
		lastErr = err
		r.logger.WithError(err).Warn("provider exhausted, falling through",
			"provider", provider.Name(), "base", base, "target", target)
	}
	return decimal.Zero, lastErr
}

func (r *Resolver) resolveWithRetries(ctx context.Context, provider Provider, base, target string) (decimal.Decimal, error) {
	var lastErr error
	for attempt := 0; attempt <= r.retries; attempt++ {
		if attempt > 0 {
			delay := time.Duration(attempt) * r.backoff
			select {
			case <-ctx.Done():
				return decimal.Zero, ctx.Err()
			case <-time.After(delay):
			}
		}

		rate, err := r.resolveOnce(ctx, provider, base, target)
		if err == nil {
			return rate, nil
		}
		lastErr = err
		r.logger.WithError(err).Debug("provider attempt failed",
			"provider", provider.Name(), "attempt", attempt)
	}
	return decimal.Zero, lastErr
}

func (r *Resolver) resolveOnce(ctx context.Context, provider Provider, base, target string) (decimal.Decimal, error) {
	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	rate, err := provider.Resolve(callCtx, base, target)
	if err != nil {
		return decimal.Zero, err
	}
	if !rate.IsPositive() {
		return decimal.Zero, errors.New("provider returned a non-positive rate")
	}
	return rate, nil
}
