// Package safewallet is the client-side core of a personal-finance tracker:
// a locally-persisted expense ledger kept in sync with a remote record
// store, a budget ceiling enforced at write time, and a cached currency-rate
// resolver with an ordered provider fallback chain. It is a library consumed
// in-process by a UI layer; there is no server or CLI surface.
package safewallet

import (
	"context"

	goredis "github.com/redis/go-redis/v9"

	"github.com/kislikjeka/safewallet/internal/infra/gateway/currencyapi"
	"github.com/kislikjeka/safewallet/internal/infra/gateway/exchangeratehost"
	"github.com/kislikjeka/safewallet/internal/infra/gateway/openerapi"
	"github.com/kislikjeka/safewallet/internal/infra/gateway/supabase"
	infraredis "github.com/kislikjeka/safewallet/internal/infra/redis"
	"github.com/kislikjeka/safewallet/internal/ledger"
	"github.com/kislikjeka/safewallet/internal/rates"
	"github.com/kislikjeka/safewallet/internal/storage"
	"github.com/kislikjeka/safewallet/pkg/config"
	"github.com/kislikjeka/safewallet/pkg/logger"
)

// Client bundles the ledger sync engine and the rate resolver built from
// one configuration. It is the composition root; tests construct the
// components directly with fakes instead.
type Client struct {
	Ledger *ledger.Engine
	Rates  *rates.Resolver

	backend     *supabase.Client
	redisClient *goredis.Client
	logger      *logger.Logger
}

// New wires a Client from configuration. With REDIS_ADDR set, local
// persistence goes through Redis; otherwise an in-memory store is used.
func New(cfg *config.Config, log *logger.Logger) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var store storage.Store
	var redisClient *goredis.Client
	if cfg.RedisAddr != "" {
		redisClient = goredis.NewClient(&goredis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		store = infraredis.NewStore(redisClient, log)
	} else {
		store = storage.NewMemoryStore()
	}

	backend := supabase.NewClient(cfg.SupabaseURL, cfg.SupabaseAnonKey, log)

	// Provider chain, most-preferred first: the keyed API joins only when a
	// credential is configured.
	var providers []rates.Provider
	if cfg.ExchangeAPIKey != "" {
		providers = append(providers, exchangeratehost.NewClient(cfg.ExchangeAPIKey, log))
	}
	providers = append(providers,
		openerapi.NewClient(log),
		currencyapi.NewClient(log),
	)

	resolver := rates.NewResolver(store, providers, log,
		rates.WithTTL(cfg.RateTTL),
		rates.WithTimeout(cfg.ProviderTimeout),
		rates.WithRetries(cfg.ProviderRetries),
		rates.WithBackoff(cfg.ProviderBackoff),
	)

	return &Client{
		Ledger:      ledger.NewEngine(store, backend, log),
		Rates:       resolver,
		backend:     backend,
		redisClient: redisClient,
		logger:      log,
	}, nil
}

// SignIn installs the user's access token on the backend and re-initializes
// the ledger for the identity the token carries.
func (c *Client) SignIn(ctx context.Context, accessToken string) error {
	if err := c.backend.SetSession(accessToken); err != nil {
		return err
	}
	return c.Ledger.SetIdentity(ctx, c.backend.OwnerID())
}

// SignOut drops the session and clears ledger state
func (c *Client) SignOut(ctx context.Context) error {
	c.backend.ClearSession()
	return c.Ledger.SetIdentity(ctx, "")
}

// Close releases held connections
func (c *Client) Close() error {
	if c.redisClient != nil {
		return c.redisClient.Close()
	}
	return nil
}
