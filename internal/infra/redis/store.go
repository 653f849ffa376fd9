// Package redis provides a Redis-backed implementation of storage.Store for
// deployments where the ledger cache should survive process restarts and be
// shared across instances.
package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/kislikjeka/safewallet/internal/storage"
	"github.com/kislikjeka/safewallet/pkg/logger"
)

// KeyPrefix namespaces every safewallet entry inside a shared Redis database.
const KeyPrefix = "safewallet:"

// Store is a Redis-backed key-value store
type Store struct {
	client *redis.Client
	logger *logger.Logger
}

// NewStore creates a new Redis-backed store
func NewStore(client *redis.Client, log *logger.Logger) *Store {
	return &Store{
		client: client,
		logger: log.WithField("component", "redis_store"),
	}
}

// Get returns the value for key. A missing key is a miss, not an error.
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := s.client.Get(ctx, KeyPrefix+key).Result()
	if err == redis.Nil {
		s.logger.Debug("store miss", "key", key)
		return "", false, nil
	}
	if err != nil {
		s.logger.Error("store error", "operation", "get", "key", key, "error", err)
		return "", false, fmt.Errorf("failed to get %q: %w", key, err)
	}

	return value, true, nil
}

// Set stores value under key without expiry; the callers own staleness policy.
func (s *Store) Set(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, KeyPrefix+key, value, 0).Err(); err != nil {
		s.logger.Error("store error", "operation", "set", "key", key, "error", err)
		return fmt.Errorf("failed to set %q: %w", key, err)
	}
	return nil
}

// Delete removes key
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, KeyPrefix+key).Err(); err != nil {
		return fmt.Errorf("failed to delete %q: %w", key, err)
	}
	return nil
}

// DeleteMany removes every given key in a pipeline
func (s *Store) DeleteMany(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		return nil
	}

	pipe := s.client.Pipeline()
	for _, key := range keys {
		pipe.Del(ctx, KeyPrefix+key)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete keys: %w", err)
	}
	return nil
}

// Keys enumerates every safewallet key via SCAN, with the shared prefix
// stripped so callers see the same flat keys the other stores expose.
func (s *Store) Keys(ctx context.Context) ([]string, error) {
	var keys []string
	iter := s.client.Scan(ctx, 0, KeyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val()[len(KeyPrefix):])
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan keys: %w", err)
	}
	return keys, nil
}

var _ storage.Store = (*Store)(nil)
