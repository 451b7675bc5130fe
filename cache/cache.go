package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// Cache is a thin JSON cache over Redis, used to absorb hot wallet and game
// catalog reads. All methods are best-effort: the ledger in Postgres is the
// source of truth and a cache failure only costs a database round trip.
type Cache struct {
	rdb *redis.Client
	ttl time.Duration
}

// New connects to Redis and verifies the connection.
func New(ctx context.Context, addr, password string, db int, ttl time.Duration) (*Cache, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return &Cache{rdb: rdb, ttl: ttl}, nil
}

// Get retrieves a value and unmarshals it into dest. The first return value
// reports whether the key was present.
func (c *Cache) Get(ctx context.Context, key string, dest any) (bool, error) {
	if c == nil {
		return false, nil
	}

	val, err := c.rdb.Get(ctx, key).Result()
	if err == redis.Nil {
		return false, nil
	} else if err != nil {
		return false, err
	}
	return true, json.Unmarshal([]byte(val), dest)
}

// Set stores a value under key for the configured TTL.
func (c *Cache) Set(ctx context.Context, key string, value any) error {
	if c == nil {
		return nil
	}

	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, key, b, c.ttl).Err()
}

// Delete removes a key. Used by the balance-change subscriber to invalidate
// wallet snapshots after settlement.
func (c *Cache) Delete(ctx context.Context, key string) {
	if c == nil {
		return
	}

	if err := c.rdb.Del(ctx, key).Err(); err != nil {
		log.WithError(err).WithField("key", key).Warn("Failed to invalidate cache key")
	}
}

// Close releases the underlying Redis connection.
func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	return c.rdb.Close()
}

// WalletKey is the cache key for a user's wallet snapshot.
func WalletKey(userID int64) string {
	return fmt.Sprintf("wallet:%d", userID)
}

// GamesKey is the cache key for the active game catalog.
func GamesKey() string {
	return "games:active"
}
