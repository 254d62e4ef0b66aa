package redisstore

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rajeshkumar-okta/courtedge-ai-demo/exchange"
)

// TokenCache is a Redis-backed implementation of exchange.TokenCache, for
// deployments running more than one server replica.
type TokenCache struct {
	rdb   *redis.Client
	keyNS string
}

// NewTokenCache creates a Redis token cache under the given key prefix.
func NewTokenCache(rdb *redis.Client, keyPrefix string) *TokenCache {
	if keyPrefix == "" {
		keyPrefix = "courtedge:tokens:"
	}
	return &TokenCache{rdb: rdb, keyNS: keyPrefix}
}

func (c *TokenCache) key(k string) string { return c.keyNS + k }

func (c *TokenCache) Put(ctx context.Context, key string, tok exchange.CachedToken, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	b, err := json.Marshal(tok)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, c.key(key), b, ttl).Err()
}

func (c *TokenCache) Get(ctx context.Context, key string) (exchange.CachedToken, bool, error) {
	val, err := c.rdb.Get(ctx, c.key(key)).Bytes()
	if err == redis.Nil {
		return exchange.CachedToken{}, false, nil
	}
	if err != nil {
		return exchange.CachedToken{}, false, err
	}
	var tok exchange.CachedToken
	if err := json.Unmarshal(val, &tok); err != nil {
		return exchange.CachedToken{}, false, err
	}
	return tok, true, nil
}
