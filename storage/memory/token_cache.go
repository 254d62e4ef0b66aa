package memorystore

import (
	"context"
	"sync"
	"time"

	"github.com/rajeshkumar-okta/courtedge-ai-demo/exchange"
)

// TokenCache is an in-memory implementation of exchange.TokenCache.
// Entries carry their own TTL since each scoped token expires on its own
// schedule.
type TokenCache struct {
	mu     sync.Mutex
	data   map[string]item
	closed chan struct{}
}

type item struct {
	tok exchange.CachedToken
	exp time.Time
}

// NewTokenCache creates an in-memory token cache. Starts a background
// goroutine that sweeps expired entries every minute.
func NewTokenCache() *TokenCache {
	c := &TokenCache{data: make(map[string]item), closed: make(chan struct{})}
	go c.cleanupLoop()
	return c
}

func (c *TokenCache) Put(ctx context.Context, key string, tok exchange.CachedToken, ttl time.Duration) error {
	_ = ctx
	if ttl <= 0 {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = item{tok: tok, exp: time.Now().Add(ttl)}
	return nil
}

func (c *TokenCache) Get(ctx context.Context, key string) (exchange.CachedToken, bool, error) {
	_ = ctx
	c.mu.Lock()
	defer c.mu.Unlock()
	it, ok := c.data[key]
	if !ok {
		return exchange.CachedToken{}, false, nil
	}
	if time.Now().After(it.exp) {
		delete(c.data, key)
		return exchange.CachedToken{}, false, nil
	}
	return it.tok, true, nil
}

func (c *TokenCache) cleanupLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.cleanup()
		case <-c.closed:
			return
		}
	}
}

func (c *TokenCache) cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := time.Now()
	for k, v := range c.data {
		if now.After(v.exp) {
			delete(c.data, k)
		}
	}
}

// Close stops the background cleanup goroutine.
func (c *TokenCache) Close() error {
	close(c.closed)
	return nil
}
