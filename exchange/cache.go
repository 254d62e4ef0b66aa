package exchange

import (
	"context"
	"time"
)

// CachedToken is a scoped access token held between logical operations.
// Scoped tokens are short-lived by design; the cache TTL is derived from
// the token's expires_in minus a safety margin.
type CachedToken struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	Scopes      []string  `json:"scopes"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// TokenCache stores scoped tokens keyed by agent, audience, and scope set.
// Implementations live in storage/memory and storage/redis.
type TokenCache interface {
	Get(ctx context.Context, key string) (CachedToken, bool, error)
	Put(ctx context.Context, key string, tok CachedToken, ttl time.Duration) error
}
