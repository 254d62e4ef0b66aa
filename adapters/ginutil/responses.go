// Package ginutil holds the small response and rate-limit helpers shared
// by the HTTP handlers.
package ginutil

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Rate limit bucket names.
const (
	RLChat      = "chat"
	RLAuditLogs = "audit_logs"
)

// RateLimiter is implemented by ratelimit/memory and ratelimit/redis.
type RateLimiter interface {
	AllowNamed(bucket, key string) (bool, error)
}

// AllowNamed checks the caller against a bucket, keyed by authenticated
// user when available and client IP otherwise. A limiter error fails open.
func AllowNamed(c *gin.Context, rl RateLimiter, bucket string) bool {
	if rl == nil {
		return true
	}
	key := c.ClientIP()
	if uid, ok := c.Get("auth.user_id"); ok {
		if s, ok := uid.(string); ok && s != "" {
			key = s
		}
	}
	ok, err := rl.AllowNamed(bucket, key)
	if err != nil {
		return true
	}
	return ok
}

func Unauthorized(c *gin.Context, code string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": code})
}

func BadRequest(c *gin.Context, code string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": code})
}

func TooMany(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate_limited"})
}

func ServerErr(c *gin.Context, code string) {
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": code})
}
