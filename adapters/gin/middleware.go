// Package authgin adapts the token validation gate and the demo's HTTP
// surface to gin.
package authgin

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/rajeshkumar-okta/courtedge-ai-demo/adapters/ginutil"
	"github.com/rajeshkumar-okta/courtedge-ai-demo/gate"
)

// Context keys set by the middleware for downstream handlers.
const (
	ctxClaims   = "auth.claims"
	ctxUserID   = "auth.user_id"
	ctxSource   = "auth.source"
	ctxRawToken = "auth.raw_token"
)

// AuthRequired applies the gate to every request. Whether a missing
// header is rejected or admitted anonymously is the gate's mode decision,
// not the handler's.
func AuthRequired(v *gate.Validator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		dec, err := v.Validate(c.Request.Context(), header)
		if err != nil {
			if errors.Is(err, gate.ErrMissingAuthorization) {
				ginutil.Unauthorized(c, "missing_authorization")
			} else {
				ginutil.Unauthorized(c, "invalid_token")
			}
			return
		}
		admit(c, dec, header)
		c.Next()
	}
}

// AuthOptional admits requests without an Authorization header in every
// mode, but still rejects a token that fails verification.
func AuthOptional(v *gate.Validator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if _, ok := gate.BearerFromHeader(header); !ok {
			c.Set(ctxSource, "none")
			c.Next()
			return
		}
		dec, err := v.Validate(c.Request.Context(), header)
		if err != nil {
			ginutil.Unauthorized(c, "invalid_token")
			return
		}
		admit(c, dec, header)
		c.Next()
	}
}

func admit(c *gin.Context, dec gate.Decision, header string) {
	c.Set(ctxSource, dec.Source)
	if raw, ok := gate.BearerFromHeader(header); ok {
		c.Set(ctxRawToken, raw)
	}
	if dec.Identity != nil {
		c.Set(ctxClaims, dec.Identity)
		c.Set(ctxUserID, dec.Identity.Subject)
		c.Request = c.Request.WithContext(gate.WithClaims(c.Request.Context(), dec.Identity))
	}
}

// RawToken returns the bearer token the request carried, if any.
func RawToken(c *gin.Context) string {
	if v, ok := c.Get(ctxRawToken); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// ClaimsFromGin returns the gate's claims for the current request.
func ClaimsFromGin(c *gin.Context) (*gate.Claims, bool) {
	v, ok := c.Get(ctxClaims)
	if !ok {
		return nil, false
	}
	cl, ok := v.(*gate.Claims)
	return cl, ok && cl != nil
}

// RequestLogger logs one line per request with latency and status.
func RequestLogger(log *logrus.Entry) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
		}).Info("request")
	}
}

// CORS allows the configured frontend origins. Kept as a handful of
// header writes rather than a dependency.
func CORS(origins []string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[o] = true
	}
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" && (allowed[origin] || allowed["*"]) {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Credentials", "true")
			c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Authorization, Content-Type")
		}
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
