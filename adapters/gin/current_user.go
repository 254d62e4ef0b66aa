package authgin

import (
	"github.com/gin-gonic/gin"
)

// UserView is a unified snapshot of the caller for handlers, regardless
// of whether the gate verified a token, accepted a demo credential, or
// admitted anonymously.
type UserView struct {
	UserID string   `json:"user_id,omitempty"`
	Email  string   `json:"email,omitempty"`
	Name   string   `json:"name,omitempty"`
	Groups []string `json:"groups,omitempty"`

	// Source: "verified" | "demo" | "unverified" | "none"
	Source string `json:"source"`
}

// CurrentUser returns the caller snapshot. ok is false for anonymous
// requests.
func CurrentUser(c *gin.Context) (UserView, bool) {
	source := "none"
	if v, ok := c.Get(ctxSource); ok {
		if s, ok := v.(string); ok && s != "" {
			source = s
		}
	}

	if cl, ok := ClaimsFromGin(c); ok && cl.Subject != "" {
		return UserView{
			UserID: cl.Subject,
			Email:  cl.Email,
			Name:   cl.Name,
			Groups: cl.Groups,
			Source: source,
		}, true
	}

	return UserView{Source: source}, false
}
