package gate

import (
	"context"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwt"
)

// Claims is the identity context attached to a request after the gate
// admits it. For demo and unverified admits only Subject/Email/Name are
// populated; Groups come from the Okta groups claim when present.
type Claims struct {
	Subject  string
	Email    string
	Name     string
	Groups   []string
	Issuer   string
	Audience []string
	Expiry   time.Time
	Raw      map[string]any
}

// GetSubject returns the subject claim.
func (c *Claims) GetSubject() string { return c.Subject }

type ctxKey struct{}

// WithClaims attaches verified claims to ctx.
func WithClaims(ctx context.Context, c *Claims) context.Context {
	return context.WithValue(ctx, ctxKey{}, c)
}

// ClaimsFromContext reads claims previously attached by the gate.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(ctxKey{}).(*Claims)
	return c, ok && c != nil
}

// claimsFromToken extracts the fields we care about from a parsed token.
func claimsFromToken(tok jwt.Token) *Claims {
	c := &Claims{
		Subject:  tok.Subject(),
		Issuer:   tok.Issuer(),
		Audience: tok.Audience(),
		Expiry:   tok.Expiration(),
		Raw:      map[string]any{},
	}
	if raw, err := tok.AsMap(context.Background()); err == nil {
		c.Raw = raw
	}
	if rawEmail, ok := tok.Get("email"); ok {
		if email, ok := rawEmail.(string); ok {
			c.Email = email
		}
	}
	if rawName, ok := tok.Get("name"); ok {
		if name, ok := rawName.(string); ok {
			c.Name = name
		}
	}
	if rawGroups, ok := tok.Get("groups"); ok {
		c.Groups = toStringSlice(rawGroups)
	}
	return c
}

func toStringSlice(v any) []string {
	switch vv := v.(type) {
	case []string:
		return vv
	case []any:
		out := make([]string, 0, len(vv))
		for _, e := range vv {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
