// Package gate decides, per request, whether a bearer token admits the
// caller and what identity context to attach. Verification failures of any
// kind (bad signature, wrong issuer or audience, expired token, key fetch
// failure) collapse into a single rejection outcome.
package gate

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/sirupsen/logrus"
)

var (
	// ErrMissingAuthorization is returned when no bearer token is present
	// and the active mode does not admit anonymous callers.
	ErrMissingAuthorization = errors.New("gate: missing authorization")

	// ErrInvalidToken is the single rejection outcome for every
	// verification failure.
	ErrInvalidToken = errors.New("gate: invalid token")
)

// Mode is the admission policy, selected once at startup so the
// security-critical path can be audited in isolation.
type Mode int

const (
	// ModeOpen admits every request. Active when no issuer is configured;
	// tokens are decoded best-effort but never verified.
	ModeOpen Mode = iota
	// ModeDemoBypass verifies real tokens but honors reserved demo token
	// prefixes and admits missing-header requests anonymously.
	ModeDemoBypass
	// ModeVerified requires a token that passes signature, issuer, and
	// audience checks.
	ModeVerified
)

func (m Mode) String() string {
	switch m {
	case ModeOpen:
		return "open"
	case ModeDemoBypass:
		return "demo-bypass"
	default:
		return "verified"
	}
}

// ModeFor derives the admission mode from configuration: an empty issuer
// disables verification entirely (fail-open, intentional), a development
// environment enables the demo bypass, everything else is strict.
func ModeFor(issuer, env string) Mode {
	if strings.TrimSpace(issuer) == "" {
		return ModeOpen
	}
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "development", "dev", "local":
		return ModeDemoBypass
	}
	return ModeVerified
}

// Demo token prefixes reserved for the demo UI.
const (
	demoTokenPrefix = "demo-token"
	testTokenPrefix = "test-"
)

// IsDemoToken reports whether raw matches a reserved demo credential.
func IsDemoToken(raw string) bool {
	return strings.HasPrefix(raw, demoTokenPrefix) || strings.HasPrefix(raw, testTokenPrefix)
}

// Decision is the outcome of validating one request.
type Decision struct {
	// Identity is nil for anonymous admits.
	Identity *Claims
	// Source records how the identity was established:
	// "none", "demo", "unverified", or "verified".
	Source string
}

// Validator is the token validation gate. It is safe for concurrent use;
// the JWKS resolver is established lazily on first verification and shared
// across requests.
type Validator struct {
	mode     Mode
	issuer   string
	audience string
	jwksURL  string
	skew     time.Duration
	client   *http.Client
	log      *logrus.Entry

	initOnce sync.Once
	initErr  error
	cache    *jwk.Cache
	keySet   jwk.Set
}

// Option configures a Validator.
type Option func(*Validator)

// WithJWKSURL overrides the derived <issuer>/v1/keys endpoint.
func WithJWKSURL(u string) Option {
	return func(v *Validator) { v.jwksURL = u }
}

// WithAcceptableSkew tolerates clock drift when checking exp/nbf.
func WithAcceptableSkew(d time.Duration) Option {
	return func(v *Validator) { v.skew = d }
}

// WithHTTPClient sets the client used for JWKS fetches. The default
// carries a 10s timeout so a hung fetch rejects instead of stalling.
func WithHTTPClient(c *http.Client) Option {
	return func(v *Validator) { v.client = c }
}

// WithLogger sets the structured logger.
func WithLogger(log *logrus.Entry) Option {
	return func(v *Validator) { v.log = log }
}

// New builds a validator for the given mode. Issuer and audience are only
// consulted in verifying modes.
func New(mode Mode, issuer, audience string, opts ...Option) *Validator {
	v := &Validator{
		mode:     mode,
		issuer:   strings.TrimRight(issuer, "/"),
		audience: audience,
		skew:     30 * time.Second,
		client:   &http.Client{Timeout: 10 * time.Second},
		log:      logrus.NewEntry(logrus.StandardLogger()),
	}
	for _, opt := range opts {
		opt(v)
	}
	if v.jwksURL == "" && v.issuer != "" {
		v.jwksURL = v.issuer + "/v1/keys"
	}
	return v
}

// Mode returns the admission mode selected at startup.
func (v *Validator) Mode() Mode { return v.mode }

// Validate applies the gate to one Authorization header value. The header
// may be empty. On rejection the error is ErrMissingAuthorization or
// ErrInvalidToken; callers must not distinguish further.
func (v *Validator) Validate(ctx context.Context, authorization string) (Decision, error) {
	raw, ok := BearerFromHeader(authorization)
	if !ok {
		if v.mode == ModeVerified {
			return Decision{}, ErrMissingAuthorization
		}
		return Decision{Source: "none"}, nil
	}

	if v.mode == ModeOpen {
		// Verification disabled: admit anything, decode best-effort so
		// downstream handlers still see a subject when one is present.
		return Decision{Identity: unverifiedClaims(raw), Source: "unverified"}, nil
	}

	if v.mode == ModeDemoBypass && IsDemoToken(raw) {
		return Decision{Identity: demoClaims(), Source: "demo"}, nil
	}

	claims, err := v.verify(ctx, raw)
	if err != nil {
		v.log.WithError(err).Debug("token rejected")
		return Decision{}, ErrInvalidToken
	}
	return Decision{Identity: claims, Source: "verified"}, nil
}

func (v *Validator) verify(ctx context.Context, raw string) (*Claims, error) {
	set, err := v.keys(ctx)
	if err != nil {
		return nil, err
	}
	tok, err := jwt.ParseString(
		raw,
		jwt.WithKeySet(set),
		jwt.WithValidate(true),
		jwt.WithIssuer(v.issuer),
		jwt.WithAudience(v.audience),
		jwt.WithAcceptableSkew(v.skew),
		jwt.WithContext(ctx),
	)
	if err != nil {
		return nil, err
	}
	return claimsFromToken(tok), nil
}

// keys lazily registers the JWKS endpoint with a refreshing cache. The
// cache deduplicates concurrent fetches, so two cold-start requests share
// one upstream call.
func (v *Validator) keys(ctx context.Context) (jwk.Set, error) {
	v.initOnce.Do(func() {
		cache := jwk.NewCache(context.Background())
		if err := cache.Register(
			v.jwksURL,
			jwk.WithMinRefreshInterval(15*time.Minute),
			jwk.WithHTTPClient(v.client),
		); err != nil {
			v.initErr = err
			return
		}
		v.cache = cache
		v.keySet = jwk.NewCachedSet(cache, v.jwksURL)
	})
	if v.initErr != nil {
		return nil, v.initErr
	}
	// Force a fetch so a dead endpoint fails this request instead of
	// surfacing later as a signature mismatch.
	if _, err := v.cache.Get(ctx, v.jwksURL); err != nil {
		return nil, err
	}
	return v.keySet, nil
}

// BearerFromHeader extracts the bearer token from an Authorization
// header value.
func BearerFromHeader(authorization string) (string, bool) {
	s := strings.TrimSpace(authorization)
	if s == "" {
		return "", false
	}
	const prefix = "bearer "
	if len(s) <= len(prefix) || !strings.EqualFold(s[:len(prefix)], prefix) {
		return "", false
	}
	tok := strings.TrimSpace(s[len(prefix):])
	return tok, tok != ""
}

func demoClaims() *Claims {
	return &Claims{
		Subject: "demo-user",
		Email:   "demo@courtedge.example",
		Name:    "Demo User",
	}
}

// unverifiedClaims decodes a token without verification. Only used in
// ModeOpen where the deployment has explicitly disabled verification.
func unverifiedClaims(raw string) *Claims {
	tok, err := jwt.ParseString(raw, jwt.WithVerify(false), jwt.WithValidate(false))
	if err != nil {
		return nil
	}
	return claimsFromToken(tok)
}
