// Package exchange implements the two-step delegated token acquisition
// used by the AI agents: a user's ID token plus the agent's signed client
// assertion buys a short-lived identity assertion (ID-JAG) from the org
// token endpoint, and that assertion buys a scoped access token from the
// agent's resource authorization server. Access denial by policy is a
// normal outcome, not an error.
package exchange

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/sirupsen/logrus"
)

// OAuth token exchange protocol identifiers.
const (
	GrantTokenExchange  = "urn:ietf:params:oauth:grant-type:token-exchange"
	GrantJWTBearer      = "urn:ietf:params:oauth:grant-type:jwt-bearer"
	ClientAssertionType = "urn:ietf:params:oauth:client-assertion-type:jwt-bearer"
	TokenTypeIDToken    = "urn:ietf:params:oauth:token-type:id_token"
	TokenTypeIDJAG      = "urn:okta:params:oauth:token-type:id-jag"
)

// expiryMargin shaves the cache TTL so a token never expires mid-call.
const expiryMargin = 60 * time.Second

// Delegation names the agent performing an exchange and the resource it
// wants scoped access to. A nil Signer puts the delegation in demo mode.
type Delegation struct {
	AgentID      string
	Signer       *AssertionSigner
	AuthServerID string
	Audience     string
	Scopes       []string
}

// Result is the outcome of one two-step exchange. AccessDenied reports a
// policy denial; Success and AccessDenied are never both set.
type Result struct {
	Success      bool      `json:"success"`
	AccessDenied bool      `json:"access_denied"`
	DemoMode     bool      `json:"demo_mode"`
	Cached       bool      `json:"cached,omitempty"`
	AccessToken  string    `json:"-"`
	TokenType    string    `json:"token_type,omitempty"`
	ExpiresIn    int       `json:"expires_in,omitempty"`
	Scopes       []string  `json:"scopes"`
	Requested    []string  `json:"requested_scopes"`
	AgentID      string    `json:"agent_id,omitempty"`
	AuthServerID string    `json:"auth_server,omitempty"`
	Audience     string    `json:"audience,omitempty"`
	AgentSubject string    `json:"agent_subject,omitempty"`
	UserSubject  string    `json:"user_subject,omitempty"`
	ErrorCode    string    `json:"error_code,omitempty"`
	Err          string    `json:"error,omitempty"`
	ExchangedAt  time.Time `json:"exchanged_at"`
}

// Exchanger performs delegated token exchanges against one org. Safe for
// concurrent use.
type Exchanger struct {
	domain           string
	mainAuthServerID string
	client           *http.Client
	cache            TokenCache
	log              *logrus.Entry
	now              func() time.Time
}

// Option configures an Exchanger.
type Option func(*Exchanger)

// WithHTTPClient sets the client used against the token endpoints.
func WithHTTPClient(c *http.Client) Option {
	return func(e *Exchanger) { e.client = c }
}

// WithTokenCache enables reuse of scoped tokens within their lifetime.
func WithTokenCache(c TokenCache) Option {
	return func(e *Exchanger) { e.cache = c }
}

// WithLogger sets the structured logger.
func WithLogger(log *logrus.Entry) Option {
	return func(e *Exchanger) { e.log = log }
}

// New builds an exchanger for the given org domain. An empty domain leaves
// every exchange in demo mode. mainAuthServerID defaults to "default".
func New(domain, mainAuthServerID string, opts ...Option) *Exchanger {
	d := strings.TrimRight(strings.TrimSpace(domain), "/")
	if d != "" && !strings.HasPrefix(d, "http") {
		d = "https://" + d
	}
	if mainAuthServerID == "" {
		mainAuthServerID = "default"
	}
	e := &Exchanger{
		domain:           d,
		mainAuthServerID: mainAuthServerID,
		client:           &http.Client{Timeout: 15 * time.Second},
		log:              logrus.NewEntry(logrus.StandardLogger()),
		now:              time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// orgTokenEndpoint is where ID tokens are traded for ID-JAG assertions.
func (e *Exchanger) orgTokenEndpoint() string {
	return e.domain + "/oauth2/v1/token"
}

// authServerTokenEndpoint is the per-resource endpoint for step 2.
func (e *Exchanger) authServerTokenEndpoint(authServerID string) string {
	return e.domain + "/oauth2/" + authServerID + "/v1/token"
}

// Exchange runs the full delegation for one agent: Step 1 trades the
// user's ID token for an ID-JAG assertion scoped to the agent's auth
// server; Step 2 trades the assertion for a scoped access token.
func (e *Exchanger) Exchange(ctx context.Context, d Delegation, userIDToken string) Result {
	scopes := append([]string(nil), d.Scopes...)
	if e.domain == "" || d.Signer == nil || strings.HasPrefix(userIDToken, "demo-token") {
		return e.demoResult(d, scopes)
	}

	log := e.log.WithFields(logrus.Fields{"agent": d.AgentID, "auth_server": d.AuthServerID})

	cacheKey := d.AgentID + ":" + d.Audience + ":" + strings.Join(scopes, " ")
	if e.cache != nil {
		if tok, ok, err := e.cache.Get(ctx, cacheKey); err == nil && ok && tok.ExpiresAt.After(e.now()) {
			return Result{
				Success:      true,
				Cached:       true,
				AccessToken:  tok.AccessToken,
				TokenType:    tok.TokenType,
				ExpiresIn:    int(time.Until(tok.ExpiresAt) / time.Second),
				Scopes:       tok.Scopes,
				Requested:    scopes,
				AgentID:      d.AgentID,
				AuthServerID: d.AuthServerID,
				Audience:     d.Audience,
				ExchangedAt:  e.now(),
			}
		}
	}

	scopeString := strings.Join(scopes, " ")
	jagAudience := e.domain + "/oauth2/" + d.AuthServerID

	// Step 1: delegation assertion request.
	orgEndpoint := e.orgTokenEndpoint()
	assertion, err := d.Signer.Assertion(ctx, orgEndpoint)
	if err != nil {
		return e.errorResult(d, scopes, fmt.Sprintf("sign client assertion: %v", err))
	}
	form := url.Values{
		"grant_type":            {GrantTokenExchange},
		"requested_token_type":  {TokenTypeIDJAG},
		"subject_token":         {userIDToken},
		"subject_token_type":    {TokenTypeIDToken},
		"audience":              {jagAudience},
		"scope":                 {scopeString},
		"client_assertion_type": {ClientAssertionType},
		"client_assertion":      {assertion},
	}
	jag, terr, err := e.postForm(ctx, orgEndpoint, form)
	if err != nil {
		return e.errorResult(d, scopes, err.Error())
	}
	if terr != nil {
		if terr.denied() {
			log.WithField("scopes", scopeString).Info("delegation denied by policy")
			return e.deniedResult(d, scopes, terr)
		}
		return e.errorResult(d, scopes, terr.String())
	}

	// Step 2: scoped access request against the agent's auth server.
	resourceEndpoint := e.authServerTokenEndpoint(d.AuthServerID)
	assertion, err = d.Signer.Assertion(ctx, resourceEndpoint)
	if err != nil {
		return e.errorResult(d, scopes, fmt.Sprintf("sign client assertion: %v", err))
	}
	form = url.Values{
		"grant_type":            {GrantJWTBearer},
		"assertion":             {jag.AccessToken},
		"scope":                 {scopeString},
		"client_assertion_type": {ClientAssertionType},
		"client_assertion":      {assertion},
	}
	tok, terr, err := e.postForm(ctx, resourceEndpoint, form)
	if err != nil {
		return e.errorResult(d, scopes, err.Error())
	}
	if terr != nil {
		if terr.denied() {
			log.WithField("scopes", scopeString).Info("scoped access denied by policy")
			return e.deniedResult(d, scopes, terr)
		}
		return e.errorResult(d, scopes, terr.String())
	}

	granted := scopes
	if tok.Scope != "" {
		granted = strings.Fields(tok.Scope)
	}
	userSub, agentSub := DualIdentity(tok.AccessToken)
	res := Result{
		Success:      true,
		AccessToken:  tok.AccessToken,
		TokenType:    orBearer(tok.TokenType),
		ExpiresIn:    tok.ExpiresIn,
		Scopes:       granted,
		Requested:    scopes,
		AgentID:      d.AgentID,
		AuthServerID: d.AuthServerID,
		Audience:     d.Audience,
		AgentSubject: agentSub,
		UserSubject:  userSub,
		ExchangedAt:  e.now(),
	}
	log.WithFields(logrus.Fields{"expires_in": tok.ExpiresIn, "scopes": granted}).Info("token exchange complete")

	if e.cache != nil && tok.ExpiresIn > int(expiryMargin/time.Second) {
		ttl := time.Duration(tok.ExpiresIn)*time.Second - expiryMargin
		cached := CachedToken{
			AccessToken: tok.AccessToken,
			TokenType:   res.TokenType,
			Scopes:      granted,
			ExpiresAt:   e.now().Add(ttl),
		}
		if err := e.cache.Put(ctx, cacheKey, cached, ttl); err != nil {
			log.WithError(err).Warn("token cache put failed")
		}
	}
	return res
}

// DualIdentity decodes a scoped access token and returns both parties it
// attributes the call to: the delegating user (sub) and the acting agent
// (act.sub, falling back to azp/cid). Empty strings when the token is
// opaque or the claims are absent; signature verification is the
// downstream API's job, not the caller's.
func DualIdentity(raw string) (userSubject, agentSubject string) {
	tok, err := jwt.ParseString(raw, jwt.WithVerify(false), jwt.WithValidate(false))
	if err != nil {
		return "", ""
	}
	userSubject = tok.Subject()
	if rawAct, ok := tok.Get("act"); ok {
		if act, ok := rawAct.(map[string]any); ok {
			if sub, ok := act["sub"].(string); ok {
				agentSubject = sub
			}
		}
	}
	if agentSubject == "" {
		for _, claim := range []string{"azp", "cid"} {
			if v, ok := tok.Get(claim); ok {
				if s, ok := v.(string); ok && s != "" {
					agentSubject = s
					break
				}
			}
		}
	}
	return userSubject, agentSubject
}

type tokenResponse struct {
	AccessToken     string `json:"access_token"`
	IssuedTokenType string `json:"issued_token_type"`
	TokenType       string `json:"token_type"`
	ExpiresIn       int    `json:"expires_in"`
	Scope           string `json:"scope"`
}

type tokenError struct {
	Code        string `json:"error"`
	Description string `json:"error_description"`
	status      int
}

func (t *tokenError) String() string {
	if t.Description == "" {
		return t.Code
	}
	return t.Code + ": " + t.Description
}

// denied reports policy denials, which callers treat as a normal outcome.
func (t *tokenError) denied() bool {
	s := strings.ToLower(t.Code + " " + t.Description)
	return strings.Contains(s, "access_denied") || strings.Contains(s, "no_matching_policy")
}

func (e *Exchanger) postForm(ctx context.Context, endpoint string, form url.Values) (*tokenResponse, *tokenError, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("token endpoint unreachable: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, nil, err
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		var tok tokenResponse
		if err := json.Unmarshal(body, &tok); err != nil {
			return nil, nil, fmt.Errorf("malformed token response: %w", err)
		}
		if tok.AccessToken == "" {
			return nil, nil, errors.New("token response missing access_token")
		}
		return &tok, nil, nil
	}

	var terr tokenError
	if err := json.Unmarshal(body, &terr); err != nil || terr.Code == "" {
		return nil, nil, fmt.Errorf("token endpoint returned %s", resp.Status)
	}
	terr.status = resp.StatusCode
	return nil, &terr, nil
}

func (e *Exchanger) demoResult(d Delegation, scopes []string) Result {
	now := e.now()
	return Result{
		Success:      true,
		DemoMode:     true,
		AccessToken:  fmt.Sprintf("demo-%s-token-%d", d.AgentID, now.Unix()),
		TokenType:    "Bearer",
		ExpiresIn:    3600,
		Scopes:       scopes,
		Requested:    scopes,
		AgentID:      d.AgentID,
		AuthServerID: d.AuthServerID,
		Audience:     d.Audience,
		ExchangedAt:  now,
	}
}

func (e *Exchanger) deniedResult(d Delegation, scopes []string, terr *tokenError) Result {
	return Result{
		AccessDenied: true,
		Requested:    scopes,
		Scopes:       []string{},
		AgentID:      d.AgentID,
		AuthServerID: d.AuthServerID,
		Audience:     d.Audience,
		ErrorCode:    "access_denied",
		Err:          "access denied for scope(s): " + strings.Join(scopes, ", "),
		ExchangedAt:  e.now(),
	}
}

func (e *Exchanger) errorResult(d Delegation, scopes []string, msg string) Result {
	e.log.WithField("agent", d.AgentID).WithField("error", msg).Error("token exchange failed")
	return Result{
		Requested:    scopes,
		Scopes:       []string{},
		AgentID:      d.AgentID,
		AuthServerID: d.AuthServerID,
		Audience:     d.Audience,
		Err:          msg,
		ExchangedAt:  e.now(),
	}
}

func orBearer(t string) string {
	if t == "" {
		return "Bearer"
	}
	return t
}
