package authtest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	jwxjwt "github.com/lestrrat-go/jwx/v2/jwt"

	jwtkit "github.com/rajeshkumar-okta/courtedge-ai-demo/jwt"
)

// ExchangeServer mocks an Okta org's token endpoints for the two-step
// delegated exchange: the org endpoint at /oauth2/v1/token issues identity
// assertions, and per-auth-server endpoints at /oauth2/{id}/v1/token trade
// them for scoped access tokens. Policy denials are simulated per auth
// server with DenyAuthServer.
type ExchangeServer struct {
	server *httptest.Server
	signer *jwtkit.RSASigner

	mu         sync.Mutex
	denied     map[string]bool
	orgCalls   int
	tokenCalls map[string]int
}

// NewExchangeServer starts a mock org. Call Close when done; URL() is the
// org domain to hand to the exchanger.
func NewExchangeServer() *ExchangeServer {
	signer, err := jwtkit.NewRSASigner(2048, "org-key-1")
	if err != nil {
		panic("failed to create RSA signer: " + err.Error())
	}
	es := &ExchangeServer{
		signer:     signer,
		denied:     map[string]bool{},
		tokenCalls: map[string]int{},
	}
	es.server = httptest.NewServer(http.HandlerFunc(es.route))
	return es
}

// URL returns the mock org's base URL.
func (es *ExchangeServer) URL() string {
	return es.server.URL
}

// Close shuts down the server.
func (es *ExchangeServer) Close() {
	es.server.Close()
}

// DenyAuthServer makes every exchange targeting the given auth server fail
// with access_denied, simulating an Okta policy with no matching rule.
func (es *ExchangeServer) DenyAuthServer(id string) {
	es.mu.Lock()
	defer es.mu.Unlock()
	es.denied[id] = true
}

// OrgCalls reports how many requests hit the org token endpoint.
func (es *ExchangeServer) OrgCalls() int {
	es.mu.Lock()
	defer es.mu.Unlock()
	return es.orgCalls
}

// AuthServerCalls reports how many requests hit a given auth server's
// token endpoint.
func (es *ExchangeServer) AuthServerCalls(id string) int {
	es.mu.Lock()
	defer es.mu.Unlock()
	return es.tokenCalls[id]
}

func (es *ExchangeServer) route(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		writeTokenError(w, http.StatusBadRequest, "invalid_request", "malformed form body")
		return
	}

	switch {
	case r.URL.Path == "/oauth2/v1/token":
		es.handleOrgToken(w, r)
	case strings.HasPrefix(r.URL.Path, "/oauth2/") && strings.HasSuffix(r.URL.Path, "/v1/token"):
		id := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/oauth2/"), "/v1/token")
		es.handleAuthServerToken(w, r, id)
	default:
		http.NotFound(w, r)
	}
}

// handleOrgToken issues an identity assertion for a user ID token. The
// assertion carries the user's sub, the requesting client's id, and the
// target auth server audience, so the step-2 handler can echo them back.
func (es *ExchangeServer) handleOrgToken(w http.ResponseWriter, r *http.Request) {
	es.mu.Lock()
	es.orgCalls++
	es.mu.Unlock()

	if r.PostFormValue("grant_type") != "urn:ietf:params:oauth:grant-type:token-exchange" {
		writeTokenError(w, http.StatusBadRequest, "unsupported_grant_type", "")
		return
	}
	subjectToken := r.PostFormValue("subject_token")
	if subjectToken == "" {
		writeTokenError(w, http.StatusBadRequest, "invalid_request", "subject_token required")
		return
	}
	audience := r.PostFormValue("audience")
	if id, ok := authServerFromAudience(audience); ok && es.isDenied(id) {
		writeTokenError(w, http.StatusBadRequest, "access_denied", "no_matching_policy")
		return
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"sub":       unverifiedSubject(subjectToken),
		"aud":       audience,
		"client_id": assertionIssuer(r.PostFormValue("client_assertion")),
		"scope":     r.PostFormValue("scope"),
		"iss":       es.server.URL,
		"iat":       now.Unix(),
		"exp":       now.Add(5 * time.Minute).Unix(),
	}
	jag, err := es.signer.Sign(context.Background(), claims)
	if err != nil {
		writeTokenError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}
	writeTokenResponse(w, map[string]any{
		"access_token":      jag,
		"issued_token_type": "urn:okta:params:oauth:token-type:id-jag",
		"token_type":        "N_A",
		"expires_in":        300,
	})
}

// handleAuthServerToken trades an identity assertion for a scoped access
// token whose sub is the user and whose act.sub is the agent client.
func (es *ExchangeServer) handleAuthServerToken(w http.ResponseWriter, r *http.Request, authServerID string) {
	es.mu.Lock()
	es.tokenCalls[authServerID]++
	es.mu.Unlock()

	if es.isDenied(authServerID) {
		writeTokenError(w, http.StatusBadRequest, "access_denied", "no_matching_policy")
		return
	}
	if r.PostFormValue("grant_type") != "urn:ietf:params:oauth:grant-type:jwt-bearer" {
		writeTokenError(w, http.StatusBadRequest, "unsupported_grant_type", "")
		return
	}
	assertion := r.PostFormValue("assertion")
	if assertion == "" {
		writeTokenError(w, http.StatusBadRequest, "invalid_request", "assertion required")
		return
	}

	tok, err := jwxjwt.ParseString(assertion, jwxjwt.WithVerify(false), jwxjwt.WithValidate(false))
	if err != nil {
		writeTokenError(w, http.StatusBadRequest, "invalid_grant", "assertion is not a JWT")
		return
	}
	agentID := ""
	if v, ok := tok.Get("client_id"); ok {
		agentID, _ = v.(string)
	}
	scope := r.PostFormValue("scope")

	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   tok.Subject(),
		"act":   map[string]any{"sub": agentID},
		"scp":   strings.Fields(scope),
		"iss":   es.server.URL + "/oauth2/" + authServerID,
		"iat":   now.Unix(),
		"exp":   now.Add(time.Hour).Unix(),
		"scope": scope,
	}
	access, err := es.signer.Sign(context.Background(), claims)
	if err != nil {
		writeTokenError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}
	writeTokenResponse(w, map[string]any{
		"access_token": access,
		"token_type":   "Bearer",
		"expires_in":   3600,
		"scope":        scope,
	})
}

func (es *ExchangeServer) isDenied(authServerID string) bool {
	es.mu.Lock()
	defer es.mu.Unlock()
	return es.denied[authServerID]
}

// authServerFromAudience extracts the auth server id from an audience of
// the form <domain>/oauth2/<id>.
func authServerFromAudience(audience string) (string, bool) {
	i := strings.LastIndex(audience, "/oauth2/")
	if i < 0 {
		return "", false
	}
	return audience[i+len("/oauth2/"):], true
}

func unverifiedSubject(raw string) string {
	tok, err := jwxjwt.ParseString(raw, jwxjwt.WithVerify(false), jwxjwt.WithValidate(false))
	if err != nil {
		return ""
	}
	return tok.Subject()
}

func assertionIssuer(raw string) string {
	if raw == "" {
		return ""
	}
	tok, err := jwxjwt.ParseString(raw, jwxjwt.WithVerify(false), jwxjwt.WithValidate(false))
	if err != nil {
		return ""
	}
	return tok.Issuer()
}

func writeTokenResponse(w http.ResponseWriter, body map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(body)
}

func writeTokenError(w http.ResponseWriter, status int, code, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":             code,
		"error_description": description,
	})
}
