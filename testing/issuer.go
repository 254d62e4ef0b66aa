// Package authtest provides utilities for testing code that validates Okta
// tokens or performs delegated token exchange. It runs mock HTTP servers so
// integration tests never need a real Okta org.
//
// Example usage:
//
//	issuer := authtest.NewIssuer()
//	defer issuer.Close()
//
//	v := gate.New(gate.ModeVerified, issuer.URL(), issuer.Audience())
//	token := issuer.CreateToken("user-123", "test@example.com")
package authtest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	jwtkit "github.com/rajeshkumar-okta/courtedge-ai-demo/jwt"
)

// Issuer is a mock identity provider. It serves its public key at both
// /.well-known/jwks.json and /v1/keys, matching the path Okta org
// authorization servers use, and signs tokens that validate against it.
type Issuer struct {
	server   *httptest.Server
	signer   *jwtkit.RSASigner
	audience string
}

// NewIssuer creates a mock issuer with a fresh RSA key pair.
// Call Close when done.
func NewIssuer() *Issuer {
	return NewIssuerWithAudience("api://default")
}

// NewIssuerWithAudience creates a mock issuer with a specific audience claim.
func NewIssuerWithAudience(audience string) *Issuer {
	signer, err := jwtkit.NewRSASigner(2048, "test-key-1")
	if err != nil {
		panic("failed to create RSA signer: " + err.Error())
	}

	ti := &Issuer{
		signer:   signer,
		audience: audience,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/.well-known/jwks.json", ti.handleJWKS)
	mux.HandleFunc("/v1/keys", ti.handleJWKS)

	ti.server = httptest.NewServer(mux)
	return ti
}

// URL returns the base URL of the issuer server. Use it as the issuer in
// validator configuration.
func (ti *Issuer) URL() string {
	return ti.server.URL
}

// Audience returns the audience this issuer stamps into tokens.
func (ti *Issuer) Audience() string {
	return ti.audience
}

// Close shuts down the server.
func (ti *Issuer) Close() {
	if ti.server != nil {
		ti.server.Close()
	}
}

func (ti *Issuer) handleJWKS(w http.ResponseWriter, r *http.Request) {
	jwk := jwtkit.RSAPublicToJWK(ti.signer.PublicKey(), ti.signer.KID(), ti.signer.Algorithm())
	ks := jwtkit.JWKS{Keys: []jwtkit.JWK{jwk}}
	jwtkit.ServeJWKS(w, r, ks)
}

// CreateToken creates a signed ID token that validates against this issuer.
func (ti *Issuer) CreateToken(userID, email string) string {
	return ti.CreateTokenWithClaims(userID, email, nil)
}

// CreateTokenWithClaims creates a signed token with additional claims merged
// over the standard set (sub, email, iss, aud, exp, iat).
func (ti *Issuer) CreateTokenWithClaims(userID, email string, extraClaims map[string]any) string {
	now := time.Now()

	claims := jwt.MapClaims{
		"sub":   userID,
		"email": email,
		"iss":   ti.URL(),
		"aud":   ti.audience,
		"exp":   now.Add(time.Hour).Unix(),
		"iat":   now.Unix(),
	}
	for k, v := range extraClaims {
		claims[k] = v
	}

	token, err := ti.signer.Sign(context.Background(), claims)
	if err != nil {
		panic("failed to sign token: " + err.Error())
	}
	return token
}

// CreateTokenWithGroups creates a signed token carrying a groups claim.
func (ti *Issuer) CreateTokenWithGroups(userID, email string, groups []string) string {
	return ti.CreateTokenWithClaims(userID, email, map[string]any{
		"groups": groups,
	})
}

// CreateExpiredToken creates a token that expired an hour ago. Useful for
// testing expiry handling.
func (ti *Issuer) CreateExpiredToken(userID, email string) string {
	return ti.CreateTokenWithClaims(userID, email, map[string]any{
		"exp": time.Now().Add(-time.Hour).Unix(),
	})
}
