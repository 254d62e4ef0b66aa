package jwtkit_test

import (
	"context"
	"net/http/httptest"
	"testing"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	jwtkit "github.com/rajeshkumar-okta/courtedge-ai-demo/jwt"
	authtest "github.com/rajeshkumar-okta/courtedge-ai-demo/testing"
)

func TestRSASignerSignAndVerify(t *testing.T) {
	signer, err := jwtkit.NewRSASigner(2048, "k1")
	require.NoError(t, err)
	require.Equal(t, "RS256", signer.Algorithm())

	raw, err := signer.Sign(context.Background(), jwt.MapClaims{"sub": "user-1"})
	require.NoError(t, err)

	tok, err := jwt.Parse(raw, func(tk *jwt.Token) (any, error) {
		return signer.PublicKey(), nil
	})
	require.NoError(t, err)
	require.True(t, tok.Valid)
	require.Equal(t, "k1", tok.Header["kid"])
}

func TestNewRSASignerFromJWK(t *testing.T) {
	signer, err := jwtkit.NewRSASignerFromJWK(authtest.PrivateJWK("agent-key"), "fallback")
	require.NoError(t, err)
	require.Equal(t, "agent-key", signer.KID())

	// fallback kid applies only when the JWK has none
	_, err = jwtkit.NewRSASignerFromJWK(nil, "fallback")
	require.Error(t, err)
	_, err = jwtkit.NewRSASignerFromJWK([]byte(`{"kty":"oct","k":"c2VjcmV0"}`), "fallback")
	require.Error(t, err)
}

func TestServeJWKSConditionalGet(t *testing.T) {
	signer, err := jwtkit.NewRSASigner(2048, "k1")
	require.NoError(t, err)
	ks := jwtkit.JWKS{Keys: []jwtkit.JWK{
		jwtkit.RSAPublicToJWK(signer.PublicKey(), signer.KID(), signer.Algorithm()),
	}}

	w := httptest.NewRecorder()
	jwtkit.ServeJWKS(w, httptest.NewRequest("GET", "/v1/keys", nil), ks)
	require.Equal(t, 200, w.Code)
	etag := w.Header().Get("ETag")
	require.NotEmpty(t, etag)

	req := httptest.NewRequest("GET", "/v1/keys", nil)
	req.Header.Set("If-None-Match", etag)
	w = httptest.NewRecorder()
	jwtkit.ServeJWKS(w, req, ks)
	require.Equal(t, 304, w.Code)
}
