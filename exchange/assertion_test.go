package exchange_test

import (
	"context"
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/stretchr/testify/require"

	"github.com/rajeshkumar-okta/courtedge-ai-demo/exchange"
	authtest "github.com/rajeshkumar-okta/courtedge-ai-demo/testing"
)

func TestAssertionClaims(t *testing.T) {
	signer, err := exchange.NewAssertionSigner("client-abc", authtest.PrivateJWK("k1"))
	require.NoError(t, err)
	require.Equal(t, "client-abc", signer.ClientID())

	const endpoint = "https://acme.okta.com/oauth2/v1/token"
	raw, err := signer.Assertion(context.Background(), endpoint)
	require.NoError(t, err)

	tok, err := jwt.ParseString(raw, jwt.WithVerify(false), jwt.WithValidate(false))
	require.NoError(t, err)
	require.Equal(t, "client-abc", tok.Issuer())
	require.Equal(t, "client-abc", tok.Subject())
	require.Equal(t, []string{endpoint}, tok.Audience())
	require.NotEmpty(t, tok.JwtID())
	require.WithinDuration(t, time.Now().Add(5*time.Minute), tok.Expiration(), 30*time.Second)
}

func TestAssertionsCarryUniqueJTI(t *testing.T) {
	signer, err := exchange.NewAssertionSigner("client-abc", authtest.PrivateJWK("k1"))
	require.NoError(t, err)

	a1, err := signer.Assertion(context.Background(), "https://x/oauth2/v1/token")
	require.NoError(t, err)
	a2, err := signer.Assertion(context.Background(), "https://x/oauth2/v1/token")
	require.NoError(t, err)

	t1, err := jwt.ParseString(a1, jwt.WithVerify(false), jwt.WithValidate(false))
	require.NoError(t, err)
	t2, err := jwt.ParseString(a2, jwt.WithVerify(false), jwt.WithValidate(false))
	require.NoError(t, err)
	require.NotEqual(t, t1.JwtID(), t2.JwtID())
}

func TestAssertionSignerRejectsBadKey(t *testing.T) {
	_, err := exchange.NewAssertionSigner("client-abc", []byte("not json"))
	require.Error(t, err)
}
