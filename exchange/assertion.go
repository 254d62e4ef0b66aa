package exchange

import (
	"context"
	"errors"
	"fmt"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	jwtkit "github.com/rajeshkumar-okta/courtedge-ai-demo/jwt"
)

// assertionTTL keeps client assertions short-lived; they are minted per
// token-endpoint call, never reused.
const assertionTTL = 5 * time.Minute

// AssertionSigner mints the signed client assertions (private_key_jwt) that
// prove an agent's identity to a token endpoint. One signer per agent,
// backed by the agent's private JWK.
type AssertionSigner struct {
	clientID string
	signer   *jwtkit.RSASigner
}

// NewAssertionSigner builds a signer for the agent identified by clientID
// from its JWK-encoded RSA private key.
func NewAssertionSigner(clientID string, privateJWK []byte) (*AssertionSigner, error) {
	if clientID == "" {
		return nil, errors.New("exchange: assertion signer requires a client id")
	}
	s, err := jwtkit.NewRSASignerFromJWK(privateJWK, clientID)
	if err != nil {
		return nil, fmt.Errorf("exchange: %w", err)
	}
	return &AssertionSigner{clientID: clientID, signer: s}, nil
}

// ClientID returns the agent identity the assertions assert.
func (s *AssertionSigner) ClientID() string { return s.clientID }

// Assertion signs a fresh client assertion addressed to the given token
// endpoint. Issuer and subject are both the agent's client id per RFC 7523.
func (s *AssertionSigner) Assertion(ctx context.Context, tokenEndpoint string) (string, error) {
	base := jwtkit.BaseRegisteredClaims(s.clientID, []string{tokenEndpoint}, assertionTTL)
	claims := jwt.MapClaims{
		"iss": s.clientID,
		"sub": base.Subject,
		"aud": tokenEndpoint,
		"iat": base.IssuedAt.Unix(),
		"exp": base.ExpiresAt.Unix(),
		"jti": uuid.NewString(),
	}
	return s.signer.Sign(ctx, claims)
}
