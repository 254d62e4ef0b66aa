package authtest

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"

	"github.com/lestrrat-go/jwx/v2/jwk"
)

// PrivateJWK generates a fresh RSA key and returns it as JWK JSON, the
// format agent private keys are configured in.
func PrivateJWK(kid string) []byte {
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		panic("generate RSA key: " + err.Error())
	}
	key, err := jwk.FromRaw(priv)
	if err != nil {
		panic("wrap RSA key: " + err.Error())
	}
	_ = key.Set(jwk.KeyIDKey, kid)
	_ = key.Set(jwk.AlgorithmKey, "RS256")
	out, err := json.Marshal(key)
	if err != nil {
		panic("marshal JWK: " + err.Error())
	}
	return out
}
