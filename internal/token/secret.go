package token

import (
	"crypto/rand"
	"encoding/base64"
)

// SecretSize is the number of random bytes behind every refresh secret (512 bits).
const SecretSize = 64

// SecretLength is the encoded length of a refresh secret.
var SecretLength = base64.URLEncoding.EncodedLen(SecretSize)

// SecretGenerator produces opaque refresh secrets
type SecretGenerator interface {
	NewSecret() (string, error)
}

type randomSecretGenerator struct{}

// NewSecretGenerator returns a generator backed by crypto/rand
func NewSecretGenerator() SecretGenerator {
	return randomSecretGenerator{}
}

func (randomSecretGenerator) NewSecret() (string, error) {
	b := make([]byte, SecretSize)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
