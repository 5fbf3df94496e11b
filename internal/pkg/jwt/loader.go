// internal/pkg/jwt/loader.go
package jwt

import (
	"github.com/cockroachdb/errors"
)

type Config struct {
	PubPath  string
	Issuer   string
	Audience string
}

// LoadVerifier reads the identity service's public key and builds a verifier.
func LoadVerifier(cfg Config) (*Verifier, error) {
	pub, err := LoadRSAPublicKeyFromPEM(cfg.PubPath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load public key from %s", cfg.PubPath)
	}
	return NewVerifier(pub, cfg.Issuer, cfg.Audience), nil
}
