package jwt

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sign(t *testing.T, key *rsa.PrivateKey, claims Claims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
	require.NoError(t, err)
	return tok
}

func validClaims() Claims {
	return Claims{
		IdentityID:     42,
		Roles:          []string{"customer"},
		SessionPurpose: "access",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "identity",
			Audience:  jwt.ClaimStrings{"dairy"},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
}

func TestVerifyAccessToken(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	v := NewVerifier(&key.PublicKey, "identity", "dairy")

	claims, err := v.VerifyAccessToken(sign(t, key, validClaims()))
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.IdentityID)
	assert.True(t, claims.HasRole("customer"))
	assert.False(t, claims.HasAnyRole("admin", "super_admin"))

	wrongAud := validClaims()
	wrongAud.Audience = jwt.ClaimStrings{"other"}
	_, err = v.VerifyAccessToken(sign(t, key, wrongAud))
	assert.Error(t, err)

	expired := validClaims()
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
	_, err = v.VerifyAccessToken(sign(t, key, expired))
	assert.Error(t, err)

	refresh := validClaims()
	refresh.SessionPurpose = "refresh"
	_, err = v.VerifyAccessToken(sign(t, key, refresh))
	assert.Error(t, err)

	other, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	_, err = v.VerifyAccessToken(sign(t, other, validClaims()))
	assert.Error(t, err)
}

func TestParseRSAPublicKey(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	pub, err := ParseRSAPublicKey(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}))
	require.NoError(t, err)
	assert.True(t, key.PublicKey.Equal(pub))

	_, err = ParseRSAPublicKey([]byte("not a key"))
	assert.Error(t, err)
}
