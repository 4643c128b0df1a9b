package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"creator-trends/internal/config"
	"creator-trends/internal/storage"
)

func testTokens() *Tokens {
	return NewTokens(config.AuthConfig{JWTSecret: "secret", Issuer: "creator-trends", TokenTTL: time.Hour})
}

func TestIssueThenVerify(t *testing.T) {
	tokens := testTokens()
	raw, err := tokens.Issue(storage.Identity{UID: "u1", Email: "a@b.c", Verified: true})
	require.NoError(t, err)

	ident, err := tokens.Verify(raw)
	require.NoError(t, err)
	assert.Equal(t, "u1", ident.UID)
	assert.Equal(t, "a@b.c", ident.DisplayName, "display name falls back to email")
	assert.True(t, ident.Verified)
}

func TestVerifyRejectsExpired(t *testing.T) {
	tokens := testTokens()
	raw, err := tokens.Issue(storage.Identity{UID: "u1"})
	require.NoError(t, err)

	tokens.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = tokens.Verify(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsWrongSecretAndIssuer(t *testing.T) {
	other := NewTokens(config.AuthConfig{JWTSecret: "other", Issuer: "creator-trends"})
	raw, err := other.Issue(storage.Identity{UID: "u1"})
	require.NoError(t, err)
	_, err = testTokens().Verify(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)

	foreign := NewTokens(config.AuthConfig{JWTSecret: "secret", Issuer: "someone-else"})
	raw, err = foreign.Issue(storage.Identity{UID: "u1"})
	require.NoError(t, err)
	_, err = testTokens().Verify(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsNoneAlgorithm(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Subject:   "u1",
		Issuer:    "creator-trends",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	raw, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = testTokens().Verify(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestIssueRequiresSecret(t *testing.T) {
	_, err := NewTokens(config.AuthConfig{}).Issue(storage.Identity{UID: "u1"})
	assert.ErrorIs(t, err, ErrNoSecret)
}
