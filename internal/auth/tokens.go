// Package auth issues and verifies bearer tokens that identify API callers.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"creator-trends/internal/config"
	"creator-trends/internal/storage"
)

var (
	// ErrInvalidToken covers malformed, expired or wrongly signed tokens.
	ErrInvalidToken = errors.New("invalid token")
	// ErrNoSecret means tokens cannot be signed because no secret is configured.
	ErrNoSecret = errors.New("auth.jwt_secret is not configured")
)

// DevIdentity is the fixed caller used in development mode.
var DevIdentity = storage.Identity{
	UID:         "dev-user-123",
	Email:       "dev@creator-trends.local",
	DisplayName: "Development User",
	PhotoURL:    "https://via.placeholder.com/150",
	Verified:    true,
}

type identityClaims struct {
	Email         string `json:"email,omitempty"`
	Name          string `json:"name,omitempty"`
	Picture       string `json:"picture,omitempty"`
	EmailVerified bool   `json:"email_verified,omitempty"`
	jwt.RegisteredClaims
}

// Tokens signs and verifies HS256 identity tokens.
type Tokens struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewTokens constructs a token authority from auth settings.
func NewTokens(cfg config.AuthConfig) *Tokens {
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &Tokens{
		secret: []byte(cfg.JWTSecret),
		issuer: cfg.Issuer,
		ttl:    ttl,
		now:    time.Now,
	}
}

// Issue returns a signed token whose subject is ident.UID.
func (t *Tokens) Issue(ident storage.Identity) (string, error) {
	if len(t.secret) == 0 {
		return "", ErrNoSecret
	}
	if strings.TrimSpace(ident.UID) == "" {
		return "", errors.New("uid is required")
	}

	now := t.now()
	claims := identityClaims{
		Email:         ident.Email,
		Name:          ident.DisplayName,
		Picture:       ident.PhotoURL,
		EmailVerified: ident.Verified,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    t.issuer,
			Subject:   ident.UID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify parses raw and returns the identity it carries.
func (t *Tokens) Verify(raw string) (storage.Identity, error) {
	if len(t.secret) == 0 {
		return storage.Identity{}, fmt.Errorf("%w: no signing secret configured", ErrInvalidToken)
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	}
	if t.issuer != "" {
		opts = append(opts, jwt.WithIssuer(t.issuer))
	}

	var claims identityClaims
	if _, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (interface{}, error) {
		return t.secret, nil
	}, opts...); err != nil {
		return storage.Identity{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return storage.Identity{}, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}

	displayName := claims.Name
	if displayName == "" {
		displayName = claims.Email
	}
	return storage.Identity{
		UID:         claims.Subject,
		Email:       claims.Email,
		DisplayName: displayName,
		PhotoURL:    claims.Picture,
		Verified:    claims.EmailVerified,
	}, nil
}
