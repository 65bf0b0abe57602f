package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/Strob0t/PropertyHub/internal/config"
	"github.com/Strob0t/PropertyHub/internal/domain"
	"github.com/Strob0t/PropertyHub/internal/domain/user"
)

// TokenIssuer signs and verifies HS256 access tokens.
type TokenIssuer struct {
	method   jwt.SigningMethod
	secret   []byte
	issuer   string
	audience string
	expiry   time.Duration
	now      func() time.Time // for testing
}

// NewTokenIssuer creates a TokenIssuer from the auth configuration.
func NewTokenIssuer(cfg config.Auth) *TokenIssuer {
	return &TokenIssuer{
		method:   jwt.SigningMethodHS256,
		secret:   []byte(cfg.JWTSecret),
		issuer:   cfg.Issuer,
		audience: cfg.Audience,
		expiry:   cfg.AccessTokenExpiry,
		now:      time.Now,
	}
}

// Expiry returns the lifetime of issued tokens.
func (t *TokenIssuer) Expiry() time.Duration {
	return t.expiry
}

// Issue signs an access token for u.
func (t *TokenIssuer) Issue(u *user.User) (string, error) {
	now := t.now()
	claims := user.TokenClaims{
		TenantID: u.TenantID,
		Email:    u.Email,
		Roles:    u.Roles,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   u.ID,
			Issuer:    t.issuer,
			Audience:  jwt.ClaimStrings{t.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.expiry)),
		},
	}
	signed, err := jwt.NewWithClaims(t.method, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks the signature, issuer, audience and expiry of raw and returns
// its claims. Every failure wraps domain.ErrIdentityUnresolved.
func (t *TokenIssuer) Verify(raw string) (*user.TokenClaims, error) {
	claims := &user.TokenClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (any, error) {
		if token.Method.Alg() != t.method.Alg() {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Method.Alg())
		}
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{t.method.Alg()}),
		jwt.WithIssuer(t.issuer),
		jwt.WithAudience(t.audience),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrIdentityUnresolved, err)
	}

	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: %w", domain.ErrIdentityUnresolved, errors.New("missing sub claim"))
	}
	if err := claims.Roles.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrIdentityUnresolved, err)
	}
	return claims, nil
}
