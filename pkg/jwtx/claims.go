package jwtx

import (
	"slices"
	"time"

	"github.com/aussiebroadwan/m2mgate/pkg/idx"
	"github.com/golang-jwt/jwt/v5"
)

// DefaultAccessTokenTTL is the lifetime of client-credentials access tokens.
const DefaultAccessTokenTTL = time.Hour

// TokenTypeAccess is the only token_type the gateway accepts.
const TokenTypeAccess = "access_token"

// Claims are the access-token claims minted for M2M clients.
type Claims struct {
	jwt.RegisteredClaims

	// ClientID of the authenticated client, duplicated in sub.
	ClientID string `json:"client_id"`

	// Permission scopes, e.g. "customers:read".
	Scopes []string `json:"scopes"`

	TokenType string `json:"token_type"`
}

// NewAccessClaims builds claims for a client-credentials token issued at now.
func NewAccessClaims(clientID string, scopes []string, ttl time.Duration, issuer string, now time.Time) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   clientID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        NewJTI(),
		},
		ClientID:  clientID,
		Scopes:    scopes,
		TokenType: TokenTypeAccess,
	}
}

// NewJTI returns a unique identifier for the "jti" claim.
func NewJTI() string {
	return idx.New().String()
}

// HasScope reports whether the token carries scope.
func (c *Claims) HasScope(scope string) bool {
	return slices.Contains(c.Scopes, scope)
}

// ValidateIssuer checks if the issuer matches expected value.
func (c *Claims) ValidateIssuer(expected string) error {
	if expected == "" {
		return nil
	}
	if c.Issuer != expected {
		return ErrIssuer
	}
	return nil
}

// ValidateExpiryAt ensures the token is not expired at now. Tokens without
// exp are rejected.
func (c *Claims) ValidateExpiryAt(now time.Time) error {
	if c.ExpiresAt == nil || !now.Before(c.ExpiresAt.Time) {
		return ErrExpired
	}
	if c.IssuedAt != nil && !c.ExpiresAt.After(c.IssuedAt.Time) {
		return ErrInvalidClaim
	}
	return nil
}

// ValidateType requires token_type to be "access_token".
func (c *Claims) ValidateType() error {
	if c.TokenType != TokenTypeAccess {
		return ErrTokenType
	}
	return nil
}
