package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aussiebroadwan/m2mgate/internal/gateway/domain"
	"github.com/aussiebroadwan/m2mgate/internal/gateway/registry"
	"github.com/aussiebroadwan/m2mgate/pkg/jwtx"
	"github.com/aussiebroadwan/m2mgate/pkg/slogx"
)

// GrantTypeClientCredentials is the only grant the gateway issues tokens for.
const GrantTypeClientCredentials = "client_credentials"

// ClientAuthenticator checks client credentials. *registry.Registry
// implements it.
type ClientAuthenticator interface {
	Authenticate(clientID, secret string) (domain.Client, error)
}

// TokenRequest is a parsed client_credentials token request.
type TokenRequest struct {
	GrantType    string
	ClientID     string
	ClientSecret string
	Scopes       []string
}

// Token is an issued access token.
type Token struct {
	AccessToken string
	ExpiresIn   int
	Scopes      []string
	Claims      jwtx.Claims
}

// Scope is the granted scopes joined by spaces.
func (t *Token) Scope() string { return strings.Join(t.Scopes, " ") }

// TokenService issues access tokens. Bearer verification happens in
// httpx.AuthnMiddleware and httpx.RequireScope.
type TokenService struct {
	Clients   ClientAuthenticator
	Signer    jwtx.Signer
	Issuer    string
	AccessTTL time.Duration

	// Now defaults to time.Now.
	Now func() time.Time
}

func (s *TokenService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *TokenService) ttl() time.Duration {
	if s.AccessTTL <= 0 {
		return jwtx.DefaultAccessTokenTTL
	}
	return s.AccessTTL
}

// IssueToken implements the client_credentials grant:
//
//  1. only client_credentials is accepted
//  2. client_id and client_secret must both be present
//  3. the client authenticates in constant time
//  4. requested scopes are intersected with the allowed set; no request
//     means the full allowed set, an empty intersection is invalid_scope
//  5. an HS256 access token is signed
func (s *TokenService) IssueToken(ctx context.Context, req TokenRequest) (*Token, error) {
	l := slogx.FromContext(ctx)

	if req.GrantType != GrantTypeClientCredentials {
		l.Warn("token request denied", "reason", "unsupported_grant_type", "grant_type", req.GrantType)
		return nil, ErrUnsupportedGrantType
	}

	clientID := strings.TrimSpace(req.ClientID)
	if clientID == "" || req.ClientSecret == "" {
		l.Warn("token request denied", "reason", "missing_credentials")
		return nil, fmt.Errorf("%w: client_id and client_secret are required", ErrInvalidRequest)
	}

	client, err := s.Clients.Authenticate(clientID, req.ClientSecret)
	if err != nil {
		if errors.Is(err, registry.ErrInvalidClient) {
			l.Warn("token request denied", "reason", "invalid_client", slog.String("client_id", clientID))
			return nil, ErrInvalidClient
		}
		return nil, err
	}

	requested := dedupe(req.Scopes)
	granted := client.Scopes
	if len(requested) > 0 {
		granted = intersectScopes(requested, client.Scopes)
		if len(granted) == 0 {
			l.Warn("token request denied",
				"reason", "invalid_scope",
				"client_id", client.ID,
				"requested", requested,
			)
			return nil, ErrInvalidScope
		}
	}
	granted = dedupe(granted)

	if err := s.Signer.Validate(); err != nil {
		l.Error("token signing unavailable", "err", err)
		return nil, fmt.Errorf("%w: %v", ErrServerMisconfigured, err)
	}

	ttl := s.ttl()
	claims := jwtx.NewAccessClaims(client.ID, granted, ttl, s.Issuer, s.now())
	signed, err := s.Signer.Sign(claims)
	if err != nil {
		if errors.Is(err, jwtx.ErrNoSecret) {
			return nil, fmt.Errorf("%w: %v", ErrServerMisconfigured, err)
		}
		return nil, fmt.Errorf("sign access token: %w", err)
	}

	l.Info("access token issued",
		"client_id", client.ID,
		"scopes", granted,
		"jti", claims.ID,
		"expires_in", int(ttl.Seconds()),
	)

	return &Token{
		AccessToken: signed,
		ExpiresIn:   int(ttl.Seconds()),
		Scopes:      granted,
		Claims:      claims,
	}, nil
}


func intersectScopes(a, b []string) []string {
	set := map[string]struct{}{}
	for _, s := range b {
		set[s] = struct{}{}
	}
	var out []string
	for _, s := range a {
		if _, ok := set[s]; ok {
			out = append(out, s)
		}
	}
	return dedupe(out)
}

func dedupe(in []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
