package m2msdk

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/aussiebroadwan/m2mgate/pkg/cryptox"
)

// RefreshFraction of a token's lifetime after which a new one is fetched.
const RefreshFraction = 0.9

// TokenSource hands out access tokens for one set of client credentials.
// Tokens are shared through the owning Client's cache, so two sources with
// the same credentials reuse the same token.
type TokenSource struct {
	client       *Client
	clientID     string
	clientSecret string
	scopes       []string
	key          string

	now func() time.Time
}

// TokenSource returns a cached token source for the credentials.
func (c *Client) TokenSource(clientID, clientSecret string, scopes []string) *TokenSource {
	return &TokenSource{
		client:       c,
		clientID:     clientID,
		clientSecret: clientSecret,
		scopes:       scopes,
		key:          cacheKey(clientID, clientSecret, scopes),
		now:          time.Now,
	}
}

// Token returns a cached access token, requesting a new one when none is
// cached or 90% of its lifetime has elapsed.
func (ts *TokenSource) Token(ctx context.Context) (string, error) {
	e := ts.client.tokens().entry(ts.key)

	// Only callers with the same credentials wait on a fetch in flight.
	e.mu.Lock()
	defer e.mu.Unlock()

	now := ts.now()
	if e.accessToken != "" && now.Before(e.refreshAt) {
		return e.accessToken, nil
	}

	resp, err := ts.client.ClientCredentialsGrant(ctx, ts.clientID, ts.clientSecret, ts.scopes)
	if err != nil {
		e.accessToken = ""
		return "", err
	}

	lifetime := time.Duration(float64(resp.ExpiresIn) * RefreshFraction * float64(time.Second))
	e.accessToken = resp.AccessToken
	e.refreshAt = now.Add(lifetime)
	return resp.AccessToken, nil
}

// Invalidate drops the cached token, e.g. after an invalid_token response.
func (ts *TokenSource) Invalidate() {
	e := ts.client.tokens().entry(ts.key)
	e.mu.Lock()
	defer e.mu.Unlock()
	e.accessToken = ""
}

type cachedToken struct {
	mu          sync.Mutex
	accessToken string
	refreshAt   time.Time
}

// tokenCache maps credential fingerprints to entries. mu guards the map
// only; each entry has its own lock.
type tokenCache struct {
	mu      sync.Mutex
	entries map[string]*cachedToken
}

func newTokenCache() *tokenCache {
	return &tokenCache{entries: make(map[string]*cachedToken)}
}

func (c *tokenCache) entry(key string) *cachedToken {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		e = &cachedToken{}
		c.entries[key] = e
	}
	return e
}

// cacheKey fingerprints the credentials so the secret is never held as a
// map key.
func cacheKey(clientID, clientSecret string, scopes []string) string {
	return cryptox.Fingerprint(clientID, clientSecret, strings.Join(scopes, " "))
}
