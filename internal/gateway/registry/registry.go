// Package registry holds the statically configured OAuth2 clients. A
// Registry is built once at startup and never mutated.
package registry

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/aussiebroadwan/m2mgate/internal/gateway/domain"
	"github.com/aussiebroadwan/m2mgate/pkg/cryptox"
)

var (
	// ErrInvalidClient is returned for unknown ids and wrong secrets alike.
	ErrInvalidClient = errors.New("registry: invalid client")

	ErrInvalidEntry = errors.New("registry: invalid client entry")
)

// dummySecret is compared against when the client id is unknown.
var dummySecret = cryptox.MustGenerateSecret(cryptox.SecretSize)

type Registry struct {
	clients map[string]domain.Client

	// dummyHash is set when any entry stores an Argon2id hash. Paths that
	// would otherwise skip Argon2id verify against it instead.
	dummyHash string
	verify    func(secret, encodedHash string) error
}

// New validates and copies clients into an immutable registry.
func New(clients []domain.Client) (*Registry, error) {
	m := make(map[string]domain.Client, len(clients))
	hashed := false
	for _, c := range clients {
		c.ID = strings.TrimSpace(c.ID)
		if c.ID == "" {
			return nil, fmt.Errorf("%w: empty client id", ErrInvalidEntry)
		}
		if _, dup := m[c.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate client id %q", ErrInvalidEntry, c.ID)
		}
		if c.Secret == "" && c.SecretHash == "" {
			return nil, fmt.Errorf("%w: client %q has no secret", ErrInvalidEntry, c.ID)
		}
		if c.SecretHash != "" && !cryptox.IsSecretHash(c.SecretHash) {
			return nil, fmt.Errorf("%w: client %q secret_hash is not an argon2id hash", ErrInvalidEntry, c.ID)
		}
		hashed = hashed || c.SecretHash != ""
		c.Scopes = slices.Clone(c.Scopes)
		c.IPAllowlist = slices.Clone(c.IPAllowlist)
		m[c.ID] = c
	}

	r := &Registry{clients: m, verify: cryptox.VerifySecret}
	if hashed {
		h, err := cryptox.HashSecret(dummySecret)
		if err != nil {
			return nil, fmt.Errorf("registry: dummy hash: %w", err)
		}
		r.dummyHash = h
	}
	return r, nil
}

// Lookup returns a copy of the client so callers cannot mutate the registry.
func (r *Registry) Lookup(clientID string) (domain.Client, bool) {
	c, ok := r.clients[clientID]
	if !ok {
		return domain.Client{}, false
	}
	c.Scopes = slices.Clone(c.Scopes)
	c.IPAllowlist = slices.Clone(c.IPAllowlist)
	return c, true
}

// Authenticate checks clientID/secret. Every path runs one HMAC compare,
// plus one Argon2id verification when the registry holds any hashed
// entry, so timing does not reveal which client ids exist.
func (r *Registry) Authenticate(clientID, secret string) (domain.Client, error) {
	c, ok := r.Lookup(clientID)
	if !ok {
		_ = cryptox.SecureCompare(secret, dummySecret)
		r.burnHash(secret)
		return domain.Client{}, ErrInvalidClient
	}

	if c.SecretHash != "" {
		_ = cryptox.SecureCompare(secret, dummySecret)
		if err := r.verify(secret, c.SecretHash); err != nil {
			return domain.Client{}, ErrInvalidClient
		}
		return c, nil
	}

	match := cryptox.SecureCompare(secret, c.Secret)
	r.burnHash(secret)
	if !match {
		return domain.Client{}, ErrInvalidClient
	}
	return c, nil
}

func (r *Registry) burnHash(secret string) {
	if r.dummyHash != "" {
		_ = r.verify(secret, r.dummyHash)
	}
}

// AllowlistFor returns the per-client IP allowlist, empty when unset.
func (r *Registry) AllowlistFor(clientID string) []string {
	c, ok := r.clients[clientID]
	if !ok {
		return nil
	}
	return slices.Clone(c.IPAllowlist)
}

func (r *Registry) Len() int { return len(r.clients) }

// IDs returns the registered client ids in sorted order.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.clients))
	for id := range r.clients {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
