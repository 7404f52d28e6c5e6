package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/aussiebroadwan/m2mgate/internal/gateway/domain"
)

// entry is the on-disk and env form of a client.
type entry struct {
	Secret      string   `json:"secret,omitempty" yaml:"secret,omitempty"`
	SecretHash  string   `json:"secret_hash,omitempty" yaml:"secret_hash,omitempty"`
	Scopes      []string `json:"scopes" yaml:"scopes"`
	IPAllowlist []string `json:"ip_allowlist,omitempty" yaml:"ip_allowlist,omitempty"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`

	// camelCase spellings accepted in OAUTH2_CLIENTS.
	ClientSecret   string   `json:"clientSecret,omitempty" yaml:"-"`
	IPAllowlistAlt []string `json:"ipAllowlist,omitempty" yaml:"-"`
}

func (e entry) secret() string {
	if e.Secret != "" {
		return e.Secret
	}
	return e.ClientSecret
}

func (e entry) allowlist() []string {
	if len(e.IPAllowlist) > 0 {
		return e.IPAllowlist
	}
	return e.IPAllowlistAlt
}

// fileFormat is the YAML layout of OAUTH2_CLIENTS_FILE.
type fileFormat struct {
	Clients map[string]entry `yaml:"clients"`
}

// ParseJSON decodes an OAUTH2_CLIENTS value: a JSON object keyed by client id.
func ParseJSON(raw string) ([]domain.Client, error) {
	var m map[string]entry
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return nil, fmt.Errorf("registry: parse clients json: %w", err)
	}
	return toClients(m), nil
}

// LoadYAMLFile reads a clients file of the form
//
//	clients:
//	  order-service:
//	    secret_hash: $argon2id$...
//	    scopes: [orders:read, orders:write]
func LoadYAMLFile(path string) ([]domain.Client, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("registry: read clients file: %w", err)
	}
	var f fileFormat
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("registry: parse clients file: %w", err)
	}
	return toClients(f.Clients), nil
}

// LegacyService describes a fixed per-service client configured through
// <PREFIX>_CLIENT_ID and <PREFIX>_CLIENT_SECRET.
type LegacyService struct {
	EnvPrefix   string
	Scopes      []string
	Description string
}

// LegacyServices are the env fallbacks used when no registry is configured.
var LegacyServices = []LegacyService{
	{EnvPrefix: "ORDER_SERVICE", Scopes: []string{"customers:read", "customers:write"}, Description: "Order Management Service"},
	{EnvPrefix: "MEASUREMENT_SERVICE", Scopes: []string{"customers:read"}, Description: "Measurement Management Service"},
}

// FromLegacyEnv builds clients from LegacyServices using lookup (usually
// os.LookupEnv). Services missing either variable are skipped.
func FromLegacyEnv(lookup func(string) (string, bool)) []domain.Client {
	var out []domain.Client
	for _, svc := range LegacyServices {
		id, ok := lookup(svc.EnvPrefix + "_CLIENT_ID")
		if !ok || strings.TrimSpace(id) == "" {
			continue
		}
		secret, ok := lookup(svc.EnvPrefix + "_CLIENT_SECRET")
		if !ok || secret == "" {
			continue
		}
		out = append(out, domain.Client{
			ID:          strings.TrimSpace(id),
			Secret:      secret,
			Scopes:      append([]string(nil), svc.Scopes...),
			Description: svc.Description,
		})
	}
	return out
}

// Sources are the places a registry may be loaded from, in priority order.
type Sources struct {
	JSON   string
	File   string
	Lookup func(string) (string, bool)
}

// Load builds a registry from the first configured source: JSON, then the
// YAML file, then the legacy env variables.
func Load(src Sources) (*Registry, error) {
	var (
		clients []domain.Client
		err     error
	)
	switch {
	case strings.TrimSpace(src.JSON) != "":
		clients, err = ParseJSON(src.JSON)
	case src.File != "":
		clients, err = LoadYAMLFile(src.File)
	case src.Lookup != nil:
		clients = FromLegacyEnv(src.Lookup)
	}
	if err != nil {
		return nil, err
	}
	return New(clients)
}

func toClients(m map[string]entry) []domain.Client {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]domain.Client, 0, len(m))
	for _, id := range ids {
		e := m[id]
		out = append(out, domain.Client{
			ID:          id,
			Secret:      e.secret(),
			SecretHash:  e.SecretHash,
			Scopes:      e.Scopes,
			IPAllowlist: e.allowlist(),
			Description: e.Description,
		})
	}
	return out
}
