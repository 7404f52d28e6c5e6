package domain

import "slices"

// Client is an OAuth2 client allowed to use the client_credentials grant.
// Exactly one of Secret or SecretHash is set.
type Client struct {
	ID          string
	Secret      string
	SecretHash  string // Argon2id PHC string
	Scopes      []string
	IPAllowlist []string
	Description string
}

// AllowsScope reports whether scope is in the client's allowed set.
func (c Client) AllowsScope(scope string) bool {
	return slices.Contains(c.Scopes, scope)
}
