package m2msdk

import "time"

// TokenResponse is the body of a successful token request.
type TokenResponse struct {
	AccessToken string `json:"access_token"`

	// TokenType is always "Bearer".
	TokenType string `json:"token_type"`

	// ExpiresIn is the lifetime in seconds of the access token.
	ExpiresIn int `json:"expires_in"`

	// Scope is the space-delimited list of granted scopes.
	Scope string `json:"scope"`
}

// HealthResponse is returned by /livez and /readyz.
type HealthResponse struct {
	Status  string            `json:"status"`
	Uptime  string            `json:"uptime,omitempty"`
	Version string            `json:"version,omitempty"`
	Checks  map[string]string `json:"checks,omitempty"`
}

// UserContext is the identity of the human behind an M2M call, sent as
// JSON in the X-User-Context header.
type UserContext struct {
	UserID      string `json:"user_id"`
	Email       string `json:"email"`
	Role        string `json:"role,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
	TeamID      string `json:"team_id,omitempty"`
}

// Customer as returned by the customer endpoints. Search responses only
// populate the requested fields.
type Customer struct {
	ID           string     `json:"id,omitempty"`
	CustomerCode string     `json:"customer_code,omitempty"`
	Name         string     `json:"name,omitempty"`
	NameKana     string     `json:"name_kana,omitempty"`
	CustomerType string     `json:"customer_type,omitempty"`
	Email        string     `json:"email,omitempty"`
	Phone        string     `json:"phone,omitempty"`
	PostalCode   string     `json:"postal_code,omitempty"`
	Prefecture   string     `json:"prefecture,omitempty"`
	City         string     `json:"city,omitempty"`
	AddressLine1 string     `json:"address_line1,omitempty"`
	AddressLine2 string     `json:"address_line2,omitempty"`
	BirthDate    string     `json:"birth_date,omitempty"`
	Gender       string     `json:"gender,omitempty"`
	Notes        string     `json:"notes,omitempty"`
	OwnerUserID  string     `json:"owner_user_id,omitempty"`
	TeamID       string     `json:"team_id,omitempty"`
	CreatedAt    *time.Time `json:"created_at,omitempty"`
	UpdatedAt    *time.Time `json:"updated_at,omitempty"`
}

// CreateCustomerRequest is the body of POST /api/m2m/customers.
type CreateCustomerRequest struct {
	CustomerCode string `json:"customer_code"`
	Name         string `json:"name"`
	NameKana     string `json:"name_kana,omitempty"`
	CustomerType string `json:"customer_type,omitempty"`
	Email        string `json:"email,omitempty"`
	Phone        string `json:"phone,omitempty"`
	PostalCode   string `json:"postal_code,omitempty"`
	Prefecture   string `json:"prefecture,omitempty"`
	City         string `json:"city,omitempty"`
	AddressLine1 string `json:"address_line1,omitempty"`
	AddressLine2 string `json:"address_line2,omitempty"`
	BirthDate    string `json:"birth_date,omitempty"`
	Gender       string `json:"gender,omitempty"`
	Notes        string `json:"notes,omitempty"`
}

// UpdateCustomerRequest is the body of PATCH /api/m2m/customers/{id}.
// Nil fields are left unchanged.
type UpdateCustomerRequest struct {
	Name         *string `json:"name,omitempty"`
	NameKana     *string `json:"name_kana,omitempty"`
	CustomerType *string `json:"customer_type,omitempty"`
	Email        *string `json:"email,omitempty"`
	Phone        *string `json:"phone,omitempty"`
	PostalCode   *string `json:"postal_code,omitempty"`
	Prefecture   *string `json:"prefecture,omitempty"`
	City         *string `json:"city,omitempty"`
	AddressLine1 *string `json:"address_line1,omitempty"`
	AddressLine2 *string `json:"address_line2,omitempty"`
	BirthDate    *string `json:"birth_date,omitempty"`
	Gender       *string `json:"gender,omitempty"`
	Notes        *string `json:"notes,omitempty"`
}

// CustomerResponse wraps a single customer.
type CustomerResponse struct {
	Customer Customer `json:"customer"`
}

// SearchCustomersRequest holds the query parameters of the search endpoint.
type SearchCustomersRequest struct {
	Query  string
	Limit  int
	Fields []string
}

// SearchCustomersResponse is the body of GET /api/m2m/customers/search.
type SearchCustomersResponse struct {
	Customers []map[string]any `json:"customers"`
	Count     int              `json:"count"`
}
