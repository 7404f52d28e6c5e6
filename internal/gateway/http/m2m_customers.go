package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/aussiebroadwan/m2mgate/internal/gateway/domain"
	"github.com/aussiebroadwan/m2mgate/internal/gateway/service"
	"github.com/aussiebroadwan/m2mgate/pkg/httpx"
	"github.com/aussiebroadwan/m2mgate/pkg/m2msdk"
	"github.com/aussiebroadwan/m2mgate/pkg/slogx"
)

const maxCustomerBody = 64 << 10

var customersCORS = httpx.CORSConfig{
	AllowOrigin:  "*",
	AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodOptions},
	AllowHeaders: []string{"Content-Type", "Authorization", m2msdk.UserContextHeader},
	MaxAge:       24 * time.Hour,
}

// Search response fields. "code" is the customer_code column.
var (
	searchFieldAllowlist = []string{"id", "name", "code", "created_at", "updated_at", "team_id"}
	defaultSearchFields  = []string{"id", "name", "code", "created_at"}
)

// CustomersHandler serves the M2M customer endpoints. It runs after the
// bearer and scope gates, so the client id is always on the context.
type CustomersHandler struct {
	Customers     *service.CustomerService
	UserContexts  *service.UserContextService
	AutoProvision bool
}

// HandleCreate handles POST /api/m2m/customers
//
//	@Summary		Create Customer
//	@Description	Creates a customer owned by the user in X-User-Context.
//	@Tags			Customers
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			Authorization	header		string							true	"Bearer token with customers:write scope"
//	@Param			X-User-Context	header		string							true	"JSON {user_id, email, role, display_name, team_id}"
//	@Param			request			body		m2msdk.CreateCustomerRequest	true	"Customer"
//	@Success		201				{object}	m2msdk.CustomerResponse			"customer"
//	@Failure		400				{object}	m2msdk.OAuth2Error				"error, error_description"
//	@Failure		401				{object}	m2msdk.OAuth2Error				"error, error_description"
//	@Failure		403				{object}	m2msdk.OAuth2Error				"error, error_description"
//	@Failure		409				{object}	m2msdk.OAuth2Error				"error, error_description"
//	@Failure		429				{object}	m2msdk.OAuth2Error				"error, error_description, resetAt"
//	@Failure		500				{object}	m2msdk.OAuth2Error				"error, error_description"
//	@Router			/api/m2m/customers [post].
func (h *CustomersHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	uc, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	var req m2msdk.CreateCustomerRequest
	if !decodeBody(w, r, &req) {
		return
	}

	c, err := h.Customers.Create(r.Context(), h.caller(r, uc), createInput(req))
	if err != nil {
		writeServiceError(w, r, "create customer", err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, m2msdk.CustomerResponse{Customer: toSDKCustomer(c)})
}

// HandleUpdate handles PATCH /api/m2m/customers/{id}
//
//	@Summary		Update Customer
//	@Description	Applies a partial update. Rows outside the caller's filter are reported as not found.
//	@Tags			Customers
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			Authorization	header		string							true	"Bearer token with customers:write scope"
//	@Param			X-User-Context	header		string							true	"JSON {user_id, email, role, display_name, team_id}"
//	@Param			id				path		string							true	"Customer id"
//	@Param			request			body		m2msdk.UpdateCustomerRequest	true	"Fields to change"
//	@Success		200				{object}	m2msdk.CustomerResponse			"customer"
//	@Failure		400				{object}	m2msdk.OAuth2Error				"error, error_description"
//	@Failure		401				{object}	m2msdk.OAuth2Error				"error, error_description"
//	@Failure		403				{object}	m2msdk.OAuth2Error				"error, error_description"
//	@Failure		404				{object}	m2msdk.OAuth2Error				"error, error_description"
//	@Failure		429				{object}	m2msdk.OAuth2Error				"error, error_description, resetAt"
//	@Failure		500				{object}	m2msdk.OAuth2Error				"error, error_description"
//	@Router			/api/m2m/customers/{id} [patch].
func (h *CustomersHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	uc, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	var req m2msdk.UpdateCustomerRequest
	if !decodeBody(w, r, &req) {
		return
	}

	c, err := h.Customers.Update(r.Context(), h.caller(r, uc), r.PathValue("id"), updateInput(req))
	if err != nil {
		writeServiceError(w, r, "update customer", err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, m2msdk.CustomerResponse{Customer: toSDKCustomer(c)})
}

// HandleSearch handles GET /api/m2m/customers/search
//
//	@Summary		Search Customers
//	@Description	Substring search over name, code and kana. Only the requested fields are returned.
//	@Tags			Customers
//	@Produce		json
//	@Security		BearerAuth
//	@Param			Authorization	header		string							true	"Bearer token with customers:read scope"
//	@Param			X-User-Context	header		string							false	"JSON {user_id, email, role, display_name, team_id}"
//	@Param			q				query		string							false	"Search text"
//	@Param			limit			query		int								false	"Max results (default 50, max 100)"
//	@Param			fields			query		string							false	"Comma separated: id,name,code,created_at,updated_at,team_id"
//	@Success		200				{object}	m2msdk.SearchCustomersResponse	"customers, count"
//	@Failure		400				{object}	m2msdk.OAuth2Error				"error, error_description"
//	@Failure		401				{object}	m2msdk.OAuth2Error				"error, error_description"
//	@Failure		403				{object}	m2msdk.OAuth2Error				"error, error_description"
//	@Failure		429				{object}	m2msdk.OAuth2Error				"error, error_description, resetAt"
//	@Failure		500				{object}	m2msdk.OAuth2Error				"error, error_description"
//	@Router			/api/m2m/customers/search [get].
func (h *CustomersHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	fields, ok := parseSearchFields(q.Get("fields"))
	if !ok {
		m2msdk.ErrInvalidRequest.WithDescription("no valid fields requested").WriteError(w)
		return
	}

	limit := 0
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			m2msdk.ErrInvalidRequest.WithDescription("limit must be a positive integer").WriteError(w)
			return
		}
		limit = n
	}

	uc, err := h.UserContexts.Resolve(r.Context(), r.Header.Get(m2msdk.UserContextHeader), h.AutoProvision)
	if err != nil {
		writeServiceError(w, r, "resolve user context", err)
		return
	}

	found, err := h.Customers.Search(r.Context(), uc, q.Get("q"), limit)
	if err != nil {
		writeServiceError(w, r, "search customers", err)
		return
	}

	out := make([]map[string]any, 0, len(found))
	for _, c := range found {
		out = append(out, projectCustomer(c, fields))
	}

	httpx.WriteJSON(w, http.StatusOK, m2msdk.SearchCustomersResponse{
		Customers: out,
		Count:     len(out),
	})
}

// requireUser resolves X-User-Context and writes the error response when
// it is missing or cannot be mapped.
func (h *CustomersHandler) requireUser(w http.ResponseWriter, r *http.Request) (*domain.UserContext, bool) {
	uc, err := h.UserContexts.Resolve(r.Context(), r.Header.Get(m2msdk.UserContextHeader), h.AutoProvision)
	if err != nil {
		writeServiceError(w, r, "resolve user context", err)
		return nil, false
	}
	if uc == nil {
		slogx.FromContext(r.Context()).Warn("request denied",
			"reason", "missing_user_context",
			"client_id", httpx.ClientIDFromContext(r.Context()),
		)
		m2msdk.ErrInvalidRequest.WithDescription(m2msdk.UserContextHeader + " header is required").WriteError(w)
		return nil, false
	}
	return uc, true
}

func (h *CustomersHandler) caller(r *http.Request, uc *domain.UserContext) service.CallerInfo {
	return service.CallerInfo{
		ClientID: httpx.ClientIDFromContext(r.Context()),
		User:     uc,
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxCustomerBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		m2msdk.ErrInvalidRequest.WithDescription("invalid JSON in request body").WriteError(w)
		return false
	}
	return true
}

// writeServiceError maps service sentinels onto OAuth2-style responses.
func writeServiceError(w http.ResponseWriter, r *http.Request, op string, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		m2msdk.ErrInvalidRequest.WithDescription(verr.Error()).WriteError(w)
	case errors.Is(err, service.ErrInvalidRequest):
		m2msdk.ErrInvalidRequest.WithDescription(err.Error()).WriteError(w)
	case errors.Is(err, service.ErrProfileNotFound):
		m2msdk.ErrForbidden.WithDescription("user profile not found").WriteError(w)
	case errors.Is(err, service.ErrNotFound):
		m2msdk.ErrNotFound.WithDescription("customer not found").WriteError(w)
	case errors.Is(err, service.ErrConflict):
		m2msdk.ErrConflict.WithDescription(err.Error()).WriteError(w)
	default:
		slogx.FromContext(r.Context()).Error(op+" failed", "err", err)
		m2msdk.ErrServerError.WithDescription("an unexpected error occurred").WriteError(w)
	}
}

func parseSearchFields(raw string) ([]string, bool) {
	requested := httpx.ParseCommaDelimitedFields(raw)
	if len(requested) == 0 {
		return defaultSearchFields, true
	}

	var fields []string
	for _, f := range requested {
		if slices.Contains(searchFieldAllowlist, f) && !slices.Contains(fields, f) {
			fields = append(fields, f)
		}
	}
	return fields, len(fields) > 0
}

func projectCustomer(c domain.Customer, fields []string) map[string]any {
	out := make(map[string]any, len(fields))
	for _, f := range fields {
		switch f {
		case "id":
			out[f] = c.ID
		case "name":
			out[f] = c.Name
		case "code":
			out[f] = c.CustomerCode
		case "created_at":
			out[f] = c.CreatedAt
		case "updated_at":
			out[f] = c.UpdatedAt
		case "team_id":
			out[f] = c.TeamID
		}
	}
	return out
}

func createInput(req m2msdk.CreateCustomerRequest) service.CustomerInput {
	opt := func(s string) *string {
		if s == "" {
			return nil
		}
		return &s
	}
	return service.CustomerInput{
		CustomerCode: opt(req.CustomerCode),
		Name:         &req.Name,
		NameKana:     opt(req.NameKana),
		CustomerType: opt(req.CustomerType),
		Email:        opt(req.Email),
		Phone:        opt(req.Phone),
		PostalCode:   opt(req.PostalCode),
		Prefecture:   opt(req.Prefecture),
		City:         opt(req.City),
		AddressLine1: opt(req.AddressLine1),
		AddressLine2: opt(req.AddressLine2),
		BirthDate:    opt(req.BirthDate),
		Gender:       opt(req.Gender),
		Notes:        opt(req.Notes),
	}
}

func updateInput(req m2msdk.UpdateCustomerRequest) service.CustomerInput {
	return service.CustomerInput{
		Name:         req.Name,
		NameKana:     req.NameKana,
		CustomerType: req.CustomerType,
		Email:        req.Email,
		Phone:        req.Phone,
		PostalCode:   req.PostalCode,
		Prefecture:   req.Prefecture,
		City:         req.City,
		AddressLine1: req.AddressLine1,
		AddressLine2: req.AddressLine2,
		BirthDate:    req.BirthDate,
		Gender:       req.Gender,
		Notes:        req.Notes,
	}
}

func toSDKCustomer(c domain.Customer) m2msdk.Customer {
	created, updated := c.CreatedAt, c.UpdatedAt
	return m2msdk.Customer{
		ID:           c.ID,
		CustomerCode: c.CustomerCode,
		Name:         c.Name,
		NameKana:     c.NameKana,
		CustomerType: string(c.CustomerType),
		Email:        c.Email,
		Phone:        c.Phone,
		PostalCode:   c.PostalCode,
		Prefecture:   c.Prefecture,
		City:         c.City,
		AddressLine1: c.AddressLine1,
		AddressLine2: c.AddressLine2,
		BirthDate:    c.BirthDate,
		Gender:       c.Gender,
		Notes:        c.Notes,
		OwnerUserID:  c.OwnerUserID,
		TeamID:       c.TeamID,
		CreatedAt:    &created,
		UpdatedAt:    &updated,
	}
}
