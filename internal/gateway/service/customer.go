package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/aussiebroadwan/m2mgate/internal/gateway/domain"
	"github.com/aussiebroadwan/m2mgate/internal/gateway/store"
	"github.com/aussiebroadwan/m2mgate/pkg/auditx"
	"github.com/aussiebroadwan/m2mgate/pkg/idx"
	"github.com/aussiebroadwan/m2mgate/pkg/slogx"
)

const (
	DefaultSearchLimit = 50
	MaxSearchLimit     = 100

	auditEntityCustomers = "customers"
)

// CustomerInput holds the writable fields of a customer. Nil fields are
// left unchanged on update and empty on create.
type CustomerInput struct {
	CustomerCode *string
	Name         *string
	NameKana     *string
	CustomerType *string
	Email        *string
	Phone        *string
	PostalCode   *string
	Prefecture   *string
	City         *string
	AddressLine1 *string
	AddressLine2 *string
	BirthDate    *string
	Gender       *string
	Notes        *string
}

// CallerInfo identifies who performed an operation for auditing.
type CallerInfo struct {
	ClientID string
	User     *domain.UserContext
}

type CustomerService struct {
	Store store.Store
	Audit *AuditService
	Now   func() time.Time
}

func (s *CustomerService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Create validates and inserts a customer owned by the caller's user.
func (s *CustomerService) Create(ctx context.Context, caller CallerInfo, in CustomerInput) (domain.Customer, error) {
	if caller.User == nil || caller.User.InternalUserID == "" {
		return domain.Customer{}, fmt.Errorf("%w: user context is required", ErrInvalidRequest)
	}
	if in.Name == nil {
		return domain.Customer{}, &ValidationError{Field: "name", Reason: "is required"}
	}

	now := s.now().UTC()
	c := domain.Customer{
		ID:           uuid.NewString(),
		CustomerType: domain.CustomerTypeIndividual,
		OwnerUserID:  caller.User.InternalUserID,
		TeamID:       caller.User.TeamID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	applyInput(&c, in)
	if c.CustomerCode == "" {
		c.CustomerCode = "C-" + idx.NewAt(now).String()
	}
	if err := validateCustomer(c); err != nil {
		return domain.Customer{}, err
	}

	if err := s.Store.Customers().Create(ctx, c); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.Customer{}, fmt.Errorf("%w: customer_code %q already exists", ErrConflict, c.CustomerCode)
		}
		return domain.Customer{}, fmt.Errorf("create customer: %w", err)
	}

	created, err := auditx.ToMap(c)
	if err != nil {
		return domain.Customer{}, err
	}
	s.Audit.Record(ctx, domain.AuditEntry{
		ActorUserID: caller.User.InternalUserID,
		Entity:      auditEntityCustomers,
		EntityID:    c.ID,
		Action:      domain.ActionCreate,
		Diff: map[string]any{
			"metadata": auditMetadata(caller),
			"newValue": created,
		},
	})

	Log(ctx, slog.LevelInfo, "customer created", map[string]any{
		"customer_id":   c.ID,
		"customer_code": c.CustomerCode,
		"owner":         c.OwnerUserID,
		"client_id":     caller.ClientID,
	})
	return c, nil
}

// Update applies a partial update to a customer visible to the caller and
// records the field diff.
func (s *CustomerService) Update(ctx context.Context, caller CallerInfo, id string, in CustomerInput) (domain.Customer, error) {
	if caller.User == nil || caller.User.InternalUserID == "" {
		return domain.Customer{}, fmt.Errorf("%w: user context is required", ErrInvalidRequest)
	}
	if in.CustomerCode != nil {
		return domain.Customer{}, &ValidationError{Field: "customer_code", Reason: "cannot be changed"}
	}

	var (
		before, after domain.Customer
		diff          map[string]auditx.Change
	)
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		var err error
		before, err = tx.Customers().GetByID(ctx, id, Filter(caller.User))
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrNotFound
			}
			return err
		}

		after = before
		applyInput(&after, in)
		if err := validateCustomer(after); err != nil {
			return err
		}

		diff, err = auditx.DiffValues(withoutTimestamps(before), withoutTimestamps(after))
		if err != nil {
			return err
		}
		if len(diff) == 0 {
			return nil
		}

		after.UpdatedAt = s.now().UTC()
		return tx.Customers().Update(ctx, after)
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrValidation) {
			return domain.Customer{}, err
		}
		return domain.Customer{}, fmt.Errorf("update customer: %w", err)
	}

	if len(diff) == 0 {
		return before, nil
	}

	changes := ChangeSet(diff)
	changes["metadata"] = auditMetadata(caller)
	s.Audit.Record(ctx, domain.AuditEntry{
		ActorUserID: caller.User.InternalUserID,
		Entity:      auditEntityCustomers,
		EntityID:    after.ID,
		Action:      domain.ActionUpdate,
		Diff:        changes,
	})

	slogx.FromContext(ctx).Info("customer updated",
		"customer_id", after.ID,
		"changed_fields", len(diff),
		"client_id", caller.ClientID,
	)
	return after, nil
}

// Search runs a substring search bounded by limit and the caller's row
// filter. limit <= 0 selects DefaultSearchLimit; larger values are capped.
func (s *CustomerService) Search(ctx context.Context, uc *domain.UserContext, query string, limit int) ([]domain.Customer, error) {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	limit = min(limit, MaxSearchLimit)

	out, err := s.Store.Customers().Search(ctx, domain.CustomerSearch{
		Query:  NormalizeText(query),
		Limit:  limit,
		Filter: Filter(uc),
	})
	if err != nil {
		return nil, fmt.Errorf("search customers: %w", err)
	}
	return out, nil
}

func auditMetadata(caller CallerInfo) map[string]any {
	m := map[string]any{
		"client_id": caller.ClientID,
		"via":       "m2m_api",
	}
	if caller.User != nil {
		m["external_user_id"] = caller.User.ExternalUserID
	}
	return m
}

func withoutTimestamps(c domain.Customer) domain.Customer {
	c.CreatedAt = time.Time{}
	c.UpdatedAt = time.Time{}
	return c
}

func applyInput(c *domain.Customer, in CustomerInput) {
	set := func(dst *string, src *string, normalize bool) {
		if src == nil {
			return
		}
		v := strings.TrimSpace(*src)
		if normalize {
			v = NormalizeText(v)
		}
		*dst = v
	}

	set(&c.CustomerCode, in.CustomerCode, true)
	set(&c.Name, in.Name, true)
	set(&c.NameKana, in.NameKana, true)
	set(&c.Email, in.Email, true)
	set(&c.Phone, in.Phone, true)
	set(&c.PostalCode, in.PostalCode, true)
	set(&c.Prefecture, in.Prefecture, false)
	set(&c.City, in.City, false)
	set(&c.AddressLine1, in.AddressLine1, true)
	set(&c.AddressLine2, in.AddressLine2, true)
	set(&c.BirthDate, in.BirthDate, true)
	set(&c.Gender, in.Gender, false)
	set(&c.Notes, in.Notes, false)
	if in.CustomerType != nil {
		c.CustomerType = domain.CustomerType(strings.TrimSpace(*in.CustomerType))
	}
}

var customerFieldLimits = []struct {
	field string
	get   func(domain.Customer) string
	max   int
}{
	{"customer_code", func(c domain.Customer) string { return c.CustomerCode }, 50},
	{"name", func(c domain.Customer) string { return c.Name }, 200},
	{"name_kana", func(c domain.Customer) string { return c.NameKana }, 200},
	{"phone", func(c domain.Customer) string { return c.Phone }, 20},
	{"postal_code", func(c domain.Customer) string { return c.PostalCode }, 10},
	{"prefecture", func(c domain.Customer) string { return c.Prefecture }, 10},
	{"city", func(c domain.Customer) string { return c.City }, 100},
	{"address_line1", func(c domain.Customer) string { return c.AddressLine1 }, 200},
	{"address_line2", func(c domain.Customer) string { return c.AddressLine2 }, 200},
}

func validateCustomer(c domain.Customer) error {
	if c.Name == "" {
		return &ValidationError{Field: "name", Reason: "is required"}
	}
	for _, l := range customerFieldLimits {
		if utf8.RuneCountInString(l.get(c)) > l.max {
			return &ValidationError{Field: l.field, Reason: fmt.Sprintf("must be at most %d characters", l.max)}
		}
	}
	if !c.CustomerType.Valid() {
		return &ValidationError{Field: "customer_type", Reason: "must be individual or corporate"}
	}
	if c.Email != "" {
		if addr, err := mail.ParseAddress(c.Email); err != nil || addr.Address != c.Email {
			return &ValidationError{Field: "email", Reason: "is not a valid address"}
		}
	}
	if c.BirthDate != "" {
		if _, err := time.Parse(time.DateOnly, c.BirthDate); err != nil {
			return &ValidationError{Field: "birth_date", Reason: "must be YYYY-MM-DD"}
		}
	}
	switch c.Gender {
	case "", "male", "female", "other":
	default:
		return &ValidationError{Field: "gender", Reason: "must be male, female or other"}
	}
	return nil
}
