package store

import (
	"context"
	"errors"

	"github.com/aussiebroadwan/m2mgate/internal/gateway/domain"
)

//go:generate mockgen -destination=mocks/store_mock.go -package=mocks github.com/aussiebroadwan/m2mgate/internal/gateway/store Profiles,Customers,AuditLogs

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers implement it and
// expose sub-repositories so a transaction can hand out the same repos.
type Store interface {
	Profiles() Profiles
	Customers() Customers
	AuditLogs() AuditLogs

	ApplyMigrations() error

	// WithTx runs fn in a transaction, committing when fn returns nil and
	// rolling back otherwise.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transaction-scoped view of the repositories.
type Tx interface {
	Profiles() Profiles
	Customers() Customers
	AuditLogs() AuditLogs
}

type Profiles interface {
	// GetByExternalID returns the profile mapped to an external user id.
	GetByExternalID(ctx context.Context, externalUserID string) (domain.Profile, error)

	// Create inserts p. ErrAlreadyExists when the external id is taken.
	Create(ctx context.Context, p domain.Profile) error
}

type Customers interface {
	// Create inserts c. ErrAlreadyExists when customer_code is taken.
	Create(ctx context.Context, c domain.Customer) error

	// GetByID honours filter; rows outside it are reported as ErrNotFound.
	GetByID(ctx context.Context, id string, filter domain.RowFilter) (domain.Customer, error)

	// Update writes every mutable column of c and bumps updated_at.
	Update(ctx context.Context, c domain.Customer) error

	// Search returns at most s.Limit customers matching s.Query.
	Search(ctx context.Context, s domain.CustomerSearch) ([]domain.Customer, error)
}

type AuditLogs interface {
	// Insert appends an entry. Entries are never updated or deleted.
	Insert(ctx context.Context, e domain.AuditEntry) error

	// ListByEntity returns entries for one entity, newest first.
	ListByEntity(ctx context.Context, entity, entityID string) ([]domain.AuditEntry, error)
}
