package domain

import "time"

// UserContext identifies the human on whose behalf an M2M call is made.
// InternalUserID is the id of the local profile.
type UserContext struct {
	ExternalUserID string
	InternalUserID string
	Email          string
	Role           Role
	DisplayName    string
	TeamID         string
}

// Profile is the locally persisted counterpart of an external user.
type Profile struct {
	ID             string    `db:"id"`
	ExternalUserID string    `db:"external_user_id"`
	Email          string    `db:"email"`
	DisplayName    string    `db:"display_name"`
	Role           Role      `db:"role"`
	TeamID         string    `db:"team_id"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}

// RowFilter restricts a query to rows owned by OwnerUserID. The zero value
// means no restriction.
type RowFilter struct {
	OwnerUserID string
}

func (f RowFilter) Restricted() bool { return f.OwnerUserID != "" }
