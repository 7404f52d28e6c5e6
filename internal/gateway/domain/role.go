package domain

// Role of a human user as asserted by the calling service or stored on the
// profile.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleUser    Role = "user"
	RoleViewer  Role = "viewer"
	RoleAgency  Role = "agency"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleUser, RoleViewer, RoleAgency:
		return true
	}
	return false
}

// SeesAllRows is true for roles exempt from the owner row filter.
func (r Role) SeesAllRows() bool {
	return r == RoleAdmin || r == RoleManager
}
