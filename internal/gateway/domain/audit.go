package domain

import "time"

type Action string

const (
	ActionCreate           Action = "create"
	ActionUpdate           Action = "update"
	ActionDelete           Action = "delete"
	ActionRestore          Action = "restore"
	ActionSync             Action = "sync"
	ActionRetry            Action = "retry"
	ActionLogin            Action = "login"
	ActionPermissionChange Action = "permission_change"
)

func (a Action) Valid() bool {
	switch a {
	case ActionCreate, ActionUpdate, ActionDelete, ActionRestore,
		ActionSync, ActionRetry, ActionLogin, ActionPermissionChange:
		return true
	}
	return false
}

// AuditEntry is an append-only record of a mutation. Diff is stored masked.
type AuditEntry struct {
	ID          string
	ActorUserID string
	Entity      string
	EntityID    string
	Action      Action
	Diff        map[string]any
	CreatedAt   time.Time
}
