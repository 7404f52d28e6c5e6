package service

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/aussiebroadwan/m2mgate/internal/gateway/domain"
	"github.com/aussiebroadwan/m2mgate/internal/gateway/store"
	"github.com/aussiebroadwan/m2mgate/pkg/auditx"
	"github.com/aussiebroadwan/m2mgate/pkg/idx"
	"github.com/aussiebroadwan/m2mgate/pkg/slogx"
)

// AuditService persists masked audit entries. It never fails the caller.
type AuditService struct {
	Logs store.AuditLogs
	Now  func() time.Time
}

func (s *AuditService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Record masks and appends e. Errors are logged and swallowed so a logging
// outage cannot block the business operation.
func (s *AuditService) Record(ctx context.Context, e domain.AuditEntry) {
	l := slogx.FromContext(ctx)

	if e.ID == "" {
		e.ID = idx.New().String()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.now().UTC()
	}
	if e.Diff != nil {
		e.Diff = auditx.MaskMap(e.Diff)
	}

	if !e.Action.Valid() {
		l.Error("audit entry dropped", "reason", "invalid_action", "action", e.Action, "entity", e.Entity)
		return
	}

	if err := s.Logs.Insert(ctx, e); err != nil {
		l.Error("audit log write failed",
			"err", err,
			"entity", e.Entity,
			"entity_id", e.EntityID,
			"action", e.Action,
		)
	}
}

// Log writes a structured line with masked metadata attributes.
func Log(ctx context.Context, level slog.Level, msg string, metadata map[string]any) {
	masked := auditx.MaskMap(metadata)

	keys := make([]string, 0, len(masked))
	for k := range masked {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	attrs := make([]slog.Attr, 0, len(keys))
	for _, k := range keys {
		attrs = append(attrs, slog.Any(k, masked[k]))
	}
	slogx.FromContext(ctx).LogAttrs(ctx, level, msg, attrs...)
}

// ChangeSet converts a diff into the generic map stored on audit entries.
func ChangeSet(diff map[string]auditx.Change) map[string]any {
	out := make(map[string]any, len(diff))
	for k, c := range diff {
		out[k] = map[string]any{"before": c.Before, "after": c.After}
	}
	return out
}
