package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/aussiebroadwan/m2mgate/internal/gateway/domain"
)

type auditLogsRepo struct {
	q queryer
}

type auditRow struct {
	ID          string         `db:"id"`
	ActorUserID sql.NullString `db:"actor_user_id"`
	Entity      string         `db:"entity"`
	EntityID    sql.NullString `db:"entity_id"`
	Action      string         `db:"action"`
	Diff        sql.NullString `db:"diff"`
	CreatedAt   time.Time      `db:"created_at"`
}

func (r *auditLogsRepo) Insert(ctx context.Context, e domain.AuditEntry) error {
	row := auditRow{
		ID:          e.ID,
		ActorUserID: mapStringNull(e.ActorUserID),
		Entity:      e.Entity,
		EntityID:    mapStringNull(e.EntityID),
		Action:      string(e.Action),
		CreatedAt:   e.CreatedAt.UTC(),
	}
	if e.Diff != nil {
		b, err := json.Marshal(e.Diff)
		if err != nil {
			return fmt.Errorf("encode audit diff: %w", err)
		}
		row.Diff = sql.NullString{String: string(b), Valid: true}
	}

	_, err := sqlx.NamedExecContext(ctx, r.q, `
		INSERT INTO audit_logs (id, actor_user_id, entity, entity_id, action, diff, created_at)
		VALUES (:id, :actor_user_id, :entity, :entity_id, :action, :diff, :created_at)`, row)
	return mapConstraint(err)
}

func (r *auditLogsRepo) ListByEntity(ctx context.Context, entity, entityID string) ([]domain.AuditEntry, error) {
	var rows []auditRow
	err := sqlx.SelectContext(ctx, r.q, &rows, `
		SELECT id, actor_user_id, entity, entity_id, action, diff, created_at
		FROM audit_logs WHERE entity = ? AND entity_id = ?
		ORDER BY created_at DESC, id DESC`, entity, entityID)
	if err != nil {
		return nil, err
	}

	out := make([]domain.AuditEntry, 0, len(rows))
	for _, row := range rows {
		e := domain.AuditEntry{
			ID:          row.ID,
			ActorUserID: mapNullString(row.ActorUserID),
			Entity:      row.Entity,
			EntityID:    mapNullString(row.EntityID),
			Action:      domain.Action(row.Action),
			CreatedAt:   row.CreatedAt,
		}
		if row.Diff.Valid {
			if err := json.Unmarshal([]byte(row.Diff.String), &e.Diff); err != nil {
				return nil, fmt.Errorf("decode audit diff: %w", err)
			}
		}
		out = append(out, e)
	}
	return out, nil
}
