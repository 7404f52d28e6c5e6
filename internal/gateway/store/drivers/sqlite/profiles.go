package sqlite

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/aussiebroadwan/m2mgate/internal/gateway/domain"
)

type profilesRepo struct {
	q queryer
}

const profileColumns = `id, external_user_id, email, display_name, role, team_id, created_at, updated_at`

func (r *profilesRepo) GetByExternalID(ctx context.Context, externalUserID string) (domain.Profile, error) {
	var p domain.Profile
	err := sqlx.GetContext(ctx, r.q, &p,
		`SELECT `+profileColumns+` FROM profiles WHERE external_user_id = ?`, externalUserID)
	if err != nil {
		return domain.Profile{}, mapNotFound(err)
	}
	return p, nil
}

func (r *profilesRepo) Create(ctx context.Context, p domain.Profile) error {
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	_, err := sqlx.NamedExecContext(ctx, r.q, `
		INSERT INTO profiles (`+profileColumns+`)
		VALUES (:id, :external_user_id, :email, :display_name, :role, :team_id, :created_at, :updated_at)`, p)
	return mapConstraint(err)
}
