package sqlite

import (
	"context"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/aussiebroadwan/m2mgate/internal/gateway/domain"
	"github.com/aussiebroadwan/m2mgate/internal/gateway/store"
)

type customersRepo struct {
	q queryer
}

const customerColumns = `id, customer_code, name, name_kana, customer_type, email, phone,
	postal_code, prefecture, city, address_line1, address_line2, birth_date, gender,
	notes, owner_user_id, team_id, created_at, updated_at`

func (r *customersRepo) Create(ctx context.Context, c domain.Customer) error {
	c.CreatedAt = c.CreatedAt.UTC()
	c.UpdatedAt = c.UpdatedAt.UTC()
	_, err := sqlx.NamedExecContext(ctx, r.q, `
		INSERT INTO customers (`+customerColumns+`)
		VALUES (:id, :customer_code, :name, :name_kana, :customer_type, :email, :phone,
			:postal_code, :prefecture, :city, :address_line1, :address_line2, :birth_date, :gender,
			:notes, :owner_user_id, :team_id, :created_at, :updated_at)`, c)
	return mapConstraint(err)
}

func (r *customersRepo) GetByID(ctx context.Context, id string, filter domain.RowFilter) (domain.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE id = ?`
	args := []any{id}
	if filter.Restricted() {
		query += ` AND owner_user_id = ?`
		args = append(args, filter.OwnerUserID)
	}

	var c domain.Customer
	if err := sqlx.GetContext(ctx, r.q, &c, query, args...); err != nil {
		return domain.Customer{}, mapNotFound(err)
	}
	return c, nil
}

func (r *customersRepo) Update(ctx context.Context, c domain.Customer) error {
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = time.Now()
	}
	c.UpdatedAt = c.UpdatedAt.UTC()
	res, err := sqlx.NamedExecContext(ctx, r.q, `
		UPDATE customers SET
			name = :name, name_kana = :name_kana, customer_type = :customer_type,
			email = :email, phone = :phone, postal_code = :postal_code,
			prefecture = :prefecture, city = :city, address_line1 = :address_line1,
			address_line2 = :address_line2, birth_date = :birth_date, gender = :gender,
			notes = :notes, team_id = :team_id, updated_at = :updated_at
		WHERE id = :id`, c)
	if err != nil {
		return mapConstraint(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *customersRepo) Search(ctx context.Context, s domain.CustomerSearch) ([]domain.Customer, error) {
	var (
		where []string
		args  []any
	)
	if q := strings.TrimSpace(s.Query); q != "" {
		like := "%" + escapeLike(q) + "%"
		where = append(where, `(name LIKE ? ESCAPE '\' OR customer_code LIKE ? ESCAPE '\' OR name_kana LIKE ? ESCAPE '\')`)
		args = append(args, like, like, like)
	}
	if s.Filter.Restricted() {
		where = append(where, `owner_user_id = ?`)
		args = append(args, s.Filter.OwnerUserID)
	}

	query := `SELECT ` + customerColumns + ` FROM customers`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, ` AND `)
	}
	query += ` ORDER BY created_at DESC, id LIMIT ?`
	args = append(args, s.Limit)

	out := []domain.Customer{}
	if err := sqlx.SelectContext(ctx, r.q, &out, query, args...); err != nil {
		return nil, err
	}
	return out, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
