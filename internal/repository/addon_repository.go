package repository

import (
	"context"
	"errors"

	"github.com/Cansyell/laundrybackend/internal/db"
	"github.com/Cansyell/laundrybackend/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

type AddOnRepository struct {
	DB *db.Postgres
}

type AddOnParams struct {
	Name  string
	Price decimal.Decimal
}

func (r AddOnRepository) List(ctx context.Context) ([]domain.AddOn, error) {
	rows, err := r.DB.Pool.Query(ctx, `
		SELECT id, name, price, created_at, updated_at
		FROM add_ons
		WHERE deleted_at IS NULL
		ORDER BY created_at DESC, id DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []domain.AddOn
	for rows.Next() {
		var a domain.AddOn
		if err := rows.Scan(&a.ID, &a.Name, &a.Price, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, rows.Err()
}

func (r AddOnRepository) Create(ctx context.Context, p AddOnParams) (*domain.AddOn, error) {
	row := r.DB.Pool.QueryRow(ctx, `
		INSERT INTO add_ons (name, price, created_at, updated_at)
		VALUES ($1, $2, now(), now())
		RETURNING id, name, price, created_at, updated_at
	`, p.Name, p.Price)
	return scanAddOn(row)
}

func (r AddOnRepository) Get(ctx context.Context, id int64) (*domain.AddOn, error) {
	row := r.DB.Pool.QueryRow(ctx, `
		SELECT id, name, price, created_at, updated_at
		FROM add_ons
		WHERE id = $1 AND deleted_at IS NULL
	`, id)
	return scanAddOn(row)
}

func (r AddOnRepository) Update(ctx context.Context, id int64, p AddOnParams) (*domain.AddOn, error) {
	row := r.DB.Pool.QueryRow(ctx, `
		UPDATE add_ons
		SET name = $2, price = $3, updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING id, name, price, created_at, updated_at
	`, id, p.Name, p.Price)
	return scanAddOn(row)
}

func (r AddOnRepository) NameTaken(ctx context.Context, name string, excludeID int64) (bool, error) {
	var taken bool
	err := r.DB.Pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM add_ons
			WHERE deleted_at IS NULL AND lower(name) = lower($1) AND id <> $2
		)
	`, name, excludeID).Scan(&taken)
	return taken, err
}

// Delete soft-deletes an add-on. It refuses with ErrInUse while any live
// transaction detail still references the add-on; history is never cascaded.
func (r AddOnRepository) Delete(ctx context.Context, id int64) error {
	var exists bool
	err := r.DB.Pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM add_ons WHERE id = $1 AND deleted_at IS NULL)
	`, id).Scan(&exists)
	if err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}

	var used bool
	err = r.DB.Pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM transaction_details
			WHERE add_on_id = $1 AND deleted_at IS NULL
		)
	`, id).Scan(&used)
	if err != nil {
		return err
	}
	if used {
		return ErrInUse
	}

	_, err = r.DB.Pool.Exec(ctx, `
		UPDATE add_ons SET deleted_at = now() WHERE id = $1
	`, id)
	return err
}

// UsageCount counts live transaction details referencing the add-on.
func (r AddOnRepository) UsageCount(ctx context.Context, id int64) (int64, error) {
	var count int64
	err := r.DB.Pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM transaction_details
		WHERE add_on_id = $1 AND deleted_at IS NULL
	`, id).Scan(&count)
	return count, err
}

// Statistics rolls up usage and revenue per add-on. Soft-deleted details
// are counted on purpose so the report reflects full history.
func (r AddOnRepository) Statistics(ctx context.Context) ([]domain.AddOnStats, error) {
	rows, err := r.DB.Pool.Query(ctx, `
		SELECT a.id, a.name, a.price,
		       COUNT(td.id) AS usage_count,
		       COALESCE(SUM(td.quantity), 0) AS total_quantity,
		       COALESCE(SUM(td.line_total), 0) AS total_revenue
		FROM add_ons a
		LEFT JOIN transaction_details td ON td.add_on_id = a.id
		WHERE a.deleted_at IS NULL
		GROUP BY a.id, a.name, a.price
		ORDER BY usage_count DESC, a.name ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []domain.AddOnStats
	for rows.Next() {
		var s domain.AddOnStats
		if err := rows.Scan(&s.ID, &s.Name, &s.Price, &s.UsageCount, &s.TotalQuantitySold, &s.TotalRevenue); err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	return items, rows.Err()
}

func (r AddOnRepository) ExistingIDs(ctx context.Context, ids []int64) (map[int64]bool, error) {
	found := make(map[int64]bool, len(ids))
	if len(ids) == 0 {
		return found, nil
	}
	rows, err := r.DB.Pool.Query(ctx, `
		SELECT id FROM add_ons WHERE id = ANY($1) AND deleted_at IS NULL
	`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		found[id] = true
	}
	return found, rows.Err()
}

func scanAddOn(row pgx.Row) (*domain.AddOn, error) {
	var a domain.AddOn
	if err := row.Scan(&a.ID, &a.Name, &a.Price, &a.CreatedAt, &a.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}
