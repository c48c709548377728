package repository

import (
	"context"
	"errors"

	"github.com/Cansyell/laundrybackend/internal/db"
	"github.com/Cansyell/laundrybackend/internal/domain"
	"github.com/jackc/pgx/v5"
)

type ExpenseCategoryRepository struct {
	DB *db.Postgres
}

type ExpenseCategoryParams struct {
	Name        string
	Description *string
}

func (r ExpenseCategoryRepository) List(ctx context.Context) ([]domain.ExpenseCategory, error) {
	rows, err := r.DB.Pool.Query(ctx, `
		SELECT id, name, description, created_at, updated_at
		FROM expenses_categories
		WHERE deleted_at IS NULL
		ORDER BY name ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []domain.ExpenseCategory
	for rows.Next() {
		var c domain.ExpenseCategory
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

func (r ExpenseCategoryRepository) Create(ctx context.Context, p ExpenseCategoryParams) (*domain.ExpenseCategory, error) {
	row := r.DB.Pool.QueryRow(ctx, `
		INSERT INTO expenses_categories (name, description, created_at, updated_at)
		VALUES ($1, $2, now(), now())
		RETURNING id, name, description, created_at, updated_at
	`, p.Name, p.Description)
	return scanExpenseCategory(row)
}

func (r ExpenseCategoryRepository) Get(ctx context.Context, id int64) (*domain.ExpenseCategory, error) {
	row := r.DB.Pool.QueryRow(ctx, `
		SELECT id, name, description, created_at, updated_at
		FROM expenses_categories
		WHERE id = $1 AND deleted_at IS NULL
	`, id)
	return scanExpenseCategory(row)
}

func (r ExpenseCategoryRepository) Update(ctx context.Context, id int64, p ExpenseCategoryParams) (*domain.ExpenseCategory, error) {
	row := r.DB.Pool.QueryRow(ctx, `
		UPDATE expenses_categories
		SET name = $2, description = $3, updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING id, name, description, created_at, updated_at
	`, id, p.Name, p.Description)
	return scanExpenseCategory(row)
}

func (r ExpenseCategoryRepository) NameTaken(ctx context.Context, name string, excludeID int64) (bool, error) {
	var taken bool
	err := r.DB.Pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM expenses_categories
			WHERE deleted_at IS NULL AND lower(name) = lower($1) AND id <> $2
		)
	`, name, excludeID).Scan(&taken)
	return taken, err
}

func (r ExpenseCategoryRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.DB.Pool.Exec(ctx, `
		UPDATE expenses_categories SET deleted_at = now() WHERE id = $1 AND deleted_at IS NULL
	`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r ExpenseCategoryRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.DB.Pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM expenses_categories WHERE id = $1 AND deleted_at IS NULL)
	`, id).Scan(&exists)
	return exists, err
}

func scanExpenseCategory(row pgx.Row) (*domain.ExpenseCategory, error) {
	var c domain.ExpenseCategory
	if err := row.Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt, &c.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}
