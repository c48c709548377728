package repository

import (
	"context"
	"errors"

	"github.com/Cansyell/laundrybackend/internal/db"
	"github.com/Cansyell/laundrybackend/internal/domain"
	"github.com/jackc/pgx/v5"
)

type CategoryRepository struct {
	DB *db.Postgres
}

type CategoryParams struct {
	Name string
	Type *string
}

func (r CategoryRepository) List(ctx context.Context) ([]domain.Category, error) {
	rows, err := r.DB.Pool.Query(ctx, `
		SELECT id, name, type, created_at, updated_at
		FROM categories
		WHERE deleted_at IS NULL
		ORDER BY name ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []domain.Category
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Type, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

func (r CategoryRepository) Create(ctx context.Context, p CategoryParams) (*domain.Category, error) {
	row := r.DB.Pool.QueryRow(ctx, `
		INSERT INTO categories (name, type, created_at, updated_at)
		VALUES ($1, $2, now(), now())
		RETURNING id, name, type, created_at, updated_at
	`, p.Name, p.Type)
	return scanCategory(row)
}

func (r CategoryRepository) Get(ctx context.Context, id int64) (*domain.Category, error) {
	row := r.DB.Pool.QueryRow(ctx, `
		SELECT id, name, type, created_at, updated_at
		FROM categories
		WHERE id = $1 AND deleted_at IS NULL
	`, id)
	return scanCategory(row)
}

func (r CategoryRepository) Update(ctx context.Context, id int64, p CategoryParams) (*domain.Category, error) {
	row := r.DB.Pool.QueryRow(ctx, `
		UPDATE categories
		SET name = $2, type = $3, updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING id, name, type, created_at, updated_at
	`, id, p.Name, p.Type)
	return scanCategory(row)
}

// NameTaken reports whether another live category already uses name.
func (r CategoryRepository) NameTaken(ctx context.Context, name string, excludeID int64) (bool, error) {
	var taken bool
	err := r.DB.Pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM categories
			WHERE deleted_at IS NULL AND lower(name) = lower($1) AND id <> $2
		)
	`, name, excludeID).Scan(&taken)
	return taken, err
}

func (r CategoryRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.DB.Pool.Exec(ctx, `
		UPDATE categories SET deleted_at = now() WHERE id = $1 AND deleted_at IS NULL
	`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanCategory(row pgx.Row) (*domain.Category, error) {
	var c domain.Category
	if err := row.Scan(&c.ID, &c.Name, &c.Type, &c.CreatedAt, &c.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}
