package repository

import (
	"context"
	"errors"

	"github.com/Cansyell/laundrybackend/internal/db"
	"github.com/Cansyell/laundrybackend/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

type ServiceRepository struct {
	DB *db.Postgres
}

type ServiceParams struct {
	CategoryID  *int64
	Name        string
	MinOrder    int
	Type        *string
	Price       decimal.Decimal
	Discount    decimal.Decimal
	Estimate    *string
	Description *string
}

const serviceColumns = `
	s.id, s.category_id, s.name, s.min_order, s.type, s.price, s.discount, s.estimate, s.description,
	s.created_at, s.updated_at,
	c.id, c.name, c.type`

// List returns live services newest first, category joined in.
func (r ServiceRepository) List(ctx context.Context, limit, offset int) ([]domain.Service, error) {
	rows, err := r.DB.Pool.Query(ctx, `
		SELECT `+serviceColumns+`
		FROM services s
		LEFT JOIN categories c ON c.id = s.category_id AND c.deleted_at IS NULL
		WHERE s.deleted_at IS NULL
		ORDER BY s.created_at DESC, s.id DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []domain.Service
	for rows.Next() {
		s, err := scanService(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *s)
	}
	return items, rows.Err()
}

func (r ServiceRepository) Create(ctx context.Context, p ServiceParams) (*domain.Service, error) {
	var id int64
	err := r.DB.Pool.QueryRow(ctx, `
		INSERT INTO services (category_id, name, min_order, type, price, discount, estimate, description, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8, now(), now())
		RETURNING id
	`, p.CategoryID, p.Name, p.MinOrder, p.Type, p.Price, p.Discount, p.Estimate, p.Description).Scan(&id)
	if err != nil {
		return nil, err
	}
	return r.Get(ctx, id)
}

func (r ServiceRepository) Get(ctx context.Context, id int64) (*domain.Service, error) {
	row := r.DB.Pool.QueryRow(ctx, `
		SELECT `+serviceColumns+`
		FROM services s
		LEFT JOIN categories c ON c.id = s.category_id AND c.deleted_at IS NULL
		WHERE s.id = $1 AND s.deleted_at IS NULL
	`, id)
	s, err := scanService(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return s, nil
}

func (r ServiceRepository) Update(ctx context.Context, id int64, p ServiceParams) (*domain.Service, error) {
	tag, err := r.DB.Pool.Exec(ctx, `
		UPDATE services
		SET category_id = $2, name = $3, min_order = $4, type = $5, price = $6,
		    discount = $7, estimate = $8, description = $9, updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL
	`, id, p.CategoryID, p.Name, p.MinOrder, p.Type, p.Price, p.Discount, p.Estimate, p.Description)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrNotFound
	}
	return r.Get(ctx, id)
}

func (r ServiceRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.DB.Pool.Exec(ctx, `
		UPDATE services SET deleted_at = now() WHERE id = $1 AND deleted_at IS NULL
	`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ExistingIDs filters ids down to those of live services.
func (r ServiceRepository) ExistingIDs(ctx context.Context, ids []int64) (map[int64]bool, error) {
	found := make(map[int64]bool, len(ids))
	if len(ids) == 0 {
		return found, nil
	}
	rows, err := r.DB.Pool.Query(ctx, `
		SELECT id FROM services WHERE id = ANY($1) AND deleted_at IS NULL
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

func scanService(row pgx.Row) (*domain.Service, error) {
	var s domain.Service
	var catID *int64
	var catName, catType *string
	if err := row.Scan(
		&s.ID, &s.CategoryID, &s.Name, &s.MinOrder, &s.Type, &s.Price, &s.Discount, &s.Estimate, &s.Description,
		&s.CreatedAt, &s.UpdatedAt,
		&catID, &catName, &catType,
	); err != nil {
		return nil, err
	}
	if catID != nil {
		s.Category = &domain.Category{ID: *catID, Name: *catName, Type: catType}
	}
	return &s, nil
}
