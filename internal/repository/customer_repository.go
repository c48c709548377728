package repository

import (
	"context"
	"errors"

	"github.com/Cansyell/laundrybackend/internal/db"
	"github.com/Cansyell/laundrybackend/internal/domain"
	"github.com/jackc/pgx/v5"
)

type CustomerRepository struct {
	DB *db.Postgres
}

type CustomerParams struct {
	Name    string
	Phone   *string
	Address *string
}

func (r CustomerRepository) List(ctx context.Context) ([]domain.Customer, error) {
	rows, err := r.DB.Pool.Query(ctx, `
		SELECT id, name, phone, address, created_at, updated_at
		FROM customers
		WHERE deleted_at IS NULL
		ORDER BY name ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []domain.Customer
	for rows.Next() {
		var c domain.Customer
		if err := rows.Scan(&c.ID, &c.Name, &c.Phone, &c.Address, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

func (r CustomerRepository) Create(ctx context.Context, p CustomerParams) (*domain.Customer, error) {
	row := r.DB.Pool.QueryRow(ctx, `
		INSERT INTO customers (name, phone, address, created_at, updated_at)
		VALUES ($1, $2, $3, now(), now())
		RETURNING id, name, phone, address, created_at, updated_at
	`, p.Name, p.Phone, p.Address)
	return scanCustomer(row)
}

func (r CustomerRepository) Get(ctx context.Context, id int64) (*domain.Customer, error) {
	row := r.DB.Pool.QueryRow(ctx, `
		SELECT id, name, phone, address, created_at, updated_at
		FROM customers
		WHERE id = $1 AND deleted_at IS NULL
	`, id)
	return scanCustomer(row)
}

func (r CustomerRepository) Update(ctx context.Context, id int64, p CustomerParams) (*domain.Customer, error) {
	row := r.DB.Pool.QueryRow(ctx, `
		UPDATE customers
		SET name = $2, phone = $3, address = $4, updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING id, name, phone, address, created_at, updated_at
	`, id, p.Name, p.Phone, p.Address)
	return scanCustomer(row)
}

func (r CustomerRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.DB.Pool.Exec(ctx, `
		UPDATE customers SET deleted_at = now() WHERE id = $1 AND deleted_at IS NULL
	`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r CustomerRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.DB.Pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM customers WHERE id = $1 AND deleted_at IS NULL)
	`, id).Scan(&exists)
	return exists, err
}

func scanCustomer(row pgx.Row) (*domain.Customer, error) {
	var c domain.Customer
	if err := row.Scan(&c.ID, &c.Name, &c.Phone, &c.Address, &c.CreatedAt, &c.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}
