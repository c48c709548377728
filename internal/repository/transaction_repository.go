package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Cansyell/laundrybackend/internal/db"
	"github.com/Cansyell/laundrybackend/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

type TransactionRepository struct {
	DB *db.Postgres
}

type CreateTransactionInput struct {
	UserID              int64
	CustomerID          int64
	TransactionDate     time.Time
	EstimatedCompletion *time.Time
	Total               decimal.Decimal
	PaymentStatus       domain.PaymentStatus
	LaundryStatus       domain.LaundryStatus
	PaymentMethod       *string
	PaidAmount          decimal.Decimal
	Notes               *string
	Details             []CreateTransactionDetail
}

type CreateTransactionDetail struct {
	ServiceID *int64
	AddOnID   *int64
	Quantity  int
	Weight    *int
	UnitPrice decimal.Decimal
	LineTotal decimal.Decimal
}

// Create persists the header and all detail rows as one atomic unit.
// Any failure rolls the whole write back; on success the transaction is
// read back with its relations resolved.
func (r TransactionRepository) Create(ctx context.Context, in CreateTransactionInput) (*domain.Transaction, error) {
	tx, err := r.DB.Pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var id int64
	err = tx.QueryRow(ctx, `
		INSERT INTO transactions
		(user_id, customer_id, transaction_date, estimated_completion, total,
		 payment_status, laundry_status, payment_method, paid_amount, notes, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10, now(), now())
		RETURNING id
	`, in.UserID, in.CustomerID, in.TransactionDate, in.EstimatedCompletion, in.Total,
		in.PaymentStatus, in.LaundryStatus, in.PaymentMethod, in.PaidAmount, in.Notes).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("insert transaction: %w", err)
	}

	for _, d := range in.Details {
		_, err := tx.Exec(ctx, `
			INSERT INTO transaction_details
			(transaction_id, customer_id, service_id, add_on_id, quantity, weight, unit_price, line_total, created_at, updated_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8, now(), now())
		`, id, in.CustomerID, d.ServiceID, d.AddOnID, d.Quantity, d.Weight, d.UnitPrice, d.LineTotal)
		if err != nil {
			return nil, fmt.Errorf("insert transaction detail: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return r.Get(ctx, id)
}

type TransactionFilter struct {
	PaymentStatus *domain.PaymentStatus
	LaundryStatus *domain.LaundryStatus
	CustomerID    *int64
}

const transactionColumns = `
	t.id, t.user_id, t.customer_id, t.transaction_date, t.estimated_completion, t.total,
	t.payment_status, t.laundry_status, t.payment_method, t.paid_amount, t.notes,
	t.created_at, t.updated_at,
	u.name, u.email,
	c.name, c.phone, c.address`

// List returns live transactions newest first, details joined in.
func (r TransactionRepository) List(ctx context.Context, f TransactionFilter, limit int) ([]domain.Transaction, error) {
	rows, err := r.DB.Pool.Query(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions t
		JOIN users u ON u.id = t.user_id
		JOIN customers c ON c.id = t.customer_id
		WHERE t.deleted_at IS NULL
		  AND ($1::text IS NULL OR t.payment_status = $1)
		  AND ($2::text IS NULL OR t.laundry_status = $2)
		  AND ($3::bigint IS NULL OR t.customer_id = $3)
		ORDER BY t.created_at DESC, t.id DESC
		LIMIT $4
	`, (*string)(f.PaymentStatus), (*string)(f.LaundryStatus), f.CustomerID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txs []domain.Transaction
	var ids []int64
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		ids = append(ids, t.ID)
		txs = append(txs, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return txs, nil
	}

	detailsByTx, err := r.detailsFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range txs {
		txs[i].Details = detailsByTx[txs[i].ID]
	}
	return txs, nil
}

func (r TransactionRepository) Get(ctx context.Context, id int64) (*domain.Transaction, error) {
	row := r.DB.Pool.QueryRow(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions t
		JOIN users u ON u.id = t.user_id
		JOIN customers c ON c.id = t.customer_id
		WHERE t.id = $1 AND t.deleted_at IS NULL
	`, id)
	t, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	detailsByTx, err := r.detailsFor(ctx, []int64{id})
	if err != nil {
		return nil, err
	}
	t.Details = detailsByTx[id]
	return t, nil
}

type UpdateTransactionInput struct {
	PaymentStatus *domain.PaymentStatus
	LaundryStatus *domain.LaundryStatus
	PaymentMethod *string
	PaidAmount    *decimal.Decimal
	Notes         *string
}

// Update mutates header status/payment/notes fields only. Total and detail
// rows are never touched after creation.
func (r TransactionRepository) Update(ctx context.Context, id int64, in UpdateTransactionInput) (*domain.Transaction, error) {
	tag, err := r.DB.Pool.Exec(ctx, `
		UPDATE transactions
		SET payment_status = COALESCE($2, payment_status),
		    laundry_status = COALESCE($3, laundry_status),
		    payment_method = COALESCE($4, payment_method),
		    paid_amount    = COALESCE($5, paid_amount),
		    notes          = COALESCE($6, notes),
		    updated_at     = now()
		WHERE id = $1 AND deleted_at IS NULL
	`, id, (*string)(in.PaymentStatus), (*string)(in.LaundryStatus), in.PaymentMethod, in.PaidAmount, in.Notes)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrNotFound
	}
	return r.Get(ctx, id)
}

// Delete soft-deletes the header and its details together.
func (r TransactionRepository) Delete(ctx context.Context, id int64) error {
	tx, err := r.DB.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE transactions SET deleted_at = now() WHERE id = $1 AND deleted_at IS NULL
	`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	_, err = tx.Exec(ctx, `
		UPDATE transaction_details SET deleted_at = now() WHERE transaction_id = $1 AND deleted_at IS NULL
	`, id)
	if err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r TransactionRepository) detailsFor(ctx context.Context, ids []int64) (map[int64][]domain.TransactionDetail, error) {
	rows, err := r.DB.Pool.Query(ctx, `
		SELECT td.id, td.transaction_id, td.customer_id, td.service_id, td.add_on_id,
		       td.quantity, td.weight, td.unit_price, td.line_total, td.created_at, td.updated_at,
		       s.name, s.price,
		       a.name, a.price
		FROM transaction_details td
		LEFT JOIN services s ON s.id = td.service_id
		LEFT JOIN add_ons a ON a.id = td.add_on_id
		WHERE td.transaction_id = ANY($1) AND td.deleted_at IS NULL
		ORDER BY td.id ASC
	`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byTx := make(map[int64][]domain.TransactionDetail)
	for rows.Next() {
		var d domain.TransactionDetail
		var svcName, addOnName *string
		var svcPrice, addOnPrice decimal.NullDecimal
		if err := rows.Scan(
			&d.ID, &d.TransactionID, &d.CustomerID, &d.ServiceID, &d.AddOnID,
			&d.Quantity, &d.Weight, &d.UnitPrice, &d.LineTotal, &d.CreatedAt, &d.UpdatedAt,
			&svcName, &svcPrice,
			&addOnName, &addOnPrice,
		); err != nil {
			return nil, err
		}
		if d.ServiceID != nil && svcName != nil {
			d.Service = &domain.Service{ID: *d.ServiceID, Name: *svcName, Price: svcPrice.Decimal}
		}
		if d.AddOnID != nil && addOnName != nil {
			d.AddOn = &domain.AddOn{ID: *d.AddOnID, Name: *addOnName, Price: addOnPrice.Decimal}
		}
		byTx[d.TransactionID] = append(byTx[d.TransactionID], d)
	}
	return byTx, rows.Err()
}

func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	var t domain.Transaction
	var userName, userEmail string
	var custName string
	var custPhone, custAddress *string
	if err := row.Scan(
		&t.ID, &t.UserID, &t.CustomerID, &t.TransactionDate, &t.EstimatedCompletion, &t.Total,
		(*string)(&t.PaymentStatus), (*string)(&t.LaundryStatus), &t.PaymentMethod, &t.PaidAmount, &t.Notes,
		&t.CreatedAt, &t.UpdatedAt,
		&userName, &userEmail,
		&custName, &custPhone, &custAddress,
	); err != nil {
		return nil, err
	}
	t.User = &domain.User{ID: t.UserID, Name: userName, Email: userEmail}
	t.Customer = &domain.Customer{ID: t.CustomerID, Name: custName, Phone: custPhone, Address: custAddress}
	return &t, nil
}
