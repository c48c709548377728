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

type ExpenseRepository struct {
	DB *db.Postgres
}

type ExpenseParams struct {
	UserID        int64
	CategoryID    *int64
	Amount        decimal.Decimal
	PaymentMethod *string
	Description   *string
	Date          time.Time
	RefNo         *string
}

type ExpenseFilter struct {
	CategoryID    *int64
	PaymentMethod *string
	StartDate     *time.Time
	EndDate       *time.Time
	Search        *string
	SortBy        string
	SortOrder     string
	Limit         int
	Offset        int
}

const expenseColumns = `
	e.id, e.user_id, e.expenses_category_id, e.amount, e.payment_method, e.description,
	e.date, e.ref_no, e.created_at, e.updated_at,
	u.name,
	c.name`

var expenseSortColumns = map[string]string{
	"date":   "e.date",
	"amount": "e.amount",
	"id":     "e.id",
}

func (r ExpenseRepository) List(ctx context.Context, f ExpenseFilter) ([]domain.Expense, error) {
	sortBy, ok := expenseSortColumns[f.SortBy]
	if !ok {
		sortBy = "e.date"
	}
	order := "DESC"
	if f.SortOrder == "asc" {
		order = "ASC"
	}
	limit := f.Limit
	if limit <= 0 {
		limit = 15
	}

	rows, err := r.DB.Pool.Query(ctx, fmt.Sprintf(`
		SELECT `+expenseColumns+`
		FROM expenses e
		JOIN users u ON u.id = e.user_id
		LEFT JOIN expenses_categories c ON c.id = e.expenses_category_id
		WHERE e.deleted_at IS NULL
		  AND ($1::bigint IS NULL OR e.expenses_category_id = $1)
		  AND ($2::text IS NULL OR e.payment_method = $2)
		  AND ($3::date IS NULL OR e.date >= $3)
		  AND ($4::date IS NULL OR e.date <= $4)
		  AND ($5::text IS NULL OR e.description ILIKE '%%'||$5||'%%' OR e.ref_no ILIKE '%%'||$5||'%%')
		ORDER BY %s %s, e.id DESC
		LIMIT $6 OFFSET $7
	`, sortBy, order), f.CategoryID, f.PaymentMethod, f.StartDate, f.EndDate, f.Search, limit, f.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []domain.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *e)
	}
	return items, rows.Err()
}

func (r ExpenseRepository) Create(ctx context.Context, p ExpenseParams) (*domain.Expense, error) {
	var id int64
	err := r.DB.Pool.QueryRow(ctx, `
		INSERT INTO expenses (user_id, expenses_category_id, amount, payment_method, description, date, ref_no, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7, now(), now())
		RETURNING id
	`, p.UserID, p.CategoryID, p.Amount, p.PaymentMethod, p.Description, p.Date, p.RefNo).Scan(&id)
	if err != nil {
		return nil, err
	}
	return r.Get(ctx, id)
}

func (r ExpenseRepository) Get(ctx context.Context, id int64) (*domain.Expense, error) {
	row := r.DB.Pool.QueryRow(ctx, `
		SELECT `+expenseColumns+`
		FROM expenses e
		JOIN users u ON u.id = e.user_id
		LEFT JOIN expenses_categories c ON c.id = e.expenses_category_id
		WHERE e.id = $1 AND e.deleted_at IS NULL
	`, id)
	e, err := scanExpense(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return e, nil
}

func (r ExpenseRepository) Update(ctx context.Context, id int64, p ExpenseParams) (*domain.Expense, error) {
	tag, err := r.DB.Pool.Exec(ctx, `
		UPDATE expenses
		SET user_id = $2, expenses_category_id = $3, amount = $4, payment_method = $5,
		    description = $6, date = $7, ref_no = $8, updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL
	`, id, p.UserID, p.CategoryID, p.Amount, p.PaymentMethod, p.Description, p.Date, p.RefNo)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrNotFound
	}
	return r.Get(ctx, id)
}

func (r ExpenseRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.DB.Pool.Exec(ctx, `
		UPDATE expenses SET deleted_at = now() WHERE id = $1 AND deleted_at IS NULL
	`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// RefNoTaken reports whether another live expense already uses refNo.
func (r ExpenseRepository) RefNoTaken(ctx context.Context, refNo string, excludeID int64) (bool, error) {
	var taken bool
	err := r.DB.Pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM expenses
			WHERE deleted_at IS NULL AND ref_no = $1 AND id <> $2
		)
	`, refNo, excludeID).Scan(&taken)
	return taken, err
}

type ExpenseSummary struct {
	TotalExpenses   int64
	TotalAmount     decimal.Decimal
	AverageAmount   decimal.Decimal
	ByCategory      []ExpenseGroup
	ByPaymentMethod []ExpenseGroup
	ByUser          []ExpenseGroup
}

// ExpenseGroup is one aggregation bucket; Key/Name depend on the grouping.
type ExpenseGroup struct {
	ID    *int64
	Name  *string
	Count int64
	Total decimal.Decimal
}

type SummaryFilter struct {
	CategoryID *int64
	StartDate  *time.Time
	EndDate    *time.Time
}

// Summary aggregates live expenses: grand totals plus groupings by
// category, payment method and user.
func (r ExpenseRepository) Summary(ctx context.Context, f SummaryFilter) (*ExpenseSummary, error) {
	const where = `
		e.deleted_at IS NULL
		AND ($1::bigint IS NULL OR e.expenses_category_id = $1)
		AND ($2::date IS NULL OR e.date >= $2)
		AND ($3::date IS NULL OR e.date <= $3)`

	var s ExpenseSummary
	err := r.DB.Pool.QueryRow(ctx, `
		SELECT COUNT(*), COALESCE(SUM(e.amount), 0), COALESCE(AVG(e.amount), 0)
		FROM expenses e
		WHERE `+where, f.CategoryID, f.StartDate, f.EndDate).
		Scan(&s.TotalExpenses, &s.TotalAmount, &s.AverageAmount)
	if err != nil {
		return nil, err
	}

	s.ByCategory, err = r.groupBy(ctx, `
		SELECT e.expenses_category_id, c.name, COUNT(*), COALESCE(SUM(e.amount), 0)
		FROM expenses e
		LEFT JOIN expenses_categories c ON c.id = e.expenses_category_id
		WHERE `+where+`
		GROUP BY e.expenses_category_id, c.name
		ORDER BY 4 DESC`, f)
	if err != nil {
		return nil, err
	}

	s.ByPaymentMethod, err = r.groupBy(ctx, `
		SELECT NULL::bigint, e.payment_method, COUNT(*), COALESCE(SUM(e.amount), 0)
		FROM expenses e
		WHERE e.payment_method IS NOT NULL AND `+where+`
		GROUP BY e.payment_method
		ORDER BY 4 DESC`, f)
	if err != nil {
		return nil, err
	}

	s.ByUser, err = r.groupBy(ctx, `
		SELECT e.user_id, u.name, COUNT(*), COALESCE(SUM(e.amount), 0)
		FROM expenses e
		JOIN users u ON u.id = e.user_id
		WHERE `+where+`
		GROUP BY e.user_id, u.name
		ORDER BY 4 DESC`, f)
	if err != nil {
		return nil, err
	}

	return &s, nil
}

func (r ExpenseRepository) groupBy(ctx context.Context, query string, f SummaryFilter) ([]ExpenseGroup, error) {
	rows, err := r.DB.Pool.Query(ctx, query, f.CategoryID, f.StartDate, f.EndDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var groups []ExpenseGroup
	for rows.Next() {
		var g ExpenseGroup
		if err := rows.Scan(&g.ID, &g.Name, &g.Count, &g.Total); err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

// MonthBucket is one month of aggregated expense data.
type MonthBucket struct {
	Month int
	Total decimal.Decimal
	Count int64
}

// MonthTotals returns the per-month buckets that actually have data for
// the given year. Zero-filling to 12 rows happens at the handler layer.
func (r ExpenseRepository) MonthTotals(ctx context.Context, year int, categoryID *int64) ([]MonthBucket, error) {
	rows, err := r.DB.Pool.Query(ctx, `
		SELECT EXTRACT(MONTH FROM e.date)::int AS month, COALESCE(SUM(e.amount), 0), COUNT(*)
		FROM expenses e
		WHERE e.deleted_at IS NULL
		  AND EXTRACT(YEAR FROM e.date) = $1
		  AND ($2::bigint IS NULL OR e.expenses_category_id = $2)
		GROUP BY month
		ORDER BY month
	`, year, categoryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var buckets []MonthBucket
	for rows.Next() {
		var b MonthBucket
		if err := rows.Scan(&b.Month, &b.Total, &b.Count); err != nil {
			return nil, err
		}
		buckets = append(buckets, b)
	}
	return buckets, rows.Err()
}

func scanExpense(row pgx.Row) (*domain.Expense, error) {
	var e domain.Expense
	var userName string
	var catName *string
	if err := row.Scan(
		&e.ID, &e.UserID, &e.CategoryID, &e.Amount, &e.PaymentMethod, &e.Description,
		&e.Date, &e.RefNo, &e.CreatedAt, &e.UpdatedAt,
		&userName, &catName,
	); err != nil {
		return nil, err
	}
	e.User = &domain.User{ID: e.UserID, Name: userName}
	if e.CategoryID != nil && catName != nil {
		e.Category = &domain.ExpenseCategory{ID: *e.CategoryID, Name: *catName}
	}
	return &e, nil
}
