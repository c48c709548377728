package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Cansyell/laundrybackend/internal/domain"
	"github.com/Cansyell/laundrybackend/internal/repository"
	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

func int64Ptr(v int64) *int64 { return &v }

func TestValidateCreateTransactionRejectsRowWithoutReference(t *testing.T) {
	p := createTransactionPayload{
		CustomerID:    1,
		PaymentStatus: "unpaid",
		Details: []transactionDetailPayload{
			{ServiceID: int64Ptr(1), Quantity: 2, UnitPrice: decimal.RequireFromString("10.00")},
			{Quantity: 1, UnitPrice: decimal.RequireFromString("5.50")},
		},
	}
	errs := validateCreateTransaction(p)
	if errs == nil {
		t.Fatalf("expected validation errors")
	}
	if _, ok := errs["details.1"]; !ok {
		t.Fatalf("expected error keyed details.1, got %v", errs)
	}
	if _, ok := errs["details.0"]; ok {
		t.Fatalf("row 0 has a service reference and must pass, got %v", errs)
	}
}

func TestValidateCreateTransactionRequiresDetails(t *testing.T) {
	p := createTransactionPayload{CustomerID: 1, PaymentStatus: "paid"}
	errs := validateCreateTransaction(p)
	if errs == nil {
		t.Fatalf("expected validation errors")
	}
	if _, ok := errs["details"]; !ok {
		t.Fatalf("expected details error, got %v", errs)
	}
}

func TestValidateCreateTransactionRejectsUnknownEnums(t *testing.T) {
	p := createTransactionPayload{
		CustomerID:    1,
		PaymentStatus: "settled",
		LaundryStatus: "ironing",
		Details: []transactionDetailPayload{
			{ServiceID: int64Ptr(1), Quantity: 1, UnitPrice: decimal.New(10, 0)},
		},
	}
	errs := validateCreateTransaction(p)
	if errs == nil {
		t.Fatalf("expected validation errors")
	}
	if _, ok := errs["payment_status"]; !ok {
		t.Fatalf("expected payment_status error, got %v", errs)
	}
	if _, ok := errs["laundry_status"]; !ok {
		t.Fatalf("expected laundry_status error, got %v", errs)
	}
}

func TestValidateCreateTransactionRejectsBadQuantityAndPrice(t *testing.T) {
	p := createTransactionPayload{
		CustomerID:    1,
		PaymentStatus: "unpaid",
		Details: []transactionDetailPayload{
			{ServiceID: int64Ptr(1), Quantity: 0, UnitPrice: decimal.RequireFromString("-1.00")},
		},
	}
	errs := validateCreateTransaction(p)
	if errs == nil {
		t.Fatalf("expected validation errors")
	}
	if _, ok := errs["details.0.quantity"]; !ok {
		t.Fatalf("expected quantity error, got %v", errs)
	}
	if _, ok := errs["details.0.unit_price"]; !ok {
		t.Fatalf("expected unit_price error, got %v", errs)
	}
}

func TestValidateCreateTransactionAcceptsValidPayload(t *testing.T) {
	p := createTransactionPayload{
		CustomerID:      1,
		PaymentStatus:   "paid",
		TransactionDate: "2026-01-15",
		Details: []transactionDetailPayload{
			{ServiceID: int64Ptr(1), Quantity: 2, UnitPrice: decimal.RequireFromString("10.00")},
			{AddOnID: int64Ptr(3), Quantity: 1, UnitPrice: decimal.RequireFromString("5.50")},
		},
	}
	if errs := validateCreateTransaction(p); errs != nil {
		t.Fatalf("expected no errors, got %v", errs)
	}
}

func TestComputeLineTotals(t *testing.T) {
	details := []transactionDetailPayload{
		{ServiceID: int64Ptr(1), Quantity: 2, UnitPrice: decimal.RequireFromString("10.00")},
		{AddOnID: int64Ptr(3), Quantity: 1, UnitPrice: decimal.RequireFromString("5.50")},
	}
	lines, total := computeLineTotals(details)
	if len(lines) != 2 {
		t.Fatalf("expected 2 line totals, got %d", len(lines))
	}
	if !lines[0].Equal(decimal.RequireFromString("20.00")) {
		t.Fatalf("line 0: expected 20.00, got %s", lines[0])
	}
	if !lines[1].Equal(decimal.RequireFromString("5.50")) {
		t.Fatalf("line 1: expected 5.50, got %s", lines[1])
	}
	if !total.Equal(decimal.RequireFromString("25.50")) {
		t.Fatalf("total: expected 25.50, got %s", total)
	}
}

func TestComputeLineTotalsNoFloatDrift(t *testing.T) {
	details := []transactionDetailPayload{
		{ServiceID: int64Ptr(1), Quantity: 3, UnitPrice: decimal.RequireFromString("0.10")},
	}
	_, total := computeLineTotals(details)
	if !total.Equal(decimal.RequireFromString("0.30")) {
		t.Fatalf("expected exactly 0.30, got %s", total)
	}
}

func TestResolvePaidAmount(t *testing.T) {
	total := decimal.RequireFromString("25.50")
	if got := resolvePaidAmount(domain.PaymentPaid, total); !got.Equal(total) {
		t.Fatalf("paid: expected %s, got %s", total, got)
	}
	if got := resolvePaidAmount(domain.PaymentUnpaid, total); !got.IsZero() {
		t.Fatalf("unpaid: expected 0, got %s", got)
	}
	if got := resolvePaidAmount(domain.PaymentPartial, total); !got.IsZero() {
		t.Fatalf("partial: expected 0, got %s", got)
	}
}

func TestValidateUpdateTransaction(t *testing.T) {
	bad := "shipped"
	errs := validateUpdateTransaction(updateTransactionPayload{LaundryStatus: &bad})
	if errs == nil {
		t.Fatalf("expected validation errors")
	}
	if _, ok := errs["laundry_status"]; !ok {
		t.Fatalf("expected laundry_status error, got %v", errs)
	}

	ok := "in_process"
	if errs := validateUpdateTransaction(updateTransactionPayload{LaundryStatus: &ok}); errs != nil {
		t.Fatalf("expected no errors, got %v", errs)
	}

	neg := decimal.RequireFromString("-1")
	errs = validateUpdateTransaction(updateTransactionPayload{PaidAmount: &neg})
	if errs == nil || errs["paid_amount"] == "" {
		t.Fatalf("expected paid_amount error, got %v", errs)
	}
}

// transactionStoreFake persists header and details all-or-nothing, like
// the Postgres repository: any injected failure stores zero rows.
type transactionStoreFake struct {
	transactions map[int64]domain.Transaction
	nextID       int64
	createErr    error
}

func newTransactionStoreFake() *transactionStoreFake {
	return &transactionStoreFake{transactions: map[int64]domain.Transaction{}}
}

func (s *transactionStoreFake) Create(_ context.Context, in repository.CreateTransactionInput) (*domain.Transaction, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	s.nextID++
	t := domain.Transaction{
		ID:            s.nextID,
		UserID:        in.UserID,
		CustomerID:    in.CustomerID,
		TransactionDate: in.TransactionDate,
		Total:         in.Total,
		PaymentStatus: in.PaymentStatus,
		LaundryStatus: in.LaundryStatus,
		PaymentMethod: in.PaymentMethod,
		PaidAmount:    in.PaidAmount,
		Notes:         in.Notes,
	}
	for i, d := range in.Details {
		t.Details = append(t.Details, domain.TransactionDetail{
			ID:            int64(i + 1),
			TransactionID: t.ID,
			ServiceID:     d.ServiceID,
			AddOnID:       d.AddOnID,
			Quantity:      d.Quantity,
			Weight:        d.Weight,
			UnitPrice:     d.UnitPrice,
			LineTotal:     d.LineTotal,
		})
	}
	s.transactions[t.ID] = t
	return &t, nil
}

func (s *transactionStoreFake) List(context.Context, repository.TransactionFilter, int) ([]domain.Transaction, error) {
	out := make([]domain.Transaction, 0, len(s.transactions))
	for _, t := range s.transactions {
		out = append(out, t)
	}
	return out, nil
}

func (s *transactionStoreFake) Get(_ context.Context, id int64) (*domain.Transaction, error) {
	t, ok := s.transactions[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &t, nil
}

func (s *transactionStoreFake) Update(_ context.Context, id int64, in repository.UpdateTransactionInput) (*domain.Transaction, error) {
	t, ok := s.transactions[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if in.PaymentStatus != nil {
		t.PaymentStatus = *in.PaymentStatus
	}
	if in.LaundryStatus != nil {
		t.LaundryStatus = *in.LaundryStatus
	}
	if in.PaidAmount != nil {
		t.PaidAmount = *in.PaidAmount
	}
	s.transactions[id] = t
	return &t, nil
}

func (s *transactionStoreFake) Delete(_ context.Context, id int64) error {
	if _, ok := s.transactions[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.transactions, id)
	return nil
}

type existsFake struct{ ids map[int64]bool }

func (f existsFake) Exists(_ context.Context, id int64) (bool, error) { return f.ids[id], nil }

type idFilterFake struct{ ids map[int64]bool }

func (f idFilterFake) ExistingIDs(_ context.Context, ids []int64) (map[int64]bool, error) {
	found := make(map[int64]bool, len(ids))
	for _, id := range ids {
		if f.ids[id] {
			found[id] = true
		}
	}
	return found, nil
}

func newTransactionRouter(store *transactionStoreFake) http.Handler {
	r := chi.NewRouter()
	TransactionHandler{
		Repo:      store,
		Users:     existsFake{ids: map[int64]bool{5: true}},
		Customers: existsFake{ids: map[int64]bool{7: true}},
		Services:  idFilterFake{ids: map[int64]bool{1: true}},
		AddOns:    idFilterFake{ids: map[int64]bool{3: true}},
	}.RegisterRoutes(r)
	return r
}

const createTransactionBody = `{
	"user_id": 5,
	"customer_id": 7,
	"payment_status": "paid",
	"details": [
		{"service_id": 1, "quantity": 2, "unit_price": "10.00"},
		{"add_on_id": 3, "quantity": 1, "unit_price": "5.50"}
	]
}`

func TestCreateTransactionStoresHeaderAndDetails(t *testing.T) {
	store := newTransactionStoreFake()
	req := httptest.NewRequest("POST", "/transactions", strings.NewReader(createTransactionBody))
	rec := httptest.NewRecorder()
	newTransactionRouter(store).ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (%s)", rec.Code, rec.Body.String())
	}
	if len(store.transactions) != 1 {
		t.Fatalf("expected one stored transaction, got %d", len(store.transactions))
	}
	stored := store.transactions[1]
	if !stored.Total.Equal(decimal.RequireFromString("25.50")) {
		t.Fatalf("expected total 25.50, got %s", stored.Total)
	}
	if !stored.PaidAmount.Equal(stored.Total) {
		t.Fatalf("paid transaction must settle in full, paid=%s total=%s", stored.PaidAmount, stored.Total)
	}
	if stored.LaundryStatus != domain.LaundryPending {
		t.Fatalf("laundry status must default to pending, got %q", stored.LaundryStatus)
	}
	if len(stored.Details) != 2 {
		t.Fatalf("expected 2 stored details, got %d", len(stored.Details))
	}
	if !stored.Details[0].LineTotal.Equal(decimal.RequireFromString("20.00")) ||
		!stored.Details[1].LineTotal.Equal(decimal.RequireFromString("5.50")) {
		t.Fatalf("unexpected line totals: %s, %s", stored.Details[0].LineTotal, stored.Details[1].LineTotal)
	}
}

func TestCreateTransactionPersistsNothingOnFailure(t *testing.T) {
	store := newTransactionStoreFake()
	store.createErr = errors.New("insert transaction detail: connection reset")

	req := httptest.NewRequest("POST", "/transactions", strings.NewReader(createTransactionBody))
	rec := httptest.NewRecorder()
	newTransactionRouter(store).ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if len(store.transactions) != 0 {
		t.Fatalf("failed create must persist zero rows, got %d", len(store.transactions))
	}
}

func TestCreateTransactionUnknownServiceRejectedBeforeWrite(t *testing.T) {
	store := newTransactionStoreFake()
	body := `{
		"user_id": 5,
		"customer_id": 7,
		"payment_status": "unpaid",
		"details": [{"service_id": 99, "quantity": 1, "unit_price": "10.00"}]
	}`
	req := httptest.NewRequest("POST", "/transactions", strings.NewReader(body))
	rec := httptest.NewRecorder()
	newTransactionRouter(store).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d (%s)", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "details.0.service_id") {
		t.Fatalf("expected row-keyed error, got %s", rec.Body.String())
	}
	if len(store.transactions) != 0 {
		t.Fatalf("validation failure must not write, got %d rows", len(store.transactions))
	}
}

func TestCreateTransactionMapsForeignKeyToValidation(t *testing.T) {
	store := newTransactionStoreFake()
	store.createErr = &pgconn.PgError{Code: "23503"}

	req := httptest.NewRequest("POST", "/transactions", strings.NewReader(createTransactionBody))
	rec := httptest.NewRecorder()
	newTransactionRouter(store).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for constraint violation, got %d (%s)", rec.Code, rec.Body.String())
	}
	if len(store.transactions) != 0 {
		t.Fatalf("constraint failure must persist zero rows, got %d", len(store.transactions))
	}
}
