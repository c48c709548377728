package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/Cansyell/laundrybackend/internal/domain"
	"github.com/Cansyell/laundrybackend/internal/repository"
	"github.com/Cansyell/laundrybackend/internal/server/authctx"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type transactionStore interface {
	Create(ctx context.Context, in repository.CreateTransactionInput) (*domain.Transaction, error)
	List(ctx context.Context, f repository.TransactionFilter, limit int) ([]domain.Transaction, error)
	Get(ctx context.Context, id int64) (*domain.Transaction, error)
	Update(ctx context.Context, id int64, in repository.UpdateTransactionInput) (*domain.Transaction, error)
	Delete(ctx context.Context, id int64) error
}

type existsChecker interface {
	Exists(ctx context.Context, id int64) (bool, error)
}

type idFilter interface {
	ExistingIDs(ctx context.Context, ids []int64) (map[int64]bool, error)
}

type TransactionHandler struct {
	Repo      transactionStore
	Users     existsChecker
	Customers existsChecker
	Services  idFilter
	AddOns    idFilter
}

func (h TransactionHandler) RegisterRoutes(r chi.Router) {
	r.Get("/transactions", h.list)
	r.Post("/transactions", h.create)
	r.Get("/transactions/{id}", h.get)
	r.Put("/transactions/{id}", h.update)
	r.Delete("/transactions/{id}", h.delete)
}

type transactionDetailPayload struct {
	ServiceID *int64          `json:"service_id"`
	AddOnID   *int64          `json:"add_on_id"`
	Quantity  int             `json:"quantity"`
	Weight    *int            `json:"weight"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

type createTransactionPayload struct {
	UserID              int64                      `json:"user_id"`
	CustomerID          int64                      `json:"customer_id"`
	TransactionDate     string                     `json:"transaction_date"`
	EstimatedCompletion *string                    `json:"estimated_completion"`
	PaymentStatus       string                     `json:"payment_status"`
	LaundryStatus       string                     `json:"laundry_status"`
	PaymentMethod       *string                    `json:"payment_method"`
	Notes               *string                    `json:"notes"`
	Details             []transactionDetailPayload `json:"details"`
}

// validateCreateTransaction runs the structural pass over the payload:
// required header fields, known enums, and per-row rules. Row errors are
// keyed details.<index>.<field> so the client can point at the offending
// line. No storage lookups happen here.
func validateCreateTransaction(p createTransactionPayload) map[string]string {
	errs := map[string]string{}
	if p.CustomerID <= 0 {
		errs["customer_id"] = "customer_id wajib diisi"
	}
	if p.PaymentStatus == "" {
		errs["payment_status"] = "payment_status wajib diisi"
	} else if !domain.ValidPaymentStatus(domain.PaymentStatus(p.PaymentStatus)) {
		errs["payment_status"] = "payment_status tidak valid"
	}
	if p.LaundryStatus != "" && !domain.ValidLaundryStatus(domain.LaundryStatus(p.LaundryStatus)) {
		errs["laundry_status"] = "laundry_status tidak valid"
	}
	if p.TransactionDate != "" {
		if _, err := time.Parse(dateLayout, p.TransactionDate); err != nil {
			errs["transaction_date"] = "format tanggal harus YYYY-MM-DD"
		}
	}
	if p.EstimatedCompletion != nil {
		if _, err := time.Parse(dateLayout, *p.EstimatedCompletion); err != nil {
			errs["estimated_completion"] = "format tanggal harus YYYY-MM-DD"
		}
	}
	if len(p.Details) == 0 {
		errs["details"] = "transaksi harus memiliki minimal satu item"
	}
	for i, d := range p.Details {
		if d.ServiceID == nil && d.AddOnID == nil {
			errs[fmt.Sprintf("details.%d", i)] = "setiap item harus memiliki service_id atau add_on_id"
		}
		if d.Quantity < 1 {
			errs[fmt.Sprintf("details.%d.quantity", i)] = "quantity minimal 1"
		}
		if d.UnitPrice.IsNegative() {
			errs[fmt.Sprintf("details.%d.unit_price", i)] = "unit_price tidak boleh negatif"
		}
		if d.Weight != nil && *d.Weight < 0 {
			errs[fmt.Sprintf("details.%d.weight", i)] = "weight tidak boleh negatif"
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// computeLineTotals returns the per-row line_total (unit_price * quantity,
// 2 decimal places) and their sum.
func computeLineTotals(details []transactionDetailPayload) ([]decimal.Decimal, decimal.Decimal) {
	totals := make([]decimal.Decimal, len(details))
	sum := decimal.Zero
	for i, d := range details {
		totals[i] = d.UnitPrice.Mul(decimal.NewFromInt(int64(d.Quantity))).Round(2)
		sum = sum.Add(totals[i])
	}
	return totals, sum.Round(2)
}

// resolvePaidAmount ignores any client-supplied paid amount at creation:
// a paid transaction is settled in full, anything else starts at zero.
func resolvePaidAmount(status domain.PaymentStatus, total decimal.Decimal) decimal.Decimal {
	if status == domain.PaymentPaid {
		return total
	}
	return decimal.Zero
}

func (h TransactionHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createTransactionPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if errs := validateCreateTransaction(req); errs != nil {
		writeValidationErrors(w, errs)
		return
	}

	ctx := r.Context()
	userID := req.UserID
	if userID == 0 {
		if cu := authctx.FromContext(ctx); cu != nil {
			userID = cu.ID
		}
	}

	// Existence pass before any write.
	errs := map[string]string{}
	if ok, err := h.Users.Exists(ctx, userID); err != nil {
		writeErrorWithErr(w, http.StatusInternalServerError, "gagal membuat transaksi", err)
		return
	} else if !ok {
		errs["user_id"] = "user tidak ditemukan"
	}
	if ok, err := h.Customers.Exists(ctx, req.CustomerID); err != nil {
		writeErrorWithErr(w, http.StatusInternalServerError, "gagal membuat transaksi", err)
		return
	} else if !ok {
		errs["customer_id"] = "customer tidak ditemukan"
	}

	var serviceIDs, addOnIDs []int64
	for _, d := range req.Details {
		if d.ServiceID != nil {
			serviceIDs = append(serviceIDs, *d.ServiceID)
		}
		if d.AddOnID != nil {
			addOnIDs = append(addOnIDs, *d.AddOnID)
		}
	}
	foundServices, err := h.Services.ExistingIDs(ctx, serviceIDs)
	if err != nil {
		writeErrorWithErr(w, http.StatusInternalServerError, "gagal membuat transaksi", err)
		return
	}
	foundAddOns, err := h.AddOns.ExistingIDs(ctx, addOnIDs)
	if err != nil {
		writeErrorWithErr(w, http.StatusInternalServerError, "gagal membuat transaksi", err)
		return
	}
	for i, d := range req.Details {
		if d.ServiceID != nil && !foundServices[*d.ServiceID] {
			errs[fmt.Sprintf("details.%d.service_id", i)] = "layanan tidak ditemukan"
		}
		if d.AddOnID != nil && !foundAddOns[*d.AddOnID] {
			errs[fmt.Sprintf("details.%d.add_on_id", i)] = "add-on tidak ditemukan"
		}
	}
	if len(errs) > 0 {
		writeValidationErrors(w, errs)
		return
	}

	lineTotals, total := computeLineTotals(req.Details)
	paymentStatus := domain.PaymentStatus(req.PaymentStatus)
	laundryStatus := domain.LaundryStatus(req.LaundryStatus)
	if laundryStatus == "" {
		laundryStatus = domain.LaundryPending
	}

	txDate := time.Now()
	if req.TransactionDate != "" {
		txDate, _ = time.Parse(dateLayout, req.TransactionDate)
	}
	var estimated *time.Time
	if req.EstimatedCompletion != nil {
		t, _ := time.Parse(dateLayout, *req.EstimatedCompletion)
		estimated = &t
	}

	in := repository.CreateTransactionInput{
		UserID:              userID,
		CustomerID:          req.CustomerID,
		TransactionDate:     txDate,
		EstimatedCompletion: estimated,
		Total:               total,
		PaymentStatus:       paymentStatus,
		LaundryStatus:       laundryStatus,
		PaymentMethod:       req.PaymentMethod,
		PaidAmount:          resolvePaidAmount(paymentStatus, total),
		Notes:               req.Notes,
	}
	for i, d := range req.Details {
		in.Details = append(in.Details, repository.CreateTransactionDetail{
			ServiceID: d.ServiceID,
			AddOnID:   d.AddOnID,
			Quantity:  d.Quantity,
			Weight:    d.Weight,
			UnitPrice: d.UnitPrice.Round(2),
			LineTotal: lineTotals[i],
		})
	}

	t, err := h.Repo.Create(ctx, in)
	if err != nil {
		// A reference can disappear between the existence pass and the
		// insert; the constraint catches it.
		if repository.IsInvalidReference(err) {
			writeValidationErrors(w, map[string]string{"details": "referensi transaksi tidak valid"})
			return
		}
		writeErrorWithErr(w, http.StatusInternalServerError, "gagal membuat transaksi", err)
		return
	}
	writeJSON(w, http.StatusCreated, "transaksi berhasil dibuat", transactionResponse(*t))
}

func (h TransactionHandler) list(w http.ResponseWriter, r *http.Request) {
	var f repository.TransactionFilter
	errs := map[string]string{}
	if v := r.URL.Query().Get("payment_status"); v != "" {
		s := domain.PaymentStatus(v)
		if !domain.ValidPaymentStatus(s) {
			errs["payment_status"] = "payment_status tidak valid"
		}
		f.PaymentStatus = &s
	}
	if v := r.URL.Query().Get("laundry_status"); v != "" {
		s := domain.LaundryStatus(v)
		if !domain.ValidLaundryStatus(s) {
			errs["laundry_status"] = "laundry_status tidak valid"
		}
		f.LaundryStatus = &s
	}
	if v := r.URL.Query().Get("customer_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			errs["customer_id"] = "customer_id harus berupa angka"
		}
		f.CustomerID = &id
	}
	if len(errs) > 0 {
		writeValidationErrors(w, errs)
		return
	}

	limit := 50
	if v := r.URL.Query().Get("per_page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}

	txs, err := h.Repo.List(r.Context(), f, limit)
	if err != nil {
		writeErrorWithErr(w, http.StatusInternalServerError, "gagal mengambil data transaksi", err)
		return
	}
	resp := make([]map[string]any, 0, len(txs))
	for _, t := range txs {
		resp = append(resp, transactionResponse(t))
	}
	writeJSON(w, http.StatusOK, "data transaksi berhasil diambil", resp)
}

func (h TransactionHandler) get(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	t, err := h.Repo.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "transaksi tidak ditemukan")
			return
		}
		writeErrorWithErr(w, http.StatusInternalServerError, "gagal mengambil detail transaksi", err)
		return
	}
	writeJSON(w, http.StatusOK, "detail transaksi berhasil diambil", transactionResponse(*t))
}

type updateTransactionPayload struct {
	PaymentStatus *string          `json:"payment_status"`
	LaundryStatus *string          `json:"laundry_status"`
	PaymentMethod *string          `json:"payment_method"`
	PaidAmount    *decimal.Decimal `json:"paid_amount"`
	Notes         *string          `json:"notes"`
}

// validateUpdateTransaction checks enum values on a partial update.
func validateUpdateTransaction(p updateTransactionPayload) map[string]string {
	errs := map[string]string{}
	if p.PaymentStatus != nil && !domain.ValidPaymentStatus(domain.PaymentStatus(*p.PaymentStatus)) {
		errs["payment_status"] = "payment_status tidak valid"
	}
	if p.LaundryStatus != nil && !domain.ValidLaundryStatus(domain.LaundryStatus(*p.LaundryStatus)) {
		errs["laundry_status"] = "laundry_status tidak valid"
	}
	if p.PaidAmount != nil && p.PaidAmount.IsNegative() {
		errs["paid_amount"] = "paid_amount tidak boleh negatif"
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

func (h TransactionHandler) update(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	var req updateTransactionPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if errs := validateUpdateTransaction(req); errs != nil {
		writeValidationErrors(w, errs)
		return
	}
	in := repository.UpdateTransactionInput{
		PaymentMethod: req.PaymentMethod,
		PaidAmount:    req.PaidAmount,
		Notes:         req.Notes,
	}
	if req.PaymentStatus != nil {
		s := domain.PaymentStatus(*req.PaymentStatus)
		in.PaymentStatus = &s
	}
	if req.LaundryStatus != nil {
		s := domain.LaundryStatus(*req.LaundryStatus)
		in.LaundryStatus = &s
	}
	t, err := h.Repo.Update(r.Context(), id, in)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "transaksi tidak ditemukan")
			return
		}
		writeErrorWithErr(w, http.StatusInternalServerError, "gagal memperbarui transaksi", err)
		return
	}
	writeJSON(w, http.StatusOK, "transaksi berhasil diperbarui", transactionResponse(*t))
}

func (h TransactionHandler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := h.Repo.Delete(r.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "transaksi tidak ditemukan")
			return
		}
		writeErrorWithErr(w, http.StatusInternalServerError, "gagal menghapus transaksi", err)
		return
	}
	writeJSON(w, http.StatusOK, "transaksi berhasil dihapus", nil)
}

func transactionResponse(t domain.Transaction) map[string]any {
	details := make([]map[string]any, 0, len(t.Details))
	for _, d := range t.Details {
		row := map[string]any{
			"id":         d.ID,
			"service_id": d.ServiceID,
			"add_on_id":  d.AddOnID,
			"quantity":   d.Quantity,
			"weight":     d.Weight,
			"unit_price": d.UnitPrice,
			"line_total": d.LineTotal,
		}
		if d.Service != nil {
			row["service"] = map[string]any{"id": d.Service.ID, "name": d.Service.Name, "price": d.Service.Price}
		}
		if d.AddOn != nil {
			row["add_on"] = map[string]any{"id": d.AddOn.ID, "name": d.AddOn.Name, "price": d.AddOn.Price}
		}
		details = append(details, row)
	}

	resp := map[string]any{
		"id":                   t.ID,
		"user_id":              t.UserID,
		"customer_id":          t.CustomerID,
		"transaction_date":     t.TransactionDate.Format(dateLayout),
		"estimated_completion": nil,
		"total":                t.Total,
		"payment_status":       t.PaymentStatus,
		"laundry_status":       t.LaundryStatus,
		"payment_method":       t.PaymentMethod,
		"paid_amount":          t.PaidAmount,
		"notes":                t.Notes,
		"details":              details,
		"created_at":           t.CreatedAt,
		"updated_at":           t.UpdatedAt,
	}
	if t.EstimatedCompletion != nil {
		resp["estimated_completion"] = t.EstimatedCompletion.Format(dateLayout)
	}
	if t.User != nil {
		resp["user"] = map[string]any{"id": t.User.ID, "name": t.User.Name, "email": t.User.Email}
	}
	if t.Customer != nil {
		resp["customer"] = map[string]any{
			"id":      t.Customer.ID,
			"name":    t.Customer.Name,
			"phone":   t.Customer.Phone,
			"address": t.Customer.Address,
		}
	}
	return resp
}
