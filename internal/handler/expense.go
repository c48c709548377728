package handler

import (
	"bytes"
	"encoding/csv"
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
	"github.com/xuri/excelize/v2"
)

type ExpenseHandler struct {
	Repo       repository.ExpenseRepository
	Categories repository.ExpenseCategoryRepository
	Users      repository.UserRepository
}

func (h ExpenseHandler) RegisterRoutes(r chi.Router) {
	r.Get("/expenses", h.list)
	r.Post("/expenses", h.create)
	r.Get("/expenses/summary", h.summary)
	r.Get("/expenses/by-month", h.byMonth)
	r.Get("/expenses/export", h.export)
	r.Get("/expenses/{id}", h.get)
	r.Put("/expenses/{id}", h.update)
	r.Delete("/expenses/{id}", h.delete)
}

type expensePayload struct {
	UserID        int64           `json:"user_id"`
	CategoryID    *int64          `json:"expenses_category_id"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod *string         `json:"payment_method" validate:"omitempty,max=50"`
	Description   *string         `json:"description" validate:"omitempty,max=500"`
	Date          string          `json:"date" validate:"required"`
	RefNo         *string         `json:"ref_no" validate:"omitempty,max=100"`
}

func (p expensePayload) check() map[string]string {
	errs := validateStruct(p)
	if errs == nil {
		errs = map[string]string{}
	}
	if !p.Amount.IsPositive() {
		errs["amount"] = "amount must be greater than zero"
	}
	if p.Date != "" {
		if _, err := time.Parse(dateLayout, p.Date); err != nil {
			errs["date"] = "date must be in YYYY-MM-DD format"
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

func (h ExpenseHandler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var f repository.ExpenseFilter

	if v := q.Get("expenses_category_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid expenses_category_id")
			return
		}
		f.CategoryID = &id
	}
	if v := q.Get("payment_method"); v != "" {
		f.PaymentMethod = &v
	}
	start, err := parseDateQuery(r, "start_date")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid start_date")
		return
	}
	end, err := parseDateQuery(r, "end_date")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid end_date")
		return
	}
	if start != nil && end != nil && start.After(*end) {
		writeError(w, http.StatusBadRequest, "start_date must be before end_date")
		return
	}
	f.StartDate, f.EndDate = start, end
	if v := q.Get("search"); v != "" {
		f.Search = &v
	}
	f.SortBy = q.Get("sort_by")
	f.SortOrder = q.Get("sort_order")
	if v := q.Get("per_page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
			f.Limit = n
		}
	}
	if v := q.Get("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 1 {
			limit := f.Limit
			if limit <= 0 {
				limit = 15
			}
			f.Offset = (n - 1) * limit
		}
	}

	items, err := h.Repo.List(r.Context(), f)
	if err != nil {
		writeErrorWithErr(w, http.StatusInternalServerError, "failed to retrieve expenses", err)
		return
	}
	resp := make([]map[string]any, 0, len(items))
	for _, e := range items {
		resp = append(resp, expenseResponse(e))
	}
	writeJSON(w, http.StatusOK, "expenses retrieved successfully", resp)
}

func (h ExpenseHandler) create(w http.ResponseWriter, r *http.Request) {
	var req expensePayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if errs := req.check(); errs != nil {
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

	errs := map[string]string{}
	if ok, err := h.Users.Exists(ctx, userID); err != nil {
		writeErrorWithErr(w, http.StatusInternalServerError, "failed to create expense", err)
		return
	} else if !ok {
		errs["user_id"] = "user not found"
	}
	if req.CategoryID != nil {
		ok, err := h.Categories.Exists(ctx, *req.CategoryID)
		if err != nil {
			writeErrorWithErr(w, http.StatusInternalServerError, "failed to create expense", err)
			return
		}
		if !ok {
			errs["expenses_category_id"] = "expense category not found"
		}
	}
	if req.RefNo != nil && *req.RefNo != "" {
		taken, err := h.Repo.RefNoTaken(ctx, *req.RefNo, 0)
		if err != nil {
			writeErrorWithErr(w, http.StatusInternalServerError, "failed to create expense", err)
			return
		}
		if taken {
			errs["ref_no"] = "reference number already in use"
		}
	}
	if len(errs) > 0 {
		writeValidationErrors(w, errs)
		return
	}

	date, _ := time.Parse(dateLayout, req.Date)
	e, err := h.Repo.Create(ctx, repository.ExpenseParams{
		UserID:        userID,
		CategoryID:    req.CategoryID,
		Amount:        req.Amount.Round(2),
		PaymentMethod: req.PaymentMethod,
		Description:   req.Description,
		Date:          date,
		RefNo:         req.RefNo,
	})
	if err != nil {
		if repository.IsDuplicate(err) {
			writeValidationErrors(w, map[string]string{"ref_no": "reference number already in use"})
			return
		}
		writeErrorWithErr(w, http.StatusInternalServerError, "failed to create expense", err)
		return
	}
	writeJSON(w, http.StatusCreated, "expense created successfully", expenseResponse(*e))
}

func (h ExpenseHandler) get(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	e, err := h.Repo.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "expense not found")
			return
		}
		writeErrorWithErr(w, http.StatusInternalServerError, "failed to retrieve expense", err)
		return
	}
	writeJSON(w, http.StatusOK, "expense retrieved successfully", expenseResponse(*e))
}

func (h ExpenseHandler) update(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	var req expensePayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if errs := req.check(); errs != nil {
		writeValidationErrors(w, errs)
		return
	}

	ctx := r.Context()
	current, err := h.Repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "expense not found")
			return
		}
		writeErrorWithErr(w, http.StatusInternalServerError, "failed to update expense", err)
		return
	}

	userID := req.UserID
	if userID == 0 {
		userID = current.UserID
	}

	errs := map[string]string{}
	if ok, err := h.Users.Exists(ctx, userID); err != nil {
		writeErrorWithErr(w, http.StatusInternalServerError, "failed to update expense", err)
		return
	} else if !ok {
		errs["user_id"] = "user not found"
	}
	if req.CategoryID != nil {
		ok, err := h.Categories.Exists(ctx, *req.CategoryID)
		if err != nil {
			writeErrorWithErr(w, http.StatusInternalServerError, "failed to update expense", err)
			return
		}
		if !ok {
			errs["expenses_category_id"] = "expense category not found"
		}
	}
	if req.RefNo != nil && *req.RefNo != "" {
		taken, err := h.Repo.RefNoTaken(ctx, *req.RefNo, id)
		if err != nil {
			writeErrorWithErr(w, http.StatusInternalServerError, "failed to update expense", err)
			return
		}
		if taken {
			errs["ref_no"] = "reference number already in use"
		}
	}
	if len(errs) > 0 {
		writeValidationErrors(w, errs)
		return
	}

	date, _ := time.Parse(dateLayout, req.Date)
	e, err := h.Repo.Update(ctx, id, repository.ExpenseParams{
		UserID:        userID,
		CategoryID:    req.CategoryID,
		Amount:        req.Amount.Round(2),
		PaymentMethod: req.PaymentMethod,
		Description:   req.Description,
		Date:          date,
		RefNo:         req.RefNo,
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "expense not found")
			return
		}
		writeErrorWithErr(w, http.StatusInternalServerError, "failed to update expense", err)
		return
	}
	writeJSON(w, http.StatusOK, "expense updated successfully", expenseResponse(*e))
}

func (h ExpenseHandler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := h.Repo.Delete(r.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "expense not found")
			return
		}
		writeErrorWithErr(w, http.StatusInternalServerError, "failed to delete expense", err)
		return
	}
	writeJSON(w, http.StatusOK, "expense deleted successfully", nil)
}

func (h ExpenseHandler) summary(w http.ResponseWriter, r *http.Request) {
	var f repository.SummaryFilter
	if v := r.URL.Query().Get("expenses_category_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid expenses_category_id")
			return
		}
		f.CategoryID = &id
	}
	start, err := parseDateQuery(r, "start_date")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid start_date")
		return
	}
	end, err := parseDateQuery(r, "end_date")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid end_date")
		return
	}
	f.StartDate, f.EndDate = start, end

	s, err := h.Repo.Summary(r.Context(), f)
	if err != nil {
		writeErrorWithErr(w, http.StatusInternalServerError, "failed to build expense summary", err)
		return
	}
	writeJSON(w, http.StatusOK, "expense summary retrieved successfully", map[string]any{
		"total_expenses":    s.TotalExpenses,
		"total_amount":      s.TotalAmount,
		"average_amount":    s.AverageAmount.Round(2),
		"by_category":       groupResponse(s.ByCategory),
		"by_payment_method": groupResponse(s.ByPaymentMethod),
		"by_user":           groupResponse(s.ByUser),
	})
}

func groupResponse(groups []repository.ExpenseGroup) []map[string]any {
	resp := make([]map[string]any, 0, len(groups))
	for _, g := range groups {
		resp = append(resp, map[string]any{
			"id":    g.ID,
			"name":  g.Name,
			"count": g.Count,
			"total": g.Total,
		})
	}
	return resp
}

// monthRow is one row of the by-month report.
type monthRow struct {
	Month     int             `json:"month"`
	MonthName string          `json:"month_name"`
	Total     decimal.Decimal `json:"total"`
	Count     int64           `json:"count"`
}

// fillMonths expands sparse month buckets into exactly 12 rows, January
// through December, with total=0 and count=0 where no data exists.
func fillMonths(buckets []repository.MonthBucket) []monthRow {
	byMonth := make(map[int]repository.MonthBucket, len(buckets))
	for _, b := range buckets {
		byMonth[b.Month] = b
	}
	rows := make([]monthRow, 0, 12)
	for m := 1; m <= 12; m++ {
		row := monthRow{
			Month:     m,
			MonthName: time.Month(m).String(),
			Total:     decimal.Zero,
		}
		if b, ok := byMonth[m]; ok {
			row.Total = b.Total
			row.Count = b.Count
		}
		rows = append(rows, row)
	}
	return rows
}

func (h ExpenseHandler) byMonth(w http.ResponseWriter, r *http.Request) {
	year := time.Now().Year()
	if v := r.URL.Query().Get("year"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 2000 || n > 2100 {
			writeError(w, http.StatusBadRequest, "invalid year")
			return
		}
		year = n
	}
	var categoryID *int64
	if v := r.URL.Query().Get("expenses_category_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid expenses_category_id")
			return
		}
		categoryID = &id
	}

	buckets, err := h.Repo.MonthTotals(r.Context(), year, categoryID)
	if err != nil {
		writeErrorWithErr(w, http.StatusInternalServerError, "failed to build monthly report", err)
		return
	}
	rows := fillMonths(buckets)

	yearTotal := decimal.Zero
	var yearCount int64
	for _, row := range rows {
		yearTotal = yearTotal.Add(row.Total)
		yearCount += row.Count
	}
	writeJSON(w, http.StatusOK, "monthly expense report retrieved successfully", map[string]any{
		"year":        year,
		"months":      rows,
		"year_total":  yearTotal,
		"year_count":  yearCount,
	})
}

func (h ExpenseHandler) export(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "csv"
	}

	var f repository.ExpenseFilter
	start, err := parseDateQuery(r, "start_date")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid start_date")
		return
	}
	end, err := parseDateQuery(r, "end_date")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid end_date")
		return
	}
	if start != nil && end != nil && start.After(*end) {
		writeError(w, http.StatusBadRequest, "start_date must be before end_date")
		return
	}
	f.StartDate, f.EndDate = start, end
	f.Limit = 5000

	items, err := h.Repo.List(r.Context(), f)
	if err != nil {
		writeErrorWithErr(w, http.StatusInternalServerError, "failed to export expenses", err)
		return
	}

	filenameSuffix := time.Now().Format("20060102_150405")
	if start != nil && end != nil {
		filenameSuffix = fmt.Sprintf("%s_%s", start.Format("20060102"), end.Format("20060102"))
	}

	switch format {
	case "csv":
		data, err := exportExpensesCSV(items)
		if err != nil {
			writeErrorWithErr(w, http.StatusInternalServerError, "failed to export expenses", err)
			return
		}
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"expenses_%s.csv\"", filenameSuffix))
		_, _ = w.Write(data)
	case "xlsx", "excel":
		data, err := exportExpensesXLSX(items)
		if err != nil {
			writeErrorWithErr(w, http.StatusInternalServerError, "failed to export expenses", err)
			return
		}
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"expenses_%s.xlsx\"", filenameSuffix))
		_, _ = w.Write(data)
	default:
		writeError(w, http.StatusBadRequest, "invalid format (use csv or xlsx)")
	}
}

func exportExpensesCSV(items []domain.Expense) ([]byte, error) {
	buf := new(bytes.Buffer)
	cw := csv.NewWriter(buf)
	_ = cw.Write([]string{"id", "date", "category", "amount", "payment_method", "description", "ref_no", "recorded_by"})
	for _, e := range items {
		_ = cw.Write(expenseExportRow(e))
	}
	cw.Flush()
	return buf.Bytes(), cw.Error()
}

func exportExpensesXLSX(items []domain.Expense) ([]byte, error) {
	f := excelize.NewFile()
	sheet := "Expenses"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return nil, err
	}
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	header := []string{"ID", "Date", "Category", "Amount", "Payment Method", "Description", "Ref No", "Recorded By"}
	for c, v := range header {
		cell, _ := excelize.CoordinatesToCellName(c+1, 1)
		_ = f.SetCellValue(sheet, cell, v)
	}
	for r, e := range items {
		row := r + 2
		for c, v := range expenseExportRow(e) {
			cell, _ := excelize.CoordinatesToCellName(c+1, row)
			_ = f.SetCellValue(sheet, cell, v)
		}
	}

	_ = f.SetColWidth(sheet, "A", "A", 8)
	_ = f.SetColWidth(sheet, "B", "B", 12)
	_ = f.SetColWidth(sheet, "C", "C", 20)
	_ = f.SetColWidth(sheet, "D", "D", 14)
	_ = f.SetColWidth(sheet, "E", "E", 16)
	_ = f.SetColWidth(sheet, "F", "F", 32)
	_ = f.SetColWidth(sheet, "G", "G", 16)
	_ = f.SetColWidth(sheet, "H", "H", 20)

	style, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#1F2937"}, Pattern: 1},
	})
	_ = f.SetCellStyle(sheet, "A1", "H1", style)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func expenseExportRow(e domain.Expense) []string {
	category := ""
	if e.Category != nil {
		category = e.Category.Name
	}
	recordedBy := ""
	if e.User != nil {
		recordedBy = e.User.Name
	}
	return []string{
		strconv.FormatInt(e.ID, 10),
		e.Date.Format(dateLayout),
		category,
		e.Amount.StringFixed(2),
		derefString(e.PaymentMethod),
		derefString(e.Description),
		derefString(e.RefNo),
		recordedBy,
	}
}

func derefString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func expenseResponse(e domain.Expense) map[string]any {
	resp := map[string]any{
		"id":                   e.ID,
		"user_id":              e.UserID,
		"expenses_category_id": e.CategoryID,
		"amount":               e.Amount,
		"payment_method":       e.PaymentMethod,
		"description":          e.Description,
		"date":                 e.Date.Format(dateLayout),
		"ref_no":               e.RefNo,
		"created_at":           e.CreatedAt,
		"updated_at":           e.UpdatedAt,
	}
	if e.User != nil {
		resp["user"] = map[string]any{"id": e.User.ID, "name": e.User.Name}
	}
	if e.Category != nil {
		resp["category"] = map[string]any{"id": e.Category.ID, "name": e.Category.Name}
	}
	return resp
}
