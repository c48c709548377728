package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/Cansyell/laundrybackend/internal/domain"
	"github.com/Cansyell/laundrybackend/internal/repository"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

// ServiceHandler exposes the laundry service catalog.
type ServiceHandler struct {
	Repo       repository.ServiceRepository
	Categories repository.CategoryRepository
}

func (h ServiceHandler) RegisterRoutes(r chi.Router) {
	r.Get("/services", h.list)
	r.Post("/services", h.create)
	r.Get("/services/{id}", h.get)
	r.Put("/services/{id}", h.update)
	r.Delete("/services/{id}", h.delete)
}

type servicePayload struct {
	Name        string          `json:"name" validate:"required,max=255"`
	CategoryID  *int64          `json:"category_id"`
	MinOrder    *int            `json:"min_order" validate:"omitempty,min=1"`
	Type        *string         `json:"type" validate:"omitempty,max=100"`
	Price       decimal.Decimal `json:"price"`
	Discount    decimal.Decimal `json:"discount"`
	Estimate    *string         `json:"estimate" validate:"omitempty,max=100"`
	Description *string         `json:"description"`
}

func (p servicePayload) check() map[string]string {
	errs := validateStruct(p)
	if p.Price.IsNegative() {
		if errs == nil {
			errs = map[string]string{}
		}
		errs["price"] = "price must not be negative"
	}
	if p.Discount.IsNegative() {
		if errs == nil {
			errs = map[string]string{}
		}
		errs["discount"] = "discount must not be negative"
	}
	return errs
}

func (h ServiceHandler) list(w http.ResponseWriter, r *http.Request) {
	limit := 10
	if v := r.URL.Query().Get("per_page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}
	page := 1
	if v := r.URL.Query().Get("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			page = n
		}
	}
	items, err := h.Repo.List(r.Context(), limit, (page-1)*limit)
	if err != nil {
		writeErrorWithErr(w, http.StatusInternalServerError, "gagal mengambil layanan", err)
		return
	}
	resp := make([]map[string]any, 0, len(items))
	for _, s := range items {
		resp = append(resp, serviceResponse(s))
	}
	writeJSON(w, http.StatusOK, "daftar layanan berhasil diambil", resp)
}

func (h ServiceHandler) create(w http.ResponseWriter, r *http.Request) {
	var req servicePayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if errs := req.check(); errs != nil {
		writeValidationErrors(w, errs)
		return
	}
	if req.CategoryID != nil {
		if _, err := h.Categories.Get(r.Context(), *req.CategoryID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				writeValidationErrors(w, map[string]string{"category_id": "kategori tidak ditemukan"})
				return
			}
			writeErrorWithErr(w, http.StatusInternalServerError, "gagal membuat layanan", err)
			return
		}
	}
	s, err := h.Repo.Create(r.Context(), serviceParams(req))
	if err != nil {
		writeErrorWithErr(w, http.StatusInternalServerError, "gagal membuat layanan", err)
		return
	}
	writeJSON(w, http.StatusCreated, "layanan berhasil dibuat", serviceResponse(*s))
}

func (h ServiceHandler) get(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	s, err := h.Repo.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "layanan tidak ditemukan")
			return
		}
		writeErrorWithErr(w, http.StatusInternalServerError, "gagal mengambil layanan", err)
		return
	}
	writeJSON(w, http.StatusOK, "detail layanan", serviceResponse(*s))
}

func (h ServiceHandler) update(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	var req servicePayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if errs := req.check(); errs != nil {
		writeValidationErrors(w, errs)
		return
	}
	if req.CategoryID != nil {
		if _, err := h.Categories.Get(r.Context(), *req.CategoryID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				writeValidationErrors(w, map[string]string{"category_id": "kategori tidak ditemukan"})
				return
			}
			writeErrorWithErr(w, http.StatusInternalServerError, "gagal memperbarui layanan", err)
			return
		}
	}
	s, err := h.Repo.Update(r.Context(), id, serviceParams(req))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "layanan tidak ditemukan")
			return
		}
		writeErrorWithErr(w, http.StatusInternalServerError, "gagal memperbarui layanan", err)
		return
	}
	writeJSON(w, http.StatusOK, "layanan berhasil diperbarui", serviceResponse(*s))
}

func (h ServiceHandler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := h.Repo.Delete(r.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "layanan tidak ditemukan")
			return
		}
		writeErrorWithErr(w, http.StatusInternalServerError, "gagal menghapus layanan", err)
		return
	}
	writeJSON(w, http.StatusOK, "layanan berhasil dihapus", nil)
}

func serviceParams(req servicePayload) repository.ServiceParams {
	minOrder := 1
	if req.MinOrder != nil {
		minOrder = *req.MinOrder
	}
	return repository.ServiceParams{
		CategoryID:  req.CategoryID,
		Name:        req.Name,
		MinOrder:    minOrder,
		Type:        req.Type,
		Price:       req.Price,
		Discount:    req.Discount,
		Estimate:    req.Estimate,
		Description: req.Description,
	}
}

func serviceResponse(s domain.Service) map[string]any {
	resp := map[string]any{
		"id":          s.ID,
		"category_id": s.CategoryID,
		"name":        s.Name,
		"min_order":   s.MinOrder,
		"type":        s.Type,
		"price":       s.Price,
		"discount":    s.Discount,
		"estimate":    s.Estimate,
		"description": s.Description,
		"created_at":  s.CreatedAt,
		"updated_at":  s.UpdatedAt,
	}
	if s.Category != nil {
		resp["category"] = map[string]any{
			"id":   s.Category.ID,
			"name": s.Category.Name,
			"type": s.Category.Type,
		}
	}
	return resp
}
