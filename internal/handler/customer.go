package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Cansyell/laundrybackend/internal/domain"
	"github.com/Cansyell/laundrybackend/internal/repository"
	"github.com/go-chi/chi/v5"
)

type CustomerHandler struct {
	Repo repository.CustomerRepository
}

func (h CustomerHandler) RegisterRoutes(r chi.Router) {
	r.Get("/customers", h.list)
	r.Post("/customers", h.create)
	r.Get("/customers/{id}", h.get)
	r.Put("/customers/{id}", h.update)
	r.Delete("/customers/{id}", h.delete)
}

type customerPayload struct {
	Name    string  `json:"name" validate:"required,max=255"`
	Phone   *string `json:"phone" validate:"omitempty,max=20"`
	Address *string `json:"address" validate:"omitempty,max=500"`
}

func (h CustomerHandler) list(w http.ResponseWriter, r *http.Request) {
	items, err := h.Repo.List(r.Context())
	if err != nil {
		writeErrorWithErr(w, http.StatusInternalServerError, "gagal mengambil customer", err)
		return
	}
	resp := make([]map[string]any, 0, len(items))
	for _, c := range items {
		resp = append(resp, customerResponse(c))
	}
	writeJSON(w, http.StatusOK, "daftar customer berhasil diambil", resp)
}

func (h CustomerHandler) create(w http.ResponseWriter, r *http.Request) {
	var req customerPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if errs := validateStruct(req); errs != nil {
		writeValidationErrors(w, errs)
		return
	}
	c, err := h.Repo.Create(r.Context(), repository.CustomerParams{
		Name:    req.Name,
		Phone:   req.Phone,
		Address: req.Address,
	})
	if err != nil {
		writeErrorWithErr(w, http.StatusInternalServerError, "gagal membuat customer", err)
		return
	}
	writeJSON(w, http.StatusCreated, "customer berhasil dibuat", customerResponse(*c))
}

func (h CustomerHandler) get(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	c, err := h.Repo.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "customer tidak ditemukan")
			return
		}
		writeErrorWithErr(w, http.StatusInternalServerError, "gagal mengambil customer", err)
		return
	}
	writeJSON(w, http.StatusOK, "detail customer", customerResponse(*c))
}

func (h CustomerHandler) update(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	var req customerPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if errs := validateStruct(req); errs != nil {
		writeValidationErrors(w, errs)
		return
	}
	c, err := h.Repo.Update(r.Context(), id, repository.CustomerParams{
		Name:    req.Name,
		Phone:   req.Phone,
		Address: req.Address,
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "customer tidak ditemukan")
			return
		}
		writeErrorWithErr(w, http.StatusInternalServerError, "gagal memperbarui customer", err)
		return
	}
	writeJSON(w, http.StatusOK, "customer berhasil diperbarui", customerResponse(*c))
}

func (h CustomerHandler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := h.Repo.Delete(r.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "customer tidak ditemukan")
			return
		}
		writeErrorWithErr(w, http.StatusInternalServerError, "gagal menghapus customer", err)
		return
	}
	writeJSON(w, http.StatusOK, "customer berhasil dihapus", nil)
}

func customerResponse(c domain.Customer) map[string]any {
	return map[string]any{
		"id":         c.ID,
		"name":       c.Name,
		"phone":      c.Phone,
		"address":    c.Address,
		"created_at": c.CreatedAt,
		"updated_at": c.UpdatedAt,
	}
}
