package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/Cansyell/laundrybackend/internal/domain"
	"github.com/Cansyell/laundrybackend/internal/repository"
	"github.com/go-chi/chi/v5"
)

type CategoryHandler struct {
	Repo repository.CategoryRepository
}

func (h CategoryHandler) RegisterRoutes(r chi.Router) {
	r.Get("/categories", h.list)
	r.Post("/categories", h.create)
	r.Get("/categories/{id}", h.get)
	r.Put("/categories/{id}", h.update)
	r.Delete("/categories/{id}", h.delete)
}

type categoryPayload struct {
	Name string  `json:"name" validate:"required,max=255"`
	Type *string `json:"type" validate:"omitempty,max=100"`
}

func (h CategoryHandler) list(w http.ResponseWriter, r *http.Request) {
	items, err := h.Repo.List(r.Context())
	if err != nil {
		writeErrorWithErr(w, http.StatusInternalServerError, "gagal mengambil kategori", err)
		return
	}
	resp := make([]map[string]any, 0, len(items))
	for _, c := range items {
		resp = append(resp, categoryResponse(c))
	}
	writeJSON(w, http.StatusOK, "daftar kategori berhasil diambil", resp)
}

func (h CategoryHandler) create(w http.ResponseWriter, r *http.Request) {
	var req categoryPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if errs := validateStruct(req); errs != nil {
		writeValidationErrors(w, errs)
		return
	}
	taken, err := h.Repo.NameTaken(r.Context(), req.Name, 0)
	if err != nil {
		writeErrorWithErr(w, http.StatusInternalServerError, "gagal membuat kategori", err)
		return
	}
	if taken {
		writeValidationErrors(w, map[string]string{"name": "nama kategori sudah digunakan"})
		return
	}
	c, err := h.Repo.Create(r.Context(), repository.CategoryParams{Name: req.Name, Type: req.Type})
	if err != nil {
		if repository.IsDuplicate(err) {
			writeValidationErrors(w, map[string]string{"name": "nama kategori sudah digunakan"})
			return
		}
		writeErrorWithErr(w, http.StatusInternalServerError, "gagal membuat kategori", err)
		return
	}
	writeJSON(w, http.StatusCreated, "kategori berhasil dibuat", categoryResponse(*c))
}

func (h CategoryHandler) get(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	c, err := h.Repo.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "kategori tidak ditemukan")
			return
		}
		writeErrorWithErr(w, http.StatusInternalServerError, "gagal mengambil kategori", err)
		return
	}
	writeJSON(w, http.StatusOK, "detail kategori", categoryResponse(*c))
}

func (h CategoryHandler) update(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	var req categoryPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if errs := validateStruct(req); errs != nil {
		writeValidationErrors(w, errs)
		return
	}
	taken, err := h.Repo.NameTaken(r.Context(), req.Name, id)
	if err != nil {
		writeErrorWithErr(w, http.StatusInternalServerError, "gagal memperbarui kategori", err)
		return
	}
	if taken {
		writeValidationErrors(w, map[string]string{"name": "nama kategori sudah digunakan"})
		return
	}
	c, err := h.Repo.Update(r.Context(), id, repository.CategoryParams{Name: req.Name, Type: req.Type})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "kategori tidak ditemukan")
			return
		}
		writeErrorWithErr(w, http.StatusInternalServerError, "gagal memperbarui kategori", err)
		return
	}
	writeJSON(w, http.StatusOK, "kategori berhasil diperbarui", categoryResponse(*c))
}

func (h CategoryHandler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := h.Repo.Delete(r.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "kategori tidak ditemukan")
			return
		}
		writeErrorWithErr(w, http.StatusInternalServerError, "gagal menghapus kategori", err)
		return
	}
	writeJSON(w, http.StatusOK, "kategori berhasil dihapus", nil)
}

func categoryResponse(c domain.Category) map[string]any {
	return map[string]any{
		"id":         c.ID,
		"name":       c.Name,
		"type":       c.Type,
		"created_at": c.CreatedAt,
		"updated_at": c.UpdatedAt,
	}
}

func parseID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}
