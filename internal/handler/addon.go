package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Cansyell/laundrybackend/internal/domain"
	"github.com/Cansyell/laundrybackend/internal/repository"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type addOnStore interface {
	List(ctx context.Context) ([]domain.AddOn, error)
	Create(ctx context.Context, p repository.AddOnParams) (*domain.AddOn, error)
	Get(ctx context.Context, id int64) (*domain.AddOn, error)
	Update(ctx context.Context, id int64, p repository.AddOnParams) (*domain.AddOn, error)
	NameTaken(ctx context.Context, name string, excludeID int64) (bool, error)
	Delete(ctx context.Context, id int64) error
	UsageCount(ctx context.Context, id int64) (int64, error)
	Statistics(ctx context.Context) ([]domain.AddOnStats, error)
}

type AddOnHandler struct {
	Repo addOnStore
}

func (h AddOnHandler) RegisterRoutes(r chi.Router) {
	r.Get("/add-ons", h.list)
	r.Post("/add-ons", h.create)
	r.Get("/add-ons/{id}", h.get)
	r.Put("/add-ons/{id}", h.update)
	r.Delete("/add-ons/{id}", h.delete)
	r.Get("/add-ons-statistics", h.statistics)
}

type addOnPayload struct {
	Name  string          `json:"name" validate:"required,max=255"`
	Price decimal.Decimal `json:"price"`
}

func (p addOnPayload) check() map[string]string {
	errs := validateStruct(p)
	if p.Price.IsNegative() {
		if errs == nil {
			errs = map[string]string{}
		}
		errs["price"] = "harga tidak boleh negatif"
	}
	return errs
}

func (h AddOnHandler) list(w http.ResponseWriter, r *http.Request) {
	items, err := h.Repo.List(r.Context())
	if err != nil {
		writeErrorWithErr(w, http.StatusInternalServerError, "gagal mengambil data add-ons", err)
		return
	}
	resp := make([]map[string]any, 0, len(items))
	for _, a := range items {
		resp = append(resp, addOnResponse(a))
	}
	writeJSON(w, http.StatusOK, "data add-ons berhasil diambil", resp)
}

func (h AddOnHandler) create(w http.ResponseWriter, r *http.Request) {
	var req addOnPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if errs := req.check(); errs != nil {
		writeValidationErrors(w, errs)
		return
	}
	taken, err := h.Repo.NameTaken(r.Context(), req.Name, 0)
	if err != nil {
		writeErrorWithErr(w, http.StatusInternalServerError, "gagal menambahkan add-on", err)
		return
	}
	if taken {
		writeValidationErrors(w, map[string]string{"name": "nama add-on sudah digunakan"})
		return
	}
	a, err := h.Repo.Create(r.Context(), repository.AddOnParams{Name: req.Name, Price: req.Price})
	if err != nil {
		if repository.IsDuplicate(err) {
			writeValidationErrors(w, map[string]string{"name": "nama add-on sudah digunakan"})
			return
		}
		writeErrorWithErr(w, http.StatusInternalServerError, "gagal menambahkan add-on", err)
		return
	}
	writeJSON(w, http.StatusCreated, "add-on berhasil ditambahkan", addOnResponse(*a))
}

func (h AddOnHandler) get(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	a, err := h.Repo.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "add-on tidak ditemukan")
			return
		}
		writeErrorWithErr(w, http.StatusInternalServerError, "gagal mengambil detail add-on", err)
		return
	}
	count, err := h.Repo.UsageCount(r.Context(), id)
	if err != nil {
		writeErrorWithErr(w, http.StatusInternalServerError, "gagal mengambil detail add-on", err)
		return
	}
	writeJSON(w, http.StatusOK, "detail add-on berhasil diambil", map[string]any{
		"add_on":            addOnResponse(*a),
		"transaction_count": count,
	})
}

func (h AddOnHandler) update(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	var req addOnPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if errs := req.check(); errs != nil {
		writeValidationErrors(w, errs)
		return
	}
	taken, err := h.Repo.NameTaken(r.Context(), req.Name, id)
	if err != nil {
		writeErrorWithErr(w, http.StatusInternalServerError, "gagal memperbarui add-on", err)
		return
	}
	if taken {
		writeValidationErrors(w, map[string]string{"name": "nama add-on sudah digunakan"})
		return
	}
	a, err := h.Repo.Update(r.Context(), id, repository.AddOnParams{Name: req.Name, Price: req.Price})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "add-on tidak ditemukan")
			return
		}
		writeErrorWithErr(w, http.StatusInternalServerError, "gagal memperbarui add-on", err)
		return
	}
	writeJSON(w, http.StatusOK, "add-on berhasil diperbarui", addOnResponse(*a))
}

// delete refuses while the add-on is still referenced by transaction
// details; history blocks removal instead of cascading.
func (h AddOnHandler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := h.Repo.Delete(r.Context(), id); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			writeError(w, http.StatusNotFound, "add-on tidak ditemukan")
		case errors.Is(err, repository.ErrInUse):
			writeError(w, http.StatusConflict, "add-on tidak dapat dihapus karena sedang digunakan dalam transaksi")
		default:
			writeErrorWithErr(w, http.StatusInternalServerError, "gagal menghapus add-on", err)
		}
		return
	}
	writeJSON(w, http.StatusOK, "add-on berhasil dihapus", nil)
}

func (h AddOnHandler) statistics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Repo.Statistics(r.Context())
	if err != nil {
		writeErrorWithErr(w, http.StatusInternalServerError, "gagal mengambil statistik add-ons", err)
		return
	}
	resp := make([]map[string]any, 0, len(stats))
	for _, s := range stats {
		resp = append(resp, map[string]any{
			"id":                  s.ID,
			"name":                s.Name,
			"price":               s.Price,
			"usage_count":         s.UsageCount,
			"total_quantity_sold": s.TotalQuantitySold,
			"total_revenue":       s.TotalRevenue,
		})
	}
	writeJSON(w, http.StatusOK, "statistik add-ons berhasil diambil", resp)
}

func addOnResponse(a domain.AddOn) map[string]any {
	return map[string]any{
		"id":         a.ID,
		"name":       a.Name,
		"price":      a.Price,
		"created_at": a.CreatedAt,
		"updated_at": a.UpdatedAt,
	}
}
