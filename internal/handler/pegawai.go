package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Cansyell/laundrybackend/internal/domain"
	"github.com/Cansyell/laundrybackend/internal/repository"
	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"
)

type pegawaiStore interface {
	List(ctx context.Context) ([]domain.Pegawai, error)
	Create(ctx context.Context, p repository.CreatePegawaiParams) (*domain.Pegawai, error)
	Get(ctx context.Context, id int64) (*domain.Pegawai, error)
	Update(ctx context.Context, id int64, p repository.UpdatePegawaiParams) (*domain.Pegawai, error)
	Delete(ctx context.Context, id int64) error
	UserIDFor(ctx context.Context, id int64) (int64, error)
	EmailTaken(ctx context.Context, email string, excludeUserID int64) (bool, error)
}

type PegawaiHandler struct {
	Repo pegawaiStore
}

func (h PegawaiHandler) RegisterRoutes(r chi.Router) {
	r.Get("/pegawai", h.list)
	r.Post("/pegawai", h.create)
	r.Get("/pegawai/{id}", h.get)
	r.Put("/pegawai/{id}", h.update)
	r.Delete("/pegawai/{id}", h.delete)
}

type createPegawaiPayload struct {
	NamaPegawai string `json:"nama_pegawai" validate:"required,max=255"`
	NoTelp      string `json:"no_telp" validate:"required,max=20"`
	Email       string `json:"email" validate:"required,email,max=255"`
	Password    string `json:"password" validate:"required,min=8"`
}

type updatePegawaiPayload struct {
	NamaPegawai string  `json:"nama_pegawai" validate:"required,max=255"`
	NoTelp      string  `json:"no_telp" validate:"required,max=20"`
	Email       string  `json:"email" validate:"required,email,max=255"`
	Password    *string `json:"password" validate:"omitempty,min=8"`
}

func (h PegawaiHandler) list(w http.ResponseWriter, r *http.Request) {
	items, err := h.Repo.List(r.Context())
	if err != nil {
		writeErrorWithErr(w, http.StatusInternalServerError, "gagal mengambil data pegawai", err)
		return
	}
	resp := make([]map[string]any, 0, len(items))
	for _, p := range items {
		resp = append(resp, pegawaiResponse(p))
	}
	writeJSON(w, http.StatusOK, "data pegawai berhasil diambil", resp)
}

func (h PegawaiHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createPegawaiPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if errs := validateStruct(req); errs != nil {
		writeValidationErrors(w, errs)
		return
	}
	taken, err := h.Repo.EmailTaken(r.Context(), req.Email, 0)
	if err != nil {
		writeErrorWithErr(w, http.StatusInternalServerError, "gagal menambahkan pegawai", err)
		return
	}
	if taken {
		writeValidationErrors(w, map[string]string{"email": "email sudah digunakan"})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		writeErrorWithErr(w, http.StatusInternalServerError, "gagal menambahkan pegawai", err)
		return
	}
	p, err := h.Repo.Create(r.Context(), repository.CreatePegawaiParams{
		NamaPegawai:  req.NamaPegawai,
		NoTelp:       req.NoTelp,
		Email:        req.Email,
		PasswordHash: string(hash),
	})
	if err != nil {
		if repository.IsDuplicate(err) {
			writeValidationErrors(w, map[string]string{"email": "email sudah digunakan"})
			return
		}
		writeErrorWithErr(w, http.StatusInternalServerError, "gagal menambahkan pegawai", err)
		return
	}
	writeJSON(w, http.StatusCreated, "pegawai berhasil ditambahkan", pegawaiResponse(*p))
}

func (h PegawaiHandler) get(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	p, err := h.Repo.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "pegawai tidak ditemukan")
			return
		}
		writeErrorWithErr(w, http.StatusInternalServerError, "gagal mengambil detail pegawai", err)
		return
	}
	writeJSON(w, http.StatusOK, "detail pegawai berhasil diambil", pegawaiResponse(*p))
}

func (h PegawaiHandler) update(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	var req updatePegawaiPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if errs := validateStruct(req); errs != nil {
		writeValidationErrors(w, errs)
		return
	}

	userID, err := h.Repo.UserIDFor(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "pegawai tidak ditemukan")
			return
		}
		writeErrorWithErr(w, http.StatusInternalServerError, "gagal memperbarui pegawai", err)
		return
	}
	taken, err := h.Repo.EmailTaken(r.Context(), req.Email, userID)
	if err != nil {
		writeErrorWithErr(w, http.StatusInternalServerError, "gagal memperbarui pegawai", err)
		return
	}
	if taken {
		writeValidationErrors(w, map[string]string{"email": "email sudah digunakan"})
		return
	}

	params := repository.UpdatePegawaiParams{
		NamaPegawai: req.NamaPegawai,
		NoTelp:      req.NoTelp,
		Email:       req.Email,
	}
	if req.Password != nil && *req.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			writeErrorWithErr(w, http.StatusInternalServerError, "gagal memperbarui pegawai", err)
			return
		}
		s := string(hash)
		params.PasswordHash = &s
	}

	p, err := h.Repo.Update(r.Context(), id, params)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "pegawai tidak ditemukan")
			return
		}
		if repository.IsDuplicate(err) {
			writeValidationErrors(w, map[string]string{"email": "email sudah digunakan"})
			return
		}
		writeErrorWithErr(w, http.StatusInternalServerError, "gagal memperbarui pegawai", err)
		return
	}
	writeJSON(w, http.StatusOK, "pegawai berhasil diperbarui", pegawaiResponse(*p))
}

func (h PegawaiHandler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := h.Repo.Delete(r.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "pegawai tidak ditemukan")
			return
		}
		writeErrorWithErr(w, http.StatusInternalServerError, "gagal menghapus pegawai", err)
		return
	}
	writeJSON(w, http.StatusOK, "pegawai berhasil dihapus", nil)
}

func pegawaiResponse(p domain.Pegawai) map[string]any {
	resp := map[string]any{
		"id":           p.ID,
		"user_id":      p.UserID,
		"nama_pegawai": p.NamaPegawai,
		"no_telp":      p.NoTelp,
		"email":        p.Email,
		"created_at":   p.CreatedAt,
		"updated_at":   p.UpdatedAt,
	}
	if p.User != nil {
		resp["user"] = map[string]any{
			"id":    p.User.ID,
			"name":  p.User.Name,
			"email": p.User.Email,
			"role":  p.User.Role,
		}
	}
	return resp
}
