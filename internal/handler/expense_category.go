package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Cansyell/laundrybackend/internal/domain"
	"github.com/Cansyell/laundrybackend/internal/repository"
	"github.com/go-chi/chi/v5"
)

type ExpenseCategoryHandler struct {
	Repo repository.ExpenseCategoryRepository
}

func (h ExpenseCategoryHandler) RegisterRoutes(r chi.Router) {
	r.Get("/expense-categories", h.list)
	r.Post("/expense-categories", h.create)
	r.Get("/expense-categories/{id}", h.get)
	r.Put("/expense-categories/{id}", h.update)
	r.Delete("/expense-categories/{id}", h.delete)
}

type expenseCategoryPayload struct {
	Name        string  `json:"name" validate:"required,max=255"`
	Description *string `json:"description" validate:"omitempty,max=500"`
}

func (h ExpenseCategoryHandler) list(w http.ResponseWriter, r *http.Request) {
	items, err := h.Repo.List(r.Context())
	if err != nil {
		writeErrorWithErr(w, http.StatusInternalServerError, "failed to retrieve expense categories", err)
		return
	}
	resp := make([]map[string]any, 0, len(items))
	for _, c := range items {
		resp = append(resp, expenseCategoryResponse(c))
	}
	writeJSON(w, http.StatusOK, "expense categories retrieved successfully", resp)
}

func (h ExpenseCategoryHandler) create(w http.ResponseWriter, r *http.Request) {
	var req expenseCategoryPayload
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
		writeErrorWithErr(w, http.StatusInternalServerError, "failed to create expense category", err)
		return
	}
	if taken {
		writeValidationErrors(w, map[string]string{"name": "category name already in use"})
		return
	}
	c, err := h.Repo.Create(r.Context(), repository.ExpenseCategoryParams{Name: req.Name, Description: req.Description})
	if err != nil {
		if repository.IsDuplicate(err) {
			writeValidationErrors(w, map[string]string{"name": "category name already in use"})
			return
		}
		writeErrorWithErr(w, http.StatusInternalServerError, "failed to create expense category", err)
		return
	}
	writeJSON(w, http.StatusCreated, "expense category created successfully", expenseCategoryResponse(*c))
}

func (h ExpenseCategoryHandler) get(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	c, err := h.Repo.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "expense category not found")
			return
		}
		writeErrorWithErr(w, http.StatusInternalServerError, "failed to retrieve expense category", err)
		return
	}
	writeJSON(w, http.StatusOK, "expense category retrieved successfully", expenseCategoryResponse(*c))
}

func (h ExpenseCategoryHandler) update(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	var req expenseCategoryPayload
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
		writeErrorWithErr(w, http.StatusInternalServerError, "failed to update expense category", err)
		return
	}
	if taken {
		writeValidationErrors(w, map[string]string{"name": "category name already in use"})
		return
	}
	c, err := h.Repo.Update(r.Context(), id, repository.ExpenseCategoryParams{Name: req.Name, Description: req.Description})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "expense category not found")
			return
		}
		writeErrorWithErr(w, http.StatusInternalServerError, "failed to update expense category", err)
		return
	}
	writeJSON(w, http.StatusOK, "expense category updated successfully", expenseCategoryResponse(*c))
}

func (h ExpenseCategoryHandler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := h.Repo.Delete(r.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "expense category not found")
			return
		}
		writeErrorWithErr(w, http.StatusInternalServerError, "failed to delete expense category", err)
		return
	}
	writeJSON(w, http.StatusOK, "expense category deleted successfully", nil)
}

func expenseCategoryResponse(c domain.ExpenseCategory) map[string]any {
	return map[string]any{
		"id":          c.ID,
		"name":        c.Name,
		"description": c.Description,
		"created_at":  c.CreatedAt,
		"updated_at":  c.UpdatedAt,
	}
}
