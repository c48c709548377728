package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Cansyell/laundrybackend/internal/domain"
	"github.com/Cansyell/laundrybackend/internal/repository"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

// addOnStoreFake keeps add-ons in memory and enforces the same delete
// guard as the Postgres implementation: a referenced add-on stays put.
type addOnStoreFake struct {
	addOns map[int64]domain.AddOn
	usage  map[int64]int64
	nextID int64
}

func newAddOnStoreFake() *addOnStoreFake {
	return &addOnStoreFake{
		addOns: map[int64]domain.AddOn{},
		usage:  map[int64]int64{},
	}
}

func (s *addOnStoreFake) put(a domain.AddOn, usage int64) {
	s.addOns[a.ID] = a
	s.usage[a.ID] = usage
	if a.ID > s.nextID {
		s.nextID = a.ID
	}
}

func (s *addOnStoreFake) List(context.Context) ([]domain.AddOn, error) {
	out := make([]domain.AddOn, 0, len(s.addOns))
	for _, a := range s.addOns {
		out = append(out, a)
	}
	return out, nil
}

func (s *addOnStoreFake) Create(_ context.Context, p repository.AddOnParams) (*domain.AddOn, error) {
	s.nextID++
	a := domain.AddOn{ID: s.nextID, Name: p.Name, Price: p.Price, CreatedAt: time.Now(), UpdatedAt: time.Now()}
	s.addOns[a.ID] = a
	return &a, nil
}

func (s *addOnStoreFake) Get(_ context.Context, id int64) (*domain.AddOn, error) {
	a, ok := s.addOns[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &a, nil
}

func (s *addOnStoreFake) Update(_ context.Context, id int64, p repository.AddOnParams) (*domain.AddOn, error) {
	a, ok := s.addOns[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	a.Name, a.Price = p.Name, p.Price
	s.addOns[id] = a
	return &a, nil
}

func (s *addOnStoreFake) NameTaken(_ context.Context, name string, excludeID int64) (bool, error) {
	for _, a := range s.addOns {
		if a.Name == name && a.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (s *addOnStoreFake) Delete(_ context.Context, id int64) error {
	if _, ok := s.addOns[id]; !ok {
		return repository.ErrNotFound
	}
	if s.usage[id] > 0 {
		return repository.ErrInUse
	}
	delete(s.addOns, id)
	return nil
}

func (s *addOnStoreFake) UsageCount(_ context.Context, id int64) (int64, error) {
	return s.usage[id], nil
}

func (s *addOnStoreFake) Statistics(context.Context) ([]domain.AddOnStats, error) {
	return nil, nil
}

func newAddOnRouter(store *addOnStoreFake) http.Handler {
	r := chi.NewRouter()
	AddOnHandler{Repo: store}.RegisterRoutes(r)
	return r
}

func TestDeleteAddOnInUseReturnsConflict(t *testing.T) {
	store := newAddOnStoreFake()
	store.put(domain.AddOn{ID: 1, Name: "Parfum", Price: decimal.RequireFromString("5.00")}, 3)

	req := httptest.NewRequest("DELETE", "/add-ons/1", nil)
	rec := httptest.NewRecorder()
	newAddOnRouter(store).ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d (%s)", rec.Code, rec.Body.String())
	}
	if _, ok := store.addOns[1]; !ok {
		t.Fatalf("blocked delete must leave the add-on unchanged")
	}
}

func TestDeleteAddOnWithoutReferences(t *testing.T) {
	store := newAddOnStoreFake()
	store.put(domain.AddOn{ID: 1, Name: "Parfum", Price: decimal.RequireFromString("5.00")}, 0)

	req := httptest.NewRequest("DELETE", "/add-ons/1", nil)
	rec := httptest.NewRecorder()
	newAddOnRouter(store).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	if _, ok := store.addOns[1]; ok {
		t.Fatalf("unreferenced add-on must be removed")
	}
}

func TestDeleteAddOnMissingReturnsNotFound(t *testing.T) {
	store := newAddOnStoreFake()

	req := httptest.NewRequest("DELETE", "/add-ons/99", nil)
	rec := httptest.NewRecorder()
	newAddOnRouter(store).ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
