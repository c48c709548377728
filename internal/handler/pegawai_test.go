package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Cansyell/laundrybackend/internal/domain"
	"github.com/Cansyell/laundrybackend/internal/repository"
	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"
)

// pegawaiStoreFake models the pegawai+user pair with the same atomicity
// contract as the Postgres repository: a failed step leaves both halves
// untouched.
type pegawaiStoreFake struct {
	pegawai        map[int64]domain.Pegawai
	users          map[int64]domain.User
	nextID         int64
	failUserDelete bool
}

func newPegawaiStoreFake() *pegawaiStoreFake {
	return &pegawaiStoreFake{
		pegawai: map[int64]domain.Pegawai{},
		users:   map[int64]domain.User{},
	}
}

func (s *pegawaiStoreFake) List(context.Context) ([]domain.Pegawai, error) {
	out := make([]domain.Pegawai, 0, len(s.pegawai))
	for _, p := range s.pegawai {
		out = append(out, p)
	}
	return out, nil
}

func (s *pegawaiStoreFake) Create(_ context.Context, p repository.CreatePegawaiParams) (*domain.Pegawai, error) {
	s.nextID++
	user := domain.User{
		ID:           s.nextID,
		Name:         p.NamaPegawai,
		Email:        p.Email,
		Role:         domain.RolePegawai,
		PasswordHash: p.PasswordHash,
		CreatedAt:    time.Now(),
	}
	s.nextID++
	pg := domain.Pegawai{
		ID:          s.nextID,
		UserID:      user.ID,
		NamaPegawai: p.NamaPegawai,
		NoTelp:      p.NoTelp,
		Email:       p.Email,
		User:        &user,
	}
	s.users[user.ID] = user
	s.pegawai[pg.ID] = pg
	return &pg, nil
}

func (s *pegawaiStoreFake) Get(_ context.Context, id int64) (*domain.Pegawai, error) {
	p, ok := s.pegawai[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (s *pegawaiStoreFake) Update(_ context.Context, id int64, p repository.UpdatePegawaiParams) (*domain.Pegawai, error) {
	pg, ok := s.pegawai[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	pg.NamaPegawai, pg.NoTelp, pg.Email = p.NamaPegawai, p.NoTelp, p.Email
	user := s.users[pg.UserID]
	user.Name, user.Email = p.NamaPegawai, p.Email
	if p.PasswordHash != nil {
		user.PasswordHash = *p.PasswordHash
	}
	s.users[pg.UserID] = user
	pg.User = &user
	s.pegawai[id] = pg
	return &pg, nil
}

func (s *pegawaiStoreFake) Delete(_ context.Context, id int64) error {
	p, ok := s.pegawai[id]
	if !ok {
		return repository.ErrNotFound
	}
	if s.failUserDelete {
		// Mid-pair failure: the whole unit rolls back, nothing removed.
		return errors.New("delete user: connection reset")
	}
	delete(s.pegawai, id)
	delete(s.users, p.UserID)
	return nil
}

func (s *pegawaiStoreFake) UserIDFor(_ context.Context, id int64) (int64, error) {
	p, ok := s.pegawai[id]
	if !ok {
		return 0, repository.ErrNotFound
	}
	return p.UserID, nil
}

func (s *pegawaiStoreFake) EmailTaken(_ context.Context, email string, excludeUserID int64) (bool, error) {
	for _, u := range s.users {
		if u.Email == email && u.ID != excludeUserID {
			return true, nil
		}
	}
	return false, nil
}

func newPegawaiRouter(store *pegawaiStoreFake) http.Handler {
	r := chi.NewRouter()
	PegawaiHandler{Repo: store}.RegisterRoutes(r)
	return r
}

func seedPegawaiPair(store *pegawaiStoreFake) (pegawaiID, userID int64) {
	p, _ := store.Create(context.Background(), repository.CreatePegawaiParams{
		NamaPegawai:  "Budi",
		NoTelp:       "08123456789",
		Email:        "budi@laundry.test",
		PasswordHash: "hash",
	})
	return p.ID, p.UserID
}

func TestDeletePegawaiRemovesPairedUser(t *testing.T) {
	store := newPegawaiStoreFake()
	pegawaiID, userID := seedPegawaiPair(store)

	req := httptest.NewRequest("DELETE", "/pegawai/2", nil)
	rec := httptest.NewRecorder()
	newPegawaiRouter(store).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	if _, ok := store.pegawai[pegawaiID]; ok {
		t.Fatalf("pegawai row must be removed")
	}
	if _, ok := store.users[userID]; ok {
		t.Fatalf("paired user must be removed with the pegawai")
	}
}

func TestDeletePegawaiKeepsPairOnFailure(t *testing.T) {
	store := newPegawaiStoreFake()
	pegawaiID, userID := seedPegawaiPair(store)
	store.failUserDelete = true

	req := httptest.NewRequest("DELETE", "/pegawai/2", nil)
	rec := httptest.NewRecorder()
	newPegawaiRouter(store).ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if _, ok := store.pegawai[pegawaiID]; !ok {
		t.Fatalf("failed delete must leave the pegawai in place")
	}
	if _, ok := store.users[userID]; !ok {
		t.Fatalf("failed delete must leave the paired user in place, not orphan the pair")
	}
}

func TestDeletePegawaiMissingReturnsNotFound(t *testing.T) {
	store := newPegawaiStoreFake()

	req := httptest.NewRequest("DELETE", "/pegawai/42", nil)
	rec := httptest.NewRecorder()
	newPegawaiRouter(store).ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestCreatePegawaiCreatesPairedUser(t *testing.T) {
	store := newPegawaiStoreFake()
	body := `{"nama_pegawai":"Siti","no_telp":"08111111111","email":"siti@laundry.test","password":"Rahasia123"}`

	req := httptest.NewRequest("POST", "/pegawai", strings.NewReader(body))
	rec := httptest.NewRecorder()
	newPegawaiRouter(store).ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (%s)", rec.Code, rec.Body.String())
	}
	if len(store.pegawai) != 1 || len(store.users) != 1 {
		t.Fatalf("expected one pegawai and one user, got %d/%d", len(store.pegawai), len(store.users))
	}
	for _, u := range store.users {
		if u.Role != domain.RolePegawai {
			t.Fatalf("paired user must have role pegawai, got %q", u.Role)
		}
		if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("Rahasia123")); err != nil {
			t.Fatalf("stored password must be a bcrypt hash of the input: %v", err)
		}
	}
}

func TestCreatePegawaiRejectsDuplicateEmail(t *testing.T) {
	store := newPegawaiStoreFake()
	seedPegawaiPair(store)
	body := `{"nama_pegawai":"Budi Dua","no_telp":"08222222222","email":"budi@laundry.test","password":"Rahasia123"}`

	req := httptest.NewRequest("POST", "/pegawai", strings.NewReader(body))
	rec := httptest.NewRecorder()
	newPegawaiRouter(store).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d (%s)", rec.Code, rec.Body.String())
	}
	if len(store.users) != 1 {
		t.Fatalf("duplicate email must not create a second user")
	}
}
