package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Cansyell/laundrybackend/internal/domain"
	"github.com/Cansyell/laundrybackend/internal/server/authctx"
	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret"

func signTestToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func accessClaims() jwt.MapClaims {
	return jwt.MapClaims{
		"sub":        "42",
		"email":      "admin@gmail.com",
		"role":       "owner",
		"token_type": "access",
		"exp":        time.Now().Add(time.Hour).Unix(),
		"iat":        time.Now().Unix(),
	}
}

func TestAuthMiddlewarePutsUserInContext(t *testing.T) {
	var got *authctx.CurrentUser
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = authctx.FromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest("GET", "/transactions", nil)
	req.Header.Set("Authorization", "Bearer "+signTestToken(t, accessClaims()))
	rec := httptest.NewRecorder()
	AuthMiddleware(testSecret)(next).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	if got == nil {
		t.Fatalf("expected user in context")
	}
	if got.ID != 42 || got.Email != "admin@gmail.com" || got.Role != domain.RoleOwner {
		t.Fatalf("unexpected user: %+v", got)
	}
}

func TestAuthMiddlewareRejectsMissingToken(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("next handler must not run")
	})
	req := httptest.NewRequest("GET", "/transactions", nil)
	rec := httptest.NewRecorder()
	AuthMiddleware(testSecret)(next).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuthMiddlewareRejectsWrongSecret(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, accessClaims())
	signed, err := token.SignedString([]byte("other-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	req := httptest.NewRequest("GET", "/transactions", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	rec := httptest.NewRecorder()
	AuthMiddleware(testSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("next handler must not run")
	})).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuthMiddlewareRejectsRefreshToken(t *testing.T) {
	claims := accessClaims()
	claims["token_type"] = "refresh"
	req := httptest.NewRequest("GET", "/transactions", nil)
	req.Header.Set("Authorization", "Bearer "+signTestToken(t, claims))
	rec := httptest.NewRecorder()
	AuthMiddleware(testSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("next handler must not run")
	})).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuthMiddlewareRejectsExpiredToken(t *testing.T) {
	claims := accessClaims()
	claims["exp"] = time.Now().Add(-time.Minute).Unix()
	req := httptest.NewRequest("GET", "/transactions", nil)
	req.Header.Set("Authorization", "Bearer "+signTestToken(t, claims))
	rec := httptest.NewRecorder()
	AuthMiddleware(testSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("next handler must not run")
	})).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestRequireRoleBlocksOtherRoles(t *testing.T) {
	handler := RequireRole(domain.RoleOwner)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/pegawai", nil)
	ctx := authctx.WithCurrentUser(req.Context(), authctx.CurrentUser{ID: 2, Role: domain.RolePegawai})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req.WithContext(ctx))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for pegawai, got %d", rec.Code)
	}

	ctx = authctx.WithCurrentUser(req.Context(), authctx.CurrentUser{ID: 1, Role: domain.RoleOwner})
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req.WithContext(ctx))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for owner, got %d", rec.Code)
	}
}

func TestRequireRoleWithoutUser(t *testing.T) {
	handler := RequireRole(domain.RoleOwner)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("next handler must not run")
	}))
	req := httptest.NewRequest("GET", "/pegawai", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}
