package server

import (
	"net/http"
	"time"

	"log/slog"

	"github.com/Cansyell/laundrybackend/internal/config"
	"github.com/Cansyell/laundrybackend/internal/domain"
	"github.com/Cansyell/laundrybackend/internal/handler"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter wires HTTP routes and middleware.
func NewRouter(cfg config.Config,
	logger *slog.Logger,
	health handler.HealthHandler,
	auth handler.AuthHandler,
	categories handler.CategoryHandler,
	services handler.ServiceHandler,
	customers handler.CustomerHandler,
	addOns handler.AddOnHandler,
	transactions handler.TransactionHandler,
	expenseCategories handler.ExpenseCategoryHandler,
	expenses handler.ExpenseHandler,
	pegawai handler.PegawaiHandler,
) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(NewLoggerMiddleware(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.AllowedOrigin},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(httprate.LimitByIP(200, 1*time.Minute))

	health.RegisterRoutes(r)
	auth.RegisterRoutes(r)
	r.Method("GET", "/metrics", promhttp.Handler())

	r.Group(func(pr chi.Router) {
		pr.Use(AuthMiddleware(cfg.JWTSecret))
		// staff-level (owner and pegawai)
		pr.Group(func(sr chi.Router) {
			sr.Use(RequireRole(domain.RoleOwner, domain.RolePegawai))
			categories.RegisterRoutes(sr)
			services.RegisterRoutes(sr)
			customers.RegisterRoutes(sr)
			addOns.RegisterRoutes(sr)
			transactions.RegisterRoutes(sr)
			expenseCategories.RegisterRoutes(sr)
			expenses.RegisterRoutes(sr)
		})
		// owner-level
		pr.Group(func(or chi.Router) {
			or.Use(RequireRole(domain.RoleOwner))
			pegawai.RegisterRoutes(or)
		})
	})

	return r
}
