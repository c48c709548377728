package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Cansyell/laundrybackend/internal/config"
	"github.com/Cansyell/laundrybackend/internal/db"
	"github.com/Cansyell/laundrybackend/internal/handler"
	"github.com/Cansyell/laundrybackend/internal/repository"
	"github.com/Cansyell/laundrybackend/internal/server"
	"github.com/Cansyell/laundrybackend/internal/service"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pg, err := db.New(ctx, cfg)
	if err != nil {
		logger.Error("failed to connect database", "err", err)
		os.Exit(1)
	}
	defer pg.Close()

	// repositories
	userRepo := repository.UserRepository{DB: pg}
	categoryRepo := repository.CategoryRepository{DB: pg}
	serviceRepo := repository.ServiceRepository{DB: pg}
	customerRepo := repository.CustomerRepository{DB: pg}
	addOnRepo := repository.AddOnRepository{DB: pg}
	txRepo := repository.TransactionRepository{DB: pg}
	expenseCategoryRepo := repository.ExpenseCategoryRepository{DB: pg}
	expenseRepo := repository.ExpenseRepository{DB: pg}
	pegawaiRepo := repository.PegawaiRepository{DB: pg}

	if cfg.SeedOwner {
		if err := userRepo.SeedOwner(ctx); err != nil {
			logger.Error("failed to seed owner account", "err", err)
			os.Exit(1)
		}
	}

	// services
	authSvc := service.AuthService{Config: cfg, Users: userRepo, Logger: logger}

	// handlers
	healthHandler := handler.HealthHandler{DB: pg}
	authHandler := handler.AuthHandler{Service: &authSvc}
	categoryHandler := handler.CategoryHandler{Repo: categoryRepo}
	serviceHandler := handler.ServiceHandler{Repo: serviceRepo, Categories: categoryRepo}
	customerHandler := handler.CustomerHandler{Repo: customerRepo}
	addOnHandler := handler.AddOnHandler{Repo: addOnRepo}
	transactionHandler := handler.TransactionHandler{
		Repo:      txRepo,
		Users:     userRepo,
		Customers: customerRepo,
		Services:  serviceRepo,
		AddOns:    addOnRepo,
	}
	expenseCategoryHandler := handler.ExpenseCategoryHandler{Repo: expenseCategoryRepo}
	expenseHandler := handler.ExpenseHandler{Repo: expenseRepo, Categories: expenseCategoryRepo, Users: userRepo}
	pegawaiHandler := handler.PegawaiHandler{Repo: pegawaiRepo}

	router := server.NewRouter(cfg, logger, healthHandler, authHandler, categoryHandler, serviceHandler, customerHandler, addOnHandler, transactionHandler, expenseCategoryHandler, expenseHandler, pegawaiHandler)

	if err := server.Start(ctx, cfg, router, logger); err != nil {
		logger.Error("server error", "err", err)
		os.Exit(1)
	}
}
