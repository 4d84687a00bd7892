// Package main is the entry point for the cartera API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cartera/internal/config"
	"cartera/internal/domain/account"
	"cartera/internal/domain/alert"
	"cartera/internal/domain/auth"
	"cartera/internal/domain/authz"
	"cartera/internal/domain/client"
	"cartera/internal/domain/importing"
	"cartera/internal/domain/invoice"
	"cartera/internal/domain/payment"
	"cartera/internal/domain/reports"
	v1 "cartera/internal/infrastructure/http/v1"
	"cartera/internal/infrastructure/storage/postgres"
	"cartera/internal/infrastructure/storage/postgres/alert_repo"
	"cartera/internal/infrastructure/storage/postgres/auth_repo"
	"cartera/internal/infrastructure/storage/postgres/catalog_repo"
	"cartera/internal/infrastructure/storage/postgres/invoice_repo"
	"cartera/internal/infrastructure/storage/postgres/payment_repo"
	"cartera/internal/infrastructure/storage/postgres/report_repo"
	"cartera/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.LogLevel,
		Development: cfg.IsDevelopment(),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	log.Info("starting cartera server")

	// --- Database ---
	poolCfg := postgres.DefaultPoolConfig(cfg.DatabaseURL)
	poolCfg.MaxConns = cfg.DBMaxConns
	poolCfg.MinConns = cfg.DBMinConns
	poolCfg.MaxConnIdleTime = cfg.DBMaxConnIdle
	poolCfg.MaxConnLifetime = cfg.DBMaxConnLife

	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	log.Info("database connection established")

	txManager := postgres.NewTxManager(pool)

	// --- Authorization ---
	var authorizer authz.Authorizer = authz.NewRoleAuthorizer()
	if len(cfg.AuthzRules) > 0 {
		authorizer, err = authz.NewCELAuthorizer(authorizer, cfg.AuthzRules)
		if err != nil {
			log.Fatalw("failed to compile authorization rules", "error", err)
		}
		log.Infow("custom authorization rules loaded", "count", len(cfg.AuthzRules))
	}

	// --- Auth ---
	tokens, err := auth.NewTokenService(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL)
	if err != nil {
		log.Fatalw("failed to initialize token service", "error", err)
	}
	authService := auth.NewService(auth_repo.New(txManager), tokens, txManager)

	// --- Audit ---
	auditService, err := postgres.NewAuditService(txManager)
	if err != nil {
		log.Fatalw("failed to initialize audit service", "error", err)
	}

	// --- Domain services ---
	invoiceRepo := invoice_repo.New(txManager)
	invoiceService := invoice.NewService(invoiceRepo, txManager)

	paymentService := payment.NewService(
		payment_repo.New(txManager), invoiceService, txManager, authorizer, auditService)

	clientService := client.NewService(catalog_repo.NewClientRepo(txManager), txManager)
	accountService := account.NewService(catalog_repo.NewAccountRepo(txManager), txManager)

	alertService := alert.NewService(alert_repo.New(txManager), invoiceRepo,
		alert.AuthDirectory{Users: authService})
	invoiceService.Subscribe(alertService)

	reportService := reports.NewService(report_repo.New(txManager), txManager)
	importer := importing.NewImporter(invoiceService, clientService, auditService)

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		Pool:           pool,
		Logger:         log,
		TokenVerifier:  tokens,
		AuthService:    authService,
		InvoiceService: invoiceService,
		PaymentService: paymentService,
		ClientService:  clientService,
		AccountService: accountService,
		AlertService:   alertService,
		ReportService:  reportService,
		Importer:       importer,
	})

	// --- HTTP server ---
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}
