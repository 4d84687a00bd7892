// Package main is the cartera operations CLI: the overdue sweep, the alert
// scan, and bulk invoice import, runnable from cron or by hand.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"cartera/internal/config"
	"cartera/internal/domain/alert"
	"cartera/internal/domain/auth"
	"cartera/internal/domain/client"
	"cartera/internal/domain/importing"
	"cartera/internal/domain/invoice"
	"cartera/internal/infrastructure/storage/postgres"
	"cartera/internal/infrastructure/storage/postgres/alert_repo"
	"cartera/internal/infrastructure/storage/postgres/auth_repo"
	"cartera/internal/infrastructure/storage/postgres/catalog_repo"
	"cartera/internal/infrastructure/storage/postgres/invoice_repo"
	"cartera/pkg/logger"
)

var rootCmd = &cobra.Command{
	Use:          "cartera-ops",
	Short:        "Back-office maintenance commands for the receivables book",
	SilenceUsage: true,
}

// app bundles the services the subcommands share.
type app struct {
	log      *logger.Logger
	pool     *postgres.Pool
	invoices *invoice.Service
	alerts   *alert.Service
	importer *importing.Importer
}

// bootstrap connects to the database and wires the domain services.
func bootstrap(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.LogLevel,
		Development: cfg.IsDevelopment(),
	})
	if err != nil {
		return nil, err
	}

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(cfg.DatabaseURL))
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	txManager := postgres.NewTxManager(pool)

	tokens, err := auth.NewTokenService(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL)
	if err != nil {
		pool.Close()
		return nil, err
	}
	authService := auth.NewService(auth_repo.New(txManager), tokens, txManager)

	invoiceRepo := invoice_repo.New(txManager)
	invoiceService := invoice.NewService(invoiceRepo, txManager)

	alertService := alert.NewService(alert_repo.New(txManager), invoiceRepo,
		alert.AuthDirectory{Users: authService})
	invoiceService.Subscribe(alertService)

	clientService := client.NewService(catalog_repo.NewClientRepo(txManager), txManager)

	auditService, err := postgres.NewAuditService(txManager)
	if err != nil {
		pool.Close()
		return nil, err
	}

	return &app{
		log:      log,
		pool:     pool,
		invoices: invoiceService,
		alerts:   alertService,
		importer: importing.NewImporter(invoiceService, clientService, auditService),
	}, nil
}

func (a *app) close() {
	a.pool.Close()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
