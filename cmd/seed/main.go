// Package main provides a CLI tool for seeding the database with an admin
// user and optional demo data.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"golang.org/x/crypto/bcrypt"

	"cartera/internal/core/id"
	"cartera/internal/infrastructure/storage/postgres"
	"cartera/pkg/logger"
)

func main() {
	log, err := logger.New(logger.Config{
		Level:       "info",
		Development: true,
	})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(dbURL))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	log.Info("connected to database")

	adminID, err := seedAdminUser(ctx, pool, log)
	if err != nil {
		log.Fatalw("failed to seed admin user", "error", err)
	}

	if os.Getenv("SEED_DEMO_DATA") == "true" {
		if err := seedDemoData(ctx, pool, log, adminID); err != nil {
			log.Fatalw("failed to seed demo data", "error", err)
		}
	}

	log.Info("seeding complete")
}

func seedAdminUser(ctx context.Context, pool *postgres.Pool, log *logger.Logger) (id.ID, error) {
	adminEmail := os.Getenv("ADMIN_EMAIL")
	if adminEmail == "" {
		adminEmail = "admin@cartera.local"
	}
	adminPassword := os.Getenv("ADMIN_PASSWORD")
	if adminPassword == "" {
		adminPassword = "changeme123"
		log.Warn("ADMIN_PASSWORD not set, using the default; change it immediately")
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
	if err != nil {
		return id.Nil(), fmt.Errorf("hash password: %w", err)
	}

	userID := id.New()
	tag, err := pool.Exec(ctx, `
		INSERT INTO users (id, email, name, password_hash, roles, active, deletion_mark, version)
		VALUES ($1, $2, 'System Admin', $3, $4, true, false, 1)
		ON CONFLICT (email) DO NOTHING
	`, userID, adminEmail, string(passwordHash), []string{"manager"})
	if err != nil {
		return id.Nil(), fmt.Errorf("insert admin user: %w", err)
	}

	if tag.RowsAffected() == 0 {
		err = pool.QueryRow(ctx,
			`SELECT id FROM users WHERE email = $1`, adminEmail).Scan(&userID)
		if err != nil {
			return id.Nil(), fmt.Errorf("fetch existing admin user: %w", err)
		}
		log.Infow("admin user already exists", "email", adminEmail)
		return userID, nil
	}

	log.Infow("admin user created", "email", adminEmail, "user_id", userID)
	return userID, nil
}

func seedDemoData(ctx context.Context, pool *postgres.Pool, log *logger.Logger, adminID id.ID) error {
	log.Info("seeding demo data...")

	// Demo clients
	clients := []struct {
		code, name, taxID string
		termsDays         int
	}{
		{"CLI-001", "Distribuidora La Esquina", "900123456-1", 30},
		{"CLI-002", "Supermercado El Centro", "900654321-7", 15},
		{"CLI-003", "Tienda Don Pedro", "79456123-0", 8},
	}

	clientIDs := make(map[string]id.ID)
	for _, c := range clients {
		cid := id.New()
		tag, err := pool.Exec(ctx, `
			INSERT INTO clients (id, code, name, tax_id, payment_terms_days, credit_limit, deletion_mark, version)
			VALUES ($1, $2, $3, $4, $5, 0, false, 1)
			ON CONFLICT (code) DO NOTHING
		`, cid, c.code, c.name, c.taxID, c.termsDays)
		if err != nil {
			log.Warnw("failed to seed client", "code", c.code, "error", err)
			continue
		}
		if tag.RowsAffected() == 0 {
			if err := pool.QueryRow(ctx,
				`SELECT id FROM clients WHERE code = $1`, c.code).Scan(&cid); err != nil {
				log.Warnw("failed to fetch existing client", "code", c.code, "error", err)
				continue
			}
		}
		clientIDs[c.code] = cid
	}

	// Demo payment accounts
	accounts := []struct {
		code, name, kind, bank, number string
	}{
		{"ACC-001", "Cuenta corriente principal", "bank", "Bancolombia", "012-345678-90"},
		{"ACC-002", "Caja menor", "cash", "", ""},
	}
	for _, a := range accounts {
		_, err := pool.Exec(ctx, `
			INSERT INTO payment_accounts (id, code, name, kind, bank_name, number, active, deletion_mark, version)
			VALUES ($1, $2, $3, $4, $5, $6, true, false, 1)
			ON CONFLICT (code) DO NOTHING
		`, id.New(), a.code, a.name, a.kind, a.bank, a.number)
		if err != nil {
			log.Warnw("failed to seed account", "code", a.code, "error", err)
		}
	}

	// A few demo invoices against the first client
	clientID, ok := clientIDs["CLI-001"]
	if !ok {
		log.Warn("demo client missing, skipping demo invoices")
		return nil
	}

	now := time.Now().UTC()
	invoices := []struct {
		number string
		gross  string
		issued time.Time
		due    time.Time
	}{
		{"FE-10001", "1250000.00", now.AddDate(0, 0, -40), now.AddDate(0, 0, -10)},
		{"FE-10002", "830500.00", now.AddDate(0, 0, -12), now.AddDate(0, 0, 18)},
		{"R-20001", "412000.00", now.AddDate(0, 0, -5), now.AddDate(0, 0, 3)},
	}
	for _, inv := range invoices {
		invType := "FE"
		if inv.number[0] == 'R' {
			invType = "R"
		}
		_, err := pool.Exec(ctx, `
			INSERT INTO invoices (
				id, number, type, client_id, issue_date, due_date, gross_total,
				status, delivery_status, deletion_mark, version,
				created_at, updated_at, created_by
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, 'pending', 'pending', false, 1, $8, $8, $9)
			ON CONFLICT (number) DO NOTHING
		`, id.New(), inv.number, invType, clientID, inv.issued, inv.due,
			inv.gross, now, adminID.String())
		if err != nil {
			log.Warnw("failed to seed invoice", "number", inv.number, "error", err)
		}
	}

	log.Info("demo data seeded")
	return nil
}
