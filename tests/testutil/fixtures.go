package testutil

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/goreconcile/internal/domain"
	"github.com/iho/goreconcile/internal/infrastructure/postgres"
)

// TestDB provides isolated test database connections.
type TestDB struct {
	Pool *pgxpool.Pool
	t    *testing.T
}

// NewTestDB connects to TEST_DATABASE_URL and applies the migrations. The
// test is skipped when the variable is unset or -short is given.
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test")
	}
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	migrationsPath := "migrations"
	for _, candidate := range []string{"migrations", "../migrations", "../../migrations"} {
		if _, err := os.Stat(candidate); err == nil {
			migrationsPath = candidate
			break
		}
	}

	if err := postgres.RunMigrations(dbURL, migrationsPath, zerolog.Nop()); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := postgres.NewPool(ctx, dbURL, 10, 1)
	if err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}

	db := &TestDB{Pool: pool, t: t}
	t.Cleanup(db.Cleanup)
	db.TruncateAll(ctx)
	return db
}

// Cleanup closes the database connection.
func (db *TestDB) Cleanup() {
	db.Pool.Close()
}

// TruncateAll removes all data from tables.
func (db *TestDB) TruncateAll(ctx context.Context) {
	db.t.Helper()

	_, err := db.Pool.Exec(ctx, `
		TRUNCATE TABLE
			audit_logs, outbox_events, adjustments, invoice_receipts, payments,
			expenses, revenues, imported_transactions, import_batches,
			payables, invoice_allocations, invoices, payees, banks
		CASCADE;
	`)
	if err != nil {
		db.t.Fatalf("failed to truncate tables: %v", err)
	}
}

// CreateBank inserts a bank owned by tenantID.
func (db *TestDB) CreateBank(ctx context.Context, tenantID, name string, initial decimal.Decimal) *domain.Bank {
	db.t.Helper()

	b := &domain.Bank{
		ID:             GenerateID(),
		TenantID:       tenantID,
		Name:           name,
		InitialBalance: initial,
		CreatedAt:      time.Now().UTC(),
	}
	_, err := db.Pool.Exec(ctx, `
		INSERT INTO banks (id, tenant_id, name, initial_balance, created_at)
		VALUES ($1, $2, $3, $4::numeric, $5)`,
		b.ID, b.TenantID, b.Name, initial.StringFixed(domain.MoneyScale), b.CreatedAt,
	)
	if err != nil {
		db.t.Fatalf("failed to create test bank: %v", err)
	}
	return b
}

// CreatePayee inserts a payee owned by tenantID.
func (db *TestDB) CreatePayee(ctx context.Context, tenantID, name string, feeRate decimal.Decimal) *domain.Payee {
	db.t.Helper()

	p := &domain.Payee{ID: GenerateID(), TenantID: tenantID, Name: name, FeeRate: feeRate}
	_, err := db.Pool.Exec(ctx, `
		INSERT INTO payees (id, tenant_id, name, fee_rate)
		VALUES ($1, $2, $3, $4::numeric)`,
		p.ID, p.TenantID, p.Name, feeRate.String(),
	)
	if err != nil {
		db.t.Fatalf("failed to create test payee: %v", err)
	}
	return p
}

// GenerateID generates a new ULID.
func GenerateID() string {
	return ulid.Make().String()
}
