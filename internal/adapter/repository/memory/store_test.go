package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/goreconcile/internal/domain"
)

func testInvoice(id, tenantID, hash string) *domain.Invoice {
	return domain.NewInvoice(id, tenantID, hash, &domain.InvoiceData{
		InvoiceNumber: "NF-" + id,
		GrossValue:    decimal.RequireFromString("100.00"),
	}, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))
}

func TestRollbackRestoresSnapshot(t *testing.T) {
	s := NewStore()
	ledger := s.Ledger()
	ctx := context.Background()

	require.NoError(t, ledger.Invoices.Create(ctx, nil, testInvoice("kept", "t1", "h1")))

	tx, err := s.TxManager().Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, ledger.Invoices.Create(ctx, tx, testInvoice("dropped", "t1", "h2")))

	_, err = ledger.Invoices.GetByID(ctx, "t1", "dropped")
	require.NoError(t, err, "writes are visible inside the transaction")

	require.NoError(t, tx.Rollback(ctx))
	require.NoError(t, tx.Rollback(ctx), "second rollback is a no-op")

	_, err = ledger.Invoices.GetByID(ctx, "t1", "dropped")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = ledger.Invoices.GetByID(ctx, "t1", "kept")
	assert.NoError(t, err)
}

func TestCommitKeepsWrites(t *testing.T) {
	s := NewStore()
	ledger := s.Ledger()
	ctx := context.Background()

	tx, err := s.TxManager().Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, ledger.Invoices.Create(ctx, tx, testInvoice("inv", "t1", "h1")))
	require.NoError(t, tx.Commit(ctx))

	// Rollback after commit must not undo anything.
	require.NoError(t, tx.Rollback(ctx))
	assert.ErrorIs(t, tx.Commit(ctx), errTxClosed)

	_, err = ledger.Invoices.GetByID(ctx, "t1", "inv")
	assert.NoError(t, err)
}

func TestBeginHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewStore().TxManager().Begin(ctx)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestTenantScoping(t *testing.T) {
	s := NewStore()
	ledger := s.Ledger()
	ctx := context.Background()

	s.AddBank(&domain.Bank{ID: "b1", TenantID: "t1", InitialBalance: decimal.Zero})
	require.NoError(t, ledger.Invoices.Create(ctx, nil, testInvoice("inv", "t1", "h1")))

	_, err := ledger.Invoices.GetByID(ctx, "t2", "inv")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = ledger.Banks.GetByID(ctx, "t2", "b1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = ledger.Banks.BalanceComponents(ctx, "t2", "b1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	s.AddPayee(&domain.Payee{ID: "p1", TenantID: "t1"})
	_, err = s.Payees().Get(ctx, "t2", "p1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUniqueContentHashes(t *testing.T) {
	s := NewStore()
	ledger := s.Ledger()
	ctx := context.Background()

	require.NoError(t, ledger.Invoices.Create(ctx, nil, testInvoice("a", "t1", "same")))

	err := ledger.Invoices.Create(ctx, nil, testInvoice("b", "t2", "same"))
	var dup *domain.DuplicateImportError
	require.True(t, errors.As(err, &dup))
	assert.Equal(t, domain.ImportKindInvoice, dup.Kind)

	found, err := ledger.Invoices.FindByContentHash(ctx, nil, "same")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "a", found.ID)

	batch := &domain.ImportBatch{ID: "batch-1", TenantID: "t1", BankID: "b1", FileHash: "fh"}
	require.NoError(t, ledger.Statements.CreateBatch(ctx, nil, batch))

	err = ledger.Statements.CreateBatch(ctx, nil, &domain.ImportBatch{ID: "batch-2", TenantID: "t1", BankID: "b1", FileHash: "fh"})
	assert.ErrorIs(t, err, domain.ErrDuplicateImport)

	require.NoError(t, ledger.Statements.CreateBatch(ctx, nil,
		&domain.ImportBatch{ID: "batch-3", TenantID: "t1", BankID: "b2", FileHash: "fh"}),
		"the same file may be imported into another bank")
}

func TestReturnedRowsAreCopies(t *testing.T) {
	s := NewStore()
	ledger := s.Ledger()
	ctx := context.Background()

	require.NoError(t, ledger.Invoices.Create(ctx, nil, testInvoice("inv", "t1", "h1")))

	inv, err := ledger.Invoices.GetByID(ctx, "t1", "inv")
	require.NoError(t, err)
	inv.Status = domain.InvoiceStatusReceived

	again, err := ledger.Invoices.GetByID(ctx, "t1", "inv")
	require.NoError(t, err)
	assert.Equal(t, domain.InvoiceStatusPending, again.Status)
}
