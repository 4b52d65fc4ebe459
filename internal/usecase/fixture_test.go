package usecase_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/iho/goreconcile/internal/adapter/repository/memory"
	"github.com/iho/goreconcile/internal/domain"
	"github.com/iho/goreconcile/internal/usecase"
)

const (
	tenantA = "tenant-a"
	tenantB = "tenant-b"
	bankA   = "bank-a"
	bankA2  = "bank-a2"
	bankB   = "bank-b"
)

type seqIDs struct {
	mu sync.Mutex
	n  int
}

func (g *seqIDs) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("id-%05d", g.n)
}

type fixture struct {
	store  *memory.Store
	ledger usecase.Ledger
	txm    usecase.TransactionManager
	ids    *seqIDs
	now    time.Time
	opts   []usecase.Option
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := memory.NewStore()
	store.AddBank(&domain.Bank{ID: bankA, TenantID: tenantA, Name: "Main", InitialBalance: dec("1000.00")})
	store.AddBank(&domain.Bank{ID: bankA2, TenantID: tenantA, Name: "Savings", InitialBalance: decimal.Zero})
	store.AddBank(&domain.Bank{ID: bankB, TenantID: tenantB, Name: "Other", InitialBalance: decimal.Zero})

	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	return &fixture{
		store:  store,
		ledger: store.Ledger(),
		txm:    store.TxManager(),
		ids:    &seqIDs{},
		now:    now,
		opts:   []usecase.Option{usecase.WithClock(func() time.Time { return now })},
	}
}

func (f *fixture) reconciliation() *usecase.ReconciliationUseCase {
	return usecase.NewReconciliationUseCase(f.txm, f.ledger, f.ids, f.opts...)
}

func (f *fixture) balances() *usecase.BalanceUseCase {
	return usecase.NewBalanceUseCase(f.ledger, f.opts...)
}

func (f *fixture) payments() *usecase.PaymentUseCase {
	return usecase.NewPaymentUseCase(f.txm, f.ledger, f.ids, f.opts...)
}

func (f *fixture) allocations() *usecase.AllocationUseCase {
	return usecase.NewAllocationUseCase(f.txm, f.ledger, f.store.Payees(), f.ids, f.opts...)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func day(d int) time.Time {
	return time.Date(2024, 3, d, 0, 0, 0, 0, time.UTC)
}

func dayPtr(d int) *time.Time {
	t := day(d)
	return &t
}

func (f *fixture) seedInvoice(t *testing.T, tenantID, id, net string, expected *time.Time) *domain.Invoice {
	t.Helper()

	inv := domain.NewInvoice(id, tenantID, "hash-"+id, &domain.InvoiceData{
		InvoiceNumber:       "NF-" + id,
		IssueDate:           day(1),
		ExpectedReceiptDate: expected,
		GrossValue:          dec(net),
		TotalDeductions:     decimal.Zero,
	}, f.now)
	require.NoError(t, f.ledger.Invoices.Create(context.Background(), nil, inv))
	return inv
}

func (f *fixture) seedTransaction(t *testing.T, tenantID, bankID, id string, typ domain.TransactionType, amount string, date time.Time) *domain.ImportedTransaction {
	t.Helper()

	batch := &domain.ImportBatch{ID: "batch-" + id, TenantID: tenantID, BankID: bankID}
	tx := domain.NewImportedTransaction(id, batch, domain.StatementLine{
		ExternalID:  "ext-" + id,
		Amount:      dec(amount),
		Type:        typ,
		Date:        date,
		Description: "statement line " + id,
	}, f.now)
	require.NoError(t, f.ledger.Statements.CreateTransactions(context.Background(), nil, []*domain.ImportedTransaction{tx}))
	return tx
}

func (f *fixture) seedExpense(t *testing.T, id, amount string, due *time.Time) *domain.Expense {
	t.Helper()

	e := &domain.Expense{
		ID:          id,
		TenantID:    tenantA,
		Description: "expense " + id,
		Amount:      dec(amount),
		PaidAmount:  decimal.Zero,
		Status:      domain.ExpenseStatusPending,
		DueDate:     due,
		CreatedAt:   f.now,
		UpdatedAt:   f.now,
	}
	f.store.AddExpense(e)
	return e
}

func (f *fixture) invoice(t *testing.T, id string) *domain.Invoice {
	t.Helper()
	inv, err := f.ledger.Invoices.GetByID(context.Background(), tenantA, id)
	require.NoError(t, err)
	return inv
}

func (f *fixture) transaction(t *testing.T, id string) *domain.ImportedTransaction {
	t.Helper()
	tx, err := f.ledger.Statements.GetTransaction(context.Background(), tenantA, id)
	require.NoError(t, err)
	return tx
}

func (f *fixture) balance(t *testing.T, bankID string) decimal.Decimal {
	t.Helper()
	b, err := f.balances().GetBalance(context.Background(), tenantA, bankID)
	require.NoError(t, err)
	return b.Balance
}

// reversalTraces returns the payment_reversal revenues written so far.
func (f *fixture) reversalTraces(t *testing.T) []*domain.Revenue {
	t.Helper()

	f.ids.mu.Lock()
	n := f.ids.n
	f.ids.mu.Unlock()

	var out []*domain.Revenue
	for i := 1; i <= n; i++ {
		rev, err := f.ledger.Revenues.GetByID(context.Background(), nil, tenantA, fmt.Sprintf("id-%05d", i))
		if err != nil {
			continue
		}
		if rev.Source == domain.RevenueSourcePaymentReversal {
			out = append(out, rev)
		}
	}
	return out
}

// allocateSingle gives the whole invoice to one payee and returns its payable.
func (f *fixture) allocateSingle(t *testing.T, invoiceID, gross, feeRate string) *domain.Payable {
	t.Helper()

	payeeID := "payee-" + invoiceID
	f.store.AddPayee(&domain.Payee{ID: payeeID, TenantID: tenantA, Name: "Payee", FeeRate: dec(feeRate)})

	res, err := f.allocations().AllocateInvoice(context.Background(), usecase.AllocateInvoiceInput{
		TenantID:  tenantA,
		InvoiceID: invoiceID,
		Lines:     []domain.AllocationLine{{PayeeID: payeeID, AllocatedGrossValue: dec(gross)}},
	})
	require.NoError(t, err)
	require.Len(t, res.Payables, 1)
	return res.Payables[0]
}

func decEqual(t *testing.T, want string, got decimal.Decimal, msg string) {
	t.Helper()
	if !got.Equal(dec(want)) {
		t.Fatalf("%s: expected %s, got %s", msg, want, got.StringFixed(2))
	}
}
