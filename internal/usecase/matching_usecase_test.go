package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/goreconcile/internal/domain"
	"github.com/iho/goreconcile/internal/usecase"
)

func TestSuggestCreditMatchesInvoice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	uc := usecase.NewMatchingUseCase(f.ledger, f.opts...)

	f.seedInvoice(t, tenantA, "far", "500.00", dayPtr(1))
	f.seedInvoice(t, tenantA, "near", "500.00", dayPtr(19))
	f.seedInvoice(t, tenantB, "foreign", "500.00", dayPtr(20))
	f.seedTransaction(t, tenantA, bankA, "tx-1", domain.TransactionTypeCredit, "500.00", day(20))

	s, err := uc.Suggest(ctx, tenantA, "tx-1")
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, "near", s.Candidate.ID)
	assert.Equal(t, domain.ConfidenceHigh, s.Confidence)
	assert.Equal(t, 1, s.DateDiffDays)
}

func TestSuggestDebitMatchesExpense(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	uc := usecase.NewMatchingUseCase(f.ledger, f.opts...)

	f.seedExpense(t, "rent", "1020.00", dayPtr(5))
	f.seedTransaction(t, tenantA, bankA, "tx-1", domain.TransactionTypeDebit, "1000.00", day(5))
	f.seedTransaction(t, tenantA, bankA, "tx-2", domain.TransactionTypeDebit, "5000.00", day(5))

	s, err := uc.Suggest(ctx, tenantA, "tx-1")
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, domain.CandidateExpense, s.Candidate.Kind)
	assert.Equal(t, domain.ConfidenceMedium, s.Confidence, "close amount, near date")

	s, err = uc.Suggest(ctx, tenantA, "tx-2")
	require.NoError(t, err)
	assert.Nil(t, s)
}

func TestSuggestAlreadyImported(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rec := f.reconciliation()
	uc := usecase.NewMatchingUseCase(f.ledger, f.opts...)

	f.seedTransaction(t, tenantA, bankA, "tx-1", domain.TransactionTypeDebit, "80.00", day(5))
	_, err := rec.Create(ctx, usecase.CreateInput{TenantID: tenantA, TransactionID: "tx-1"})
	require.NoError(t, err)

	// An overlapping statement carries the same line again.
	batch := &domain.ImportBatch{ID: "batch-2", TenantID: tenantA, BankID: bankA}
	again := domain.NewImportedTransaction("tx-again", batch, domain.StatementLine{
		ExternalID: "ext-tx-1", Amount: dec("80.00"), Type: domain.TransactionTypeDebit, Date: day(5),
	}, f.now)
	require.NoError(t, f.ledger.Statements.CreateTransactions(ctx, nil, []*domain.ImportedTransaction{again}))

	s, err := uc.Suggest(ctx, tenantA, "tx-again")
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, domain.CandidateAlreadyImported, s.Candidate.Kind)
	assert.Equal(t, domain.ConfidenceHigh, s.Confidence)

	// The original transaction is committed and gets no suggestion.
	s, err = uc.Suggest(ctx, tenantA, "tx-1")
	require.NoError(t, err)
	assert.Nil(t, s)
}

// seedOverlap stores a second statement line carrying the natural key of id.
func seedOverlap(t *testing.T, f *fixture, id string, typ domain.TransactionType, amount string, date time.Time) {
	t.Helper()

	batch := &domain.ImportBatch{ID: "batch-overlap", TenantID: tenantA, BankID: bankA}
	again := domain.NewImportedTransaction("tx-again", batch, domain.StatementLine{
		ExternalID: "ext-" + id, Amount: dec(amount), Type: typ, Date: date,
	}, f.now)
	require.NoError(t, f.ledger.Statements.CreateTransactions(context.Background(), nil, []*domain.ImportedTransaction{again}))
}

func TestSuggestAlreadyReconciled(t *testing.T) {
	t.Run("credit settled against invoices", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()
		uc := usecase.NewMatchingUseCase(f.ledger, f.opts...)

		f.seedInvoice(t, tenantA, "inv-1", "500.00", dayPtr(10))
		f.seedInvoice(t, tenantA, "inv-2", "500.00", dayPtr(10))
		f.seedTransaction(t, tenantA, bankA, "tx-1", domain.TransactionTypeCredit, "500.00", day(10))

		_, err := f.reconciliation().Accept(ctx, usecase.AcceptInput{
			TenantID:      tenantA,
			TransactionID: "tx-1",
			Target: usecase.AcceptTarget{
				Kind:     usecase.TargetInvoices,
				Invoices: usecase.InvoiceSelection{InvoiceIDs: []string{"inv-1"}},
			},
		})
		require.NoError(t, err)

		seedOverlap(t, f, "tx-1", domain.TransactionTypeCredit, "500.00", day(10))

		s, err := uc.Suggest(ctx, tenantA, "tx-again")
		require.NoError(t, err)
		require.NotNil(t, s)
		assert.Equal(t, domain.CandidateAlreadyImported, s.Candidate.Kind, "open inv-2 must not be offered")
		assert.Equal(t, "tx-1", s.Candidate.ID)
		assert.Equal(t, string(domain.LinkTypeInvoice), s.Candidate.Description)
	})

	t.Run("debit paid against a payable", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()
		uc := usecase.NewMatchingUseCase(f.ledger, f.opts...)

		f.seedInvoice(t, tenantA, "inv-1", "900.00", dayPtr(10))
		payable := f.allocateSingle(t, "inv-1", "900.00", "0")
		f.seedExpense(t, "rent", "900.00", dayPtr(20))
		f.seedTransaction(t, tenantA, bankA, "tx-1", domain.TransactionTypeDebit, "900.00", day(20))

		_, err := f.reconciliation().Accept(ctx, usecase.AcceptInput{
			TenantID:      tenantA,
			TransactionID: "tx-1",
			Target:        usecase.AcceptTarget{Kind: usecase.TargetPayable, PayableID: payable.ID},
		})
		require.NoError(t, err)

		seedOverlap(t, f, "tx-1", domain.TransactionTypeDebit, "900.00", day(20))

		s, err := uc.Suggest(ctx, tenantA, "tx-again")
		require.NoError(t, err)
		require.NotNil(t, s)
		assert.Equal(t, domain.CandidateAlreadyImported, s.Candidate.Kind, "open expense must not be offered")
		assert.Equal(t, "tx-1", s.Candidate.ID)
		assert.Equal(t, string(domain.LinkTypePayable), s.Candidate.Description)
	})

	t.Run("reversed line is matched again", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()
		uc := usecase.NewMatchingUseCase(f.ledger, f.opts...)

		f.seedInvoice(t, tenantA, "inv-1", "500.00", dayPtr(10))
		f.seedTransaction(t, tenantA, bankA, "tx-1", domain.TransactionTypeCredit, "500.00", day(10))
		rec := f.reconciliation()
		_, err := rec.Accept(ctx, usecase.AcceptInput{
			TenantID:      tenantA,
			TransactionID: "tx-1",
			Target: usecase.AcceptTarget{
				Kind:     usecase.TargetInvoices,
				Invoices: usecase.InvoiceSelection{InvoiceIDs: []string{"inv-1"}},
			},
		})
		require.NoError(t, err)
		_, err = rec.Reverse(ctx, usecase.ReverseInput{TenantID: tenantA, TransactionID: "tx-1", Reason: "wrong bank"})
		require.NoError(t, err)

		seedOverlap(t, f, "tx-1", domain.TransactionTypeCredit, "500.00", day(10))

		s, err := uc.Suggest(ctx, tenantA, "tx-again")
		require.NoError(t, err)
		require.NotNil(t, s)
		assert.Equal(t, domain.CandidateInvoice, s.Candidate.Kind)
		assert.Equal(t, "inv-1", s.Candidate.ID)
	})
}

func TestSuggestForBatch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	uc := usecase.NewMatchingUseCase(f.ledger, f.opts...)

	f.seedInvoice(t, tenantA, "inv-1", "250.00", dayPtr(10))

	batch := &domain.ImportBatch{ID: "batch-1", TenantID: tenantA, BankID: bankA}
	lines := []domain.StatementLine{
		{ExternalID: "a", Amount: dec("250.00"), Type: domain.TransactionTypeCredit, Date: day(10)},
		{ExternalID: "b", Amount: dec("9.99"), Type: domain.TransactionTypeCredit, Date: day(10)},
	}
	var txs []*domain.ImportedTransaction
	for i, l := range lines {
		txs = append(txs, domain.NewImportedTransaction([]string{"t-a", "t-b"}[i], batch, l, f.now))
	}
	require.NoError(t, f.ledger.Statements.CreateTransactions(ctx, nil, txs))

	res, err := uc.SuggestForBatch(ctx, tenantA, "batch-1")
	require.NoError(t, err)
	require.Len(t, res, 2)
	require.NotNil(t, res[0].Suggestion)
	assert.Equal(t, "inv-1", res[0].Suggestion.Candidate.ID)
	assert.Nil(t, res[1].Suggestion)
}

func TestSuggestUnknownTransaction(t *testing.T) {
	f := newFixture(t)
	uc := usecase.NewMatchingUseCase(f.ledger, f.opts...)

	_, err := uc.Suggest(context.Background(), tenantA, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = uc.Suggest(context.Background(), "", "missing")
	assert.ErrorIs(t, err, domain.ErrTenantRequired)
}
