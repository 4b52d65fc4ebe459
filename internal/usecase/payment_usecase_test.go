package usecase_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/goreconcile/internal/domain"
	"github.com/iho/goreconcile/internal/usecase"
)

func TestRecordAndReversePayment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	uc := f.payments()

	f.seedInvoice(t, tenantA, "inv-1", "1000.00", nil)
	payable := f.allocateSingle(t, "inv-1", "1000.00", "10")

	first, err := uc.RecordPayment(ctx, usecase.RecordPaymentInput{
		TenantID: tenantA, PayableID: payable.ID, BankID: bankA, Amount: dec("400.00"), PaymentDate: day(20),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.PayableStatusPartiallyPaid, first.Payable.Status)

	second, err := uc.RecordPayment(ctx, usecase.RecordPaymentInput{
		TenantID: tenantA, PayableID: payable.ID, BankID: bankA, Amount: dec("500.00"), PaymentDate: day(21),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.PayableStatusPaid, second.Payable.Status)
	require.NotNil(t, second.Payable.PaidAt)
	decEqual(t, "100.00", f.balance(t, bankA), "balance after payments")

	_, err = uc.RecordPayment(ctx, usecase.RecordPaymentInput{
		TenantID: tenantA, PayableID: payable.ID, BankID: bankA, Amount: dec("0.02"),
	})
	assert.ErrorIs(t, err, domain.ErrValidation, "overpayment")

	rev, err := uc.ReversePayment(ctx, usecase.ReversePaymentInput{
		TenantID: tenantA, PaymentID: second.Payment.ID, Reason: "bounced", ActorID: "bob",
	})
	require.NoError(t, err)
	assert.True(t, rev.Payment.IsReversed())
	assert.Equal(t, "bob", rev.Payment.ReversedBy)
	assert.Equal(t, domain.PayableStatusPartiallyPaid, rev.Payable.Status)
	decEqual(t, "400.00", rev.Payable.PaidTotal, "paid total")
	assert.Nil(t, rev.Payable.PaidAt)

	// The payment_reversal revenue does not count twice.
	decEqual(t, "600.00", f.balance(t, bankA), "balance after reversal")
	require.Len(t, f.reversalTraces(t), 1)

	_, err = uc.ReversePayment(ctx, usecase.ReversePaymentInput{
		TenantID: tenantA, PaymentID: second.Payment.ID, Reason: "again",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	_, err = uc.ReversePayment(ctx, usecase.ReversePaymentInput{
		TenantID: tenantA, PaymentID: first.Payment.ID,
	})
	assert.ErrorIs(t, err, domain.ErrReasonRequired)

	logs, err := f.ledger.Audit.List(ctx, domain.AuditFilter{TenantID: tenantA, Action: domain.AuditActionPaymentReverse})
	require.NoError(t, err)
	assert.Len(t, logs, 1)
}

func TestReversePaymentFromStatementIsRefused(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.seedInvoice(t, tenantA, "inv-1", "100.00", nil)
	payable := f.allocateSingle(t, "inv-1", "100.00", "0")
	f.seedTransaction(t, tenantA, bankA, "tx-1", domain.TransactionTypeDebit, "100.00", day(5))

	res, err := f.reconciliation().Accept(ctx, usecase.AcceptInput{
		TenantID:      tenantA,
		TransactionID: "tx-1",
		Target:        usecase.AcceptTarget{Kind: usecase.TargetPayable, PayableID: payable.ID},
	})
	require.NoError(t, err)

	_, err = f.payments().ReversePayment(ctx, usecase.ReversePaymentInput{
		TenantID: tenantA, PaymentID: res.Payment.ID, Reason: "bounced",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestRecordPaymentValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	uc := f.payments()

	_, err := uc.RecordPayment(ctx, usecase.RecordPaymentInput{TenantID: tenantA, PayableID: "p", BankID: bankA, Amount: dec("0")})
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)

	_, err = uc.RecordPayment(ctx, usecase.RecordPaymentInput{TenantID: tenantA, PayableID: "p", BankID: bankB, Amount: dec("1")})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = uc.RecordPayment(ctx, usecase.RecordPaymentInput{TenantID: tenantA, PayableID: "missing", BankID: bankA, Amount: dec("1")})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
