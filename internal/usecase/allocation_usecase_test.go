package usecase_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/iho/goreconcile/internal/domain"
	"github.com/iho/goreconcile/internal/usecase"
	"github.com/iho/goreconcile/internal/usecase/mocks"
)

func TestAllocateInvoiceComputesFees(t *testing.T) {
	ctrl := gomock.NewController(t)
	f := newFixture(t)
	ctx := context.Background()

	f.seedInvoice(t, tenantA, "inv-1", "1000.00", dayPtr(20))

	payees := mocks.NewMockPayeeDirectory(ctrl)
	payees.EXPECT().Get(gomock.Any(), tenantA, "p1").
		Return(&domain.Payee{ID: "p1", TenantID: tenantA, FeeRate: dec("10")}, nil)
	payees.EXPECT().Get(gomock.Any(), tenantA, "p2").
		Return(&domain.Payee{ID: "p2", TenantID: tenantA, FeeRate: dec("12.5")}, nil)

	uc := usecase.NewAllocationUseCase(f.txm, f.ledger, payees, f.ids, f.opts...)
	res, err := uc.AllocateInvoice(ctx, usecase.AllocateInvoiceInput{
		TenantID:  tenantA,
		InvoiceID: "inv-1",
		Lines: []domain.AllocationLine{
			{PayeeID: "p1", AllocatedGrossValue: dec("600.00")},
			{PayeeID: "p2", AllocatedGrossValue: dec("400.005")},
		},
	})
	require.NoError(t, err)
	require.Len(t, res.Allocations, 2)
	require.Len(t, res.Payables, 2)

	decEqual(t, "60.00", res.Allocations[0].AdminFee, "p1 fee")
	decEqual(t, "540.00", res.Allocations[0].AmountToPay, "p1 amount")
	decEqual(t, "50.00", res.Allocations[1].AdminFee, "p2 fee")
	decEqual(t, "350.01", res.Allocations[1].AmountToPay, "p2 amount")

	for i, p := range res.Payables {
		assert.Equal(t, domain.PayableStatusPending, p.Status)
		assert.Equal(t, res.Allocations[i].ID, p.AllocationID)
		assert.True(t, p.AmountToPay.Equal(res.Allocations[i].AmountToPay))
		require.NotNil(t, p.ExpectedPaymentDate)
		assert.Equal(t, day(20), *p.ExpectedPaymentDate)
	}

	stored, err := uc.ListAllocations(ctx, tenantA, "inv-1")
	require.NoError(t, err)
	assert.Len(t, stored, 2)

	logs, err := f.ledger.Audit.List(ctx, domain.AuditFilter{TenantID: tenantA, Action: domain.AuditActionInvoiceAllocate})
	require.NoError(t, err)
	assert.Len(t, logs, 1)
}

func TestAllocateInvoiceValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.seedInvoice(t, tenantA, "inv-1", "1000.00", nil)
	f.store.AddPayee(&domain.Payee{ID: "p1", TenantID: tenantA, FeeRate: dec("10")})
	f.store.AddPayee(&domain.Payee{ID: "other", TenantID: tenantB, FeeRate: dec("10")})
	uc := f.allocations()

	tests := []struct {
		name    string
		lines   []domain.AllocationLine
		wantErr error
	}{
		{name: "no lines", lines: nil, wantErr: domain.ErrValidation},
		{
			name:    "sum below gross",
			lines:   []domain.AllocationLine{{PayeeID: "p1", AllocatedGrossValue: dec("999.98")}},
			wantErr: domain.ErrAllocationMismatch,
		},
		{
			name:    "non positive line",
			lines:   []domain.AllocationLine{{PayeeID: "p1", AllocatedGrossValue: dec("1000.00")}, {PayeeID: "p1", AllocatedGrossValue: dec("0")}},
			wantErr: domain.ErrInvalidAmount,
		},
		{
			name:    "bad line reported before unknown payee",
			lines:   []domain.AllocationLine{{PayeeID: "ghost", AllocatedGrossValue: dec("-5.00")}},
			wantErr: domain.ErrInvalidAmount,
		},
		{
			name:    "missing payee reported before unknown payee",
			lines:   []domain.AllocationLine{{PayeeID: "ghost", AllocatedGrossValue: dec("500.00")}, {AllocatedGrossValue: dec("500.00")}},
			wantErr: domain.ErrValidation,
		},
		{
			name:    "payee of another tenant",
			lines:   []domain.AllocationLine{{PayeeID: "other", AllocatedGrossValue: dec("1000.00")}},
			wantErr: domain.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := uc.AllocateInvoice(ctx, usecase.AllocateInvoiceInput{TenantID: tenantA, InvoiceID: "inv-1", Lines: tt.lines})
			require.ErrorIs(t, err, tt.wantErr)

			stored, err := uc.ListAllocations(ctx, tenantA, "inv-1")
			require.NoError(t, err)
			assert.Empty(t, stored, "nothing persisted")
		})
	}

	_, err := uc.AllocateInvoice(ctx, usecase.AllocateInvoiceInput{
		TenantID:  tenantA,
		InvoiceID: "inv-1",
		Lines:     []domain.AllocationLine{{PayeeID: "p1", AllocatedGrossValue: dec("1000.01")}},
	})
	require.NoError(t, err, "a one cent difference is tolerated")
}

func TestAllocateInvoiceSkipsDirectoryForInvalidLines(t *testing.T) {
	ctrl := gomock.NewController(t)
	f := newFixture(t)

	f.seedInvoice(t, tenantA, "inv-1", "1000.00", nil)

	// No expectations: any directory call fails the test.
	payees := mocks.NewMockPayeeDirectory(ctrl)
	uc := usecase.NewAllocationUseCase(f.txm, f.ledger, payees, f.ids, f.opts...)

	_, err := uc.AllocateInvoice(context.Background(), usecase.AllocateInvoiceInput{
		TenantID:  tenantA,
		InvoiceID: "inv-1",
		Lines:     []domain.AllocationLine{{PayeeID: "p1", AllocatedGrossValue: dec("0")}},
	})

	var vErr *domain.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "lines[0].allocated_gross_value", vErr.Field)
}

func TestAllocateInvoiceReplacesAndBlocksAfterPayment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.seedInvoice(t, tenantA, "inv-1", "1000.00", nil)
	first := f.allocateSingle(t, "inv-1", "1000.00", "10")

	f.store.AddPayee(&domain.Payee{ID: "p2", TenantID: tenantA, FeeRate: dec("0")})
	uc := f.allocations()
	res, err := uc.AllocateInvoice(ctx, usecase.AllocateInvoiceInput{
		TenantID:  tenantA,
		InvoiceID: "inv-1",
		Lines: []domain.AllocationLine{
			{PayeeID: "payee-inv-1", AllocatedGrossValue: dec("500.00")},
			{PayeeID: "p2", AllocatedGrossValue: dec("500.00")},
		},
	})
	require.NoError(t, err)

	payables, err := uc.ListPayables(ctx, tenantA, "inv-1")
	require.NoError(t, err)
	require.Len(t, payables, 2)
	for _, p := range payables {
		assert.NotEqual(t, first.ID, p.ID, "old payables are replaced")
	}

	_, err = f.payments().RecordPayment(ctx, usecase.RecordPaymentInput{
		TenantID:  tenantA,
		PayableID: res.Payables[1].ID,
		BankID:    bankA,
		Amount:    dec("100.00"),
	})
	require.NoError(t, err)

	_, err = uc.AllocateInvoice(ctx, usecase.AllocateInvoiceInput{
		TenantID:  tenantA,
		InvoiceID: "inv-1",
		Lines:     []domain.AllocationLine{{PayeeID: "p2", AllocatedGrossValue: dec("1000.00")}},
	})
	require.ErrorIs(t, err, domain.ErrPaymentsExist)
	require.ErrorIs(t, err, domain.ErrValidation)

	stored, err := uc.ListAllocations(ctx, tenantA, "inv-1")
	require.NoError(t, err)
	assert.Len(t, stored, 2)
}

func TestListAllocationsUnknownInvoice(t *testing.T) {
	f := newFixture(t)

	_, err := f.allocations().ListAllocations(context.Background(), tenantA, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
