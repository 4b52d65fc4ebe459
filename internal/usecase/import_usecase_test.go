package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/iho/goreconcile/internal/domain"
	"github.com/iho/goreconcile/internal/usecase"
	"github.com/iho/goreconcile/internal/usecase/mocks"
)

func statementLines() []domain.StatementLine {
	return []domain.StatementLine{
		{ExternalID: "L1", Amount: dec("150.00"), Type: domain.TransactionTypeCredit, Date: day(2), Description: "client"},
		{ExternalID: "L2", Amount: dec("-40.00"), Type: domain.TransactionTypeDebit, Date: day(3), Description: "fee"},
	}
}

func invoiceData(gross string) *domain.InvoiceData {
	return &domain.InvoiceData{
		InvoiceNumber: "NF-77",
		IssueDate:     day(1),
		GrossValue:    dec(gross),
	}
}

func TestImportStatementIsIdempotent(t *testing.T) {
	ctrl := gomock.NewController(t)
	f := newFixture(t)
	ctx := context.Background()

	parser := mocks.NewMockStatementParser(ctrl)
	// The duplicate is rejected before parsing.
	parser.EXPECT().Parse(gomock.Any()).Return(statementLines(), nil).Times(2)

	uc := usecase.NewImportUseCase(f.txm, f.ledger, parser, nil, f.ids, f.opts...)
	content := []byte("date,description,amount,external_id\n")

	first, err := uc.ImportStatement(ctx, usecase.ImportStatementInput{TenantID: tenantA, BankID: bankA, FileName: "march.csv", Content: content})
	require.NoError(t, err)
	assert.Equal(t, 2, first.Batch.TransactionCount)
	assert.Equal(t, domain.FileHash(content), first.Batch.FileHash)
	require.Len(t, first.Transactions, 2)
	decEqual(t, "40.00", first.Transactions[1].Amount, "debit amounts are stored positive")
	assert.Equal(t, domain.TransactionStatusPending, first.Transactions[0].Status)

	_, err = uc.ImportStatement(ctx, usecase.ImportStatementInput{TenantID: tenantA, BankID: bankA, FileName: "again.csv", Content: content})
	var dup *domain.DuplicateImportError
	require.True(t, errors.As(err, &dup))
	assert.True(t, dup.SameTenant)
	assert.Equal(t, first.Batch.ID, dup.ExistingID)
	assert.Equal(t, domain.ImportKindStatement, dup.Kind)

	stored, err := f.ledger.Statements.ListTransactionsByBatch(ctx, tenantA, first.Batch.ID)
	require.NoError(t, err)
	assert.Len(t, stored, 2)

	// The same file into another bank is a different statement.
	_, err = uc.ImportStatement(ctx, usecase.ImportStatementInput{TenantID: tenantA, BankID: bankA2, FileName: "march.csv", Content: content})
	require.NoError(t, err)

	events, err := f.ledger.Outbox.GetUnpublished(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, events, 2)
}

func TestImportStatementValidation(t *testing.T) {
	ctrl := gomock.NewController(t)
	f := newFixture(t)
	ctx := context.Background()

	parser := mocks.NewMockStatementParser(ctrl)
	uc := usecase.NewImportUseCase(f.txm, f.ledger, parser, nil, f.ids, f.opts...)

	_, err := uc.ImportStatement(ctx, usecase.ImportStatementInput{BankID: bankA, Content: []byte("x")})
	assert.ErrorIs(t, err, domain.ErrTenantRequired)

	_, err = uc.ImportStatement(ctx, usecase.ImportStatementInput{TenantID: tenantA, BankID: bankA})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = uc.ImportStatement(ctx, usecase.ImportStatementInput{TenantID: tenantA, BankID: bankB, Content: []byte("x")})
	assert.ErrorIs(t, err, domain.ErrNotFound, "bank of another tenant")

	parser.EXPECT().Parse([]byte("bad")).Return(nil, errors.New("line 2: invalid amount"))
	_, err = uc.ImportStatement(ctx, usecase.ImportStatementInput{TenantID: tenantA, BankID: bankA, Content: []byte("bad")})
	assert.ErrorIs(t, err, domain.ErrValidation)

	parser.EXPECT().Parse([]byte("empty")).Return(nil, nil)
	_, err = uc.ImportStatement(ctx, usecase.ImportStatementInput{TenantID: tenantA, BankID: bankA, Content: []byte("empty")})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestImportInvoiceDedup(t *testing.T) {
	ctrl := gomock.NewController(t)
	f := newFixture(t)
	ctx := context.Background()

	parser := mocks.NewMockInvoiceParser(ctrl)
	uc := usecase.NewImportUseCase(f.txm, f.ledger, nil, parser, f.ids, f.opts...)
	content := []byte("invoice: 77")

	parser.EXPECT().Parse(content).Return(invoiceData("1000.00"), nil)
	res, err := uc.ImportInvoice(ctx, usecase.ImportInvoiceInput{TenantID: tenantA, FileName: "77.yaml", Content: content})
	require.NoError(t, err)
	assert.Equal(t, usecase.ImportOutcomeSuccess, res.Outcome)
	assert.Equal(t, domain.InvoiceStatusPending, res.Invoice.Status)
	decEqual(t, "1000.00", res.Invoice.NetValue, "net value")
	invoiceID := res.Invoice.ID

	t.Run("same tenant without update mode", func(t *testing.T) {
		_, err := uc.ImportInvoice(ctx, usecase.ImportInvoiceInput{TenantID: tenantA, Content: content})
		var dup *domain.DuplicateImportError
		require.True(t, errors.As(err, &dup))
		assert.True(t, dup.SameTenant)
		assert.Equal(t, invoiceID, dup.ExistingID)
		assert.Contains(t, err.Error(), "already imported here")
	})

	t.Run("other tenant", func(t *testing.T) {
		_, err := uc.ImportInvoice(ctx, usecase.ImportInvoiceInput{TenantID: tenantB, Content: content, UpdateMode: true})
		var dup *domain.DuplicateImportError
		require.True(t, errors.As(err, &dup))
		assert.False(t, dup.SameTenant)
		assert.Empty(t, dup.ExistingID)
		assert.Contains(t, err.Error(), "imported elsewhere")
	})

	t.Run("same tenant with update mode", func(t *testing.T) {
		updated := invoiceData("1200.00")
		updated.TotalDeductions = dec("100.00")
		parser.EXPECT().Parse(content).Return(updated, nil)

		res, err := uc.ImportInvoice(ctx, usecase.ImportInvoiceInput{TenantID: tenantA, Content: content, UpdateMode: true})
		require.NoError(t, err)
		assert.Equal(t, usecase.ImportOutcomeUpdated, res.Outcome)
		assert.Equal(t, invoiceID, res.Invoice.ID)

		stored := f.invoice(t, invoiceID)
		decEqual(t, "1200.00", stored.GrossValue, "gross")
		decEqual(t, "1100.00", stored.NetValue, "net")
	})
}

func TestImportInvoiceNetValueRules(t *testing.T) {
	ctrl := gomock.NewController(t)
	f := newFixture(t)
	ctx := context.Background()

	parser := mocks.NewMockInvoiceParser(ctrl)
	uc := usecase.NewImportUseCase(f.txm, f.ledger, nil, parser, f.ids, f.opts...)

	fromSource := dec("870.00")
	zero := dec("0")
	tests := []struct {
		name string
		data *domain.InvoiceData
		want string
	}{
		{
			name: "source net wins",
			data: &domain.InvoiceData{GrossValue: dec("1000.00"), TotalDeductions: dec("50.00"), NetValueFromSource: &fromSource},
			want: "870.00",
		},
		{
			name: "zero source net is ignored",
			data: &domain.InvoiceData{GrossValue: dec("1000.00"), TotalDeductions: dec("50.00"), NetValueFromSource: &zero},
			want: "950.00",
		},
		{
			name: "retained iss is deducted",
			data: &domain.InvoiceData{
				GrossValue:      dec("1000.00"),
				TotalDeductions: dec("50.00"),
				Taxes:           domain.Taxes{ISS: dec("20.00"), ISSRetained: true},
			},
			want: "930.00",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			content := []byte(tt.name)
			parser.EXPECT().Parse(content).Return(tt.data, nil)

			res, err := uc.ImportInvoice(ctx, usecase.ImportInvoiceInput{TenantID: tenantA, Content: content})
			require.NoError(t, err)
			decEqual(t, tt.want, res.Invoice.NetValue, "net value")
		})
	}
}

func TestImportInvoicesBulk(t *testing.T) {
	ctrl := gomock.NewController(t)
	f := newFixture(t)
	ctx := context.Background()

	parser := mocks.NewMockInvoiceParser(ctrl)
	uc := usecase.NewImportUseCase(f.txm, f.ledger, nil, parser, f.ids, f.opts...)

	parser.EXPECT().Parse([]byte("a")).Return(invoiceData("100.00"), nil)
	parser.EXPECT().Parse([]byte("broken")).Return(nil, errors.New("missing gross value"))
	parser.EXPECT().Parse([]byte("b")).Return(invoiceData("200.00"), nil)

	res, err := uc.ImportInvoices(ctx, usecase.BulkImportInput{
		TenantID: tenantA,
		Files: []usecase.BulkImportFile{
			{FileName: "a.yaml", Content: []byte("a")},
			{FileName: "broken.yaml", Content: []byte("broken")},
			{FileName: "a-copy.yaml", Content: []byte("a")},
			{FileName: "b.yaml", Content: []byte("b")},
		},
	})
	require.NoError(t, err)
	require.Len(t, res.Items, 4)

	assert.Equal(t, usecase.ImportOutcomeSuccess, res.Items[0].Outcome)
	assert.NotEmpty(t, res.Items[0].InvoiceID)
	assert.Equal(t, usecase.ImportOutcomeError, res.Items[1].Outcome)
	assert.ErrorIs(t, res.Items[1].Err, domain.ErrValidation)
	assert.Equal(t, usecase.ImportOutcomeDuplicate, res.Items[2].Outcome)
	assert.Equal(t, res.Items[0].InvoiceID, res.Items[2].InvoiceID)
	assert.Equal(t, usecase.ImportOutcomeSuccess, res.Items[3].Outcome)

	assert.Equal(t, 2, res.Succeeded)
	assert.Equal(t, 1, res.Duplicates)
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, 0, res.Updated)

	_, err = uc.ImportInvoices(ctx, usecase.BulkImportInput{TenantID: tenantA})
	assert.ErrorIs(t, err, domain.ErrValidation)
}
