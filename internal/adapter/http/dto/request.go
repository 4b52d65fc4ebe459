package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/goreconcile/internal/domain"
	"github.com/iho/goreconcile/internal/usecase"
)

// AllocationLineRequest is one payee share of an invoice.
type AllocationLineRequest struct {
	PayeeID             string          `json:"payee_id"`
	AllocatedGrossValue decimal.Decimal `json:"allocated_gross_value"`
}

// AllocateInvoiceRequest represents a request to replace an invoice's allocations.
type AllocateInvoiceRequest struct {
	Lines []AllocationLineRequest `json:"lines"`
}

// ToUseCaseInput converts to use case input.
func (r *AllocateInvoiceRequest) ToUseCaseInput(tenantID, invoiceID, actorID string) usecase.AllocateInvoiceInput {
	lines := make([]domain.AllocationLine, len(r.Lines))
	for i, l := range r.Lines {
		lines[i] = domain.AllocationLine{PayeeID: l.PayeeID, AllocatedGrossValue: l.AllocatedGrossValue}
	}
	return usecase.AllocateInvoiceInput{
		TenantID:  tenantID,
		InvoiceID: invoiceID,
		Lines:     lines,
		ActorID:   actorID,
	}
}

// InvoiceSelectionRequest selects invoices, directly or through allocations.
type InvoiceSelectionRequest struct {
	InvoiceIDs    []string `json:"invoice_ids,omitempty"`
	AllocationIDs []string `json:"allocation_ids,omitempty"`
}

func (s InvoiceSelectionRequest) toUseCase() usecase.InvoiceSelection {
	return usecase.InvoiceSelection{InvoiceIDs: s.InvoiceIDs, AllocationIDs: s.AllocationIDs}
}

// SettlementPreviewRequest represents a request to preview a credit settlement.
type SettlementPreviewRequest struct {
	InvoiceSelectionRequest
	Reason string `json:"reason,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *SettlementPreviewRequest) ToUseCaseInput(tenantID, transactionID string) usecase.PreviewInput {
	return usecase.PreviewInput{
		TenantID:      tenantID,
		TransactionID: transactionID,
		Selection:     r.InvoiceSelectionRequest.toUseCase(),
		Reason:        r.Reason,
	}
}

// AcceptRequest represents a request to accept a match for a transaction.
type AcceptRequest struct {
	Kind      string `json:"kind"`
	ExpenseID string `json:"expense_id,omitempty"`
	PayableID string `json:"payable_id,omitempty"`
	InvoiceSelectionRequest
	Reason               string           `json:"reason,omitempty"`
	Notes                string           `json:"notes,omitempty"`
	ExpectedPendingTotal *decimal.Decimal `json:"expected_pending_total,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *AcceptRequest) ToUseCaseInput(tenantID, transactionID, actorID string) usecase.AcceptInput {
	return usecase.AcceptInput{
		TenantID:      tenantID,
		TransactionID: transactionID,
		Target: usecase.AcceptTarget{
			Kind:      usecase.TargetKind(r.Kind),
			ExpenseID: r.ExpenseID,
			PayableID: r.PayableID,
			Invoices:  r.InvoiceSelectionRequest.toUseCase(),
		},
		Reason:               r.Reason,
		Notes:                r.Notes,
		ExpectedPendingTotal: r.ExpectedPendingTotal,
		ActorID:              actorID,
	}
}

// CreateFromTransactionRequest represents a request to book a transaction
// as a new expense or revenue.
type CreateFromTransactionRequest struct {
	Description string `json:"description,omitempty"`
	Category    string `json:"category,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateFromTransactionRequest) ToUseCaseInput(tenantID, transactionID, actorID string) usecase.CreateInput {
	return usecase.CreateInput{
		TenantID:      tenantID,
		TransactionID: transactionID,
		Description:   r.Description,
		Category:      r.Category,
		ActorID:       actorID,
	}
}

// ReverseRequest carries the mandatory reversal reason.
type ReverseRequest struct {
	Reason string `json:"reason"`
}

// RecordPaymentRequest represents a request to pay a payable.
type RecordPaymentRequest struct {
	BankID      string          `json:"bank_id"`
	Amount      decimal.Decimal `json:"amount"`
	PaymentDate string          `json:"payment_date,omitempty"`
}

// ToUseCaseInput converts to use case input. An empty payment date means today.
func (r *RecordPaymentRequest) ToUseCaseInput(tenantID, payableID, actorID string) (usecase.RecordPaymentInput, error) {
	input := usecase.RecordPaymentInput{
		TenantID:  tenantID,
		PayableID: payableID,
		BankID:    r.BankID,
		Amount:    r.Amount,
		ActorID:   actorID,
	}
	if r.PaymentDate != "" {
		d, err := time.Parse(time.DateOnly, r.PaymentDate)
		if err != nil {
			return input, domain.NewValidationError("payment_date", "expected YYYY-MM-DD", err)
		}
		input.PaymentDate = d
	}
	return input, nil
}
