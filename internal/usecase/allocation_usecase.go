package usecase

import (
	"context"
	"time"

	"github.com/iho/goreconcile/internal/domain"
)

// AllocationUseCase splits invoice value across payees.
type AllocationUseCase struct {
	options
	txManager TransactionManager
	ledger    Ledger
	payees    PayeeDirectory
	idGen     IDGenerator
}

// NewAllocationUseCase creates a new AllocationUseCase.
func NewAllocationUseCase(
	txManager TransactionManager,
	ledger Ledger,
	payees PayeeDirectory,
	idGen IDGenerator,
	opts ...Option,
) *AllocationUseCase {
	return &AllocationUseCase{
		options:   newOptions(opts),
		txManager: txManager,
		ledger:    ledger,
		payees:    payees,
		idGen:     idGen,
	}
}

// AllocateInvoiceInput holds input for allocating an invoice.
type AllocateInvoiceInput struct {
	TenantID  string
	InvoiceID string
	Lines     []domain.AllocationLine
	ActorID   string
}

// AllocateInvoiceResult holds the stored allocations and their payables.
type AllocateInvoiceResult struct {
	Allocations []*domain.InvoiceAllocation
	Payables    []*domain.Payable
}

// AllocateInvoice replaces the invoice's allocations and payables.
func (uc *AllocationUseCase) AllocateInvoice(ctx context.Context, input AllocateInvoiceInput) (result *AllocateInvoiceResult, err error) {
	start := time.Now()
	defer func() { uc.observe("allocate_invoice", start, err) }()

	if err := domain.ValidateTenantID(input.TenantID); err != nil {
		return nil, err
	}
	if err := domain.ValidateID("invoice_id", input.InvoiceID); err != nil {
		return nil, err
	}

	if err := domain.ValidateAllocationLineShapes(input.Lines); err != nil {
		return nil, err
	}

	// Resolve payees before opening the transaction; the directory may be remote.
	payees := make(map[string]*domain.Payee, len(input.Lines))
	for _, line := range input.Lines {
		if _, ok := payees[line.PayeeID]; ok {
			continue
		}
		payee, err := uc.payees.Get(ctx, input.TenantID, line.PayeeID)
		if err != nil {
			return nil, err
		}
		payees[line.PayeeID] = payee
	}

	err = inTx(ctx, uc.txManager, uc.retrier, func(txCtx context.Context, tx Transaction) error {
		invoice, err := uc.ledger.Invoices.GetByIDForUpdate(txCtx, tx, input.TenantID, input.InvoiceID)
		if err != nil {
			return err
		}

		if err := domain.ValidateAllocationLines(invoice.GrossValue, input.Lines); err != nil {
			return err
		}

		active, err := uc.ledger.Payments.CountActiveByInvoice(txCtx, tx, input.TenantID, invoice.ID)
		if err != nil {
			return err
		}
		if active > 0 {
			return domain.NewValidationError("invoice_id",
				"invoice has payments; reverse them before re-allocating", domain.ErrPaymentsExist)
		}

		before, err := uc.ledger.Allocations.ListByInvoice(txCtx, input.TenantID, invoice.ID)
		if err != nil {
			return err
		}

		now := uc.now()
		allocations := make([]*domain.InvoiceAllocation, 0, len(input.Lines))
		payables := make([]*domain.Payable, 0, len(input.Lines))
		for _, line := range input.Lines {
			alloc := domain.NewInvoiceAllocation(uc.idGen.Generate(), invoice, line, payees[line.PayeeID], now)
			allocations = append(allocations, alloc)
			payables = append(payables, domain.NewPayable(uc.idGen.Generate(), alloc, invoice.ExpectedReceiptDate, now))
		}

		if err := uc.ledger.Allocations.ReplaceForInvoice(txCtx, tx, input.TenantID, invoice.ID, allocations, payables); err != nil {
			return err
		}

		lines := make([]map[string]any, 0, len(allocations))
		for _, a := range allocations {
			lines = append(lines, map[string]any{
				"allocation_id": a.ID,
				"payee_id":      a.PayeeID,
				"gross":         a.AllocatedGrossValue.StringFixed(domain.MoneyScale),
				"admin_fee":     a.AdminFee.StringFixed(domain.MoneyScale),
				"amount_to_pay": a.AmountToPay.StringFixed(domain.MoneyScale),
			})
		}

		if err := writeEvent(txCtx, uc.ledger, tx, domain.NewOutboxEvent(
			uc.idGen.Generate(), input.TenantID,
			domain.AggregateTypeInvoice, invoice.ID, domain.EventTypeInvoiceAllocated,
			map[string]any{"invoice_id": invoice.ID, "allocations": lines}, now)); err != nil {
			return err
		}

		if err := writeAudit(txCtx, uc.ledger, tx, &domain.AuditLog{
			ID:           uc.idGen.Generate(),
			TenantID:     input.TenantID,
			ActorID:      actorFrom(ctx, input.ActorID),
			Action:       domain.AuditActionInvoiceAllocate,
			ResourceType: domain.EntityInvoice,
			ResourceID:   invoice.ID,
			BeforeState:  domain.MarshalState(map[string]any{"allocations": before}),
			AfterState:   domain.MarshalState(map[string]any{"allocations": allocations}),
			CreatedAt:    now,
		}); err != nil {
			return err
		}

		result = &AllocateInvoiceResult{Allocations: allocations, Payables: payables}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.AllocationsCommitted.Inc()
	}

	uc.logger.Info().
		Str("tenant_id", input.TenantID).
		Str("invoice_id", input.InvoiceID).
		Int("allocations", len(result.Allocations)).
		Msg("invoice allocated")

	return result, nil
}

// ListAllocations returns the invoice's current allocations.
func (uc *AllocationUseCase) ListAllocations(ctx context.Context, tenantID, invoiceID string) ([]*domain.InvoiceAllocation, error) {
	if err := domain.ValidateTenantID(tenantID); err != nil {
		return nil, err
	}
	if _, err := uc.ledger.Invoices.GetByID(ctx, tenantID, invoiceID); err != nil {
		return nil, err
	}
	return uc.ledger.Allocations.ListByInvoice(ctx, tenantID, invoiceID)
}

// ListPayables returns the payables created for the invoice.
func (uc *AllocationUseCase) ListPayables(ctx context.Context, tenantID, invoiceID string) ([]*domain.Payable, error) {
	if err := domain.ValidateTenantID(tenantID); err != nil {
		return nil, err
	}
	if _, err := uc.ledger.Invoices.GetByID(ctx, tenantID, invoiceID); err != nil {
		return nil, err
	}
	return uc.ledger.Payables.ListByInvoice(ctx, tenantID, invoiceID)
}
