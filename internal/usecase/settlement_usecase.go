package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/iho/goreconcile/internal/domain"
)

// SettlementUseCase previews how a credit would settle open invoices.
type SettlementUseCase struct {
	options
	ledger Ledger
}

// NewSettlementUseCase creates a new SettlementUseCase.
func NewSettlementUseCase(ledger Ledger, opts ...Option) *SettlementUseCase {
	return &SettlementUseCase{
		options: newOptions(opts),
		ledger:  ledger,
	}
}

// InvoiceSelection names the invoices a credit is matched to, either
// directly or through one of their allocations.
type InvoiceSelection struct {
	InvoiceIDs    []string
	AllocationIDs []string
}

func (s InvoiceSelection) empty() bool {
	return len(s.InvoiceIDs) == 0 && len(s.AllocationIDs) == 0
}

// PreviewInput holds input for a settlement preview.
type PreviewInput struct {
	TenantID      string
	TransactionID string
	Selection     InvoiceSelection
	Reason        string
}

// PreviewResult is the plan a commit would apply.
type PreviewResult struct {
	Plan *domain.SettlementPlan
	// ReasonRequired is set when the plan needs an adjustment and no reason was given.
	ReasonRequired bool
}

// previewReason stands in for a missing reason so the plan can be computed.
const previewReason = "preview"

// Preview builds the settlement plan from current balances without
// committing anything.
func (uc *SettlementUseCase) Preview(ctx context.Context, input PreviewInput) (result *PreviewResult, err error) {
	start := time.Now()
	defer func() { uc.observe("settlement_preview", start, err) }()

	if err := domain.ValidateTenantID(input.TenantID); err != nil {
		return nil, err
	}
	if err := domain.ValidateID("transaction_id", input.TransactionID); err != nil {
		return nil, err
	}

	tx, err := uc.ledger.Statements.GetTransaction(ctx, input.TenantID, input.TransactionID)
	if err != nil {
		return nil, err
	}
	if !tx.IsCredit() {
		return nil, domain.NewValidationError("transaction_id", "only credits settle invoices", nil)
	}
	if tx.Status != domain.TransactionStatusPending {
		return nil, &domain.StaleStateError{
			Entity: domain.EntityTransaction,
			ID:     tx.ID,
			Reason: "status is " + string(tx.Status),
		}
	}

	open, _, err := selectOpenInvoices(ctx, uc.ledger, nil, input.TenantID, input.Selection,
		func(ids []string) ([]*domain.Invoice, error) {
			invoices := make([]*domain.Invoice, 0, len(ids))
			for _, id := range ids {
				inv, err := uc.ledger.Invoices.GetByID(ctx, input.TenantID, id)
				if err != nil {
					return nil, err
				}
				invoices = append(invoices, inv)
			}
			return invoices, nil
		})
	if err != nil {
		return nil, err
	}

	reason := input.Reason
	blank := strings.TrimSpace(reason) == ""
	if blank {
		reason = previewReason
	}

	plan, err := domain.PlanSettlement(tx.Amount, open, reason)
	if err != nil {
		return nil, err
	}

	return &PreviewResult{
		Plan:           plan,
		ReasonRequired: plan.NeedsAdjustment && blank,
	}, nil
}

// selectOpenInvoices resolves a selection into deduplicated open invoices,
// keeping selection order. Allocation ids come first; the first allocation
// seen for an invoice wins.
func selectOpenInvoices(
	ctx context.Context,
	ledger Ledger,
	tx Transaction,
	tenantID string,
	selection InvoiceSelection,
	load func(ids []string) ([]*domain.Invoice, error),
) ([]domain.OpenInvoice, map[string]*domain.Invoice, error) {
	if selection.empty() {
		return nil, nil, domain.NewValidationError("invoices", "at least one invoice must be selected", nil)
	}

	type pick struct{ invoiceID, allocationID string }
	picks := make([]pick, 0, len(selection.AllocationIDs)+len(selection.InvoiceIDs))

	if len(selection.AllocationIDs) > 0 {
		allocs, err := ledger.Allocations.GetByIDs(ctx, tx, tenantID, selection.AllocationIDs)
		if err != nil {
			return nil, nil, err
		}
		for _, a := range allocs {
			picks = append(picks, pick{invoiceID: a.InvoiceID, allocationID: a.ID})
		}
	}
	for _, id := range selection.InvoiceIDs {
		if err := domain.ValidateID("invoice_ids", id); err != nil {
			return nil, nil, err
		}
		picks = append(picks, pick{invoiceID: id})
	}

	seen := make(map[string]struct{}, len(picks))
	ids := make([]string, 0, len(picks))
	for _, p := range picks {
		if _, ok := seen[p.invoiceID]; ok {
			continue
		}
		seen[p.invoiceID] = struct{}{}
		ids = append(ids, p.invoiceID)
	}

	invoices, err := load(ids)
	if err != nil {
		return nil, nil, err
	}
	byID := make(map[string]*domain.Invoice, len(invoices))
	for _, inv := range invoices {
		byID[inv.ID] = inv
	}

	open := make([]domain.OpenInvoice, 0, len(picks))
	for _, p := range picks {
		inv, ok := byID[p.invoiceID]
		if !ok {
			return nil, nil, domain.NewNotFoundError(domain.EntityInvoice, p.invoiceID)
		}
		open = append(open, domain.OpenInvoiceFrom(inv, p.allocationID))
	}

	return domain.DedupeOpenInvoices(open), byID, nil
}
