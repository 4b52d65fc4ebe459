package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/goreconcile/internal/domain"
)

// TargetKind names what a transaction is accepted against.
type TargetKind string

const (
	TargetExpense  TargetKind = "expense"
	TargetPayable  TargetKind = "payable"
	TargetInvoices TargetKind = "invoices"
)

// AcceptTarget is the ledger item a user accepted for a transaction.
type AcceptTarget struct {
	Kind      TargetKind
	ExpenseID string
	PayableID string
	Invoices  InvoiceSelection
}

// AcceptInput holds input for accepting a match.
type AcceptInput struct {
	TenantID      string
	TransactionID string
	Target        AcceptTarget
	Reason        string
	Notes         string
	// ExpectedPendingTotal is the selected total the caller saw. A credit
	// commit fails as stale when the fresh total differs.
	ExpectedPendingTotal *decimal.Decimal
	ActorID              string
}

// CreateInput holds input for creating a ledger row from a transaction.
type CreateInput struct {
	TenantID      string
	TransactionID string
	Description   string
	Category      string
	ActorID       string
}

// IgnoreInput holds input for ignoring a transaction.
type IgnoreInput struct {
	TenantID      string
	TransactionID string
	ActorID       string
}

// ReverseInput holds input for reversing a committed transaction.
type ReverseInput struct {
	TenantID      string
	TransactionID string
	Reason        string
	ActorID       string
}

// CommitResult describes what a commit wrote.
type CommitResult struct {
	Transaction *domain.ImportedTransaction
	Adjustment  *domain.Adjustment
	Expense     *domain.Expense
	Revenue     *domain.Revenue
	Payment     *domain.Payment
	Receipts    []*domain.InvoiceReceipt
}

// ReconciliationUseCase commits decisions about imported transactions.
type ReconciliationUseCase struct {
	options
	txManager TransactionManager
	ledger    Ledger
	idGen     IDGenerator
}

// NewReconciliationUseCase creates a new ReconciliationUseCase.
func NewReconciliationUseCase(
	txManager TransactionManager,
	ledger Ledger,
	idGen IDGenerator,
	opts ...Option,
) *ReconciliationUseCase {
	return &ReconciliationUseCase{
		options:   newOptions(opts),
		txManager: txManager,
		ledger:    ledger,
		idGen:     idGen,
	}
}

// Accept links a pending transaction to an existing ledger item.
func (uc *ReconciliationUseCase) Accept(ctx context.Context, input AcceptInput) (result *CommitResult, err error) {
	start := time.Now()
	defer func() { uc.observe("accept", start, err) }()

	if err := validateTransactionRef(input.TenantID, input.TransactionID); err != nil {
		return nil, err
	}
	if err := domain.ValidateReason(input.Reason); err != nil {
		return nil, err
	}

	actor := actorFrom(ctx, input.ActorID)

	err = inTx(ctx, uc.txManager, uc.retrier, func(txCtx context.Context, tx Transaction) error {
		result = &CommitResult{}

		t, err := uc.lockPending(txCtx, tx, input.TenantID, input.TransactionID)
		if err != nil {
			return err
		}
		before := domain.MarshalState(t)

		now := uc.now()
		var (
			link   domain.LinkType
			linkID string
		)

		switch input.Target.Kind {
		case TargetExpense:
			if t.IsCredit() {
				return domain.NewValidationError("target", "a credit cannot be accepted against an expense", nil)
			}
			link, linkID = domain.LinkTypeExpense, input.Target.ExpenseID
			err = uc.acceptExpense(txCtx, tx, t, input, actor, now, result)
		case TargetPayable:
			if t.IsCredit() {
				return domain.NewValidationError("target", "a credit cannot be accepted against a payable", nil)
			}
			link, linkID = domain.LinkTypePayable, input.Target.PayableID
			err = uc.acceptPayable(txCtx, tx, t, input, actor, now, result)
		case TargetInvoices:
			if !t.IsCredit() {
				return domain.NewValidationError("target", "a debit cannot be accepted against invoices", nil)
			}
			link = domain.LinkTypeInvoice
			linkID, err = uc.acceptInvoices(txCtx, tx, t, input, actor, now, result)
		default:
			return domain.NewValidationError("target.kind", "must be expense, payable or invoices", nil)
		}
		if err != nil {
			return err
		}

		if err := t.Commit(domain.TransactionStatusReconciled, link, linkID, now); err != nil {
			return err
		}
		if err := uc.ledger.Statements.UpdateTransaction(txCtx, tx, t); err != nil {
			return err
		}
		result.Transaction = t

		if result.Adjustment != nil {
			if err := uc.storeAdjustment(txCtx, tx, result.Adjustment); err != nil {
				return err
			}
		}

		if err := uc.transactionEvent(txCtx, tx, t, domain.EventTypeTransactionReconciled, now, nil); err != nil {
			return err
		}

		return writeAudit(txCtx, uc.ledger, tx, &domain.AuditLog{
			ID:           uc.idGen.Generate(),
			TenantID:     input.TenantID,
			ActorID:      actor,
			Action:       domain.AuditActionTransactionAccept,
			ResourceType: domain.EntityTransaction,
			ResourceID:   t.ID,
			Reason:       input.Reason,
			BeforeState:  before,
			AfterState:   domain.MarshalState(t),
			CreatedAt:    now,
		})
	})
	if err != nil {
		uc.logger.Warn().Err(err).
			Str("tenant_id", input.TenantID).
			Str("transaction_id", input.TransactionID).
			Str("target", string(input.Target.Kind)).
			Msg("accept failed")
		return nil, err
	}

	uc.committed(string(input.Target.Kind), result)
	return result, nil
}

func (uc *ReconciliationUseCase) acceptExpense(ctx context.Context, tx Transaction, t *domain.ImportedTransaction, input AcceptInput, actor string, now time.Time, result *CommitResult) error {
	if err := domain.ValidateID("target.expense_id", input.Target.ExpenseID); err != nil {
		return err
	}

	expense, err := uc.ledger.Expenses.GetByIDForUpdate(ctx, tx, input.TenantID, input.Target.ExpenseID)
	if err != nil {
		return err
	}
	if expense.Status != domain.ExpenseStatusPending {
		return &domain.StaleStateError{Entity: domain.EntityExpense, ID: expense.ID, Reason: "expense is already paid"}
	}

	expected := expense.Amount
	difference := t.Amount.Sub(expected)
	needsAdjustment, err := domain.ToleranceCheck(difference, input.Reason)
	if err != nil {
		return err
	}

	expense.MarkPaid(t, now)
	if err := uc.ledger.Expenses.Update(ctx, tx, expense); err != nil {
		return err
	}
	result.Expense = expense

	if needsAdjustment {
		adj := uc.newAdjustment(t, domain.AdjustmentTypePayment, expected, input.Reason, input.Notes, actor, now)
		adj.ExpenseID = expense.ID
		result.Adjustment = adj
	}
	return nil
}

func (uc *ReconciliationUseCase) acceptPayable(ctx context.Context, tx Transaction, t *domain.ImportedTransaction, input AcceptInput, actor string, now time.Time, result *CommitResult) error {
	if err := domain.ValidateID("target.payable_id", input.Target.PayableID); err != nil {
		return err
	}

	payable, err := uc.ledger.Payables.GetByIDForUpdate(ctx, tx, input.TenantID, input.Target.PayableID)
	if err != nil {
		return err
	}
	pending := payable.PendingBalance()
	if payable.Status == domain.PayableStatusCancelled || pending.LessThan(domain.Epsilon) {
		return &domain.StaleStateError{Entity: domain.EntityPayable, ID: payable.ID, Reason: "payable has no pending balance"}
	}

	difference := t.Amount.Sub(pending)
	needsAdjustment, err := domain.ToleranceCheck(difference, input.Reason)
	if err != nil {
		return err
	}

	payment := &domain.Payment{
		ID:               uc.idGen.Generate(),
		TenantID:         input.TenantID,
		PayableID:        payable.ID,
		BankID:           t.BankID,
		Amount:           t.Amount,
		AdjustmentAmount: decimal.Zero,
		PaymentDate:      t.TransactionDate,
		TransactionID:    t.ID,
		CreatedAt:        now,
	}
	if needsAdjustment {
		payment.AdjustmentAmount = domain.RoundMoney(difference)
	}
	if err := uc.ledger.Payments.Create(ctx, tx, payment); err != nil {
		return err
	}

	if err := recomputePayable(ctx, uc.ledger, tx, payable, &payment.PaymentDate, now); err != nil {
		return err
	}
	result.Payment = payment

	if needsAdjustment {
		adj := uc.newAdjustment(t, domain.AdjustmentTypePayment, pending, input.Reason, input.Notes, actor, now)
		adj.PayableID = payable.ID
		result.Adjustment = adj
	}
	return nil
}

func (uc *ReconciliationUseCase) acceptInvoices(ctx context.Context, tx Transaction, t *domain.ImportedTransaction, input AcceptInput, actor string, now time.Time, result *CommitResult) (string, error) {
	open, invoices, err := selectOpenInvoices(ctx, uc.ledger, tx, input.TenantID, input.Target.Invoices,
		func(ids []string) ([]*domain.Invoice, error) {
			return uc.ledger.Invoices.GetByIDsForUpdate(ctx, tx, input.TenantID, ids)
		})
	if err != nil {
		return "", err
	}

	if input.ExpectedPendingTotal != nil {
		fresh := decimal.Zero
		for _, o := range open {
			fresh = fresh.Add(o.PendingBalance)
		}
		if !domain.NearlyEqual(fresh, *input.ExpectedPendingTotal) {
			return "", &domain.StaleStateError{
				Entity: domain.EntityInvoice,
				ID:     open[0].InvoiceID,
				Reason: "pending total changed from " + input.ExpectedPendingTotal.StringFixed(domain.MoneyScale) +
					" to " + fresh.StringFixed(domain.MoneyScale),
			}
		}
	}

	plan, err := domain.PlanSettlement(t.Amount, open, input.Reason)
	if err != nil {
		return "", err
	}

	for _, share := range plan.Shares {
		inv := invoices[share.InvoiceID]
		inv.Credit(share.Credited, now)
		if err := uc.ledger.Invoices.UpdateReceived(ctx, tx, inv); err != nil {
			return "", err
		}

		receipt := &domain.InvoiceReceipt{
			ID:               uc.idGen.Generate(),
			TenantID:         input.TenantID,
			InvoiceID:        inv.ID,
			BankID:           t.BankID,
			Amount:           share.Cash,
			AdjustmentAmount: share.Adjustment,
			ReceiptDate:      t.TransactionDate,
			TransactionID:    t.ID,
			CreatedAt:        now,
		}
		if err := uc.ledger.Receipts.Create(ctx, tx, receipt); err != nil {
			return "", err
		}
		result.Receipts = append(result.Receipts, receipt)
	}

	if plan.NeedsAdjustment {
		adj := uc.newAdjustment(t, domain.AdjustmentTypeReceipt, plan.TotalSelected, input.Reason, input.Notes, actor, now)
		if len(plan.Shares) == 1 {
			adj.InvoiceID = plan.Shares[0].InvoiceID
		}
		result.Adjustment = adj
	}

	return plan.Shares[0].InvoiceID, nil
}

// Create books a new expense or revenue for a pending transaction.
func (uc *ReconciliationUseCase) Create(ctx context.Context, input CreateInput) (result *CommitResult, err error) {
	start := time.Now()
	defer func() { uc.observe("create", start, err) }()

	if err := validateTransactionRef(input.TenantID, input.TransactionID); err != nil {
		return nil, err
	}
	if len(input.Description) > domain.MaxDescriptionLength {
		return nil, domain.NewValidationError("description", "too long", nil)
	}

	actor := actorFrom(ctx, input.ActorID)

	err = inTx(ctx, uc.txManager, uc.retrier, func(txCtx context.Context, tx Transaction) error {
		result = &CommitResult{}

		t, err := uc.lockPending(txCtx, tx, input.TenantID, input.TransactionID)
		if err != nil {
			return err
		}

		now := uc.now()
		date := t.TransactionDate
		description := input.Description
		if description == "" {
			description = t.Description
		}

		var (
			link   domain.LinkType
			linkID string
		)
		if t.IsCredit() {
			revenue := &domain.Revenue{
				ID:                uc.idGen.Generate(),
				TenantID:          t.TenantID,
				BankID:            t.BankID,
				Description:       description,
				Category:          input.Category,
				Amount:            t.Amount,
				Status:            domain.RevenueStatusReceived,
				Source:            domain.RevenueSourceStatement,
				ReceivedAt:        &date,
				ExternalID:        t.ExternalID,
				StatementImportID: t.ImportBatchID,
				TransactionID:     t.ID,
				CreatedAt:         now,
			}
			if err := uc.ledger.Revenues.Create(txCtx, tx, revenue); err != nil {
				return err
			}
			result.Revenue = revenue
			link, linkID = domain.LinkTypeRevenue, revenue.ID
		} else {
			expense := &domain.Expense{
				ID:                uc.idGen.Generate(),
				TenantID:          t.TenantID,
				BankID:            t.BankID,
				Description:       description,
				Category:          input.Category,
				Amount:            t.Amount,
				PaidAmount:        t.Amount,
				Status:            domain.ExpenseStatusPaid,
				DueDate:           &date,
				PaidAt:            &date,
				ExternalID:        t.ExternalID,
				StatementImportID: t.ImportBatchID,
				TransactionID:     t.ID,
				CreatedAt:         now,
				UpdatedAt:         now,
			}
			if err := uc.ledger.Expenses.Create(txCtx, tx, expense); err != nil {
				return err
			}
			result.Expense = expense
			link, linkID = domain.LinkTypeExpense, expense.ID
		}

		if err := t.Commit(domain.TransactionStatusCreated, link, linkID, now); err != nil {
			return err
		}
		if err := uc.ledger.Statements.UpdateTransaction(txCtx, tx, t); err != nil {
			return err
		}
		result.Transaction = t

		return uc.transactionEvent(txCtx, tx, t, domain.EventTypeTransactionCreated, now, map[string]any{"actor_id": actor})
	})
	if err != nil {
		return nil, err
	}

	uc.committed("create", result)
	return result, nil
}

// Ignore marks a pending transaction as ignored. Ignored is final.
func (uc *ReconciliationUseCase) Ignore(ctx context.Context, input IgnoreInput) (result *CommitResult, err error) {
	start := time.Now()
	defer func() { uc.observe("ignore", start, err) }()

	if err := validateTransactionRef(input.TenantID, input.TransactionID); err != nil {
		return nil, err
	}

	actor := actorFrom(ctx, input.ActorID)

	err = inTx(ctx, uc.txManager, uc.retrier, func(txCtx context.Context, tx Transaction) error {
		t, err := uc.lockPending(txCtx, tx, input.TenantID, input.TransactionID)
		if err != nil {
			return err
		}

		now := uc.now()
		if err := t.Commit(domain.TransactionStatusIgnored, domain.LinkTypeNone, "", now); err != nil {
			return err
		}
		if err := uc.ledger.Statements.UpdateTransaction(txCtx, tx, t); err != nil {
			return err
		}

		result = &CommitResult{Transaction: t}
		return uc.transactionEvent(txCtx, tx, t, domain.EventTypeTransactionIgnored, now, map[string]any{"actor_id": actor})
	})
	if err != nil {
		return nil, err
	}

	uc.committed("ignore", result)
	return result, nil
}

// Reverse undoes a reconciled or created transaction and returns it to
// pending. Adjustments are kept.
func (uc *ReconciliationUseCase) Reverse(ctx context.Context, input ReverseInput) (result *CommitResult, err error) {
	start := time.Now()
	defer func() { uc.observe("reverse", start, err) }()

	if err := validateTransactionRef(input.TenantID, input.TransactionID); err != nil {
		return nil, err
	}
	if err := domain.ValidateReason(input.Reason); err != nil {
		return nil, err
	}

	actor := actorFrom(ctx, input.ActorID)
	var link domain.LinkType

	err = inTx(ctx, uc.txManager, uc.retrier, func(txCtx context.Context, tx Transaction) error {
		t, err := uc.ledger.Statements.GetTransactionForUpdate(txCtx, tx, input.TenantID, input.TransactionID)
		if err != nil {
			return err
		}
		before := domain.MarshalState(t)

		status, linkID := t.Status, t.LinkID
		link = t.LinkType

		now := uc.now()
		if err := t.Reopen(input.Reason, now); err != nil {
			return err
		}

		switch {
		case status == domain.TransactionStatusCreated && link == domain.LinkTypeExpense:
			err = uc.ledger.Expenses.Delete(txCtx, tx, input.TenantID, linkID)
		case status == domain.TransactionStatusCreated && link == domain.LinkTypeRevenue:
			err = uc.ledger.Revenues.Delete(txCtx, tx, input.TenantID, linkID)
		case link == domain.LinkTypeExpense:
			err = uc.unlinkExpense(txCtx, tx, input.TenantID, linkID, now)
		case link == domain.LinkTypePayable:
			err = uc.reversePayments(txCtx, tx, input.TenantID, t.ID, actor, input.Reason, now)
		case link == domain.LinkTypeInvoice:
			err = uc.reverseReceipts(txCtx, tx, input.TenantID, t.ID, now)
		}
		if err != nil {
			return err
		}

		if err := uc.ledger.Statements.UpdateTransaction(txCtx, tx, t); err != nil {
			return err
		}
		result = &CommitResult{Transaction: t}

		if err := uc.transactionEvent(txCtx, tx, t, domain.EventTypeTransactionReversed, now, map[string]any{
			"previous_status": string(status),
			"link_type":       string(link),
			"link_id":         linkID,
			"reason":          input.Reason,
		}); err != nil {
			return err
		}

		return writeAudit(txCtx, uc.ledger, tx, &domain.AuditLog{
			ID:           uc.idGen.Generate(),
			TenantID:     input.TenantID,
			ActorID:      actor,
			Action:       domain.AuditActionTransactionReverse,
			ResourceType: domain.EntityTransaction,
			ResourceID:   t.ID,
			Reason:       input.Reason,
			BeforeState:  before,
			AfterState:   domain.MarshalState(t),
			CreatedAt:    now,
		})
	})
	if err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.Reversals.WithLabelValues(string(link)).Inc()
	}
	uc.logger.Info().
		Str("tenant_id", input.TenantID).
		Str("transaction_id", input.TransactionID).
		Str("link_type", string(link)).
		Str("actor_id", actor).
		Msg("transaction reversed")

	return result, nil
}

func (uc *ReconciliationUseCase) unlinkExpense(ctx context.Context, tx Transaction, tenantID, expenseID string, now time.Time) error {
	expense, err := uc.ledger.Expenses.GetByIDForUpdate(ctx, tx, tenantID, expenseID)
	if err != nil {
		return err
	}
	expense.Unlink(now)
	return uc.ledger.Expenses.Update(ctx, tx, expense)
}

func (uc *ReconciliationUseCase) reversePayments(ctx context.Context, tx Transaction, tenantID, transactionID, actor, reason string, now time.Time) error {
	payments, err := uc.ledger.Payments.ListByTransaction(ctx, tx, tenantID, transactionID)
	if err != nil {
		return err
	}

	touched := make([]string, 0, len(payments))
	for _, p := range payments {
		if p.IsReversed() {
			continue
		}
		if err := p.Reverse(actor, reason, now); err != nil {
			return err
		}
		if err := uc.ledger.Payments.MarkReversed(ctx, tx, p); err != nil {
			return err
		}
		if err := uc.ledger.Revenues.Create(ctx, tx, paymentReversalTrace(uc.idGen.Generate(), p, reason, now)); err != nil {
			return err
		}
		touched = append(touched, p.PayableID)
	}

	for _, payableID := range touched {
		payable, err := uc.ledger.Payables.GetByIDForUpdate(ctx, tx, tenantID, payableID)
		if err != nil {
			return err
		}
		if err := recomputePayable(ctx, uc.ledger, tx, payable, payable.PaidAt, now); err != nil {
			return err
		}
	}
	return nil
}

func (uc *ReconciliationUseCase) reverseReceipts(ctx context.Context, tx Transaction, tenantID, transactionID string, now time.Time) error {
	receipts, err := uc.ledger.Receipts.ListByTransaction(ctx, tx, tenantID, transactionID)
	if err != nil {
		return err
	}

	for _, r := range receipts {
		if r.IsReversed() {
			continue
		}
		inv, err := uc.ledger.Invoices.GetByIDForUpdate(ctx, tx, tenantID, r.InvoiceID)
		if err != nil {
			return err
		}
		inv.Debit(r.Credited(), now)
		if err := uc.ledger.Invoices.UpdateReceived(ctx, tx, inv); err != nil {
			return err
		}
		if err := uc.ledger.Receipts.MarkReversed(ctx, tx, tenantID, r.ID, now); err != nil {
			return err
		}
	}
	return nil
}

// lockPending locks the transaction and checks it is still pending.
func (uc *ReconciliationUseCase) lockPending(ctx context.Context, tx Transaction, tenantID, id string) (*domain.ImportedTransaction, error) {
	t, err := uc.ledger.Statements.GetTransactionForUpdate(ctx, tx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if t.Status != domain.TransactionStatusPending {
		return nil, &domain.StaleStateError{
			Entity: domain.EntityTransaction,
			ID:     t.ID,
			Reason: "status is " + string(t.Status),
		}
	}
	return t, nil
}

func (uc *ReconciliationUseCase) newAdjustment(t *domain.ImportedTransaction, kind domain.AdjustmentType, expected decimal.Decimal, reason, notes, actor string, now time.Time) *domain.Adjustment {
	return &domain.Adjustment{
		ID:               uc.idGen.Generate(),
		TenantID:         t.TenantID,
		Type:             kind,
		ExpectedAmount:   domain.RoundMoney(expected),
		ReceivedAmount:   t.Amount,
		AdjustmentAmount: domain.RoundMoney(t.Amount.Sub(expected)),
		Reason:           reason,
		Notes:            notes,
		BankID:           t.BankID,
		TransactionID:    t.ID,
		CreatedBy:        actor,
		CreatedAt:        now,
	}
}

func (uc *ReconciliationUseCase) storeAdjustment(ctx context.Context, tx Transaction, adj *domain.Adjustment) error {
	if err := uc.ledger.Adjustments.Create(ctx, tx, adj); err != nil {
		return err
	}
	return writeAudit(ctx, uc.ledger, tx, &domain.AuditLog{
		ID:           uc.idGen.Generate(),
		TenantID:     adj.TenantID,
		ActorID:      adj.CreatedBy,
		Action:       domain.AuditActionAdjustmentCreate,
		ResourceType: "adjustment",
		ResourceID:   adj.ID,
		Reason:       adj.Reason,
		AfterState:   domain.MarshalState(adj),
		CreatedAt:    adj.CreatedAt,
	})
}

func (uc *ReconciliationUseCase) transactionEvent(ctx context.Context, tx Transaction, t *domain.ImportedTransaction, eventType string, now time.Time, extra map[string]any) error {
	payload := map[string]any{
		"transaction_id": t.ID,
		"bank_id":        t.BankID,
		"amount":         t.Amount.StringFixed(domain.MoneyScale),
		"type":           string(t.Type),
		"status":         string(t.Status),
		"link_type":      string(t.LinkType),
		"link_id":        t.LinkID,
	}
	for k, v := range extra {
		payload[k] = v
	}
	return writeEvent(ctx, uc.ledger, tx, domain.NewOutboxEvent(
		uc.idGen.Generate(), t.TenantID,
		domain.AggregateTypeTransaction, t.ID, eventType, payload, now))
}

func (uc *ReconciliationUseCase) committed(kind string, result *CommitResult) {
	if uc.metrics != nil {
		uc.metrics.ReconciliationsCommitted.WithLabelValues(kind).Inc()
	}
	uc.recordAdjustment(result.Adjustment)

	ev := uc.logger.Info().
		Str("tenant_id", result.Transaction.TenantID).
		Str("transaction_id", result.Transaction.ID).
		Str("status", string(result.Transaction.Status)).
		Str("kind", kind)
	if result.Adjustment != nil {
		ev = ev.Str("adjustment", result.Adjustment.AdjustmentAmount.StringFixed(domain.MoneyScale))
	}
	ev.Msg("transaction committed")
}

// recomputePayable derives paid_total and status from the stored payments.
func recomputePayable(ctx context.Context, ledger Ledger, tx Transaction, payable *domain.Payable, paidAt *time.Time, now time.Time) error {
	payments, err := ledger.Payments.ListByPayable(ctx, tx, payable.TenantID, payable.ID)
	if err != nil {
		return err
	}
	payable.SetPaidTotal(domain.SettledTotal(payments), paidAt, now)
	return ledger.Payables.Update(ctx, tx, payable)
}

func validateTransactionRef(tenantID, transactionID string) error {
	if err := domain.ValidateTenantID(tenantID); err != nil {
		return err
	}
	return domain.ValidateID("transaction_id", transactionID)
}
