package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/goreconcile/internal/domain"
)

// PaymentUseCase records payments made outside statement reconciliation.
type PaymentUseCase struct {
	options
	txManager TransactionManager
	ledger    Ledger
	idGen     IDGenerator
}

// NewPaymentUseCase creates a new PaymentUseCase.
func NewPaymentUseCase(txManager TransactionManager, ledger Ledger, idGen IDGenerator, opts ...Option) *PaymentUseCase {
	return &PaymentUseCase{
		options:   newOptions(opts),
		txManager: txManager,
		ledger:    ledger,
		idGen:     idGen,
	}
}

// RecordPaymentInput holds input for paying a payable.
type RecordPaymentInput struct {
	TenantID    string
	PayableID   string
	BankID      string
	Amount      decimal.Decimal
	PaymentDate time.Time
	ActorID     string
}

// PaymentResult is a payment with the payable it changed.
type PaymentResult struct {
	Payment *domain.Payment
	Payable *domain.Payable
}

// RecordPayment pays part or all of a payable's pending balance.
func (uc *PaymentUseCase) RecordPayment(ctx context.Context, input RecordPaymentInput) (result *PaymentResult, err error) {
	start := time.Now()
	defer func() { uc.observe("record_payment", start, err) }()

	if err := domain.ValidateTenantID(input.TenantID); err != nil {
		return nil, err
	}
	if err := domain.ValidateID("payable_id", input.PayableID); err != nil {
		return nil, err
	}
	if err := domain.ValidateID("bank_id", input.BankID); err != nil {
		return nil, err
	}
	amount := domain.RoundMoney(input.Amount)
	if err := domain.ValidateAmount("amount", amount); err != nil {
		return nil, err
	}
	if _, err := uc.ledger.Banks.GetByID(ctx, input.TenantID, input.BankID); err != nil {
		return nil, err
	}

	err = inTx(ctx, uc.txManager, uc.retrier, func(txCtx context.Context, tx Transaction) error {
		payable, err := uc.ledger.Payables.GetByIDForUpdate(txCtx, tx, input.TenantID, input.PayableID)
		if err != nil {
			return err
		}
		if payable.Status == domain.PayableStatusCancelled {
			return domain.NewValidationError("payable_id", "payable is cancelled", domain.ErrInvalidTransition)
		}
		if amount.GreaterThan(payable.PendingBalance().Add(domain.Epsilon)) {
			return domain.NewValidationError("amount",
				"exceeds pending balance "+payable.PendingBalance().StringFixed(domain.MoneyScale), domain.ErrInvalidAmount)
		}

		now := uc.now()
		date := input.PaymentDate
		if date.IsZero() {
			date = now
		}

		payment := &domain.Payment{
			ID:               uc.idGen.Generate(),
			TenantID:         input.TenantID,
			PayableID:        payable.ID,
			BankID:           input.BankID,
			Amount:           amount,
			AdjustmentAmount: decimal.Zero,
			PaymentDate:      date,
			CreatedAt:        now,
		}
		if err := uc.ledger.Payments.Create(txCtx, tx, payment); err != nil {
			return err
		}
		if err := recomputePayable(txCtx, uc.ledger, tx, payable, &date, now); err != nil {
			return err
		}

		result = &PaymentResult{Payment: payment, Payable: payable}
		return writeEvent(txCtx, uc.ledger, tx, domain.NewOutboxEvent(
			uc.idGen.Generate(), input.TenantID,
			domain.AggregateTypePayment, payment.ID, domain.EventTypePaymentRecorded,
			map[string]any{
				"payment_id": payment.ID,
				"payable_id": payable.ID,
				"bank_id":    payment.BankID,
				"amount":     payment.Amount.StringFixed(domain.MoneyScale),
				"actor_id":   actorFrom(ctx, input.ActorID),
			}, now))
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info().
		Str("tenant_id", input.TenantID).
		Str("payment_id", result.Payment.ID).
		Str("payable_id", result.Payable.ID).
		Str("amount", result.Payment.Amount.StringFixed(domain.MoneyScale)).
		Msg("payment recorded")

	return result, nil
}

// ReversePaymentInput holds input for reversing a payment.
type ReversePaymentInput struct {
	TenantID  string
	PaymentID string
	Reason    string
	ActorID   string
}

// ReversePayment marks a payment reversed, lowers the payable and books
// the returned funds as a payment_reversal revenue.
func (uc *PaymentUseCase) ReversePayment(ctx context.Context, input ReversePaymentInput) (result *PaymentResult, err error) {
	start := time.Now()
	defer func() { uc.observe("reverse_payment", start, err) }()

	if err := domain.ValidateTenantID(input.TenantID); err != nil {
		return nil, err
	}
	if err := domain.ValidateID("payment_id", input.PaymentID); err != nil {
		return nil, err
	}
	if err := domain.ValidateReason(input.Reason); err != nil {
		return nil, err
	}

	actor := actorFrom(ctx, input.ActorID)

	err = inTx(ctx, uc.txManager, uc.retrier, func(txCtx context.Context, tx Transaction) error {
		payment, err := uc.ledger.Payments.GetByIDForUpdate(txCtx, tx, input.TenantID, input.PaymentID)
		if err != nil {
			return err
		}
		if payment.TransactionID != "" && !payment.IsReversed() {
			return domain.NewValidationError("payment_id",
				"payment was reconciled from transaction "+payment.TransactionID+"; reverse the transaction instead",
				domain.ErrInvalidTransition)
		}
		before := domain.MarshalState(payment)

		now := uc.now()
		if err := payment.Reverse(actor, input.Reason, now); err != nil {
			return err
		}
		if err := uc.ledger.Payments.MarkReversed(txCtx, tx, payment); err != nil {
			return err
		}

		payable, err := uc.ledger.Payables.GetByIDForUpdate(txCtx, tx, input.TenantID, payment.PayableID)
		if err != nil {
			return err
		}
		if err := recomputePayable(txCtx, uc.ledger, tx, payable, payable.PaidAt, now); err != nil {
			return err
		}

		if err := uc.ledger.Revenues.Create(txCtx, tx, paymentReversalTrace(uc.idGen.Generate(), payment, input.Reason, now)); err != nil {
			return err
		}

		if err := writeEvent(txCtx, uc.ledger, tx, domain.NewOutboxEvent(
			uc.idGen.Generate(), input.TenantID,
			domain.AggregateTypePayment, payment.ID, domain.EventTypePaymentReversed,
			map[string]any{
				"payment_id": payment.ID,
				"payable_id": payable.ID,
				"amount":     payment.Amount.StringFixed(domain.MoneyScale),
				"reason":     input.Reason,
			}, now)); err != nil {
			return err
		}

		if err := writeAudit(txCtx, uc.ledger, tx, &domain.AuditLog{
			ID:           uc.idGen.Generate(),
			TenantID:     input.TenantID,
			ActorID:      actor,
			Action:       domain.AuditActionPaymentReverse,
			ResourceType: domain.EntityPayment,
			ResourceID:   payment.ID,
			Reason:       input.Reason,
			BeforeState:  before,
			AfterState:   domain.MarshalState(payment),
			CreatedAt:    now,
		}); err != nil {
			return err
		}

		result = &PaymentResult{Payment: payment, Payable: payable}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.PaymentsReversed.Inc()
	}
	uc.logger.Info().
		Str("tenant_id", input.TenantID).
		Str("payment_id", input.PaymentID).
		Str("actor_id", actor).
		Msg("payment reversed")

	return result, nil
}

// paymentReversalTrace is the revenue row left behind by a reversed payment.
// Balances exclude it.
func paymentReversalTrace(id string, payment *domain.Payment, reason string, now time.Time) *domain.Revenue {
	return &domain.Revenue{
		ID:          id,
		TenantID:    payment.TenantID,
		BankID:      payment.BankID,
		Description: "payment reversal: " + reason,
		Category:    "payment_reversal",
		Amount:      payment.Amount,
		Status:      domain.RevenueStatusReceived,
		Source:      domain.RevenueSourcePaymentReversal,
		ReceivedAt:  &now,
		CreatedAt:   now,
	}
}
