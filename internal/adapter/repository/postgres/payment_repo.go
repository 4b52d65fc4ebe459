package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/iho/goreconcile/internal/domain"
	"github.com/iho/goreconcile/internal/usecase"
)

const paymentColumns = `
	id, tenant_id, payable_id, bank_id, amount, adjustment_amount, payment_date,
	transaction_id, reversed_at, reversed_by, reversal_reason, created_at`

// PaymentRepository implements usecase.PaymentRepository.
type PaymentRepository struct {
	db DBTX
}

// NewPaymentRepository creates a new PaymentRepository.
func NewPaymentRepository(db DBTX) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// Create inserts a payment.
func (r *PaymentRepository) Create(ctx context.Context, tx usecase.Transaction, p *domain.Payment) error {
	_, err := conn(r.db, tx).Exec(ctx, `
		INSERT INTO payments (`+paymentColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		p.ID, p.TenantID, p.PayableID, p.BankID,
		decimalToNumeric(p.Amount), decimalToNumeric(p.AdjustmentAmount), timeToPgDate(p.PaymentDate),
		p.TransactionID, timePtrToPgTimestamptz(p.ReversedAt), p.ReversedBy, p.ReversalReason,
		timeToPgTimestamptz(p.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("create payment: %w", err)
	}
	return nil
}

// GetByIDForUpdate retrieves a payment with a FOR UPDATE lock.
func (r *PaymentRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, tenantID, id string) (*domain.Payment, error) {
	p, err := scanPayment(conn(r.db, tx).QueryRow(ctx, `
		SELECT `+paymentColumns+`
		FROM payments
		WHERE tenant_id = $1 AND id = $2
		FOR UPDATE`,
		tenantID, id,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFoundError(domain.EntityPayment, id)
		}
		return nil, fmt.Errorf("get payment: %w", err)
	}
	return p, nil
}

// ListByPayable lists every payment of the payable, reversed ones included.
func (r *PaymentRepository) ListByPayable(ctx context.Context, tx usecase.Transaction, tenantID, payableID string) ([]*domain.Payment, error) {
	return r.list(ctx, conn(r.db, tx), `payable_id = $2`, tenantID, payableID)
}

// ListByTransaction lists the payments created by a statement transaction.
func (r *PaymentRepository) ListByTransaction(ctx context.Context, tx usecase.Transaction, tenantID, transactionID string) ([]*domain.Payment, error) {
	return r.list(ctx, conn(r.db, tx), `transaction_id = $2`, tenantID, transactionID)
}

func (r *PaymentRepository) list(ctx context.Context, q DBTX, where, tenantID, arg string) ([]*domain.Payment, error) {
	rows, err := q.Query(ctx, `
		SELECT `+paymentColumns+`
		FROM payments
		WHERE tenant_id = $1 AND `+where+`
		ORDER BY created_at, id`,
		tenantID, arg,
	)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	return collectRows(rows, scanPayment)
}

// CountActiveByInvoice counts non-reversed payments on the invoice's payables.
func (r *PaymentRepository) CountActiveByInvoice(ctx context.Context, tx usecase.Transaction, tenantID, invoiceID string) (int, error) {
	var count int
	err := conn(r.db, tx).QueryRow(ctx, `
		SELECT COUNT(*)
		FROM payments p
		JOIN payables pb ON pb.tenant_id = p.tenant_id AND pb.id = p.payable_id
		WHERE p.tenant_id = $1 AND pb.invoice_id = $2 AND p.reversed_at IS NULL`,
		tenantID, invoiceID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count active payments: %w", err)
	}
	return count, nil
}

// MarkReversed stores the reversal fields.
func (r *PaymentRepository) MarkReversed(ctx context.Context, tx usecase.Transaction, p *domain.Payment) error {
	tag, err := conn(r.db, tx).Exec(ctx, `
		UPDATE payments SET reversed_at = $3, reversed_by = $4, reversal_reason = $5
		WHERE tenant_id = $1 AND id = $2`,
		p.TenantID, p.ID, timePtrToPgTimestamptz(p.ReversedAt), p.ReversedBy, p.ReversalReason,
	)
	if err != nil {
		return fmt.Errorf("reverse payment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewNotFoundError(domain.EntityPayment, p.ID)
	}
	return nil
}

func scanPayment(row pgx.Row) (*domain.Payment, error) {
	var (
		p                  domain.Payment
		amount, adjustment pgtype.Numeric
		paymentDate        pgtype.Date
		reversedAt         pgtype.Timestamptz
	)
	err := row.Scan(
		&p.ID, &p.TenantID, &p.PayableID, &p.BankID, &amount, &adjustment, &paymentDate,
		&p.TransactionID, &reversedAt, &p.ReversedBy, &p.ReversalReason, &p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.Amount = numericToDecimal(amount)
	p.AdjustmentAmount = numericToDecimal(adjustment)
	p.PaymentDate = pgDateToTime(paymentDate)
	p.ReversedAt = pgTimestamptzToTimePtr(reversedAt)
	return &p, nil
}

const receiptColumns = `
	id, tenant_id, invoice_id, bank_id, amount, adjustment_amount, receipt_date,
	transaction_id, reversed_at, created_at`

// ReceiptRepository implements usecase.ReceiptRepository.
type ReceiptRepository struct {
	db DBTX
}

// NewReceiptRepository creates a new ReceiptRepository.
func NewReceiptRepository(db DBTX) *ReceiptRepository {
	return &ReceiptRepository{db: db}
}

// Create inserts a receipt.
func (r *ReceiptRepository) Create(ctx context.Context, tx usecase.Transaction, rc *domain.InvoiceReceipt) error {
	_, err := conn(r.db, tx).Exec(ctx, `
		INSERT INTO invoice_receipts (`+receiptColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		rc.ID, rc.TenantID, rc.InvoiceID, rc.BankID,
		decimalToNumeric(rc.Amount), decimalToNumeric(rc.AdjustmentAmount), timeToPgDate(rc.ReceiptDate),
		rc.TransactionID, timePtrToPgTimestamptz(rc.ReversedAt), timeToPgTimestamptz(rc.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("create receipt: %w", err)
	}
	return nil
}

// ListByTransaction lists the receipts created by a statement transaction.
func (r *ReceiptRepository) ListByTransaction(ctx context.Context, tx usecase.Transaction, tenantID, transactionID string) ([]*domain.InvoiceReceipt, error) {
	rows, err := conn(r.db, tx).Query(ctx, `
		SELECT `+receiptColumns+`
		FROM invoice_receipts
		WHERE tenant_id = $1 AND transaction_id = $2
		ORDER BY created_at, id`,
		tenantID, transactionID,
	)
	if err != nil {
		return nil, fmt.Errorf("list receipts: %w", err)
	}
	return collectRows(rows, scanReceipt)
}

// MarkReversed flags a receipt as reversed. Rows are never deleted.
func (r *ReceiptRepository) MarkReversed(ctx context.Context, tx usecase.Transaction, tenantID, id string, reversedAt time.Time) error {
	tag, err := conn(r.db, tx).Exec(ctx, `
		UPDATE invoice_receipts SET reversed_at = $3
		WHERE tenant_id = $1 AND id = $2`,
		tenantID, id, timeToPgTimestamptz(reversedAt),
	)
	if err != nil {
		return fmt.Errorf("reverse receipt: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewNotFoundError("receipt", id)
	}
	return nil
}

func scanReceipt(row pgx.Row) (*domain.InvoiceReceipt, error) {
	var (
		rc                 domain.InvoiceReceipt
		amount, adjustment pgtype.Numeric
		receiptDate        pgtype.Date
		reversedAt         pgtype.Timestamptz
	)
	err := row.Scan(
		&rc.ID, &rc.TenantID, &rc.InvoiceID, &rc.BankID, &amount, &adjustment, &receiptDate,
		&rc.TransactionID, &reversedAt, &rc.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	rc.Amount = numericToDecimal(amount)
	rc.AdjustmentAmount = numericToDecimal(adjustment)
	rc.ReceiptDate = pgDateToTime(receiptDate)
	rc.ReversedAt = pgTimestamptzToTimePtr(reversedAt)
	return &rc, nil
}
