package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/iho/goreconcile/internal/domain"
	"github.com/iho/goreconcile/internal/usecase"
)

const allocationColumns = `id, tenant_id, invoice_id, payee_id, allocated_gross_value, admin_fee, amount_to_pay, created_at`

// AllocationRepository implements usecase.AllocationRepository.
type AllocationRepository struct {
	db DBTX
}

// NewAllocationRepository creates a new AllocationRepository.
func NewAllocationRepository(db DBTX) *AllocationRepository {
	return &AllocationRepository{db: db}
}

// ListByInvoice lists the invoice's allocations in creation order.
func (r *AllocationRepository) ListByInvoice(ctx context.Context, tenantID, invoiceID string) ([]*domain.InvoiceAllocation, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+allocationColumns+`
		FROM invoice_allocations
		WHERE tenant_id = $1 AND invoice_id = $2
		ORDER BY created_at, id`,
		tenantID, invoiceID,
	)
	if err != nil {
		return nil, fmt.Errorf("list allocations: %w", err)
	}
	return collectRows(rows, scanAllocation)
}

// GetByIDs returns the allocations in the order requested.
func (r *AllocationRepository) GetByIDs(ctx context.Context, tx usecase.Transaction, tenantID string, ids []string) ([]*domain.InvoiceAllocation, error) {
	rows, err := conn(r.db, tx).Query(ctx, `
		SELECT `+allocationColumns+`
		FROM invoice_allocations
		WHERE tenant_id = $1 AND id = ANY($2)`,
		tenantID, ids,
	)
	if err != nil {
		return nil, fmt.Errorf("get allocations: %w", err)
	}

	found, err := collectRows(rows, scanAllocation)
	if err != nil {
		return nil, fmt.Errorf("get allocations: %w", err)
	}

	byID := make(map[string]*domain.InvoiceAllocation, len(found))
	for _, a := range found {
		byID[a.ID] = a
	}

	out := make([]*domain.InvoiceAllocation, 0, len(ids))
	for _, id := range ids {
		a, ok := byID[id]
		if !ok {
			return nil, domain.NewNotFoundError(domain.EntityAllocation, id)
		}
		out = append(out, a)
	}
	return out, nil
}

// ReplaceForInvoice deletes the invoice's allocations and payables and
// inserts the given ones.
func (r *AllocationRepository) ReplaceForInvoice(ctx context.Context, tx usecase.Transaction, tenantID, invoiceID string, allocations []*domain.InvoiceAllocation, payables []*domain.Payable) error {
	q := conn(r.db, tx)

	if _, err := q.Exec(ctx, `DELETE FROM payables WHERE tenant_id = $1 AND invoice_id = $2`, tenantID, invoiceID); err != nil {
		return fmt.Errorf("delete payables: %w", err)
	}
	if _, err := q.Exec(ctx, `DELETE FROM invoice_allocations WHERE tenant_id = $1 AND invoice_id = $2`, tenantID, invoiceID); err != nil {
		return fmt.Errorf("delete allocations: %w", err)
	}

	for _, a := range allocations {
		_, err := q.Exec(ctx, `
			INSERT INTO invoice_allocations (`+allocationColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			a.ID, a.TenantID, a.InvoiceID, a.PayeeID,
			decimalToNumeric(a.AllocatedGrossValue), decimalToNumeric(a.AdminFee), decimalToNumeric(a.AmountToPay),
			timeToPgTimestamptz(a.CreatedAt),
		)
		if err != nil {
			return fmt.Errorf("insert allocation: %w", err)
		}
	}

	for _, p := range payables {
		_, err := q.Exec(ctx, `
			INSERT INTO payables (`+payableColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
			p.ID, p.TenantID, p.InvoiceID, p.AllocationID, p.PayeeID,
			decimalToNumeric(p.AmountToPay), decimalToNumeric(p.PaidTotal), string(p.Status),
			timePtrToPgDate(p.ExpectedPaymentDate), timePtrToPgTimestamptz(p.PaidAt),
			timeToPgTimestamptz(p.CreatedAt), timeToPgTimestamptz(p.UpdatedAt),
		)
		if err != nil {
			return fmt.Errorf("insert payable: %w", err)
		}
	}

	return nil
}

func scanAllocation(row pgx.Row) (*domain.InvoiceAllocation, error) {
	var (
		a                  domain.InvoiceAllocation
		gross, fee, amount pgtype.Numeric
	)
	if err := row.Scan(&a.ID, &a.TenantID, &a.InvoiceID, &a.PayeeID, &gross, &fee, &amount, &a.CreatedAt); err != nil {
		return nil, err
	}
	a.AllocatedGrossValue = numericToDecimal(gross)
	a.AdminFee = numericToDecimal(fee)
	a.AmountToPay = numericToDecimal(amount)
	return &a, nil
}

const payableColumns = `
	id, tenant_id, invoice_id, allocation_id, payee_id, amount_to_pay, paid_total, status,
	expected_payment_date, paid_at, created_at, updated_at`

// PayableRepository implements usecase.PayableRepository.
type PayableRepository struct {
	db DBTX
}

// NewPayableRepository creates a new PayableRepository.
func NewPayableRepository(db DBTX) *PayableRepository {
	return &PayableRepository{db: db}
}

// GetByIDForUpdate retrieves a payable with a FOR UPDATE lock.
func (r *PayableRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, tenantID, id string) (*domain.Payable, error) {
	p, err := scanPayable(conn(r.db, tx).QueryRow(ctx, `
		SELECT `+payableColumns+`
		FROM payables
		WHERE tenant_id = $1 AND id = $2
		FOR UPDATE`,
		tenantID, id,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFoundError(domain.EntityPayable, id)
		}
		return nil, fmt.Errorf("get payable: %w", err)
	}
	return p, nil
}

// ListByInvoice lists the invoice's payables in creation order.
func (r *PayableRepository) ListByInvoice(ctx context.Context, tenantID, invoiceID string) ([]*domain.Payable, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+payableColumns+`
		FROM payables
		WHERE tenant_id = $1 AND invoice_id = $2
		ORDER BY created_at, id`,
		tenantID, invoiceID,
	)
	if err != nil {
		return nil, fmt.Errorf("list payables: %w", err)
	}
	return collectRows(rows, scanPayable)
}

// Update stores paid_total, status and paid_at.
func (r *PayableRepository) Update(ctx context.Context, tx usecase.Transaction, p *domain.Payable) error {
	tag, err := conn(r.db, tx).Exec(ctx, `
		UPDATE payables SET paid_total = $3, status = $4, paid_at = $5, updated_at = $6
		WHERE tenant_id = $1 AND id = $2`,
		p.TenantID, p.ID, decimalToNumeric(p.PaidTotal), string(p.Status),
		timePtrToPgTimestamptz(p.PaidAt), timeToPgTimestamptz(p.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("update payable: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewNotFoundError(domain.EntityPayable, p.ID)
	}
	return nil
}

func scanPayable(row pgx.Row) (*domain.Payable, error) {
	var (
		p            domain.Payable
		amount, paid pgtype.Numeric
		status       string
		expected     pgtype.Date
		paidAt       pgtype.Timestamptz
	)
	err := row.Scan(
		&p.ID, &p.TenantID, &p.InvoiceID, &p.AllocationID, &p.PayeeID, &amount, &paid, &status,
		&expected, &paidAt, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.AmountToPay = numericToDecimal(amount)
	p.PaidTotal = numericToDecimal(paid)
	p.Status = domain.PayableStatus(status)
	p.ExpectedPaymentDate = pgDateToTimePtr(expected)
	p.PaidAt = pgTimestamptzToTimePtr(paidAt)
	return &p, nil
}
