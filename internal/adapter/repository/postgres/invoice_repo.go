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

const invoiceColumns = `
	id, tenant_id, invoice_number, issuer_ref, payer_ref, issue_date,
	gross_value, total_deductions,
	tax_iss, tax_pis, tax_cofins, tax_csll, tax_irrf, tax_inss, iss_retained,
	net_value, total_received, status, expected_receipt_date, content_hash,
	created_at, updated_at`

// InvoiceRepository implements usecase.InvoiceRepository.
type InvoiceRepository struct {
	db DBTX
}

// NewInvoiceRepository creates a new InvoiceRepository.
func NewInvoiceRepository(db DBTX) *InvoiceRepository {
	return &InvoiceRepository{db: db}
}

// Create inserts an invoice. A content hash conflict is a duplicate import.
func (r *InvoiceRepository) Create(ctx context.Context, tx usecase.Transaction, inv *domain.Invoice) error {
	_, err := conn(r.db, tx).Exec(ctx, `
		INSERT INTO invoices (`+invoiceColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
		        $16, $17, $18, $19, $20, $21, $22)`,
		inv.ID, inv.TenantID, inv.InvoiceNumber, inv.IssuerRef, inv.PayerRef, timeToPgDate(inv.IssueDate),
		decimalToNumeric(inv.GrossValue), decimalToNumeric(inv.TotalDeductions),
		decimalToNumeric(inv.Taxes.ISS), decimalToNumeric(inv.Taxes.PIS), decimalToNumeric(inv.Taxes.COFINS),
		decimalToNumeric(inv.Taxes.CSLL), decimalToNumeric(inv.Taxes.IRRF), decimalToNumeric(inv.Taxes.INSS),
		inv.Taxes.ISSRetained,
		decimalToNumeric(inv.NetValue), decimalToNumeric(inv.TotalReceived), string(inv.Status),
		timePtrToPgDate(inv.ExpectedReceiptDate), inv.ContentHash,
		timeToPgTimestamptz(inv.CreatedAt), timeToPgTimestamptz(inv.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return &domain.DuplicateImportError{Kind: domain.ImportKindInvoice, FileHash: inv.ContentHash, SameTenant: true}
		}
		return fmt.Errorf("create invoice: %w", err)
	}
	return nil
}

// GetByID retrieves an invoice of the tenant.
func (r *InvoiceRepository) GetByID(ctx context.Context, tenantID, id string) (*domain.Invoice, error) {
	return r.get(ctx, r.db, `SELECT `+invoiceColumns+` FROM invoices WHERE tenant_id = $1 AND id = $2`, tenantID, id)
}

// GetByIDForUpdate retrieves an invoice with a FOR UPDATE lock.
func (r *InvoiceRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, tenantID, id string) (*domain.Invoice, error) {
	return r.get(ctx, conn(r.db, tx), `SELECT `+invoiceColumns+` FROM invoices WHERE tenant_id = $1 AND id = $2 FOR UPDATE`, tenantID, id)
}

func (r *InvoiceRepository) get(ctx context.Context, q DBTX, sql, tenantID, id string) (*domain.Invoice, error) {
	inv, err := scanInvoice(q.QueryRow(ctx, sql, tenantID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFoundError(domain.EntityInvoice, id)
		}
		return nil, fmt.Errorf("get invoice: %w", err)
	}
	return inv, nil
}

// GetByIDsForUpdate locks the invoices in id order and returns them in the
// order requested.
func (r *InvoiceRepository) GetByIDsForUpdate(ctx context.Context, tx usecase.Transaction, tenantID string, ids []string) ([]*domain.Invoice, error) {
	rows, err := conn(r.db, tx).Query(ctx, `
		SELECT `+invoiceColumns+`
		FROM invoices
		WHERE tenant_id = $1 AND id = ANY($2)
		ORDER BY id
		FOR UPDATE`,
		tenantID, ids,
	)
	if err != nil {
		return nil, fmt.Errorf("lock invoices: %w", err)
	}

	found, err := collectRows(rows, scanInvoice)
	if err != nil {
		return nil, fmt.Errorf("lock invoices: %w", err)
	}

	byID := make(map[string]*domain.Invoice, len(found))
	for _, inv := range found {
		byID[inv.ID] = inv
	}

	out := make([]*domain.Invoice, 0, len(ids))
	for _, id := range ids {
		inv, ok := byID[id]
		if !ok {
			return nil, domain.NewNotFoundError(domain.EntityInvoice, id)
		}
		out = append(out, inv)
	}
	return out, nil
}

// FindByContentHash looks the hash up across all tenants.
func (r *InvoiceRepository) FindByContentHash(ctx context.Context, tx usecase.Transaction, contentHash string) (*domain.Invoice, error) {
	inv, err := scanInvoice(conn(r.db, tx).QueryRow(ctx,
		`SELECT `+invoiceColumns+` FROM invoices WHERE content_hash = $1`, contentHash))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find invoice by hash: %w", err)
	}
	return inv, nil
}

// UpdateValues rewrites the descriptive, tax and value fields.
func (r *InvoiceRepository) UpdateValues(ctx context.Context, tx usecase.Transaction, inv *domain.Invoice) error {
	tag, err := conn(r.db, tx).Exec(ctx, `
		UPDATE invoices SET
			invoice_number = $3, issuer_ref = $4, payer_ref = $5, issue_date = $6,
			gross_value = $7, total_deductions = $8,
			tax_iss = $9, tax_pis = $10, tax_cofins = $11, tax_csll = $12, tax_irrf = $13, tax_inss = $14,
			iss_retained = $15, net_value = $16, status = $17, expected_receipt_date = $18, updated_at = $19
		WHERE tenant_id = $1 AND id = $2`,
		inv.TenantID, inv.ID, inv.InvoiceNumber, inv.IssuerRef, inv.PayerRef, timeToPgDate(inv.IssueDate),
		decimalToNumeric(inv.GrossValue), decimalToNumeric(inv.TotalDeductions),
		decimalToNumeric(inv.Taxes.ISS), decimalToNumeric(inv.Taxes.PIS), decimalToNumeric(inv.Taxes.COFINS),
		decimalToNumeric(inv.Taxes.CSLL), decimalToNumeric(inv.Taxes.IRRF), decimalToNumeric(inv.Taxes.INSS),
		inv.Taxes.ISSRetained, decimalToNumeric(inv.NetValue), string(inv.Status),
		timePtrToPgDate(inv.ExpectedReceiptDate), timeToPgTimestamptz(inv.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("update invoice values: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewNotFoundError(domain.EntityInvoice, inv.ID)
	}
	return nil
}

// UpdateReceived stores total_received and status.
func (r *InvoiceRepository) UpdateReceived(ctx context.Context, tx usecase.Transaction, inv *domain.Invoice) error {
	tag, err := conn(r.db, tx).Exec(ctx, `
		UPDATE invoices SET total_received = $3, status = $4, updated_at = $5
		WHERE tenant_id = $1 AND id = $2`,
		inv.TenantID, inv.ID, decimalToNumeric(inv.TotalReceived), string(inv.Status), timeToPgTimestamptz(inv.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("update invoice received: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewNotFoundError(domain.EntityInvoice, inv.ID)
	}
	return nil
}

// ListOpenReceivables returns one row per allocation of every open invoice.
func (r *InvoiceRepository) ListOpenReceivables(ctx context.Context, tenantID string) ([]domain.OpenReceivable, error) {
	rows, err := r.db.Query(ctx, `
		SELECT i.id, COALESCE(a.id, ''), i.invoice_number, i.net_value, i.total_received, i.expected_receipt_date
		FROM invoices i
		LEFT JOIN invoice_allocations a ON a.tenant_id = i.tenant_id AND a.invoice_id = i.id
		WHERE i.tenant_id = $1
		  AND i.status <> 'received'
		  AND i.net_value - i.total_received >= 0.01
		ORDER BY i.created_at, i.id, a.created_at, a.id`,
		tenantID,
	)
	if err != nil {
		return nil, fmt.Errorf("list open receivables: %w", err)
	}
	defer rows.Close()

	var out []domain.OpenReceivable
	for rows.Next() {
		var (
			row           domain.OpenReceivable
			net, received pgtype.Numeric
			expected      pgtype.Date
		)
		if err := rows.Scan(&row.InvoiceID, &row.AllocationID, &row.InvoiceNumber, &net, &received, &expected); err != nil {
			return nil, fmt.Errorf("scan open receivable: %w", err)
		}
		row.NetValue = numericToDecimal(net)
		row.TotalReceived = numericToDecimal(received)
		row.ExpectedReceiptDate = pgDateToTimePtr(expected)
		out = append(out, row)
	}
	return out, rows.Err()
}

func scanInvoice(row pgx.Row) (*domain.Invoice, error) {
	var (
		inv                                domain.Invoice
		issueDate, expected                pgtype.Date
		gross, deductions, net, received   pgtype.Numeric
		iss, pis, cofins, csll, irrf, inss pgtype.Numeric
		status                             string
	)
	err := row.Scan(
		&inv.ID, &inv.TenantID, &inv.InvoiceNumber, &inv.IssuerRef, &inv.PayerRef, &issueDate,
		&gross, &deductions,
		&iss, &pis, &cofins, &csll, &irrf, &inss, &inv.Taxes.ISSRetained,
		&net, &received, &status, &expected, &inv.ContentHash,
		&inv.CreatedAt, &inv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	inv.IssueDate = pgDateToTime(issueDate)
	inv.ExpectedReceiptDate = pgDateToTimePtr(expected)
	inv.GrossValue = numericToDecimal(gross)
	inv.TotalDeductions = numericToDecimal(deductions)
	inv.Taxes.ISS = numericToDecimal(iss)
	inv.Taxes.PIS = numericToDecimal(pis)
	inv.Taxes.COFINS = numericToDecimal(cofins)
	inv.Taxes.CSLL = numericToDecimal(csll)
	inv.Taxes.IRRF = numericToDecimal(irrf)
	inv.Taxes.INSS = numericToDecimal(inss)
	inv.NetValue = numericToDecimal(net)
	inv.TotalReceived = numericToDecimal(received)
	inv.Status = domain.InvoiceStatus(status)
	return &inv, nil
}
