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

const transactionColumns = `
	id, tenant_id, bank_id, import_batch_id, external_id, amount, type, transaction_date,
	description, status, link_type, link_id, reversal_reason, created_at, updated_at`

// StatementRepository implements usecase.StatementRepository.
type StatementRepository struct {
	db DBTX
}

// NewStatementRepository creates a new StatementRepository.
func NewStatementRepository(db DBTX) *StatementRepository {
	return &StatementRepository{db: db}
}

// FindBatchByHash returns the bank's batch with that hash, or nil.
func (r *StatementRepository) FindBatchByHash(ctx context.Context, tenantID, bankID, fileHash string) (*domain.ImportBatch, error) {
	var b domain.ImportBatch
	err := r.db.QueryRow(ctx, `
		SELECT id, tenant_id, bank_id, file_name, file_hash, transaction_count, created_at
		FROM import_batches
		WHERE tenant_id = $1 AND bank_id = $2 AND file_hash = $3`,
		tenantID, bankID, fileHash,
	).Scan(&b.ID, &b.TenantID, &b.BankID, &b.FileName, &b.FileHash, &b.TransactionCount, &b.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find batch by hash: %w", err)
	}
	return &b, nil
}

// CreateBatch inserts an import batch. A (bank_id, file_hash) conflict is a
// duplicate import.
func (r *StatementRepository) CreateBatch(ctx context.Context, tx usecase.Transaction, b *domain.ImportBatch) error {
	_, err := conn(r.db, tx).Exec(ctx, `
		INSERT INTO import_batches (id, tenant_id, bank_id, file_name, file_hash, transaction_count, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		b.ID, b.TenantID, b.BankID, b.FileName, b.FileHash, b.TransactionCount, timeToPgTimestamptz(b.CreatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return &domain.DuplicateImportError{Kind: domain.ImportKindStatement, FileHash: b.FileHash, SameTenant: true}
		}
		return fmt.Errorf("create import batch: %w", err)
	}
	return nil
}

// CreateTransactions inserts the batch's transactions in one batch.
func (r *StatementRepository) CreateTransactions(ctx context.Context, tx usecase.Transaction, transactions []*domain.ImportedTransaction) error {
	if len(transactions) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, t := range transactions {
		batch.Queue(`
			INSERT INTO imported_transactions (`+transactionColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
			t.ID, t.TenantID, t.BankID, t.ImportBatchID, t.ExternalID,
			decimalToNumeric(t.Amount), string(t.Type), timeToPgDate(t.TransactionDate),
			t.Description, string(t.Status), string(t.LinkType), t.LinkID, t.ReversalReason,
			timeToPgTimestamptz(t.CreatedAt), timeToPgTimestamptz(t.UpdatedAt),
		)
	}

	results := conn(r.db, tx).SendBatch(ctx, batch)
	defer results.Close()

	for range transactions {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("insert imported transaction: %w", err)
		}
	}
	return nil
}

// GetTransaction retrieves an imported transaction of the tenant.
func (r *StatementRepository) GetTransaction(ctx context.Context, tenantID, id string) (*domain.ImportedTransaction, error) {
	return r.getTransaction(ctx, r.db, ``, tenantID, id)
}

// GetTransactionForUpdate retrieves an imported transaction with a FOR UPDATE lock.
func (r *StatementRepository) GetTransactionForUpdate(ctx context.Context, tx usecase.Transaction, tenantID, id string) (*domain.ImportedTransaction, error) {
	return r.getTransaction(ctx, conn(r.db, tx), ` FOR UPDATE`, tenantID, id)
}

func (r *StatementRepository) getTransaction(ctx context.Context, q DBTX, lock, tenantID, id string) (*domain.ImportedTransaction, error) {
	t, err := scanTransaction(q.QueryRow(ctx, `
		SELECT `+transactionColumns+`
		FROM imported_transactions
		WHERE tenant_id = $1 AND id = $2`+lock,
		tenantID, id,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFoundError(domain.EntityTransaction, id)
		}
		return nil, fmt.Errorf("get imported transaction: %w", err)
	}
	return t, nil
}

// UpdateTransaction stores the status and link fields.
func (r *StatementRepository) UpdateTransaction(ctx context.Context, tx usecase.Transaction, t *domain.ImportedTransaction) error {
	tag, err := conn(r.db, tx).Exec(ctx, `
		UPDATE imported_transactions SET
			status = $3, link_type = $4, link_id = $5, reversal_reason = $6, updated_at = $7
		WHERE tenant_id = $1 AND id = $2`,
		t.TenantID, t.ID, string(t.Status), string(t.LinkType), t.LinkID, t.ReversalReason,
		timeToPgTimestamptz(t.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("update imported transaction: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewNotFoundError(domain.EntityTransaction, t.ID)
	}
	return nil
}

// ListTransactionsByBatch lists the batch's transactions in statement order.
func (r *StatementRepository) ListTransactionsByBatch(ctx context.Context, tenantID, batchID string) ([]*domain.ImportedTransaction, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+transactionColumns+`
		FROM imported_transactions
		WHERE tenant_id = $1 AND import_batch_id = $2
		ORDER BY created_at, id`,
		tenantID, batchID,
	)
	if err != nil {
		return nil, fmt.Errorf("list imported transactions: %w", err)
	}
	return collectRows(rows, scanTransaction)
}

// FindCommittedByExternalID returns a reconciled or created transaction of the
// bank carrying the same statement key, or nil.
func (r *StatementRepository) FindCommittedByExternalID(ctx context.Context, tenantID, bankID, externalID, exceptTransactionID string) (*domain.ImportedTransaction, error) {
	if externalID == "" {
		return nil, nil
	}
	t, err := scanTransaction(r.db.QueryRow(ctx, `
		SELECT `+transactionColumns+`
		FROM imported_transactions
		WHERE tenant_id = $1 AND bank_id = $2 AND external_id = $3 AND id <> $4
		  AND status IN ('reconciled', 'created')
		ORDER BY updated_at
		LIMIT 1`,
		tenantID, bankID, externalID, exceptTransactionID,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find committed transaction by external id: %w", err)
	}
	return t, nil
}

func scanTransaction(row pgx.Row) (*domain.ImportedTransaction, error) {
	var (
		t                       domain.ImportedTransaction
		amount                  pgtype.Numeric
		txType, status, linkTyp string
		date                    pgtype.Date
	)
	err := row.Scan(
		&t.ID, &t.TenantID, &t.BankID, &t.ImportBatchID, &t.ExternalID, &amount, &txType, &date,
		&t.Description, &status, &linkTyp, &t.LinkID, &t.ReversalReason, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	t.Amount = numericToDecimal(amount)
	t.Type = domain.TransactionType(txType)
	t.TransactionDate = pgDateToTime(date)
	t.Status = domain.TransactionStatus(status)
	t.LinkType = domain.LinkType(linkTyp)
	return &t, nil
}

const adjustmentColumns = `
	id, tenant_id, type, expected_amount, received_amount, adjustment_amount, reason, notes,
	invoice_id, payable_id, expense_id, bank_id, transaction_id, created_by, created_at`

// AdjustmentRepository implements usecase.AdjustmentRepository.
type AdjustmentRepository struct {
	db DBTX
}

// NewAdjustmentRepository creates a new AdjustmentRepository.
func NewAdjustmentRepository(db DBTX) *AdjustmentRepository {
	return &AdjustmentRepository{db: db}
}

// Create inserts an adjustment. Adjustments are never updated.
func (r *AdjustmentRepository) Create(ctx context.Context, tx usecase.Transaction, a *domain.Adjustment) error {
	_, err := conn(r.db, tx).Exec(ctx, `
		INSERT INTO adjustments (`+adjustmentColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		a.ID, a.TenantID, string(a.Type),
		decimalToNumeric(a.ExpectedAmount), decimalToNumeric(a.ReceivedAmount), decimalToNumeric(a.AdjustmentAmount),
		a.Reason, a.Notes, a.InvoiceID, a.PayableID, a.ExpenseID, a.BankID, a.TransactionID, a.CreatedBy,
		timeToPgTimestamptz(a.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("create adjustment: %w", err)
	}
	return nil
}

// ListByTransaction lists the adjustments recorded for a transaction.
func (r *AdjustmentRepository) ListByTransaction(ctx context.Context, tenantID, transactionID string) ([]*domain.Adjustment, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+adjustmentColumns+`
		FROM adjustments
		WHERE tenant_id = $1 AND transaction_id = $2
		ORDER BY created_at, id`,
		tenantID, transactionID,
	)
	if err != nil {
		return nil, fmt.Errorf("list adjustments: %w", err)
	}
	return collectRows(rows, func(row pgx.Row) (*domain.Adjustment, error) {
		var (
			a                            domain.Adjustment
			typ                          string
			expected, received, adjusted pgtype.Numeric
		)
		err := row.Scan(
			&a.ID, &a.TenantID, &typ, &expected, &received, &adjusted, &a.Reason, &a.Notes,
			&a.InvoiceID, &a.PayableID, &a.ExpenseID, &a.BankID, &a.TransactionID, &a.CreatedBy, &a.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		a.Type = domain.AdjustmentType(typ)
		a.ExpectedAmount = numericToDecimal(expected)
		a.ReceivedAmount = numericToDecimal(received)
		a.AdjustmentAmount = numericToDecimal(adjusted)
		return &a, nil
	})
}
