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

const expenseColumns = `
	id, tenant_id, bank_id, description, category, amount, paid_amount, status,
	due_date, paid_at, external_id, statement_import_id, transaction_id, created_at, updated_at`

// ExpenseRepository implements usecase.ExpenseRepository.
type ExpenseRepository struct {
	db DBTX
}

// NewExpenseRepository creates a new ExpenseRepository.
func NewExpenseRepository(db DBTX) *ExpenseRepository {
	return &ExpenseRepository{db: db}
}

// Create inserts an expense.
func (r *ExpenseRepository) Create(ctx context.Context, tx usecase.Transaction, e *domain.Expense) error {
	_, err := conn(r.db, tx).Exec(ctx, `
		INSERT INTO expenses (`+expenseColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		e.ID, e.TenantID, e.BankID, e.Description, e.Category,
		decimalToNumeric(e.Amount), decimalToNumeric(e.PaidAmount), string(e.Status),
		timePtrToPgDate(e.DueDate), timePtrToPgDate(e.PaidAt),
		e.ExternalID, e.StatementImportID, e.TransactionID,
		timeToPgTimestamptz(e.CreatedAt), timeToPgTimestamptz(e.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("create expense: %w", err)
	}
	return nil
}

// GetByIDForUpdate retrieves an expense with a FOR UPDATE lock.
func (r *ExpenseRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, tenantID, id string) (*domain.Expense, error) {
	e, err := scanExpense(conn(r.db, tx).QueryRow(ctx, `
		SELECT `+expenseColumns+`
		FROM expenses
		WHERE tenant_id = $1 AND id = $2
		FOR UPDATE`,
		tenantID, id,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFoundError(domain.EntityExpense, id)
		}
		return nil, fmt.Errorf("get expense: %w", err)
	}
	return e, nil
}

// Update rewrites the payment and link fields of an expense.
func (r *ExpenseRepository) Update(ctx context.Context, tx usecase.Transaction, e *domain.Expense) error {
	tag, err := conn(r.db, tx).Exec(ctx, `
		UPDATE expenses SET
			bank_id = $3, paid_amount = $4, status = $5, paid_at = $6,
			external_id = $7, statement_import_id = $8, transaction_id = $9, updated_at = $10
		WHERE tenant_id = $1 AND id = $2`,
		e.TenantID, e.ID, e.BankID, decimalToNumeric(e.PaidAmount), string(e.Status), timePtrToPgDate(e.PaidAt),
		e.ExternalID, e.StatementImportID, e.TransactionID, timeToPgTimestamptz(e.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("update expense: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewNotFoundError(domain.EntityExpense, e.ID)
	}
	return nil
}

// Delete removes an expense.
func (r *ExpenseRepository) Delete(ctx context.Context, tx usecase.Transaction, tenantID, id string) error {
	tag, err := conn(r.db, tx).Exec(ctx, `DELETE FROM expenses WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewNotFoundError(domain.EntityExpense, id)
	}
	return nil
}

// ListOpen lists the tenant's pending expenses.
func (r *ExpenseRepository) ListOpen(ctx context.Context, tenantID string) ([]*domain.Expense, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+expenseColumns+`
		FROM expenses
		WHERE tenant_id = $1 AND status = 'pending'
		ORDER BY created_at, id`,
		tenantID,
	)
	if err != nil {
		return nil, fmt.Errorf("list open expenses: %w", err)
	}
	return collectRows(rows, scanExpense)
}

// FindByExternalID returns an expense carrying the statement key that is
// linked to another transaction, or nil.
func (r *ExpenseRepository) FindByExternalID(ctx context.Context, tenantID, bankID, externalID, exceptTransactionID string) (*domain.Expense, error) {
	if externalID == "" {
		return nil, nil
	}
	e, err := scanExpense(r.db.QueryRow(ctx, `
		SELECT `+expenseColumns+`
		FROM expenses
		WHERE tenant_id = $1 AND bank_id = $2 AND external_id = $3 AND transaction_id <> $4
		ORDER BY created_at
		LIMIT 1`,
		tenantID, bankID, externalID, exceptTransactionID,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find expense by external id: %w", err)
	}
	return e, nil
}

func scanExpense(row pgx.Row) (*domain.Expense, error) {
	var (
		e               domain.Expense
		amount, paid    pgtype.Numeric
		status          string
		dueDate, paidAt pgtype.Date
	)
	err := row.Scan(
		&e.ID, &e.TenantID, &e.BankID, &e.Description, &e.Category, &amount, &paid, &status,
		&dueDate, &paidAt, &e.ExternalID, &e.StatementImportID, &e.TransactionID, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	e.Amount = numericToDecimal(amount)
	e.PaidAmount = numericToDecimal(paid)
	e.Status = domain.ExpenseStatus(status)
	e.DueDate = pgDateToTimePtr(dueDate)
	e.PaidAt = pgDateToTimePtr(paidAt)
	return &e, nil
}

const revenueColumns = `
	id, tenant_id, bank_id, description, category, amount, status, source,
	received_at, external_id, statement_import_id, transaction_id, created_at`

// RevenueRepository implements usecase.RevenueRepository.
type RevenueRepository struct {
	db DBTX
}

// NewRevenueRepository creates a new RevenueRepository.
func NewRevenueRepository(db DBTX) *RevenueRepository {
	return &RevenueRepository{db: db}
}

// Create inserts a revenue.
func (r *RevenueRepository) Create(ctx context.Context, tx usecase.Transaction, rev *domain.Revenue) error {
	_, err := conn(r.db, tx).Exec(ctx, `
		INSERT INTO revenues (`+revenueColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		rev.ID, rev.TenantID, rev.BankID, rev.Description, rev.Category,
		decimalToNumeric(rev.Amount), string(rev.Status), rev.Source, timePtrToPgDate(rev.ReceivedAt),
		rev.ExternalID, rev.StatementImportID, rev.TransactionID, timeToPgTimestamptz(rev.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("create revenue: %w", err)
	}
	return nil
}

// GetByID retrieves a revenue of the tenant.
func (r *RevenueRepository) GetByID(ctx context.Context, tx usecase.Transaction, tenantID, id string) (*domain.Revenue, error) {
	rev, err := scanRevenue(conn(r.db, tx).QueryRow(ctx, `
		SELECT `+revenueColumns+`
		FROM revenues
		WHERE tenant_id = $1 AND id = $2`,
		tenantID, id,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFoundError(domain.EntityRevenue, id)
		}
		return nil, fmt.Errorf("get revenue: %w", err)
	}
	return rev, nil
}

// Delete removes a revenue.
func (r *RevenueRepository) Delete(ctx context.Context, tx usecase.Transaction, tenantID, id string) error {
	tag, err := conn(r.db, tx).Exec(ctx, `DELETE FROM revenues WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	if err != nil {
		return fmt.Errorf("delete revenue: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewNotFoundError(domain.EntityRevenue, id)
	}
	return nil
}

// FindByExternalID returns a revenue carrying the statement key that is
// linked to another transaction, or nil.
func (r *RevenueRepository) FindByExternalID(ctx context.Context, tenantID, bankID, externalID, exceptTransactionID string) (*domain.Revenue, error) {
	if externalID == "" {
		return nil, nil
	}
	rev, err := scanRevenue(r.db.QueryRow(ctx, `
		SELECT `+revenueColumns+`
		FROM revenues
		WHERE tenant_id = $1 AND bank_id = $2 AND external_id = $3 AND transaction_id <> $4
		ORDER BY created_at
		LIMIT 1`,
		tenantID, bankID, externalID, exceptTransactionID,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find revenue by external id: %w", err)
	}
	return rev, nil
}

func scanRevenue(row pgx.Row) (*domain.Revenue, error) {
	var (
		rev        domain.Revenue
		amount     pgtype.Numeric
		status     string
		receivedAt pgtype.Date
	)
	err := row.Scan(
		&rev.ID, &rev.TenantID, &rev.BankID, &rev.Description, &rev.Category, &amount, &status, &rev.Source,
		&receivedAt, &rev.ExternalID, &rev.StatementImportID, &rev.TransactionID, &rev.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	rev.Amount = numericToDecimal(amount)
	rev.Status = domain.RevenueStatus(status)
	rev.ReceivedAt = pgDateToTimePtr(receivedAt)
	return &rev, nil
}
