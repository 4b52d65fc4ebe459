package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/iho/goreconcile/internal/domain"
)

// ImportOutcome is the per-file result of an invoice import.
type ImportOutcome string

const (
	ImportOutcomeSuccess   ImportOutcome = "success"
	ImportOutcomeDuplicate ImportOutcome = "duplicate"
	ImportOutcomeUpdated   ImportOutcome = "updated"
	ImportOutcomeError     ImportOutcome = "error"
)

// ImportUseCase is the content-hash gate in front of the ledger.
type ImportUseCase struct {
	options
	txManager       TransactionManager
	ledger          Ledger
	statementParser StatementParser
	invoiceParser   InvoiceParser
	idGen           IDGenerator
}

// NewImportUseCase creates a new ImportUseCase.
func NewImportUseCase(
	txManager TransactionManager,
	ledger Ledger,
	statementParser StatementParser,
	invoiceParser InvoiceParser,
	idGen IDGenerator,
	opts ...Option,
) *ImportUseCase {
	return &ImportUseCase{
		options:         newOptions(opts),
		txManager:       txManager,
		ledger:          ledger,
		statementParser: statementParser,
		invoiceParser:   invoiceParser,
		idGen:           idGen,
	}
}

// ImportStatementInput holds input for importing a bank statement file.
type ImportStatementInput struct {
	TenantID string
	BankID   string
	FileName string
	Content  []byte
}

// ImportStatementResult is the stored batch with its transactions.
type ImportStatementResult struct {
	Batch        *domain.ImportBatch
	Transactions []*domain.ImportedTransaction
}

// ImportStatement stores a statement file once per bank.
func (uc *ImportUseCase) ImportStatement(ctx context.Context, input ImportStatementInput) (result *ImportStatementResult, err error) {
	start := time.Now()
	defer func() { uc.observe("import_statement", start, err) }()

	if err := domain.ValidateTenantID(input.TenantID); err != nil {
		return nil, err
	}
	if err := domain.ValidateID("bank_id", input.BankID); err != nil {
		return nil, err
	}
	if len(input.Content) == 0 {
		return nil, domain.NewValidationError("content", "statement file is empty", nil)
	}

	if _, err := uc.ledger.Banks.GetByID(ctx, input.TenantID, input.BankID); err != nil {
		return nil, err
	}

	hash := domain.FileHash(input.Content)
	existing, err := uc.ledger.Statements.FindBatchByHash(ctx, input.TenantID, input.BankID, hash)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		dup := &domain.DuplicateImportError{
			Kind:       domain.ImportKindStatement,
			FileHash:   hash,
			ExistingID: existing.ID,
			SameTenant: true,
		}
		uc.recordDuplicate(dup)
		return nil, dup
	}

	lines, err := uc.statementParser.Parse(input.Content)
	if err != nil {
		return nil, domain.NewValidationError("content", err.Error(), err)
	}
	if len(lines) == 0 {
		return nil, domain.NewValidationError("content", "statement has no transactions", nil)
	}

	now := uc.now()
	batch := &domain.ImportBatch{
		ID:               uc.idGen.Generate(),
		TenantID:         input.TenantID,
		BankID:           input.BankID,
		FileName:         input.FileName,
		FileHash:         hash,
		TransactionCount: len(lines),
		CreatedAt:        now,
	}

	transactions := make([]*domain.ImportedTransaction, 0, len(lines))
	for _, line := range lines {
		transactions = append(transactions, domain.NewImportedTransaction(uc.idGen.Generate(), batch, line, now))
	}

	err = inTx(ctx, uc.txManager, uc.retrier, func(txCtx context.Context, tx Transaction) error {
		if err := uc.ledger.Statements.CreateBatch(txCtx, tx, batch); err != nil {
			return err
		}
		if err := uc.ledger.Statements.CreateTransactions(txCtx, tx, transactions); err != nil {
			return err
		}

		return writeEvent(txCtx, uc.ledger, tx, domain.NewOutboxEvent(
			uc.idGen.Generate(), input.TenantID,
			domain.AggregateTypeImportBatch, batch.ID, domain.EventTypeStatementImported,
			map[string]any{
				"batch_id":          batch.ID,
				"bank_id":           batch.BankID,
				"file_hash":         batch.FileHash,
				"transaction_count": batch.TransactionCount,
			}, now))
	})
	if err != nil {
		var dup *domain.DuplicateImportError
		if errors.As(err, &dup) {
			uc.recordDuplicate(dup)
		}
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.StatementsImported.Inc()
		uc.metrics.TransactionsImported.Add(float64(len(transactions)))
	}

	uc.logger.Info().
		Str("tenant_id", input.TenantID).
		Str("bank_id", input.BankID).
		Str("batch_id", batch.ID).
		Int("transactions", len(transactions)).
		Msg("statement imported")

	return &ImportStatementResult{Batch: batch, Transactions: transactions}, nil
}

// ImportInvoiceInput holds input for importing one invoice source file.
type ImportInvoiceInput struct {
	TenantID string
	FileName string
	Content  []byte
	// UpdateMode lets a same-tenant duplicate overwrite the stored values.
	UpdateMode bool
}

// ImportInvoiceResult is the stored invoice and what happened to it.
type ImportInvoiceResult struct {
	Invoice *domain.Invoice
	Outcome ImportOutcome
}

// ImportInvoice stores an invoice file once across all tenants.
func (uc *ImportUseCase) ImportInvoice(ctx context.Context, input ImportInvoiceInput) (result *ImportInvoiceResult, err error) {
	start := time.Now()
	defer func() { uc.observe("import_invoice", start, err) }()

	if err := domain.ValidateTenantID(input.TenantID); err != nil {
		return nil, err
	}
	if len(input.Content) == 0 {
		return nil, domain.NewValidationError("content", "invoice file is empty", nil)
	}

	hash := domain.FileHash(input.Content)

	err = inTx(ctx, uc.txManager, uc.retrier, func(txCtx context.Context, tx Transaction) error {
		existing, err := uc.ledger.Invoices.FindByContentHash(txCtx, tx, hash)
		if err != nil {
			return err
		}
		if existing != nil && (existing.TenantID != input.TenantID || !input.UpdateMode) {
			return duplicateInvoice(existing, input.TenantID, hash)
		}

		data, err := uc.parseInvoice(input.Content)
		if err != nil {
			return err
		}

		now := uc.now()
		if existing != nil {
			before := domain.MarshalState(existing)
			existing.ApplyData(data)
			existing.UpdatedAt = now
			if err := uc.ledger.Invoices.UpdateValues(txCtx, tx, existing); err != nil {
				return err
			}
			if err := uc.invoiceEvent(txCtx, tx, existing, domain.EventTypeInvoiceUpdated, now); err != nil {
				return err
			}
			if err := writeAudit(txCtx, uc.ledger, tx, &domain.AuditLog{
				ID:           uc.idGen.Generate(),
				TenantID:     input.TenantID,
				ActorID:      actorFrom(ctx, ""),
				Action:       domain.AuditActionInvoiceUpdate,
				ResourceType: domain.EntityInvoice,
				ResourceID:   existing.ID,
				BeforeState:  before,
				AfterState:   domain.MarshalState(existing),
				CreatedAt:    now,
			}); err != nil {
				return err
			}
			result = &ImportInvoiceResult{Invoice: existing, Outcome: ImportOutcomeUpdated}
			return nil
		}

		invoice := domain.NewInvoice(uc.idGen.Generate(), input.TenantID, hash, data, now)
		if err := uc.ledger.Invoices.Create(txCtx, tx, invoice); err != nil {
			return err
		}
		if err := uc.invoiceEvent(txCtx, tx, invoice, domain.EventTypeInvoiceImported, now); err != nil {
			return err
		}
		result = &ImportInvoiceResult{Invoice: invoice, Outcome: ImportOutcomeSuccess}
		return nil
	})
	if err != nil {
		var dup *domain.DuplicateImportError
		if errors.As(err, &dup) {
			if dup.ExistingID == "" && dup.SameTenant {
				// Lost the insert race: the unique index does not say whose row won.
				dup = uc.describeInvoiceDuplicate(ctx, input.TenantID, hash, dup)
				err = dup
			}
			uc.recordDuplicate(dup)
		}
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.InvoicesImported.WithLabelValues(string(result.Outcome)).Inc()
	}

	uc.logger.Info().
		Str("tenant_id", input.TenantID).
		Str("invoice_id", result.Invoice.ID).
		Str("outcome", string(result.Outcome)).
		Msg("invoice imported")

	return result, nil
}

// BulkImportFile is one file of a bulk invoice import.
type BulkImportFile struct {
	FileName string
	Content  []byte
}

// BulkImportInput holds input for importing many invoice files.
type BulkImportInput struct {
	TenantID   string
	Files      []BulkImportFile
	UpdateMode bool
}

// BulkImportItem is the outcome of one file.
type BulkImportItem struct {
	FileName  string
	Outcome   ImportOutcome
	InvoiceID string
	Err       error
}

// BulkImportResult holds every item outcome and the totals.
type BulkImportResult struct {
	Items      []BulkImportItem
	Succeeded  int
	Updated    int
	Duplicates int
	Failed     int
}

// ImportInvoices imports files one after another. A failing file is
// reported in its item and never stops the rest.
func (uc *ImportUseCase) ImportInvoices(ctx context.Context, input BulkImportInput) (*BulkImportResult, error) {
	if err := domain.ValidateTenantID(input.TenantID); err != nil {
		return nil, err
	}
	if len(input.Files) == 0 {
		return nil, domain.NewValidationError("files", "at least one file is required", nil)
	}
	if len(input.Files) > MaxBulkImportFiles {
		return nil, domain.NewValidationError("files", "too many files in one import", nil)
	}

	result := &BulkImportResult{Items: make([]BulkImportItem, 0, len(input.Files))}
	for _, file := range input.Files {
		item := BulkImportItem{FileName: file.FileName}

		if err := ctx.Err(); err != nil {
			item.Outcome = ImportOutcomeError
			item.Err = err
			result.Items = append(result.Items, item)
			result.Failed++
			continue
		}

		res, err := uc.ImportInvoice(ctx, ImportInvoiceInput{
			TenantID:   input.TenantID,
			FileName:   file.FileName,
			Content:    file.Content,
			UpdateMode: input.UpdateMode,
		})

		switch {
		case err == nil:
			item.Outcome = res.Outcome
			item.InvoiceID = res.Invoice.ID
			if res.Outcome == ImportOutcomeUpdated {
				result.Updated++
			} else {
				result.Succeeded++
			}
		case errors.Is(err, domain.ErrDuplicateImport):
			item.Outcome = ImportOutcomeDuplicate
			item.Err = err
			var dup *domain.DuplicateImportError
			if errors.As(err, &dup) {
				item.InvoiceID = dup.ExistingID
			}
			result.Duplicates++
		default:
			item.Outcome = ImportOutcomeError
			item.Err = err
			result.Failed++
			uc.logger.Warn().Err(err).Str("file", file.FileName).Msg("bulk invoice import item failed")
		}

		result.Items = append(result.Items, item)
	}

	return result, nil
}

func (uc *ImportUseCase) parseInvoice(content []byte) (*domain.InvoiceData, error) {
	data, err := uc.invoiceParser.Parse(content)
	if err != nil {
		return nil, domain.NewValidationError("content", err.Error(), err)
	}
	if err := data.Validate(); err != nil {
		return nil, err
	}
	return data, nil
}

func (uc *ImportUseCase) invoiceEvent(ctx context.Context, tx Transaction, inv *domain.Invoice, eventType string, now time.Time) error {
	return writeEvent(ctx, uc.ledger, tx, domain.NewOutboxEvent(
		uc.idGen.Generate(), inv.TenantID,
		domain.AggregateTypeInvoice, inv.ID, eventType,
		map[string]any{
			"invoice_id":     inv.ID,
			"invoice_number": inv.InvoiceNumber,
			"gross_value":    inv.GrossValue.StringFixed(domain.MoneyScale),
			"net_value":      inv.NetValue.StringFixed(domain.MoneyScale),
			"content_hash":   inv.ContentHash,
		}, now))
}

func (uc *ImportUseCase) describeInvoiceDuplicate(ctx context.Context, tenantID, hash string, fallback *domain.DuplicateImportError) *domain.DuplicateImportError {
	existing, err := uc.ledger.Invoices.FindByContentHash(ctx, nil, hash)
	if err != nil || existing == nil {
		return fallback
	}
	return duplicateInvoice(existing, tenantID, hash)
}

func (uc *ImportUseCase) recordDuplicate(dup *domain.DuplicateImportError) {
	scope := "same_tenant"
	if !dup.SameTenant {
		scope = "other_tenant"
	}
	if uc.metrics != nil {
		uc.metrics.DuplicateImports.WithLabelValues(dup.Kind, scope).Inc()
	}
	uc.logger.Info().
		Str("kind", dup.Kind).
		Str("file_hash", dup.FileHash).
		Str("scope", scope).
		Msg("duplicate import rejected")
}

func duplicateInvoice(existing *domain.Invoice, tenantID, hash string) *domain.DuplicateImportError {
	if existing.TenantID != tenantID {
		return &domain.DuplicateImportError{Kind: domain.ImportKindInvoice, FileHash: hash, SameTenant: false}
	}
	return &domain.DuplicateImportError{
		Kind:       domain.ImportKindInvoice,
		FileHash:   hash,
		ExistingID: existing.ID,
		SameTenant: true,
	}
}
