package usecase

import (
	"context"
	"time"

	"github.com/iho/goreconcile/internal/domain"
)

// MatchingUseCase suggests ledger items for imported transactions.
// It only reads.
type MatchingUseCase struct {
	options
	ledger Ledger
}

// NewMatchingUseCase creates a new MatchingUseCase.
func NewMatchingUseCase(ledger Ledger, opts ...Option) *MatchingUseCase {
	return &MatchingUseCase{
		options: newOptions(opts),
		ledger:  ledger,
	}
}

// TransactionSuggestion pairs a transaction with its best match, if any.
type TransactionSuggestion struct {
	Transaction *domain.ImportedTransaction
	Suggestion  *domain.MatchSuggestion
}

type candidatePools struct {
	debits  []domain.MatchCandidate
	credits []domain.MatchCandidate
}

// Suggest returns the best match for a pending transaction, or nil when
// nothing qualifies.
func (uc *MatchingUseCase) Suggest(ctx context.Context, tenantID, transactionID string) (suggestion *domain.MatchSuggestion, err error) {
	start := time.Now()
	defer func() { uc.observe("suggest", start, err) }()

	if err := domain.ValidateTenantID(tenantID); err != nil {
		return nil, err
	}
	if err := domain.ValidateID("transaction_id", transactionID); err != nil {
		return nil, err
	}

	tx, err := uc.ledger.Statements.GetTransaction(ctx, tenantID, transactionID)
	if err != nil {
		return nil, err
	}
	if tx.Status != domain.TransactionStatusPending {
		return nil, nil
	}

	pools, err := uc.loadPools(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	return uc.suggest(ctx, tx, pools)
}

// SuggestForBatch returns one entry per transaction of the batch. Committed
// and ignored transactions carry no suggestion.
func (uc *MatchingUseCase) SuggestForBatch(ctx context.Context, tenantID, batchID string) (result []TransactionSuggestion, err error) {
	start := time.Now()
	defer func() { uc.observe("suggest_batch", start, err) }()

	if err := domain.ValidateTenantID(tenantID); err != nil {
		return nil, err
	}
	if err := domain.ValidateID("batch_id", batchID); err != nil {
		return nil, err
	}

	transactions, err := uc.ledger.Statements.ListTransactionsByBatch(ctx, tenantID, batchID)
	if err != nil {
		return nil, err
	}

	pools, err := uc.loadPools(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	result = make([]TransactionSuggestion, 0, len(transactions))
	for _, tx := range transactions {
		item := TransactionSuggestion{Transaction: tx}
		if tx.Status == domain.TransactionStatusPending {
			item.Suggestion, err = uc.suggest(ctx, tx, pools)
			if err != nil {
				return nil, err
			}
		}
		result = append(result, item)
	}

	return result, nil
}

func (uc *MatchingUseCase) loadPools(ctx context.Context, tenantID string) (*candidatePools, error) {
	expenses, err := uc.ledger.Expenses.ListOpen(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	receivables, err := uc.ledger.Invoices.ListOpenReceivables(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	return &candidatePools{
		debits:  domain.ExpenseCandidates(expenses),
		credits: domain.ReceivableCandidates(receivables),
	}, nil
}

func (uc *MatchingUseCase) suggest(ctx context.Context, tx *domain.ImportedTransaction, pools *candidatePools) (*domain.MatchSuggestion, error) {
	imported, err := uc.alreadyImported(ctx, tx)
	if err != nil {
		return nil, err
	}
	if imported != nil {
		uc.recordSuggestion(imported)
		return imported, nil
	}

	candidates := pools.credits
	if !tx.IsCredit() {
		candidates = pools.debits
	}

	best := domain.BestMatch(tx, candidates)
	if best != nil {
		uc.recordSuggestion(best)
	}
	return best, nil
}

// alreadyImported detects overlapping statements: the natural key is already
// linked to another transaction's ledger row or committed line.
func (uc *MatchingUseCase) alreadyImported(ctx context.Context, tx *domain.ImportedTransaction) (*domain.MatchSuggestion, error) {
	if tx.ExternalID == "" {
		return nil, nil
	}

	expense, err := uc.ledger.Expenses.FindByExternalID(ctx, tx.TenantID, tx.BankID, tx.ExternalID, tx.ID)
	if err != nil {
		return nil, err
	}
	if expense != nil {
		return domain.AlreadyImported(tx, domain.CandidateExpense, expense.ID), nil
	}

	revenue, err := uc.ledger.Revenues.FindByExternalID(ctx, tx.TenantID, tx.BankID, tx.ExternalID, tx.ID)
	if err != nil {
		return nil, err
	}
	if revenue != nil {
		return domain.AlreadyImported(tx, domain.CandidateRevenue, revenue.ID), nil
	}

	// Receipts and payments carry no statement key; the committed line does.
	committed, err := uc.ledger.Statements.FindCommittedByExternalID(ctx, tx.TenantID, tx.BankID, tx.ExternalID, tx.ID)
	if err != nil {
		return nil, err
	}
	if committed != nil {
		return domain.AlreadyImported(tx, domain.CandidateKind(committed.LinkType), committed.ID), nil
	}

	return nil, nil
}

func (uc *MatchingUseCase) recordSuggestion(s *domain.MatchSuggestion) {
	if uc.metrics != nil {
		uc.metrics.MatchSuggestions.WithLabelValues(string(s.Confidence)).Inc()
	}
	uc.logger.Debug().
		Str("transaction_id", s.TransactionID).
		Str("candidate", string(s.Candidate.Kind)).
		Str("candidate_id", s.Candidate.ID).
		Str("confidence", string(s.Confidence)).
		Msg("match suggested")
}
