package domain

import (
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Confidence is the quality tier of a match suggestion.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

func (c Confidence) rank() int {
	switch c {
	case ConfidenceHigh:
		return 0
	case ConfidenceMedium:
		return 1
	default:
		return 2
	}
}

// Matching thresholds.
const (
	// MissingDateDays is used as the date distance when a candidate has no date.
	MissingDateDays = 999
	// CloseDateDays is the largest date distance that still counts as near.
	CloseDateDays = 5
)

// CloseRatio is the relative amount difference below which a candidate is close.
var CloseRatio = decimal.RequireFromString("0.05")

// CandidateKind names what a suggestion points at.
type CandidateKind string

const (
	CandidateExpense         CandidateKind = "expense"
	CandidateRevenue         CandidateKind = "revenue"
	CandidateInvoice         CandidateKind = "invoice"
	CandidateAlreadyImported CandidateKind = "already_imported"
)

// MatchCandidate is one open ledger item a transaction may be matched to.
type MatchCandidate struct {
	Kind         CandidateKind
	ID           string
	AllocationID string
	Amount       decimal.Decimal
	Date         *time.Time
	Description  string
}

// MatchSuggestion is a candidate accepted by the matching rules.
type MatchSuggestion struct {
	TransactionID string
	Candidate     MatchCandidate
	Confidence    Confidence
	AmountDiff    decimal.Decimal
	DateDiffDays  int
	Exact         bool
}

// RankCandidates scores every candidate against tx and returns the accepted
// ones ordered by confidence tier. Order inside a tier is the input order.
func RankCandidates(tx *ImportedTransaction, candidates []MatchCandidate) []MatchSuggestion {
	suggestions := make([]MatchSuggestion, 0, len(candidates))
	for _, c := range candidates {
		s, ok := scoreCandidate(tx, c)
		if !ok {
			continue
		}
		suggestions = append(suggestions, s)
	}

	sort.SliceStable(suggestions, func(i, j int) bool {
		return suggestions[i].Confidence.rank() < suggestions[j].Confidence.rank()
	})

	return suggestions
}

// BestMatch returns the top ranked suggestion, or nil.
func BestMatch(tx *ImportedTransaction, candidates []MatchCandidate) *MatchSuggestion {
	ranked := RankCandidates(tx, candidates)
	if len(ranked) == 0 {
		return nil
	}
	best := ranked[0]
	return &best
}

// AlreadyImported is the synthetic suggestion for a transaction whose natural
// key is already present in the ledger.
func AlreadyImported(tx *ImportedTransaction, ledgerKind CandidateKind, ledgerID string) *MatchSuggestion {
	date := tx.TransactionDate
	return &MatchSuggestion{
		TransactionID: tx.ID,
		Candidate: MatchCandidate{
			Kind:        CandidateAlreadyImported,
			ID:          ledgerID,
			Amount:      tx.Amount,
			Date:        &date,
			Description: string(ledgerKind),
		},
		Confidence: ConfidenceHigh,
		AmountDiff: decimal.Zero,
		Exact:      true,
	}
}

func scoreCandidate(tx *ImportedTransaction, c MatchCandidate) (MatchSuggestion, bool) {
	diff := c.Amount.Sub(tx.Amount).Abs()
	exact := diff.LessThan(Epsilon)
	closeAmount := false
	if !tx.Amount.IsZero() {
		closeAmount = diff.Div(tx.Amount.Abs()).LessThan(CloseRatio)
	}
	if !exact && !closeAmount {
		return MatchSuggestion{}, false
	}

	days := DateDiffDays(c.Date, tx.TransactionDate)
	near := days <= CloseDateDays

	var confidence Confidence
	switch {
	case exact && near:
		confidence = ConfidenceHigh
	case exact, near:
		confidence = ConfidenceMedium
	default:
		confidence = ConfidenceLow
	}

	return MatchSuggestion{
		TransactionID: tx.ID,
		Candidate:     c,
		Confidence:    confidence,
		AmountDiff:    diff,
		DateDiffDays:  days,
		Exact:         exact,
	}, true
}

// DateDiffDays returns |a - b| in whole days, or MissingDateDays when a is nil.
func DateDiffDays(a *time.Time, b time.Time) int {
	if a == nil || a.IsZero() {
		return MissingDateDays
	}
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	da := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	db := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(math.Abs(da.Sub(db).Hours() / 24))
}

// OpenReceivable is one row of the credit matching pool: an open invoice,
// possibly repeated once per allocation.
type OpenReceivable struct {
	InvoiceID           string
	AllocationID        string
	InvoiceNumber       string
	NetValue            decimal.Decimal
	TotalReceived       decimal.Decimal
	ExpectedReceiptDate *time.Time
}

// ReceivableCandidates turns the pool into one candidate per invoice. When an
// invoice appears several times the first row wins.
func ReceivableCandidates(pool []OpenReceivable) []MatchCandidate {
	seen := make(map[string]struct{}, len(pool))
	candidates := make([]MatchCandidate, 0, len(pool))
	for _, r := range pool {
		if _, ok := seen[r.InvoiceID]; ok {
			continue
		}
		seen[r.InvoiceID] = struct{}{}
		candidates = append(candidates, MatchCandidate{
			Kind:         CandidateInvoice,
			ID:           r.InvoiceID,
			AllocationID: r.AllocationID,
			Amount:       r.NetValue,
			Date:         r.ExpectedReceiptDate,
			Description:  r.InvoiceNumber,
		})
	}
	return candidates
}

// ExpenseCandidates turns open expenses into debit candidates.
func ExpenseCandidates(expenses []*Expense) []MatchCandidate {
	candidates := make([]MatchCandidate, 0, len(expenses))
	for _, e := range expenses {
		if e.Status != ExpenseStatusPending {
			continue
		}
		candidates = append(candidates, MatchCandidate{
			Kind:        CandidateExpense,
			ID:          e.ID,
			Amount:      e.Amount,
			Date:        e.DueDate,
			Description: e.Description,
		})
	}
	return candidates
}
