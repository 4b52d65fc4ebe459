package domain

import (
	"errors"
	"testing"
	"time"
)

func TestImportedTransaction_Transitions(t *testing.T) {
	tests := []struct {
		from TransactionStatus
		to   TransactionStatus
		ok   bool
	}{
		{TransactionStatusPending, TransactionStatusReconciled, true},
		{TransactionStatusPending, TransactionStatusCreated, true},
		{TransactionStatusPending, TransactionStatusIgnored, true},
		{TransactionStatusReconciled, TransactionStatusPending, true},
		{TransactionStatusCreated, TransactionStatusPending, true},
		{TransactionStatusIgnored, TransactionStatusPending, false},
		{TransactionStatusReconciled, TransactionStatusCreated, false},
		{TransactionStatusPending, TransactionStatusPending, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			tx := &ImportedTransaction{Status: tt.from}
			if got := tx.CanTransition(tt.to); got != tt.ok {
				t.Fatalf("expected %v, got %v", tt.ok, got)
			}
		})
	}
}

func TestImportedTransaction_CommitAndReopen(t *testing.T) {
	now := time.Now()
	tx := &ImportedTransaction{ID: "tx-1", Status: TransactionStatusPending}

	if err := tx.Commit(TransactionStatusReconciled, LinkTypeExpense, "exp-1", now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := tx.Commit(TransactionStatusCreated, LinkTypeRevenue, "rev-1", now); !errors.Is(err, ErrStaleState) {
		t.Fatalf("expected stale state on second commit, got %v", err)
	}

	if err := tx.Reopen("", now); !errors.Is(err, ErrReasonRequired) {
		t.Fatalf("expected reason required, got %v", err)
	}
	if err := tx.Reopen("wrong match", now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tx.Status != TransactionStatusPending || tx.LinkID != "" || tx.ReversalReason != "wrong match" {
		t.Fatalf("unexpected state after reopen: %+v", tx)
	}

	if err := tx.Reopen("again", now); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error reversing a pending transaction, got %v", err)
	}
}

func TestIgnoredIsTerminal(t *testing.T) {
	tx := &ImportedTransaction{ID: "tx-1", Status: TransactionStatusIgnored}
	if err := tx.Reopen("un-ignore", time.Now()); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected invalid transition, got %v", err)
	}
}

func TestFileHash(t *testing.T) {
	a := FileHash([]byte("statement"))
	b := FileHash([]byte("statement"))
	c := FileHash([]byte("statement2"))

	if a != b {
		t.Fatalf("expected stable hash")
	}
	if a == c {
		t.Fatalf("expected different content to hash differently")
	}
	if len(a) != 64 {
		t.Fatalf("expected hex sha-256, got %d chars", len(a))
	}
}

func TestBalanceComponents_Total(t *testing.T) {
	c := BalanceComponents{
		InitialBalance:   dec("1000.00"),
		Revenue:          dec("200.00"),
		Receipts:         dec("950.00"),
		ReversedPayments: dec("100.00"),
		Payments:         dec("400.00"),
		PaidExpenses:     dec("150.00"),
	}
	if got := c.Total(); !got.Equal(dec("1700.00")) {
		t.Fatalf("expected 1700.00, got %s", got)
	}
}

func TestErrorsUnwrapToCategories(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"validation", NewValidationError("f", "bad", nil), ErrValidation},
		{"tolerance", &ToleranceExceededError{}, ErrToleranceExceeded},
		{"duplicate", &DuplicateImportError{Kind: ImportKindInvoice}, ErrDuplicateImport},
		{"stale", &StaleStateError{}, ErrStaleState},
		{"not found", NewNotFoundError(EntityInvoice, "x"), ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !errors.Is(tt.err, tt.want) {
				t.Fatalf("expected %v to unwrap to %v", tt.err, tt.want)
			}
		})
	}

	dup := &DuplicateImportError{Kind: ImportKindInvoice, SameTenant: false}
	if dup.Error() != "duplicate invoice import: imported elsewhere" {
		t.Fatalf("unexpected message: %s", dup.Error())
	}
}
