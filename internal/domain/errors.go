package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Error categories. Every typed error below unwraps to one of these.
var (
	ErrValidation         = errors.New("validation failed")
	ErrToleranceExceeded  = errors.New("difference exceeds adjustment tolerance")
	ErrDuplicateImport    = errors.New("duplicate import")
	ErrStaleState         = errors.New("stale state")
	ErrNotFound           = errors.New("not found")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrReasonRequired     = errors.New("reason is required")
	ErrPaymentsExist      = errors.New("invoice has non-reversed payments")
	ErrAllocationMismatch = errors.New("allocation total does not match invoice gross value")
	ErrInvalidAmount      = errors.New("amount must be positive")
	ErrTenantRequired     = errors.New("tenant id is required")
)

// Entity names used in NotFoundError and StaleStateError.
const (
	EntityInvoice     = "invoice"
	EntityAllocation  = "allocation"
	EntityPayable     = "payable"
	EntityPayment     = "payment"
	EntityExpense     = "expense"
	EntityRevenue     = "revenue"
	EntityBank        = "bank"
	EntityPayee       = "payee"
	EntityTransaction = "transaction"
	EntityBatch       = "import_batch"
)

// ValidationError reports caller input that violates an invariant.
type ValidationError struct {
	Field  string
	Reason string
	Err    error
}

// NewValidationError builds a ValidationError. cause may be nil.
func NewValidationError(field, reason string, cause error) *ValidationError {
	return &ValidationError{Field: field, Reason: reason, Err: cause}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation failed: %s", e.Reason)
	}
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrValidation, e.Err}
	}
	return []error{ErrValidation}
}

// ToleranceExceededError reports a reconciliation difference above the ceiling.
type ToleranceExceededError struct {
	Difference decimal.Decimal
	Ceiling    decimal.Decimal
}

func (e *ToleranceExceededError) Error() string {
	return fmt.Sprintf("difference %s exceeds adjustment ceiling %s",
		e.Difference.StringFixed(MoneyScale), e.Ceiling.StringFixed(MoneyScale))
}

func (e *ToleranceExceededError) Unwrap() error { return ErrToleranceExceeded }

// Import kinds reported by DuplicateImportError.
const (
	ImportKindStatement = "statement"
	ImportKindInvoice   = "invoice"
)

// DuplicateImportError reports a content hash that was already imported.
type DuplicateImportError struct {
	Kind       string
	FileHash   string
	ExistingID string
	// SameTenant is false when the file was imported by another tenant.
	// ExistingID is left empty in that case.
	SameTenant bool
}

func (e *DuplicateImportError) Error() string {
	where := "already imported here"
	if !e.SameTenant {
		where = "imported elsewhere"
	}
	return fmt.Sprintf("duplicate %s import: %s", e.Kind, where)
}

func (e *DuplicateImportError) Unwrap() error { return ErrDuplicateImport }

// StaleStateError reports that a concurrent change invalidated an assumption.
type StaleStateError struct {
	Entity string
	ID     string
	Reason string
}

func (e *StaleStateError) Error() string {
	return fmt.Sprintf("stale %s %s: %s", e.Entity, e.ID, e.Reason)
}

func (e *StaleStateError) Unwrap() error { return ErrStaleState }

// NotFoundError reports a missing entity or one owned by another tenant.
type NotFoundError struct {
	Entity string
	ID     string
}

// NewNotFoundError builds a NotFoundError.
func NewNotFoundError(entity, id string) *NotFoundError {
	return &NotFoundError{Entity: entity, ID: id}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }
