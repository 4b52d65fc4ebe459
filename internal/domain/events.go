package domain

import "time"

// Event types
const (
	EventTypeStatementImported     = "statement.imported"
	EventTypeInvoiceImported       = "invoice.imported"
	EventTypeInvoiceUpdated        = "invoice.updated"
	EventTypeInvoiceAllocated      = "invoice.allocated"
	EventTypeTransactionReconciled = "transaction.reconciled"
	EventTypeTransactionCreated    = "transaction.created"
	EventTypeTransactionIgnored    = "transaction.ignored"
	EventTypeTransactionReversed   = "transaction.reversed"
	EventTypePaymentRecorded       = "payment.recorded"
	EventTypePaymentReversed       = "payment.reversed"
)

// Aggregate types
const (
	AggregateTypeImportBatch = "import_batch"
	AggregateTypeInvoice     = "invoice"
	AggregateTypeTransaction = "transaction"
	AggregateTypePayment     = "payment"
)

// OutboxEvent represents an event to be published
type OutboxEvent struct {
	ID            string
	TenantID      string
	AggregateID   string
	AggregateType string
	EventType     string
	Payload       map[string]any
	CreatedAt     time.Time
	PublishedAt   *time.Time
	Published     bool
}

// NewOutboxEvent builds an unpublished event.
func NewOutboxEvent(id, tenantID, aggregateType, aggregateID, eventType string, payload map[string]any, now time.Time) *OutboxEvent {
	return &OutboxEvent{
		ID:            id,
		TenantID:      tenantID,
		AggregateID:   aggregateID,
		AggregateType: aggregateType,
		EventType:     eventType,
		Payload:       payload,
		CreatedAt:     now,
	}
}
