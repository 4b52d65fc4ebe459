package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/goreconcile/internal/domain"
	"github.com/iho/goreconcile/internal/usecase"
)

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string         `json:"error"`
	Message string         `json:"message,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

// Money renders an amount with two decimal places.
func Money(d decimal.Decimal) string {
	return d.StringFixed(domain.MoneyScale)
}

func date(t time.Time) string {
	return t.Format(time.DateOnly)
}

func datePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := date(*t)
	return &s
}

// ImportBatchResponse represents an imported statement file.
type ImportBatchResponse struct {
	ID               string    `json:"id"`
	BankID           string    `json:"bank_id"`
	FileName         string    `json:"file_name"`
	FileHash         string    `json:"file_hash"`
	TransactionCount int       `json:"transaction_count"`
	CreatedAt        time.Time `json:"created_at"`
}

// TransactionResponse represents an imported bank transaction.
type TransactionResponse struct {
	ID              string    `json:"id"`
	BankID          string    `json:"bank_id"`
	ImportBatchID   string    `json:"import_batch_id"`
	ExternalID      string    `json:"external_id,omitempty"`
	Amount          string    `json:"amount"`
	Type            string    `json:"type"`
	TransactionDate string    `json:"transaction_date"`
	Description     string    `json:"description"`
	Status          string    `json:"status"`
	LinkType        string    `json:"link_type,omitempty"`
	LinkID          string    `json:"link_id,omitempty"`
	ReversalReason  string    `json:"reversal_reason,omitempty"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// TransactionFromDomain converts a domain transaction to response.
func TransactionFromDomain(t *domain.ImportedTransaction) *TransactionResponse {
	return &TransactionResponse{
		ID:              t.ID,
		BankID:          t.BankID,
		ImportBatchID:   t.ImportBatchID,
		ExternalID:      t.ExternalID,
		Amount:          Money(t.Amount),
		Type:            string(t.Type),
		TransactionDate: date(t.TransactionDate),
		Description:     t.Description,
		Status:          string(t.Status),
		LinkType:        string(t.LinkType),
		LinkID:          t.LinkID,
		ReversalReason:  t.ReversalReason,
		UpdatedAt:       t.UpdatedAt,
	}
}

// StatementImportResponse is the result of a statement import.
type StatementImportResponse struct {
	Batch        ImportBatchResponse    `json:"batch"`
	Transactions []*TransactionResponse `json:"transactions"`
}

// StatementImportFromResult converts an import result to response.
func StatementImportFromResult(r *usecase.ImportStatementResult) *StatementImportResponse {
	resp := &StatementImportResponse{
		Batch: ImportBatchResponse{
			ID:               r.Batch.ID,
			BankID:           r.Batch.BankID,
			FileName:         r.Batch.FileName,
			FileHash:         r.Batch.FileHash,
			TransactionCount: r.Batch.TransactionCount,
			CreatedAt:        r.Batch.CreatedAt,
		},
		Transactions: make([]*TransactionResponse, len(r.Transactions)),
	}
	for i, t := range r.Transactions {
		resp.Transactions[i] = TransactionFromDomain(t)
	}
	return resp
}

// InvoiceResponse represents an invoice in API responses.
type InvoiceResponse struct {
	ID                  string    `json:"id"`
	InvoiceNumber       string    `json:"invoice_number"`
	IssuerRef           string    `json:"issuer_ref,omitempty"`
	PayerRef            string    `json:"payer_ref,omitempty"`
	IssueDate           string    `json:"issue_date"`
	GrossValue          string    `json:"gross_value"`
	TotalDeductions     string    `json:"total_deductions"`
	NetValue            string    `json:"net_value"`
	TotalReceived       string    `json:"total_received"`
	PendingBalance      string    `json:"pending_balance"`
	Status              string    `json:"status"`
	ExpectedReceiptDate *string   `json:"expected_receipt_date,omitempty"`
	ContentHash         string    `json:"content_hash"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// InvoiceFromDomain converts a domain invoice to response.
func InvoiceFromDomain(inv *domain.Invoice) *InvoiceResponse {
	return &InvoiceResponse{
		ID:                  inv.ID,
		InvoiceNumber:       inv.InvoiceNumber,
		IssuerRef:           inv.IssuerRef,
		PayerRef:            inv.PayerRef,
		IssueDate:           date(inv.IssueDate),
		GrossValue:          Money(inv.GrossValue),
		TotalDeductions:     Money(inv.TotalDeductions),
		NetValue:            Money(inv.NetValue),
		TotalReceived:       Money(inv.TotalReceived),
		PendingBalance:      Money(inv.NetValue.Sub(inv.TotalReceived)),
		Status:              string(inv.Status),
		ExpectedReceiptDate: datePtr(inv.ExpectedReceiptDate),
		ContentHash:         inv.ContentHash,
		CreatedAt:           inv.CreatedAt,
		UpdatedAt:           inv.UpdatedAt,
	}
}

// InvoiceImportResponse is the result of a single invoice import.
type InvoiceImportResponse struct {
	Outcome string           `json:"outcome"`
	Invoice *InvoiceResponse `json:"invoice"`
}

// BulkImportItemResponse is the outcome of one file of a bulk import.
type BulkImportItemResponse struct {
	FileName  string `json:"file_name"`
	Outcome   string `json:"outcome"`
	InvoiceID string `json:"invoice_id,omitempty"`
	Error     string `json:"error,omitempty"`
}

// BulkImportResponse is the result of a bulk invoice import.
type BulkImportResponse struct {
	Items      []BulkImportItemResponse `json:"items"`
	Succeeded  int                      `json:"succeeded"`
	Updated    int                      `json:"updated"`
	Duplicates int                      `json:"duplicates"`
	Failed     int                      `json:"failed"`
}

// BulkImportFromResult converts a bulk import result to response.
func BulkImportFromResult(r *usecase.BulkImportResult) *BulkImportResponse {
	resp := &BulkImportResponse{
		Items:      make([]BulkImportItemResponse, len(r.Items)),
		Succeeded:  r.Succeeded,
		Updated:    r.Updated,
		Duplicates: r.Duplicates,
		Failed:     r.Failed,
	}
	for i, item := range r.Items {
		resp.Items[i] = BulkImportItemResponse{
			FileName:  item.FileName,
			Outcome:   string(item.Outcome),
			InvoiceID: item.InvoiceID,
		}
		if item.Err != nil {
			resp.Items[i].Error = item.Err.Error()
		}
	}
	return resp
}

// AllocationResponse represents an invoice allocation.
type AllocationResponse struct {
	ID                  string `json:"id"`
	InvoiceID           string `json:"invoice_id"`
	PayeeID             string `json:"payee_id"`
	AllocatedGrossValue string `json:"allocated_gross_value"`
	AdminFee            string `json:"admin_fee"`
	AmountToPay         string `json:"amount_to_pay"`
}

// AllocationFromDomain converts a domain allocation to response.
func AllocationFromDomain(a *domain.InvoiceAllocation) AllocationResponse {
	return AllocationResponse{
		ID:                  a.ID,
		InvoiceID:           a.InvoiceID,
		PayeeID:             a.PayeeID,
		AllocatedGrossValue: Money(a.AllocatedGrossValue),
		AdminFee:            Money(a.AdminFee),
		AmountToPay:         Money(a.AmountToPay),
	}
}

// AllocationsFromDomain converts a list of allocations.
func AllocationsFromDomain(list []*domain.InvoiceAllocation) []AllocationResponse {
	out := make([]AllocationResponse, len(list))
	for i, a := range list {
		out[i] = AllocationFromDomain(a)
	}
	return out
}

// PayableResponse represents an amount owed to a payee.
type PayableResponse struct {
	ID                  string  `json:"id"`
	InvoiceID           string  `json:"invoice_id"`
	AllocationID        string  `json:"allocation_id"`
	PayeeID             string  `json:"payee_id"`
	AmountToPay         string  `json:"amount_to_pay"`
	PaidTotal           string  `json:"paid_total"`
	PendingBalance      string  `json:"pending_balance"`
	Status              string  `json:"status"`
	ExpectedPaymentDate *string `json:"expected_payment_date,omitempty"`
}

// PayableFromDomain converts a domain payable to response.
func PayableFromDomain(p *domain.Payable) PayableResponse {
	return PayableResponse{
		ID:                  p.ID,
		InvoiceID:           p.InvoiceID,
		AllocationID:        p.AllocationID,
		PayeeID:             p.PayeeID,
		AmountToPay:         Money(p.AmountToPay),
		PaidTotal:           Money(p.PaidTotal),
		PendingBalance:      Money(p.PendingBalance()),
		Status:              string(p.Status),
		ExpectedPaymentDate: datePtr(p.ExpectedPaymentDate),
	}
}

// PayablesFromDomain converts a list of payables.
func PayablesFromDomain(list []*domain.Payable) []PayableResponse {
	out := make([]PayableResponse, len(list))
	for i, p := range list {
		out[i] = PayableFromDomain(p)
	}
	return out
}

// AllocateInvoiceResponse is the stored allocation set of an invoice.
type AllocateInvoiceResponse struct {
	Allocations []AllocationResponse `json:"allocations"`
	Payables    []PayableResponse    `json:"payables"`
}

// PaymentResponse represents a payment.
type PaymentResponse struct {
	ID               string     `json:"id"`
	PayableID        string     `json:"payable_id"`
	BankID           string     `json:"bank_id"`
	Amount           string     `json:"amount"`
	AdjustmentAmount string     `json:"adjustment_amount"`
	PaymentDate      string     `json:"payment_date"`
	TransactionID    string     `json:"transaction_id,omitempty"`
	ReversedAt       *time.Time `json:"reversed_at,omitempty"`
	ReversalReason   string     `json:"reversal_reason,omitempty"`
}

// PaymentFromDomain converts a domain payment to response.
func PaymentFromDomain(p *domain.Payment) *PaymentResponse {
	return &PaymentResponse{
		ID:               p.ID,
		PayableID:        p.PayableID,
		BankID:           p.BankID,
		Amount:           Money(p.Amount),
		AdjustmentAmount: Money(p.AdjustmentAmount),
		PaymentDate:      date(p.PaymentDate),
		TransactionID:    p.TransactionID,
		ReversedAt:       p.ReversedAt,
		ReversalReason:   p.ReversalReason,
	}
}

// PaymentResultResponse is a payment with the payable it changed.
type PaymentResultResponse struct {
	Payment *PaymentResponse `json:"payment"`
	Payable PayableResponse  `json:"payable"`
}

// CandidateResponse is a ledger item proposed for a transaction.
type CandidateResponse struct {
	Kind         string  `json:"kind"`
	ID           string  `json:"id"`
	AllocationID string  `json:"allocation_id,omitempty"`
	Amount       string  `json:"amount"`
	Date         *string `json:"date,omitempty"`
	Description  string  `json:"description,omitempty"`
}

// SuggestionResponse is the best match for a transaction.
type SuggestionResponse struct {
	TransactionID string            `json:"transaction_id"`
	Candidate     CandidateResponse `json:"candidate"`
	Confidence    string            `json:"confidence"`
	AmountDiff    string            `json:"amount_diff"`
	DateDiffDays  int               `json:"date_diff_days"`
	Exact         bool              `json:"exact"`
}

// SuggestionFromDomain converts a suggestion to response. A nil suggestion
// yields nil.
func SuggestionFromDomain(s *domain.MatchSuggestion) *SuggestionResponse {
	if s == nil {
		return nil
	}
	return &SuggestionResponse{
		TransactionID: s.TransactionID,
		Candidate: CandidateResponse{
			Kind:         string(s.Candidate.Kind),
			ID:           s.Candidate.ID,
			AllocationID: s.Candidate.AllocationID,
			Amount:       Money(s.Candidate.Amount),
			Date:         datePtr(s.Candidate.Date),
			Description:  s.Candidate.Description,
		},
		Confidence:   string(s.Confidence),
		AmountDiff:   Money(s.AmountDiff),
		DateDiffDays: s.DateDiffDays,
		Exact:        s.Exact,
	}
}

// TransactionSuggestionResponse pairs a pending transaction with its best match.
type TransactionSuggestionResponse struct {
	Transaction *TransactionResponse `json:"transaction"`
	Suggestion  *SuggestionResponse  `json:"suggestion"`
}

// BatchSuggestionsFromResult converts batch suggestions to response.
func BatchSuggestionsFromResult(list []usecase.TransactionSuggestion) []TransactionSuggestionResponse {
	out := make([]TransactionSuggestionResponse, len(list))
	for i, s := range list {
		out[i] = TransactionSuggestionResponse{
			Transaction: TransactionFromDomain(s.Transaction),
			Suggestion:  SuggestionFromDomain(s.Suggestion),
		}
	}
	return out
}

// SettlementShareResponse is one invoice's part of a settlement.
type SettlementShareResponse struct {
	InvoiceID  string `json:"invoice_id"`
	Cash       string `json:"cash"`
	Credited   string `json:"credited"`
	Adjustment string `json:"adjustment"`
}

// SettlementPreviewResponse is the plan a credit commit would apply.
type SettlementPreviewResponse struct {
	TransactionAmount string                    `json:"transaction_amount"`
	TotalSelected     string                    `json:"total_selected"`
	Difference        string                    `json:"difference"`
	NeedsAdjustment   bool                      `json:"needs_adjustment"`
	ReasonRequired    bool                      `json:"reason_required"`
	Shares            []SettlementShareResponse `json:"shares"`
}

// SettlementPreviewFromResult converts a preview to response.
func SettlementPreviewFromResult(r *usecase.PreviewResult) *SettlementPreviewResponse {
	p := r.Plan
	resp := &SettlementPreviewResponse{
		TransactionAmount: Money(p.TransactionAmount),
		TotalSelected:     Money(p.TotalSelected),
		Difference:        Money(p.Difference),
		NeedsAdjustment:   p.NeedsAdjustment,
		ReasonRequired:    r.ReasonRequired,
		Shares:            make([]SettlementShareResponse, len(p.Shares)),
	}
	for i, s := range p.Shares {
		resp.Shares[i] = SettlementShareResponse{
			InvoiceID:  s.InvoiceID,
			Cash:       Money(s.Cash),
			Credited:   Money(s.Credited),
			Adjustment: Money(s.Adjustment),
		}
	}
	return resp
}

// AdjustmentResponse represents a recorded difference.
type AdjustmentResponse struct {
	ID               string `json:"id"`
	Type             string `json:"type"`
	ExpectedAmount   string `json:"expected_amount"`
	ReceivedAmount   string `json:"received_amount"`
	AdjustmentAmount string `json:"adjustment_amount"`
	Reason           string `json:"reason"`
	Notes            string `json:"notes,omitempty"`
}

// ReceiptResponse represents cash credited to an invoice.
type ReceiptResponse struct {
	ID               string `json:"id"`
	InvoiceID        string `json:"invoice_id"`
	Amount           string `json:"amount"`
	AdjustmentAmount string `json:"adjustment_amount"`
	ReceiptDate      string `json:"receipt_date"`
}

// CommitResponse describes what a reconciliation commit wrote.
type CommitResponse struct {
	Transaction *TransactionResponse `json:"transaction"`
	Adjustment  *AdjustmentResponse  `json:"adjustment,omitempty"`
	ExpenseID   string               `json:"expense_id,omitempty"`
	RevenueID   string               `json:"revenue_id,omitempty"`
	Payment     *PaymentResponse     `json:"payment,omitempty"`
	Receipts    []ReceiptResponse    `json:"receipts,omitempty"`
}

// CommitFromResult converts a commit result to response.
func CommitFromResult(r *usecase.CommitResult) *CommitResponse {
	resp := &CommitResponse{Transaction: TransactionFromDomain(r.Transaction)}
	if a := r.Adjustment; a != nil {
		resp.Adjustment = &AdjustmentResponse{
			ID:               a.ID,
			Type:             string(a.Type),
			ExpectedAmount:   Money(a.ExpectedAmount),
			ReceivedAmount:   Money(a.ReceivedAmount),
			AdjustmentAmount: Money(a.AdjustmentAmount),
			Reason:           a.Reason,
			Notes:            a.Notes,
		}
	}
	if r.Expense != nil {
		resp.ExpenseID = r.Expense.ID
	}
	if r.Revenue != nil {
		resp.RevenueID = r.Revenue.ID
	}
	if r.Payment != nil {
		resp.Payment = PaymentFromDomain(r.Payment)
	}
	for _, rc := range r.Receipts {
		resp.Receipts = append(resp.Receipts, ReceiptResponse{
			ID:               rc.ID,
			InvoiceID:        rc.InvoiceID,
			Amount:           Money(rc.Amount),
			AdjustmentAmount: Money(rc.AdjustmentAmount),
			ReceiptDate:      date(rc.ReceiptDate),
		})
	}
	return resp
}

// BalanceComponentsResponse lists the terms of the balance formula.
type BalanceComponentsResponse struct {
	InitialBalance   string `json:"initial_balance"`
	Revenue          string `json:"revenue"`
	Receipts         string `json:"receipts"`
	ReversedPayments string `json:"reversed_payments"`
	Payments         string `json:"payments"`
	PaidExpenses     string `json:"paid_expenses"`
}

// BalanceResponse represents a bank's derived balance.
type BalanceResponse struct {
	BankID     string                    `json:"bank_id"`
	Balance    string                    `json:"balance"`
	Components BalanceComponentsResponse `json:"components"`
	ComputedAt time.Time                 `json:"computed_at"`
}

// BalanceFromDomain converts a bank balance to response.
func BalanceFromDomain(b *domain.BankBalance) *BalanceResponse {
	c := b.Components
	return &BalanceResponse{
		BankID:  b.BankID,
		Balance: Money(b.Balance),
		Components: BalanceComponentsResponse{
			InitialBalance:   Money(c.InitialBalance),
			Revenue:          Money(c.Revenue),
			Receipts:         Money(c.Receipts),
			ReversedPayments: Money(c.ReversedPayments),
			Payments:         Money(c.Payments),
			PaidExpenses:     Money(c.PaidExpenses),
		},
		ComputedAt: b.ComputedAt,
	}
}

// AuditLogResponse represents an audit record.
type AuditLogResponse struct {
	ID           string      `json:"id"`
	ActorID      string      `json:"actor_id,omitempty"`
	Action       string      `json:"action"`
	ResourceType string      `json:"resource_type"`
	ResourceID   string      `json:"resource_id"`
	RequestID    string      `json:"request_id,omitempty"`
	Reason       string      `json:"reason,omitempty"`
	BeforeState  domain.JSON `json:"before_state,omitempty"`
	AfterState   domain.JSON `json:"after_state,omitempty"`
	Status       string      `json:"status"`
	CreatedAt    time.Time   `json:"created_at"`
}

// AuditLogsFromDomain converts audit records to response.
func AuditLogsFromDomain(list []*domain.AuditLog) []AuditLogResponse {
	out := make([]AuditLogResponse, len(list))
	for i, l := range list {
		out[i] = AuditLogResponse{
			ID:           l.ID,
			ActorID:      l.ActorID,
			Action:       string(l.Action),
			ResourceType: l.ResourceType,
			ResourceID:   l.ResourceID,
			RequestID:    l.RequestID,
			Reason:       l.Reason,
			BeforeState:  l.BeforeState,
			AfterState:   l.AfterState,
			Status:       string(l.Status),
			CreatedAt:    l.CreatedAt,
		}
	}
	return out
}

// ListResponse wraps a list payload.
type ListResponse[T any] struct {
	Data []T `json:"data"`
}
