package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/goreconcile/internal/adapter/http/dto"
	"github.com/iho/goreconcile/internal/domain"
	"github.com/iho/goreconcile/internal/usecase"
)

type matchingServiceStub struct {
	suggestFn func(ctx context.Context, tenantID, transactionID string) (*domain.MatchSuggestion, error)
	batchFn   func(ctx context.Context, tenantID, batchID string) ([]usecase.TransactionSuggestion, error)
}

func (s *matchingServiceStub) Suggest(ctx context.Context, tenantID, transactionID string) (*domain.MatchSuggestion, error) {
	return s.suggestFn(ctx, tenantID, transactionID)
}

func (s *matchingServiceStub) SuggestForBatch(ctx context.Context, tenantID, batchID string) ([]usecase.TransactionSuggestion, error) {
	return s.batchFn(ctx, tenantID, batchID)
}

type settlementServiceStub struct {
	previewFn func(ctx context.Context, input usecase.PreviewInput) (*usecase.PreviewResult, error)
}

func (s *settlementServiceStub) Preview(ctx context.Context, input usecase.PreviewInput) (*usecase.PreviewResult, error) {
	return s.previewFn(ctx, input)
}

type reconciliationServiceStub struct {
	acceptFn  func(ctx context.Context, input usecase.AcceptInput) (*usecase.CommitResult, error)
	createFn  func(ctx context.Context, input usecase.CreateInput) (*usecase.CommitResult, error)
	ignoreFn  func(ctx context.Context, input usecase.IgnoreInput) (*usecase.CommitResult, error)
	reverseFn func(ctx context.Context, input usecase.ReverseInput) (*usecase.CommitResult, error)
}

func (s *reconciliationServiceStub) Accept(ctx context.Context, input usecase.AcceptInput) (*usecase.CommitResult, error) {
	return s.acceptFn(ctx, input)
}

func (s *reconciliationServiceStub) Create(ctx context.Context, input usecase.CreateInput) (*usecase.CommitResult, error) {
	return s.createFn(ctx, input)
}

func (s *reconciliationServiceStub) Ignore(ctx context.Context, input usecase.IgnoreInput) (*usecase.CommitResult, error) {
	return s.ignoreFn(ctx, input)
}

func (s *reconciliationServiceStub) Reverse(ctx context.Context, input usecase.ReverseInput) (*usecase.CommitResult, error) {
	return s.reverseFn(ctx, input)
}

func committedTransaction(status domain.TransactionStatus) *domain.ImportedTransaction {
	return &domain.ImportedTransaction{
		ID:              "tx-1",
		BankID:          "bank-1",
		Amount:          decimal.RequireFromString("950"),
		Type:            domain.TransactionTypeCredit,
		TransactionDate: time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
		Status:          status,
	}
}

func TestReconciliationHandler_Suggest(t *testing.T) {
	date := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	handler := NewReconciliationHandler(&matchingServiceStub{
		suggestFn: func(ctx context.Context, tenantID, transactionID string) (*domain.MatchSuggestion, error) {
			if tenantID != "tenant-a" || transactionID != "tx-1" {
				t.Fatalf("unexpected args %s %s", tenantID, transactionID)
			}
			return &domain.MatchSuggestion{
				TransactionID: transactionID,
				Candidate: domain.MatchCandidate{
					Kind:   domain.CandidateInvoice,
					ID:     "inv-1",
					Amount: decimal.RequireFromString("950"),
					Date:   &date,
				},
				Confidence:   domain.ConfidenceHigh,
				AmountDiff:   decimal.Zero,
				DateDiffDays: 1,
			}, nil
		},
	}, nil, nil)

	req := routed(httptest.NewRequest(http.MethodGet, "/transactions/tx-1/suggestion", nil), map[string]string{"transactionID": "tx-1"})
	rec := httptest.NewRecorder()

	handler.Suggest(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Suggestion *dto.SuggestionResponse `json:"suggestion"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Suggestion == nil || resp.Suggestion.Confidence != "high" || resp.Suggestion.Candidate.ID != "inv-1" {
		t.Fatalf("unexpected suggestion %+v", resp.Suggestion)
	}
	if resp.Suggestion.Candidate.Date == nil || *resp.Suggestion.Candidate.Date != "2024-03-04" {
		t.Fatalf("unexpected candidate date %+v", resp.Suggestion.Candidate.Date)
	}
}

func TestReconciliationHandler_Suggest_NoMatch(t *testing.T) {
	handler := NewReconciliationHandler(&matchingServiceStub{
		suggestFn: func(ctx context.Context, tenantID, transactionID string) (*domain.MatchSuggestion, error) {
			return nil, nil
		},
	}, nil, nil)

	req := routed(httptest.NewRequest(http.MethodGet, "/transactions/tx-1/suggestion", nil), map[string]string{"transactionID": "tx-1"})
	rec := httptest.NewRecorder()

	handler.Suggest(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp map[string]any
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp["suggestion"] != nil {
		t.Fatalf("expected null suggestion, got %+v", resp["suggestion"])
	}
}

func TestReconciliationHandler_Preview(t *testing.T) {
	var captured usecase.PreviewInput
	handler := NewReconciliationHandler(nil, &settlementServiceStub{
		previewFn: func(ctx context.Context, input usecase.PreviewInput) (*usecase.PreviewResult, error) {
			captured = input
			return &usecase.PreviewResult{
				Plan: &domain.SettlementPlan{
					TransactionAmount: decimal.RequireFromString("950"),
					TotalSelected:     decimal.RequireFromString("950.40"),
					Difference:        decimal.RequireFromString("-0.40"),
					NeedsAdjustment:   true,
					Shares: []domain.SettlementShare{{
						InvoiceID:  "inv-1",
						Cash:       decimal.RequireFromString("950"),
						Credited:   decimal.RequireFromString("950.40"),
						Adjustment: decimal.RequireFromString("-0.40"),
					}},
				},
				ReasonRequired: true,
			}, nil
		},
	}, nil)

	body := bytes.NewBufferString(`{"invoice_ids":["inv-1"]}`)
	req := routed(httptest.NewRequest(http.MethodPost, "/transactions/tx-1/settlement-preview", body), map[string]string{"transactionID": "tx-1"})
	rec := httptest.NewRecorder()

	handler.Preview(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(captured.Selection.InvoiceIDs) != 1 || captured.Selection.InvoiceIDs[0] != "inv-1" {
		t.Fatalf("unexpected selection %+v", captured.Selection)
	}

	var resp dto.SettlementPreviewResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !resp.ReasonRequired || resp.Difference != "-0.40" || len(resp.Shares) != 1 {
		t.Fatalf("unexpected preview %+v", resp)
	}
}

func TestReconciliationHandler_Accept(t *testing.T) {
	var captured usecase.AcceptInput
	handler := NewReconciliationHandler(nil, nil, &reconciliationServiceStub{
		acceptFn: func(ctx context.Context, input usecase.AcceptInput) (*usecase.CommitResult, error) {
			captured = input
			return &usecase.CommitResult{
				Transaction: committedTransaction(domain.TransactionStatusReconciled),
				Receipts: []*domain.InvoiceReceipt{{
					ID:        "rcpt-1",
					InvoiceID: "inv-1",
					Amount:    decimal.RequireFromString("950"),
				}},
			}, nil
		},
	})

	body := bytes.NewBufferString(`{"kind":"invoices","invoice_ids":["inv-1"],"reason":"bank fee","expected_pending_total":"950.40"}`)
	req := routed(httptest.NewRequest(http.MethodPost, "/transactions/tx-1/accept", body), map[string]string{"transactionID": "tx-1"})
	rec := httptest.NewRecorder()

	handler.Accept(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if captured.Target.Kind != usecase.TargetInvoices || captured.ActorID != "user-1" || captured.Reason != "bank fee" {
		t.Fatalf("unexpected input %+v", captured)
	}
	if captured.ExpectedPendingTotal == nil || !captured.ExpectedPendingTotal.Equal(decimal.RequireFromString("950.40")) {
		t.Fatalf("expected pending total to be forwarded, got %v", captured.ExpectedPendingTotal)
	}

	var resp dto.CommitResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Transaction.Status != "reconciled" || len(resp.Receipts) != 1 {
		t.Fatalf("unexpected commit %+v", resp)
	}
}

func TestReconciliationHandler_Accept_Errors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{
			name:   "tolerance exceeded",
			err:    &domain.ToleranceExceededError{Difference: decimal.RequireFromString("5"), Ceiling: decimal.RequireFromString("1")},
			status: http.StatusUnprocessableEntity,
			code:   "tolerance_exceeded",
		},
		{
			name:   "stale selection",
			err:    &domain.StaleStateError{Entity: domain.EntityInvoice, ID: "inv-1", Reason: "pending total changed"},
			status: http.StatusConflict,
			code:   "stale_state",
		},
		{
			name:   "missing transaction",
			err:    domain.NewNotFoundError(domain.EntityTransaction, "tx-1"),
			status: http.StatusNotFound,
			code:   "not_found",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			handler := NewReconciliationHandler(nil, nil, &reconciliationServiceStub{
				acceptFn: func(ctx context.Context, input usecase.AcceptInput) (*usecase.CommitResult, error) {
					return nil, tt.err
				},
			})

			body := bytes.NewBufferString(`{"kind":"payable","payable_id":"pay-1"}`)
			req := routed(httptest.NewRequest(http.MethodPost, "/transactions/tx-1/accept", body), map[string]string{"transactionID": "tx-1"})
			rec := httptest.NewRecorder()

			handler.Accept(rec, req)

			if rec.Code != tt.status {
				t.Fatalf("expected %d, got %d", tt.status, rec.Code)
			}
			if resp := decodeError(t, rec); resp.Error != tt.code {
				t.Fatalf("expected code %s, got %+v", tt.code, resp)
			}
		})
	}
}

func TestReconciliationHandler_Accept_InvalidJSON(t *testing.T) {
	handler := NewReconciliationHandler(nil, nil, &reconciliationServiceStub{
		acceptFn: func(ctx context.Context, input usecase.AcceptInput) (*usecase.CommitResult, error) {
			t.Fatal("Accept should not be called for invalid payload")
			return nil, nil
		},
	})

	req := routed(httptest.NewRequest(http.MethodPost, "/transactions/tx-1/accept", bytes.NewBufferString("{invalid")), map[string]string{"transactionID": "tx-1"})
	rec := httptest.NewRecorder()

	handler.Accept(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestReconciliationHandler_CreateIgnoreReverse(t *testing.T) {
	var (
		created  usecase.CreateInput
		ignored  usecase.IgnoreInput
		reversed usecase.ReverseInput
	)
	handler := NewReconciliationHandler(nil, nil, &reconciliationServiceStub{
		createFn: func(ctx context.Context, input usecase.CreateInput) (*usecase.CommitResult, error) {
			created = input
			return &usecase.CommitResult{
				Transaction: committedTransaction(domain.TransactionStatusCreated),
				Revenue:     &domain.Revenue{ID: "rev-1"},
			}, nil
		},
		ignoreFn: func(ctx context.Context, input usecase.IgnoreInput) (*usecase.CommitResult, error) {
			ignored = input
			return &usecase.CommitResult{Transaction: committedTransaction(domain.TransactionStatusIgnored)}, nil
		},
		reverseFn: func(ctx context.Context, input usecase.ReverseInput) (*usecase.CommitResult, error) {
			reversed = input
			return &usecase.CommitResult{Transaction: committedTransaction(domain.TransactionStatusPending)}, nil
		},
	})
	params := map[string]string{"transactionID": "tx-1"}

	rec := httptest.NewRecorder()
	handler.Create(rec, routed(httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"category":"interest"}`)), params))
	if rec.Code != http.StatusOK || created.Category != "interest" {
		t.Fatalf("create: status %d input %+v", rec.Code, created)
	}
	var createResp dto.CommitResponse
	json.Unmarshal(rec.Body.Bytes(), &createResp)
	if createResp.RevenueID != "rev-1" {
		t.Fatalf("expected revenue id in response, got %+v", createResp)
	}

	rec = httptest.NewRecorder()
	handler.Ignore(rec, routed(httptest.NewRequest(http.MethodPost, "/", nil), params))
	if rec.Code != http.StatusOK || ignored.TransactionID != "tx-1" {
		t.Fatalf("ignore: status %d input %+v", rec.Code, ignored)
	}

	rec = httptest.NewRecorder()
	handler.Reverse(rec, routed(httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"reason":"wrong match"}`)), params))
	if rec.Code != http.StatusOK || reversed.Reason != "wrong match" || reversed.ActorID != "user-1" {
		t.Fatalf("reverse: status %d input %+v", rec.Code, reversed)
	}
}
