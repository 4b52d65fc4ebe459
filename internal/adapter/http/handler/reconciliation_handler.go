package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/goreconcile/internal/adapter/http/dto"
	"github.com/iho/goreconcile/internal/domain"
	"github.com/iho/goreconcile/internal/usecase"
)

// MatchingService proposes ledger items for imported transactions.
type MatchingService interface {
	Suggest(ctx context.Context, tenantID, transactionID string) (*domain.MatchSuggestion, error)
	SuggestForBatch(ctx context.Context, tenantID, batchID string) ([]usecase.TransactionSuggestion, error)
}

// SettlementService previews credit settlements.
type SettlementService interface {
	Preview(ctx context.Context, input usecase.PreviewInput) (*usecase.PreviewResult, error)
}

// ReconciliationService commits decisions about imported transactions.
type ReconciliationService interface {
	Accept(ctx context.Context, input usecase.AcceptInput) (*usecase.CommitResult, error)
	Create(ctx context.Context, input usecase.CreateInput) (*usecase.CommitResult, error)
	Ignore(ctx context.Context, input usecase.IgnoreInput) (*usecase.CommitResult, error)
	Reverse(ctx context.Context, input usecase.ReverseInput) (*usecase.CommitResult, error)
}

// ReconciliationHandler handles suggestion, preview and commit requests.
type ReconciliationHandler struct {
	matching       MatchingService
	settlement     SettlementService
	reconciliation ReconciliationService
}

// NewReconciliationHandler creates a new ReconciliationHandler.
func NewReconciliationHandler(matching MatchingService, settlement SettlementService, reconciliation ReconciliationService) *ReconciliationHandler {
	return &ReconciliationHandler{
		matching:       matching,
		settlement:     settlement,
		reconciliation: reconciliation,
	}
}

// Suggest handles GET /transactions/{transactionID}/suggestion. The
// suggestion is null when nothing matches.
func (h *ReconciliationHandler) Suggest(w http.ResponseWriter, r *http.Request) {
	tenantID, _ := tenantAndActor(r)
	transactionID := chi.URLParam(r, "transactionID")

	s, err := h.matching.Suggest(r.Context(), tenantID, transactionID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		TransactionID string                  `json:"transaction_id"`
		Suggestion    *dto.SuggestionResponse `json:"suggestion"`
	}{transactionID, dto.SuggestionFromDomain(s)})
}

// SuggestForBatch handles GET /batches/{batchID}/suggestions.
func (h *ReconciliationHandler) SuggestForBatch(w http.ResponseWriter, r *http.Request) {
	tenantID, _ := tenantAndActor(r)

	list, err := h.matching.SuggestForBatch(r.Context(), tenantID, chi.URLParam(r, "batchID"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ListResponse[dto.TransactionSuggestionResponse]{
		Data: dto.BatchSuggestionsFromResult(list),
	})
}

// Preview handles POST /transactions/{transactionID}/settlement-preview.
func (h *ReconciliationHandler) Preview(w http.ResponseWriter, r *http.Request) {
	tenantID, _ := tenantAndActor(r)

	var req dto.SettlementPreviewRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDomainError(w, r, err)
		return
	}

	result, err := h.settlement.Preview(r.Context(), req.ToUseCaseInput(tenantID, chi.URLParam(r, "transactionID")))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.SettlementPreviewFromResult(result))
}

// Accept handles POST /transactions/{transactionID}/accept.
func (h *ReconciliationHandler) Accept(w http.ResponseWriter, r *http.Request) {
	tenantID, actorID := tenantAndActor(r)

	var req dto.AcceptRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDomainError(w, r, err)
		return
	}

	h.commit(w, r, func(ctx context.Context) (*usecase.CommitResult, error) {
		return h.reconciliation.Accept(ctx, req.ToUseCaseInput(tenantID, chi.URLParam(r, "transactionID"), actorID))
	})
}

// Create handles POST /transactions/{transactionID}/create.
func (h *ReconciliationHandler) Create(w http.ResponseWriter, r *http.Request) {
	tenantID, actorID := tenantAndActor(r)

	var req dto.CreateFromTransactionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDomainError(w, r, err)
		return
	}

	h.commit(w, r, func(ctx context.Context) (*usecase.CommitResult, error) {
		return h.reconciliation.Create(ctx, req.ToUseCaseInput(tenantID, chi.URLParam(r, "transactionID"), actorID))
	})
}

// Ignore handles POST /transactions/{transactionID}/ignore.
func (h *ReconciliationHandler) Ignore(w http.ResponseWriter, r *http.Request) {
	tenantID, actorID := tenantAndActor(r)

	h.commit(w, r, func(ctx context.Context) (*usecase.CommitResult, error) {
		return h.reconciliation.Ignore(ctx, usecase.IgnoreInput{
			TenantID:      tenantID,
			TransactionID: chi.URLParam(r, "transactionID"),
			ActorID:       actorID,
		})
	})
}

// Reverse handles POST /transactions/{transactionID}/reverse.
func (h *ReconciliationHandler) Reverse(w http.ResponseWriter, r *http.Request) {
	tenantID, actorID := tenantAndActor(r)

	var req dto.ReverseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDomainError(w, r, err)
		return
	}

	h.commit(w, r, func(ctx context.Context) (*usecase.CommitResult, error) {
		return h.reconciliation.Reverse(ctx, usecase.ReverseInput{
			TenantID:      tenantID,
			TransactionID: chi.URLParam(r, "transactionID"),
			Reason:        req.Reason,
			ActorID:       actorID,
		})
	})
}

func (h *ReconciliationHandler) commit(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context) (*usecase.CommitResult, error)) {
	result, err := fn(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.CommitFromResult(result))
}
