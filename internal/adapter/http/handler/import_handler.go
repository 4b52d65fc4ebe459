package handler

import (
	"context"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/goreconcile/internal/adapter/http/dto"
	"github.com/iho/goreconcile/internal/domain"
	"github.com/iho/goreconcile/internal/usecase"
)

// ImportService defines the import gate operations used by ImportHandler.
type ImportService interface {
	ImportStatement(ctx context.Context, input usecase.ImportStatementInput) (*usecase.ImportStatementResult, error)
	ImportInvoice(ctx context.Context, input usecase.ImportInvoiceInput) (*usecase.ImportInvoiceResult, error)
	ImportInvoices(ctx context.Context, input usecase.BulkImportInput) (*usecase.BulkImportResult, error)
}

// ImportHandler handles statement and invoice uploads.
type ImportHandler struct {
	imports ImportService
}

// NewImportHandler creates a new ImportHandler.
func NewImportHandler(imports ImportService) *ImportHandler {
	return &ImportHandler{imports: imports}
}

// ImportStatement handles POST /banks/{bankID}/statements.
func (h *ImportHandler) ImportStatement(w http.ResponseWriter, r *http.Request) {
	tenantID, _ := tenantAndActor(r)

	name, content, err := readUpload(r, "file")
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	result, err := h.imports.ImportStatement(r.Context(), usecase.ImportStatementInput{
		TenantID: tenantID,
		BankID:   chi.URLParam(r, "bankID"),
		FileName: name,
		Content:  content,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.StatementImportFromResult(result))
}

// ImportInvoice handles POST /invoices. The body is one invoice document;
// ?update=true lets a same-tenant duplicate overwrite the stored values.
func (h *ImportHandler) ImportInvoice(w http.ResponseWriter, r *http.Request) {
	tenantID, _ := tenantAndActor(r)

	content, err := io.ReadAll(r.Body)
	if err != nil {
		writeDomainError(w, r, domain.NewValidationError("body", "unreadable body", err))
		return
	}

	result, err := h.imports.ImportInvoice(r.Context(), usecase.ImportInvoiceInput{
		TenantID:   tenantID,
		FileName:   r.URL.Query().Get("file_name"),
		Content:    content,
		UpdateMode: parseBoolQuery(r, "update"),
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	status := http.StatusCreated
	if result.Outcome == usecase.ImportOutcomeUpdated {
		status = http.StatusOK
	}
	writeJSON(w, status, dto.InvoiceImportResponse{
		Outcome: string(result.Outcome),
		Invoice: dto.InvoiceFromDomain(result.Invoice),
	})
}

// ImportInvoices handles POST /invoices/import with every "files" part of a
// multipart form. Per-file failures are reported in the body.
func (h *ImportHandler) ImportInvoices(w http.ResponseWriter, r *http.Request) {
	tenantID, _ := tenantAndActor(r)

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		writeDomainError(w, r, domain.NewValidationError("files", "expected multipart form", err))
		return
	}

	var files []usecase.BulkImportFile
	for _, header := range r.MultipartForm.File["files"] {
		f, err := header.Open()
		if err != nil {
			writeDomainError(w, r, domain.NewValidationError("files", "unreadable file "+header.Filename, err))
			return
		}
		content, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			writeDomainError(w, r, domain.NewValidationError("files", "unreadable file "+header.Filename, err))
			return
		}
		files = append(files, usecase.BulkImportFile{FileName: header.Filename, Content: content})
	}

	result, err := h.imports.ImportInvoices(r.Context(), usecase.BulkImportInput{
		TenantID:   tenantID,
		Files:      files,
		UpdateMode: parseBoolQuery(r, "update"),
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.BulkImportFromResult(result))
}
