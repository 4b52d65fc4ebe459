package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/iho/goreconcile/internal/adapter/http/dto"
	"github.com/iho/goreconcile/internal/adapter/http/middleware"
)

// apiClient talks to the reconciliation API on behalf of one tenant.
type apiClient struct {
	baseURL string
	tenant  string
	actor   string
	http    *http.Client
}

func newAPIClient(baseURL, tenant, actor string, timeout time.Duration) *apiClient {
	return &apiClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		tenant:  tenant,
		actor:   actor,
		http:    &http.Client{Timeout: timeout},
	}
}

// apiError is a non-2xx response.
type apiError struct {
	Status int
	Body   dto.ErrorResponse
}

func (e *apiError) Error() string {
	if e.Body.Message != "" {
		return fmt.Sprintf("%s (status %d): %s", e.Body.Error, e.Status, e.Body.Message)
	}
	return fmt.Sprintf("%s (status %d)", e.Body.Error, e.Status)
}

func (c *apiClient) do(ctx context.Context, method, path, contentType string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set(middleware.TenantHeader, c.tenant)
	if c.actor != "" {
		req.Header.Set(middleware.ActorHeader, c.actor)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := &apiError{Status: resp.StatusCode}
		if err := json.Unmarshal(raw, &apiErr.Body); err != nil || apiErr.Body.Error == "" {
			apiErr.Body.Error = strings.TrimSpace(string(raw))
		}
		return apiErr
	}

	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *apiClient) postJSON(ctx context.Context, path string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodPost, path, "application/json", bytes.NewReader(payload), out)
}

// postFiles uploads paths as multipart parts named field.
func (c *apiClient) postFiles(ctx context.Context, path, field string, paths []string, out any) error {
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	for _, p := range paths {
		content, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		part, err := mw.CreateFormFile(field, filepath.Base(p))
		if err != nil {
			return err
		}
		if _, err := part.Write(content); err != nil {
			return err
		}
	}
	if err := mw.Close(); err != nil {
		return err
	}
	return c.do(ctx, http.MethodPost, path, mw.FormDataContentType(), body, out)
}

func (c *apiClient) importStatement(ctx context.Context, bankID, path string) (*dto.StatementImportResponse, error) {
	var out dto.StatementImportResponse
	if err := c.postFiles(ctx, "/api/v1/banks/"+bankID+"/statements", "file", []string{path}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *apiClient) importInvoices(ctx context.Context, paths []string, update bool) (*dto.BulkImportResponse, error) {
	path := "/api/v1/invoices/import"
	if update {
		path += "?update=true"
	}
	var out dto.BulkImportResponse
	if err := c.postFiles(ctx, path, "files", paths, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *apiClient) balance(ctx context.Context, bankID string) (*dto.BalanceResponse, error) {
	var out dto.BalanceResponse
	if err := c.do(ctx, http.MethodGet, "/api/v1/banks/"+bankID+"/balance", "", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *apiClient) suggestions(ctx context.Context, batchID string) ([]dto.TransactionSuggestionResponse, error) {
	var out dto.ListResponse[dto.TransactionSuggestionResponse]
	if err := c.do(ctx, http.MethodGet, "/api/v1/batches/"+batchID+"/suggestions", "", nil, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

func (c *apiClient) reverse(ctx context.Context, transactionID, reason string) (*dto.CommitResponse, error) {
	var out dto.CommitResponse
	if err := c.postJSON(ctx, "/api/v1/transactions/"+transactionID+"/reverse", dto.ReverseRequest{Reason: reason}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
