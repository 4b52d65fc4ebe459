package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/iho/goreconcile/internal/adapter/http/dto"
	"github.com/iho/goreconcile/internal/domain"
)

// maxUploadMemory is the multipart memory threshold; larger parts spill to disk.
const maxUploadMemory = 8 << 20

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, message, details string) {
	writeErrorResponse(w, status, dto.ErrorResponse{Error: message, Message: details})
}

func writeErrorResponse(w http.ResponseWriter, status int, resp dto.ErrorResponse) {
	writeJSON(w, status, resp)
}

// writeDomainError maps err to a status and a body carrying the error's
// structured fields. Unknown errors are logged and reported as 500.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	status := mapDomainError(err)
	if status == http.StatusInternalServerError {
		zerolog.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		writeError(w, status, "internal error", "")
		return
	}
	writeErrorResponse(w, status, dto.ErrorResponse{
		Error:   errorCode(err),
		Message: err.Error(),
		Details: errorDetails(err),
	})
}

// mapDomainError maps domain errors to HTTP status codes.
func mapDomainError(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrDuplicateImport):
		return http.StatusConflict
	case errors.Is(err, domain.ErrStaleState):
		return http.StatusConflict
	case errors.Is(err, domain.ErrToleranceExceeded):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrDuplicateImport):
		return "duplicate_import"
	case errors.Is(err, domain.ErrStaleState):
		return "stale_state"
	case errors.Is(err, domain.ErrToleranceExceeded):
		return "tolerance_exceeded"
	default:
		return "validation_failed"
	}
}

func errorDetails(err error) map[string]any {
	var (
		validation *domain.ValidationError
		tolerance  *domain.ToleranceExceededError
		duplicate  *domain.DuplicateImportError
		stale      *domain.StaleStateError
		notFound   *domain.NotFoundError
	)
	switch {
	case errors.As(err, &tolerance):
		return map[string]any{
			"difference": dto.Money(tolerance.Difference),
			"ceiling":    dto.Money(tolerance.Ceiling),
		}
	case errors.As(err, &duplicate):
		d := map[string]any{
			"kind":        duplicate.Kind,
			"same_tenant": duplicate.SameTenant,
		}
		if duplicate.SameTenant && duplicate.ExistingID != "" {
			d["existing_id"] = duplicate.ExistingID
		}
		return d
	case errors.As(err, &stale):
		return map[string]any{"entity": stale.Entity, "id": stale.ID}
	case errors.As(err, &notFound):
		return map[string]any{"entity": notFound.Entity, "id": notFound.ID}
	case errors.As(err, &validation):
		if validation.Field == "" {
			return nil
		}
		return map[string]any{"field": validation.Field}
	}
	return nil
}

// decodeJSON decodes the request body into v. An empty body leaves v as is.
func decodeJSON(r *http.Request, v any) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	return domain.NewValidationError("body", "invalid request body", err)
}

// readUpload returns the name and content of the multipart file field.
func readUpload(r *http.Request, field string) (string, []byte, error) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		return "", nil, domain.NewValidationError(field, "expected multipart form", err)
	}
	f, header, err := r.FormFile(field)
	if err != nil {
		return "", nil, domain.NewValidationError(field, "file is required", err)
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		return "", nil, domain.NewValidationError(field, "unreadable file", err)
	}
	return header.Filename, content, nil
}

// parseIntQuery parses an integer query parameter with a default value.
func parseIntQuery(r *http.Request, key string, defaultValue int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultValue
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultValue
	}
	return i
}

// parseBoolQuery parses a boolean query parameter; anything unparsable is false.
func parseBoolQuery(r *http.Request, key string) bool {
	b, _ := strconv.ParseBool(r.URL.Query().Get(key))
	return b
}

// tenantAndActor returns the identity the tenant middleware placed on the context.
func tenantAndActor(r *http.Request) (string, string) {
	tenantID, _ := domain.TenantFromContext(r.Context())
	actorID, _ := domain.ActorFromContext(r.Context())
	return tenantID, actorID
}
