// SPDX-License-Identifier: MIT

package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/ManuGH/rebookd/internal/domain"
	xglog "github.com/ManuGH/rebookd/internal/log"
	"github.com/ManuGH/rebookd/internal/metrics"
)

const maxBodyBytes = 1 << 20

// ErrorResponse is the body of every non-2xx answer.
type ErrorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

// writeJSON writes a JSON response with the given status code
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg, detail string) {
	writeJSON(w, code, ErrorResponse{Error: msg, Detail: detail})
}

// writeServiceError maps an operation error to its status code. Internal
// failures are logged with detail and answered generically.
func writeServiceError(w http.ResponseWriter, r *http.Request, op string, err error) {
	var (
		validation   *domain.ValidationError
		notFound     *domain.NotFoundError
		precondition *domain.PreconditionError
	)
	switch {
	case errors.As(err, &validation):
		metrics.IncOperationError(op, "validation")
		writeError(w, http.StatusBadRequest, validation.Error(), "")
	case errors.As(err, &notFound):
		metrics.IncOperationError(op, "not_found")
		writeError(w, http.StatusNotFound, notFound.Error(), "")
	case errors.As(err, &precondition):
		metrics.IncOperationError(op, "precondition")
		writeError(w, http.StatusBadRequest, precondition.Error(), "")
	default:
		metrics.IncOperationError(op, "internal")
		logger := xglog.WithComponentFromContext(r.Context(), "api")
		logger.Error().
			Err(err).
			Str("event", "operation.failed").
			Str("operation", op).
			Msg("operation failed")
		reqID := xglog.RequestIDFromContext(r.Context())
		writeError(w, http.StatusInternalServerError, "Internal server error", "request "+reqID+" failed; see server logs")
	}
}

// decodeJSON reads the request body into v. An empty body decodes as {} so
// that missing fields surface as validation errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		metrics.IncOperationError(r.URL.Path, "decode")
		writeError(w, http.StatusBadRequest, "Invalid JSON body", err.Error())
		return false
	}
	return true
}
