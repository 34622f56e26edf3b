package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/afina/roster/internal/apperr"
)

// maxBodySize is the maximum allowed request body size. Inline avatars make
// this larger than a plain JSON API would need.
const maxBodySize = 4 << 20

var errInvalidBody = apperr.Validation("Invalid request body")

// errorResponse is the standard error response shape.
type errorResponse struct {
	Error string `json:"error"`
}

// writeError writes a JSON error response with the given status code.
func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, errorResponse{Error: message})
}

// writeServiceError maps err to its status and client message. Unexpected
// errors are logged and reported generically.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperr.StatusOf(err)
	if status == http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", RequestIDFromContext(r.Context()),
			"error", err,
		)
	}
	writeError(w, status, apperr.MessageOf(err))
}

// writeJSON writes a JSON response with the given status code and data.
func writeJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// writeSuccess writes the {"success": true} body used by deletions.
func writeSuccess(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// readJSON decodes the request body into v, enforcing a size limit.
func readJSON(r *http.Request, v any) error {
	lr := io.LimitReader(r.Body, maxBodySize)
	if err := json.NewDecoder(lr).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errInvalidBody
		}
		var ae *apperr.Error
		if errors.As(err, &ae) {
			return ae
		}
		return errInvalidBody
	}
	return nil
}

// idParam returns the {id} path parameter. Anything that is not a UUID cannot
// name a row, so it is reported as notFound.
func idParam(w http.ResponseWriter, r *http.Request, notFound error) (string, bool) {
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		writeServiceError(w, r, notFound)
		return "", false
	}
	return id, true
}
