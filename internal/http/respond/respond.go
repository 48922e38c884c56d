// Package respond writes JSON bodies and error envelopes for portal handlers.
package respond

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/wolfman30/clinicdesk/internal/apierror"
	"github.com/wolfman30/clinicdesk/pkg/logging"
)

// JSON writes payload with the given status.
func JSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// Error maps err to a status and writes {"error": msg}. Errors without a
// user-facing message are logged and reported with a generic fallback.
func Error(w http.ResponseWriter, logger *logging.Logger, err error) {
	if apiErr, ok := apierror.As(err); ok {
		if apiErr.Status >= http.StatusInternalServerError && logger != nil {
			logger.Error("request failed", "error", err)
		}
		JSON(w, apiErr.Status, map[string]string{"error": apiErr.Message})
		return
	}
	if errors.Is(err, context.Canceled) {
		JSON(w, 499, map[string]string{"error": "request superseded"})
		return
	}
	if logger != nil {
		logger.Error("request failed", "error", err)
	}
	JSON(w, http.StatusInternalServerError, map[string]string{"error": "something went wrong, please retry"})
}

// Decode reads a JSON body into dst, reporting malformed bodies as validation errors.
func Decode(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apierror.Invalid("invalid JSON body")
	}
	return nil
}

// IDParam parses a positive integer URL parameter.
func IDParam(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apierror.Invalid(fmt.Sprintf("invalid %s %q", name, raw))
	}
	return id, nil
}

// QueryID parses a positive integer query parameter. Missing values yield 0.
func QueryID(r *http.Request, name string) (int64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apierror.Invalid(fmt.Sprintf("invalid %s %q", name, raw))
	}
	return id, nil
}
