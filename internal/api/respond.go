package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/mwantia/cpkgs/internal/registry"
	"github.com/mwantia/cpkgs/pkg/api"
)

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		json.NewEncoder(w).Encode(payload)
	}
}

// writeError maps the facade error taxonomy onto response statuses.
// Unknown errors surface as 500 without leaking internals.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var status int
	message := err.Error()

	switch {
	case errors.Is(err, registry.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, registry.ErrConstraint):
		status = http.StatusConflict
	case errors.Is(err, registry.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, registry.ErrUnauthorized):
		status = http.StatusUnauthorized
	case errors.Is(err, registry.ErrForbidden):
		status = http.StatusForbidden
	default:
		status = http.StatusInternalServerError
		message = "internal server error"
		h.log.Error("Unhandled request error: %v", err)
	}

	writeJSON(w, status, api.ErrorResponse{Error: message})
}

func decode[T any](r *http.Request) (T, error) {
	var payload T
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		return payload, fmt.Errorf("%w: malformed request body", registry.ErrValidation)
	}
	return payload, nil
}
