package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/querygenie/querygenie/internal/core/errs"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps the service error taxonomy onto HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, errs.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, errs.ErrInvalidArgument), errors.Is(err, errs.ErrMissingData), errors.Is(err, errs.ErrParse):
		status = http.StatusBadRequest
	case errors.Is(err, errs.ErrUpstream):
		status = http.StatusBadGateway
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
