// Package web holds the JSON response helpers shared by every handler.
package web

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"campus-portal/internal/apperr"
	"campus-portal/internal/validate"
)

// JSON writes v with the given status code.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("web: encode response: %v", err)
	}
}

// Decode reads a JSON request body into dst.
func Decode(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return validate.NewError(validate.FieldError{Field: "body", Error: "malformed JSON: " + err.Error()})
	}
	return nil
}

// Error maps err onto a status code and writes the matching body:
// field errors become 400 {"errors": {...}}, not found becomes 404, and
// anything unclassified is logged and reported as a 500.
func Error(w http.ResponseWriter, err error) {
	var verr *validate.Error
	switch {
	case errors.As(err, &verr):
		JSON(w, http.StatusBadRequest, map[string]any{"errors": verr.Map()})
	case errors.Is(err, apperr.ErrNotFound):
		JSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	case errors.Is(err, apperr.ErrInvalidInput):
		JSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, apperr.ErrUnauthorized):
		JSON(w, http.StatusUnauthorized, map[string]string{"error": err.Error()})
	case errors.Is(err, apperr.ErrForbidden):
		JSON(w, http.StatusForbidden, map[string]string{"error": "permission denied"})
	default:
		log.Printf("web: internal error: %v", err)
		JSON(w, http.StatusInternalServerError, map[string]string{"error": http.StatusText(http.StatusInternalServerError)})
	}
}
