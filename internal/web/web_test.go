package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campus-portal/internal/apperr"
	"campus-portal/internal/validate"
)

func TestErrorStatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"validation", validate.NewError(validate.FieldError{Field: "title", Error: "this field is required"}), http.StatusBadRequest},
		{"wrapped not found", fmt.Errorf("department %w", apperr.ErrNotFound), http.StatusNotFound},
		{"invalid input", fmt.Errorf("bad status: %w", apperr.ErrInvalidInput), http.StatusBadRequest},
		{"unauthorized", apperr.ErrUnauthorized, http.StatusUnauthorized},
		{"forbidden", apperr.ErrForbidden, http.StatusForbidden},
		{"store failure", errors.New("connection refused"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			Error(rec, tt.err)
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestErrorRendersFieldMap(t *testing.T) {
	rec := httptest.NewRecorder()
	Error(rec, validate.NewError(validate.FieldError{Field: "email", Error: "email must be a valid email address"}))

	var body struct {
		Errors map[string]string `json:"errors"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "email must be a valid email address", body.Errors["email"])
}
