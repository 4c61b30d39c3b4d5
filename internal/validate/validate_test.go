package validate

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type loginForm struct {
	Email    string `json:"email" validate:"required,email,institutional"`
	Password string `json:"password" validate:"required,min=6"`
}

func TestStructReportsJSONFieldNames(t *testing.T) {
	err := Struct(loginForm{Email: "", Password: "abc"})
	require.Error(t, err)

	var verr *Error
	require.True(t, errors.As(err, &verr))
	fields := verr.Map()
	assert.Equal(t, "this field is required", fields["email"])
	assert.Contains(t, fields, "password")
}

func TestStructInstitutionalDomain(t *testing.T) {
	err := Struct(loginForm{Email: "juan@gmail.com", Password: "secret1"})
	require.Error(t, err)

	var verr *Error
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "please use your institutional email address", verr.Map()["email"])

	assert.NoError(t, Struct(loginForm{Email: "juan.delacruz@nbsc.edu.ph", Password: "secret1"}))
}

func TestNewError(t *testing.T) {
	err := NewError(FieldError{Field: "text", Error: "this field is required"})
	assert.EqualError(t, err, "validation failed: text: this field is required")
}
