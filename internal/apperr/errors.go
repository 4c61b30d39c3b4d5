// Package apperr holds the error classes shared by every feature package.
// Feature packages wrap these so handlers can map any of them to a status code
// without importing each other.
package apperr

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
)
