package user

import (
	"fmt"
	"time"

	"campus-portal/internal/apperr"
)

var (
	ErrNotFound           = fmt.Errorf("student %w", apperr.ErrNotFound)
	ErrInvalidCredentials = fmt.Errorf("invalid credentials: %w", apperr.ErrUnauthorized)
	ErrInactive           = fmt.Errorf("account is inactive: %w", apperr.ErrForbidden)
)

type Status string

const (
	StatusActive   Status = "Active"
	StatusInactive Status = "Inactive"
)

type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Password  string    `json:"-"`
	Course    string    `json:"course"`
	Status    Status    `json:"status"`
	Notified  bool      `json:"notified"`
	CreatedAt time.Time `json:"created_at"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email,institutional"`
	Password string `json:"password" validate:"required,min=6"`
}

type AdminLoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	Role        string `json:"role"`
	Name        string `json:"name"`
	Email       string `json:"email"`
}

// CreateRequest is the admin "add student" form.
type CreateRequest struct {
	Name   string `json:"name" validate:"required,max=120"`
	Email  string `json:"email" validate:"required,email,institutional"`
	Course string `json:"course" validate:"max=120"`
}

type UpdateRequest struct {
	Name   string `json:"name" validate:"required,max=120"`
	Course string `json:"course" validate:"max=120"`
	Status string `json:"status" validate:"required,oneof=Active Inactive"`
}
