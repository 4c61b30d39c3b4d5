package department

import (
	"fmt"
	"time"

	"campus-portal/internal/apperr"
)

var ErrNotFound = fmt.Errorf("department %w", apperr.ErrNotFound)

type Department struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Icon        string    `json:"icon"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// Input is the create/edit form. Slug is derived from Name when empty.
type Input struct {
	Name        string `json:"name" validate:"required,max=120"`
	Slug        string `json:"slug" validate:"omitempty,max=120"`
	Icon        string `json:"icon" validate:"max=60"`
	Email       string `json:"email" validate:"required,email"`
	Phone       string `json:"phone" validate:"required"`
	Description string `json:"description" validate:"required"`
}
