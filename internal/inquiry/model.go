package inquiry

import (
	"fmt"
	"time"

	"campus-portal/internal/apperr"
)

var ErrNotFound = fmt.Errorf("inquiry %w", apperr.ErrNotFound)

type Status string

const (
	StatusPending  Status = "Pending"
	StatusApproved Status = "Approved"
	StatusRejected Status = "Rejected"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// Inquiry is a routed student question. Recommended holds the department
// the classifier (or an admin reassignment) picked.
type Inquiry struct {
	ID          string    `json:"id"`
	Query       string    `json:"query"`
	Recommended string    `json:"recommended"`
	Confidence  float64   `json:"confidence"`
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

type SubmitInput struct {
	Query string `json:"query" validate:"required,max=2000"`
}

type StatusInput struct {
	Status string `json:"status" validate:"required,oneof=Pending Approved Rejected"`
}

type ReassignInput struct {
	Department string `json:"department" validate:"required,max=120"`
}

// Submission is what a student gets back: the stored inquiry plus every
// department the classifier considered.
type Submission struct {
	Inquiry         *Inquiry         `json:"inquiry"`
	Recommendations []Recommendation `json:"recommendations"`
}
