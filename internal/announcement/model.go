package announcement

import (
	"fmt"
	"time"

	"campus-portal/internal/apperr"
)

var ErrNotFound = fmt.Errorf("announcement %w", apperr.ErrNotFound)

type Category string

const (
	CategoryAcademics    Category = "Academics"
	CategoryEvent        Category = "Event"
	CategoryAnnouncement Category = "Announcement"
)

type Announcement struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Category    Category  `json:"category"`
	Department  string    `json:"department"`
	Date        string    `json:"date"`
	Description string    `json:"description"`
	Image       string    `json:"image"`
	DataAIHint  string    `json:"data_ai_hint"`
	CreatedAt   time.Time `json:"created_at"`
	Badge       string    `json:"badge"`
}

// Input is the publish/edit form. Date defaults to the publish day.
type Input struct {
	Title       string `json:"title" validate:"required,max=255"`
	Category    string `json:"category" validate:"required,oneof=Academics Event Announcement"`
	Department  string `json:"department" validate:"required"`
	Date        string `json:"date"`
	Description string `json:"description" validate:"required"`
	Image       string `json:"image" validate:"omitempty,url"`
	DataAIHint  string `json:"data_ai_hint" validate:"max=120"`
}

// BadgeVariant is the badge style the portal renders for a category: events
// stand out, everything else is secondary.
func BadgeVariant(c Category) string {
	if c == CategoryEvent {
		return "default"
	}
	return "secondary"
}
