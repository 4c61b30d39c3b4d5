package notification

import (
	"fmt"
	"time"

	"campus-portal/internal/apperr"
)

var ErrNotFound = fmt.Errorf("notification %w", apperr.ErrNotFound)

// Audience separates the student-facing feed from the admin-facing one.
type Audience string

const (
	AudienceUser  Audience = "user"
	AudienceAdmin Audience = "admin"
)

type Type string

const (
	TypeAnnouncement Type = "announcement"
	TypeInquiry      Type = "inquiry"
	TypeRegistration Type = "registration"
)

// categories lists, per audience, the independent streams merged into its feed.
var categories = map[Audience][]Type{
	AudienceUser:  {TypeAnnouncement, TypeInquiry},
	AudienceAdmin: {TypeRegistration, TypeInquiry},
}

type Item struct {
	ID          string    `json:"id"`
	Audience    Audience  `json:"audience"`
	Type        Type      `json:"type"`
	Title       string    `json:"title"`
	Source      string    `json:"source"`
	Description string    `json:"description"`
	CTALink     string    `json:"cta_link,omitempty"`
	CTAText     string    `json:"cta_text,omitempty"`
	Read        bool      `json:"read"`
	CreatedAt   time.Time `json:"created_at"`

	// Date is CreatedAt rendered relative to the time of the request.
	Date string `json:"date"`
}

// Feed is one audience's notifications: every category merged newest first,
// plus the per-category lists the portal shows on separate tabs.
type Feed struct {
	Items      []Item          `json:"items"`
	Categories map[Type][]Item `json:"categories"`
	Unread     int             `json:"unread"`
}
