package chat

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"campus-portal/internal/apperr"
)

var (
	ErrNotFound     = fmt.Errorf("conversation %w", apperr.ErrNotFound)
	ErrEmptyMessage = fmt.Errorf("message text is empty: %w", apperr.ErrInvalidInput)

	// ErrStudentRequired is returned to admins following a department link
	// that more than one student has a thread with.
	ErrStudentRequired = fmt.Errorf("department has several student threads, pick a student: %w", apperr.ErrInvalidInput)
)

// Party is a side of a conversation. Each side has its own unread counter.
type Party string

const (
	PartyStudent Party = "student"
	PartyAdmin   Party = "admin"
)

// Other returns the opposite side.
func (p Party) Other() Party {
	if p == PartyStudent {
		return PartyAdmin
	}
	return PartyStudent
}

func (p Party) Valid() bool {
	return p == PartyStudent || p == PartyAdmin
}

type SenderKind string

const (
	SenderStudent    SenderKind = "student"
	SenderAdmin      SenderKind = "admin"
	SenderDepartment SenderKind = "department"
)

// Sender identifies who wrote a message. Department is set only for
// SenderDepartment.
type Sender struct {
	Kind       SenderKind
	Department string
}

func StudentSender() Sender { return Sender{Kind: SenderStudent} }

func AdminSender() Sender { return Sender{Kind: SenderAdmin} }

func DepartmentSender(name string) Sender {
	return Sender{Kind: SenderDepartment, Department: name}
}

// ParseSender reads the free-text sender labels older clients send:
// "You" is the student, "Admin" the admin, anything else a department.
func ParseSender(label string) (Sender, error) {
	label = strings.TrimSpace(label)
	switch strings.ToLower(label) {
	case "":
		return Sender{}, fmt.Errorf("sender: %w", apperr.ErrInvalidInput)
	case "you", "student":
		return StudentSender(), nil
	case "admin":
		return AdminSender(), nil
	default:
		return DepartmentSender(label), nil
	}
}

// String renders the label shown next to a message.
func (s Sender) String() string {
	switch s.Kind {
	case SenderStudent:
		return "You"
	case SenderAdmin:
		return "Admin"
	case SenderDepartment:
		return s.Department
	}
	return string(s.Kind)
}

// Party reports which side of the conversation wrote the message.
func (s Sender) Party() Party {
	switch s.Kind {
	case SenderStudent:
		return PartyStudent
	case SenderAdmin, SenderDepartment:
		return PartyAdmin
	}
	panic(fmt.Sprintf("chat: unknown sender kind %q", s.Kind))
}

func (s Sender) Validate() error {
	switch s.Kind {
	case SenderStudent, SenderAdmin:
		return nil
	case SenderDepartment:
		if strings.TrimSpace(s.Department) == "" {
			return fmt.Errorf("department sender without a name: %w", apperr.ErrInvalidInput)
		}
		return nil
	}
	return fmt.Errorf("sender kind %q: %w", s.Kind, apperr.ErrInvalidInput)
}

type senderJSON struct {
	Kind       SenderKind `json:"kind"`
	Department string     `json:"department,omitempty"`
	Label      string     `json:"label"`
}

func (s Sender) MarshalJSON() ([]byte, error) {
	return json.Marshal(senderJSON{Kind: s.Kind, Department: s.Department, Label: s.String()})
}

// UnmarshalJSON accepts either the object form or a bare label.
func (s *Sender) UnmarshalJSON(data []byte) error {
	var label string
	if err := json.Unmarshal(data, &label); err == nil {
		parsed, err := ParseSender(label)
		if err != nil {
			return err
		}
		*s = parsed
		return nil
	}
	var v senderJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*s = Sender{Kind: v.Kind, Department: v.Department}
	return s.Validate()
}

// Conversation is the thread between one student and one department.
// Unread counts messages the admin side has not seen; UnreadStudent the
// student side.
type Conversation struct {
	ID            string    `json:"id"`
	Slug          string    `json:"slug"`
	Name          string    `json:"name"`
	StudentName   string    `json:"student_name"`
	StudentID     string    `json:"student_id"`
	Avatar        string    `json:"avatar"`
	DataAIHint    string    `json:"data_ai_hint"`
	LastMessage   string    `json:"last_message"`
	Timestamp     time.Time `json:"timestamp"`
	Unread        int       `json:"unread"`
	UnreadStudent int       `json:"unread_student"`
	CreatedAt     time.Time `json:"created_at"`
}

// UnreadFor returns the counter belonging to p.
func (c *Conversation) UnreadFor(p Party) int {
	if p == PartyStudent {
		return c.UnreadStudent
	}
	return c.Unread
}

type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	Text           string    `json:"text"`
	Sender         Sender    `json:"sender"`
	Timestamp      time.Time `json:"timestamp"`
}

// Viewer is whoever is looking at the inbox. Students see only their own
// conversations; StudentID is empty for admins.
type Viewer struct {
	Party     Party
	StudentID string
	Name      string
}

func (v Viewer) canSee(c *Conversation) bool {
	return v.Party == PartyAdmin || c.StudentID == v.StudentID
}

// scope is the student filter passed to the store, "" for everything.
func (v Viewer) scope() string {
	if v.Party == PartyAdmin {
		return ""
	}
	return v.StudentID
}

type StartRequest struct {
	DepartmentSlug string `json:"department_slug" validate:"required"`
}

type SendRequest struct {
	Text         string `json:"text"`
	AsDepartment bool   `json:"as_department"`
}
