package chat

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"

	"campus-portal/internal/apperr"
	"campus-portal/internal/changefeed"
	"campus-portal/internal/department"
)

const (
	defaultAvatar    = "https://placehold.co/100x100.png"
	emptyLastMessage = "No messages yet"
)

type Store interface {
	List(ctx context.Context, studentID string) ([]Conversation, error)
	Get(ctx context.Context, id string) (*Conversation, error)
	FindBySlugStudent(ctx context.Context, slug, studentID string) (*Conversation, error)
	CreateOrGet(ctx context.Context, c *Conversation) (*Conversation, bool, error)
	ListMessages(ctx context.Context, conversationID string) ([]Message, error)
	AppendMessage(ctx context.Context, m *Message, recipientViewing bool) (*Conversation, error)
	ResetUnread(ctx context.Context, id string, p Party) (*Conversation, error)
}

type DepartmentFinder interface {
	GetBySlug(ctx context.Context, slug string) (*department.Department, error)
}

type Service struct {
	store       Store
	departments DepartmentFinder
	presence    Presence
	feed        changefeed.Publisher
}

func NewService(store Store, departments DepartmentFinder, presence Presence, feed changefeed.Publisher) *Service {
	if presence == nil {
		presence = NewMemoryPresence()
	}
	return &Service{store: store, departments: departments, presence: presence, feed: feed}
}

// Conversations lists what v may see, most recent activity first.
func (s *Service) Conversations(ctx context.Context, v Viewer) ([]Conversation, error) {
	return s.store.List(ctx, v.scope())
}

// Get returns the conversation if v may see it. Other students' threads
// report not found.
func (s *Service) Get(ctx context.Context, v Viewer, id string) (*Conversation, error) {
	c, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !v.canSee(c) {
		return nil, ErrNotFound
	}
	return c, nil
}

func (s *Service) Messages(ctx context.Context, v Viewer, conversationID string) ([]Message, error) {
	if _, err := s.Get(ctx, v, conversationID); err != nil {
		return nil, err
	}
	return s.store.ListMessages(ctx, conversationID)
}

// Send appends a message and charges it to the other party's unread
// counter. The sender's own counter is left alone.
func (s *Service) Send(ctx context.Context, conversationID, text string, sender Sender) (*Conversation, *Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil, ErrEmptyMessage
	}
	if err := sender.Validate(); err != nil {
		return nil, nil, err
	}

	recipient := sender.Party().Other()
	viewing, err := s.presence.Viewing(ctx, recipient, conversationID)
	if err != nil {
		log.Printf("chat: presence lookup %s: %v", conversationID, err)
		viewing = false
	}

	m := &Message{
		ID:             uuid.NewString(),
		ConversationID: conversationID,
		Text:           text,
		Sender:         sender,
	}
	c, err := s.store.AppendMessage(ctx, m, viewing)
	if err != nil {
		return nil, nil, err
	}

	s.publish(ctx, changefeed.Messages, conversationID, changefeed.OpCreated)
	s.publish(ctx, changefeed.Conversations, conversationID, changefeed.OpUpdated)
	return c, m, nil
}

// Open marks the conversation as read for p. Calling it again changes nothing.
func (s *Service) Open(ctx context.Context, p Party, conversationID string) (*Conversation, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("party %q: %w", p, apperr.ErrInvalidInput)
	}
	c, err := s.store.ResetUnread(ctx, conversationID, p)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, changefeed.Conversations, conversationID, changefeed.OpUpdated)
	return c, nil
}

// StartConversation returns the student's thread with a department,
// creating an empty one the first time.
func (s *Service) StartConversation(ctx context.Context, v Viewer, slug string) (*Conversation, error) {
	if v.Party != PartyStudent {
		return nil, fmt.Errorf("only students start conversations: %w", apperr.ErrForbidden)
	}
	d, err := s.departments.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	c, created, err := s.store.CreateOrGet(ctx, &Conversation{
		ID:          uuid.NewString(),
		Slug:        d.Slug,
		Name:        d.Name,
		StudentName: v.Name,
		StudentID:   v.StudentID,
		Avatar:      defaultAvatar,
		DataAIHint:  strings.ToLower(d.Icon),
		LastMessage: emptyLastMessage,
	})
	if err != nil {
		return nil, err
	}
	if created {
		s.publish(ctx, changefeed.Conversations, c.ID, changefeed.OpCreated)
	}
	return c, nil
}

// FindForViewer resolves a department deep link to v's conversation.
// Students get one created on demand and studentID is ignored. Admins only
// see existing threads: studentID picks one, and without it the link must
// match exactly one student.
func (s *Service) FindForViewer(ctx context.Context, v Viewer, slug, studentID string) (*Conversation, error) {
	if v.Party == PartyStudent {
		return s.StartConversation(ctx, v, slug)
	}
	if studentID != "" {
		return s.store.FindBySlugStudent(ctx, slug, studentID)
	}

	conversations, err := s.store.List(ctx, "")
	if err != nil {
		return nil, err
	}
	var match *Conversation
	for i := range conversations {
		if conversations[i].Slug != slug {
			continue
		}
		if match != nil {
			return nil, ErrStudentRequired
		}
		match = &conversations[i]
	}
	if match == nil {
		return nil, ErrNotFound
	}
	return match, nil
}

// Seed opens the sample threads for the first seeded student when the
// inbox is empty.
func (s *Service) Seed(ctx context.Context) error {
	existing, err := s.store.List(ctx, "")
	if err != nil || len(existing) > 0 {
		return err
	}

	student := Viewer{Party: PartyStudent, StudentID: "juan.delacruz@nbsc.edu.ph", Name: "Juan Dela Cruz"}
	for _, thread := range sampleThreads {
		c, err := s.StartConversation(ctx, student, thread.slug)
		if err != nil {
			return err
		}
		for _, line := range thread.lines {
			sender, err := ParseSender(line.sender)
			if err != nil {
				return err
			}
			if _, _, err := s.Send(ctx, c.ID, line.text, sender); err != nil {
				return err
			}
		}
	}
	log.Println("Seeded sample conversations.")
	return nil
}

func (s *Service) publish(ctx context.Context, collection, id string, op changefeed.Op) {
	if err := changefeed.Notify(ctx, s.feed, collection, id, op); err != nil {
		log.Printf("chat: publish %s %s: %v", collection, id, err)
	}
}

var sampleThreads = []struct {
	slug  string
	lines []struct{ sender, text string }
}{
	{"registrars-office", []struct{ sender, text string }{
		{"Registrar's Office", "Your documents are ready for pickup."},
	}},
	{"it-services", []struct{ sender, text string }{
		{"IT Services", "We have resolved the issue with your portal access. Please try logging in again."},
		{"You", "Thank you, it's working now!"},
	}},
}
