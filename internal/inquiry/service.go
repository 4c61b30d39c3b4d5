package inquiry

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"campus-portal/internal/changefeed"
	"campus-portal/internal/notification"
	"campus-portal/internal/validate"
)

type Store interface {
	List(ctx context.Context) ([]Inquiry, error)
	Get(ctx context.Context, id string) (*Inquiry, error)
	Create(ctx context.Context, i *Inquiry) error
	Upsert(ctx context.Context, i *Inquiry) error
	UpdateStatus(ctx context.Context, id string, status Status) (*Inquiry, error)
	Reassign(ctx context.Context, id, department string) (*Inquiry, error)
	CountByStatus(ctx context.Context, status Status) (int, error)
}

type Notifier interface {
	Notify(ctx context.Context, n notification.Item) (*notification.Item, error)
}

type Service struct {
	store      Store
	classifier Classifier
	feed       changefeed.Publisher
	notifier   Notifier
}

func NewService(store Store, classifier Classifier, feed changefeed.Publisher, notifier Notifier) *Service {
	if classifier == nil {
		classifier = KeywordClassifier{}
	}
	return &Service{store: store, classifier: classifier, feed: feed, notifier: notifier}
}

func (s *Service) List(ctx context.Context) ([]Inquiry, error) {
	return s.store.List(ctx)
}

func (s *Service) CountPending(ctx context.Context) (int, error) {
	return s.store.CountByStatus(ctx, StatusPending)
}

// Submit classifies a student's question and files it for review under the
// best-ranked department.
func (s *Service) Submit(ctx context.Context, in SubmitInput) (*Submission, error) {
	in.Query = strings.TrimSpace(in.Query)
	if err := validate.Struct(in); err != nil {
		return nil, err
	}

	recs, err := s.classifier.Classify(ctx, in.Query)
	if err != nil {
		return nil, fmt.Errorf("classify inquiry: %w", err)
	}
	if len(recs) == 0 {
		return nil, errors.New("classify inquiry: no recommendation")
	}

	i := &Inquiry{
		ID:          uuid.NewString(),
		Query:       in.Query,
		Recommended: recs[0].Department,
		Confidence:  recs[0].Confidence,
		Status:      StatusPending,
	}
	if err := s.store.Create(ctx, i); err != nil {
		return nil, err
	}
	s.publish(ctx, i.ID, changefeed.OpCreated)
	s.notify(ctx, notification.Item{
		Audience:    notification.AudienceAdmin,
		Type:        notification.TypeInquiry,
		Title:       "New AI Inquiry",
		Source:      "Inquiry Router",
		Description: fmt.Sprintf("%q was routed to %s.", i.Query, i.Recommended),
		CTALink:     "/admin/inquiries",
		CTAText:     "Review Inquiry",
	})

	return &Submission{Inquiry: i, Recommendations: recs}, nil
}

func (s *Service) UpdateStatus(ctx context.Context, id string, in StatusInput) (*Inquiry, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	i, err := s.store.UpdateStatus(ctx, id, Status(in.Status))
	if err != nil {
		return nil, err
	}
	s.publish(ctx, i.ID, changefeed.OpUpdated)
	if i.Status == StatusApproved {
		s.notifyStudent(ctx, i)
	}
	return i, nil
}

// Reassign routes the inquiry to another department and approves it.
func (s *Service) Reassign(ctx context.Context, id string, in ReassignInput) (*Inquiry, error) {
	in.Department = strings.TrimSpace(in.Department)
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	i, err := s.store.Reassign(ctx, id, in.Department)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, i.ID, changefeed.OpUpdated)
	s.notifyStudent(ctx, i)
	return i, nil
}

// Seed writes the sample inquiries under fixed ids, so running it again
// overwrites rather than duplicates.
func (s *Service) Seed(ctx context.Context) error {
	for _, sample := range initialInquiries {
		i := sample
		i.ID = seedID(i.Query)
		if err := s.store.Upsert(ctx, &i); err != nil {
			return err
		}
	}
	s.publish(ctx, "seed", changefeed.OpUpdated)
	log.Println("Seeded sample inquiries.")
	return nil
}

func (s *Service) notifyStudent(ctx context.Context, i *Inquiry) {
	s.notify(ctx, notification.Item{
		Audience:    notification.AudienceUser,
		Type:        notification.TypeInquiry,
		Title:       "Re: " + i.Query,
		Source:      i.Recommended,
		Description: fmt.Sprintf("Your inquiry has been forwarded to %s.", i.Recommended),
		CTALink:     "/messages",
		CTAText:     "Open Messages",
	})
}

func (s *Service) notify(ctx context.Context, n notification.Item) {
	if s.notifier == nil {
		return
	}
	if _, err := s.notifier.Notify(ctx, n); err != nil {
		log.Printf("inquiry: notify %q: %v", n.Title, err)
	}
}

func (s *Service) publish(ctx context.Context, id string, op changefeed.Op) {
	if err := changefeed.Notify(ctx, s.feed, changefeed.Inquiries, id, op); err != nil {
		log.Printf("inquiry: publish %s: %v", id, err)
	}
}

var whitespace = regexp.MustCompile(`\s+`)

// seedID derives a stable id from the question text.
func seedID(query string) string {
	id := whitespace.ReplaceAllString(strings.ToLower(query), "-")
	if len(id) > 20 {
		id = id[:20]
	}
	return id
}

var initialInquiries = []Inquiry{
	{Query: "I forgot my password, how do I reset it?", Recommended: "IT Services", Confidence: 0.95, Status: StatusPending,
		CreatedAt: time.Date(2024, 7, 20, 10, 0, 0, 0, time.UTC)},
	{Query: "What are the requirements for shifting courses?", Recommended: "Academics Office", Confidence: 0.88, Status: StatusApproved,
		CreatedAt: time.Date(2024, 7, 19, 15, 30, 0, 0, time.UTC)},
	{Query: "Is there a penalty for late enrollment?", Recommended: "Registrar's Office", Confidence: 0.92, Status: StatusRejected,
		CreatedAt: time.Date(2024, 7, 19, 11, 0, 0, 0, time.UTC)},
	{Query: "How can I apply for a scholarship?", Recommended: "Student Affairs", Confidence: 0.85, Status: StatusPending,
		CreatedAt: time.Date(2024, 7, 20, 12, 0, 0, 0, time.UTC)},
}
