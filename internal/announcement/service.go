package announcement

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"campus-portal/internal/changefeed"
	"campus-portal/internal/notification"
	"campus-portal/internal/validate"
)

const dateLayout = "January 2, 2006"

type Store interface {
	List(ctx context.Context) ([]Announcement, error)
	Create(ctx context.Context, a *Announcement) error
	Update(ctx context.Context, a *Announcement) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
}

// Notifier records feed items. Implemented by *notification.Service.
type Notifier interface {
	Notify(ctx context.Context, n notification.Item) (*notification.Item, error)
}

type Service struct {
	store    Store
	feed     changefeed.Publisher
	notifier Notifier
	now      func() time.Time
}

func NewService(store Store, feed changefeed.Publisher, notifier Notifier) *Service {
	return &Service{store: store, feed: feed, notifier: notifier, now: time.Now}
}

// List returns every announcement, newest first, with its badge resolved.
func (s *Service) List(ctx context.Context) ([]Announcement, error) {
	announcements, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range announcements {
		announcements[i].Badge = BadgeVariant(announcements[i].Category)
	}
	return announcements, nil
}

func (s *Service) Count(ctx context.Context) (int, error) {
	return s.store.Count(ctx)
}

// Create publishes an announcement and drops a matching item into the
// students' notification feed.
func (s *Service) Create(ctx context.Context, in Input) (*Announcement, error) {
	a, err := s.fromInput(in)
	if err != nil {
		return nil, err
	}
	a.ID = uuid.NewString()
	if err := s.store.Create(ctx, a); err != nil {
		return nil, err
	}
	s.publish(ctx, a.ID, changefeed.OpCreated)

	if s.notifier != nil {
		_, err := s.notifier.Notify(ctx, notification.Item{
			Audience:    notification.AudienceUser,
			Type:        notification.TypeAnnouncement,
			Title:       a.Title,
			Source:      a.Department,
			Description: a.Description,
			CTALink:     "/dashboard",
			CTAText:     "View Announcement",
		})
		if err != nil {
			log.Printf("announcement: notify %s: %v", a.ID, err)
		}
	}
	return a, nil
}

func (s *Service) Update(ctx context.Context, id string, in Input) (*Announcement, error) {
	a, err := s.fromInput(in)
	if err != nil {
		return nil, err
	}
	a.ID = id
	if err := s.store.Update(ctx, a); err != nil {
		return nil, err
	}
	s.publish(ctx, a.ID, changefeed.OpUpdated)
	return a, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.publish(ctx, id, changefeed.OpDeleted)
	return nil
}

// Seed posts the sample announcements when the board is empty. It bypasses
// the notifier so a fresh install does not flood the student feed.
func (s *Service) Seed(ctx context.Context) error {
	n, err := s.store.Count(ctx)
	if err != nil || n > 0 {
		return err
	}
	for _, in := range initialAnnouncements {
		a, err := s.fromInput(in)
		if err != nil {
			return err
		}
		a.ID = uuid.NewString()
		if err := s.store.Create(ctx, a); err != nil {
			return err
		}
	}
	s.publish(ctx, "seed", changefeed.OpCreated)
	log.Println("Seeded sample announcements.")
	return nil
}

func (s *Service) publish(ctx context.Context, id string, op changefeed.Op) {
	if err := changefeed.Notify(ctx, s.feed, changefeed.Announcements, id, op); err != nil {
		log.Printf("announcement: publish %s: %v", id, err)
	}
}

func (s *Service) fromInput(in Input) (*Announcement, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Department = strings.TrimSpace(in.Department)
	in.Description = strings.TrimSpace(in.Description)
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	date := strings.TrimSpace(in.Date)
	if date == "" {
		date = s.now().Format(dateLayout)
	}
	category := Category(in.Category)
	return &Announcement{
		Title:       in.Title,
		Category:    category,
		Department:  in.Department,
		Date:        date,
		Description: in.Description,
		Image:       strings.TrimSpace(in.Image),
		DataAIHint:  strings.TrimSpace(in.DataAIHint),
		Badge:       BadgeVariant(category),
	}, nil
}

var initialAnnouncements = []Input{
	{Title: "Midterm Examinations Schedule", Category: "Academics", Department: "Academics Office", Date: "October 25, 2024",
		Description: "The midterm examination schedule for the first semester is now posted. Please check your respective department bulletin boards.",
		Image:       "https://placehold.co/600x400.png", DataAIHint: "exam schedule"},
	{Title: "NBSC Foundation Day Celebration", Category: "Event", Department: "Student Affairs", Date: "October 22, 2024",
		Description: "Join us in celebrating the college foundation day with a week of festivities, games, and cultural shows.",
		Image:       "https://placehold.co/600x400.png", DataAIHint: "campus celebration"},
	{Title: "System Maintenance Alert", Category: "Announcement", Department: "IT Services", Date: "October 20, 2024",
		Description: "The student portal will be down for scheduled maintenance this Saturday from 10 PM to 2 AM.",
		Image:       "https://placehold.co/600x400.png", DataAIHint: "server maintenance"},
}
