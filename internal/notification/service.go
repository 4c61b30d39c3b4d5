package notification

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"campus-portal/internal/apperr"
	"campus-portal/internal/changefeed"
)

type Store interface {
	Create(ctx context.Context, n *Item) error
	ListByType(ctx context.Context, audience Audience, typ Type) ([]Item, error)
	MarkRead(ctx context.Context, audience Audience, id string) error
	MarkAllRead(ctx context.Context, audience Audience) (int64, error)
	Count(ctx context.Context) (int, error)
}

type Service struct {
	store Store
	feed  changefeed.Publisher
	now   func() time.Time
}

func NewService(store Store, feed changefeed.Publisher) *Service {
	return &Service{store: store, feed: feed, now: time.Now}
}

// Notify records a new unread item stamped with the current time.
func (s *Service) Notify(ctx context.Context, n Item) (*Item, error) {
	if _, ok := categories[n.Audience]; !ok {
		return nil, fmt.Errorf("audience %q: %w", n.Audience, apperr.ErrInvalidInput)
	}
	if !allowed(n.Audience, n.Type) {
		return nil, fmt.Errorf("type %q for %s feed: %w", n.Type, n.Audience, apperr.ErrInvalidInput)
	}
	if strings.TrimSpace(n.Title) == "" {
		return nil, fmt.Errorf("title: %w", apperr.ErrInvalidInput)
	}

	n.ID = uuid.NewString()
	n.Read = false
	if n.CreatedAt.IsZero() {
		n.CreatedAt = s.now().UTC()
	}
	if err := s.store.Create(ctx, &n); err != nil {
		return nil, err
	}
	s.publish(ctx, n.ID, changefeed.OpCreated)
	return &n, nil
}

// Feed merges the audience's category streams into one list, newest first.
func (s *Service) Feed(ctx context.Context, audience Audience) (*Feed, error) {
	types, ok := categories[audience]
	if !ok {
		return nil, fmt.Errorf("audience %q: %w", audience, apperr.ErrInvalidInput)
	}

	now := s.now()
	feed := &Feed{Categories: make(map[Type][]Item, len(types))}
	streams := make([][]Item, 0, len(types))
	for _, typ := range types {
		items, err := s.store.ListByType(ctx, audience, typ)
		if err != nil {
			return nil, err
		}
		for i := range items {
			items[i].Date = RelativeTime(items[i].CreatedAt, now)
		}
		feed.Categories[typ] = items
		streams = append(streams, items)
	}

	feed.Items = Merge(streams...)
	for _, n := range feed.Items {
		if !n.Read {
			feed.Unread++
		}
	}
	return feed, nil
}

// MarkRead flips a single item to read. Calling it again is a no-op.
func (s *Service) MarkRead(ctx context.Context, audience Audience, id string) error {
	if err := s.store.MarkRead(ctx, audience, id); err != nil {
		return err
	}
	s.publish(ctx, id, changefeed.OpUpdated)
	return nil
}

func (s *Service) MarkAllRead(ctx context.Context, audience Audience) (int64, error) {
	n, err := s.store.MarkAllRead(ctx, audience)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.publish(ctx, string(audience), changefeed.OpUpdated)
	}
	return n, nil
}

// Merge combines independently sourced streams into one list sorted by
// creation time, newest first. Ties keep a stable order by id.
func Merge(streams ...[]Item) []Item {
	total := 0
	for _, s := range streams {
		total += len(s)
	}
	out := make([]Item, 0, total)
	for _, s := range streams {
		out = append(out, s...)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Seed loads the sample feed shown on a fresh install.
func (s *Service) Seed(ctx context.Context) error {
	n, err := s.store.Count(ctx)
	if err != nil || n > 0 {
		return err
	}
	now := s.now().UTC()
	for _, sample := range sampleItems {
		item := sample.item
		item.CreatedAt = now.Add(-sample.age)
		created, err := s.Notify(ctx, item)
		if err != nil {
			return err
		}
		if sample.read {
			if err := s.store.MarkRead(ctx, created.Audience, created.ID); err != nil {
				return err
			}
		}
	}
	log.Println("Seeded sample notifications.")
	return nil
}

func (s *Service) publish(ctx context.Context, id string, op changefeed.Op) {
	if err := changefeed.Notify(ctx, s.feed, changefeed.Notifications, id, op); err != nil {
		log.Printf("notification: publish %s: %v", id, err)
	}
}

func allowed(audience Audience, typ Type) bool {
	for _, t := range categories[audience] {
		if t == typ {
			return true
		}
	}
	return false
}

var sampleItems = []struct {
	item Item
	age  time.Duration
	read bool
}{
	{Item{Audience: AudienceUser, Type: TypeAnnouncement, Title: "New Grade Policy", Source: "Academics Office",
		Description: "A new grading policy has been implemented for the current semester. All students are advised to review the updated guidelines in the student handbook available on the portal."},
		2 * time.Hour, false},
	{Item{Audience: AudienceUser, Type: TypeAnnouncement, Title: "Campus-wide WiFi Upgrade", Source: "IT Services",
		Description: "The campus WiFi network will be undergoing a scheduled upgrade from 2 AM to 5 AM. Expect intermittent connectivity during this period."},
		24 * time.Hour, true},
	{Item{Audience: AudienceUser, Type: TypeInquiry, Title: "Re: Question about enrollment", Source: "Registrar's Office",
		Description: "Your enrollment for the upcoming semester has been confirmed. You can view your schedule and assessment in the student portal."},
		3 * time.Hour, false},
	{Item{Audience: AudienceUser, Type: TypeInquiry, Title: "Re: Technical issue with student portal", Source: "IT Services",
		Description: "The technical issue with the student portal has been resolved. Please clear your browser cache and try logging in again."},
		48 * time.Hour, true},
	{Item{Audience: AudienceAdmin, Type: TypeRegistration, Title: "New Student Registration", Source: "Registration",
		Description: "Jose Rizal has registered an account.", CTALink: "/admin/users", CTAText: "View Users"},
		time.Hour, false},
	{Item{Audience: AudienceAdmin, Type: TypeInquiry, Title: "New AI Inquiry", Source: "Inquiry Router",
		Description: "A new student inquiry requires your review.", CTALink: "/admin/inquiries", CTAText: "Review Inquiry"},
		4 * time.Hour, false},
	{Item{Audience: AudienceAdmin, Type: TypeInquiry, Title: "New AI Inquiry", Source: "Inquiry Router",
		Description: "A new student inquiry requires your review.", CTALink: "/admin/inquiries", CTAText: "Review Inquiry"},
		48 * time.Hour, true},
}
