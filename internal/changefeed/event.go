// Package changefeed delivers document change notifications to subscribers.
// It plays the part of a managed document store's snapshot listeners: writers
// Publish after every mutation, readers Subscribe and re-query on each event.
package changefeed

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Collections carried on the feed.
const (
	Conversations = "conversations"
	Messages      = "messages"
	Announcements = "announcements"
	Departments   = "departments"
	Users         = "users"
	Inquiries     = "inquiries"
	Notifications = "notifications"
)

type Op string

const (
	OpCreated Op = "created"
	OpUpdated Op = "updated"
	OpDeleted Op = "deleted"
)

// Event describes one document mutation. For Messages the DocumentID is the
// parent conversation id.
type Event struct {
	Collection string    `json:"collection"`
	DocumentID string    `json:"document_id"`
	Op         Op        `json:"op"`
	At         time.Time `json:"at"`
}

var ErrClosed = errors.New("changefeed: subscription closed")

// Source is anything that can hand out subscriptions.
type Source interface {
	Subscribe(ctx context.Context, collections ...string) (*Subscription, error)
}

// Publisher announces mutations.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// Feed is both ends of the change stream.
type Feed interface {
	Source
	Publisher
}

// Subscription is a live stream of events. Close is the only way to cancel it.
type Subscription struct {
	events  <-chan Event
	closeFn func()
	once    sync.Once
}

// NewSubscription wraps an event channel and the function that tears it down.
func NewSubscription(events <-chan Event, closeFn func()) *Subscription {
	return &Subscription{events: events, closeFn: closeFn}
}

func (s *Subscription) Events() <-chan Event {
	return s.events
}

func (s *Subscription) Close() error {
	s.once.Do(func() {
		if s.closeFn != nil {
			s.closeFn()
		}
	})
	return nil
}

// Notify publishes a single event, stamping it with the current time.
func Notify(ctx context.Context, p Publisher, collection, id string, op Op) error {
	if p == nil {
		return nil
	}
	return p.Publish(ctx, Event{Collection: collection, DocumentID: id, Op: op, At: time.Now().UTC()})
}

func wants(collections []string, name string) bool {
	if len(collections) == 0 {
		return true
	}
	for _, c := range collections {
		if c == name {
			return true
		}
	}
	return false
}
