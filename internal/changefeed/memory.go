package changefeed

import (
	"context"
	"sync"
)

const subscriberBuffer = 64

// MemoryFeed fans events out inside one process.
type MemoryFeed struct {
	mu   sync.Mutex
	subs map[*memorySub]struct{}
}

type memorySub struct {
	collections []string
	ch          chan Event
}

func NewMemoryFeed() *MemoryFeed {
	return &MemoryFeed{subs: make(map[*memorySub]struct{})}
}

func (f *MemoryFeed) Publish(_ context.Context, ev Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for sub := range f.subs {
		if !wants(sub.collections, ev.Collection) {
			continue
		}
		// A full buffer already holds a pending refresh for this subscriber.
		select {
		case sub.ch <- ev:
		default:
		}
	}
	return nil
}

func (f *MemoryFeed) Subscribe(_ context.Context, collections ...string) (*Subscription, error) {
	sub := &memorySub{collections: collections, ch: make(chan Event, subscriberBuffer)}

	f.mu.Lock()
	f.subs[sub] = struct{}{}
	f.mu.Unlock()

	return NewSubscription(sub.ch, func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		if _, ok := f.subs[sub]; ok {
			delete(f.subs, sub)
			close(sub.ch)
		}
	}), nil
}
