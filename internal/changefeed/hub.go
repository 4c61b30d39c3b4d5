package changefeed

import (
	"context"
)

// Hub multiplexes one upstream subscription to every local subscriber, so a
// server instance holds a single Redis subscription no matter how many
// sessions are watching.
type Hub struct {
	upstream    Source
	collections []string

	// Only Run touches listeners.
	listeners  map[*listener]bool
	register   chan *listener
	unregister chan *listener
	done       chan struct{}
}

type listener struct {
	collections []string
	send        chan Event
}

func NewHub(upstream Source, collections ...string) *Hub {
	return &Hub{
		upstream:    upstream,
		collections: collections,
		listeners:   make(map[*listener]bool),
		register:    make(chan *listener),
		unregister:  make(chan *listener),
		done:        make(chan struct{}),
	}
}

// Run subscribes upstream and routes events until ctx is cancelled or the
// upstream subscription ends. There is no reconnect: once Run returns, new
// subscriptions fail with ErrClosed.
func (h *Hub) Run(ctx context.Context) error {
	defer close(h.done)

	sub, err := h.upstream.Subscribe(ctx, h.collections...)
	if err != nil {
		return err
	}
	defer sub.Close()
	defer func() {
		for l := range h.listeners {
			close(l.send)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case l := <-h.register:
			h.listeners[l] = true

		case l := <-h.unregister:
			if _, ok := h.listeners[l]; ok {
				delete(h.listeners, l)
				close(l.send)
			}

		case ev, ok := <-sub.Events():
			if !ok {
				return ErrClosed
			}
			for l := range h.listeners {
				if !wants(l.collections, ev.Collection) {
					continue
				}
				select {
				case l.send <- ev:
				default:
				}
			}
		}
	}
}

func (h *Hub) Subscribe(ctx context.Context, collections ...string) (*Subscription, error) {
	l := &listener{collections: collections, send: make(chan Event, subscriberBuffer)}

	select {
	case h.register <- l:
	case <-h.done:
		return nil, ErrClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	return NewSubscription(l.send, func() {
		select {
		case h.unregister <- l:
		case <-h.done:
		}
	}), nil
}
