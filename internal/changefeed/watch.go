package changefeed

import (
	"context"
	"log"
)

// Query selects which events trigger a refresh.
type Query struct {
	Collections []string
	// Match narrows the events further, e.g. to one conversation's messages.
	Match func(Event) bool
}

// Watch pushes a fresh snapshot from load to push once immediately and again
// after every matching event, until ctx is cancelled. The subscription is
// opened before the first load so no change between the two is lost.
// A failed load is logged and skipped; the view keeps its previous snapshot.
func Watch[T any](ctx context.Context, src Source, q Query, load func(context.Context) (T, error), push func(T)) error {
	sub, err := src.Subscribe(ctx, q.Collections...)
	if err != nil {
		return err
	}
	defer sub.Close()

	refresh := func() {
		v, err := load(ctx)
		if err != nil {
			if ctx.Err() == nil {
				log.Printf("changefeed: reload %v: %v", q.Collections, err)
			}
			return
		}
		push(v)
	}

	refresh()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-sub.Events():
			if !ok {
				return ErrClosed
			}
			if q.Match != nil && !q.Match(ev) {
				continue
			}
			refresh()
		}
	}
}
