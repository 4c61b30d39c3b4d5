package chat

import (
	"context"

	"campus-portal/internal/changefeed"
)

// Projection is the read side of the inbox: snapshots of the conversation
// list and of one thread, refreshed whenever the change feed reports a write.
type Projection struct {
	service *Service
	src     changefeed.Source
}

func NewProjection(service *Service, src changefeed.Source) *Projection {
	return &Projection{service: service, src: src}
}

func (p *Projection) Conversations(ctx context.Context, v Viewer) ([]Conversation, error) {
	return p.service.Conversations(ctx, v)
}

// Watch calls fn with v's conversation list now and after every change to
// any conversation, until ctx is done.
func (p *Projection) Watch(ctx context.Context, v Viewer, fn func([]Conversation)) error {
	return changefeed.Watch(ctx, p.src,
		changefeed.Query{Collections: []string{changefeed.Conversations}},
		func(ctx context.Context) ([]Conversation, error) { return p.service.Conversations(ctx, v) },
		fn,
	)
}

// WatchMessages calls fn with the thread's messages, oldest first, now and
// after every message appended to it.
func (p *Projection) WatchMessages(ctx context.Context, conversationID string, fn func([]Message)) error {
	return changefeed.Watch(ctx, p.src,
		changefeed.Query{
			Collections: []string{changefeed.Messages},
			Match:       func(ev changefeed.Event) bool { return ev.DocumentID == conversationID },
		},
		func(ctx context.Context) ([]Message, error) { return p.service.store.ListMessages(ctx, conversationID) },
		fn,
	)
}
