package chat

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"

	"github.com/google/uuid"

	"campus-portal/internal/changefeed"
)

// Controller is one live inbox session. It holds the current selection,
// keeps presence for it, and streams the selected thread to push.
type Controller struct {
	service    *Service
	projection *Projection
	presence   Presence
	viewer     Viewer
	session    string

	onMessages func(conversationID string, messages []Message)

	// ctx outlives individual calls; watches started by Select hang off it.
	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	selected  string
	stopWatch context.CancelFunc
	watchDone chan struct{}
}

func NewController(ctx context.Context, service *Service, projection *Projection, presence Presence, viewer Viewer, onMessages func(string, []Message)) *Controller {
	ctx, cancel := context.WithCancel(ctx)
	if presence == nil {
		presence = service.presence
	}
	return &Controller{
		service:    service,
		projection: projection,
		presence:   presence,
		viewer:     viewer,
		session:    uuid.NewString(),
		onMessages: onMessages,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Selected returns the open conversation id, or "" when nothing is open.
func (c *Controller) Selected() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selected
}

// Select opens a conversation, or closes the current one when id is "".
// Opening marks it read for this side and starts streaming its messages.
func (c *Controller) Select(ctx context.Context, id string) error {
	if id != "" {
		if _, err := c.service.Get(ctx, c.viewer, id); err != nil {
			return err
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if id == c.selected && id != "" {
		_, err := c.service.Open(ctx, c.viewer.Party, id)
		return err
	}

	c.clearLocked(ctx)
	if id == "" {
		return nil
	}

	if err := c.presence.Enter(ctx, c.viewer.Party, id, c.session); err != nil {
		log.Printf("chat: presence enter %s: %v", id, err)
	}
	if _, err := c.service.Open(ctx, c.viewer.Party, id); err != nil {
		_ = c.presence.Leave(ctx, c.viewer.Party, id, c.session)
		return err
	}
	c.selected = id

	watchCtx, stop := context.WithCancel(c.ctx)
	done := make(chan struct{})
	c.stopWatch, c.watchDone = stop, done
	go func() {
		defer close(done)
		err := c.projection.WatchMessages(watchCtx, id, func(msgs []Message) {
			if c.onMessages != nil {
				c.onMessages(id, msgs)
			}
		})
		if err != nil && !errors.Is(err, changefeed.ErrClosed) {
			log.Printf("chat: watch messages %s: %v", id, err)
		}
	}()
	return nil
}

// SelectBySlug follows a department deep link. Admins pass the student
// whose thread they want; students always land on their own.
func (c *Controller) SelectBySlug(ctx context.Context, slug, studentID string) (*Conversation, error) {
	conv, err := c.service.FindForViewer(ctx, c.viewer, strings.ToLower(strings.TrimSpace(slug)), strings.ToLower(strings.TrimSpace(studentID)))
	if err != nil {
		return nil, err
	}
	if err := c.Select(ctx, conv.ID); err != nil {
		return nil, err
	}
	return conv, nil
}

// Send posts text to the selected conversation. With nothing selected or
// blank text it does nothing and returns a nil message. Admins may reply as
// the conversation's department.
func (c *Controller) Send(ctx context.Context, text string, asDepartment bool) (*Message, error) {
	id := c.Selected()
	if id == "" || strings.TrimSpace(text) == "" {
		return nil, nil
	}

	sender := StudentSender()
	if c.viewer.Party == PartyAdmin {
		sender = AdminSender()
		if asDepartment {
			conv, err := c.service.Get(ctx, c.viewer, id)
			if err != nil {
				return nil, err
			}
			sender = DepartmentSender(conv.Name)
		}
	}

	_, m, err := c.service.Send(ctx, id, text, sender)
	return m, err
}

// Touch refreshes presence for the open conversation.
func (c *Controller) Touch(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.selected
	if id == "" {
		return
	}
	if err := c.presence.Enter(ctx, c.viewer.Party, id, c.session); err != nil {
		log.Printf("chat: presence refresh %s: %v", id, err)
	}
}

// Close drops the selection and stops every watch.
func (c *Controller) Close() {
	c.mu.Lock()
	c.clearLocked(context.Background())
	c.mu.Unlock()
	c.cancel()
}

func (c *Controller) clearLocked(ctx context.Context) {
	if c.stopWatch != nil {
		c.stopWatch()
		<-c.watchDone
		c.stopWatch, c.watchDone = nil, nil
	}
	if c.selected != "" {
		if err := c.presence.Leave(ctx, c.viewer.Party, c.selected, c.session); err != nil {
			log.Printf("chat: presence leave %s: %v", c.selected, err)
		}
		c.selected = ""
	}
}
