package chat

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"campus-portal/internal/apperr"
	"campus-portal/internal/changefeed"
	"campus-portal/internal/live"
)

const requestTimeout = 10 * time.Second

// Frames the browser sends.
type inboundFrame struct {
	Type           string `json:"type"`
	ConversationID string `json:"conversation_id"`
	Department     string `json:"department"`
	Student        string `json:"student"`
	Text           string `json:"text"`
	AsDepartment   bool   `json:"as_department"`
}

// Frames the server pushes.
type conversationsFrame struct {
	Type          string         `json:"type"`
	Conversations []Conversation `json:"conversations"`
}

type messagesFrame struct {
	Type           string    `json:"type"`
	ConversationID string    `json:"conversation_id"`
	Messages       []Message `json:"messages"`
}

type selectedFrame struct {
	Type           string `json:"type"`
	ConversationID string `json:"conversation_id"`
}

type errorFrame struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

// Client is a middleman between the websocket connection and the inbox
// controller.
type Client struct {
	conn       *live.Conn
	controller *Controller
	projection *Projection
	viewer     Viewer
}

func newClient(ctx context.Context, conn *live.Conn, h *Handler, v Viewer) *Client {
	c := &Client{conn: conn, projection: h.projection, viewer: v}
	c.controller = NewController(ctx, h.service, h.projection, h.presence, v, func(id string, msgs []Message) {
		conn.WriteJSON(messagesFrame{Type: "messages", ConversationID: id, Messages: msgs})
	})
	return c
}

// run drives the session until the connection closes.
func (c *Client) run(ctx context.Context, deepLink, student string) {
	go c.conn.WritePump(func() { c.controller.Touch(ctx) })

	go func() {
		err := c.projection.Watch(ctx, c.viewer, func(conversations []Conversation) {
			c.conn.WriteJSON(conversationsFrame{Type: "conversations", Conversations: conversations})
		})
		if err != nil && !errors.Is(err, changefeed.ErrClosed) {
			log.Printf("chat: watch conversations: %v", err)
		}
		c.conn.Close()
	}()

	if deepLink != "" {
		c.handle(ctx, inboundFrame{Type: "select", Department: deepLink, Student: student})
	}

	c.conn.ReadPump(func(raw []byte) {
		var f inboundFrame
		if err := json.Unmarshal(raw, &f); err != nil {
			c.fail(apperr.ErrInvalidInput)
			return
		}
		c.handle(ctx, f)
	})
	c.controller.Close()
}

func (c *Client) handle(ctx context.Context, f inboundFrame) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	switch f.Type {
	case "select":
		if f.Department != "" {
			conv, err := c.controller.SelectBySlug(ctx, f.Department, f.Student)
			if err != nil {
				c.fail(err)
				return
			}
			c.conn.WriteJSON(selectedFrame{Type: "selected", ConversationID: conv.ID})
			return
		}
		if err := c.controller.Select(ctx, f.ConversationID); err != nil {
			c.fail(err)
			return
		}
		c.conn.WriteJSON(selectedFrame{Type: "selected", ConversationID: f.ConversationID})

	case "send":
		if _, err := c.controller.Send(ctx, f.Text, f.AsDepartment); err != nil {
			c.fail(err)
		}

	default:
		c.fail(apperr.ErrInvalidInput)
	}
}

func (c *Client) fail(err error) {
	msg := "internal error"
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		msg = "conversation not found"
	case errors.Is(err, apperr.ErrInvalidInput), errors.Is(err, apperr.ErrForbidden):
		msg = err.Error()
	default:
		log.Printf("chat: session: %v", err)
	}
	c.conn.WriteJSON(errorFrame{Type: "error", Error: msg})
}
