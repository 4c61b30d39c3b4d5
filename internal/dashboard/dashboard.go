// Package dashboard serves the admin overview counters.
package dashboard

import (
	"context"
	"net/http"

	"campus-portal/internal/changefeed"
	"campus-portal/internal/live"
	"campus-portal/internal/web"
)

type Counter func(ctx context.Context) (int, error)

type Stats struct {
	Students         int `json:"students"`
	Announcements    int `json:"announcements"`
	Departments      int `json:"departments"`
	PendingInquiries int `json:"pending_inquiries"`
	UnreadMessages   int `json:"unread_messages"`
}

// Sources wires each stat to the service that owns it.
type Sources struct {
	Students         Counter
	Announcements    Counter
	Departments      Counter
	PendingInquiries Counter
	UnreadMessages   Counter
}

type Service struct {
	src Sources
}

func NewService(src Sources) *Service {
	return &Service{src: src}
}

func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}
	fields := []struct {
		count Counter
		dst   *int
	}{
		{s.src.Students, &stats.Students},
		{s.src.Announcements, &stats.Announcements},
		{s.src.Departments, &stats.Departments},
		{s.src.PendingInquiries, &stats.PendingInquiries},
		{s.src.UnreadMessages, &stats.UnreadMessages},
	}
	for _, f := range fields {
		if f.count == nil {
			continue
		}
		n, err := f.count(ctx)
		if err != nil {
			return nil, err
		}
		*f.dst = n
	}
	return stats, nil
}

type Handler struct {
	Service *Service
}

func NewHandler(s *Service) *Handler {
	return &Handler{Service: s}
}

func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Service.Stats(r.Context())
	if err != nil {
		web.Error(w, err)
		return
	}
	web.JSON(w, http.StatusOK, stats)
}

// Stream keeps the dashboard tiles current.
func (h *Handler) Stream(src changefeed.Source) http.HandlerFunc {
	return live.Stream(src, "stats", func(ctx context.Context, _ *http.Request) (any, error) {
		return h.Service.Stats(ctx)
	}, changefeed.Users, changefeed.Announcements, changefeed.Departments, changefeed.Inquiries, changefeed.Conversations)
}
