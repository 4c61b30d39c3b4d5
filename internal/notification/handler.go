package notification

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"campus-portal/internal/changefeed"
	"campus-portal/internal/live"
	"campus-portal/internal/web"
)

// Handler serves one audience's feed; the router mounts one per panel.
type Handler struct {
	Service  *Service
	Audience Audience
}

func NewHandler(s *Service, audience Audience) *Handler {
	return &Handler{Service: s, Audience: audience}
}

func (h *Handler) Feed(w http.ResponseWriter, r *http.Request) {
	feed, err := h.Service.Feed(r.Context(), h.Audience)
	if err != nil {
		web.Error(w, err)
		return
	}
	web.JSON(w, http.StatusOK, feed)
}

func (h *Handler) MarkRead(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.MarkRead(r.Context(), h.Audience, chi.URLParam(r, "id")); err != nil {
		web.Error(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	n, err := h.Service.MarkAllRead(r.Context(), h.Audience)
	if err != nil {
		web.Error(w, err)
		return
	}
	web.JSON(w, http.StatusOK, map[string]int64{"marked": n})
}

// Stream pushes the feed, including the unread badge count, on every change.
func (h *Handler) Stream(src changefeed.Source) http.HandlerFunc {
	return live.Stream(src, "notifications", func(ctx context.Context, _ *http.Request) (any, error) {
		return h.Service.Feed(ctx, h.Audience)
	}, changefeed.Notifications)
}
