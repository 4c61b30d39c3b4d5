package inquiry

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"campus-portal/internal/changefeed"
	"campus-portal/internal/live"
	"campus-portal/internal/web"
)

type Handler struct {
	Service *Service
}

func NewHandler(s *Service) *Handler {
	return &Handler{Service: s}
}

func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	var in SubmitInput
	if err := web.Decode(r, &in); err != nil {
		web.Error(w, err)
		return
	}
	sub, err := h.Service.Submit(r.Context(), in)
	if err != nil {
		web.Error(w, err)
		return
	}
	web.JSON(w, http.StatusCreated, sub)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	inquiries, err := h.Service.List(r.Context())
	if err != nil {
		web.Error(w, err)
		return
	}
	web.JSON(w, http.StatusOK, map[string]any{"inquiries": inquiries})
}

func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var in StatusInput
	if err := web.Decode(r, &in); err != nil {
		web.Error(w, err)
		return
	}
	i, err := h.Service.UpdateStatus(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		web.Error(w, err)
		return
	}
	web.JSON(w, http.StatusOK, i)
}

func (h *Handler) Reassign(w http.ResponseWriter, r *http.Request) {
	var in ReassignInput
	if err := web.Decode(r, &in); err != nil {
		web.Error(w, err)
		return
	}
	i, err := h.Service.Reassign(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		web.Error(w, err)
		return
	}
	web.JSON(w, http.StatusOK, i)
}

func (h *Handler) Stream(src changefeed.Source) http.HandlerFunc {
	return live.Stream(src, "inquiries", func(ctx context.Context, _ *http.Request) (any, error) {
		return h.Service.List(ctx)
	}, changefeed.Inquiries)
}
