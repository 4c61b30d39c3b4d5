package department

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

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	departments, err := h.Service.List(r.Context())
	if err != nil {
		web.Error(w, err)
		return
	}
	web.JSON(w, http.StatusOK, map[string]any{"departments": departments})
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	d, err := h.Service.GetBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		web.Error(w, err)
		return
	}
	web.JSON(w, http.StatusOK, d)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var in Input
	if err := web.Decode(r, &in); err != nil {
		web.Error(w, err)
		return
	}
	d, err := h.Service.Create(r.Context(), in)
	if err != nil {
		web.Error(w, err)
		return
	}
	web.JSON(w, http.StatusCreated, d)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var in Input
	if err := web.Decode(r, &in); err != nil {
		web.Error(w, err)
		return
	}
	d, err := h.Service.Update(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		web.Error(w, err)
		return
	}
	web.JSON(w, http.StatusOK, d)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		web.Error(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Stream pushes the directory on connect and after every change.
func (h *Handler) Stream(src changefeed.Source) http.HandlerFunc {
	return live.Stream(src, "departments", func(ctx context.Context, _ *http.Request) (any, error) {
		return h.Service.List(ctx)
	}, changefeed.Departments)
}
