package user

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

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := web.Decode(r, &req); err != nil {
		web.Error(w, err)
		return
	}

	res, err := h.Service.Login(r.Context(), &req)
	if err != nil {
		web.Error(w, err)
		return
	}

	web.JSON(w, http.StatusOK, res)
}

func (h *Handler) AdminLogin(w http.ResponseWriter, r *http.Request) {
	var req AdminLoginRequest
	if err := web.Decode(r, &req); err != nil {
		web.Error(w, err)
		return
	}

	res, err := h.Service.AdminLogin(r.Context(), &req)
	if err != nil {
		web.Error(w, err)
		return
	}

	web.JSON(w, http.StatusOK, res)
}

// List serves the admin user table; ?q= narrows it by name or email.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.Service.SearchUsers(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		web.Error(w, err)
		return
	}
	web.JSON(w, http.StatusOK, map[string]any{"users": users})
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := web.Decode(r, &req); err != nil {
		web.Error(w, err)
		return
	}
	u, err := h.Service.Create(r.Context(), &req)
	if err != nil {
		web.Error(w, err)
		return
	}
	web.JSON(w, http.StatusCreated, u)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var req UpdateRequest
	if err := web.Decode(r, &req); err != nil {
		web.Error(w, err)
		return
	}
	u, err := h.Service.Update(r.Context(), chi.URLParam(r, "id"), &req)
	if err != nil {
		web.Error(w, err)
		return
	}
	web.JSON(w, http.StatusOK, u)
}

func (h *Handler) Stream(src changefeed.Source) http.HandlerFunc {
	return live.Stream(src, "users", func(ctx context.Context, _ *http.Request) (any, error) {
		return h.Service.List(ctx)
	}, changefeed.Users)
}
