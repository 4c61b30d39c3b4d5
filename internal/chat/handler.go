package chat

import (
	"context"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"campus-portal/internal/apperr"
	"campus-portal/internal/live"
	myMiddleware "campus-portal/internal/middleware"
	"campus-portal/internal/validate"
	"campus-portal/internal/web"
)

type Handler struct {
	service    *Service
	projection *Projection
	presence   Presence
}

func NewHandler(service *Service, projection *Projection, presence Presence) *Handler {
	return &Handler{service: service, projection: projection, presence: presence}
}

// viewerFrom maps the authenticated identity onto an inbox viewer.
func viewerFrom(r *http.Request) (Viewer, bool) {
	id, ok := myMiddleware.IdentityFrom(r.Context())
	if !ok {
		return Viewer{}, false
	}
	switch id.Role {
	case myMiddleware.RoleStudent:
		return Viewer{Party: PartyStudent, StudentID: id.Subject, Name: id.Name}, true
	case myMiddleware.RoleAdmin:
		return Viewer{Party: PartyAdmin, Name: id.Name}, true
	}
	return Viewer{}, false
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	v, ok := viewerFrom(r)
	if !ok {
		web.Error(w, apperr.ErrUnauthorized)
		return
	}
	conversations, err := h.projection.Conversations(r.Context(), v)
	if err != nil {
		web.Error(w, err)
		return
	}
	web.JSON(w, http.StatusOK, map[string]any{"conversations": conversations})
}

func (h *Handler) Start(w http.ResponseWriter, r *http.Request) {
	v, ok := viewerFrom(r)
	if !ok {
		web.Error(w, apperr.ErrUnauthorized)
		return
	}
	var req StartRequest
	if err := web.Decode(r, &req); err != nil {
		web.Error(w, err)
		return
	}
	if err := validate.Struct(req); err != nil {
		web.Error(w, err)
		return
	}
	c, err := h.service.StartConversation(r.Context(), v, req.DepartmentSlug)
	if err != nil {
		web.Error(w, err)
		return
	}
	web.JSON(w, http.StatusOK, c)
}

func (h *Handler) Messages(w http.ResponseWriter, r *http.Request) {
	v, ok := viewerFrom(r)
	if !ok {
		web.Error(w, apperr.ErrUnauthorized)
		return
	}
	messages, err := h.service.Messages(r.Context(), v, chi.URLParam(r, "id"))
	if err != nil {
		web.Error(w, err)
		return
	}
	web.JSON(w, http.StatusOK, map[string]any{"messages": messages})
}

func (h *Handler) Send(w http.ResponseWriter, r *http.Request) {
	v, ok := viewerFrom(r)
	if !ok {
		web.Error(w, apperr.ErrUnauthorized)
		return
	}
	var req SendRequest
	if err := web.Decode(r, &req); err != nil {
		web.Error(w, err)
		return
	}

	id := chi.URLParam(r, "id")
	conv, err := h.service.Get(r.Context(), v, id)
	if err != nil {
		web.Error(w, err)
		return
	}

	sender := StudentSender()
	if v.Party == PartyAdmin {
		sender = AdminSender()
		if req.AsDepartment {
			sender = DepartmentSender(conv.Name)
		}
	}

	conv, m, err := h.service.Send(r.Context(), id, req.Text, sender)
	if err != nil {
		web.Error(w, err)
		return
	}
	web.JSON(w, http.StatusCreated, map[string]any{"conversation": conv, "message": m})
}

func (h *Handler) Open(w http.ResponseWriter, r *http.Request) {
	v, ok := viewerFrom(r)
	if !ok {
		web.Error(w, apperr.ErrUnauthorized)
		return
	}
	id := chi.URLParam(r, "id")
	if _, err := h.service.Get(r.Context(), v, id); err != nil {
		web.Error(w, err)
		return
	}
	c, err := h.service.Open(r.Context(), v.Party, id)
	if err != nil {
		web.Error(w, err)
		return
	}
	web.JSON(w, http.StatusOK, c)
}

// ServeWs runs a live inbox session. ?department=<slug> opens that
// department's thread right away; admins add &student=<email> to pick whose.
func (h *Handler) ServeWs(w http.ResponseWriter, r *http.Request) {
	v, ok := viewerFrom(r)
	if !ok {
		web.Error(w, apperr.ErrUnauthorized)
		return
	}

	conn, err := live.Upgrade(w, r)
	if err != nil {
		log.Println(err)
		return
	}

	// The session outlives this handler, so it cannot use the request context.
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-conn.Done()
		cancel()
	}()

	client := newClient(ctx, conn, h, v)
	go client.run(ctx, r.URL.Query().Get("department"), r.URL.Query().Get("student"))
}
