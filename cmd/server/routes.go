package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"campus-portal/internal/announcement"
	"campus-portal/internal/changefeed"
	"campus-portal/internal/chat"
	"campus-portal/internal/config"
	"campus-portal/internal/dashboard"
	"campus-portal/internal/department"
	"campus-portal/internal/inquiry"
	myMiddleware "campus-portal/internal/middleware"
	"campus-portal/internal/notification"
	"campus-portal/internal/user"
	"campus-portal/internal/web"
)

type application struct {
	hub           *changefeed.Hub
	auth          *myMiddleware.AuthMiddleware
	users         *user.Handler
	departments   *department.Handler
	announcements *announcement.Handler
	inquiries     *inquiry.Handler
	notifications *notification.Handler
	adminNotices  *notification.Handler
	chat          *chat.Handler
	dashboard     *dashboard.Handler
}

func (app *application) routes(cfg *config.Config) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Public Routes
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		web.JSON(w, http.StatusOK, map[string]string{"status": "ok", "env": cfg.AppEnv})
	})
	r.Post("/api/login", app.users.Login)
	r.Post("/api/admin/login", app.users.AdminLogin)

	// Protected Routes (Require JWT)
	r.Group(func(r chi.Router) {
		r.Use(app.auth.Handle)

		r.Get("/api/announcements", app.announcements.List)
		r.Get("/api/departments", app.departments.List)
		r.Get("/api/departments/{slug}", app.departments.Get)

		r.Get("/api/conversations", app.chat.List)
		r.Get("/api/conversations/{id}/messages", app.chat.Messages)
		r.Post("/api/conversations/{id}/messages", app.chat.Send)
		r.Post("/api/conversations/{id}/open", app.chat.Open)

		// WebSocket (Real-time)
		r.Get("/ws", app.chat.ServeWs)
		r.Get("/ws/announcements", app.announcements.Stream(app.hub))
		r.Get("/ws/departments", app.departments.Stream(app.hub))

		r.Group(func(r chi.Router) {
			r.Use(myMiddleware.RequireRole(myMiddleware.RoleStudent))

			r.Post("/api/conversations", app.chat.Start)
			r.Post("/api/inquiries", app.inquiries.Submit)

			r.Get("/api/notifications", app.notifications.Feed)
			r.Post("/api/notifications/read-all", app.notifications.MarkAllRead)
			r.Post("/api/notifications/{id}/read", app.notifications.MarkRead)
			r.Get("/ws/notifications", app.notifications.Stream(app.hub))
		})

		r.Route("/api/admin", func(r chi.Router) {
			r.Use(myMiddleware.RequireRole(myMiddleware.RoleAdmin))

			r.Get("/stats", app.dashboard.Stats)

			r.Get("/users", app.users.List)
			r.Post("/users", app.users.Create)
			r.Put("/users/{id}", app.users.Update)

			r.Post("/announcements", app.announcements.Create)
			r.Put("/announcements/{id}", app.announcements.Update)
			r.Delete("/announcements/{id}", app.announcements.Delete)

			r.Post("/departments", app.departments.Create)
			r.Put("/departments/{id}", app.departments.Update)
			r.Delete("/departments/{id}", app.departments.Delete)

			r.Get("/inquiries", app.inquiries.List)
			r.Put("/inquiries/{id}/status", app.inquiries.UpdateStatus)
			r.Put("/inquiries/{id}/reassign", app.inquiries.Reassign)

			r.Get("/notifications", app.adminNotices.Feed)
			r.Post("/notifications/read-all", app.adminNotices.MarkAllRead)
			r.Post("/notifications/{id}/read", app.adminNotices.MarkRead)
		})

		r.Route("/ws/admin", func(r chi.Router) {
			r.Use(myMiddleware.RequireRole(myMiddleware.RoleAdmin))

			r.Get("/stats", app.dashboard.Stream(app.hub))
			r.Get("/users", app.users.Stream(app.hub))
			r.Get("/inquiries", app.inquiries.Stream(app.hub))
			r.Get("/notifications", app.adminNotices.Stream(app.hub))
		})
	})

	return r
}
