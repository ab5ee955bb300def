// Package api exposes the relay and the admin console over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"chat-relay/internal/auth"
	"chat-relay/internal/logs"
	"chat-relay/internal/relay"
	"chat-relay/internal/store"
)

// Sender relays one user message to the model.
type Sender interface {
	Send(ctx context.Context, uuid, conversationID, text string) (relay.Reply, error)
}

// LogSource is the read side of the log manager.
type LogSource interface {
	Tail(limit int) ([]logs.Record, error)
	ListDestinations() ([]string, error)
}

// JobStatus reports whether the log retention job is scheduled.
type JobStatus interface {
	IsRunning() bool
}

type Handler struct {
	store *store.Store
	relay Sender
	auth  *auth.Service
	logs  LogSource
	jobs  JobStatus
	log   zerolog.Logger
	now   func() time.Time
}

func NewHandler(st *store.Store, sender Sender, authSvc *auth.Service, logSource LogSource, jobs JobStatus, log zerolog.Logger) *Handler {
	return &Handler{
		store: st,
		relay: sender,
		auth:  authSvc,
		logs:  logSource,
		jobs:  jobs,
		log:   log,
		now:   time.Now,
	}
}

func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(h.withRequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.StripSlashes)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.health)

		r.Route("/chat/{uuid}", func(r chi.Router) {
			r.Use(h.requireUser)
			r.Get("/", h.getChats)
			r.Post("/", h.postChat)
			r.Delete("/clear", h.clearChats)
		})

		r.Route("/conversations/{uuid}", func(r chi.Router) {
			r.Use(h.requireUser)
			r.Get("/", h.listConversations)
			r.Post("/", h.createConversation)
			r.Get("/{id}/chats", h.conversationChats)
			r.Patch("/{id}", h.renameConversation)
			r.Delete("/{id}", h.deleteConversation)
		})
	})

	r.Route("/admin/api", func(r chi.Router) {
		r.Post("/login", h.adminLogin)

		r.Group(func(r chi.Router) {
			r.Use(h.requireAdmin)
			r.Get("/users", h.adminUsers)
			r.Post("/user/create", h.adminCreateUser)
			r.Delete("/user/{uuid}", h.adminDeleteUser)
			r.Put("/user/{uuid}/notes", h.adminUpdateNotes)
			r.Get("/user/{uuid}/chats", h.adminUserChats)
			r.Get("/user/{uuid}/conversations", h.adminUserConversations)
			r.Get("/conversations", h.adminConversations)
			r.Post("/conversation/{id}/restore", h.adminRestoreConversation)
			r.Delete("/conversation/{id}", h.adminDeleteConversation)
			r.Delete("/chat/{id}", h.adminDeleteChat)
			r.Get("/stats", h.adminStats)
			r.Get("/stats/daily", h.adminDailyStats)
			r.Get("/logs", h.adminLogs)
			r.Get("/logs/files", h.adminLogFiles)
		})
	})

	return r
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	respond(w, r, http.StatusOK, envelope{
		"status":   "ok",
		"time":     h.now().UTC(),
		"logSweep": h.jobs != nil && h.jobs.IsRunning(),
	})
}
