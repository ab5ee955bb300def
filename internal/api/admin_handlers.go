package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"chat-relay/internal/analytics"
	"chat-relay/internal/logs"
	"chat-relay/internal/store"
)

type loginRequest struct {
	Password string `json:"password"`
}

type notesRequest struct {
	Notes string `json:"notes"`
}

func (h *Handler) adminLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decode(w, r, &req); err != nil {
		fail(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}
	token, ok := h.auth.Login(req.Password)
	if !ok {
		zerolog.Ctx(r.Context()).Warn().Msg("Failed admin login attempt")
		fail(w, r, http.StatusUnauthorized, "Invalid password")
		return
	}
	zerolog.Ctx(r.Context()).Info().Msg("Admin logged in")
	respond(w, r, http.StatusOK, envelope{"token": token})
}

func (h *Handler) adminUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.store.ListUsers()
	if err != nil {
		internalError(w, r, err, "Failed to load users")
		return
	}
	respond(w, r, http.StatusOK, envelope{"users": users})
}

func (h *Handler) adminCreateUser(w http.ResponseWriter, r *http.Request) {
	var req notesRequest
	if r.ContentLength != 0 {
		if err := decode(w, r, &req); err != nil {
			fail(w, r, http.StatusBadRequest, "Invalid request body")
			return
		}
	}
	user, err := h.store.CreateUser(req.Notes)
	if err != nil {
		internalError(w, r, err, "Failed to create user")
		return
	}
	zerolog.Ctx(r.Context()).Info().Str("uuid", user.UUID).Msg("Admin created user")
	respond(w, r, http.StatusCreated, envelope{"user": user})
}

func (h *Handler) adminDeleteUser(w http.ResponseWriter, r *http.Request) {
	uuid := chi.URLParam(r, "uuid")
	if !h.found(w, r, h.userExists(uuid), "User not found") {
		return
	}
	if err := h.store.DeleteUser(uuid); err != nil {
		internalError(w, r, err, "Failed to delete user")
		return
	}
	zerolog.Ctx(r.Context()).Info().Str("uuid", uuid).Msg("Admin deleted user")
	respond(w, r, http.StatusOK, nil)
}

func (h *Handler) adminUpdateNotes(w http.ResponseWriter, r *http.Request) {
	var req notesRequest
	if err := decode(w, r, &req); err != nil {
		fail(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}
	uuid := chi.URLParam(r, "uuid")
	if !h.found(w, r, h.userExists(uuid), "User not found") {
		return
	}
	if err := h.store.UpdateUserNotes(uuid, req.Notes); err != nil {
		internalError(w, r, err, "Failed to update notes")
		return
	}
	respond(w, r, http.StatusOK, nil)
}

func (h *Handler) adminUserChats(w http.ResponseWriter, r *http.Request) {
	chats, err := h.store.GetUserChats(chi.URLParam(r, "uuid"))
	if err != nil {
		internalError(w, r, err, "Failed to load chats")
		return
	}
	respond(w, r, http.StatusOK, envelope{"chats": chats})
}

func (h *Handler) adminUserConversations(w http.ResponseWriter, r *http.Request) {
	includeDeleted, _ := strconv.ParseBool(r.URL.Query().Get("includeDeleted"))
	convs, err := h.store.GetUserConversations(chi.URLParam(r, "uuid"), includeDeleted)
	if err != nil {
		internalError(w, r, err, "Failed to load conversations")
		return
	}
	respond(w, r, http.StatusOK, envelope{"conversations": convs})
}

func (h *Handler) adminConversations(w http.ResponseWriter, r *http.Request) {
	convs, err := h.store.ListConversations()
	if err != nil {
		internalError(w, r, err, "Failed to load conversations")
		return
	}
	respond(w, r, http.StatusOK, envelope{"conversations": convs})
}

func (h *Handler) adminRestoreConversation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !h.found(w, r, h.conversationExists(id), "Conversation not found") {
		return
	}
	if err := h.store.RestoreConversation(id); err != nil {
		internalError(w, r, err, "Failed to restore conversation")
		return
	}
	zerolog.Ctx(r.Context()).Info().Str("conversationId", id).Msg("Admin restored conversation")
	respond(w, r, http.StatusOK, nil)
}

func (h *Handler) adminDeleteConversation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !h.found(w, r, h.conversationExists(id), "Conversation not found") {
		return
	}
	if err := h.store.SoftDeleteConversation(id); err != nil {
		internalError(w, r, err, "Failed to delete conversation")
		return
	}
	zerolog.Ctx(r.Context()).Info().Str("conversationId", id).Msg("Admin deleted conversation")
	respond(w, r, http.StatusOK, nil)
}

func (h *Handler) adminDeleteChat(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.store.DeleteChat(id); err != nil {
		internalError(w, r, err, "Failed to delete chat")
		return
	}
	zerolog.Ctx(r.Context()).Info().Str("chatId", id).Msg("Admin deleted chat")
	respond(w, r, http.StatusOK, nil)
}

func (h *Handler) adminStats(w http.ResponseWriter, r *http.Request) {
	users, err := h.store.ListUsers()
	if err != nil {
		internalError(w, r, err, "Failed to load users")
		return
	}
	chats, err := h.store.ListChats()
	if err != nil {
		internalError(w, r, err, "Failed to load chats")
		return
	}
	respond(w, r, http.StatusOK, envelope{"stats": analytics.Summarize(users, chats, h.now())})
}

func (h *Handler) adminDailyStats(w http.ResponseWriter, r *http.Request) {
	date := h.now().UTC()
	if v := r.URL.Query().Get("date"); v != "" {
		d, err := time.Parse(time.DateOnly, v)
		if err != nil {
			fail(w, r, http.StatusBadRequest, "date must be YYYY-MM-DD")
			return
		}
		date = d
	}
	chats, err := h.store.ListChats()
	if err != nil {
		internalError(w, r, err, "Failed to load chats")
		return
	}
	respond(w, r, http.StatusOK, envelope{"stats": analytics.AnalyzeDay(chats, date)})
}

func (h *Handler) adminLogs(w http.ResponseWriter, r *http.Request) {
	records, err := h.logs.Tail(queryInt(r, "limit", logs.DefaultTailLimit))
	if err != nil {
		internalError(w, r, err, "Failed to read logs")
		return
	}
	respond(w, r, http.StatusOK, envelope{"logs": records})
}

func (h *Handler) adminLogFiles(w http.ResponseWriter, r *http.Request) {
	files, err := h.logs.ListDestinations()
	if err != nil {
		internalError(w, r, err, "Failed to list log files")
		return
	}
	respond(w, r, http.StatusOK, envelope{"files": files})
}

func (h *Handler) userExists(uuid string) error {
	_, err := h.store.GetUser(uuid)
	return err
}

func (h *Handler) conversationExists(id string) error {
	_, err := h.store.GetConversation(id)
	return err
}

// found answers 404 or 500 for a failed lookup and reports whether the
// handler may continue. Store mutations ignore unknown ids, so handlers look
// the record up first.
func (h *Handler) found(w http.ResponseWriter, r *http.Request, err error, notFound string) bool {
	switch {
	case err == nil:
		return true
	case errors.Is(err, store.ErrNotFound):
		fail(w, r, http.StatusNotFound, notFound)
	default:
		internalError(w, r, err, "Lookup failed")
	}
	return false
}
