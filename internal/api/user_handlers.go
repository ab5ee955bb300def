package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"chat-relay/internal/relay"
	"chat-relay/internal/store"
)

const defaultChatLimit = 50

type sendRequest struct {
	Message        string `json:"message"`
	ConversationID string `json:"conversationId"`
}

type titleRequest struct {
	Title string `json:"title"`
}

func (h *Handler) getChats(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())
	limit := queryInt(r, "limit", defaultChatLimit)

	chats, err := h.store.GetUserChats(user.UUID)
	if err != nil {
		internalError(w, r, err, "Failed to load chats")
		return
	}
	if len(chats) > limit {
		chats = chats[len(chats)-limit:]
	}
	respond(w, r, http.StatusOK, envelope{"chats": chats})
}

func (h *Handler) postChat(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())
	var req sendRequest
	if err := decode(w, r, &req); err != nil {
		fail(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}

	reply, err := h.relay.Send(r.Context(), user.UUID, req.ConversationID, req.Message)
	switch {
	case err == nil:
	case errors.Is(err, relay.ErrEmptyMessage):
		fail(w, r, http.StatusBadRequest, "Message is required")
		return
	case errors.Is(err, relay.ErrUnknownUser):
		fail(w, r, http.StatusForbidden, "Access denied")
		return
	case errors.Is(err, relay.ErrForeignConversation), errors.Is(err, store.ErrNotFound):
		fail(w, r, http.StatusNotFound, "Conversation not found")
		return
	case errors.Is(err, relay.ErrConversationDeleted):
		fail(w, r, http.StatusConflict, "Conversation is deleted")
		return
	case errors.Is(err, relay.ErrGenerate):
		// logged by the relay
		fail(w, r, http.StatusBadGateway, "AI service error")
		return
	default:
		internalError(w, r, err, "Failed to process chat message")
		return
	}

	respond(w, r, http.StatusOK, envelope{
		"reply":          reply.AssistantChat.Content,
		"conversationId": reply.Conversation.ID,
		"conversation":   reply.Conversation,
		"userChat":       reply.UserChat,
		"assistantChat":  reply.AssistantChat,
		"tokens":         reply.Tokens,
	})
}

func (h *Handler) clearChats(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())
	if err := h.store.ClearUserChats(user.UUID); err != nil {
		internalError(w, r, err, "Failed to clear chats")
		return
	}
	zerolog.Ctx(r.Context()).Info().Str("uuid", user.UUID).Msg("User cleared chat history")
	respond(w, r, http.StatusOK, nil)
}

func (h *Handler) listConversations(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())
	convs, err := h.store.GetUserConversations(user.UUID, false)
	if err != nil {
		internalError(w, r, err, "Failed to load conversations")
		return
	}
	respond(w, r, http.StatusOK, envelope{"conversations": convs})
}

func (h *Handler) createConversation(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())
	var req titleRequest
	if r.ContentLength != 0 {
		if err := decode(w, r, &req); err != nil {
			fail(w, r, http.StatusBadRequest, "Invalid request body")
			return
		}
	}
	conv, err := h.store.CreateConversation(user.UUID, req.Title)
	if err != nil {
		internalError(w, r, err, "Failed to create conversation")
		return
	}
	zerolog.Ctx(r.Context()).Info().
		Str("uuid", user.UUID).
		Str("conversationId", conv.ID).
		Msg("Conversation created")
	respond(w, r, http.StatusCreated, envelope{"conversation": conv})
}

func (h *Handler) conversationChats(w http.ResponseWriter, r *http.Request) {
	conv, ok := h.ownConversation(w, r)
	if !ok {
		return
	}
	chats, err := h.store.GetConversationChats(conv.ID)
	if err != nil {
		internalError(w, r, err, "Failed to load conversation chats")
		return
	}
	respond(w, r, http.StatusOK, envelope{"conversation": conv, "chats": chats})
}

func (h *Handler) renameConversation(w http.ResponseWriter, r *http.Request) {
	conv, ok := h.ownConversation(w, r)
	if !ok {
		return
	}
	var req titleRequest
	if err := decode(w, r, &req); err != nil {
		fail(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		fail(w, r, http.StatusBadRequest, "Title is required")
		return
	}
	if err := h.store.UpdateConversation(conv.ID, store.ConversationPatch{Title: &title}); err != nil {
		internalError(w, r, err, "Failed to update conversation")
		return
	}
	updated, err := h.store.GetConversation(conv.ID)
	if err != nil {
		internalError(w, r, err, "Failed to load conversation")
		return
	}
	respond(w, r, http.StatusOK, envelope{"conversation": updated})
}

func (h *Handler) deleteConversation(w http.ResponseWriter, r *http.Request) {
	conv, ok := h.ownConversation(w, r)
	if !ok {
		return
	}
	if err := h.store.SoftDeleteConversation(conv.ID); err != nil {
		internalError(w, r, err, "Failed to delete conversation")
		return
	}
	zerolog.Ctx(r.Context()).Info().
		Str("uuid", conv.UUID).
		Str("conversationId", conv.ID).
		Msg("Conversation deleted")
	respond(w, r, http.StatusOK, nil)
}

// ownConversation loads {id} and hides conversations that are deleted or
// belong to someone else.
func (h *Handler) ownConversation(w http.ResponseWriter, r *http.Request) (store.Conversation, bool) {
	user := userFrom(r.Context())
	conv, err := h.store.GetConversation(chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) || (err == nil && (conv.UUID != user.UUID || conv.Deleted)) {
		fail(w, r, http.StatusNotFound, "Conversation not found")
		return store.Conversation{}, false
	}
	if err != nil {
		internalError(w, r, err, "Failed to load conversation")
		return store.Conversation{}, false
	}
	return conv, true
}

func queryInt(r *http.Request, key string, def int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil || v <= 0 {
		return def
	}
	return v
}
