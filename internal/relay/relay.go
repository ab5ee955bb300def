// Package relay forwards a user's message to the chat-completion provider and
// records both sides of the exchange.
package relay

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"chat-relay/internal/history"
	"chat-relay/internal/llm"
	"chat-relay/internal/store"
)

const titleRunes = 40

var (
	ErrUnknownUser         = errors.New("relay: unknown user")
	ErrEmptyMessage        = errors.New("relay: message is required")
	ErrForeignConversation = errors.New("relay: conversation belongs to another user")
	ErrConversationDeleted = errors.New("relay: conversation is deleted")
	ErrGenerate            = errors.New("relay: model call failed")
)

// Store is the part of the document store the relay needs.
type Store interface {
	GetUser(uuid string) (store.User, error)
	GetConversation(id string) (store.Conversation, error)
	CreateConversation(uuid, title string) (store.Conversation, error)
	AddChat(uuid, conversationID string, role store.Role, content, modelID string) (store.Chat, error)
	TouchUserActivity(uuid string) error
	GetConversationChats(conversationID string) ([]store.Chat, error)
	AddTokenUsage(uuid string, tokens int) error
}

type Options struct {
	SystemPrompt string
	HistoryLimit int
}

type Relay struct {
	store        Store
	client       llm.Client
	log          zerolog.Logger
	systemPrompt string
	historyLimit int
}

type Reply struct {
	Conversation  store.Conversation `json:"conversation"`
	UserChat      store.Chat         `json:"userChat"`
	AssistantChat store.Chat         `json:"assistantChat"`
	Tokens        int                `json:"tokens"`
}

func New(st Store, client llm.Client, log zerolog.Logger, opts Options) *Relay {
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = history.DefaultLimit
	}
	return &Relay{
		store:        st,
		client:       client,
		log:          log,
		systemPrompt: opts.SystemPrompt,
		historyLimit: opts.HistoryLimit,
	}
}

// Send stores the user's message, asks the model for a reply and stores the
// reply. An empty conversationID starts a new conversation titled after the
// message. When the model call fails the user's message stays recorded.
func (r *Relay) Send(ctx context.Context, uuid, conversationID, text string) (Reply, error) {
	log := r.logger(ctx).With().Str("uuid", uuid).Logger()
	if strings.TrimSpace(text) == "" {
		return Reply{}, ErrEmptyMessage
	}
	if _, err := r.store.GetUser(uuid); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Reply{}, ErrUnknownUser
		}
		return Reply{}, err
	}

	conv, err := r.conversation(uuid, conversationID, text)
	if err != nil {
		return Reply{}, err
	}

	userChat, err := r.store.AddChat(uuid, conv.ID, store.RoleUser, text, "")
	if err != nil {
		return Reply{}, fmt.Errorf("store user message: %w", err)
	}
	if err := r.store.TouchUserActivity(uuid); err != nil {
		return Reply{}, fmt.Errorf("touch user activity: %w", err)
	}

	chats, err := r.store.GetConversationChats(conv.ID)
	if err != nil {
		return Reply{}, fmt.Errorf("load history: %w", err)
	}
	resp, err := r.client.Generate(ctx, history.Window(chats, r.historyLimit, r.systemPrompt))
	if err != nil {
		log.Error().Err(err).Str("conversationId", conv.ID).Msg("AI API Error")
		return Reply{}, fmt.Errorf("%w: %w", ErrGenerate, err)
	}

	assistantChat, err := r.store.AddChat(uuid, conv.ID, store.RoleAssistant, resp.Content, resp.Model)
	if err != nil {
		return Reply{}, fmt.Errorf("store assistant message: %w", err)
	}
	if err := r.store.AddTokenUsage(uuid, resp.TotalTokens); err != nil {
		return Reply{}, fmt.Errorf("account tokens: %w", err)
	}
	log.Info().
		Str("conversationId", conv.ID).
		Int("tokens", resp.TotalTokens).
		Str("model", resp.Model).
		Msg("Chat message processed")

	return Reply{
		Conversation:  conv,
		UserChat:      userChat,
		AssistantChat: assistantChat,
		Tokens:        resp.TotalTokens,
	}, nil
}

func (r *Relay) conversation(uuid, id, text string) (store.Conversation, error) {
	if id == "" {
		conv, err := r.store.CreateConversation(uuid, titleFrom(text))
		if err != nil {
			return store.Conversation{}, fmt.Errorf("create conversation: %w", err)
		}
		return conv, nil
	}
	conv, err := r.store.GetConversation(id)
	if err != nil {
		return store.Conversation{}, err
	}
	if conv.UUID != uuid {
		return store.Conversation{}, ErrForeignConversation
	}
	if conv.Deleted {
		return store.Conversation{}, ErrConversationDeleted
	}
	return conv, nil
}

// logger prefers the request-scoped logger carried by ctx.
func (r *Relay) logger(ctx context.Context) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &r.log
}

func titleFrom(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	if utf8.RuneCountInString(text) <= titleRunes {
		return text
	}
	runes := []rune(text)
	return string(runes[:titleRunes]) + "…"
}
