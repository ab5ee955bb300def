package history

import (
	"strings"

	"chat-relay/internal/llm"
	"chat-relay/internal/store"
)

const DefaultLimit = 10

// Window converts the newest limit chats into the message list sent to the
// model, oldest first. A non-blank systemPrompt is prepended and does not
// count against limit. Chats must already be ordered by timestamp.
func Window(chats []store.Chat, limit int, systemPrompt string) []llm.Message {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if len(chats) > limit {
		chats = chats[len(chats)-limit:]
	}
	out := make([]llm.Message, 0, len(chats)+1)
	if strings.TrimSpace(systemPrompt) != "" {
		out = append(out, llm.Message{Role: string(store.RoleSystem), Content: systemPrompt})
	}
	for _, c := range chats {
		out = append(out, llm.Message{Role: string(c.Role), Content: c.Content})
	}
	return out
}
