package store

import "time"

// Role identifies the author of a chat message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAssistant, RoleSystem:
		return true
	}
	return false
}

// DefaultConversationTitle is used when a conversation is created without a title.
const DefaultConversationTitle = "New Chat"

type User struct {
	UUID         string    `json:"uuid"`
	Notes        string    `json:"notes"`
	CreatedAt    time.Time `json:"createdAt"`
	LastActiveAt time.Time `json:"lastActiveAt"`
	MessageCount int       `json:"messageCount"`
	TokenUsage   int       `json:"tokenUsage"`
}

type Conversation struct {
	ID        string     `json:"id"`
	UUID      string     `json:"uuid"`
	Title     string     `json:"title"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
	Deleted   bool       `json:"deleted"`
	DeletedAt *time.Time `json:"deletedAt,omitempty"`
}

// ConversationPatch carries the fields accepted by UpdateConversation.
// Nil fields are left untouched.
type ConversationPatch struct {
	Title *string `json:"title,omitempty"`
}

type Chat struct {
	ID             string    `json:"id"`
	UUID           string    `json:"uuid"`
	ConversationID string    `json:"conversationId"`
	Role           Role      `json:"role"`
	Content        string    `json:"content"`
	ModelID        string    `json:"modelId,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}
