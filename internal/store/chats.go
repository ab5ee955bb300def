package store

import (
	"fmt"
	"sort"
)

// AddChat appends a message to the conversation and bumps the conversation's
// updatedAt. A missing conversation is not an error: the chat is still stored.
// The chat is written first; if bumping the conversation then fails, the
// stored chat is returned together with the error.
func (s *Store) AddChat(uuid, conversationID string, role Role, content, modelID string) (Chat, error) {
	if !role.Valid() {
		return Chat{}, fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	chat := Chat{
		ID:             newRecordID(now),
		UUID:           uuid,
		ConversationID: conversationID,
		Role:           role,
		Content:        content,
		ModelID:        modelID,
		Timestamp:      now,
	}
	err := s.chats.update(func(chats []Chat) ([]Chat, bool) {
		return append(chats, chat), true
	})
	if err != nil {
		return Chat{}, err
	}
	if err := s.updateConversation(conversationID, func(*Conversation) {}); err != nil {
		return chat, fmt.Errorf("touch conversation: %w", err)
	}
	return chat, nil
}

func (s *Store) GetUserChats(uuid string) ([]Chat, error) {
	return s.filterChats(func(c Chat) bool { return c.UUID == uuid })
}

// GetConversationChats does not look at the parent's deleted flag; history of
// a soft-deleted conversation stays readable here.
func (s *Store) GetConversationChats(conversationID string) ([]Chat, error) {
	return s.filterChats(func(c Chat) bool { return c.ConversationID == conversationID })
}

func (s *Store) ListChats() ([]Chat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.chats.load()
}

func (s *Store) DeleteChat(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.removeChats(func(c Chat) bool { return c.ID == id })
}

// ClearUserChats drops the user's whole chat history.
func (s *Store) ClearUserChats(uuid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.removeChats(func(c Chat) bool { return c.UUID == uuid })
}

func (s *Store) filterChats(keep func(Chat) bool) ([]Chat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	chats, err := s.chats.load()
	if err != nil {
		return nil, err
	}
	out := make([]Chat, 0)
	for _, c := range chats {
		if keep(c) {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out, nil
}

func (s *Store) removeChats(drop func(Chat) bool) error {
	return s.chats.update(func(chats []Chat) ([]Chat, bool) {
		out := chats[:0]
		for _, c := range chats {
			if !drop(c) {
				out = append(out, c)
			}
		}
		return out, len(out) != len(chats)
	})
}
