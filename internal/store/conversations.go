package store

import (
	"sort"
	"strings"
)

// CreateConversation does not check that uuid refers to an existing user;
// callers validate ownership before creating.
func (s *Store) CreateConversation(uuid, title string) (Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if strings.TrimSpace(title) == "" {
		title = DefaultConversationTitle
	}
	now := s.now()
	conv := Conversation{
		ID:        newRecordID(now),
		UUID:      uuid,
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err := s.conversations.update(func(convs []Conversation) ([]Conversation, bool) {
		return append(convs, conv), true
	})
	if err != nil {
		return Conversation{}, err
	}
	return conv, nil
}

func (s *Store) GetConversation(id string) (Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	convs, err := s.conversations.load()
	if err != nil {
		return Conversation{}, err
	}
	for _, c := range convs {
		if c.ID == id {
			return c, nil
		}
	}
	return Conversation{}, ErrNotFound
}

// GetUserConversations returns the user's conversations, most recently
// updated first. Soft-deleted ones are included only when includeDeleted is set.
func (s *Store) GetUserConversations(uuid string, includeDeleted bool) ([]Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	convs, err := s.conversations.load()
	if err != nil {
		return nil, err
	}
	out := make([]Conversation, 0)
	for _, c := range convs {
		if c.UUID != uuid || (c.Deleted && !includeDeleted) {
			continue
		}
		out = append(out, c)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}

// ListConversations returns every conversation, orphans and soft-deleted ones included.
func (s *Store) ListConversations() ([]Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.conversations.load()
}

// UpdateConversation merges the non-nil fields of patch and always refreshes
// updatedAt. An empty patch is a touch.
func (s *Store) UpdateConversation(id string, patch ConversationPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateConversation(id, func(c *Conversation) {
		if patch.Title != nil {
			c.Title = *patch.Title
		}
	})
}

func (s *Store) SoftDeleteConversation(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	return s.updateConversationFields(id, func(c *Conversation) {
		c.Deleted = true
		c.DeletedAt = &now
	})
}

func (s *Store) RestoreConversation(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateConversationFields(id, func(c *Conversation) {
		c.Deleted = false
		c.DeletedAt = nil
	})
}

func (s *Store) updateConversation(id string, fn func(*Conversation)) error {
	now := s.now()
	return s.updateConversationFields(id, func(c *Conversation) {
		fn(c)
		c.UpdatedAt = now
	})
}

func (s *Store) updateConversationFields(id string, fn func(*Conversation)) error {
	return s.conversations.update(func(convs []Conversation) ([]Conversation, bool) {
		for i := range convs {
			if convs[i].ID == id {
				fn(&convs[i])
				return convs, true
			}
		}
		return convs, false
	})
}
