package store

func (s *Store) GetUser(uuid string) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	users, err := s.users.load()
	if err != nil {
		return User{}, err
	}
	for _, u := range users {
		if u.UUID == uuid {
			return u, nil
		}
	}
	return User{}, ErrNotFound
}

func (s *Store) ListUsers() ([]User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.users.load()
}

func (s *Store) CreateUser(notes string) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, err := newUserID()
	if err != nil {
		return User{}, err
	}
	now := s.now()
	user := User{
		UUID:         id,
		Notes:        notes,
		CreatedAt:    now,
		LastActiveAt: now,
	}
	err = s.users.update(func(users []User) ([]User, bool) {
		return append(users, user), true
	})
	if err != nil {
		return User{}, err
	}
	return user, nil
}

func (s *Store) UpdateUserNotes(uuid, notes string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateUser(uuid, func(u *User) {
		u.Notes = notes
	})
}

// TouchUserActivity records one inbound user message. It must not be called
// for assistant replies.
func (s *Store) TouchUserActivity(uuid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	return s.updateUser(uuid, func(u *User) {
		if now.After(u.LastActiveAt) {
			u.LastActiveAt = now
		}
		u.MessageCount++
	})
}

// AddTokenUsage accumulates usage units reported by the completion API.
// Negative amounts are ignored so the counter never decreases.
func (s *Store) AddTokenUsage(uuid string, tokens int) error {
	if tokens <= 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateUser(uuid, func(u *User) {
		u.TokenUsage += tokens
	})
}

// DeleteUser removes the user and every chat the user owns. Conversations
// owned by the user are kept and become orphans; admin tooling still lists
// them through ListConversations.
func (s *Store) DeleteUser(uuid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.users.update(func(users []User) ([]User, bool) {
		out := users[:0]
		for _, u := range users {
			if u.UUID != uuid {
				out = append(out, u)
			}
		}
		return out, len(out) != len(users)
	})
	if err != nil {
		return err
	}
	return s.removeChats(func(c Chat) bool { return c.UUID == uuid })
}

func (s *Store) updateUser(uuid string, fn func(*User)) error {
	return s.users.update(func(users []User) ([]User, bool) {
		for i := range users {
			if users[i].UUID == uuid {
				fn(&users[i])
				return users, true
			}
		}
		return users, false
	})
}
