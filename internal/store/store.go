// Package store persists users, conversations and chat messages as three
// pretty-printed JSON array files.
//
// Every operation decodes the whole collection, mutates it in memory and
// writes the whole collection back. A single lock serializes all operations
// of one Store, so concurrent requests within the process cannot overwrite
// each other's changes. Several processes sharing one data directory are not
// supported.
package store

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lithammer/shortuuid/v4"
)

const (
	usersFile         = "users.json"
	conversationsFile = "conversations.json"
	chatsFile         = "chats.json"
)

var (
	ErrNotFound    = errors.New("store: not found")
	ErrInvalidRole = errors.New("store: invalid role")
)

type Store struct {
	mu            sync.RWMutex
	users         *collection[User]
	conversations *collection[Conversation]
	chats         *collection[Chat]

	now func() time.Time
}

// New opens the store rooted at dir, creating the directory and any missing
// collection file as an empty array.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure data dir: %w", err)
	}
	users, err := newCollection[User](dir, usersFile)
	if err != nil {
		return nil, err
	}
	conversations, err := newCollection[Conversation](dir, conversationsFile)
	if err != nil {
		return nil, err
	}
	chats, err := newCollection[Chat](dir, chatsFile)
	if err != nil {
		return nil, err
	}
	return &Store{
		users:         users,
		conversations: conversations,
		chats:         chats,
		now:           func() time.Time { return time.Now().UTC() },
	}, nil
}

// newUserID returns a time-ordered UUID (version 7).
func newUserID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate user id: %w", err)
	}
	return id.String(), nil
}

// newRecordID returns the creation time in unix milliseconds followed by a
// short random suffix.
func newRecordID(t time.Time) string {
	return strconv.FormatInt(t.UnixMilli(), 10) + shortuuid.New()[:9]
}
