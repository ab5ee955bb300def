package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// stepClock returns a strictly increasing time on every call.
type stepClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "data")
	s, err := New(dir)
	require.NoError(t, err)
	clock := &stepClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	s.now = clock.Now
	return s, dir
}

func TestNew_BootstrapsEmptyCollections(t *testing.T) {
	_, dir := newTestStore(t)
	for _, name := range []string{usersFile, conversationsFile, chatsFile} {
		b, err := os.ReadFile(filepath.Join(dir, name))
		require.NoError(t, err, name)
		var items []json.RawMessage
		require.NoError(t, json.Unmarshal(b, &items), name)
		require.Empty(t, items, name)
	}
}

func TestNew_KeepsExistingData(t *testing.T) {
	s, dir := newTestStore(t)
	u, err := s.CreateUser("keep me")
	require.NoError(t, err)

	reopened, err := New(dir)
	require.NoError(t, err)
	got, err := reopened.GetUser(u.UUID)
	require.NoError(t, err)
	require.Equal(t, u, got)
}

func TestUser_RoundTrip(t *testing.T) {
	s, _ := newTestStore(t)
	u, err := s.CreateUser("vip customer")
	require.NoError(t, err)
	require.NotEmpty(t, u.UUID)
	require.Zero(t, u.MessageCount)
	require.Zero(t, u.TokenUsage)
	require.Equal(t, u.CreatedAt, u.LastActiveAt)

	got, err := s.GetUser(u.UUID)
	require.NoError(t, err)
	require.Equal(t, u, got)

	users, err := s.ListUsers()
	require.NoError(t, err)
	require.Equal(t, []User{u}, users)
}

func TestUser_IDsAreUnique(t *testing.T) {
	s, _ := newTestStore(t)
	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		u, err := s.CreateUser("")
		require.NoError(t, err)
		require.False(t, seen[u.UUID], "duplicate id %s", u.UUID)
		seen[u.UUID] = true
	}
}

func TestGetUser_NotFound(t *testing.T) {
	s, _ := newTestStore(t)
	_, err := s.GetUser("missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateUserNotes(t *testing.T) {
	s, _ := newTestStore(t)
	u, err := s.CreateUser("old")
	require.NoError(t, err)

	require.NoError(t, s.UpdateUserNotes(u.UUID, "new"))
	got, err := s.GetUser(u.UUID)
	require.NoError(t, err)
	require.Equal(t, "new", got.Notes)

	require.NoError(t, s.UpdateUserNotes("missing", "ignored"))
}

func TestTouchUserActivity_Monotonic(t *testing.T) {
	s, _ := newTestStore(t)
	u, err := s.CreateUser("")
	require.NoError(t, err)

	prev := u
	for i := 1; i <= 5; i++ {
		require.NoError(t, s.TouchUserActivity(u.UUID))
		got, err := s.GetUser(u.UUID)
		require.NoError(t, err)
		require.Equal(t, prev.MessageCount+1, got.MessageCount)
		require.False(t, got.LastActiveAt.Before(prev.LastActiveAt))
		prev = got
	}
	require.Equal(t, 5, prev.MessageCount)

	require.NoError(t, s.TouchUserActivity("missing"))
}

func TestAddTokenUsage(t *testing.T) {
	s, _ := newTestStore(t)
	u, err := s.CreateUser("")
	require.NoError(t, err)

	require.NoError(t, s.AddTokenUsage(u.UUID, 120))
	require.NoError(t, s.AddTokenUsage(u.UUID, 30))
	require.NoError(t, s.AddTokenUsage(u.UUID, -500))
	got, err := s.GetUser(u.UUID)
	require.NoError(t, err)
	require.Equal(t, 150, got.TokenUsage)
}

func TestConversation_RoundTrip(t *testing.T) {
	s, _ := newTestStore(t)
	c, err := s.CreateConversation("owner", "Trip planning")
	require.NoError(t, err)
	require.NotEmpty(t, c.ID)
	require.False(t, c.Deleted)
	require.Nil(t, c.DeletedAt)

	got, err := s.GetConversation(c.ID)
	require.NoError(t, err)
	require.Equal(t, c, got)

	list, err := s.GetUserConversations("owner", false)
	require.NoError(t, err)
	require.Equal(t, []Conversation{c}, list)

	_, err = s.GetConversation("missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestCreateConversation_DefaultTitle(t *testing.T) {
	s, _ := newTestStore(t)
	c, err := s.CreateConversation("owner", "  ")
	require.NoError(t, err)
	require.Equal(t, DefaultConversationTitle, c.Title)
}

func TestUpdateConversation(t *testing.T) {
	s, _ := newTestStore(t)
	c, err := s.CreateConversation("owner", "")
	require.NoError(t, err)

	title := "Renamed"
	require.NoError(t, s.UpdateConversation(c.ID, ConversationPatch{Title: &title}))
	got, err := s.GetConversation(c.ID)
	require.NoError(t, err)
	require.Equal(t, "Renamed", got.Title)
	require.True(t, got.UpdatedAt.After(c.UpdatedAt))

	require.NoError(t, s.UpdateConversation(c.ID, ConversationPatch{}))
	touched, err := s.GetConversation(c.ID)
	require.NoError(t, err)
	require.Equal(t, "Renamed", touched.Title)
	require.True(t, touched.UpdatedAt.After(got.UpdatedAt))

	require.NoError(t, s.UpdateConversation("missing", ConversationPatch{Title: &title}))
}

func TestSoftDeleteAndRestore(t *testing.T) {
	s, _ := newTestStore(t)
	c, err := s.CreateConversation("owner", "")
	require.NoError(t, err)
	_, err = s.AddChat("owner", c.ID, RoleUser, "hello", "")
	require.NoError(t, err)

	require.NoError(t, s.SoftDeleteConversation(c.ID))

	visible, err := s.GetUserConversations("owner", false)
	require.NoError(t, err)
	require.Empty(t, visible)

	all, err := s.GetUserConversations("owner", true)
	require.NoError(t, err)
	require.Len(t, all, 1)
	require.True(t, all[0].Deleted)
	require.NotNil(t, all[0].DeletedAt)

	// history of a soft-deleted conversation stays readable
	chats, err := s.GetConversationChats(c.ID)
	require.NoError(t, err)
	require.Len(t, chats, 1)

	require.NoError(t, s.RestoreConversation(c.ID))
	visible, err = s.GetUserConversations("owner", false)
	require.NoError(t, err)
	require.Len(t, visible, 1)
	require.False(t, visible[0].Deleted)
	require.Nil(t, visible[0].DeletedAt)
}

func TestAddChat_RoundTripAndTouchesConversation(t *testing.T) {
	s, _ := newTestStore(t)
	c, err := s.CreateConversation("owner", "")
	require.NoError(t, err)

	chat, err := s.AddChat("owner", c.ID, RoleAssistant, "hi there", "gpt-4o-mini")
	require.NoError(t, err)
	require.NotEmpty(t, chat.ID)

	chats, err := s.GetConversationChats(c.ID)
	require.NoError(t, err)
	require.Equal(t, []Chat{chat}, chats)

	byUser, err := s.GetUserChats("owner")
	require.NoError(t, err)
	require.Equal(t, []Chat{chat}, byUser)

	got, err := s.GetConversation(c.ID)
	require.NoError(t, err)
	require.True(t, got.UpdatedAt.After(c.UpdatedAt))
}

func TestAddChat_RejectsUnknownRole(t *testing.T) {
	s, _ := newTestStore(t)
	_, err := s.AddChat("owner", "conv", Role("tool"), "x", "")
	require.ErrorIs(t, err, ErrInvalidRole)

	chats, err := s.ListChats()
	require.NoError(t, err)
	require.Empty(t, chats)
}

func TestOrdering(t *testing.T) {
	s, _ := newTestStore(t)
	first, err := s.CreateConversation("owner", "first")
	require.NoError(t, err)
	second, err := s.CreateConversation("owner", "second")
	require.NoError(t, err)
	third, err := s.CreateConversation("owner", "third")
	require.NoError(t, err)

	for i, id := range []string{second.ID, first.ID, second.ID, first.ID} {
		_, err := s.AddChat("owner", id, RoleUser, string(rune('a'+i)), "")
		require.NoError(t, err)
	}

	convs, err := s.GetUserConversations("owner", false)
	require.NoError(t, err)
	require.Len(t, convs, 3)
	require.Equal(t, []string{first.ID, second.ID, third.ID},
		[]string{convs[0].ID, convs[1].ID, convs[2].ID})
	for i := 1; i < len(convs); i++ {
		require.False(t, convs[i].UpdatedAt.After(convs[i-1].UpdatedAt))
	}

	chats, err := s.GetConversationChats(first.ID)
	require.NoError(t, err)
	require.Len(t, chats, 2)
	require.Equal(t, "b", chats[0].Content)
	require.Equal(t, "d", chats[1].Content)
	for i := 1; i < len(chats); i++ {
		require.False(t, chats[i].Timestamp.Before(chats[i-1].Timestamp))
	}
}

func TestGetUserChats_SortsByTimestamp(t *testing.T) {
	s, dir := newTestStore(t)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	raw := []Chat{
		{ID: "3", UUID: "u", ConversationID: "c", Role: RoleUser, Content: "late", Timestamp: base.Add(3 * time.Minute)},
		{ID: "1", UUID: "u", ConversationID: "c", Role: RoleUser, Content: "early", Timestamp: base.Add(time.Minute)},
		{ID: "2", UUID: "other", ConversationID: "c", Role: RoleUser, Content: "other", Timestamp: base},
	}
	b, err := json.Marshal(raw)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, chatsFile), b, 0o644))

	chats, err := s.GetUserChats("u")
	require.NoError(t, err)
	require.Len(t, chats, 2)
	require.Equal(t, "early", chats[0].Content)
	require.Equal(t, "late", chats[1].Content)
}

func TestDeleteUser_CascadesChatsOnly(t *testing.T) {
	s, _ := newTestStore(t)
	u, err := s.CreateUser("")
	require.NoError(t, err)
	other, err := s.CreateUser("")
	require.NoError(t, err)

	conv, err := s.CreateConversation(u.UUID, "")
	require.NoError(t, err)
	otherConv, err := s.CreateConversation(other.UUID, "")
	require.NoError(t, err)
	_, err = s.AddChat(u.UUID, conv.ID, RoleUser, "mine", "")
	require.NoError(t, err)
	kept, err := s.AddChat(other.UUID, otherConv.ID, RoleUser, "theirs", "")
	require.NoError(t, err)

	require.NoError(t, s.DeleteUser(u.UUID))

	_, err = s.GetUser(u.UUID)
	require.ErrorIs(t, err, ErrNotFound)

	chats, err := s.GetUserChats(u.UUID)
	require.NoError(t, err)
	require.Empty(t, chats)

	// conversations are not cascaded and remain as orphans
	orphans, err := s.GetUserConversations(u.UUID, true)
	require.NoError(t, err)
	require.Len(t, orphans, 1)

	all, err := s.ListChats()
	require.NoError(t, err)
	require.Equal(t, []Chat{kept}, all)

	require.NoError(t, s.DeleteUser("missing"))
}

func TestDeleteChatAndClear(t *testing.T) {
	s, _ := newTestStore(t)
	a, err := s.AddChat("u", "c", RoleUser, "a", "")
	require.NoError(t, err)
	b, err := s.AddChat("u", "c", RoleAssistant, "b", "m")
	require.NoError(t, err)

	require.NoError(t, s.DeleteChat(a.ID))
	chats, err := s.GetUserChats("u")
	require.NoError(t, err)
	require.Equal(t, []Chat{b}, chats)

	require.NoError(t, s.DeleteChat("missing"))

	require.NoError(t, s.ClearUserChats("u"))
	chats, err = s.GetUserChats("u")
	require.NoError(t, err)
	require.Empty(t, chats)
}

func TestAddChat_ConversationTouchFailureReturnsStoredChat(t *testing.T) {
	s, dir := newTestStore(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, conversationsFile), []byte("{not json"), 0o644))

	chat, err := s.AddChat("u1", "c1", RoleUser, "hello", "")
	require.Error(t, err)
	require.Contains(t, err.Error(), conversationsFile)
	require.NotEmpty(t, chat.ID)

	chats, err := s.GetUserChats("u1")
	require.NoError(t, err)
	require.Len(t, chats, 1)
	require.Equal(t, chat.ID, chats[0].ID)
}

func TestMalformedCollectionIsFatal(t *testing.T) {
	s, dir := newTestStore(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, usersFile), []byte("{not json"), 0o644))

	_, err := s.GetUser("x")
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrNotFound)
	require.Contains(t, err.Error(), usersFile)

	_, err = s.CreateUser("x")
	require.Error(t, err)

	// the broken file is left untouched for inspection
	b, err := os.ReadFile(filepath.Join(dir, usersFile))
	require.NoError(t, err)
	require.Equal(t, "{not json", string(b))
}

func TestConcurrentTouchesAreNotLost(t *testing.T) {
	s, _ := newTestStore(t)
	u, err := s.CreateUser("")
	require.NoError(t, err)

	const n = 25
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.TouchUserActivity(u.UUID)
		}()
	}
	wg.Wait()

	got, err := s.GetUser(u.UUID)
	require.NoError(t, err)
	require.Equal(t, n, got.MessageCount)
}
