package analytics

import (
	"testing"
	"time"

	"chat-relay/internal/store"
)

func TestSummarize(t *testing.T) {
	now := time.Date(2024, 1, 15, 18, 0, 0, 0, time.UTC)
	users := []store.User{
		{UUID: "a", TokenUsage: 100, LastActiveAt: now.Add(-2 * time.Hour)},
		{UUID: "b", TokenUsage: 50, LastActiveAt: now.AddDate(0, 0, -1)},
		{UUID: "c", LastActiveAt: time.Date(2024, 1, 15, 0, 0, 1, 0, time.UTC)},
	}
	chats := make([]store.Chat, 7)

	stats := Summarize(users, chats, now)

	if stats.TotalUsers != 3 {
		t.Errorf("Expected 3 users, got %d", stats.TotalUsers)
	}
	if stats.TotalMessages != 7 {
		t.Errorf("Expected 7 messages, got %d", stats.TotalMessages)
	}
	if stats.TotalTokens != 150 {
		t.Errorf("Expected 150 tokens, got %d", stats.TotalTokens)
	}
	if stats.ActiveUsersToday != 2 {
		t.Errorf("Expected 2 active users today, got %d", stats.ActiveUsersToday)
	}
}

func TestAnalyzeDay(t *testing.T) {
	// Тестовая дата
	testDate := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	chats := []store.Chat{
		// События в целевой день
		{UUID: "u1", ConversationID: "c1", Role: store.RoleUser, Timestamp: testDate.Add(2 * time.Hour)},
		{UUID: "u1", ConversationID: "c1", Role: store.RoleAssistant, Timestamp: testDate.Add(2*time.Hour + time.Second)},
		{UUID: "u1", ConversationID: "c2", Role: store.RoleUser, Timestamp: testDate.Add(4 * time.Hour)},
		{UUID: "u2", ConversationID: "c3", Role: store.RoleUser, Timestamp: testDate.Add(6 * time.Hour)},
		// События в другой день (не должны учитываться)
		{UUID: "u3", ConversationID: "c4", Role: store.RoleUser, Timestamp: testDate.AddDate(0, 0, 1)},
		{UUID: "u3", ConversationID: "c4", Role: store.RoleUser, Timestamp: testDate.Add(-time.Second)},
	}

	stats := AnalyzeDay(chats, testDate.Add(12*time.Hour))

	if stats.Date != "2024-01-15" {
		t.Errorf("Expected date '2024-01-15', got '%s'", stats.Date)
	}
	if stats.UserMessages != 3 {
		t.Errorf("Expected 3 user messages, got %d", stats.UserMessages)
	}
	if stats.AssistantMessages != 1 {
		t.Errorf("Expected 1 assistant message, got %d", stats.AssistantMessages)
	}
	if stats.UniqueUsers != 2 {
		t.Errorf("Expected 2 unique users, got %d", stats.UniqueUsers)
	}
	if stats.ActiveConversation != 3 {
		t.Errorf("Expected 3 active conversations, got %d", stats.ActiveConversation)
	}
	if len(stats.UserStats) != 2 || stats.UserStats[0].UUID != "u1" || stats.UserStats[0].Messages != 2 {
		t.Errorf("Unexpected user stats: %+v", stats.UserStats)
	}
}

func TestAnalyzeDayEmpty(t *testing.T) {
	stats := AnalyzeDay(nil, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC))
	if stats.UserMessages != 0 || stats.UniqueUsers != 0 || len(stats.UserStats) != 0 {
		t.Errorf("Expected empty stats, got %+v", stats)
	}
}
