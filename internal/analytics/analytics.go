package analytics

import (
	"sort"
	"time"

	"chat-relay/internal/store"
)

// Stats содержит сводку для админ-панели
type Stats struct {
	TotalUsers       int `json:"totalUsers"`
	TotalMessages    int `json:"totalMessages"`
	TotalTokens      int `json:"totalTokens"`
	ActiveUsersToday int `json:"activeUsersToday"`
}

// Summarize считает общую статистику. «Сегодня» считается по календарному дню now в UTC.
func Summarize(users []store.User, chats []store.Chat, now time.Time) Stats {
	stats := Stats{
		TotalUsers:    len(users),
		TotalMessages: len(chats),
	}
	today := now.UTC().Format(time.DateOnly)
	for _, u := range users {
		stats.TotalTokens += u.TokenUsage
		if u.LastActiveAt.UTC().Format(time.DateOnly) == today {
			stats.ActiveUsersToday++
		}
	}
	return stats
}

// DailyStats содержит статистику за день
type DailyStats struct {
	Date               string      `json:"date"`
	UserMessages       int         `json:"userMessages"`
	AssistantMessages  int         `json:"assistantMessages"`
	UniqueUsers        int         `json:"uniqueUsers"`
	ActiveConversation int         `json:"activeConversations"`
	UserStats          []UserStats `json:"userStats"`
}

// UserStats содержит статистику по пользователю
type UserStats struct {
	UUID     string `json:"uuid"`
	Messages int    `json:"messages"`
}

// AnalyzeDay анализирует сообщения за указанную дату
func AnalyzeDay(chats []store.Chat, targetDate time.Time) *DailyStats {
	// Нормализуем дату до начала дня
	startOfDay := time.Date(targetDate.Year(), targetDate.Month(), targetDate.Day(), 0, 0, 0, 0, targetDate.Location())
	endOfDay := startOfDay.AddDate(0, 0, 1)

	stats := &DailyStats{Date: startOfDay.Format(time.DateOnly)}
	perUser := make(map[string]int)
	conversations := make(map[string]bool)

	for _, c := range chats {
		if c.Timestamp.Before(startOfDay) || !c.Timestamp.Before(endOfDay) {
			continue
		}
		conversations[c.ConversationID] = true
		switch c.Role {
		case store.RoleUser:
			stats.UserMessages++
			perUser[c.UUID]++
		case store.RoleAssistant:
			stats.AssistantMessages++
		}
	}

	stats.UniqueUsers = len(perUser)
	stats.ActiveConversation = len(conversations)
	stats.UserStats = make([]UserStats, 0, len(perUser))
	for id, n := range perUser {
		stats.UserStats = append(stats.UserStats, UserStats{UUID: id, Messages: n})
	}
	sort.Slice(stats.UserStats, func(i, j int) bool {
		if stats.UserStats[i].Messages != stats.UserStats[j].Messages {
			return stats.UserStats[i].Messages > stats.UserStats[j].Messages
		}
		return stats.UserStats[i].UUID < stats.UserStats[j].UUID
	})
	return stats
}
