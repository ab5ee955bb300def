package history

import (
	"fmt"
	"testing"

	"chat-relay/internal/llm"
	"chat-relay/internal/store"
)

func chatsN(n int) []store.Chat {
	out := make([]store.Chat, 0, n)
	for i := 0; i < n; i++ {
		role := store.RoleUser
		if i%2 == 1 {
			role = store.RoleAssistant
		}
		out = append(out, store.Chat{Role: role, Content: fmt.Sprintf("m%d", i)})
	}
	return out
}

func TestWindowKeepsNewest(t *testing.T) {
	msgs := Window(chatsN(14), 10, "")
	if len(msgs) != 10 {
		t.Fatalf("want 10, got %d", len(msgs))
	}
	if msgs[0].Content != "m4" || msgs[9].Content != "m13" {
		t.Fatalf("unexpected window bounds: first=%+v last=%+v", msgs[0], msgs[9])
	}
	if msgs[1].Role != "assistant" {
		t.Fatalf("unexpected role mapping: %+v", msgs[1])
	}
}

func TestWindowSystemPrompt(t *testing.T) {
	msgs := Window(chatsN(3), 2, "be brief")
	want := []llm.Message{
		{Role: "system", Content: "be brief"},
		{Role: "assistant", Content: "m1"},
		{Role: "user", Content: "m2"},
	}
	if len(msgs) != len(want) {
		t.Fatalf("want %d, got %d", len(want), len(msgs))
	}
	for i := range want {
		if msgs[i] != want[i] {
			t.Fatalf("msg %d: want %+v, got %+v", i, want[i], msgs[i])
		}
	}

	if got := Window(chatsN(1), 0, "   "); len(got) != 1 || got[0].Role != "user" {
		t.Fatalf("blank prompt must be skipped: %+v", got)
	}
}

func TestWindowDoesNotAliasInput(t *testing.T) {
	in := chatsN(2)
	msgs := Window(in, DefaultLimit, "")
	msgs[0].Content = "mutated"
	if in[0].Content != "m0" {
		t.Fatalf("input modified: %+v", in[0])
	}
}
