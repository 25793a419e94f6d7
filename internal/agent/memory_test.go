package agent

import (
	"strings"
	"testing"
)

func TestMemoryAddAndHistory(t *testing.T) {
	m := NewMemory(10)

	m.AddTurn("first question", "first answer")
	m.AddTurn("second question", "second answer")

	history := m.History()
	if len(history) != 2 {
		t.Fatalf("History() returned %d turns, want 2", len(history))
	}
	if history[0].Question != "first question" {
		t.Errorf("history not oldest-first: %+v", history)
	}
	if m.TurnCount() != 2 {
		t.Errorf("TurnCount() = %d, want 2", m.TurnCount())
	}
}

func TestMemoryEviction(t *testing.T) {
	m := NewMemory(2)

	m.AddTurn("oldest question", "a1")
	m.AddTurn("middle question", "a2")
	m.AddTurn("newest question", "a3")

	messages := m.Messages()
	if len(messages) != 4 {
		t.Fatalf("Messages() returned %d messages, want 4", len(messages))
	}

	for _, msg := range messages {
		if strings.Contains(msg.Text(), "oldest question") {
			t.Error("evicted turn still present in messages")
		}
	}

	history := m.History()
	if history[0].Question != "middle question" || history[1].Question != "newest question" {
		t.Errorf("unexpected surviving turns: %+v", history)
	}
}

func TestMemoryMessagesAlternate(t *testing.T) {
	m := NewMemory(5)
	m.AddTurn("q", "a")

	messages := m.Messages()
	if len(messages) != 2 {
		t.Fatalf("Messages() returned %d messages, want 2", len(messages))
	}
	if messages[0].Role != "user" || messages[1].Role != "model" {
		t.Errorf("roles = %s/%s, want user/model", messages[0].Role, messages[1].Role)
	}
}

func TestMemoryClear(t *testing.T) {
	m := NewMemory(5)
	m.AddTurn("q", "a")

	m.Clear()
	if m.TurnCount() != 0 {
		t.Errorf("TurnCount() after Clear = %d, want 0", m.TurnCount())
	}
	if len(m.Messages()) != 0 {
		t.Error("Messages() not empty after Clear")
	}
}
