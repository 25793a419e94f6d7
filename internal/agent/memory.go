package agent

import "github.com/firebase/genkit/go/ai"

// DefaultMaxTurns bounds conversation memory when no limit is configured.
const DefaultMaxTurns = 10

// Memory holds the last N turns of one session's conversation. Oldest turns
// are evicted first when the bound is exceeded. Memory is session-local with
// a single logical writer; callers issuing concurrent questions within one
// session must serialize access themselves. Never persisted.
type Memory struct {
	maxTurns int
	turns    []Turn
}

// NewMemory creates conversation memory holding at most maxTurns turns.
func NewMemory(maxTurns int) *Memory {
	if maxTurns <= 0 {
		maxTurns = DefaultMaxTurns
	}
	return &Memory{maxTurns: maxTurns}
}

// AddTurn records a completed question/answer exchange, evicting the oldest
// turn if the memory is full.
func (m *Memory) AddTurn(question, answer string) {
	m.turns = append(m.turns, Turn{Question: question, Answer: answer})
	if len(m.turns) > m.maxTurns {
		m.turns = m.turns[len(m.turns)-m.maxTurns:]
	}
}

// History returns the stored turns oldest-first.
func (m *Memory) History() []Turn {
	out := make([]Turn, len(m.turns))
	copy(out, m.turns)
	return out
}

// Messages renders the history as alternating user/model messages in
// chronological order, ready to pass as model history.
func (m *Memory) Messages() []*ai.Message {
	messages := make([]*ai.Message, 0, len(m.turns)*2)
	for _, turn := range m.turns {
		messages = append(messages,
			ai.NewUserTextMessage(turn.Question),
			ai.NewModelTextMessage(turn.Answer))
	}
	return messages
}

// Clear drops all stored turns.
func (m *Memory) Clear() {
	m.turns = nil
}

// TurnCount returns the number of stored turns.
func (m *Memory) TurnCount() int { return len(m.turns) }
