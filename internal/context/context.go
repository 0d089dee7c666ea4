package context

import (
	"time"

	"github.com/google/uuid"

	"greenlife/internal/domain"
)

// Conversation holds one session's dialogue state: the full ordered history
// (retained for display and persistence), the bounded trailing window used
// for prompt assembly, and the single last-action slot. It is owned by one
// session and is not safe for concurrent use.
type Conversation struct {
	history      []domain.Message
	windowTurns  int
	lastAction   *domain.LastAction
	lastMessage  string
	lastResponse string
}

// NewConversation creates a Conversation whose prompt window keeps the last
// windowTurns messages. Panics if windowTurns <= 0.
func NewConversation(windowTurns int) *Conversation {
	if windowTurns <= 0 {
		panic("context: windowTurns must be > 0")
	}
	return &Conversation{windowTurns: windowTurns}
}

// Append adds a message to the full history.
func (c *Conversation) Append(msg domain.Message) {
	c.history = append(c.history, msg)
}

// AppendText builds a Message with a fresh ID and timestamp, appends it, and
// returns it (so callers can persist the exact stored record).
func (c *Conversation) AppendText(role domain.MessageRole, content string) domain.Message {
	msg := domain.Message{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   content,
		Timestamp: time.Now().UTC(),
	}
	c.Append(msg)
	return msg
}

// History returns a copy of the full history.
func (c *Conversation) History() []domain.Message {
	out := make([]domain.Message, len(c.history))
	copy(out, c.history)
	return out
}

// Window returns a copy of the trailing prompt window (the most recent
// windowTurns messages).
func (c *Conversation) Window() []domain.Message {
	start := len(c.history) - c.windowTurns
	if start < 0 {
		start = 0
	}
	out := make([]domain.Message, len(c.history)-start)
	copy(out, c.history[start:])
	return out
}

// SetLastAction overwrites the last-action slot. Last write wins; records are
// never merged or appended.
func (c *Conversation) SetLastAction(action domain.LastAction) {
	a := action
	c.lastAction = &a
}

// LastAction returns a copy of the last-action record, or nil when no tool
// call has been dispatched yet.
func (c *Conversation) LastAction() *domain.LastAction {
	if c.lastAction == nil {
		return nil
	}
	a := *c.lastAction
	return &a
}

// SetTurn records the latest user message and assistant response.
func (c *Conversation) SetTurn(userMessage, response string) {
	c.lastMessage = userMessage
	c.lastResponse = response
}

// LastTurn returns the latest recorded user message and assistant response.
func (c *Conversation) LastTurn() (userMessage, response string) {
	return c.lastMessage, c.lastResponse
}

// Len returns the number of messages in the full history.
func (c *Conversation) Len() int { return len(c.history) }
