package domain

import "context"

// ChatProvider is the model-agnostic interface for the language capability.
// One call = one role-tagged completion. Implementations may be Groq, OpenAI,
// or mocks; any failure is opaque to the caller.
type ChatProvider interface {
	Complete(ctx context.Context, req ChatRequest) (string, error)
}

// Tokenizer counts tokens in a string for context window management.
type Tokenizer interface {
	// CountTokens returns the number of tokens in the given text.
	CountTokens(text string) (int, error)
}

// TranscriptStore persists conversation messages to a JSONL file and supports
// loading the last N messages to restore context on restart.
type TranscriptStore interface {
	// Append serializes a Message to JSON and appends it as a single line.
	Append(msg Message) error

	// LoadHistory reads the last n messages from the transcript file.
	// Returns empty slice when the file does not exist or n <= 0.
	LoadHistory(n int) ([]Message, error)
}

// HistorySyncer watches a transcript JSONL file for external changes (e.g.
// the same file synced from another device) and delivers newly appended
// messages via a callback so they can be merged into the live session.
type HistorySyncer interface {
	// Start begins watching the transcript file. Calls the provided callback
	// whenever new messages are detected. Must not block.
	Start(callback func([]Message)) error

	// Stop ceases watching and releases all resources.
	Stop() error
}

// OrderStore persists checked-out orders.
type OrderStore interface {
	// SaveOrder writes the order and its lines in one transaction.
	SaveOrder(ctx context.Context, order Order) error
}
