package context

import (
	"fmt"

	"greenlife/internal/domain"
)

// Fitter trims a message window to a token budget using a sliding-window
// strategy: tokens are reserved for the system prompt, then messages are
// kept newest-first until the budget is exhausted.
type Fitter struct {
	tokenizer domain.Tokenizer
	maxTokens int
}

// NewFitter creates a Fitter with the given tokenizer and token budget.
// Panics if tokenizer is nil or maxTokens <= 0.
func NewFitter(tokenizer domain.Tokenizer, maxTokens int) *Fitter {
	if tokenizer == nil {
		panic("context: tokenizer must not be nil")
	}
	if maxTokens <= 0 {
		panic("context: maxTokens must be > 0")
	}
	return &Fitter{tokenizer: tokenizer, maxTokens: maxTokens}
}

// FitToWindow returns the suffix of messages that fits within the budget
// after reserving tokens for the system prompt. Older messages are dropped
// first; the original order of kept messages is preserved.
//
// Returns an error if the system prompt alone exceeds the budget or the
// tokenizer fails.
func (f *Fitter) FitToWindow(messages []domain.Message, systemPrompt string) ([]domain.Message, error) {
	if len(messages) == 0 {
		return []domain.Message{}, nil
	}

	sysTokens := 0
	if systemPrompt != "" {
		n, err := f.tokenizer.CountTokens(systemPrompt)
		if err != nil {
			return nil, fmt.Errorf("context: counting system prompt tokens: %w", err)
		}
		sysTokens = n
	}
	if sysTokens > f.maxTokens {
		return nil, fmt.Errorf("context: system prompt (%d tokens) exceeds limit (%d tokens)", sysTokens, f.maxTokens)
	}

	budget := f.maxTokens - sysTokens

	counts := make([]int, len(messages))
	for i, msg := range messages {
		n, err := f.tokenizer.CountTokens(msg.Content)
		if err != nil {
			return nil, fmt.Errorf("context: counting tokens for message %d: %w", i, err)
		}
		counts[i] = n
	}

	// Walk from the most recent message backwards, keeping what fits.
	total := 0
	startIdx := len(messages)
	for i := len(messages) - 1; i >= 0; i-- {
		if total+counts[i] > budget {
			break
		}
		total += counts[i]
		startIdx = i
	}

	return messages[startIdx:], nil
}
