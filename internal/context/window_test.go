package context

import (
	"errors"
	"strings"
	"testing"

	"greenlife/internal/domain"
)

// wordTokenizer counts whitespace-separated words; deterministic and cheap.
type wordTokenizer struct {
	err error
}

func (w *wordTokenizer) CountTokens(text string) (int, error) {
	if w.err != nil {
		return 0, w.err
	}
	if text == "" {
		return 0, nil
	}
	return len(strings.Fields(text)), nil
}

func msgs(contents ...string) []domain.Message {
	out := make([]domain.Message, len(contents))
	for i, c := range contents {
		out[i] = domain.Message{Content: c}
	}
	return out
}

func TestNewFitter_WhenNilTokenizer_ShouldPanic(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("NewFitter(nil, 10) should panic")
		}
	}()
	NewFitter(nil, 10)
}

func TestNewFitter_WhenZeroBudget_ShouldPanic(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("NewFitter(tok, 0) should panic")
		}
	}()
	NewFitter(&wordTokenizer{}, 0)
}

func TestFitToWindow_WhenEverythingFits_ShouldKeepAll(t *testing.T) {
	f := NewFitter(&wordTokenizer{}, 100)

	fitted, err := f.FitToWindow(msgs("one two", "three four"), "system prompt")
	if err != nil {
		t.Fatalf("FitToWindow() error: %v", err)
	}
	if len(fitted) != 2 {
		t.Errorf("kept %d messages, want 2", len(fitted))
	}
}

func TestFitToWindow_WhenOverBudget_ShouldDropOldestFirst(t *testing.T) {
	// Budget 5, system takes 1, leaving 4. Each message is 2 tokens, so only
	// the two most recent fit.
	f := NewFitter(&wordTokenizer{}, 5)

	fitted, err := f.FitToWindow(msgs("a b", "c d", "e f"), "sys")
	if err != nil {
		t.Fatalf("FitToWindow() error: %v", err)
	}
	if len(fitted) != 2 {
		t.Fatalf("kept %d messages, want 2", len(fitted))
	}
	if fitted[0].Content != "c d" || fitted[1].Content != "e f" {
		t.Errorf("kept wrong messages: %+v", fitted)
	}
}

func TestFitToWindow_WhenSystemPromptExceedsBudget_ShouldReturnError(t *testing.T) {
	f := NewFitter(&wordTokenizer{}, 2)

	_, err := f.FitToWindow(msgs("hello"), "one two three four")
	if err == nil {
		t.Fatal("oversized system prompt should return error")
	}
}

func TestFitToWindow_WhenNoMessages_ShouldReturnEmpty(t *testing.T) {
	f := NewFitter(&wordTokenizer{}, 10)

	fitted, err := f.FitToWindow(nil, "sys")
	if err != nil {
		t.Fatalf("FitToWindow() error: %v", err)
	}
	if len(fitted) != 0 {
		t.Errorf("kept %d messages, want 0", len(fitted))
	}
}

func TestFitToWindow_WhenTokenizerFails_ShouldReturnError(t *testing.T) {
	f := NewFitter(&wordTokenizer{err: errors.New("encode failed")}, 10)

	if _, err := f.FitToWindow(msgs("hello"), "sys"); err == nil {
		t.Fatal("tokenizer failure should return error")
	}
}
