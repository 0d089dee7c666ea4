package session

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"greenlife/internal/domain"
)

func testMessage(id, content string) domain.Message {
	return domain.Message{
		ID:        id,
		Role:      domain.RoleUser,
		Content:   content,
		Timestamp: time.Now().UTC(),
	}
}

func TestAppend_ShouldWriteOneLinePerMessage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "transcript.jsonl")
	ts := NewTranscriptStore(path)

	if err := ts.Append(testMessage("m1", "hello")); err != nil {
		t.Fatalf("Append() error: %v", err)
	}
	if err := ts.Append(testMessage("m2", "world")); err != nil {
		t.Fatalf("Append() error: %v", err)
	}

	msgs, err := ts.LoadHistory(10)
	if err != nil {
		t.Fatalf("LoadHistory() error: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("LoadHistory() returned %d messages, want 2", len(msgs))
	}
	if msgs[0].ID != "m1" || msgs[1].ID != "m2" {
		t.Errorf("message order = [%s %s], want [m1 m2]", msgs[0].ID, msgs[1].ID)
	}
}

func TestLoadHistory_WhenFileMissing_ShouldReturnEmpty(t *testing.T) {
	ts := NewTranscriptStore(filepath.Join(t.TempDir(), "missing.jsonl"))

	msgs, err := ts.LoadHistory(10)
	if err != nil {
		t.Fatalf("LoadHistory() error: %v", err)
	}
	if len(msgs) != 0 {
		t.Errorf("LoadHistory() returned %d messages, want 0", len(msgs))
	}
}

func TestLoadHistory_ShouldReturnOnlyLastN(t *testing.T) {
	path := filepath.Join(t.TempDir(), "transcript.jsonl")
	ts := NewTranscriptStore(path)
	for i := 0; i < 10; i++ {
		ts.Append(testMessage(string(rune('a'+i)), "msg"))
	}

	msgs, err := ts.LoadHistory(3)
	if err != nil {
		t.Fatalf("LoadHistory() error: %v", err)
	}
	if len(msgs) != 3 {
		t.Fatalf("LoadHistory(3) returned %d messages", len(msgs))
	}
	if msgs[0].ID != "h" || msgs[2].ID != "j" {
		t.Errorf("messages = [%s .. %s], want [h .. j]", msgs[0].ID, msgs[2].ID)
	}
}

func TestLoadHistory_WhenNNonPositive_ShouldReturnEmpty(t *testing.T) {
	ts := NewTranscriptStore(filepath.Join(t.TempDir(), "t.jsonl"))

	if msgs, _ := ts.LoadHistory(0); len(msgs) != 0 {
		t.Errorf("LoadHistory(0) returned %d messages, want 0", len(msgs))
	}
}

func TestLoadHistory_ShouldSkipCorruptLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "transcript.jsonl")
	ts := NewTranscriptStore(path)
	ts.Append(testMessage("m1", "good"))
	f, _ := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0644)
	f.WriteString("{corrupt line\n")
	f.Close()
	ts.Append(testMessage("m2", "also good"))

	msgs, err := ts.LoadHistory(10)
	if err != nil {
		t.Fatalf("LoadHistory() error: %v", err)
	}
	if len(msgs) != 2 {
		t.Errorf("LoadHistory() returned %d messages, want 2 (corrupt skipped)", len(msgs))
	}
}

func TestAppend_WhenMarshalFails_ShouldReturnError(t *testing.T) {
	ts := NewTranscriptStore(filepath.Join(t.TempDir(), "t.jsonl"))
	ts.marshalFn = func(v any) ([]byte, error) { return nil, errors.New("marshal failed") }

	if err := ts.Append(testMessage("m1", "x")); err == nil {
		t.Fatal("marshal failure should return error")
	}
}

func TestAppend_WhenWriteFails_ShouldReturnError(t *testing.T) {
	ts := NewTranscriptStore(filepath.Join(t.TempDir(), "t.jsonl"))
	ts.writeFn = func(f *os.File, data []byte) (int, error) { return 0, errors.New("disk full") }

	if err := ts.Append(testMessage("m1", "x")); err == nil {
		t.Fatal("write failure should return error")
	}
}
