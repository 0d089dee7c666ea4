package session

import (
	"bufio"
	"encoding/json"
	"errors"
	"os"

	"greenlife/internal/domain"
)

// writeFunc is used to write content so tests can inject a failing implementation.
type writeFunc func(f *os.File, data []byte) (int, error)

// marshalFunc is the JSON marshaling function; tests may replace it to force errors.
type marshalFunc func(v any) ([]byte, error)

// TranscriptStore persists conversation messages to a JSONL file (one JSON
// object per line). It supports appending new messages and loading the last
// N messages so a restarted session can restore its prompt window.
type TranscriptStore struct {
	path      string
	writeFn   writeFunc   // nil means use f.Write
	marshalFn marshalFunc // nil means use json.Marshal
}

// NewTranscriptStore returns a TranscriptStore backed by the given JSONL file.
func NewTranscriptStore(path string) *TranscriptStore {
	return &TranscriptStore{path: path}
}

// Append serializes a Message to JSON and appends it as a single line.
func (t *TranscriptStore) Append(msg domain.Message) error {
	marshal := json.Marshal
	if t.marshalFn != nil {
		marshal = t.marshalFn
	}
	data, err := marshal(msg)
	if err != nil {
		return err
	}
	data = append(data, '\n')

	f, err := os.OpenFile(t.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	var writeErr error
	if t.writeFn != nil {
		_, writeErr = t.writeFn(f, data)
	} else {
		_, writeErr = f.Write(data)
	}
	closeErr := f.Close()
	if writeErr != nil {
		return writeErr
	}
	return closeErr
}

// LoadHistory reads the last n messages from the transcript file.
// Returns empty slice when the file does not exist or n <= 0.
func (t *TranscriptStore) LoadHistory(n int) ([]domain.Message, error) {
	if n <= 0 {
		return nil, nil
	}

	f, err := os.Open(t.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	var lines []string
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}

	msgs := make([]domain.Message, 0, len(lines))
	for _, line := range lines {
		var msg domain.Message
		if err := json.Unmarshal([]byte(line), &msg); err != nil {
			continue // skip corrupt lines
		}
		msgs = append(msgs, msg)
	}
	return msgs, nil
}

// Ensure TranscriptStore implements domain.TranscriptStore.
var _ domain.TranscriptStore = (*TranscriptStore)(nil)
