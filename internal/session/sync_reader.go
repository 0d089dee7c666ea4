package session

import (
	"bufio"
	"encoding/json"
	"errors"
	"os"

	"greenlife/internal/domain"
)

// openFunc opens a file for reading; tests may replace it to inject errors.
type openFunc func(path string) (*os.File, error)

// SyncReader tracks a transcript JSONL file's read position and detects newly
// appended messages. Another writer (the same transcript synced from a second
// device) appends lines to the file, and SyncReader picks up only the new
// content, deduplicating by message ID.
type SyncReader struct {
	path   string
	offset int64
	known  map[string]bool // message IDs already seen
	openFn openFunc        // nil means use os.Open
}

// NewSyncReader creates a SyncReader for the given JSONL file path.
// The reader starts at offset 0 with no known message IDs.
func NewSyncReader(path string) *SyncReader {
	return &SyncReader{
		path:  path,
		known: make(map[string]bool),
	}
}

// Offset returns the current byte offset into the file.
func (s *SyncReader) Offset() int64 {
	return s.offset
}

// MarkKnown registers a message ID as already seen, so it will be skipped
// during future ReadNew calls. Use this for locally-generated messages.
func (s *SyncReader) MarkKnown(id string) {
	if id != "" {
		s.known[id] = true
	}
}

// ReadNew reads any lines appended after the current offset, parses them as
// Messages, deduplicates by ID, advances the offset, and returns only new
// messages. Invalid JSON lines and empty lines are silently skipped.
//
// If the file has been truncated (now smaller than the offset), the reader
// resets to the beginning and re-reads the whole file, still deduplicating
// against previously known IDs.
func (s *SyncReader) ReadNew() ([]domain.Message, error) {
	open := os.Open
	if s.openFn != nil {
		open = s.openFn
	}
	f, err := open(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if info.Size() < s.offset {
		s.offset = 0
	}

	if s.offset > 0 {
		if _, err := f.Seek(s.offset, 0); err != nil {
			return nil, err
		}
	}

	scanner := bufio.NewScanner(f)
	var msgs []domain.Message
	var bytesRead int64

	for scanner.Scan() {
		line := scanner.Text()
		bytesRead += int64(len(scanner.Bytes())) + 1 // +1 for newline

		if line == "" {
			continue
		}

		var msg domain.Message
		if err := json.Unmarshal([]byte(line), &msg); err != nil {
			continue // skip corrupt lines
		}

		if msg.ID != "" && s.known[msg.ID] {
			continue
		}
		if msg.ID != "" {
			s.known[msg.ID] = true
		}

		msgs = append(msgs, msg)
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	s.offset += bytesRead
	return msgs, nil
}
