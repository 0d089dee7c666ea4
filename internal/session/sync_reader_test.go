package session

import (
	"os"
	"path/filepath"
	"testing"
)

func appendLine(t *testing.T, path, line string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	if _, err := f.WriteString(line + "\n"); err != nil {
		t.Fatalf("write line: %v", err)
	}
	f.Close()
}

func TestReadNew_WhenFileMissing_ShouldReturnNothing(t *testing.T) {
	r := NewSyncReader(filepath.Join(t.TempDir(), "missing.jsonl"))

	msgs, err := r.ReadNew()
	if err != nil {
		t.Fatalf("ReadNew() error: %v", err)
	}
	if len(msgs) != 0 {
		t.Errorf("ReadNew() returned %d messages, want 0", len(msgs))
	}
}

func TestReadNew_ShouldReturnOnlyAppendedContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "t.jsonl")
	appendLine(t, path, `{"id":"m1","role":"user","content":"one"}`)
	r := NewSyncReader(path)

	first, err := r.ReadNew()
	if err != nil {
		t.Fatalf("first ReadNew() error: %v", err)
	}
	if len(first) != 1 || first[0].ID != "m1" {
		t.Fatalf("first ReadNew() = %+v, want [m1]", first)
	}

	appendLine(t, path, `{"id":"m2","role":"assistant","content":"two"}`)
	second, err := r.ReadNew()
	if err != nil {
		t.Fatalf("second ReadNew() error: %v", err)
	}
	if len(second) != 1 || second[0].ID != "m2" {
		t.Errorf("second ReadNew() = %+v, want [m2]", second)
	}
}

func TestReadNew_ShouldSkipKnownIDs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "t.jsonl")
	appendLine(t, path, `{"id":"m1","role":"user","content":"one"}`)
	appendLine(t, path, `{"id":"m2","role":"user","content":"two"}`)

	r := NewSyncReader(path)
	r.MarkKnown("m1")

	msgs, err := r.ReadNew()
	if err != nil {
		t.Fatalf("ReadNew() error: %v", err)
	}
	if len(msgs) != 1 || msgs[0].ID != "m2" {
		t.Errorf("ReadNew() = %+v, want only m2", msgs)
	}
}

func TestReadNew_ShouldSkipCorruptAndEmptyLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "t.jsonl")
	appendLine(t, path, `{"id":"m1","role":"user","content":"one"}`)
	appendLine(t, path, `{corrupt`)
	appendLine(t, path, ``)
	appendLine(t, path, `{"id":"m2","role":"user","content":"two"}`)

	r := NewSyncReader(path)
	msgs, err := r.ReadNew()
	if err != nil {
		t.Fatalf("ReadNew() error: %v", err)
	}
	if len(msgs) != 2 {
		t.Errorf("ReadNew() returned %d messages, want 2", len(msgs))
	}
}

func TestReadNew_WhenFileTruncated_ShouldResetAndReread(t *testing.T) {
	path := filepath.Join(t.TempDir(), "t.jsonl")
	appendLine(t, path, `{"id":"m1","role":"user","content":"one"}`)
	r := NewSyncReader(path)
	if _, err := r.ReadNew(); err != nil {
		t.Fatalf("initial ReadNew() error: %v", err)
	}

	// Truncate and write fresh content shorter than the old offset.
	if err := os.WriteFile(path, nil, 0644); err != nil {
		t.Fatalf("truncate: %v", err)
	}
	appendLine(t, path, `{"id":"m2","role":"user","content":"x"}`)

	msgs, err := r.ReadNew()
	if err != nil {
		t.Fatalf("ReadNew() after truncation error: %v", err)
	}
	if len(msgs) != 1 || msgs[0].ID != "m2" {
		t.Errorf("ReadNew() = %+v, want [m2]", msgs)
	}
}

func TestReadNew_ShouldDeduplicateAcrossReads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "t.jsonl")
	appendLine(t, path, `{"id":"m1","role":"user","content":"one"}`)
	r := NewSyncReader(path)
	if _, err := r.ReadNew(); err != nil {
		t.Fatalf("first ReadNew() error: %v", err)
	}

	// Rewrite the same line after truncation; the ID is already known.
	if err := os.WriteFile(path, nil, 0644); err != nil {
		t.Fatalf("truncate: %v", err)
	}
	appendLine(t, path, `{"id":"m1","role":"user","content":"one"}`)

	msgs, err := r.ReadNew()
	if err != nil {
		t.Fatalf("ReadNew() error: %v", err)
	}
	if len(msgs) != 0 {
		t.Errorf("ReadNew() returned %d messages, want 0 (deduplicated)", len(msgs))
	}
}
