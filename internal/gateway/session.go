package gateway

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"greenlife/internal/assistant"
)

// ErrEmptySessionID is returned when a registry operation is given an empty ID.
var ErrEmptySessionID = errors.New("gateway: session ID must not be empty")

// AssistantFactory builds a fully wired assistant for a new session. Each
// session gets its own cart and conversation so sessions never share state.
type AssistantFactory func(sessionID string) (*assistant.Assistant, error)

// timeNow is the clock used for session activity stamps; tests may replace it.
var timeNow = time.Now

// Session is one client's isolated shopping session.
type Session struct {
	ID        string
	Assistant *assistant.Assistant
	LastSeen  time.Time
}

// SessionRegistry tracks live sessions and evicts the ones that go idle.
type SessionRegistry struct {
	factory  AssistantFactory
	logger   *slog.Logger
	mu       sync.Mutex
	sessions map[string]*Session
}

// NewSessionRegistry creates a registry. The factory must not be nil.
func NewSessionRegistry(factory AssistantFactory, logger *slog.Logger) *SessionRegistry {
	if factory == nil {
		panic("gateway: assistant factory must not be nil")
	}
	return &SessionRegistry{
		factory:  factory,
		logger:   logger,
		sessions: make(map[string]*Session),
	}
}

func (r *SessionRegistry) log() *slog.Logger {
	if r.logger != nil {
		return r.logger
	}
	return slog.Default()
}

// Acquire returns the session with the given ID, creating it via the factory
// if it does not exist. The session's LastSeen is refreshed either way.
func (r *SessionRegistry) Acquire(id string) (*Session, error) {
	if id == "" {
		return nil, ErrEmptySessionID
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if sess, ok := r.sessions[id]; ok {
		sess.LastSeen = timeNow()
		return sess, nil
	}

	asst, err := r.factory(id)
	if err != nil {
		return nil, err
	}
	sess := &Session{ID: id, Assistant: asst, LastSeen: timeNow()}
	r.sessions[id] = sess
	r.log().Info("session created", "session_id", id)
	return sess, nil
}

// Touch refreshes a session's LastSeen. Unknown IDs are ignored.
func (r *SessionRegistry) Touch(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if sess, ok := r.sessions[id]; ok {
		sess.LastSeen = timeNow()
	}
}

// Remove drops a session from the registry. Unknown IDs are ignored.
func (r *SessionRegistry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[id]; ok {
		delete(r.sessions, id)
		r.log().Info("session removed", "session_id", id)
	}
}

// SweepIdle evicts every session whose LastSeen is older than maxIdle and
// returns how many were evicted. maxIdle <= 0 disables the sweep.
func (r *SessionRegistry) SweepIdle(maxIdle time.Duration) int {
	if maxIdle <= 0 {
		return 0
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := timeNow().Add(-maxIdle)
	var swept int
	for id, sess := range r.sessions {
		if sess.LastSeen.Before(cutoff) {
			delete(r.sessions, id)
			swept++
			r.log().Info("idle session swept", "session_id", id)
		}
	}
	return swept
}

// Len returns the number of live sessions.
func (r *SessionRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
