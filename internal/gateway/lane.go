package gateway

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrEmptyLaneID is returned when Do is called with an empty session ID.
var ErrEmptyLaneID = errors.New("gateway: lane ID must not be empty")

// turnItem is one queued turn awaiting execution.
type turnItem struct {
	ctx  context.Context
	fn   func() error
	done chan error
}

// lane processes turns for a single session via one goroutine, so a session's
// turns commit strictly in arrival order.
type lane struct {
	work chan turnItem
}

// run is the lane's worker loop. It processes items from the work channel in
// FIFO order. If a turn function panics, the panic is recovered and returned
// as an error.
func (l *lane) run() {
	for item := range l.work {
		if item.ctx.Err() != nil {
			item.done <- item.ctx.Err()
			continue
		}
		item.done <- l.safeExec(item.fn)
	}
}

// safeExec runs fn and recovers from panics, converting them to errors.
func (l *lane) safeExec(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("gateway: turn panic: %v", r)
		}
	}()
	return fn()
}

// defaultLaneBufferSize is the capacity of each lane's work channel.
// Tests in this package may override it to exercise full-buffer paths.
var defaultLaneBufferSize = 256

// TurnQueue serializes turns per session. Different sessions execute
// concurrently, but turns within the same session run in FIFO order, since
// each turn reads the state the previous turn committed.
type TurnQueue struct {
	mu    sync.Mutex
	lanes map[string]*lane
}

// NewTurnQueue creates a TurnQueue ready for use.
func NewTurnQueue() *TurnQueue {
	return &TurnQueue{
		lanes: make(map[string]*lane),
	}
}

// Do executes fn serially within the given session's lane. It blocks until
// the turn completes or the context is cancelled. Returns the error from fn,
// or ctx.Err() if the context is cancelled while waiting.
func (q *TurnQueue) Do(ctx context.Context, laneID string, fn func() error) error {
	if laneID == "" {
		return ErrEmptyLaneID
	}

	l := q.getOrCreateLane(laneID)
	item := turnItem{
		ctx:  ctx,
		fn:   fn,
		done: make(chan error, 1),
	}

	select {
	case l.work <- item:
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-item.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// getOrCreateLane returns the lane for laneID, creating it (with a worker
// goroutine) if it doesn't exist.
func (q *TurnQueue) getOrCreateLane(laneID string) *lane {
	q.mu.Lock()
	defer q.mu.Unlock()
	if l, ok := q.lanes[laneID]; ok {
		return l
	}
	l := &lane{
		work: make(chan turnItem, defaultLaneBufferSize),
	}
	q.lanes[laneID] = l
	go l.run()
	return l
}

// LaneCount returns the number of active lanes.
func (q *TurnQueue) LaneCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.lanes)
}
