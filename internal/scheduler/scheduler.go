package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// Task is a recurring maintenance job, such as the idle-session sweep.
// Run is invoked every time the cron expression fires.
type Task struct {
	ID       string // Unique identifier for the task
	Name     string // Human-readable name (optional)
	CronExpr string // Cron expression (e.g. "*/10 * * * *")
	Run      func(ctx context.Context) error
}

// CronEngine abstracts the cron scheduler for testability.
// The real implementation wraps robfig/cron/v3.
type CronEngine interface {
	AddFunc(spec string, cmd func()) (int, error)
	Remove(id int)
	Start()
	Stop()
}

// Option is a functional option for configuring a Scheduler.
type Option func(*Scheduler)

// WithLogger sets a structured logger for the Scheduler. If l is nil it is
// ignored and the default slog logger is used.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scheduler) {
		if l != nil {
			s.logger = l
		}
	}
}

// Sentinel errors for validation.
var (
	ErrEmptyTaskID   = errors.New("scheduler: task ID must not be empty")
	ErrEmptyCron     = errors.New("scheduler: cron expression must not be empty")
	ErrNilRun        = errors.New("scheduler: task run function must not be nil")
	ErrDuplicateTask = errors.New("scheduler: task with this ID already exists")
)

// taskEntry tracks a registered task and its cron entry ID.
type taskEntry struct {
	task    Task
	entryID int
}

// Scheduler manages cron-based recurring tasks. Failures in a task's Run are
// logged and do not stop the schedule.
type Scheduler struct {
	engine CronEngine
	logger *slog.Logger
	mu     sync.RWMutex
	tasks  map[string]taskEntry
}

// NewScheduler creates a new Scheduler. The engine must not be nil.
func NewScheduler(engine CronEngine, opts ...Option) *Scheduler {
	if engine == nil {
		panic("scheduler: engine must not be nil")
	}
	s := &Scheduler{
		engine: engine,
		tasks:  make(map[string]taskEntry),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// log returns the Scheduler's logger, falling back to the default slog logger.
func (s *Scheduler) log() *slog.Logger {
	if s.logger != nil {
		return s.logger
	}
	return slog.Default()
}

// AddTask registers a recurring task. Returns an error if the task fails
// validation or if a task with the same ID already exists.
func (s *Scheduler) AddTask(task Task) error {
	if task.ID == "" {
		return ErrEmptyTaskID
	}
	if task.CronExpr == "" {
		return ErrEmptyCron
	}
	if task.Run == nil {
		return ErrNilRun
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tasks[task.ID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateTask, task.ID)
	}

	// Capture task for the closure.
	captured := task
	entryID, err := s.engine.AddFunc(task.CronExpr, func() {
		s.log().Info("task fired",
			"task_id", captured.ID,
			"task_name", captured.Name,
			"cron_expr", captured.CronExpr,
		)
		if runErr := captured.Run(context.Background()); runErr != nil {
			s.log().Warn("task failed",
				"task_id", captured.ID,
				"error", runErr,
			)
		}
	})
	if err != nil {
		return fmt.Errorf("scheduler: failed to register cron task %q: %w", task.ID, err)
	}

	s.tasks[task.ID] = taskEntry{task: task, entryID: entryID}
	s.log().Info("task registered",
		"task_id", task.ID,
		"task_name", task.Name,
		"cron_expr", task.CronExpr,
	)
	return nil
}

// Start begins the cron scheduler.
func (s *Scheduler) Start() {
	s.engine.Start()
}

// Stop halts the cron scheduler.
func (s *Scheduler) Stop() {
	s.engine.Stop()
}

// RemoveTask unregisters a task by ID. Returns an error if the ID is empty
// or the task does not exist.
func (s *Scheduler) RemoveTask(id string) error {
	if id == "" {
		return ErrEmptyTaskID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, exists := s.tasks[id]
	if !exists {
		return fmt.Errorf("scheduler: task %q not found", id)
	}

	s.engine.Remove(entry.entryID)
	delete(s.tasks, id)
	s.log().Info("task removed", "task_id", id)
	return nil
}

// ListTasks returns a copy of all registered tasks. The returned slice is
// never nil (empty slice when no tasks are registered).
func (s *Scheduler) ListTasks() []Task {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tasks := make([]Task, 0, len(s.tasks))
	for _, entry := range s.tasks {
		tasks = append(tasks, entry.task)
	}
	return tasks
}

// GetTask returns the task with the given ID, or false if not found.
func (s *Scheduler) GetTask(id string) (Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.tasks[id]
	if !ok {
		return Task{}, false
	}
	return entry.task, true
}
