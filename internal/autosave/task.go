package autosave

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// DefaultDelay is the simulated save latency
const DefaultDelay = time.Second

// ErrAlreadyStarted is returned when Run is called on a task that left Pending
var ErrAlreadyStarted = errors.New("auto-save task already started")

// State is the lifecycle of a task
type State int32

const (
	StatePending State = iota
	StateRunning
	StateCompleted
	StateInterrupted
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "Pending"
	case StateRunning:
		return "Running"
	case StateCompleted:
		return "Completed"
	case StateInterrupted:
		return "Interrupted"
	default:
		return "Unknown"
	}
}

// Terminal reports whether s is Completed or Interrupted
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateInterrupted
}

// Result is reported once a task reaches a terminal state
type Result struct {
	Name    string
	State   State
	Err     error // cause of an interruption, nil when completed
	Elapsed time.Duration
}

// SaveFunc is the body of a task. It returns ctx.Err() when cancelled.
type SaveFunc func(ctx context.Context) error

// Task runs a background save. It shares no state with the ledger.
type Task struct {
	name   string
	delay  time.Duration
	save   SaveFunc
	logger *zap.Logger
	state  atomic.Int32
}

// NewTask creates a pending task. A non-positive delay falls back to DefaultDelay.
func NewTask(name string, delay time.Duration, logger *zap.Logger) *Task {
	if delay <= 0 {
		delay = DefaultDelay
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	t := &Task{
		name:   name,
		delay:  delay,
		logger: logger.With(zap.String("task", name)),
	}
	t.save = t.wait
	return t
}

// NewTaskFunc creates a pending task whose body is save
func NewTaskFunc(name string, save SaveFunc, logger *zap.Logger) *Task {
	t := NewTask(name, 0, logger)
	if save != nil {
		t.save = save
	}
	return t
}

// wait is the default body: it simulates save latency
func (t *Task) wait(ctx context.Context) error {
	timer := time.NewTimer(t.delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Name returns the task label
func (t *Task) Name() string {
	return t.name
}

// State returns the current state
func (t *Task) State() State {
	return State(t.state.Load())
}

// Run executes the task body. A body error, including cancellation of ctx,
// moves the task to Interrupted; it is logged and returned in the Result,
// never escalated.
func (t *Task) Run(ctx context.Context) Result {
	if !t.state.CompareAndSwap(int32(StatePending), int32(StateRunning)) {
		return Result{Name: t.name, State: t.State(), Err: ErrAlreadyStarted}
	}

	start := time.Now()
	t.logger.Info("auto-saving finance data")

	if err := t.save(ctx); err != nil {
		t.state.Store(int32(StateInterrupted))
		elapsed := time.Since(start)
		t.logger.Warn("auto-save interrupted", zap.Duration("elapsed", elapsed), zap.Error(err))
		return Result{Name: t.name, State: StateInterrupted, Err: err, Elapsed: elapsed}
	}

	t.state.Store(int32(StateCompleted))
	elapsed := time.Since(start)
	t.logger.Info("finished auto-saving", zap.Duration("elapsed", elapsed))
	return Result{Name: t.name, State: StateCompleted, Elapsed: elapsed}
}

// interrupt marks a task that died without reaching a terminal state
func (t *Task) interrupt() {
	t.state.Store(int32(StateInterrupted))
}
