package core

import (
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// ExecFunc is the unit of scheduled work (Closure). It receives the
// ExecContext of its task, which is the only surface through which a
// running task may request a scheduling action (wait, resched, suspend).
type ExecFunc func(ec *ExecContext)

// Handle identifies a submitted task. It is stable for the lifetime of
// the task and is the key callers pass to Pool.Resume to wake a task
// parked by Suspend.
type Handle string

// NewHandle allocates a fresh task handle.
func NewHandle() Handle {
	return Handle(uuid.NewString())
}

// =============================================================================
// TaskState: lifecycle of a scheduled task
// =============================================================================

type TaskState int32

const (
	// TaskStateCreated: allocated but not yet pushed to the ready queue.
	TaskStateCreated TaskState = iota

	// TaskStateReady: waiting in the ready queue for a worker.
	TaskStateReady

	// TaskStateRunning: a worker is resuming the task's continuation.
	TaskStateRunning

	// TaskStateSleeping: waiting in the timer heap for its wake time.
	TaskStateSleeping

	// TaskStateSuspended: parked in the suspended registry until an
	// external Resume(handle).
	TaskStateSuspended

	// TaskStateFinished: the task function returned, abandoned itself,
	// or failed. No further resumption is possible.
	TaskStateFinished
)

func (s TaskState) String() string {
	switch s {
	case TaskStateCreated:
		return "created"
	case TaskStateReady:
		return "ready"
	case TaskStateRunning:
		return "running"
	case TaskStateSleeping:
		return "sleeping"
	case TaskStateSuspended:
		return "suspended"
	case TaskStateFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// =============================================================================
// Task
// =============================================================================

// Task wraps a user function and its continuation, and carries the
// scheduling metadata the worker loop and the timer heap act on.
//
// Ownership invariant: at any instant a live task is held by exactly one
// of {ready queue, timer heap, suspended registry, a worker's running
// slot}. The state field mirrors which one, for observability; the
// structures themselves are the source of truth.
type Task struct {
	handle Handle
	fn     ExecFunc
	cont   *Continuation
	ec     *ExecContext

	state atomic.Int32

	// wakeAt is the unix-nano wake time while sleeping, 0 otherwise.
	wakeAt atomic.Int64

	// deadline is the unix-nano deadline recorded by SetTimeout, 0 if
	// none. It is recorded and exposed only; it never forces a wake.
	deadline atomic.Int64

	resumes     atomic.Int32
	submittedAt time.Time
}

func newTask(fn ExecFunc) *Task {
	t := &Task{
		handle:      NewHandle(),
		fn:          fn,
		submittedAt: time.Now(),
	}
	t.ec = &ExecContext{task: t}
	t.cont = newContinuation(func() { t.fn(t.ec) })
	return t
}

// Handle returns the stable identity of the task.
func (t *Task) Handle() Handle {
	return t.handle
}

// State returns the current lifecycle state.
func (t *Task) State() TaskState {
	return TaskState(t.state.Load())
}

func (t *Task) setState(s TaskState) {
	t.state.Store(int32(s))
}

// Deadline reports the deadline recorded by SetTimeout, if any.
func (t *Task) Deadline() (time.Time, bool) {
	ns := t.deadline.Load()
	if ns == 0 {
		return time.Time{}, false
	}
	return time.Unix(0, ns), true
}

func (t *Task) setDeadline(at time.Time) {
	t.deadline.Store(at.UnixNano())
}

// WakeAt reports the wake time while the task is sleeping.
func (t *Task) WakeAt() (time.Time, bool) {
	ns := t.wakeAt.Load()
	if ns == 0 {
		return time.Time{}, false
	}
	return time.Unix(0, ns), true
}

func (t *Task) setWakeAt(at time.Time) {
	t.wakeAt.Store(at.UnixNano())
}

func (t *Task) clearWakeAt() {
	t.wakeAt.Store(0)
}

// ResumeCount returns how many times a worker has resumed the task,
// including the initial start.
func (t *Task) ResumeCount() int {
	return int(t.resumes.Load())
}
