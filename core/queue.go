package core

import (
	"sync"
)

const (
	defaultQueueCap     = 16
	compactMinCap       = 64 // Don't compact if capacity is less than this
	compactShrinkFactor = 4  // Trigger compaction when len < cap/4
)

// ReadyQueue is the thread-safe FIFO of tasks eligible to run now. All
// workers push and pop concurrently; ordering is FIFO with respect to
// Push order, which on a single-worker pool makes the run order of
// submitted and rescheduled tasks fully deterministic.
type ReadyQueue struct {
	mu    sync.Mutex
	tasks []*Task
}

func NewReadyQueue() *ReadyQueue {
	return &ReadyQueue{
		tasks: make([]*Task, 0, defaultQueueCap),
	}
}

// Push appends a task at the tail.
func (q *ReadyQueue) Push(t *Task) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.tasks = append(q.tasks, t)
}

// Pop removes and returns the task at the head.
func (q *ReadyQueue) Pop() (*Task, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.tasks) == 0 {
		return nil, false
	}

	t := q.tasks[0]
	// Zero out the element in the underlying array to prevent memory leak
	q.tasks[0] = nil
	q.tasks = q.tasks[1:]
	q.maybeCompactLocked()

	return t, true
}

func (q *ReadyQueue) MaybeCompact() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.maybeCompactLocked()
}

// maybeCompactLocked reallocates the backing array once the live window
// has slid far enough that most of the capacity is dead prefix.
func (q *ReadyQueue) maybeCompactLocked() {
	n := len(q.tasks)
	c := cap(q.tasks)

	if c < compactMinCap {
		return
	}
	if n == 0 {
		q.tasks = make([]*Task, 0, defaultQueueCap)
		return
	}
	if n*compactShrinkFactor >= c {
		return
	}

	newCap := max(max(c/2, defaultQueueCap), n)

	newSlice := make([]*Task, n, newCap)
	copy(newSlice, q.tasks)
	q.tasks = newSlice
}

func (q *ReadyQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}

func (q *ReadyQueue) IsEmpty() bool {
	return q.Len() == 0
}

// Clear removes all tasks from the queue and releases references.
func (q *ReadyQueue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.tasks = make([]*Task, 0, defaultQueueCap)
}
