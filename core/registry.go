package core

import (
	"sync"
)

// SuspendedRegistry maps task handles to tasks parked by Suspend. Park
// and Take are the only transitions; a parked task holds no queue or
// timer slot and consumes no worker until an external Resume takes it
// back out.
type SuspendedRegistry struct {
	mu     sync.Mutex
	parked map[Handle]*Task
}

func NewSuspendedRegistry() *SuspendedRegistry {
	return &SuspendedRegistry{
		parked: make(map[Handle]*Task),
	}
}

// Park inserts a task under its handle. A handle can only be parked
// once at a time; a duplicate means the single-owner invariant broke
// upstream, so it panics rather than papering over the corruption.
func (r *SuspendedRegistry) Park(t *Task) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.parked[t.handle]; exists {
		panic("core: task parked twice under the same handle")
	}
	r.parked[t.handle] = t
}

// Take removes and returns the task parked under handle. It never
// blocks: a handle that is not present (the task has not reached its
// Suspend call yet, was already taken, or never existed) reports false
// so the caller can retry or fail with ErrNotSuspended.
func (r *SuspendedRegistry) Take(handle Handle) (*Task, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.parked[handle]
	if !ok {
		return nil, false
	}
	delete(r.parked, handle)
	return t, true
}

// Contains reports whether handle is currently parked.
func (r *SuspendedRegistry) Contains(handle Handle) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.parked[handle]
	return ok
}

// Len returns the number of parked tasks.
func (r *SuspendedRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.parked)
}

// Handles returns the handles of all parked tasks, in no particular
// order.
func (r *SuspendedRegistry) Handles() []Handle {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Handle, 0, len(r.parked))
	for h := range r.parked {
		out = append(out, h)
	}
	return out
}

// Clear drops every parked task and releases references.
func (r *SuspendedRegistry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.parked = make(map[Handle]*Task)
}
