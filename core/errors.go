package core

import "errors"

// ErrNotSuspended is returned by Resume when the handle is not
// currently parked in the suspended registry. This is expected when the
// caller races a task that has not yet reached its Suspend call;
// callers retry on this error (see ResumeWithRetry) or treat it as a
// logic error if it persists.
var ErrNotSuspended = errors.New("task is not currently suspended")

// ErrShutdown is returned by Submit and Resume once Terminate has
// begun.
var ErrShutdown = errors.New("scheduler is shutting down")

// ErrUnknownHandle is returned by query operations for a handle that
// does not name a live task.
var ErrUnknownHandle = errors.New("unknown task handle")
