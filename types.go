package taskfiber

import "github.com/taskfiber/taskfiber/core"

// Re-export commonly used types from core package for convenience.
// This allows users to import only the taskfiber package for most use cases.

// ExecFunc is the unit of scheduled work (Closure)
type ExecFunc = core.ExecFunc

// ExecContext is the scheduling facade handed to every task function
type ExecContext = core.ExecContext

// Handle identifies a submitted task
type Handle = core.Handle

// TaskState is the lifecycle state of a task
type TaskState = core.TaskState

// YieldKind is the reason a continuation paused
type YieldKind = core.YieldKind

// SchedulerConfig configures handlers, metrics, logging, and history
type SchedulerConfig = core.SchedulerConfig

// RetryPolicy defines backoff for ResumeWithRetry
type RetryPolicy = core.RetryPolicy

// Task state constants
const (
	TaskStateCreated   TaskState = core.TaskStateCreated
	TaskStateReady     TaskState = core.TaskStateReady
	TaskStateRunning   TaskState = core.TaskStateRunning
	TaskStateSleeping  TaskState = core.TaskStateSleeping
	TaskStateSuspended TaskState = core.TaskStateSuspended
	TaskStateFinished  TaskState = core.TaskStateFinished
)

// Yield outcome constants
const (
	YieldRequeue  YieldKind = core.YieldRequeue
	YieldSleep    YieldKind = core.YieldSleep
	YieldPark     YieldKind = core.YieldPark
	YieldAbandon  YieldKind = core.YieldAbandon
	YieldFinished YieldKind = core.YieldFinished
	YieldFailed   YieldKind = core.YieldFailed
)

// Errors
var (
	ErrNotSuspended  = core.ErrNotSuspended
	ErrShutdown      = core.ErrShutdown
	ErrUnknownHandle = core.ErrUnknownHandle
)

// Convenience constructors
var (
	DefaultSchedulerConfig = core.DefaultSchedulerConfig
	DefaultRetryPolicy     = core.DefaultRetryPolicy
	NoRetry                = core.NoRetry
	NewJSONSerializer      = core.NewJSONSerializer
	NewMsgpackSerializer   = core.NewMsgpackSerializer
)
