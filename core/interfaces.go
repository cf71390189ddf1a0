package core

import (
	"fmt"
	"time"
)

// =============================================================================
// FailureHandler: Interface for handling task failures
// =============================================================================

// FailureHandler is called when a task function panics while running.
// The failure is isolated to the task: the worker survives, the
// scheduling structures stay intact, and the task is treated as
// finished abnormally.
//
// Implementations should be thread-safe as they may be called
// concurrently from multiple workers.
type FailureHandler interface {
	// HandleTaskFailure is called with the recovered panic value and
	// the stack trace of the failed continuation.
	//
	// Parameters:
	// - poolID: The ID of the pool whose worker observed the failure
	// - workerID: The ID of the worker that resumed the task
	// - handle: The handle of the failed task
	// - panicInfo: The panic value recovered from the task function
	// - stackTrace: The stack trace at the time of panic
	HandleTaskFailure(poolID string, workerID int, handle Handle, panicInfo any, stackTrace []byte)
}

// DefaultFailureHandler provides a basic failure handler that logs to stdout.
type DefaultFailureHandler struct{}

// HandleTaskFailure prints failure information to stdout.
func (h *DefaultFailureHandler) HandleTaskFailure(poolID string, workerID int, handle Handle, panicInfo any, stackTrace []byte) {
	fmt.Printf("[Worker %d @ %s] Task %s failed: %v\nStack trace:\n%s",
		workerID, poolID, handle, panicInfo, stackTrace)
}

// =============================================================================
// Metrics: Interface for observability and monitoring
// =============================================================================

// Metrics defines the interface for collecting scheduler metrics.
// Implementations can send metrics to monitoring systems (Prometheus,
// StatsD, etc.).
//
// Methods should be non-blocking and fast to avoid impacting the worker
// loop.
type Metrics interface {
	// RecordResume records one continuation resume: how long the task
	// held the worker and how it yielded.
	RecordResume(poolID string, outcome YieldKind, duration time.Duration)

	// RecordTaskFailure records that a task panicked during execution.
	RecordTaskFailure(poolID string, panicInfo any)

	// RecordQueueDepth records the current ready-queue depth. This can
	// be called periodically to track queue growth/shrinkage.
	RecordQueueDepth(poolID string, depth int)

	// RecordTaskRejected records that a submission or resume was
	// rejected (e.g., during shutdown).
	RecordTaskRejected(poolID string, reason string)
}

// NilMetrics provides a no-op metrics implementation that does nothing.
// This is the default when no metrics interface is provided.
type NilMetrics struct{}

// RecordResume is a no-op.
func (m *NilMetrics) RecordResume(poolID string, outcome YieldKind, duration time.Duration) {}

// RecordTaskFailure is a no-op.
func (m *NilMetrics) RecordTaskFailure(poolID string, panicInfo any) {}

// RecordQueueDepth is a no-op.
func (m *NilMetrics) RecordQueueDepth(poolID string, depth int) {}

// RecordTaskRejected is a no-op.
func (m *NilMetrics) RecordTaskRejected(poolID string, reason string) {}

// =============================================================================
// RejectedTaskHandler: Interface for handling rejected submissions
// =============================================================================

// RejectedTaskHandler is called when a submission or resume is rejected
// by the scheduler, which happens once shutdown has begun.
//
// Implementations should be thread-safe as they may be called
// concurrently.
type RejectedTaskHandler interface {
	// HandleRejectedTask is called when a task is rejected.
	HandleRejectedTask(poolID string, reason string)
}

// DefaultRejectedTaskHandler provides a basic handler that logs rejected tasks.
type DefaultRejectedTaskHandler struct{}

// HandleRejectedTask logs the rejected task.
func (h *DefaultRejectedTaskHandler) HandleRejectedTask(poolID string, reason string) {
	fmt.Printf("[Pool %s] Task rejected: %s\n", poolID, reason)
}

// =============================================================================
// SchedulerConfig: Configuration for Scheduler
// =============================================================================

// SchedulerConfig holds configuration options for Scheduler. All
// handlers are optional; if not provided, default implementations will
// be used.
type SchedulerConfig struct {
	// FailureHandler is called when a task panics. Defaults to DefaultFailureHandler.
	FailureHandler FailureHandler

	// Metrics is called to record scheduler metrics. Defaults to NilMetrics.
	Metrics Metrics

	// RejectedTaskHandler is called when a task is rejected. Defaults to DefaultRejectedTaskHandler.
	RejectedTaskHandler RejectedTaskHandler

	// Logger receives scheduler lifecycle events. Defaults to NoOpLogger.
	Logger Logger

	// HistoryCapacity bounds the execution-history ring buffer.
	// Defaults to defaultHistoryCapacity when zero.
	HistoryCapacity int
}

// DefaultSchedulerConfig returns a config with default handlers.
func DefaultSchedulerConfig() *SchedulerConfig {
	return &SchedulerConfig{
		FailureHandler:      &DefaultFailureHandler{},
		Metrics:             &NilMetrics{},
		RejectedTaskHandler: &DefaultRejectedTaskHandler{},
		Logger:              NewNoOpLogger(),
	}
}
