package core

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// Scheduler owns the shared scheduling structures: the ready queue, the
// timer heap, the suspended registry, and an index of all live tasks.
// Workers drive it through GetWork and RunOnce; the pool drives
// submission, external resume, and shutdown. There are no process-wide
// singletons: independent schedulers coexist freely, which the tests
// rely on.
type Scheduler struct {
	poolID      string
	ready       *ReadyQueue
	signal      chan struct{}
	workerCount int

	timers *TimerManager
	parked *SuspendedRegistry

	// live indexes every non-finished task by handle, for deadline and
	// state queries that must work regardless of which structure
	// currently owns the task.
	live sync.Map // map[Handle]*Task

	metricQueued int32 // Waiting in ready queue
	metricActive int32 // Mid-resume on a worker

	// Handlers and Metrics
	failureHandler      FailureHandler
	metrics             Metrics
	rejectedTaskHandler RejectedTaskHandler
	logger              Logger

	history executionHistory

	// Lifecycle
	shuttingDown int32 // atomic flag
}

func NewScheduler(poolID string, workerCount int) *Scheduler {
	return NewSchedulerWithConfig(poolID, workerCount, DefaultSchedulerConfig())
}

func NewSchedulerWithConfig(poolID string, workerCount int, config *SchedulerConfig) *Scheduler {
	s := &Scheduler{
		poolID:      poolID,
		ready:       NewReadyQueue(),
		signal:      make(chan struct{}, workerCount*2),
		workerCount: workerCount,
		parked:      NewSuspendedRegistry(),
	}
	s.timers = NewTimerManager(s.requeue)

	// Apply config
	if config != nil {
		s.failureHandler = config.FailureHandler
		s.metrics = config.Metrics
		s.rejectedTaskHandler = config.RejectedTaskHandler
		s.logger = config.Logger
		s.history = newExecutionHistory(config.HistoryCapacity)
	} else {
		s.history = newExecutionHistory(0)
	}

	// Use defaults if not provided
	if s.failureHandler == nil {
		s.failureHandler = &DefaultFailureHandler{}
	}
	if s.metrics == nil {
		s.metrics = &NilMetrics{}
	}
	if s.rejectedTaskHandler == nil {
		s.rejectedTaskHandler = &DefaultRejectedTaskHandler{}
	}
	if s.logger == nil {
		s.logger = NewNoOpLogger()
	}

	return s
}

// =============================================================================
// Submission and external resume
// =============================================================================

// Submit wraps fn in a task, pushes it onto the ready queue, and
// returns its handle. After shutdown has begun it rejects with
// ErrShutdown.
func (s *Scheduler) Submit(fn ExecFunc) (Handle, error) {
	if atomic.LoadInt32(&s.shuttingDown) == 1 {
		s.rejectedTaskHandler.HandleRejectedTask(s.poolID, "shutting down")
		s.metrics.RecordTaskRejected(s.poolID, "shutting down")
		return "", ErrShutdown
	}

	t := newTask(fn)
	s.live.Store(t.handle, t)
	s.requeue(t)

	s.logger.Debug("task submitted", F("handle", t.handle))
	return t.handle, nil
}

// Resume takes the task parked under handle out of the suspended
// registry and re-queues it; it continues exactly after its Suspend
// call. A handle that is not currently parked fails with
// ErrNotSuspended without blocking: callers racing a task that has not
// reached Suspend yet are expected to retry on that error.
func (s *Scheduler) Resume(handle Handle) error {
	if atomic.LoadInt32(&s.shuttingDown) == 1 {
		s.rejectedTaskHandler.HandleRejectedTask(s.poolID, "shutting down")
		s.metrics.RecordTaskRejected(s.poolID, "shutting down")
		return ErrShutdown
	}

	t, ok := s.parked.Take(handle)
	if !ok {
		return fmt.Errorf("resume %s: %w", handle, ErrNotSuspended)
	}

	s.requeue(t)
	return nil
}

// requeue pushes a task onto the ready-queue tail and wakes a worker.
// It is the internal path shared by Submit, the timer loop, Resume, and
// the Resched outcome; it deliberately bypasses the shutdown gate so
// in-flight tasks keep making progress while a drain is underway.
func (s *Scheduler) requeue(t *Task) {
	t.setState(TaskStateReady)
	s.ready.Push(t)
	depth := atomic.AddInt32(&s.metricQueued, 1) // Metric++
	s.metrics.RecordQueueDepth(s.poolID, int(depth))

	select {
	case s.signal <- struct{}{}:
	default:
		// Signal channel full, but task is already queued
		// This is not an error, just a optimization hint
	}
}

// =============================================================================
// Worker side
// =============================================================================

// GetWork blocks until a task is ready or stopCh fires. The returned
// task is owned by the calling worker until RunOnce hands it off again.
func (s *Scheduler) GetWork(stopCh <-chan struct{}) (*Task, bool) {
	for {
		if t, ok := s.ready.Pop(); ok {
			// Count the task as active before it leaves the queued
			// metric so a drain poll never sees it in neither.
			atomic.AddInt32(&s.metricActive, 1)
			depth := atomic.AddInt32(&s.metricQueued, -1)
			s.metrics.RecordQueueDepth(s.poolID, int(depth))
			return t, true
		}

		select {
		case <-s.signal:
			continue
		case <-stopCh:
			return nil, false
		}
	}
}

// RunOnce resumes the task until its next yield point and applies the
// outcome to the scheduling structures. Exactly one of the structures
// owns the task again by the time RunOnce returns.
func (s *Scheduler) RunOnce(t *Task, workerID int) YieldKind {
	t.resumes.Add(1)
	t.setState(TaskStateRunning)

	start := time.Now()
	y := t.cont.Resume()
	duration := time.Since(start)

	switch y.Kind {
	case YieldRequeue:
		s.requeue(t)
	case YieldSleep:
		t.setState(TaskStateSleeping)
		s.timers.AddSleeper(t, y.WakeAt)
	case YieldPark:
		t.setState(TaskStateSuspended)
		s.parked.Park(t)
	case YieldAbandon, YieldFinished:
		s.finish(t, y)
	case YieldFailed:
		s.failureHandler.HandleTaskFailure(s.poolID, workerID, t.handle, y.PanicValue, y.Stack)
		s.metrics.RecordTaskFailure(s.poolID, y.PanicValue)
		s.finish(t, y)
	}

	s.metrics.RecordResume(s.poolID, y.Kind, duration)
	atomic.AddInt32(&s.metricActive, -1)
	return y.Kind
}

// finish retires a task: records it in the history and drops it from
// the live index. No further resumption is possible.
func (s *Scheduler) finish(t *Task, y Yield) {
	t.setState(TaskStateFinished)
	now := time.Now()
	s.history.Add(TaskExecutionRecord{
		Handle:      t.handle,
		PoolID:      s.poolID,
		Outcome:     y.Kind.String(),
		Resumes:     t.ResumeCount(),
		SubmittedAt: t.submittedAt,
		FinishedAt:  now,
		Lifetime:    now.Sub(t.submittedAt),
		Failed:      y.Kind == YieldFailed,
	})
	s.live.Delete(t.handle)
}

// =============================================================================
// Queries
// =============================================================================

// TaskState reports the lifecycle state of a live task.
func (s *Scheduler) TaskState(handle Handle) (TaskState, error) {
	v, ok := s.live.Load(handle)
	if !ok {
		return TaskStateFinished, fmt.Errorf("state of %s: %w", handle, ErrUnknownHandle)
	}
	return v.(*Task).State(), nil
}

// Deadline reports the deadline a live task recorded via SetTimeout.
func (s *Scheduler) Deadline(handle Handle) (time.Time, bool, error) {
	v, ok := s.live.Load(handle)
	if !ok {
		return time.Time{}, false, fmt.Errorf("deadline of %s: %w", handle, ErrUnknownHandle)
	}
	at, set := v.(*Task).Deadline()
	return at, set, nil
}

// NextWake reports the earliest wake time among sleeping tasks.
func (s *Scheduler) NextWake() (time.Time, bool) {
	return s.timers.NextWake()
}

// RecentRecords returns up to limit finished-task records, most recent
// first.
func (s *Scheduler) RecentRecords(limit int) []TaskExecutionRecord {
	return s.history.Recent(limit)
}

// ExportRecentRecords encodes the recent history with the given
// serializer.
func (s *Scheduler) ExportRecentRecords(ser RecordSerializer, limit int) ([]byte, error) {
	records := s.history.Recent(limit)
	data, err := ser.Serialize(records)
	if err != nil {
		return nil, fmt.Errorf("export history (%s): %w", ser.Name(), err)
	}
	return data, nil
}

// Metrics
func (s *Scheduler) WorkerCount() int     { return s.workerCount }
func (s *Scheduler) QueuedTaskCount() int { return int(atomic.LoadInt32(&s.metricQueued)) }
func (s *Scheduler) ActiveTaskCount() int { return int(atomic.LoadInt32(&s.metricActive)) }
func (s *Scheduler) SleepingTaskCount() int {
	return s.timers.SleeperCount()
}
func (s *Scheduler) SuspendedTaskCount() int {
	return s.parked.Len()
}

// Stats returns a point-in-time snapshot of the scheduling structures.
func (s *Scheduler) Stats() SchedulerStats {
	return SchedulerStats{
		Queued:    s.QueuedTaskCount(),
		Active:    s.ActiveTaskCount(),
		Sleeping:  s.SleepingTaskCount(),
		Suspended: s.SuspendedTaskCount(),
	}
}

// GetFailureHandler returns the failure handler for this scheduler
func (s *Scheduler) GetFailureHandler() FailureHandler {
	return s.failureHandler
}

// GetMetrics returns the metrics collector for this scheduler
func (s *Scheduler) GetMetrics() Metrics {
	return s.metrics
}

// =============================================================================
// Shutdown
// =============================================================================

// BeginShutdown closes the scheduler to new Submit and Resume calls.
// Tasks already inside (queued, sleeping, or mid-resume) keep running
// to completion; tasks in the suspended registry stay parked, since the
// only thing that could wake them is now rejected.
func (s *Scheduler) BeginShutdown() {
	atomic.StoreInt32(&s.shuttingDown, 1)
}

// AwaitDrain blocks until the ready queue and the timer heap are empty
// and no continuation is mid-resume. With timeout <= 0 it waits
// indefinitely. On timeout the remaining queues are force-cleared and
// an error is returned.
func (s *Scheduler) AwaitDrain(timeout time.Duration) error {
	var deadline <-chan time.Time
	if timeout > 0 {
		deadline = time.After(timeout)
	}

	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-deadline:
			s.ready.Clear()
			s.timers.Stop()
			return fmt.Errorf("drain timeout after %v, forced clearing", timeout)
		case <-ticker.C:
			if s.QueuedTaskCount() == 0 && s.ActiveTaskCount() == 0 && s.SleepingTaskCount() == 0 {
				return nil
			}
		}
	}
}

// Shutdown stops the timer loop and clears the ready queue, releasing
// all task references. Call after AwaitDrain for a graceful stop, or
// directly for an immediate one.
func (s *Scheduler) Shutdown() {
	atomic.StoreInt32(&s.shuttingDown, 1)
	s.timers.Stop()
	s.ready.Clear()

	s.logger.Info("scheduler shut down",
		F("pool", s.poolID),
		F("suspended", s.SuspendedTaskCount()))
}
