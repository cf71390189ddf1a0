package taskfiber

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/taskfiber/taskfiber/core"
)

// Pool owns a fixed set of worker goroutines and the scheduling
// structures they share. Workers pull runnable tasks from the
// scheduler, resume their continuations, and react to how the
// continuation yielded; at most one continuation executes per worker at
// any instant, and a task holds its worker until it yields or finishes.
type Pool struct {
	id        string
	workers   int
	scheduler *core.Scheduler
	wg        sync.WaitGroup
	ctx       context.Context
	cancel    context.CancelFunc
	running   bool
	runningMu sync.RWMutex
}

// NewPool creates a pool with the given worker count. Call Start before
// submitting work.
func NewPool(id string, workers int) *Pool {
	return NewPoolWithConfig(id, workers, core.DefaultSchedulerConfig())
}

// NewPoolWithConfig creates a pool with custom handlers, metrics, and
// logging.
func NewPoolWithConfig(id string, workers int, config *core.SchedulerConfig) *Pool {
	if workers < 1 {
		workers = 1
	}
	return &Pool{
		id:        id,
		workers:   workers,
		scheduler: core.NewSchedulerWithConfig(id, workers, config),
	}
}

// Start launches the worker goroutines.
func (p *Pool) Start(ctx context.Context) {
	p.runningMu.Lock()
	defer p.runningMu.Unlock()

	if p.running {
		return // Already running
	}

	p.ctx, p.cancel = context.WithCancel(ctx)
	p.running = true

	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.workerLoop(i, p.ctx)
	}
}

// Run wraps fn in a task, queues it, and returns the handle an external
// caller can later pass to Resume. Rejected with ErrShutdown once
// Terminate has begun.
func (p *Pool) Run(fn ExecFunc) (Handle, error) {
	return p.scheduler.Submit(fn)
}

// Resume wakes the task parked under handle by a Suspend call.
// If the task has not reached Suspend yet the call fails with
// ErrNotSuspended and the caller should retry; a second Resume for the
// same park also fails, since the take is idempotent-once.
func (p *Pool) Resume(handle Handle) error {
	return p.scheduler.Resume(handle)
}

// ResumeWithRetry retries Resume under the given backoff policy for as
// long as it keeps failing with ErrNotSuspended. This is the documented
// answer to the race between Resume and a task still on its way to
// Suspend.
func (p *Pool) ResumeWithRetry(handle Handle, policy core.RetryPolicy) error {
	err := p.Resume(handle)
	for attempt := 0; attempt < policy.MaxRetries && errors.Is(err, core.ErrNotSuspended); attempt++ {
		time.Sleep(policy.Delay(attempt))
		err = p.Resume(handle)
	}
	return err
}

// Terminate rejects new Run and Resume calls, waits until every
// submitted task has finished or parked itself in the suspended
// registry, then stops the workers. A task left suspended stays
// suspended forever; the pool cannot force-terminate it.
func (p *Pool) Terminate() {
	_ = p.terminate(0)
}

// TerminateTimeout is Terminate with an upper bound on the drain wait.
// On timeout the remaining queues are force-cleared and an error is
// returned; workers are stopped either way.
func (p *Pool) TerminateTimeout(timeout time.Duration) error {
	return p.terminate(timeout)
}

func (p *Pool) terminate(timeout time.Duration) error {
	p.runningMu.Lock()
	if !p.running {
		p.runningMu.Unlock()
		// Never started: still clean up the timer loop and queue.
		p.scheduler.Shutdown()
		return nil
	}
	p.runningMu.Unlock()

	p.scheduler.BeginShutdown()
	drainErr := p.scheduler.AwaitDrain(timeout)

	if p.cancel != nil {
		p.cancel()
	}
	p.Join()
	p.scheduler.Shutdown()

	p.runningMu.Lock()
	p.running = false
	p.runningMu.Unlock()

	return drainErr
}

// Stop shuts the pool down immediately: queued and sleeping tasks are
// dropped, only the task currently on each worker finishes its resume.
func (p *Pool) Stop() {
	// Always shut the scheduler down to release queue and timer
	// resources, even if the pool was never started.
	p.scheduler.Shutdown()

	p.runningMu.Lock()
	if !p.running {
		p.runningMu.Unlock()
		return
	}
	p.runningMu.Unlock()

	if p.cancel != nil {
		p.cancel()
	}
	p.Join()

	p.runningMu.Lock()
	p.running = false
	p.runningMu.Unlock()
}

// workerLoop is the main loop for each worker: dequeue a runnable task,
// resume its continuation, let the scheduler apply the yield outcome.
// Task failures are contained inside RunOnce; the loop itself only ends
// on shutdown.
func (p *Pool) workerLoop(id int, ctx context.Context) {
	defer p.wg.Done()
	stopCh := ctx.Done()

	for {
		task, ok := p.scheduler.GetWork(stopCh)
		if !ok {
			// Scheduler drained or context canceled
			return
		}

		p.scheduler.RunOnce(task, id)
	}
}

// Join waits for all worker goroutines to finish
func (p *Pool) Join() {
	p.wg.Wait()
}

// ID returns the ID of the pool
func (p *Pool) ID() string {
	return p.id
}

// IsRunning returns whether the pool is running
func (p *Pool) IsRunning() bool {
	p.runningMu.RLock()
	defer p.runningMu.RUnlock()
	return p.running
}

// WorkerCount returns the number of workers
func (p *Pool) WorkerCount() int {
	return p.workers
}

func (p *Pool) QueuedTaskCount() int {
	return p.scheduler.QueuedTaskCount()
}

func (p *Pool) ActiveTaskCount() int {
	return p.scheduler.ActiveTaskCount()
}

func (p *Pool) SleepingTaskCount() int {
	return p.scheduler.SleepingTaskCount()
}

func (p *Pool) SuspendedTaskCount() int {
	return p.scheduler.SuspendedTaskCount()
}

// TaskState reports the lifecycle state of a live task.
func (p *Pool) TaskState(handle Handle) (core.TaskState, error) {
	return p.scheduler.TaskState(handle)
}

// Deadline reports the deadline a task recorded via SetTimeout, if any.
func (p *Pool) Deadline(handle Handle) (time.Time, bool, error) {
	return p.scheduler.Deadline(handle)
}

// RecentRecords returns up to limit finished-task records, most recent
// first.
func (p *Pool) RecentRecords(limit int) []core.TaskExecutionRecord {
	return p.scheduler.RecentRecords(limit)
}

// ExportRecentRecords encodes the recent history with the given
// serializer.
func (p *Pool) ExportRecentRecords(ser core.RecordSerializer, limit int) ([]byte, error) {
	return p.scheduler.ExportRecentRecords(ser, limit)
}

// Stats returns a point-in-time snapshot for observability exporters.
func (p *Pool) Stats() core.PoolStats {
	s := p.scheduler.Stats()
	return core.PoolStats{
		ID:        p.id,
		Workers:   p.workers,
		Queued:    s.Queued,
		Active:    s.Active,
		Sleeping:  s.Sleeping,
		Suspended: s.Suspended,
		Running:   p.IsRunning(),
	}
}

// =============================================================================
// Global Pool Helper (Singleton)
// =============================================================================

var (
	globalPool *Pool
	globalMu   sync.Mutex
)

// InitGlobalPool initializes the global pool with the specified number
// of workers and starts it immediately.
func InitGlobalPool(workers int) {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalPool != nil {
		return // Already initialized
	}

	globalPool = NewPool("global-pool", workers)
	globalPool.Start(context.Background())
}

// GetGlobalPool returns the global pool instance.
// It panics if InitGlobalPool has not been called.
func GetGlobalPool() *Pool {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalPool == nil {
		panic("global pool not initialized. Call InitGlobalPool() first.")
	}
	return globalPool
}

// ShutdownGlobalPool terminates the global pool gracefully.
func ShutdownGlobalPool() {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalPool != nil {
		globalPool.Terminate()
		globalPool = nil
	}
}
