// Package taskfiber provides a cooperative M:N task scheduler for Go:
// a fixed-size pool of workers running suspendable tasks that pause at
// explicit points and resume exactly where they left off.
//
// # Quick Start
//
// Create and start a pool, then submit tasks:
//
//	pool := taskfiber.NewPool("my-pool", 4)
//	pool.Start(context.Background())
//	defer pool.Terminate()
//
//	handle, _ := pool.Run(func(ec *taskfiber.ExecContext) {
//		ec.WaitMillis(100) // sleeps without occupying a worker
//		// resumes here, possibly on a different worker
//	})
//
// # Key Concepts
//
// ExecContext: passed into every task function; its operations (Wait,
// Resched, Suspend, SetTimeout) are the task's only suspension points.
// Between them the function runs without preemption and holds its
// worker.
//
// Continuation: each task runs on its own goroutine, paused and resumed
// through channel handoff. Resuming continues at the exact statement
// after the suspension point with all local state intact, and may
// happen on any worker.
//
// Suspend/Resume: a task that calls ec.Suspend() parks under its handle
// until some external caller invokes pool.Resume(handle). A Resume that
// arrives before the task has parked fails with ErrNotSuspended; retry
// it, or use ResumeWithRetry.
//
// # Shutdown
//
// Terminate rejects further Run/Resume calls, waits for queued and
// sleeping tasks to finish, then stops the workers. Tasks parked by
// Suspend are excluded: the pool cannot force-terminate them, and a
// task that is never resumed stays parked forever.
//
// # Observability
//
// Pools expose queue/active/sleeping/suspended counters, a
// finished-task history ring, and a Metrics interface with a Prometheus
// adapter in observability/prometheus.
package taskfiber
