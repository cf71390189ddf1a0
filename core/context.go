package core

import (
	"time"
)

// ExecContext is the scheduling facade handed to every task function.
// All of its operations must be called from inside the task function on
// the task's own continuation; they are the task's only suspension
// points.
type ExecContext struct {
	task *Task
}

// Handle returns the handle of the running task. A task that intends to
// Suspend typically publishes this handle somewhere an external caller
// can find it before parking.
func (ec *ExecContext) Handle() Handle {
	return ec.task.handle
}

// Wait pauses the task for at least d of wall-clock time without
// occupying a worker. The continuation yields into the timer heap and
// is resumed, on any worker, no earlier than d after the call; under
// load it may be later.
func (ec *ExecContext) Wait(d time.Duration) {
	if d < 0 {
		d = 0
	}
	wakeAt := time.Now().Add(d)
	ec.task.setWakeAt(wakeAt)
	ec.task.cont.yield(Yield{Kind: YieldSleep, WakeAt: wakeAt})
	ec.task.clearWakeAt()
}

// WaitMillis is Wait with a millisecond count.
func (ec *ExecContext) WaitMillis(ms int64) {
	ec.Wait(time.Duration(ms) * time.Millisecond)
}

// SetTimeout records a deadline on the task, independent of its
// suspension state. The deadline is stored and exposed (see Deadline
// and Pool.Deadline); it does not force a sleeping or parked task
// awake.
func (ec *ExecContext) SetTimeout(d time.Duration) {
	ec.task.setDeadline(time.Now().Add(d))
}

// SetTimeoutMillis is SetTimeout with a millisecond count.
func (ec *ExecContext) SetTimeoutMillis(ms int64) {
	ec.SetTimeout(time.Duration(ms) * time.Millisecond)
}

// Deadline reports the deadline recorded by SetTimeout, if any.
func (ec *ExecContext) Deadline() (time.Time, bool) {
	return ec.task.Deadline()
}

// Resched voluntarily relinquishes the worker.
//
// With continueAfter true the task goes to the tail of the ready queue
// and the statements after the call run exactly once more, after any
// task already queued got its turn. With continueAfter false the task
// is dropped on the spot: the statements after the call never execute
// (deferred functions in the task body still run).
func (ec *ExecContext) Resched(continueAfter bool) {
	if !continueAfter {
		ec.task.cont.abandonSelf()
		return // unreachable
	}
	ec.task.cont.yield(Yield{Kind: YieldRequeue})
}

// Yield is shorthand for Resched(true).
func (ec *ExecContext) Yield() {
	ec.Resched(true)
}

// Suspend parks the task in the suspended registry under its handle.
// The task does not progress past this point until an external caller
// invokes Pool.Resume with the same handle; execution then continues
// exactly at the statement following Suspend.
func (ec *ExecContext) Suspend() {
	ec.task.cont.yield(Yield{Kind: YieldPark})
}
