package core

import (
	"runtime"
	"runtime/debug"
	"time"
)

// =============================================================================
// Yield: the outcome a continuation hands back to its worker
// =============================================================================

type YieldKind int

const (
	// YieldRequeue: push the task back onto the ready queue.
	YieldRequeue YieldKind = iota

	// YieldSleep: insert the task into the timer heap keyed by WakeAt.
	YieldSleep

	// YieldPark: insert the task into the suspended registry.
	YieldPark

	// YieldAbandon: drop the task; its remaining statements never run.
	YieldAbandon

	// YieldFinished: the task function returned normally.
	YieldFinished

	// YieldFailed: the task function panicked; PanicValue and Stack
	// carry the recovered failure.
	YieldFailed
)

func (k YieldKind) String() string {
	switch k {
	case YieldRequeue:
		return "requeue"
	case YieldSleep:
		return "sleep"
	case YieldPark:
		return "park"
	case YieldAbandon:
		return "abandon"
	case YieldFinished:
		return "finished"
	case YieldFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Yield is the reason a continuation paused, plus the data the worker
// needs to act on it.
type Yield struct {
	Kind YieldKind

	// WakeAt is set for YieldSleep.
	WakeAt time.Time

	// PanicValue and Stack are set for YieldFailed.
	PanicValue any
	Stack      []byte
}

// =============================================================================
// Continuation
// =============================================================================

// Continuation is a suspendable execution unit backed by a dedicated
// goroutine and a pair of unbuffered handoff channels. The goroutine's
// stack is the task's stack; because goroutines migrate freely between
// OS threads, a continuation parked by one worker can be resumed by any
// other.
//
// The protocol is strict ping-pong: Resume hands control to the task
// goroutine and blocks until it yields; yield hands control back and
// blocks until the next Resume. At most one goroutine may call Resume
// at a time (the scheduler guarantees this through queue ownership).
type Continuation struct {
	entry  func()
	resume chan struct{}
	yields chan Yield

	// started and done are touched only by the single worker that
	// currently owns the task, so they need no synchronization beyond
	// the handoff the queues already provide.
	started bool
	done    bool
}

func newContinuation(entry func()) *Continuation {
	return &Continuation{
		entry:  entry,
		resume: make(chan struct{}),
		yields: make(chan Yield),
	}
}

// Resume runs the continuation until its next yield point and returns
// the yield outcome. The first call starts the entry function from the
// top; later calls continue execution exactly after the previous
// suspension point, with all local state intact.
//
// Resuming a finished continuation is a broken state machine and
// panics.
func (c *Continuation) Resume() Yield {
	if c.done {
		panic("core: resume of a finished continuation")
	}

	if !c.started {
		c.started = true
		go c.body()
	} else {
		c.resume <- struct{}{}
	}

	y := <-c.yields
	switch y.Kind {
	case YieldAbandon, YieldFinished, YieldFailed:
		c.done = true
	}
	return y
}

// Done reports whether the continuation has reached a terminal outcome.
func (c *Continuation) Done() bool {
	return c.done
}

// body hosts the entry function on its own goroutine. A panic in the
// user function is recovered here and surfaced as YieldFailed so the
// worker loop stays alive. runtime.Goexit (the abandon path) leaves
// recover() nil, and the abandon outcome has already been delivered.
func (c *Continuation) body() {
	defer func() {
		if r := recover(); r != nil {
			c.yields <- Yield{Kind: YieldFailed, PanicValue: r, Stack: debug.Stack()}
		}
	}()

	c.entry()
	c.yields <- Yield{Kind: YieldFinished}
}

// yield pauses the task goroutine until the next Resume.
func (c *Continuation) yield(y Yield) {
	c.yields <- y
	<-c.resume
}

// abandonSelf reports the abandon outcome, then unwinds the task
// goroutine. Deferred functions in the task body still run; no
// statement after the yield point ever does.
func (c *Continuation) abandonSelf() {
	c.yields <- Yield{Kind: YieldAbandon}
	runtime.Goexit()
}
