package core

import (
	"strings"
	"testing"
)

// TestContinuation_StartAndFinish verifies the simplest lifecycle
// Given: A continuation whose entry function runs straight through
// When: Resume is called once
// Then: The function has run and the outcome is YieldFinished
func TestContinuation_StartAndFinish(t *testing.T) {
	ran := false
	c := newContinuation(func() {
		ran = true
	})

	y := c.Resume()

	if !ran {
		t.Error("entry function did not run")
	}
	if y.Kind != YieldFinished {
		t.Errorf("outcome = %v, want finished", y.Kind)
	}
	if !c.Done() {
		t.Error("Done() = false after finish, want true")
	}
}

// TestContinuation_YieldPreservesLocalState verifies suspend/resume mechanics
// Given: An entry function that yields between two increments of a local
// When: Resume is called twice
// Then: Execution continues exactly after the yield with the local intact
func TestContinuation_YieldPreservesLocalState(t *testing.T) {
	var c *Continuation
	count := 0
	c = newContinuation(func() {
		count++
		c.yield(Yield{Kind: YieldRequeue})
		count++
	})

	y := c.Resume()
	if y.Kind != YieldRequeue {
		t.Fatalf("first outcome = %v, want requeue", y.Kind)
	}
	if count != 1 {
		t.Fatalf("count after first resume = %d, want 1", count)
	}

	y = c.Resume()
	if y.Kind != YieldFinished {
		t.Fatalf("second outcome = %v, want finished", y.Kind)
	}
	if count != 2 {
		t.Errorf("count after second resume = %d, want 2", count)
	}
}

// TestContinuation_AbandonSkipsRemainder verifies the abandon path
// Given: An entry function that abandons itself between two increments
// When: Resume is called
// Then: The outcome is YieldAbandon and the second increment never runs
func TestContinuation_AbandonSkipsRemainder(t *testing.T) {
	var c *Continuation
	count := 0
	c = newContinuation(func() {
		count++
		c.abandonSelf()
		count++ // must never run
	})

	y := c.Resume()

	if y.Kind != YieldAbandon {
		t.Fatalf("outcome = %v, want abandon", y.Kind)
	}
	if count != 1 {
		t.Errorf("count = %d, want 1 (remainder skipped)", count)
	}
	if !c.Done() {
		t.Error("Done() = false after abandon, want true")
	}
}

// TestContinuation_PanicBecomesFailure verifies panic isolation
// Given: An entry function that panics
// When: Resume is called
// Then: The outcome is YieldFailed carrying the panic value and a stack
func TestContinuation_PanicBecomesFailure(t *testing.T) {
	c := newContinuation(func() {
		panic("boom")
	})

	y := c.Resume()

	if y.Kind != YieldFailed {
		t.Fatalf("outcome = %v, want failed", y.Kind)
	}
	if y.PanicValue != "boom" {
		t.Errorf("panic value = %v, want boom", y.PanicValue)
	}
	if !strings.Contains(string(y.Stack), "goroutine") {
		t.Error("stack trace missing from failure outcome")
	}
}

// TestContinuation_ResumeAfterFinishedPanics verifies the state machine guard
// Given: A finished continuation
// When: Resume is called again
// Then: It panics (programming error, not recoverable)
func TestContinuation_ResumeAfterFinishedPanics(t *testing.T) {
	c := newContinuation(func() {})
	c.Resume()

	defer func() {
		if recover() == nil {
			t.Error("resume of a finished continuation did not panic")
		}
	}()
	c.Resume()
}

// TestContinuation_ManyYields verifies the ping-pong protocol holds up
// Given: An entry function that yields many times
// When: Resumed to completion
// Then: Every iteration runs exactly once, in order
func TestContinuation_ManyYields(t *testing.T) {
	const rounds = 100

	var c *Continuation
	var seen []int
	c = newContinuation(func() {
		for i := 0; i < rounds; i++ {
			seen = append(seen, i)
			c.yield(Yield{Kind: YieldRequeue})
		}
	})

	resumes := 0
	for {
		y := c.Resume()
		resumes++
		if y.Kind == YieldFinished {
			break
		}
	}

	if resumes != rounds+1 {
		t.Errorf("resumes = %d, want %d", resumes, rounds+1)
	}
	if len(seen) != rounds {
		t.Fatalf("iterations = %d, want %d", len(seen), rounds)
	}
	for i, v := range seen {
		if v != i {
			t.Fatalf("iteration %d recorded %d", i, v)
		}
	}
}
