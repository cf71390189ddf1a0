package core

import (
	"fmt"
	"testing"
)

func TestExecutionHistory_NewestFirst(t *testing.T) {
	h := newExecutionHistory(10)

	for i := 0; i < 5; i++ {
		h.Add(TaskExecutionRecord{PoolID: fmt.Sprintf("r%d", i)})
	}

	recent := h.Recent(3)
	if len(recent) != 3 {
		t.Fatalf("Recent(3) returned %d records", len(recent))
	}
	for i, want := range []string{"r4", "r3", "r2"} {
		if recent[i].PoolID != want {
			t.Errorf("recent[%d] = %s, want %s", i, recent[i].PoolID, want)
		}
	}
}

func TestExecutionHistory_WrapsAtCapacity(t *testing.T) {
	h := newExecutionHistory(3)

	for i := 0; i < 7; i++ {
		h.Add(TaskExecutionRecord{PoolID: fmt.Sprintf("r%d", i)})
	}

	if h.Count() != 3 {
		t.Errorf("Count = %d, want 3", h.Count())
	}

	recent := h.Recent(0)
	if len(recent) != 3 {
		t.Fatalf("Recent(0) returned %d records", len(recent))
	}
	// Only the last three survive, newest first.
	for i, want := range []string{"r6", "r5", "r4"} {
		if recent[i].PoolID != want {
			t.Errorf("recent[%d] = %s, want %s", i, recent[i].PoolID, want)
		}
	}
}

func TestExecutionHistory_Empty(t *testing.T) {
	h := newExecutionHistory(4)
	if got := h.Recent(0); got != nil {
		t.Errorf("Recent on empty history = %v, want nil", got)
	}
}

func TestExecutionHistory_DefaultCapacity(t *testing.T) {
	h := newExecutionHistory(0)
	for i := 0; i < defaultHistoryCapacity+10; i++ {
		h.Add(TaskExecutionRecord{})
	}
	if h.Count() != defaultHistoryCapacity {
		t.Errorf("Count = %d, want %d", h.Count(), defaultHistoryCapacity)
	}
}
