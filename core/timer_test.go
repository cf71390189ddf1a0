package core

import (
	"sync"
	"testing"
	"time"
)

// collectingRequeue records the order and time at which the timer loop
// hands tasks back.
type collectingRequeue struct {
	mu    sync.Mutex
	tasks []*Task
	times []time.Time
}

func (c *collectingRequeue) requeue(t *Task) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tasks = append(c.tasks, t)
	c.times = append(c.times, time.Now())
}

func (c *collectingRequeue) snapshot() []*Task {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*Task(nil), c.tasks...)
}

func TestTimerManager_WakesNoEarlierThanWakeTime(t *testing.T) {
	var sink collectingRequeue
	tm := NewTimerManager(sink.requeue)
	defer tm.Stop()

	task := newTask(func(ec *ExecContext) {})
	const delay = 50 * time.Millisecond

	start := time.Now()
	tm.AddSleeper(task, start.Add(delay))

	// Wait generously past the wake time.
	time.Sleep(150 * time.Millisecond)

	sink.mu.Lock()
	defer sink.mu.Unlock()
	if len(sink.tasks) != 1 {
		t.Fatalf("requeued %d tasks, want 1", len(sink.tasks))
	}
	if elapsed := sink.times[0].Sub(start); elapsed < delay {
		t.Errorf("task woke after %v, want >= %v", elapsed, delay)
	}
}

func TestTimerManager_WakesInWakeTimeOrder(t *testing.T) {
	var sink collectingRequeue
	tm := NewTimerManager(sink.requeue)
	defer tm.Stop()

	late := newTask(func(ec *ExecContext) {})
	early := newTask(func(ec *ExecContext) {})

	now := time.Now()
	// Insert the later sleeper first; the heap must still wake the
	// earlier one first.
	tm.AddSleeper(late, now.Add(60*time.Millisecond))
	tm.AddSleeper(early, now.Add(20*time.Millisecond))

	time.Sleep(150 * time.Millisecond)

	got := sink.snapshot()
	if len(got) != 2 {
		t.Fatalf("requeued %d tasks, want 2", len(got))
	}
	if got[0].Handle() != early.Handle() {
		t.Error("earlier wake time was not requeued first")
	}
	if got[1].Handle() != late.Handle() {
		t.Error("later wake time was not requeued second")
	}
}

func TestTimerManager_MaturedWakeTimeFiresImmediately(t *testing.T) {
	var sink collectingRequeue
	tm := NewTimerManager(sink.requeue)
	defer tm.Stop()

	// A wake time in the past (a zero-delay Wait lands here) must fire
	// right away, and must not block a sleeper queued behind it.
	first := newTask(func(ec *ExecContext) {})
	second := newTask(func(ec *ExecContext) {})

	now := time.Now()
	tm.AddSleeper(first, now)
	tm.AddSleeper(second, now.Add(30*time.Millisecond))

	deadline := time.Now().Add(500 * time.Millisecond)
	for len(sink.snapshot()) < 2 {
		if time.Now().After(deadline) {
			t.Fatalf("requeued %d tasks, want 2", len(sink.snapshot()))
		}
		time.Sleep(time.Millisecond)
	}

	got := sink.snapshot()
	if got[0].Handle() != first.Handle() {
		t.Error("matured sleeper was not requeued first")
	}
}

func TestTimerManager_SleeperCountCoversWakeHandOff(t *testing.T) {
	// A sleeper popped from the heap but still inside the requeue
	// callback must remain visible in SleeperCount, or a drain poll
	// could observe it nowhere.
	release := make(chan struct{})
	entered := make(chan struct{})

	tm := NewTimerManager(func(task *Task) {
		close(entered)
		<-release
	})
	defer tm.Stop()

	tm.AddSleeper(newTask(func(ec *ExecContext) {}), time.Now())

	<-entered
	if got := tm.SleeperCount(); got != 1 {
		t.Errorf("SleeperCount during hand-off = %d, want 1", got)
	}

	close(release)

	deadline := time.Now().Add(500 * time.Millisecond)
	for tm.SleeperCount() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("SleeperCount after hand-off = %d, want 0", tm.SleeperCount())
		}
		time.Sleep(time.Millisecond)
	}
}

func TestTimerManager_NextWake(t *testing.T) {
	var sink collectingRequeue
	tm := NewTimerManager(sink.requeue)
	defer tm.Stop()

	if _, ok := tm.NextWake(); ok {
		t.Error("NextWake on empty heap reported a wake time")
	}

	wakeAt := time.Now().Add(time.Hour)
	tm.AddSleeper(newTask(func(ec *ExecContext) {}), wakeAt)

	got, ok := tm.NextWake()
	if !ok {
		t.Fatal("NextWake reported no wake time")
	}
	if !got.Equal(wakeAt) {
		t.Errorf("NextWake = %v, want %v", got, wakeAt)
	}
	if tm.SleeperCount() != 1 {
		t.Errorf("SleeperCount = %d, want 1", tm.SleeperCount())
	}
}

func TestTimerManager_EarlierInsertMovesDeadlineForward(t *testing.T) {
	var sink collectingRequeue
	tm := NewTimerManager(sink.requeue)
	defer tm.Stop()

	now := time.Now()
	// The loop first arms itself for the hour-away sleeper; the
	// short one must still wake on time.
	tm.AddSleeper(newTask(func(ec *ExecContext) {}), now.Add(time.Hour))
	tm.AddSleeper(newTask(func(ec *ExecContext) {}), now.Add(30*time.Millisecond))

	time.Sleep(120 * time.Millisecond)

	if got := len(sink.snapshot()); got != 1 {
		t.Errorf("requeued %d tasks, want 1 (the short sleeper)", got)
	}
}

func TestTimerManager_StopDropsSleepers(t *testing.T) {
	var sink collectingRequeue
	tm := NewTimerManager(sink.requeue)

	tm.AddSleeper(newTask(func(ec *ExecContext) {}), time.Now().Add(20*time.Millisecond))
	tm.Stop()

	time.Sleep(80 * time.Millisecond)

	if got := len(sink.snapshot()); got != 0 {
		t.Errorf("requeued %d tasks after Stop, want 0", got)
	}
	if tm.SleeperCount() != 0 {
		t.Errorf("SleeperCount after Stop = %d, want 0", tm.SleeperCount())
	}
}
