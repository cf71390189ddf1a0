package core

import (
	"container/heap"
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// sleeper is a task waiting in the timer heap for its wake time.
type sleeper struct {
	wakeAt time.Time
	task   *Task
	index  int // for heap interface
}

// sleeperHeap implements heap.Interface ordered by ascending wake time.
type sleeperHeap []*sleeper

func (h sleeperHeap) Len() int           { return len(h) }
func (h sleeperHeap) Less(i, j int) bool { return h[i].wakeAt.Before(h[j].wakeAt) }
func (h sleeperHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *sleeperHeap) Push(x any) {
	n := len(*h)
	item := x.(*sleeper)
	item.index = n
	*h = append(*h, item)
}

func (h *sleeperHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil // avoid memory leak
	item.index = -1
	*h = old[0 : n-1]
	return item
}

func (h *sleeperHeap) Peek() *sleeper {
	if len(*h) == 0 {
		return nil
	}
	return (*h)[0]
}

// TimerManager is the wake-time-ordered structure behind Wait. Its loop
// sleeps until the earliest wake time, then hands every matured sleeper
// to the requeue callback, which pushes it onto the ready queue where
// any worker may pick it up. A task therefore resumes no earlier than
// its wake time, and possibly later under load.
type TimerManager struct {
	pq      sleeperHeap
	mu      sync.Mutex
	wakeup  chan struct{}
	requeue func(*Task)
	ctx     context.Context
	cancel  context.CancelFunc

	// waking counts sleepers popped from the heap but not yet handed to
	// requeue. SleeperCount includes it so a task in that window is
	// never invisible to drain polls.
	waking atomic.Int32
}

// NewTimerManager starts the timer loop. Matured tasks are handed to
// requeue, which must not block.
func NewTimerManager(requeue func(*Task)) *TimerManager {
	ctx, cancel := context.WithCancel(context.Background())
	tm := &TimerManager{
		pq:      make(sleeperHeap, 0),
		wakeup:  make(chan struct{}, 1),
		requeue: requeue,
		ctx:     ctx,
		cancel:  cancel,
	}
	heap.Init(&tm.pq)
	go tm.loop()
	return tm
}

// AddSleeper inserts a task keyed by its wake time.
func (tm *TimerManager) AddSleeper(task *Task, wakeAt time.Time) {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	item := &sleeper{
		wakeAt: wakeAt,
		task:   task,
	}
	heap.Push(&tm.pq, item)

	// A new earliest entry moves the loop's deadline forward.
	if item.index == 0 {
		select {
		case tm.wakeup <- struct{}{}:
		default:
		}
	}
}

func (tm *TimerManager) loop() {
	timer := time.NewTimer(time.Hour)
	timer.Stop()

	for {
		nextRun, hasSleeper := tm.calculateNextRun()
		if hasSleeper && nextRun <= 0 {
			// The head has already matured; a zero-delay Wait lands
			// here. Wake it now rather than arming the timer.
			tm.wakeExpired()
			continue
		}
		if !hasSleeper {
			// No sleepers, wait for the next AddSleeper.
			nextRun = 1000 * time.Hour
		}

		timer.Reset(nextRun)

		select {
		case <-tm.ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			tm.wakeExpired()
		case <-tm.wakeup:
			// New earliest entry, recalculate the deadline.
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
		}
	}
}

// calculateNextRun determines how long to wait until the earliest
// sleeper matures. The second return distinguishes an empty heap from a
// head that has already matured (duration <= 0).
func (tm *TimerManager) calculateNextRun() (time.Duration, bool) {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	item := tm.pq.Peek()
	if item == nil {
		return 0, false
	}
	return time.Until(item.wakeAt), true
}

// wakeExpired pops every sleeper whose wake time has elapsed and
// re-queues it, in wake-time order.
func (tm *TimerManager) wakeExpired() {
	tm.mu.Lock()

	now := time.Now()
	// Collect matured sleepers first so requeue runs outside the lock.
	var expired []*sleeper

	for tm.pq.Len() > 0 {
		item := tm.pq.Peek()
		if item.wakeAt.After(now) {
			break
		}
		heap.Pop(&tm.pq)
		expired = append(expired, item)
	}

	// Count the popped sleepers as waking before releasing the lock:
	// until requeue has run they are in neither the heap nor the ready
	// queue.
	tm.waking.Add(int32(len(expired)))
	tm.mu.Unlock()

	for _, item := range expired {
		tm.requeue(item.task)
		tm.waking.Add(-1)
	}
}

// NextWake reports the earliest wake time among current sleepers.
func (tm *TimerManager) NextWake() (time.Time, bool) {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	item := tm.pq.Peek()
	if item == nil {
		return time.Time{}, false
	}
	return item.wakeAt, true
}

// Stop terminates the loop and drops all pending sleepers.
func (tm *TimerManager) Stop() {
	tm.cancel()

	tm.mu.Lock()
	tm.pq = make(sleeperHeap, 0)
	heap.Init(&tm.pq)
	tm.mu.Unlock()
}

// SleeperCount returns the number of tasks waiting on a wake time,
// including those mid-hand-off to the ready queue.
func (tm *TimerManager) SleeperCount() int {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	return len(tm.pq) + int(tm.waking.Load())
}
