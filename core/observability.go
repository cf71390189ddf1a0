package core

import "time"

// TaskExecutionRecord captures one finished task.
type TaskExecutionRecord struct {
	Handle      Handle        `json:"handle" msgpack:"handle"`
	PoolID      string        `json:"pool_id" msgpack:"pool_id"`
	Outcome     string        `json:"outcome" msgpack:"outcome"`
	Resumes     int           `json:"resumes" msgpack:"resumes"`
	SubmittedAt time.Time     `json:"submitted_at" msgpack:"submitted_at"`
	FinishedAt  time.Time     `json:"finished_at" msgpack:"finished_at"`
	Lifetime    time.Duration `json:"lifetime" msgpack:"lifetime"`
	Failed      bool          `json:"failed" msgpack:"failed"`
}

// SchedulerStats represents runtime observability state for a
// scheduler.
type SchedulerStats struct {
	Queued    int
	Active    int
	Sleeping  int
	Suspended int
}

// PoolStats represents runtime observability state for a pool.
type PoolStats struct {
	ID        string
	Workers   int
	Queued    int
	Active    int
	Sleeping  int
	Suspended int
	Running   bool
}
