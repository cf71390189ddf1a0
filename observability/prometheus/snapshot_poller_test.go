package prometheus

import (
	"context"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/taskfiber/taskfiber/core"
)

type staticStatsProvider struct {
	stats core.PoolStats
}

func (p *staticStatsProvider) Stats() core.PoolStats {
	return p.stats
}

func TestSnapshotPoller_CollectsPoolStats(t *testing.T) {
	reg := prom.NewRegistry()
	poller, err := NewSnapshotPoller(reg, 5*time.Millisecond)
	if err != nil {
		t.Fatalf("NewSnapshotPoller failed: %v", err)
	}

	provider := &staticStatsProvider{stats: core.PoolStats{
		ID:        "pool-a",
		Workers:   4,
		Queued:    3,
		Active:    2,
		Sleeping:  1,
		Suspended: 5,
		Running:   true,
	}}
	poller.AddPool("pool-a", provider)

	poller.Start(context.Background())
	defer poller.Stop()

	deadline := time.Now().Add(time.Second)
	for testutil.ToFloat64(poller.poolQueued.WithLabelValues("pool-a")) != 3 {
		if time.Now().After(deadline) {
			t.Fatal("poller never collected pool stats")
		}
		time.Sleep(time.Millisecond)
	}

	if got := testutil.ToFloat64(poller.poolWorkers.WithLabelValues("pool-a")); got != 4 {
		t.Fatalf("workers gauge = %v, want 4", got)
	}
	if got := testutil.ToFloat64(poller.poolActive.WithLabelValues("pool-a")); got != 2 {
		t.Fatalf("active gauge = %v, want 2", got)
	}
	if got := testutil.ToFloat64(poller.poolSleeping.WithLabelValues("pool-a")); got != 1 {
		t.Fatalf("sleeping gauge = %v, want 1", got)
	}
	if got := testutil.ToFloat64(poller.poolSuspended.WithLabelValues("pool-a")); got != 5 {
		t.Fatalf("suspended gauge = %v, want 5", got)
	}
	if got := testutil.ToFloat64(poller.poolRunning.WithLabelValues("pool-a")); got != 1 {
		t.Fatalf("running gauge = %v, want 1", got)
	}
}

func TestSnapshotPoller_StopIsIdempotent(t *testing.T) {
	reg := prom.NewRegistry()
	poller, err := NewSnapshotPoller(reg, time.Millisecond)
	if err != nil {
		t.Fatalf("NewSnapshotPoller failed: %v", err)
	}

	poller.Start(context.Background())
	poller.Stop()
	poller.Stop()

	poller.Start(context.Background())
	poller.Stop()
}
