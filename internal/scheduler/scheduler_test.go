package scheduler

import (
    "context"
    "sync/atomic"
    "testing"
    "time"

    "github.com/stretchr/testify/assert"

    "github.com/iliyamo/parking-spot-reservation/internal/engine"
)

type countingSweeper struct {
    calls atomic.Int32
}

func (c *countingSweeper) Sweep(context.Context) engine.SweepStats {
    c.calls.Add(1)
    return engine.SweepStats{}
}

func TestSchedulerSweepsOnInterval(t *testing.T) {
    sw := &countingSweeper{}
    s := New(sw, 10*time.Millisecond)

    ctx, cancel := context.WithCancel(context.Background())
    done := make(chan struct{})
    go func() {
        s.Start(ctx)
        close(done)
    }()

    time.Sleep(60 * time.Millisecond)
    cancel()
    <-done

    assert.GreaterOrEqual(t, sw.calls.Load(), int32(2), "expected repeated sweeps")
}

func TestSchedulerStopsOnContextCancel(t *testing.T) {
    sw := &countingSweeper{}
    s := New(sw, time.Hour)

    ctx, cancel := context.WithCancel(context.Background())
    done := make(chan struct{})
    go func() {
        s.Start(ctx)
        close(done)
    }()

    cancel()
    select {
    case <-done:
    case <-time.After(time.Second):
        t.Fatal("scheduler did not stop on context cancellation")
    }
}
