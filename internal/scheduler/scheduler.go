// Package scheduler runs the periodic lifecycle sweep.
package scheduler

import (
    "context"
    "log"
    "time"

    "github.com/iliyamo/parking-spot-reservation/internal/engine"
)

// sweeper is the slice of the engine the scheduler needs.
type sweeper interface {
    Sweep(ctx context.Context) engine.SweepStats
}

// Scheduler triggers a sweep on a fixed interval until its context is
// cancelled.  Sweeps themselves are idempotent, so a skipped or delayed
// tick only postpones expiry-driven promotion; cancel-driven promotion
// happens synchronously in the engine and never waits for a tick.
type Scheduler struct {
    engine   sweeper
    interval time.Duration
}

// New returns a scheduler sweeping every interval.
func New(e sweeper, interval time.Duration) *Scheduler {
    return &Scheduler{engine: e, interval: interval}
}

// Start blocks, sweeping once per interval, until ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
    ticker := time.NewTicker(s.interval)
    defer ticker.Stop()

    log.Printf("scheduler: started, sweeping every %s", s.interval)
    for {
        select {
        case <-ctx.Done():
            log.Printf("scheduler: stopped")
            return
        case <-ticker.C:
            s.tick(ctx)
        }
    }
}

func (s *Scheduler) tick(ctx context.Context) {
    stats := s.engine.Sweep(ctx)
    if stats.Expired > 0 || stats.Promoted > 0 || stats.Completed > 0 || stats.Lapsed > 0 {
        log.Printf("scheduler: sweep expired=%d promoted=%d completed=%d lapsed=%d",
            stats.Expired, stats.Promoted, stats.Completed, stats.Lapsed)
    }
}
