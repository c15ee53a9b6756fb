package ledger

import (
    "sync"
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/parking-spot-reservation/internal/clock"
    "github.com/iliyamo/parking-spot-reservation/internal/model"
)

var base = time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)

func testSpot() model.SpotRef { return model.SpotRef{LotID: 1, SpotID: 7} }

func TestTryReserveCommitsProvisionalHold(t *testing.T) {
    l := New(clock.NewFixed(base))

    res, err := l.TryReserve(testSpot(), base.Add(time.Hour), base.Add(2*time.Hour), "alice", 15*time.Minute)
    require.NoError(t, err)

    assert.NotEmpty(t, res.ID)
    assert.Equal(t, model.ReservationProvisional, res.State)
    assert.Equal(t, "alice", res.RequesterID)
    require.NotNil(t, res.ExpiresAt)
    assert.Equal(t, base.Add(15*time.Minute), *res.ExpiresAt)
}

func TestTryReserveConflictLeavesStateUntouched(t *testing.T) {
    l := New(clock.NewFixed(base))
    spot := testSpot()

    _, err := l.TryReserve(spot, base.Add(time.Hour), base.Add(2*time.Hour), "alice", 15*time.Minute)
    require.NoError(t, err)

    tests := []struct {
        name       string
        start, end time.Time
        wantErr    error
    }{
        {"identical window", base.Add(time.Hour), base.Add(2 * time.Hour), model.ErrConflict},
        {"overlapping tail", base.Add(90 * time.Minute), base.Add(3 * time.Hour), model.ErrConflict},
        {"overlapping head", base.Add(30 * time.Minute), base.Add(90 * time.Minute), model.ErrConflict},
        {"containing window", base.Add(30 * time.Minute), base.Add(3 * time.Hour), model.ErrConflict},
        {"back-to-back after", base.Add(2 * time.Hour), base.Add(3 * time.Hour), nil},
        {"back-to-back before", base.Add(30 * time.Minute), base.Add(time.Hour), nil},
    }
    for _, tc := range tests {
        t.Run(tc.name, func(t *testing.T) {
            _, err := l.TryReserve(spot, tc.start, tc.end, "bob", 15*time.Minute)
            if tc.wantErr != nil {
                assert.ErrorIs(t, err, tc.wantErr)
            } else {
                assert.NoError(t, err)
            }
        })
    }
}

func TestTryReserveRejectsEmptyWindow(t *testing.T) {
    l := New(clock.NewFixed(base))
    _, err := l.TryReserve(testSpot(), base.Add(time.Hour), base.Add(time.Hour), "alice", 15*time.Minute)
    assert.ErrorIs(t, err, model.ErrInvalidWindow)
}

// Exactly one of many racing requests for the same window may ever commit,
// and reservations on other spots are never blocked by the contention.
func TestTryReserveNoDoubleBookingUnderConcurrency(t *testing.T) {
    l := New(clock.NewFixed(base))
    spot := testSpot()

    const workers = 64
    var wg sync.WaitGroup
    var mu sync.Mutex
    var booked []*model.Reservation

    for i := 0; i < workers; i++ {
        wg.Add(1)
        go func(n int) {
            defer wg.Done()
            // Staggered but pairwise-overlapping windows.
            start := base.Add(time.Duration(n) * time.Minute)
            end := start.Add(2 * time.Hour)
            res, err := l.TryReserve(spot, start, end, "hammer", 15*time.Minute)
            if err == nil {
                mu.Lock()
                booked = append(booked, res)
                mu.Unlock()
            } else if err != model.ErrConflict {
                t.Errorf("unexpected error: %v", err)
            }
        }(i)
    }
    wg.Wait()

    require.NotEmpty(t, booked)
    for i := 0; i < len(booked); i++ {
        for j := i + 1; j < len(booked); j++ {
            assert.False(t, booked[i].Overlaps(booked[j].Start, booked[j].End),
                "reservations %s and %s overlap", booked[i].ID, booked[j].ID)
        }
    }
}

func TestConcurrentRequestsOnDistinctSpotsAllSucceed(t *testing.T) {
    l := New(clock.NewFixed(base))

    const spots = 32
    var wg sync.WaitGroup
    errs := make([]error, spots)
    for i := 0; i < spots; i++ {
        wg.Add(1)
        go func(n int) {
            defer wg.Done()
            spot := model.SpotRef{LotID: 1, SpotID: uint64(n)}
            _, errs[n] = l.TryReserve(spot, base.Add(time.Hour), base.Add(2*time.Hour), "alice", 15*time.Minute)
        }(i)
    }
    wg.Wait()
    for i, err := range errs {
        assert.NoError(t, err, "spot %d", i)
    }
}

func TestConfirmIsIdempotent(t *testing.T) {
    l := New(clock.NewFixed(base))
    res, err := l.TryReserve(testSpot(), base.Add(time.Hour), base.Add(2*time.Hour), "alice", 15*time.Minute)
    require.NoError(t, err)

    first, err := l.Confirm(res.ID)
    require.NoError(t, err)
    assert.Equal(t, model.ReservationConfirmed, first.State)
    assert.Nil(t, first.ExpiresAt)
    require.NotNil(t, first.ConfirmedAt)

    second, err := l.Confirm(res.ID)
    require.NoError(t, err)
    assert.Equal(t, first.ConfirmedAt, second.ConfirmedAt)
}

func TestConfirmErrors(t *testing.T) {
    l := New(clock.NewFixed(base))

    _, err := l.Confirm("missing")
    assert.ErrorIs(t, err, model.ErrNotFound)

    res, err := l.TryReserve(testSpot(), base.Add(time.Hour), base.Add(2*time.Hour), "alice", 15*time.Minute)
    require.NoError(t, err)
    _, err = l.Cancel(res.ID, base)
    require.NoError(t, err)

    _, err = l.Confirm(res.ID)
    assert.ErrorIs(t, err, model.ErrWrongState)
}

func TestCancelOnlyBeforeStart(t *testing.T) {
    l := New(clock.NewFixed(base))
    res, err := l.TryReserve(testSpot(), base.Add(time.Hour), base.Add(2*time.Hour), "alice", 15*time.Minute)
    require.NoError(t, err)

    _, err = l.Cancel(res.ID, base.Add(time.Hour))
    assert.ErrorIs(t, err, model.ErrWrongState, "cancel at start must fail")

    cancelled, err := l.Cancel(res.ID, base.Add(59*time.Minute))
    require.NoError(t, err)
    assert.Equal(t, model.ReservationCancelled, cancelled.State)

    // The interval is free again.
    _, err = l.TryReserve(testSpot(), base.Add(time.Hour), base.Add(2*time.Hour), "bob", 15*time.Minute)
    assert.NoError(t, err)
}

func TestExpireDueFreesCapacity(t *testing.T) {
    l := New(clock.NewFixed(base))
    spot := testSpot()
    res, err := l.TryReserve(spot, base.Add(time.Hour), base.Add(2*time.Hour), "alice", 15*time.Minute)
    require.NoError(t, err)

    assert.Empty(t, l.ExpireDue(base.Add(14*time.Minute)), "hold not yet due")

    freed := l.ExpireDue(base.Add(15 * time.Minute))
    require.Len(t, freed, 1)
    assert.Equal(t, res.ID, freed[0].ID)
    assert.Equal(t, model.ReservationExpired, freed[0].State)

    assert.Empty(t, l.ExpireDue(base.Add(16*time.Minute)), "expiry must not repeat")

    _, err = l.TryReserve(spot, base.Add(time.Hour), base.Add(2*time.Hour), "bob", 15*time.Minute)
    assert.NoError(t, err, "expired interval must be bookable again")
}

func TestConfirmedReservationNeverExpires(t *testing.T) {
    l := New(clock.NewFixed(base))
    res, err := l.TryReserve(testSpot(), base.Add(time.Hour), base.Add(2*time.Hour), "alice", 15*time.Minute)
    require.NoError(t, err)
    _, err = l.Confirm(res.ID)
    require.NoError(t, err)

    assert.Empty(t, l.ExpireDue(base.Add(time.Hour)))
}

func TestCompletePast(t *testing.T) {
    l := New(clock.NewFixed(base))
    res, err := l.TryReserve(testSpot(), base.Add(time.Hour), base.Add(2*time.Hour), "alice", 15*time.Minute)
    require.NoError(t, err)
    _, err = l.Confirm(res.ID)
    require.NoError(t, err)

    assert.Equal(t, 0, l.CompletePast(base.Add(2*time.Hour-time.Second)))
    assert.Equal(t, 1, l.CompletePast(base.Add(2*time.Hour)))
    assert.Equal(t, 0, l.CompletePast(base.Add(3*time.Hour)), "completion must not repeat")

    got, err := l.Get(res.ID)
    require.NoError(t, err)
    assert.Equal(t, model.ReservationCompleted, got.State)
}

func TestFreeWindowWidensToNeighboringReservations(t *testing.T) {
    l := New(clock.NewFixed(base))
    spot := testSpot()

    _, err := l.TryReserve(spot, base.Add(time.Hour), base.Add(2*time.Hour), "alice", 15*time.Minute)
    require.NoError(t, err)
    mid, err := l.TryReserve(spot, base.Add(3*time.Hour), base.Add(4*time.Hour), "bob", 15*time.Minute)
    require.NoError(t, err)
    _, err = l.TryReserve(spot, base.Add(5*time.Hour), base.Add(6*time.Hour), "carol", 15*time.Minute)
    require.NoError(t, err)

    _, err = l.Cancel(mid.ID, base)
    require.NoError(t, err)

    lo, hi, ok := l.FreeWindow(spot, base.Add(3*time.Hour), base.Add(4*time.Hour))
    require.True(t, ok)
    assert.Equal(t, base.Add(2*time.Hour), lo, "window opens where the earlier reservation ends")
    assert.Equal(t, base.Add(5*time.Hour), hi, "window closes where the later reservation starts")
}

func TestFreeWindowUnboundedOnEmptySpot(t *testing.T) {
    l := New(clock.NewFixed(base))

    lo, hi, ok := l.FreeWindow(testSpot(), base.Add(time.Hour), base.Add(2*time.Hour))
    require.True(t, ok)
    assert.True(t, lo.IsZero())
    assert.Equal(t, farFuture, hi)
}

func TestFreeWindowReportsRetakenInterval(t *testing.T) {
    l := New(clock.NewFixed(base))
    spot := testSpot()

    _, err := l.TryReserve(spot, base.Add(time.Hour), base.Add(2*time.Hour), "alice", 15*time.Minute)
    require.NoError(t, err)

    _, _, ok := l.FreeWindow(spot, base.Add(90*time.Minute), base.Add(150*time.Minute))
    assert.False(t, ok, "an active overlap means the capacity is gone")
}

func TestGetReturnsACopy(t *testing.T) {
    l := New(clock.NewFixed(base))
    res, err := l.TryReserve(testSpot(), base.Add(time.Hour), base.Add(2*time.Hour), "alice", 15*time.Minute)
    require.NoError(t, err)

    got, err := l.Get(res.ID)
    require.NoError(t, err)
    got.State = model.ReservationCancelled

    again, err := l.Get(res.ID)
    require.NoError(t, err)
    assert.Equal(t, model.ReservationProvisional, again.State)
}
