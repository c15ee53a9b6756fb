package waitlist

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

func spotPtr(id uint64) *uint64 { return &id }

func TestEnqueueAssignsFIFOOrder(t *testing.T) {
    s := New(clock.NewFixed(base))

    a := s.Enqueue(1, spotPtr(7), base.Add(time.Hour), base.Add(2*time.Hour), "alice")
    b := s.Enqueue(1, spotPtr(7), base.Add(time.Hour), base.Add(2*time.Hour), "bob")

    posA, err := s.Position(a.ID)
    require.NoError(t, err)
    posB, err := s.Position(b.ID)
    require.NoError(t, err)

    assert.Equal(t, 1, posA)
    assert.Equal(t, 2, posB)
}

func TestPositionCountsOnlyCompetingWaitingEntries(t *testing.T) {
    s := New(clock.NewFixed(base))

    // Earlier entry on a different spot with an overlapping window: does
    // not compete with a spot-7 entry.
    s.Enqueue(1, spotPtr(3), base.Add(time.Hour), base.Add(2*time.Hour), "carol")
    // Earlier any-spot entry in the same lot: competes.
    s.Enqueue(1, nil, base.Add(time.Hour), base.Add(2*time.Hour), "dave")
    // Earlier spot-7 entry with a disjoint window: does not compete.
    s.Enqueue(1, spotPtr(7), base.Add(5*time.Hour), base.Add(6*time.Hour), "erin")

    e := s.Enqueue(1, spotPtr(7), base.Add(time.Hour), base.Add(2*time.Hour), "frank")
    pos, err := s.Position(e.ID)
    require.NoError(t, err)
    assert.Equal(t, 2, pos)
}

func TestPositionSkipsSettledEntries(t *testing.T) {
    s := New(clock.NewFixed(base))

    a := s.Enqueue(1, spotPtr(7), base.Add(time.Hour), base.Add(2*time.Hour), "alice")
    b := s.Enqueue(1, spotPtr(7), base.Add(time.Hour), base.Add(2*time.Hour), "bob")
    require.NoError(t, s.MarkPromoted(a.ID))

    pos, err := s.Position(b.ID)
    require.NoError(t, err)
    assert.Equal(t, 1, pos)
}

func TestPositionErrors(t *testing.T) {
    s := New(clock.NewFixed(base))

    _, err := s.Position("missing")
    assert.ErrorIs(t, err, model.ErrNotFound)

    a := s.Enqueue(1, spotPtr(7), base.Add(time.Hour), base.Add(2*time.Hour), "alice")
    require.NoError(t, s.MarkCancelled(a.ID))
    _, err = s.Position(a.ID)
    assert.ErrorIs(t, err, model.ErrWrongState)
}

func TestNextEligibleRequiresFullFit(t *testing.T) {
    s := New(clock.NewFixed(base))
    freedStart, freedEnd := base.Add(time.Hour), base.Add(3*time.Hour)

    // Partial overlap with the freed interval: never eligible.
    s.Enqueue(1, spotPtr(7), base.Add(2*time.Hour), base.Add(4*time.Hour), "alice")

    assert.Nil(t, s.NextEligible(1, 7, freedStart, freedEnd))

    // Sub-interval of the freed window: eligible.
    b := s.Enqueue(1, spotPtr(7), base.Add(90*time.Minute), base.Add(2*time.Hour), "bob")
    got := s.NextEligible(1, 7, freedStart, freedEnd)
    require.NotNil(t, got)
    assert.Equal(t, b.ID, got.ID)
}

func TestNextEligiblePrefersEarliestEnqueued(t *testing.T) {
    s := New(clock.NewFixed(base))
    freedStart, freedEnd := base.Add(time.Hour), base.Add(3*time.Hour)

    a := s.Enqueue(1, spotPtr(7), base.Add(time.Hour), base.Add(2*time.Hour), "alice")
    s.Enqueue(1, spotPtr(7), base.Add(time.Hour), base.Add(2*time.Hour), "bob")

    got := s.NextEligible(1, 7, freedStart, freedEnd)
    require.NotNil(t, got)
    assert.Equal(t, a.ID, got.ID, "earlier entry must win the single opportunity")
}

func TestNextEligibleMatchesAnySpotEntries(t *testing.T) {
    s := New(clock.NewFixed(base))

    any := s.Enqueue(1, nil, base.Add(time.Hour), base.Add(2*time.Hour), "alice")

    got := s.NextEligible(1, 42, base.Add(time.Hour), base.Add(2*time.Hour))
    require.NotNil(t, got)
    assert.Equal(t, any.ID, got.ID)

    // Entries pinned to another spot are not offered a freed spot 42.
    s2 := New(clock.NewFixed(base))
    s2.Enqueue(1, spotPtr(7), base.Add(time.Hour), base.Add(2*time.Hour), "bob")
    assert.Nil(t, s2.NextEligible(1, 42, base.Add(time.Hour), base.Add(2*time.Hour)))
}

func TestNextEligibleUnknownLot(t *testing.T) {
    s := New(clock.NewFixed(base))
    assert.Nil(t, s.NextEligible(99, 1, base, base.Add(time.Hour)))
}

func TestTerminalTransitionsValidOnlyFromWaiting(t *testing.T) {
    s := New(clock.NewFixed(base))

    a := s.Enqueue(1, spotPtr(7), base.Add(time.Hour), base.Add(2*time.Hour), "alice")
    require.NoError(t, s.MarkPromoted(a.ID))
    assert.ErrorIs(t, s.MarkCancelled(a.ID), model.ErrWrongState)
    assert.ErrorIs(t, s.MarkExpired(a.ID), model.ErrWrongState)

    assert.ErrorIs(t, s.MarkPromoted("missing"), model.ErrNotFound)
}

func TestExpireStarted(t *testing.T) {
    s := New(clock.NewFixed(base))

    started := s.Enqueue(1, spotPtr(7), base.Add(time.Hour), base.Add(2*time.Hour), "alice")
    future := s.Enqueue(1, spotPtr(7), base.Add(4*time.Hour), base.Add(5*time.Hour), "bob")

    lapsed := s.ExpireStarted(base.Add(time.Hour))
    require.Len(t, lapsed, 1)
    assert.Equal(t, started.ID, lapsed[0].ID)
    assert.Equal(t, model.WaitlistExpired, lapsed[0].State)

    got, err := s.Get(future.ID)
    require.NoError(t, err)
    assert.Equal(t, model.WaitlistWaiting, got.State)

    assert.Empty(t, s.ExpireStarted(base.Add(time.Hour)), "expiry must not repeat")
}

// Concurrent enqueues into one lot must all receive distinct queue slots.
func TestConcurrentEnqueuesKeepDistinctOrder(t *testing.T) {
    s := New(clock.NewFixed(base))

    const workers = 50
    var wg sync.WaitGroup
    ids := make([]string, workers)
    for i := 0; i < workers; i++ {
        wg.Add(1)
        go func(n int) {
            defer wg.Done()
            e := s.Enqueue(1, spotPtr(7), base.Add(time.Hour), base.Add(2*time.Hour), "hammer")
            ids[n] = e.ID
        }(i)
    }
    wg.Wait()

    seen := make(map[int]string, workers)
    for _, id := range ids {
        pos, err := s.Position(id)
        require.NoError(t, err)
        if prev, dup := seen[pos]; dup {
            t.Fatalf("entries %s and %s share position %d", prev, id, pos)
        }
        seen[pos] = id
    }
    assert.Len(t, seen, workers)
}
