// Package ledger holds the authoritative per-spot interval allocation table.
// It is the single source of truth for which reservations occupy which spot
// and when; overlap checking and insertion happen inside one critical
// section per spot, so two racing requests can never both commit.
package ledger

import (
    "sync"
    "time"

    "github.com/google/uuid"

    "github.com/iliyamo/parking-spot-reservation/internal/clock"
    "github.com/iliyamo/parking-spot-reservation/internal/model"
)

// Ledger tracks reservations per spot.  Mutual exclusion is per spot, never
// global: requests for different spots proceed fully in parallel.  The outer
// maps are guarded by a read-write mutex that is only ever taken for map
// lookups and inserts, and never while a spot's own lock is held the other
// way around, so no two locks are ever acquired in conflicting order.
type Ledger struct {
    clk clock.Clock

    mu    sync.RWMutex
    spots map[model.SpotRef]*spotState
    index map[string]model.SpotRef // reservation id -> owning spot
}

// spotState serializes all mutations for one spot.  The reservations slice
// keeps terminal records too; they are excluded from overlap checks but stay
// readable through Get.
type spotState struct {
    mu           sync.Mutex
    reservations []*model.Reservation
}

// New returns an empty ledger using the given clock for hold deadlines.
func New(clk clock.Clock) *Ledger {
    return &Ledger{
        clk:   clk,
        spots: make(map[model.SpotRef]*spotState),
        index: make(map[string]model.SpotRef),
    }
}

// spot returns the state for ref, creating it on first use.
func (l *Ledger) spot(ref model.SpotRef) *spotState {
    l.mu.RLock()
    st, ok := l.spots[ref]
    l.mu.RUnlock()
    if ok {
        return st
    }
    l.mu.Lock()
    defer l.mu.Unlock()
    if st, ok = l.spots[ref]; ok {
        return st
    }
    st = &spotState{}
    l.spots[ref] = st
    return st
}

// TryReserve atomically checks [start, end) against every active reservation
// on the spot and, when free, inserts a PROVISIONAL reservation expiring
// holdTTL from now.  On overlap it returns model.ErrConflict without
// mutating anything; a conflict is the expected "fully booked" signal, not
// a failure.
func (l *Ledger) TryReserve(spot model.SpotRef, start, end time.Time, requester string, holdTTL time.Duration) (*model.Reservation, error) {
    if !start.Before(end) {
        return nil, model.ErrInvalidWindow
    }

    st := l.spot(spot)
    st.mu.Lock()
    for _, r := range st.reservations {
        if r.State.Active() && r.Overlaps(start, end) {
            st.mu.Unlock()
            return nil, model.ErrConflict
        }
    }

    now := l.clk.Now()
    expires := now.Add(holdTTL)
    res := &model.Reservation{
        ID:          uuid.NewString(),
        Spot:        spot,
        RequesterID: requester,
        Start:       start,
        End:         end,
        State:       model.ReservationProvisional,
        CreatedAt:   now,
        ExpiresAt:   &expires,
    }
    st.reservations = append(st.reservations, res)
    st.mu.Unlock()

    l.mu.Lock()
    l.index[res.ID] = spot
    l.mu.Unlock()

    return snapshot(res), nil
}

// Confirm transitions a PROVISIONAL reservation to CONFIRMED and clears its
// hold deadline.  Confirming an already CONFIRMED reservation is a no-op
// returning the current record, so payment webhooks can be retried safely.
func (l *Ledger) Confirm(id string) (*model.Reservation, error) {
    st, err := l.stateFor(id)
    if err != nil {
        return nil, err
    }
    st.mu.Lock()
    defer st.mu.Unlock()

    res := st.find(id)
    if res == nil {
        // Indexed but missing from its spot: the table is corrupt.
        return nil, model.ErrInternal
    }
    switch res.State {
    case model.ReservationConfirmed:
        return snapshot(res), nil
    case model.ReservationProvisional:
        now := l.clk.Now()
        res.State = model.ReservationConfirmed
        res.ConfirmedAt = &now
        res.ExpiresAt = nil
        return snapshot(res), nil
    default:
        return nil, model.ErrWrongState
    }
}

// Cancel transitions a PROVISIONAL or CONFIRMED reservation to CANCELLED and
// frees its interval.  Cancellation is only allowed strictly before start.
func (l *Ledger) Cancel(id string, now time.Time) (*model.Reservation, error) {
    st, err := l.stateFor(id)
    if err != nil {
        return nil, err
    }
    st.mu.Lock()
    defer st.mu.Unlock()

    res := st.find(id)
    if res == nil {
        return nil, model.ErrInternal
    }
    if !res.State.Active() {
        return nil, model.ErrWrongState
    }
    if !now.Before(res.Start) {
        return nil, model.ErrWrongState
    }
    res.State = model.ReservationCancelled
    res.ExpiresAt = nil
    return snapshot(res), nil
}

// ExpireDue transitions every PROVISIONAL reservation whose deadline has
// passed to EXPIRED and returns the freed reservations.  Each spot is
// processed under its own lock, the same mutual exclusion TryReserve uses,
// so an expiry can never race a promotion into the slot it is freeing.
func (l *Ledger) ExpireDue(now time.Time) []*model.Reservation {
    var freed []*model.Reservation
    for _, st := range l.allSpots() {
        st.mu.Lock()
        for _, r := range st.reservations {
            if r.State == model.ReservationProvisional && r.ExpiresAt != nil && !r.ExpiresAt.After(now) {
                r.State = model.ReservationExpired
                r.ExpiresAt = nil
                freed = append(freed, snapshot(r))
            }
        }
        st.mu.Unlock()
    }
    return freed
}

// CompletePast marks CONFIRMED reservations whose end has passed as
// COMPLETED and reports how many were updated.  Bookkeeping only: a past
// interval already excludes itself from future overlap checks by time.
func (l *Ledger) CompletePast(now time.Time) int {
    n := 0
    for _, st := range l.allSpots() {
        st.mu.Lock()
        for _, r := range st.reservations {
            if r.State == model.ReservationConfirmed && !r.End.After(now) {
                r.State = model.ReservationCompleted
                n++
            }
        }
        st.mu.Unlock()
    }
    return n
}

// farFuture bounds free windows with no later reservation.
var farFuture = time.Date(9999, 1, 1, 0, 0, 0, 0, time.UTC)

// FreeWindow widens the freed interval [start, end) to the maximal free
// window around it: from the end of the latest active reservation before it
// to the start of the earliest active reservation after it.  A zero lower
// bound means unbounded past; the upper bound saturates far in the future.
// ok is false when an active reservation already overlaps the interval,
// i.e. the capacity was re-taken before the caller got here.
func (l *Ledger) FreeWindow(spot model.SpotRef, start, end time.Time) (lo, hi time.Time, ok bool) {
    st := l.spot(spot)
    st.mu.Lock()
    defer st.mu.Unlock()

    hi = farFuture
    for _, r := range st.reservations {
        if !r.State.Active() {
            continue
        }
        if r.Overlaps(start, end) {
            return time.Time{}, time.Time{}, false
        }
        if !r.End.After(start) && r.End.After(lo) {
            lo = r.End
        }
        if !r.Start.Before(end) && r.Start.Before(hi) {
            hi = r.Start
        }
    }
    return lo, hi, true
}

// Get returns a copy of the reservation with the given id.
func (l *Ledger) Get(id string) (*model.Reservation, error) {
    st, err := l.stateFor(id)
    if err != nil {
        return nil, err
    }
    st.mu.Lock()
    defer st.mu.Unlock()
    res := st.find(id)
    if res == nil {
        return nil, model.ErrInternal
    }
    return snapshot(res), nil
}

// stateFor resolves a reservation id to its spot's state.
func (l *Ledger) stateFor(id string) (*spotState, error) {
    l.mu.RLock()
    defer l.mu.RUnlock()
    ref, ok := l.index[id]
    if !ok {
        return nil, model.ErrNotFound
    }
    st, ok := l.spots[ref]
    if !ok {
        return nil, model.ErrInternal
    }
    return st, nil
}

// allSpots snapshots the current spot states so sweeps lock one spot at a
// time without holding the outer map lock.
func (l *Ledger) allSpots() []*spotState {
    l.mu.RLock()
    defer l.mu.RUnlock()
    out := make([]*spotState, 0, len(l.spots))
    for _, st := range l.spots {
        out = append(out, st)
    }
    return out
}

// find locates a reservation by id.  Caller holds the spot lock.
func (s *spotState) find(id string) *model.Reservation {
    for _, r := range s.reservations {
        if r.ID == id {
            return r
        }
    }
    return nil
}

// snapshot deep-copies a reservation so callers never share memory with the
// record mutated under the spot lock.
func snapshot(r *model.Reservation) *model.Reservation {
    cp := *r
    if r.ConfirmedAt != nil {
        t := *r.ConfirmedAt
        cp.ConfirmedAt = &t
    }
    if r.ExpiresAt != nil {
        t := *r.ExpiresAt
        cp.ExpiresAt = &t
    }
    return &cp
}
