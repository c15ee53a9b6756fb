// Package waitlist keeps the per-lot FIFO queues of booking requests that
// could not be satisfied immediately.  Order is assigned by the atomic
// insert under the lot lock, so FIFO fairness holds under concurrent
// enqueues regardless of wall-clock resolution.
package waitlist

import (
    "sync"
    "time"

    "github.com/google/uuid"

    "github.com/iliyamo/parking-spot-reservation/internal/clock"
    "github.com/iliyamo/parking-spot-reservation/internal/model"
)

// Store owns all waitlist entries.  Mutual exclusion is per lot: enqueues
// and promotions on different lots never contend.  At most one lot lock is
// held at a time.
type Store struct {
    clk clock.Clock

    mu    sync.RWMutex
    lots  map[uint64]*lotQueue
    index map[string]uint64 // entry id -> lot id
}

type lotQueue struct {
    mu      sync.Mutex
    nextSeq uint64
    entries []*model.WaitlistEntry // ascending Seq
}

// New returns an empty store stamping entries with the given clock.
func New(clk clock.Clock) *Store {
    return &Store{
        clk:   clk,
        lots:  make(map[uint64]*lotQueue),
        index: make(map[string]uint64),
    }
}

func (s *Store) lot(lotID uint64) *lotQueue {
    s.mu.RLock()
    q, ok := s.lots[lotID]
    s.mu.RUnlock()
    if ok {
        return q
    }
    s.mu.Lock()
    defer s.mu.Unlock()
    if q, ok = s.lots[lotID]; ok {
        return q
    }
    q = &lotQueue{}
    s.lots[lotID] = q
    return q
}

// Enqueue appends a WAITING entry for the lot.  spotID nil means "any spot
// in the lot".  The returned copy carries the entry's queue position among
// the entries it competes with.
func (s *Store) Enqueue(lotID uint64, spotID *uint64, start, end time.Time, requester string) *model.WaitlistEntry {
    q := s.lot(lotID)

    entry := &model.WaitlistEntry{
        ID:          uuid.NewString(),
        LotID:       lotID,
        RequesterID: requester,
        Start:       start,
        End:         end,
        State:       model.WaitlistWaiting,
        EnqueuedAt:  s.clk.Now(),
    }
    if spotID != nil {
        v := *spotID
        entry.SpotID = &v
    }

    q.mu.Lock()
    entry.Seq = q.nextSeq
    q.nextSeq++
    q.entries = append(q.entries, entry)
    q.mu.Unlock()

    s.mu.Lock()
    s.index[entry.ID] = lotID
    s.mu.Unlock()

    return copyEntry(entry)
}

// Position returns the 1-based rank of a WAITING entry among the WAITING
// entries competing for the same capacity (same spot or any-spot in the
// same lot, overlapping window), ordered by enqueue sequence.
func (s *Store) Position(entryID string) (int, error) {
    q, err := s.lotFor(entryID)
    if err != nil {
        return 0, err
    }
    q.mu.Lock()
    defer q.mu.Unlock()

    target := q.find(entryID)
    if target == nil {
        return 0, model.ErrInternal
    }
    if target.State != model.WaitlistWaiting {
        return 0, model.ErrWrongState
    }
    pos := 1
    for _, e := range q.entries {
        if e.Seq >= target.Seq {
            break
        }
        if e.State == model.WaitlistWaiting && e.CompetesWith(target) {
            pos++
        }
    }
    return pos, nil
}

// NextEligible returns the earliest-enqueued WAITING entry that the freed
// interval can satisfy: the entry must target the spot (or any spot in the
// lot) and its desired window must fit entirely inside [freedStart,
// freedEnd).  Partial overlap is never eligible.  Returns nil when nothing
// fits.
func (s *Store) NextEligible(lotID uint64, spotID uint64, freedStart, freedEnd time.Time) *model.WaitlistEntry {
    s.mu.RLock()
    q, ok := s.lots[lotID]
    s.mu.RUnlock()
    if !ok {
        return nil
    }

    q.mu.Lock()
    defer q.mu.Unlock()
    for _, e := range q.entries {
        if e.State != model.WaitlistWaiting || !e.WantsSpot(spotID) {
            continue
        }
        if !e.Start.Before(freedStart) && !e.End.After(freedEnd) {
            return copyEntry(e)
        }
    }
    return nil
}

// MarkPromoted transitions a WAITING entry to PROMOTED.
func (s *Store) MarkPromoted(entryID string) error {
    return s.transition(entryID, model.WaitlistPromoted)
}

// MarkCancelled transitions a WAITING entry to CANCELLED.
func (s *Store) MarkCancelled(entryID string) error {
    return s.transition(entryID, model.WaitlistCancelled)
}

// MarkExpired transitions a WAITING entry to EXPIRED.
func (s *Store) MarkExpired(entryID string) error {
    return s.transition(entryID, model.WaitlistExpired)
}

func (s *Store) transition(entryID string, to model.WaitlistState) error {
    q, err := s.lotFor(entryID)
    if err != nil {
        return err
    }
    q.mu.Lock()
    defer q.mu.Unlock()
    e := q.find(entryID)
    if e == nil {
        return model.ErrInternal
    }
    if e.State != model.WaitlistWaiting {
        return model.ErrWrongState
    }
    e.State = to
    return nil
}

// ExpireStarted expires every WAITING entry whose desired start has already
// passed without a promotion; a window that started can no longer be
// honored.  Returns the expired entries.
func (s *Store) ExpireStarted(now time.Time) []*model.WaitlistEntry {
    var lapsed []*model.WaitlistEntry
    for _, q := range s.allLots() {
        q.mu.Lock()
        for _, e := range q.entries {
            if e.State == model.WaitlistWaiting && !e.Start.After(now) {
                e.State = model.WaitlistExpired
                lapsed = append(lapsed, copyEntry(e))
            }
        }
        q.mu.Unlock()
    }
    return lapsed
}

// Get returns a copy of the entry with the given id.
func (s *Store) Get(entryID string) (*model.WaitlistEntry, error) {
    q, err := s.lotFor(entryID)
    if err != nil {
        return nil, err
    }
    q.mu.Lock()
    defer q.mu.Unlock()
    e := q.find(entryID)
    if e == nil {
        return nil, model.ErrInternal
    }
    return copyEntry(e), nil
}

func (s *Store) lotFor(entryID string) (*lotQueue, error) {
    s.mu.RLock()
    defer s.mu.RUnlock()
    lotID, ok := s.index[entryID]
    if !ok {
        return nil, model.ErrNotFound
    }
    q, ok := s.lots[lotID]
    if !ok {
        return nil, model.ErrInternal
    }
    return q, nil
}

func (s *Store) allLots() []*lotQueue {
    s.mu.RLock()
    defer s.mu.RUnlock()
    out := make([]*lotQueue, 0, len(s.lots))
    for _, q := range s.lots {
        out = append(out, q)
    }
    return out
}

// find locates an entry by id.  Caller holds the lot lock.
func (q *lotQueue) find(id string) *model.WaitlistEntry {
    for _, e := range q.entries {
        if e.ID == id {
            return e
        }
    }
    return nil
}

func copyEntry(e *model.WaitlistEntry) *model.WaitlistEntry {
    cp := *e
    if e.SpotID != nil {
        v := *e.SpotID
        cp.SpotID = &v
    }
    return &cp
}
