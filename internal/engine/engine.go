// Package engine orchestrates booking requests against the spot ledger and
// the waitlist.  Aside from the backlog of cancel-freed intervals awaiting
// their sweep retry, every decision is re-derived from the two stores.
package engine

import (
    "context"
    "fmt"
    "log"
    "slices"
    "sync"
    "time"

    "github.com/iliyamo/parking-spot-reservation/internal/clock"
    "github.com/iliyamo/parking-spot-reservation/internal/ledger"
    "github.com/iliyamo/parking-spot-reservation/internal/model"
    "github.com/iliyamo/parking-spot-reservation/internal/queue"
    "github.com/iliyamo/parking-spot-reservation/internal/waitlist"
)

// SpotCatalog is the read-only view of the external catalog service this
// engine needs: which spots exist and are in service.
type SpotCatalog interface {
    // ActiveSpots lists the active spot ids of a lot in ascending order.
    ActiveSpots(ctx context.Context, lotID uint64) ([]uint64, error)
    // SpotActive reports whether the given spot exists and is in service.
    SpotActive(ctx context.Context, lotID, spotID uint64) (bool, error)
}

// EventSink receives outbound lifecycle events.  Implementations must be
// fire-and-forget: they never block the caller on delivery and swallow
// their own failures.  Delivery is at-least-once; consumers are expected to
// be idempotent on reservation/entry id.
type EventSink interface {
    BookingCreated(ctx context.Context, ev queue.BookingCreatedEvent)
    BookingConfirmed(ctx context.Context, ev queue.BookingConfirmedEvent)
    BookingCancelled(ctx context.Context, ev queue.BookingCancelledEvent)
    BookingExpired(ctx context.Context, ev queue.BookingExpiredEvent)
    Waitlisted(ctx context.Context, ev queue.WaitlistedEvent)
    WaitlistPromoted(ctx context.Context, ev queue.WaitlistPromotedEvent)
}

// Engine coordinates the ledger, the waitlist, the catalog and the event
// sink.  Safe for concurrent use.
type Engine struct {
    ledger   *ledger.Ledger
    waitlist *waitlist.Store
    catalog  SpotCatalog
    sink     EventSink
    clk      clock.Clock
    holdTTL  time.Duration

    freedMu sync.Mutex
    freed   []freedInterval // cancel-freed intervals since the last sweep
}

// freedInterval is one interval a cancellation gave back.  The sweep runs
// the promotion pass over these too: an entry enqueued just after the
// cancel's own promotion pass, or a promotion attempt that failed, must not
// stay stranded while the spot sits free.
type freedInterval struct {
    spot       model.SpotRef
    start, end time.Time
}

const defaultHoldTTL = 15 * time.Minute

// Option customizes an Engine.
type Option func(*Engine)

// WithHoldTTL overrides the default provisional-hold duration.
func WithHoldTTL(d time.Duration) Option {
    return func(e *Engine) {
        if d > 0 {
            e.holdTTL = d
        }
    }
}

// New constructs an Engine over the given collaborators.
func New(l *ledger.Ledger, w *waitlist.Store, c SpotCatalog, s EventSink, clk clock.Clock, opts ...Option) *Engine {
    e := &Engine{
        ledger:   l,
        waitlist: w,
        catalog:  c,
        sink:     s,
        clk:      clk,
        holdTTL:  defaultHoldTTL,
    }
    for _, opt := range opts {
        opt(e)
    }
    return e
}

// BookingRequest is one inbound booking attempt.  SpotID nil requests any
// spot in the lot.
type BookingRequest struct {
    LotID       uint64
    SpotID      *uint64
    Start       time.Time
    End         time.Time
    RequesterID string
}

// OutcomeStatus tells how a booking request was resolved.
type OutcomeStatus string

const (
    // StatusBooked means a provisional reservation was committed.
    StatusBooked OutcomeStatus = "BOOKED"
    // StatusWaitlisted means no capacity was free and the request joined
    // the waitlist.
    StatusWaitlisted OutcomeStatus = "WAITLISTED"
)

// Outcome is the result of a non-rejected booking request: exactly one of
// Reservation (BOOKED) or Entry+Position (WAITLISTED) is set.  Rejections
// surface as errors from RequestBooking.
type Outcome struct {
    Status      OutcomeStatus
    Reservation *model.Reservation
    Entry       *model.WaitlistEntry
    Position    int
}

// RequestBooking resolves one booking request to Booked or Waitlisted, or
// rejects it with a sentinel error (ErrInvalidWindow, ErrNotFound,
// ErrStorageUnavailable).  A full spot is never an error: the conflict is
// consumed internally by falling back to the waitlist.
func (e *Engine) RequestBooking(ctx context.Context, req BookingRequest) (*Outcome, error) {
    start, end := req.Start.UTC(), req.End.UTC()
    now := e.clk.Now()
    if !start.Before(end) || start.Before(now) {
        return nil, model.ErrInvalidWindow
    }

    if req.SpotID != nil {
        return e.bookExplicit(ctx, req, start, end)
    }
    return e.bookAny(ctx, req, start, end)
}

func (e *Engine) bookExplicit(ctx context.Context, req BookingRequest, start, end time.Time) (*Outcome, error) {
    active, err := e.catalog.SpotActive(ctx, req.LotID, *req.SpotID)
    if err != nil {
        return nil, fmt.Errorf("check spot: %w", err)
    }
    if !active {
        return nil, model.ErrNotFound
    }

    spot := model.SpotRef{LotID: req.LotID, SpotID: *req.SpotID}
    res, err := e.ledger.TryReserve(spot, start, end, req.RequesterID, e.holdTTL)
    switch {
    case err == nil:
        e.emitCreated(ctx, res)
        return &Outcome{Status: StatusBooked, Reservation: res}, nil
    case err == model.ErrConflict:
        return e.waitlistFallback(ctx, req, req.SpotID, start, end)
    default:
        return nil, err
    }
}

func (e *Engine) bookAny(ctx context.Context, req BookingRequest, start, end time.Time) (*Outcome, error) {
    spots, err := e.catalog.ActiveSpots(ctx, req.LotID)
    if err != nil {
        return nil, fmt.Errorf("list spots: %w", err)
    }
    if len(spots) == 0 {
        return nil, model.ErrNotFound
    }
    // Candidates are attempted in ascending spot id so replicas resolve the
    // same request identically.  One spot lock at a time, never two.
    slices.Sort(spots)
    for _, spotID := range spots {
        spot := model.SpotRef{LotID: req.LotID, SpotID: spotID}
        res, err := e.ledger.TryReserve(spot, start, end, req.RequesterID, e.holdTTL)
        if err == model.ErrConflict {
            continue
        }
        if err != nil {
            return nil, err
        }
        e.emitCreated(ctx, res)
        return &Outcome{Status: StatusBooked, Reservation: res}, nil
    }
    // Every spot conflicted: enqueue one any-spot entry, not one per spot.
    return e.waitlistFallback(ctx, req, nil, start, end)
}

func (e *Engine) waitlistFallback(ctx context.Context, req BookingRequest, spotID *uint64, start, end time.Time) (*Outcome, error) {
    entry := e.waitlist.Enqueue(req.LotID, spotID, start, end, req.RequesterID)
    pos, err := e.waitlist.Position(entry.ID)
    if err != nil {
        return nil, err
    }
    e.sink.Waitlisted(ctx, queue.WaitlistedEvent{
        EntryID:     entry.ID,
        RequesterID: entry.RequesterID,
        LotID:       entry.LotID,
        Position:    pos,
    })
    return &Outcome{Status: StatusWaitlisted, Entry: entry, Position: pos}, nil
}

// ConfirmPayment transitions a reservation to CONFIRMED.  Idempotent:
// confirming an already confirmed reservation succeeds without effect.
func (e *Engine) ConfirmPayment(ctx context.Context, reservationID string) (*model.Reservation, error) {
    res, err := e.ledger.Confirm(reservationID)
    if err != nil {
        return nil, err
    }
    e.sink.BookingConfirmed(ctx, queue.BookingConfirmedEvent{ReservationID: res.ID})
    return res, nil
}

// CancelBooking cancels a reservation before its start and immediately
// attempts to promote a waiting entry into the freed interval, so a
// cancel-driven free never waits for the next sweep.  Ownership checks are
// the caller's responsibility.
func (e *Engine) CancelBooking(ctx context.Context, reservationID string) (*model.Reservation, error) {
    res, err := e.ledger.Cancel(reservationID, e.clk.Now())
    if err != nil {
        return nil, err
    }
    e.sink.BookingCancelled(ctx, queue.BookingCancelledEvent{ReservationID: res.ID})

    e.recordFreed(res.Spot, res.Start, res.End)
    if _, err := e.promote(ctx, res.Spot, res.Start, res.End); err != nil {
        // The cancellation itself succeeded; the recorded interval gets
        // another promotion attempt at the next sweep.
        log.Printf("engine: promotion after cancel of %s failed: %v", res.ID, err)
    }
    return res, nil
}

func (e *Engine) recordFreed(spot model.SpotRef, start, end time.Time) {
    e.freedMu.Lock()
    e.freed = append(e.freed, freedInterval{spot: spot, start: start, end: end})
    e.freedMu.Unlock()
}

// drainFreed hands the accumulated cancel-freed intervals to the caller and
// resets the backlog.
func (e *Engine) drainFreed() []freedInterval {
    e.freedMu.Lock()
    defer e.freedMu.Unlock()
    out := e.freed
    e.freed = nil
    return out
}

// CancelWaitlistEntry withdraws a WAITING entry.
func (e *Engine) CancelWaitlistEntry(ctx context.Context, entryID string) error {
    return e.waitlist.MarkCancelled(entryID)
}

// GetBooking returns a reservation by id.
func (e *Engine) GetBooking(reservationID string) (*model.Reservation, error) {
    return e.ledger.Get(reservationID)
}

// GetWaitlistEntry returns a waitlist entry by id.
func (e *Engine) GetWaitlistEntry(entryID string) (*model.WaitlistEntry, error) {
    return e.waitlist.Get(entryID)
}

// WaitlistPosition returns the 1-based position of a WAITING entry.
func (e *Engine) WaitlistPosition(entryID string) (int, error) {
    return e.waitlist.Position(entryID)
}

// promote converts the earliest eligible waiting entry for the freed
// interval into a fresh provisional reservation.  The freed interval is
// first widened to the maximal free window around it, so an entry whose
// window merely straddles the freed reservation's bounds still promotes
// when the adjacent time is also free.  The ledger re-check via TryReserve
// is mandatory: the window may have been taken by a concurrent booking
// after the eligibility scan, in which case the entry simply stays WAITING.
func (e *Engine) promote(ctx context.Context, spot model.SpotRef, freedStart, freedEnd time.Time) (bool, error) {
    lo, hi, free := e.ledger.FreeWindow(spot, freedStart, freedEnd)
    if !free {
        // A concurrent booking already re-took the interval.
        return false, nil
    }
    entry := e.waitlist.NextEligible(spot.LotID, spot.SpotID, lo, hi)
    if entry == nil {
        return false, nil
    }

    res, err := e.ledger.TryReserve(spot, entry.Start, entry.End, entry.RequesterID, e.holdTTL)
    if err == model.ErrConflict {
        return false, nil
    }
    if err != nil {
        return false, err
    }

    if err := e.waitlist.MarkPromoted(entry.ID); err != nil {
        // The entry was cancelled or expired between the eligibility check
        // and now; release the reservation we just took for it.
        if _, cErr := e.ledger.Cancel(res.ID, e.clk.Now()); cErr != nil {
            log.Printf("engine: rollback of orphan promotion %s failed: %v", res.ID, cErr)
        }
        return false, nil
    }

    e.sink.WaitlistPromoted(ctx, queue.WaitlistPromotedEvent{
        EntryID:       entry.ID,
        ReservationID: res.ID,
        RequesterID:   entry.RequesterID,
    })
    e.emitCreated(ctx, res)
    return true, nil
}

func (e *Engine) emitCreated(ctx context.Context, res *model.Reservation) {
    ev := queue.BookingCreatedEvent{
        ReservationID: res.ID,
        RequesterID:   res.RequesterID,
        LotID:         res.Spot.LotID,
        SpotID:        res.Spot.SpotID,
        Start:         res.Start.Format(time.RFC3339),
        End:           res.End.Format(time.RFC3339),
    }
    if res.ExpiresAt != nil {
        ev.ExpiresAt = res.ExpiresAt.Format(time.RFC3339)
    }
    e.sink.BookingCreated(ctx, ev)
}
