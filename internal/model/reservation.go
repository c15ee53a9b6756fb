package model

import "time"

// ReservationState enumerates the lifecycle states of a reservation.
type ReservationState string

const (
    // ReservationProvisional is the initial state: the interval is claimed
    // but payment has not been confirmed yet.  A provisional reservation
    // carries an ExpiresAt deadline and is expired by the sweep when the
    // deadline passes without confirmation.
    ReservationProvisional ReservationState = "PROVISIONAL"
    // ReservationConfirmed means payment was confirmed before the hold
    // expired.  The interval stays allocated until it is completed or
    // cancelled before start.
    ReservationConfirmed ReservationState = "CONFIRMED"
    // ReservationCompleted marks a confirmed reservation whose end has
    // passed.  Bookkeeping only; the interval no longer affects checks.
    ReservationCompleted ReservationState = "COMPLETED"
    // ReservationExpired marks a provisional reservation that was never
    // confirmed before ExpiresAt.  Terminal; the interval is freed.
    ReservationExpired ReservationState = "EXPIRED"
    // ReservationCancelled marks an explicit cancellation before start.
    // Terminal; the interval is freed.
    ReservationCancelled ReservationState = "CANCELLED"
)

// Active reports whether the reservation still occupies its interval.
// Only PROVISIONAL and CONFIRMED reservations count for overlap checks.
func (s ReservationState) Active() bool {
    return s == ReservationProvisional || s == ReservationConfirmed
}

// Terminal reports whether the state admits no further transitions.
func (s ReservationState) Terminal() bool {
    return s == ReservationCompleted || s == ReservationExpired || s == ReservationCancelled
}

// Reservation is a committed or provisional claim on one spot for the
// half-open interval [Start, End).  End itself is excluded, so back-to-back
// reservations on the same spot are legal.
//
// Fields:
//  ID          – unique reservation identifier (UUID).
//  Spot        – spot being reserved.
//  RequesterID – opaque requester identity supplied by the caller.
//  Start       – inclusive start of the reserved interval (UTC).
//  End         – exclusive end of the reserved interval (UTC).
//  State       – current lifecycle state.
//  CreatedAt   – when the reservation was created (UTC).
//  ConfirmedAt – when payment was confirmed; nil until then.
//  ExpiresAt   – provisional-hold deadline; nil once confirmed or terminal.
type Reservation struct {
    ID          string           `json:"id"`
    Spot        SpotRef          `json:"spot"`
    RequesterID string           `json:"requester_id"`
    Start       time.Time        `json:"start"`
    End         time.Time        `json:"end"`
    State       ReservationState `json:"state"`
    CreatedAt   time.Time        `json:"created_at"`
    ConfirmedAt *time.Time       `json:"confirmed_at,omitempty"`
    ExpiresAt   *time.Time       `json:"expires_at,omitempty"`
}

// Overlaps reports whether the reservation's interval intersects
// [start, end) under half-open semantics.
func (r *Reservation) Overlaps(start, end time.Time) bool {
    return r.Start.Before(end) && start.Before(r.End)
}
