package model

import "errors"

// Sentinel errors shared by the ledger, waitlist and engine.  Handlers map
// these onto HTTP statuses with errors.Is; everything else is treated as an
// internal failure.
var (
    // ErrConflict signals that the requested interval overlaps an active
    // reservation.  It is expected control flow, not a failure: the engine
    // consumes it to fall back to waitlisting and it must never be logged
    // as an error or surfaced to callers.
    ErrConflict = errors.New("interval conflicts with an active reservation")

    // ErrInvalidWindow signals a malformed interval (start >= end, or start
    // already in the past).
    ErrInvalidWindow = errors.New("invalid booking window")

    // ErrNotFound signals an unknown reservation, waitlist entry, lot or spot.
    ErrNotFound = errors.New("not found")

    // ErrWrongState signals a transition that the current state does not
    // admit, such as confirming a cancelled reservation or cancelling after
    // the interval has started.
    ErrWrongState = errors.New("operation not allowed in current state")

    // ErrStorageUnavailable signals a transient infrastructure failure.
    // Callers may retry; this service performs no silent retries itself.
    ErrStorageUnavailable = errors.New("storage unavailable")

    // ErrInternal signals a broken invariant, e.g. two overlapping active
    // reservations observed on one spot.  It aborts the affected operation
    // and must be logged loudly wherever it surfaces.
    ErrInternal = errors.New("internal invariant violation")
)
