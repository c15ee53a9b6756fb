package model

import "time"

// WaitlistState enumerates the lifecycle states of a waitlist entry.
type WaitlistState string

const (
    // WaitlistWaiting means the entry is queued and eligible for promotion.
    WaitlistWaiting WaitlistState = "WAITING"
    // WaitlistPromoted means the entry was converted into a reservation.
    WaitlistPromoted WaitlistState = "PROMOTED"
    // WaitlistCancelled means the requester withdrew the entry.
    WaitlistCancelled WaitlistState = "CANCELLED"
    // WaitlistExpired means the desired start passed before a promotion
    // opportunity arose; the window can no longer be honored.
    WaitlistExpired WaitlistState = "EXPIRED"
)

// WaitlistEntry records a booking request that could not be satisfied
// immediately.  An entry waits either for one specific spot (SpotID set)
// or for any spot in the lot (SpotID nil).
//
// Fields:
//  ID          – unique entry identifier (UUID).
//  LotID       – lot the entry waits in.
//  SpotID      – specific spot, or nil for "any spot in lot".
//  RequesterID – opaque requester identity.
//  Start       – inclusive start of the desired interval (UTC).
//  End         – exclusive end of the desired interval (UTC).
//  State       – current lifecycle state.
//  EnqueuedAt  – when the entry was enqueued (UTC).
//  Seq         – per-lot insertion sequence; FIFO order is assigned by the
//                atomic insert, so Seq is the authoritative ordering key
//                even when two entries share an EnqueuedAt timestamp.
type WaitlistEntry struct {
    ID          string        `json:"id"`
    LotID       uint64        `json:"lot_id"`
    SpotID      *uint64       `json:"spot_id,omitempty"`
    RequesterID string        `json:"requester_id"`
    Start       time.Time     `json:"start"`
    End         time.Time     `json:"end"`
    State       WaitlistState `json:"state"`
    EnqueuedAt  time.Time     `json:"enqueued_at"`
    Seq         uint64        `json:"-"`
}

// AnySpot reports whether the entry waits for any spot in its lot.
func (e *WaitlistEntry) AnySpot() bool { return e.SpotID == nil }

// WantsSpot reports whether the entry could be satisfied by the given spot.
func (e *WaitlistEntry) WantsSpot(spotID uint64) bool {
    return e.SpotID == nil || *e.SpotID == spotID
}

// OverlapsWindow reports whether the entry's desired interval intersects
// [start, end) under half-open semantics.
func (e *WaitlistEntry) OverlapsWindow(start, end time.Time) bool {
    return e.Start.Before(end) && start.Before(e.End)
}

// CompetesWith reports whether two entries contend for the same capacity:
// their windows overlap and they target the same spot, or either side waits
// for any spot in the shared lot.
func (e *WaitlistEntry) CompetesWith(o *WaitlistEntry) bool {
    if e.LotID != o.LotID {
        return false
    }
    if !e.OverlapsWindow(o.Start, o.End) {
        return false
    }
    if e.SpotID != nil && o.SpotID != nil {
        return *e.SpotID == *o.SpotID
    }
    return true
}
