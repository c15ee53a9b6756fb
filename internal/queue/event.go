// Package queue defines message payloads exchanged over the message broker.
package queue

// Event kinds published on the booking.events queue.  Delivery is
// at-least-once and fire-and-forget; consumers must be idempotent on the
// reservation or entry id.
const (
    KindBookingCreated    = "booking.created"
    KindBookingConfirmed  = "booking.confirmed"
    KindBookingCancelled  = "booking.cancelled"
    KindBookingExpired    = "booking.expired"
    KindWaitlisted        = "waitlist.enqueued"
    KindWaitlistPromoted  = "waitlist.promoted"
)

// Envelope wraps every published payload with its kind so consumers can
// dispatch without probing fields.
type Envelope struct {
    Kind       string `json:"kind"`
    OccurredAt string `json:"occurred_at"` // RFC 3339, UTC
    Payload    any    `json:"payload"`
}

// BookingCreatedEvent is published when a provisional reservation is
// committed, either from a direct booking or a waitlist promotion.
// Downstream it triggers the payment prompt for the requester.
type BookingCreatedEvent struct {
    ReservationID string `json:"reservation_id"`
    RequesterID   string `json:"requester_id"`
    LotID         uint64 `json:"lot_id"`
    SpotID        uint64 `json:"spot_id"`
    Start         string `json:"start"`
    End           string `json:"end"`
    ExpiresAt     string `json:"expires_at"`
}

// BookingConfirmedEvent is published when payment confirmation lands before
// the provisional hold expires.
type BookingConfirmedEvent struct {
    ReservationID string `json:"reservation_id"`
}

// BookingCancelledEvent is published on explicit cancellation before start.
type BookingCancelledEvent struct {
    ReservationID string `json:"reservation_id"`
}

// BookingExpiredEvent is published when the sweep expires an unconfirmed
// provisional reservation.
type BookingExpiredEvent struct {
    ReservationID string `json:"reservation_id"`
}

// WaitlistedEvent is published when a booking request falls back to the
// waitlist.  Position is the 1-based rank at enqueue time.
type WaitlistedEvent struct {
    EntryID     string `json:"entry_id"`
    RequesterID string `json:"requester_id"`
    LotID       uint64 `json:"lot_id"`
    Position    int    `json:"position"`
}

// WaitlistPromotedEvent is published when a waiting entry is converted into
// a fresh provisional reservation.
type WaitlistPromotedEvent struct {
    EntryID       string `json:"entry_id"`
    ReservationID string `json:"reservation_id"`
    RequesterID   string `json:"requester_id"`
}
