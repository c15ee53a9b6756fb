package handler

import (
    "net/http"
    "strconv"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/parking-spot-reservation/internal/engine"
)

// BookingHandler exposes the reservation engine over HTTP.  Authentication
// has already been resolved by middleware; handlers only read the injected
// requester id and enforce ownership on mutations.
type BookingHandler struct {
    Engine *engine.Engine
}

// NewBookingHandler constructs a BookingHandler.
func NewBookingHandler(e *engine.Engine) *BookingHandler {
    if e == nil {
        panic("nil engine passed to NewBookingHandler")
    }
    return &BookingHandler{Engine: e}
}

// bookingRequestBody is the JSON body of POST /v1/lots/:id/bookings.  A
// missing spot_id requests any spot in the lot.
type bookingRequestBody struct {
    SpotID *uint64   `json:"spot_id,omitempty"`
    Start  time.Time `json:"start"`
    End    time.Time `json:"end"`
}

// RequestBooking handles POST /v1/lots/:id/bookings.  Every request yields
// exactly one of: 201 with the provisional reservation, 202 with the
// waitlist entry and its position, or a 4xx/5xx rejection.
func (h *BookingHandler) RequestBooking(c echo.Context) error {
    requester, err := requesterID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    lotID, err := strconv.ParseUint(c.Param("id"), 10, 64)
    if err != nil || lotID == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid lot id"})
    }

    var body bookingRequestBody
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    if body.Start.IsZero() || body.End.IsZero() {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "start and end are required"})
    }

    outcome, err := h.Engine.RequestBooking(c.Request().Context(), engine.BookingRequest{
        LotID:       lotID,
        SpotID:      body.SpotID,
        Start:       body.Start,
        End:         body.End,
        RequesterID: requester,
    })
    if err != nil {
        return writeError(c, err)
    }

    if outcome.Status == engine.StatusBooked {
        return c.JSON(http.StatusCreated, echo.Map{
            "status":      outcome.Status,
            "reservation": outcome.Reservation,
        })
    }
    return c.JSON(http.StatusAccepted, echo.Map{
        "status":   outcome.Status,
        "entry_id": outcome.Entry.ID,
        "position": outcome.Position,
    })
}

// ConfirmBooking handles POST /v1/bookings/:id/confirm.  Called by the
// payment collaborator once capture succeeds; retries are safe because
// confirmation is idempotent.
func (h *BookingHandler) ConfirmBooking(c echo.Context) error {
    if _, err := requesterID(c); err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    res, err := h.Engine.ConfirmPayment(c.Request().Context(), c.Param("id"))
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"reservation": res})
}

// GetBooking handles GET /v1/bookings/:id for the owning requester or an
// admin.
func (h *BookingHandler) GetBooking(c echo.Context) error {
    requester, err := requesterID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    res, err := h.Engine.GetBooking(c.Param("id"))
    if err != nil {
        return writeError(c, err)
    }
    if res.RequesterID != requester && !isAdmin(c) {
        return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
    }
    return c.JSON(http.StatusOK, echo.Map{"reservation": res})
}

// CancelBooking handles DELETE /v1/bookings/:id.  Only the owning requester
// or an admin may cancel, and only before the reserved interval starts.
// The freed interval is offered to the waitlist before the response is
// written.
func (h *BookingHandler) CancelBooking(c echo.Context) error {
    requester, err := requesterID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    id := c.Param("id")

    res, err := h.Engine.GetBooking(id)
    if err != nil {
        return writeError(c, err)
    }
    if res.RequesterID != requester && !isAdmin(c) {
        return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
    }

    cancelled, err := h.Engine.CancelBooking(c.Request().Context(), id)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"reservation": cancelled})
}
