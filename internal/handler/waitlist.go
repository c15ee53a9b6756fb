package handler

import (
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/parking-spot-reservation/internal/model"
)

// WaitlistPosition handles GET /v1/waitlist/:id/position.  Position is
// derived on demand: the 1-based rank among WAITING entries competing for
// the same capacity.
func (h *BookingHandler) WaitlistPosition(c echo.Context) error {
    requester, err := requesterID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    id := c.Param("id")

    entry, err := h.Engine.GetWaitlistEntry(id)
    if err != nil {
        return writeError(c, err)
    }
    if entry.RequesterID != requester && !isAdmin(c) {
        return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
    }

    // A settled entry has no rank; report its terminal state instead of 409.
    if entry.State != model.WaitlistWaiting {
        return c.JSON(http.StatusOK, echo.Map{
            "entry_id": id,
            "state":    entry.State,
        })
    }

    pos, err := h.Engine.WaitlistPosition(id)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{
        "entry_id": id,
        "state":    entry.State,
        "position": pos,
    })
}

// CancelWaitlistEntry handles DELETE /v1/waitlist/:id: the owning requester
// (or an admin) withdraws a WAITING entry.
func (h *BookingHandler) CancelWaitlistEntry(c echo.Context) error {
    requester, err := requesterID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    id := c.Param("id")

    entry, err := h.Engine.GetWaitlistEntry(id)
    if err != nil {
        return writeError(c, err)
    }
    if entry.RequesterID != requester && !isAdmin(c) {
        return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
    }

    if err := h.Engine.CancelWaitlistEntry(c.Request().Context(), id); err != nil {
        return writeError(c, err)
    }
    return c.NoContent(http.StatusNoContent)
}
