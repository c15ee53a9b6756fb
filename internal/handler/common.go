package handler // handler defines http handlers

import (
    "errors"
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/parking-spot-reservation/internal/model"
)

// requesterID extracts the requester identity injected by the auth
// middleware.  Identity is opaque to this service: it is never parsed,
// only compared and forwarded.
func requesterID(c echo.Context) (string, error) {
    if v, ok := c.Get("requester_id").(string); ok && v != "" {
        return v, nil
    }
    return "", errors.New("missing requester_id in context")
}

// isAdmin reports whether the auth middleware resolved an admin role.
func isAdmin(c echo.Context) bool {
    role, _ := c.Get("role").(string)
    return role == "ADMIN"
}

// writeError maps the engine's sentinel errors onto HTTP statuses.  A
// conflict never reaches here: the engine consumes it by waitlisting.
func writeError(c echo.Context, err error) error {
    switch {
    case errors.Is(err, model.ErrInvalidWindow):
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking window"})
    case errors.Is(err, model.ErrNotFound):
        return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
    case errors.Is(err, model.ErrWrongState):
        return c.JSON(http.StatusConflict, echo.Map{"error": "operation not allowed in current state"})
    case errors.Is(err, model.ErrStorageUnavailable):
        return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "storage unavailable, retry later"})
    default:
        // Includes model.ErrInternal: the invariant breach is already
        // logged where it was detected; the caller only sees a 500.
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
    }
}
