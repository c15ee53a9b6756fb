package router // package router defines how HTTP routes are registered for the API

import (
    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"

    "github.com/iliyamo/parking-spot-reservation/internal/config"
    "github.com/iliyamo/parking-spot-reservation/internal/handler"
    "github.com/iliyamo/parking-spot-reservation/internal/middleware"
)

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
    e.GET("/healthz", handler.Health)
}

// RegisterBooking registers the booking API under /v1.  All routes require
// a valid access token; the auth middleware injects the opaque requester
// id that the engine and handlers work with.  The Redis token bucket
// shields the contended booking path; rdb may be nil, which disables it.
func RegisterBooking(e *echo.Echo, h *handler.BookingHandler, jwtSecret string, rlCfg config.RateLimitConfig, rdb *redis.Client) {
    v1 := e.Group("/v1")
    v1.Use(middleware.RequesterAuth(jwtSecret))
    v1.Use(middleware.NewTokenBucket(rlCfg, rdb))

    // Booking lifecycle.  Requests never silently disappear: each call
    // resolves to booked, waitlisted or an explicit rejection.
    v1.POST("/lots/:id/bookings", h.RequestBooking)
    v1.GET("/bookings/:id", h.GetBooking)
    v1.POST("/bookings/:id/confirm", h.ConfirmBooking)
    v1.DELETE("/bookings/:id", h.CancelBooking)

    // Waitlist entries created by the fallback path.
    v1.GET("/waitlist/:id/position", h.WaitlistPosition)
    v1.DELETE("/waitlist/:id", h.CancelWaitlistEntry)
}
