package middleware // contains reusable HTTP middleware functions

import (
    "fmt"
    "net/http"
    "strings"

    "github.com/golang-jwt/jwt/v5" // JWT library for parsing and validating tokens
    "github.com/labstack/echo/v4"  // Echo framework used for defining middleware and handlers
)

// RequesterAuth returns an Echo middleware that validates a Bearer access
// token issued by the external identity service and injects the token's
// subject into the request context as the opaque requester id, along with
// the role claim.  Handlers read them via c.Get("requester_id") and
// c.Get("role"); token issuance and account management live entirely in
// the identity service.
func RequesterAuth(secret string) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            auth := c.Request().Header.Get("Authorization")
            if !strings.HasPrefix(auth, "Bearer ") {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
            }
            raw := strings.TrimPrefix(auth, "Bearer ")

            // Only HS256 tokens signed with our shared secret are accepted.
            tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
                if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
                    return nil, echo.ErrUnauthorized
                }
                return []byte(secret), nil
            })
            if err != nil || !tok.Valid {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
            }

            claims, ok := tok.Claims.(jwt.MapClaims)
            if !ok {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid claims"})
            }

            requester := subjectString(claims)
            if requester == "" {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "token has no subject"})
            }
            c.Set("requester_id", requester)
            if role, ok := claims["role"].(string); ok {
                c.Set("role", role)
            }
            return next(c)
        }
    }
}

// subjectString normalizes the sub claim to a string.  Identity services in
// front of this one issue either string or numeric subjects.
func subjectString(claims jwt.MapClaims) string {
    switch v := claims["sub"].(type) {
    case string:
        return v
    case float64:
        return fmt.Sprintf("%.0f", v)
    }
    if v, ok := claims["user_id"].(string); ok {
        return v
    }
    return ""
}
