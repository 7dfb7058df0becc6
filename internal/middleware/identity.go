package middleware

// identity.go holds the context keys JWTAuth fills in and the helpers
// handlers and the rate limiter use to read them back.

import (
	"github.com/labstack/echo/v4"
)

// Roles carried in the JWT "role" claim, upper-cased by JWTAuth.
const (
	RoleAdmin = "ADMIN"
	RoleUser  = "USER"
)

const (
	ctxUserID = "user_id"
	ctxRole   = "role"
)

// UserID returns the authenticated subject, or "" for anonymous requests.
func UserID(c echo.Context) string {
	if s, ok := c.Get(ctxUserID).(string); ok {
		return s
	}
	return ""
}

// Role returns the authenticated role, or "" for anonymous requests.
func Role(c echo.Context) string {
	if s, ok := c.Get(ctxRole).(string); ok {
		return s
	}
	return ""
}

// IsAdmin reports whether the caller holds the ADMIN role.
func IsAdmin(c echo.Context) bool { return Role(c) == RoleAdmin }

// rateSubject identifies the caller for rate limiting; anonymous callers
// share one bucket per IP.
func rateSubject(c echo.Context) string {
	if id := UserID(c); id != "" {
		return id
	}
	return "anon"
}
