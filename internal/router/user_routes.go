package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movie-ticket-booking/internal/middleware"
)

// registerUser mounts the booking endpoints.  They share the /v1 prefix
// with the public routes, so authentication is attached per route rather
// than on a group.
func registerUser(g *echo.Group, d Deps) {
	auth := []echo.MiddlewareFunc{
		middleware.JWTAuth(d.JWTSecret),
		middleware.RequireRole(middleware.RoleUser, middleware.RoleAdmin),
	}
	h := d.Bookings

	g.POST("/showtimes/:id/bookings", h.Create, auth...)
	g.GET("/my-bookings", h.MyBookings, auth...)
	g.GET("/bookings/:id", h.Get, auth...)
	g.DELETE("/bookings/:id", h.Cancel, auth...)
}
