package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movie-ticket-booking/internal/middleware"
)

// registerAdmin mounts the ADMIN-only catalog management and booking
// oversight endpoints under /v1/admin.
func registerAdmin(v1 *echo.Group, d Deps) {
	g := v1.Group("/admin", middleware.JWTAuth(d.JWTSecret), middleware.RequireRole(middleware.RoleAdmin))
	h := d.Admin

	// ---- Theatres ----
	g.POST("/theatres", h.CreateTheatre)
	g.GET("/theatres", h.ListTheatres)
	g.GET("/theatres/:id", h.GetTheatre)
	g.PUT("/theatres/:id", h.UpdateTheatre)
	g.PATCH("/theatres/:id", h.UpdateTheatre)
	g.DELETE("/theatres/:id", h.DeleteTheatre)

	// ---- Movies ----
	g.POST("/movies", h.CreateMovie)
	g.GET("/movies", h.ListMovies)
	g.GET("/movies/:id", h.GetMovie)
	g.PUT("/movies/:id", h.UpdateMovie)
	g.PATCH("/movies/:id", h.UpdateMovie)
	g.DELETE("/movies/:id", h.DeleteMovie)

	// ---- Showtimes ----
	g.POST("/showtimes", h.CreateShowtime)
	g.GET("/showtimes", h.ListShowtimes)
	g.GET("/showtimes/:id", h.GetShowtime)
	g.PUT("/showtimes/:id", h.UpdateShowtime)
	g.PATCH("/showtimes/:id", h.UpdateShowtime)
	g.DELETE("/showtimes/:id", h.DeleteShowtime)
	g.GET("/showtimes/:id/bookings", h.ShowtimeBookings)

	// ---- Bookings ----
	g.GET("/bookings", h.ListBookings)
	g.POST("/bookings/:id/cancel", h.CancelBooking)
	g.POST("/bookings/:id/complete", h.CompleteBooking)
}
