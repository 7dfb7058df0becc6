// Package handler exposes the HTTP API.  This file defines the public
// browsing endpoints: movies, showtimes, theatres, seat maps and quotes.
// None of them require a token.

package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/movie-ticket-booking/internal/booking"
	"github.com/iliyamo/movie-ticket-booking/internal/catalog"
	"github.com/iliyamo/movie-ticket-booking/internal/model"
)

// PublicHandler serves unauthenticated catalog reads.
type PublicHandler struct {
	Catalog  *catalog.Service // movies, showtimes and theatres
	Bookings *booking.Service // seat maps and quotes
	Log      logrus.FieldLogger
}

// NewPublicHandler constructs a PublicHandler and panics if a service is nil.
func NewPublicHandler(cat *catalog.Service, bookings *booking.Service, log logrus.FieldLogger) *PublicHandler {
	if cat == nil || bookings == nil {
		panic("nil service passed to NewPublicHandler")
	}
	return &PublicHandler{Catalog: cat, Bookings: bookings, Log: log}
}

// ListMovies handles GET /v1/movies and returns active movies.
func (h *PublicHandler) ListMovies(c echo.Context) error {
	movies, err := h.Catalog.ListMovies(c.Request().Context(), model.MovieFilter{ActiveOnly: true})
	if err != nil {
		return respond(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": movies})
}

// GetMovie handles GET /v1/movies/:id.  Inactive movies are not found.
func (h *PublicHandler) GetMovie(c echo.Context) error {
	m, err := h.Catalog.Movie(c.Request().Context(), c.Param("id"), false)
	if err != nil {
		return respond(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, m)
}

// ListShowtimes handles GET /v1/showtimes?movie_id=&theatre_id=&date=.
// Only open showtimes of active movies are listed.
func (h *PublicHandler) ListShowtimes(c echo.Context) error {
	f := model.ShowtimeFilter{
		MovieID:    strings.TrimSpace(c.QueryParam("movie_id")),   // optional movie filter
		TheatreID:  strings.TrimSpace(c.QueryParam("theatre_id")), // optional theatre filter
		Date:       strings.TrimSpace(c.QueryParam("date")),       // optional YYYY-MM-DD
		ActiveOnly: true,
	}
	items, err := h.Catalog.ListShowtimes(c.Request().Context(), f)
	if err != nil {
		return respond(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// GetShowtime handles GET /v1/showtimes/:id.
func (h *PublicHandler) GetShowtime(c echo.Context) error {
	st, err := h.Catalog.Showtime(c.Request().Context(), c.Param("id"))
	if err != nil {
		return respond(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, st)
}

// SeatMap handles GET /v1/showtimes/:id/seats?selected=A1,A2.  The
// response classifies every seat and lists the booked set.
func (h *PublicHandler) SeatMap(c echo.Context) error {
	sm, err := h.Bookings.SeatMap(c.Request().Context(), c.Param("id"), splitSeats(c.QueryParam("selected")))
	if err != nil {
		return respond(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, sm)
}

// Quote handles POST /v1/showtimes/:id/quote with {"seats": [...]} and
// prices the selection without reserving it.
func (h *PublicHandler) Quote(c echo.Context) error {
	var body struct {
		Seats []string `json:"seats"`
	}
	if err := c.Bind(&body); err != nil {
		return badBody(c)
	}
	q, err := h.Bookings.Quote(c.Request().Context(), c.Param("id"), body.Seats)
	if err != nil {
		return respond(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, q)
}

// ListTheatres handles GET /v1/theatres.
func (h *PublicHandler) ListTheatres(c echo.Context) error {
	items, err := h.Catalog.ListTheatres(c.Request().Context())
	if err != nil {
		return respond(c, h.Log, err)
	}
	out := make([]publicTheatre, 0, len(items))
	for _, t := range items {
		out = append(out, publicTheatre{Theatre: t, TotalSeats: t.TotalSeats()})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// publicTheatre adds the derived seat count to a theatre.
type publicTheatre struct {
	model.Theatre
	TotalSeats int `json:"total_seats"`
}

// splitSeats parses a comma separated seat list, dropping empty entries.
func splitSeats(raw string) []string {
	var out []string
	for _, s := range strings.Split(raw, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// queryBool reads an optional boolean query parameter.
func queryBool(c echo.Context, name string, def bool) bool {
	v, err := strconv.ParseBool(c.QueryParam(name))
	if err != nil {
		return def
	}
	return v
}
