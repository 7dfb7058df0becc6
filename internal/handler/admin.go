package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/movie-ticket-booking/internal/booking"
	"github.com/iliyamo/movie-ticket-booking/internal/catalog"
	"github.com/iliyamo/movie-ticket-booking/internal/model"
)

// AdminHandler serves /v1/admin.  RequireRole(ADMIN) guards every route.
type AdminHandler struct {
	Catalog  *catalog.Service
	Bookings *booking.Service
	Log      logrus.FieldLogger
}

// NewAdminHandler constructs an AdminHandler and panics if a service is nil.
func NewAdminHandler(cat *catalog.Service, bookings *booking.Service, log logrus.FieldLogger) *AdminHandler {
	if cat == nil || bookings == nil {
		panic("nil service passed to NewAdminHandler")
	}
	return &AdminHandler{Catalog: cat, Bookings: bookings, Log: log}
}

// ---- theatres ----

func (h *AdminHandler) CreateTheatre(c echo.Context) error {
	var in catalog.TheatreInput
	if err := c.Bind(&in); err != nil {
		return badBody(c)
	}
	t, err := h.Catalog.CreateTheatre(c.Request().Context(), in)
	if err != nil {
		return respond(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, t)
}

func (h *AdminHandler) ListTheatres(c echo.Context) error {
	items, err := h.Catalog.ListTheatres(c.Request().Context())
	if err != nil {
		return respond(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

func (h *AdminHandler) GetTheatre(c echo.Context) error {
	t, err := h.Catalog.Theatre(c.Request().Context(), c.Param("id"))
	if err != nil {
		return respond(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, t)
}

// UpdateTheatre handles PUT/PATCH /v1/admin/theatres/:id.  Omitted fields
// keep their value; geometry changes are refused once seats are booked.
func (h *AdminHandler) UpdateTheatre(c echo.Context) error {
	var in catalog.TheatreInput
	if err := c.Bind(&in); err != nil {
		return badBody(c)
	}
	t, err := h.Catalog.UpdateTheatre(c.Request().Context(), c.Param("id"), in)
	if err != nil {
		return respond(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, t)
}

func (h *AdminHandler) DeleteTheatre(c echo.Context) error {
	if err := h.Catalog.DeleteTheatre(c.Request().Context(), c.Param("id")); err != nil {
		return respond(c, h.Log, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ---- movies ----

func (h *AdminHandler) CreateMovie(c echo.Context) error {
	var in catalog.MovieInput
	if err := c.Bind(&in); err != nil {
		return badBody(c)
	}
	m, err := h.Catalog.CreateMovie(c.Request().Context(), in)
	if err != nil {
		return respond(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, m)
}

// ListMovies includes inactive movies unless ?active=true.
func (h *AdminHandler) ListMovies(c echo.Context) error {
	f := model.MovieFilter{ActiveOnly: queryBool(c, "active", false)}
	items, err := h.Catalog.ListMovies(c.Request().Context(), f)
	if err != nil {
		return respond(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

func (h *AdminHandler) GetMovie(c echo.Context) error {
	m, err := h.Catalog.Movie(c.Request().Context(), c.Param("id"), true)
	if err != nil {
		return respond(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, m)
}

func (h *AdminHandler) UpdateMovie(c echo.Context) error {
	var in catalog.MovieInput
	if err := c.Bind(&in); err != nil {
		return badBody(c)
	}
	m, err := h.Catalog.UpdateMovie(c.Request().Context(), c.Param("id"), in)
	if err != nil {
		return respond(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, m)
}

func (h *AdminHandler) DeleteMovie(c echo.Context) error {
	if err := h.Catalog.DeleteMovie(c.Request().Context(), c.Param("id")); err != nil {
		return respond(c, h.Log, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ---- showtimes ----

func (h *AdminHandler) CreateShowtime(c echo.Context) error {
	var in catalog.ShowtimeInput
	if err := c.Bind(&in); err != nil {
		return badBody(c)
	}
	st, err := h.Catalog.CreateShowtime(c.Request().Context(), in)
	if err != nil {
		return respond(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, st)
}

// ListShowtimes accepts the public filters and lists inactive showtimes too.
func (h *AdminHandler) ListShowtimes(c echo.Context) error {
	f := model.ShowtimeFilter{
		MovieID:   strings.TrimSpace(c.QueryParam("movie_id")),
		TheatreID: strings.TrimSpace(c.QueryParam("theatre_id")),
		Date:      strings.TrimSpace(c.QueryParam("date")),
	}
	items, err := h.Catalog.ListShowtimes(c.Request().Context(), f)
	if err != nil {
		return respond(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

func (h *AdminHandler) GetShowtime(c echo.Context) error {
	st, err := h.Catalog.Showtime(c.Request().Context(), c.Param("id"))
	if err != nil {
		return respond(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, st)
}

func (h *AdminHandler) UpdateShowtime(c echo.Context) error {
	var in catalog.ShowtimeInput
	if err := c.Bind(&in); err != nil {
		return badBody(c)
	}
	st, err := h.Catalog.UpdateShowtime(c.Request().Context(), c.Param("id"), in)
	if err != nil {
		return respond(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, st)
}

func (h *AdminHandler) DeleteShowtime(c echo.Context) error {
	if err := h.Catalog.DeleteShowtime(c.Request().Context(), c.Param("id")); err != nil {
		return respond(c, h.Log, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ---- bookings ----

// ListBookings handles GET /v1/admin/bookings?showtime_id=&user_id=&status=.
func (h *AdminHandler) ListBookings(c echo.Context) error {
	f := model.BookingFilter{
		ShowtimeID: strings.TrimSpace(c.QueryParam("showtime_id")),
		UserID:     strings.TrimSpace(c.QueryParam("user_id")),
		Status:     model.BookingStatus(strings.TrimSpace(c.QueryParam("status"))),
	}
	items, err := h.Bookings.ListAll(c.Request().Context(), f)
	if err != nil {
		return respond(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// ShowtimeBookings handles GET /v1/admin/showtimes/:id/bookings.
func (h *AdminHandler) ShowtimeBookings(c echo.Context) error {
	items, err := h.Bookings.ListByShowtime(c.Request().Context(), c.Param("id"))
	if err != nil {
		return respond(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// CancelBooking handles POST /v1/admin/bookings/:id/cancel.
func (h *AdminHandler) CancelBooking(c echo.Context) error {
	b, err := h.Bookings.Cancel(c.Request().Context(), c.Param("id"), actor(c))
	if err != nil {
		return respond(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, b)
}

// CompleteBooking handles POST /v1/admin/bookings/:id/complete.
func (h *AdminHandler) CompleteBooking(c echo.Context) error {
	b, err := h.Bookings.Complete(c.Request().Context(), c.Param("id"))
	if err != nil {
		return respond(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, b)
}
