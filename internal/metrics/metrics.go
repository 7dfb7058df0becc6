package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Reservation outcomes used as the "result" label.
const (
	ResultConfirmed = "confirmed"
	ResultConflict  = "conflict"
	ResultInvalid   = "invalid"
	ResultNotFound  = "not_found"
	ResultError     = "error"
)

var (
	reservations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "booking_reservations_total",
			Help: "Reservation attempts by outcome",
		},
		[]string{"result"},
	)

	seatsReserved = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "booking_seats_reserved_total",
			Help: "Seats reserved by confirmed bookings",
		},
	)

	seatsReleased = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "booking_seats_released_total",
			Help: "Seats released by cancelled bookings",
		},
	)

	transitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "booking_status_transitions_total",
			Help: "Booking status changes after confirmation",
		},
		[]string{"to"},
	)

	reserveDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "booking_reserve_duration_seconds",
			Help:    "Time spent persisting a reservation",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		},
	)

	httpRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by route and status code",
		},
		[]string{"method", "route", "code"},
	)

	httpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency by route",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

// TrackReservation records one reservation attempt.
func TrackReservation(result string, seats int, took time.Duration) {
	reservations.WithLabelValues(result).Inc()
	reserveDuration.Observe(took.Seconds())
	if result == ResultConfirmed {
		seatsReserved.Add(float64(seats))
	}
}

// TrackTransition records a post-confirmation status change.  released is
// the number of seats returned to the pool.
func TrackTransition(to string, released int) {
	transitions.WithLabelValues(to).Inc()
	if released > 0 {
		seatsReleased.Add(float64(released))
	}
}

// Handler exposes the default registry.
func Handler() http.Handler { return promhttp.Handler() }

// Middleware counts requests per route template so that path parameters
// do not explode the label space.
func Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			code := c.Response().Status
			if he, ok := err.(*echo.HTTPError); ok {
				code = he.Code
			}
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			httpRequests.WithLabelValues(c.Request().Method, route, strconv.Itoa(code)).Inc()
			httpDuration.WithLabelValues(c.Request().Method, route).Observe(time.Since(start).Seconds())
			return err
		}
	}
}
