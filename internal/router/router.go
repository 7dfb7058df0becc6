package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/movie-ticket-booking/internal/config"
	"github.com/iliyamo/movie-ticket-booking/internal/handler"
	"github.com/iliyamo/movie-ticket-booking/internal/metrics"
	"github.com/iliyamo/movie-ticket-booking/internal/middleware"
)

// Deps are the handlers and infrastructure the routes are wired to.  Redis
// may be nil, which disables the rate limiter and the response cache.
type Deps struct {
	Health    echo.HandlerFunc
	Public    *handler.PublicHandler
	Bookings  *handler.BookingHandler
	Admin     *handler.AdminHandler
	JWTSecret string
	Redis     *redis.Client
	Cache     config.CacheConfig
	RateLimit config.RateLimitConfig
	Metrics   bool
	Log       logrus.FieldLogger
}

// Register mounts every route on e.
func Register(e *echo.Echo, d Deps) {
	if d.Metrics {
		e.Use(metrics.Middleware())
		e.GET("/metrics", echo.WrapHandler(metrics.Handler()))
	}
	e.GET("/healthz", d.Health)

	v1 := e.Group("/v1", middleware.NewTokenBucket(d.RateLimit, d.Redis, d.Log))
	registerPublic(v1, d)
	registerUser(v1, d)
	registerAdmin(v1, d)
}

// registerPublic mounts the unauthenticated catalog.  Catalog listings go
// through the response cache; seat maps and quotes always hit the store.
func registerPublic(g *echo.Group, d Deps) {
	cache := middleware.NewRedisCache(d.Cache, d.Redis, d.Log)
	h := d.Public

	g.GET("/movies", h.ListMovies, cache)
	g.GET("/movies/:id", h.GetMovie, cache)
	g.GET("/showtimes", h.ListShowtimes, cache)
	g.GET("/showtimes/:id", h.GetShowtime, cache)
	g.GET("/theatres", h.ListTheatres, cache)

	g.GET("/showtimes/:id/seats", h.SeatMap)
	g.POST("/showtimes/:id/quote", h.Quote)
}
