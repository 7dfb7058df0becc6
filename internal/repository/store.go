package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/movie-ticket-booking/internal/model"
)

// Store bundles the per-entity repositories into the booking.Store and
// catalog.Store implementations.
type Store struct {
	*TheatreRepo
	*MovieRepo
	*ShowtimeRepo
	*BookingRepo

	db *sqlx.DB
}

// New returns a store on db.
func New(db *sqlx.DB) *Store {
	return &Store{
		TheatreRepo:  NewTheatreRepo(db),
		MovieRepo:    NewMovieRepo(db),
		ShowtimeRepo: NewShowtimeRepo(db),
		BookingRepo:  NewBookingRepo(db),
		db:           db,
	}
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return translate(err, "database")
	}
	return nil
}

// prefixed renders "alias.col AS `prefix.col`" for every column, the
// naming sqlx uses to scan into nested structs.
func prefixed(alias, prefix string, cols ...string) string {
	parts := make([]string, len(cols))
	for i, c := range cols {
		expr := alias + "." + c
		switch c {
		case "show_date":
			expr = "DATE_FORMAT(" + expr + ", '%Y-%m-%d')"
		case "show_time":
			expr = "TIME_FORMAT(" + expr + ", '%H:%i')"
		case "release_date":
			expr = "DATE_FORMAT(" + expr + ", '%Y-%m-%d')"
		}
		name := c
		if prefix != "" {
			name = prefix + "." + c
		}
		parts[i] = expr + " AS `" + name + "`"
	}
	return strings.Join(parts, ", ")
}

var (
	theatreCols  = []string{"id", "name", "location", "city", "total_rows", "seats_per_row", "premium_rows", "created_at", "updated_at"}
	movieCols    = []string{"id", "title", "description", "genre", "duration_minutes", "poster_url", "rating", "language", "release_date", "is_active", "created_at", "updated_at"}
	showtimeCols = []string{"id", "movie_id", "theatre_id", "show_date", "show_time", "base_price", "premium_price", "is_active", "created_at", "updated_at"}
	bookingCols  = []string{"id", "showtime_id", "user_id", "seats", "total_amount", "payment_status", "booking_status", "ticket_code", "created_at", "updated_at"}
)

// showtimeDetailSelect selects a showtime joined with its movie and
// theatre.  prefix nests the whole detail under another struct field.
func showtimeDetailSelect(prefix string) string {
	join := func(p string) string {
		if prefix == "" {
			return p
		}
		if p == "" {
			return prefix
		}
		return prefix + "." + p
	}
	return strings.Join([]string{
		prefixed("s", join(""), showtimeCols...),
		prefixed("m", join("movie"), movieCols...),
		prefixed("t", join("theatre"), theatreCols...),
	}, ", ")
}

const showtimeJoins = ` JOIN movies m ON m.id = s.movie_id JOIN theatres t ON t.id = s.theatre_id`

// ensureAffected turns a zero-row UPDATE or DELETE into NotFound when the
// row is missing.  MySQL reports zero affected rows for an UPDATE that
// changes nothing, so existence is checked before giving up.
func ensureAffected(ctx context.Context, db sqlx.QueryerContext, res sql.Result, table, id, entity string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return translate(err, entity)
	}
	if n > 0 {
		return nil
	}
	var found bool
	if err := sqlx.GetContext(ctx, db, &found, `SELECT EXISTS (SELECT 1 FROM `+table+` WHERE id = ?)`, id); err != nil {
		return translate(err, entity)
	}
	if !found {
		return model.NotFound(entity)
	}
	return nil
}
