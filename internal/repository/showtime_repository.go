package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/movie-ticket-booking/internal/database"
	"github.com/iliyamo/movie-ticket-booking/internal/model"
)

// ShowtimeRepo manages persistence for showtimes.  Reads always join the
// movie and theatre so callers get the geometry and prices in one trip.
type ShowtimeRepo struct {
	db *sqlx.DB
}

// NewShowtimeRepo constructs a ShowtimeRepo with the given DB handle.
func NewShowtimeRepo(db *sqlx.DB) *ShowtimeRepo { return &ShowtimeRepo{db: db} }

// CreateShowtime inserts st.  Unknown movie or theatre ids surface as
// NotFound through the foreign keys.
func (r *ShowtimeRepo) CreateShowtime(ctx context.Context, st *model.Showtime) error {
	const q = `INSERT INTO showtimes (id, movie_id, theatre_id, show_date, show_time, base_price, premium_price,
                                      is_active, created_at, updated_at)
               VALUES (:id, :movie_id, :theatre_id, :show_date, :show_time, :base_price, :premium_price,
                       :is_active, :created_at, :updated_at)`
	_, err := r.db.NamedExecContext(ctx, q, st)
	return translate(err, "showtime")
}

// ShowtimeDetail fetches one showtime with its movie and theatre.
func (r *ShowtimeRepo) ShowtimeDetail(ctx context.Context, id string) (*model.ShowtimeDetail, error) {
	q := `SELECT ` + showtimeDetailSelect("") + ` FROM showtimes s` + showtimeJoins + ` WHERE s.id = ?`
	var d model.ShowtimeDetail
	if err := r.db.GetContext(ctx, &d, q, id); err != nil {
		return nil, translate(err, "showtime")
	}
	return &d, nil
}

// ListShowtimes returns showtimes in screening order.  ActiveOnly also
// hides showtimes of inactive movies.
func (r *ShowtimeRepo) ListShowtimes(ctx context.Context, f model.ShowtimeFilter) ([]model.ShowtimeDetail, error) {
	var (
		where []string
		args  []any
	)
	if f.MovieID != "" {
		where = append(where, "s.movie_id = ?")
		args = append(args, f.MovieID)
	}
	if f.TheatreID != "" {
		where = append(where, "s.theatre_id = ?")
		args = append(args, f.TheatreID)
	}
	if f.Date != "" {
		where = append(where, "s.show_date = ?")
		args = append(args, f.Date)
	}
	if f.ActiveOnly {
		where = append(where, "s.is_active = 1", "m.is_active = 1")
	}
	q := `SELECT ` + showtimeDetailSelect("") + ` FROM showtimes s` + showtimeJoins
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	q += ` ORDER BY s.show_date, s.show_time, s.id`

	out := []model.ShowtimeDetail{}
	if err := r.db.SelectContext(ctx, &out, q, args...); err != nil {
		return nil, translate(err, "showtime")
	}
	return out, nil
}

// UpdateShowtime writes every mutable column of st.  The stored row is
// read FOR UPDATE, and moving a showtime with booked seats to another
// theatre is refused.
func (r *ShowtimeRepo) UpdateShowtime(ctx context.Context, st *model.Showtime) error {
	err := database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var theatreID string
		if err := tx.GetContext(ctx, &theatreID, `SELECT theatre_id FROM showtimes WHERE id = ? FOR UPDATE`, st.ID); err != nil {
			return translate(err, "showtime")
		}
		if theatreID != st.TheatreID {
			var busy bool
			if err := tx.GetContext(ctx, &busy, `SELECT EXISTS (SELECT 1 FROM booking_seats WHERE showtime_id = ?)`, st.ID); err != nil {
				return translate(err, "showtime")
			}
			if busy {
				return fmt.Errorf("%w: showtime with bookings cannot move to another theatre", model.ErrConflict)
			}
		}
		const qUpdate = `UPDATE showtimes SET movie_id = :movie_id, theatre_id = :theatre_id, show_date = :show_date,
                         show_time = :show_time, base_price = :base_price, premium_price = :premium_price,
                         is_active = :is_active, updated_at = :updated_at
                         WHERE id = :id`
		_, err := tx.NamedExecContext(ctx, qUpdate, st)
		return translate(err, "showtime")
	})
	return classified(err)
}

// DeleteShowtime removes a showtime without bookings.  Bookings of any
// status keep the row alive through fk_booking_showtime.
func (r *ShowtimeRepo) DeleteShowtime(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM showtimes WHERE id = ?`, id)
	if err != nil {
		return translate(err, "showtime")
	}
	return ensureAffected(ctx, r.db, res, "showtimes", id, "showtime")
}
