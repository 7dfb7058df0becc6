package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/movie-ticket-booking/internal/database"
	"github.com/iliyamo/movie-ticket-booking/internal/model"
	"github.com/iliyamo/movie-ticket-booking/internal/seatmap"
)

// TheatreRepo manages persistence for theatres.
type TheatreRepo struct {
	db *sqlx.DB
}

// NewTheatreRepo constructs a TheatreRepo with the given DB handle.
func NewTheatreRepo(db *sqlx.DB) *TheatreRepo { return &TheatreRepo{db: db} }

// CreateTheatre inserts t.  The caller assigns the id and timestamps.
func (r *TheatreRepo) CreateTheatre(ctx context.Context, t *model.Theatre) error {
	const q = `INSERT INTO theatres (id, name, location, city, total_rows, seats_per_row, premium_rows, created_at, updated_at)
               VALUES (:id, :name, :location, :city, :total_rows, :seats_per_row, :premium_rows, :created_at, :updated_at)`
	_, err := r.db.NamedExecContext(ctx, q, t)
	return translate(err, "theatre")
}

// Theatre fetches a theatre by id.
func (r *TheatreRepo) Theatre(ctx context.Context, id string) (*model.Theatre, error) {
	q := `SELECT ` + prefixed("t", "", theatreCols...) + ` FROM theatres t WHERE t.id = ?`
	var t model.Theatre
	if err := r.db.GetContext(ctx, &t, q, id); err != nil {
		return nil, translate(err, "theatre")
	}
	return &t, nil
}

// ListTheatres returns all theatres ordered by name.
func (r *TheatreRepo) ListTheatres(ctx context.Context) ([]model.Theatre, error) {
	q := `SELECT ` + prefixed("t", "", theatreCols...) + ` FROM theatres t ORDER BY t.name, t.id`
	out := []model.Theatre{}
	if err := r.db.SelectContext(ctx, &out, q); err != nil {
		return nil, translate(err, "theatre")
	}
	return out, nil
}

// UpdateTheatre writes every mutable column of t.  The stored row is read
// FOR UPDATE first, and a change of seat geometry is refused while any
// showtime of the theatre holds booked seats.  Seat claims read the same
// row in share mode, so neither side can act on a stale grid.
func (r *TheatreRepo) UpdateTheatre(ctx context.Context, t *model.Theatre) error {
	err := database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var cur model.Theatre
		q := `SELECT ` + prefixed("t", "", theatreCols...) + ` FROM theatres t WHERE t.id = ? FOR UPDATE`
		if err := tx.GetContext(ctx, &cur, q, t.ID); err != nil {
			return translate(err, "theatre")
		}
		if seatmap.FromTheatre(cur) != seatmap.FromTheatre(*t) {
			var busy bool
			if err := tx.GetContext(ctx, &busy, qTheatreBooked, t.ID); err != nil {
				return translate(err, "theatre")
			}
			if busy {
				return fmt.Errorf("%w: theatre geometry is locked by confirmed bookings", model.ErrConflict)
			}
		}
		const qUpdate = `UPDATE theatres SET name = :name, location = :location, city = :city, total_rows = :total_rows,
                         seats_per_row = :seats_per_row, premium_rows = :premium_rows, updated_at = :updated_at
                         WHERE id = :id`
		_, err := tx.NamedExecContext(ctx, qUpdate, t)
		return translate(err, "theatre")
	})
	return classified(err)
}

// DeleteTheatre removes a theatre.  The foreign key from showtimes turns
// a delete of a scheduled theatre into a conflict.
func (r *TheatreRepo) DeleteTheatre(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM theatres WHERE id = ?`, id)
	if err != nil {
		return translate(err, "theatre")
	}
	return ensureAffected(ctx, r.db, res, "theatres", id, "theatre")
}

const qTheatreBooked = `SELECT EXISTS (
                           SELECT 1 FROM booking_seats bs JOIN showtimes s ON s.id = bs.showtime_id
                           WHERE s.theatre_id = ?)`
