package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/movie-ticket-booking/internal/database"
	"github.com/iliyamo/movie-ticket-booking/internal/model"
	"github.com/iliyamo/movie-ticket-booking/internal/seatmap"
)

// BookingRepo persists bookings and the booking_seats ledger.  A booking
// and its ledger rows are written in one transaction; the unique key on
// (showtime_id, seat_label) decides which of two racing reservations wins.
type BookingRepo struct {
	db *sqlx.DB
}

// NewBookingRepo constructs a BookingRepo with the given DB handle.
func NewBookingRepo(db *sqlx.DB) *BookingRepo { return &BookingRepo{db: db} }

// bookingRow mirrors the bookings table.  seats is stored as a JSON array.
type bookingRow struct {
	ID            string               `db:"id"`
	ShowtimeID    string               `db:"showtime_id"`
	UserID        string               `db:"user_id"`
	Seats         []byte               `db:"seats"`
	TotalAmount   decimal.Decimal      `db:"total_amount"`
	PaymentStatus model.PaymentStatus  `db:"payment_status"`
	BookingStatus model.BookingStatus  `db:"booking_status"`
	TicketCode    string               `db:"ticket_code"`
	CreatedAt     time.Time            `db:"created_at"`
	UpdatedAt     time.Time            `db:"updated_at"`
	Showtime      model.ShowtimeDetail `db:"showtime"`
}

func (r bookingRow) booking() (model.Booking, error) {
	b := model.Booking{
		ID:            r.ID,
		ShowtimeID:    r.ShowtimeID,
		UserID:        r.UserID,
		TotalAmount:   r.TotalAmount,
		PaymentStatus: r.PaymentStatus,
		BookingStatus: r.BookingStatus,
		TicketCode:    r.TicketCode,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
	if err := json.Unmarshal(r.Seats, &b.Seats); err != nil {
		return model.Booking{}, fmt.Errorf("booking %s: decode seats: %w", r.ID, err)
	}
	return b, nil
}

func (r bookingRow) detail() (model.BookingDetail, error) {
	b, err := r.booking()
	if err != nil {
		return model.BookingDetail{}, err
	}
	return model.BookingDetail{Booking: b, Showtime: r.Showtime}, nil
}

// bookingDetailSelect joins a booking with its showtime, movie and theatre.
var bookingDetailSelect = `SELECT ` + prefixed("b", "", bookingCols...) + `, ` + showtimeDetailSelect("showtime") +
	` FROM bookings b JOIN showtimes s ON s.id = b.showtime_id` + showtimeJoins

// BookedSeats returns the seats held by live bookings of a showtime in
// row-major order.
func (r *BookingRepo) BookedSeats(ctx context.Context, showtimeID string) ([]string, error) {
	seats := []string{}
	err := r.db.SelectContext(ctx, &seats, `SELECT seat_label FROM booking_seats WHERE showtime_id = ?`, showtimeID)
	if err != nil {
		return nil, translate(err, "showtime")
	}
	seatmap.Sort(seats)
	return seats, nil
}

// maxClaimAttempts bounds the retries of a seat claim whose conflicting
// booking released its seats before the conflict could be reported.
const maxClaimAttempts = 2

// InsertBooking writes b and claims its seats in the ledger, or changes
// nothing.  A seat already held by another booking yields a
// *model.SeatConflictError naming exactly the taken seats.
func (r *BookingRepo) InsertBooking(ctx context.Context, b *model.Booking) error {
	seats, err := json.Marshal(b.Seats)
	if err != nil {
		return fmt.Errorf("encode seats: %w", err)
	}
	for attempt := 1; ; attempt++ {
		var taken []string
		err = database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
			var txErr error
			taken, txErr = r.insertTx(ctx, tx, b, seats)
			if txErr == nil && len(taken) > 0 {
				return errSeatsTaken
			}
			return txErr
		})
		if errors.Is(err, errSeatsTaken) {
			return &model.SeatConflictError{ShowtimeID: b.ShowtimeID, Seats: taken}
		}
		if errors.Is(err, errClaimRaced) && attempt < maxClaimAttempts {
			continue
		}
		return classified(err)
	}
}

var (
	errSeatsTaken = errors.New("seats taken")
	errClaimRaced = errors.New("seat claim raced with a release")
)

// qLockGrid reads the theatre geometry of a showtime in share mode.  It
// blocks while a theatre or showtime update holds the rows FOR UPDATE and
// holds such updates off until the claim commits.
const qLockGrid = `SELECT t.total_rows, t.seats_per_row, t.premium_rows
                   FROM showtimes s JOIN theatres t ON t.id = s.theatre_id
                   WHERE s.id = ? LOCK IN SHARE MODE`

// insertTx returns the taken seats when the ledger insert hits the unique
// key.  The statement failure leaves the transaction usable, so the
// conflicting rows are read inside it before rollback.
func (r *BookingRepo) insertTx(ctx context.Context, tx *sqlx.Tx, b *model.Booking, seats []byte) ([]string, error) {
	var grid model.Theatre
	if err := tx.GetContext(ctx, &grid, qLockGrid, b.ShowtimeID); err != nil {
		return nil, translate(err, "showtime")
	}
	layout := seatmap.FromTheatre(grid)
	for _, seat := range b.Seats {
		if _, _, err := layout.Parse(seat); err != nil {
			return nil, err
		}
	}

	const qBooking = `INSERT INTO bookings (id, showtime_id, user_id, seats, total_amount, payment_status,
                                           booking_status, ticket_code, created_at, updated_at)
                      VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := tx.ExecContext(ctx, qBooking, b.ID, b.ShowtimeID, b.UserID, seats, b.TotalAmount,
		b.PaymentStatus, b.BookingStatus, b.TicketCode, b.CreatedAt, b.UpdatedAt)
	if err != nil {
		return nil, translate(err, "booking")
	}

	values := make([]string, len(b.Seats))
	args := make([]any, 0, 3*len(b.Seats))
	for i, seat := range b.Seats {
		values[i] = "(?, ?, ?)"
		args = append(args, b.ShowtimeID, seat, b.ID)
	}
	q := `INSERT INTO booking_seats (showtime_id, seat_label, booking_id) VALUES ` + strings.Join(values, ", ")
	_, err = tx.ExecContext(ctx, q, args...)
	if err == nil {
		return nil, nil
	}
	if key, dup := duplicateKey(err); !dup || key != keyBookingSeat {
		return nil, translate(err, "booking")
	}

	inQ, inArgs, err := sqlx.In(`SELECT seat_label FROM booking_seats WHERE showtime_id = ? AND seat_label IN (?)`,
		b.ShowtimeID, b.Seats)
	if err != nil {
		return nil, err
	}
	var taken []string
	if err := tx.SelectContext(ctx, &taken, tx.Rebind(inQ), inArgs...); err != nil {
		return nil, translate(err, "booking")
	}
	if len(taken) == 0 {
		return nil, errClaimRaced
	}
	seatmap.Sort(taken)
	return taken, nil
}

// Booking fetches one booking with its showtime details.
func (r *BookingRepo) Booking(ctx context.Context, id string) (*model.BookingDetail, error) {
	var row bookingRow
	if err := r.db.GetContext(ctx, &row, bookingDetailSelect+` WHERE b.id = ?`, id); err != nil {
		return nil, translate(err, "booking")
	}
	d, err := row.detail()
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// ListBookings returns matching bookings, most recent first.
func (r *BookingRepo) ListBookings(ctx context.Context, f model.BookingFilter) ([]model.BookingDetail, error) {
	var (
		where []string
		args  []any
	)
	if f.ShowtimeID != "" {
		where = append(where, "b.showtime_id = ?")
		args = append(args, f.ShowtimeID)
	}
	if f.UserID != "" {
		where = append(where, "b.user_id = ?")
		args = append(args, f.UserID)
	}
	if f.Status != "" {
		where = append(where, "b.booking_status = ?")
		args = append(args, f.Status)
	}
	q := bookingDetailSelect
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	q += ` ORDER BY b.created_at DESC, b.id DESC`

	var rows []bookingRow
	if err := r.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, translate(err, "booking")
	}
	out := make([]model.BookingDetail, 0, len(rows))
	for _, row := range rows {
		d, err := row.detail()
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

// ChangeBookingStatus applies ch when the booking is still in ch.From.
// The status check and the update are one statement, so of two
// concurrent changes only one affects the row.
func (r *BookingRepo) ChangeBookingStatus(ctx context.Context, ch model.StatusChange) (*model.Booking, error) {
	var out model.Booking
	err := database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		const qUpdate = `UPDATE bookings
                         SET booking_status = ?, payment_status = COALESCE(NULLIF(?, ''), payment_status), updated_at = ?
                         WHERE id = ? AND booking_status = ?`
		res, err := tx.ExecContext(ctx, qUpdate, ch.To, ch.Payment, ch.At, ch.BookingID, ch.From)
		if err != nil {
			return translate(err, "booking")
		}
		n, err := res.RowsAffected()
		if err != nil {
			return translate(err, "booking")
		}
		if n == 0 {
			var exists bool
			if err := tx.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM bookings WHERE id = ?)`, ch.BookingID); err != nil {
				return translate(err, "booking")
			}
			if !exists {
				return model.NotFound("booking")
			}
			return model.ErrInvalidTransition
		}
		if ch.ReleaseSeats {
			if _, err := tx.ExecContext(ctx, `DELETE FROM booking_seats WHERE booking_id = ?`, ch.BookingID); err != nil {
				return translate(err, "booking")
			}
		}

		var row bookingRow
		q := `SELECT ` + prefixed("b", "", bookingCols...) + ` FROM bookings b WHERE b.id = ?`
		if err := tx.GetContext(ctx, &row, q, ch.BookingID); err != nil {
			return translate(err, "booking")
		}
		b, err := row.booking()
		if err != nil {
			return err
		}
		out = b
		return nil
	})
	if err != nil {
		return nil, classified(err)
	}
	return &out, nil
}
