package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/movie-ticket-booking/internal/model"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return sqlx.NewDb(db, "mysql"), mock
}

func pendingBooking() *model.Booking {
	at := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)
	return &model.Booking{
		ID: "bk-1", ShowtimeID: "st-1", UserID: "u-1", Seats: []string{"A1", "A2"},
		TotalAmount: decimal.NewFromInt(200), PaymentStatus: model.PaymentPaid,
		BookingStatus: model.BookingConfirmed, TicketCode: "TKT-AB12CD34",
		CreatedAt: at, UpdatedAt: at,
	}
}

func expectGrid(mock sqlmock.Sqlmock, rows, perRow, premium int) {
	mock.ExpectQuery(`SELECT t.total_rows, t.seats_per_row, t.premium_rows .* LOCK IN SHARE MODE`).
		WithArgs("st-1").
		WillReturnRows(sqlmock.NewRows([]string{"total_rows", "seats_per_row", "premium_rows"}).AddRow(rows, perRow, premium))
}

func expectLedgerInsert(mock sqlmock.Sqlmock) *sqlmock.ExpectedExec {
	return mock.ExpectExec(`INSERT INTO booking_seats \(showtime_id, seat_label, booking_id\) VALUES \(\?, \?, \?\), \(\?, \?, \?\)`).
		WithArgs("st-1", "A1", "bk-1", "st-1", "A2", "bk-1")
}

func expectTakenQuery(mock sqlmock.Sqlmock, taken ...string) {
	rows := sqlmock.NewRows([]string{"seat_label"})
	for _, s := range taken {
		rows.AddRow(s)
	}
	mock.ExpectQuery(`SELECT seat_label FROM booking_seats WHERE showtime_id = \? AND seat_label IN \(\?, \?\)`).
		WithArgs("st-1", "A1", "A2").
		WillReturnRows(rows)
}

func TestInsertBookingClaimsEverySeat(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectBegin()
	expectGrid(mock, 10, 10, 3)
	mock.ExpectExec(`INSERT INTO bookings`).WillReturnResult(sqlmock.NewResult(0, 1))
	expectLedgerInsert(mock).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	require.NoError(t, NewBookingRepo(db).InsertBooking(context.Background(), pendingBooking()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertBookingNamesTakenSeatsAndRollsBack(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectBegin()
	expectGrid(mock, 10, 10, 3)
	mock.ExpectExec(`INSERT INTO bookings`).WillReturnResult(sqlmock.NewResult(0, 1))
	expectLedgerInsert(mock).WillReturnError(dupEntry("booking_seats.uq_booking_seat"))
	expectTakenQuery(mock, "A2")
	mock.ExpectRollback()

	err := NewBookingRepo(db).InsertBooking(context.Background(), pendingBooking())
	var conflict *model.SeatConflictError
	require.True(t, errors.As(err, &conflict), "got %v", err)
	assert.Equal(t, []string{"A2"}, conflict.Seats)
	assert.Equal(t, "st-1", conflict.ShowtimeID)
	assert.ErrorIs(t, err, model.ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertBookingRetriesClaimReleasedMeanwhile(t *testing.T) {
	db, mock := newMockDB(t)

	// the holder of the seat cancelled between the failed insert and the read
	mock.ExpectBegin()
	expectGrid(mock, 10, 10, 3)
	mock.ExpectExec(`INSERT INTO bookings`).WillReturnResult(sqlmock.NewResult(0, 1))
	expectLedgerInsert(mock).WillReturnError(dupEntry("uq_booking_seat"))
	expectTakenQuery(mock)
	mock.ExpectRollback()

	mock.ExpectBegin()
	expectGrid(mock, 10, 10, 3)
	mock.ExpectExec(`INSERT INTO bookings`).WillReturnResult(sqlmock.NewResult(0, 1))
	expectLedgerInsert(mock).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	require.NoError(t, NewBookingRepo(db).InsertBooking(context.Background(), pendingBooking()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertBookingGivesUpOnRepeatedRace(t *testing.T) {
	db, mock := newMockDB(t)
	for i := 0; i < maxClaimAttempts; i++ {
		mock.ExpectBegin()
		expectGrid(mock, 10, 10, 3)
		mock.ExpectExec(`INSERT INTO bookings`).WillReturnResult(sqlmock.NewResult(0, 1))
		expectLedgerInsert(mock).WillReturnError(dupEntry("uq_booking_seat"))
		expectTakenQuery(mock)
		mock.ExpectRollback()
	}

	err := NewBookingRepo(db).InsertBooking(context.Background(), pendingBooking())
	assert.ErrorIs(t, err, model.ErrUnavailable)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertBookingTicketCodeCollision(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectBegin()
	expectGrid(mock, 10, 10, 3)
	mock.ExpectExec(`INSERT INTO bookings`).WillReturnError(dupEntry("bookings.uq_ticket_code"))
	mock.ExpectRollback()

	err := NewBookingRepo(db).InsertBooking(context.Background(), pendingBooking())
	assert.ErrorIs(t, err, model.ErrTicketCodeTaken)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertBookingRechecksLockedGrid(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectBegin()
	expectGrid(mock, 1, 1, 0)
	mock.ExpectRollback()

	err := NewBookingRepo(db).InsertBooking(context.Background(), pendingBooking())
	assert.ErrorIs(t, err, model.ErrValidation)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertBookingUnknownShowtime(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`LOCK IN SHARE MODE`).WithArgs("st-1").
		WillReturnRows(sqlmock.NewRows([]string{"total_rows", "seats_per_row", "premium_rows"}))
	mock.ExpectRollback()

	err := NewBookingRepo(db).InsertBooking(context.Background(), pendingBooking())
	assert.ErrorIs(t, err, model.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestChangeBookingStatusReleasesSeats(t *testing.T) {
	db, mock := newMockDB(t)
	at := time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE bookings`).
		WithArgs(model.BookingCancelled, model.PaymentStatus(""), at, "bk-1", model.BookingConfirmed).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM booking_seats WHERE booking_id = \?`).WithArgs("bk-1").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectQuery(`FROM bookings b WHERE b.id = \?`).WithArgs("bk-1").
		WillReturnRows(sqlmock.NewRows(bookingCols).AddRow(
			"bk-1", "st-1", "u-1", []byte(`["A1","A2"]`), "200.00", "PAID", "CANCELLED", "TKT-AB12CD34", at, at))
	mock.ExpectCommit()

	b, err := NewBookingRepo(db).ChangeBookingStatus(context.Background(), model.StatusChange{
		BookingID: "bk-1", From: model.BookingConfirmed, To: model.BookingCancelled, ReleaseSeats: true, At: at,
	})
	require.NoError(t, err)
	assert.Equal(t, model.BookingCancelled, b.BookingStatus)
	assert.Equal(t, []string{"A1", "A2"}, b.Seats)
	assert.True(t, b.TotalAmount.Equal(decimal.NewFromInt(200)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestChangeBookingStatusLostRace(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE bookings`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT EXISTS \(SELECT 1 FROM bookings WHERE id = \?\)`).WithArgs("bk-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectRollback()

	_, err := NewBookingRepo(db).ChangeBookingStatus(context.Background(), model.StatusChange{
		BookingID: "bk-1", From: model.BookingConfirmed, To: model.BookingCancelled, ReleaseSeats: true,
	})
	assert.ErrorIs(t, err, model.ErrInvalidTransition)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func theatreRow(rows, perRow, premium int) *sqlmock.Rows {
	at := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	return sqlmock.NewRows(theatreCols).AddRow("th-1", "Screen 1", "Mall", "Tehran", rows, perRow, premium, at, at)
}

func TestUpdateTheatreLocksGeometryWhileBooked(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTheatreRepo(db)
	next := &model.Theatre{ID: "th-1", Name: "Screen 1", Location: "Mall", City: "Tehran", TotalRows: 8, SeatsPerRow: 10, PremiumRows: 3}

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM theatres t WHERE t.id = \? FOR UPDATE`).WithArgs("th-1").WillReturnRows(theatreRow(10, 10, 3))
	mock.ExpectQuery(`SELECT 1 FROM booking_seats bs JOIN showtimes s`).WithArgs("th-1").
		WillReturnRows(sqlmock.NewRows([]string{"busy"}).AddRow(true))
	mock.ExpectRollback()

	assert.ErrorIs(t, repo.UpdateTheatre(context.Background(), next), model.ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateTheatreRenameSkipsBookingCheck(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTheatreRepo(db)
	next := &model.Theatre{ID: "th-1", Name: "Grand Hall", Location: "Mall", City: "Tehran", TotalRows: 10, SeatsPerRow: 10, PremiumRows: 3}

	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE`).WithArgs("th-1").WillReturnRows(theatreRow(10, 10, 3))
	mock.ExpectExec(`UPDATE theatres SET`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.UpdateTheatre(context.Background(), next))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateShowtimeRefusesMoveWithBookings(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewShowtimeRepo(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT theatre_id FROM showtimes WHERE id = \? FOR UPDATE`).WithArgs("st-1").
		WillReturnRows(sqlmock.NewRows([]string{"theatre_id"}).AddRow("th-1"))
	mock.ExpectQuery(`SELECT EXISTS \(SELECT 1 FROM booking_seats WHERE showtime_id = \?\)`).WithArgs("st-1").
		WillReturnRows(sqlmock.NewRows([]string{"busy"}).AddRow(true))
	mock.ExpectRollback()

	err := repo.UpdateShowtime(context.Background(), &model.Showtime{ID: "st-1", TheatreID: "th-2"})
	assert.ErrorIs(t, err, model.ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

