package booking

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/movie-ticket-booking/internal/memstore"
	"github.com/iliyamo/movie-ticket-booking/internal/model"
)

func TestListsAreMostRecentFirst(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	first, err := f.reserve(t, "U1", "A1")
	require.NoError(t, err)
	second, err := f.reserve(t, "U2", "A2")
	require.NoError(t, err)
	third, err := f.reserve(t, "U1", "A3")
	require.NoError(t, err)

	all, err := f.svc.ListByShowtime(ctx, "st-1")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{third.ID, second.ID, first.ID}, []string{all[0].ID, all[1].ID, all[2].ID})
	assert.Equal(t, "Arrival", all[0].Showtime.Movie.Title)
	assert.Equal(t, "Screen 1", all[0].Showtime.Theatre.Name)

	mine, err := f.svc.ListByUser(ctx, "U1")
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, third.ID, mine[0].ID)

	_, err = f.svc.ListByShowtime(ctx, "missing")
	assert.ErrorIs(t, err, model.ErrNotFound)
	_, err = f.svc.ListByUser(ctx, " ")
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestListAllFilters(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	b, err := f.reserve(t, "U1", "A1")
	require.NoError(t, err)
	_, err = f.reserve(t, "U2", "A2")
	require.NoError(t, err)
	_, err = f.svc.Cancel(ctx, b.ID, Actor{UserID: "U1"})
	require.NoError(t, err)

	cancelled, err := f.svc.ListAll(ctx, model.BookingFilter{Status: "cancelled"})
	require.NoError(t, err)
	require.Len(t, cancelled, 1)
	assert.Equal(t, b.ID, cancelled[0].ID)

	byUser, err := f.svc.ListAll(ctx, model.BookingFilter{UserID: "U2", ShowtimeID: "st-1"})
	require.NoError(t, err)
	assert.Len(t, byUser, 1)

	_, err = f.svc.ListAll(ctx, model.BookingFilter{Status: "LOST"})
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestGetChecksOwnership(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	b, err := f.reserve(t, "U1", "A1")
	require.NoError(t, err)

	got, err := f.svc.Get(ctx, b.ID, Actor{UserID: "U1"})
	require.NoError(t, err)
	assert.Equal(t, b.TicketCode, got.TicketCode)

	_, err = f.svc.Get(ctx, b.ID, Actor{UserID: "U2"})
	assert.ErrorIs(t, err, model.ErrForbidden)

	_, err = f.svc.Get(ctx, b.ID, Actor{UserID: "admin", Admin: true})
	assert.NoError(t, err)

	_, err = f.svc.Get(ctx, "missing", Actor{UserID: "U1"})
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestCancelReleasesSeats(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	b, err := f.reserve(t, "U1", "D1", "D2")
	require.NoError(t, err)
	keep, err := f.reserve(t, "U2", "D3")
	require.NoError(t, err)

	cancelled, err := f.svc.Cancel(ctx, b.ID, Actor{UserID: "U1"})
	require.NoError(t, err)
	assert.Equal(t, model.BookingCancelled, cancelled.BookingStatus)
	assert.Equal(t, []string{"D1", "D2"}, cancelled.Seats, "seats are kept on the record")
	assert.Equal(t, []string{"D3"}, f.booked(t))

	again, err := f.reserve(t, "U3", "D1")
	require.NoError(t, err)
	assert.NotEqual(t, b.ID, again.ID)

	_, err = f.svc.Cancel(ctx, b.ID, Actor{UserID: "U1"})
	assert.ErrorIs(t, err, model.ErrInvalidTransition)
	assert.ErrorIs(t, err, model.ErrValidation)

	_, err = f.svc.Cancel(ctx, keep.ID, Actor{UserID: "U1"})
	assert.ErrorIs(t, err, model.ErrForbidden)
	_, err = f.svc.Cancel(ctx, keep.ID, Actor{UserID: "root", Admin: true})
	assert.NoError(t, err)
}

func TestCancelRefundsPaidBooking(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	b, err := f.svc.Reserve(ctx, ReserveRequest{ShowtimeID: "st-1", UserID: "U1", Seats: []string{"J1"}, PaymentStatus: model.PaymentPaid})
	require.NoError(t, err)

	cancelled, err := f.svc.Cancel(ctx, b.ID, Actor{UserID: "U1"})
	require.NoError(t, err)
	assert.Equal(t, model.PaymentRefunded, cancelled.PaymentStatus)

	amt, ok := f.refunds.Refunded(b.ID)
	require.True(t, ok)
	assert.True(t, amt.Equal(decimal.NewFromInt(150)))
}

func TestCancelAfterShowtimeStarted(t *testing.T) {
	f := newFixture(t, nil)
	b, err := f.reserve(t, "U1", "A1")
	require.NoError(t, err)

	f.svc.now = func() time.Time { return time.Date(2026, 10, 20, 20, 0, 0, 0, time.UTC) }
	_, err = f.svc.Cancel(context.Background(), b.ID, Actor{UserID: "U1"})
	assert.ErrorIs(t, err, model.ErrConflict)
	assert.Equal(t, []string{"A1"}, f.booked(t))
}

func TestComplete(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	b, err := f.reserve(t, "U1", "A1")
	require.NoError(t, err)

	done, err := f.svc.Complete(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BookingCompleted, done.BookingStatus)
	assert.Equal(t, []string{"A1"}, f.booked(t), "completed bookings keep their seats")

	_, err = f.svc.Complete(ctx, b.ID)
	assert.ErrorIs(t, err, model.ErrInvalidTransition)
	_, err = f.svc.Cancel(ctx, b.ID, Actor{UserID: "U1"})
	assert.ErrorIs(t, err, model.ErrInvalidTransition)
}

// interceptStore runs before ahead of every status change.
type interceptStore struct {
	*memstore.Store
	before func(ch model.StatusChange) error
}

func (s *interceptStore) ChangeBookingStatus(ctx context.Context, ch model.StatusChange) (*model.Booking, error) {
	if err := s.before(ch); err != nil {
		return nil, err
	}
	return s.Store.ChangeBookingStatus(ctx, ch)
}

type failingRefunder struct {
	fails int
	next  Refunder
}

func (r *failingRefunder) Refund(ctx context.Context, id string, amount decimal.Decimal) error {
	if r.fails > 0 {
		r.fails--
		return errors.New("gateway timeout")
	}
	return r.next.Refund(ctx, id, amount)
}

func TestCancelLosingRaceIssuesNoRefund(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	b, err := f.svc.Reserve(ctx, ReserveRequest{ShowtimeID: "st-1", UserID: "U1", Seats: []string{"A1"}, PaymentStatus: model.PaymentPaid})
	require.NoError(t, err)

	raced := false
	f.svc.store = &interceptStore{Store: f.store, before: func(ch model.StatusChange) error {
		if raced {
			return nil
		}
		raced = true
		_, err := f.store.ChangeBookingStatus(ctx, model.StatusChange{
			BookingID: ch.BookingID, From: model.BookingConfirmed, To: model.BookingCompleted, At: clock,
		})
		return err
	}}

	_, err = f.svc.Cancel(ctx, b.ID, Actor{UserID: "U1"})
	assert.ErrorIs(t, err, model.ErrInvalidTransition)
	_, refunded := f.refunds.Refunded(b.ID)
	assert.False(t, refunded)

	got, err := f.store.Booking(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BookingCompleted, got.BookingStatus)
	assert.Equal(t, model.PaymentPaid, got.PaymentStatus)
}

func TestCancelStoreFailureIssuesNoRefund(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	b, err := f.svc.Reserve(ctx, ReserveRequest{ShowtimeID: "st-1", UserID: "U1", Seats: []string{"A1"}, PaymentStatus: model.PaymentPaid})
	require.NoError(t, err)

	f.svc.store = &interceptStore{Store: f.store, before: func(model.StatusChange) error {
		return model.Unavailable(errors.New("connection reset"))
	}}
	_, err = f.svc.Cancel(ctx, b.ID, Actor{UserID: "U1"})
	assert.ErrorIs(t, err, model.ErrUnavailable)
	_, refunded := f.refunds.Refunded(b.ID)
	assert.False(t, refunded)
	assert.Equal(t, []string{"A1"}, f.booked(t))
}

func TestCancelRetriesFailedRefund(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	b, err := f.svc.Reserve(ctx, ReserveRequest{ShowtimeID: "st-1", UserID: "U1", Seats: []string{"A1"}, PaymentStatus: model.PaymentPaid})
	require.NoError(t, err)
	f.svc.refunder = &failingRefunder{fails: 2, next: f.refunds}

	cancelled, err := f.svc.Cancel(ctx, b.ID, Actor{UserID: "U1"})
	require.NoError(t, err)
	assert.Equal(t, model.BookingCancelled, cancelled.BookingStatus)
	assert.Equal(t, model.PaymentPaid, cancelled.PaymentStatus)
	assert.Empty(t, f.booked(t), "seats are released even when the refund fails")

	_, err = f.svc.Cancel(ctx, b.ID, Actor{UserID: "U1"})
	assert.ErrorIs(t, err, model.ErrUnavailable)

	refunded, err := f.svc.Cancel(ctx, b.ID, Actor{UserID: "U1"})
	require.NoError(t, err)
	assert.Equal(t, model.PaymentRefunded, refunded.PaymentStatus)
	amt, ok := f.refunds.Refunded(b.ID)
	require.True(t, ok)
	assert.True(t, amt.Equal(decimal.NewFromInt(100)))

	_, err = f.svc.Cancel(ctx, b.ID, Actor{UserID: "U1"})
	assert.ErrorIs(t, err, model.ErrInvalidTransition)
}
