package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/movie-ticket-booking/internal/memstore"
	"github.com/iliyamo/movie-ticket-booking/internal/model"
)

func ptr[T any](v T) *T { return &v }

func newService(t *testing.T) (*Service, *memstore.Store) {
	t.Helper()
	st := memstore.New()
	svc := NewService(st, nil)
	svc.now = func() time.Time { return time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC) }
	return svc, st
}

func theatreInput() TheatreInput {
	return TheatreInput{Name: ptr("Grand"), Location: ptr("Vali Asr St"), City: ptr("Tehran"), TotalRows: ptr(10), SeatsPerRow: ptr(12)}
}

func movieInput() MovieInput {
	return MovieInput{Title: ptr("Dune"), Genre: ptr("Sci-Fi"), DurationMinutes: ptr(155), Rating: ptr("PG-13"), Language: ptr("EN")}
}

func showtimeInput(movieID, theatreID, at string) ShowtimeInput {
	return ShowtimeInput{
		MovieID: ptr(movieID), TheatreID: ptr(theatreID), ShowDate: ptr("2026-10-20"), ShowTime: ptr(at),
		BasePrice: ptr(decimal.NewFromInt(100)), PremiumPrice: ptr(decimal.NewFromInt(150)),
	}
}

func TestCreateTheatreDefaults(t *testing.T) {
	svc, _ := newService(t)
	th, err := svc.CreateTheatre(context.Background(), theatreInput())
	require.NoError(t, err)
	assert.NotEmpty(t, th.ID)
	assert.Equal(t, model.DefaultPremiumRows, th.PremiumRows)
	assert.Equal(t, 120, th.TotalSeats())
}

func TestCreateTheatreValidation(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	bad := []TheatreInput{
		{City: ptr("x"), TotalRows: ptr(1), SeatsPerRow: ptr(1)},
		{Name: ptr("x"), City: ptr("x"), TotalRows: ptr(0), SeatsPerRow: ptr(1)},
		{Name: ptr("x"), City: ptr("x"), TotalRows: ptr(1), SeatsPerRow: ptr(0)},
		{Name: ptr("x"), City: ptr("x"), TotalRows: ptr(2), SeatsPerRow: ptr(2), PremiumRows: ptr(3)},
		{Name: ptr("x"), City: ptr("x"), TotalRows: ptr(1000), SeatsPerRow: ptr(2)},
	}
	for i, in := range bad {
		_, err := svc.CreateTheatre(ctx, in)
		assert.ErrorIs(t, err, model.ErrValidation, "case %d", i)
	}
}

func TestTheatreGeometryLockedByBookings(t *testing.T) {
	svc, st := newService(t)
	ctx := context.Background()

	th, err := svc.CreateTheatre(ctx, theatreInput())
	require.NoError(t, err)
	mv, err := svc.CreateMovie(ctx, movieInput())
	require.NoError(t, err)
	show, err := svc.CreateShowtime(ctx, showtimeInput(mv.ID, th.ID, "18:00"))
	require.NoError(t, err)

	// geometry may change while nothing is booked
	th2, err := svc.UpdateTheatre(ctx, th.ID, TheatreInput{TotalRows: ptr(12)})
	require.NoError(t, err)
	assert.Equal(t, 12, th2.TotalRows)

	require.NoError(t, st.InsertBooking(ctx, &model.Booking{
		ID: "b1", ShowtimeID: show.ID, UserID: "u", Seats: []string{"L12"}, TicketCode: "TKT-00000001",
		BookingStatus: model.BookingConfirmed, PaymentStatus: model.PaymentPaid,
	}))

	_, err = svc.UpdateTheatre(ctx, th.ID, TheatreInput{TotalRows: ptr(10)})
	assert.ErrorIs(t, err, model.ErrConflict)
	_, err = svc.UpdateTheatre(ctx, th.ID, TheatreInput{PremiumRows: ptr(1)})
	assert.ErrorIs(t, err, model.ErrConflict)

	renamed, err := svc.UpdateTheatre(ctx, th.ID, TheatreInput{Name: ptr("Grand Hall")})
	require.NoError(t, err)
	assert.Equal(t, "Grand Hall", renamed.Name)
	assert.Equal(t, 12, renamed.TotalRows)
}

func TestMovieValidationAndVisibility(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	in := movieInput()
	in.DurationMinutes = ptr(0)
	_, err := svc.CreateMovie(ctx, in)
	assert.ErrorIs(t, err, model.ErrValidation)

	in = movieInput()
	in.ReleaseDate = ptr("21/10/2026")
	_, err = svc.CreateMovie(ctx, in)
	assert.ErrorIs(t, err, model.ErrValidation)

	mv, err := svc.CreateMovie(ctx, movieInput())
	require.NoError(t, err)
	assert.True(t, mv.IsActive)

	_, err = svc.UpdateMovie(ctx, mv.ID, MovieInput{IsActive: ptr(false)})
	require.NoError(t, err)
	_, err = svc.Movie(ctx, mv.ID, false)
	assert.ErrorIs(t, err, model.ErrNotFound)
	hidden, err := svc.Movie(ctx, mv.ID, true)
	require.NoError(t, err)
	assert.False(t, hidden.IsActive)

	active, err := svc.ListMovies(ctx, model.MovieFilter{ActiveOnly: true})
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestShowtimeValidation(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	th, _ := svc.CreateTheatre(ctx, theatreInput())
	mv, _ := svc.CreateMovie(ctx, movieInput())

	cheapPremium := showtimeInput(mv.ID, th.ID, "18:00")
	cheapPremium.PremiumPrice = ptr(decimal.NewFromInt(50))
	_, err := svc.CreateShowtime(ctx, cheapPremium)
	assert.ErrorIs(t, err, model.ErrValidation)

	badTime := showtimeInput(mv.ID, th.ID, "6pm")
	_, err = svc.CreateShowtime(ctx, badTime)
	assert.ErrorIs(t, err, model.ErrValidation)

	unknownMovie := showtimeInput("ghost", th.ID, "18:00")
	_, err = svc.CreateShowtime(ctx, unknownMovie)
	assert.ErrorIs(t, err, model.ErrValidation)

	ok, err := svc.CreateShowtime(ctx, showtimeInput(mv.ID, th.ID, "9:05"))
	require.NoError(t, err)
	assert.Equal(t, "09:05", ok.ShowTime)
	assert.Equal(t, "Dune", ok.Movie.Title)
}

func TestShowtimesMayNotOverlapInOneTheatre(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	th, _ := svc.CreateTheatre(ctx, theatreInput())
	mv, _ := svc.CreateMovie(ctx, movieInput()) // 155 minutes

	first, err := svc.CreateShowtime(ctx, showtimeInput(mv.ID, th.ID, "18:00"))
	require.NoError(t, err)

	_, err = svc.CreateShowtime(ctx, showtimeInput(mv.ID, th.ID, "20:00"))
	assert.ErrorIs(t, err, model.ErrConflict)

	_, err = svc.CreateShowtime(ctx, showtimeInput(mv.ID, th.ID, "20:35"))
	require.NoError(t, err, "back-to-back screenings are fine")

	// an update may keep its own slot
	_, err = svc.UpdateShowtime(ctx, first.ID, ShowtimeInput{BasePrice: ptr(decimal.NewFromInt(120)), PremiumPrice: ptr(decimal.NewFromInt(160))})
	require.NoError(t, err)

	inactive := showtimeInput(mv.ID, th.ID, "19:00")
	inactive.IsActive = ptr(false)
	_, err = svc.CreateShowtime(ctx, inactive)
	assert.NoError(t, err, "inactive showtimes do not block the schedule")
}

func TestListShowtimesRejectsBadDate(t *testing.T) {
	svc, _ := newService(t)
	_, err := svc.ListShowtimes(context.Background(), model.ShowtimeFilter{Date: "20-10-2026"})
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestDeleteRespectsReferences(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	th, _ := svc.CreateTheatre(ctx, theatreInput())
	mv, _ := svc.CreateMovie(ctx, movieInput())
	show, err := svc.CreateShowtime(ctx, showtimeInput(mv.ID, th.ID, "18:00"))
	require.NoError(t, err)

	assert.ErrorIs(t, svc.DeleteTheatre(ctx, th.ID), model.ErrConflict)
	assert.ErrorIs(t, svc.DeleteMovie(ctx, mv.ID), model.ErrConflict)
	require.NoError(t, svc.DeleteShowtime(ctx, show.ID))
	require.NoError(t, svc.DeleteMovie(ctx, mv.ID))
	require.NoError(t, svc.DeleteTheatre(ctx, th.ID))
}
