package legacy

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/movie-ticket-booking/internal/memstore"
	"github.com/iliyamo/movie-ticket-booking/internal/model"
)

const export = `{
  "seat-booking-shows": [
    {"id": "s1", "name": "Inception", "startTime": "2026-11-05T18:30:00.000Z", "totalSeats": 50,
     "bookedSeats": [1, 2, 10, 49], "createdAt": "2026-10-01T08:00:00.000Z"},
    {"id": "s2", "name": "Empty", "startTime": "2026-11-06T18:30:00.000Z", "totalSeats": 0,
     "bookedSeats": [], "createdAt": "2026-10-01T08:00:00.000Z"}
  ],
  "seat-booking-bookings": [
    {"id": "b1", "showId": "s1", "seats": [1, 2], "status": "CONFIRMED", "createdAt": "2026-10-02T08:00:00.000Z"},
    {"id": "b2", "showId": "s1", "seats": [2, 3], "status": "CONFIRMED", "createdAt": "2026-10-03T08:00:00.000Z"},
    {"id": "b3", "showId": "s1", "seats": [7], "status": "FAILED", "createdAt": "2026-10-03T09:00:00.000Z"},
    {"id": "b4", "showId": "s1", "seats": [10], "status": "CONFIRMED", "createdAt": "2026-10-04T08:00:00.000Z"}
  ]
}`

func options() Options {
	n := 0
	return Options{
		City:         "Tehran",
		BasePrice:    decimal.NewFromInt(100),
		PremiumPrice: decimal.NewFromInt(150),
		PremiumRows:  1,
		NewTicketCode: func() (string, error) {
			n++
			return fmt.Sprintf("TKT-%08d", n), nil
		},
	}
}

func TestConvert(t *testing.T) {
	exp, err := Decode(strings.NewReader(export))
	require.NoError(t, err)

	conv, err := Convert(*exp, options())
	require.NoError(t, err)

	require.Len(t, conv.Theatres, 1)
	th := conv.Theatres[0]
	assert.Equal(t, 6, th.TotalRows)
	assert.Equal(t, 9, th.SeatsPerRow)
	assert.Equal(t, 1, th.PremiumRows)

	require.Len(t, conv.Showtimes, 1)
	assert.Equal(t, "2026-11-05", conv.Showtimes[0].ShowDate)
	assert.Equal(t, "18:30", conv.Showtimes[0].ShowTime)
	assert.Equal(t, "Inception", conv.Movies[0].Title)

	require.Len(t, conv.Bookings, 3)
	assert.Equal(t, []string{"A1", "A2"}, conv.Bookings[0].Seats)
	assert.True(t, conv.Bookings[0].TotalAmount.Equal(decimal.NewFromInt(200)))
	assert.Equal(t, []string{"B1"}, conv.Bookings[1].Seats)

	hold := conv.Bookings[2]
	assert.Equal(t, []string{"F4"}, hold.Seats, "seat 49 was booked without a confirmed booking")
	assert.True(t, hold.TotalAmount.Equal(decimal.NewFromInt(150)), "row F is the premium row")

	assert.Len(t, conv.Skipped, 3) // empty show, double-booked b2, failed b3
}

func TestConvertIsDeterministic(t *testing.T) {
	exp, err := Decode(strings.NewReader(export))
	require.NoError(t, err)
	a, err := Convert(*exp, options())
	require.NoError(t, err)
	b, err := Convert(*exp, options())
	require.NoError(t, err)
	assert.Equal(t, a.Theatres[0].ID, b.Theatres[0].ID)
	assert.Equal(t, a.Bookings[0].ID, b.Bookings[0].ID)
}

func TestConvertRejectsBadPrices(t *testing.T) {
	opts := options()
	opts.PremiumPrice = decimal.NewFromInt(10)
	_, err := Convert(Export{}, opts)
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestImportIsRepeatable(t *testing.T) {
	ctx := context.Background()
	exp, err := Decode(strings.NewReader(export))
	require.NoError(t, err)
	conv, err := Convert(*exp, options())
	require.NoError(t, err)

	st := memstore.New()
	rep, err := Import(ctx, st, conv, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Theatres)
	assert.Equal(t, 3, rep.Bookings)
	assert.Zero(t, rep.Existing)

	seats, err := st.BookedSeats(ctx, conv.Showtimes[0].ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"A1", "A2", "B1", "F4"}, seats)

	again, err := Import(ctx, st, conv, nil)
	require.NoError(t, err)
	assert.Zero(t, again.Bookings)
	assert.Equal(t, 6, again.Existing)
}
