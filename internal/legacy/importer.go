package legacy

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/movie-ticket-booking/internal/model"
)

// Target is the store converted records are written to.
type Target interface {
	CreateTheatre(ctx context.Context, t *model.Theatre) error
	CreateMovie(ctx context.Context, m *model.Movie) error
	CreateShowtime(ctx context.Context, s *model.Showtime) error
	InsertBooking(ctx context.Context, b *model.Booking) error
}

// Report counts what an import wrote.
type Report struct {
	Theatres  int
	Movies    int
	Showtimes int
	Bookings  int
	Existing  int
	Skipped   []string
}

// Import writes conv to dst.  Records that already exist are counted and
// left alone, so running the same import twice is harmless.  A booking
// whose seats are taken in dst is skipped and reported.
func Import(ctx context.Context, dst Target, conv *Converted, log logrus.FieldLogger) (*Report, error) {
	rep := &Report{Skipped: append([]string(nil), conv.Skipped...)}

	for i := range conv.Theatres {
		created, err := upsert(dst.CreateTheatre(ctx, &conv.Theatres[i]))
		if err != nil {
			return rep, fmt.Errorf("import theatre %s: %w", conv.Theatres[i].ID, err)
		}
		count(rep, &rep.Theatres, created)
	}
	for i := range conv.Movies {
		created, err := upsert(dst.CreateMovie(ctx, &conv.Movies[i]))
		if err != nil {
			return rep, fmt.Errorf("import movie %s: %w", conv.Movies[i].ID, err)
		}
		count(rep, &rep.Movies, created)
	}
	for i := range conv.Showtimes {
		created, err := upsert(dst.CreateShowtime(ctx, &conv.Showtimes[i]))
		if err != nil {
			return rep, fmt.Errorf("import showtime %s: %w", conv.Showtimes[i].ID, err)
		}
		count(rep, &rep.Showtimes, created)
	}
	for i := range conv.Bookings {
		b := &conv.Bookings[i]
		err := dst.InsertBooking(ctx, b)
		var conflict *model.SeatConflictError
		switch {
		case err == nil:
			rep.Bookings++
		case errors.As(err, &conflict):
			rep.Skipped = append(rep.Skipped, fmt.Sprintf("booking %s: %v", b.ID, err))
		case errors.Is(err, model.ErrConflict):
			rep.Existing++
		default:
			return rep, fmt.Errorf("import booking %s: %w", b.ID, err)
		}
	}
	if log != nil {
		log.WithFields(logrus.Fields{
			"theatres": rep.Theatres, "movies": rep.Movies, "showtimes": rep.Showtimes,
			"bookings": rep.Bookings, "existing": rep.Existing, "skipped": len(rep.Skipped),
		}).Info("legacy import finished")
	}
	return rep, nil
}

func upsert(err error) (bool, error) {
	if err == nil {
		return true, nil
	}
	if errors.Is(err, model.ErrConflict) {
		return false, nil
	}
	return false, err
}

func count(rep *Report, n *int, created bool) {
	if created {
		*n++
		return
	}
	rep.Existing++
}
