// Package catalog manages theatres, movies and showtimes.  Every write is
// validated here before it reaches the store.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/movie-ticket-booking/internal/model"
)

// Store persists the catalog.  Delete methods return model.ErrConflict
// when dependent rows still exist (showtimes of a theatre or movie,
// bookings of a showtime).  UpdateTheatre returns it for a geometry change
// and UpdateShowtime for a theatre change while seats are booked; both
// checks are atomic with InsertBooking.
type Store interface {
	CreateTheatre(ctx context.Context, t *model.Theatre) error
	Theatre(ctx context.Context, id string) (*model.Theatre, error)
	ListTheatres(ctx context.Context) ([]model.Theatre, error)
	UpdateTheatre(ctx context.Context, t *model.Theatre) error
	DeleteTheatre(ctx context.Context, id string) error

	CreateMovie(ctx context.Context, m *model.Movie) error
	Movie(ctx context.Context, id string) (*model.Movie, error)
	ListMovies(ctx context.Context, f model.MovieFilter) ([]model.Movie, error)
	UpdateMovie(ctx context.Context, m *model.Movie) error
	DeleteMovie(ctx context.Context, id string) error

	CreateShowtime(ctx context.Context, s *model.Showtime) error
	ShowtimeDetail(ctx context.Context, id string) (*model.ShowtimeDetail, error)
	ListShowtimes(ctx context.Context, f model.ShowtimeFilter) ([]model.ShowtimeDetail, error)
	UpdateShowtime(ctx context.Context, s *model.Showtime) error
	DeleteShowtime(ctx context.Context, id string) error
}

// Service implements catalog administration and browsing.
type Service struct {
	store Store
	log   logrus.FieldLogger
	now   func() time.Time
}

// NewService returns a catalog service backed by store.
func NewService(store Store, log logrus.FieldLogger) *Service {
	if log == nil {
		l := logrus.New()
		l.SetLevel(logrus.WarnLevel)
		log = l
	}
	return &Service{store: store, log: log.WithField("component", "catalog"), now: time.Now}
}

// ---- theatres ----

// CreateTheatre validates and stores a new theatre.  PremiumRows defaults
// to model.DefaultPremiumRows when nil.
func (s *Service) CreateTheatre(ctx context.Context, in TheatreInput) (*model.Theatre, error) {
	t := &model.Theatre{ID: uuid.NewString(), PremiumRows: model.DefaultPremiumRows}
	if err := in.apply(t); err != nil {
		return nil, err
	}
	now := s.now().UTC()
	t.CreatedAt, t.UpdatedAt = now, now
	if err := s.store.CreateTheatre(ctx, t); err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"theatre_id": t.ID, "seats": t.TotalSeats()}).Info("theatre created")
	return t, nil
}

// Theatre returns one theatre.
func (s *Service) Theatre(ctx context.Context, id string) (*model.Theatre, error) {
	return s.store.Theatre(ctx, id)
}

// ListTheatres returns all theatres ordered by name.
func (s *Service) ListTheatres(ctx context.Context) ([]model.Theatre, error) {
	return s.store.ListTheatres(ctx)
}

// UpdateTheatre changes the attributes set in in.  The store refuses a
// geometry change with ErrConflict while confirmed bookings hold seats in
// the theatre, and serializes that check with concurrent seat claims.
func (s *Service) UpdateTheatre(ctx context.Context, id string, in TheatreInput) (*model.Theatre, error) {
	cur, err := s.store.Theatre(ctx, id)
	if err != nil {
		return nil, err
	}
	next := *cur
	if err := in.apply(&next); err != nil {
		return nil, err
	}
	next.UpdatedAt = s.now().UTC()
	if err := s.store.UpdateTheatre(ctx, &next); err != nil {
		return nil, err
	}
	return &next, nil
}

// DeleteTheatre removes a theatre without showtimes.
func (s *Service) DeleteTheatre(ctx context.Context, id string) error {
	if err := s.store.DeleteTheatre(ctx, id); err != nil {
		return err
	}
	s.log.WithField("theatre_id", id).Info("theatre deleted")
	return nil
}

// ---- movies ----

// CreateMovie validates and stores a new movie.
func (s *Service) CreateMovie(ctx context.Context, in MovieInput) (*model.Movie, error) {
	m := &model.Movie{ID: uuid.NewString(), IsActive: true}
	if err := in.apply(m); err != nil {
		return nil, err
	}
	now := s.now().UTC()
	m.CreatedAt, m.UpdatedAt = now, now
	if err := s.store.CreateMovie(ctx, m); err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"movie_id": m.ID, "title": m.Title}).Info("movie created")
	return m, nil
}

// Movie returns one movie.  Inactive movies are hidden unless
// includeInactive is set.
func (s *Service) Movie(ctx context.Context, id string, includeInactive bool) (*model.Movie, error) {
	m, err := s.store.Movie(ctx, id)
	if err != nil {
		return nil, err
	}
	if !m.IsActive && !includeInactive {
		return nil, model.NotFound("movie")
	}
	return m, nil
}

// ListMovies returns movies, newest first.
func (s *Service) ListMovies(ctx context.Context, f model.MovieFilter) ([]model.Movie, error) {
	return s.store.ListMovies(ctx, f)
}

// UpdateMovie changes the attributes set in in.
func (s *Service) UpdateMovie(ctx context.Context, id string, in MovieInput) (*model.Movie, error) {
	cur, err := s.store.Movie(ctx, id)
	if err != nil {
		return nil, err
	}
	next := *cur
	if err := in.apply(&next); err != nil {
		return nil, err
	}
	next.UpdatedAt = s.now().UTC()
	if err := s.store.UpdateMovie(ctx, &next); err != nil {
		return nil, err
	}
	return &next, nil
}

// DeleteMovie removes a movie without showtimes.
func (s *Service) DeleteMovie(ctx context.Context, id string) error {
	if err := s.store.DeleteMovie(ctx, id); err != nil {
		return err
	}
	s.log.WithField("movie_id", id).Info("movie deleted")
	return nil
}

// ---- showtimes ----

// CreateShowtime schedules a movie in a theatre.  The screening may not
// overlap another active showtime of the same theatre.
func (s *Service) CreateShowtime(ctx context.Context, in ShowtimeInput) (*model.ShowtimeDetail, error) {
	st := &model.Showtime{ID: uuid.NewString(), IsActive: true}
	if err := in.apply(st); err != nil {
		return nil, err
	}
	if err := s.checkSchedule(ctx, st); err != nil {
		return nil, err
	}
	now := s.now().UTC()
	st.CreatedAt, st.UpdatedAt = now, now
	if err := s.store.CreateShowtime(ctx, st); err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"showtime_id": st.ID, "movie_id": st.MovieID, "theatre_id": st.TheatreID}).Info("showtime created")
	return s.store.ShowtimeDetail(ctx, st.ID)
}

// Showtime returns one showtime with its movie and theatre.
func (s *Service) Showtime(ctx context.Context, id string) (*model.ShowtimeDetail, error) {
	return s.store.ShowtimeDetail(ctx, id)
}

// ListShowtimes returns showtimes ordered by date and time.
func (s *Service) ListShowtimes(ctx context.Context, f model.ShowtimeFilter) ([]model.ShowtimeDetail, error) {
	if f.Date != "" {
		if _, err := time.Parse(model.DateLayout, f.Date); err != nil {
			return nil, model.Invalid("date", "must be formatted as YYYY-MM-DD")
		}
	}
	return s.store.ListShowtimes(ctx, f)
}

// UpdateShowtime changes the attributes set in in.  The store refuses to
// move a showtime with booked seats to another theatre.
func (s *Service) UpdateShowtime(ctx context.Context, id string, in ShowtimeInput) (*model.ShowtimeDetail, error) {
	cur, err := s.store.ShowtimeDetail(ctx, id)
	if err != nil {
		return nil, err
	}
	next := cur.Showtime
	if err := in.apply(&next); err != nil {
		return nil, err
	}
	if err := s.checkSchedule(ctx, &next); err != nil {
		return nil, err
	}
	next.UpdatedAt = s.now().UTC()
	if err := s.store.UpdateShowtime(ctx, &next); err != nil {
		return nil, err
	}
	return s.store.ShowtimeDetail(ctx, id)
}

// DeleteShowtime removes a showtime without bookings.
func (s *Service) DeleteShowtime(ctx context.Context, id string) error {
	if err := s.store.DeleteShowtime(ctx, id); err != nil {
		return err
	}
	s.log.WithField("showtime_id", id).Info("showtime deleted")
	return nil
}

// checkSchedule resolves the movie and theatre of st and rejects
// overlaps with other active showtimes in the same theatre.
func (s *Service) checkSchedule(ctx context.Context, st *model.Showtime) error {
	movie, err := s.store.Movie(ctx, st.MovieID)
	if err != nil {
		return referenced("movie_id", err)
	}
	if _, err := s.store.Theatre(ctx, st.TheatreID); err != nil {
		return referenced("theatre_id", err)
	}
	if !st.IsActive {
		return nil
	}
	start, _ := st.StartsAt()
	end := start.Add(time.Duration(movie.DurationMinutes) * time.Minute)

	others, err := s.store.ListShowtimes(ctx, model.ShowtimeFilter{TheatreID: st.TheatreID, ActiveOnly: true})
	if err != nil {
		return err
	}
	for _, o := range others {
		if o.ID == st.ID {
			continue
		}
		oStart, ok := o.StartsAt()
		if !ok {
			continue
		}
		oEnd := oStart.Add(time.Duration(o.Movie.DurationMinutes) * time.Minute)
		if start.Before(oEnd) && oStart.Before(end) {
			return fmt.Errorf("%w: overlaps showtime %s at %s %s", model.ErrConflict, o.ID, o.ShowDate, o.ShowTime)
		}
	}
	return nil
}

func referenced(field string, err error) error {
	if errors.Is(err, model.ErrNotFound) {
		return model.Invalid(field, "references an unknown record")
	}
	return err
}
