package memstore

import (
	"context"
	"fmt"
	"sort"

	"github.com/iliyamo/movie-ticket-booking/internal/model"
	"github.com/iliyamo/movie-ticket-booking/internal/seatmap"
)

// ---- theatres ----

func (s *Store) CreateTheatre(ctx context.Context, t *model.Theatre) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.theatres[t.ID]; dup {
		return fmt.Errorf("%w: theatre %s already exists", model.ErrConflict, t.ID)
	}
	s.theatres[t.ID] = *t
	return nil
}

func (s *Store) Theatre(ctx context.Context, id string) (*model.Theatre, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.theatres[id]
	if !ok {
		return nil, model.NotFound("theatre")
	}
	return &t, nil
}

func (s *Store) ListTheatres(ctx context.Context) ([]model.Theatre, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Theatre, 0, len(s.theatres))
	for _, t := range s.theatres {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// UpdateTheatre replaces t.  A change of seat geometry is refused while
// any showtime of the theatre holds booked seats.
func (s *Store) UpdateTheatre(ctx context.Context, t *model.Theatre) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.theatres[t.ID]
	if !ok {
		return model.NotFound("theatre")
	}
	if seatmap.FromTheatre(cur) != seatmap.FromTheatre(*t) && s.theatreBookedLocked(t.ID) {
		return fmt.Errorf("%w: theatre geometry is locked by confirmed bookings", model.ErrConflict)
	}
	s.theatres[t.ID] = *t
	return nil
}

func (s *Store) DeleteTheatre(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.theatres[id]; !ok {
		return model.NotFound("theatre")
	}
	for _, st := range s.showtimes {
		if st.TheatreID == id {
			return fmt.Errorf("%w: theatre still has showtimes", model.ErrConflict)
		}
	}
	delete(s.theatres, id)
	return nil
}

func (s *Store) theatreBookedLocked(theatreID string) bool {
	for id, st := range s.showtimes {
		if st.TheatreID == theatreID && len(s.ledger[id]) > 0 {
			return true
		}
	}
	return false
}

// ---- movies ----

func (s *Store) CreateMovie(ctx context.Context, m *model.Movie) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.movies[m.ID]; dup {
		return fmt.Errorf("%w: movie %s already exists", model.ErrConflict, m.ID)
	}
	s.movies[m.ID] = *m
	return nil
}

func (s *Store) Movie(ctx context.Context, id string) (*model.Movie, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.movies[id]
	if !ok {
		return nil, model.NotFound("movie")
	}
	return &m, nil
}

func (s *Store) ListMovies(ctx context.Context, f model.MovieFilter) ([]model.Movie, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []model.Movie{}
	for _, m := range s.movies {
		if f.ActiveOnly && !m.IsActive {
			continue
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].Title < out[j].Title
	})
	return out, nil
}

func (s *Store) UpdateMovie(ctx context.Context, m *model.Movie) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.movies[m.ID]; !ok {
		return model.NotFound("movie")
	}
	s.movies[m.ID] = *m
	return nil
}

func (s *Store) DeleteMovie(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.movies[id]; !ok {
		return model.NotFound("movie")
	}
	for _, st := range s.showtimes {
		if st.MovieID == id {
			return fmt.Errorf("%w: movie still has showtimes", model.ErrConflict)
		}
	}
	delete(s.movies, id)
	return nil
}

// ---- showtimes ----

func (s *Store) CreateShowtime(ctx context.Context, st *model.Showtime) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkRefsLocked(st); err != nil {
		return err
	}
	if _, dup := s.showtimes[st.ID]; dup {
		return fmt.Errorf("%w: showtime %s already exists", model.ErrConflict, st.ID)
	}
	s.showtimes[st.ID] = *st
	return nil
}

func (s *Store) ListShowtimes(ctx context.Context, f model.ShowtimeFilter) ([]model.ShowtimeDetail, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []model.ShowtimeDetail{}
	for id, st := range s.showtimes {
		if f.MovieID != "" && st.MovieID != f.MovieID {
			continue
		}
		if f.TheatreID != "" && st.TheatreID != f.TheatreID {
			continue
		}
		if f.Date != "" && st.ShowDate != f.Date {
			continue
		}
		d, _ := s.detailLocked(id)
		if f.ActiveOnly && (!st.IsActive || !d.Movie.IsActive) {
			continue
		}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.ShowDate != b.ShowDate {
			return a.ShowDate < b.ShowDate
		}
		if a.ShowTime != b.ShowTime {
			return a.ShowTime < b.ShowTime
		}
		return a.ID < b.ID
	})
	return out, nil
}

func (s *Store) UpdateShowtime(ctx context.Context, st *model.Showtime) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.showtimes[st.ID]
	if !ok {
		return model.NotFound("showtime")
	}
	if err := s.checkRefsLocked(st); err != nil {
		return err
	}
	if cur.TheatreID != st.TheatreID && len(s.ledger[st.ID]) > 0 {
		return fmt.Errorf("%w: showtime with bookings cannot move to another theatre", model.ErrConflict)
	}
	s.showtimes[st.ID] = *st
	return nil
}

func (s *Store) DeleteShowtime(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.showtimes[id]; !ok {
		return model.NotFound("showtime")
	}
	for _, b := range s.bookings {
		if b.ShowtimeID == id {
			return fmt.Errorf("%w: showtime still has bookings", model.ErrConflict)
		}
	}
	delete(s.showtimes, id)
	delete(s.ledger, id)
	return nil
}

func (s *Store) checkRefsLocked(st *model.Showtime) error {
	if _, ok := s.movies[st.MovieID]; !ok {
		return model.NotFound("movie")
	}
	if _, ok := s.theatres[st.TheatreID]; !ok {
		return model.NotFound("theatre")
	}
	return nil
}
