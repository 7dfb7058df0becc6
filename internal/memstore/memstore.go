// Package memstore is an in-process implementation of the booking and
// catalog stores.  It backs STORE=memory deployments and the service
// tests.  Seat claims are made under a single mutex with the same
// all-or-nothing semantics as the MySQL seat ledger.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/iliyamo/movie-ticket-booking/internal/model"
	"github.com/iliyamo/movie-ticket-booking/internal/seatmap"
)

// Store keeps every entity in maps guarded by mu.
type Store struct {
	mu sync.RWMutex

	theatres  map[string]model.Theatre
	movies    map[string]model.Movie
	showtimes map[string]model.Showtime
	bookings  map[string]model.Booking
	seq       map[string]int64 // booking insertion order, breaks CreatedAt ties
	next      int64

	ledger map[string]map[string]string // showtime id -> seat -> booking id
	codes  map[string]string            // ticket code -> booking id
}

// New returns an empty store.
func New() *Store {
	return &Store{
		theatres:  map[string]model.Theatre{},
		movies:    map[string]model.Movie{},
		showtimes: map[string]model.Showtime{},
		bookings:  map[string]model.Booking{},
		seq:       map[string]int64{},
		ledger:    map[string]map[string]string{},
		codes:     map[string]string{},
	}
}

// Ping always succeeds.
func (s *Store) Ping(ctx context.Context) error { return ctx.Err() }

// ---- bookings ----

func (s *Store) ShowtimeDetail(ctx context.Context, id string) (*model.ShowtimeDetail, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.detailLocked(id)
	if !ok {
		return nil, model.NotFound("showtime")
	}
	return &d, nil
}

func (s *Store) BookedSeats(ctx context.Context, showtimeID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.ledger[showtimeID]))
	for seat := range s.ledger[showtimeID] {
		out = append(out, seat)
	}
	seatmap.Sort(out)
	return out, nil
}

// InsertBooking claims every seat of b and stores it, or changes nothing.
func (s *Store) InsertBooking(ctx context.Context, b *model.Booking) error {
	if err := ctx.Err(); err != nil {
		return model.Unavailable(err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.showtimes[b.ShowtimeID]
	if !ok {
		return model.NotFound("showtime")
	}
	grid := seatmap.FromTheatre(s.theatres[st.TheatreID])
	for _, seat := range b.Seats {
		if _, _, err := grid.Parse(seat); err != nil {
			return err
		}
	}
	if _, dup := s.bookings[b.ID]; dup {
		return fmt.Errorf("%w: booking %s already exists", model.ErrConflict, b.ID)
	}
	claimed := s.ledger[b.ShowtimeID]
	var taken []string
	for _, seat := range b.Seats {
		if _, busy := claimed[seat]; busy {
			taken = append(taken, seat)
		}
	}
	if len(taken) > 0 {
		return &model.SeatConflictError{ShowtimeID: b.ShowtimeID, Seats: taken}
	}
	if _, dup := s.codes[b.TicketCode]; dup {
		return model.ErrTicketCodeTaken
	}

	if claimed == nil {
		claimed = map[string]string{}
		s.ledger[b.ShowtimeID] = claimed
	}
	for _, seat := range b.Seats {
		claimed[seat] = b.ID
	}
	s.codes[b.TicketCode] = b.ID
	s.next++
	s.seq[b.ID] = s.next
	s.bookings[b.ID] = cloneBooking(*b)
	return nil
}

func (s *Store) Booking(ctx context.Context, id string) (*model.BookingDetail, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.bookings[id]
	if !ok {
		return nil, model.NotFound("booking")
	}
	d := s.bookingDetailLocked(b)
	return &d, nil
}

// ListBookings returns matching bookings, most recent first.
func (s *Store) ListBookings(ctx context.Context, f model.BookingFilter) ([]model.BookingDetail, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []model.BookingDetail{}
	for _, b := range s.bookings {
		if f.Matches(b) {
			out = append(out, s.bookingDetailLocked(b))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return s.seq[out[i].ID] > s.seq[out[j].ID]
	})
	return out, nil
}

// ChangeBookingStatus applies ch when the booking is still in ch.From.
func (s *Store) ChangeBookingStatus(ctx context.Context, ch model.StatusChange) (*model.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[ch.BookingID]
	if !ok {
		return nil, model.NotFound("booking")
	}
	if b.BookingStatus != ch.From {
		return nil, model.ErrInvalidTransition
	}
	b.BookingStatus = ch.To
	if ch.Payment != "" {
		b.PaymentStatus = ch.Payment
	}
	b.UpdatedAt = ch.At
	if ch.ReleaseSeats {
		claimed := s.ledger[b.ShowtimeID]
		for _, seat := range b.Seats {
			if claimed[seat] == b.ID {
				delete(claimed, seat)
			}
		}
	}
	s.bookings[b.ID] = b
	out := cloneBooking(b)
	return &out, nil
}

func (s *Store) detailLocked(showtimeID string) (model.ShowtimeDetail, bool) {
	st, ok := s.showtimes[showtimeID]
	if !ok {
		return model.ShowtimeDetail{}, false
	}
	return model.ShowtimeDetail{Showtime: st, Movie: s.movies[st.MovieID], Theatre: s.theatres[st.TheatreID]}, true
}

func (s *Store) bookingDetailLocked(b model.Booking) model.BookingDetail {
	d, _ := s.detailLocked(b.ShowtimeID)
	return model.BookingDetail{Booking: cloneBooking(b), Showtime: d}
}

func cloneBooking(b model.Booking) model.Booking {
	b.Seats = append([]string(nil), b.Seats...)
	return b
}
