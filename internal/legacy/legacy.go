// Package legacy converts exports of the single-show booking model (a show
// with a bare seat count and numeric seats) into theatres, movies,
// showtimes and bookings.
package legacy

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/movie-ticket-booking/internal/model"
	"github.com/iliyamo/movie-ticket-booking/internal/pricing"
	"github.com/iliyamo/movie-ticket-booking/internal/seatmap"
)

// namespace seeds the deterministic ids of converted records, so that
// converting the same export twice yields the same ids.
var namespace = uuid.MustParse("7d5c3a9e-2f4b-4e51-9a0c-6f1d2b8e4c77")

// Show is a legacy show.
type Show struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	StartTime   time.Time `json:"startTime"`
	TotalSeats  int       `json:"totalSeats"`
	BookedSeats []int     `json:"bookedSeats"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Booking is a legacy booking.  Status is PENDING, CONFIRMED or FAILED.
type Booking struct {
	ID        string    `json:"id"`
	ShowID    string    `json:"showId"`
	Seats     []int     `json:"seats"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

// Export is the persisted state of the legacy application, keyed the way
// it kept it in browser storage.
type Export struct {
	Shows    []Show    `json:"seat-booking-shows"`
	Bookings []Booking `json:"seat-booking-bookings"`
}

// Decode reads an export document.
func Decode(r io.Reader) (*Export, error) {
	var exp Export
	dec := json.NewDecoder(r)
	if err := dec.Decode(&exp); err != nil {
		return nil, fmt.Errorf("decode legacy export: %w", err)
	}
	return &exp, nil
}

// Options controls how legacy records are mapped.
type Options struct {
	City            string
	BasePrice       decimal.Decimal
	PremiumPrice    decimal.Decimal
	PremiumRows     int
	DurationMinutes int
	// UserID owns the converted bookings; the legacy model had no users.
	UserID string
	// NewTicketCode issues codes for converted bookings.
	NewTicketCode func() (string, error)
}

// Converted holds the records derived from an export.
type Converted struct {
	Theatres  []model.Theatre
	Movies    []model.Movie
	Showtimes []model.Showtime
	Bookings  []model.Booking
	// Skipped explains every legacy record that was not converted.
	Skipped []string
}

// Convert maps an export onto the relational model.  Each show becomes a
// theatre shaped like the grid the legacy UI displayed, a movie named
// after the show and one showtime.  Only CONFIRMED bookings are carried
// over; seats marked booked on a show without a confirmed booking are
// kept occupied by a synthesized hold booking.
func Convert(exp Export, opts Options) (*Converted, error) {
	if err := pricing.ValidateTiers(opts.BasePrice, opts.PremiumPrice); err != nil {
		return nil, err
	}
	if opts.NewTicketCode == nil {
		return nil, fmt.Errorf("legacy: ticket code generator is required")
	}
	if opts.DurationMinutes <= 0 {
		opts.DurationMinutes = 120
	}
	if opts.UserID == "" {
		opts.UserID = "legacy-import"
	}

	out := &Converted{}
	byShow := map[string][]Booking{}
	for _, b := range exp.Bookings {
		byShow[b.ShowID] = append(byShow[b.ShowID], b)
	}

	for _, sh := range exp.Shows {
		if sh.TotalSeats <= 0 {
			out.Skipped = append(out.Skipped, fmt.Sprintf("show %s: no seats", sh.ID))
			continue
		}
		rows, perRow := seatmap.LegacyDimensions(sh.TotalSeats)
		premium := opts.PremiumRows
		if premium > rows {
			premium = rows
		}
		created := sh.CreatedAt.UTC()
		if created.IsZero() {
			created = time.Now().UTC()
		}
		theatre := model.Theatre{
			ID:          derive("theatre", sh.ID),
			Name:        "Legacy: " + strings.TrimSpace(sh.Name),
			Location:    "imported",
			City:        opts.City,
			TotalRows:   rows,
			SeatsPerRow: perRow,
			PremiumRows: premium,
			CreatedAt:   created,
			UpdatedAt:   created,
		}
		movie := model.Movie{
			ID:              derive("movie", sh.ID),
			Title:           strings.TrimSpace(sh.Name),
			Genre:           "Unknown",
			DurationMinutes: opts.DurationMinutes,
			Language:        "Unknown",
			IsActive:        true,
			CreatedAt:       created,
			UpdatedAt:       created,
		}
		start := sh.StartTime.UTC()
		showtime := model.Showtime{
			ID:           derive("showtime", sh.ID),
			MovieID:      movie.ID,
			TheatreID:    theatre.ID,
			ShowDate:     start.Format(model.DateLayout),
			ShowTime:     start.Format(model.TimeLayout),
			BasePrice:    opts.BasePrice,
			PremiumPrice: opts.PremiumPrice,
			IsActive:     true,
			CreatedAt:    created,
			UpdatedAt:    created,
		}
		out.Theatres = append(out.Theatres, theatre)
		out.Movies = append(out.Movies, movie)
		out.Showtimes = append(out.Showtimes, showtime)

		calc := pricing.For(theatre, showtime)
		claimed := map[int]bool{}
		bookings := byShow[sh.ID]
		sort.SliceStable(bookings, func(i, j int) bool { return bookings[i].CreatedAt.Before(bookings[j].CreatedAt) })
		for _, lb := range bookings {
			if !strings.EqualFold(lb.Status, string(model.BookingConfirmed)) {
				out.Skipped = append(out.Skipped, fmt.Sprintf("booking %s: status %s", lb.ID, lb.Status))
				continue
			}
			labels, reason := mapSeats(lb.Seats, sh.TotalSeats, perRow, claimed)
			if reason != "" {
				out.Skipped = append(out.Skipped, fmt.Sprintf("booking %s: %s", lb.ID, reason))
				continue
			}
			b, err := newBooking(derive("booking", lb.ID), showtime.ID, opts, calc, labels, lb.CreatedAt)
			if err != nil {
				return nil, err
			}
			for _, n := range lb.Seats {
				claimed[n] = true
			}
			out.Bookings = append(out.Bookings, b)
		}

		var orphans []int
		for _, n := range sh.BookedSeats {
			if !claimed[n] && n >= 1 && n <= sh.TotalSeats {
				orphans = append(orphans, n)
				claimed[n] = true
			}
		}
		if len(orphans) > 0 {
			labels, _ := mapSeats(orphans, sh.TotalSeats, perRow, map[int]bool{})
			b, err := newBooking(derive("hold", sh.ID), showtime.ID, opts, calc, labels, created)
			if err != nil {
				return nil, err
			}
			out.Bookings = append(out.Bookings, b)
		}
	}
	return out, nil
}

// mapSeats converts seat numbers to labels.  A non-empty reason means the
// booking cannot be converted.
func mapSeats(seats []int, total, perRow int, claimed map[int]bool) ([]string, string) {
	if len(seats) == 0 {
		return nil, "no seats"
	}
	seen := map[int]bool{}
	labels := make([]string, 0, len(seats))
	for _, n := range seats {
		switch {
		case n < 1 || n > total:
			return nil, fmt.Sprintf("seat %d outside 1..%d", n, total)
		case seen[n]:
			return nil, fmt.Sprintf("seat %d listed twice", n)
		case claimed[n]:
			return nil, fmt.Sprintf("seat %d already held by an earlier booking", n)
		}
		seen[n] = true
		labels = append(labels, seatmap.LegacyLabel(n, perRow))
	}
	seatmap.Sort(labels)
	return labels, ""
}

func newBooking(id, showtimeID string, opts Options, calc pricing.Calculator, labels []string, at time.Time) (model.Booking, error) {
	total, err := calc.Total(labels)
	if err != nil {
		return model.Booking{}, err
	}
	code, err := opts.NewTicketCode()
	if err != nil {
		return model.Booking{}, err
	}
	at = at.UTC()
	return model.Booking{
		ID:            id,
		ShowtimeID:    showtimeID,
		UserID:        opts.UserID,
		Seats:         labels,
		TotalAmount:   total,
		PaymentStatus: model.PaymentPaid,
		BookingStatus: model.BookingConfirmed,
		TicketCode:    code,
		CreatedAt:     at,
		UpdatedAt:     at,
	}, nil
}

func derive(kind, legacyID string) string {
	return uuid.NewSHA1(namespace, []byte(kind+":"+legacyID)).String()
}
