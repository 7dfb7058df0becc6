// Package booking reserves seats for showtimes and manages the resulting
// bookings.  Double booking is prevented by the store, which keeps one
// ledger entry per (showtime, seat) under a uniqueness constraint; the
// service validates, prices and issues ticket codes around it.
package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/movie-ticket-booking/internal/metrics"
	"github.com/iliyamo/movie-ticket-booking/internal/model"
	"github.com/iliyamo/movie-ticket-booking/internal/pricing"
	"github.com/iliyamo/movie-ticket-booking/internal/queue"
	"github.com/iliyamo/movie-ticket-booking/internal/seatmap"
)

// ticketAttempts bounds how often a colliding ticket code is regenerated.
const ticketAttempts = 3

// Store persists bookings.  InsertBooking must be atomic: it either stores
// the booking and claims every seat, or stores nothing and returns a
// *model.SeatConflictError naming the seats already taken.
type Store interface {
	ShowtimeDetail(ctx context.Context, id string) (*model.ShowtimeDetail, error)
	BookedSeats(ctx context.Context, showtimeID string) ([]string, error)
	InsertBooking(ctx context.Context, b *model.Booking) error
	Booking(ctx context.Context, id string) (*model.BookingDetail, error)
	ListBookings(ctx context.Context, f model.BookingFilter) ([]model.BookingDetail, error)
	ChangeBookingStatus(ctx context.Context, ch model.StatusChange) (*model.Booking, error)
}

// Refunder returns money for cancelled bookings.
type Refunder interface {
	Refund(ctx context.Context, bookingID string, amount decimal.Decimal) error
}

// Publisher delivers booking events to the broker.
type Publisher interface {
	Publish(ctx context.Context, ev queue.BookingEvent) error
}

// Actor is the authenticated caller of an operation.
type Actor struct {
	UserID string
	Admin  bool
}

// Service implements reservation and booking management.
type Service struct {
	store    Store
	refunder Refunder
	events   Publisher
	log      logrus.FieldLogger

	now     func() time.Time
	newCode func() (string, error)
	pending sync.WaitGroup
}

// NewService wires a booking service.  refunder and events may be nil: no
// refunds are issued and no events are published then.
func NewService(store Store, refunder Refunder, events Publisher, log logrus.FieldLogger) *Service {
	if log == nil {
		l := logrus.New()
		l.SetLevel(logrus.WarnLevel)
		log = l
	}
	return &Service{
		store:    store,
		refunder: refunder,
		events:   events,
		log:      log.WithField("component", "booking"),
		now:      time.Now,
		newCode:  NewTicketCode,
	}
}

// ReserveRequest is the input of Reserve.
type ReserveRequest struct {
	ShowtimeID string
	Seats      []string
	UserID     string
	// TotalAmount, when non-zero, must equal the computed price.
	TotalAmount decimal.Decimal
	// PaymentStatus defaults to PENDING.
	PaymentStatus model.PaymentStatus
}

// QuoteLine is the price of one seat.
type QuoteLine struct {
	Seat    string          `json:"seat"`
	Premium bool            `json:"premium"`
	Price   decimal.Decimal `json:"price"`
}

// Quote is the priced, validated form of a seat selection.
type Quote struct {
	ShowtimeID string          `json:"showtime_id"`
	Seats      []string        `json:"seats"`
	Lines      []QuoteLine     `json:"lines"`
	Total      decimal.Decimal `json:"total_amount"`

	showtime *model.ShowtimeDetail
}

// Reserve turns a seat selection into a CONFIRMED booking, or fails with
// no booking and no claimed seat left behind.
func (s *Service) Reserve(ctx context.Context, req ReserveRequest) (*model.Booking, error) {
	start := time.Now()
	b, err := s.reserve(ctx, req)
	metrics.TrackReservation(resultOf(err), len(req.Seats), time.Since(start))
	return b, err
}

func (s *Service) reserve(ctx context.Context, req ReserveRequest) (*model.Booking, error) {
	userID := strings.TrimSpace(req.UserID)
	if userID == "" {
		return nil, model.Invalid("user_id", "is required")
	}
	payment := req.PaymentStatus
	if payment == "" {
		payment = model.PaymentPending
	}
	if payment != model.PaymentPending && payment != model.PaymentPaid {
		return nil, model.Invalid("payment_status", "a booking cannot be confirmed with payment %s", payment)
	}

	q, err := s.quote(ctx, req.ShowtimeID, req.Seats)
	if err != nil {
		return nil, err
	}
	if !req.TotalAmount.IsZero() && !req.TotalAmount.Equal(q.Total) {
		return nil, model.Invalid("total_amount", "expected %s for the selected seats, got %s",
			q.Total.StringFixed(2), req.TotalAmount.StringFixed(2))
	}

	now := s.now().UTC()
	b := &model.Booking{
		ID:            uuid.NewString(),
		ShowtimeID:    q.ShowtimeID,
		UserID:        userID,
		Seats:         q.Seats,
		TotalAmount:   q.Total,
		PaymentStatus: payment,
		BookingStatus: model.BookingConfirmed,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	for attempt := 1; ; attempt++ {
		code, err := s.newCode()
		if err != nil {
			return nil, model.Unavailable(fmt.Errorf("generate ticket code: %w", err))
		}
		b.TicketCode = code
		err = s.store.InsertBooking(ctx, b)
		if err == nil {
			break
		}
		if errors.Is(err, model.ErrTicketCodeTaken) && attempt < ticketAttempts {
			s.log.WithField("ticket_code", code).Warn("ticket code collision; regenerating")
			continue
		}
		var conflict *model.SeatConflictError
		if errors.As(err, &conflict) {
			s.log.WithFields(logrus.Fields{"showtime_id": b.ShowtimeID, "seats": conflict.Seats}).Info("reservation rejected: seats taken")
			return nil, err
		}
		if errors.Is(err, model.ErrTicketCodeTaken) {
			return nil, model.Unavailable(err)
		}
		return nil, fmt.Errorf("persist booking: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"booking_id":  b.ID,
		"showtime_id": b.ShowtimeID,
		"user_id":     b.UserID,
		"seats":       b.Seats,
		"total":       b.TotalAmount.StringFixed(2),
		"ticket_code": b.TicketCode,
	}).Info("booking confirmed")
	s.publish(queue.BookingConfirmed, *b, *q.showtime)
	return b, nil
}

// Quote validates a selection against the showtime and prices it without
// writing anything.  Seats already booked are reported as a
// *model.SeatConflictError.
func (s *Service) Quote(ctx context.Context, showtimeID string, seats []string) (*Quote, error) {
	q, err := s.quote(ctx, showtimeID, seats)
	if err != nil {
		return nil, err
	}
	booked, err := s.store.BookedSeats(ctx, q.ShowtimeID)
	if err != nil {
		return nil, err
	}
	if taken := intersect(q.Seats, booked); len(taken) > 0 {
		return nil, &model.SeatConflictError{ShowtimeID: q.ShowtimeID, Seats: taken}
	}
	return q, nil
}

func (s *Service) quote(ctx context.Context, showtimeID string, seats []string) (*Quote, error) {
	st, err := s.openShowtime(ctx, showtimeID)
	if err != nil {
		return nil, err
	}
	if len(seats) == 0 {
		return nil, model.Invalid("seats", "at least one seat must be selected")
	}
	layout := seatmap.FromTheatre(st.Theatre)
	normalized, err := layout.Normalize(seats)
	if err != nil {
		return nil, err
	}

	calc := pricing.For(st.Theatre, st.Showtime)
	q := &Quote{ShowtimeID: st.ID, Seats: normalized, Lines: make([]QuoteLine, 0, len(normalized)), showtime: st}
	for _, lbl := range normalized {
		price, err := calc.Price(lbl)
		if err != nil {
			return nil, err
		}
		row, _, _ := layout.Parse(lbl)
		q.Lines = append(q.Lines, QuoteLine{Seat: lbl, Premium: layout.IsPremiumRow(row), Price: price})
	}
	if q.Total, err = calc.Total(normalized); err != nil {
		return nil, err
	}
	return q, nil
}

// openShowtime loads a showtime that can still be booked.
func (s *Service) openShowtime(ctx context.Context, showtimeID string) (*model.ShowtimeDetail, error) {
	if strings.TrimSpace(showtimeID) == "" {
		return nil, model.Invalid("showtime_id", "is required")
	}
	st, err := s.store.ShowtimeDetail(ctx, showtimeID)
	if err != nil {
		return nil, err
	}
	if !st.IsActive || !st.Movie.IsActive {
		return nil, model.Invalid("showtime_id", "showtime is not open for booking")
	}
	if starts, ok := st.StartsAt(); ok && !s.now().Before(starts) {
		return nil, model.Invalid("showtime_id", "showtime has already started")
	}
	return st, nil
}

// BookedSeats returns the seats currently held by confirmed or completed
// bookings of the showtime.
func (s *Service) BookedSeats(ctx context.Context, showtimeID string) ([]string, error) {
	if _, err := s.store.ShowtimeDetail(ctx, showtimeID); err != nil {
		return nil, err
	}
	return s.store.BookedSeats(ctx, showtimeID)
}

// PricedSeat is a seat map entry together with its price.
type PricedSeat struct {
	seatmap.Seat
	Price decimal.Decimal `json:"price"`
}

// SeatMap is the classified seat grid of a showtime.
type SeatMap struct {
	Showtime    model.ShowtimeDetail   `json:"showtime"`
	Rows        [][]PricedSeat         `json:"rows"`
	Counts      map[seatmap.Status]int `json:"counts"`
	BookedSeats []string               `json:"booked_seats"`
}

// SeatMap classifies every seat of the showtime.  selected is the caller's
// in-progress selection; unknown labels in it are a validation error.
func (s *Service) SeatMap(ctx context.Context, showtimeID string, selected []string) (*SeatMap, error) {
	st, err := s.store.ShowtimeDetail(ctx, showtimeID)
	if err != nil {
		return nil, err
	}
	layout := seatmap.FromTheatre(st.Theatre)
	for _, lbl := range selected {
		if _, _, err := layout.Parse(lbl); err != nil {
			return nil, err
		}
	}
	booked, err := s.store.BookedSeats(ctx, st.ID)
	if err != nil {
		return nil, err
	}

	classified := layout.Classify(booked, selected)
	prices := pricing.For(st.Theatre, st.Showtime).RowPrices()
	rows := make([][]PricedSeat, len(classified))
	for r, row := range classified {
		rows[r] = make([]PricedSeat, len(row))
		for i, seat := range row {
			rows[r][i] = PricedSeat{Seat: seat, Price: prices[r]}
		}
	}
	if booked == nil {
		booked = []string{}
	}
	return &SeatMap{Showtime: *st, Rows: rows, Counts: seatmap.Counts(classified), BookedSeats: booked}, nil
}

// Drain waits for in-flight event publications.
func (s *Service) Drain() { s.pending.Wait() }

// publish sends the event in the background once the booking change has
// been committed.  Failures are logged and otherwise ignored.
func (s *Service) publish(kind string, b model.Booking, st model.ShowtimeDetail) {
	if s.events == nil {
		return
	}
	ev := queue.NewBookingEvent(kind, b, st, s.now())
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.events.Publish(ctx, ev); err != nil {
			s.log.WithError(err).WithFields(logrus.Fields{"event": kind, "booking_id": b.ID}).Warn("publish booking event failed")
		}
	}()
}

func resultOf(err error) string {
	switch {
	case err == nil:
		return metrics.ResultConfirmed
	case errors.Is(err, model.ErrConflict):
		return metrics.ResultConflict
	case errors.Is(err, model.ErrValidation):
		return metrics.ResultInvalid
	case errors.Is(err, model.ErrNotFound):
		return metrics.ResultNotFound
	}
	return metrics.ResultError
}

// intersect returns the members of want found in have, in want's order.
func intersect(want, have []string) []string {
	set := make(map[string]struct{}, len(have))
	for _, h := range have {
		set[h] = struct{}{}
	}
	var out []string
	for _, w := range want {
		if _, ok := set[w]; ok {
			out = append(out, w)
		}
	}
	return out
}
