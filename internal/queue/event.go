// Package queue defines the booking lifecycle events exchanged over the
// message broker, together with their publisher and consumer.
package queue

import (
	"time"

	"github.com/iliyamo/movie-ticket-booking/internal/model"
)

// Queue names double as event names.
const (
	BookingConfirmed = "booking.confirmed"
	BookingCancelled = "booking.cancelled"
)

// BookingEvent is published after a booking is confirmed or cancelled.
// It carries enough information for downstream consumers to log, notify
// or feed analytics without querying the primary database.
type BookingEvent struct {
	Event         string   `json:"event"`
	BookingID     string   `json:"booking_id"`
	TicketCode    string   `json:"ticket_code"`
	UserID        string   `json:"user_id"`
	ShowtimeID    string   `json:"showtime_id"`
	MovieTitle    string   `json:"movie_title"`
	TheatreName   string   `json:"theatre_name"`
	ShowDate      string   `json:"show_date"`
	ShowTime      string   `json:"show_time"`
	Seats         []string `json:"seats"`
	TotalAmount   string   `json:"total_amount"`
	PaymentStatus string   `json:"payment_status"`
	OccurredAt    string   `json:"occurred_at"`
}

// NewBookingEvent builds the event of the given kind for b, which plays at
// showtime st.
func NewBookingEvent(kind string, b model.Booking, st model.ShowtimeDetail, at time.Time) BookingEvent {
	return BookingEvent{
		Event:         kind,
		BookingID:     b.ID,
		TicketCode:    b.TicketCode,
		UserID:        b.UserID,
		ShowtimeID:    b.ShowtimeID,
		MovieTitle:    st.Movie.Title,
		TheatreName:   st.Theatre.Name,
		ShowDate:      st.ShowDate,
		ShowTime:      st.ShowTime,
		Seats:         append([]string(nil), b.Seats...),
		TotalAmount:   b.TotalAmount.StringFixed(2),
		PaymentStatus: string(b.PaymentStatus),
		OccurredAt:    at.UTC().Format(time.RFC3339),
	}
}
