package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentStatus tracks the money side of a booking.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "PENDING"
	PaymentPaid     PaymentStatus = "PAID"
	PaymentFailed   PaymentStatus = "FAILED"
	PaymentRefunded PaymentStatus = "REFUNDED"
)

// Valid reports whether s is a known payment status.
func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPending, PaymentPaid, PaymentFailed, PaymentRefunded:
		return true
	}
	return false
}

// BookingStatus tracks the lifecycle of a booking.
type BookingStatus string

const (
	BookingPending   BookingStatus = "PENDING"
	BookingConfirmed BookingStatus = "CONFIRMED"
	BookingCancelled BookingStatus = "CANCELLED"
	BookingFailed    BookingStatus = "FAILED"
	BookingCompleted BookingStatus = "COMPLETED"
)

// Valid reports whether s is a known booking status.
func (s BookingStatus) Valid() bool {
	switch s {
	case BookingPending, BookingConfirmed, BookingCancelled, BookingFailed, BookingCompleted:
		return true
	}
	return false
}

// Booking records the seats a user reserved for one showtime.  Once
// confirmed only the two status fields may change; Seats and TotalAmount
// are never rewritten.
//
// Fields:
//  ID            – primary key identifier (UUID).
//  ShowtimeID    – showtime the seats belong to.
//  UserID        – identity provider subject of the buyer.
//  Seats         – seat identifiers, unique, in row-major order.
//  TotalAmount   – sum of per-seat prices at booking time.
//  PaymentStatus – PENDING, PAID, FAILED or REFUNDED.
//  BookingStatus – PENDING, CONFIRMED, CANCELLED, FAILED or COMPLETED.
//  TicketCode    – human readable code issued on confirmation.
//  CreatedAt     – creation timestamp.
//  UpdatedAt     – last status change.
type Booking struct {
	ID            string          `json:"id"`
	ShowtimeID    string          `json:"showtime_id"`
	UserID        string          `json:"user_id"`
	Seats         []string        `json:"seats"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	PaymentStatus PaymentStatus   `json:"payment_status"`
	BookingStatus BookingStatus   `json:"booking_status"`
	TicketCode    string          `json:"ticket_code"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// BookingDetail is a booking joined with the showtime, movie and theatre
// it refers to, as shown in booking lists.
type BookingDetail struct {
	Booking
	Showtime ShowtimeDetail `json:"showtime"`
}

// BookingFilter narrows booking listings.  Empty fields are ignored.
type BookingFilter struct {
	ShowtimeID string
	UserID     string
	Status     BookingStatus
}

// Matches reports whether b satisfies every non-empty field of f.
func (f BookingFilter) Matches(b Booking) bool {
	if f.ShowtimeID != "" && b.ShowtimeID != f.ShowtimeID {
		return false
	}
	if f.UserID != "" && b.UserID != f.UserID {
		return false
	}
	if f.Status != "" && b.BookingStatus != f.Status {
		return false
	}
	return true
}

// StatusChange moves a booking from one status to another.  Stores apply
// it only when the booking is still in From, so concurrent changes cannot
// both succeed; otherwise they return ErrInvalidTransition.
type StatusChange struct {
	BookingID string
	From      BookingStatus
	To        BookingStatus
	// Payment replaces the payment status when non-empty.
	Payment PaymentStatus
	// ReleaseSeats frees the booking's seats for the showtime.
	ReleaseSeats bool
	At           time.Time
}

// CanTransition reports whether a booking may move from one status to
// another.
func CanTransition(from, to BookingStatus) bool {
	switch from {
	case BookingPending:
		return to == BookingConfirmed || to == BookingFailed
	case BookingConfirmed:
		return to == BookingCancelled || to == BookingCompleted
	}
	return false
}
