package booking

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/movie-ticket-booking/internal/metrics"
	"github.com/iliyamo/movie-ticket-booking/internal/model"
	"github.com/iliyamo/movie-ticket-booking/internal/queue"
)

// ListByShowtime returns the bookings of a showtime, most recent first.
func (s *Service) ListByShowtime(ctx context.Context, showtimeID string) ([]model.BookingDetail, error) {
	if _, err := s.store.ShowtimeDetail(ctx, showtimeID); err != nil {
		return nil, err
	}
	return s.store.ListBookings(ctx, model.BookingFilter{ShowtimeID: showtimeID})
}

// ListByUser returns the bookings of one user, most recent first.
func (s *Service) ListByUser(ctx context.Context, userID string) ([]model.BookingDetail, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, model.Invalid("user_id", "is required")
	}
	return s.store.ListBookings(ctx, model.BookingFilter{UserID: userID})
}

// ListAll returns every booking matching f, most recent first.
func (s *Service) ListAll(ctx context.Context, f model.BookingFilter) ([]model.BookingDetail, error) {
	if f.Status != "" {
		f.Status = model.BookingStatus(strings.ToUpper(string(f.Status)))
		if !f.Status.Valid() {
			return nil, model.Invalid("status", "unknown booking status %q", f.Status)
		}
	}
	return s.store.ListBookings(ctx, f)
}

// Get returns one booking.  Only its owner and admins may see it.
func (s *Service) Get(ctx context.Context, id string, actor Actor) (*model.BookingDetail, error) {
	b, err := s.store.Booking(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.Admin && b.UserID != actor.UserID {
		return nil, model.ErrForbidden
	}
	return b, nil
}

// Cancel moves a CONFIRMED booking to CANCELLED and releases its seats.
// Bookings of a showtime that has already started can no longer be
// cancelled.  A paid booking is refunded once the cancellation is stored
// and then marked REFUNDED.  If that refund fails the booking stays
// CANCELLED and PAID, and cancelling it again retries the refund.
func (s *Service) Cancel(ctx context.Context, id string, actor Actor) (*model.Booking, error) {
	b, err := s.Get(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	if b.BookingStatus == model.BookingCancelled && b.PaymentStatus == model.PaymentPaid && s.refunder != nil {
		return s.refund(ctx, &b.Booking)
	}
	if !model.CanTransition(b.BookingStatus, model.BookingCancelled) {
		return nil, fmt.Errorf("%w: booking is %s", model.ErrInvalidTransition, b.BookingStatus)
	}
	if starts, ok := b.Showtime.StartsAt(); ok && !s.now().Before(starts) {
		return nil, fmt.Errorf("%w: showtime has already started", model.ErrConflict)
	}

	updated, err := s.store.ChangeBookingStatus(ctx, model.StatusChange{
		BookingID:    b.ID,
		From:         model.BookingConfirmed,
		To:           model.BookingCancelled,
		ReleaseSeats: true,
		At:           s.now().UTC(),
	})
	if err != nil {
		return nil, err
	}
	metrics.TrackTransition(string(model.BookingCancelled), len(updated.Seats))
	s.log.WithFields(logrus.Fields{
		"booking_id": updated.ID,
		"by":         actor.UserID,
		"admin":      actor.Admin,
		"seats":      updated.Seats,
	}).Info("booking cancelled")

	if updated.PaymentStatus == model.PaymentPaid && s.refunder != nil {
		refunded, err := s.refund(ctx, updated)
		if err != nil {
			s.log.WithError(err).WithField("booking_id", updated.ID).Error("booking cancelled but not refunded")
		} else {
			updated = refunded
		}
	}
	s.publish(queue.BookingCancelled, *updated, b.Showtime)
	return updated, nil
}

// refund returns the amount of a cancelled booking and records REFUNDED.
// Refunds are keyed by booking id, so repeating one is harmless.
func (s *Service) refund(ctx context.Context, b *model.Booking) (*model.Booking, error) {
	if err := s.refunder.Refund(ctx, b.ID, b.TotalAmount); err != nil {
		return nil, model.Unavailable(fmt.Errorf("refund booking %s: %w", b.ID, err))
	}
	return s.store.ChangeBookingStatus(ctx, model.StatusChange{
		BookingID: b.ID,
		From:      model.BookingCancelled,
		To:        model.BookingCancelled,
		Payment:   model.PaymentRefunded,
		At:        s.now().UTC(),
	})
}

// Complete marks a CONFIRMED booking as used.  Its seats stay booked.
func (s *Service) Complete(ctx context.Context, id string) (*model.Booking, error) {
	b, err := s.store.Booking(ctx, id)
	if err != nil {
		return nil, err
	}
	if !model.CanTransition(b.BookingStatus, model.BookingCompleted) {
		return nil, fmt.Errorf("%w: booking is %s", model.ErrInvalidTransition, b.BookingStatus)
	}
	updated, err := s.store.ChangeBookingStatus(ctx, model.StatusChange{
		BookingID: b.ID,
		From:      model.BookingConfirmed,
		To:        model.BookingCompleted,
		At:        s.now().UTC(),
	})
	if err != nil {
		return nil, err
	}
	metrics.TrackTransition(string(model.BookingCompleted), 0)
	s.log.WithField("booking_id", updated.ID).Info("booking completed")
	return updated, nil
}
