package model

// This file defines the error kinds shared by the stores, the services and
// the HTTP layer.  Callers classify failures with errors.Is against the
// sentinels below; the typed errors carry the details (which seats
// conflicted, which field was invalid).  Conflict and Validation failures
// are deterministic and must not be retried with the same input.

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned when a referenced theatre, movie, showtime
	// or booking does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when requested seats are already booked or
	// when a change would contradict existing bookings.
	ErrConflict = errors.New("conflict")

	// ErrValidation is returned for malformed input.
	ErrValidation = errors.New("validation failed")

	// ErrUnavailable wraps infrastructure failures of the store.  It is
	// the only kind a caller may decide to retry.
	ErrUnavailable = errors.New("service unavailable")

	// ErrForbidden is returned when the caller acts on a booking owned by
	// someone else.
	ErrForbidden = errors.New("forbidden")

	// ErrInvalidTransition is returned when a booking status change is
	// not allowed from its current status.
	ErrInvalidTransition = fmt.Errorf("%w: invalid status transition", ErrValidation)

	// ErrTicketCodeTaken is returned by stores when a generated ticket
	// code collides with an existing one.
	ErrTicketCodeTaken = errors.New("ticket code already issued")
)

// SeatConflictError lists the seats of a reservation attempt that are
// already booked for the showtime.
type SeatConflictError struct {
	ShowtimeID string
	Seats      []string
}

func (e *SeatConflictError) Error() string {
	return fmt.Sprintf("seats %s are already booked", strings.Join(e.Seats, ", "))
}

// Is makes errors.Is(err, ErrConflict) hold for seat conflicts.
func (e *SeatConflictError) Is(target error) bool { return target == ErrConflict }

// ValidationError reports one invalid input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// Is makes errors.Is(err, ErrValidation) hold for validation errors.
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// Invalid builds a ValidationError.
func Invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// NotFound wraps ErrNotFound with the kind of entity that was missing.
func NotFound(entity string) error {
	return fmt.Errorf("%s %w", entity, ErrNotFound)
}

// Unavailable wraps an infrastructure error so that it classifies as
// ErrUnavailable while keeping the cause reachable with errors.Unwrap.
func Unavailable(err error) error {
	if err == nil {
		return nil
	}
	return &unavailableError{cause: err}
}

type unavailableError struct{ cause error }

func (e *unavailableError) Error() string        { return "store unavailable: " + e.cause.Error() }
func (e *unavailableError) Unwrap() error        { return e.cause }
func (e *unavailableError) Is(target error) bool { return target == ErrUnavailable }
