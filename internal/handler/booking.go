package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/movie-ticket-booking/internal/booking"
	"github.com/iliyamo/movie-ticket-booking/internal/middleware"
	"github.com/iliyamo/movie-ticket-booking/internal/model"
	"github.com/iliyamo/movie-ticket-booking/internal/payment"
)

// Payments charges for bookings and returns money when a reservation
// fails after the charge went through.
type Payments interface {
	Charge(ctx context.Context, req payment.ChargeRequest) (payment.Receipt, error)
	Refund(ctx context.Context, key string, amount decimal.Decimal) error
}

// BookingHandler serves the authenticated booking endpoints.  JWTAuth has
// already stored the caller's identity in the context.
type BookingHandler struct {
	Bookings *booking.Service
	Payments Payments
	Log      logrus.FieldLogger
}

// NewBookingHandler constructs a BookingHandler and panics if a dependency
// is nil.
func NewBookingHandler(bookings *booking.Service, payments Payments, log logrus.FieldLogger) *BookingHandler {
	if bookings == nil || payments == nil {
		panic("nil dependency passed to NewBookingHandler")
	}
	return &BookingHandler{Bookings: bookings, Payments: payments, Log: log}
}

type createBookingRequest struct {
	Seats       []string         `json:"seats"`
	TotalAmount *decimal.Decimal `json:"total_amount"`
}

// Create handles POST /v1/showtimes/:id/bookings.  The selection is
// quoted, charged through the payment processor and then reserved.  If
// the seats were taken between the quote and the reservation, the charge
// is refunded and the conflicting seats are returned with 409.
func (h *BookingHandler) Create(c echo.Context) error {
	var body createBookingRequest
	if err := c.Bind(&body); err != nil {
		return badBody(c)
	}
	ctx := c.Request().Context()
	userID := middleware.UserID(c)
	showtimeID := c.Param("id")

	q, err := h.Bookings.Quote(ctx, showtimeID, body.Seats)
	if err != nil {
		return respond(c, h.Log, err)
	}
	if body.TotalAmount != nil && !body.TotalAmount.Equal(q.Total) {
		return respond(c, h.Log, model.Invalid("total_amount", "expected %s for the selected seats, got %s",
			q.Total.StringFixed(2), body.TotalAmount.StringFixed(2)))
	}

	receipt, err := h.Payments.Charge(ctx, payment.ChargeRequest{
		UserID: userID, ShowtimeID: q.ShowtimeID, Seats: q.Seats, Amount: q.Total,
	})
	if err != nil {
		h.Log.WithError(err).WithField("user_id", userID).Warn("payment failed")
		return c.JSON(http.StatusPaymentRequired, echo.Map{"error": "payment failed", "payment_status": receipt.Status})
	}

	b, err := h.Bookings.Reserve(ctx, booking.ReserveRequest{
		ShowtimeID:    q.ShowtimeID,
		Seats:         q.Seats,
		UserID:        userID,
		TotalAmount:   q.Total,
		PaymentStatus: receipt.Status,
	})
	if err != nil {
		// The request may have been cancelled; the refund must still go out.
		rctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if rerr := h.Payments.Refund(rctx, receipt.Reference, receipt.Amount); rerr != nil {
			h.Log.WithError(rerr).WithField("reference", receipt.Reference).Error("refund after failed reservation")
		}
		return respond(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"booking": b, "payment_reference": receipt.Reference})
}

// MyBookings handles GET /v1/my-bookings.
func (h *BookingHandler) MyBookings(c echo.Context) error {
	items, err := h.Bookings.ListByUser(c.Request().Context(), middleware.UserID(c))
	if err != nil {
		return respond(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Get handles GET /v1/bookings/:id.  Users only see their own bookings.
func (h *BookingHandler) Get(c echo.Context) error {
	b, err := h.Bookings.Get(c.Request().Context(), c.Param("id"), actor(c))
	if err != nil {
		return respond(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, b)
}

// Cancel handles DELETE /v1/bookings/:id.  The seats are released and a
// paid booking is refunded.
func (h *BookingHandler) Cancel(c echo.Context) error {
	b, err := h.Bookings.Cancel(c.Request().Context(), c.Param("id"), actor(c))
	if err != nil {
		return respond(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, b)
}

func actor(c echo.Context) booking.Actor {
	return booking.Actor{UserID: middleware.UserID(c), Admin: middleware.IsAdmin(c)}
}
