// Package payment provides the mocked payment processor used to charge
// for bookings and refund cancelled ones.
package payment

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/movie-ticket-booking/internal/model"
)

// ChargeRequest describes one payment attempt.
type ChargeRequest struct {
	UserID     string
	ShowtimeID string
	Seats      []string
	Amount     decimal.Decimal
}

// Receipt is the outcome of a charge.
type Receipt struct {
	Reference string
	Status    model.PaymentStatus
	Amount    decimal.Decimal
}

// MockProcessor approves every charge after Delay.  It keeps the refunds it
// issued so callers can inspect them.
type MockProcessor struct {
	Delay time.Duration
	Log   logrus.FieldLogger

	seq     atomic.Int64
	mu      sync.Mutex
	refunds map[string]decimal.Decimal
}

// NewMockProcessor returns a processor that answers after delay.
func NewMockProcessor(delay time.Duration, log logrus.FieldLogger) *MockProcessor {
	return &MockProcessor{Delay: delay, Log: log, refunds: map[string]decimal.Decimal{}}
}

// Charge simulates a card payment.  A cancelled context aborts the wait and
// the payment is reported FAILED.
func (p *MockProcessor) Charge(ctx context.Context, req ChargeRequest) (Receipt, error) {
	if !req.Amount.IsPositive() {
		return Receipt{Status: model.PaymentFailed}, model.Invalid("total_amount", "must be greater than zero")
	}
	if err := p.wait(ctx); err != nil {
		return Receipt{Status: model.PaymentFailed, Amount: req.Amount}, fmt.Errorf("payment aborted: %w", err)
	}
	ref := fmt.Sprintf("PAY-%d-%d", time.Now().Unix(), p.seq.Add(1))
	if p.Log != nil {
		p.Log.WithFields(logrus.Fields{
			"reference": ref, "user_id": req.UserID, "showtime_id": req.ShowtimeID, "amount": req.Amount.StringFixed(2),
		}).Info("payment approved")
	}
	return Receipt{Reference: ref, Status: model.PaymentPaid, Amount: req.Amount}, nil
}

// Refund returns amount to the payer.  key is the booking id, or the charge
// reference when no booking was created.  Refunding the same key twice is
// a no-op.
func (p *MockProcessor) Refund(ctx context.Context, key string, amount decimal.Decimal) error {
	if err := p.wait(ctx); err != nil {
		return fmt.Errorf("refund aborted: %w", err)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.refunds == nil {
		p.refunds = map[string]decimal.Decimal{}
	}
	if _, done := p.refunds[key]; done {
		return nil
	}
	p.refunds[key] = amount
	if p.Log != nil {
		p.Log.WithFields(logrus.Fields{"key": key, "amount": amount.StringFixed(2)}).Info("payment refunded")
	}
	return nil
}

// Refunded reports the amount refunded for key, if any.
func (p *MockProcessor) Refunded(key string) (decimal.Decimal, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	amt, ok := p.refunds[key]
	return amt, ok
}

func (p *MockProcessor) wait(ctx context.Context) error {
	if p.Delay <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(p.Delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
