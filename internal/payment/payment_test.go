package payment

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/movie-ticket-booking/internal/model"
)

func TestChargeApproves(t *testing.T) {
	logger, hook := test.NewNullLogger()
	p := NewMockProcessor(0, logger)

	r1, err := p.Charge(context.Background(), ChargeRequest{UserID: "u", Amount: decimal.NewFromInt(200)})
	require.NoError(t, err)
	r2, err := p.Charge(context.Background(), ChargeRequest{UserID: "u", Amount: decimal.NewFromInt(200)})
	require.NoError(t, err)

	assert.Equal(t, model.PaymentPaid, r1.Status)
	assert.True(t, strings.HasPrefix(r1.Reference, "PAY-"))
	assert.NotEqual(t, r1.Reference, r2.Reference)
	assert.Len(t, hook.AllEntries(), 2)
}

func TestChargeRejectsNonPositiveAmount(t *testing.T) {
	p := NewMockProcessor(0, nil)
	r, err := p.Charge(context.Background(), ChargeRequest{Amount: decimal.Zero})
	assert.ErrorIs(t, err, model.ErrValidation)
	assert.Equal(t, model.PaymentFailed, r.Status)
}

func TestChargeHonoursContext(t *testing.T) {
	p := NewMockProcessor(time.Minute, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	r, err := p.Charge(ctx, ChargeRequest{Amount: decimal.NewFromInt(1)})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, model.PaymentFailed, r.Status)
}

func TestRefundIsRecordedOnce(t *testing.T) {
	p := NewMockProcessor(0, nil)
	require.NoError(t, p.Refund(context.Background(), "b1", decimal.NewFromInt(150)))
	require.NoError(t, p.Refund(context.Background(), "b1", decimal.NewFromInt(999)))

	amt, ok := p.Refunded("b1")
	require.True(t, ok)
	assert.True(t, amt.Equal(decimal.NewFromInt(150)))

	_, ok = p.Refunded("b2")
	assert.False(t, ok)
}
