// Package pricing computes the price of a seat selection from the
// showtime's two price tiers and the theatre's premium rows.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/iliyamo/movie-ticket-booking/internal/model"
	"github.com/iliyamo/movie-ticket-booking/internal/seatmap"
)

// Calculator prices seats of one showtime.
type Calculator struct {
	Layout  seatmap.Layout
	Base    decimal.Decimal
	Premium decimal.Decimal
}

// For builds the calculator for a showtime playing in theatre t.
func For(t model.Theatre, s model.Showtime) Calculator {
	return Calculator{Layout: seatmap.FromTheatre(t), Base: s.BasePrice, Premium: s.PremiumPrice}
}

// Price returns the price of a single seat.
func (c Calculator) Price(label string) (decimal.Decimal, error) {
	row, _, err := c.Layout.Parse(label)
	if err != nil {
		return decimal.Zero, err
	}
	return c.priceOfRow(row), nil
}

// Total sums the per-seat prices of seats.  An empty selection costs zero.
func (c Calculator) Total(seats []string) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, s := range seats {
		p, err := c.Price(s)
		if err != nil {
			return decimal.Zero, err
		}
		total = total.Add(p)
	}
	return total, nil
}

// RowPrices lists the price of every row, front to back.
func (c Calculator) RowPrices() []decimal.Decimal {
	out := make([]decimal.Decimal, c.Layout.Rows)
	for r := range out {
		out[r] = c.priceOfRow(r)
	}
	return out
}

func (c Calculator) priceOfRow(row int) decimal.Decimal {
	if c.Layout.IsPremiumRow(row) {
		return c.Premium
	}
	return c.Base
}

// ValidateTiers checks a showtime's price tiers: both positive and the
// premium tier never below the base tier.
func ValidateTiers(base, premium decimal.Decimal) error {
	if !base.IsPositive() {
		return model.Invalid("base_price", "must be greater than zero")
	}
	if !premium.IsPositive() {
		return model.Invalid("premium_price", "must be greater than zero")
	}
	if premium.LessThan(base) {
		return model.Invalid("premium_price", "must not be lower than base_price")
	}
	return nil
}
