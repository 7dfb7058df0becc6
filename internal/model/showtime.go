package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Date and clock layouts used for showtime scheduling.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// Showtime is a scheduled screening of a movie in a theatre.  The seat
// geometry is not copied onto the showtime: it is read from the theatre
// every time a seat map or price is derived.
type Showtime struct {
	ID           string          `db:"id" json:"id"`
	MovieID      string          `db:"movie_id" json:"movie_id"`
	TheatreID    string          `db:"theatre_id" json:"theatre_id"`
	ShowDate     string          `db:"show_date" json:"show_date"` // YYYY-MM-DD
	ShowTime     string          `db:"show_time" json:"show_time"` // HH:MM
	BasePrice    decimal.Decimal `db:"base_price" json:"base_price"`
	PremiumPrice decimal.Decimal `db:"premium_price" json:"premium_price"`
	IsActive     bool            `db:"is_active" json:"is_active"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time       `db:"updated_at" json:"updated_at"`
}

// StartsAt combines ShowDate and ShowTime into a UTC timestamp.  The
// second return value is false when either part does not parse.
func (s Showtime) StartsAt() (time.Time, bool) {
	t, err := time.ParseInLocation(DateLayout+" "+TimeLayout, s.ShowDate+" "+s.ShowTime, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// ShowtimeDetail is a showtime joined with its movie and theatre.
type ShowtimeDetail struct {
	Showtime
	Movie   Movie   `json:"movie"`
	Theatre Theatre `json:"theatre"`
}

// ShowtimeFilter narrows showtime listings.  Empty fields are ignored.
type ShowtimeFilter struct {
	MovieID    string
	TheatreID  string
	Date       string
	ActiveOnly bool
}
