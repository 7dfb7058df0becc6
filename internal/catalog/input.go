package catalog

import (
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/movie-ticket-booking/internal/model"
	"github.com/iliyamo/movie-ticket-booking/internal/pricing"
	"github.com/iliyamo/movie-ticket-booking/internal/seatmap"
)

// maxRows bounds theatre depth; row labels stay at most three letters.
const maxRows = 702

// maxSeatsPerRow bounds theatre width.
const maxSeatsPerRow = 200

// TheatreInput carries theatre attributes.  Nil fields keep their current
// value on update.
type TheatreInput struct {
	Name        *string `json:"name"`
	Location    *string `json:"location"`
	City        *string `json:"city"`
	TotalRows   *int    `json:"total_rows"`
	SeatsPerRow *int    `json:"seats_per_row"`
	PremiumRows *int    `json:"premium_rows"`
}

func (in TheatreInput) apply(t *model.Theatre) error {
	setStr(&t.Name, in.Name)
	setStr(&t.Location, in.Location)
	setStr(&t.City, in.City)
	setInt(&t.TotalRows, in.TotalRows)
	setInt(&t.SeatsPerRow, in.SeatsPerRow)
	setInt(&t.PremiumRows, in.PremiumRows)

	if t.Name == "" {
		return model.Invalid("name", "is required")
	}
	if t.City == "" {
		return model.Invalid("city", "is required")
	}
	if err := seatmap.FromTheatre(*t).Validate(); err != nil {
		return err
	}
	if t.TotalRows > maxRows {
		return model.Invalid("total_rows", "must not exceed %d", maxRows)
	}
	if t.SeatsPerRow > maxSeatsPerRow {
		return model.Invalid("seats_per_row", "must not exceed %d", maxSeatsPerRow)
	}
	if t.PremiumRows > t.TotalRows {
		return model.Invalid("premium_rows", "must not exceed total_rows")
	}
	return nil
}

// MovieInput carries movie attributes.  Nil fields keep their current
// value on update.
type MovieInput struct {
	Title           *string `json:"title"`
	Description     *string `json:"description"`
	Genre           *string `json:"genre"`
	DurationMinutes *int    `json:"duration_minutes"`
	PosterURL       *string `json:"poster_url"`
	Rating          *string `json:"rating"`
	Language        *string `json:"language"`
	ReleaseDate     *string `json:"release_date"`
	IsActive        *bool   `json:"is_active"`
}

func (in MovieInput) apply(m *model.Movie) error {
	setStr(&m.Title, in.Title)
	setStr(&m.Genre, in.Genre)
	setStr(&m.Rating, in.Rating)
	setStr(&m.Language, in.Language)
	setInt(&m.DurationMinutes, in.DurationMinutes)
	setOptStr(&m.Description, in.Description)
	setOptStr(&m.PosterURL, in.PosterURL)
	setOptStr(&m.ReleaseDate, in.ReleaseDate)
	if in.IsActive != nil {
		m.IsActive = *in.IsActive
	}

	if m.Title == "" {
		return model.Invalid("title", "is required")
	}
	if m.Genre == "" {
		return model.Invalid("genre", "is required")
	}
	if m.DurationMinutes <= 0 {
		return model.Invalid("duration_minutes", "must be greater than zero")
	}
	if m.Language == "" {
		return model.Invalid("language", "is required")
	}
	if m.ReleaseDate != nil {
		if _, err := time.Parse(model.DateLayout, *m.ReleaseDate); err != nil {
			return model.Invalid("release_date", "must be formatted as YYYY-MM-DD")
		}
	}
	if m.PosterURL != nil {
		if u, err := url.Parse(*m.PosterURL); err != nil || u.Scheme == "" || u.Host == "" {
			return model.Invalid("poster_url", "must be an absolute URL")
		}
	}
	return nil
}

// ShowtimeInput carries showtime attributes.  Nil fields keep their
// current value on update.
type ShowtimeInput struct {
	MovieID      *string          `json:"movie_id"`
	TheatreID    *string          `json:"theatre_id"`
	ShowDate     *string          `json:"show_date"`
	ShowTime     *string          `json:"show_time"`
	BasePrice    *decimal.Decimal `json:"base_price"`
	PremiumPrice *decimal.Decimal `json:"premium_price"`
	IsActive     *bool            `json:"is_active"`
}

func (in ShowtimeInput) apply(st *model.Showtime) error {
	setStr(&st.MovieID, in.MovieID)
	setStr(&st.TheatreID, in.TheatreID)
	setStr(&st.ShowDate, in.ShowDate)
	setStr(&st.ShowTime, in.ShowTime)
	if in.BasePrice != nil {
		st.BasePrice = *in.BasePrice
	}
	if in.PremiumPrice != nil {
		st.PremiumPrice = *in.PremiumPrice
	}
	if in.IsActive != nil {
		st.IsActive = *in.IsActive
	}

	if st.MovieID == "" {
		return model.Invalid("movie_id", "is required")
	}
	if st.TheatreID == "" {
		return model.Invalid("theatre_id", "is required")
	}
	d, err := time.Parse(model.DateLayout, st.ShowDate)
	if err != nil {
		return model.Invalid("show_date", "must be formatted as YYYY-MM-DD")
	}
	clock, err := time.Parse(model.TimeLayout, st.ShowTime)
	if err != nil {
		return model.Invalid("show_time", "must be formatted as HH:MM")
	}
	st.ShowDate, st.ShowTime = d.Format(model.DateLayout), clock.Format(model.TimeLayout)
	return pricing.ValidateTiers(st.BasePrice, st.PremiumPrice)
}

func setStr(dst *string, v *string) {
	if v != nil {
		*dst = strings.TrimSpace(*v)
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

// setOptStr treats an empty string as clearing the field.
func setOptStr(dst **string, v *string) {
	if v == nil {
		return
	}
	s := strings.TrimSpace(*v)
	if s == "" {
		*dst = nil
		return
	}
	*dst = &s
}
