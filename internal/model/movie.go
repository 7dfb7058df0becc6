package model

import "time"

// Movie is a film that can be scheduled into showtimes.  Inactive movies
// are hidden from public listings but keep their showtimes and bookings.
type Movie struct {
	ID              string    `db:"id" json:"id"`                             // movies.id
	Title           string    `db:"title" json:"title"`                       // movies.title
	Description     *string   `db:"description" json:"description,omitempty"` // movies.description (nullable)
	Genre           string    `db:"genre" json:"genre"`                       // movies.genre
	DurationMinutes int       `db:"duration_minutes" json:"duration_minutes"` // movies.duration_minutes
	PosterURL       *string   `db:"poster_url" json:"poster_url,omitempty"`   // movies.poster_url (nullable)
	Rating          string    `db:"rating" json:"rating"`                     // movies.rating
	Language        string    `db:"language" json:"language"`                 // movies.language
	ReleaseDate     *string   `db:"release_date" json:"release_date,omitempty"` // movies.release_date YYYY-MM-DD (nullable)
	IsActive        bool      `db:"is_active" json:"is_active"`               // movies.is_active
	CreatedAt       time.Time `db:"created_at" json:"created_at"`             // movies.created_at
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`             // movies.updated_at
}

// MovieFilter narrows movie listings.
type MovieFilter struct {
	ActiveOnly bool
}
