package model

import "time"

// DefaultPremiumRows is the number of rows at the back of a theatre that
// are priced at the premium tier when a theatre does not say otherwise.
const DefaultPremiumRows = 3

// Theatre represents a screening room with a rectangular seating layout.
// Seat identifiers are derived from the geometry at read time; they are
// never stored on the theatre itself.
//
// Fields:
//  ID          – primary key identifier (UUID).
//  Name        – display name of the theatre.
//  Location    – street address or venue description.
//  City        – city the theatre is in.
//  TotalRows   – number of seating rows (>= 1).
//  SeatsPerRow – number of seats in every row (>= 1).
//  PremiumRows – how many rows, counted from the back, are premium.
//  CreatedAt   – creation timestamp.
//  UpdatedAt   – last update timestamp.
type Theatre struct {
	ID          string    `db:"id" json:"id"`                       // theatres.id
	Name        string    `db:"name" json:"name"`                   // theatres.name
	Location    string    `db:"location" json:"location"`           // theatres.location
	City        string    `db:"city" json:"city"`                   // theatres.city
	TotalRows   int       `db:"total_rows" json:"total_rows"`       // theatres.total_rows
	SeatsPerRow int       `db:"seats_per_row" json:"seats_per_row"` // theatres.seats_per_row
	PremiumRows int       `db:"premium_rows" json:"premium_rows"`   // theatres.premium_rows
	CreatedAt   time.Time `db:"created_at" json:"created_at"`       // theatres.created_at
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`       // theatres.updated_at
}

// TotalSeats returns the number of seats the geometry provides.
func (t Theatre) TotalSeats() int { return t.TotalRows * t.SeatsPerRow }
