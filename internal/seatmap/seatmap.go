// Package seatmap derives addressable seat grids from a theatre's geometry
// and classifies every seat of a showtime as booked, selected or available.
package seatmap

import (
	"sort"
	"strconv"
	"strings"

	"github.com/iliyamo/movie-ticket-booking/internal/model"
)

// Status is the display state of one seat.
type Status string

const (
	Available Status = "available"
	Selected  Status = "selected"
	Booked    Status = "booked"
)

// Layout is the rectangular seating geometry of a theatre.
type Layout struct {
	Rows        int
	SeatsPerRow int
	PremiumRows int
}

// FromTheatre returns the layout of t.
func FromTheatre(t model.Theatre) Layout {
	return Layout{Rows: t.TotalRows, SeatsPerRow: t.SeatsPerRow, PremiumRows: t.PremiumRows}
}

// Validate checks that the geometry describes at least one seat.
func (l Layout) Validate() error {
	if l.Rows < 1 {
		return model.Invalid("total_rows", "must be at least 1")
	}
	if l.SeatsPerRow < 1 {
		return model.Invalid("seats_per_row", "must be at least 1")
	}
	if l.PremiumRows < 0 {
		return model.Invalid("premium_rows", "must not be negative")
	}
	return nil
}

// Total returns the number of seats in the layout.
func (l Layout) Total() int { return l.Rows * l.SeatsPerRow }

// Label returns the identifier of the seat at row (0-based) and col
// (1-based).
func (l Layout) Label(row, col int) string {
	return RowLabel(row) + strconv.Itoa(col)
}

// Grid lists every seat identifier, one slice per row, in row-major order.
func (l Layout) Grid() [][]string {
	if l.Rows < 1 || l.SeatsPerRow < 1 {
		return [][]string{}
	}
	grid := make([][]string, l.Rows)
	for r := 0; r < l.Rows; r++ {
		row := make([]string, l.SeatsPerRow)
		for c := 1; c <= l.SeatsPerRow; c++ {
			row[c-1] = l.Label(r, c)
		}
		grid[r] = row
	}
	return grid
}

// Parse splits a seat identifier into its 0-based row and 1-based column
// and checks that the seat exists in the layout.  Lower-case row letters
// are accepted.
func (l Layout) Parse(label string) (row, col int, err error) {
	s := strings.ToUpper(strings.TrimSpace(label))
	i := 0
	for i < len(s) && s[i] >= 'A' && s[i] <= 'Z' {
		i++
	}
	if i == 0 || i == len(s) {
		return 0, 0, model.Invalid("seats", "malformed seat identifier %q", label)
	}
	row, ok := RowIndex(s[:i])
	if !ok {
		return 0, 0, model.Invalid("seats", "malformed seat identifier %q", label)
	}
	col, convErr := strconv.Atoi(s[i:])
	if convErr != nil || s[i] == '0' || s[i] == '+' || s[i] == '-' {
		return 0, 0, model.Invalid("seats", "malformed seat identifier %q", label)
	}
	if row >= l.Rows || col < 1 || col > l.SeatsPerRow {
		return 0, 0, model.Invalid("seats", "seat %s is outside the theatre", s)
	}
	return row, col, nil
}

// Normalize parses every label, upper-cases it, rejects duplicates and
// returns the set in row-major order.
func (l Layout) Normalize(labels []string) ([]string, error) {
	type pos struct {
		label    string
		row, col int
	}
	seen := make(map[string]struct{}, len(labels))
	out := make([]pos, 0, len(labels))
	for _, raw := range labels {
		r, c, err := l.Parse(raw)
		if err != nil {
			return nil, err
		}
		lbl := l.Label(r, c)
		if _, dup := seen[lbl]; dup {
			return nil, model.Invalid("seats", "seat %s selected twice", lbl)
		}
		seen[lbl] = struct{}{}
		out = append(out, pos{label: lbl, row: r, col: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].row != out[j].row {
			return out[i].row < out[j].row
		}
		return out[i].col < out[j].col
	})
	labelsOut := make([]string, len(out))
	for i, p := range out {
		labelsOut[i] = p.label
	}
	return labelsOut, nil
}

// IsPremiumRow reports whether the 0-based row belongs to the premium
// block at the back of the theatre.
func (l Layout) IsPremiumRow(row int) bool {
	return row >= 0 && row < l.Rows && row >= l.Rows-l.PremiumRows
}

// Seat is one classified position of a seat map.
type Seat struct {
	Label   string `json:"label"`
	Row     int    `json:"row"`
	Column  int    `json:"column"`
	Status  Status `json:"status"`
	Premium bool   `json:"premium"`
}

// Classify builds the seat map for a showtime.  booked is the showtime's
// booked-seats set and selected the caller's in-progress selection; a seat
// present in both is reported as booked.
func (l Layout) Classify(booked, selected []string) [][]Seat {
	bookedSet := toSet(booked)
	selectedSet := toSet(selected)
	rows := make([][]Seat, 0, l.Rows)
	for r, labels := range l.Grid() {
		row := make([]Seat, len(labels))
		for i, lbl := range labels {
			st := Available
			if _, ok := bookedSet[lbl]; ok {
				st = Booked
			} else if _, ok := selectedSet[lbl]; ok {
				st = Selected
			}
			row[i] = Seat{Label: lbl, Row: r, Column: i + 1, Status: st, Premium: l.IsPremiumRow(r)}
		}
		rows = append(rows, row)
	}
	return rows
}

// Counts tallies the seats of a classified map by status.
func Counts(rows [][]Seat) map[Status]int {
	out := map[Status]int{Available: 0, Selected: 0, Booked: 0}
	for _, row := range rows {
		for _, s := range row {
			out[s.Status]++
		}
	}
	return out
}

func toSet(labels []string) map[string]struct{} {
	set := make(map[string]struct{}, len(labels))
	for _, l := range labels {
		set[strings.ToUpper(strings.TrimSpace(l))] = struct{}{}
	}
	return set
}

// Sort orders seat identifiers row-major in place.  Identifiers that do
// not parse sort last, alphabetically.
func Sort(labels []string) {
	type key struct {
		row, col int
		ok       bool
	}
	keys := make(map[string]key, len(labels))
	unbounded := Layout{Rows: 1 << 30, SeatsPerRow: 1 << 30}
	for _, l := range labels {
		r, c, err := unbounded.Parse(l)
		keys[l] = key{row: r, col: c, ok: err == nil}
	}
	sort.SliceStable(labels, func(i, j int) bool {
		a, b := keys[labels[i]], keys[labels[j]]
		switch {
		case a.ok != b.ok:
			return a.ok
		case !a.ok:
			return labels[i] < labels[j]
		case a.row != b.row:
			return a.row < b.row
		}
		return a.col < b.col
	})
}
