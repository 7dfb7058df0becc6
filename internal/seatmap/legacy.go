package seatmap

import (
	"math"
	"strconv"
)

// maxLegacySeatsPerRow caps the width of grids synthesized from a bare
// seat count.
const maxLegacySeatsPerRow = 12

// LegacyDimensions synthesizes a balanced grid for a show that only knows
// its total seat count.
func LegacyDimensions(total int) (rows, seatsPerRow int) {
	if total <= 0 {
		return 0, 0
	}
	seatsPerRow = int(math.Ceil(math.Sqrt(float64(total) * 1.5)))
	if seatsPerRow > maxLegacySeatsPerRow {
		seatsPerRow = maxLegacySeatsPerRow
	}
	rows = (total + seatsPerRow - 1) / seatsPerRow
	return rows, seatsPerRow
}

// LegacyLabel maps the 1-based seat number n of a legacy show onto the
// synthesized grid.
func LegacyLabel(n, seatsPerRow int) string {
	if n < 1 || seatsPerRow < 1 {
		return ""
	}
	return RowLabel((n-1)/seatsPerRow) + strconv.Itoa((n-1)%seatsPerRow+1)
}

// LegacyNumber is the inverse of LegacyLabel.
func LegacyNumber(label string, seatsPerRow int) (int, bool) {
	l := Layout{Rows: math.MaxInt32, SeatsPerRow: seatsPerRow}
	row, col, err := l.Parse(label)
	if err != nil {
		return 0, false
	}
	return row*seatsPerRow + col, true
}

// LegacyGrid lists seat numbers 1..total in row-major order.  The last row
// is short when total is not a multiple of the row width.
func LegacyGrid(total int) [][]int {
	rows, perRow := LegacyDimensions(total)
	grid := make([][]int, 0, rows)
	for r := 0; r < rows; r++ {
		row := []int{}
		for c := 1; c <= perRow; c++ {
			n := r*perRow + c
			if n > total {
				break
			}
			row = append(row, n)
		}
		grid = append(grid, row)
	}
	return grid
}
