package seatmap

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/movie-ticket-booking/internal/model"
)

func TestRowLabel(t *testing.T) {
	cases := map[int]string{0: "A", 1: "B", 25: "Z", 26: "AA", 27: "AB", 51: "AZ", 52: "BA", 701: "ZZ", 702: "AAA", -1: ""}
	for idx, want := range cases {
		assert.Equal(t, want, RowLabel(idx), "index %d", idx)
	}
}

func TestRowIndexInvertsRowLabel(t *testing.T) {
	for i := 0; i < 2000; i++ {
		got, ok := RowIndex(RowLabel(i))
		require.True(t, ok)
		require.Equal(t, i, got)
	}
	_, ok := RowIndex("A1")
	assert.False(t, ok)
	_, ok = RowIndex("")
	assert.False(t, ok)
	got, ok := RowIndex("ab")
	assert.True(t, ok)
	assert.Equal(t, 27, got)
}

func TestGridCoversEverySeatOnce(t *testing.T) {
	layouts := []Layout{
		{Rows: 1, SeatsPerRow: 1},
		{Rows: 10, SeatsPerRow: 10},
		{Rows: 30, SeatsPerRow: 7},
		{Rows: 3, SeatsPerRow: 25},
	}
	for _, l := range layouts {
		seen := map[string]struct{}{}
		grid := l.Grid()
		require.Len(t, grid, l.Rows)
		for r, row := range grid {
			require.Len(t, row, l.SeatsPerRow)
			for c, lbl := range row {
				gotRow, gotCol, err := l.Parse(lbl)
				require.NoError(t, err)
				assert.Equal(t, r, gotRow)
				assert.Equal(t, c+1, gotCol)
				seen[lbl] = struct{}{}
			}
		}
		assert.Len(t, seen, l.Total())
	}
}

func TestGridRowOrder(t *testing.T) {
	grid := Layout{Rows: 28, SeatsPerRow: 2}.Grid()
	assert.Equal(t, []string{"A1", "A2"}, grid[0])
	assert.Equal(t, []string{"Z1", "Z2"}, grid[25])
	assert.Equal(t, []string{"AB1", "AB2"}, grid[27])
}

func TestParseRejectsBadIdentifiers(t *testing.T) {
	l := Layout{Rows: 10, SeatsPerRow: 10}
	for _, bad := range []string{"", "A", "1", "A0", "A01", "A11", "K1", "A-1", "A+1", "1A", "A1B", "Ä1"} {
		_, _, err := l.Parse(bad)
		require.Error(t, err, bad)
		assert.True(t, errors.Is(err, model.ErrValidation), bad)
	}
	row, col, err := l.Parse(" j10 ")
	require.NoError(t, err)
	assert.Equal(t, 9, row)
	assert.Equal(t, 10, col)
}

func TestNormalize(t *testing.T) {
	l := Layout{Rows: 10, SeatsPerRow: 10}
	got, err := l.Normalize([]string{"b2", "A10", "A2"})
	require.NoError(t, err)
	assert.Equal(t, []string{"A2", "A10", "B2"}, got)

	_, err = l.Normalize([]string{"A1", "a1"})
	var verr *model.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "seats", verr.Field)
}

func TestIsPremiumRow(t *testing.T) {
	l := Layout{Rows: 10, SeatsPerRow: 10, PremiumRows: 3}
	for r := 0; r < 10; r++ {
		assert.Equal(t, r >= 7, l.IsPremiumRow(r), "row %d", r)
	}
	assert.False(t, l.IsPremiumRow(10))

	small := Layout{Rows: 2, SeatsPerRow: 4, PremiumRows: 3}
	assert.True(t, small.IsPremiumRow(0))
	assert.True(t, small.IsPremiumRow(1))

	none := Layout{Rows: 5, SeatsPerRow: 4, PremiumRows: 0}
	for r := 0; r < 5; r++ {
		assert.False(t, none.IsPremiumRow(r))
	}
}

func TestClassifyPrecedence(t *testing.T) {
	l := Layout{Rows: 10, SeatsPerRow: 10, PremiumRows: 3}
	rows := l.Classify([]string{"A1", "A2"}, []string{"A2", "A3", "j1"})

	assert.Equal(t, Booked, rows[0][0].Status)
	assert.Equal(t, Booked, rows[0][1].Status, "booked wins over a stale selection")
	assert.Equal(t, Selected, rows[0][2].Status)
	assert.Equal(t, Available, rows[0][3].Status)
	assert.Equal(t, Selected, rows[9][0].Status)
	assert.True(t, rows[9][0].Premium)
	assert.False(t, rows[0][0].Premium)

	counts := Counts(rows)
	assert.Equal(t, 2, counts[Booked])
	assert.Equal(t, 2, counts[Selected])
	assert.Equal(t, 96, counts[Available])
}

func TestLayoutValidate(t *testing.T) {
	assert.NoError(t, Layout{Rows: 1, SeatsPerRow: 1}.Validate())
	assert.ErrorIs(t, Layout{Rows: 0, SeatsPerRow: 1}.Validate(), model.ErrValidation)
	assert.ErrorIs(t, Layout{Rows: 1, SeatsPerRow: 0}.Validate(), model.ErrValidation)
	assert.ErrorIs(t, Layout{Rows: 1, SeatsPerRow: 1, PremiumRows: -1}.Validate(), model.ErrValidation)
}

func TestSortRowMajor(t *testing.T) {
	labels := []string{"B1", "A10", "AA1", "A2", "bogus", "Z3"}
	Sort(labels)
	assert.Equal(t, []string{"A2", "A10", "B1", "Z3", "AA1", "bogus"}, labels)
}
