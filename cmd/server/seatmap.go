package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/iliyamo/movie-ticket-booking/internal/booking"
	"github.com/iliyamo/movie-ticket-booking/internal/config"
	"github.com/iliyamo/movie-ticket-booking/internal/seatmap"
)

func newSeatmapCmd() *cobra.Command {
	var selected string
	cmd := &cobra.Command{
		Use:   "seatmap <showtime-id>",
		Short: "Print the seat map of a showtime",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			log := newLogger(cfg)
			store, closeStore, err := openStore(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer closeStore()

			svc := booking.NewService(store, nil, nil, log)
			var sel []string
			if selected != "" {
				sel = strings.Split(selected, ",")
			}
			m, err := svc.SeatMap(cmd.Context(), args[0], sel)
			if err != nil {
				return err
			}
			renderSeatMap(cmd.OutOrStdout(), m)
			return nil
		},
	}
	cmd.Flags().StringVar(&selected, "selected", "", "comma separated seats to mark as selected")
	return cmd
}

// renderSeatMap draws one table row per seat row.  Booked seats show as
// "XX", selected ones in brackets and premium rows are flagged with '*'.
func renderSeatMap(w io.Writer, m *booking.SeatMap) {
	st := m.Showtime
	fmt.Fprintf(w, "%s | %s | %s %s\n", st.Movie.Title, st.Theatre.Name, st.ShowDate, st.ShowTime)

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	header := table.Row{"Row"}
	for c := 1; c <= st.Theatre.SeatsPerRow; c++ {
		header = append(header, c)
	}
	header = append(header, "Price")
	t.AppendHeader(header)

	for r, row := range m.Rows {
		name := seatmap.RowLabel(r)
		if len(row) > 0 && row[0].Premium {
			name += "*"
		}
		line := table.Row{name}
		for _, s := range row {
			switch s.Status {
			case seatmap.Booked:
				line = append(line, "XX")
			case seatmap.Selected:
				line = append(line, "["+s.Label+"]")
			default:
				line = append(line, s.Label)
			}
		}
		if len(row) > 0 {
			line = append(line, row[0].Price.StringFixed(2))
		}
		t.AppendRow(line)
	}
	cols := []table.ColumnConfig{{Number: 1, Align: text.AlignLeft}}
	t.SetColumnConfigs(cols)
	t.AppendFooter(table.Row{
		"",
		fmt.Sprintf("available %d  selected %d  booked %d",
			m.Counts[seatmap.Available], m.Counts[seatmap.Selected], m.Counts[seatmap.Booked]),
	})
	t.Render()
}
