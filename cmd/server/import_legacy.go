package main

import (
	"fmt"
	"io"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/iliyamo/movie-ticket-booking/internal/booking"
	"github.com/iliyamo/movie-ticket-booking/internal/config"
	"github.com/iliyamo/movie-ticket-booking/internal/legacy"
	"github.com/iliyamo/movie-ticket-booking/internal/seatmap"
)

func newImportLegacyCmd() *cobra.Command {
	var (
		opts         legacy.Options
		basePrice    string
		premiumPrice string
		gridsOnly    bool
	)
	cmd := &cobra.Command{
		Use:   "import-legacy <export.json>",
		Short: "Import shows and bookings from a legacy JSON export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if opts.BasePrice, err = decimal.NewFromString(basePrice); err != nil {
				return fmt.Errorf("--base-price: %w", err)
			}
			if opts.PremiumPrice, err = decimal.NewFromString(premiumPrice); err != nil {
				return fmt.Errorf("--premium-price: %w", err)
			}
			opts.NewTicketCode = booking.NewTicketCode

			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			exp, err := legacy.Decode(f)
			if err != nil {
				return err
			}
			if gridsOnly {
				for _, sh := range exp.Shows {
					renderLegacyGrid(cmd.OutOrStdout(), sh)
				}
				return nil
			}
			conv, err := legacy.Convert(*exp, opts)
			if err != nil {
				return err
			}

			cfg := config.Load()
			log := newLogger(cfg)
			store, closeStore, err := openStore(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer closeStore()

			rep, err := legacy.Import(cmd.Context(), store, conv, log)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "theatres %d, movies %d, showtimes %d, bookings %d, already present %d\n",
				rep.Theatres, rep.Movies, rep.Showtimes, rep.Bookings, rep.Existing)
			for _, s := range rep.Skipped {
				fmt.Fprintln(out, "skipped:", s)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.City, "city", "Unknown", "city of the imported theatres")
	cmd.Flags().StringVar(&basePrice, "base-price", "10.00", "standard seat price")
	cmd.Flags().StringVar(&premiumPrice, "premium-price", "15.00", "premium seat price")
	cmd.Flags().IntVar(&opts.PremiumRows, "premium-rows", 3, "premium rows per theatre")
	cmd.Flags().IntVar(&opts.DurationMinutes, "duration", 120, "movie duration in minutes")
	cmd.Flags().StringVar(&opts.UserID, "user", "", "owner of the imported bookings")
	cmd.Flags().BoolVar(&gridsOnly, "grids", false, "print how each show's seat numbers map onto rows and exit")
	return cmd
}

// renderLegacyGrid prints the seat numbers of sh laid out on the grid the
// import will create.  Booked numbers are wrapped in brackets.
func renderLegacyGrid(w io.Writer, sh legacy.Show) {
	fmt.Fprintf(w, "%s (%s): %d seats\n", sh.Name, sh.ID, sh.TotalSeats)
	grid := seatmap.LegacyGrid(sh.TotalSeats)
	if len(grid) == 0 {
		return
	}
	booked := make(map[int]bool, len(sh.BookedSeats))
	for _, n := range sh.BookedSeats {
		booked[n] = true
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	header := table.Row{"Row"}
	for c := 1; c <= len(grid[0]); c++ {
		header = append(header, c)
	}
	t.AppendHeader(header)
	for r, row := range grid {
		line := table.Row{seatmap.RowLabel(r)}
		for _, n := range row {
			if booked[n] {
				line = append(line, fmt.Sprintf("[%d]", n))
			} else {
				line = append(line, n)
			}
		}
		t.AppendRow(line)
	}
	t.Render()
}
