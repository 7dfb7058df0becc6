package main // command movie-tickets runs the booking API and its operator tools

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		logrus.WithError(err).Error("command failed")
		os.Exit(1)
	}
}

// newRootCmd assembles the CLI.  Every subcommand loads its configuration
// from the environment (and .env) when it runs.
func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "movie-tickets",
		Short:         "Movie ticket booking service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newServeCmd(),
		newConsumeCmd(),
		newTokenCmd(),
		newSeatmapCmd(),
		newImportLegacyCmd(),
	)
	return root
}
