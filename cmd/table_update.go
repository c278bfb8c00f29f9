package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/anchore/modcompat/internal/bus"
	"github.com/anchore/modcompat/internal/config"
	"github.com/anchore/modcompat/internal/ui"
	"github.com/anchore/modcompat/modcompat/distribution"
)

var tableUpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "check for and download a newer compatibility table",
	Args:  cobra.ExactArgs(0),
	RunE:  runTableUpdateCmd,
}

func init() {
	tableCmd.AddCommand(tableUpdateCmd)
}

func startTableUpdateWorker(cfg *config.Application) <-chan error {
	errs := make(chan error)
	go func() {
		defer close(errs)

		resolver, err := newResolver(cfg)
		if err != nil {
			errs <- err
			return
		}

		result := resolver.Refresh(context.Background())
		if result.Outcome == distribution.Failed {
			errs <- fmt.Errorf("unable to update compatibility table: %w", result.Err)
			return
		}

		bus.Report(describeRefresh(result, resolver.State().Table.Len()))
	}()
	return errs
}

func describeRefresh(result distribution.Result, epochs int) string {
	switch result.Outcome {
	case distribution.Updated:
		return fmt.Sprintf("Compatibility table updated (%d epochs)\n", epochs)
	case distribution.Unchanged:
		return fmt.Sprintf("No compatibility table update available (server responded with status %d)\n", result.StatusCode)
	default:
		return "No compatibility table update available\n"
	}
}

func runTableUpdateCmd(_ *cobra.Command, _ []string) error {
	return eventLoop(
		startTableUpdateWorker(appConfig),
		setupSignals(),
		eventSubscription,
		func() {},
		ui.NewLoggerUI(os.Stdout),
	)
}
