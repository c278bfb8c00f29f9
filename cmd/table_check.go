package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/anchore/modcompat/internal/version"
	"github.com/anchore/modcompat/modcompat/distribution"
	"github.com/anchore/modcompat/modcompat/epoch"
	"github.com/anchore/modcompat/modcompat/modcompaterr"
	"github.com/anchore/modcompat/modcompat/state"
)

var tableCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "check to see if there is a compatibility table update available",
	Long:  "check to see if there is a compatibility table update available (exits non-zero when there is one, the local table is left untouched)",
	Args:  cobra.ExactArgs(0),
	RunE:  runTableCheckCmd,
}

func init() {
	tableCmd.AddCommand(tableCheckCmd)
}

func runTableCheckCmd(_ *cobra.Command, _ []string) error {
	resolver, err := newResolver(appConfig)
	if err != nil {
		return err
	}

	client, err := distribution.NewClient(distribution.Config{
		URL:       appConfig.Compatibility.UpdateURL,
		CACert:    appConfig.Compatibility.CACert,
		Timeout:   appConfig.Compatibility.Timeout,
		UserAgent: version.FromBuild().UserAgent(),
	})
	if err != nil {
		return fmt.Errorf("unable to create compatibility table client: %w", err)
	}

	return checkTableUpdate(context.Background(), os.Stdout, client, resolver.State())
}

// checkTableUpdate fetches the remote table conditionally and reports whether it differs from the local one.
func checkTableUpdate(ctx context.Context, w io.Writer, fetcher distribution.Fetcher, local state.State) error {
	result := fetcher.Fetch(ctx, local.ETag)

	switch result.Outcome {
	case distribution.Failed:
		return fmt.Errorf("unable to check for compatibility table update: %w", result.Err)
	case distribution.Updated:
		if !sameTable(local.Table, result.Table) {
			fmt.Fprintln(w, "Update available!")
			return modcompaterr.ErrTableUpdateAvailable
		}
	}

	fmt.Fprintln(w, "No update available")
	return nil
}

func sameTable(a, b epoch.Table) bool {
	left, right := a.Entries(), b.Entries()
	if len(left) != len(right) {
		return false
	}
	for i := range left {
		if !left[i].Version().Equal(right[i].Version()) || !left[i].EffectiveFrom().Equal(right[i].EffectiveFrom()) {
			return false
		}
	}
	return true
}
