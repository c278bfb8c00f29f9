package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/wagoodman/go-progress"

	"github.com/anchore/modcompat/internal/file"
	"github.com/anchore/modcompat/internal/log"
	"github.com/anchore/modcompat/internal/version"
	"github.com/anchore/modcompat/modcompat/compatibility"
	"github.com/anchore/modcompat/modcompat/distribution"
)

var tableImportCmd = &cobra.Command{
	Use:   "import SOURCE",
	Short: "import a compatibility table from a local file or URL",
	Long:  "import a compatibility table (in the same format as the published table) from a local file or any URL",
	Args:  cobra.ExactArgs(1),
	RunE:  runTableImportCmd,
}

func init() {
	tableCmd.AddCommand(tableImportCmd)
}

func runTableImportCmd(_ *cobra.Command, args []string) error {
	resolver, err := newResolver(appConfig, compatibility.WithAutoUpdate(false))
	if err != nil {
		return err
	}

	getter := file.NewGetter(version.FromBuild().UserAgent(), httpClient(appConfig))
	monitor := &progress.Manual{}

	table, err := distribution.NewImporter(afero.NewOsFs(), getter).Import(context.Background(), args[0], monitor)
	if err != nil {
		return err
	}
	log.Debugf("retrieved compatibility table (%d bytes)", monitor.Current())

	if err := resolver.Import(table); err != nil {
		return err
	}

	fmt.Printf("Compatibility table imported (%d epochs)\n", table.Len())
	return nil
}
