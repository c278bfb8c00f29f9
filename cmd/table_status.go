package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/anchore/modcompat/internal/log"
	"github.com/anchore/modcompat/modcompat/compatibility"
	"github.com/anchore/modcompat/modcompat/epoch"
	"github.com/anchore/modcompat/modcompat/state"
)

var tableStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "display the installed game version and the local compatibility table",
	Args:  cobra.ExactArgs(0),
	RunE:  runTableStatusCmd,
}

func init() {
	tableCmd.AddCommand(tableStatusCmd)
}

func runTableStatusCmd(_ *cobra.Command, _ []string) error {
	resolver, err := newResolver(appConfig, compatibility.WithAutoUpdate(false))
	if err != nil {
		return err
	}

	// the table status is still useful without a detectable installation
	if err := resolver.Initialize(context.Background()); err != nil {
		log.Warnf("%+v", err)
	}

	return writeTableStatus(os.Stdout, resolver, time.Now())
}

type statusSource interface {
	StatePath() string
	CurrentVersion() string
	CurrentEpoch() *epoch.Epoch
	State() state.State
}

func writeTableStatus(w io.Writer, r statusSource, now time.Time) error {
	st := r.State()

	currentEpoch := "unknown"
	if e := r.CurrentEpoch(); e != nil {
		currentEpoch = describeEpoch(*e)
	}

	checked := "never"
	if st.Checked != nil {
		checked = fmt.Sprintf("%s (%s)", humanize.RelTime(*st.Checked, now, "ago", "from now"), st.Checked.Format(time.RFC3339))
	}

	etag := st.ETag
	if etag == "" {
		etag = "none"
	}

	latest := "none"
	if e := st.Table.Max(); e != nil {
		latest = describeEpoch(*e)
	}

	_, err := fmt.Fprintf(w, `Location:       %s
Game Version:   %s
Current Epoch:  %s
Latest Epoch:   %s
Epochs:         %d
Last Checked:   %s
ETag:           %s
`, r.StatePath(), r.CurrentVersion(), currentEpoch, latest, st.Table.Len(), checked, etag)
	return err
}

func describeEpoch(e epoch.Epoch) string {
	return fmt.Sprintf("%s (since %s)", e.Version(), e.EffectiveFrom().Format("2006-01-02"))
}
