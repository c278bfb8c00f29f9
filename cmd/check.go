package cmd

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/pkg/profile"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/anchore/modcompat/internal"
	"github.com/anchore/modcompat/internal/bus"
	"github.com/anchore/modcompat/internal/config"
	"github.com/anchore/modcompat/internal/ui"
	"github.com/anchore/modcompat/internal/version"
	"github.com/anchore/modcompat/modcompat/compatibility"
	"github.com/anchore/modcompat/modcompat/mod"
	"github.com/anchore/modcompat/modcompat/modcompaterr"
	"github.com/anchore/modcompat/modcompat/presenter"
	"github.com/anchore/modcompat/modcompat/presenter/models"
)

var checkCmd = &cobra.Command{
	Use:   "check [MODS_FILE]",
	Short: "check which mods are compatible with the installed game version",
	Long: `Reads a list of mods (JSON, or YAML when the file ends in .yaml/.yml) and reports whether each mod targets the
compatibility epoch of the installed game. A JSON list is read from stdin when no file is given (or the file is "-").`,
	Args: cobra.MaximumNArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		if presenter.ParseOption(appConfig.Output) == presenter.UnknownPresenter {
			return fmt.Errorf("unsupported output format: %s (available=%v)", appConfig.Output, presenter.Options)
		}
		return nil
	},
	RunE: runCheckCmd,
}

func init() {
	setCheckFlags(checkCmd)
	if err := bindCheckConfigOptions(checkCmd); err != nil {
		panic(err)
	}

	rootCmd.AddCommand(checkCmd)
}

func setCheckFlags(cmd *cobra.Command) {
	cmd.Flags().StringP(
		"output", "o", presenter.TablePresenter.String(),
		fmt.Sprintf("report output format, options=%v", presenter.Options),
	)

	cmd.Flags().Bool(
		"fail-on-old", false,
		"set the return code to 1 if any mod is not compatible with the installed version",
	)
}

func bindCheckConfigOptions(cmd *cobra.Command) error {
	for _, flag := range []string{"output", "fail-on-old"} {
		if err := bindFlag(flag, cmd.Flags().Lookup(flag)); err != nil {
			return err
		}
	}
	return nil
}

func runCheckCmd(_ *cobra.Command, args []string) error {
	modsFile, err := modsSource(args, internal.IsPipedInput)
	if err != nil {
		return err
	}

	if appConfig.Dev.ProfileCPU {
		defer profile.Start(profile.CPUProfile).Stop()
	} else if appConfig.Dev.ProfileMem {
		defer profile.Start(profile.MemProfile).Stop()
	}

	return eventLoop(
		startCheckWorker(appConfig, modsFile),
		setupSignals(),
		eventSubscription,
		func() {},
		ui.NewLoggerUI(os.Stdout),
	)
}

func startCheckWorker(cfg *config.Application, modsFile string) <-chan error {
	errs := make(chan error)
	go func() {
		defer close(errs)

		mods, err := readMods(afero.NewOsFs(), modsFile)
		if err != nil {
			errs <- err
			return
		}

		resolver, err := newResolver(cfg, compatibility.WithAutoUpdate(cfg.Compatibility.AutoUpdate))
		if err != nil {
			errs <- err
			return
		}

		if err := resolver.Initialize(context.Background()); err != nil {
			errs <- err
			return
		}

		doc := models.NewDocument(resolver, mods, internal.ApplicationName, version.FromBuild().Version)

		report, err := renderReport(presenter.ParseOption(cfg.Output), doc, supportsColor())
		if err != nil {
			errs <- err
			return
		}

		bus.Report(report)

		if cfg.FailOnOld && doc.Count(compatibility.Old) > 0 {
			errs <- modcompaterr.ErrIncompatibleMods
		}
	}()
	return errs
}

// modsSource determines where the mod list is read from ("-" is stdin).
func modsSource(args []string, isPiped func() (bool, error)) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}

	piped, err := isPiped()
	if err != nil {
		return "", err
	}
	if !piped {
		return "", fmt.Errorf("a mods file is required when nothing is piped to stdin")
	}
	return "-", nil
}

func readMods(fs afero.Fs, path string) ([]*mod.Mod, error) {
	if path == "-" {
		return mod.Decode(os.Stdin, mod.JSONFormat)
	}
	return mod.ReadFile(fs, path)
}

func renderReport(option presenter.Option, doc models.Document, withColor bool) (string, error) {
	pres := presenter.GetPresenter(option, doc, withColor)
	if pres == nil {
		return "", fmt.Errorf("unsupported output format: %s", option)
	}

	var buf bytes.Buffer
	if err := pres.Present(&buf); err != nil {
		return "", fmt.Errorf("unable to render compatibility report: %w", err)
	}
	return buf.String(), nil
}
