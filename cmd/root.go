package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/anchore/modcompat/internal"
	"github.com/anchore/modcompat/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   internal.ApplicationName,
	Short: "Check mods against the compatibility epochs of the installed game",
	Long: fmt.Sprintf(`Determines whether mods are compatible with the installed version of The Long Dark, using a
remotely maintained table that maps game versions to compatibility epochs.

    %[1]s check mods.yaml            check every mod listed in the given file
    %[1]s table status                show the installed version and the local table
    %[1]s table update                check for a newer compatibility table
`, internal.ApplicationName),
	Version:       version.FromBuild().Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	setRootFlags(rootCmd.PersistentFlags())
}

func setRootFlags(flags *pflag.FlagSet) {
	flags.StringVarP(&persistentOpts.ConfigPath, "config", "c", "", "application config file")
	flags.CountVarP(&persistentOpts.Verbosity, "verbose", "v", "increase verbosity (-v = info, -vv = debug)")

	flags.BoolP(
		"quiet", "q", false,
		"suppress all logging output",
	)

	flags.StringP(
		"game-dir", "g", "",
		"install directory of the game (used to find the installed version)",
	)

	flags.String(
		"state-dir", "",
		"directory where the compatibility table state is kept",
	)
}

func bindRootConfigOptions(flags *pflag.FlagSet) error {
	for key, flag := range map[string]string{
		"quiet":                   "quiet",
		"compatibility.game-dir":  "game-dir",
		"compatibility.state-dir": "state-dir",
	} {
		if err := bindFlag(key, flags.Lookup(flag)); err != nil {
			return err
		}
	}
	return nil
}

func bindFlag(key string, flag *pflag.Flag) error {
	if flag == nil {
		return fmt.Errorf("unable to bind flag for config key %q: flag not found", key)
	}
	return viper.BindPFlag(key, flag)
}
