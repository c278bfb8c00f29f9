package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/anchore/modcompat/internal"
	"github.com/anchore/modcompat/internal/version"
)

var versionOutputFormat string

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "show the version",
	Args:  cobra.ExactArgs(0),
	RunE: func(_ *cobra.Command, _ []string) error {
		return printVersion(os.Stdout, version.FromBuild(), versionOutputFormat)
	},
}

func init() {
	versionCmd.Flags().StringVarP(&versionOutputFormat, "output", "o", "text", "format to show version information (available=[text, json])")

	rootCmd.AddCommand(versionCmd)
}

func printVersion(w io.Writer, versionInfo version.Version, format string) error {
	switch format {
	case "text":
		fmt.Fprintln(w, "Application:    ", internal.ApplicationName)
		fmt.Fprintln(w, "Version:        ", versionInfo.Version)
		fmt.Fprintln(w, "BuildDate:      ", versionInfo.BuildDate)
		fmt.Fprintln(w, "GitCommit:      ", versionInfo.GitCommit)
		fmt.Fprintln(w, "GitDescription: ", versionInfo.GitDescription)
		fmt.Fprintln(w, "Platform:       ", versionInfo.Platform)
		fmt.Fprintln(w, "GoVersion:      ", versionInfo.GoVersion)
		fmt.Fprintln(w, "Compiler:       ", versionInfo.Compiler)
	case "json":
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", " ")
		err := enc.Encode(&struct {
			version.Version
			Application string `json:"application"`
		}{
			Version:     versionInfo,
			Application: internal.ApplicationName,
		})
		if err != nil {
			return fmt.Errorf("failed to show version information: %+v", err)
		}
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
	return nil
}
