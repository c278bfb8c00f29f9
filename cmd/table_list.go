package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/anchore/modcompat/modcompat/compatibility"
	"github.com/anchore/modcompat/modcompat/epoch"
)

var tableListOutputFormat string

var tableListCmd = &cobra.Command{
	Use:   "list",
	Short: "list all compatibility epochs in the local table",
	Args:  cobra.ExactArgs(0),
	RunE:  runTableListCmd,
}

func init() {
	tableListCmd.Flags().StringVarP(&tableListOutputFormat, "output", "o", "text", "format to display results (available=[text, json])")

	tableCmd.AddCommand(tableListCmd)
}

func runTableListCmd(_ *cobra.Command, _ []string) error {
	resolver, err := newResolver(appConfig, compatibility.WithAutoUpdate(false))
	if err != nil {
		return err
	}

	return writeTable(os.Stdout, resolver.State().Table, tableListOutputFormat)
}

func writeTable(w io.Writer, table epoch.Table, format string) error {
	switch format {
	case "text":
		if table.IsEmpty() {
			_, err := io.WriteString(w, "No compatibility epochs available\n")
			return err
		}

		tw := tablewriter.NewWriter(w)
		tw.SetHeader([]string{"Version", "Effective-From"})
		tw.SetAutoWrapText(false)
		tw.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
		tw.SetAlignment(tablewriter.ALIGN_LEFT)
		tw.SetHeaderLine(false)
		tw.SetBorder(false)
		tw.SetCenterSeparator("")
		tw.SetColumnSeparator("")
		tw.SetRowSeparator("")
		tw.SetTablePadding("  ")
		tw.SetNoWhiteSpace(true)

		for _, e := range table.Entries() {
			tw.Append([]string{e.Version().String(), e.EffectiveFrom().Format("2006-01-02")})
		}
		tw.Render()
	case "json":
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", " ")
		if err := enc.Encode(&table); err != nil {
			return fmt.Errorf("failed to show compatibility table: %+v", err)
		}
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
	return nil
}
