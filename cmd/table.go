package cmd

import (
	"github.com/spf13/cobra"
)

var tableCmd = &cobra.Command{
	Use:   "table",
	Short: "compatibility table operations",
}

func init() {
	rootCmd.AddCommand(tableCmd)
}
