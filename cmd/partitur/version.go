package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vsariola/partitur/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), version.Long())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
