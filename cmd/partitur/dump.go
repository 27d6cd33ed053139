package main

import (
	"github.com/spf13/cobra"

	"github.com/vsariola/partitur/report"
)

var dumpCmd = &cobra.Command{
	Use:   "dump FILE",
	Short: "List the measures, segments, elements and spanners of a document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := readScore(args[0])
		if err != nil {
			return err
		}
		r, err := report.New()
		if err != nil {
			return err
		}
		return r.Listing(cmd.OutOrStdout(), s)
	},
}

func init() {
	rootCmd.AddCommand(dumpCmd)
}
