package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vsariola/partitur/check"
	"github.com/vsariola/partitur/report"
)

var summaryPath string

var errCheckFailed = errors.New("consistency check failed")

var checkCmd = &cobra.Command{
	Use:   "check FILE...",
	Short: "Run the consistency check on stream documents",
	Long:  `Reads every document, fills the gaps of its voices, repairs measure rests and reports everything that cannot be repaired. Exits with a non-zero status if any document fails.`,
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := report.New()
		if err != nil {
			return err
		}
		c := cfg.NewChecker()
		c.Logger = logger
		total := check.Report{OK: true}
		for _, filename := range args {
			s, err := readScore(filename)
			if err != nil {
				return err
			}
			rep := c.RunConsistencyCheck(s, nil)
			if len(args) > 1 {
				fmt.Fprintf(cmd.OutOrStdout(), "%v: ", filename)
			}
			if err := r.Diagnostics(cmd.OutOrStdout(), rep); err != nil {
				return err
			}
			total.OK = total.OK && rep.OK
			total.Diagnostics = append(total.Diagnostics, rep.Diagnostics...)
		}
		if summaryPath != "" {
			f, err := os.Create(summaryPath)
			if err != nil {
				return fmt.Errorf("could not create summary %v: %v", summaryPath, err)
			}
			defer f.Close()
			if err := total.WriteSummary(f); err != nil {
				return err
			}
		}
		if !total.OK {
			return errCheckFailed
		}
		return nil
	},
}

func init() {
	checkCmd.Flags().StringVar(&summaryPath, "summary", "", "write the JSON summary ({\"result\":0} or {\"result\":1,\"error\":...}) to this file")
	rootCmd.AddCommand(checkCmd)
}
