package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vsariola/partitur"
	"github.com/vsariola/partitur/stream"
)

var convertFlags struct {
	output     outputFlags
	json       bool
	mmrests    bool
	gapRests   bool
	staffStart int
	staffEnd   int
	from, to   string
}

var convertCmd = &cobra.Command{
	Use:   "convert FILE",
	Short: "Re-serialize a stream document, optionally a selection of it",
	Long:  `Reads a document, checks it and writes it back as .yml (default) or .json. With --from, --to or the staff flags only the selected range is written; the key and time signatures in effect at the start are written out explicitly.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := readScore(args[0])
		if err != nil {
			return err
		}
		opts := cfg.WriteOptions()
		opts.WriteMMRests = opts.WriteMMRests || convertFlags.mmrests
		opts.IncludeGapRests = opts.IncludeGapRests || convertFlags.gapRests
		if opts.Selection, err = selection(cmd, s.NumStaves(), s.EndTick()); err != nil {
			return err
		}
		doc, err := stream.Write(s, opts)
		if err != nil {
			return err
		}
		if convertFlags.json {
			data, err := stream.MarshalJSON(doc)
			if err != nil {
				return fmt.Errorf("could not marshal the document as json: %v", err)
			}
			return convertFlags.output.write(cmd, args[0], ".json", data)
		}
		data, err := stream.MarshalYAML(doc)
		if err != nil {
			return fmt.Errorf("could not marshal the document as yaml: %v", err)
		}
		return convertFlags.output.write(cmd, args[0], ".yml", data)
	},
}

// selection builds the selection given by the flags, or nil if no
// selection flag was set.
func selection(cmd *cobra.Command, staves int, end partitur.Fraction) (*stream.Selection, error) {
	f := cmd.Flags()
	if !f.Changed("from") && !f.Changed("to") && !f.Changed("staff-start") && !f.Changed("staff-end") {
		return nil, nil
	}
	sel := &stream.Selection{StaffStart: convertFlags.staffStart, StaffEnd: staves, EndTick: end}
	if f.Changed("staff-end") {
		sel.StaffEnd = convertFlags.staffEnd
	}
	var err error
	if convertFlags.from != "" {
		if sel.StartTick, err = partitur.ParseFraction(convertFlags.from); err != nil {
			return nil, fmt.Errorf("--from: %v", err)
		}
	}
	if convertFlags.to != "" {
		if sel.EndTick, err = partitur.ParseFraction(convertFlags.to); err != nil {
			return nil, fmt.Errorf("--to: %v", err)
		}
	}
	return sel, nil
}

func init() {
	convertFlags.output.register(convertCmd)
	f := convertCmd.Flags()
	f.BoolVarP(&convertFlags.json, "json", "j", false, "write .json instead of .yml")
	f.BoolVar(&convertFlags.mmrests, "mmrests", false, "mark multi-measure rests in the output")
	f.BoolVar(&convertFlags.gapRests, "gap-rests", false, "write generated gap rests too")
	f.IntVar(&convertFlags.staffStart, "staff-start", 0, "first staff of the selection")
	f.IntVar(&convertFlags.staffEnd, "staff-end", 0, "staff after the last one of the selection (default all)")
	f.StringVar(&convertFlags.from, "from", "", "selection start in whole notes, e.g. 3 or 7/2")
	f.StringVar(&convertFlags.to, "to", "", "selection end in whole notes (default the end of the score)")
	rootCmd.AddCommand(convertCmd)
}
