package main

import (
	"bytes"

	"github.com/spf13/cobra"

	"github.com/vsariola/partitur/midiexport"
)

var midiFlags struct {
	output outputFlags
	tempo  float64
}

var midiCmd = &cobra.Command{
	Use:   "midi FILE",
	Short: "Export a stream document as a Standard MIDI File",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := readScore(args[0])
		if err != nil {
			return err
		}
		opts := cfg.MIDIOptions()
		if cmd.Flags().Changed("tempo") {
			opts.Tempo = midiFlags.tempo
		}
		var buf bytes.Buffer
		if err := midiexport.Write(s, &buf, opts); err != nil {
			return err
		}
		return midiFlags.output.write(cmd, args[0], ".mid", buf.Bytes())
	},
}

func init() {
	midiFlags.output.register(midiCmd)
	midiCmd.Flags().Float64Var(&midiFlags.tempo, "tempo", 120, "tempo in quarter notes per minute")
	rootCmd.AddCommand(midiCmd)
}
