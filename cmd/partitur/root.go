package main

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/vsariola/partitur/config"
	"github.com/vsariola/partitur/score"
	"github.com/vsariola/partitur/stream"
	"github.com/vsariola/partitur/version"
)

var (
	configPath string
	debug      bool
	cfg        config.Config
	logger     = log.New(io.Discard, "", 0)
)

var rootCmd = &cobra.Command{
	Use:     "partitur",
	Short:   "Check, convert and export score stream documents",
	Long:    `partitur reads score stream documents (.yml or .json), keeps their voices consistent with the measures and writes them back, as MIDI or as listings.`,
	Version: version.String(),
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if cfg, err = config.Load(configPath); err != nil {
			return err
		}
		if debug || cfg.Debug {
			logger = log.New(os.Stderr, "partitur: ", 0)
		}
		return nil
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default is $XDG_CONFIG_HOME/partitur/config.yml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "log gap fills and repairs to stderr")
}

func execute() {
	cobra.CheckErr(rootCmd.Execute())
}

// readScore reads a stream document file into a score, building the
// multi-measure rests if the config asks for them.
func readScore(filename string) (*score.Score, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("could not read file %v: %v", filename, err)
	}
	doc, err := stream.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%v: %v", filename, err)
	}
	opts := cfg.ReadOptions()
	opts.Logger = logger
	s, err := stream.Read(doc, opts)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", filename, err)
	}
	if cfg.MMRests.Create && len(s.MMRests()) == 0 {
		if err := s.CreateMMRests(cfg.MMRests.MinCount); err != nil {
			return nil, fmt.Errorf("%v: %w", filename, err)
		}
	}
	return s, nil
}
