// Package config holds the engine configuration: the embedded defaults,
// overridden by config.yml in the user config directory or by an explicit
// file.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v2"

	"github.com/vsariola/partitur/check"
	"github.com/vsariola/partitur/midiexport"
	"github.com/vsariola/partitur/stream"
)

type (
	Config struct {
		Checker CheckerConfig
		Stream  StreamConfig
		MMRests MMRestConfig
		MIDI    MIDIConfig
		Server  ServerConfig
		Debug   bool
	}

	CheckerConfig struct {
		UseGapRests bool
	}

	StreamConfig struct {
		WriteMMRests    bool
		IncludeGapRests bool
	}

	// MMRestConfig controls building multi-measure rests after reading.
	MMRestConfig struct {
		Create   bool
		MinCount int
	}

	MIDIConfig struct {
		Resolution int
		Tempo      float64
		Velocity   uint8
	}

	ServerConfig struct {
		Addr           string
		AllowedOrigins []string
		// Store is "memory" or "dynamodb".
		Store    string
		Table    string
		Region   string
		Endpoint string `yaml:",omitempty"` // local DynamoDB, e.g. http://localhost:8000
	}
)

//go:embed default.yml
var defaultYaml []byte

// Default returns the embedded default configuration.
func Default() Config {
	var ret Config
	if err := yaml.UnmarshalStrict(defaultYaml, &ret); err != nil {
		panic(fmt.Errorf("failed to unmarshal default config: %w", err))
	}
	return ret
}

// UserPath returns the path of the user config file.
func UserPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "partitur", "config.yml"), nil
}

// Load returns the defaults overridden by the file at path. An empty path
// means the user config file, which may be missing.
func Load(path string) (Config, error) {
	ret := Default()
	explicit := path != ""
	if !explicit {
		p, err := UserPath()
		if err != nil {
			return ret, nil
		}
		path = p
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return ret, nil
		}
		return ret, fmt.Errorf("could not read config %v: %w", path, err)
	}
	if err := yaml.UnmarshalStrict(data, &ret); err != nil {
		return ret, fmt.Errorf("could not parse config %v: %w", path, err)
	}
	return ret, nil
}

// NewChecker returns a checker configured by c.
func (c Config) NewChecker() *check.Checker {
	return check.New(c.Checker.UseGapRests)
}

func (c Config) WriteOptions() stream.Options {
	return stream.Options{WriteMMRests: c.Stream.WriteMMRests, IncludeGapRests: c.Stream.IncludeGapRests}
}

func (c Config) ReadOptions() stream.ReadOptions {
	return stream.ReadOptions{UseGapRests: c.Checker.UseGapRests}
}

func (c Config) MIDIOptions() midiexport.Options {
	return midiexport.Options{Resolution: c.MIDI.Resolution, Tempo: c.MIDI.Tempo, Velocity: c.MIDI.Velocity}
}
