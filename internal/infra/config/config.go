// Package config provides configuration loading from YAML files.
package config

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Player  PlayerConfig  `yaml:"player"`
	Audio   AudioConfig   `yaml:"audio"`
	Library LibraryConfig `yaml:"library"`
	Log     LogConfig     `yaml:"log"`
}

// PlayerConfig represents playback engine configuration.
type PlayerConfig struct {
	Volume        float64 `yaml:"volume" default:"0.5" validate:"gte=0,lte=1"`
	Mode          string  `yaml:"mode" default:"normal" validate:"oneof=normal auto"`
	QueueCapacity int     `yaml:"queue_capacity" default:"1000" validate:"gt=0"`
}

// AudioConfig represents output device configuration.
type AudioConfig struct {
	// Settings is decoded by the audio engine, so unknown keys fail
	// there rather than here.
	Settings map[string]any `yaml:"settings,omitempty"`
}

// LibraryConfig represents music library configuration.
type LibraryConfig struct {
	Roots      []string `yaml:"roots"`
	Extensions []string `yaml:"extensions"` // Empty means the scanner defaults
}

// LogConfig represents logging configuration.
type LogConfig struct {
	Output string `yaml:"output" default:"stderr" validate:"oneof=stdout stderr file"`
	Level  string `yaml:"level" default:"info" validate:"oneof=trace debug info warn error"`
	File   string `yaml:"file,omitempty"`
}

// DefaultPath returns the conventional config file location.
func DefaultPath() string {
	return filepath.Join(xdg.ConfigHome, "phono", "config.yaml")
}

// Default returns the configuration used when no config file exists.
func Default() (*Config, error) {
	var cfg Config
	if err := defaults.Set(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}
	cfg.overrideFromEnv()
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}
	return &cfg, nil
}

// Load loads configuration from a YAML file.
// Environment variables take precedence over file values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse config file")
	}

	// Override with environment variables
	cfg.overrideFromEnv()

	// Set defaults using creasty/defaults
	if err := defaults.Set(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}

	return &cfg, nil
}

// overrideFromEnv overrides config values with environment variables.
func (c *Config) overrideFromEnv() {
	if v := os.Getenv("PHONO_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("PHONO_LOG_FILE"); v != "" {
		c.Log.Output = "file"
		c.Log.File = v
	}
	if v := os.Getenv("PHONO_LIBRARY_ROOTS"); v != "" {
		c.Library.Roots = filepath.SplitList(v)
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, "struct validation failed")
	}

	if c.Log.Output == "file" && c.Log.File == "" {
		return errors.New("log output is \"file\" but log.file is not set")
	}

	return nil
}
