package scheduler

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config defines the generator parameters.
type Config struct {
	// RetryPadSeconds is added after a conflict ends before the move is
	// retried. It must be positive for the drain loop to make progress.
	RetryPadSeconds float64 `json:"retry_pad_seconds" yaml:"retry_pad_seconds"`
	// MaxIterationsPerTrain caps the requests processed for one train.
	MaxIterationsPerTrain int `json:"max_iterations_per_train" yaml:"max_iterations_per_train"`
	// TimeResolutionMS rounds travel times up to this granularity.
	TimeResolutionMS int `json:"time_resolution_ms" yaml:"time_resolution_ms"`
	// Index selects the occupancy index: "tree" or "sorted".
	Index string `json:"index" yaml:"index"`
}

// SetDefaults fills unset fields.
func (c *Config) SetDefaults() {
	if c.RetryPadSeconds == 0 {
		c.RetryPadSeconds = 1
	}
	if c.MaxIterationsPerTrain == 0 {
		c.MaxIterationsPerTrain = 10000
	}
	if c.TimeResolutionMS == 0 {
		c.TimeResolutionMS = 1000
	}
	if c.Index == "" {
		c.Index = "tree"
	}
}

// Validate checks the configured values.
func (c Config) Validate() error {
	if c.RetryPadSeconds <= 0 {
		return fmt.Errorf("retry_pad_seconds must be positive")
	}
	if c.MaxIterationsPerTrain <= 0 {
		return fmt.Errorf("max_iterations_per_train must be positive")
	}
	if c.TimeResolutionMS < 0 {
		return fmt.Errorf("time_resolution_ms must not be negative")
	}
	if c.Index != "tree" && c.Index != "sorted" {
		return fmt.Errorf("unknown index %s", c.Index)
	}
	return nil
}

// RetryPad is the delay between a conflict's end and the retry.
func (c Config) RetryPad() time.Duration {
	return time.Duration(c.RetryPadSeconds * float64(time.Second))
}

// Resolution is the travel time granularity.
func (c Config) Resolution() time.Duration {
	return time.Duration(c.TimeResolutionMS) * time.Millisecond
}

// LoadConfig loads Config from a JSON or YAML file and applies defaults.
func LoadConfig(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, err
	}
	defer func() { _ = f.Close() }()
	return DecodeConfig(f, strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), "."))
}

// DecodeConfig reads a Config from r in the given format.
func DecodeConfig(r io.Reader, format string) (Config, error) {
	var cfg Config
	switch strings.ToLower(format) {
	case "yaml", "yml":
		if err := yaml.NewDecoder(r).Decode(&cfg); err != nil && err != io.EOF {
			return cfg, err
		}
	case "json":
		if err := json.NewDecoder(r).Decode(&cfg); err != nil {
			return cfg, err
		}
	default:
		return cfg, fmt.Errorf("unsupported config format: %s", format)
	}
	cfg.SetDefaults()
	return cfg, cfg.Validate()
}
