// Package config loads npi-match settings from TOML.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/gyeh/npi-match/internal/logging"
	"github.com/gyeh/npi-match/internal/npi"
)

//go:embed sample_config.toml
var sampleConfig string

// Registry configures the NPPES client.
type Registry struct {
	BaseURL        string `toml:"base_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	DelayMS        int    `toml:"delay_ms"`
	Retries        int    `toml:"retries"`
	UserAgent      string `toml:"user_agent"`
}

// Timeout returns the per-request timeout.
func (r Registry) Timeout() time.Duration {
	return time.Duration(r.TimeoutSeconds) * time.Second
}

// Delay returns the pause after every registry call.
func (r Registry) Delay() time.Duration {
	return time.Duration(r.DelayMS) * time.Millisecond
}

// Input configures how spreadsheets are read.
type Input struct {
	Encoding string `toml:"encoding"`
}

// Output configures where results go.
type Output struct {
	// Format is csv, json or sqlite. Empty infers it from the output path.
	Format  string `toml:"format"`
	Summary bool   `toml:"summary"`
}

// Metrics configures the Prometheus Pushgateway export.
type Metrics struct {
	PushURL string `toml:"push_url"`
	Job     string `toml:"job"`
}

// AWS configures S3 access for s3:// inputs and outputs.
type AWS struct {
	Region string `toml:"region"`
}

// Config is the top-level configuration.
type Config struct {
	Registry Registry       `toml:"registry"`
	Input    Input          `toml:"input"`
	Output   Output         `toml:"output"`
	Logging  logging.Config `toml:"logging"`
	Metrics  Metrics        `toml:"metrics"`
	AWS      AWS            `toml:"aws"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Registry: Registry{
			BaseURL:        npi.DefaultBaseURL,
			TimeoutSeconds: int(npi.DefaultTimeout / time.Second),
			DelayMS:        int(npi.DefaultDelay / time.Millisecond),
			UserAgent:      "npi-match",
		},
		Input:   Input{Encoding: "utf-8"},
		Output:  Output{Summary: true},
		Logging: logging.DefaultConfig(),
		Metrics: Metrics{Job: "npi-match"},
	}
}

// Load reads path over the defaults and validates the result. An empty path
// returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		file, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Sample returns the annotated sample configuration.
func Sample() string {
	return sampleConfig
}

// CreateSample writes the sample configuration to path, refusing to
// overwrite an existing file.
func CreateSample(path string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("create sample config: %w", err)
	}
	if _, err := f.WriteString(sampleConfig); err != nil {
		f.Close()
		return fmt.Errorf("write sample config: %w", err)
	}
	return f.Close()
}
