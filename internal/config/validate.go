package config

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/gyeh/npi-match/internal/logging"
	"github.com/gyeh/npi-match/internal/records"
)

// OutputFormats lists the accepted output.format values.
var OutputFormats = []string{"csv", "json", "sqlite"}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateRegistry(); err != nil {
		return err
	}
	if err := c.validateInput(); err != nil {
		return err
	}
	if err := c.validateOutput(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return c.validateMetrics()
}

func (c *Config) validateRegistry() error {
	u, err := url.Parse(c.Registry.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("registry.base_url %q is not an absolute URL", c.Registry.BaseURL)
	}
	if c.Registry.TimeoutSeconds <= 0 {
		return errors.New("registry.timeout_seconds must be positive")
	}
	if c.Registry.DelayMS < 0 {
		return errors.New("registry.delay_ms must not be negative")
	}
	if c.Registry.Retries < 0 {
		return errors.New("registry.retries must not be negative")
	}
	return nil
}

func (c *Config) validateInput() error {
	if !records.ValidEncoding(c.Input.Encoding) {
		return fmt.Errorf("input.encoding %q is not supported (use utf-8 or windows-1252)", c.Input.Encoding)
	}
	return nil
}

func (c *Config) validateOutput() error {
	if c.Output.Format == "" {
		return nil
	}
	for _, f := range OutputFormats {
		if c.Output.Format == f {
			return nil
		}
	}
	return fmt.Errorf("output.format %q is not one of %v", c.Output.Format, OutputFormats)
}

func (c *Config) validateLogging() error {
	if !logging.ValidLevel(c.Logging.Level) {
		return fmt.Errorf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level)
	}
	if !logging.ValidFormat(c.Logging.Format) {
		return fmt.Errorf("logging.format %q is not one of text, json", c.Logging.Format)
	}
	return nil
}

func (c *Config) validateMetrics() error {
	if c.Metrics.PushURL == "" {
		return nil
	}
	if _, err := url.ParseRequestURI(c.Metrics.PushURL); err != nil {
		return fmt.Errorf("metrics.push_url: %w", err)
	}
	if c.Metrics.Job == "" {
		return errors.New("metrics.job is required when metrics.push_url is set")
	}
	return nil
}
