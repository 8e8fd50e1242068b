package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/gyeh/npi-match/internal/config"
	"github.com/gyeh/npi-match/internal/logging"
	"github.com/gyeh/npi-match/internal/metrics"
	"github.com/gyeh/npi-match/internal/npi"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "npi-match",
		Short:        "Attach NPPES National Provider Identifiers to a provider spreadsheet",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(newMatchCmd())
	rootCmd.AddCommand(newSearchCmd())
	rootCmd.AddCommand(newLookupCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

// registryFlags are the flags shared by every command that talks to the
// registry. Explicitly set flags override the config file.
type registryFlags struct {
	configPath string
	baseURL    string
	delay      time.Duration
	retries    int
	timeout    time.Duration
	logLevel   string
	logFormat  string
	logFile    string
}

func (f *registryFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.configPath, "config", "", "TOML config file")
	cmd.Flags().StringVar(&f.baseURL, "base-url", npi.DefaultBaseURL, "NPPES API endpoint")
	cmd.Flags().DurationVar(&f.delay, "delay", npi.DefaultDelay, "Pause after every registry call (whole milliseconds)")
	cmd.Flags().IntVar(&f.retries, "retries", 0, "Extra attempts for 429/5xx/network failures")
	cmd.Flags().DurationVar(&f.timeout, "timeout", npi.DefaultTimeout, "Per-request timeout (whole seconds)")
	cmd.Flags().StringVar(&f.logLevel, "log-level", "info", "Log level: debug, info, warn, error")
	cmd.Flags().StringVar(&f.logFormat, "log-format", "text", "Log format: text or json")
	cmd.Flags().StringVar(&f.logFile, "log-file", "", "Also write logs to this rotating file")
}

// load reads the config file and applies explicitly set flags on top.
func (f *registryFlags) load(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("base-url") {
		cfg.Registry.BaseURL = f.baseURL
	}
	if flags.Changed("delay") {
		if f.delay%time.Millisecond != 0 {
			return nil, fmt.Errorf("--delay %s: must be a whole number of milliseconds", f.delay)
		}
		cfg.Registry.DelayMS = int(f.delay / time.Millisecond)
	}
	if flags.Changed("retries") {
		cfg.Registry.Retries = f.retries
	}
	if flags.Changed("timeout") {
		if f.timeout%time.Second != 0 {
			return nil, fmt.Errorf("--timeout %s: must be a whole number of seconds", f.timeout)
		}
		cfg.Registry.TimeoutSeconds = int(f.timeout / time.Second)
	}
	if flags.Changed("log-level") {
		cfg.Logging.Level = f.logLevel
	}
	if flags.Changed("log-format") {
		cfg.Logging.Format = f.logFormat
	}
	if flags.Changed("log-file") {
		cfg.Logging.FilePath = f.logFile
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(cfg *config.Config, w io.Writer) (*slog.Logger, io.Closer) {
	return logging.New(cfg.Logging, w)
}

func newClient(cfg *config.Config, logger *slog.Logger, m *metrics.Metrics, onError func(error)) *npi.Client {
	return npi.New(
		npi.WithBaseURL(cfg.Registry.BaseURL),
		npi.WithTimeout(cfg.Registry.Timeout()),
		npi.WithDelay(cfg.Registry.Delay()),
		npi.WithRetries(cfg.Registry.Retries),
		npi.WithUserAgent(cfg.Registry.UserAgent),
		npi.WithLogger(logger),
		npi.WithMetrics(m),
		npi.WithErrorHandler(onError),
	)
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context, stderr io.Writer) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			fmt.Fprintln(stderr, "\nInterrupted, writing results so far...")
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, func() {
		signal.Stop(sigCh)
		cancel()
	}
}
