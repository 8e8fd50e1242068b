package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/gyeh/npi-match/internal/match"
	"github.com/gyeh/npi-match/internal/metrics"
	"github.com/gyeh/npi-match/internal/output"
	"github.com/gyeh/npi-match/internal/progress"
	"github.com/gyeh/npi-match/internal/records"
	"github.com/gyeh/npi-match/internal/worker"
)

func newMatchCmd() *cobra.Command {
	var (
		reg         registryFlags
		inputFile   string
		outputFile  string
		format      string
		encoding    string
		s3Region    string
		noProgress  bool
		summary     bool
		pushURL     string
		metricsJob  string
		pushTimeout = 10 * time.Second
	)

	cmd := &cobra.Command{
		Use:   "match",
		Short: "Match every row of a provider spreadsheet against the NPPES registry",
		Long: `Reads a CSV with "First Name", "Last Name" and "Zip" columns, searches the
NPPES registry for each row and writes the original columns followed by the
match columns. Rows are processed one at a time with a fixed pause after every
registry call.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := reg.load(cmd)
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("format") {
				cfg.Output.Format = format
			}
			if flags.Changed("encoding") {
				cfg.Input.Encoding = encoding
			}
			if flags.Changed("s3-region") {
				cfg.AWS.Region = s3Region
			}
			if flags.Changed("summary") {
				cfg.Output.Summary = summary
			}
			if flags.Changed("metrics-push-url") {
				cfg.Metrics.PushURL = pushURL
			}
			if flags.Changed("metrics-job") {
				cfg.Metrics.Job = metricsJob
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			outFormat, err := output.ParseFormat(cfg.Output.Format)
			if err != nil {
				return err
			}

			stdout, stderr := cmd.OutOrStdout(), cmd.ErrOrStderr()
			logger, closer := newLogger(cfg, stderr)
			defer closer.Close()

			runID := uuid.NewString()
			logger = logger.With("run_id", runID)

			ctx, cancel := signalContext(cmd.Context(), stderr)
			defer cancel()

			table, err := records.Open(ctx, inputFile, records.Options{
				Encoding: cfg.Input.Encoding,
				S3Region: cfg.AWS.Region,
			})
			if err != nil {
				return err
			}
			logger.Info("input loaded",
				"input", inputFile,
				"rows", len(table.Records),
				"columns", len(table.Header))

			var registryErrors atomic.Int64
			m := metrics.New()
			client := newClient(cfg, logger, m, func(error) { registryErrors.Add(1) })

			runner := &worker.Runner{
				Matcher:  match.New(client),
				Progress: progressManager(noProgress, stderr),
				Logger:   logger,
				Metrics:  m,
			}

			start := time.Now()
			results, runErr := runner.Run(ctx, table.Inputs())
			runner.Progress.Wait()
			duration := time.Since(start)

			if runErr != nil {
				logger.Error("run stopped early",
					"processed", len(results),
					"total", len(table.Records),
					"error", runErr)
			}

			sum := output.Summarize(results)
			run := output.RunInfo{
				RunID:           runID,
				Input:           inputFile,
				StartedAt:       start,
				DurationSeconds: duration.Seconds(),
				Completed:       runErr == nil,
				Summary:         sum,
			}

			// Write whatever was produced, even after an interruption. The
			// write gets its own context so a cancelled run can still upload.
			writeCtx, writeCancel := context.WithTimeout(context.Background(), 5*time.Minute)
			defer writeCancel()
			writeErr := output.WriteResults(writeCtx, outputFile, output.Options{
				Format:   outFormat,
				S3Region: cfg.AWS.Region,
				Stdout:   stdout,
			}, run, table, results)
			if writeErr != nil {
				writeErr = fmt.Errorf("writing output: %w", writeErr)
			}

			if cfg.Output.Summary {
				fmt.Fprintln(stderr, output.RenderSummary(sum))
			}
			fmt.Fprintf(stderr, "\nMatch complete: %d/%d rows processed, %d matched, %d registry errors in %.1fs\n",
				len(results), len(table.Records), sum.Matched, registryErrors.Load(), duration.Seconds())
			if writeErr == nil {
				fmt.Fprintf(stderr, "Results written to %s\n", outputFile)
			}

			pushCtx, pushCancel := context.WithTimeout(context.Background(), pushTimeout)
			defer pushCancel()
			if err := m.Push(pushCtx, cfg.Metrics.PushURL, cfg.Metrics.Job, runID); err != nil {
				logger.Warn("metrics push failed", "error", err)
			}

			return errors.Join(runErr, writeErr)
		},
	}

	reg.register(cmd)
	cmd.Flags().StringVarP(&inputFile, "input", "i", "", "Input CSV (local path, .gz, s3://bucket/key, http(s) URL, or '-' for stdin)")
	cmd.Flags().StringVarP(&outputFile, "output", "o", output.DefaultPath, "Output path (local, .gz, s3://bucket/key, or '-' for stdout)")
	cmd.Flags().StringVar(&format, "format", "", "Output format: csv, json or sqlite (default: from output extension)")
	cmd.Flags().StringVar(&encoding, "encoding", "utf-8", "Input encoding: utf-8 or windows-1252")
	cmd.Flags().StringVar(&s3Region, "s3-region", "", "AWS region for s3:// paths")
	cmd.Flags().BoolVar(&noProgress, "no-progress", false, "Disable progress output")
	cmd.Flags().BoolVar(&summary, "summary", true, "Print the match summary table")
	cmd.Flags().StringVar(&pushURL, "metrics-push-url", "", "Prometheus Pushgateway URL")
	cmd.Flags().StringVar(&metricsJob, "metrics-job", "npi-match", "Pushgateway job name")

	cmd.MarkFlagRequired("input")

	return cmd
}

// progressManager picks a bar for terminals and periodic log lines otherwise.
func progressManager(disabled bool, stderr io.Writer) progress.Manager {
	if disabled {
		return &progress.NoopManager{}
	}
	if f, ok := stderr.(*os.File); ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())) {
		return progress.NewMPBManagerTo(f)
	}
	return progress.NewLogManagerTo(stderr, progress.DefaultLogInterval)
}
