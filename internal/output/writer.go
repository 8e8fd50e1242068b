package output

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/klauspost/pgzip"

	"github.com/gyeh/npi-match/internal/cloud"
	"github.com/gyeh/npi-match/internal/match"
	"github.com/gyeh/npi-match/internal/records"
)

// DefaultPath is the output file used when none is given.
const DefaultPath = "providers_with_npi_matches.csv"

// Format selects the output encoding.
type Format string

const (
	FormatCSV    Format = "csv"
	FormatJSON   Format = "json"
	FormatSQLite Format = "sqlite"
)

// ParseFormat validates a format name. An empty name returns "".
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case "", FormatCSV, FormatJSON, FormatSQLite:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want csv, json or sqlite)", s)
	}
}

// FormatFromPath infers the format from a file extension, ignoring a
// trailing .gz. Unknown extensions and "-" mean CSV.
func FormatFromPath(path string) Format {
	p := strings.TrimSuffix(strings.ToLower(path), ".gz")
	switch filepath.Ext(p) {
	case ".json":
		return FormatJSON
	case ".db", ".sqlite", ".sqlite3":
		return FormatSQLite
	default:
		return FormatCSV
	}
}

// RunInfo describes the run that produced a result set.
type RunInfo struct {
	RunID           string    `json:"run_id"`
	Input           string    `json:"input"`
	StartedAt       time.Time `json:"started_at"`
	DurationSeconds float64   `json:"duration_seconds"`
	// Completed is false when the run stopped before every row was matched.
	Completed bool    `json:"completed"`
	Summary   Summary `json:"summary"`
}

// Options control where and how results are written.
type Options struct {
	// Format overrides the format inferred from the path.
	Format Format
	// S3Region is used when the path is an s3:// URL.
	S3Region string
	// Stdout receives output when the path is "-"; defaults to os.Stdout.
	Stdout io.Writer
}

// WriteResults writes the joined table to path: a local file, "-" for
// stdout, or an s3:// URL. Local and S3 paths ending in .gz are compressed.
func WriteResults(ctx context.Context, path string, opts Options, run RunInfo, t *records.Table, results []match.Result) error {
	format := opts.Format
	if format == "" {
		format = FormatFromPath(path)
	}
	gz := strings.HasSuffix(strings.ToLower(path), ".gz")
	if format == FormatSQLite && (gz || path == "-") {
		return errors.New("sqlite output needs a plain file path")
	}

	switch {
	case path == "-":
		out := opts.Stdout
		if out == nil {
			out = os.Stdout
		}
		return encode(out, format, run, t, results)

	case cloud.IsS3URL(path):
		tmp, err := os.CreateTemp("", "npi-match-*"+filepath.Ext(path))
		if err != nil {
			return err
		}
		tmpPath := tmp.Name()
		tmp.Close()
		defer os.Remove(tmpPath)

		if err := writeLocal(ctx, tmpPath, format, gz, run, t, results); err != nil {
			return err
		}
		return cloud.UploadURL(ctx, path, opts.S3Region, tmpPath, contentType(format, gz))

	default:
		return writeLocal(ctx, path, format, gz, run, t, results)
	}
}

func writeLocal(ctx context.Context, path string, format Format, gz bool, run RunInfo, t *records.Table, results []match.Result) error {
	if format == FormatSQLite {
		return writeSQLite(ctx, path, run, t, results)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating output: %w", err)
	}

	var w io.Writer = f
	var zw *pgzip.Writer
	if gz {
		zw = pgzip.NewWriter(f)
		w = zw
	}

	if err := encode(w, format, run, t, results); err != nil {
		f.Close()
		return err
	}
	if zw != nil {
		if err := zw.Close(); err != nil {
			f.Close()
			return fmt.Errorf("finishing gzip stream: %w", err)
		}
	}
	return f.Close()
}

func encode(w io.Writer, format Format, run RunInfo, t *records.Table, results []match.Result) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, run, t, results)
	case FormatCSV:
		return writeCSV(w, t, results)
	default:
		return fmt.Errorf("format %q cannot be streamed", format)
	}
}

func writeCSV(w io.Writer, t *records.Table, results []match.Result) error {
	header, rows := records.Join(t, results)

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("writing rows: %w", err)
	}
	return nil
}

type jsonResult struct {
	Input map[string]string `json:"input"`
	match.Result
}

type jsonOutput struct {
	Run     RunInfo      `json:"run"`
	Results []jsonResult `json:"results"`
}

func writeJSON(w io.Writer, run RunInfo, t *records.Table, results []match.Result) error {
	out := jsonOutput{Run: run, Results: make([]jsonResult, 0, len(results))}
	for i, res := range results {
		out.Results = append(out.Results, jsonResult{Input: inputRow(t, i), Result: res})
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling output: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return err
	}
	_, err = fmt.Fprintln(w)
	return err
}

// inputRow maps the original columns of record i to their values. The first
// of any duplicated column names wins.
func inputRow(t *records.Table, i int) map[string]string {
	input := make(map[string]string, len(t.Header))
	if i >= len(t.Records) {
		return input
	}
	for _, col := range t.Header {
		if _, dup := input[col]; !dup {
			input[col] = t.Get(t.Records[i], col)
		}
	}
	return input
}

func contentType(format Format, gz bool) string {
	if gz {
		return "application/gzip"
	}
	switch format {
	case FormatJSON:
		return "application/json"
	case FormatSQLite:
		return "application/vnd.sqlite3"
	default:
		return "text/csv; charset=utf-8"
	}
}
