// Package records reads the provider spreadsheet and joins match results back
// onto its rows.
package records

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/gyeh/npi-match/internal/match"
)

// Input column names every spreadsheet must carry.
const (
	ColFirstName = "First Name"
	ColLastName  = "Last Name"
	ColZip       = "Zip"
)

// RequiredColumns lists the input columns in the order they are reported
// when missing.
var RequiredColumns = []string{ColFirstName, ColLastName, ColZip}

// Supported input encodings.
const (
	EncodingUTF8        = "utf-8"
	EncodingWindows1252 = "windows-1252"
)

// ErrEmptyInput is returned when the spreadsheet has no data rows.
var ErrEmptyInput = errors.New("input has no data rows")

// ValidationError reports required columns absent from the header.
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return "missing required columns: " + strings.Join(e.Missing, ", ")
}

// Options control how a spreadsheet is decoded.
type Options struct {
	// Encoding is utf-8 (default; UTF-8 and UTF-16 byte order marks are
	// honored) or windows-1252.
	Encoding string
	// S3Region is used when the input path is an s3:// URL.
	S3Region string
}

// Record is one data row.
type Record struct {
	Index     int
	FirstName string
	LastName  string
	Zip       string
	// Values holds every cell in header order, padded to the header width.
	Values []string
}

// Table is a parsed spreadsheet.
type Table struct {
	Header  []string
	Records []Record
	columns map[string]int
}

// Column returns the position of a header column.
func (t *Table) Column(name string) (int, bool) {
	i, ok := t.columns[name]
	return i, ok
}

// Get returns a record's value for a header column, or "" if the column
// does not exist.
func (t *Table) Get(r Record, column string) string {
	i, ok := t.columns[column]
	if !ok || i >= len(r.Values) {
		return ""
	}
	return r.Values[i]
}

// Inputs converts the records into matcher inputs, preserving order.
func (t *Table) Inputs() []match.Input {
	inputs := make([]match.Input, len(t.Records))
	for i, r := range t.Records {
		inputs[i] = match.Input{
			Index:     r.Index,
			FirstName: r.FirstName,
			LastName:  r.LastName,
			Zip:       r.Zip,
		}
	}
	return inputs
}

// ValidEncoding reports whether enc names a supported input encoding.
func ValidEncoding(enc string) bool {
	switch strings.ToLower(enc) {
	case "", EncodingUTF8, "utf8", EncodingWindows1252, "cp1252":
		return true
	}
	return false
}

// Read parses a CSV spreadsheet. Header names are trimmed of surrounding
// whitespace; cell values are kept as-is. Empty lines are skipped and short
// rows are padded with empty cells.
//
// An input without data rows yields ErrEmptyInput. Otherwise a header lacking
// any required column yields a *ValidationError. No rows are returned in
// either case.
func Read(r io.Reader, opts Options) (*Table, error) {
	dec, err := decoder(r, opts.Encoding)
	if err != nil {
		return nil, err
	}

	cr := csv.NewReader(dec)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyInput
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	t := &Table{
		Header:  make([]string, len(header)),
		columns: make(map[string]int, len(header)),
	}
	for i, h := range header {
		h = strings.TrimSpace(h)
		t.Header[i] = h
		if _, dup := t.columns[h]; !dup {
			t.columns[h] = i
		}
	}

	var rows [][]string
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading row %d: %w", len(rows)+1, err)
		}
		rows = append(rows, row)
	}

	if len(rows) == 0 {
		return nil, ErrEmptyInput
	}
	if missing := t.missing(); len(missing) > 0 {
		return nil, &ValidationError{Missing: missing}
	}

	t.Records = make([]Record, len(rows))
	for i, row := range rows {
		values := make([]string, max(len(row), len(t.Header)))
		copy(values, row)
		rec := Record{Index: i, Values: values}
		rec.FirstName = t.Get(rec, ColFirstName)
		rec.LastName = t.Get(rec, ColLastName)
		rec.Zip = t.Get(rec, ColZip)
		t.Records[i] = rec
	}
	return t, nil
}

func (t *Table) missing() []string {
	var missing []string
	for _, col := range RequiredColumns {
		if _, ok := t.columns[col]; !ok {
			missing = append(missing, col)
		}
	}
	return missing
}

func decoder(r io.Reader, encoding string) (io.Reader, error) {
	switch strings.ToLower(encoding) {
	case "", EncodingUTF8, "utf8":
		return transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder())), nil
	case EncodingWindows1252, "cp1252":
		return charmap.Windows1252.NewDecoder().Reader(r), nil
	default:
		return nil, fmt.Errorf("unsupported input encoding %q", encoding)
	}
}
