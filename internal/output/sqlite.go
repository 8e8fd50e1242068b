package output

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/gyeh/npi-match/internal/match"
	"github.com/gyeh/npi-match/internal/records"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
    run_id           TEXT PRIMARY KEY,
    input            TEXT NOT NULL,
    started_at       TEXT NOT NULL,
    duration_seconds REAL NOT NULL,
    completed        INTEGER NOT NULL,
    total            INTEGER NOT NULL,
    matched          INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS matches (
    run_id                TEXT NOT NULL REFERENCES runs(run_id),
    original_index        INTEGER NOT NULL,
    npi                   TEXT,
    match_method          TEXT NOT NULL,
    total_matches_found   INTEGER NOT NULL,
    final_match_score     REAL NOT NULL,
    address_type          TEXT,
    name_match            REAL NOT NULL,
    matched_provider_name TEXT,
    matched_address       TEXT,
    matched_zip           TEXT,
    matched_taxonomy      TEXT,
    original_name         TEXT NOT NULL,
    original_zip          TEXT NOT NULL,
    input_json            TEXT NOT NULL,
    PRIMARY KEY (run_id, original_index)
);
CREATE INDEX IF NOT EXISTS idx_matches_npi ON matches(npi);
`

// writeSQLite appends a run and its results to the database at path, creating
// the schema on first use. Everything is written in one transaction.
func writeSQLite(ctx context.Context, path string, run RunInfo, t *records.Table, results []match.Result) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("open sqlite db: %w", err)
	}
	defer db.Close()

	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			return fmt.Errorf("apply pragma %q: %w", pragma, err)
		}
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (run_id, input, started_at, duration_seconds, completed, total, matched)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.RunID,
		run.Input,
		run.StartedAt.UTC().Format(time.RFC3339Nano),
		run.DurationSeconds,
		run.Completed,
		run.Summary.Total,
		run.Summary.Matched,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO matches (
            run_id, original_index, npi, match_method, total_matches_found,
            final_match_score, address_type, name_match, matched_provider_name,
            matched_address, matched_zip, matched_taxonomy, original_name,
            original_zip, input_json
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, r := range results {
		inputJSON, err := json.Marshal(inputRow(t, i))
		if err != nil {
			return fmt.Errorf("marshal input row %d: %w", r.OriginalIndex, err)
		}

		var addrType any
		if r.AddressType != nil {
			addrType = string(*r.AddressType)
		}
		_, err = stmt.ExecContext(ctx,
			run.RunID,
			r.OriginalIndex,
			nullable(r.NPI),
			string(r.MatchMethod),
			r.TotalMatchesFound,
			r.FinalMatchScore,
			addrType,
			r.NameMatch,
			nullable(r.MatchedProviderName),
			nullable(r.MatchedAddress),
			nullable(r.MatchedZip),
			nullable(r.MatchedTaxonomy),
			r.OriginalName,
			r.OriginalZip,
			string(inputJSON),
		)
		if err != nil {
			return fmt.Errorf("insert match %d: %w", r.OriginalIndex, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func nullable(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
