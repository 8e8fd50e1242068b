package worker

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/gyeh/npi-match/internal/match"
	"github.com/gyeh/npi-match/internal/metrics"
	"github.com/gyeh/npi-match/internal/progress"
)

// RowMatcher resolves a single row. *match.Matcher implements it.
type RowMatcher interface {
	Match(ctx context.Context, in match.Input) (match.Result, error)
}

// RowError reports the row at which processing halted.
type RowError struct {
	Index int
	Err   error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row %d: %v", e.Index, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }

// Runner processes rows strictly one after another. Each row is fully
// resolved, pauses included, before the next starts.
type Runner struct {
	Matcher  RowMatcher
	Progress progress.Manager
	Logger   *slog.Logger
	Metrics  *metrics.Metrics
	// Label names the progress tracker; defaults to "match".
	Label string
}

// Run matches every input in order and returns one result per processed row,
// in input order.
//
// If ctx is cancelled, Run stops before the next row and returns the results
// so far with the context error. If a row fails unexpectedly, Run stops and
// returns the results of the rows before it with a *RowError.
func (r *Runner) Run(ctx context.Context, inputs []match.Input) ([]match.Result, error) {
	logger := r.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	mgr := r.Progress
	if mgr == nil {
		mgr = &progress.NoopManager{}
	}
	label := r.Label
	if label == "" {
		label = "match"
	}

	total := len(inputs)
	tracker := mgr.NewTracker(total, label)
	defer tracker.Done()

	results := make([]match.Result, 0, total)
	var matched int64

	for i, in := range inputs {
		if err := ctx.Err(); err != nil {
			logger.Warn("run interrupted", "processed", i, "total", total)
			return results, err
		}

		name := in.FirstName + " " + in.LastName
		tracker.SetStage(name)
		logger.Debug(fmt.Sprintf("Processing provider %d/%d: %s", i+1, total, name),
			"index", in.Index)

		start := time.Now()
		res, err := r.matchRow(ctx, in)
		if err != nil {
			if ctx.Err() != nil {
				logger.Warn("run interrupted", "processed", i, "total", total)
				return results, ctx.Err()
			}
			tracker.LogWarning(fmt.Sprintf("row %d failed: %v", in.Index, err))
			return results, &RowError{Index: in.Index, Err: err}
		}
		r.Metrics.ObserveRow(string(res.MatchMethod), time.Since(start))

		results = append(results, res)
		if res.Matched() {
			matched++
		}
		tracker.SetCounter(progress.CounterMatched, matched)
		tracker.SetProgress(int64(i+1), int64(total))

		logger.Debug("row matched",
			"index", in.Index,
			"method", res.MatchMethod,
			"candidates", res.TotalMatchesFound,
		)
	}
	return results, nil
}

// matchRow runs the matcher and turns a panic into an error so the rows
// already resolved survive.
func (r *Runner) matchRow(ctx context.Context, in match.Input) (res match.Result, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
	}()
	return r.Matcher.Match(ctx, in)
}
