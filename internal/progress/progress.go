package progress

import (
	"io"
	"strconv"
	"sync/atomic"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
)

// Tracker tracks progress through a batch of rows.
type Tracker interface {
	// SetStage describes what is happening now, e.g. the row being matched.
	SetStage(stage string)
	SetProgress(current, total int64)
	SetCounter(name string, value int64)
	LogWarning(msg string)
	Done()
}

// Manager creates trackers.
type Manager interface {
	NewTracker(total int, label string) Tracker
	Wait()
}

// MPBManager implements Manager using the mpb progress-bar library.
type MPBManager struct {
	container *mpb.Progress
}

// NewMPBManagerTo creates an mpb-based progress manager drawing to w.
func NewMPBManagerTo(w io.Writer) *MPBManager {
	p := mpb.New(mpb.WithWidth(40), mpb.WithOutput(w))
	return &MPBManager{container: p}
}

// NewTracker adds a bar with one step per row.
func (m *MPBManager) NewTracker(total int, label string) Tracker {
	stage := &atomic.Value{}
	stage.Store("")
	matched := &atomic.Int64{}

	bar := m.container.AddBar(int64(total),
		mpb.PrependDecorators(
			decor.Name(label+" ", decor.WCSyncSpaceR),
			decor.CountersNoUnit("%d/%d", decor.WCSyncSpace),
		),
		mpb.AppendDecorators(
			decor.Percentage(decor.WC{W: 5}),
			decor.Name(" "),
			decor.AverageETA(decor.ET_STYLE_GO),
			decor.Any(func(decor.Statistics) string {
				if n := matched.Load(); n > 0 {
					return "  matched " + strconv.FormatInt(n, 10)
				}
				return ""
			}),
			decor.Any(func(decor.Statistics) string {
				if s := stage.Load().(string); s != "" {
					return "  " + s
				}
				return ""
			}),
		),
	)

	return &mpbTracker{bar: bar, stage: stage, matched: matched, total: int64(total)}
}

// Wait waits for all progress bars to finish.
func (m *MPBManager) Wait() {
	m.container.Wait()
}

type mpbTracker struct {
	bar     *mpb.Bar
	stage   *atomic.Value
	matched *atomic.Int64
	total   int64
}

func (t *mpbTracker) SetStage(stage string) {
	t.stage.Store(stage)
}

func (t *mpbTracker) SetProgress(current, total int64) {
	t.bar.SetCurrent(current)
}

func (t *mpbTracker) SetCounter(name string, value int64) {
	if name == CounterMatched {
		t.matched.Store(value)
	}
}

func (t *mpbTracker) LogWarning(msg string) {
	t.stage.Store("WARN: " + msg)
}

func (t *mpbTracker) Done() {
	t.stage.Store("")
	if t.bar.Current() < t.total {
		t.bar.Abort(false) // stopped early; keep the bar visible
	}
}

// CounterMatched is the counter name for rows that received an NPI.
const CounterMatched = "matched"

// NoopManager is a silent progress manager for --no-progress and tests. It
// records the last reported values.
type NoopManager struct {
	Current  atomic.Int64
	Matched  atomic.Int64
	Warnings atomic.Int64
}

func (m *NoopManager) NewTracker(total int, label string) Tracker {
	return &noopTracker{mgr: m}
}

func (m *NoopManager) Wait() {}

type noopTracker struct {
	mgr *NoopManager
}

func (t *noopTracker) SetStage(stage string) {}

func (t *noopTracker) SetProgress(current, total int64) {
	t.mgr.Current.Store(current)
}

func (t *noopTracker) SetCounter(name string, value int64) {
	if name == CounterMatched {
		t.mgr.Matched.Store(value)
	}
}

func (t *noopTracker) LogWarning(msg string) {
	t.mgr.Warnings.Add(1)
}

func (t *noopTracker) Done() {}
