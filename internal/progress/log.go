package progress

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// DefaultLogInterval is how often a LogManager tracker reports row progress.
const DefaultLogInterval = 20 * time.Second

// LogManager implements Manager with throttled line-based output for non-TTY
// environments such as CI or cron. It prints periodic status lines instead of
// an interactive bar.
type LogManager struct {
	mu       sync.Mutex
	out      io.Writer
	interval time.Duration
	now      func() time.Time
}

// NewLogManagerTo creates a log-based progress manager writing to w at most
// once per interval, plus stage changes and warnings.
func NewLogManagerTo(w io.Writer, interval time.Duration) *LogManager {
	return &LogManager{out: w, interval: interval, now: time.Now}
}

func (m *LogManager) NewTracker(total int, label string) Tracker {
	return &logTracker{
		mgr:   m,
		total: int64(total),
		label: label,
		start: m.now(),
	}
}

func (m *LogManager) Wait() {}

func (m *LogManager) log(label, msg string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ts := m.now().Format("15:04:05")
	fmt.Fprintf(m.out, "%s [%s] %s\n", ts, label, msg)
}

// logTracker implements Tracker with throttled log output.
type logTracker struct {
	mgr      *LogManager
	total    int64
	label    string
	start    time.Time
	stage    string
	current  int64
	matched  int64
	lastLog  time.Time
	prevRows int64
	prevTime time.Time
}

// SetStage records the stage without printing; stages change once per row
// and would flood the log.
func (t *logTracker) SetStage(stage string) {
	t.stage = stage
}

func (t *logTracker) SetProgress(current, total int64) {
	t.current = current
	if total > 0 {
		t.total = total
	}

	now := t.mgr.now()
	if !t.lastLog.IsZero() && now.Sub(t.lastLog) < t.mgr.interval {
		return
	}

	rate := ""
	if !t.prevTime.IsZero() {
		if elapsed := now.Sub(t.prevTime).Seconds(); elapsed > 0 {
			rate = fmt.Sprintf("  %.1f rows/s", float64(current-t.prevRows)/elapsed)
		}
	}
	t.prevRows = current
	t.prevTime = now
	t.lastLog = now

	pct := 0.0
	if t.total > 0 {
		pct = float64(current) / float64(t.total) * 100
	}
	t.mgr.log(t.label, fmt.Sprintf("%d/%d rows (%.0f%%)  matched %d%s  %s",
		current, t.total, pct, t.matched, rate, t.stage))
}

func (t *logTracker) SetCounter(name string, value int64) {
	if name == CounterMatched {
		t.matched = value
	}
}

func (t *logTracker) LogWarning(msg string) {
	t.mgr.log(t.label, "WARN: "+msg)
}

func (t *logTracker) Done() {
	elapsed := t.mgr.now().Sub(t.start).Truncate(time.Second)
	t.mgr.log(t.label, fmt.Sprintf("Finished %d/%d rows (matched %d) in %s",
		t.current, t.total, t.matched, elapsed))
}
