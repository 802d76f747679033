package progress

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// Severity classifies a progress line for pollers.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
)

// Line is one timestamped entry in a run's progress buffer.
type Line struct {
	Timestamp time.Time `json:"ts"`
	Severity  Severity  `json:"severity"`
	Message   string    `json:"msg"`
}

// Log is an append-only buffer of progress lines for one operation kind.
// Writers append during a run; pollers snapshot concurrently without blocking
// the run. Clear resets the buffer at the start of each run, so only the
// current run's history is retained.
type Log struct {
	mu    sync.Mutex
	lines []Line
	now   func() time.Time
}

// New constructs an empty progress log.
func New() *Log {
	return &Log{now: time.Now}
}

// Clear drops all buffered lines.
func (l *Log) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = nil
}

// Info appends an informational line.
func (l *Log) Info(format string, args ...any) {
	l.append(SeverityInfo, format, args...)
}

// Success appends a success line.
func (l *Log) Success(format string, args ...any) {
	l.append(SeveritySuccess, format, args...)
}

// Error appends an error line.
func (l *Log) Error(format string, args ...any) {
	l.append(SeverityError, format, args...)
}

func (l *Log) append(severity Severity, format string, args ...any) {
	if l == nil {
		return
	}
	message := fmt.Sprintf(format, args...)
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, Line{Timestamp: l.now().UTC(), Severity: severity, Message: message})
}

// Lines returns a snapshot copy of the buffered lines.
func (l *Log) Lines() []Line {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Line, len(l.lines))
	copy(out, l.lines)
	return out
}

// Render returns the full buffer as text, one line per entry.
func (l *Log) Render() string {
	lines := l.Lines()
	var b strings.Builder
	for _, line := range lines {
		b.WriteString(line.Timestamp.Format(time.RFC3339))
		b.WriteByte(' ')
		b.WriteString(strings.ToUpper(string(line.Severity)))
		b.WriteByte(' ')
		b.WriteString(line.Message)
		b.WriteByte('\n')
	}
	return b.String()
}
