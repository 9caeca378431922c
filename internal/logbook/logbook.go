// Package logbook is the activity journal shown in the TUI log panel. Each
// line is one Entry; pipeline entries carry the request id and stage as
// key=value fields so a run can be followed by grepping the file.
package logbook

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/kingrea/contentdesk/internal/content"
)

// Level is an entry's severity.
type Level string

const (
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

// Entry is one journal line.
type Entry struct {
	Time      time.Time
	Level     Level
	RequestID int64
	Stage     content.Stage
	Message   string
}

// String renders the entry as a single line:
//
//	2024-01-01T00:00:00Z INFO  request=4 stage=research Research started
func (e Entry) String() string {
	var b strings.Builder
	b.WriteString(e.Time.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, " %-5s", string(e.Level))
	if e.RequestID > 0 {
		fmt.Fprintf(&b, " request=%d", e.RequestID)
	}
	if e.Stage != "" {
		fmt.Fprintf(&b, " stage=%s", e.Stage)
	}
	if msg := strings.Join(strings.Fields(e.Message), " "); msg != "" {
		b.WriteString(" ")
		b.WriteString(msg)
	}
	return b.String()
}

// Logbook appends entries to a text file under .contentdesk/logs.
type Logbook struct {
	path string
	mu   sync.Mutex
	now  func() time.Time
}

// New opens a journal at path, creating its directory.
func New(path string) (*Logbook, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("logbook: ensure dir: %w", err)
	}
	return &Logbook{path: path, now: time.Now}, nil
}

// Path returns the journal file.
func (l *Logbook) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// Record writes e, stamping it with the current time when unset. Write
// failures are dropped; the journal never interrupts the UI.
func (l *Logbook) Record(e Entry) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if e.Time.IsZero() {
		e.Time = l.now()
	}
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return
	}
	defer f.Close()
	_, _ = f.WriteString(e.String() + "\n")
}

// Tail returns the last maxLines lines and the number of lines in the file.
func (l *Logbook) Tail(maxLines int) ([]string, int) {
	if l == nil || maxLines <= 0 {
		return nil, 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	f, err := os.Open(l.path)
	if err != nil {
		return nil, 0
	}
	defer f.Close()

	window := make([]string, 0, maxLines)
	total := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		total++
		if len(window) == maxLines {
			window = append(window[:0], window[1:]...)
		}
		window = append(window, scanner.Text())
	}
	if total == 0 {
		return nil, 0
	}
	return window, total
}

func (l *Logbook) Info(format string, args ...any) {
	l.Record(Entry{Level: LevelInfo, Message: fmt.Sprintf(format, args...)})
}

func (l *Logbook) Warn(format string, args ...any) {
	l.Record(Entry{Level: LevelWarn, Message: fmt.Sprintf(format, args...)})
}

func (l *Logbook) Error(format string, args ...any) {
	l.Record(Entry{Level: LevelError, Message: fmt.Sprintf(format, args...)})
}

// StageStarted, StageFinished and StageFailed make the journal a
// pipeline.Observer.
func (l *Logbook) StageStarted(requestID int64, stage content.Stage) {
	l.Record(Entry{Level: LevelInfo, RequestID: requestID, Stage: stage, Message: stage.FriendlyName() + " started"})
}

func (l *Logbook) StageFinished(requestID int64, stage content.Stage) {
	l.Record(Entry{Level: LevelInfo, RequestID: requestID, Stage: stage, Message: stage.FriendlyName() + " finished"})
}

func (l *Logbook) StageFailed(requestID int64, stage content.Stage, err error) {
	l.Record(Entry{Level: LevelError, RequestID: requestID, Stage: stage, Message: fmt.Sprintf("%s failed: %v", stage.FriendlyName(), err)})
}
