package logbook

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/kingrea/contentdesk/internal/content"
)

func TestTailReturnsRecentLinesAndTotal(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "activity.log")
	book, err := New(path)
	if err != nil {
		t.Fatalf("new logbook: %v", err)
	}
	for i := 0; i < 5; i++ {
		book.Info("entry-%d", i)
	}
	lines, total := book.Tail(3)
	if total != 5 {
		t.Fatalf("total lines = %d, want 5", total)
	}
	if len(lines) != 3 {
		t.Fatalf("len(lines) = %d, want 3", len(lines))
	}
	for idx, want := range []string{"entry-2", "entry-3", "entry-4"} {
		if !strings.Contains(lines[idx], want) {
			t.Fatalf("line %d = %q, missing %s", idx, lines[idx], want)
		}
	}
}

func TestTailOnMissingFile(t *testing.T) {
	book, err := New(filepath.Join(t.TempDir(), "logs", "activity.log"))
	if err != nil {
		t.Fatalf("new logbook: %v", err)
	}
	lines, total := book.Tail(8)
	if lines != nil || total != 0 {
		t.Fatalf("expected empty tail, got %v/%d", lines, total)
	}
	var nilBook *Logbook
	nilBook.Info("ignored")
	if lines, _ := nilBook.Tail(3); lines != nil {
		t.Fatalf("nil logbook should tail nothing")
	}
}

func TestMultilineMessagesStayOnOneLine(t *testing.T) {
	book, err := New(filepath.Join(t.TempDir(), "activity.log"))
	if err != nil {
		t.Fatal(err)
	}
	book.Warn("first\nsecond")
	lines, total := book.Tail(5)
	if total != 1 || !strings.HasSuffix(lines[0], "first second") {
		t.Fatalf("unexpected entries %v", lines)
	}
}

func TestStageEventsAreJournaled(t *testing.T) {
	book, err := New(filepath.Join(t.TempDir(), "activity.log"))
	if err != nil {
		t.Fatal(err)
	}
	book.StageStarted(4, content.StageResearch)
	book.StageFailed(4, content.StageResearch, errors.New("no sources"))
	lines, _ := book.Tail(2)
	if !strings.Contains(lines[0], "request=4 stage=research Research started") {
		t.Fatalf("start line = %q", lines[0])
	}
	if !strings.Contains(lines[1], "ERROR") || !strings.Contains(lines[1], "no sources") {
		t.Fatalf("failure line = %q", lines[1])
	}
}

func TestEntryStringOmitsUnsetFields(t *testing.T) {
	at := time.Date(2024, 1, 1, 9, 30, 0, 0, time.UTC)
	cases := []struct {
		entry Entry
		want  string
	}{
		{Entry{Time: at, Level: LevelInfo, Message: "Signed in"}, "2024-01-01T09:30:00Z INFO  Signed in"},
		{Entry{Time: at, Level: LevelError, RequestID: 7, Stage: content.StageContent, Message: "boom"}, "2024-01-01T09:30:00Z ERROR request=7 stage=content boom"},
	}
	for _, tc := range cases {
		if got := tc.entry.String(); got != tc.want {
			t.Fatalf("String() = %q, want %q", got, tc.want)
		}
	}
}

func TestRecordStampsMissingTime(t *testing.T) {
	book, err := New(filepath.Join(t.TempDir(), "activity.log"))
	if err != nil {
		t.Fatal(err)
	}
	book.now = func() time.Time { return time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC) }
	book.Record(Entry{Level: LevelWarn, RequestID: 3, Message: "queued"})
	lines, _ := book.Tail(1)
	if lines[0] != "2030-01-01T00:00:00Z WARN  request=3 queued" {
		t.Fatalf("line = %q", lines[0])
	}
}
