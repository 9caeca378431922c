package content

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestQueueEntryDeletedWithdrawsActionsRegardlessOfStatus(t *testing.T) {
	stamp := NewTimestamp(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	for _, status := range []string{"scheduled", "approved", "posted", "draft", ""} {
		entry := QueueEntry{ID: 7, Status: status, DeletedAt: &stamp}
		if !entry.Deleted() {
			t.Fatalf("status %q: expected deleted", status)
		}
		if got := entry.Actions(); len(got) != 0 {
			t.Fatalf("status %q: deleted entry exposes actions %v", status, got)
		}
		if entry.Allows(QueueActionPost) || entry.Allows(QueueActionDelete) {
			t.Fatalf("status %q: deleted entry allows an action", status)
		}
	}
	live := QueueEntry{ID: 8, Status: "scheduled"}
	if !live.Allows(QueueActionPost) || !live.Allows(QueueActionDelete) {
		t.Fatalf("live entry should allow post and delete")
	}
}

func TestQueueEntryDecodesNullAndNaiveTimestamps(t *testing.T) {
	payload := `[
		{"id":1,"content_type":"thread","generated_content":"a","scheduled_for":"2024-03-01T09:30:00","deleted_at":null,"status":"scheduled","platform":"x"},
		{"id":2,"content_type":"article","generated_content":"b","scheduled_for":"2024-03-01T09:30:00Z","deleted_at":"2024-01-01T00:00:00Z","status":"scheduled","platform":"typefully"},
		{"id":3,"content_type":"thread","generated_content":"c","scheduled_for":"","deleted_at":"","status":"scheduled","platform":"x"}
	]`
	var entries []QueueEntry
	if err := json.Unmarshal([]byte(payload), &entries); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if entries[0].Deleted() {
		t.Fatalf("entry 1 should be live")
	}
	if !entries[1].Deleted() {
		t.Fatalf("entry 2 should be deleted")
	}
	if entries[2].Deleted() || !entries[2].Allows(QueueActionDelete) {
		t.Fatalf("empty deleted_at must read as live")
	}
	if entries[0].ScheduledFor == nil || entries[0].ScheduledFor.Hour() != 9 {
		t.Fatalf("naive timestamp not parsed: %+v", entries[0].ScheduledFor)
	}
}

func TestItemActionableOnlyWhileDraft(t *testing.T) {
	var missing *Item
	if missing.Actionable() {
		t.Fatalf("nil item must not be actionable")
	}
	for status, want := range map[string]bool{"draft": true, "Draft": true, "approved": false, "scheduled": false, "posted": false} {
		item := &Item{Status: status}
		if got := item.Actionable(); got != want {
			t.Fatalf("status %q actionable = %v, want %v", status, got, want)
		}
	}
}

func TestDetailContentID(t *testing.T) {
	if _, ok := (Detail{}).ContentID(); ok {
		t.Fatalf("detail without content must not resolve an id")
	}
	if _, ok := (Detail{Content: &Item{Status: "draft"}}).ContentID(); ok {
		t.Fatalf("null content id must not resolve")
	}
	id := int64(42)
	got, ok := (Detail{Content: &Item{ID: &id}}).ContentID()
	if !ok || got != 42 {
		t.Fatalf("ContentID = %d,%v want 42,true", got, ok)
	}
}

func TestNewRequestValidate(t *testing.T) {
	valid := NewRequest{OriginalTopic: "AI in fertility medicine", ContentType: ContentTypeThread, Platform: PlatformX}
	if err := valid.Validate(); err != nil {
		t.Fatalf("expected valid request: %v", err)
	}
	cases := []NewRequest{
		{OriginalTopic: "   ", ContentType: ContentTypeThread, Platform: PlatformX},
		{OriginalTopic: "x", ContentType: "video", Platform: PlatformX},
		{OriginalTopic: "x", ContentType: ContentTypeArticle, Platform: "mastodon"},
	}
	for i, req := range cases {
		if err := req.Validate(); !errors.Is(err, ErrInvalidRequest) {
			t.Fatalf("case %d: expected ErrInvalidRequest, got %v", i, err)
		}
	}
}

func TestOutcomeFor(t *testing.T) {
	if OutcomeFor(true) != OutcomePosted {
		t.Fatalf("auto-post should yield posted")
	}
	if OutcomeFor(false) != OutcomeReadyForReview {
		t.Fatalf("manual review should yield ready for review")
	}
}

func TestPreviewTruncatesOnRunes(t *testing.T) {
	entry := QueueEntry{GeneratedContent: "héllo   world"}
	if got := entry.Preview(5); got != "héllo..." {
		t.Fatalf("preview = %q", got)
	}
	if got := entry.Preview(140); got != "héllo world" {
		t.Fatalf("preview = %q", got)
	}
}

func TestZeroTimestampDisplaysPlaceholder(t *testing.T) {
	if got := (Timestamp{}).Display(); got != "n/a" {
		t.Fatalf("Display() = %q, want n/a", got)
	}
}
