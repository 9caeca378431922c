package content

import "strings"

// QueueAction is a user-triggered transition on a queue entry.
type QueueAction string

const (
	QueueActionPost   QueueAction = "post"
	QueueActionDelete QueueAction = "delete"
)

// QueueEntry is one content item in the posting queue. Soft-deleted entries
// stay in the same listing as live ones and carry a DeletedAt stamp.
type QueueEntry struct {
	ID               int64       `json:"id"`
	ContentType      ContentType `json:"content_type"`
	GeneratedContent string      `json:"generated_content"`
	ScheduledFor     *Timestamp  `json:"scheduled_for"`
	Status           string      `json:"status"`
	Platform         Platform    `json:"platform"`
	DeletedAt        *Timestamp  `json:"deleted_at"`
}

// Deleted reports whether the backend soft-deleted this entry. An empty
// deleted_at decodes to a zero stamp and counts as live.
func (e QueueEntry) Deleted() bool {
	return e.DeletedAt != nil && !e.DeletedAt.IsZero()
}

// Actions returns the transitions available for the entry. Only the
// deletion marker withdraws them; status plays no part.
func (e QueueEntry) Actions() []QueueAction {
	if e.Deleted() {
		return nil
	}
	return []QueueAction{QueueActionPost, QueueActionDelete}
}

// Allows reports whether the action is offered for the entry.
func (e QueueEntry) Allows(action QueueAction) bool {
	for _, candidate := range e.Actions() {
		if candidate == action {
			return true
		}
	}
	return false
}

// Preview returns up to limit runes of the generated content.
func (e QueueEntry) Preview(limit int) string {
	text := strings.Join(strings.Fields(e.GeneratedContent), " ")
	runes := []rune(text)
	if limit <= 0 || len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + "..."
}
