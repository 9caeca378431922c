package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kingrea/contentdesk/internal/content"
)

const queuePreviewRunes = 140

// queueLoadedMsg is tagged with the fetch that produced it; only the
// latest fetch may replace the list.
type queueLoadedMsg struct {
	seq     int
	entries []content.QueueEntry
	err     error
}

type queueMutationMsg struct {
	entryID int64
	action  content.QueueAction
	err     error
}

type queueView struct {
	app       *App
	entries   []content.QueueEntry
	loaded    bool
	loading   bool
	fetchSeq  int
	loadErr   string
	selection int
	pending   map[int64]content.QueueAction
	notice    notice
}

func newQueueView(app *App) *queueView {
	return &queueView{
		app:     app,
		pending: map[int64]content.QueueAction{},
	}
}

func (v *queueView) Init() tea.Cmd {
	return v.fetch()
}

func (v *queueView) fetch() tea.Cmd {
	v.app.fetchSeq++
	v.fetchSeq = v.app.fetchSeq
	v.loading = true
	seq := v.fetchSeq
	client := v.app.client
	return func() tea.Msg {
		entries, err := client.ScheduledQueue(context.Background())
		return queueLoadedMsg{seq: seq, entries: entries, err: err}
	}
}

func (v *queueView) Update(msg tea.Msg) tea.Cmd {
	switch m := msg.(type) {
	case queueLoadedMsg:
		if m.seq != v.fetchSeq {
			return nil
		}
		v.loading = false
		if m.err != nil {
			v.loadErr = "Failed to load the scheduled queue."
			v.app.logger.Warn("scheduled queue failed", "error", m.err)
			return nil
		}
		v.loadErr = ""
		v.loaded = true
		v.entries = m.entries
		if v.selection >= len(v.entries) {
			v.selection = max(0, len(v.entries)-1)
		}
		return nil
	case queueMutationMsg:
		return v.handleMutation(m)
	case tea.KeyMsg:
		switch m.String() {
		case "up", "k":
			if v.selection > 0 {
				v.selection--
			}
		case "down", "j":
			if v.selection < len(v.entries)-1 {
				v.selection++
			}
		case "r":
			return v.fetch()
		case "p":
			return v.act(content.QueueActionPost)
		case "d":
			return v.act(content.QueueActionDelete)
		}
	}
	return nil
}

func (v *queueView) selected() (content.QueueEntry, bool) {
	if v.selection < 0 || v.selection >= len(v.entries) {
		return content.QueueEntry{}, false
	}
	return v.entries[v.selection], true
}

func (v *queueView) act(action content.QueueAction) tea.Cmd {
	entry, ok := v.selected()
	if !ok {
		return nil
	}
	if !entry.Allows(action) {
		v.notice = notice{text: "This post was deleted and can no longer be changed.", isErr: true}
		return nil
	}
	if _, busy := v.pending[entry.ID]; busy {
		v.notice = notice{text: "An action is already in progress for this post.", isErr: true}
		return nil
	}
	v.pending[entry.ID] = action
	v.notice = notice{}
	client := v.app.client
	id := entry.ID
	return func() tea.Msg {
		var err error
		switch action {
		case content.QueueActionPost:
			err = client.PostQueued(context.Background(), id)
		case content.QueueActionDelete:
			err = client.DeleteQueued(context.Background(), id)
		}
		return queueMutationMsg{entryID: id, action: action, err: err}
	}
}

// handleMutation refetches only after a successful mutation, so the
// refreshed list always reflects it.
func (v *queueView) handleMutation(m queueMutationMsg) tea.Cmd {
	delete(v.pending, m.entryID)
	if m.err != nil {
		if m.action == content.QueueActionDelete {
			v.notice = notice{text: "Failed to delete post.", isErr: true}
		} else {
			v.notice = notice{text: "Failed to post content.", isErr: true}
		}
		v.app.logError("Queue %s for entry %d failed: %v", m.action, m.entryID, m.err)
		return nil
	}
	if m.action == content.QueueActionDelete {
		v.notice = notice{text: "Post deleted."}
		v.app.logInfo("Queue entry %d deleted", m.entryID)
	} else {
		v.notice = notice{text: "Post marked as posted."}
		v.app.logInfo("Queue entry %d posted", m.entryID)
	}
	return v.fetch()
}

func (v *queueView) View() string {
	sections := []string{headingStyle.Render(fmt.Sprintf("Scheduled posts (%d)", len(v.entries)))}
	switch {
	case v.loadErr != "":
		sections = append(sections, errorStyle.Render(v.loadErr))
	case !v.loaded:
		sections = append(sections, mutedStyle.Render("Loading queue…"))
	case len(v.entries) == 0:
		sections = append(sections, mutedStyle.Render("Nothing scheduled."))
	default:
		rows := make([]string, len(v.entries))
		for i, entry := range v.entries {
			rows[i] = v.renderEntry(entry, i == v.selection)
		}
		sections = append(sections, strings.Join(rows, "\n\n"))
	}
	if text := v.notice.render(); text != "" {
		sections = append(sections, text)
	}
	sections = append(sections, hintStyle.Render("↑/↓ → select    p → post now    d → delete    r → refresh    Esc → back"))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (v *queueView) renderEntry(entry content.QueueEntry, selected bool) string {
	scheduled := "unscheduled"
	if entry.ScheduledFor != nil {
		scheduled = entry.ScheduledFor.Display()
	}
	head := fmt.Sprintf("%s · %s", titleCase(string(entry.ContentType)), scheduled)
	if entry.Deleted() {
		head += " (Deleted)"
	}
	lines := []string{
		head,
		fmt.Sprintf("%s · %s", entry.Platform, humanizeStatus(entry.Status)),
		entry.Preview(queuePreviewRunes),
	}
	if hints := entryHints(entry); hints != "" {
		if action, busy := v.pending[entry.ID]; busy {
			hints = fmt.Sprintf("%s in progress…", titleCase(string(action)))
		}
		lines = append(lines, hints)
	}
	body := strings.Join(lines, "\n")
	style := rowStyle
	if selected {
		style = selectedRowStyle
	}
	if entry.Deleted() {
		return style.Inherit(deletedStyle).Render(body)
	}
	return style.Render(body)
}

// entryHints lists the controls offered for the entry; deleted entries get
// none whatever their status.
func entryHints(entry content.QueueEntry) string {
	var hints []string
	for _, action := range entry.Actions() {
		switch action {
		case content.QueueActionPost:
			hints = append(hints, "[p] Post Now")
		case content.QueueActionDelete:
			hints = append(hints, "[d] Delete")
		}
	}
	return strings.Join(hints, "  ")
}
