package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kingrea/contentdesk/internal/content"
	"github.com/kingrea/contentdesk/internal/session"
)

// scheduleLayout is the accepted schedule input, interpreted in local time.
const scheduleLayout = "2006-01-02 15:04"

type lifecycleAction string

const (
	actionApprove  lifecycleAction = "approve"
	actionSchedule lifecycleAction = "schedule"
)

type detailLoadedMsg struct {
	requestID int64
	detail    content.Detail
	err       error
}

type lifecycleDoneMsg struct {
	requestID int64
	action    lifecycleAction
	at        time.Time
	err       error
}

func (m lifecycleDoneMsg) statusLine() string {
	switch {
	case m.action == actionApprove && m.err != nil:
		return fmt.Sprintf("Failed to approve content: %v", m.err)
	case m.action == actionApprove:
		return "Content approved!"
	case m.err != nil:
		return fmt.Sprintf("Failed to schedule content: %v", m.err)
	default:
		return fmt.Sprintf("Content scheduled for %s!", m.at.Local().Format("Jan 2, 2006 15:04"))
	}
}

type detailView struct {
	app        *App
	requestID  int64
	detail     *content.Detail
	loading    bool
	loadErr    string
	spinner    spinner.Model
	scheduling bool
	schedule   textinput.Model
	busy       bool
	notice     notice
}

func newDetailView(app *App, requestID int64) *detailView {
	spin := spinner.New()
	spin.Spinner = spinner.Dot
	spin.Style = focusStyle
	return &detailView{
		app:       app,
		requestID: requestID,
		spinner:   spin,
		schedule:  newInput("YYYY-MM-DD HH:MM", len(scheduleLayout)),
	}
}

func (v *detailView) Init() tea.Cmd {
	return tea.Batch(v.spinner.Tick, v.load())
}

func (v *detailView) load() tea.Cmd {
	v.loading = true
	client := v.app.client
	id := v.requestID
	return func() tea.Msg {
		detail, err := client.RequestDetail(context.Background(), id)
		return detailLoadedMsg{requestID: id, detail: detail, err: err}
	}
}

// Back closes the schedule input instead of leaving the view.
func (v *detailView) Back() bool {
	if !v.scheduling {
		return false
	}
	v.scheduling = false
	v.schedule.Blur()
	v.schedule.SetValue("")
	return true
}

func (v *detailView) Update(msg tea.Msg) tea.Cmd {
	switch m := msg.(type) {
	case detailLoadedMsg:
		if m.requestID != v.requestID {
			return nil
		}
		v.loading = false
		if m.err != nil {
			v.loadErr = "Failed to load request."
			v.app.logger.Warn("request detail failed", "request_id", m.requestID, "error", m.err)
			return nil
		}
		detail := m.detail
		v.detail = &detail
		v.loadErr = ""
		return nil
	case lifecycleDoneMsg:
		return v.handleLifecycleDone(m)
	case spinner.TickMsg:
		if !v.loading {
			return nil
		}
		var cmd tea.Cmd
		v.spinner, cmd = v.spinner.Update(m)
		return cmd
	case tea.KeyMsg:
		if v.scheduling {
			if m.String() == "enter" {
				return v.submitSchedule()
			}
			var cmd tea.Cmd
			v.schedule, cmd = v.schedule.Update(m)
			return cmd
		}
		switch m.String() {
		case "a":
			return v.approve()
		case "s":
			return v.beginSchedule()
		case "r":
			if v.busy {
				return nil
			}
			return v.load()
		}
	}
	return nil
}

// actionable reports whether the lifecycle controls are offered at all.
func (v *detailView) actionable() bool {
	return v.detail != nil && v.detail.Content.Actionable()
}

func (v *detailView) approve() tea.Cmd {
	if !v.actionable() {
		return nil
	}
	if v.busy {
		v.notice = notice{text: "An action is already in progress.", isErr: true}
		return nil
	}
	contentID, ok := v.detail.ContentID()
	if !ok {
		v.notice = notice{text: "No content ID found to approve.", isErr: true}
		return nil
	}
	v.busy = true
	v.notice = notice{}
	client := v.app.client
	requestID := v.requestID
	return func() tea.Msg {
		err := client.Approve(context.Background(), contentID)
		return lifecycleDoneMsg{requestID: requestID, action: actionApprove, err: err}
	}
}

func (v *detailView) beginSchedule() tea.Cmd {
	if !v.actionable() {
		return nil
	}
	if v.busy {
		v.notice = notice{text: "An action is already in progress.", isErr: true}
		return nil
	}
	v.scheduling = true
	v.schedule.SetValue("")
	v.schedule.Focus()
	return nil
}

func (v *detailView) submitSchedule() tea.Cmd {
	if v.busy {
		v.notice = notice{text: "An action is already in progress.", isErr: true}
		return nil
	}
	contentID, ok := v.detail.ContentID()
	if !ok {
		v.notice = notice{text: "No content ID found to schedule.", isErr: true}
		return nil
	}
	at, err := parseScheduleInput(v.schedule.Value(), v.app.now())
	if err != nil {
		v.notice = notice{text: err.Error(), isErr: true}
		return nil
	}
	v.busy = true
	v.notice = notice{}
	client := v.app.client
	requestID := v.requestID
	return func() tea.Msg {
		err := client.Schedule(context.Background(), contentID, at)
		return lifecycleDoneMsg{requestID: requestID, action: actionSchedule, at: at, err: err}
	}
}

type scheduleInputError string

func (e scheduleInputError) Error() string { return string(e) }

// parseScheduleInput reads a local wall-clock time and requires it to be
// later than now.
func parseScheduleInput(raw string, now time.Time) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, scheduleInputError("Enter a time as YYYY-MM-DD HH:MM.")
	}
	at, err := time.ParseInLocation(scheduleLayout, raw, time.Local)
	if err != nil {
		return time.Time{}, scheduleInputError("Invalid time. Use YYYY-MM-DD HH:MM.")
	}
	if !at.After(now) {
		return time.Time{}, scheduleInputError("Scheduled time must be in the future.")
	}
	return at, nil
}

func (v *detailView) handleLifecycleDone(m lifecycleDoneMsg) tea.Cmd {
	if m.requestID != v.requestID || !v.busy {
		return nil
	}
	v.busy = false
	if m.err != nil {
		v.notice = notice{text: m.statusLine(), isErr: true}
		v.app.logError("%s for request %d failed: %v", titleCase(string(m.action)), v.requestID, m.err)
		return nil
	}
	v.app.setStatus(m.statusLine())
	switch m.action {
	case actionApprove:
		v.app.logInfo("Request %d approved", v.requestID)
	case actionSchedule:
		v.app.logInfo("Request %d scheduled for %s", v.requestID, m.at.Local().Format("Jan 2, 2006 15:04"))
	}
	return navigate(session.RouteDashboard, 0)
}

func (v *detailView) View() string {
	if v.loading && v.detail == nil {
		return fmt.Sprintf("%s Loading request #%d…", v.spinner.View(), v.requestID)
	}
	if v.loadErr != "" {
		return lipgloss.JoinVertical(lipgloss.Left,
			errorStyle.Render(v.loadErr),
			hintStyle.Render("r → retry    Esc → back"),
		)
	}
	if v.detail == nil {
		return mutedStyle.Render("Request not loaded.")
	}
	width, _ := v.app.contentSize()
	sections := []string{
		v.renderMetadata(),
		v.renderSources(),
		v.renderSummary(width),
		v.renderContent(width),
	}
	if text := v.notice.render(); text != "" {
		sections = append(sections, text)
	}
	sections = append(sections, hintStyle.Render(v.hints()))
	return strings.Join(sections, "\n\n")
}

func (v *detailView) hints() string {
	if v.scheduling {
		return "Enter → schedule    Esc → cancel"
	}
	if v.actionable() {
		return "a → approve    s → schedule    r → reload    Esc → back"
	}
	return "r → reload    Esc → back"
}

func (v *detailView) renderMetadata() string {
	req := v.detail.Request
	lines := []string{
		headingStyle.Render(fmt.Sprintf("Request #%d", req.ID)),
		fmt.Sprintf("Topic:         %s", req.OriginalTopic),
		fmt.Sprintf("Refined topic: %s", req.RefinedTopic()),
		fmt.Sprintf("Status:        %s", humanizeStatus(req.Status)),
		fmt.Sprintf("Format:        %s on %s", req.ContentType, req.Platform),
		fmt.Sprintf("Created:       %s", req.CreatedAt.Display()),
	}
	return strings.Join(lines, "\n")
}

func (v *detailView) renderSources() string {
	title := headingStyle.Render(fmt.Sprintf("Sources (%d)", len(v.detail.Sources)))
	if len(v.detail.Sources) == 0 {
		return title + "\n" + mutedStyle.Render("No verified sources yet.")
	}
	rows := make([]string, 0, len(v.detail.Sources))
	for _, src := range v.detail.Sources {
		row := fmt.Sprintf("• %s", src.Label())
		if src.RelevanceScore > 0 {
			row += fmt.Sprintf(" (%.2f)", src.RelevanceScore)
		}
		if src.URL != "" && src.URL != src.Label() {
			row += "\n  " + mutedStyle.Render(src.URL)
		}
		rows = append(rows, row)
	}
	return title + "\n" + strings.Join(rows, "\n")
}

func (v *detailView) renderSummary(width int) string {
	title := headingStyle.Render("Summary")
	summary := v.detail.Summary
	if summary == nil {
		return title + "\n" + mutedStyle.Render("No summary yet.")
	}
	body := lipgloss.NewStyle().Width(max(20, width)).Render(summary.CombinedSummary)
	lines := []string{title, body}
	if len(summary.KeyPoints) > 0 {
		lines = append(lines, "", mutedStyle.Render("Key points"))
		for _, point := range summary.KeyPoints {
			lines = append(lines, "• "+point)
		}
	}
	return strings.Join(lines, "\n")
}

func (v *detailView) renderContent(width int) string {
	item := v.detail.Content
	if item == nil {
		return headingStyle.Render("Generated content") + "\n" + mutedStyle.Render("No content generated yet.")
	}
	title := headingStyle.Render(fmt.Sprintf("Generated content · %s", humanizeStatus(item.Status)))
	body := lipgloss.NewStyle().Width(max(20, width)).Render(item.GeneratedContent)
	lines := []string{title, body}
	if v.scheduling {
		lines = append(lines, "", focusStyle.Render("Schedule for (local time)"), v.schedule.View())
	}
	if v.busy {
		lines = append(lines, "", mutedStyle.Render("Working…"))
	}
	return strings.Join(lines, "\n")
}
