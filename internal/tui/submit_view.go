package tui

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kingrea/contentdesk/internal/config"
	"github.com/kingrea/contentdesk/internal/content"
	"github.com/kingrea/contentdesk/internal/pipeline"
)

type submitField int

const (
	fieldTopic submitField = iota
	fieldContentType
	fieldPlatform
	fieldAutoPost
	fieldCitations
	fieldPersona
	submitFieldCount
)

// pipelineFinishedMsg carries the run id so a submit view only settles
// the run it started.
type pipelineFinishedMsg struct {
	runID  int
	topic  string
	result pipeline.Result
	err    error
}

// statusLine is the user-facing summary of a run.
func (m pipelineFinishedMsg) statusLine() string {
	if m.err == nil {
		return m.result.Message()
	}
	var stageErr *pipeline.StageError
	if errors.As(m.err, &stageErr) {
		return fmt.Sprintf("Pipeline failed at %s: %v", stageErr.Stage.FriendlyName(), stageErr.Err)
	}
	var submitErr *pipeline.SubmitError
	if errors.As(m.err, &submitErr) {
		return fmt.Sprintf("Failed to submit topic: %v", submitErr.Err)
	}
	return fmt.Sprintf("Pipeline failed: %v", m.err)
}

type submitView struct {
	app         *App
	topic       textinput.Model
	persona     textinput.Model
	contentType content.ContentType
	platform    content.Platform
	autoPost    bool
	citations   bool
	focus       submitField
	running     bool
	runID       int
	spinner     spinner.Model
	notice      notice
}

func newSubmitView(app *App) *submitView {
	defaults := app.config.Defaults()
	topic := newInput("What should the content be about?", 500)
	persona := newInput("optional persona", 120)
	persona.SetValue(defaults.Persona)
	spin := spinner.New()
	spin.Spinner = spinner.Dot
	spin.Style = focusStyle
	v := &submitView{
		app:         app,
		topic:       topic,
		persona:     persona,
		contentType: defaults.ContentType,
		platform:    defaults.Platform,
		autoPost:    defaults.AutoPost,
		citations:   defaults.IncludeSourceCitations,
		spinner:     spin,
	}
	v.setFocus(fieldTopic)
	return v
}

func (v *submitView) Init() tea.Cmd {
	return nil
}

func (v *submitView) setFocus(field submitField) {
	v.focus = (field + submitFieldCount) % submitFieldCount
	v.topic.Blur()
	v.persona.Blur()
	switch v.focus {
	case fieldTopic:
		v.topic.Focus()
	case fieldPersona:
		v.persona.Focus()
	}
}

func (v *submitView) Update(msg tea.Msg) tea.Cmd {
	switch m := msg.(type) {
	case pipelineFinishedMsg:
		return v.handleFinished(m)
	case spinner.TickMsg:
		if !v.running {
			return nil
		}
		var cmd tea.Cmd
		v.spinner, cmd = v.spinner.Update(m)
		return cmd
	case tea.KeyMsg:
		return v.handleKey(m)
	}
	return nil
}

func (v *submitView) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "tab", "down":
		v.setFocus(v.focus + 1)
		return nil
	case "shift+tab", "up":
		v.setFocus(v.focus - 1)
		return nil
	case "enter":
		return v.submit()
	case "ctrl+d":
		return v.saveDefaults()
	case "left", "right", " ":
		if v.cycleFocused(msg.String() == "left") {
			return nil
		}
	}
	var cmd tea.Cmd
	switch v.focus {
	case fieldTopic:
		v.topic, cmd = v.topic.Update(msg)
	case fieldPersona:
		v.persona, cmd = v.persona.Update(msg)
	}
	return cmd
}

// cycleFocused changes a choice field in place. It reports false when the
// focused field is a text input so the key reaches the input.
func (v *submitView) cycleFocused(backwards bool) bool {
	switch v.focus {
	case fieldContentType:
		v.contentType = cycle(content.ContentTypes(), v.contentType, backwards)
	case fieldPlatform:
		v.platform = cycle(content.Platforms(), v.platform, backwards)
	case fieldAutoPost:
		v.autoPost = !v.autoPost
	case fieldCitations:
		v.citations = !v.citations
	default:
		return false
	}
	return true
}

func cycle[T comparable](values []T, current T, backwards bool) T {
	if len(values) == 0 {
		return current
	}
	idx := 0
	for i, candidate := range values {
		if candidate == current {
			idx = i
			break
		}
	}
	if backwards {
		idx--
	} else {
		idx++
	}
	return values[(idx+len(values))%len(values)]
}

func (v *submitView) request() content.NewRequest {
	return content.NewRequest{
		OriginalTopic:          v.topic.Value(),
		ContentType:            v.contentType,
		Platform:               v.platform,
		AutoPost:               v.autoPost,
		IncludeSourceCitations: v.citations,
		Persona:                v.persona.Value(),
	}.Normalized()
}

func (v *submitView) submit() tea.Cmd {
	if v.running {
		v.notice = notice{text: "A pipeline run is already in progress.", isErr: true}
		return nil
	}
	req := v.request()
	if err := req.Validate(); err != nil {
		v.notice = notice{text: validationText(req), isErr: true}
		return nil
	}
	v.app.runSeq++
	v.runID = v.app.runSeq
	v.running = true
	v.notice = notice{}
	v.app.setStatus("Running content pipeline...")
	v.app.logInfo("Submitting topic %q (%s on %s)", req.OriginalTopic, req.ContentType, req.Platform)
	orch := v.app.orchestrator
	runID := v.runID
	run := func() tea.Msg {
		result, err := orch.Run(context.Background(), req)
		return pipelineFinishedMsg{runID: runID, topic: req.OriginalTopic, result: result, err: err}
	}
	return tea.Batch(v.spinner.Tick, run)
}

func validationText(req content.NewRequest) string {
	switch {
	case req.OriginalTopic == "":
		return "Topic is required."
	case !req.ContentType.Valid():
		return "Choose a content type."
	default:
		return "Choose a platform."
	}
}

func (v *submitView) handleFinished(m pipelineFinishedMsg) tea.Cmd {
	if !v.running || m.runID != v.runID {
		return nil
	}
	v.running = false
	if m.err != nil {
		v.notice = notice{text: m.statusLine(), isErr: true}
		v.app.logError("Pipeline for %q failed: %v", m.topic, m.err)
		return nil
	}
	v.notice = notice{text: m.statusLine()}
	v.app.logInfo("Request %d %s", m.result.RequestID, m.result.Outcome)
	v.topic.SetValue("")
	v.setFocus(fieldTopic)
	return nil
}

func (v *submitView) saveDefaults() tea.Cmd {
	req := v.request()
	defaults := config.SubmitDefaults{
		ContentType:            req.ContentType,
		Platform:               req.Platform,
		AutoPost:               req.AutoPost,
		IncludeSourceCitations: req.IncludeSourceCitations,
		Persona:                req.Persona,
	}
	if err := v.app.config.SetDefaults(defaults); err != nil {
		v.notice = notice{text: fmt.Sprintf("Failed to save defaults: %v", err), isErr: true}
		return nil
	}
	v.notice = notice{text: "Defaults saved."}
	return nil
}

func (v *submitView) View() string {
	lines := []string{
		headingStyle.Render("Submit a topic"),
		"",
		labelFor("Topic", v.focus == fieldTopic),
		v.topic.View(),
		"",
		choiceLine("Content type", string(v.contentType), v.focus == fieldContentType),
		choiceLine("Platform", string(v.platform), v.focus == fieldPlatform),
		choiceLine("Auto-post", yesNo(v.autoPost), v.focus == fieldAutoPost),
		choiceLine("Source citations", yesNo(v.citations), v.focus == fieldCitations),
		"",
		labelFor("Persona", v.focus == fieldPersona),
		v.persona.View(),
	}
	if v.running {
		lines = append(lines, "", fmt.Sprintf("%s Running pipeline…", v.spinner.View()))
	}
	if text := v.notice.render(); text != "" {
		lines = append(lines, "", text)
	}
	lines = append(lines, hintStyle.Render("Tab → next field    ←/→ → change    Enter → run pipeline    Ctrl+D → save defaults    Esc → back"))
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func choiceLine(label, value string, focused bool) string {
	text := fmt.Sprintf("%-17s ‹ %s ›", label, value)
	if focused {
		return focusStyle.Render(text)
	}
	return mutedStyle.Render(text)
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
