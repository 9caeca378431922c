package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kingrea/contentdesk/internal/content"
)

type userConfigLoadedMsg struct {
	cfg content.UserConfiguration
	err error
}

type userConfigSavedMsg struct {
	cfg content.UserConfiguration
	err error
}

type settingsField struct {
	label string
	input textinput.Model
}

type settingsView struct {
	app     *App
	fields  []settingsField
	focus   int
	loading bool
	saving  bool
	notice  notice
}

func newSettingsView(app *App) *settingsView {
	labels := []string{"Persona", "Tone", "Style", "Language", "Platform preference", "Research preference"}
	fields := make([]settingsField, len(labels))
	for i, label := range labels {
		fields[i] = settingsField{label: label, input: newInput(strings.ToLower(label), 200)}
	}
	v := &settingsView{app: app, fields: fields}
	v.setFocus(0)
	return v
}

func (v *settingsView) Init() tea.Cmd {
	v.loading = true
	client := v.app.client
	return func() tea.Msg {
		cfg, err := client.UserConfiguration(context.Background())
		return userConfigLoadedMsg{cfg: cfg, err: err}
	}
}

func (v *settingsView) setFocus(idx int) {
	n := len(v.fields)
	v.focus = (idx + n) % n
	for i := range v.fields {
		if i == v.focus {
			v.fields[i].input.Focus()
		} else {
			v.fields[i].input.Blur()
		}
	}
}

func (v *settingsView) values() content.UserConfiguration {
	get := func(i int) string { return strings.TrimSpace(v.fields[i].input.Value()) }
	return content.UserConfiguration{
		Persona:            get(0),
		Tone:               get(1),
		Style:              get(2),
		Language:           get(3),
		PlatformPreference: get(4),
		ResearchPreference: get(5),
	}
}

func (v *settingsView) apply(cfg content.UserConfiguration) {
	for i, value := range []string{cfg.Persona, cfg.Tone, cfg.Style, cfg.Language, cfg.PlatformPreference, cfg.ResearchPreference} {
		v.fields[i].input.SetValue(value)
	}
}

func (v *settingsView) Update(msg tea.Msg) tea.Cmd {
	switch m := msg.(type) {
	case userConfigLoadedMsg:
		v.loading = false
		if m.err != nil {
			v.notice = notice{text: "Failed to load settings.", isErr: true}
			v.app.logger.Warn("load user configuration failed", "error", m.err)
			return nil
		}
		v.apply(m.cfg)
		return nil
	case userConfigSavedMsg:
		v.saving = false
		if m.err != nil {
			v.notice = notice{text: fmt.Sprintf("Failed to save settings: %v", m.err), isErr: true}
			v.app.logError("Saving settings failed: %v", m.err)
			return nil
		}
		v.apply(m.cfg)
		v.notice = notice{text: "Settings saved."}
		v.app.logInfo("Writing preferences updated")
		return nil
	case tea.KeyMsg:
		switch m.String() {
		case "tab", "down":
			v.setFocus(v.focus + 1)
			return nil
		case "shift+tab", "up":
			v.setFocus(v.focus - 1)
			return nil
		case "enter":
			if v.focus < len(v.fields)-1 {
				v.setFocus(v.focus + 1)
				return nil
			}
			return v.save()
		case "ctrl+s":
			return v.save()
		}
		var cmd tea.Cmd
		v.fields[v.focus].input, cmd = v.fields[v.focus].input.Update(m)
		return cmd
	}
	return nil
}

func (v *settingsView) save() tea.Cmd {
	if v.saving || v.loading {
		return nil
	}
	v.saving = true
	v.notice = notice{}
	cfg := v.values()
	client := v.app.client
	return func() tea.Msg {
		saved, err := client.UpdateUserConfiguration(context.Background(), cfg)
		return userConfigSavedMsg{cfg: saved, err: err}
	}
}

func (v *settingsView) View() string {
	lines := []string{headingStyle.Render("Writing preferences"), ""}
	if v.loading {
		lines = append(lines, mutedStyle.Render("Loading settings…"), "")
	}
	for i, field := range v.fields {
		lines = append(lines, labelFor(field.label, i == v.focus), field.input.View())
	}
	if v.saving {
		lines = append(lines, "", mutedStyle.Render("Saving…"))
	}
	if text := v.notice.render(); text != "" {
		lines = append(lines, "", text)
	}
	lines = append(lines, hintStyle.Render("Tab → next field    Enter on last field / Ctrl+S → save    Esc → back"))
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}
