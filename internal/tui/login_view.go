package tui

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kingrea/contentdesk/internal/apiclient"
)

type loginResultMsg struct {
	email string
	token string
	err   error
}

type loginView struct {
	app      *App
	email    textinput.Model
	password textinput.Model
	focus    int
	busy     bool
	notice   notice
}

func newLoginView(app *App) *loginView {
	email := newInput("you@example.com", 256)
	password := newInput("password", 256)
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'
	v := &loginView{app: app, email: email, password: password}
	v.setFocus(0)
	return v
}

// newInput builds a single-line input with a steady cursor.
func newInput(placeholder string, limit int) textinput.Model {
	input := textinput.New()
	input.Placeholder = placeholder
	input.CharLimit = limit
	input.Prompt = "› "
	input.Cursor.SetMode(cursor.CursorStatic)
	return input
}

func (v *loginView) Init() tea.Cmd {
	return nil
}

func (v *loginView) setFocus(idx int) {
	v.focus = idx
	if idx == 0 {
		v.email.Focus()
		v.password.Blur()
		return
	}
	v.email.Blur()
	v.password.Focus()
}

func (v *loginView) Update(msg tea.Msg) tea.Cmd {
	switch m := msg.(type) {
	case loginResultMsg:
		return v.handleResult(m)
	case tea.KeyMsg:
		switch m.String() {
		case "tab", "shift+tab", "up", "down":
			v.setFocus(1 - v.focus)
			return nil
		case "enter":
			if v.focus == 0 {
				v.setFocus(1)
				return nil
			}
			return v.submit()
		}
	}
	var cmd tea.Cmd
	if v.focus == 0 {
		v.email, cmd = v.email.Update(msg)
	} else {
		v.password, cmd = v.password.Update(msg)
	}
	return cmd
}

func (v *loginView) submit() tea.Cmd {
	if v.busy {
		return nil
	}
	email := strings.TrimSpace(v.email.Value())
	password := v.password.Value()
	if email == "" || password == "" {
		v.notice = notice{text: "Email and password are required.", isErr: true}
		return nil
	}
	v.busy = true
	v.notice = notice{}
	client := v.app.client
	return func() tea.Msg {
		token, err := client.Login(context.Background(), email, password)
		return loginResultMsg{email: email, token: token, err: err}
	}
}

func (v *loginView) handleResult(m loginResultMsg) tea.Cmd {
	v.busy = false
	if m.err != nil {
		v.notice = notice{text: loginFailureText(m.err), isErr: true}
		v.password.SetValue("")
		v.app.logWarn("Sign-in failed for %s", m.email)
		v.app.logger.Warn("login failed", "email", m.email, "error", m.err)
		return nil
	}
	if err := v.app.session.Login(m.token); err != nil {
		v.notice = notice{text: "Login failed: no token received.", isErr: true}
		return nil
	}
	v.app.logInfo("Signed in as %s", m.email)
	v.app.setStatus("")
	// Re-resolving the entry route sends an authenticated session home.
	return navigate(v.app.guard.Entry(), 0)
}

func loginFailureText(err error) string {
	if errors.Is(err, apiclient.ErrNoToken) {
		return "Login failed: no token received."
	}
	var apiErr *apiclient.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Status {
		case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden, http.StatusUnprocessableEntity:
			return "Invalid email or password."
		}
	}
	return fmt.Sprintf("Login failed: %v", err)
}

func (v *loginView) View() string {
	lines := []string{
		headingStyle.Render("Sign in"),
		"",
		labelFor("Email", v.focus == 0),
		v.email.View(),
		"",
		labelFor("Password", v.focus == 1),
		v.password.View(),
	}
	if v.busy {
		lines = append(lines, "", mutedStyle.Render("Signing in…"))
	}
	if text := v.notice.render(); text != "" {
		lines = append(lines, "", text)
	}
	lines = append(lines, hintStyle.Render("Tab → switch field    Enter → sign in    Ctrl+C → quit"))
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func labelFor(label string, focused bool) string {
	if focused {
		return focusStyle.Render(label)
	}
	return mutedStyle.Render(label)
}
