// internal/tui/app.go
//
// This is the main TUI for contentdesk. It uses bubbletea, which follows The
// Elm Architecture:
//
// 1. Model: Your application state
// 2. Update: A function that updates state based on messages
// 3. View: A function that renders state to a string
//
// Every screen is a small view struct. Remote calls run inside tea.Cmds and
// come back as typed messages; navigation always goes through the session
// guard so protected screens are never built without a credential.

package tui

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kingrea/contentdesk/internal/apiclient"
	"github.com/kingrea/contentdesk/internal/config"
	"github.com/kingrea/contentdesk/internal/logbook"
	"github.com/kingrea/contentdesk/internal/logging"
	"github.com/kingrea/contentdesk/internal/pipeline"
	"github.com/kingrea/contentdesk/internal/session"
)

const logPanelLines = 8

// routeView is one screen. Views never navigate directly; they return a
// command producing navigateMsg.
type routeView interface {
	Init() tea.Cmd
	Update(msg tea.Msg) tea.Cmd
	View() string
}

// backHandler is implemented by views that want to consume esc themselves
// (for example to close an inline input) before the app navigates back.
type backHandler interface {
	Back() bool
}

type navigateMsg struct {
	route     session.Route
	requestID int64
}

type logoutMsg struct{}

func navigate(route session.Route, requestID int64) tea.Cmd {
	return func() tea.Msg {
		return navigateMsg{route: route, requestID: requestID}
	}
}

// AppOption customizes App construction for tests and alternate runtimes.
type AppOption func(*App)

// WithLogbook sets the activity journal rendered in the log panel.
func WithLogbook(lb *logbook.Logbook) AppOption {
	return func(a *App) {
		if lb != nil {
			a.logbook = lb
		}
	}
}

// WithLogger sets the diagnostics logger.
func WithLogger(logger *slog.Logger) AppOption {
	return func(a *App) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithClock overrides the time source used to validate schedule input.
func WithClock(now func() time.Time) AppOption {
	return func(a *App) {
		if now != nil {
			a.now = now
		}
	}
}

// App is the main application model.
type App struct {
	config       *config.Config
	session      *session.Session
	guard        *session.Guard
	client       *apiclient.Client
	orchestrator *pipeline.Orchestrator
	logbook      *logbook.Logbook
	logger       *slog.Logger
	now          func() time.Time

	route session.Route
	view  routeView

	statusMsg string

	// runSeq and fetchSeq number pipeline runs and queue fetches across
	// view instances.
	runSeq   int
	fetchSeq int

	// Window size (we get this from bubbletea)
	width  int
	height int
}

// NewApp wires the views to a shared session and API client.
func NewApp(cfg *config.Config, sess *session.Session, client *apiclient.Client, opts ...AppOption) (*App, error) {
	if cfg == nil {
		return nil, errors.New("tui: config is required")
	}
	if sess == nil {
		return nil, errors.New("tui: session is required")
	}
	if client == nil {
		return nil, errors.New("tui: api client is required")
	}
	app := &App{
		config:  cfg,
		session: sess,
		guard:   session.NewGuard(sess),
		client:  client,
		logger:  logging.Discard(),
		now:     time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(app)
		}
	}
	if app.logbook == nil {
		if lb, err := logbook.New(cfg.JournalPath()); err == nil {
			app.logbook = lb
		} else {
			app.logger.Warn("activity journal unavailable", "error", err)
		}
	}
	var pipelineOpts []pipeline.Option
	if app.logbook != nil {
		pipelineOpts = append(pipelineOpts, pipeline.WithObserver(app.logbook))
	}
	orch, err := pipeline.New(client, pipelineOpts...)
	if err != nil {
		return nil, err
	}
	app.orchestrator = orch
	app.logInfo("Session opened · backend %s", client.BaseURL())
	return app, nil
}

func (a *App) logInfo(format string, args ...any) {
	if a.logbook == nil {
		return
	}
	a.logbook.Info(format, args...)
}

func (a *App) logWarn(format string, args ...any) {
	if a.logbook == nil {
		return
	}
	a.logbook.Warn(format, args...)
}

func (a *App) logError(format string, args ...any) {
	if a.logbook == nil {
		return
	}
	a.logbook.Error(format, args...)
}

func (a *App) setStatus(msg string) {
	a.statusMsg = strings.TrimSpace(msg)
}

// Route returns the screen currently rendered.
func (a *App) Route() session.Route {
	return a.route
}

// Init is called once when the program starts.
func (a *App) Init() tea.Cmd {
	return a.navigate(a.guard.Entry(), 0)
}

// Update is called when a message is received.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		if a.view != nil {
			return a, a.view.Update(msg)
		}
		return a, nil

	case navigateMsg:
		return a, a.navigate(msg.route, msg.requestID)

	case logoutMsg:
		return a, a.logout()

	case pipelineFinishedMsg:
		// The run outlives the submit view, so its outcome is reported
		// here even if the user navigated away.
		a.setStatus(msg.statusLine())
		if msg.err != nil {
			a.logger.Warn("pipeline failed", "error", msg.err)
		} else {
			a.logger.Info("pipeline finished", "request_id", msg.result.RequestID, "outcome", string(msg.result.Outcome))
		}

	case lifecycleDoneMsg:
		// A detail view that has since been replaced cannot settle the
		// action, so only the status line reports it.
		if dv, ok := a.view.(*detailView); !ok || dv.requestID != msg.requestID || !dv.busy {
			a.setStatus(msg.statusLine())
			if msg.err != nil {
				a.logError("%s for request %d failed: %v", titleCase(string(msg.action)), msg.requestID, msg.err)
			} else {
				a.logInfo("Request %d: %s finished", msg.requestID, msg.action)
			}
			return a, nil
		}

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return a, tea.Quit
		case "esc":
			if handler, ok := a.view.(backHandler); ok && handler.Back() {
				return a, nil
			}
			if a.route != a.guard.Entry() && a.route != a.guard.Home() {
				return a, a.navigate(a.guard.Home(), 0)
			}
			return a, nil
		}
	}

	if a.view == nil {
		return a, nil
	}
	return a, a.view.Update(msg)
}

// navigate resolves the requested route through the guard and replaces the
// active view. Data held by the previous view is dropped with it.
func (a *App) navigate(requested session.Route, requestID int64) tea.Cmd {
	resolved, redirected := a.guard.Resolve(requested)
	if redirected {
		a.logger.Debug("navigation redirected", "requested", string(requested), "resolved", string(resolved))
	}
	a.route = resolved
	a.view = a.buildView(resolved, requestID)
	return a.view.Init()
}

func (a *App) buildView(route session.Route, requestID int64) routeView {
	switch route {
	case session.RouteDashboard:
		return newDashboardView(a)
	case session.RouteSubmit:
		return newSubmitView(a)
	case session.RouteDetail:
		return newDetailView(a, requestID)
	case session.RouteQueue:
		return newQueueView(a)
	case session.RouteSettings:
		return newSettingsView(a)
	default:
		return newLoginView(a)
	}
}

func (a *App) logout() tea.Cmd {
	label := a.session.Claims().Label()
	a.session.Logout()
	if label != "" {
		a.logInfo("Signed out %s", label)
	} else {
		a.logInfo("Signed out")
	}
	a.setStatus("Signed out.")
	return a.navigate(a.guard.Entry(), 0)
}

// View renders the current state to a string.
func (a *App) View() string {
	width := a.width
	if width <= 0 {
		width = 100
	}
	content := ""
	if a.view != nil {
		content = a.view.View()
	}
	return a.renderBoard(content, width-2)
}

func (a *App) renderHeader(width int) string {
	title := titleStyle.Render("⬡ CONTENTDESK")
	var parts []string
	if a.route != "" {
		parts = append(parts, routeTitle(a.route))
	}
	if label := a.session.Claims().Label(); label != "" {
		parts = append(parts, label)
	} else if a.session.Authenticated() {
		parts = append(parts, "signed in")
	}
	right := mutedStyle.Render(strings.Join(parts, " · "))
	gap := width - lipgloss.Width(title) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return title + strings.Repeat(" ", gap) + right
}

func (a *App) renderLogPanel() string {
	if a.logbook == nil {
		return ""
	}
	lines, total := a.logbook.Tail(logPanelLines)
	if len(lines) == 0 {
		return ""
	}
	fileName := filepath.Base(a.logbook.Path())
	if fileName == "." || fileName == "" {
		fileName = "log"
	}
	head := headingStyle.Render(fmt.Sprintf("LOG · %s (%d/%d)", fileName, len(lines), total))
	body := detailTextStyle.Render(strings.Join(lines, "\n"))
	return panelStyle.Render(fmt.Sprintf("%s\n%s", head, body))
}

func (a *App) renderBoard(mainContent string, width int) string {
	if strings.TrimSpace(mainContent) == "" {
		mainContent = "Loading…"
	}
	body := panelStyle.
		Width(max(20, width)).
		Render(mainContent)
	sections := []string{a.renderHeader(width), body}
	if logPanel := a.renderLogPanel(); logPanel != "" {
		sections = append(sections, logPanel)
	}
	footer := footerStyle.Render(a.statusMsg)
	sections = append(sections, footer)
	return strings.Join(sections, "\n")
}

// contentSize is the space available inside the main panel.
func (a *App) contentSize() (int, int) {
	width, height := a.width, a.height
	if width <= 0 {
		width = 100
	}
	if height <= 0 {
		height = 30
	}
	return max(20, width-6), max(10, height-14)
}

func routeTitle(route session.Route) string {
	switch route {
	case session.RouteLogin:
		return "Sign in"
	case session.RouteDashboard:
		return "Requests"
	case session.RouteSubmit:
		return "New topic"
	case session.RouteDetail:
		return "Request"
	case session.RouteQueue:
		return "Scheduled queue"
	case session.RouteSettings:
		return "Settings"
	default:
		return titleCase(string(route))
	}
}

func titleCase(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	lower := strings.ToLower(value)
	return strings.ToUpper(lower[:1]) + lower[1:]
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
