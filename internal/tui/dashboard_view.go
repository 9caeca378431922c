package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kingrea/contentdesk/internal/content"
	"github.com/kingrea/contentdesk/internal/session"
)

type requestsLoadedMsg struct {
	requests []content.Request
	err      error
}

type usageLoadedMsg struct {
	stats content.UsageStats
	err   error
}

// requestItem implements list.Item for one content request.
type requestItem struct {
	request content.Request
}

func (i requestItem) Title() string {
	return fmt.Sprintf("#%d · %s", i.request.ID, i.request.OriginalTopic)
}

func (i requestItem) Description() string {
	parts := []string{
		humanizeStatus(i.request.Status),
		string(i.request.Platform),
		string(i.request.ContentType),
		i.request.CreatedAt.Display(),
	}
	return strings.Join(parts, " · ")
}

func (i requestItem) FilterValue() string { return i.request.OriginalTopic }

type dashboardView struct {
	app      *App
	list     list.Model
	requests []content.Request
	loading  bool
	loadErr  string
	usage    *content.UsageStats
	usageErr string
}

func newDashboardView(app *App) *dashboardView {
	width, height := app.contentSize()
	requests := list.New(nil, list.NewDefaultDelegate(), width, max(6, height-6))
	requests.Title = "Content requests"
	requests.SetShowStatusBar(false)
	requests.SetFilteringEnabled(false)
	requests.SetShowHelp(false)
	requests.DisableQuitKeybindings()
	return &dashboardView{app: app, list: requests}
}

func (v *dashboardView) Init() tea.Cmd {
	return v.refresh()
}

func (v *dashboardView) refresh() tea.Cmd {
	v.loading = true
	client := v.app.client
	fetchRequests := func() tea.Msg {
		requests, err := client.ListRequests(context.Background())
		return requestsLoadedMsg{requests: requests, err: err}
	}
	fetchUsage := func() tea.Msg {
		stats, err := client.UsageStats(context.Background())
		return usageLoadedMsg{stats: stats, err: err}
	}
	return tea.Batch(fetchRequests, fetchUsage)
}

func (v *dashboardView) Update(msg tea.Msg) tea.Cmd {
	switch m := msg.(type) {
	case requestsLoadedMsg:
		v.loading = false
		if m.err != nil {
			v.loadErr = "Failed to load requests."
			v.app.logger.Warn("list requests failed", "error", m.err)
			return nil
		}
		v.loadErr = ""
		v.requests = m.requests
		items := make([]list.Item, len(m.requests))
		for i, req := range m.requests {
			items[i] = requestItem{request: req}
		}
		return v.list.SetItems(items)
	case usageLoadedMsg:
		if m.err != nil {
			v.usage = nil
			v.usageErr = "Usage unavailable"
			v.app.logger.Warn("usage stats failed", "error", m.err)
			return nil
		}
		stats := m.stats
		v.usage = &stats
		v.usageErr = ""
		return nil
	case tea.WindowSizeMsg:
		width, height := v.app.contentSize()
		v.list.SetSize(width, max(6, height-6))
		return nil
	case tea.KeyMsg:
		switch m.String() {
		case "enter":
			item, ok := v.list.SelectedItem().(requestItem)
			if !ok {
				return nil
			}
			return navigate(session.RouteDetail, item.request.ID)
		case "n":
			return navigate(session.RouteSubmit, 0)
		case "q":
			return navigate(session.RouteQueue, 0)
		case "c":
			return navigate(session.RouteSettings, 0)
		case "r":
			v.app.setStatus("Refreshing requests...")
			return v.refresh()
		case "L":
			return func() tea.Msg { return logoutMsg{} }
		}
		var cmd tea.Cmd
		v.list, cmd = v.list.Update(msg)
		return cmd
	}
	return nil
}

func (v *dashboardView) View() string {
	sections := []string{v.renderUsage(), ""}
	switch {
	case v.loadErr != "":
		sections = append(sections, errorStyle.Render(v.loadErr))
	case v.loading && len(v.requests) == 0:
		sections = append(sections, mutedStyle.Render("Loading requests…"))
	case len(v.requests) == 0:
		sections = append(sections, mutedStyle.Render("No content requests yet. Press n to submit a topic."))
	default:
		sections = append(sections, v.list.View())
	}
	sections = append(sections, hintStyle.Render("Enter → open    n → new topic    q → queue    c → settings    r → refresh    L → sign out"))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (v *dashboardView) renderUsage() string {
	if v.usageErr != "" {
		return mutedStyle.Render(v.usageErr)
	}
	if v.usage == nil {
		return mutedStyle.Render("Quota: …")
	}
	line := fmt.Sprintf("Quota: %d/%d used today", v.usage.APIQuotaUsedToday, v.usage.APIQuotaDaily)
	if reset := strings.TrimSpace(v.usage.QuotaResetDate); reset != "" {
		line += fmt.Sprintf(" · resets %s", reset)
	}
	return detailTextStyle.Render(line)
}

func humanizeStatus(status string) string {
	status = strings.TrimSpace(status)
	if status == "" {
		return "Unknown"
	}
	return titleCase(strings.ReplaceAll(status, "_", " "))
}
