package tui

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF6B6B"))
	headingStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF"))
	mutedStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	detailTextStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#A0AEC0"))
	hintStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#AAAAAA")).MarginTop(1)
	footerStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")).MarginTop(1)
	errorStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true)
	successStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#4CAF50")).Bold(true)
	focusStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#F7B801")).Bold(true)
	deletedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#666666")).Faint(true)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444444")).
			Padding(0, 1)

	selectedRowStyle = lipgloss.NewStyle().
				Border(lipgloss.NormalBorder(), false, false, false, true).
				BorderForeground(lipgloss.Color("#5B8DEF")).
				PaddingLeft(1)
	rowStyle = lipgloss.NewStyle().PaddingLeft(2)
)

// notice is a one-line message local to a view.
type notice struct {
	text  string
	isErr bool
}

func (n notice) render() string {
	if n.text == "" {
		return ""
	}
	if n.isErr {
		return errorStyle.Render(n.text)
	}
	return successStyle.Render(n.text)
}
