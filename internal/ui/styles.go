package ui

import "github.com/charmbracelet/lipgloss"

var (
	accent = lipgloss.AdaptiveColor{Light: "#005FD7", Dark: "#5FAFFF"}
	muted  = lipgloss.AdaptiveColor{Light: "#767676", Dark: "#8A8A8A"}
	danger = lipgloss.AdaptiveColor{Light: "#D70000", Dark: "#FF5F5F"}

	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(accent)

	userStyle      = lipgloss.NewStyle().Bold(true)
	assistantStyle = lipgloss.NewStyle().Foreground(accent)
	errorStyle     = lipgloss.NewStyle().Foreground(danger)
	systemStyle    = lipgloss.NewStyle().Foreground(muted).Italic(true)
	statusStyle    = lipgloss.NewStyle().Foreground(muted)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(muted).
			Padding(0, 1)

	panelTitleStyle = lipgloss.NewStyle().Bold(true)
)
