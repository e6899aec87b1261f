package tui

import (
	"github.com/charmbracelet/lipgloss"
)

// Palette. Lane and log colors share the same meaning: green engaged or
// finished, amber cooling or paused, red failed or aborted.
var (
	accent    = lipgloss.Color("#0A66C2")
	highlight = lipgloss.Color("#70B5F9")
	engaged   = lipgloss.Color("#57C785")
	cooling   = lipgloss.Color("#F5A623")
	failed    = lipgloss.Color("#E5534B")
	muted     = lipgloss.Color("#9DA5B4")
	faint     = lipgloss.Color("#5C6370")
	surface   = lipgloss.Color("#1B1F27")
)

var (
	screenStyle = lipgloss.NewStyle().Foreground(muted)

	bannerStyle = lipgloss.NewStyle().
			Foreground(highlight).
			Bold(true).
			Padding(1, 0).
			Align(lipgloss.Center)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accent).
			Padding(0, 1)

	panelTitleStyle = lipgloss.NewStyle().
			Background(accent).
			Foreground(surface).
			Bold(true).
			Padding(0, 1)

	labelStyle   = lipgloss.NewStyle().Foreground(highlight).Bold(true)
	valueStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#E6E6E6"))
	mutedStyle   = lipgloss.NewStyle().Foreground(muted)
	engagedStyle = lipgloss.NewStyle().Foreground(engaged).Bold(true)
	coolingStyle = lipgloss.NewStyle().Foreground(cooling).Bold(true)
	failedStyle  = lipgloss.NewStyle().Foreground(failed).Bold(true)

	platformStyle = lipgloss.NewStyle().
			Foreground(highlight).
			Bold(true).
			Width(10)

	timeStyle = lipgloss.NewStyle().Foreground(faint)

	helpStyle = lipgloss.NewStyle().
			Foreground(faint).
			Padding(1, 0, 0, 2)
)

var levelColors = map[string]lipgloss.Color{
	"ERROR":   failed,
	"WARN":    cooling,
	"SUCCESS": engaged,
	"INFO":    highlight,
}

// levelColor returns the activity color for a log level
func levelColor(level string) lipgloss.Color {
	if c, ok := levelColors[level]; ok {
		return c
	}
	return muted
}
