package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// View renders the entire TUI
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}

	var sections []string
	sections = append(sections, m.renderLogo())

	mainContent := lipgloss.JoinHorizontal(
		lipgloss.Top,
		m.renderLeftColumn(),
		"  ",
		m.renderRightColumn(),
	)
	sections = append(sections, mainContent)

	if m.showHelp {
		sections = append(sections, m.renderHelp())
	} else {
		sections = append(sections, helpStyle.Render("Press ? for help"))
	}

	return screenStyle.Width(m.width).Height(m.height).Render(
		lipgloss.JoinVertical(lipgloss.Left, sections...),
	)
}

func (m *Model) renderLogo() string {
	logo := `
╔═══════════════════════════════════════════════╗
║   F E E D   E N G A G E                       ║
║   feed engagement orchestrator                ║
╚═══════════════════════════════════════════════╝`
	return bannerStyle.Width(m.width).Render(logo)
}

func (m *Model) renderLeftColumn() string {
	width := (m.width - 4) / 2
	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderStatsPanel(width),
		m.renderLanesPanel(width),
	)
}

func (m *Model) renderRightColumn() string {
	width := (m.width - 4) / 2
	return m.renderLogsPanel(width)
}

func (m *Model) renderStatsPanel(width int) string {
	title := panelTitleStyle.Render(" SESSION ")

	yielded, engaged, skipped, active := m.Totals()
	stats := []string{
		fmt.Sprintf("%s %s", labelStyle.Render("Session Time:"), valueStyle.Render(formatDuration(time.Since(m.sessionStartTime)))),
		fmt.Sprintf("%s %s", labelStyle.Render("Active Runs:"), valueStyle.Render(fmt.Sprintf("%d", active))),
		fmt.Sprintf("%s %s", labelStyle.Render("Processed:"), valueStyle.Render(fmt.Sprintf("%d items", yielded))),
		fmt.Sprintf("%s %s", labelStyle.Render("Engaged:"), engagedStyle.Render(fmt.Sprintf("%d (%.0f%%)", engaged, EngagementRate(engaged, yielded)))),
		fmt.Sprintf("%s %s", labelStyle.Render("Skipped:"), valueStyle.Render(fmt.Sprintf("%d", skipped))),
	}

	m.mu.RLock()
	paused := m.isPaused
	m.mu.RUnlock()
	if paused {
		stats = append(stats, coolingStyle.Render("⏸  PAUSED"))
	}

	return panelStyle.Width(width).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, lipgloss.JoinVertical(lipgloss.Left, stats...)),
	)
}

func (m *Model) renderLanesPanel(width int) string {
	title := panelTitleStyle.Render(" PLATFORMS ")

	lanes := m.Lanes()
	if len(lanes) == 0 {
		content := mutedStyle.Render("Waiting for runs to start")
		return panelStyle.Width(width).Render(lipgloss.JoinVertical(lipgloss.Left, title, content))
	}

	var rows []string
	for _, lane := range lanes {
		rows = append(rows, m.renderLane(lane, width-6))
	}
	return panelStyle.Width(width).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, lipgloss.JoinVertical(lipgloss.Left, rows...)),
	)
}

func (m *Model) renderLane(lane Lane, width int) string {
	m.mu.RLock()
	bar, ok := m.progressBars[lane.Platform]
	m.mu.RUnlock()

	header := fmt.Sprintf("%s %s %s",
		platformStyle.Render(lane.Platform),
		m.laneStatus(lane),
		mutedStyle.Render(fmt.Sprintf("%d/%d • %d engaged • %d skipped", lane.Yielded, lane.Target, lane.Engaged, lane.Skipped)),
	)
	if !ok {
		return header
	}

	bar.Width = width
	if bar.Width < 10 {
		bar.Width = 10
	}
	lines := []string{header, bar.ViewAs(lane.Progress())}
	if lane.State == LaneAborted && lane.Termination.Cause != "" {
		lines = append(lines, failedStyle.Render(truncate(lane.Termination.Cause, width)))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m *Model) laneStatus(lane Lane) string {
	switch lane.State {
	case LaneCooling:
		remaining := time.Until(lane.CooldownUntil)
		return coolingStyle.Render(fmt.Sprintf("⏳ %s %s", lane.CooldownReason, formatDuration(remaining)))
	case LaneFinished:
		return engagedStyle.Render("✓ " + string(lane.Termination.Kind))
	case LaneAborted:
		return failedStyle.Render("✗ aborted")
	default:
		return m.spinner.View()
	}
}

func (m *Model) renderLogsPanel(width int) string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	title := panelTitleStyle.Render(" ACTIVITY ")

	start := len(m.logMessages) - 15
	if start < 0 {
		start = 0
	}

	var logs []string
	for _, log := range m.logMessages[start:] {
		timestamp := timeStyle.Render(log.Time.Format("15:04:05"))
		level := lipgloss.NewStyle().Foreground(log.Color).Bold(true).Render(fmt.Sprintf("[%-7s]", log.Level))
		message := mutedStyle.Render(truncate(log.Message, width-25))
		logs = append(logs, fmt.Sprintf("%s %s %s", timestamp, level, message))
	}

	content := strings.Join(logs, "\n")
	if content == "" {
		content = mutedStyle.Render("No activity yet...")
	}

	logsHeight := m.height - 12
	if logsHeight < 5 {
		logsHeight = 5
	}
	return panelStyle.Width(width).Height(logsHeight).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, content),
	)
}

func (m *Model) renderHelp() string {
	help := `
  Keys:
    q/Q      - Quit (runs are cancelled and torn down)
    p/P      - Pause/Resume before the next item
    ctrl+l   - Clear activity
    ?        - Toggle this help

  Status:
    ` + engagedStyle.Render("Green") + `    - Engaged / finished
    ` + coolingStyle.Render("Amber") + `    - Cooling down / paused
    ` + failedStyle.Render("Red") + `      - Failed item / aborted run
`
	return panelStyle.Width(m.width).Render(help)
}

// truncate shortens s to max runes, ending with an ellipsis
func truncate(s string, max int) string {
	r := []rune(s)
	if max <= 3 || len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}

// formatDuration formats a duration as a clock
func formatDuration(d time.Duration) string {
	if d < 0 {
		return "00:00"
	}

	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60

	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}
