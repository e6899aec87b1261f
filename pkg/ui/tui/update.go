package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"feedengage/pkg/models"
)

// RunStartedMsg opens a platform lane
type RunStartedMsg struct {
	Info models.RunInfo
}

// ItemMsg reports one processed item
type ItemMsg struct {
	Platform string
	Result   models.PipelineResult
	Counters models.RunCounters
}

// CooldownMsg reports a cooldown
type CooldownMsg struct {
	Platform string
	Duration time.Duration
	Reason   string
}

// RunFinishedMsg closes a lane
type RunFinishedMsg struct {
	Summary models.RunSummary
}

// LogMsg is sent to add a log message
type LogMsg struct {
	Level   string
	Message string
}

// TickMsg is sent periodically to update the UI
type TickMsg time.Time

// Update handles all messages and updates the model
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case TickMsg:
		return m, tickCmd()

	case RunStartedMsg:
		m.StartRun(msg.Info)
		m.AddLogMessage("INFO", fmt.Sprintf("%s: run started, target %d", msg.Info.Platform, msg.Info.Target))
		return m, nil

	case ItemMsg:
		m.RecordItem(msg.Platform, msg.Result, msg.Counters)
		m.AddLogMessage(itemLevel(msg.Result.Kind), fmt.Sprintf("%s: %s", msg.Platform, msg.Result.String()))
		return m, nil

	case CooldownMsg:
		m.StartCooldown(msg.Platform, msg.Duration, msg.Reason)
		m.AddLogMessage("WARN", fmt.Sprintf("%s: %s, cooling down %s", msg.Platform, msg.Reason, msg.Duration))
		return m, nil

	case RunFinishedMsg:
		m.FinishRun(msg.Summary)
		level := "SUCCESS"
		text := fmt.Sprintf("%s: %s", msg.Summary.Platform, msg.Summary.Termination.Kind)
		if msg.Summary.Termination.Kind == models.TerminationAborted {
			level = "ERROR"
			text += " (" + msg.Summary.Termination.Cause + ")"
		}
		m.AddLogMessage(level, text)
		return m, nil

	case LogMsg:
		m.AddLogMessage(msg.Level, msg.Message)
		return m, nil
	}

	return m, nil
}

func itemLevel(kind models.ResultKind) string {
	switch kind {
	case models.ResultEngaged:
		return "SUCCESS"
	case models.ResultSkippedError:
		return "ERROR"
	case models.ResultRateLimited:
		return "WARN"
	default:
		return "INFO"
	}
}

// handleKeyPress handles keyboard input
func (m *Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "Q", "ctrl+c":
		return m, tea.Quit

	case "p", "P":
		m.mu.Lock()
		m.isPaused = !m.isPaused
		paused := m.isPaused
		m.mu.Unlock()
		if paused {
			m.AddLogMessage("WARN", "Paused by user; runs hold before their next item")
		} else {
			m.AddLogMessage("INFO", "Resumed by user")
		}
		return m, nil

	case "?":
		m.showHelp = !m.showHelp
		return m, nil

	case "ctrl+l":
		m.mu.Lock()
		m.logMessages = nil
		m.mu.Unlock()
		return m, nil
	}

	return m, nil
}

// tickCmd returns a command that sends a tick message
func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}
