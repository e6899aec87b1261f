package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"feedengage/pkg/models"
)

// TUI is a full-screen run monitor. It implements ui.Interactive.
type TUI struct {
	program *tea.Program
	model   *Model
}

// NewTUI creates a new TUI instance
func NewTUI() *TUI {
	model := NewModel()
	return &TUI{
		program: tea.NewProgram(&model, tea.WithAltScreen()),
		model:   &model,
	}
}

// Start runs the TUI until the user quits or Stop is called
func (t *TUI) Start() error {
	_, err := t.program.Run()
	return err
}

// Stop stops the TUI gracefully
func (t *TUI) Stop() {
	t.program.Quit()
}

// Wait blocks until the program has exited
func (t *TUI) Wait() {
	t.program.Wait()
}

// Send sends a message to the TUI
func (t *TUI) Send(msg tea.Msg) {
	if t.program != nil {
		t.program.Send(msg)
	}
}

func (t *TUI) RunStarted(info models.RunInfo) {
	t.Send(RunStartedMsg{Info: info})
}

func (t *TUI) ItemProcessed(platform string, result models.PipelineResult, counters models.RunCounters) {
	t.Send(ItemMsg{Platform: platform, Result: result, Counters: counters})
}

func (t *TUI) CooldownStarted(platform string, d time.Duration, reason string) {
	t.Send(CooldownMsg{Platform: platform, Duration: d, Reason: reason})
}

func (t *TUI) RunFinished(summary models.RunSummary) {
	t.Send(RunFinishedMsg{Summary: summary})
}

// Log adds a line to the activity panel
func (t *TUI) Log(level, message string) {
	t.Send(LogMsg{Level: level, Message: message})
}

// IsPaused returns whether the user paused the runs
func (t *TUI) IsPaused() bool {
	t.model.mu.RLock()
	defer t.model.mu.RUnlock()
	return t.model.isPaused
}
