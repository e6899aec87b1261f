package tui

import (
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"feedengage/pkg/models"
)

// LaneState is where one platform run currently is
type LaneState int

const (
	LaneRunning LaneState = iota
	LaneCooling
	LaneFinished
	LaneAborted
)

// Lane is the live view of one platform run
type Lane struct {
	Platform       string
	RunID          string
	Target         int
	Yielded        int
	Engaged        int
	Skipped        int
	Failures       int
	Cooldowns      int
	State          LaneState
	CooldownUntil  time.Time
	CooldownReason string
	Termination    models.Termination
	StartedAt      time.Time
	LastResult     string
}

// Model represents the TUI model
type Model struct {
	spinner      spinner.Model
	progressBars map[string]progress.Model

	lanes     map[string]*Lane
	laneOrder []string

	sessionStartTime time.Time

	width          int
	height         int
	showHelp       bool
	isPaused       bool
	logMessages    []LogMessage
	maxLogMessages int

	mu sync.RWMutex
}

// LogMessage represents a log entry
type LogMessage struct {
	Time    time.Time
	Level   string
	Message string
	Color   lipgloss.Color
}

// NewModel creates a new TUI model
func NewModel() Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(highlight)

	return Model{
		spinner:          s,
		progressBars:     make(map[string]progress.Model),
		lanes:            make(map[string]*Lane),
		sessionStartTime: time.Now(),
		maxLogMessages:   50,
	}
}

// Init initializes the model
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, tickCmd())
}

// StartRun opens a lane for the run, replacing a finished lane of the same
// platform
func (m *Model) StartRun(info models.RunInfo) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.lanes[info.Platform]; !ok {
		m.laneOrder = append(m.laneOrder, info.Platform)
		sort.Strings(m.laneOrder)
	}
	m.lanes[info.Platform] = &Lane{
		Platform:  info.Platform,
		RunID:     info.RunID,
		Target:    info.Target,
		StartedAt: info.StartedAt,
	}

	p := progress.New(progress.WithDefaultGradient())
	p.Width = 40
	m.progressBars[info.Platform] = p
}

// RecordItem applies a processed item to its lane
func (m *Model) RecordItem(platform string, result models.PipelineResult, counters models.RunCounters) {
	m.mu.Lock()
	defer m.mu.Unlock()

	lane := m.lane(platform)
	lane.Yielded = counters.ItemsYielded
	lane.Engaged = counters.ItemsEngaged
	lane.Skipped = counters.ItemsSkipped
	lane.Failures = counters.ConsecutiveFailures
	lane.Cooldowns = counters.Cooldowns
	lane.LastResult = string(result.Kind)
	if lane.State == LaneCooling {
		lane.State = LaneRunning
	}
}

// StartCooldown marks the lane as waiting until now+d
func (m *Model) StartCooldown(platform string, d time.Duration, reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	lane := m.lane(platform)
	lane.State = LaneCooling
	lane.CooldownUntil = time.Now().Add(d)
	lane.CooldownReason = reason
}

// FinishRun closes the lane with the run's final counts
func (m *Model) FinishRun(summary models.RunSummary) {
	m.mu.Lock()
	defer m.mu.Unlock()

	lane := m.lane(summary.Platform)
	lane.Yielded = summary.ItemsYielded
	lane.Engaged = summary.ItemsEngaged
	lane.Skipped = summary.ItemsSkipped
	lane.Cooldowns = summary.Cooldowns
	lane.Termination = summary.Termination
	lane.State = LaneFinished
	if summary.Termination.Kind == models.TerminationAborted {
		lane.State = LaneAborted
	}
}

func (m *Model) lane(platform string) *Lane {
	lane, ok := m.lanes[platform]
	if !ok {
		lane = &Lane{Platform: platform, StartedAt: time.Now()}
		m.lanes[platform] = lane
		m.laneOrder = append(m.laneOrder, platform)
		sort.Strings(m.laneOrder)
	}
	return lane
}

// AddLogMessage adds a log message
func (m *Model) AddLogMessage(level, message string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.logMessages = append(m.logMessages, LogMessage{
		Time:    time.Now(),
		Level:   level,
		Message: message,
		Color:   levelColor(level),
	})
	if len(m.logMessages) > m.maxLogMessages {
		m.logMessages = m.logMessages[len(m.logMessages)-m.maxLogMessages:]
	}
}

// Lanes returns copies of the lanes in platform order
func (m *Model) Lanes() []Lane {
	m.mu.RLock()
	defer m.mu.RUnlock()

	lanes := make([]Lane, 0, len(m.laneOrder))
	for _, name := range m.laneOrder {
		lanes = append(lanes, *m.lanes[name])
	}
	return lanes
}

// Totals sums the counters across lanes
func (m *Model) Totals() (yielded, engaged, skipped, active int) {
	for _, lane := range m.Lanes() {
		yielded += lane.Yielded
		engaged += lane.Engaged
		skipped += lane.Skipped
		if lane.State == LaneRunning || lane.State == LaneCooling {
			active++
		}
	}
	return
}

// Progress returns the lane's completion in [0, 1]
func (l Lane) Progress() float64 {
	if l.Target <= 0 {
		return 0
	}
	p := float64(l.Yielded) / float64(l.Target)
	if p > 1 {
		p = 1
	}
	return p
}

// EngagementRate is the engaged share of processed items as a percentage
func EngagementRate(engaged, yielded int) float64 {
	if yielded == 0 {
		return 0
	}
	return float64(engaged) / float64(yielded) * 100
}
