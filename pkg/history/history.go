package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"feedengage/pkg/logger"
	"feedengage/pkg/models"
)

const reportVersion = 1

// ItemRecord is the stored outcome of one processed item
type ItemRecord struct {
	Identity   string `json:"identity"`
	Kind       string `json:"kind"`
	Stage      string `json:"stage,omitempty"`
	Reason     string `json:"reason,omitempty"`
	Author     string `json:"author,omitempty"`
	Category   string `json:"category,omitempty"`
	Comment    string `json:"comment,omitempty"`
	Reacted    bool   `json:"reacted"`
	Commented  bool   `json:"commented"`
	DurationMS int64  `json:"duration_ms"`
}

// NewItemRecord converts a pipeline result for storage
func NewItemRecord(r models.PipelineResult) ItemRecord {
	rec := ItemRecord{
		Identity:   string(r.Identity),
		Kind:       string(r.Kind),
		Stage:      r.Stage,
		Reason:     r.Reason,
		Author:     r.Author,
		Reacted:    r.Outcome.Reacted,
		Commented:  r.Outcome.Commented,
		DurationMS: r.Duration.Milliseconds(),
	}
	if r.Decision != nil {
		rec.Category = string(r.Decision.Category)
		rec.Comment = r.Decision.CommentText
	}
	return rec
}

// Report is the stored record of one run
type Report struct {
	RunID      string            `json:"run_id"`
	Platform   string            `json:"platform"`
	Target     int               `json:"target"`
	Summary    models.RunSummary `json:"summary"`
	Items      []ItemRecord      `json:"items"`
	FinishedAt time.Time         `json:"finished_at"`
	Version    int               `json:"version"`
}

// Manager stores run reports as JSON files in one directory
type Manager struct {
	dir    string
	logger logger.Logger
}

// NewManager creates a manager rooted at dir, creating it if needed
func NewManager(dir string) (*Manager, error) {
	if dir == "" {
		return nil, fmt.Errorf("history directory is empty")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}
	return &Manager{
		dir:    dir,
		logger: logger.GetLogger().WithField("component", "history"),
	}, nil
}

// Dir returns the directory reports are stored in
func (m *Manager) Dir() string {
	return m.dir
}

// Save writes the report atomically
func (m *Manager) Save(report *Report) error {
	if report.RunID == "" {
		return fmt.Errorf("report has no run id")
	}
	report.Version = reportVersion
	if report.FinishedAt.IsZero() {
		report.FinishedAt = time.Now()
	}

	path := filepath.Join(m.dir, fileName(report))
	tempPath := path + ".tmp"
	file, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("failed to create temporary report file: %w", err)
	}

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(report); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to encode report: %w", err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to sync report file: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to close report file: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to replace report file: %w", err)
	}

	m.logger.DebugWithFields("Run report saved", map[string]interface{}{
		"run_id": report.RunID,
		"path":   path,
	})
	return nil
}

// Load returns the report whose run id starts with prefix
func (m *Manager) Load(prefix string) (*Report, error) {
	if prefix == "" {
		return nil, fmt.Errorf("run id is empty")
	}

	paths, err := m.paths()
	if err != nil {
		return nil, err
	}
	var match string
	for _, p := range paths {
		if !strings.HasPrefix(runIDOf(p), prefix) {
			continue
		}
		if match != "" {
			return nil, fmt.Errorf("run id %q is ambiguous", prefix)
		}
		match = p
	}
	if match == "" {
		return nil, fmt.Errorf("no run matches %q", prefix)
	}
	return readReport(match)
}

// List returns all stored reports, newest first. Unreadable files are
// skipped and logged.
func (m *Manager) List() ([]*Report, error) {
	paths, err := m.paths()
	if err != nil {
		return nil, err
	}

	reports := make([]*Report, 0, len(paths))
	for _, p := range paths {
		r, err := readReport(p)
		if err != nil {
			m.logger.WithError(err).WithField("path", p).Warn("Skipping unreadable run report")
			continue
		}
		reports = append(reports, r)
	}
	sort.SliceStable(reports, func(i, j int) bool {
		return reports[i].Summary.StartedAt.After(reports[j].Summary.StartedAt)
	})
	return reports, nil
}

// Prune deletes all but the newest keep reports and returns how many
// were removed
func (m *Manager) Prune(keep int) (int, error) {
	if keep < 0 {
		keep = 0
	}
	paths, err := m.paths()
	if err != nil {
		return 0, err
	}
	if len(paths) <= keep {
		return 0, nil
	}

	// file names start with the UTC start time, so lexical order is age order
	sort.Sort(sort.Reverse(sort.StringSlice(paths)))
	removed := 0
	for _, p := range paths[keep:] {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			return removed, fmt.Errorf("failed to delete report: %w", err)
		}
		removed++
	}

	m.logger.InfoWithFields("Run history pruned", map[string]interface{}{
		"removed": removed,
		"kept":    keep,
	})
	return removed, nil
}

func (m *Manager) paths() ([]string, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read history directory: %w", err)
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		paths = append(paths, filepath.Join(m.dir, e.Name()))
	}
	return paths, nil
}

func readReport(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read report: %w", err)
	}
	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to decode report %s: %w", filepath.Base(path), err)
	}
	return &r, nil
}

// fileName is <start>_<platform>_<run id>.json
func fileName(r *Report) string {
	started := r.Summary.StartedAt
	if started.IsZero() {
		started = r.FinishedAt
	}
	return fmt.Sprintf("%s_%s_%s.json", started.UTC().Format("20060102T150405Z"), r.Platform, r.RunID)
}

func runIDOf(path string) string {
	name := strings.TrimSuffix(filepath.Base(path), ".json")
	parts := strings.SplitN(name, "_", 3)
	if len(parts) != 3 {
		return ""
	}
	return parts[2]
}
