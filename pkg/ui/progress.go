package ui

import (
	"fmt"
	"strings"
	"time"

	"feedengage/pkg/models"
)

const (
	ProgressBar   = "━"
	ProgressEmpty = "─"
)

// Bar renders done out of total as a fixed width bar
func Bar(done, total, width int) string {
	if width <= 0 {
		return ""
	}
	filled := 0
	if total > 0 {
		filled = done * width / total
	}
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	return strings.Repeat(ProgressBar, filled) + strings.Repeat(ProgressEmpty, width-filled)
}

// FormatDuration renders d compactly: 45s, 3m07s, 2h05m
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm%02ds", int(d.Minutes()), int(d.Seconds())%60)
	default:
		return fmt.Sprintf("%dh%02dm", int(d.Hours()), int(d.Minutes())%60)
	}
}

// RenderSummary renders one run summary as plain text
func RenderSummary(s models.RunSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Run %s on %s\n", s.RunID, s.Platform)
	fmt.Fprintf(&b, "  %-11s %s\n", "Outcome:", s.Termination.Kind)
	if s.Termination.Cause != "" {
		fmt.Fprintf(&b, "  %-11s %s\n", "Cause:", s.Termination.Cause)
	}
	fmt.Fprintf(&b, "  %-11s %d yielded, %d engaged, %d skipped\n", "Items:", s.ItemsYielded, s.ItemsEngaged, s.ItemsSkipped)
	fmt.Fprintf(&b, "  %-11s %d\n", "Cooldowns:", s.Cooldowns)
	fmt.Fprintf(&b, "  %-11s %s\n", "Duration:", FormatDuration(s.Duration))
	if !s.StartedAt.IsZero() {
		fmt.Fprintf(&b, "  %-11s %s\n", "Started:", s.StartedAt.UTC().Format("2006-01-02 15:04:05 UTC"))
	}
	return b.String()
}

// RenderSummaryTable renders several summaries, one row per run
func RenderSummaryTable(summaries []models.RunSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%-10s %-16s %8s %8s %8s %9s %9s\n", "PLATFORM", "OUTCOME", "YIELDED", "ENGAGED", "SKIPPED", "COOLDOWNS", "DURATION")
	for _, s := range summaries {
		fmt.Fprintf(&b, "%-10s %-16s %8d %8d %8d %9d %9s\n",
			s.Platform, s.Termination.Kind, s.ItemsYielded, s.ItemsEngaged, s.ItemsSkipped, s.Cooldowns, FormatDuration(s.Duration))
	}
	return b.String()
}
