package ui

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"feedengage/pkg/models"
)

const barWidth = 20

// ProgressDisplay prints a one-line status per item and a summary per run.
// It implements Observer and is safe for concurrent runs.
type ProgressDisplay struct {
	mu      sync.Mutex
	out     io.Writer
	verbose bool
	runs    map[string]*runProgress
}

type runProgress struct {
	info    models.RunInfo
	engaged int
	skipped int
}

// NewProgressDisplay writes to out. Verbose mode prints every item on its
// own line instead of redrawing one status line.
func NewProgressDisplay(out io.Writer, verbose bool) *ProgressDisplay {
	return &ProgressDisplay{
		out:     out,
		verbose: verbose,
		runs:    make(map[string]*runProgress),
	}
}

func (p *ProgressDisplay) RunStarted(info models.RunInfo) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.runs[info.Platform] = &runProgress{info: info}
	if IsQuietMode() {
		return
	}
	fmt.Fprintf(p.out, "%s %s run %s • target %d\n",
		Magenta("▶"), Cyan(info.Platform), Dim(shortID(info.RunID)), info.Target)
}

func (p *ProgressDisplay) ItemProcessed(platform string, result models.PipelineResult, counters models.RunCounters) {
	p.mu.Lock()
	defer p.mu.Unlock()

	run := p.run(platform)
	run.engaged = counters.ItemsEngaged
	run.skipped = counters.ItemsSkipped
	if IsQuietMode() {
		return
	}

	if p.verbose {
		fmt.Fprintf(p.out, "%s %s %s\n", resultMark(result.Kind), Cyan(platform), describe(result))
		return
	}

	elapsed := time.Since(run.info.StartedAt)
	rate := 0.0
	if elapsed > 0 {
		rate = float64(counters.ItemsYielded) / elapsed.Minutes()
	}
	line := fmt.Sprintf("%s [%s] %d/%d • %d engaged • %d skipped • %.1f/min",
		Cyan(platform),
		Bar(counters.ItemsYielded, run.info.Target, barWidth),
		counters.ItemsYielded,
		run.info.Target,
		counters.ItemsEngaged,
		counters.ItemsSkipped,
		rate,
	)
	if counters.ConsecutiveFailures > 0 {
		line += " • " + Red(fmt.Sprintf("%d failing", counters.ConsecutiveFailures))
	}
	fmt.Fprintf(p.out, "\r%s\r%s", strings.Repeat(" ", 120), line)
}

func (p *ProgressDisplay) CooldownStarted(platform string, d time.Duration, reason string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if IsQuietMode() {
		return
	}
	fmt.Fprintf(p.out, "\n%s %s %s. Waiting %s...\n", Yellow("⚠"), Cyan(platform), reason, FormatDuration(d))
}

func (p *ProgressDisplay) RunFinished(summary models.RunSummary) {
	p.mu.Lock()
	defer p.mu.Unlock()

	delete(p.runs, summary.Platform)
	if IsQuietMode() && summary.Termination.Kind != models.TerminationAborted {
		return
	}

	mark := Green("✓")
	if summary.Termination.Kind == models.TerminationAborted {
		mark = Red("✗")
	}
	fmt.Fprintf(p.out, "\n\n%s %s", mark, RenderSummary(summary))
}

func (p *ProgressDisplay) run(platform string) *runProgress {
	run, ok := p.runs[platform]
	if !ok {
		run = &runProgress{info: models.RunInfo{Platform: platform, StartedAt: time.Now()}}
		p.runs[platform] = run
	}
	return run
}

func resultMark(kind models.ResultKind) string {
	switch kind {
	case models.ResultEngaged:
		return Green("✓")
	case models.ResultRateLimited:
		return Yellow("⏸")
	case models.ResultSkippedError:
		return Red("✗")
	default:
		return Dim("•")
	}
}

func describe(result models.PipelineResult) string {
	switch result.Kind {
	case models.ResultEngaged:
		text := "engaged"
		if result.Decision != nil {
			text += " " + string(result.Decision.Category)
			if result.Decision.CommentText != "" {
				text += " + comment"
			}
		}
		if result.Author != "" {
			text += Dim(" • " + result.Author)
		}
		return text
	case models.ResultSkippedError:
		return fmt.Sprintf("skipped at %s: %s", result.Stage, result.Reason)
	case models.ResultRateLimited:
		return "rate limited"
	default:
		reason := result.Reason
		if reason == "" {
			reason = "nothing to engage with"
		}
		return "skipped: " + reason
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
