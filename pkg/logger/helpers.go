package logger

import (
	"context"
	"time"

	"feedengage/pkg/models"
	"github.com/rs/zerolog"
)

// LogItemResult logs the outcome of processing one feed item to l, or to
// the global logger when l is nil
func LogItemResult(l Logger, platform string, result models.PipelineResult) {
	fields := map[string]interface{}{
		"platform":    platform,
		"identity":    string(result.Identity),
		"kind":        string(result.Kind),
		"duration_ms": result.Duration.Milliseconds(),
	}
	if result.Author != "" {
		fields["author"] = result.Author
	}
	if result.Decision != nil {
		fields["category"] = string(result.Decision.Category)
	}

	l = orGlobal(l).WithFields(fields)
	switch result.Kind {
	case models.ResultEngaged:
		l.WithFields(map[string]interface{}{
			"reacted":   result.Outcome.Reacted,
			"commented": result.Outcome.Commented,
		}).Info("Item engaged")
	case models.ResultSkippedEmpty:
		l.WithField("reason", result.Reason).Debug("Item skipped")
	case models.ResultRateLimited:
		l.WithField("stage", result.Stage).WithError(result.Cause).Warn("Rate limit signalled")
	default:
		l.WithField("stage", result.Stage).WithError(result.Cause).Warn("Item failed")
	}
}

// LogRateLimit logs a cooldown caused by a platform rate-limit signal
func LogRateLimit(l Logger, platform string, cooldown time.Duration) {
	orGlobal(l).WithFields(map[string]interface{}{
		"platform": platform,
		"cooldown": cooldown,
		"action":   "rate_limited",
	}).Warn("Rate limit reached, cooling down")
}

// LogRunSummary logs the summary reported at the end of a run
func LogRunSummary(l Logger, summary models.RunSummary) {
	l = orGlobal(l).WithFields(map[string]interface{}{
		"run_id":        summary.RunID,
		"platform":      summary.Platform,
		"items_yielded": summary.ItemsYielded,
		"items_engaged": summary.ItemsEngaged,
		"items_skipped": summary.ItemsSkipped,
		"cooldowns":     summary.Cooldowns,
		"termination":   summary.Termination.String(),
		"duration":      summary.Duration,
	})
	if summary.Termination.Kind == models.TerminationAborted {
		l.Warn("Run aborted")
		return
	}
	l.Info("Run finished")
}

// LogComponentStart logs when a component starts
func LogComponentStart(l Logger, component string, config map[string]interface{}) {
	l = orGlobal(l).WithField("component", component)
	if len(config) > 0 {
		l = l.WithFields(config)
	}
	l.Info("Component started")
}

// LogComponentStop logs when a component stops
func LogComponentStop(l Logger, component string, reason string) {
	orGlobal(l).WithFields(map[string]interface{}{
		"component": component,
		"reason":    reason,
	}).Info("Component stopped")
}

func orGlobal(l Logger) Logger {
	if l == nil {
		return GetLogger()
	}
	return l
}

// NewNopLogger creates a no-operation logger for testing
func NewNopLogger() Logger {
	return &nopLogger{}
}

type nopLogger struct{}

func (n *nopLogger) Debug(msg string)                                          {}
func (n *nopLogger) Info(msg string)                                           {}
func (n *nopLogger) Warn(msg string)                                           {}
func (n *nopLogger) Error(msg string)                                          {}
func (n *nopLogger) Fatal(msg string)                                          {}
func (n *nopLogger) WithField(key string, value interface{}) Logger            { return n }
func (n *nopLogger) WithFields(fields map[string]interface{}) Logger           { return n }
func (n *nopLogger) WithError(err error) Logger                                { return n }
func (n *nopLogger) WithContext(ctx context.Context) Logger                    { return n }
func (n *nopLogger) DebugWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) InfoWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) WarnWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) ErrorWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) FatalWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) GetZerolog() *zerolog.Logger                               { return nil }
