// Package logger provides structured logging for feedengage.
//
// It wraps zerolog with a small interface so components can take a Logger
// and tests can swap in a TestLogger that records messages.
//
//	err := logger.Initialize(&cfg.Logging)
//	logger.WithField("platform", "linkedin").Info("Run started")
//
// The domain helpers (LogItemResult, LogRateLimit, LogRunSummary) keep the
// field names of per-item and per-run events consistent across packages.
package logger
