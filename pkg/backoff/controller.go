// Package backoff decides, after every item, whether the run continues,
// cools down or aborts.
package backoff

import (
	"fmt"
	"time"

	errs "feedengage/pkg/errors"
	"feedengage/pkg/logger"
	"feedengage/pkg/models"
	"feedengage/pkg/retry"
)

// Config holds the controller's thresholds
type Config struct {
	// RateLimitCooldown is the pause after the first rate-limit signal.
	// Consecutive signals double it up to MaxCooldown.
	RateLimitCooldown time.Duration
	MaxCooldown       time.Duration
	// MaxRateLimitHits consecutive rate-limited items without an engagement
	// in between abort the run
	MaxRateLimitHits int
	// FailureThreshold consecutive SkippedError results trigger a
	// FailureCooldown pause
	FailureThreshold int
	FailureCooldown  time.Duration
	// Strict aborts the run on the first SkippedError
	Strict bool
}

// DefaultConfig returns the standard thresholds
func DefaultConfig() Config {
	return Config{
		RateLimitCooldown: 300 * time.Second,
		MaxCooldown:       30 * time.Minute,
		MaxRateLimitHits:  3,
		FailureThreshold:  3,
		FailureCooldown:   30 * time.Second,
	}
}

// Controller maps pipeline results to actions. It owns the consecutive
// counters of the run's RunCounters.
type Controller struct {
	config    Config
	counters  *models.RunCounters
	rateLimit *retry.ExponentialBackoff
	logger    logger.Logger
}

// New creates a controller that updates counters in place
func New(cfg Config, counters *models.RunCounters, log logger.Logger) *Controller {
	if counters == nil {
		counters = &models.RunCounters{}
	}
	if log == nil {
		log = logger.GetLogger()
	}
	return &Controller{
		config:   cfg,
		counters: counters,
		rateLimit: &retry.ExponentialBackoff{
			BaseDelay:  cfg.RateLimitCooldown,
			MaxDelay:   cfg.MaxCooldown,
			Multiplier: 2,
		},
		logger: log.WithField("component", "backoff"),
	}
}

// OnResult records one pipeline result and returns the next action
func (c *Controller) OnResult(result models.PipelineResult) models.Action {
	switch result.Kind {
	case models.ResultEngaged:
		c.counters.ConsecutiveFailures = 0
		c.counters.ConsecutiveStalls = 0
		c.counters.RateLimitHits = 0
		return models.Continue()

	case models.ResultSkippedEmpty:
		c.counters.ConsecutiveFailures = 0
		c.counters.ConsecutiveStalls = 0
		return models.Continue()

	case models.ResultRateLimited:
		c.counters.RateLimitHits++
		if c.config.MaxRateLimitHits > 0 && c.counters.RateLimitHits >= c.config.MaxRateLimitHits {
			return models.Abort(errs.RecoveryExhausted(
				fmt.Sprintf("rate limited %d times in a row", c.counters.RateLimitHits), result.Cause))
		}
		d := c.rateLimit.NextDelay(c.counters.RateLimitHits)
		c.counters.Cooldowns++
		c.logger.WithFields(map[string]interface{}{
			"hits":     c.counters.RateLimitHits,
			"cooldown": d,
		}).Warn("Rate limited, cooling down")
		return models.Cooldown(d)

	case models.ResultSkippedError:
		if c.config.Strict {
			return models.Abort(fmt.Errorf("strict failure policy: %s stage failed: %w", result.Stage, causeOf(result)))
		}
		c.counters.ConsecutiveFailures++
		if c.config.FailureThreshold > 0 && c.counters.ConsecutiveFailures >= c.config.FailureThreshold {
			c.counters.ConsecutiveFailures = 0
			if c.config.FailureCooldown <= 0 {
				return models.Continue()
			}
			c.counters.Cooldowns++
			c.logger.WithField("cooldown", c.config.FailureCooldown).Warn("Repeated item failures, cooling down")
			return models.Cooldown(c.config.FailureCooldown)
		}
		return models.Continue()
	}

	return models.Continue()
}

// OnSessionError turns a failed session recovery into an abort
func (c *Controller) OnSessionError(err error) models.Action {
	c.logger.WithError(err).WithField("type", string(errs.TypeOf(err))).Error("Session could not be recovered")
	return models.Abort(err)
}

// Counters returns the counters the controller updates
func (c *Controller) Counters() *models.RunCounters {
	return c.counters
}

func causeOf(r models.PipelineResult) error {
	if r.Cause != nil {
		return r.Cause
	}
	return errs.New(errs.ErrorTypeUnknown, r.Reason)
}
