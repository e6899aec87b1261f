package backoff

import (
	"errors"
	"testing"
	"time"

	errs "feedengage/pkg/errors"
	"feedengage/pkg/logger"
	"feedengage/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newController(cfg Config) (*Controller, *models.RunCounters) {
	counters := &models.RunCounters{}
	return New(cfg, counters, logger.NewNopLogger()), counters
}

var (
	engaged = models.Engaged("a", models.EngagementOutcome{Reacted: true})
	empty   = models.SkippedEmpty("b", "empty text")
	failed  = models.SkippedError("c", models.StageGeneration, errs.GenerationTimeout(nil))
	limited = models.RateLimited("d", models.StageEngagement, errs.RateLimitSignal("slow down"))
)

func TestRateLimitCooldown(t *testing.T) {
	c, counters := newController(DefaultConfig())

	action := c.OnResult(limited)
	assert.Equal(t, models.ActionCooldown, action.Kind)
	assert.Equal(t, 300*time.Second, action.Duration)
	assert.Equal(t, 1, counters.Cooldowns)

	assert.Equal(t, models.ActionContinue, c.OnResult(engaged).Kind)
	assert.Equal(t, 0, counters.RateLimitHits)

	// after an engagement the next signal starts again at the base cooldown
	assert.Equal(t, 300*time.Second, c.OnResult(limited).Duration)
}

func TestRateLimitEscalatesThenAborts(t *testing.T) {
	c, counters := newController(DefaultConfig())

	first := c.OnResult(limited)
	second := c.OnResult(limited)
	third := c.OnResult(limited)

	assert.Equal(t, 300*time.Second, first.Duration)
	assert.Equal(t, 600*time.Second, second.Duration)
	assert.Equal(t, models.ActionAbort, third.Kind)
	assert.True(t, errs.Is(third.Cause, errs.ErrorTypeRecoveryExhausted))
	assert.Equal(t, 2, counters.Cooldowns)
}

func TestRateLimitHitsSurviveSkips(t *testing.T) {
	c, counters := newController(DefaultConfig())

	c.OnResult(limited)
	c.OnResult(empty)
	c.OnResult(limited)
	assert.Equal(t, 2, counters.RateLimitHits)
}

func TestConsecutiveFailuresCooldown(t *testing.T) {
	c, counters := newController(DefaultConfig())

	assert.Equal(t, models.ActionContinue, c.OnResult(failed).Kind)
	assert.Equal(t, models.ActionContinue, c.OnResult(failed).Kind)

	action := c.OnResult(failed)
	assert.Equal(t, models.ActionCooldown, action.Kind)
	assert.Equal(t, 30*time.Second, action.Duration)
	assert.Equal(t, 0, counters.ConsecutiveFailures)
	assert.Equal(t, 1, counters.Cooldowns)
}

func TestFailuresResetOnSuccessOrEmpty(t *testing.T) {
	tests := []struct {
		name  string
		reset models.PipelineResult
	}{
		{"engaged", engaged},
		{"skipped empty", empty},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, counters := newController(DefaultConfig())
			counters.ConsecutiveStalls = 3

			c.OnResult(failed)
			c.OnResult(failed)
			c.OnResult(tt.reset)
			assert.Equal(t, 0, counters.ConsecutiveFailures)
			assert.Equal(t, 0, counters.ConsecutiveStalls)

			assert.Equal(t, models.ActionContinue, c.OnResult(failed).Kind)
			assert.Equal(t, models.ActionContinue, c.OnResult(failed).Kind)
			assert.Equal(t, models.ActionCooldown, c.OnResult(failed).Kind)
		})
	}
}

func TestStrictPolicyAborts(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Strict = true
	c, _ := newController(cfg)

	assert.Equal(t, models.ActionContinue, c.OnResult(empty).Kind)

	action := c.OnResult(failed)
	require.Equal(t, models.ActionAbort, action.Kind)
	assert.True(t, errs.Is(action.Cause, errs.ErrorTypeGenerationTimeout))
	assert.Contains(t, action.Cause.Error(), "generation")
}

func TestZeroFailureCooldownContinues(t *testing.T) {
	cfg := DefaultConfig()
	cfg.FailureThreshold = 1
	cfg.FailureCooldown = 0
	c, counters := newController(cfg)

	assert.Equal(t, models.ActionContinue, c.OnResult(failed).Kind)
	assert.Equal(t, 0, counters.Cooldowns)
}

func TestOnSessionErrorAborts(t *testing.T) {
	c, _ := newController(DefaultConfig())

	for _, err := range []error{
		errs.AuthenticationFailure("bad password"),
		errs.RecoveryExhausted("still logged out", nil),
	} {
		action := c.OnSessionError(err)
		assert.Equal(t, models.ActionAbort, action.Kind)
		assert.True(t, errors.Is(action.Cause, err))
	}
}
