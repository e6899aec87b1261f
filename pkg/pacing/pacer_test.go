package pacing

import (
	"context"
	"testing"
	"time"

	"feedengage/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDelayWithinBounds(t *testing.T) {
	p := New(config.PacingConfig{MinDelay: time.Second, MaxDelay: 3 * time.Second}, 0, WithSeed(42))

	seen := make(map[time.Duration]bool)
	for i := 0; i < 200; i++ {
		d := p.Delay()
		require.GreaterOrEqual(t, d, time.Second)
		require.LessOrEqual(t, d, 3*time.Second)
		seen[d] = true
	}
	assert.Greater(t, len(seen), 1)
}

func TestDelayFixedWhenBoundsEqual(t *testing.T) {
	p := New(config.PacingConfig{MinDelay: 2 * time.Millisecond, MaxDelay: time.Millisecond}, 0)
	assert.Equal(t, 2*time.Millisecond, p.Delay())
}

func TestPause(t *testing.T) {
	p := New(config.PacingConfig{MinDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}, 0)
	start := time.Now()
	require.NoError(t, p.Pause(context.Background()))
	assert.GreaterOrEqual(t, time.Since(start), time.Millisecond)
}

func TestPauseHonorsCancellation(t *testing.T) {
	p := New(config.PacingConfig{MinDelay: time.Hour, MaxDelay: time.Hour}, 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	err := p.Pause(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), time.Second)
}

func TestAcquireWithoutBudget(t *testing.T) {
	p := New(config.PacingConfig{}, 0)
	assert.False(t, p.Limited())
	for i := 0; i < 100; i++ {
		require.NoError(t, p.Acquire(context.Background()))
	}
}

func TestAcquireEnforcesBudget(t *testing.T) {
	p := New(config.PacingConfig{ActionsPerHour: 1}, 0)
	require.True(t, p.Limited())

	// the first action is free, the second must wait for an hour
	require.NoError(t, p.Acquire(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.Error(t, p.Acquire(ctx))
}

func TestMinIntervalRaisesBudget(t *testing.T) {
	p := New(config.PacingConfig{ActionsPerHour: 3600}, 50*time.Millisecond)
	require.NoError(t, p.Acquire(context.Background()))

	start := time.Now()
	require.NoError(t, p.Acquire(context.Background()))
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
}
