package pacing

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"feedengage/pkg/config"
	"golang.org/x/time/rate"
)

// Pacer spaces out engagement actions. Every pause is a random delay in
// [min, max]; an optional hourly action budget is enforced on top through a
// token bucket.
type Pacer struct {
	min, max time.Duration
	budget   *rate.Limiter

	mu  sync.Mutex
	rng *rand.Rand
}

// Option configures a Pacer
type Option func(*Pacer)

// WithSeed makes the random delays reproducible
func WithSeed(seed int64) Option {
	return func(p *Pacer) {
		p.rng = rand.New(rand.NewSource(seed))
	}
}

// New builds a pacer from the pacing section. minInterval, usually the
// platform's engagement delay, raises the budget's spacing when it is
// stricter than actions_per_hour.
func New(cfg config.PacingConfig, minInterval time.Duration, opts ...Option) *Pacer {
	p := &Pacer{
		min: cfg.MinDelay,
		max: cfg.MaxDelay,
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	if p.max < p.min {
		p.max = p.min
	}

	interval := minInterval
	if cfg.ActionsPerHour > 0 {
		if hourly := time.Hour / time.Duration(cfg.ActionsPerHour); hourly > interval {
			interval = hourly
		}
	}
	if interval > 0 {
		p.budget = rate.NewLimiter(rate.Every(interval), 1)
	}

	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Delay returns the next randomized delay
func (p *Pacer) Delay() time.Duration {
	if p.max <= p.min {
		return p.min
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.min + time.Duration(p.rng.Int63n(int64(p.max-p.min)+1))
}

// Pause sleeps for one randomized delay or until ctx is done
func (p *Pacer) Pause(ctx context.Context) error {
	d := p.Delay()
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Acquire blocks until the action budget allows another engagement.
// Without a budget it returns immediately.
func (p *Pacer) Acquire(ctx context.Context) error {
	if p.budget == nil {
		return ctx.Err()
	}
	return p.budget.Wait(ctx)
}

// Limited reports whether an action budget is enforced
func (p *Pacer) Limited() bool {
	return p.budget != nil
}
