// Package session keeps the automation driver's authenticated session valid.
package session

import (
	"context"
	"time"

	errs "feedengage/pkg/errors"
	"feedengage/pkg/logger"
	"feedengage/pkg/models"
)

// Config holds the guard's timing settings
type Config struct {
	// ProbeTimeout bounds one liveness probe
	ProbeTimeout time.Duration
	// LoginTimeout bounds the whole login sequence
	LoginTimeout time.Duration
	// SettleDelay is waited after a successful recovery
	SettleDelay time.Duration
}

// Guard owns the session state. It performs at most one login per
// EnsureValid call and escalates instead of looping.
type Guard struct {
	driver Driver
	creds  models.Credentials
	config Config
	state  models.SessionState
	logger logger.Logger
}

// NewGuard creates a guard with the session initially invalid
func NewGuard(driver Driver, creds models.Credentials, cfg Config, log logger.Logger) *Guard {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Guard{
		driver: driver,
		creds:  creds,
		config: cfg,
		state:  models.SessionInvalid,
		logger: log.WithField("component", "session"),
	}
}

// State returns the current session state
func (g *Guard) State() models.SessionState {
	return g.state
}

// Invalidate marks the session invalid so the next EnsureValid re-probes
func (g *Guard) Invalidate(reason string) {
	if g.state == models.SessionInvalid {
		return
	}
	g.logger.WithField("reason", reason).Warn("Session invalidated")
	g.state = models.SessionInvalid
}

// EnsureValid probes the session and, when it is not live, performs one
// login attempt followed by a re-probe. recovered reports whether a login
// was needed and succeeded; callers should Settle after a recovery.
//
// A rejected login yields an auth error. A rate-limited login, a login
// that fails to complete, or a session that is still dead afterwards
// yields a recovery_exhausted error. Both are fatal for the run.
func (g *Guard) EnsureValid(ctx context.Context) (recovered bool, err error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if g.probe(ctx) {
		g.state = models.SessionValid
		return false, nil
	}

	g.state = models.SessionRecovering
	g.logger.Info("Session not live, logging in")

	// Login and re-probe are bounded by their timeouts only, not by ctx.
	detached := context.WithoutCancel(ctx)
	loginCtx, cancel := g.bounded(detached, g.config.LoginTimeout)
	result, err := g.driver.Login(loginCtx, g.creds)
	cancel()

	switch {
	case err != nil && errs.Is(err, errs.ErrorTypeAuth):
		g.state = models.SessionInvalid
		return false, err
	case err != nil && errs.Is(err, errs.ErrorTypeRateLimit):
		g.state = models.SessionInvalid
		return false, errs.RecoveryExhausted("login rate limited", err)
	case err != nil:
		g.state = models.SessionInvalid
		return false, errs.RecoveryExhausted("login did not complete", err)
	case result.RateLimited:
		g.state = models.SessionInvalid
		return false, errs.RecoveryExhausted("login rate limited", errs.RateLimitSignal(result.Message))
	case !result.Success:
		g.state = models.SessionInvalid
		msg := result.Message
		if msg == "" {
			msg = "credentials rejected"
		}
		return false, errs.AuthenticationFailure(msg)
	}

	if !g.probe(detached) {
		g.state = models.SessionInvalid
		return false, errs.RecoveryExhausted("session still invalid after login", nil)
	}

	g.state = models.SessionValid
	g.logger.Info("Session recovered")
	return true, nil
}

// Settle waits the post-login settle delay or until ctx is done
func (g *Guard) Settle(ctx context.Context) error {
	if g.config.SettleDelay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(g.config.SettleDelay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (g *Guard) probe(ctx context.Context) bool {
	probeCtx, cancel := g.bounded(ctx, g.config.ProbeTimeout)
	defer cancel()
	return g.driver.ProbeLiveness(probeCtx)
}

func (g *Guard) bounded(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
