package orchestrator

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"feedengage/pkg/backoff"
	"feedengage/pkg/config"
	errs "feedengage/pkg/errors"
	"feedengage/pkg/feed"
	"feedengage/pkg/ledger"
	"feedengage/pkg/logger"
	"feedengage/pkg/models"
	"feedengage/pkg/retry"
	"feedengage/pkg/session"
	"feedengage/pkg/ui"
	"github.com/google/uuid"
)

const defaultTeardownTimeout = 10 * time.Second

// Config holds everything one run needs besides its collaborators
type Config struct {
	Platform        string
	Target          int
	Credentials     models.Credentials
	Session         session.Config
	Feed            feed.Config
	Backoff         backoff.Config
	TeardownTimeout time.Duration
}

// ConfigFor builds a run configuration for platform from the application
// configuration
func ConfigFor(cfg *config.Config, platform string) Config {
	p := cfg.Platform(platform)
	return Config{
		Platform:    strings.ToLower(platform),
		Target:      cfg.TargetFor(platform),
		Credentials: models.Credentials{Username: p.Username, Password: p.Password},
		Session: session.Config{
			ProbeTimeout: cfg.Timeouts.ExtractionField,
			LoginTimeout: cfg.Timeouts.Login,
			SettleDelay:  cfg.Run.SessionSettleDelay,
		},
		Feed: feed.Config{
			MaxStalls:      cfg.Run.ScrollStallLimit,
			MaxIdleScrolls: cfg.Run.ScrollIdleLimit,
			ProbeTimeout:   cfg.Timeouts.ExtractionField,
			ScrollTimeout:  cfg.Timeouts.ScrollSettle + cfg.Timeouts.ExtractionField,
		},
		Backoff: backoff.Config{
			RateLimitCooldown: cfg.Backoff.RateLimitCooldown,
			MaxCooldown:       cfg.Backoff.MaxCooldown,
			MaxRateLimitHits:  cfg.Backoff.MaxRateLimitHits,
			FailureThreshold:  cfg.Backoff.FailureThreshold,
			FailureCooldown:   cfg.Backoff.FailureCooldown,
			Strict:            cfg.Run.FailurePolicy == config.FailurePolicyStrict,
		},
		TeardownTimeout: cfg.Timeouts.Teardown,
	}
}

// Option configures an Orchestrator
type Option func(*Orchestrator)

// WithObserver adds a progress observer
func WithObserver(obs ui.Observer) Option {
	return func(o *Orchestrator) {
		if obs != nil {
			o.observers = append(o.observers, obs)
		}
	}
}

// WithPacer sets the inter-item pacer
func WithPacer(p Pacer) Option {
	return func(o *Orchestrator) { o.pacer = p }
}

// WithLogger sets the logger
func WithLogger(l logger.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// Orchestrator drives one platform run: session, traversal, pipeline and
// backoff. It is single use.
type Orchestrator struct {
	driver    Driver
	processor Processor
	config    Config
	pacer     Pacer
	observers ui.Observers
	logger    logger.Logger

	guard      *session.Guard
	engine     *feed.Engine
	ledger     *ledger.Ledger
	controller *backoff.Controller
	counters   models.RunCounters
	feedOpen   bool
}

// New creates an orchestrator for one run
func New(driver Driver, processor Processor, cfg Config, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		driver:    driver,
		processor: processor,
		config:    cfg,
		logger:    logger.GetLogger(),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.config.TeardownTimeout <= 0 {
		o.config.TeardownTimeout = defaultTeardownTimeout
	}
	o.logger = o.logger.WithField("platform", cfg.Platform)

	o.guard = session.NewGuard(driver, cfg.Credentials, cfg.Session, o.logger)
	o.ledger = ledger.New()
	o.engine = feed.NewEngine(driver, driver, o.guard, o.ledger, cfg.Feed, o.logger)
	o.controller = backoff.New(cfg.Backoff, &o.counters, o.logger)
	return o
}

// Counters returns a copy of the run counters
func (o *Orchestrator) Counters() models.RunCounters {
	return o.counters
}

// Run executes the run until the target is reached, the feed is
// exhausted, the controller aborts or ctx is cancelled. Teardown always
// runs and a summary is returned on every path.
func (o *Orchestrator) Run(ctx context.Context) (summary models.RunSummary) {
	info := models.RunInfo{
		RunID:     uuid.NewString(),
		Platform:  o.config.Platform,
		Target:    o.config.Target,
		StartedAt: time.Now(),
	}
	o.counters.Reset()

	logger.LogComponentStart(o.logger, "orchestrator", map[string]interface{}{
		"platform": info.Platform,
		"run_id":   info.RunID,
		"target":   info.Target,
	})
	o.observers.RunStarted(info)

	defer func() {
		summary = models.RunSummary{
			RunID:        info.RunID,
			Platform:     info.Platform,
			ItemsYielded: o.counters.ItemsYielded,
			ItemsEngaged: o.counters.ItemsEngaged,
			ItemsSkipped: o.counters.ItemsSkipped,
			Cooldowns:    o.counters.Cooldowns,
			Termination:  summary.Termination,
			StartedAt:    info.StartedAt,
			Duration:     time.Since(info.StartedAt),
		}
		logger.LogRunSummary(o.logger, summary)
		o.observers.RunFinished(summary)
	}()
	defer o.teardown(ctx)

	summary.Termination = o.loop(ctx)
	return summary
}

func (o *Orchestrator) loop(ctx context.Context) models.Termination {
	for o.counters.ItemsYielded < o.config.Target {
		if err := ctx.Err(); err != nil {
			return cancelled(err)
		}

		if err := o.ensureSession(ctx); err != nil {
			if ctx.Err() != nil {
				return cancelled(ctx.Err())
			}
			return aborted(o.controller.OnSessionError(err).Cause)
		}

		handle, err := o.engine.Next(ctx)
		switch {
		case stderrors.Is(err, feed.ErrEnd):
			return models.Termination{Kind: models.TerminationFeedExhausted}
		case errs.Is(err, errs.ErrorTypeSessionInvalid):
			o.guard.Invalidate(err.Error())
			continue
		case err != nil:
			if ctx.Err() != nil {
				return cancelled(ctx.Err())
			}
			return aborted(err)
		}

		if o.pacer != nil {
			if err := o.pacer.Acquire(ctx); err != nil {
				return cancelled(err)
			}
		}

		o.counters.ItemsYielded++
		result := o.processor.Process(ctx, handle)
		if result.Kind == models.ResultEngaged {
			o.counters.ItemsEngaged++
		} else {
			o.counters.ItemsSkipped++
		}

		action := o.controller.OnResult(result)
		o.counters.ConsecutiveStalls = o.engine.Stalls()

		logger.LogItemResult(o.logger, o.config.Platform, result)
		o.observers.ItemProcessed(o.config.Platform, result, o.counters)

		switch action.Kind {
		case models.ActionAbort:
			return aborted(action.Cause)
		case models.ActionCooldown:
			if err := o.cooldown(ctx, action.Duration, result); err != nil {
				return cancelled(err)
			}
			continue
		}

		if o.pacer != nil && o.counters.ItemsYielded < o.config.Target {
			if err := o.pacer.Pause(ctx); err != nil {
				return cancelled(err)
			}
		}
	}
	return models.Termination{Kind: models.TerminationTargetReached}
}

// ensureSession probes the session and, after a recovery, settles and
// reopens the feed
func (o *Orchestrator) ensureSession(ctx context.Context) error {
	recovered, err := o.guard.EnsureValid(ctx)
	if err != nil {
		return err
	}
	if recovered {
		if err := o.guard.Settle(ctx); err != nil {
			return err
		}
	}
	if recovered || !o.feedOpen {
		if err := o.driver.OpenFeed(ctx); err != nil {
			o.guard.Invalidate("feed did not open")
			return errs.RecoveryExhausted("could not open feed", err)
		}
		o.feedOpen = true
		o.engine.ResetStalls()
	}
	return nil
}

func (o *Orchestrator) cooldown(ctx context.Context, d time.Duration, result models.PipelineResult) error {
	reason := "repeated item failures"
	if result.Kind == models.ResultRateLimited {
		reason = "rate limited"
		logger.LogRateLimit(o.logger, o.config.Platform, d)
	}
	o.observers.CooldownStarted(o.config.Platform, d, reason)

	if err := retry.Wait(ctx, d); err != nil {
		return err
	}
	o.logger.Info("Cooldown completed, resuming")
	return nil
}

// teardown releases the driver on a context detached from the run's
// cancellation and bounded by the teardown timeout
func (o *Orchestrator) teardown(ctx context.Context) {
	tctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.config.TeardownTimeout)
	defer cancel()

	if err := o.driver.Teardown(tctx); err != nil {
		o.logger.WithError(err).Warn("Teardown failed")
		return
	}
	logger.LogComponentStop(o.logger, "orchestrator", "teardown complete")
}

func aborted(cause error) models.Termination {
	t := models.Termination{Kind: models.TerminationAborted}
	if cause != nil {
		t.Cause = cause.Error()
	}
	return t
}

func cancelled(err error) models.Termination {
	return models.Termination{Kind: models.TerminationAborted, Cause: fmt.Sprintf("cancelled: %v", err)}
}
