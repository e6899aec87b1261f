// Package feed walks a continuously loading feed and yields each item once.
package feed

import (
	"context"
	stderrors "errors"
	"time"

	errs "feedengage/pkg/errors"
	"feedengage/pkg/logger"
	"feedengage/pkg/models"
)

// ErrEnd is returned by Next when the feed is exhausted
var ErrEnd = stderrors.New("feed exhausted")

// Config holds the engine's limits
type Config struct {
	// MaxStalls is the number of consecutive scroll steps that produce
	// neither a new candidate nor new page extent before the feed ends
	MaxStalls int
	// MaxIdleScrolls caps consecutive scroll steps without a new
	// candidate, even when the page keeps growing
	MaxIdleScrolls int
	// ProbeTimeout bounds one identity probe
	ProbeTimeout time.Duration
	// ScrollTimeout bounds one scroll step including its settle wait
	ScrollTimeout time.Duration
}

// DefaultConfig returns the standard limits
func DefaultConfig() Config {
	return Config{
		MaxStalls:      5,
		MaxIdleScrolls: 25,
		ProbeTimeout:   5 * time.Second,
		ScrollTimeout:  10 * time.Second,
	}
}

// Engine yields new item handles top to bottom, scrolling as needed
type Engine struct {
	surface Surface
	prober  IdentityProber
	session SessionState
	ledger  Ledger
	config  Config
	logger  logger.Logger

	stalls int
}

// NewEngine creates a traversal engine. The ledger is owned by the caller.
func NewEngine(surface Surface, prober IdentityProber, session SessionState, ledger Ledger, cfg Config, log logger.Logger) *Engine {
	if cfg.MaxStalls <= 0 {
		cfg.MaxStalls = DefaultConfig().MaxStalls
	}
	if cfg.MaxIdleScrolls < cfg.MaxStalls {
		cfg.MaxIdleScrolls = cfg.MaxStalls
	}
	if log == nil {
		log = logger.GetLogger()
	}
	return &Engine{
		surface: surface,
		prober:  prober,
		session: session,
		ledger:  ledger,
		config:  cfg,
		logger:  log.WithField("component", "feed"),
	}
}

// Stalls returns the current consecutive stall count
func (e *Engine) Stalls() int {
	return e.stalls
}

// ResetStalls clears the consecutive stall count
func (e *Engine) ResetStalls() {
	e.stalls = 0
}

// Next returns the next unseen item handle. It returns ErrEnd once
// MaxStalls consecutive scroll steps produced nothing, an error of type
// session_invalid when the session is not valid, or ctx.Err().
// The returned item's identity is already marked seen.
func (e *Engine) Next(ctx context.Context) (models.ItemHandle, error) {
	idle := 0
	for {
		if err := e.checkSession(ctx); err != nil {
			return models.ItemHandle{}, err
		}

		if handle, ok := e.firstNew(ctx); ok {
			e.stalls = 0
			return handle, nil
		}

		if e.stalls >= e.config.MaxStalls || idle >= e.config.MaxIdleScrolls {
			e.logger.WithFields(map[string]interface{}{
				"stalls":       e.stalls,
				"idle_scrolls": idle,
			}).Info("Feed exhausted")
			return models.ItemHandle{}, ErrEnd
		}

		if err := e.checkSession(ctx); err != nil {
			return models.ItemHandle{}, err
		}

		idle++
		if e.scroll(ctx) {
			e.stalls = 0
		} else {
			e.stalls++
			e.logger.WithField("stalls", e.stalls).Debug("Scroll produced no new content")
		}
	}
}

// firstNew enumerates the visible candidates and returns the first one
// whose identity the ledger has not seen
func (e *Engine) firstNew(ctx context.Context) (models.ItemHandle, bool) {
	candidates, err := e.surface.FindVisibleCandidates(ctx)
	if err != nil {
		e.logger.WithError(err).Debug("Candidate enumeration failed")
		return models.ItemHandle{}, false
	}

	for _, handle := range candidates {
		id, err := e.identify(ctx, handle)
		if err != nil || id == "" {
			continue
		}
		if !e.ledger.IsNew(id) {
			continue
		}
		e.ledger.MarkSeen(id)
		handle.Identity = id
		return handle, true
	}
	return models.ItemHandle{}, false
}

func (e *Engine) identify(ctx context.Context, handle models.ItemHandle) (models.ItemIdentity, error) {
	if e.config.ProbeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.config.ProbeTimeout)
		defer cancel()
	}
	return e.prober.Identify(ctx, handle)
}

// scroll performs one scroll step and reports whether the page grew
func (e *Engine) scroll(ctx context.Context) bool {
	if e.config.ScrollTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.config.ScrollTimeout)
		defer cancel()
	}
	res, err := e.surface.ScrollStep(ctx)
	if err != nil {
		e.logger.WithError(err).Debug("Scroll step failed")
		return false
	}
	return res.NewExtent
}

func (e *Engine) checkSession(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if e.session != nil && e.session.State() != models.SessionValid {
		return errs.SessionInvalid("session is " + e.session.State().String())
	}
	return nil
}
