// Package pipeline turns one feed item handle into one PipelineResult:
// extract, generate a decision, then react and comment.
package pipeline

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	errs "feedengage/pkg/errors"
	"feedengage/pkg/logger"
	"feedengage/pkg/models"
	"feedengage/pkg/retry"
)

// Config holds the stage budgets and the platform's decision rules
type Config struct {
	ExtractionTimeout time.Duration
	GenerationTimeout time.Duration
	EngagementTimeout time.Duration

	GenerationAttempts int
	GenerationBackoff  time.Duration

	PromptTemplate  string
	Categories      []models.Category
	DefaultCategory models.Category
	SkipSponsored   bool
}

// DefaultConfig returns the standard stage budgets
func DefaultConfig() Config {
	return Config{
		ExtractionTimeout:  15 * time.Second,
		GenerationTimeout:  30 * time.Second,
		EngagementTimeout:  30 * time.Second,
		GenerationAttempts: 3,
		GenerationBackoff:  500 * time.Millisecond,
		SkipSponsored:      true,
	}
}

// Pipeline processes items one at a time. Every stage runs on a context
// detached from the caller's cancellation and bounded by the stage budget,
// so a stop request takes effect between items.
type Pipeline struct {
	extractor Extractor
	generator Generator
	executor  Executor
	pauser    Pauser
	observer  StageObserver
	config    Config
	logger    logger.Logger
}

// Option configures a Pipeline
type Option func(*Pipeline)

// WithPauser sets the delay inserted between react and comment
func WithPauser(p Pauser) Option {
	return func(pl *Pipeline) { pl.pauser = p }
}

// WithStageObserver reports stage timings, e.g. to metrics
func WithStageObserver(o StageObserver) Option {
	return func(pl *Pipeline) { pl.observer = o }
}

// WithLogger sets the pipeline logger
func WithLogger(l logger.Logger) Option {
	return func(pl *Pipeline) { pl.logger = l }
}

// New creates a pipeline over the three content capabilities
func New(extractor Extractor, generator Generator, executor Executor, cfg Config, opts ...Option) *Pipeline {
	p := &Pipeline{
		extractor: extractor,
		generator: generator,
		executor:  executor,
		config:    cfg,
		logger:    logger.GetLogger(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.WithField("component", "pipeline")
	return p
}

// Process runs one item through all stages. It never returns an error and
// never panics; every failure is reported in the result.
func (p *Pipeline) Process(ctx context.Context, handle models.ItemHandle) (result models.PipelineResult) {
	start := time.Now()
	stage := models.StageExtraction
	var identity models.ItemIdentity

	defer func() {
		if r := recover(); r != nil {
			p.logger.WithField("stage", stage).Error(fmt.Sprintf("Recovered panic: %v", r))
			result = models.SkippedError(identity, stage, fmt.Errorf("panic in %s: %v", stage, r))
		}
		result.Duration = time.Since(start)
	}()

	base := context.WithoutCancel(ctx)

	item, res, ok := p.extract(base, handle)
	if !ok {
		return res
	}
	identity = item.Identity

	stage = models.StageGeneration
	decision, err := p.generate(base, item)
	if err != nil {
		res := models.SkippedError(identity, stage, err)
		res.Author = item.Author.Name
		return res
	}

	stage = models.StageEngagement
	res = p.engage(base, handle, identity, decision)
	res.Author = item.Author.Name
	res.Decision = &decision
	return res
}

func (p *Pipeline) extract(ctx context.Context, handle models.ItemHandle) (models.ExtractedItem, models.PipelineResult, bool) {
	ctx, cancel := withBudget(ctx, p.config.ExtractionTimeout)
	defer cancel()

	started := time.Now()
	item, err := p.extractor.Extract(ctx, handle)
	if item.Identity == "" {
		item.Identity = handle.Identity
	}
	ok := err == nil && strings.TrimSpace(item.Text) != ""
	p.observe(models.StageExtraction, started, ok)

	switch {
	case err != nil && errs.IsTimeout(err):
		return item, models.SkippedEmpty(item.Identity, "extraction timed out"), false
	case err != nil:
		p.logger.WithError(err).Debug("Extraction failed")
		return item, models.SkippedEmpty(item.Identity, "extraction failed"), false
	case !ok:
		return item, models.SkippedEmpty(item.Identity, "empty text"), false
	case item.Sponsored && p.config.SkipSponsored:
		return item, models.SkippedEmpty(item.Identity, "sponsored"), false
	}
	return item, models.PipelineResult{}, true
}

// generate retries transient failures while the stage budget lasts
func (p *Pipeline) generate(ctx context.Context, item models.ExtractedItem) (models.EngagementDecision, error) {
	ctx, cancel := withBudget(ctx, p.config.GenerationTimeout)
	defer cancel()

	attempts := p.config.GenerationAttempts
	if attempts <= 0 {
		attempts = 1
	}

	started := time.Now()
	decision, err := retry.DoWithResult(ctx, func(ctx context.Context) (models.EngagementDecision, error) {
		d, err := p.generator.Generate(ctx, item, p.config.PromptTemplate)
		if err != nil && stderrors.Is(err, context.DeadlineExceeded) && !errs.Is(err, errs.ErrorTypeGenerationTimeout) {
			err = errs.GenerationTimeout(err)
		}
		return d, err
	}, &retry.Config{
		MaxAttempts: attempts,
		Backoff:     &retry.ExponentialBackoff{BaseDelay: p.config.GenerationBackoff, Multiplier: 2},
		RetryIf:     retryGeneration,
		Logger:      p.logger,
	})
	p.observe(models.StageGeneration, started, err == nil)

	if err != nil {
		if errs.IsTimeout(err) && !errs.Is(err, errs.ErrorTypeGenerationTimeout) {
			err = errs.GenerationTimeout(err)
		}
		return models.EngagementDecision{}, err
	}
	return p.normalize(decision), nil
}

// retryGeneration retries generation failures and per-attempt timeouts but
// not an expired stage budget, which the retry loop detects on its own
func retryGeneration(err error) bool {
	if errs.Is(err, errs.ErrorTypeGenerationTimeout) || errs.Is(err, errs.ErrorTypeGeneration) {
		return true
	}
	return retry.DefaultRetryIf(err)
}

// normalize maps unknown categories to the platform default
func (p *Pipeline) normalize(d models.EngagementDecision) models.EngagementDecision {
	d.CommentText = strings.TrimSpace(d.CommentText)
	if len(p.config.Categories) == 0 {
		if d.Category == "" {
			d.Category = p.config.DefaultCategory
		}
		return d
	}
	want := strings.ToUpper(strings.TrimSpace(string(d.Category)))
	for _, c := range p.config.Categories {
		if string(c) == want {
			d.Category = c
			return d
		}
	}
	d.Category = p.config.DefaultCategory
	return d
}

func (p *Pipeline) engage(ctx context.Context, handle models.ItemHandle, id models.ItemIdentity, d models.EngagementDecision) models.PipelineResult {
	ctx, cancel := withBudget(ctx, p.config.EngagementTimeout)
	defer cancel()

	started := time.Now()
	var outcome models.EngagementOutcome
	var failures []error

	reacted, err := p.executor.React(ctx, handle, d.Category)
	if errs.Is(err, errs.ErrorTypeRateLimit) {
		p.observe(models.StageEngagement, started, false)
		return models.RateLimited(id, models.StageEngagement, err)
	}
	outcome.Reacted = reacted && err == nil
	if err != nil {
		failures = append(failures, fmt.Errorf("react: %w", err))
	} else if !reacted {
		failures = append(failures, errs.ActionFailure("react had no effect", nil))
	}

	if d.CommentText != "" {
		if p.pauser != nil {
			// a pause cut short by the stage budget still lets the comment try
			_ = p.pauser.Pause(ctx)
		}
		commented, err := p.executor.Comment(ctx, handle, d.CommentText)
		if errs.Is(err, errs.ErrorTypeRateLimit) {
			p.observe(models.StageEngagement, started, false)
			res := models.RateLimited(id, models.StageEngagement, err)
			res.Outcome = outcome
			return res
		}
		outcome.Commented = commented && err == nil
		if err != nil {
			failures = append(failures, fmt.Errorf("comment: %w", err))
		} else if !commented {
			failures = append(failures, errs.ActionFailure("comment had no effect", nil))
		}
	}

	ok := outcome.Reacted || outcome.Commented
	p.observe(models.StageEngagement, started, ok)
	if ok {
		if len(failures) > 0 {
			p.logger.WithError(stderrors.Join(failures...)).Debug("Partial engagement")
		}
		return models.Engaged(id, outcome)
	}
	return models.SkippedError(id, models.StageEngagement,
		errs.ActionFailure("no engagement action succeeded", stderrors.Join(failures...)))
}

func (p *Pipeline) observe(stage string, started time.Time, ok bool) {
	if p.observer != nil {
		p.observer.ObserveStage(stage, time.Since(started), ok)
	}
}

func withBudget(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
