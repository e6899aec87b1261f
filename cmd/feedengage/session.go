package main

import (
	"context"
	"fmt"
	"time"

	"feedengage/internal/fleet"
	"feedengage/pkg/browser"
	"feedengage/pkg/config"
	"feedengage/pkg/generator"
	"feedengage/pkg/logger"
	"feedengage/pkg/orchestrator"
	"feedengage/pkg/pacing"
	"feedengage/pkg/pipeline"
	"feedengage/pkg/platform"
	"feedengage/pkg/ui"
)

const pausePoll = 250 * time.Millisecond

// sessionFactory assembles one isolated run per platform: its own browser,
// generator, pacer, pipeline and orchestrator. Observers are shared.
type sessionFactory struct {
	cfg       *config.Config
	observers []ui.Observer
	stages    pipeline.StageObserver
	paused    func() bool
}

func (f *sessionFactory) build(ctx context.Context, name string) (fleet.Runner, error) {
	p, err := platform.Lookup(name)
	if err != nil {
		return nil, err
	}
	log := logger.GetLogger().WithField("platform", p.Name)

	tmpl, err := p.PromptTemplate()
	if err != nil {
		return nil, fmt.Errorf("prompt template: %w", err)
	}
	client, err := generator.NewAnthropicClient(f.cfg.Generator)
	if err != nil {
		return nil, err
	}
	gen, err := generator.New(client, p.Categories, log)
	if err != nil {
		return nil, err
	}

	driver, err := browser.New(ctx, p, browser.ConfigFrom(f.cfg), log)
	if err != nil {
		return nil, err
	}

	pc := pacing.New(f.cfg.Pacing, f.cfg.Platform(p.Name).EngagementDelay)
	var pacer orchestrator.Pacer = pc
	if f.paused != nil {
		pacer = &pauseGate{Pacer: pc, paused: f.paused}
	}

	popts := []pipeline.Option{pipeline.WithPauser(pc), pipeline.WithLogger(log)}
	if f.stages != nil {
		popts = append(popts, pipeline.WithStageObserver(f.stages))
	}
	proc := pipeline.New(driver, gen, driver, pipelineConfig(f.cfg, p, tmpl), popts...)

	oopts := []orchestrator.Option{orchestrator.WithPacer(pacer), orchestrator.WithLogger(log)}
	for _, obs := range f.observers {
		oopts = append(oopts, orchestrator.WithObserver(obs))
	}
	return orchestrator.New(driver, proc, orchestrator.ConfigFor(f.cfg, p.Name), oopts...), nil
}

func pipelineConfig(cfg *config.Config, p platform.Platform, tmpl string) pipeline.Config {
	return pipeline.Config{
		ExtractionTimeout:  cfg.Timeouts.ExtractionItem,
		GenerationTimeout:  cfg.Timeouts.Generation,
		EngagementTimeout:  cfg.Timeouts.Engagement,
		GenerationAttempts: cfg.Backoff.GenerationAttempts,
		GenerationBackoff:  cfg.Backoff.GenerationBackoff,
		PromptTemplate:     tmpl,
		Categories:         p.Categories,
		DefaultCategory:    p.DefaultCategory,
		SkipSponsored:      cfg.Run.SkipSponsored,
	}
}

// pauseGate holds item acquisition while the terminal UI is paused
type pauseGate struct {
	orchestrator.Pacer
	paused func() bool
}

func (g *pauseGate) Acquire(ctx context.Context) error {
	if g.paused() {
		ticker := time.NewTicker(pausePoll)
		defer ticker.Stop()
		for g.paused() {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
			}
		}
	}
	return g.Pacer.Acquire(ctx)
}
