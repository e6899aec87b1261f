// Package fleet runs one isolated orchestrator per platform with bounded
// parallelism.
package fleet

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"feedengage/pkg/logger"
	"feedengage/pkg/models"
)

// Runner is one platform run
type Runner interface {
	Run(ctx context.Context) models.RunSummary
}

// Factory builds the runner for a platform. A factory error ends that
// platform's run before it starts.
type Factory func(ctx context.Context, platform string) (Runner, error)

// Result is the outcome of one platform
type Result struct {
	Platform string
	Summary  models.RunSummary
	Err      error
	Duration time.Duration
}

// Fleet schedules platform runs. Runs share nothing; a failing platform
// never stops the others.
type Fleet struct {
	parallel int
	factory  Factory
	logger   logger.Logger
}

// New creates a fleet running at most parallel platforms at once
func New(parallel int, factory Factory, log logger.Logger) *Fleet {
	if parallel < 1 {
		parallel = 1
	}
	if log == nil {
		log = logger.GetLogger()
	}
	return &Fleet{parallel: parallel, factory: factory, logger: log}
}

// Run executes every platform and returns results in input order. It
// returns when all runs have finished, including their teardown.
func (f *Fleet) Run(ctx context.Context, platforms []string) []Result {
	f.logger.InfoWithFields("Starting platform runs", map[string]interface{}{
		"platforms": platforms,
		"parallel":  f.parallel,
	})

	results := make([]Result, len(platforms))
	var g errgroup.Group
	g.SetLimit(f.parallel)

	for i, platform := range platforms {
		g.Go(func() error {
			results[i] = f.runOne(ctx, i, platform)
			return nil
		})
	}
	_ = g.Wait()

	f.logger.Info("All platform runs finished")
	return results
}

func (f *Fleet) runOne(ctx context.Context, slot int, platform string) Result {
	start := time.Now()
	log := f.logger.WithFields(map[string]interface{}{
		"slot":     slot,
		"platform": platform,
	})
	log.Debug("Platform run starting")

	result := Result{Platform: platform}
	if err := ctx.Err(); err != nil {
		result.Err = err
		result.Summary = failedSummary(platform, fmt.Errorf("cancelled: %w", err), start)
		return result
	}

	runner, err := f.factory(ctx, platform)
	if err != nil {
		log.WithError(err).Error("Platform run could not start")
		result.Err = err
		result.Summary = failedSummary(platform, err, start)
		result.Duration = time.Since(start)
		return result
	}

	result.Summary = runner.Run(ctx)
	result.Duration = time.Since(start)
	log.DebugWithFields("Platform run finished", map[string]interface{}{
		"termination": string(result.Summary.Termination.Kind),
		"duration":    result.Duration,
	})
	return result
}

func failedSummary(platform string, err error, start time.Time) models.RunSummary {
	return models.RunSummary{
		Platform:    platform,
		Termination: models.Termination{Kind: models.TerminationAborted, Cause: err.Error()},
		StartedAt:   start,
		Duration:    time.Since(start),
	}
}

// Summaries extracts the run summaries from results
func Summaries(results []Result) []models.RunSummary {
	out := make([]models.RunSummary, len(results))
	for i, r := range results {
		out[i] = r.Summary
	}
	return out
}

// AnyAborted reports whether some platform ended aborted
func AnyAborted(results []Result) bool {
	for _, r := range results {
		if r.Summary.Termination.Kind == models.TerminationAborted {
			return true
		}
	}
	return false
}
