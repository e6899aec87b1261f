package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	errs "feedengage/pkg/errors"
	"feedengage/pkg/logger"
	"feedengage/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeExtractor struct {
	item  models.ExtractedItem
	err   error
	block bool
}

func (f *fakeExtractor) Extract(ctx context.Context, h models.ItemHandle) (models.ExtractedItem, error) {
	if f.block {
		<-ctx.Done()
		return models.ExtractedItem{}, ctx.Err()
	}
	return f.item, f.err
}

type fakeGenerator struct {
	mu       sync.Mutex
	calls    int
	results  []error
	decision models.EngagementDecision
	block    bool
	template string
}

func (f *fakeGenerator) Generate(ctx context.Context, item models.ExtractedItem, tmpl string) (models.EngagementDecision, error) {
	f.mu.Lock()
	i := f.calls
	f.calls++
	f.template = tmpl
	f.mu.Unlock()

	if f.block {
		<-ctx.Done()
		return models.EngagementDecision{}, ctx.Err()
	}
	if i < len(f.results) && f.results[i] != nil {
		return models.EngagementDecision{}, f.results[i]
	}
	return f.decision, nil
}

type fakeExecutor struct {
	reactOK    bool
	reactErr   error
	commentOK  bool
	commentErr error
	panicOn    string

	reacted   []models.Category
	commented []string
	events    *[]string
}

func (f *fakeExecutor) React(ctx context.Context, h models.ItemHandle, c models.Category) (bool, error) {
	if f.panicOn == "react" {
		panic("stale node")
	}
	f.reacted = append(f.reacted, c)
	f.record("react")
	return f.reactOK, f.reactErr
}

func (f *fakeExecutor) Comment(ctx context.Context, h models.ItemHandle, text string) (bool, error) {
	f.commented = append(f.commented, text)
	f.record("comment")
	return f.commentOK, f.commentErr
}

func (f *fakeExecutor) record(e string) {
	if f.events != nil {
		*f.events = append(*f.events, e)
	}
}

type recordingPauser struct{ events *[]string }

func (p recordingPauser) Pause(ctx context.Context) error {
	*p.events = append(*p.events, "pause")
	return nil
}

type stageRecorder struct {
	stages map[string]bool
}

func (s *stageRecorder) ObserveStage(stage string, d time.Duration, ok bool) {
	s.stages[stage] = ok
}

var post = models.ExtractedItem{
	Identity: "urn:li:activity:42",
	Text:     "We are hiring a platform engineer",
	Author:   models.Author{Name: "Grace Hopper"},
}

func testConfig() Config {
	return Config{
		ExtractionTimeout:  100 * time.Millisecond,
		GenerationTimeout:  100 * time.Millisecond,
		EngagementTimeout:  100 * time.Millisecond,
		GenerationAttempts: 3,
		GenerationBackoff:  time.Millisecond,
		PromptTemplate:     "template",
		Categories:         []models.Category{"LIKE", "CELEBRATE", "INSIGHTFUL"},
		DefaultCategory:    "LIKE",
		SkipSponsored:      true,
	}
}

func newPipeline(ex Extractor, gen Generator, exec Executor, opts ...Option) *Pipeline {
	opts = append([]Option{WithLogger(logger.NewNopLogger())}, opts...)
	return New(ex, gen, exec, testConfig(), opts...)
}

var handle = models.NewItemHandle("node", 0)

func TestProcessEngaged(t *testing.T) {
	gen := &fakeGenerator{decision: models.EngagementDecision{Category: "insightful", CommentText: " cfbr 🎯 "}}
	exec := &fakeExecutor{reactOK: true, commentOK: true}
	rec := &stageRecorder{stages: map[string]bool{}}
	p := newPipeline(&fakeExtractor{item: post}, gen, exec, WithStageObserver(rec))

	res := p.Process(context.Background(), handle)

	assert.Equal(t, models.ResultEngaged, res.Kind)
	assert.Equal(t, post.Identity, res.Identity)
	assert.Equal(t, models.EngagementOutcome{Reacted: true, Commented: true}, res.Outcome)
	assert.Equal(t, "Grace Hopper", res.Author)
	require.NotNil(t, res.Decision)
	assert.Equal(t, models.Category("INSIGHTFUL"), res.Decision.Category)
	assert.Equal(t, []models.Category{"INSIGHTFUL"}, exec.reacted)
	assert.Equal(t, []string{"cfbr 🎯"}, exec.commented)
	assert.Equal(t, "template", gen.template)
	assert.Greater(t, res.Duration, time.Duration(0))
	assert.Equal(t, map[string]bool{
		models.StageExtraction: true,
		models.StageGeneration: true,
		models.StageEngagement: true,
	}, rec.stages)
}

func TestProcessExtractionOutcomes(t *testing.T) {
	sponsored := post
	sponsored.Sponsored = true

	tests := []struct {
		name      string
		extractor *fakeExtractor
		reason    string
	}{
		{"empty text", &fakeExtractor{item: models.ExtractedItem{Identity: "x", Text: "   "}}, "empty text"},
		{"extractor error", &fakeExtractor{err: errors.New("node detached")}, "extraction failed"},
		{"timeout", &fakeExtractor{block: true}, "extraction timed out"},
		{"sponsored", &fakeExtractor{item: sponsored}, "sponsored"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &fakeGenerator{}
			p := newPipeline(tt.extractor, gen, &fakeExecutor{})

			start := time.Now()
			res := p.Process(context.Background(), handle)

			assert.Equal(t, models.ResultSkippedEmpty, res.Kind)
			assert.Equal(t, tt.reason, res.Reason)
			assert.Equal(t, 0, gen.calls)
			assert.Less(t, time.Since(start), time.Second)
		})
	}
}

func TestProcessExtractionFailureKeepsProbedIdentity(t *testing.T) {
	p := newPipeline(&fakeExtractor{err: errors.New("node detached")}, &fakeGenerator{}, &fakeExecutor{})
	probed := models.NewItemHandle("node", 0)
	probed.Identity = "urn:li:activity:7"

	res := p.Process(context.Background(), probed)

	assert.Equal(t, models.ResultSkippedEmpty, res.Kind)
	assert.Equal(t, models.ItemIdentity("urn:li:activity:7"), res.Identity)
}

func TestProcessSponsoredAllowed(t *testing.T) {
	sponsored := post
	sponsored.Sponsored = true
	cfg := testConfig()
	cfg.SkipSponsored = false
	p := New(&fakeExtractor{item: sponsored}, &fakeGenerator{decision: models.EngagementDecision{Category: "LIKE"}},
		&fakeExecutor{reactOK: true}, cfg, WithLogger(logger.NewNopLogger()))

	assert.Equal(t, models.ResultEngaged, p.Process(context.Background(), handle).Kind)
}

func TestProcessGenerationTimeoutIsBounded(t *testing.T) {
	gen := &fakeGenerator{block: true}
	exec := &fakeExecutor{reactOK: true}
	p := newPipeline(&fakeExtractor{item: post}, gen, exec)

	start := time.Now()
	res := p.Process(context.Background(), handle)

	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, models.ResultSkippedError, res.Kind)
	assert.Equal(t, models.StageGeneration, res.Stage)
	assert.True(t, errs.Is(res.Cause, errs.ErrorTypeGenerationTimeout))
	assert.Empty(t, exec.reacted)
}

func TestProcessGenerationRetriesTransientFailure(t *testing.T) {
	gen := &fakeGenerator{
		results:  []error{errs.GenerationFailure("malformed JSON", nil)},
		decision: models.EngagementDecision{Category: "LIKE", CommentText: "Great insight 💡"},
	}
	p := newPipeline(&fakeExtractor{item: post}, gen, &fakeExecutor{reactOK: true, commentOK: true})

	res := p.Process(context.Background(), handle)

	assert.Equal(t, models.ResultEngaged, res.Kind)
	assert.Equal(t, 2, gen.calls)
}

func TestProcessGenerationExhausted(t *testing.T) {
	failure := errs.GenerationFailure("malformed JSON", nil)
	gen := &fakeGenerator{results: []error{failure, failure, failure, failure}}
	p := newPipeline(&fakeExtractor{item: post}, gen, &fakeExecutor{reactOK: true})

	res := p.Process(context.Background(), handle)

	assert.Equal(t, models.ResultSkippedError, res.Kind)
	assert.Equal(t, models.StageGeneration, res.Stage)
	assert.Equal(t, 3, gen.calls)
	assert.ErrorIs(t, res.Cause, failure)
}

func TestProcessPartialEngagement(t *testing.T) {
	gen := &fakeGenerator{decision: models.EngagementDecision{Category: "LIKE", CommentText: "Well said 👏"}}
	exec := &fakeExecutor{reactErr: errs.ActionFailure("reaction button not found", nil), commentOK: true}
	p := newPipeline(&fakeExtractor{item: post}, gen, exec)

	res := p.Process(context.Background(), handle)

	assert.Equal(t, models.ResultEngaged, res.Kind)
	assert.Equal(t, models.EngagementOutcome{Reacted: false, Commented: true}, res.Outcome)
}

func TestProcessMisreportedReactDoesNotCount(t *testing.T) {
	gen := &fakeGenerator{decision: models.EngagementDecision{Category: "LIKE"}}
	exec := &fakeExecutor{reactOK: false}
	p := newPipeline(&fakeExtractor{item: post}, gen, exec)

	res := p.Process(context.Background(), handle)

	assert.Equal(t, models.ResultSkippedError, res.Kind)
	assert.Equal(t, models.StageEngagement, res.Stage)
	assert.True(t, errs.Is(res.Cause, errs.ErrorTypeAction))
	assert.Empty(t, exec.commented)
}

func TestProcessEngagementFailure(t *testing.T) {
	gen := &fakeGenerator{decision: models.EngagementDecision{Category: "LIKE", CommentText: "Nice 👍"}}
	exec := &fakeExecutor{
		reactErr:   errors.New("click intercepted"),
		commentErr: errors.New("editor missing"),
	}
	p := newPipeline(&fakeExtractor{item: post}, gen, exec)

	res := p.Process(context.Background(), handle)

	assert.Equal(t, models.ResultSkippedError, res.Kind)
	assert.Contains(t, res.Reason, "click intercepted")
	assert.Contains(t, res.Reason, "editor missing")
}

func TestProcessRateLimited(t *testing.T) {
	gen := &fakeGenerator{decision: models.EngagementDecision{Category: "LIKE", CommentText: "Nice 👍"}}
	exec := &fakeExecutor{reactErr: errs.RateLimitSignal("you're doing that too much")}
	p := newPipeline(&fakeExtractor{item: post}, gen, exec)

	res := p.Process(context.Background(), handle)

	assert.Equal(t, models.ResultRateLimited, res.Kind)
	assert.Equal(t, models.StageEngagement, res.Stage)
	assert.Empty(t, exec.commented)
}

func TestProcessCommentRateLimitedKeepsOutcome(t *testing.T) {
	gen := &fakeGenerator{decision: models.EngagementDecision{Category: "LIKE", CommentText: "Nice 👍"}}
	exec := &fakeExecutor{reactOK: true, commentErr: errs.RateLimitSignal("slow down")}
	p := newPipeline(&fakeExtractor{item: post}, gen, exec)

	res := p.Process(context.Background(), handle)

	assert.Equal(t, models.ResultRateLimited, res.Kind)
	assert.True(t, res.Outcome.Reacted)
}

func TestProcessReactOnlyWhenNoComment(t *testing.T) {
	var events []string
	gen := &fakeGenerator{decision: models.EngagementDecision{Category: "CELEBRATE"}}
	exec := &fakeExecutor{reactOK: true, events: &events}
	p := newPipeline(&fakeExtractor{item: post}, gen, exec, WithPauser(recordingPauser{events: &events}))

	res := p.Process(context.Background(), handle)

	assert.Equal(t, models.ResultEngaged, res.Kind)
	assert.Equal(t, models.EngagementOutcome{Reacted: true}, res.Outcome)
	assert.Equal(t, []string{"react"}, events)
}

func TestProcessPausesBetweenReactAndComment(t *testing.T) {
	var events []string
	gen := &fakeGenerator{decision: models.EngagementDecision{Category: "LIKE", CommentText: "Thanks for sharing 🙌"}}
	exec := &fakeExecutor{reactOK: true, commentOK: true, events: &events}
	p := newPipeline(&fakeExtractor{item: post}, gen, exec, WithPauser(recordingPauser{events: &events}))

	p.Process(context.Background(), handle)

	assert.Equal(t, []string{"react", "pause", "comment"}, events)
}

func TestProcessUnknownCategoryFallsBack(t *testing.T) {
	gen := &fakeGenerator{decision: models.EngagementDecision{Category: "ANGRY"}}
	exec := &fakeExecutor{reactOK: true}
	p := newPipeline(&fakeExtractor{item: post}, gen, exec)

	res := p.Process(context.Background(), handle)

	assert.Equal(t, []models.Category{"LIKE"}, exec.reacted)
	assert.Equal(t, models.Category("LIKE"), res.Decision.Category)
}

func TestProcessRecoversPanic(t *testing.T) {
	gen := &fakeGenerator{decision: models.EngagementDecision{Category: "LIKE"}}
	p := newPipeline(&fakeExtractor{item: post}, gen, &fakeExecutor{panicOn: "react"})

	var res models.PipelineResult
	require.NotPanics(t, func() { res = p.Process(context.Background(), handle) })
	assert.Equal(t, models.ResultSkippedError, res.Kind)
	assert.Equal(t, models.StageEngagement, res.Stage)
	assert.Equal(t, post.Identity, res.Identity)
	assert.Contains(t, res.Reason, "stale node")
}

func TestProcessIgnoresCallerCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	gen := &fakeGenerator{decision: models.EngagementDecision{Category: "LIKE"}}
	p := newPipeline(&fakeExtractor{item: post}, gen, &fakeExecutor{reactOK: true})

	res := p.Process(ctx, handle)
	assert.Equal(t, models.ResultEngaged, res.Kind)
}
