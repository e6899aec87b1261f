package models

import (
	"fmt"
	"time"
)

// ItemIdentity is the dedup key of a feed item
type ItemIdentity string

// ItemHandle is a live reference to an item's on-surface representation.
// The reference is only meaningful to the driver that produced it.
type ItemHandle struct {
	ref      interface{}
	Position int
	// Identity is the probed identity, set once the feed engine yields the handle
	Identity ItemIdentity
}

// NewItemHandle wraps a driver-specific reference
func NewItemHandle(ref interface{}, position int) ItemHandle {
	return ItemHandle{ref: ref, Position: position}
}

// Ref returns the driver-specific reference
func (h ItemHandle) Ref() interface{} {
	return h.ref
}

// IsZero reports whether the handle carries no reference
func (h ItemHandle) IsZero() bool {
	return h.ref == nil
}

type Author struct {
	Name       string `json:"name"`
	ProfileRef string `json:"profile_ref,omitempty"`
}

type ExtractedItem struct {
	Identity  ItemIdentity `json:"identity"`
	Text      string       `json:"text"`
	Author    Author       `json:"author"`
	URL       string       `json:"url,omitempty"`
	Timestamp string       `json:"timestamp,omitempty"`
	Sponsored bool         `json:"sponsored"`
}

// Category is a platform-defined reaction kind such as LIKE or CELEBRATE
type Category string

type EngagementDecision struct {
	Category    Category `json:"category"`
	CommentText string   `json:"comment_text"`
}

type EngagementOutcome struct {
	Reacted   bool `json:"reacted"`
	Commented bool `json:"commented"`
}

// SessionState is owned by the session guard
type SessionState int

const (
	SessionInvalid SessionState = iota
	SessionValid
	SessionRecovering
)

func (s SessionState) String() string {
	switch s {
	case SessionValid:
		return "valid"
	case SessionRecovering:
		return "recovering"
	default:
		return "invalid"
	}
}

// ResultKind classifies the outcome of processing one item
type ResultKind string

const (
	ResultEngaged      ResultKind = "engaged"
	ResultSkippedEmpty ResultKind = "skipped_empty"
	ResultSkippedError ResultKind = "skipped_error"
	ResultRateLimited  ResultKind = "rate_limited"
)

// Pipeline stages reported in SkippedError results
const (
	StageExtraction = "extraction"
	StageGeneration = "generation"
	StageEngagement = "engagement"
)

// PipelineResult is produced once per processed item
type PipelineResult struct {
	Kind     ResultKind          `json:"kind"`
	Identity ItemIdentity        `json:"identity,omitempty"`
	Stage    string              `json:"stage,omitempty"`
	Cause    error               `json:"-"`
	Reason   string              `json:"reason,omitempty"`
	Outcome  EngagementOutcome   `json:"outcome"`
	Decision *EngagementDecision `json:"decision,omitempty"`
	Author   string              `json:"author,omitempty"`
	Duration time.Duration       `json:"duration"`
}

func Engaged(id ItemIdentity, outcome EngagementOutcome) PipelineResult {
	return PipelineResult{Kind: ResultEngaged, Identity: id, Outcome: outcome}
}

func SkippedEmpty(id ItemIdentity, reason string) PipelineResult {
	return PipelineResult{Kind: ResultSkippedEmpty, Identity: id, Reason: reason}
}

func SkippedError(id ItemIdentity, stage string, cause error) PipelineResult {
	r := PipelineResult{Kind: ResultSkippedError, Identity: id, Stage: stage, Cause: cause}
	if cause != nil {
		r.Reason = cause.Error()
	}
	return r
}

func RateLimited(id ItemIdentity, stage string, cause error) PipelineResult {
	r := PipelineResult{Kind: ResultRateLimited, Identity: id, Stage: stage, Cause: cause}
	if cause != nil {
		r.Reason = cause.Error()
	}
	return r
}

func (r PipelineResult) String() string {
	switch r.Kind {
	case ResultSkippedError:
		return fmt.Sprintf("%s(%s: %s)", r.Kind, r.Stage, r.Reason)
	case ResultEngaged:
		return fmt.Sprintf("%s(reacted=%t, commented=%t)", r.Kind, r.Outcome.Reacted, r.Outcome.Commented)
	default:
		if r.Reason != "" {
			return fmt.Sprintf("%s(%s)", r.Kind, r.Reason)
		}
		return string(r.Kind)
	}
}

// ActionKind is what the backoff controller tells the orchestrator to do next
type ActionKind string

const (
	ActionContinue ActionKind = "continue"
	ActionCooldown ActionKind = "cooldown"
	ActionAbort    ActionKind = "abort"
)

type Action struct {
	Kind     ActionKind
	Duration time.Duration
	Cause    error
}

func Continue() Action { return Action{Kind: ActionContinue} }

func Cooldown(d time.Duration) Action { return Action{Kind: ActionCooldown, Duration: d} }

func Abort(cause error) Action { return Action{Kind: ActionAbort, Cause: cause} }

// RunCounters are process-local and reset at run start
type RunCounters struct {
	ItemsYielded        int `json:"items_yielded"`
	ItemsEngaged        int `json:"items_engaged"`
	ItemsSkipped        int `json:"items_skipped"`
	ConsecutiveStalls   int `json:"consecutive_stalls"`
	ConsecutiveFailures int `json:"consecutive_failures"`
	RateLimitHits       int `json:"rate_limit_hits"`
	Cooldowns           int `json:"cooldowns"`
}

// Reset zeroes every counter
func (c *RunCounters) Reset() {
	*c = RunCounters{}
}

// TerminationKind explains why a run stopped
type TerminationKind string

const (
	TerminationTargetReached TerminationKind = "target reached"
	TerminationFeedExhausted TerminationKind = "feed exhausted"
	TerminationAborted       TerminationKind = "aborted"
)

type Termination struct {
	Kind  TerminationKind `json:"kind"`
	Cause string          `json:"cause,omitempty"`
}

func (t Termination) String() string {
	if t.Kind == TerminationAborted {
		if t.Cause == "" {
			return string(TerminationAborted)
		}
		return fmt.Sprintf("%s: %s", TerminationAborted, t.Cause)
	}
	return string(t.Kind)
}

// RunSummary is reported at the end of every run
type RunSummary struct {
	RunID        string        `json:"run_id"`
	Platform     string        `json:"platform"`
	ItemsYielded int           `json:"items_yielded"`
	ItemsEngaged int           `json:"items_engaged"`
	ItemsSkipped int           `json:"items_skipped"`
	Cooldowns    int           `json:"cooldowns"`
	Termination  Termination   `json:"termination"`
	StartedAt    time.Time     `json:"started_at"`
	Duration     time.Duration `json:"duration"`
}

// Credentials for the platform login sequence
type Credentials struct {
	Username string
	Password string
}

// LoginResult is reported by the driver's login sequence
type LoginResult struct {
	Success     bool
	RateLimited bool
	Message     string
}

// ScrollResult is reported by one incremental scroll step
type ScrollResult struct {
	NewExtent bool
}

// RunInfo describes a run when it starts
type RunInfo struct {
	RunID     string    `json:"run_id"`
	Platform  string    `json:"platform"`
	Target    int       `json:"target"`
	StartedAt time.Time `json:"started_at"`
}
