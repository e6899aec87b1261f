// Package pacing provides the human-like delays between engagement actions.
//
// A Pacer draws each pause uniformly from [min_delay, max_delay]. The
// pipeline pauses between react and comment and the orchestrator pauses
// between items. An optional hourly budget (actions_per_hour, or a
// platform's engagement_delay) is enforced with golang.org/x/time/rate.
package pacing
