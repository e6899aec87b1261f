// Package orchestrator runs one platform engagement session end to end.
//
// A run validates the session, then pulls items from the feed engine one
// at a time and feeds each through the per-item pipeline. Every result goes
// to the backoff controller, which answers continue, cool down or abort.
// The loop stops when the target number of items has been yielded, the feed
// is exhausted, the controller aborts, or the context is cancelled.
//
// Usage:
//
//	run := orchestrator.New(driver, pipe, orchestrator.ConfigFor(cfg, "linkedin"),
//	    orchestrator.WithPacer(pacer),
//	    orchestrator.WithObserver(display),
//	)
//	summary := run.Run(ctx)
//
// Teardown:
//
// The driver is torn down on every exit path, on a context detached from
// the run's cancellation and bounded by Config.TeardownTimeout.
//
// Session recovery:
//
// The session is probed before every item. When it is no longer live the
// guard logs in once, waits the settle delay and the feed is reopened. Items
// already seen in this run are never processed again.
package orchestrator
