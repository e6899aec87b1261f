// Package browser drives a real Chrome session through the DevTools
// protocol. One Driver owns one browser for one platform run.
package browser

import (
	"context"
	"fmt"
	"time"

	"feedengage/pkg/config"
	errs "feedengage/pkg/errors"
	"feedengage/pkg/logger"
	"feedengage/pkg/models"
	"feedengage/pkg/platform"
	"github.com/chromedp/chromedp"
)

const (
	scrollStep      = 500
	loginPollEvery  = 500 * time.Millisecond
	fieldRetries    = 3
	fieldRetryDelay = 500 * time.Millisecond
)

// Config holds the driver's browser and timing settings
type Config struct {
	Headless     bool
	UserAgent    string
	ExecPath     string
	WindowWidth  int
	WindowHeight int
	// NavigationTimeout bounds a page load
	NavigationTimeout time.Duration
	// FieldTimeout bounds one extraction field group
	FieldTimeout time.Duration
	// ScrollSettle is waited after each scroll step
	ScrollSettle time.Duration
}

// ConfigFrom builds the driver configuration from the application config
func ConfigFrom(cfg *config.Config) Config {
	return Config{
		Headless:          cfg.Browser.Headless,
		UserAgent:         cfg.Browser.UserAgent,
		ExecPath:          cfg.Browser.ExecPath,
		WindowWidth:       cfg.Browser.WindowWidth,
		WindowHeight:      cfg.Browser.WindowHeight,
		NavigationTimeout: cfg.Browser.Timeout,
		FieldTimeout:      cfg.Timeouts.ExtractionField,
		ScrollSettle:      cfg.Timeouts.ScrollSettle,
	}
}

// Driver is a chromedp backed automation surface for one platform. It
// implements the orchestrator's Driver and the pipeline's Extractor and
// Executor.
type Driver struct {
	platform platform.Platform
	config   Config
	logger   logger.Logger

	allocCancel context.CancelFunc
	tab         context.Context
	tabCancel   context.CancelFunc
}

// New starts a browser for p. The browser outlives ctx and is released by
// Teardown.
func New(ctx context.Context, p platform.Platform, cfg Config, log logger.Logger) (*Driver, error) {
	if log == nil {
		log = logger.GetLogger()
	}
	log = log.WithFields(map[string]interface{}{"component": "browser", "platform": p.Name})

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
	)
	if cfg.WindowWidth > 0 && cfg.WindowHeight > 0 {
		opts = append(opts, chromedp.WindowSize(cfg.WindowWidth, cfg.WindowHeight))
	}
	if cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(cfg.UserAgent))
	}
	if cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ExecPath))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.WithoutCancel(ctx), opts...)
	tab, tabCancel := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(format string, args ...interface{}) {
		log.Debug(fmt.Sprintf(format, args...))
	}))

	d := &Driver{
		platform:    p,
		config:      cfg,
		logger:      log,
		allocCancel: allocCancel,
		tab:         tab,
		tabCancel:   tabCancel,
	}

	startCtx, cancel := d.bind(ctx, cfg.NavigationTimeout)
	defer cancel()
	if err := chromedp.Run(startCtx); err != nil {
		tabCancel()
		allocCancel()
		return nil, errs.Wrap(errs.ErrorTypeNetwork, "failed to start browser", err)
	}

	logger.LogComponentStart(d.logger, "browser", map[string]interface{}{
		"platform": p.Name,
		"headless": cfg.Headless,
	})
	return d, nil
}

// bind derives a context from the browser tab that carries ctx's deadline
// and cancellation, optionally tightened by timeout
func (d *Driver) bind(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	var (
		bound  context.Context
		cancel context.CancelFunc
	)
	if deadline, ok := ctx.Deadline(); ok {
		bound, cancel = context.WithDeadline(d.tab, deadline)
	} else {
		bound, cancel = context.WithCancel(d.tab)
	}
	if timeout > 0 {
		var inner context.CancelFunc
		bound, inner = context.WithTimeout(bound, timeout)
		outer := cancel
		cancel = func() { inner(); outer() }
	}
	stop := context.AfterFunc(ctx, cancel)
	return bound, func() {
		stop()
		cancel()
	}
}

func (d *Driver) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	bound, cancel := d.bind(ctx, timeout)
	defer cancel()
	return chromedp.Run(bound, actions...)
}

// ProbeLiveness reports whether the tab shows the authenticated feed
func (d *Driver) ProbeLiveness(ctx context.Context) bool {
	state, err := d.state(ctx)
	if err != nil {
		d.logger.WithError(err).Debug("Liveness probe failed")
		return false
	}
	return state == "feed"
}

// Login runs the platform login form and waits for the outcome
func (d *Driver) Login(ctx context.Context, creds models.Credentials) (models.LoginResult, error) {
	s := d.platform.Selectors
	d.logger.WithField("url", d.platform.LoginURL).Info("Logging in")

	err := d.run(ctx, d.config.NavigationTimeout,
		chromedp.Navigate(d.platform.LoginURL),
		chromedp.WaitVisible(s.LoginUsername, chromedp.ByQuery),
		chromedp.SendKeys(s.LoginUsername, creds.Username, chromedp.ByQuery),
		chromedp.SendKeys(s.LoginPassword, creds.Password, chromedp.ByQuery),
		chromedp.Click(s.LoginSubmit, chromedp.ByQuery),
	)
	if err != nil {
		return models.LoginResult{}, errs.Wrap(errs.ErrorTypeNetwork, "login form failed", err)
	}

	ticker := time.NewTicker(loginPollEvery)
	defer ticker.Stop()
	for {
		state, err := d.state(ctx)
		if err == nil {
			switch state {
			case "feed":
				return models.LoginResult{Success: true}, nil
			case "rate_limited":
				return models.LoginResult{RateLimited: true, Message: "login challenge or throttling page shown"}, nil
			case "login_error":
				return models.LoginResult{Message: "credentials rejected"}, nil
			}
		}

		select {
		case <-ctx.Done():
			return models.LoginResult{}, fmt.Errorf("login outcome not detected: %w", ctx.Err())
		case <-ticker.C:
		}
	}
}

// OpenFeed navigates to the platform feed and waits for it to render
func (d *Driver) OpenFeed(ctx context.Context) error {
	err := d.run(ctx, d.config.NavigationTimeout,
		chromedp.Navigate(d.platform.FeedURL),
		chromedp.WaitVisible(d.platform.Selectors.FeedReady, chromedp.ByQuery),
	)
	if err != nil {
		if limited, _ := d.rateLimited(ctx); limited {
			return errs.RateLimitSignal("feed blocked by throttling page")
		}
		return errs.Wrap(errs.ErrorTypeNetwork, "failed to open feed", err)
	}
	return nil
}

// Teardown closes the browser, waiting at most until ctx is done
func (d *Driver) Teardown(ctx context.Context) error {
	done := make(chan error, 1)
	go func() {
		done <- chromedp.Cancel(d.tab)
	}()

	var err error
	select {
	case err = <-done:
	case <-ctx.Done():
		err = fmt.Errorf("browser did not close in time: %w", ctx.Err())
	}
	d.tabCancel()
	d.allocCancel()
	return err
}

func (d *Driver) state(ctx context.Context) (string, error) {
	s := d.platform.Selectors
	var state string
	err := d.run(ctx, d.config.FieldTimeout,
		chromedp.Evaluate(pageState(s.RateLimit, s.LoginError, s.FeedReady), &state),
	)
	return state, err
}

func (d *Driver) rateLimited(ctx context.Context) (bool, error) {
	if d.platform.Selectors.RateLimit == "" {
		return false, nil
	}
	var limited bool
	err := d.run(ctx, d.config.FieldTimeout,
		chromedp.Evaluate(exists(d.platform.Selectors.RateLimit), &limited),
	)
	return limited, err
}
