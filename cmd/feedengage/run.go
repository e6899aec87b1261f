package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"feedengage/internal/fleet"
	"feedengage/pkg/auth"
	"feedengage/pkg/config"
	"feedengage/pkg/history"
	"feedengage/pkg/logger"
	"feedengage/pkg/metrics"
	"feedengage/pkg/models"
	"feedengage/pkg/platform"
	"feedengage/pkg/ui"
	"feedengage/pkg/ui/tui"
)

var (
	// Run command flags
	runTarget   int
	runHeadless bool
	runTUI      bool
	runParallel int
	runStrict   bool
	runMetrics  string
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run [platform...]",
	Short: "Engage with one or more platform feeds",
	Long: `Log into each platform, walk its feed and engage with posts until the
target is reached, the feed runs out or the run is aborted.

Without arguments you choose among the platforms that have credentials.
Several platforms run as isolated sessions; --parallel bounds how many
run at the same time.`,
	Example: `  # Engage with 10 LinkedIn posts
  feedengage run linkedin --target 10

  # Headless, full-screen monitor
  feedengage run linkedin --headless --tui

  # Abort on the first failed item
  feedengage run linkedin --strict`,
	Run: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().IntVarP(&runTarget, "target", "t", 0, "items to process per platform (default: the platform's items per session)")
	runCmd.Flags().BoolVar(&runHeadless, "headless", false, "run the browser without a window")
	runCmd.Flags().BoolVar(&runTUI, "tui", false, "use interactive terminal UI with real-time progress")
	runCmd.Flags().IntVar(&runParallel, "parallel", 0, "platforms to run at the same time")
	runCmd.Flags().BoolVar(&runStrict, "strict", false, "abort the run on the first failed item")
	runCmd.Flags().StringVar(&runMetrics, "metrics-listen", "", "serve Prometheus metrics on this address")
}

func runRun(cmd *cobra.Command, args []string) {
	flags := globalFlags(cmd)
	flags["target"] = runTarget
	flags["headless"] = runHeadless
	flags["strict"] = runStrict
	flags["parallel"] = runParallel
	flags["metrics-listen"] = runMetrics
	if runTUI && logLevel == "" && !verbose {
		// the TUI owns the terminal; keep console logs to errors
		flags["log-level"] = "error"
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		os.Exit(1)
	}

	if manager, err := auth.NewManager(); err == nil {
		manager.ApplyTo(cfg)
	} else {
		ui.PrintWarning("Credential store unavailable", err.Error())
	}

	logger.Version = version
	if err := logger.Initialize(&cfg.Logging); err != nil {
		ui.PrintError("Failed to initialize logger", err.Error())
		os.Exit(1)
	}
	logger.WithField("version", version).Info("feedengage starting")

	platforms, err := selectPlatforms(cfg, args)
	if err != nil {
		ui.PrintError("No platform to run", err.Error())
		auth.ShowCredentialGuide(os.Stdout, platform.Enabled())
		os.Exit(1)
	}
	for _, name := range platforms {
		if err := cfg.ValidateForRun(name); err != nil {
			ui.PrintError("Cannot run "+name, err.Error())
			os.Exit(1)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	factory := &sessionFactory{cfg: cfg}

	if cfg.Metrics.Enabled {
		recorder := metrics.New()
		factory.stages = recorder
		factory.observers = append(factory.observers, recorder)
		go func() {
			if err := recorder.Serve(ctx, cfg.Metrics.Listen, logger.GetLogger()); err != nil {
				logger.WithError(err).Error("Metrics listener failed")
			}
		}()
	}

	if cfg.History.Enabled {
		store, err := history.NewManager(cfg.HistoryDir())
		if err != nil {
			ui.PrintWarning("Run history disabled", err.Error())
		} else {
			factory.observers = append(factory.observers, history.NewRecorder(store, cfg.History.Keep))
		}
	}

	factory.observers = append(factory.observers, ui.NewNotifier(ui.NewPlatformSender(), os.Stdout, cfg.Notifications))

	var screen ui.Interactive
	if runTUI {
		screen = tui.NewTUI()
		factory.observers = append(factory.observers, screen)
		factory.paused = screen.IsPaused
	} else if !ui.IsQuietMode() {
		factory.observers = append(factory.observers, ui.NewProgressDisplay(os.Stdout, verbose))
	}

	f := fleet.New(cfg.Run.Parallel, factory.build, logger.GetLogger())

	var results []fleet.Result
	if screen != nil {
		results = runWithScreen(ctx, stop, screen, f, platforms)
	} else {
		ui.PrintHighlight(fmt.Sprintf("[ENGAGING: %s]", strings.Join(platforms, ", ")))
		results = f.Run(ctx, platforms)
	}

	printSummaries(fleet.Summaries(results))
	if fleet.AnyAborted(results) {
		os.Exit(1)
	}
}

// runWithScreen runs the fleet behind the full-screen display. Quitting the
// display stops the runs; the runs finishing closes the display.
func runWithScreen(ctx context.Context, stop context.CancelFunc, screen ui.Interactive, f *fleet.Fleet, platforms []string) []fleet.Result {
	screenDone := make(chan error, 1)
	go func() {
		screenDone <- screen.Start()
	}()

	runsDone := make(chan []fleet.Result, 1)
	go func() {
		runsDone <- f.Run(ctx, platforms)
	}()

	select {
	case results := <-runsDone:
		screen.Stop()
		<-screenDone
		return results
	case err := <-screenDone:
		if err != nil {
			logger.WithError(err).Error("TUI failed")
		}
		stop()
		return <-runsDone
	}
}

func printSummaries(summaries []models.RunSummary) {
	if len(summaries) == 1 {
		fmt.Print(ui.RenderSummary(summaries[0]))
		return
	}
	fmt.Print(ui.RenderSummaryTable(summaries))
}

// selectPlatforms resolves which platforms to run: the arguments, the only
// platform with credentials, or an interactive choice among several
func selectPlatforms(cfg *config.Config, args []string) ([]string, error) {
	if len(args) > 0 {
		names := make([]string, 0, len(args))
		for _, a := range args {
			names = append(names, strings.ToLower(strings.TrimSpace(a)))
		}
		if err := platform.Validate(names); err != nil {
			return nil, err
		}
		return names, nil
	}

	candidates := runnablePlatforms(cfg)
	switch {
	case len(candidates) == 0:
		return nil, fmt.Errorf("no enabled platform has credentials")
	case len(candidates) == 1:
		return candidates, nil
	case !term.IsTerminal(int(os.Stdin.Fd())):
		if contains(candidates, cfg.Run.Platform) {
			return []string{cfg.Run.Platform}, nil
		}
		return nil, fmt.Errorf("several platforms have credentials (%s); name one", strings.Join(candidates, ", "))
	}

	fmt.Println("Select platform:")
	for i, name := range candidates {
		fmt.Printf("  %d. %s\n", i+1, name)
	}
	fmt.Printf("  %d. All of them\n\n", len(candidates)+1)
	fmt.Print("Choice: ")

	input, _ := bufio.NewReader(os.Stdin).ReadString('\n')
	return choosePlatforms(candidates, input)
}

// runnablePlatforms returns the enabled platforms that have credentials
func runnablePlatforms(cfg *config.Config) []string {
	var names []string
	for _, name := range cfg.ConfiguredPlatforms() {
		if p, ok := platform.Get(name); ok && p.Enabled {
			names = append(names, name)
		}
	}
	return names
}

func choosePlatforms(candidates []string, input string) ([]string, error) {
	choice, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil || choice < 1 || choice > len(candidates)+1 {
		return nil, fmt.Errorf("invalid choice %q", strings.TrimSpace(input))
	}
	if choice == len(candidates)+1 {
		return candidates, nil
	}
	return []string{candidates[choice-1]}, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
