package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"feedengage/pkg/config"
	"feedengage/pkg/history"
	"feedengage/pkg/models"
	"feedengage/pkg/ui"
)

var historyKeep int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect past runs",
	Long:  `List, show and prune the reports saved after every run.`,
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved runs, newest first",
	Run:   runHistoryList,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show one run and its items",
	Long:  `Show one saved run. A unique prefix of the run id is enough.`,
	Args:  cobra.ExactArgs(1),
	Run:   runHistoryShow,
}

var historyPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete all but the newest runs",
	Run:   runHistoryPrune,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyPruneCmd)

	historyPruneCmd.Flags().IntVar(&historyKeep, "keep", 10, "number of runs to keep")
}

func historyManager(cmd *cobra.Command) *history.Manager {
	cfg, err := config.Load(configFile, globalFlags(cmd))
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		os.Exit(1)
	}
	m, err := history.NewManager(cfg.HistoryDir())
	if err != nil {
		ui.PrintError("Failed to open run history", err.Error())
		os.Exit(1)
	}
	return m
}

func runHistoryList(cmd *cobra.Command, args []string) {
	reports, err := historyManager(cmd).List()
	if err != nil {
		ui.PrintError("Failed to list runs", err.Error())
		os.Exit(1)
	}
	if len(reports) == 0 {
		ui.PrintInfo("No saved runs", "Reports are written after every 'feedengage run'")
		return
	}

	summaries := make([]models.RunSummary, len(reports))
	for i, r := range reports {
		summaries[i] = r.Summary
	}
	fmt.Print(ui.RenderSummaryTable(summaries))
}

func runHistoryShow(cmd *cobra.Command, args []string) {
	report, err := historyManager(cmd).Load(args[0])
	if err != nil {
		ui.PrintError("Run not found", err.Error())
		os.Exit(1)
	}

	ui.PrintHighlight(fmt.Sprintf("Run %s on %s", report.RunID, report.Platform))
	fmt.Print(ui.RenderSummary(report.Summary))
	fmt.Println()

	for i, item := range report.Items {
		line := fmt.Sprintf("%3d. %-14s %s", i+1, item.Kind, item.Identity)
		if item.Author != "" {
			line += "  " + item.Author
		}
		fmt.Println(line)
		switch {
		case item.Reason != "":
			fmt.Printf("     %s: %s\n", item.Stage, item.Reason)
		case item.Comment != "":
			fmt.Printf("     %s: %q\n", item.Category, item.Comment)
		case item.Category != "":
			fmt.Printf("     %s\n", item.Category)
		}
	}
}

func runHistoryPrune(cmd *cobra.Command, args []string) {
	removed, err := historyManager(cmd).Prune(historyKeep)
	if err != nil {
		ui.PrintError("Failed to prune run history", err.Error())
		os.Exit(1)
	}
	ui.PrintSuccess(fmt.Sprintf("Removed %d run(s), kept the newest %d", removed, historyKeep))
}
