package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"feedengage/pkg/auth"
	"feedengage/pkg/config"
	"feedengage/pkg/platform"
	"feedengage/pkg/ui"
)

var platformsCmd = &cobra.Command{
	Use:   "platforms",
	Short: "List supported platforms",
	Long:  `List every registered platform with its reaction catalog and whether it has credentials.`,
	Run:   runPlatforms,
}

func init() {
	rootCmd.AddCommand(platformsCmd)
}

func runPlatforms(cmd *cobra.Command, args []string) {
	cfg, err := config.Load(configFile, globalFlags(cmd))
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		os.Exit(1)
	}
	if manager, err := auth.NewManager(); err == nil {
		manager.ApplyTo(cfg)
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		Headers("PLATFORM", "ENABLED", "CREDENTIALS", "ITEMS/SESSION", "REACTIONS")
	for _, p := range platform.All() {
		cats := make([]string, len(p.Categories))
		for i, c := range p.Categories {
			cats[i] = string(c)
		}
		t.Row(
			p.DisplayName,
			yesNo(p.Enabled),
			yesNo(cfg.Platform(p.Name).HasCredentials()),
			fmt.Sprintf("%d", cfg.Platform(p.Name).ItemsPerSession),
			strings.Join(cats, ", "),
		)
	}
	fmt.Println(t.Render())
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
