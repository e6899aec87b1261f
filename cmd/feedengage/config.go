package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"feedengage/pkg/auth"
	"feedengage/pkg/config"
	"feedengage/pkg/ui"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage feedengage configuration files.

Configuration can be loaded from:
  - Command line flags (highest priority)
  - Environment variables
  - .env files
  - Configuration file
  - Default values (lowest priority)`,
}

// initCmd represents the config init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a configuration file with the defaults",
	Long: `Write every option with its default value to a configuration file.

The file is created at the --config path, or in the feedengage config
directory when no path is given.`,
	Run: runConfigInit,
}

// showCmd represents the config show command
var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long: `Show the effective configuration after merging every source.

Passwords and API keys are masked.`,
	Run: runConfigShow,
}

// validateCmd represents the config validate command
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration",
	Long: `Validate the configuration for syntax errors and invalid values, and
report which platforms are ready to run.`,
	Run: runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(initCmd)
	configCmd.AddCommand(showCmd)
	configCmd.AddCommand(validateCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) {
	configPath := configFile
	if configPath == "" {
		configPath = filepath.Join(config.ConfigDir(), "config.yaml")
	}

	if _, err := os.Stat(configPath); err == nil {
		ui.PrintError("Configuration file already exists", configPath)
		fmt.Println("\nTo overwrite, first remove the existing file:")
		fmt.Printf("  rm %s\n", configPath)
		os.Exit(1)
	}

	if err := config.DefaultConfig().Save(configPath); err != nil {
		ui.PrintError("Failed to create configuration file", err.Error())
		os.Exit(1)
	}

	ui.PrintSuccess("Configuration file created: " + configPath)
	fmt.Println("\nNext steps:")
	fmt.Println("1. Store a login with 'feedengage auth login' or edit the platforms section")
	fmt.Println("2. Set ANTHROPIC_API_KEY or generator.api_key")
	fmt.Println("3. Run 'feedengage config validate' to check the configuration")
	fmt.Println("4. Start with 'feedengage run'")
}

func runConfigShow(cmd *cobra.Command, args []string) {
	cfg, err := config.Load(configFile, globalFlags(cmd))
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		os.Exit(1)
	}

	data, err := yaml.Marshal(maskedConfig(cfg))
	if err != nil {
		ui.PrintError("Failed to format configuration", err.Error())
		os.Exit(1)
	}

	ui.PrintHighlight("Current Configuration")
	fmt.Println()
	fmt.Print(string(data))

	fmt.Println("\nConfiguration sources (in order of priority):")
	fmt.Println("1. Command line flags")
	fmt.Println("2. Environment variables")
	fmt.Println("3. .env files")
	if path := resolveConfigPath(); path != "" {
		fmt.Printf("4. Configuration file: %s\n", path)
	} else {
		fmt.Println("4. Configuration file: (none found)")
	}
	fmt.Println("5. Default values")
}

// maskedConfig returns a copy safe to print
func maskedConfig(cfg *config.Config) *config.Config {
	masked := *cfg
	masked.Platforms = make(map[string]config.PlatformConfig, len(cfg.Platforms))
	for name, p := range cfg.Platforms {
		if p.Password != "" {
			p.Password = auth.SanitizeAccount(&auth.Account{Password: p.Password}).Password
		}
		masked.Platforms[name] = p
	}
	if masked.Generator.APIKey != "" {
		masked.Generator.APIKey = auth.SanitizeAccount(&auth.Account{Password: masked.Generator.APIKey}).Password
	}
	return &masked
}

func runConfigValidate(cmd *cobra.Command, args []string) {
	path := resolveConfigPath()
	if path != "" {
		ui.PrintInfo("Validating configuration", path)
	} else {
		ui.PrintInfo("Validating configuration", "defaults and environment")
	}

	cfg, err := config.Load(path, globalFlags(cmd))
	if err != nil {
		ui.PrintError("Configuration validation failed", err.Error())
		os.Exit(1)
	}
	if manager, err := auth.NewManager(); err == nil {
		manager.ApplyTo(cfg)
	}

	var warnings []string
	ready := runnablePlatforms(cfg)
	if len(ready) == 0 {
		warnings = append(warnings, "no enabled platform has credentials")
	}
	for _, name := range ready {
		if err := cfg.ValidateForRun(name); err != nil {
			warnings = append(warnings, err.Error())
		}
	}
	if cfg.Logging.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Logging.File), 0755); err != nil {
			warnings = append(warnings, fmt.Sprintf("cannot create log directory: %v", err))
		}
	}

	if len(warnings) > 0 {
		ui.PrintWarning("Configuration warnings:", "")
		for _, warn := range warnings {
			fmt.Printf("  - %s\n", warn)
		}
		fmt.Println()
	}

	ui.PrintSuccess("Configuration is valid")

	fmt.Println("\nConfiguration summary:")
	fmt.Printf("  Ready platforms: %v\n", ready)
	fmt.Printf("  Failure policy: %s\n", cfg.Run.FailurePolicy)
	fmt.Printf("  Parallel runs: %d\n", cfg.Run.Parallel)
	fmt.Printf("  Rate limit cooldown: %s\n", cfg.Backoff.RateLimitCooldown)
	fmt.Printf("  Generator model: %s\n", cfg.Generator.Model)
	fmt.Printf("  Log level: %s\n", cfg.Logging.Level)
}
