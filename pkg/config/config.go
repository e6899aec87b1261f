package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Failure policies for per-item errors
const (
	FailurePolicySoft   = "soft"
	FailurePolicyStrict = "strict"
)

// Config holds all configuration options for feedengage
type Config struct {
	// Per-platform credentials and session sizing, keyed by platform name
	Platforms map[string]PlatformConfig `yaml:"platforms" json:"platforms"`

	Run       RunConfig       `yaml:"run" json:"run"`
	Timeouts  TimeoutConfig   `yaml:"timeouts" json:"timeouts"`
	Backoff   BackoffConfig   `yaml:"backoff" json:"backoff"`
	Pacing    PacingConfig    `yaml:"pacing" json:"pacing"`
	Browser   BrowserConfig   `yaml:"browser" json:"browser"`
	Generator GeneratorConfig `yaml:"generator" json:"generator"`

	// Notification preferences
	Notifications NotificationConfig `yaml:"notifications" json:"notifications"`

	Logging LoggingConfig `yaml:"logging" json:"logging"`
	Metrics MetricsConfig `yaml:"metrics" json:"metrics"`
	History HistoryConfig `yaml:"history" json:"history"`
}

// PlatformConfig holds platform-specific settings
type PlatformConfig struct {
	Username        string        `yaml:"username" json:"username"`
	Password        string        `yaml:"password" json:"-"`
	ItemsPerSession int           `yaml:"items_per_session" json:"items_per_session"`
	EngagementDelay time.Duration `yaml:"engagement_delay" json:"engagement_delay"`
}

// HasCredentials reports whether both username and password are set
func (p PlatformConfig) HasCredentials() bool {
	return p.Username != "" && p.Password != ""
}

// RunConfig controls the traversal loop
type RunConfig struct {
	Platform           string        `yaml:"platform" json:"platform"`
	TargetItemCount    int           `yaml:"target_item_count" json:"target_item_count"`
	ScrollStallLimit   int           `yaml:"scroll_stall_limit" json:"scroll_stall_limit"`
	ScrollIdleLimit    int           `yaml:"scroll_idle_limit" json:"scroll_idle_limit"`
	SessionSettleDelay time.Duration `yaml:"session_settle_delay" json:"session_settle_delay"`
	FailurePolicy      string        `yaml:"failure_policy" json:"failure_policy"`
	SkipSponsored      bool          `yaml:"skip_sponsored" json:"skip_sponsored"`
	Parallel           int           `yaml:"parallel" json:"parallel"`
}

// TimeoutConfig bounds every suspension point of a run
type TimeoutConfig struct {
	ExtractionField time.Duration `yaml:"extraction_field" json:"extraction_field"`
	ExtractionItem  time.Duration `yaml:"extraction_item" json:"extraction_item"`
	Generation      time.Duration `yaml:"generation" json:"generation"`
	Engagement      time.Duration `yaml:"engagement" json:"engagement"`
	Login           time.Duration `yaml:"login" json:"login"`
	ScrollSettle    time.Duration `yaml:"scroll_settle" json:"scroll_settle"`
	Teardown        time.Duration `yaml:"teardown" json:"teardown"`
}

// BackoffConfig holds cooldown and retry settings
type BackoffConfig struct {
	RateLimitCooldown  time.Duration `yaml:"rate_limit_cooldown" json:"rate_limit_cooldown"`
	MaxCooldown        time.Duration `yaml:"max_cooldown" json:"max_cooldown"`
	FailureThreshold   int           `yaml:"failure_threshold" json:"failure_threshold"`
	FailureCooldown    time.Duration `yaml:"failure_cooldown" json:"failure_cooldown"`
	MaxRateLimitHits   int           `yaml:"max_rate_limit_hits" json:"max_rate_limit_hits"`
	GenerationAttempts int           `yaml:"generation_attempts" json:"generation_attempts"`
	GenerationBackoff  time.Duration `yaml:"generation_backoff" json:"generation_backoff"`
}

// PacingConfig holds the human-like delay between actions
type PacingConfig struct {
	MinDelay       time.Duration `yaml:"min_delay" json:"min_delay"`
	MaxDelay       time.Duration `yaml:"max_delay" json:"max_delay"`
	ActionsPerHour int           `yaml:"actions_per_hour" json:"actions_per_hour"`
}

// BrowserConfig holds the automation driver settings
type BrowserConfig struct {
	Headless     bool          `yaml:"headless" json:"headless"`
	Timeout      time.Duration `yaml:"timeout" json:"timeout"`
	UserAgent    string        `yaml:"user_agent" json:"user_agent"`
	ExecPath     string        `yaml:"exec_path" json:"exec_path"`
	WindowWidth  int           `yaml:"window_width" json:"window_width"`
	WindowHeight int           `yaml:"window_height" json:"window_height"`
}

// GeneratorConfig holds the content generator settings
type GeneratorConfig struct {
	APIKey      string  `yaml:"api_key" json:"-"`
	Model       string  `yaml:"model" json:"model"`
	Temperature float64 `yaml:"temperature" json:"temperature"`
	MaxTokens   int     `yaml:"max_tokens" json:"max_tokens"`
}

// NotificationConfig holds notification preferences
type NotificationConfig struct {
	Enabled          bool   `yaml:"enabled" json:"enabled"`
	OnComplete       bool   `yaml:"on_complete" json:"on_complete"`
	OnError          bool   `yaml:"on_error" json:"on_error"`
	OnRateLimit      bool   `yaml:"on_rate_limit" json:"on_rate_limit"`
	ProgressInterval int    `yaml:"progress_interval" json:"progress_interval"`
	NotificationType string `yaml:"notification_type" json:"notification_type"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level   string `yaml:"level" json:"level"`
	File    string `yaml:"file" json:"file"`
	NoColor bool   `yaml:"no_color" json:"no_color"`
}

// MetricsConfig controls the prometheus registry and listener
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Listen  string `yaml:"listen" json:"listen"`
}

// HistoryConfig controls where run reports are kept
type HistoryConfig struct {
	Enabled   bool   `yaml:"enabled" json:"enabled"`
	Directory string `yaml:"directory" json:"directory"`
	Keep      int    `yaml:"keep" json:"keep"`
}

// KnownPlatforms lists the platform names the env loader understands
var KnownPlatforms = []string{"linkedin", "facebook", "instagram"}

var defaultItemsPerSession = map[string]int{
	"linkedin":  10,
	"facebook":  8,
	"instagram": 5,
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Platforms: map[string]PlatformConfig{
			"linkedin":  {ItemsPerSession: defaultItemsPerSession["linkedin"]},
			"facebook":  {ItemsPerSession: defaultItemsPerSession["facebook"]},
			"instagram": {ItemsPerSession: defaultItemsPerSession["instagram"]},
		},
		Run: RunConfig{
			Platform:           "linkedin",
			ScrollStallLimit:   5,
			ScrollIdleLimit:    25,
			SessionSettleDelay: 20 * time.Second,
			FailurePolicy:      FailurePolicySoft,
			SkipSponsored:      true,
			Parallel:           1,
		},
		Timeouts: TimeoutConfig{
			ExtractionField: 5 * time.Second,
			ExtractionItem:  15 * time.Second,
			Generation:      30 * time.Second,
			Engagement:      30 * time.Second,
			Login:           60 * time.Second,
			ScrollSettle:    2 * time.Second,
			Teardown:        10 * time.Second,
		},
		Backoff: BackoffConfig{
			RateLimitCooldown:  300 * time.Second,
			MaxCooldown:        30 * time.Minute,
			FailureThreshold:   3,
			FailureCooldown:    30 * time.Second,
			MaxRateLimitHits:   3,
			GenerationAttempts: 3,
			GenerationBackoff:  500 * time.Millisecond,
		},
		Pacing: PacingConfig{
			MinDelay: 1 * time.Second,
			MaxDelay: 3 * time.Second,
		},
		Browser: BrowserConfig{
			Timeout:      30 * time.Second,
			WindowWidth:  1280,
			WindowHeight: 900,
		},
		Generator: GeneratorConfig{
			Model:       "claude-3-5-haiku-latest",
			Temperature: 0.7,
			MaxTokens:   150,
		},
		Notifications: NotificationConfig{
			Enabled:          true,
			OnComplete:       true,
			OnError:          true,
			OnRateLimit:      true,
			ProgressInterval: 5,
			NotificationType: "terminal",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Metrics: MetricsConfig{
			Listen: "127.0.0.1:9464",
		},
		History: HistoryConfig{
			Enabled: true,
			Keep:    50,
		},
	}
}

// Platform returns the settings for a platform, falling back to defaults
func (c *Config) Platform(name string) PlatformConfig {
	name = strings.ToLower(name)
	p := c.Platforms[name]
	if p.ItemsPerSession == 0 {
		p.ItemsPerSession = defaultItemsPerSession[name]
	}
	return p
}

// ConfiguredPlatforms returns the sorted names of platforms that have credentials
func (c *Config) ConfiguredPlatforms() []string {
	var names []string
	for name, p := range c.Platforms {
		if p.HasCredentials() {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// TargetFor returns the item target for a platform run: the explicit run
// target when set, otherwise the platform's items per session.
func (c *Config) TargetFor(platform string) int {
	if c.Run.TargetItemCount > 0 {
		return c.Run.TargetItemCount
	}
	return c.Platform(platform).ItemsPerSession
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	var errs []error

	if c.Platforms == nil {
		c.Platforms = make(map[string]PlatformConfig)
	}
	for _, name := range KnownPlatforms {
		prefix := strings.ToUpper(name) + "_"
		p := c.Platforms[name]
		if v := os.Getenv(prefix + "USERNAME"); v != "" {
			p.Username = v
		}
		if v := os.Getenv(prefix + "PASSWORD"); v != "" {
			p.Password = v
		}
		if v := os.Getenv(prefix + "POSTS_PER_SESSION"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%sPOSTS_PER_SESSION: %w", prefix, err))
			} else {
				p.ItemsPerSession = n
			}
		}
		if v := os.Getenv(prefix + "ENGAGEMENT_DELAY"); v != "" {
			d, err := parseSeconds(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%sENGAGEMENT_DELAY: %w", prefix, err))
			} else {
				p.EngagementDelay = d
			}
		}
		c.Platforms[name] = p
	}

	if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" {
		c.Generator.APIKey = v
	}
	if v := os.Getenv("AI_MODEL"); v != "" {
		c.Generator.Model = v
	}
	if v := os.Getenv("AI_TEMPERATURE"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("AI_TEMPERATURE: %w", err))
		} else {
			c.Generator.Temperature = f
		}
	}
	if v := os.Getenv("AI_MAX_TOKENS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("AI_MAX_TOKENS: %w", err))
		} else {
			c.Generator.MaxTokens = n
		}
	}

	if v := os.Getenv("HEADLESS"); v != "" {
		c.Browser.Headless = strings.ToLower(v) == "true"
	}
	if v := os.Getenv("BROWSER_TIMEOUT"); v != "" {
		d, err := parseSeconds(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("BROWSER_TIMEOUT: %w", err))
		} else {
			c.Browser.Timeout = d
		}
	}

	if v := os.Getenv("FEEDENGAGE_PLATFORM"); v != "" {
		c.Run.Platform = strings.ToLower(v)
	}
	if v := os.Getenv("FEEDENGAGE_TARGET"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("FEEDENGAGE_TARGET: %w", err))
		} else {
			c.Run.TargetItemCount = n
		}
	}
	if v := os.Getenv("FEEDENGAGE_FAILURE_POLICY"); v != "" {
		c.Run.FailurePolicy = strings.ToLower(v)
	}
	if v := os.Getenv("FEEDENGAGE_NOTIFICATIONS_ENABLED"); v != "" {
		c.Notifications.Enabled = strings.ToLower(v) == "true"
	}
	if v := os.Getenv("FEEDENGAGE_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("FEEDENGAGE_METRICS_LISTEN"); v != "" {
		c.Metrics.Enabled = true
		c.Metrics.Listen = v
	}
	if v := os.Getenv("FEEDENGAGE_HISTORY_DIR"); v != "" {
		c.History.Directory = v
	}

	return errors.Join(errs...)
}

// parseSeconds accepts either a bare number of seconds, as the original
// environment files use, or a Go duration string.
func parseSeconds(v string) (time.Duration, error) {
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	return time.ParseDuration(v)
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	if path == "" {
		path = FindConfigFile()
		if path == "" {
			return nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// FindConfigFile searches for a config file in the standard locations
func FindConfigFile() string {
	home := os.Getenv("HOME")
	locations := []string{
		".feedengage.yaml",
		".feedengage.yml",
		filepath.Join(ConfigDir(), "config.yaml"),
		filepath.Join(ConfigDir(), "config.yml"),
		filepath.Join(home, ".feedengage.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}
	return ""
}

// ConfigDir returns the XDG config directory for feedengage
func ConfigDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "feedengage")
	}
	return filepath.Join(os.Getenv("HOME"), ".config", "feedengage")
}

// DataDir returns the XDG data directory for feedengage
func DataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "feedengage")
	}
	return filepath.Join(os.Getenv("HOME"), ".local", "share", "feedengage")
}

// HistoryDir returns the configured run history directory
func (c *Config) HistoryDir() string {
	if c.History.Directory != "" {
		return c.History.Directory
	}
	return filepath.Join(DataDir(), "runs")
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.Run.TargetItemCount < 0 {
		errs = append(errs, errors.New("target item count cannot be negative"))
	}
	if c.Run.ScrollStallLimit <= 0 {
		errs = append(errs, errors.New("scroll stall limit must be positive"))
	}
	if c.Run.ScrollIdleLimit < c.Run.ScrollStallLimit {
		errs = append(errs, errors.New("scroll idle limit must not be below the stall limit"))
	}
	if c.Run.SessionSettleDelay < 0 {
		errs = append(errs, errors.New("session settle delay cannot be negative"))
	}
	if c.Run.FailurePolicy != FailurePolicySoft && c.Run.FailurePolicy != FailurePolicyStrict {
		errs = append(errs, fmt.Errorf("invalid failure policy %q", c.Run.FailurePolicy))
	}
	if c.Run.Parallel <= 0 {
		errs = append(errs, errors.New("parallel runs must be positive"))
	}

	timeouts := map[string]time.Duration{
		"extraction_field": c.Timeouts.ExtractionField,
		"extraction_item":  c.Timeouts.ExtractionItem,
		"generation":       c.Timeouts.Generation,
		"engagement":       c.Timeouts.Engagement,
		"login":            c.Timeouts.Login,
		"scroll_settle":    c.Timeouts.ScrollSettle,
		"teardown":         c.Timeouts.Teardown,
	}
	names := make([]string, 0, len(timeouts))
	for name := range timeouts {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if timeouts[name] <= 0 {
			errs = append(errs, fmt.Errorf("timeout %s must be positive", name))
		}
	}
	if c.Timeouts.ExtractionField > c.Timeouts.ExtractionItem {
		errs = append(errs, errors.New("extraction field timeout exceeds the item budget"))
	}

	if c.Backoff.RateLimitCooldown <= 0 {
		errs = append(errs, errors.New("rate limit cooldown must be positive"))
	}
	if c.Backoff.MaxCooldown < c.Backoff.RateLimitCooldown {
		errs = append(errs, errors.New("max cooldown must not be below the rate limit cooldown"))
	}
	if c.Backoff.FailureThreshold <= 0 {
		errs = append(errs, errors.New("failure threshold must be positive"))
	}
	if c.Backoff.FailureCooldown < 0 {
		errs = append(errs, errors.New("failure cooldown cannot be negative"))
	}
	if c.Backoff.MaxRateLimitHits <= 0 {
		errs = append(errs, errors.New("max rate limit hits must be positive"))
	}
	if c.Backoff.GenerationAttempts <= 0 {
		errs = append(errs, errors.New("generation attempts must be positive"))
	}

	if c.Pacing.MinDelay < 0 || c.Pacing.MaxDelay < c.Pacing.MinDelay {
		errs = append(errs, errors.New("pacing delays must satisfy 0 <= min <= max"))
	}
	if c.Pacing.ActionsPerHour < 0 {
		errs = append(errs, errors.New("actions per hour cannot be negative"))
	}

	if c.Generator.Temperature < 0 || c.Generator.Temperature > 1 {
		errs = append(errs, errors.New("generator temperature must be between 0 and 1"))
	}
	if c.Generator.MaxTokens <= 0 {
		errs = append(errs, errors.New("generator max tokens must be positive"))
	}

	if c.Browser.Timeout <= 0 {
		errs = append(errs, errors.New("browser timeout must be positive"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	validNotifTypes := map[string]bool{
		"terminal": true, "desktop": true, "none": true,
	}
	if !validNotifTypes[strings.ToLower(c.Notifications.NotificationType)] {
		errs = append(errs, errors.New("invalid notification type"))
	}

	if c.Metrics.Enabled && c.Metrics.Listen == "" {
		errs = append(errs, errors.New("metrics listen address is required when metrics are enabled"))
	}
	if c.History.Keep < 0 {
		errs = append(errs, errors.New("history keep cannot be negative"))
	}

	return errors.Join(errs...)
}

// ValidateForRun checks what a run against one platform additionally needs
func (c *Config) ValidateForRun(platform string) error {
	var errs []error
	if !c.Platform(platform).HasCredentials() {
		errs = append(errs, fmt.Errorf("%s credentials are required", platform))
	}
	if c.Generator.APIKey == "" {
		errs = append(errs, errors.New("generator API key is required (ANTHROPIC_API_KEY)"))
	}
	if c.TargetFor(platform) <= 0 {
		errs = append(errs, fmt.Errorf("%s run target must be positive", platform))
	}
	return errors.Join(errs...)
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if v, ok := flags["platform"].(string); ok && v != "" {
		c.Run.Platform = strings.ToLower(v)
	}
	if v, ok := flags["target"].(int); ok && v > 0 {
		c.Run.TargetItemCount = v
	}
	if v, ok := flags["headless"].(bool); ok && v {
		c.Browser.Headless = true
	}
	if v, ok := flags["strict"].(bool); ok && v {
		c.Run.FailurePolicy = FailurePolicyStrict
	}
	if v, ok := flags["parallel"].(int); ok && v > 0 {
		c.Run.Parallel = v
	}
	if v, ok := flags["log-level"].(string); ok && v != "" {
		c.Logging.Level = v
	}
	if v, ok := flags["no-color"].(bool); ok && v {
		c.Logging.NoColor = true
	}
	if v, ok := flags["notifications"].(bool); ok {
		c.Notifications.Enabled = v
	}
	if v, ok := flags["metrics-listen"].(string); ok && v != "" {
		c.Metrics.Enabled = true
		c.Metrics.Listen = v
	}
}

// Load loads configuration from all sources with proper precedence.
// Precedence: command line flags > environment > .env files > config file > defaults.
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	home := os.Getenv("HOME")
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(home, ".feedengage.env"))

	cfg := DefaultConfig()

	if err := cfg.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := cfg.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg.MergeCommandLineFlags(flags)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}
