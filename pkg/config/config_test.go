package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "linkedin", cfg.Run.Platform)
	assert.Equal(t, 5, cfg.Run.ScrollStallLimit)
	assert.Equal(t, 20*time.Second, cfg.Run.SessionSettleDelay)
	assert.Equal(t, FailurePolicySoft, cfg.Run.FailurePolicy)
	assert.True(t, cfg.Run.SkipSponsored)

	assert.Equal(t, 5*time.Second, cfg.Timeouts.ExtractionField)
	assert.Equal(t, 15*time.Second, cfg.Timeouts.ExtractionItem)
	assert.Equal(t, 30*time.Second, cfg.Timeouts.Generation)
	assert.Equal(t, 30*time.Second, cfg.Timeouts.Engagement)

	assert.Equal(t, 300*time.Second, cfg.Backoff.RateLimitCooldown)
	assert.Equal(t, 3, cfg.Backoff.FailureThreshold)
	assert.Equal(t, 30*time.Second, cfg.Backoff.FailureCooldown)
	assert.Equal(t, 3, cfg.Backoff.GenerationAttempts)

	assert.Equal(t, time.Second, cfg.Pacing.MinDelay)
	assert.Equal(t, 3*time.Second, cfg.Pacing.MaxDelay)

	assert.Equal(t, 0.7, cfg.Generator.Temperature)
	assert.Equal(t, 150, cfg.Generator.MaxTokens)

	assert.Equal(t, 10, cfg.TargetFor("linkedin"))
	assert.Equal(t, 8, cfg.TargetFor("facebook"))
	assert.Equal(t, 5, cfg.TargetFor("instagram"))

	assert.NoError(t, cfg.Validate())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("LINKEDIN_USERNAME", "ada@example.com")
	t.Setenv("LINKEDIN_PASSWORD", "hunter2")
	t.Setenv("LINKEDIN_POSTS_PER_SESSION", "12")
	t.Setenv("LINKEDIN_ENGAGEMENT_DELAY", "30")
	t.Setenv("FACEBOOK_ENGAGEMENT_DELAY", "45s")
	t.Setenv("ANTHROPIC_API_KEY", "sk-test")
	t.Setenv("AI_TEMPERATURE", "0.4")
	t.Setenv("AI_MAX_TOKENS", "200")
	t.Setenv("HEADLESS", "True")
	t.Setenv("BROWSER_TIMEOUT", "45")
	t.Setenv("FEEDENGAGE_FAILURE_POLICY", "STRICT")
	t.Setenv("FEEDENGAGE_LOG_LEVEL", "debug")

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromEnv())

	li := cfg.Platform("LinkedIn")
	assert.Equal(t, "ada@example.com", li.Username)
	assert.Equal(t, "hunter2", li.Password)
	assert.Equal(t, 12, li.ItemsPerSession)
	assert.Equal(t, 30*time.Second, li.EngagementDelay)
	assert.Equal(t, 45*time.Second, cfg.Platform("facebook").EngagementDelay)
	assert.Equal(t, 12, cfg.TargetFor("linkedin"))

	assert.Equal(t, "sk-test", cfg.Generator.APIKey)
	assert.Equal(t, 0.4, cfg.Generator.Temperature)
	assert.Equal(t, 200, cfg.Generator.MaxTokens)
	assert.True(t, cfg.Browser.Headless)
	assert.Equal(t, 45*time.Second, cfg.Browser.Timeout)
	assert.Equal(t, FailurePolicyStrict, cfg.Run.FailurePolicy)
	assert.Equal(t, "debug", cfg.Logging.Level)

	assert.Equal(t, []string{"linkedin"}, cfg.ConfiguredPlatforms())
}

func TestLoadFromEnvInvalidValues(t *testing.T) {
	t.Setenv("LINKEDIN_POSTS_PER_SESSION", "many")
	t.Setenv("AI_TEMPERATURE", "warm")

	cfg := DefaultConfig()
	err := cfg.LoadFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LINKEDIN_POSTS_PER_SESSION")
	assert.Contains(t, err.Error(), "AI_TEMPERATURE")
	assert.Equal(t, 10, cfg.Platform("linkedin").ItemsPerSession)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
platforms:
  linkedin:
    username: ada@example.com
    password: hunter2
run:
  target_item_count: 25
  failure_policy: strict
timeouts:
  generation: 10s
backoff:
  rate_limit_cooldown: 2m
pacing:
  min_delay: 500ms
  max_delay: 2s
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromFile(path))

	assert.True(t, cfg.Platform("linkedin").HasCredentials())
	// platform entries from the file replace the default entry
	assert.Equal(t, 10, cfg.Platform("linkedin").ItemsPerSession)
	assert.Equal(t, 25, cfg.TargetFor("linkedin"))
	assert.Equal(t, FailurePolicyStrict, cfg.Run.FailurePolicy)
	assert.Equal(t, 10*time.Second, cfg.Timeouts.Generation)
	assert.Equal(t, 15*time.Second, cfg.Timeouts.ExtractionItem)
	assert.Equal(t, 2*time.Minute, cfg.Backoff.RateLimitCooldown)
	assert.Equal(t, 500*time.Millisecond, cfg.Pacing.MinDelay)
}

func TestLoadFromFileErrors(t *testing.T) {
	cfg := DefaultConfig()
	assert.Error(t, cfg.LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml")))

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("run: [unclosed"), 0600))
	assert.Error(t, cfg.LoadFromFile(bad))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults", mutate: func(c *Config) {}},
		{name: "zero stall limit", mutate: func(c *Config) { c.Run.ScrollStallLimit = 0 }, wantErr: "scroll stall limit"},
		{name: "unknown failure policy", mutate: func(c *Config) { c.Run.FailurePolicy = "lenient" }, wantErr: "failure policy"},
		{name: "field timeout above item budget", mutate: func(c *Config) { c.Timeouts.ExtractionField = 20 * time.Second }, wantErr: "item budget"},
		{name: "zero generation timeout", mutate: func(c *Config) { c.Timeouts.Generation = 0 }, wantErr: "timeout generation"},
		{name: "pacing inverted", mutate: func(c *Config) { c.Pacing.MaxDelay = 0 }, wantErr: "pacing"},
		{name: "temperature", mutate: func(c *Config) { c.Generator.Temperature = 1.5 }, wantErr: "temperature"},
		{name: "log level", mutate: func(c *Config) { c.Logging.Level = "loud" }, wantErr: "log level"},
		{name: "metrics without listen", mutate: func(c *Config) { c.Metrics.Enabled = true; c.Metrics.Listen = "" }, wantErr: "metrics"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateCollectsAllErrors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Run.ScrollStallLimit = 0
	cfg.Backoff.FailureThreshold = 0
	cfg.Generator.MaxTokens = 0

	err := cfg.Validate()
	require.Error(t, err)
	assert.GreaterOrEqual(t, len(strings.Split(err.Error(), "\n")), 3)
}

func TestValidateForRun(t *testing.T) {
	cfg := DefaultConfig()
	err := cfg.ValidateForRun("linkedin")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "linkedin credentials")
	assert.Contains(t, err.Error(), "ANTHROPIC_API_KEY")

	cfg.Platforms["linkedin"] = PlatformConfig{Username: "u", Password: "p"}
	cfg.Generator.APIKey = "k"
	assert.NoError(t, cfg.ValidateForRun("linkedin"))
}

func TestMergeCommandLineFlags(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MergeCommandLineFlags(map[string]interface{}{
		"platform":       "Facebook",
		"target":         7,
		"headless":       true,
		"strict":         true,
		"parallel":       2,
		"log-level":      "warn",
		"metrics-listen": ":9000",
	})

	assert.Equal(t, "facebook", cfg.Run.Platform)
	assert.Equal(t, 7, cfg.TargetFor("facebook"))
	assert.True(t, cfg.Browser.Headless)
	assert.Equal(t, FailurePolicyStrict, cfg.Run.FailurePolicy)
	assert.Equal(t, 2, cfg.Run.Parallel)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, ":9000", cfg.Metrics.Listen)
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.Run.TargetItemCount = 4
	cfg.Backoff.FailureCooldown = 45 * time.Second
	require.NoError(t, cfg.Save(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded := DefaultConfig()
	require.NoError(t, loaded.LoadFromFile(path))
	assert.Equal(t, 4, loaded.Run.TargetItemCount)
	assert.Equal(t, 45*time.Second, loaded.Backoff.FailureCooldown)
}

func TestXDGDirectories(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg-config")
	t.Setenv("XDG_DATA_HOME", "/tmp/xdg-data")

	assert.Equal(t, "/tmp/xdg-config/feedengage", ConfigDir())
	assert.Equal(t, "/tmp/xdg-data/feedengage", DataDir())

	cfg := DefaultConfig()
	assert.Equal(t, "/tmp/xdg-data/feedengage/runs", cfg.HistoryDir())
	cfg.History.Directory = "/srv/runs"
	assert.Equal(t, "/srv/runs", cfg.HistoryDir())
}

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", dir)

	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logging:\n  level: warn\nrun:\n  target_item_count: 3\n"), 0600))
	t.Setenv("FEEDENGAGE_LOG_LEVEL", "error")

	cfg, err := Load(path, map[string]interface{}{"target": 9})
	require.NoError(t, err)
	assert.Equal(t, "error", cfg.Logging.Level)
	assert.Equal(t, 9, cfg.Run.TargetItemCount)
}
