package logger

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"feedengage/pkg/config"
	"feedengage/pkg/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bufferLogger(buf *bytes.Buffer) *zerologLogger {
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	zlog := zerolog.New(buf).With().Timestamp().Logger().Level(zerolog.DebugLevel)
	return &zerologLogger{logger: &zlog, fields: make(map[string]interface{})}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *config.LoggingConfig
		wantErr bool
	}{
		{name: "info level", cfg: &config.LoggingConfig{Level: "info"}},
		{name: "debug level without color", cfg: &config.LoggingConfig{Level: "debug", NoColor: true}},
		{name: "invalid level", cfg: &config.LoggingConfig{Level: "loud"}, wantErr: true},
		{name: "file output", cfg: &config.LoggingConfig{Level: "info", File: filepath.Join(t.TempDir(), "logs", "run.log")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := New(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, l)
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected zerolog.Level
		wantErr  bool
	}{
		{"debug", zerolog.DebugLevel, false},
		{"INFO", zerolog.InfoLevel, false},
		{"warning", zerolog.WarnLevel, false},
		{"error", zerolog.ErrorLevel, false},
		{"disabled", zerolog.Disabled, false},
		{"", zerolog.InfoLevel, true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			level, err := parseLogLevel(tt.level)
			assert.Equal(t, tt.wantErr, err != nil)
			assert.Equal(t, tt.expected, level)
		})
	}
}

func TestFieldChaining(t *testing.T) {
	var buf bytes.Buffer
	l := bufferLogger(&buf)

	l.WithField("platform", "linkedin").
		WithFields(map[string]interface{}{"engaged": 4, "cooldown": 30 * time.Second}).
		WithError(errors.New("selector missing")).
		Warn("chained")

	out := buf.String()
	assert.Contains(t, out, "chained")
	assert.Contains(t, out, `"platform":"linkedin"`)
	assert.Contains(t, out, `"engaged":4`)
	assert.Contains(t, out, "selector missing")
}

func TestWithErrorNil(t *testing.T) {
	var buf bytes.Buffer
	l := bufferLogger(&buf)
	assert.Same(t, l, l.WithError(nil))
}

func TestChildDoesNotLeakFields(t *testing.T) {
	var buf bytes.Buffer
	l := bufferLogger(&buf)

	_ = l.WithField("item", "a")
	l.Info("parent")

	assert.NotContains(t, buf.String(), `"item"`)
}

func TestTestLoggerCapturesContext(t *testing.T) {
	tl := NewTestLogger()
	tl.WithField("platform", "linkedin").WithError(errors.New("boom")).Warn("failed")
	tl.Info("plain")

	msgs := tl.GetMessages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "WARN", msgs[0].Level)
	assert.Equal(t, "linkedin", msgs[0].Fields["platform"])
	assert.EqualError(t, msgs[0].Error, "boom")
	assert.Empty(t, msgs[1].Fields)
	assert.True(t, tl.HasMessage("plain"))
	assert.False(t, tl.HasError())
	assert.True(t, strings.Contains(tl.String(), "[WARN] failed"))

	tl.Clear()
	assert.Empty(t, tl.GetMessages())
}

func TestDomainHelpers(t *testing.T) {
	tl := NewTestLogger()

	LogItemResult(tl, "linkedin", models.Engaged("urn:1", models.EngagementOutcome{Reacted: true}))
	LogItemResult(tl, "linkedin", models.SkippedError("urn:2", models.StageGeneration, errors.New("timeout")))
	LogRateLimit(tl, "linkedin", 5*time.Minute)
	LogRunSummary(tl, models.RunSummary{
		Platform:    "linkedin",
		Termination: models.Termination{Kind: models.TerminationAborted, Cause: "auth"},
	})
	LogComponentStop(tl, "orchestrator", "teardown complete")

	assert.True(t, tl.HasMessage("Item engaged"))
	assert.True(t, tl.HasMessage("Item failed"))
	assert.True(t, tl.HasMessage("Rate limit reached, cooling down"))
	assert.True(t, tl.HasMessage("Run aborted"))
	assert.True(t, tl.HasMessage("Component stopped"))

	warns := tl.GetMessagesByLevel("WARN")
	require.Len(t, warns, 3)
	assert.Equal(t, models.StageGeneration, warns[0].Fields["stage"])
}

func TestDomainHelpersFallBackToGlobal(t *testing.T) {
	global := NewTestLogger()
	SetLogger(global)
	defer SetLogger(nil)

	LogComponentStart(nil, "browser", map[string]interface{}{"headless": true})
	LogComponentStart(NewNopLogger(), "orchestrator", nil)

	assert.True(t, global.HasMessage("Component started"))
	require.Len(t, global.GetMessages(), 1)
	assert.Equal(t, "browser", global.GetMessages()[0].Fields["component"])
}
