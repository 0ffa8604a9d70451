package logging_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/kinmap/pkg/logging"
)

func TestDefaultLogger(t *testing.T) {
	original := *logging.Default()
	t.Cleanup(func() { logging.SetDefault(original) })

	buf := &bytes.Buffer{}
	logging.SetDefault(zerolog.New(buf).Level(zerolog.DebugLevel))

	logging.Info().Msg("info message")
	logging.Err(errors.New("boom")).Msg("failed")

	assert.Contains(t, buf.String(), "info message")
	assert.Contains(t, buf.String(), "boom")
}

func TestContextLogger(t *testing.T) {
	tl := logging.NewTestLogger(t)

	ctx := logging.WithLogger(context.Background(), tl.Logger)
	ctx = logging.WithContact(ctx, "john")
	ctx = logging.WithPass(ctx, 2)
	ctx = logging.WithOperation(ctx, "reconcile")

	logging.FromContext(ctx).Info().Msg("reconciled")

	tl.AssertContains(t, `"contact":"john"`)
	tl.AssertContains(t, `"pass":2`)
	tl.AssertContains(t, `"operation":"reconcile"`)
	assert.Equal(t, 1, tl.Count())
}

func TestFromContextFallsBackToDefault(t *testing.T) {
	assert.Same(t, logging.Default(), logging.FromContext(context.Background()))
	assert.Same(t, logging.Default(), logging.Ctx(context.Background()))
}

func TestWithErrorAndFields(t *testing.T) {
	tl := logging.NewTestLogger(t)
	ctx := logging.WithLogger(context.Background(), tl.Logger)

	assert.Equal(t, ctx, logging.WithError(ctx, nil))

	ctx = logging.WithError(ctx, errors.New("stale"))
	ctx = logging.WithFields(ctx, map[string]any{"writes": 3, "dry_run": true})
	logging.FromContext(ctx).Warn().Msg("pass")

	tl.AssertContains(t, `"error":"stale"`)
	tl.AssertContains(t, `"writes":3`)
	tl.AssertContains(t, `"dry_run":true`)
}

func TestNewLoggerFromConfig(t *testing.T) {
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })

	tests := []struct {
		name     string
		level    string
		contains []string
		excludes []string
	}{
		{name: "debug level", level: "debug", contains: []string{`"level":"debug"`, `"level":"info"`}},
		{name: "error level only", level: "error", contains: []string{`"level":"error"`}, excludes: []string{`"level":"info"`}},
		{name: "unknown level falls back to info", level: "loud", contains: []string{`"level":"info"`}, excludes: []string{`"level":"debug"`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "kinmap.log")
			logger := logging.NewLoggerFromConfig(&logging.Config{
				Level:  tt.level,
				Format: "json",
				Output: path,
				Fields: map[string]any{"vault": "/tmp/contacts"},
			})

			logger.Debug().Msg("debug")
			logger.Info().Msg("info")
			logger.Error().Msg("error")

			content, err := os.ReadFile(path)
			require.NoError(t, err)
			for _, want := range tt.contains {
				assert.Contains(t, string(content), want)
			}
			for _, unwanted := range tt.excludes {
				assert.NotContains(t, string(content), unwanted)
			}
			assert.Contains(t, string(content), `"vault":"/tmp/contacts"`)
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := logging.DefaultConfig()
	assert.Equal(t, "info", cfg.Level)
	assert.Equal(t, "auto", cfg.Format)
	assert.Equal(t, "stderr", cfg.Output)
	assert.False(t, cfg.AddCaller)
}

func TestCaptureLoggingForTest(t *testing.T) {
	tl := logging.CaptureLoggingForTest(t)
	logging.Warn().Str("contact", "bob").Msg("unresolved target")

	tl.AssertContains(t, "unresolved target")
	tl.AssertNotContains(t, "john")
	tl.Clear()
	assert.Equal(t, 0, tl.Count())
}

func TestConfigureFromEnv(t *testing.T) {
	original := *logging.Default()
	t.Cleanup(func() {
		logging.SetDefault(original)
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	})

	path := filepath.Join(t.TempDir(), "kinmap.log")
	t.Setenv("KINMAP_LOG_LEVEL", "warn")
	t.Setenv("KINMAP_LOG_OUTPUT", path)
	t.Setenv("KINMAP_LOG_FORMAT", "json")
	t.Setenv("KINMAP_LOG_FIELDS", "vault=people")

	cfg := logging.EnvConfig()
	assert.Equal(t, "warn", cfg.Level)
	assert.Equal(t, map[string]any{"vault": "people"}, cfg.Fields)

	logging.ConfigureFromEnv()
	logging.Info().Msg("hidden")
	logging.Warn().Msg("conflict retried")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "conflict retried")
	assert.Contains(t, string(data), `"vault":"people"`)
	assert.NotContains(t, string(data), "hidden")
}

func TestEnvConfigDebugShortcut(t *testing.T) {
	t.Setenv("KINMAP_LOG_LEVEL", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("DEBUG", "1")
	assert.Equal(t, "debug", logging.EnvConfig().Level)
}

func TestNewNopLogger(t *testing.T) {
	logger := logging.NewNopLogger()
	require.NotNil(t, logger)
	assert.Equal(t, zerolog.Disabled, logger.GetLevel())
}
