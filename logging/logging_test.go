package logging

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultLoggerRoutesByLevel(t *testing.T) {
	var stdout, stderr bytes.Buffer
	logger := NewDefaultLoggerWithWriters(&stdout, &stderr)
	logger.SetLevel(DebugLevel)

	logger.Debug("frames cut", Fields{"frames": 5})
	logger.Warn("silent input")
	logger.Error(errors.New("boom"), "transform failed")

	assert.Equal(t, "[DEBUG] frames cut frames=5\n", stdout.String())
	assert.Contains(t, stderr.String(), "[WARN] silent input\n")
	assert.Contains(t, stderr.String(), "[ERROR] transform failed: boom\n")
}

func TestDefaultLoggerFiltersBelowLevel(t *testing.T) {
	var stdout, stderr bytes.Buffer
	logger := NewDefaultLoggerWithWriters(&stdout, &stderr)
	logger.SetLevel(WarnLevel)

	logger.Debug("hidden")
	logger.Info("hidden")

	assert.Empty(t, stdout.String())
}

func TestWithFieldsMergesSorted(t *testing.T) {
	var stdout bytes.Buffer
	logger := NewDefaultLoggerWithWriters(&stdout, &bytes.Buffer{})

	scoped := logger.WithFields(Fields{"component": "chroma"})
	scoped.Info("done", Fields{"bins": 12})

	assert.Equal(t, "[INFO] done bins=12 component=chroma\n", stdout.String())
}

func TestWithContextPicksUpFields(t *testing.T) {
	var stdout bytes.Buffer
	logger := NewDefaultLoggerWithWriters(&stdout, &bytes.Buffer{})

	ctx := ContextWithFields(context.Background(), Fields{"call": "analyze"})
	logger.WithContext(ctx).Info("start")

	assert.Equal(t, "[INFO] start call=analyze\n", stdout.String())
}

func TestFatalCallsExit(t *testing.T) {
	var stderr bytes.Buffer
	logger := NewDefaultLoggerWithWriters(&bytes.Buffer{}, &stderr)

	code := -1
	logger.exit = func(c int) { code = c }
	logger.Fatal(errors.New("engine gone"), "cannot continue")

	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "[FATAL] cannot continue: engine gone")
}

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"debug":   DebugLevel,
		"INFO":    InfoLevel,
		"":        InfoLevel,
		"warning": WarnLevel,
		"error":   ErrorLevel,
		"fatal":   FatalLevel,
	}
	for name, want := range cases {
		got, err := ParseLevel(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}

	_, err := ParseLevel("verbose")
	assert.Error(t, err)
}

func TestSetGlobalLoggerNilSilences(t *testing.T) {
	prev := GetGlobalLogger()
	defer SetGlobalLogger(prev)

	SetGlobalLogger(nil)
	_, ok := GetGlobalLogger().(*NoOpLogger)
	assert.True(t, ok)
}
