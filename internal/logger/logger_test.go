package logger

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

// TestParseLogLevel verifies mapping from strings to zapcore.Level and handling of unknown values.
func TestParseLogLevel(t *testing.T) {
	t.Parallel()

	cases := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		" INFO ":  zapcore.InfoLevel,
		"warn":    zapcore.WarnLevel,
		"warning": zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"fatal":   zapcore.FatalLevel,
	}
	for s, lvl := range cases {
		got, ok := ParseLogLevel(s)
		require.True(t, ok, s)
		require.Equal(t, lvl, got)
	}

	_, ok := ParseLogLevel("unknown")
	require.False(t, ok)
}

// TestContextLogger checks that names and fields attached to the context reach the output.
func TestContextLogger(t *testing.T) {
	t.Parallel()

	var buffer bytes.Buffer

	ctx := ToContext(context.Background(), New(zapcore.DebugLevel, &buffer))
	ctx = WithName(ctx, "snap-generator")
	ctx = WithKV(ctx, "stage", "merge")

	InfoKV(ctx, "Merged fragment", "path", "override.yaml")
	Debug(ctx, "details")

	output := buffer.String()
	require.Contains(t, output, "INFO snap-generator Merged fragment")
	require.Contains(t, output, `"stage": "merge"`)
	require.Contains(t, output, `"path": "override.yaml"`)
	require.Contains(t, output, "DEBUG")
}

// TestFromContext_FallsBackToGlobal returns the global logger for bare contexts.
func TestFromContext_FallsBackToGlobal(t *testing.T) {
	t.Parallel()

	require.Same(t, global, FromContext(context.Background()))
	require.Same(t, global, FromContext(nil)) //nolint:staticcheck // Nil context is handled on purpose.
}
