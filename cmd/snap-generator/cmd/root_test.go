package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/oshokin/snap-generator/internal/config"
	"github.com/oshokin/snap-generator/internal/domain/preset"
	"github.com/oshokin/snap-generator/internal/logger"
)

// execute is a test helper that runs the root command with args and captures output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer

	root := newRootCommand()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)

	err := root.Execute()

	return out.String(), err
}

// project is a test helper that writes a template and returns its directory.
func project(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "snapcraft.yaml"), []byte(`name: app
icon: icon.svg
parts:
  first:
    stage-packages: [libfoo]
  second:
    plugin: nil
`), 0o600))

	return dir
}

// TestParseArgs maps positional arguments for presets with and without a main part.
func TestParseArgs(t *testing.T) {
	t.Parallel()

	ports, err := preset.Builtin(preset.VersionPorts)
	require.NoError(t, err)

	opts, err := parseArgs(ports, []string{"in.yaml", "out.yaml", "app", "1.0", "https://x/y.tar", "a.yaml", "b.yaml"})
	require.NoError(t, err)
	require.Equal(t, "app", opts.MainPart)
	require.Equal(t, "1.0", opts.Version)
	require.Equal(t, "https://x/y.tar", opts.SourceURL)
	require.Equal(t, []string{"a.yaml", "b.yaml"}, opts.Overrides)

	_, err = parseArgs(ports, []string{"in.yaml", "out.yaml", "1.0", "https://x/y.tar"})
	require.ErrorIs(t, err, ErrUsage)

	noble, err := preset.Builtin(preset.VersionNoble)
	require.NoError(t, err)

	opts, err = parseArgs(noble, []string{"in.yaml", "out.yaml", "1.0", "https://x/y.tar"})
	require.NoError(t, err)
	require.Empty(t, opts.MainPart)
	require.Equal(t, "1.0", opts.Version)
	require.Empty(t, opts.Overrides)
}

// TestRoot_TooFewArguments prints usage and fails with ErrUsage.
func TestRoot_TooFewArguments(t *testing.T) {
	t.Parallel()

	out, err := execute(t, "in.yaml", "out.yaml")
	require.ErrorIs(t, err, ErrUsage)
	require.Contains(t, out, "Usage:")

	out, err = execute(t, "--preset", "ports", "in.yaml", "out.yaml", "1.0", "https://x/y.tar")
	require.ErrorIs(t, err, ErrUsage)
	require.Contains(t, out, "Usage:")
}

// TestRoot_GeneratesWithNoblePreset runs the whole CLI with the first part as main part.
func TestRoot_GeneratesWithNoblePreset(t *testing.T) {
	t.Parallel()

	dir := project(t)
	output := filepath.Join(dir, "out.yaml")

	_, err := execute(t, "--preset", "noble", "--log-level", "warn",
		filepath.Join(dir, "snapcraft.yaml"), output, "3.1", "https://example.com/app.tar")
	require.NoError(t, err)

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	require.Contains(t, string(data), "- libfoo:amd64\n")
	require.Contains(t, string(data), "architectures:\n")
	require.Contains(t, string(data), "version: \"3.1\"\n")
}

// TestRoot_InvalidFlags rejects unknown policies and log levels.
func TestRoot_InvalidFlags(t *testing.T) {
	t.Parallel()

	_, err := execute(t, "--conflicts", "lenient", "a", "b", "c", "d", "e")
	require.ErrorContains(t, err, preset.ErrUnknownPolicy.Error())

	_, err = execute(t, "--log-level", "loud", "a", "b", "c", "d", "e")
	require.ErrorContains(t, err, errUnknownLevel.Error())
}

// TestRun_LogsFailureOnce reports a failed run through the context logger.
func TestRun_LogsFailureOnce(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.ErrorLevel)
	ctx := logger.ToContext(context.Background(), zap.New(core).Sugar())

	missing := filepath.Join(t.TempDir(), "missing.yaml")

	err := run(ctx, []string{"--preset-file", missing, "a", "b", "c", "d", "e"})
	require.Error(t, err)

	entries := logs.All()
	require.Len(t, entries, 1)
	require.Equal(t, "snap-generator failed", entries[0].Message)
	require.Equal(t, err.Error(), entries[0].ContextMap()["error"])

	require.NoError(t, run(ctx, []string{"version"}))
	require.Len(t, logs.All(), 1)
}

// TestPresets_List prints every built-in preset.
func TestPresets_List(t *testing.T) {
	t.Parallel()

	out, err := execute(t, "presets")
	require.NoError(t, err)

	for _, version := range preset.Versions() {
		require.Contains(t, out, string(version))
	}

	require.Contains(t, out, "(default)")
}

// TestPresets_Export writes a preset that can be loaded back.
func TestPresets_Export(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "strict.yaml")

	_, err := execute(t, "presets", "export", "strict", path)
	require.NoError(t, err)

	p, err := config.LoadPreset(path)
	require.NoError(t, err)
	require.Equal(t, preset.VersionStrict, p.Name)

	_, err = execute(t, "presets", "export", "no-such-preset-anywhere", path)
	require.ErrorIs(t, err, preset.ErrUnknownVersion)
}
