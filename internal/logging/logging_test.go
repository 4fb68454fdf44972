package logging

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/panbanda/cogmark/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func restoreDefault(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })
}

func TestSetup_Console(t *testing.T) {
	restoreDefault(t)
	var buf bytes.Buffer

	closeFn, err := Setup(Options{Stderr: &buf})
	require.NoError(t, err)
	defer closeFn()

	slog.Info("hidden")
	slog.Warn("shown", "path", "a.py")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
	assert.Contains(t, buf.String(), "path=a.py")
}

func TestSetup_Verbose(t *testing.T) {
	restoreDefault(t)
	var buf bytes.Buffer

	closeFn, err := Setup(Options{Verbose: true, Stderr: &buf})
	require.NoError(t, err)
	defer closeFn()

	slog.Debug("details")
	assert.Contains(t, buf.String(), "details")
}

func TestSetup_File(t *testing.T) {
	restoreDefault(t)
	path := filepath.Join(t.TempDir(), "logs", "cogmark.log")
	var stderr bytes.Buffer

	closeFn, err := Setup(Options{Stderr: &stderr, Log: config.LogConfig{File: path, MaxSize: 1}})
	require.NoError(t, err)

	slog.Debug("dropped")
	slog.Info("kept")
	require.NoError(t, closeFn())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "kept")
	assert.NotContains(t, string(data), "dropped")
	assert.Empty(t, stderr.String())
}

func TestSetup_FileDirectoryError(t *testing.T) {
	restoreDefault(t)
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0644))

	_, err := Setup(Options{Log: config.LogConfig{File: filepath.Join(blocker, "x.log")}})
	assert.Error(t, err)
}
