// Package logging configures the process-wide slog logger.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/panbanda/cogmark/pkg/config"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options selects the log destination and level.
type Options struct {
	Verbose bool
	// Stderr receives logs when no file is configured. Defaults to os.Stderr.
	Stderr io.Writer
	Log    config.LogConfig
}

// Setup installs the default logger and returns a function that releases the
// log file, if any. Console logs start at warn; Verbose lowers the level to
// debug. File logs start at info.
func Setup(opts Options) (func() error, error) {
	level := slog.LevelWarn
	if opts.Verbose {
		level = slog.LevelDebug
	}

	if strings.TrimSpace(opts.Log.File) == "" {
		w := opts.Stderr
		if w == nil {
			w = os.Stderr
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
		return func() error { return nil }, nil
	}

	if !opts.Verbose {
		level = slog.LevelInfo
	}
	if err := os.MkdirAll(filepath.Dir(opts.Log.File), 0755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	logWriter := &lumberjack.Logger{
		Filename:   opts.Log.File,
		MaxSize:    opts.Log.MaxSize,
		MaxBackups: opts.Log.MaxBackups,
		MaxAge:     opts.Log.MaxAge,
		Compress:   opts.Log.Compress,
	}

	handler := slog.NewTextHandler(logWriter, &slog.HandlerOptions{
		AddSource: true,
		Level:     level,
	})
	slog.SetDefault(slog.New(handler))
	return logWriter.Close, nil
}
