package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/panbanda/cogmark/internal/cache"
	"github.com/panbanda/cogmark/internal/output"
	"github.com/panbanda/cogmark/internal/progress"
	"github.com/panbanda/cogmark/pkg/analyzer"
	"github.com/panbanda/cogmark/pkg/analyzer/complexity"
	"github.com/panbanda/cogmark/pkg/config"
	"github.com/panbanda/cogmark/pkg/models"
	"github.com/panbanda/cogmark/pkg/snapshot"
	"github.com/panbanda/cogmark/pkg/watch"
	"github.com/urfave/cli/v2"
)

func checkFlags() []cli.Flag {
	return []cli.Flag{
		&cli.UintFlag{
			Name:    "max-complexity-allowed",
			Aliases: []string{"max", "mx"},
			Usage:   "Maximum cognitive complexity per function (default 15)",
		},
		&cli.StringSliceFlag{
			Name:    "exclude",
			Aliases: []string{"e"},
			Usage:   "Gitignore-style pattern to skip (repeatable)",
		},
		&cli.BoolFlag{
			Name:  "no-gitignore",
			Usage: "Do not honour .gitignore files",
		},
		&cli.BoolFlag{
			Name:    "ignore-complexity",
			Aliases: []string{"i"},
			Usage:   "Report functions over the maximum without failing",
		},
		&cli.BoolFlag{
			Name:    "failed",
			Aliases: []string{"f"},
			Usage:   "Show only functions over the maximum",
		},
		&cli.StringFlag{
			Name:    "sort",
			Aliases: []string{"s"},
			Usage:   "Function order: asc, desc, or name",
		},
		&cli.BoolFlag{
			Name:    "quiet",
			Aliases: []string{"q"},
			Usage:   "Print nothing; only the exit code reports the result",
		},
		&cli.StringFlag{
			Name:  "format",
			Usage: "Output format: text, json, toon, yaml, or markdown",
		},
		&cli.BoolFlag{
			Name:  "csv",
			Usage: "Write results to " + output.DefaultCSVFile + " (or output.csv)",
		},
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Write results to " + output.DefaultJSONFile + " (or output.json)",
		},
		&cli.BoolFlag{
			Name:  "sarif",
			Usage: "Write a SARIF log to " + output.DefaultSARIFFile + " (or output.sarif)",
		},
		&cli.StringFlag{
			Name:  "snapshot-file",
			Usage: "Baseline file (default " + snapshot.DefaultFile + ")",
		},
		&cli.BoolFlag{
			Name:    "snapshot-create",
			Aliases: []string{"spc"},
			Usage:   "Record the functions over the maximum as the baseline",
		},
		&cli.BoolFlag{
			Name:    "snapshot-ignore",
			Aliases: []string{"spi"},
			Usage:   "Ignore the baseline",
		},
		&cli.BoolFlag{
			Name:    "snapshot-watermark",
			Aliases: []string{"spw"},
			Usage:   "Fail on new or worsened functions and shrink the baseline on success",
		},
		&cli.BoolFlag{
			Name:  "no-cache",
			Usage: "Do not read or write the previous-run cache",
		},
		&cli.StringFlag{
			Name:  "noqa-marker",
			Usage: "Comment that excludes a function (default \"" + complexity.DefaultMarker + "\")",
		},
		&cli.BoolFlag{
			Name:    "watch",
			Aliases: []string{"w"},
			Usage:   "Re-run when a Python file changes",
		},
	}
}

func checkCmd() *cli.Command {
	return &cli.Command{
		Name:      "check",
		Usage:     "Score functions and fail when any exceeds the maximum (default command)",
		ArgsUsage: "[path...]",
		Flags:     append(globalFlags(), checkFlags()...),
		Before:    setup,
		Action:    runCheck,
	}
}

// checkRun holds everything one check pass needs.
type checkRun struct {
	cfg     *config.Config
	paths   []string
	quiet   bool
	baseDir string
	stdout  io.Writer
	stderr  io.Writer
	colored bool
}

func newCheckRun(c *cli.Context) *checkRun {
	cfg := loadedConfig(c)
	return &checkRun{
		cfg:     cfg,
		paths:   getPaths(c, cfg),
		quiet:   c.Bool("quiet"),
		baseDir: configDir(c),
		stdout:  c.App.Writer,
		stderr:  c.App.ErrWriter,
		colored: colored(cfg),
	}
}

func runCheck(c *cli.Context) error {
	run := newCheckRun(c)
	exports := exportTargets(c, run.cfg)

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := run.once(ctx, exports)
	if !c.Bool("watch") {
		return err
	}
	if err != nil && !errors.Is(err, errCheckFailed) {
		return err
	}
	return run.watch(ctx, exports)
}

// once runs a full check pass and returns errCheckFailed when the gate fails.
func (r *checkRun) once(ctx context.Context, exports []exportTarget) error {
	cfg := r.cfg
	a := complexity.New(
		complexity.WithMarker(cfg.NoqaMarker),
		complexity.WithWorkers(cfg.Workers),
		complexity.WithGitignore(cfg.Gitignore),
	)
	defer a.Close()

	files, invalid := a.Discover(r.paths, cfg.Exclude)

	format := output.ParseFormat(cfg.Output.Format)
	var bar *progress.Bar
	var tracker *analyzer.Tracker
	if !r.quiet && !format.Structured() && len(files) > 0 {
		bar = progress.New(r.stderr, "Analyzing", len(files))
		tracker = bar.Tracker()
		ctx = analyzer.WithTracker(ctx, tracker)
	}

	analysis, err := a.Analyze(ctx, files)
	if bar != nil {
		bar.Finish(tracker.Failed())
	}
	if err != nil {
		return err
	}
	failed := append(invalid, analysis.Failed...)

	store := cache.New(cfg.Cache.Dir, cfg.Cache.Enabled)
	cacheKey := cache.Key(r.paths)
	var previous cache.Previous
	if prev, ok := store.Load(cacheKey); ok {
		previous = prev
	}

	snapPath := cfg.SnapshotPath(r.baseDir)
	baseline, outcome := r.applySnapshot(snapPath, analysis.Files, len(failed) > 0)

	report := &output.ComplexityReport{
		Files:            analysis.Files,
		MaxAllowed:       cfg.MaxComplexityAllowed,
		Sort:             models.SortOrder(cfg.Sort),
		FailedOnly:       cfg.Failed,
		IgnoreComplexity: cfg.IgnoreComplexity,
		Previous:         previous,
		Baseline:         baseline,
	}

	if !r.quiet {
		f := output.NewWriterFormatter(format, r.stdout, r.colored)
		if err := f.Output(report); err != nil {
			return err
		}
	}

	for _, target := range exports {
		if err := output.ExportFile(target.path, analysis.Files, output.ExportOptions{
			MaxAllowed: cfg.MaxComplexityAllowed,
			Sort:       models.SortOrder(cfg.Sort),
			FailedOnly: cfg.Failed,
			Version:    version,
		}, target.write); err != nil {
			return err
		}
		r.note(color.FgGreen, "Results saved in %s", target.path)
	}

	if err := store.Store(cacheKey, analysis.Files); err != nil {
		slog.Debug("previous-run cache not updated", "error", err)
	}

	r.printInvalid(failed)
	r.printOutcome(outcome, snapPath)

	switch {
	case len(failed) > 0,
		!outcome.OK(),
		report.HasFailures() && !cfg.IgnoreComplexity:
		return errCheckFailed
	}
	return nil
}

// applySnapshot creates, checks or loads the baseline. The returned snapshot
// grandfathers functions in the report; it is nil when the baseline is not
// in use. A watermark pass over incomplete results keeps the stored baseline.
func (r *checkRun) applySnapshot(path string, files []models.FileComplexity, incomplete bool) (snapshot.Snapshot, snapshot.Outcome) {
	cfg := r.cfg

	if cfg.Snapshot.Create {
		if err := snapshot.Save(path, cfg.MaxComplexityAllowed, files); err != nil {
			r.note(color.FgYellow, "Warning: could not write snapshot %s: %v", path, err)
		} else {
			r.note(color.FgGreen, "Snapshot saved to %s", path)
		}
		doc := snapshot.Build(cfg.MaxComplexityAllowed, files)
		return doc.Index(), snapshot.Outcome{State: snapshot.StateIgnored}
	}

	if cfg.Snapshot.Ignore {
		return nil, snapshot.Outcome{State: snapshot.StateIgnored}
	}

	if cfg.Snapshot.Watermark {
		// The comparison reads the baseline before a pass rewrites it.
		baseline, _ := snapshot.Load(path)
		outcome := snapshot.Watermark{
			Enabled:    true,
			Path:       path,
			MaxAllowed: cfg.MaxComplexityAllowed,
			Incomplete: incomplete,
		}.Check(files)
		return baseline, outcome
	}

	baseline, err := snapshot.Load(path)
	if err != nil {
		slog.Debug("snapshot not used", "path", path, "error", err)
		return nil, snapshot.Outcome{State: snapshot.StateIgnored}
	}
	return baseline, snapshot.Outcome{State: snapshot.StateIgnored}
}

func (r *checkRun) printInvalid(paths []string) {
	if r.quiet {
		return
	}
	red := color.New(color.Bold, color.FgRed)
	if !r.colored {
		red.DisableColor()
	}
	for _, p := range paths {
		fmt.Fprintf(r.stderr, "%s: Failed to process %s - Please check file/folder exists or check syntax\n", red.Sprint("error"), p)
	}
}

func (r *checkRun) printOutcome(outcome snapshot.Outcome, path string) {
	if r.quiet {
		return
	}
	if outcome.State == snapshot.StateFailed {
		for _, msg := range outcome.Messages {
			r.note(color.FgRed, "%s", msg)
		}
	}
	if outcome.BaselineErr != nil {
		r.note(color.FgYellow, "Warning: snapshot %s was not updated: %v", path, outcome.BaselineErr)
	}
}

func (r *checkRun) note(attr color.Attribute, format string, args ...any) {
	if r.quiet {
		return
	}
	c := color.New(attr)
	if !r.colored {
		c.DisableColor()
	}
	c.Fprintf(r.stderr, format+"\n", args...)
}

// watch re-runs the check whenever a Python file under the paths settles
// after a change.
func (r *checkRun) watch(ctx context.Context, exports []exportTarget) error {
	w, err := watch.New(r.paths, r.cfg.Exclude, watch.DefaultDebounce)
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer w.Close()

	r.note(color.FgCyan, "Watching %s for changes. Press Ctrl+C to stop.", strings.Join(r.paths, ", "))
	w.OnChange(func(changed []string) {
		r.note(color.FgYellow, "\nChanged: %s", strings.Join(changed, ", "))
		if err := r.once(ctx, exports); err != nil && !errors.Is(err, errCheckFailed) {
			r.note(color.FgRed, "Error: %v", err)
		}
	})

	if err := w.Run(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

// exportTarget is one requested export file.
type exportTarget struct {
	path  string
	write func(io.Writer, []models.FileComplexity, output.ExportOptions) error
}

// exportTargets lists the exports enabled by flags or by a configured path.
func exportTargets(c *cli.Context, cfg *config.Config) []exportTarget {
	specs := []struct {
		flag, path, fallback string
		write                func(io.Writer, []models.FileComplexity, output.ExportOptions) error
	}{
		{"csv", cfg.Output.CSV, output.DefaultCSVFile, output.WriteCSV},
		{"json", cfg.Output.JSON, output.DefaultJSONFile, output.WriteJSON},
		{"sarif", cfg.Output.SARIF, output.DefaultSARIFFile, output.WriteSARIF},
	}

	var targets []exportTarget
	for _, s := range specs {
		switch {
		case s.path != "":
			targets = append(targets, exportTarget{path: s.path, write: s.write})
		case c.Bool(s.flag):
			targets = append(targets, exportTarget{path: s.fallback, write: s.write})
		}
	}
	return targets
}
