package main

import (
	"fmt"

	"github.com/panbanda/cogmark/internal/diff"
	"github.com/panbanda/cogmark/internal/output"
	"github.com/panbanda/cogmark/internal/vcs"
	"github.com/panbanda/cogmark/pkg/analyzer/complexity"
	"github.com/urfave/cli/v2"
)

func diffCmd() *cli.Command {
	return &cli.Command{
		Name:      "diff",
		Usage:     "Compare function complexity with a git revision",
		ArgsUsage: "[path...]",
		Description: `Re-scores every current Python file as it was at --ref and reports each
function as NEW, REMOVED, REGRESSED, IMPROVED, or UNCHANGED, followed by the
net change.`,
		Flags: append(globalFlags(),
			&cli.StringFlag{
				Name:  "ref",
				Value: "HEAD",
				Usage: "Git revision to compare against",
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Value: vcs.DefaultReadTimeout,
				Usage: "Limit for reading one file from git",
			},
			&cli.BoolFlag{
				Name:  "changed-only",
				Usage: "Drop UNCHANGED functions from structured output",
			},
			&cli.BoolFlag{
				Name:  "fail-on-regression",
				Usage: "Exit non-zero when any function regressed",
			},
			&cli.StringFlag{
				Name:  "format",
				Usage: "Output format: text, json, toon, yaml, or markdown",
			},
			&cli.StringSliceFlag{
				Name:    "exclude",
				Aliases: []string{"e"},
				Usage:   "Gitignore-style pattern to skip (repeatable)",
			},
		),
		Before: setup,
		Action: runDiff,
	}
}

func runDiff(c *cli.Context) error {
	cfg := loadedConfig(c)

	a := complexity.New(
		complexity.WithMarker(cfg.NoqaMarker),
		complexity.WithWorkers(cfg.Workers),
		complexity.WithGitignore(cfg.Gitignore),
	)
	defer a.Close()

	files, failed := a.AnalyzeBatch(c.Context, getPaths(c, cfg), cfg.Exclude)
	for _, p := range failed {
		fmt.Fprintf(c.App.ErrWriter, "error: Failed to process %s\n", p)
	}

	report, err := diff.Compare(c.Context, a, files, diff.Options{
		Ref:     c.String("ref"),
		Timeout: c.Duration("timeout"),
	})
	if err != nil {
		return err
	}
	if c.Bool("changed-only") {
		report.Entries = report.Changed()
	}

	f := output.NewWriterFormatter(output.ParseFormat(cfg.Output.Format), c.App.Writer, colored(cfg))
	if err := f.Output(&output.DiffView{Report: report}); err != nil {
		return err
	}

	if c.Bool("fail-on-regression") && report.Regressed > 0 {
		return errCheckFailed
	}
	return nil
}

