package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/panbanda/cogmark/internal/cache"
	"github.com/panbanda/cogmark/internal/output"
	"github.com/panbanda/cogmark/pkg/models"
	"github.com/panbanda/cogmark/pkg/snapshot"
	"github.com/urfave/cli/v2"
)

func cacheCmd() *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Manage the previous-run cache",
		Subcommands: []*cli.Command{
			{
				Name:   "clear",
				Usage:  "Remove every cached run",
				Flags:  globalFlags(),
				Before: setup,
				Action: func(c *cli.Context) error {
					cfg := loadedConfig(c)
					store := cache.New(cfg.Cache.Dir, true)
					if err := store.Clear(); err != nil {
						return fmt.Errorf("clear cache: %w", err)
					}
					color.New(color.FgGreen).Fprintf(c.App.Writer, "Cleared %s\n", cfg.Cache.Dir)
					return nil
				},
			},
		},
	}
}

func snapshotCmd() *cli.Command {
	return &cli.Command{
		Name:  "snapshot",
		Usage: "Inspect the complexity baseline",
		Subcommands: []*cli.Command{
			{
				Name:  "show",
				Usage: "List the functions recorded in the baseline",
				Flags: append(globalFlags(),
					&cli.StringFlag{
						Name:  "snapshot-file",
						Usage: "Baseline file (default " + snapshot.DefaultFile + ")",
					},
					&cli.StringFlag{
						Name:  "format",
						Usage: "Output format: text, json, toon, yaml, or markdown",
					},
				),
				Before: setup,
				Action: runSnapshotShow,
			},
		},
	}
}

func runSnapshotShow(c *cli.Context) error {
	cfg := loadedConfig(c)
	path := cfg.SnapshotPath(configDir(c))

	doc, err := snapshot.LoadDocument(path)
	if err != nil {
		return fmt.Errorf("read snapshot %s: %w", path, err)
	}
	if doc == nil || len(doc.Files) == 0 {
		fmt.Fprintf(c.App.Writer, "No functions recorded in %s.\n", path)
		return nil
	}

	report := &output.ComplexityReport{
		Files:      doc.Files,
		MaxAllowed: doc.MaxComplexityAllowed,
		Sort:       models.SortOrder(cfg.Sort),
	}
	return output.NewWriterFormatter(output.ParseFormat(cfg.Output.Format), c.App.Writer, colored(cfg)).Output(report)
}
