package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/panbanda/cogmark/internal/output"
	"github.com/panbanda/cogmark/pkg/analyzer/complexity"
	"github.com/urfave/cli/v2"
)

func codeCmd() *cli.Command {
	return &cli.Command{
		Name:  "code",
		Usage: "Score a Python snippet given with --code or on stdin",
		Flags: append(globalFlags(),
			&cli.StringFlag{
				Name:  "code",
				Usage: "Python source to score; read from stdin when omitted",
			},
			&cli.UintFlag{
				Name:    "max-complexity-allowed",
				Aliases: []string{"max", "mx"},
				Usage:   "Maximum cognitive complexity per function (default 15)",
			},
			&cli.StringFlag{
				Name:  "format",
				Usage: "Output format: text, json, toon, yaml, or markdown",
			},
			&cli.BoolFlag{
				Name:    "ignore-complexity",
				Aliases: []string{"i"},
				Usage:   "Report functions over the maximum without failing",
			},
		),
		Before: setup,
		Action: runCode,
	}
}

func runCode(c *cli.Context) error {
	cfg := loadedConfig(c)

	src := c.String("code")
	if !c.IsSet("code") {
		data, err := io.ReadAll(c.App.Reader)
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
		src = string(data)
	}
	if strings.TrimSpace(src) == "" {
		return fmt.Errorf("no code given: pass --code or pipe source on stdin")
	}

	a := complexity.New(complexity.WithMarker(cfg.NoqaMarker))
	defer a.Close()

	result, err := a.AnalyzeCode(src)
	if err != nil {
		return err
	}

	report := &output.CodeReport{Result: result, MaxAllowed: cfg.MaxComplexityAllowed}
	f := output.NewWriterFormatter(output.ParseFormat(cfg.Output.Format), c.App.Writer, colored(cfg))
	if err := f.Output(report); err != nil {
		return err
	}

	if cfg.IgnoreComplexity {
		return nil
	}
	for _, fn := range result.Functions {
		if fn.Exceeds(cfg.MaxComplexityAllowed) {
			return errCheckFailed
		}
	}
	return nil
}
