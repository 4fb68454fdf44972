package main

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/panbanda/cogmark/internal/logging"
	"github.com/panbanda/cogmark/pkg/config"
	"github.com/urfave/cli/v2"
)

var (
	version = "dev"
	commit  = "none"    //nolint:unused // set via ldflags at build time
	date    = "unknown" //nolint:unused // set via ldflags at build time
)

// errCheckFailed ends a run whose results fail the gate. Its details have
// already been printed.
var errCheckFailed = errors.New("complexity check failed")

const (
	metaConfig     = "config"
	metaConfigPath = "configPath"
	metaLogClose   = "logClose"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		if !errors.Is(err, errCheckFailed) {
			color.Red("Error: %v", err)
		}
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:     "cogmark",
		Usage:    "Cognitive complexity gate for Python",
		Version:  version,
		Metadata: make(map[string]interface{}),
		Description: `cogmark scores every Python function for cognitive complexity and fails
when a function exceeds the allowed maximum. A snapshot file grandfathers
existing offenders so that only new or worsening functions break the build.

Running cogmark without a command checks the given paths.`,
		ArgsUsage: "[path...]",
		Flags:     append(globalFlags(), checkFlags()...),
		Before:    setup,
		After:     teardown,
		Action:    runCheck,
		Commands: []*cli.Command{
			checkCmd(),
			codeCmd(),
			diffCmd(),
			initCmd(),
			mcpCmd(),
			cacheCmd(),
			snapshotCmd(),
		},
	}
}

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to config file (TOML, YAML, JSON, or pyproject.toml)",
			EnvVars: []string{"COGMARK_CONFIG"},
		},
		&cli.BoolFlag{
			Name:  "verbose",
			Usage: "Enable debug logging",
		},
		&cli.StringFlag{
			Name:  "log-file",
			Usage: "Write logs to a rotating file instead of stderr",
		},
		&cli.StringFlag{
			Name:  "color",
			Usage: "Colored output: auto, yes, or no",
		},
		&cli.IntFlag{
			Name:  "workers",
			Usage: "Number of files analyzed in parallel (0 = 2x CPUs)",
		},
	}
}

// setup loads the config, applies explicitly set flags and installs logging.
// It runs for the app and again for the chosen command, whose context sees
// the flags of both.
func setup(c *cli.Context) error {
	var (
		cfg  *config.Config
		path = c.String("config")
		err  error
	)
	if path != "" {
		cfg, err = config.Load(path)
	} else {
		wd, wdErr := os.Getwd()
		if wdErr != nil {
			return wdErr
		}
		cfg, path, err = config.LoadOrDefault(wd)
	}
	if err != nil {
		return err
	}

	if err := applyFlags(c, cfg); err != nil {
		return err
	}

	if prev, ok := c.App.Metadata[metaLogClose].(func() error); ok {
		_ = prev()
	}
	closeLog, err := logging.Setup(logging.Options{
		Verbose: c.Bool("verbose"),
		Stderr:  c.App.ErrWriter,
		Log:     cfg.Log,
	})
	if err != nil {
		return err
	}

	c.App.Metadata[metaConfig] = cfg
	c.App.Metadata[metaConfigPath] = path
	c.App.Metadata[metaLogClose] = closeLog
	return nil
}

func teardown(c *cli.Context) error {
	if closeLog, ok := c.App.Metadata[metaLogClose].(func() error); ok {
		return closeLog()
	}
	return nil
}

// loadedConfig returns the config installed by setup.
func loadedConfig(c *cli.Context) *config.Config {
	if cfg, ok := c.App.Metadata[metaConfig].(*config.Config); ok {
		return cfg
	}
	return config.DefaultConfig()
}

// configDir is the directory relative config paths resolve against: the
// config file's directory, or the working directory without one.
func configDir(c *cli.Context) string {
	if path, ok := c.App.Metadata[metaConfigPath].(string); ok && path != "" {
		return filepath.Dir(path)
	}
	wd, err := os.Getwd()
	if err != nil {
		return ""
	}
	return wd
}

// applyFlags copies explicitly set flags over the loaded config. Flags that
// were not given leave the config value alone.
func applyFlags(c *cli.Context, cfg *config.Config) error {
	if c.IsSet("color") {
		cfg.Color = c.String("color")
	}
	if c.IsSet("workers") {
		cfg.Workers = c.Int("workers")
	}
	if c.IsSet("log-file") {
		cfg.Log.File = c.String("log-file")
	}
	if c.IsSet("max-complexity-allowed") {
		v := c.Uint("max-complexity-allowed")
		if uint64(v) > math.MaxUint32 {
			return fmt.Errorf("invalid flags: %w: max-complexity-allowed must be at most %d, got %d",
				config.ErrInvalid, uint32(math.MaxUint32), v)
		}
		cfg.MaxComplexityAllowed = uint32(v)
	}
	if c.IsSet("exclude") {
		cfg.Exclude = append(cfg.Exclude, c.StringSlice("exclude")...)
	}
	if c.IsSet("no-gitignore") {
		cfg.Gitignore = !c.Bool("no-gitignore")
	}
	if c.IsSet("ignore-complexity") {
		cfg.IgnoreComplexity = c.Bool("ignore-complexity")
	}
	if c.IsSet("failed") {
		cfg.Failed = c.Bool("failed")
	}
	if c.IsSet("sort") {
		cfg.Sort = c.String("sort")
	}
	if c.IsSet("format") {
		cfg.Output.Format = c.String("format")
	}
	if c.IsSet("snapshot-file") {
		cfg.Snapshot.File = c.String("snapshot-file")
	}
	if c.IsSet("snapshot-create") {
		cfg.Snapshot.Create = c.Bool("snapshot-create")
	}
	if c.IsSet("snapshot-ignore") {
		cfg.Snapshot.Ignore = c.Bool("snapshot-ignore")
	}
	if c.IsSet("snapshot-watermark") {
		cfg.Snapshot.Watermark = c.Bool("snapshot-watermark")
	}
	if c.IsSet("no-cache") {
		cfg.Cache.Enabled = !c.Bool("no-cache")
	}
	if c.IsSet("noqa-marker") {
		cfg.NoqaMarker = c.String("noqa-marker")
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}
	return nil
}

// colored resolves the color setting. auto follows terminal detection.
func colored(cfg *config.Config) bool {
	switch cfg.Color {
	case "yes":
		return true
	case "no":
		return false
	default:
		return !color.NoColor
	}
}

// getPaths returns positional args, falling back to the configured paths.
func getPaths(c *cli.Context, cfg *config.Config) []string {
	if c.Args().Len() > 0 {
		return c.Args().Slice()
	}
	if len(cfg.Paths) > 0 {
		return cfg.Paths
	}
	return []string{"."}
}
