package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// ErrInvalid is returned when a loaded config holds an unusable value.
var ErrInvalid = errors.New("invalid config")

// pyprojectSection is the table cogmark reads from pyproject.toml.
const pyprojectSection = "tool.cogmark"

// Config holds all configuration options for cogmark.
type Config struct {
	// Paths analysed when no arguments are given.
	Paths []string `koanf:"paths" toml:"paths"`

	MaxComplexityAllowed uint32 `koanf:"max_complexity_allowed" toml:"max_complexity_allowed"`

	// Gitignore-style exclusion patterns.
	Exclude   []string `koanf:"exclude" toml:"exclude"`
	Gitignore bool     `koanf:"gitignore" toml:"gitignore"`

	// IgnoreComplexity reports results but never fails the run.
	IgnoreComplexity bool `koanf:"ignore_complexity" toml:"ignore_complexity"`
	// Failed only shows functions over the threshold.
	Failed bool   `koanf:"failed" toml:"failed"`
	Sort   string `koanf:"sort" toml:"sort"`
	Color  string `koanf:"color" toml:"color"`

	NoqaMarker string `koanf:"noqa_marker" toml:"noqa_marker"`
	Workers    int    `koanf:"workers" toml:"workers"`

	Snapshot SnapshotConfig `koanf:"snapshot" toml:"snapshot"`
	Output   OutputConfig   `koanf:"output" toml:"output"`
	Cache    CacheConfig    `koanf:"cache" toml:"cache"`
	Log      LogConfig      `koanf:"log" toml:"log"`
}

// SnapshotConfig controls the complexity baseline.
type SnapshotConfig struct {
	File      string `koanf:"file" toml:"file"`
	Create    bool   `koanf:"create" toml:"create"`
	Ignore    bool   `koanf:"ignore" toml:"ignore"`
	Watermark bool   `koanf:"watermark" toml:"watermark"`
}

// OutputConfig controls rendering and exports.
type OutputConfig struct {
	Format string `koanf:"format" toml:"format"` // text, json, toon, yaml, markdown
	CSV    string `koanf:"csv" toml:"csv"`
	JSON   string `koanf:"json" toml:"json"`
	SARIF  string `koanf:"sarif" toml:"sarif"`
}

// CacheConfig controls the previous-run cache.
type CacheConfig struct {
	Enabled bool   `koanf:"enabled" toml:"enabled"`
	Dir     string `koanf:"dir" toml:"dir"`
}

// LogConfig routes logs to a rotating file when File is set.
type LogConfig struct {
	File       string `koanf:"file" toml:"file"`
	MaxSize    int    `koanf:"max_size" toml:"max_size"` // megabytes
	MaxBackups int    `koanf:"max_backups" toml:"max_backups"`
	MaxAge     int    `koanf:"max_age" toml:"max_age"` // days
	Compress   bool   `koanf:"compress" toml:"compress"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Paths:                []string{"."},
		MaxComplexityAllowed: 15,
		Gitignore:            true,
		Sort:                 "asc",
		Color:                "auto",
		NoqaMarker:           "noqa: cogmark",
		Snapshot: SnapshotConfig{
			File: "cogmark-snapshot.json",
		},
		Output: OutputConfig{
			Format: "text",
		},
		Cache: CacheConfig{
			Enabled: true,
			Dir:     ".cogmark_cache",
		},
		Log: LogConfig{
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     28,
		},
	}
}

// Load loads configuration from a file. A pyproject.toml is read from its
// [tool.cogmark] table.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := DefaultConfig()

	// Determine parser based on extension
	var parser koanf.Parser
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		parser = toml.Parser()
	}

	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}

	if filepath.Base(path) == "pyproject.toml" {
		k = k.Cut(pyprojectSection)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// configNames lists the files searched, in order.
var configNames = []string{
	"cogmark.toml",
	".cogmark.toml",
	"cogmark.yaml",
	"cogmark.yml",
	"cogmark.json",
}

// Find returns the first config file in dir, or "" when there is none.
// pyproject.toml counts only if it has a [tool.cogmark] table.
func Find(dir string) string {
	for _, name := range configNames {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	path := filepath.Join(dir, "pyproject.toml")
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), toml.Parser()); err == nil && k.Exists(pyprojectSection) {
		return path
	}
	return ""
}

// LoadOrDefault loads the config found in dir, or returns defaults when there
// is none. The returned path is empty for defaults.
func LoadOrDefault(dir string) (*Config, string, error) {
	path := Find(dir)
	if path == "" {
		return DefaultConfig(), "", nil
	}
	cfg, err := Load(path)
	if err != nil {
		return nil, path, err
	}
	return cfg, path, nil
}

// Validate checks enumerated values.
func (c *Config) Validate() error {
	switch c.Sort {
	case "asc", "desc", "name":
	default:
		return fmt.Errorf("%w: sort must be asc, desc or name, got %q", ErrInvalid, c.Sort)
	}
	switch c.Color {
	case "auto", "yes", "no":
	default:
		return fmt.Errorf("%w: color must be auto, yes or no, got %q", ErrInvalid, c.Color)
	}
	switch c.Output.Format {
	case "text", "json", "toon", "yaml", "markdown":
	default:
		return fmt.Errorf("%w: unknown output format %q", ErrInvalid, c.Output.Format)
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: workers must not be negative", ErrInvalid)
	}
	return nil
}

// SnapshotPath resolves the snapshot file against base when it is relative.
func (c *Config) SnapshotPath(base string) string {
	if filepath.IsAbs(c.Snapshot.File) || base == "" {
		return c.Snapshot.File
	}
	return filepath.Join(base, c.Snapshot.File)
}
