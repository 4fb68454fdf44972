// Package cache remembers the previous run's complexities so reports can
// show how each function moved.
package cache

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/panbanda/cogmark/pkg/models"
	"github.com/zeebo/blake3"
)

// DefaultDir is the cache directory created under the working directory.
const DefaultDir = ".cogmark_cache"

// Cache stores one entry per distinct set of analysis targets.
type Cache struct {
	dir     string
	enabled bool
}

// Entry is the on-disk form of a run.
type Entry struct {
	Key       string                  `json:"key"`
	Timestamp time.Time               `json:"timestamp"`
	Functions []models.FunctionRecord `json:"functions"`
}

// Previous maps each function to the complexity seen on the last run.
type Previous map[models.FunctionKey]uint32

// New creates a cache rooted at dir. The directory is created lazily on the
// first Store. A disabled cache never reads or writes.
func New(dir string, enabled bool) *Cache {
	if dir == "" {
		dir = DefaultDir
	}
	return &Cache{dir: dir, enabled: enabled}
}

// Enabled reports whether the cache reads and writes entries.
func (c *Cache) Enabled() bool {
	return c.enabled
}

// Key derives the entry key for a set of targets: the BLAKE3 hash of the
// sorted, absolute, slash-separated paths. Argument order does not matter.
func Key(targets []string) string {
	normalized := make([]string, 0, len(targets))
	for _, t := range targets {
		if abs, err := filepath.Abs(t); err == nil {
			t = abs
		}
		normalized = append(normalized, filepath.ToSlash(filepath.Clean(t)))
	}
	sort.Strings(normalized)
	return HashBytes([]byte(strings.Join(normalized, "\n")))
}

// HashBytes computes a BLAKE3 hash of bytes and returns it as a hex string.
func HashBytes(data []byte) string {
	hash := blake3.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// Load returns the previous run for key. Missing or unreadable entries are
// reported as absent.
func (c *Cache) Load(key string) (Previous, bool) {
	if !c.enabled {
		return nil, false
	}

	data, err := os.ReadFile(c.keyPath(key))
	if err != nil {
		return nil, false
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil || entry.Key != key {
		return nil, false
	}

	prev := make(Previous, len(entry.Functions))
	for _, r := range entry.Functions {
		prev[r.Key()] = r.Complexity
	}
	return prev, true
}

// Store records files as the latest run for key.
func (c *Cache) Store(key string, files []models.FileComplexity) error {
	if !c.enabled {
		return nil
	}
	if err := c.ensureDir(); err != nil {
		return err
	}

	records := models.Flatten(files)
	if records == nil {
		records = []models.FunctionRecord{}
	}
	data, err := json.Marshal(Entry{Key: key, Timestamp: time.Now().UTC(), Functions: records})
	if err != nil {
		return err
	}
	return os.WriteFile(c.keyPath(key), data, 0600)
}

// Clear removes all cache entries.
func (c *Cache) Clear() error {
	if !c.enabled {
		return nil
	}
	err := os.RemoveAll(c.dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// ensureDir creates the cache directory with a .gitignore that ignores it.
func (c *Cache) ensureDir() error {
	if err := os.MkdirAll(c.dir, 0755); err != nil {
		return err
	}
	ignore := filepath.Join(c.dir, ".gitignore")
	if _, err := os.Stat(ignore); errors.Is(err, os.ErrNotExist) {
		return os.WriteFile(ignore, []byte("*\n"), 0644)
	}
	return nil
}

// keyPath converts a key to a filesystem path.
func (c *Cache) keyPath(key string) string {
	return filepath.Join(c.dir, key+".json")
}
