// Package snapshot persists the complexity baseline and compares new results
// against it.
package snapshot

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/panbanda/cogmark/pkg/models"
	"github.com/santhosh-tekuri/jsonschema/v6"
)

// SchemaVersion is written to every snapshot. Documents carrying any other
// version, or none, are rejected as legacy.
const SchemaVersion = 2

// DefaultFile is the snapshot filename used when none is configured.
const DefaultFile = "cogmark-snapshot.json"

var (
	// ErrLegacySnapshot means the file exists but was written in an older
	// or otherwise incompatible layout.
	ErrLegacySnapshot = errors.New("snapshot was created with an older version")
	// ErrSnapshotCorrupt means the file exists but is not valid JSON.
	ErrSnapshotCorrupt = errors.New("snapshot file is corrupt")
)

//go:embed schema.json
var schemaJSON []byte

const schemaURL = "cogmark-snapshot.schema.json"

var compileSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaJSON))
	if err != nil {
		return nil, err
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(schemaURL, doc); err != nil {
		return nil, err
	}
	return c.Compile(schemaURL)
})

// Document is the on-disk snapshot layout.
type Document struct {
	Version              int                     `json:"version"`
	MaxComplexityAllowed uint32                  `json:"max_complexity_allowed"`
	Files                []models.FileComplexity `json:"files"`
}

// Snapshot maps tracked functions to their recorded complexity.
type Snapshot map[models.FunctionKey]uint32

// Lookup returns the recorded complexity for key.
func (s Snapshot) Lookup(key models.FunctionKey) (uint32, bool) {
	v, ok := s[key]
	return v, ok
}

// Build reduces results to the functions above maxAllowed. Files left with
// no such function are dropped.
func Build(maxAllowed uint32, files []models.FileComplexity) Document {
	doc := Document{
		Version:              SchemaVersion,
		MaxComplexityAllowed: maxAllowed,
		Files:                []models.FileComplexity{},
	}
	for _, f := range files {
		over := f.Over(maxAllowed)
		if len(over) == 0 {
			continue
		}
		doc.Files = append(doc.Files, models.NewFileComplexity(f.Path, f.FileName, over))
	}
	return doc
}

// Save writes the baseline for files to path atomically: the document is
// written to a temporary file in the same directory, synced, then renamed
// over path.
func Save(path string, maxAllowed uint32, files []models.FileComplexity) error {
	data, err := json.MarshalIndent(Build(maxAllowed, files), "", "  ")
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	data = append(data, '\n')
	return writeAtomic(path, data)
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating snapshot: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("writing snapshot: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("syncing snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("closing snapshot: %w", err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		cleanup()
		return fmt.Errorf("writing snapshot: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return fmt.Errorf("replacing snapshot: %w", err)
	}
	return nil
}

// Exists reports whether a snapshot file is present at path.
func Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// LoadDocument reads and validates the snapshot at path. A missing file
// yields an empty document and no error.
func LoadDocument(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &Document{Version: SchemaVersion, Files: []models.FileComplexity{}}, nil
		}
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}
	return Decode(data)
}

// Decode validates and parses a snapshot document.
func Decode(data []byte) (*Document, error) {
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSnapshotCorrupt, err)
	}

	if err := checkVersion(inst); err != nil {
		return nil, err
	}

	schema, err := compileSchema()
	if err != nil {
		return nil, fmt.Errorf("compiling snapshot schema: %w", err)
	}
	if err := schema.Validate(inst); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLegacySnapshot, err)
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSnapshotCorrupt, err)
	}
	if doc.Files == nil {
		doc.Files = []models.FileComplexity{}
	}
	return &doc, nil
}

// checkVersion rejects the pre-versioned layouts: a bare array of files, or
// an object without a matching version tag.
func checkVersion(inst any) error {
	obj, ok := inst.(map[string]any)
	if !ok {
		return fmt.Errorf("%w: missing version header", ErrLegacySnapshot)
	}
	v, ok := obj["version"].(json.Number)
	if !ok {
		return fmt.Errorf("%w: missing version header", ErrLegacySnapshot)
	}
	if n, err := v.Int64(); err != nil || n != SchemaVersion {
		return fmt.Errorf("%w: version %s, want %d", ErrLegacySnapshot, v, SchemaVersion)
	}
	return nil
}

// Load returns the recorded complexities at path.
func Load(path string) (Snapshot, error) {
	doc, err := LoadDocument(path)
	if err != nil {
		return nil, err
	}
	return doc.Index(), nil
}

// LoadFiles returns the snapshot contents as result-model values.
func LoadFiles(path string) ([]models.FileComplexity, error) {
	doc, err := LoadDocument(path)
	if err != nil {
		return nil, err
	}
	return doc.Files, nil
}

// Index flattens the document into a lookup map. Functions sharing a key,
// such as same-named closures in one file, keep the highest complexity.
func (d Document) Index() Snapshot {
	snap := make(Snapshot)
	for _, f := range d.Files {
		for _, fn := range f.Functions {
			key := f.Key(fn.Name)
			if prev, ok := snap[key]; !ok || fn.Complexity > prev {
				snap[key] = fn.Complexity
			}
		}
	}
	return snap
}
