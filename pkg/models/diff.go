package models

import (
	"fmt"
	"strings"
)

// DiffStatus classifies how a function changed relative to a git reference.
type DiffStatus string

const (
	DiffNew       DiffStatus = "NEW"
	DiffRemoved   DiffStatus = "REMOVED"
	DiffRegressed DiffStatus = "REGRESSED"
	DiffImproved  DiffStatus = "IMPROVED"
	DiffUnchanged DiffStatus = "UNCHANGED"
)

// String implements fmt.Stringer.
func (d DiffStatus) String() string { return string(d) }

// DiffEntry is one function's comparison against the reference.
type DiffEntry struct {
	Path     string     `json:"path" yaml:"path" toon:"path"`
	Function string     `json:"function_name" yaml:"function_name" toon:"function_name"`
	Status   DiffStatus `json:"status" yaml:"status" toon:"status"`
	Before   *uint32    `json:"before,omitempty" yaml:"before,omitempty" toon:"before"`
	After    *uint32    `json:"after,omitempty" yaml:"after,omitempty" toon:"after"`
	Delta    int        `json:"delta" yaml:"delta" toon:"delta"`
}

// DiffReport is the full comparison with aggregate counts.
type DiffReport struct {
	Ref       string      `json:"ref" yaml:"ref" toon:"ref"`
	Entries   []DiffEntry `json:"entries" yaml:"entries" toon:"entries"`
	New       int         `json:"new" yaml:"new" toon:"new"`
	Removed   int         `json:"removed" yaml:"removed" toon:"removed"`
	Regressed int         `json:"regressed" yaml:"regressed" toon:"regressed"`
	Improved  int         `json:"improved" yaml:"improved" toon:"improved"`
	Unchanged int         `json:"unchanged" yaml:"unchanged" toon:"unchanged"`
	Net       int         `json:"net" yaml:"net" toon:"net"`
}

// Add appends an entry and updates the counts.
func (r *DiffReport) Add(e DiffEntry) {
	r.Entries = append(r.Entries, e)
	r.Net += e.Delta
	switch e.Status {
	case DiffNew:
		r.New++
	case DiffRemoved:
		r.Removed++
	case DiffRegressed:
		r.Regressed++
	case DiffImproved:
		r.Improved++
	case DiffUnchanged:
		r.Unchanged++
	}
}

// Changed returns the entries whose status is not UNCHANGED.
func (r *DiffReport) Changed() []DiffEntry {
	var out []DiffEntry
	for _, e := range r.Entries {
		if e.Status != DiffUnchanged {
			out = append(out, e)
		}
	}
	return out
}

// Summary describes the counts, e.g. "2 regressed, 1 new", or "no changes".
func (r *DiffReport) Summary() string {
	counts := []struct {
		n     int
		label string
	}{
		{r.Regressed, "regressed"},
		{r.Improved, "improved"},
		{r.New, "new"},
		{r.Removed, "removed"},
	}
	var parts []string
	for _, c := range counts {
		if c.n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", c.n, c.label))
		}
	}
	if len(parts) == 0 {
		return "no changes"
	}
	return strings.Join(parts, ", ")
}
