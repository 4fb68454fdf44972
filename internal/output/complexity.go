package output

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/panbanda/cogmark/internal/cache"
	"github.com/panbanda/cogmark/pkg/models"
	"github.com/panbanda/cogmark/pkg/snapshot"
	"github.com/panbanda/cogmark/pkg/stats"
)

// ComplexityReport renders the result of a check run.
type ComplexityReport struct {
	Files      []models.FileComplexity
	MaxAllowed uint32
	Sort       models.SortOrder
	// FailedOnly hides functions within the threshold.
	FailedOnly bool
	// IgnoreComplexity notes that failures do not affect the exit code.
	IgnoreComplexity bool
	// Previous holds the last run's scores; nil disables deltas.
	Previous cache.Previous
	// Baseline grandfathers functions recorded at the same or higher score.
	Baseline snapshot.Snapshot
}

// FunctionRow is one displayed function.
type FunctionRow struct {
	Name       string `json:"name" yaml:"name" toon:"name"`
	Complexity uint32 `json:"complexity" yaml:"complexity" toon:"complexity"`
	LineStart  uint32 `json:"line_start" yaml:"line_start" toon:"line_start"`
	LineEnd    uint32 `json:"line_end" yaml:"line_end" toon:"line_end"`
	Passed     bool   `json:"passed" yaml:"passed" toon:"passed"`

	delta string
}

// FileRow groups the displayed functions of a file.
type FileRow struct {
	Path       string        `json:"path" yaml:"path" toon:"path"`
	FileName   string        `json:"file_name" yaml:"file_name" toon:"file_name"`
	Complexity uint32        `json:"complexity" yaml:"complexity" toon:"complexity"`
	Functions  []FunctionRow `json:"functions" yaml:"functions" toon:"functions"`
}

// FailingFile lists the failing functions of one file, sorted by name.
type FailingFile struct {
	Path      string   `json:"path" yaml:"path" toon:"path"`
	Functions []string `json:"functions" yaml:"functions" toon:"functions"`
}

// Summary aggregates a run.
type Summary struct {
	Files     int           `json:"files" yaml:"files" toon:"files"`
	Functions int           `json:"functions" yaml:"functions" toon:"functions"`
	Failing   int           `json:"failing" yaml:"failing" toon:"failing"`
	Stats     stats.Summary `json:"complexity" yaml:"complexity" toon:"complexity"`
}

// ReportData is the structured form of a ComplexityReport.
type ReportData struct {
	MaxComplexityAllowed uint32        `json:"max_complexity_allowed" yaml:"max_complexity_allowed" toon:"max_complexity_allowed"`
	Files                []FileRow     `json:"files" yaml:"files" toon:"files"`
	Failed               []FailingFile `json:"failed" yaml:"failed" toon:"failed"`
	Summary              Summary       `json:"summary" yaml:"summary" toon:"summary"`
}

// Passed reports whether fn is within the threshold or grandfathered.
func (r *ComplexityReport) Passed(file models.FileComplexity, fn models.FunctionComplexity) bool {
	if !fn.Exceeds(r.MaxAllowed) {
		return true
	}
	return r.Baseline != nil && r.Baseline.Grandfathered(file.Key(fn.Name), fn.Complexity)
}

// HasFailures reports whether any function fails.
func (r *ComplexityReport) HasFailures() bool {
	for _, f := range r.Files {
		for _, fn := range f.Functions {
			if !r.Passed(f, fn) {
				return true
			}
		}
	}
	return false
}

// Build computes the displayed rows.
func (r *ComplexityReport) Build() ReportData {
	data := ReportData{
		MaxComplexityAllowed: r.MaxAllowed,
		Files:                []FileRow{},
		Failed:               []FailingFile{},
	}

	var scores []float64
	for _, f := range r.Files {
		fns := append([]models.FunctionComplexity(nil), f.Functions...)
		models.SortFunctions(fns, r.Sort)

		row := FileRow{Path: displayPath(f.Path, f.FileName), FileName: f.FileName, Complexity: f.Complexity()}
		var failing []string
		for _, fn := range fns {
			scores = append(scores, float64(fn.Complexity))
			passed := r.Passed(f, fn)
			if !passed {
				failing = append(failing, fn.Name)
			}
			if r.FailedOnly && passed {
				continue
			}
			row.Functions = append(row.Functions, FunctionRow{
				Name:       fn.Name,
				Complexity: fn.Complexity,
				LineStart:  fn.LineStart,
				LineEnd:    fn.LineEnd,
				Passed:     passed,
				delta:      DeltaText(r.Previous, f.Key(fn.Name), fn.Complexity, r.MaxAllowed),
			})
		}

		if len(row.Functions) > 0 {
			data.Files = append(data.Files, row)
		}
		if len(failing) > 0 {
			sort.Strings(failing)
			data.Failed = append(data.Failed, FailingFile{Path: row.Path, Functions: failing})
			data.Summary.Failing += len(failing)
		}
	}

	data.Summary.Files = len(r.Files)
	data.Summary.Functions = len(scores)
	data.Summary.Stats = stats.Summarize(scores)
	return data
}

// DeltaText describes how a failing function moved since the previous run:
// " (new, Δ = +N)" when unseen, " (last: P, Δ = ±D)" when changed. Passing or
// unchanged functions, and runs without a previous map, yield "".
func DeltaText(prev cache.Previous, key models.FunctionKey, complexity, maxAllowed uint32) string {
	if prev == nil || complexity <= maxAllowed {
		return ""
	}
	last, ok := prev[key]
	if !ok {
		return fmt.Sprintf(" (new, Δ = +%d)", complexity)
	}
	if last == complexity {
		return ""
	}
	return fmt.Sprintf(" (last: %d, Δ = %+d)", last, int64(complexity)-int64(last))
}

// displayPath joins a directory-style path with the file name unless the
// path already names the file.
func displayPath(path, fileName string) string {
	cleaned := strings.TrimRight(path, "/")
	switch {
	case strings.HasSuffix(cleaned, fileName):
		return cleaned
	case cleaned != "":
		return cleaned + "/" + fileName
	default:
		return fileName
	}
}

func (r *ComplexityReport) RenderData() any {
	return r.Build()
}

func (r *ComplexityReport) RenderText(w io.Writer, colored bool) error {
	data := r.Build()

	switch {
	case r.FailedOnly && len(data.Files) == 0:
		plural := ""
		if len(r.Files) > 1 {
			plural = "s"
		}
		fmt.Fprintf(w, "No function%s were found with complexity greater than %d.\n", plural, r.MaxAllowed)
		return nil
	case data.Summary.Functions == 0:
		fmt.Fprintln(w, "No files were found with functions. No complexity was calculated.")
		return nil
	}

	green := paint(colored, color.FgGreen)
	red := paint(colored, color.FgRed)
	for _, f := range data.Files {
		bold(colored).Fprintln(w, f.Path)
		for _, fn := range f.Functions {
			status := green.Sprint("PASSED")
			if !fn.Passed {
				status = red.Sprint("FAILED")
			}
			fmt.Fprintf(w, "    %s %d%s %s\n", fn.Name, fn.Complexity, fn.delta, status)
		}
		fmt.Fprintln(w)
	}

	if len(data.Failed) > 0 {
		paint(colored, color.Bold, color.FgRed).Fprintln(w, "Failed functions:")
		for _, f := range data.Failed {
			fmt.Fprintf(w, " - %s: %s\n", f.Path, strings.Join(f.Functions, ", "))
		}
		if r.IgnoreComplexity {
			paint(colored, color.FgYellow).Fprintln(w, "--ignore-complexity enabled: failures will not affect the exit code.")
		}
	} else {
		paint(colored, color.Bold, color.FgGreen).Fprintln(w, "All functions are within the allowed complexity.")
	}
	fmt.Fprintln(w)

	return summaryTable(data.Summary).RenderText(w, colored)
}

func (r *ComplexityReport) RenderMarkdown(w io.Writer) error {
	data := r.Build()

	fmt.Fprintf(w, "# Cognitive Complexity (max %d)\n\n", r.MaxAllowed)
	for _, f := range data.Files {
		rows := make([][]string, 0, len(f.Functions))
		for _, fn := range f.Functions {
			status := "PASSED"
			if !fn.Passed {
				status = "FAILED"
			}
			rows = append(rows, []string{
				"`" + fn.Name + "`",
				strconv.FormatUint(uint64(fn.Complexity), 10) + fn.delta,
				fmt.Sprintf("%d-%d", fn.LineStart, fn.LineEnd),
				status,
			})
		}
		t := NewTable(f.Path, []string{"Function", "Complexity", "Lines", "Status"}, rows, nil, nil)
		if err := t.RenderMarkdown(w); err != nil {
			return err
		}
	}
	return summaryTable(data.Summary).RenderMarkdown(w)
}

func summaryTable(s Summary) *Table {
	f := func(v float64) string { return strconv.FormatFloat(v, 'f', 1, 64) }
	return NewTable("Summary",
		[]string{"Files", "Functions", "Failing", "Mean", "Median", "P90", "Max"},
		[][]string{{
			strconv.Itoa(s.Files),
			strconv.Itoa(s.Functions),
			strconv.Itoa(s.Failing),
			f(s.Stats.Mean),
			f(s.Stats.Median),
			f(s.Stats.P90),
			f(s.Stats.Max),
		}},
		nil, s)
}

// CodeReport renders the result of analysing a snippet.
type CodeReport struct {
	Result     *models.CodeComplexity
	MaxAllowed uint32
}

// CodeData is the structured form of a CodeReport.
type CodeData struct {
	MaxComplexityAllowed uint32        `json:"max_complexity_allowed" yaml:"max_complexity_allowed" toon:"max_complexity_allowed"`
	Complexity           uint32        `json:"complexity" yaml:"complexity" toon:"complexity"`
	Functions            []FunctionRow `json:"functions" yaml:"functions" toon:"functions"`
}

func (c *CodeReport) RenderData() any {
	data := CodeData{
		MaxComplexityAllowed: c.MaxAllowed,
		Complexity:           c.Result.Complexity(),
		Functions:            make([]FunctionRow, 0, len(c.Result.Functions)),
	}
	for _, fn := range c.Result.Functions {
		data.Functions = append(data.Functions, FunctionRow{
			Name:       fn.Name,
			Complexity: fn.Complexity,
			LineStart:  fn.LineStart,
			LineEnd:    fn.LineEnd,
			Passed:     !fn.Exceeds(c.MaxAllowed),
		})
	}
	return data
}

func (c *CodeReport) RenderText(w io.Writer, colored bool) error {
	if len(c.Result.Functions) == 0 {
		fmt.Fprintln(w, "No functions found.")
		return nil
	}
	rows := make([][]string, 0, len(c.Result.Functions))
	for _, fn := range c.Result.Functions {
		status := paint(colored, color.FgGreen).Sprint("PASSED")
		if fn.Exceeds(c.MaxAllowed) {
			status = paint(colored, color.FgRed).Sprint("FAILED")
		}
		rows = append(rows, []string{
			fn.Name,
			strconv.FormatUint(uint64(fn.Complexity), 10),
			fmt.Sprintf("%d-%d", fn.LineStart, fn.LineEnd),
			status,
		})
	}
	footer := []string{"Total", strconv.FormatUint(uint64(c.Result.Complexity()), 10), "", ""}
	return NewTable("", []string{"Function", "Complexity", "Lines", "Status"}, rows, footer, nil).RenderText(w, colored)
}

func (c *CodeReport) RenderMarkdown(w io.Writer) error {
	rows := make([][]string, 0, len(c.Result.Functions))
	for _, fn := range c.Result.Functions {
		rows = append(rows, []string{"`" + fn.Name + "`", strconv.FormatUint(uint64(fn.Complexity), 10)})
	}
	footer := []string{"**Total**", strconv.FormatUint(uint64(c.Result.Complexity()), 10)}
	return NewTable("Cognitive Complexity", []string{"Function", "Complexity"}, rows, footer, nil).RenderMarkdown(w)
}
