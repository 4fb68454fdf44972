package models

import (
	"encoding/json"
	"sort"
)

// DefaultMaxComplexity is the threshold used when none is configured.
const DefaultMaxComplexity = 15

// FunctionComplexity is the cognitive complexity of a single function.
type FunctionComplexity struct {
	Name       string `json:"name" yaml:"name" toon:"name"`
	Complexity uint32 `json:"complexity" yaml:"complexity" toon:"complexity"`
	LineStart  uint32 `json:"line_start" yaml:"line_start" toon:"line_start"`
	LineEnd    uint32 `json:"line_end" yaml:"line_end" toon:"line_end"`
}

// Exceeds reports whether the function is over the given threshold.
func (f FunctionComplexity) Exceeds(maxAllowed uint32) bool {
	return f.Complexity > maxAllowed
}

// FileComplexity aggregates the functions of one source file.
// The file total is derived from Functions and cannot be set directly.
type FileComplexity struct {
	Path      string
	FileName  string
	Functions []FunctionComplexity

	complexity uint32
}

// NewFileComplexity builds a file result whose total is the sum of its functions.
func NewFileComplexity(path, fileName string, functions []FunctionComplexity) FileComplexity {
	if functions == nil {
		functions = []FunctionComplexity{}
	}
	return FileComplexity{
		Path:       path,
		FileName:   fileName,
		Functions:  functions,
		complexity: sumComplexity(functions),
	}
}

// Complexity returns the file total.
func (f FileComplexity) Complexity() uint32 {
	return f.complexity
}

// Total recomputes the file total from the function list.
func (f FileComplexity) Total() uint32 {
	return sumComplexity(f.Functions)
}

// Location is the display location of the file used in messages.
func (f FileComplexity) Location() string {
	if f.Path != "" {
		return f.Path
	}
	return f.FileName
}

// Key returns the tracking key for one of the file's functions.
func (f FileComplexity) Key(function string) FunctionKey {
	return FunctionKey{Path: f.Path, FileName: f.FileName, Function: function}
}

// Over returns the functions exceeding maxAllowed, in source order.
func (f FileComplexity) Over(maxAllowed uint32) []FunctionComplexity {
	var over []FunctionComplexity
	for _, fn := range f.Functions {
		if fn.Exceeds(maxAllowed) {
			over = append(over, fn)
		}
	}
	return over
}

type fileComplexityJSON struct {
	Path       string               `json:"path" yaml:"path" toon:"path"`
	FileName   string               `json:"file_name" yaml:"file_name" toon:"file_name"`
	Complexity uint32               `json:"complexity" yaml:"complexity" toon:"complexity"`
	Functions  []FunctionComplexity `json:"functions" yaml:"functions" toon:"functions"`
}

// MarshalJSON includes the derived total.
func (f FileComplexity) MarshalJSON() ([]byte, error) {
	functions := f.Functions
	if functions == nil {
		functions = []FunctionComplexity{}
	}
	return json.Marshal(fileComplexityJSON{
		Path:       f.Path,
		FileName:   f.FileName,
		Complexity: f.complexity,
		Functions:  functions,
	})
}

// UnmarshalJSON ignores any serialized total and recomputes it.
func (f *FileComplexity) UnmarshalJSON(data []byte) error {
	var raw fileComplexityJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*f = NewFileComplexity(raw.Path, raw.FileName, raw.Functions)
	return nil
}

// CodeComplexity is the result of analysing an in-memory snippet.
type CodeComplexity struct {
	Functions []FunctionComplexity

	complexity uint32
}

// NewCodeComplexity builds a snippet result whose total is the sum of its functions.
func NewCodeComplexity(functions []FunctionComplexity) CodeComplexity {
	if functions == nil {
		functions = []FunctionComplexity{}
	}
	return CodeComplexity{Functions: functions, complexity: sumComplexity(functions)}
}

// Complexity returns the snippet total.
func (c CodeComplexity) Complexity() uint32 {
	return c.complexity
}

// MarshalJSON includes the derived total.
func (c CodeComplexity) MarshalJSON() ([]byte, error) {
	functions := c.Functions
	if functions == nil {
		functions = []FunctionComplexity{}
	}
	return json.Marshal(struct {
		Complexity uint32               `json:"complexity" yaml:"complexity" toon:"complexity"`
		Functions  []FunctionComplexity `json:"functions" yaml:"functions" toon:"functions"`
	}{c.complexity, functions})
}

// FunctionKey identifies a function across runs.
type FunctionKey struct {
	Path     string `json:"path" yaml:"path" toon:"path"`
	FileName string `json:"file_name" yaml:"file_name" toon:"file_name"`
	Function string `json:"function_name" yaml:"function_name" toon:"function_name"`
}

// String formats the key as location:function.
func (k FunctionKey) String() string {
	loc := k.Path
	if loc == "" {
		loc = k.FileName
	}
	return loc + ":" + k.Function
}

// FunctionRecord is a flattened function row used by exporters.
type FunctionRecord struct {
	Path       string `json:"path" yaml:"path" toon:"path"`
	FileName   string `json:"file_name" yaml:"file_name" toon:"file_name"`
	Function   string `json:"function_name" yaml:"function_name" toon:"function_name"`
	Complexity uint32 `json:"complexity" yaml:"complexity" toon:"complexity"`
	LineStart  uint32 `json:"line_start" yaml:"line_start" toon:"line_start"`
	LineEnd    uint32 `json:"line_end" yaml:"line_end" toon:"line_end"`
}

// Key returns the record's tracking key.
func (r FunctionRecord) Key() FunctionKey {
	return FunctionKey{Path: r.Path, FileName: r.FileName, Function: r.Function}
}

// SortOrder controls function ordering in reports.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
	SortName SortOrder = "name"
)

// String implements fmt.Stringer.
func (s SortOrder) String() string { return string(s) }

// Valid reports whether s is a known order.
func (s SortOrder) Valid() bool {
	switch s {
	case SortAsc, SortDesc, SortName:
		return true
	}
	return false
}

// Flatten returns one record per function in file order.
func Flatten(files []FileComplexity) []FunctionRecord {
	var records []FunctionRecord
	for _, f := range files {
		for _, fn := range f.Functions {
			records = append(records, FunctionRecord{
				Path:       f.Path,
				FileName:   f.FileName,
				Function:   fn.Name,
				Complexity: fn.Complexity,
				LineStart:  fn.LineStart,
				LineEnd:    fn.LineEnd,
			})
		}
	}
	return records
}

// SortRecords orders records in place. Ties keep their discovery order.
func SortRecords(records []FunctionRecord, order SortOrder) {
	switch order {
	case SortDesc:
		sort.SliceStable(records, func(i, j int) bool {
			return records[i].Complexity > records[j].Complexity
		})
	case SortName:
		sort.SliceStable(records, func(i, j int) bool {
			if records[i].Path != records[j].Path {
				return records[i].Path < records[j].Path
			}
			return records[i].Function < records[j].Function
		})
	default:
		sort.SliceStable(records, func(i, j int) bool {
			return records[i].Complexity < records[j].Complexity
		})
	}
}

// SortFunctions orders a file's functions in place.
func SortFunctions(functions []FunctionComplexity, order SortOrder) {
	switch order {
	case SortDesc:
		sort.SliceStable(functions, func(i, j int) bool {
			return functions[i].Complexity > functions[j].Complexity
		})
	case SortName:
		sort.SliceStable(functions, func(i, j int) bool {
			return functions[i].Name < functions[j].Name
		})
	default:
		sort.SliceStable(functions, func(i, j int) bool {
			return functions[i].Complexity < functions[j].Complexity
		})
	}
}

func sumComplexity(functions []FunctionComplexity) uint32 {
	var total uint32
	for _, fn := range functions {
		total += fn.Complexity
	}
	return total
}
