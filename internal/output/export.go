package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/google/uuid"
	"github.com/panbanda/cogmark/pkg/models"
)

// Default export file names.
const (
	DefaultCSVFile   = "cogmark.csv"
	DefaultJSONFile  = "cogmark.json"
	DefaultSARIFFile = "cogmark.sarif"
)

const (
	sarifSchema  = "https://raw.githubusercontent.com/oasis-tcs/sarif-spec/master/Schemata/sarif-schema-2.1.0.json"
	sarifRuleID  = "CC001"
	sarifInfoURI = "https://github.com/panbanda/cogmark"
)

// ExportOptions selects the exported rows.
type ExportOptions struct {
	MaxAllowed uint32
	Sort       models.SortOrder
	// FailedOnly exports only functions over MaxAllowed.
	FailedOnly bool
	// Version is recorded as the SARIF tool version.
	Version string
}

func (o ExportOptions) records(files []models.FileComplexity) []models.FunctionRecord {
	all := models.Flatten(files)
	out := make([]models.FunctionRecord, 0, len(all))
	for _, r := range all {
		if o.FailedOnly && r.Complexity <= o.MaxAllowed {
			continue
		}
		out = append(out, r)
	}
	return out
}

// WriteCSV writes one row per function, ordered by opts.Sort.
func WriteCSV(w io.Writer, files []models.FileComplexity, opts ExportOptions) error {
	records := opts.records(files)
	models.SortRecords(records, opts.Sort)

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Path", "File Name", "Function Name", "Cognitive Complexity"}); err != nil {
		return err
	}
	for _, r := range records {
		row := []string{r.Path, r.FileName, r.Function, strconv.FormatUint(uint64(r.Complexity), 10)}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteJSON writes a flat list of function records.
func WriteJSON(w io.Writer, files []models.FileComplexity, opts ExportOptions) error {
	return encodeJSON(w, opts.records(files))
}

type sarifLog struct {
	Version string     `json:"version"`
	Schema  string     `json:"$schema"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool              sarifTool       `json:"tool"`
	AutomationDetails sarifAutomation `json:"automationDetails"`
	Results           []sarifResult   `json:"results"`
}

type sarifAutomation struct {
	GUID string `json:"guid"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name           string      `json:"name"`
	Version        string      `json:"version"`
	InformationURI string      `json:"informationUri"`
	Rules          []sarifRule `json:"rules"`
}

type sarifRule struct {
	ID               string         `json:"id"`
	Name             string         `json:"name"`
	ShortDescription sarifMessage   `json:"shortDescription"`
	Properties       map[string]any `json:"properties"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifResult struct {
	RuleID    string          `json:"ruleId"`
	Level     string          `json:"level"`
	Message   sarifMessage    `json:"message"`
	Locations []sarifLocation `json:"locations"`
}

type sarifLocation struct {
	PhysicalLocation sarifPhysical  `json:"physicalLocation"`
	LogicalLocations []sarifLogical `json:"logicalLocations"`
}

type sarifPhysical struct {
	ArtifactLocation sarifArtifact `json:"artifactLocation"`
	Region           sarifRegion   `json:"region"`
}

type sarifArtifact struct {
	URI       string `json:"uri"`
	URIBaseID string `json:"uriBaseId"`
}

type sarifRegion struct {
	StartLine uint32 `json:"startLine"`
	EndLine   uint32 `json:"endLine"`
}

type sarifLogical struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
}

// WriteSARIF writes a SARIF 2.1.0 log with one warning per function over
// opts.MaxAllowed.
func WriteSARIF(w io.Writer, files []models.FileComplexity, opts ExportOptions) error {
	version := opts.Version
	if version == "" {
		version = "unknown"
	}

	results := []sarifResult{}
	for _, f := range files {
		for _, fn := range f.Over(opts.MaxAllowed) {
			results = append(results, sarifResult{
				RuleID: sarifRuleID,
				Level:  "warning",
				Message: sarifMessage{Text: fmt.Sprintf(
					"Function '%s' has a cognitive complexity of %d, which exceeds the maximum allowed complexity of %d.",
					fn.Name, fn.Complexity, opts.MaxAllowed)},
				Locations: []sarifLocation{{
					PhysicalLocation: sarifPhysical{
						ArtifactLocation: sarifArtifact{URI: f.Location(), URIBaseID: "%SRCROOT%"},
						Region:           sarifRegion{StartLine: fn.LineStart, EndLine: fn.LineEnd},
					},
					LogicalLocations: []sarifLogical{{Name: fn.Name, Kind: "function"}},
				}},
			})
		}
	}

	doc := sarifLog{
		Version: "2.1.0",
		Schema:  sarifSchema,
		Runs: []sarifRun{{
			Tool: sarifTool{Driver: sarifDriver{
				Name:           "cogmark",
				Version:        version,
				InformationURI: sarifInfoURI,
				Rules: []sarifRule{{
					ID:               sarifRuleID,
					Name:             "CognitiveComplexity",
					ShortDescription: sarifMessage{Text: "Cognitive complexity exceeds threshold"},
					Properties:       map[string]any{"tags": []string{"maintainability", "readability"}},
				}},
			}},
			AutomationDetails: sarifAutomation{GUID: uuid.NewString()},
			Results:           results,
		}},
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

// ExportFile writes an export to path using write.
func ExportFile(path string, files []models.FileComplexity, opts ExportOptions,
	write func(io.Writer, []models.FileComplexity, ExportOptions) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(f, files, opts); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
