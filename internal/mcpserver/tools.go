package mcpserver

import (
	"bytes"
	"context"
	"errors"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/panbanda/cogmark/internal/diff"
	"github.com/panbanda/cogmark/internal/output"
	"github.com/panbanda/cogmark/pkg/analyzer/complexity"
	"github.com/panbanda/cogmark/pkg/models"
)

// AnalyzeCodeInput is the input of analyze_code.
type AnalyzeCodeInput struct {
	Code                 string `json:"code" jsonschema:"Python source to score."`
	MaxComplexityAllowed uint32 `json:"max_complexity_allowed,omitempty" jsonschema:"Threshold above which a function fails. Defaults to the configured value."`
	Format               string `json:"format,omitempty" jsonschema:"Output format: toon (default), json, or markdown."`
}

// AnalyzeInput is the shared input of the path-based tools.
type AnalyzeInput struct {
	Paths   []string `json:"paths,omitempty" jsonschema:"Files or directories to analyze. Defaults to the configured paths."`
	Exclude []string `json:"exclude,omitempty" jsonschema:"Extra gitignore-style patterns to skip."`
	Format  string   `json:"format,omitempty" jsonschema:"Output format: toon (default), json, or markdown."`
}

// AnalyzePathsInput is the input of analyze_paths.
type AnalyzePathsInput struct {
	AnalyzeInput
	MaxComplexityAllowed uint32 `json:"max_complexity_allowed,omitempty" jsonschema:"Threshold above which a function fails. Defaults to the configured value."`
	FailedOnly           bool   `json:"failed_only,omitempty" jsonschema:"Return only functions above the threshold."`
	Sort                 string `json:"sort,omitempty" jsonschema:"Function order within a file: asc, desc, or name."`
}

// DiffPathsInput is the input of diff_paths.
type DiffPathsInput struct {
	AnalyzeInput
	Ref         string `json:"ref,omitempty" jsonschema:"Git revision to compare against. Default HEAD."`
	ChangedOnly bool   `json:"changed_only,omitempty" jsonschema:"Drop UNCHANGED entries."`
}

// pathsResult is analyze_paths output: the report plus unprocessable paths.
type pathsResult struct {
	Report output.ReportData `json:"report" toon:"report"`
	Errors []string          `json:"errors,omitempty" toon:"errors"`
}

func (s *Server) paths(input AnalyzeInput) []string {
	if len(input.Paths) > 0 {
		return input.Paths
	}
	if len(s.config.Paths) > 0 {
		return s.config.Paths
	}
	return []string{"."}
}

func (s *Server) excludes(input AnalyzeInput) []string {
	return append(append([]string(nil), s.config.Exclude...), input.Exclude...)
}

func (s *Server) maxAllowed(v uint32) uint32 {
	if v > 0 {
		return v
	}
	return s.config.MaxComplexityAllowed
}

func (s *Server) newAnalyzer() *complexity.Analyzer {
	return complexity.New(
		complexity.WithMarker(s.config.NoqaMarker),
		complexity.WithWorkers(s.config.Workers),
		complexity.WithGitignore(s.config.Gitignore),
	)
}

func getFormat(format string) output.Format {
	switch strings.ToLower(format) {
	case "json":
		return output.FormatJSON
	case "markdown", "md":
		return output.FormatMarkdown
	default:
		return output.FormatTOON
	}
}

// formatOutput renders data through the shared output formatter.
func formatOutput(data any, format output.Format) (string, error) {
	var buf bytes.Buffer
	if err := output.NewWriterFormatter(format, &buf, false).Output(data); err != nil {
		return "", err
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}

func toolResult(data any, format output.Format) (*mcp.CallToolResult, any, error) {
	text, err := formatOutput(data, format)
	if err != nil {
		return nil, nil, err
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}, nil, nil
}

func toolError(msg string) (*mcp.CallToolResult, any, error) {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: "Error: " + msg},
		},
		IsError: true,
	}, nil, nil
}

func (s *Server) handleAnalyzeCode(ctx context.Context, req *mcp.CallToolRequest, input AnalyzeCodeInput) (*mcp.CallToolResult, any, error) {
	if strings.TrimSpace(input.Code) == "" {
		return toolError("code is required")
	}

	a := s.newAnalyzer()
	defer a.Close()

	result, err := a.AnalyzeCode(input.Code)
	if err != nil {
		return toolError(err.Error())
	}
	return toolResult(&output.CodeReport{Result: result, MaxAllowed: s.maxAllowed(input.MaxComplexityAllowed)}, getFormat(input.Format))
}

func (s *Server) handleAnalyzePaths(ctx context.Context, req *mcp.CallToolRequest, input AnalyzePathsInput) (*mcp.CallToolResult, any, error) {
	order := models.SortOrder(input.Sort)
	if input.Sort == "" {
		order = models.SortOrder(s.config.Sort)
	}
	if !order.Valid() {
		return toolError("sort must be asc, desc, or name")
	}

	a := s.newAnalyzer()
	defer a.Close()

	files, failed := a.AnalyzeBatch(ctx, s.paths(input.AnalyzeInput), s.excludes(input.AnalyzeInput))
	if len(files) == 0 && len(failed) == 0 {
		return toolError("no Python files found")
	}

	report := &output.ComplexityReport{
		Files:      files,
		MaxAllowed: s.maxAllowed(input.MaxComplexityAllowed),
		Sort:       order,
		FailedOnly: input.FailedOnly,
	}

	format := getFormat(input.Format)
	if format == output.FormatMarkdown {
		return toolResult(report, format)
	}
	return toolResult(pathsResult{Report: report.Build(), Errors: failed}, format)
}

func (s *Server) handleDiffPaths(ctx context.Context, req *mcp.CallToolRequest, input DiffPathsInput) (*mcp.CallToolResult, any, error) {
	a := s.newAnalyzer()
	defer a.Close()

	files, _ := a.AnalyzeBatch(ctx, s.paths(input.AnalyzeInput), s.excludes(input.AnalyzeInput))
	if len(files) == 0 {
		return toolError("no Python files found")
	}

	report, err := diff.Compare(ctx, a, files, diff.Options{Ref: input.Ref})
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, nil, err
		}
		return toolError(err.Error())
	}
	if input.ChangedOnly {
		report.Entries = report.Changed()
	}
	return toolResult(&output.DiffView{Report: report}, getFormat(input.Format))
}
