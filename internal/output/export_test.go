package output

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/panbanda/cogmark/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, reportFiles(), ExportOptions{MaxAllowed: 15, Sort: models.SortDesc}))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"Path", "File Name", "Function Name", "Cognitive Complexity"},
		{"src/a.py", "a.py", "tangled", "22"},
		{"src/b.py", "b.py", "Parser::parse", "16"},
		{"src/a.py", "a.py", "tidy", "2"},
		{"src/b.py", "b.py", "helper", "0"},
	}, rows)
}

func TestWriteCSV_FailedOnly(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, reportFiles(), ExportOptions{MaxAllowed: 15, Sort: models.SortName, FailedOnly: true}))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "tangled", rows[1][2])
	assert.Equal(t, "Parser::parse", rows[2][2])
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, reportFiles(), ExportOptions{MaxAllowed: 15}))

	var got []models.FunctionRecord
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 4)
	assert.Equal(t, models.FunctionRecord{
		Path: "src/a.py", FileName: "a.py", Function: "tangled", Complexity: 22, LineStart: 10, LineEnd: 80,
	}, got[0])

	buf.Reset()
	require.NoError(t, WriteJSON(&buf, nil, ExportOptions{}))
	assert.JSONEq(t, "[]", buf.String())
}

func TestWriteSARIF(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteSARIF(&buf, reportFiles(), ExportOptions{MaxAllowed: 15, Version: "1.2.3"}))

	var doc sarifLog
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, "2.1.0", doc.Version)
	require.Len(t, doc.Runs, 1)

	run := doc.Runs[0]
	assert.Equal(t, "cogmark", run.Tool.Driver.Name)
	assert.Equal(t, "1.2.3", run.Tool.Driver.Version)
	assert.Equal(t, "CC001", run.Tool.Driver.Rules[0].ID)
	_, err := uuid.Parse(run.AutomationDetails.GUID)
	assert.NoError(t, err)

	require.Len(t, run.Results, 2)
	res := run.Results[0]
	assert.Equal(t, "warning", res.Level)
	assert.Equal(t, "Function 'tangled' has a cognitive complexity of 22, which exceeds the maximum allowed complexity of 15.", res.Message.Text)
	loc := res.Locations[0].PhysicalLocation
	assert.Equal(t, "src/a.py", loc.ArtifactLocation.URI)
	assert.Equal(t, uint32(10), loc.Region.StartLine)
	assert.Equal(t, uint32(80), loc.Region.EndLine)
}

func TestWriteSARIF_NoViolations(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteSARIF(&buf, reportFiles(), ExportOptions{MaxAllowed: 100}))
	assert.Contains(t, buf.String(), `"results": []`)
	assert.Contains(t, buf.String(), `"version": "unknown"`)
}

func TestExportFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultCSVFile)
	require.NoError(t, ExportFile(path, reportFiles(), ExportOptions{MaxAllowed: 15}, WriteCSV))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Path,File Name,Function Name,Cognitive Complexity")

	err = ExportFile(filepath.Join(t.TempDir(), "missing", "x.csv"), nil, ExportOptions{}, WriteCSV)
	assert.Error(t, err)
}
