package output

import (
	"bytes"
	"testing"

	"github.com/panbanda/cogmark/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func u32(v uint32) *uint32 { return &v }

func sampleDiff() *models.DiffReport {
	r := &models.DiffReport{Ref: "main"}
	r.Add(models.DiffEntry{Path: "a.py", Function: "grew", Status: models.DiffRegressed, Before: u32(3), After: u32(7), Delta: 4})
	r.Add(models.DiffEntry{Path: "a.py", Function: "same", Status: models.DiffUnchanged, Before: u32(2), After: u32(2)})
	r.Add(models.DiffEntry{Path: "b.py", Function: "fresh", Status: models.DiffNew, After: u32(5), Delta: 5})
	r.Add(models.DiffEntry{Path: "b.py", Function: "old", Status: models.DiffRemoved, Before: u32(1), Delta: -1})
	return r
}

func TestDiffView_RenderText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&DiffView{Report: sampleDiff()}).RenderText(&buf, false))
	out := buf.String()

	assert.Contains(t, out, "Complexity diff (vs main)")
	assert.Contains(t, out, "a.py::grew")
	assert.Contains(t, out, "b.py::fresh")
	assert.NotContains(t, out, "a.py::same")
	assert.Contains(t, out, "Net: 1 regressed, 1 new, 1 removed\n")
}

func TestDiffView_RenderTextNoChanges(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&DiffView{Report: &models.DiffReport{Ref: "HEAD"}}).RenderText(&buf, false))
	assert.Equal(t, "No functions changed relative to HEAD.\n", buf.String())
}

func TestDiffView_RenderMarkdown(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&DiffView{Report: sampleDiff()}).RenderMarkdown(&buf))
	out := buf.String()

	assert.Contains(t, out, "| REGRESSED | a.py::grew | 3 | 7 | +4 |")
	assert.Contains(t, out, "| NEW | b.py::fresh | - | 5 | +5 |")
	assert.Contains(t, out, "| REMOVED | b.py::old | 1 | - | -1 |")
	assert.Contains(t, out, "**Net:** 1 regressed, 1 new, 1 removed")
}

func TestDiffView_RenderData(t *testing.T) {
	report := sampleDiff()
	assert.Same(t, report, (&DiffView{Report: report}).RenderData())
	assert.Equal(t, 8, report.Net)
}
