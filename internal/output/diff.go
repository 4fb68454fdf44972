package output

import (
	"fmt"
	"io"
	"strconv"

	"github.com/fatih/color"
	"github.com/panbanda/cogmark/pkg/models"
)

// DiffView renders a comparison against a git revision. Unchanged functions
// are omitted from text and markdown output.
type DiffView struct {
	Report *models.DiffReport
}

func (d *DiffView) RenderData() any {
	return d.Report
}

func (d *DiffView) rows(colored bool) [][]string {
	changed := d.Report.Changed()
	rows := make([][]string, 0, len(changed))
	for _, e := range changed {
		rows = append(rows, []string{
			statusColor(e.Status, colored),
			e.Path + "::" + e.Function,
			score(e.Before),
			score(e.After),
			fmt.Sprintf("%+d", e.Delta),
		})
	}
	return rows
}

func (d *DiffView) RenderText(w io.Writer, colored bool) error {
	if len(d.Report.Changed()) == 0 {
		fmt.Fprintf(w, "No functions changed relative to %s.\n", d.Report.Ref)
		return nil
	}
	t := NewTable(
		fmt.Sprintf("Complexity diff (vs %s)", d.Report.Ref),
		[]string{"Status", "Function", "Before", "After", "Delta"},
		d.rows(colored),
		nil, nil,
	)
	if err := t.RenderText(w, colored); err != nil {
		return err
	}
	fmt.Fprintf(w, "Net: %s\n", d.Report.Summary())
	return nil
}

func (d *DiffView) RenderMarkdown(w io.Writer) error {
	t := NewTable(
		fmt.Sprintf("Complexity diff (vs %s)", d.Report.Ref),
		[]string{"Status", "Function", "Before", "After", "Delta"},
		d.rows(false),
		nil, nil,
	)
	if err := t.RenderMarkdown(w); err != nil {
		return err
	}
	fmt.Fprintf(w, "**Net:** %s\n", d.Report.Summary())
	return nil
}

func score(v *uint32) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatUint(uint64(*v), 10)
}

func statusColor(s models.DiffStatus, colored bool) string {
	switch s {
	case models.DiffRegressed:
		return paint(colored, color.FgRed).Sprint(s)
	case models.DiffImproved:
		return paint(colored, color.FgGreen).Sprint(s)
	case models.DiffNew:
		return paint(colored, color.FgYellow).Sprint(s)
	default:
		return s.String()
	}
}
