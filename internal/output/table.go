package output

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
)

// TableFormatter renders Tabular values with go-pretty.
type TableFormatter struct {
	// Markdown switches the output to a GitHub-flavoured markdown table.
	Markdown bool
}

// Format renders v as a table.
func (f *TableFormatter) Format(w io.Writer, v any) error {
	data, ok := v.(Tabular)
	if !ok {
		return fmt.Errorf("table output not supported for %T", v)
	}

	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(toRow(data.Header()))
	for _, row := range data.Rows() {
		t.AppendRow(toRow(row))
	}

	var rendered string
	if f.Markdown {
		rendered = t.RenderMarkdown()
	} else {
		rendered = t.Render()
	}
	_, err := fmt.Fprintln(w, rendered)
	return err
}

func toRow(cells []string) table.Row {
	row := make(table.Row, len(cells))
	for i, c := range cells {
		row[i] = c
	}
	return row
}
