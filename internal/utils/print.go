package utils

import (
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
)

/**
 * Print rows as a table
 * @param {io.Writer} w - Output
 * @param {[]string} header - Column titles
 * @param {[][]string} rows - Table body, one slice per row
 */
func PrintTable(w io.Writer, header []string, rows [][]string) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	h := make(table.Row, len(header))
	for i, v := range header {
		h[i] = v
	}
	t.AppendHeader(h)
	for _, row := range rows {
		r := make(table.Row, len(row))
		for i, v := range row {
			r[i] = v
		}
		t.AppendRow(r)
	}
	t.Render()
}
