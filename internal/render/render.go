// Package render prints query results for terminals.
package render

import (
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"

	"github.com/tuannm99/novaquery/internal/sql/executor"
)

// Table writes res as a bordered table followed by a row count line.
func Table(w io.Writer, res *executor.Result) {
	if len(res.Columns) == 0 {
		fmt.Fprintf(w, "OK (%s affected)\n", humanize.Comma(res.AffectedRows))
		return
	}

	tw := tablewriter.NewWriter(w)
	tw.SetHeader(res.Columns)
	tw.SetAutoFormatHeaders(false)
	tw.SetAutoWrapText(false)
	tw.SetAlignment(tablewriter.ALIGN_LEFT)
	for _, row := range res.Rows {
		cells := make([]string, len(res.Columns))
		for i := range cells {
			if i < len(row) {
				cells[i] = executor.FormatValue(row[i])
			} else {
				cells[i] = "NULL"
			}
		}
		tw.Append(cells)
	}
	tw.Render()
	fmt.Fprintln(w, Summary(res.AffectedRows, 0))
}

// Summary is the "(N rows)" footer, with the elapsed time when known.
func Summary(rows int64, elapsed time.Duration) string {
	noun := "rows"
	if rows == 1 {
		noun = "row"
	}
	if elapsed <= 0 {
		return fmt.Sprintf("(%s %s)", humanize.Comma(rows), noun)
	}
	return fmt.Sprintf("(%s %s, %s)", humanize.Comma(rows), noun, elapsed.Round(time.Microsecond))
}
