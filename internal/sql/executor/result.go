package executor

import (
	"fmt"
	"strings"

	"github.com/apache/arrow/go/v11/arrow"
	"github.com/apache/arrow/go/v11/arrow/array"
)

// Result is the materialized answer handed to callers and the wire.
type Result struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`

	// Rows produced.
	AffectedRows int64 `json:"affected_rows"`
}

// NewResult copies records into Go values: bool, int32, int64, float64,
// string, or nil for NULL.
func NewResult(columns []string, records []arrow.Record) *Result {
	res := &Result{Columns: columns}
	for _, rec := range records {
		for i := 0; i < int(rec.NumRows()); i++ {
			row := make([]any, rec.NumCols())
			for j := range row {
				row[j] = valueAt(rec.Column(j), i)
			}
			res.Rows = append(res.Rows, row)
		}
	}
	res.AffectedRows = int64(len(res.Rows))
	return res
}

func valueAt(col arrow.Array, i int) any {
	if col.DataType().ID() == arrow.NULL || col.IsNull(i) {
		return nil
	}
	switch c := col.(type) {
	case *array.Boolean:
		return c.Value(i)
	case *array.Int32:
		return c.Value(i)
	case *array.Int64:
		return c.Value(i)
	case *array.Float64:
		return c.Value(i)
	case *array.String:
		return c.Value(i)
	default:
		return fmt.Sprintf("<%s>", col.DataType())
	}
}

// String prints one line per row with values separated by spaces.
func (r *Result) String() string {
	var sb strings.Builder
	for _, row := range r.Rows {
		for j, v := range row {
			if j > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString(FormatValue(v))
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

func FormatValue(v any) string {
	if v == nil {
		return "NULL"
	}
	return fmt.Sprint(v)
}
