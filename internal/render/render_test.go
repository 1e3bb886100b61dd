package render

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tuannm99/novaquery/internal/sql/executor"
)

func TestTable(t *testing.T) {
	var buf bytes.Buffer
	Table(&buf, &executor.Result{
		Columns:      []string{"first_name", "salary"},
		Rows:         [][]any{{"Bill", int64(12000)}, {"Von", nil}},
		AffectedRows: 2,
	})

	out := buf.String()
	require.Contains(t, out, "first_name")
	require.Contains(t, out, "Bill")
	require.Contains(t, out, "12000")
	require.Contains(t, out, "NULL")
	require.True(t, strings.HasSuffix(out, "(2 rows)\n"), out)
}

func TestTable_NoColumns(t *testing.T) {
	var buf bytes.Buffer
	Table(&buf, &executor.Result{AffectedRows: 1500})
	require.Equal(t, "OK (1,500 affected)\n", buf.String())
}

func TestSummary(t *testing.T) {
	require.Equal(t, "(1 row)", Summary(1, 0))
	require.Equal(t, "(12,345 rows)", Summary(12345, 0))
	require.Equal(t, "(3 rows, 1.5ms)", Summary(3, 1500*time.Microsecond))
}
