package storage

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/apache/arrow/go/v11/arrow"
	"github.com/apache/arrow/go/v11/arrow/array"
	"github.com/apache/arrow/go/v11/arrow/memory"
	"github.com/apache/arrow/go/v11/parquet"
	"github.com/apache/arrow/go/v11/parquet/compress"
	"github.com/apache/arrow/go/v11/parquet/pqarrow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const employeeCSV = "testdata/employee.csv"

func drain(t *testing.T, tbl Table) []arrow.Record {
	t.Helper()
	txn, err := tbl.Read(context.Background())
	require.NoError(t, err)
	defer func() { require.NoError(t, txn.Close()) }()

	var out []arrow.Record
	for {
		rec, err := txn.NextBatch()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		out = append(out, rec)
	}
	_, err = txn.NextBatch()
	require.ErrorIs(t, err, ErrTransactionDone)
	return out
}

func totalRows(recs []arrow.Record) int64 {
	var n int64
	for _, r := range recs {
		n += r.NumRows()
	}
	return n
}

func TestGetBackend(t *testing.T) {
	b, err := GetBackend("Parquet")
	require.NoError(t, err)
	assert.Equal(t, Parquet, b)
	assert.Equal(t, "parquet", b.String())

	_, err = GetBackend("rocksdb")
	require.ErrorIs(t, err, ErrUnknownBackend)
}

func TestInferCSVSchema(t *testing.T) {
	schema, err := InferCSVSchema(employeeCSV, DefaultCSVOptions())
	require.NoError(t, err)

	want := []struct {
		name string
		typ  arrow.DataType
	}{
		{"id", arrow.PrimitiveTypes.Int64},
		{"first_name", arrow.BinaryTypes.String},
		{"last_name", arrow.BinaryTypes.String},
		{"state", arrow.BinaryTypes.String},
		{"job_title", arrow.BinaryTypes.String},
		{"salary", arrow.PrimitiveTypes.Int64},
	}
	require.Len(t, schema.Fields(), len(want))
	for i, w := range want {
		f := schema.Field(i)
		assert.Equal(t, w.name, f.Name)
		assert.True(t, arrow.TypeEqual(w.typ, f.Type), "column %s: %s", f.Name, f.Type)
	}
}

func TestInferCSVSchema_Headerless(t *testing.T) {
	path := filepath.Join(t.TempDir(), "points.csv")
	require.NoError(t, os.WriteFile(path, []byte("1,2.5,true\n2,3,false\n"), 0o644))

	opts := DefaultCSVOptions()
	opts.HasHeader = false
	schema, err := InferCSVSchema(path, opts)
	require.NoError(t, err)

	require.Equal(t, "column_1", schema.Field(0).Name)
	require.True(t, arrow.TypeEqual(arrow.PrimitiveTypes.Int64, schema.Field(0).Type))
	require.True(t, arrow.TypeEqual(arrow.PrimitiveTypes.Float64, schema.Field(1).Type))
	require.True(t, arrow.TypeEqual(arrow.FixedWidthTypes.Boolean, schema.Field(2).Type))
}

func TestCSVStorage_Scan(t *testing.T) {
	opts := DefaultCSVOptions()
	opts.BatchSize = 4
	s := NewCSVStorage(opts)
	require.NoError(t, s.CreateTable("Employee", employeeCSV))

	tbl, err := s.GetTable("employee")
	require.NoError(t, err)
	require.Equal(t, "Employee", tbl.Catalog().Name)

	recs := drain(t, tbl)
	defer func() {
		for _, r := range recs {
			r.Release()
		}
	}()
	require.Len(t, recs, 2)
	require.EqualValues(t, 6, totalRows(recs))

	names := recs[0].Column(1).(*array.String)
	assert.Equal(t, "Bill", names.Value(0))
	assert.Equal(t, "Von", names.Value(3))
	jobs := recs[0].Column(4).(*array.String)
	assert.Equal(t, "Cook, Senior", jobs.Value(2))
}

func TestCSVStorage_BlankCellsAreNull(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scores.csv")
	require.NoError(t, os.WriteFile(path, []byte("id,score,name\n1,,a\n2,5,\n3,7,c\n"), 0o644))

	s := NewCSVStorage(DefaultCSVOptions())
	require.NoError(t, s.CreateTable("scores", path))
	tbl, err := s.GetTable("scores")
	require.NoError(t, err)
	score, _ := tbl.Catalog().GetColumnByName("score")
	require.True(t, arrow.TypeEqual(arrow.PrimitiveTypes.Int64, score.DataType()))

	recs := drain(t, tbl)
	defer func() {
		for _, r := range recs {
			r.Release()
		}
	}()
	require.Len(t, recs, 1)

	scores := recs[0].Column(1).(*array.Int64)
	require.True(t, scores.IsNull(0))
	require.Equal(t, int64(5), scores.Value(1))
	require.Equal(t, 1, scores.NullN())

	names := recs[0].Column(2).(*array.String)
	require.True(t, names.IsNull(1))
	require.Equal(t, "c", names.Value(2))
}

func TestCSVStorage_DuplicateAndMissing(t *testing.T) {
	s := NewCSVStorage(DefaultCSVOptions())
	require.NoError(t, s.CreateTable("employee", employeeCSV))
	require.ErrorIs(t, s.CreateTable("EMPLOYEE", employeeCSV), ErrTableExists)

	_, err := s.GetTable("nope")
	require.ErrorIs(t, err, ErrTableNotFound)

	require.ErrorIs(t, s.CreateTable("ghost", "testdata/missing.csv"), ErrStorageIO)
}

func TestCSVStorage_ReadCancelled(t *testing.T) {
	s := NewCSVStorage(DefaultCSVOptions())
	require.NoError(t, s.CreateTable("employee", employeeCSV))
	tbl, err := s.GetTable("employee")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = tbl.Read(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func writeParquet(t *testing.T, path string) {
	t.Helper()
	schema := arrow.NewSchema([]arrow.Field{
		{Name: "id", Type: arrow.PrimitiveTypes.Int32, Nullable: true},
		{Name: "name", Type: arrow.BinaryTypes.String, Nullable: true},
	}, nil)

	b := array.NewRecordBuilder(memory.DefaultAllocator, schema)
	defer b.Release()
	b.Field(0).(*array.Int32Builder).AppendValues([]int32{1, 2, 3, 4, 5}, nil)
	b.Field(1).(*array.StringBuilder).AppendValues([]string{"a", "b", "c", "d", "e"}, nil)
	rec := b.NewRecord()
	defer rec.Release()

	buf := new(bytes.Buffer)
	props := parquet.NewWriterProperties(parquet.WithCompression(compress.Codecs.Uncompressed))
	w, err := pqarrow.NewFileWriter(schema, buf, props, pqarrow.DefaultWriterProps())
	require.NoError(t, err)
	require.NoError(t, w.Write(rec))
	require.NoError(t, w.Close())
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

func TestParquetStorage_Scan(t *testing.T) {
	path := filepath.Join(t.TempDir(), "people.parquet")
	writeParquet(t, path)

	s := NewParquetStorage(2)
	require.NoError(t, s.CreateTable("people", path))
	tbl, err := s.GetTable("people")
	require.NoError(t, err)

	cols := tbl.Catalog().GetAllColumns()
	require.Len(t, cols, 2)
	require.True(t, arrow.TypeEqual(arrow.PrimitiveTypes.Int32, cols[0].DataType()))
	require.True(t, arrow.TypeEqual(arrow.BinaryTypes.String, cols[1].DataType()))

	recs := drain(t, tbl)
	defer func() {
		for _, r := range recs {
			r.Release()
		}
	}()
	require.EqualValues(t, 5, totalRows(recs))
	require.Equal(t, int32(1), recs[0].Column(0).(*array.Int32).Value(0))
}

func TestMemoryStorage_Scan(t *testing.T) {
	schema := arrow.NewSchema([]arrow.Field{{Name: "v", Type: arrow.PrimitiveTypes.Int64, Nullable: true}}, nil)
	b := array.NewRecordBuilder(memory.DefaultAllocator, schema)
	defer b.Release()
	b.Field(0).(*array.Int64Builder).AppendValues([]int64{1, 2}, nil)
	r1 := b.NewRecord()
	b.Field(0).(*array.Int64Builder).AppendValues([]int64{3}, nil)
	r2 := b.NewRecord()

	s := NewMemoryStorage()
	require.NoError(t, s.CreateTable("nums", schema, r1, r2))
	r1.Release()
	r2.Release()

	tbl, err := s.GetTable("nums")
	require.NoError(t, err)
	recs := drain(t, tbl)
	require.Len(t, recs, 2)
	require.EqualValues(t, 3, totalRows(recs))
	for _, r := range recs {
		r.Release()
	}

	other := arrow.NewSchema([]arrow.Field{{Name: "w", Type: arrow.PrimitiveTypes.Int64}}, nil)
	require.Error(t, s.CreateTable("bad", other, recs[0]))
	require.NoError(t, s.Close())
}

func TestOpen(t *testing.T) {
	s, err := Open(Options{
		Backend:   CSV,
		BatchSize: 2,
		CSV:       DefaultCSVOptions(),
		Tables:    []TableSpec{{Name: "employee", Path: employeeCSV}},
	})
	require.NoError(t, err)
	require.Equal(t, CSV, s.Backend())
	require.Equal(t, []string{"employee"}, s.Catalog().TableNames())

	tbl, err := s.GetTable("employee")
	require.NoError(t, err)
	recs := drain(t, tbl)
	require.Len(t, recs, 3)
	for _, r := range recs {
		r.Release()
	}

	_, err = Open(Options{Backend: Memory, Tables: []TableSpec{{Name: "x", Path: "y"}}})
	require.Error(t, err)

	_, err = Open(Options{Backend: Backend(42)})
	require.ErrorIs(t, err, ErrUnknownBackend)
}
