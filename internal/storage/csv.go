package storage

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/apache/arrow/go/v11/arrow"
	arrowcsv "github.com/apache/arrow/go/v11/arrow/csv"
	"github.com/apache/arrow/go/v11/arrow/memory"
	"github.com/cockroachdb/errors"

	"github.com/tuannm99/novaquery/internal/alias/util"
	"github.com/tuannm99/novaquery/internal/catalog"
)

type CSVOptions struct {
	HasHeader       bool
	Delimiter       rune
	InferMaxRecords int
	BatchSize       int
}

func DefaultCSVOptions() CSVOptions {
	return CSVOptions{
		HasHeader:       true,
		Delimiter:       DefaultDelimiter,
		InferMaxRecords: DefaultInferMaxRecords,
		BatchSize:       DefaultBatchSize,
	}
}

func (o CSVOptions) withDefaults() CSVOptions {
	if o.Delimiter == 0 {
		o.Delimiter = DefaultDelimiter
	}
	if o.InferMaxRecords <= 0 {
		o.InferMaxRecords = DefaultInferMaxRecords
	}
	if o.BatchSize <= 0 {
		o.BatchSize = DefaultBatchSize
	}
	return o
}

// CSVStorage serves tables backed by delimited text files.
type CSVStorage struct {
	*tableSet
	opts CSVOptions
	mem  memory.Allocator
}

var _ Storage = (*CSVStorage)(nil)

func NewCSVStorage(opts CSVOptions) *CSVStorage {
	return &CSVStorage{
		tableSet: newTableSet(),
		opts:     opts.withDefaults(),
		mem:      memory.DefaultAllocator,
	}
}

func (s *CSVStorage) Backend() Backend { return CSV }
func (s *CSVStorage) Close() error     { return nil }

// CreateTable registers the file at path as table name. Column types are
// inferred from the first InferMaxRecords records.
func (s *CSVStorage) CreateTable(name, path string) error {
	schema, err := InferCSVSchema(path, s.opts)
	if err != nil {
		return err
	}
	return s.CreateTableWithSchema(name, path, schema)
}

// CreateTableWithSchema registers path with a caller-supplied schema.
func (s *CSVStorage) CreateTableWithSchema(name, path string, schema *arrow.Schema) error {
	tc, err := catalog.NewTableCatalogFromSchema(name, schema)
	if err != nil {
		return err
	}
	slog.Debug("storage: open csv table", "table", name, "path", path, "columns", len(schema.Fields()))
	return s.add(&csvTable{cat: tc, path: path, schema: tc.Schema(), opts: s.opts, mem: s.mem})
}

type csvTable struct {
	cat    *catalog.TableCatalog
	path   string
	schema *arrow.Schema
	opts   CSVOptions
	mem    memory.Allocator
}

func (t *csvTable) Catalog() *catalog.TableCatalog { return t.cat }

func (t *csvTable) Read(ctx context.Context) (Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(t.path)
	if err != nil {
		return nil, util.WithKind(errors.Wrapf(err, "open %s", t.path), ErrStorageIO)
	}
	r := arrowcsv.NewReader(f, t.schema,
		arrowcsv.WithHeader(t.opts.HasHeader),
		arrowcsv.WithComma(t.opts.Delimiter),
		arrowcsv.WithChunk(t.opts.BatchSize),
		// blank cells were skipped during inference; they read as NULL
		arrowcsv.WithNullReader(true, ""),
		arrowcsv.WithAllocator(t.mem),
	)
	return &csvTxn{f: f, r: r}, nil
}

type csvTxn struct {
	doneGuard
	f *os.File
	r *arrowcsv.Reader
}

func (x *csvTxn) NextBatch() (arrow.Record, error) {
	if err := x.check(); err != nil {
		return nil, err
	}
	if x.r.Next() {
		rec := x.r.Record()
		rec.Retain()
		return rec, nil
	}
	if err := x.r.Err(); err != nil && !errors.Is(err, io.EOF) {
		return nil, util.WithKind(errors.Wrap(err, "read csv"), ErrStorageIO)
	}
	return nil, x.finish()
}

func (x *csvTxn) Close() error {
	x.r.Release()
	return x.f.Close()
}

// InferCSVSchema samples the head of a CSV file. A column is Int64 when every
// non-empty sample parses as an integer, then Float64, then Boolean, else
// Utf8. Blank cells do not vote and are read back as NULL. Headerless files
// get column_1, column_2, ...
func InferCSVSchema(path string, opts CSVOptions) (*arrow.Schema, error) {
	opts = opts.withDefaults()
	f, err := os.Open(path)
	if err != nil {
		return nil, util.WithKind(errors.Wrapf(err, "open %s", path), ErrStorageIO)
	}
	defer util.CloseLogged(f, "csv file", "path", path)

	r := csv.NewReader(f)
	r.Comma = opts.Delimiter
	r.ReuseRecord = false

	var names []string
	if opts.HasHeader {
		header, err := r.Read()
		if err != nil {
			return nil, util.WithKind(errors.Wrapf(err, "read header of %s", path), ErrStorageIO)
		}
		names = header
	}

	var samples []columnSample
	for n := 0; n < opts.InferMaxRecords; n++ {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, util.WithKind(errors.Wrapf(err, "read %s", path), ErrStorageIO)
		}
		if samples == nil {
			samples = make([]columnSample, len(rec))
		}
		for i, v := range rec {
			if i < len(samples) {
				samples[i].observe(v)
			}
		}
	}

	width := len(names)
	if width == 0 {
		width = len(samples)
	}
	fields := make([]arrow.Field, width)
	for i := range fields {
		name := fmt.Sprintf("column_%d", i+1)
		if i < len(names) {
			name = strings.TrimSpace(names[i])
		}
		typ := arrow.DataType(arrow.BinaryTypes.String)
		if i < len(samples) {
			typ = samples[i].dataType()
		}
		fields[i] = arrow.Field{Name: name, Type: typ, Nullable: true}
	}
	return arrow.NewSchema(fields, nil), nil
}

type columnSample struct {
	seen     int
	notInt   bool
	notFloat bool
	notBool  bool
}

func (c *columnSample) observe(v string) {
	if v == "" {
		return
	}
	c.seen++
	if _, err := strconv.ParseInt(v, 10, 64); err != nil {
		c.notInt = true
	}
	if _, err := strconv.ParseFloat(v, 64); err != nil {
		c.notFloat = true
	}
	if _, err := strconv.ParseBool(v); err != nil {
		c.notBool = true
	}
}

func (c *columnSample) dataType() arrow.DataType {
	switch {
	case c.seen == 0:
		return arrow.BinaryTypes.String
	case !c.notInt:
		return arrow.PrimitiveTypes.Int64
	case !c.notFloat:
		return arrow.PrimitiveTypes.Float64
	case !c.notBool:
		return arrow.FixedWidthTypes.Boolean
	default:
		return arrow.BinaryTypes.String
	}
}
