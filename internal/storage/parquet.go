package storage

import (
	"context"
	"io"
	"log/slog"

	"github.com/apache/arrow/go/v11/arrow"
	"github.com/apache/arrow/go/v11/arrow/memory"
	"github.com/apache/arrow/go/v11/parquet/file"
	"github.com/apache/arrow/go/v11/parquet/pqarrow"
	"github.com/cockroachdb/errors"

	"github.com/tuannm99/novaquery/internal/alias/util"
	"github.com/tuannm99/novaquery/internal/catalog"
)

// ParquetStorage serves tables backed by parquet files.
type ParquetStorage struct {
	*tableSet
	batchSize int
	mem       memory.Allocator
}

var _ Storage = (*ParquetStorage)(nil)

func NewParquetStorage(batchSize int) *ParquetStorage {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &ParquetStorage{
		tableSet:  newTableSet(),
		batchSize: batchSize,
		mem:       memory.DefaultAllocator,
	}
}

func (s *ParquetStorage) Backend() Backend { return Parquet }
func (s *ParquetStorage) Close() error     { return nil }

// CreateTable registers the parquet file at path. The schema comes from the
// file footer.
func (s *ParquetStorage) CreateTable(name, path string) error {
	pf, err := file.OpenParquetFile(path, false)
	if err != nil {
		return util.WithKind(errors.Wrapf(err, "open %s", path), ErrStorageIO)
	}
	defer util.CloseLogged(pf, "parquet file", "path", path)

	fr, err := pqarrow.NewFileReader(pf, pqarrow.ArrowReadProperties{}, s.mem)
	if err != nil {
		return util.WithKind(errors.Wrapf(err, "read %s", path), ErrStorageIO)
	}
	schema, err := fr.Schema()
	if err != nil {
		return util.WithKind(errors.Wrapf(err, "schema of %s", path), ErrStorageIO)
	}

	tc, err := catalog.NewTableCatalogFromSchema(name, schema)
	if err != nil {
		return err
	}
	slog.Debug("storage: open parquet table", "table", name, "path", path,
		"rows", pf.NumRows(), "row_groups", pf.NumRowGroups())
	return s.add(&parquetTable{cat: tc, path: path, batchSize: s.batchSize, mem: s.mem})
}

type parquetTable struct {
	cat       *catalog.TableCatalog
	path      string
	batchSize int
	mem       memory.Allocator
}

func (t *parquetTable) Catalog() *catalog.TableCatalog { return t.cat }

func (t *parquetTable) Read(ctx context.Context) (Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	pf, err := file.OpenParquetFile(t.path, false)
	if err != nil {
		return nil, util.WithKind(errors.Wrapf(err, "open %s", t.path), ErrStorageIO)
	}
	fr, err := pqarrow.NewFileReader(pf, pqarrow.ArrowReadProperties{BatchSize: int64(t.batchSize)}, t.mem)
	if err != nil {
		_ = pf.Close()
		return nil, util.WithKind(errors.Wrapf(err, "read %s", t.path), ErrStorageIO)
	}
	rr, err := fr.GetRecordReader(ctx, nil, nil)
	if err != nil {
		_ = pf.Close()
		return nil, util.WithKind(errors.Wrapf(err, "scan %s", t.path), ErrStorageIO)
	}
	return &parquetTxn{pf: pf, rr: rr}, nil
}

type parquetTxn struct {
	doneGuard
	pf *file.Reader
	rr pqarrow.RecordReader
}

func (x *parquetTxn) NextBatch() (arrow.Record, error) {
	if err := x.check(); err != nil {
		return nil, err
	}
	rec, err := x.rr.Read()
	if errors.Is(err, io.EOF) {
		return nil, x.finish()
	}
	if err != nil {
		return nil, util.WithKind(errors.Wrap(err, "read parquet"), ErrStorageIO)
	}
	rec.Retain()
	return rec, nil
}

func (x *parquetTxn) Close() error {
	x.rr.Release()
	return x.pf.Close()
}
