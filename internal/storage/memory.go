package storage

import (
	"context"

	"github.com/apache/arrow/go/v11/arrow"
	"github.com/cockroachdb/errors"

	"github.com/tuannm99/novaquery/internal/catalog"
)

// MemoryStorage serves tables from arrow records already held in memory.
type MemoryStorage struct {
	*tableSet
}

var _ Storage = (*MemoryStorage)(nil)

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{tableSet: newTableSet()}
}

func (s *MemoryStorage) Backend() Backend { return Memory }

// Close releases every record held by the tables.
func (s *MemoryStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tables {
		for _, rec := range t.(*memTable).records {
			rec.Release()
		}
		t.(*memTable).records = nil
	}
	return nil
}

// CreateTable registers records under name. Every record must carry schema.
// The table keeps its own reference to each record.
func (s *MemoryStorage) CreateTable(name string, schema *arrow.Schema, records ...arrow.Record) error {
	for i, rec := range records {
		if !rec.Schema().Equal(schema) {
			return errors.Newf("storage: record %d of %q has schema %s, want %s", i, name, rec.Schema(), schema)
		}
	}
	tc, err := catalog.NewTableCatalogFromSchema(name, schema)
	if err != nil {
		return err
	}
	for _, rec := range records {
		rec.Retain()
	}
	if err := s.add(&memTable{cat: tc, records: records}); err != nil {
		for _, rec := range records {
			rec.Release()
		}
		return err
	}
	return nil
}

type memTable struct {
	cat     *catalog.TableCatalog
	records []arrow.Record
}

func (t *memTable) Catalog() *catalog.TableCatalog { return t.cat }

func (t *memTable) Read(ctx context.Context) (Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &memTxn{records: t.records}, nil
}

type memTxn struct {
	doneGuard
	records []arrow.Record
	pos     int
}

func (x *memTxn) NextBatch() (arrow.Record, error) {
	if err := x.check(); err != nil {
		return nil, err
	}
	if x.pos >= len(x.records) {
		return nil, x.finish()
	}
	rec := x.records[x.pos]
	x.pos++
	rec.Retain()
	return rec, nil
}

func (x *memTxn) Close() error { return nil }
