package storage

import (
	"github.com/cockroachdb/errors"
)

// TableSpec names a file to register at open time.
type TableSpec struct {
	Name string
	Path string
}

type Options struct {
	Backend   Backend
	BatchSize int
	CSV       CSVOptions
	Tables    []TableSpec
}

// Open builds the storage selected by opts.Backend and registers opts.Tables.
// The memory backend accepts no file tables.
func Open(opts Options) (Storage, error) {
	if opts.BatchSize > 0 {
		opts.CSV.BatchSize = opts.BatchSize
	}

	switch opts.Backend {
	case CSV:
		s := NewCSVStorage(opts.CSV)
		for _, t := range opts.Tables {
			if err := s.CreateTable(t.Name, t.Path); err != nil {
				return nil, errors.Wrapf(err, "register table %q", t.Name)
			}
		}
		return s, nil
	case Parquet:
		s := NewParquetStorage(opts.BatchSize)
		for _, t := range opts.Tables {
			if err := s.CreateTable(t.Name, t.Path); err != nil {
				return nil, errors.Wrapf(err, "register table %q", t.Name)
			}
		}
		return s, nil
	case Memory:
		if len(opts.Tables) > 0 {
			return nil, errors.Newf("storage: memory backend cannot load %d file tables", len(opts.Tables))
		}
		return NewMemoryStorage(), nil
	default:
		return nil, errors.Wrapf(ErrUnknownBackend, "%d", int(opts.Backend))
	}
}
