package storage

import (
	"sync"

	"github.com/cockroachdb/errors"

	"github.com/tuannm99/novaquery/internal/alias/util"
	"github.com/tuannm99/novaquery/internal/catalog"
)

// tableSet is the registry shared by every backend.
type tableSet struct {
	mu      sync.RWMutex
	catalog *catalog.RootCatalog
	tables  map[catalog.TableID]Table
}

func newTableSet() *tableSet {
	return &tableSet{
		catalog: catalog.NewRootCatalog(),
		tables:  make(map[catalog.TableID]Table),
	}
}

func (s *tableSet) Catalog() *catalog.RootCatalog { return s.catalog }

func (s *tableSet) GetTable(id catalog.TableID) (Table, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tables[id]
	if !ok {
		return nil, errors.Wrapf(ErrTableNotFound, "table %q", id)
	}
	return t, nil
}

func (s *tableSet) add(t Table) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tc := t.Catalog()
	if _, ok := s.tables[tc.ID]; ok {
		return errors.Wrapf(ErrTableExists, "table %q", tc.Name)
	}
	if err := s.catalog.AddTable(tc); err != nil {
		return util.WithKind(err, ErrTableExists)
	}
	s.tables[tc.ID] = t
	return nil
}
