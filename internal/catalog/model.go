package catalog

import (
	"sort"
	"strings"
	"sync"

	"github.com/apache/arrow/go/v11/arrow"
	"github.com/cockroachdb/errors"
)

var (
	ErrDuplicateColumn = errors.New("catalog: duplicate column")
	ErrDuplicateTable  = errors.New("catalog: duplicate table")
)

type (
	TableID  = string
	ColumnID = string
)

// ColumnDesc describes a column's user-visible name and type.
type ColumnDesc struct {
	Name     string         `json:"name"`
	DataType arrow.DataType `json:"-"`
}

type ColumnCatalog struct {
	ID      ColumnID   `json:"id"`
	TableID TableID    `json:"table_id"`
	Desc    ColumnDesc `json:"desc"`
}

func (c ColumnCatalog) Name() string             { return c.Desc.Name }
func (c ColumnCatalog) DataType() arrow.DataType { return c.Desc.DataType }

func (c ColumnCatalog) Equal(o ColumnCatalog) bool {
	return c.ID == o.ID && c.TableID == o.TableID && c.Desc.Name == o.Desc.Name &&
		arrow.TypeEqual(c.Desc.DataType, o.Desc.DataType)
}

// TableCatalog is immutable once built; ColumnIDs fixes the ordinal order.
type TableCatalog struct {
	ID        TableID
	Name      string
	ColumnIDs []ColumnID
	Columns   map[ColumnID]ColumnCatalog
}

// NewTableCatalog builds a table from columns in declared order. Ids are the
// lower-cased column names.
func NewTableCatalog(name string, cols []ColumnDesc) (*TableCatalog, error) {
	id := strings.ToLower(name)
	t := &TableCatalog{
		ID:      id,
		Name:    name,
		Columns: make(map[ColumnID]ColumnCatalog, len(cols)),
	}
	for _, c := range cols {
		cid := strings.ToLower(c.Name)
		if _, ok := t.Columns[cid]; ok {
			return nil, errors.Wrapf(ErrDuplicateColumn, "table %q column %q", name, c.Name)
		}
		t.ColumnIDs = append(t.ColumnIDs, cid)
		t.Columns[cid] = ColumnCatalog{ID: cid, TableID: id, Desc: c}
	}
	return t, nil
}

// NewTableCatalogFromSchema derives the table layout from an arrow schema.
func NewTableCatalogFromSchema(name string, schema *arrow.Schema) (*TableCatalog, error) {
	cols := make([]ColumnDesc, 0, len(schema.Fields()))
	for _, f := range schema.Fields() {
		cols = append(cols, ColumnDesc{Name: f.Name, DataType: f.Type})
	}
	return NewTableCatalog(name, cols)
}

func (t *TableCatalog) GetColumnByName(name string) (ColumnCatalog, bool) {
	c, ok := t.Columns[strings.ToLower(name)]
	return c, ok
}

// GetAllColumns returns the columns in ColumnIDs order.
func (t *TableCatalog) GetAllColumns() []ColumnCatalog {
	out := make([]ColumnCatalog, 0, len(t.ColumnIDs))
	for _, id := range t.ColumnIDs {
		out = append(out, t.Columns[id])
	}
	return out
}

// Schema returns the arrow schema matching GetAllColumns.
func (t *TableCatalog) Schema() *arrow.Schema {
	fields := make([]arrow.Field, 0, len(t.ColumnIDs))
	for _, c := range t.GetAllColumns() {
		fields = append(fields, arrow.Field{Name: c.Desc.Name, Type: c.Desc.DataType, Nullable: true})
	}
	return arrow.NewSchema(fields, nil)
}

// RootCatalog is the set of tables known to one storage. Lookups may run
// concurrently with registration.
type RootCatalog struct {
	mu     sync.RWMutex
	tables map[TableID]*TableCatalog
}

func NewRootCatalog() *RootCatalog {
	return &RootCatalog{tables: make(map[TableID]*TableCatalog)}
}

func (r *RootCatalog) AddTable(t *TableCatalog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tables[t.ID]; ok {
		return errors.Wrapf(ErrDuplicateTable, "table %q", t.Name)
	}
	r.tables[t.ID] = t
	return nil
}

func (r *RootCatalog) GetTable(id TableID) (*TableCatalog, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tables[id]
	return t, ok
}

func (r *RootCatalog) GetTableByName(name string) (*TableCatalog, bool) {
	return r.GetTable(strings.ToLower(name))
}

func (r *RootCatalog) TableNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tables))
	for _, t := range r.tables {
		names = append(names, t.Name)
	}
	sort.Strings(names)
	return names
}
