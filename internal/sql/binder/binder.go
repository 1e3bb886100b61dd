// Package binder resolves names in a parsed statement against the catalog
// and types every expression.
package binder

import (
	"strings"

	"github.com/xwb1989/sqlparser"

	"github.com/tuannm99/novaquery/internal/catalog"
	"github.com/tuannm99/novaquery/internal/sql/expr"
	"github.com/tuannm99/novaquery/internal/sql/parser"
)

const (
	DefaultDatabaseName = "postgres"
	DefaultSchemaName   = "postgres"
)

// Binder is single-use: bind one statement per Binder.
type Binder struct {
	catalog *catalog.RootCatalog
	ctx     bindContext
}

// bindContext holds the tables bound so far, keyed by lower-cased name, in
// FROM order.
type bindContext struct {
	tables  map[string]*BoundTableRef
	order   []string
	inWhere bool
}

func New(root *catalog.RootCatalog) *Binder {
	return &Binder{
		catalog: root,
		ctx:     bindContext{tables: make(map[string]*BoundTableRef)},
	}
}

// Bind validates stmt against the catalog. Only SELECT is supported.
func (b *Binder) Bind(stmt parser.Statement) (BoundStatement, error) {
	switch s := stmt.(type) {
	case *sqlparser.Select:
		return b.bindSelect(s)
	default:
		return nil, unsupportedf("statement %T", stmt)
	}
}

func (b *Binder) bindSelect(s *sqlparser.Select) (*BoundSelect, error) {
	switch {
	case s.Distinct != "":
		return nil, unsupportedf("DISTINCT")
	case len(s.GroupBy) > 0:
		return nil, unsupportedf("GROUP BY")
	case s.Having != nil:
		return nil, unsupportedf("HAVING")
	case len(s.OrderBy) > 0:
		return nil, unsupportedf("ORDER BY")
	case s.Limit != nil:
		return nil, unsupportedf("LIMIT")
	case s.Lock != "":
		return nil, unsupportedf("locking clause")
	}

	out := &BoundSelect{}

	from, err := b.bindFrom(s.From)
	if err != nil {
		return nil, err
	}
	out.FromTable = from

	for _, item := range s.SelectExprs {
		e, err := b.bindSelectItem(item)
		if err != nil {
			return nil, err
		}
		out.SelectList = append(out.SelectList, e)
	}

	if s.Where != nil && s.Where.Expr != nil {
		b.ctx.inWhere = true
		where, err := b.bindExpr(s.Where.Expr)
		b.ctx.inWhere = false
		if err != nil {
			return nil, err
		}
		out.WhereClause = where
	}
	return out, nil
}

func (b *Binder) bindFrom(from sqlparser.TableExprs) (*BoundTableRef, error) {
	if len(from) == 0 {
		return nil, nil
	}
	if len(from) > 1 {
		return nil, unsupportedf("multiple tables in FROM")
	}

	ate, ok := from[0].(*sqlparser.AliasedTableExpr)
	if !ok {
		return nil, unsupportedf("table expression %T", from[0])
	}
	tn, ok := ate.Expr.(sqlparser.TableName)
	if !ok {
		return nil, unsupportedf("table expression %T", ate.Expr)
	}
	if parser.IsDual(tn) {
		return nil, nil
	}
	if !ate.As.IsEmpty() {
		return nil, unsupportedf("table alias %q", ate.As.String())
	}

	parts := []string{tn.Name.String()}
	if !tn.Qualifier.IsEmpty() {
		parts = []string{tn.Qualifier.String(), tn.Name.String()}
	}
	return b.bindTableRef(parts)
}

func (b *Binder) bindSelectItem(item sqlparser.SelectExpr) (expr.Expr, error) {
	switch it := item.(type) {
	case *sqlparser.AliasedExpr:
		if !it.As.IsEmpty() {
			return nil, unsupportedf("alias %q in select list", it.As.String())
		}
		return b.bindExpr(it.Expr)
	case *sqlparser.StarExpr:
		return nil, unsupportedf("wildcard %s", sqlparser.String(it))
	default:
		return nil, unsupportedf("select item %T", item)
	}
}

// bindTableRef resolves a 1 to 3 part object name: [[database.]schema.]table.
func (b *Binder) bindTableRef(parts []string) (*BoundTableRef, error) {
	database, schema := DefaultDatabaseName, DefaultSchemaName
	var table string
	switch len(parts) {
	case 1:
		table = parts[0]
	case 2:
		schema, table = parts[0], parts[1]
	case 3:
		database, schema, table = parts[0], parts[1], parts[2]
	default:
		return nil, invalidTableName(parts)
	}
	table = strings.ToLower(table)

	tc, ok := b.catalog.GetTableByName(table)
	if !ok {
		return nil, invalidTable(table)
	}
	ref := &BoundTableRef{
		Database: strings.ToLower(database),
		Schema:   strings.ToLower(schema),
		Table:    tc,
	}
	if _, dup := b.ctx.tables[table]; !dup {
		b.ctx.order = append(b.ctx.order, table)
	}
	b.ctx.tables[table] = ref
	return ref, nil
}
