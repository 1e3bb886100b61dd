package binder

import (
	"strings"

	"github.com/tuannm99/novaquery/internal/catalog"
	"github.com/tuannm99/novaquery/internal/sql/expr"
)

// BoundStatement is the closed set of statements the binder produces.
type BoundStatement interface {
	String() string

	boundStatement()
}

type BoundTableRef struct {
	Database string
	Schema   string
	Table    *catalog.TableCatalog
}

// BoundSelect is a single-table SELECT with every name resolved and typed.
// FromTable is nil for a SELECT without FROM.
type BoundSelect struct {
	SelectList  []expr.Expr
	FromTable   *BoundTableRef
	WhereClause expr.Expr
}

func (*BoundSelect) boundStatement() {}

func (s *BoundSelect) String() string {
	var b strings.Builder
	b.WriteString("SELECT ")
	for i, e := range s.SelectList {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(e.String())
	}
	if s.FromTable != nil {
		b.WriteString(" FROM ")
		b.WriteString(s.FromTable.Table.Name)
	}
	if s.WhereClause != nil {
		b.WriteString(" WHERE ")
		b.WriteString(s.WhereClause.String())
	}
	return b.String()
}

// HasAggregates reports whether any projection item calls an aggregate.
func (s *BoundSelect) HasAggregates() bool {
	for _, e := range s.SelectList {
		if expr.ContainsAgg(e) {
			return true
		}
	}
	return false
}
