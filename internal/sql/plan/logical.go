package plan

import (
	"fmt"
	"strings"

	"github.com/tuannm99/novaquery/internal/catalog"
	"github.com/tuannm99/novaquery/internal/sql/expr"
)

// Dummy is a leaf that produces nothing. It stands in for a missing input.
type Dummy struct{}

func (*Dummy) NodeType() NodeType              { return TypeDummy }
func (*Dummy) Schema() []catalog.ColumnCatalog { return nil }
func (*Dummy) Children() []Node                { return nil }
func (*Dummy) String() string                  { return "Dummy" }

func (d *Dummy) CloneWithChildren(ch []Node) Node {
	checkArity(d, ch, 0)
	return &Dummy{}
}

type LogicalTableScan struct {
	TableID catalog.TableID
	Columns []catalog.ColumnCatalog
}

func NewLogicalTableScan(table *catalog.TableCatalog) *LogicalTableScan {
	return &LogicalTableScan{TableID: table.ID, Columns: table.GetAllColumns()}
}

func (*LogicalTableScan) NodeType() NodeType                { return TypeLogicalTableScan }
func (s *LogicalTableScan) Schema() []catalog.ColumnCatalog { return s.Columns }
func (*LogicalTableScan) Children() []Node                  { return nil }

func (s *LogicalTableScan) CloneWithChildren(ch []Node) Node {
	checkArity(s, ch, 0)
	return &LogicalTableScan{TableID: s.TableID, Columns: s.Columns}
}

func (s *LogicalTableScan) String() string {
	names := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		names[i] = c.Desc.Name
	}
	return fmt.Sprintf("LogicalTableScan: table %s, columns [%s]", s.TableID, strings.Join(names, ", "))
}

type LogicalProject struct {
	Exprs []expr.Expr
	Input Node
}

func NewLogicalProject(exprs []expr.Expr, input Node) *LogicalProject {
	return &LogicalProject{Exprs: exprs, Input: input}
}

func (*LogicalProject) NodeType() NodeType { return TypeLogicalProject }
func (p *LogicalProject) Children() []Node { return []Node{p.Input} }
func (p *LogicalProject) String() string   { return "LogicalProject: exprs " + exprList(p.Exprs) }

func (p *LogicalProject) Schema() []catalog.ColumnCatalog {
	return exprSchema(p.Exprs, p.Input)
}

func (p *LogicalProject) CloneWithChildren(ch []Node) Node {
	checkArity(p, ch, 1)
	return &LogicalProject{Exprs: p.Exprs, Input: ch[0]}
}

type LogicalFilter struct {
	Expr  expr.Expr
	Input Node
}

func NewLogicalFilter(predicate expr.Expr, input Node) *LogicalFilter {
	return &LogicalFilter{Expr: predicate, Input: input}
}

func (*LogicalFilter) NodeType() NodeType                { return TypeLogicalFilter }
func (f *LogicalFilter) Schema() []catalog.ColumnCatalog { return f.Input.Schema() }
func (f *LogicalFilter) Children() []Node                { return []Node{f.Input} }
func (f *LogicalFilter) String() string                  { return "LogicalFilter: expr " + f.Expr.String() }

func (f *LogicalFilter) CloneWithChildren(ch []Node) Node {
	checkArity(f, ch, 1)
	return &LogicalFilter{Expr: f.Expr, Input: ch[0]}
}

// LogicalAgg emits the aggregate results followed by the group-by keys.
type LogicalAgg struct {
	AggFuncs []expr.Expr
	GroupBy  []expr.Expr
	Input    Node
}

func NewLogicalAgg(aggs, groupBy []expr.Expr, input Node) *LogicalAgg {
	return &LogicalAgg{AggFuncs: aggs, GroupBy: groupBy, Input: input}
}

func (*LogicalAgg) NodeType() NodeType { return TypeLogicalAgg }
func (a *LogicalAgg) Children() []Node { return []Node{a.Input} }

// OutputExprs is the expression list matching Schema.
func (a *LogicalAgg) OutputExprs() []expr.Expr {
	out := make([]expr.Expr, 0, len(a.AggFuncs)+len(a.GroupBy))
	out = append(out, a.AggFuncs...)
	return append(out, a.GroupBy...)
}

func (a *LogicalAgg) Schema() []catalog.ColumnCatalog {
	return exprSchema(a.OutputExprs(), a.Input)
}

func (a *LogicalAgg) CloneWithChildren(ch []Node) Node {
	checkArity(a, ch, 1)
	return &LogicalAgg{AggFuncs: a.AggFuncs, GroupBy: a.GroupBy, Input: ch[0]}
}

func (a *LogicalAgg) String() string {
	s := "LogicalAgg: agg_funcs " + exprList(a.AggFuncs)
	if len(a.GroupBy) > 0 {
		s += ", group_by " + exprList(a.GroupBy)
	}
	return s
}

// exprSchema names each output column: column refs keep their catalog entry,
// input refs take the input's column, anything else is named after itself.
func exprSchema(exprs []expr.Expr, input Node) []catalog.ColumnCatalog {
	var in []catalog.ColumnCatalog
	out := make([]catalog.ColumnCatalog, len(exprs))
	for i, e := range exprs {
		switch e := e.(type) {
		case *expr.ColumnRef:
			out[i] = e.Column
			continue
		case *expr.InputRef:
			if in == nil {
				in = input.Schema()
			}
			if e.Index < len(in) {
				out[i] = in[e.Index]
				continue
			}
		}
		name := expr.OutputName(e)
		out[i] = catalog.ColumnCatalog{
			ID:   name,
			Desc: catalog.ColumnDesc{Name: name, DataType: e.ReturnType()},
		}
	}
	return out
}

func exprList(exprs []expr.Expr) string {
	parts := make([]string, len(exprs))
	for i, e := range exprs {
		parts[i] = e.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
