package plan

import "github.com/tuannm99/novaquery/internal/catalog"

// Physical nodes wrap their logical counterpart and share its fields.

type PhysicalTableScan struct {
	Logical *LogicalTableScan
}

func (*PhysicalTableScan) NodeType() NodeType                { return TypePhysicalTableScan }
func (s *PhysicalTableScan) Schema() []catalog.ColumnCatalog { return s.Logical.Schema() }
func (s *PhysicalTableScan) Children() []Node                { return nil }
func (s *PhysicalTableScan) String() string                  { return "Physical" + s.Logical.String()[len("Logical"):] }

func (s *PhysicalTableScan) CloneWithChildren(ch []Node) Node {
	return &PhysicalTableScan{Logical: s.Logical.CloneWithChildren(ch).(*LogicalTableScan)}
}

type PhysicalProject struct {
	Logical *LogicalProject
}

func (*PhysicalProject) NodeType() NodeType                { return TypePhysicalProject }
func (p *PhysicalProject) Schema() []catalog.ColumnCatalog { return p.Logical.Schema() }
func (p *PhysicalProject) Children() []Node                { return p.Logical.Children() }
func (p *PhysicalProject) String() string                  { return "PhysicalProject: exprs " + exprList(p.Logical.Exprs) }

func (p *PhysicalProject) CloneWithChildren(ch []Node) Node {
	return &PhysicalProject{Logical: p.Logical.CloneWithChildren(ch).(*LogicalProject)}
}

type PhysicalFilter struct {
	Logical *LogicalFilter
}

func (*PhysicalFilter) NodeType() NodeType                { return TypePhysicalFilter }
func (f *PhysicalFilter) Schema() []catalog.ColumnCatalog { return f.Logical.Schema() }
func (f *PhysicalFilter) Children() []Node                { return f.Logical.Children() }
func (f *PhysicalFilter) String() string                  { return "PhysicalFilter: expr " + f.Logical.Expr.String() }

func (f *PhysicalFilter) CloneWithChildren(ch []Node) Node {
	return &PhysicalFilter{Logical: f.Logical.CloneWithChildren(ch).(*LogicalFilter)}
}

// PhysicalSimpleAgg aggregates its whole input into a single row.
type PhysicalSimpleAgg struct {
	Logical *LogicalAgg
}

func (*PhysicalSimpleAgg) NodeType() NodeType                { return TypePhysicalSimpleAgg }
func (a *PhysicalSimpleAgg) Schema() []catalog.ColumnCatalog { return a.Logical.Schema() }
func (a *PhysicalSimpleAgg) Children() []Node                { return a.Logical.Children() }
func (a *PhysicalSimpleAgg) String() string                  { return "PhysicalSimpleAgg: agg_funcs " + exprList(a.Logical.AggFuncs) }

func (a *PhysicalSimpleAgg) CloneWithChildren(ch []Node) Node {
	return &PhysicalSimpleAgg{Logical: a.Logical.CloneWithChildren(ch).(*LogicalAgg)}
}
