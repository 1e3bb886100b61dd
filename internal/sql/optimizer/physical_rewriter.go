package optimizer

import "github.com/tuannm99/novaquery/internal/sql/plan"

// PhysicalRewriter lowers each logical node to its physical wrapper,
// children first. Already-physical nodes are kept.
type PhysicalRewriter struct {
	plan.BaseRewriter
}

func NewPhysicalRewriter() *PhysicalRewriter {
	r := &PhysicalRewriter{}
	r.BaseRewriter = plan.NewBaseRewriter(r)
	return r
}

func (r *PhysicalRewriter) RewriteLogicalTableScan(n *plan.LogicalTableScan) plan.Node {
	return &plan.PhysicalTableScan{Logical: n}
}

func (r *PhysicalRewriter) RewriteLogicalProject(n *plan.LogicalProject) plan.Node {
	return &plan.PhysicalProject{Logical: r.RewriteChildren(n).(*plan.LogicalProject)}
}

func (r *PhysicalRewriter) RewriteLogicalFilter(n *plan.LogicalFilter) plan.Node {
	return &plan.PhysicalFilter{Logical: r.RewriteChildren(n).(*plan.LogicalFilter)}
}

func (r *PhysicalRewriter) RewriteLogicalAgg(n *plan.LogicalAgg) plan.Node {
	return &plan.PhysicalSimpleAgg{Logical: r.RewriteChildren(n).(*plan.LogicalAgg)}
}
