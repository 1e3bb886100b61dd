package plan

// Rewriter maps a plan to a new plan, one hook per node type. Embed
// BaseRewriter and override the hooks a pass needs.
type Rewriter interface {
	RewriteDummy(n *Dummy) Node
	RewriteLogicalTableScan(n *LogicalTableScan) Node
	RewriteLogicalProject(n *LogicalProject) Node
	RewriteLogicalFilter(n *LogicalFilter) Node
	RewriteLogicalAgg(n *LogicalAgg) Node
	RewritePhysicalTableScan(n *PhysicalTableScan) Node
	RewritePhysicalProject(n *PhysicalProject) Node
	RewritePhysicalFilter(n *PhysicalFilter) Node
	RewritePhysicalSimpleAgg(n *PhysicalSimpleAgg) Node
}

// Rewrite dispatches n to the hook of r registered for its node type.
func Rewrite(r Rewriter, n Node) Node {
	return info(n).rewrite(r, n)
}

// BaseRewriter rewrites every child through the outer rewriter and clones
// the node when any child changed.
type BaseRewriter struct {
	self Rewriter
}

// NewBaseRewriter binds the defaults to the outer rewriter self, so child
// rewrites reach the outer overrides.
func NewBaseRewriter(self Rewriter) BaseRewriter { return BaseRewriter{self: self} }

func (b BaseRewriter) outer() Rewriter {
	if b.self == nil {
		return b
	}
	return b.self
}

// RewriteChildren is the default hook body, usable from overrides.
func (b BaseRewriter) RewriteChildren(n Node) Node {
	children := n.Children()
	if len(children) == 0 {
		return n
	}
	changed := false
	next := make([]Node, len(children))
	for i, c := range children {
		next[i] = Rewrite(b.outer(), c)
		if next[i] != c {
			changed = true
		}
	}
	if !changed {
		return n
	}
	return n.CloneWithChildren(next)
}

func (b BaseRewriter) RewriteDummy(n *Dummy) Node { return b.RewriteChildren(n) }

func (b BaseRewriter) RewriteLogicalTableScan(n *LogicalTableScan) Node {
	return b.RewriteChildren(n)
}

func (b BaseRewriter) RewriteLogicalProject(n *LogicalProject) Node { return b.RewriteChildren(n) }
func (b BaseRewriter) RewriteLogicalFilter(n *LogicalFilter) Node   { return b.RewriteChildren(n) }
func (b BaseRewriter) RewriteLogicalAgg(n *LogicalAgg) Node         { return b.RewriteChildren(n) }

func (b BaseRewriter) RewritePhysicalTableScan(n *PhysicalTableScan) Node {
	return b.RewriteChildren(n)
}

func (b BaseRewriter) RewritePhysicalProject(n *PhysicalProject) Node { return b.RewriteChildren(n) }
func (b BaseRewriter) RewritePhysicalFilter(n *PhysicalFilter) Node   { return b.RewriteChildren(n) }

func (b BaseRewriter) RewritePhysicalSimpleAgg(n *PhysicalSimpleAgg) Node {
	return b.RewriteChildren(n)
}
