package plan

import "github.com/cockroachdb/errors"

// Visitor computes an R from a plan node. A false second result means the
// visitor produced nothing for that node.
type Visitor[R any] interface {
	VisitDummy(n *Dummy) (R, bool)
	VisitLogicalTableScan(n *LogicalTableScan) (R, bool)
	VisitLogicalProject(n *LogicalProject) (R, bool)
	VisitLogicalFilter(n *LogicalFilter) (R, bool)
	VisitLogicalAgg(n *LogicalAgg) (R, bool)
	VisitPhysicalTableScan(n *PhysicalTableScan) (R, bool)
	VisitPhysicalProject(n *PhysicalProject) (R, bool)
	VisitPhysicalFilter(n *PhysicalFilter) (R, bool)
	VisitPhysicalSimpleAgg(n *PhysicalSimpleAgg) (R, bool)
}

// Visit dispatches n to the method of v registered for its node type.
func Visit[R any](v Visitor[R], n Node) (R, bool) {
	out, ok := info(n).visit(visitorAdapter[R]{v: v}, n)
	if !ok {
		var zero R
		return zero, false
	}
	return out.(R), true
}

// UnimplementedVisitor panics for every node type. Embed it and override the
// node types a visitor supports.
type UnimplementedVisitor[R any] struct{}

func notImplemented[R any](n Node) (R, bool) {
	panic(errors.AssertionFailedf("plan: visitor does not implement %s", n.NodeType()))
}

func (UnimplementedVisitor[R]) VisitDummy(n *Dummy) (R, bool) { return notImplemented[R](n) }

func (UnimplementedVisitor[R]) VisitLogicalTableScan(n *LogicalTableScan) (R, bool) {
	return notImplemented[R](n)
}

func (UnimplementedVisitor[R]) VisitLogicalProject(n *LogicalProject) (R, bool) {
	return notImplemented[R](n)
}

func (UnimplementedVisitor[R]) VisitLogicalFilter(n *LogicalFilter) (R, bool) {
	return notImplemented[R](n)
}

func (UnimplementedVisitor[R]) VisitLogicalAgg(n *LogicalAgg) (R, bool) {
	return notImplemented[R](n)
}

func (UnimplementedVisitor[R]) VisitPhysicalTableScan(n *PhysicalTableScan) (R, bool) {
	return notImplemented[R](n)
}

func (UnimplementedVisitor[R]) VisitPhysicalProject(n *PhysicalProject) (R, bool) {
	return notImplemented[R](n)
}

func (UnimplementedVisitor[R]) VisitPhysicalFilter(n *PhysicalFilter) (R, bool) {
	return notImplemented[R](n)
}

func (UnimplementedVisitor[R]) VisitPhysicalSimpleAgg(n *PhysicalSimpleAgg) (R, bool) {
	return notImplemented[R](n)
}

// anyVisitor erases R so the registration table can stay non-generic.
type anyVisitor interface {
	visitDummy(n *Dummy) (any, bool)
	visitLogicalTableScan(n *LogicalTableScan) (any, bool)
	visitLogicalProject(n *LogicalProject) (any, bool)
	visitLogicalFilter(n *LogicalFilter) (any, bool)
	visitLogicalAgg(n *LogicalAgg) (any, bool)
	visitPhysicalTableScan(n *PhysicalTableScan) (any, bool)
	visitPhysicalProject(n *PhysicalProject) (any, bool)
	visitPhysicalFilter(n *PhysicalFilter) (any, bool)
	visitPhysicalSimpleAgg(n *PhysicalSimpleAgg) (any, bool)
}

type visitorAdapter[R any] struct {
	v Visitor[R]
}

func erase[R any](r R, ok bool) (any, bool) { return r, ok }

func (a visitorAdapter[R]) visitDummy(n *Dummy) (any, bool) { return erase[R](a.v.VisitDummy(n)) }

func (a visitorAdapter[R]) visitLogicalTableScan(n *LogicalTableScan) (any, bool) {
	return erase[R](a.v.VisitLogicalTableScan(n))
}

func (a visitorAdapter[R]) visitLogicalProject(n *LogicalProject) (any, bool) {
	return erase[R](a.v.VisitLogicalProject(n))
}

func (a visitorAdapter[R]) visitLogicalFilter(n *LogicalFilter) (any, bool) {
	return erase[R](a.v.VisitLogicalFilter(n))
}

func (a visitorAdapter[R]) visitLogicalAgg(n *LogicalAgg) (any, bool) {
	return erase[R](a.v.VisitLogicalAgg(n))
}

func (a visitorAdapter[R]) visitPhysicalTableScan(n *PhysicalTableScan) (any, bool) {
	return erase[R](a.v.VisitPhysicalTableScan(n))
}

func (a visitorAdapter[R]) visitPhysicalProject(n *PhysicalProject) (any, bool) {
	return erase[R](a.v.VisitPhysicalProject(n))
}

func (a visitorAdapter[R]) visitPhysicalFilter(n *PhysicalFilter) (any, bool) {
	return erase[R](a.v.VisitPhysicalFilter(n))
}

func (a visitorAdapter[R]) visitPhysicalSimpleAgg(n *PhysicalSimpleAgg) (any, bool) {
	return erase[R](a.v.VisitPhysicalSimpleAgg(n))
}
