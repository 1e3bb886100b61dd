// Package plan defines the logical and physical plan trees and the
// visitor/rewriter machinery that walks them.
//
// Every node type is listed once in nodeTypes; names, visitor dispatch and
// rewriter dispatch are all derived from that list. Nodes are immutable and
// may be shared between trees.
package plan

import (
	"github.com/cockroachdb/errors"

	"github.com/tuannm99/novaquery/internal/catalog"
)

// Node is the closed set of plan nodes.
type Node interface {
	NodeType() NodeType
	// Schema lists the columns the node emits, in output order.
	Schema() []catalog.ColumnCatalog
	Children() []Node
	// CloneWithChildren returns a copy of the node with children replaced.
	// Passing the wrong number of children is a programming error.
	CloneWithChildren(children []Node) Node
	String() string
}

type NodeType uint8

const (
	TypeDummy NodeType = iota
	TypeLogicalTableScan
	TypeLogicalProject
	TypeLogicalFilter
	TypeLogicalAgg
	TypePhysicalTableScan
	TypePhysicalProject
	TypePhysicalFilter
	TypePhysicalSimpleAgg

	numNodeTypes
)

type nodeTypeInfo struct {
	name    string
	visit   func(v anyVisitor, n Node) (any, bool)
	rewrite func(r Rewriter, n Node) Node
}

var nodeTypes = [numNodeTypes]nodeTypeInfo{
	TypeDummy: {
		name:    "Dummy",
		visit:   func(v anyVisitor, n Node) (any, bool) { return v.visitDummy(n.(*Dummy)) },
		rewrite: func(r Rewriter, n Node) Node { return r.RewriteDummy(n.(*Dummy)) },
	},
	TypeLogicalTableScan: {
		name:    "LogicalTableScan",
		visit:   func(v anyVisitor, n Node) (any, bool) { return v.visitLogicalTableScan(n.(*LogicalTableScan)) },
		rewrite: func(r Rewriter, n Node) Node { return r.RewriteLogicalTableScan(n.(*LogicalTableScan)) },
	},
	TypeLogicalProject: {
		name:    "LogicalProject",
		visit:   func(v anyVisitor, n Node) (any, bool) { return v.visitLogicalProject(n.(*LogicalProject)) },
		rewrite: func(r Rewriter, n Node) Node { return r.RewriteLogicalProject(n.(*LogicalProject)) },
	},
	TypeLogicalFilter: {
		name:    "LogicalFilter",
		visit:   func(v anyVisitor, n Node) (any, bool) { return v.visitLogicalFilter(n.(*LogicalFilter)) },
		rewrite: func(r Rewriter, n Node) Node { return r.RewriteLogicalFilter(n.(*LogicalFilter)) },
	},
	TypeLogicalAgg: {
		name:    "LogicalAgg",
		visit:   func(v anyVisitor, n Node) (any, bool) { return v.visitLogicalAgg(n.(*LogicalAgg)) },
		rewrite: func(r Rewriter, n Node) Node { return r.RewriteLogicalAgg(n.(*LogicalAgg)) },
	},
	TypePhysicalTableScan: {
		name:    "PhysicalTableScan",
		visit:   func(v anyVisitor, n Node) (any, bool) { return v.visitPhysicalTableScan(n.(*PhysicalTableScan)) },
		rewrite: func(r Rewriter, n Node) Node { return r.RewritePhysicalTableScan(n.(*PhysicalTableScan)) },
	},
	TypePhysicalProject: {
		name:    "PhysicalProject",
		visit:   func(v anyVisitor, n Node) (any, bool) { return v.visitPhysicalProject(n.(*PhysicalProject)) },
		rewrite: func(r Rewriter, n Node) Node { return r.RewritePhysicalProject(n.(*PhysicalProject)) },
	},
	TypePhysicalFilter: {
		name:    "PhysicalFilter",
		visit:   func(v anyVisitor, n Node) (any, bool) { return v.visitPhysicalFilter(n.(*PhysicalFilter)) },
		rewrite: func(r Rewriter, n Node) Node { return r.RewritePhysicalFilter(n.(*PhysicalFilter)) },
	},
	TypePhysicalSimpleAgg: {
		name:    "PhysicalSimpleAgg",
		visit:   func(v anyVisitor, n Node) (any, bool) { return v.visitPhysicalSimpleAgg(n.(*PhysicalSimpleAgg)) },
		rewrite: func(r Rewriter, n Node) Node { return r.RewritePhysicalSimpleAgg(n.(*PhysicalSimpleAgg)) },
	},
}

func init() {
	if err := checkNodeTypes(); err != nil {
		panic(err)
	}
}

func checkNodeTypes() error {
	for t := NodeType(0); t < numNodeTypes; t++ {
		info := nodeTypes[t]
		if info.name == "" || info.visit == nil || info.rewrite == nil {
			return errors.AssertionFailedf("plan: node type %d is not registered", t)
		}
	}
	return nil
}

func (t NodeType) String() string {
	if t < numNodeTypes {
		return nodeTypes[t].name
	}
	return "Unknown"
}

func (t NodeType) IsPhysical() bool { return t >= TypePhysicalTableScan && t < numNodeTypes }

func info(n Node) nodeTypeInfo {
	t := n.NodeType()
	if t >= numNodeTypes {
		panic(errors.AssertionFailedf("plan: unknown node type %d", t))
	}
	return nodeTypes[t]
}

func checkArity(n Node, children []Node, want int) {
	if len(children) != want {
		panic(errors.AssertionFailedf("plan: %s takes %d children, got %d", n.NodeType(), want, len(children)))
	}
}

// Walk calls fn on n and its descendants in pre-order.
func Walk(n Node, fn func(Node)) {
	fn(n)
	for _, c := range n.Children() {
		Walk(c, fn)
	}
}
