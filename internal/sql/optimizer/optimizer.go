// Package optimizer holds the rewrite passes run between planning and
// execution.
package optimizer

import (
	"github.com/cockroachdb/errors"

	"github.com/tuannm99/novaquery/internal/sql/expr"
	"github.com/tuannm99/novaquery/internal/sql/plan"
)

// Optimize resolves column references and lowers the plan to physical
// nodes. The result holds no ColumnRef.
func Optimize(root plan.Node) plan.Node {
	root = plan.Rewrite(NewInputRefRewriter(), root)
	root = plan.Rewrite(NewPhysicalRewriter(), root)
	if err := CheckResolved(root); err != nil {
		panic(err)
	}
	return root
}

// CheckResolved reports the first ColumnRef still reachable from root.
func CheckResolved(root plan.Node) error {
	var err error
	check := func(e expr.Expr) {
		expr.Walk(e, func(x expr.Expr) bool {
			if _, ok := x.(*expr.ColumnRef); ok && err == nil {
				err = errors.AssertionFailedf("optimizer: unresolved column %s", x)
			}
			return err == nil
		})
	}
	plan.Walk(root, func(n plan.Node) {
		for _, e := range nodeExprs(n) {
			check(e)
		}
	})
	return err
}

func nodeExprs(n plan.Node) []expr.Expr {
	switch n := n.(type) {
	case *plan.LogicalProject:
		return n.Exprs
	case *plan.PhysicalProject:
		return n.Logical.Exprs
	case *plan.LogicalFilter:
		return []expr.Expr{n.Expr}
	case *plan.PhysicalFilter:
		return []expr.Expr{n.Logical.Expr}
	case *plan.LogicalAgg:
		return n.OutputExprs()
	case *plan.PhysicalSimpleAgg:
		return n.Logical.OutputExprs()
	}
	return nil
}
