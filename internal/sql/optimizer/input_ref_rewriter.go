package optimizer

import (
	"github.com/cockroachdb/errors"

	"github.com/tuannm99/novaquery/internal/sql/expr"
	"github.com/tuannm99/novaquery/internal/sql/plan"
)

// InputRefRewriter replaces symbolic column references with positional
// references into the child operator's output.
//
// bindings is the expression list the most recently rewritten child emits,
// in output order. Scans emit their columns; projects and aggregates emit
// their own (symbolic) expressions, which is what their parent's expressions
// are written in terms of. Filters pass their input through.
type InputRefRewriter struct {
	plan.BaseRewriter

	exprs    expr.BaseRewriter
	bindings []expr.Expr
}

func NewInputRefRewriter() *InputRefRewriter {
	r := &InputRefRewriter{}
	r.BaseRewriter = plan.NewBaseRewriter(r)
	r.exprs = expr.NewBaseRewriter(r)
	return r
}

func (r *InputRefRewriter) RewriteLogicalTableScan(n *plan.LogicalTableScan) plan.Node {
	r.bindings = make([]expr.Expr, len(n.Columns))
	for i, c := range n.Columns {
		r.bindings[i] = expr.NewColumnRef(c)
	}
	return n
}

func (r *InputRefRewriter) RewriteLogicalProject(n *plan.LogicalProject) plan.Node {
	input := plan.Rewrite(r, n.Input)
	exprs := r.rewriteList(n.Exprs)
	r.bindings = n.Exprs
	return plan.NewLogicalProject(exprs, input)
}

func (r *InputRefRewriter) RewriteLogicalFilter(n *plan.LogicalFilter) plan.Node {
	input := plan.Rewrite(r, n.Input)
	return plan.NewLogicalFilter(r.rewriteExpr(n.Expr), input)
}

func (r *InputRefRewriter) RewriteLogicalAgg(n *plan.LogicalAgg) plan.Node {
	input := plan.Rewrite(r, n.Input)
	aggs := r.rewriteList(n.AggFuncs)
	groupBy := r.rewriteList(n.GroupBy)
	r.bindings = n.OutputExprs()
	return plan.NewLogicalAgg(aggs, groupBy, input)
}

func (r *InputRefRewriter) RewriteConstant(e *expr.Constant) expr.Expr   { return r.exprs.RewriteConstant(e) }
func (r *InputRefRewriter) RewriteInputRef(e *expr.InputRef) expr.Expr   { return r.exprs.RewriteInputRef(e) }
func (r *InputRefRewriter) RewriteColumnRef(e *expr.ColumnRef) expr.Expr { return r.rewriteExpr(e) }
func (r *InputRefRewriter) RewriteBinaryOp(e *expr.BinaryOp) expr.Expr   { return r.rewriteExpr(e) }
func (r *InputRefRewriter) RewriteTypeCast(e *expr.TypeCast) expr.Expr   { return r.rewriteExpr(e) }
func (r *InputRefRewriter) RewriteAggFunc(e *expr.AggFunc) expr.Expr     { return r.rewriteExpr(e) }

func (r *InputRefRewriter) rewriteList(list []expr.Expr) []expr.Expr {
	if len(list) == 0 {
		return nil
	}
	out := make([]expr.Expr, len(list))
	for i, e := range list {
		out[i] = r.rewriteExpr(e)
	}
	return out
}

// rewriteExpr turns e into an input ref when the child emits it, otherwise
// recurses into its operands. A column that no child emits is a planner bug.
func (r *InputRefRewriter) rewriteExpr(e expr.Expr) expr.Expr {
	if idx := expr.Index(r.bindings, e); idx >= 0 {
		return &expr.InputRef{Index: idx, Type: e.ReturnType(), Name: expr.OutputName(r.bindings[idx])}
	}
	switch e := e.(type) {
	case *expr.BinaryOp:
		return r.exprs.RewriteBinaryOp(e)
	case *expr.TypeCast:
		return r.exprs.RewriteTypeCast(e)
	case *expr.AggFunc:
		return r.exprs.RewriteAggFunc(e)
	case *expr.Constant, *expr.InputRef:
		return e
	default:
		panic(errors.AssertionFailedf("optimizer: %s is not produced by the input", e))
	}
}
