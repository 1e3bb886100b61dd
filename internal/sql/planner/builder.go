// Package planner turns a bound statement into a logical plan.
package planner

import (
	"github.com/cockroachdb/errors"

	"github.com/tuannm99/novaquery/internal/sql/binder"
	"github.com/tuannm99/novaquery/internal/sql/expr"
	"github.com/tuannm99/novaquery/internal/sql/plan"
)

var (
	ErrNoSource           = errors.New("planner: SELECT without FROM is not supported")
	ErrNonAggregateColumn = errors.New("planner: column must appear in an aggregate function")
)

// BuildPlan builds a logical plan from a bound statement.
func BuildPlan(stmt binder.BoundStatement) (plan.Node, error) {
	switch s := stmt.(type) {
	case *binder.BoundSelect:
		return PlanSelect(s)
	default:
		return nil, errors.Newf("planner: unsupported statement type %T", stmt)
	}
}

// PlanSelect stacks scan, filter, aggregate and project, skipping the
// stages the statement does not need.
func PlanSelect(s *binder.BoundSelect) (plan.Node, error) {
	if s.FromTable == nil {
		return nil, ErrNoSource
	}

	var root plan.Node = plan.NewLogicalTableScan(s.FromTable.Table)

	if s.WhereClause != nil {
		root = plan.NewLogicalFilter(s.WhereClause, root)
	}

	if s.HasAggregates() {
		aggs, err := collectAggs(s.SelectList)
		if err != nil {
			return nil, err
		}
		root = plan.NewLogicalAgg(aggs, nil, root)
	}

	if len(s.SelectList) > 0 {
		root = plan.NewLogicalProject(s.SelectList, root)
	}
	return root, nil
}

// collectAggs returns the distinct aggregate calls of the select list in
// first-seen order. Column references outside an aggregate are rejected since
// there is no GROUP BY to give them a single value.
func collectAggs(list []expr.Expr) ([]expr.Expr, error) {
	var aggs []expr.Expr
	var bad expr.Expr
	for _, e := range list {
		expr.Walk(e, func(x expr.Expr) bool {
			switch x := x.(type) {
			case *expr.AggFunc:
				if expr.Index(aggs, x) < 0 {
					aggs = append(aggs, x)
				}
				return false
			case *expr.ColumnRef:
				if bad == nil {
					bad = x
				}
			}
			return true
		})
	}
	if bad != nil {
		return nil, errors.Wrapf(ErrNonAggregateColumn, "column %q", bad.String())
	}
	return aggs, nil
}
