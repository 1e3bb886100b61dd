package binder

import (
	"strings"

	"github.com/apache/arrow/go/v11/arrow"
	"github.com/cockroachdb/errors"
	"github.com/xwb1989/sqlparser"

	"github.com/tuannm99/novaquery/internal/sql/expr"
)

var aggKinds = map[string]expr.AggKind{
	"count": expr.AggCount,
	"sum":   expr.AggSum,
	"min":   expr.AggMin,
	"max":   expr.AggMax,
}

// bindAggFunc binds count, sum, min and max. count returns Int64, the others
// return their argument's type. count(*) binds with no arguments.
func (b *Binder) bindAggFunc(f *sqlparser.FuncExpr) (expr.Expr, error) {
	name := strings.ToLower(f.Name.String())
	kind, ok := aggKinds[name]
	if !ok || !f.Qualifier.IsEmpty() {
		return nil, errors.Wrapf(ErrUnsupportedFunction, "%s", sqlparser.String(f))
	}
	if f.Distinct {
		return nil, unsupportedf("%s(DISTINCT ...)", name)
	}
	if b.ctx.inWhere {
		return nil, unsupportedf("aggregate %s in WHERE", name)
	}

	if kind == expr.AggCount && len(f.Exprs) == 1 {
		if _, star := f.Exprs[0].(*sqlparser.StarExpr); star {
			return &expr.AggFunc{Func: kind, Type: arrow.PrimitiveTypes.Int64}, nil
		}
	}
	if len(f.Exprs) != 1 {
		return nil, errors.Wrapf(ErrUnsupportedFunction, "%s takes exactly one argument, got %d", name, len(f.Exprs))
	}

	item, ok := f.Exprs[0].(*sqlparser.AliasedExpr)
	if !ok {
		return nil, errors.Wrapf(ErrUnsupportedFunction, "%s", sqlparser.String(f))
	}
	arg, err := b.bindExpr(item.Expr)
	if err != nil {
		return nil, err
	}
	if expr.ContainsAgg(arg) {
		return nil, unsupportedf("nested aggregate in %s", sqlparser.String(f))
	}

	argType := arg.ReturnType()
	ret := argType
	switch kind {
	case expr.AggCount:
		ret = arrow.PrimitiveTypes.Int64
	case expr.AggSum:
		if !isNumeric(argType) {
			return nil, errors.Wrapf(ErrUnsupportedFunction, "sum over %s", argType)
		}
	case expr.AggMin, expr.AggMax:
		if !isNumeric(argType) && argType.ID() != arrow.STRING {
			return nil, errors.Wrapf(ErrUnsupportedFunction, "%s over %s", name, argType)
		}
	}
	return &expr.AggFunc{Func: kind, Args: []expr.Expr{arg}, Type: ret}, nil
}
