package binder

import (
	"strings"

	"github.com/apache/arrow/go/v11/arrow"
	"github.com/cockroachdb/errors"
	"github.com/xwb1989/sqlparser"

	"github.com/tuannm99/novaquery/internal/sql/expr"
	"github.com/tuannm99/novaquery/internal/types"
)

var comparisonOps = map[string]expr.BinaryOperator{
	sqlparser.EqualStr:        expr.OpEq,
	sqlparser.NotEqualStr:     expr.OpNotEq,
	sqlparser.LessThanStr:     expr.OpLt,
	sqlparser.LessEqualStr:    expr.OpLtEq,
	sqlparser.GreaterThanStr:  expr.OpGt,
	sqlparser.GreaterEqualStr: expr.OpGtEq,
}

var arithmeticOps = map[string]expr.BinaryOperator{
	sqlparser.PlusStr:  expr.OpPlus,
	sqlparser.MinusStr: expr.OpMinus,
	sqlparser.MultStr:  expr.OpMultiply,
	sqlparser.DivStr:   expr.OpDivide,
}

func (b *Binder) bindExpr(e sqlparser.Expr) (expr.Expr, error) {
	switch e := e.(type) {
	case *sqlparser.ColName:
		return b.bindColumn(e)
	case *sqlparser.SQLVal:
		return bindLiteral(e)
	case sqlparser.BoolVal:
		return expr.NewConstant(types.NewBoolean(bool(e))), nil
	case *sqlparser.NullVal:
		return expr.NewConstant(types.Null()), nil
	case *sqlparser.ParenExpr:
		return b.bindExpr(e.Expr)
	case *sqlparser.UnaryExpr:
		return b.bindUnary(e)
	case *sqlparser.ComparisonExpr:
		op, ok := comparisonOps[e.Operator]
		if !ok || e.Escape != nil {
			return nil, unsupportedf("operator %q", e.Operator)
		}
		return b.bindBinaryOp(op, e.Left, e.Right)
	case *sqlparser.BinaryExpr:
		op, ok := arithmeticOps[e.Operator]
		if !ok {
			return nil, unsupportedf("operator %q", e.Operator)
		}
		return b.bindBinaryOp(op, e.Left, e.Right)
	case *sqlparser.AndExpr:
		return b.bindBinaryOp(expr.OpAnd, e.Left, e.Right)
	case *sqlparser.OrExpr:
		return b.bindBinaryOp(expr.OpOr, e.Left, e.Right)
	case *sqlparser.ConvertExpr:
		return b.bindCast(e)
	case *sqlparser.FuncExpr:
		return b.bindAggFunc(e)
	default:
		return nil, unsupportedf("expression %s", sqlparser.String(e))
	}
}

// bindColumn resolves "c", "t.c" and "s.t.c". A bare name is looked up in
// every bound table and must match exactly one.
func (b *Binder) bindColumn(c *sqlparser.ColName) (expr.Expr, error) {
	name := strings.ToLower(c.Name.String())

	if !c.Qualifier.IsEmpty() {
		table := strings.ToLower(c.Qualifier.Name.String())
		ref, ok := b.ctx.tables[table]
		if !ok {
			return nil, invalidTable(table)
		}
		if q := c.Qualifier.Qualifier; !q.IsEmpty() && strings.ToLower(q.String()) != ref.Schema {
			return nil, invalidTable(strings.ToLower(q.String()) + "." + table)
		}
		col, ok := ref.Table.GetColumnByName(name)
		if !ok {
			return nil, invalidColumn(table + "." + name)
		}
		return expr.NewColumnRef(col), nil
	}

	var found *expr.ColumnRef
	var owner string
	for _, table := range b.ctx.order {
		col, ok := b.ctx.tables[table].Table.GetColumnByName(name)
		if !ok {
			continue
		}
		if found != nil {
			return nil, errors.Wrapf(ErrAmbiguousColumn, "column %q matches %s and %s", name, owner, table)
		}
		found, owner = expr.NewColumnRef(col), table
	}
	if found == nil {
		return nil, invalidColumn(name)
	}
	return found, nil
}

func bindLiteral(v *sqlparser.SQLVal) (expr.Expr, error) {
	switch v.Type {
	case sqlparser.StrVal:
		return expr.NewConstant(types.NewString(string(v.Val))), nil
	case sqlparser.IntVal, sqlparser.FloatVal:
		sv, err := types.ParseNumber(string(v.Val))
		if err != nil {
			return nil, unsupportedf("number %q", v.Val)
		}
		return expr.NewConstant(sv), nil
	default:
		return nil, unsupportedf("literal %s", sqlparser.String(v))
	}
}

// bindUnary accepts a leading minus on a numeric literal.
func (b *Binder) bindUnary(u *sqlparser.UnaryExpr) (expr.Expr, error) {
	v, ok := u.Expr.(*sqlparser.SQLVal)
	if u.Operator != sqlparser.UMinusStr || !ok || (v.Type != sqlparser.IntVal && v.Type != sqlparser.FloatVal) {
		return nil, unsupportedf("expression %s", sqlparser.String(u))
	}
	sv, err := types.ParseNumber("-" + string(v.Val))
	if err != nil {
		return nil, unsupportedf("number -%s", v.Val)
	}
	return expr.NewConstant(sv), nil
}

// bindBinaryOp requires both operands to have the same type. Comparisons
// return Boolean, arithmetic returns the operand type, AND/OR need Boolean
// operands.
func (b *Binder) bindBinaryOp(op expr.BinaryOperator, left, right sqlparser.Expr) (expr.Expr, error) {
	l, err := b.bindExpr(left)
	if err != nil {
		return nil, err
	}
	r, err := b.bindExpr(right)
	if err != nil {
		return nil, err
	}

	l, r = widenLiteral(l, r.ReturnType()), widenLiteral(r, l.ReturnType())
	lt, rt := l.ReturnType(), r.ReturnType()
	if !arrow.TypeEqual(lt, rt) {
		return nil, errors.Wrapf(ErrBinaryOpTypeMismatch, "%s %s %s (%s, %s)", l, op, r, lt, rt)
	}

	var ret arrow.DataType
	switch {
	case op.IsComparison():
		if !isComparable(lt, op) {
			return nil, errors.Wrapf(ErrBinaryOpTypeMismatch, "%s is not defined for %s", op, lt)
		}
		ret = arrow.FixedWidthTypes.Boolean
	case op.IsLogical():
		if !arrow.TypeEqual(lt, arrow.FixedWidthTypes.Boolean) {
			return nil, errors.Wrapf(ErrBinaryOpTypeMismatch, "%s needs boolean operands, got %s", op, lt)
		}
		ret = arrow.FixedWidthTypes.Boolean
	default:
		if !isNumeric(lt) {
			return nil, errors.Wrapf(ErrBinaryOpTypeMismatch, "%s needs numeric operands, got %s", op, lt)
		}
		ret = lt
	}
	return &expr.BinaryOp{Op: op, Left: l, Right: r, Type: ret}, nil
}

// widenLiteral retypes a numeric literal to the wider numeric type of the
// other operand: Int32 to Int64 or Float64, Int64 to Float64. Anything else is
// returned unchanged.
func widenLiteral(e expr.Expr, other arrow.DataType) expr.Expr {
	c, ok := e.(*expr.Constant)
	if !ok || !c.Value.Valid {
		return e
	}
	v := c.Value
	switch {
	case v.Kind == types.KindInt32 && other.ID() == arrow.INT64:
		return expr.NewConstant(types.NewInt64(v.Int64()))
	case (v.Kind == types.KindInt32 || v.Kind == types.KindInt64) && other.ID() == arrow.FLOAT64:
		return expr.NewConstant(types.NewFloat64(float64(v.Int64())))
	}
	return e
}

func (b *Binder) bindCast(c *sqlparser.ConvertExpr) (expr.Expr, error) {
	inner, err := b.bindExpr(c.Expr)
	if err != nil {
		return nil, err
	}
	if c.Type == nil {
		return nil, unsupportedf("cast without target type")
	}
	var to arrow.DataType
	switch strings.ToLower(c.Type.Type) {
	case "signed", "unsigned":
		to = arrow.PrimitiveTypes.Int64
	case "decimal":
		to = arrow.PrimitiveTypes.Float64
	case "char", "nchar":
		to = arrow.BinaryTypes.String
	default:
		return nil, unsupportedf("cast to %s", c.Type.Type)
	}
	return &expr.TypeCast{Expr: inner, CastType: to}, nil
}

func isNumeric(t arrow.DataType) bool {
	switch t.ID() {
	case arrow.INT32, arrow.INT64, arrow.FLOAT64:
		return true
	}
	return false
}

func isComparable(t arrow.DataType, op expr.BinaryOperator) bool {
	switch t.ID() {
	case arrow.INT32, arrow.INT64, arrow.FLOAT64, arrow.STRING:
		return true
	case arrow.BOOL:
		return op == expr.OpEq || op == expr.OpNotEq
	}
	return false
}
