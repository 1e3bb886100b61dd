package executor

import (
	"cmp"
	"context"

	"github.com/apache/arrow/go/v11/arrow"
	"github.com/apache/arrow/go/v11/arrow/array"
	"github.com/apache/arrow/go/v11/arrow/compute"
	"github.com/cockroachdb/errors"

	"github.com/tuannm99/novaquery/internal/sql/expr"
	"github.com/tuannm99/novaquery/internal/types"
)

// EvalColumn evaluates e against every row of batch. The result has
// batch.NumRows() values and belongs to the caller. e must be fully resolved:
// column references and aggregate calls are programming errors here.
func EvalColumn(ctx context.Context, e expr.Expr, batch arrow.Record) (arrow.Array, error) {
	switch e := e.(type) {
	case *expr.InputRef:
		if e.Index < 0 || int64(e.Index) >= batch.NumCols() {
			panic(errors.AssertionFailedf("executor: %s out of range for %d columns", e, batch.NumCols()))
		}
		col := batch.Column(e.Index)
		col.Retain()
		return col, nil
	case *expr.Constant:
		return broadcast(e.Value, int(batch.NumRows())), nil
	case *expr.BinaryOp:
		l, err := EvalColumn(ctx, e.Left, batch)
		if err != nil {
			return nil, err
		}
		defer l.Release()
		r, err := EvalColumn(ctx, e.Right, batch)
		if err != nil {
			return nil, err
		}
		defer r.Release()
		return evalBinary(e.Op, l, r)
	case *expr.TypeCast:
		in, err := EvalColumn(ctx, e.Expr, batch)
		if err != nil {
			return nil, err
		}
		defer in.Release()
		if arrow.TypeEqual(in.DataType(), e.CastType) {
			in.Retain()
			return in, nil
		}
		out, err := compute.CastArray(ctx, in, compute.SafeCastOptions(e.CastType))
		if err != nil {
			return nil, errors.Wrapf(err, "cast %s to %s", in.DataType(), e.CastType)
		}
		return out, nil
	default:
		panic(errors.AssertionFailedf("executor: cannot evaluate %T %s", e, e))
	}
}

func evalBinary(op expr.BinaryOperator, l, r arrow.Array) (arrow.Array, error) {
	if !arrow.TypeEqual(l.DataType(), r.DataType()) {
		panic(errors.AssertionFailedf("executor: %s on %s and %s", op, l.DataType(), r.DataType()))
	}
	if l.Len() != r.Len() {
		panic(errors.AssertionFailedf("executor: %s on %d and %d values", op, l.Len(), r.Len()))
	}

	switch {
	case op.IsArithmetic():
		switch l.DataType().ID() {
		case arrow.INT32:
			return arithmetic[int32](op, l, r, array.NewInt32Builder(mem))
		case arrow.INT64:
			return arithmetic[int64](op, l, r, array.NewInt64Builder(mem))
		case arrow.FLOAT64:
			return arithmetic[float64](op, l, r, array.NewFloat64Builder(mem))
		}
	case op.IsComparison():
		switch l.DataType().ID() {
		case arrow.INT32:
			return compareNumeric[int32](op, l, r), nil
		case arrow.INT64:
			return compareNumeric[int64](op, l, r), nil
		case arrow.FLOAT64:
			return compareNumeric[float64](op, l, r), nil
		case arrow.STRING:
			return compare(op, l, r, l.(*array.String).Value, r.(*array.String).Value), nil
		case arrow.BOOL:
			if op == expr.OpEq || op == expr.OpNotEq {
				return compare(op, l, r, boolOrdinal(l), boolOrdinal(r)), nil
			}
		}
	case op.IsLogical():
		if l.DataType().ID() == arrow.BOOL {
			return logical(op, l.(*array.Boolean), r.(*array.Boolean)), nil
		}
	}
	panic(errors.AssertionFailedf("executor: unsupported %s on %s", op, l.DataType()))
}

type numeric interface {
	int32 | int64 | float64
}

// builderOf is the part of the typed arrow builders the kernels use.
type builderOf[T any] interface {
	Append(T)
	AppendNull()
	Reserve(int)
	NewArray() arrow.Array
	Release()
}

func numericValues[T numeric](a arrow.Array) []T {
	switch a := a.(type) {
	case *array.Int32:
		return any(a.Int32Values()).([]T)
	case *array.Int64:
		return any(a.Int64Values()).([]T)
	case *array.Float64:
		return any(a.Float64Values()).([]T)
	}
	panic(errors.AssertionFailedf("executor: %s is not numeric", a.DataType()))
}

func isInteger[T numeric]() bool {
	var zero T
	_, isFloat := any(zero).(float64)
	return !isFloat
}

// arithmetic applies op row by row. A null on either side gives null.
// Integer overflow wraps; integer division by zero is an error and float
// division follows IEEE 754.
func arithmetic[T numeric](op expr.BinaryOperator, l, r arrow.Array, b builderOf[T]) (arrow.Array, error) {
	defer b.Release()
	lv, rv := numericValues[T](l), numericValues[T](r)
	b.Reserve(len(lv))
	for i := range lv {
		if l.IsNull(i) || r.IsNull(i) {
			b.AppendNull()
			continue
		}
		x, y := lv[i], rv[i]
		switch op {
		case expr.OpPlus:
			b.Append(x + y)
		case expr.OpMinus:
			b.Append(x - y)
		case expr.OpMultiply:
			b.Append(x * y)
		case expr.OpDivide:
			if y == 0 && isInteger[T]() {
				return nil, errors.Wrapf(ErrDivideByZero, "row %d", i)
			}
			b.Append(x / y)
		default:
			panic(errors.AssertionFailedf("executor: %s is not arithmetic", op))
		}
	}
	return b.NewArray(), nil
}

func compareNumeric[T numeric](op expr.BinaryOperator, l, r arrow.Array) arrow.Array {
	lv, rv := numericValues[T](l), numericValues[T](r)
	return compare(op, l, r,
		func(i int) T { return lv[i] },
		func(i int) T { return rv[i] })
}

func boolOrdinal(a arrow.Array) func(int) int {
	ba := a.(*array.Boolean)
	return func(i int) int {
		if ba.Value(i) {
			return 1
		}
		return 0
	}
}

// compare evaluates op row by row over values read through lv and rv. A null
// on either side gives null.
func compare[T cmp.Ordered](op expr.BinaryOperator, l, r arrow.Array, lv, rv func(int) T) arrow.Array {
	b := array.NewBooleanBuilder(mem)
	defer b.Release()
	b.Reserve(l.Len())
	for i := 0; i < l.Len(); i++ {
		if l.IsNull(i) || r.IsNull(i) {
			b.AppendNull()
			continue
		}
		b.Append(holds(op, cmp.Compare(lv(i), rv(i))))
	}
	return b.NewArray()
}

func holds(op expr.BinaryOperator, c int) bool {
	switch op {
	case expr.OpEq:
		return c == 0
	case expr.OpNotEq:
		return c != 0
	case expr.OpLt:
		return c < 0
	case expr.OpLtEq:
		return c <= 0
	case expr.OpGt:
		return c > 0
	case expr.OpGtEq:
		return c >= 0
	}
	panic(errors.AssertionFailedf("executor: %s is not a comparison", op))
}

// logical is three-valued AND/OR: false AND null is false, true OR null is
// true, any other combination with a null is null.
func logical(op expr.BinaryOperator, l, r *array.Boolean) arrow.Array {
	b := array.NewBooleanBuilder(mem)
	defer b.Release()
	b.Reserve(l.Len())

	// dominant is the value that decides the result on its own.
	dominant := op == expr.OpOr
	for i := 0; i < l.Len(); i++ {
		lNull, rNull := l.IsNull(i), r.IsNull(i)
		switch {
		case !lNull && l.Value(i) == dominant, !rNull && r.Value(i) == dominant:
			b.Append(dominant)
		case lNull || rNull:
			b.AppendNull()
		default:
			b.Append(!dominant)
		}
	}
	return b.NewArray()
}

// broadcast repeats v n times.
func broadcast(v types.ScalarValue, n int) arrow.Array {
	switch v.Kind {
	case types.KindBoolean:
		return repeat[bool](array.NewBooleanBuilder(mem), v.Bool(), v.Valid, n)
	case types.KindInt32:
		return repeat[int32](array.NewInt32Builder(mem), v.Int32(), v.Valid, n)
	case types.KindInt64:
		return repeat[int64](array.NewInt64Builder(mem), v.Int64(), v.Valid, n)
	case types.KindFloat64:
		return repeat[float64](array.NewFloat64Builder(mem), v.Float64(), v.Valid, n)
	case types.KindString:
		return repeat[string](array.NewStringBuilder(mem), v.Str(), v.Valid, n)
	default:
		return array.NewNull(n)
	}
}

func repeat[T any](b builderOf[T], v T, valid bool, n int) arrow.Array {
	defer b.Release()
	b.Reserve(n)
	for i := 0; i < n; i++ {
		if valid {
			b.Append(v)
		} else {
			b.AppendNull()
		}
	}
	return b.NewArray()
}
