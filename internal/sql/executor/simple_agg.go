package executor

import (
	"cmp"
	"context"
	"math"

	"github.com/apache/arrow/go/v11/arrow"
	"github.com/apache/arrow/go/v11/arrow/array"
	"github.com/cockroachdb/errors"

	"github.com/tuannm99/novaquery/internal/catalog"
	"github.com/tuannm99/novaquery/internal/sql/expr"
)

// simpleAgg folds the whole input into one row holding one value per
// aggregate call. Over no rows count is 0 and the others are NULL.
func simpleAgg(ctx context.Context, aggs []expr.Expr, schema []catalog.ColumnCatalog, input BoxedExecutor) BoxedExecutor {
	return func(yield func(arrow.Record, error) bool) {
		accs := make([]*accumulator, len(aggs))
		for i, e := range aggs {
			f, ok := e.(*expr.AggFunc)
			if !ok {
				panic(errors.AssertionFailedf("executor: %s is not an aggregate call", e))
			}
			accs[i] = newAccumulator(f)
		}

		for batch, err := range input {
			if err != nil {
				yield(nil, err)
				return
			}
			err = updateAll(ctx, accs, batch)
			batch.Release()
			if err != nil {
				yield(nil, err)
				return
			}
		}

		fields := make([]arrow.Field, len(accs))
		cols := make([]arrow.Array, 0, len(accs))
		defer func() {
			for _, c := range cols {
				c.Release()
			}
		}()
		for i, acc := range accs {
			fields[i] = arrow.Field{Name: schema[i].Name(), Type: acc.fn.Type, Nullable: true}
			col, err := acc.result()
			if err != nil {
				yield(nil, execErr(err, "aggregate %s", acc.fn))
				return
			}
			cols = append(cols, col)
		}
		yield(array.NewRecord(arrow.NewSchema(fields, nil), cols, 1), nil)
	}
}

func updateAll(ctx context.Context, accs []*accumulator, batch arrow.Record) error {
	for _, acc := range accs {
		if len(acc.fn.Args) == 0 {
			acc.count += batch.NumRows()
			continue
		}
		col, err := EvalColumn(ctx, acc.fn.Args[0], batch)
		if err != nil {
			return execErr(err, "aggregate %s", acc.fn)
		}
		err = acc.update(col)
		col.Release()
		if err != nil {
			return execErr(err, "aggregate %s", acc.fn)
		}
	}
	return nil
}

// accumulator holds the running state of one aggregate call. Integer inputs
// accumulate in i64, floats in f64, strings in s.
type accumulator struct {
	fn    *expr.AggFunc
	count int64
	set   bool
	i64   int64
	f64   float64
	s     string
}

func newAccumulator(fn *expr.AggFunc) *accumulator {
	return &accumulator{fn: fn}
}

func (a *accumulator) update(col arrow.Array) error {
	if a.fn.Func == expr.AggCount {
		a.count += int64(col.Len() - col.NullN())
		return nil
	}
	for i := 0; i < col.Len(); i++ {
		if col.IsNull(i) {
			continue
		}
		switch c := col.(type) {
		case *array.Int32:
			if err := a.addInt(int64(c.Value(i))); err != nil {
				return err
			}
		case *array.Int64:
			if err := a.addInt(c.Value(i)); err != nil {
				return err
			}
		case *array.Float64:
			a.addFloat(c.Value(i))
		case *array.String:
			a.addString(c.Value(i))
		default:
			panic(errors.AssertionFailedf("executor: %s over %s", a.fn.Func, col.DataType()))
		}
	}
	return nil
}

func (a *accumulator) pick(c int) bool {
	if !a.set {
		return true
	}
	return (a.fn.Func == expr.AggMin && c < 0) || (a.fn.Func == expr.AggMax && c > 0)
}

func (a *accumulator) addInt(v int64) error {
	switch {
	case a.fn.Func == expr.AggSum:
		sum := a.i64 + v
		if (v > 0 && sum < a.i64) || (v < 0 && sum > a.i64) {
			return errors.Wrapf(ErrOverflow, "%s exceeds int64", a.fn)
		}
		a.i64 = sum
	case a.pick(cmp.Compare(v, a.i64)):
		a.i64 = v
	}
	a.set = true
	return nil
}

func (a *accumulator) addFloat(v float64) {
	switch {
	case a.fn.Func == expr.AggSum:
		a.f64 += v
	case a.pick(cmp.Compare(v, a.f64)):
		a.f64 = v
	}
	a.set = true
}

func (a *accumulator) addString(v string) {
	if a.pick(cmp.Compare(v, a.s)) {
		a.s = v
	}
	a.set = true
}

// result returns the one-value column for the aggregate. An Int32 sum is
// folded in int64 and must fit back into int32.
func (a *accumulator) result() (arrow.Array, error) {
	if a.fn.Func == expr.AggCount {
		return repeat[int64](array.NewInt64Builder(mem), a.count, true, 1), nil
	}
	switch a.fn.Type.ID() {
	case arrow.INT32:
		if a.i64 > math.MaxInt32 || a.i64 < math.MinInt32 {
			return nil, errors.Wrapf(ErrOverflow, "%s = %d exceeds int32", a.fn, a.i64)
		}
		return repeat[int32](array.NewInt32Builder(mem), int32(a.i64), a.set, 1), nil
	case arrow.INT64:
		return repeat[int64](array.NewInt64Builder(mem), a.i64, a.set, 1), nil
	case arrow.FLOAT64:
		return repeat[float64](array.NewFloat64Builder(mem), a.f64, a.set, 1), nil
	case arrow.STRING:
		return repeat[string](array.NewStringBuilder(mem), a.s, a.set, 1), nil
	}
	panic(errors.AssertionFailedf("executor: %s returning %s", a.fn.Func, a.fn.Type))
}
