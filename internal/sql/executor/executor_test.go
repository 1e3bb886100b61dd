package executor

import (
	"context"
	"io"
	"math"
	"testing"

	"github.com/apache/arrow/go/v11/arrow"
	"github.com/apache/arrow/go/v11/arrow/array"
	"github.com/apache/arrow/go/v11/arrow/memory"
	"github.com/stretchr/testify/require"

	"github.com/tuannm99/novaquery/internal/catalog"
	"github.com/tuannm99/novaquery/internal/sql/expr"
	"github.com/tuannm99/novaquery/internal/sql/plan"
	"github.com/tuannm99/novaquery/internal/storage"
	"github.com/tuannm99/novaquery/internal/types"
)

// ---- fixtures ----

var (
	i32     = arrow.PrimitiveTypes.Int32
	i64     = arrow.PrimitiveTypes.Int64
	f64     = arrow.PrimitiveTypes.Float64
	utf8    = arrow.BinaryTypes.String
	boolean = arrow.FixedWidthTypes.Boolean
)

var testSchema = arrow.NewSchema([]arrow.Field{
	{Name: "c1", Type: i32, Nullable: true},
	{Name: "c2", Type: i32, Nullable: true},
	{Name: "name", Type: utf8, Nullable: true},
}, nil)

type row struct {
	c1, c2 *int32
	name   string
}

func iv(v int32) *int32 { return &v }

func newBatch(t *testing.T, rows ...row) arrow.Record {
	t.Helper()
	b := array.NewRecordBuilder(memory.DefaultAllocator, testSchema)
	defer b.Release()
	for _, r := range rows {
		for i, v := range []*int32{r.c1, r.c2} {
			if v == nil {
				b.Field(i).AppendNull()
			} else {
				b.Field(i).(*array.Int32Builder).Append(*v)
			}
		}
		b.Field(2).(*array.StringBuilder).Append(r.name)
	}
	return b.NewRecord()
}

// newStore registers table "t" holding batches.
func newStore(t *testing.T, batches ...arrow.Record) (*storage.MemoryStorage, *plan.PhysicalTableScan) {
	t.Helper()
	s := storage.NewMemoryStorage()
	require.NoError(t, s.CreateTable("t", testSchema, batches...))
	for _, b := range batches {
		b.Release()
	}
	tbl, ok := s.Catalog().GetTable("t")
	require.True(t, ok)
	return s, &plan.PhysicalTableScan{Logical: plan.NewLogicalTableScan(tbl)}
}

func ref(i int, t arrow.DataType) *expr.InputRef { return expr.NewInputRef(i, t) }

func binop(op expr.BinaryOperator, l, r expr.Expr, t arrow.DataType) *expr.BinaryOp {
	return &expr.BinaryOp{Op: op, Left: l, Right: r, Type: t}
}

func lit32(v int32) *expr.Constant { return expr.NewConstant(types.NewInt32(v)) }

func run(t *testing.T, s storage.Storage, n plan.Node) *Result {
	t.Helper()
	ctx := context.Background()
	recs, err := TryCollect(ctx, NewExecutorBuilder(s).Build(ctx, n))
	require.NoError(t, err)
	defer func() {
		for _, r := range recs {
			r.Release()
		}
	}()
	names := make([]string, 0, len(n.Schema()))
	for _, c := range n.Schema() {
		names = append(names, c.Name())
	}
	return NewResult(names, recs)
}

// ---- table scan ----

func TestTableScan_AllBatches(t *testing.T) {
	s, scan := newStore(t,
		newBatch(t, row{iv(1), iv(10), "a"}, row{iv(2), iv(20), "b"}),
		newBatch(t, row{iv(3), nil, "c"}),
	)
	res := run(t, s, scan)
	require.Equal(t, []string{"c1", "c2", "name"}, res.Columns)
	require.Equal(t, "1 10 a\n2 20 b\n3 NULL c\n", res.String())
	require.EqualValues(t, 3, res.AffectedRows)
}

func TestTableScan_MissingTable(t *testing.T) {
	_, scan := newStore(t)
	empty := storage.NewMemoryStorage()

	ctx := context.Background()
	_, err := TryCollect(ctx, NewExecutorBuilder(empty).Build(ctx, scan))
	require.ErrorIs(t, err, ErrExecution)
	require.ErrorIs(t, err, storage.ErrTableNotFound)
}

// fakeStorage serves one table whose scan counts batches and closes.
type fakeStorage struct {
	cat     *catalog.TableCatalog
	batches int
	closed  int
}

func (f *fakeStorage) Backend() storage.Backend      { return storage.Memory }
func (f *fakeStorage) Catalog() *catalog.RootCatalog { return catalog.NewRootCatalog() }
func (f *fakeStorage) Close() error                  { return nil }

func (f *fakeStorage) GetTable(catalog.TableID) (storage.Table, error) { return fakeTable{f}, nil }

type fakeTable struct{ f *fakeStorage }

func (t fakeTable) Catalog() *catalog.TableCatalog { return t.f.cat }
func (t fakeTable) Read(context.Context) (storage.Transaction, error) {
	return &fakeTxn{f: t.f}, nil
}

type fakeTxn struct {
	f    *fakeStorage
	sent int
}

func (x *fakeTxn) NextBatch() (arrow.Record, error) {
	if x.sent == x.f.batches {
		return nil, io.EOF
	}
	x.sent++
	b := array.NewRecordBuilder(memory.DefaultAllocator, testSchema)
	defer b.Release()
	b.Field(0).(*array.Int32Builder).Append(int32(x.sent))
	b.Field(1).(*array.Int32Builder).Append(0)
	b.Field(2).(*array.StringBuilder).Append("x")
	return b.NewRecord(), nil
}

func (x *fakeTxn) Close() error {
	x.f.closed++
	return nil
}

func TestTableScan_StopEarlyClosesTransaction(t *testing.T) {
	tbl, err := catalog.NewTableCatalogFromSchema("t", testSchema)
	require.NoError(t, err)
	fs := &fakeStorage{cat: tbl, batches: 5}
	scan := &plan.PhysicalTableScan{Logical: plan.NewLogicalTableScan(tbl)}

	pulled := 0
	for rec, err := range NewExecutorBuilder(fs).Build(context.Background(), scan) {
		require.NoError(t, err)
		rec.Release()
		pulled++
		if pulled == 2 {
			break
		}
	}
	require.Equal(t, 2, pulled)
	require.Equal(t, 1, fs.closed)
}

func TestTableScan_Cancelled(t *testing.T) {
	tbl, err := catalog.NewTableCatalogFromSchema("t", testSchema)
	require.NoError(t, err)
	fs := &fakeStorage{cat: tbl, batches: 3}
	scan := &plan.PhysicalTableScan{Logical: plan.NewLogicalTableScan(tbl)}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var got error
	for rec, err := range NewExecutorBuilder(fs).Build(ctx, scan) {
		if err != nil {
			got = err
			break
		}
		rec.Release()
		cancel()
	}
	require.ErrorIs(t, got, context.Canceled)
	require.ErrorIs(t, got, ErrExecution)
	require.Equal(t, 1, fs.closed)
}

// ---- filter ----

func TestFilter_Selectivity(t *testing.T) {
	s, scan := newStore(t,
		newBatch(t, row{iv(1), iv(1), "a"}, row{iv(2), iv(2), "b"}, row{iv(3), iv(2), "c"}),
		newBatch(t, row{iv(2), nil, "d"}, row{nil, iv(2), "e"}),
	)
	f := &plan.PhysicalFilter{Logical: plan.NewLogicalFilter(binop(expr.OpEq, ref(1, i32), lit32(2), boolean), scan)}

	res := run(t, s, f)
	require.Equal(t, "2 2 b\n3 2 c\nNULL 2 e\n", res.String())
}

func TestFilter_Conjunction(t *testing.T) {
	s, scan := newStore(t,
		newBatch(t, row{iv(1), iv(1), "a"}, row{iv(2), iv(5), "b"}, row{iv(3), iv(9), "c"}, row{iv(4), nil, "d"}),
	)
	pred := binop(expr.OpAnd,
		binop(expr.OpGt, ref(0, i32), lit32(1), boolean),
		binop(expr.OpLt, ref(1, i32), lit32(9), boolean),
		boolean)
	f := &plan.PhysicalFilter{Logical: plan.NewLogicalFilter(pred, scan)}

	require.Equal(t, "2 5 b\n", run(t, s, f).String())
}

func TestFilter_PredicateNotBoolean(t *testing.T) {
	s, scan := newStore(t, newBatch(t, row{iv(1), iv(1), "a"}))
	f := &plan.PhysicalFilter{Logical: plan.NewLogicalFilter(ref(0, i32), scan)}

	ctx := context.Background()
	_, err := TryCollect(ctx, NewExecutorBuilder(s).Build(ctx, f))
	require.ErrorIs(t, err, ErrPredicateNotBoolean)
	require.ErrorIs(t, err, ErrExecution)
}

// ---- project ----

func TestProject_Expressions(t *testing.T) {
	s, scan := newStore(t, newBatch(t, row{iv(7), iv(2), "a"}, row{iv(9), nil, "b"}))
	exprs := []expr.Expr{
		ref(2, utf8),
		binop(expr.OpMultiply, ref(0, i32), ref(1, i32), i32),
		binop(expr.OpDivide, ref(0, i32), lit32(2), i32),
		&expr.TypeCast{Expr: ref(0, i32), CastType: f64},
		expr.NewConstant(types.NewString("k")),
	}
	p := &plan.PhysicalProject{Logical: plan.NewLogicalProject(exprs, scan)}

	res := run(t, s, p)
	require.Equal(t, "name", res.Columns[0])
	require.Equal(t, [][]any{
		{"a", int32(14), int32(3), float64(7), "k"},
		{"b", nil, int32(4), float64(9), "k"},
	}, res.Rows)
}

func TestProject_DivideByZero(t *testing.T) {
	s, scan := newStore(t, newBatch(t, row{iv(1), iv(0), "a"}))
	p := &plan.PhysicalProject{Logical: plan.NewLogicalProject(
		[]expr.Expr{binop(expr.OpDivide, ref(0, i32), ref(1, i32), i32)}, scan)}

	ctx := context.Background()
	_, err := TryCollect(ctx, NewExecutorBuilder(s).Build(ctx, p))
	require.ErrorIs(t, err, ErrDivideByZero)
	require.ErrorIs(t, err, ErrExecution)
}

// ---- simple agg ----

func aggOf(k expr.AggKind, typ arrow.DataType, args ...expr.Expr) *expr.AggFunc {
	return &expr.AggFunc{Func: k, Args: args, Type: typ}
}

func TestSimpleAgg(t *testing.T) {
	s, scan := newStore(t,
		newBatch(t, row{iv(3), iv(1), "b"}, row{iv(-1), nil, "a"}),
		newBatch(t, row{iv(10), iv(4), "c"}),
	)
	aggs := []expr.Expr{
		aggOf(expr.AggCount, i64),
		aggOf(expr.AggCount, i64, ref(1, i32)),
		aggOf(expr.AggSum, i32, ref(0, i32)),
		aggOf(expr.AggMin, i32, ref(0, i32)),
		aggOf(expr.AggMax, utf8, ref(2, utf8)),
	}
	a := &plan.PhysicalSimpleAgg{Logical: plan.NewLogicalAgg(aggs, nil, scan)}

	res := run(t, s, a)
	require.Equal(t, []string{"count(*)", "count(#1)", "sum(#0)", "min(#0)", "max(#2)"}, res.Columns)
	require.Equal(t, [][]any{{int64(3), int64(2), int32(12), int32(-1), "c"}}, res.Rows)
}

func TestSimpleAgg_EmptyInput(t *testing.T) {
	s, scan := newStore(t)
	aggs := []expr.Expr{
		aggOf(expr.AggCount, i64),
		aggOf(expr.AggSum, i32, ref(0, i32)),
		aggOf(expr.AggMax, i32, ref(1, i32)),
	}
	a := &plan.PhysicalSimpleAgg{Logical: plan.NewLogicalAgg(aggs, nil, scan)}

	require.Equal(t, "0 NULL NULL\n", run(t, s, a).String())
}

func TestSimpleAgg_SumOverflow(t *testing.T) {
	s, scan := newStore(t,
		newBatch(t, row{iv(math.MaxInt32), iv(1), "a"}),
		newBatch(t, row{iv(1), iv(1), "b"}),
	)
	aggs := []expr.Expr{aggOf(expr.AggSum, i32, ref(0, i32)), aggOf(expr.AggMax, i32, ref(0, i32))}
	a := &plan.PhysicalSimpleAgg{Logical: plan.NewLogicalAgg(aggs, nil, scan)}

	ctx := context.Background()
	_, err := TryCollect(ctx, NewExecutorBuilder(s).Build(ctx, a))
	require.ErrorIs(t, err, ErrOverflow)
	require.ErrorIs(t, err, ErrExecution)

	// max over the same column still fits
	only := &plan.PhysicalSimpleAgg{Logical: plan.NewLogicalAgg(aggs[1:], nil, scan)}
	require.Equal(t, [][]any{{int32(math.MaxInt32)}}, run(t, s, only).Rows)
}

func TestAccumulator_Int64SumOverflow(t *testing.T) {
	acc := newAccumulator(aggOf(expr.AggSum, i64, ref(0, i64)))
	require.NoError(t, acc.addInt(math.MaxInt64))
	require.ErrorIs(t, acc.addInt(1), ErrOverflow)

	acc = newAccumulator(aggOf(expr.AggSum, i64, ref(0, i64)))
	require.NoError(t, acc.addInt(math.MinInt64))
	require.ErrorIs(t, acc.addInt(-1), ErrOverflow)
	require.NoError(t, acc.addInt(5))
}

// ---- builder ----

func TestBuild_LogicalNodePanics(t *testing.T) {
	s, scan := newStore(t)
	require.Panics(t, func() {
		NewExecutorBuilder(s).Build(context.Background(), scan.Logical)
	})
}

func TestTryCollect_StopsAtFirstError(t *testing.T) {
	s, scan := newStore(t,
		newBatch(t, row{iv(1), iv(1), "a"}),
		newBatch(t, row{iv(1), iv(0), "b"}),
	)
	p := &plan.PhysicalProject{Logical: plan.NewLogicalProject(
		[]expr.Expr{binop(expr.OpDivide, ref(0, i32), ref(1, i32), i32)}, scan)}

	ctx := context.Background()
	recs, err := TryCollect(ctx, NewExecutorBuilder(s).Build(ctx, p))
	require.Error(t, err)
	require.Nil(t, recs)
}
