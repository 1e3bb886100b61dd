// Package executor turns physical plans into pull-based streams of arrow
// record batches.
package executor

import (
	"context"
	"iter"

	"github.com/apache/arrow/go/v11/arrow"
	"github.com/apache/arrow/go/v11/arrow/memory"
	"github.com/cockroachdb/errors"

	"github.com/tuannm99/novaquery/internal/alias/util"
	"github.com/tuannm99/novaquery/internal/sql/plan"
	"github.com/tuannm99/novaquery/internal/storage"
)

var (
	ErrExecution           = errors.New("executor: execution failed")
	ErrPredicateNotBoolean = errors.New("executor: predicate is not boolean")
	ErrPredicateLength     = errors.New("executor: predicate length does not match batch")
	ErrDivideByZero        = errors.New("executor: division by zero")
	ErrOverflow            = errors.New("executor: integer overflow")
)

var mem memory.Allocator = memory.DefaultAllocator

// BoxedExecutor is a lazy stream of batches. Nothing runs until the stream is
// ranged over, and stopping early releases whatever the stream holds. Every
// yielded record belongs to the consumer, which must Release it. A non-nil
// error is always the last element.
type BoxedExecutor = iter.Seq2[arrow.Record, error]

func execErr(err error, format string, args ...any) error {
	return util.WithKind(errors.Wrapf(err, format, args...), ErrExecution)
}

// fail is a stream that yields err and ends.
func fail(err error) BoxedExecutor {
	return func(yield func(arrow.Record, error) bool) {
		yield(nil, err)
	}
}

// ExecutorBuilder builds streams for physical plans over one storage.
type ExecutorBuilder struct {
	storage storage.Storage
}

func NewExecutorBuilder(s storage.Storage) *ExecutorBuilder {
	return &ExecutorBuilder{storage: s}
}

// Build returns the stream for node. Logical nodes have no executor and
// panic.
func (b *ExecutorBuilder) Build(ctx context.Context, node plan.Node) BoxedExecutor {
	v := &buildVisitor{ctx: ctx, storage: b.storage}
	exec, ok := plan.Visit[BoxedExecutor](v, node)
	if !ok {
		panic(errors.AssertionFailedf("executor: no executor for %s", node.NodeType()))
	}
	return exec
}

type buildVisitor struct {
	plan.UnimplementedVisitor[BoxedExecutor]
	ctx     context.Context
	storage storage.Storage
}

func (v *buildVisitor) child(n plan.Node) BoxedExecutor {
	exec, ok := plan.Visit[BoxedExecutor](v, n.Children()[0])
	if !ok {
		panic(errors.AssertionFailedf("executor: no executor for %s", n.Children()[0].NodeType()))
	}
	return exec
}

func (v *buildVisitor) VisitPhysicalTableScan(n *plan.PhysicalTableScan) (BoxedExecutor, bool) {
	return tableScan(v.ctx, v.storage, n.Logical.TableID), true
}

func (v *buildVisitor) VisitPhysicalFilter(n *plan.PhysicalFilter) (BoxedExecutor, bool) {
	return filter(v.ctx, n.Logical.Expr, v.child(n)), true
}

func (v *buildVisitor) VisitPhysicalProject(n *plan.PhysicalProject) (BoxedExecutor, bool) {
	return project(v.ctx, n.Logical.Exprs, n.Schema(), v.child(n)), true
}

func (v *buildVisitor) VisitPhysicalSimpleAgg(n *plan.PhysicalSimpleAgg) (BoxedExecutor, bool) {
	return simpleAgg(v.ctx, n.Logical.AggFuncs, n.Schema(), v.child(n)), true
}

// TryCollect drains exec. On error the batches read so far are released.
func TryCollect(ctx context.Context, exec BoxedExecutor) ([]arrow.Record, error) {
	var out []arrow.Record
	release := func() {
		for _, r := range out {
			r.Release()
		}
	}
	for rec, err := range exec {
		if err != nil {
			release()
			return nil, err
		}
		out = append(out, rec)
		if err := ctx.Err(); err != nil {
			release()
			return nil, execErr(err, "collect")
		}
	}
	return out, nil
}
