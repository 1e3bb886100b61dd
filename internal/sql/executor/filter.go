package executor

import (
	"context"

	"github.com/apache/arrow/go/v11/arrow"
	"github.com/apache/arrow/go/v11/arrow/compute"
	"github.com/cockroachdb/errors"

	"github.com/tuannm99/novaquery/internal/alias/util"
	"github.com/tuannm99/novaquery/internal/sql/expr"
)

// filter keeps the rows whose predicate is true. Null counts as false.
func filter(ctx context.Context, predicate expr.Expr, input BoxedExecutor) BoxedExecutor {
	return func(yield func(arrow.Record, error) bool) {
		for batch, err := range input {
			if err != nil {
				yield(nil, err)
				return
			}
			out, err := filterBatch(ctx, predicate, batch)
			batch.Release()
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(out, nil) {
				return
			}
		}
	}
}

func filterBatch(ctx context.Context, predicate expr.Expr, batch arrow.Record) (arrow.Record, error) {
	mask, err := EvalColumn(ctx, predicate, batch)
	if err != nil {
		return nil, execErr(err, "filter %s", predicate)
	}
	defer mask.Release()

	if mask.DataType().ID() != arrow.BOOL {
		return nil, util.WithKind(
			errors.Wrapf(ErrPredicateNotBoolean, "%s evaluates to %s", predicate, mask.DataType()),
			ErrExecution)
	}
	if int64(mask.Len()) != batch.NumRows() {
		return nil, util.WithKind(
			errors.Wrapf(ErrPredicateLength, "%d values for %d rows", mask.Len(), batch.NumRows()),
			ErrExecution)
	}

	out, err := compute.FilterRecordBatch(ctx, batch, mask, compute.DefaultFilterOptions())
	if err != nil {
		return nil, execErr(err, "filter %s", predicate)
	}
	return out, nil
}
