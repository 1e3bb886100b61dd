package executor

import (
	"context"

	"github.com/apache/arrow/go/v11/arrow"
	"github.com/apache/arrow/go/v11/arrow/array"

	"github.com/tuannm99/novaquery/internal/catalog"
	"github.com/tuannm99/novaquery/internal/sql/expr"
)

func project(ctx context.Context, exprs []expr.Expr, schema []catalog.ColumnCatalog, input BoxedExecutor) BoxedExecutor {
	return func(yield func(arrow.Record, error) bool) {
		for batch, err := range input {
			if err != nil {
				yield(nil, err)
				return
			}
			out, err := projectBatch(ctx, exprs, schema, batch)
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

// projectBatch evaluates exprs into a new record. Column names come from the
// plan schema, types from the evaluated columns.
func projectBatch(ctx context.Context, exprs []expr.Expr, schema []catalog.ColumnCatalog, batch arrow.Record) (arrow.Record, error) {
	cols := make([]arrow.Array, 0, len(exprs))
	defer func() {
		for _, c := range cols {
			c.Release()
		}
	}()

	fields := make([]arrow.Field, len(exprs))
	for i, e := range exprs {
		col, err := EvalColumn(ctx, e, batch)
		if err != nil {
			return nil, execErr(err, "project %s", e)
		}
		cols = append(cols, col)
		fields[i] = arrow.Field{Name: schema[i].Name(), Type: col.DataType(), Nullable: true}
	}
	return array.NewRecord(arrow.NewSchema(fields, nil), cols, batch.NumRows()), nil
}
