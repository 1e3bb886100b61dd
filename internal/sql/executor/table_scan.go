package executor

import (
	"context"
	"io"

	"github.com/apache/arrow/go/v11/arrow"
	"github.com/cockroachdb/errors"

	"github.com/tuannm99/novaquery/internal/alias/util"
	"github.com/tuannm99/novaquery/internal/catalog"
	"github.com/tuannm99/novaquery/internal/storage"
)

// tableScan streams every batch of the table. The transaction is closed when
// the table is exhausted, on error, or when the consumer stops pulling.
func tableScan(ctx context.Context, s storage.Storage, id catalog.TableID) BoxedExecutor {
	return func(yield func(arrow.Record, error) bool) {
		tbl, err := s.GetTable(id)
		if err != nil {
			yield(nil, execErr(err, "scan %s", id))
			return
		}
		txn, err := tbl.Read(ctx)
		if err != nil {
			yield(nil, execErr(err, "scan %s", id))
			return
		}
		defer util.CloseLogged(txn, "scan", "table", id)

		for {
			if err := ctx.Err(); err != nil {
				yield(nil, execErr(err, "scan %s", id))
				return
			}
			rec, err := txn.NextBatch()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield(nil, execErr(err, "scan %s", id))
				return
			}
			if !yield(rec, nil) {
				return
			}
		}
	}
}
