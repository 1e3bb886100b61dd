// Package storage provides read-only tables of arrow record batches.
package storage

import (
	"context"
	"io"

	"github.com/apache/arrow/go/v11/arrow"

	"github.com/tuannm99/novaquery/internal/catalog"
)

// Storage owns a set of tables and the catalog describing them.
type Storage interface {
	Backend() Backend
	// GetTable fails with ErrTableNotFound for unknown ids.
	GetTable(id catalog.TableID) (Table, error)
	Catalog() *catalog.RootCatalog
	Close() error
}

type Table interface {
	Catalog() *catalog.TableCatalog
	// Read starts a scan. The caller must Close the transaction.
	Read(ctx context.Context) (Transaction, error)
}

// Transaction is one pass over a table. NextBatch returns io.EOF exactly
// once when the table is exhausted and ErrTransactionDone after that.
// Batches follow the table's catalog schema.
type Transaction interface {
	NextBatch() (arrow.Record, error)
	Close() error
}

// doneGuard turns repeated reads after io.EOF into ErrTransactionDone.
type doneGuard struct {
	done bool
}

func (g *doneGuard) check() error {
	if g.done {
		return ErrTransactionDone
	}
	return nil
}

func (g *doneGuard) finish() error {
	g.done = true
	return io.EOF
}
