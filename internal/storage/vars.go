package storage

import (
	"strings"

	"github.com/cockroachdb/errors"
)

const (
	DefaultBatchSize       = 1024
	DefaultInferMaxRecords = 10
	DefaultDelimiter       = ','
)

// Backend tags the closed set of storage implementations.
type Backend int

const (
	CSV     Backend = iota + 1 // delimited text files
	Parquet                    // parquet files
	Memory                     // arrow records held in memory
)

func (b Backend) String() string {
	switch b {
	case CSV:
		return "csv"
	case Parquet:
		return "parquet"
	case Memory:
		return "memory"
	default:
		return "unknown"
	}
}

func GetBackend(s string) (Backend, error) {
	switch strings.ToLower(s) {
	case "csv":
		return CSV, nil
	case "parquet":
		return Parquet, nil
	case "memory":
		return Memory, nil
	default:
		return 0, errors.Wrapf(ErrUnknownBackend, "%q", s)
	}
}

var (
	ErrTableNotFound   = errors.New("storage: table not found")
	ErrTableExists     = errors.New("storage: table already exists")
	ErrTransactionDone = errors.New("storage: transaction already exhausted")
	ErrUnknownBackend  = errors.New("storage: unknown backend")
	ErrStorageIO       = errors.New("storage: I/O error")
)
