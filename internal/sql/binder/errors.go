package binder

import "github.com/cockroachdb/errors"

// Bind errors. Callers test with errors.Is; messages carry the offending
// names and types.
var (
	ErrUnsupportedStatement = errors.New("unsupported statement")
	ErrInvalidTable         = errors.New("invalid table")
	ErrInvalidTableName     = errors.New("invalid table name")
	ErrInvalidColumn        = errors.New("invalid column")
	ErrAmbiguousColumn      = errors.New("ambiguous column")
	ErrBinaryOpTypeMismatch = errors.New("binary operator type mismatch")
	ErrUnsupportedFunction  = errors.New("unsupported function")
)

func unsupportedf(format string, args ...any) error {
	return errors.Wrapf(ErrUnsupportedStatement, format, args...)
}

func invalidTable(name string) error {
	return errors.Wrapf(ErrInvalidTable, "table %q", name)
}

func invalidTableName(parts []string) error {
	return errors.Wrapf(ErrInvalidTableName, "%q", parts)
}

func invalidColumn(name string) error {
	return errors.Wrapf(ErrInvalidColumn, "column %q", name)
}
