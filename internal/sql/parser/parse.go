// Package parser turns SQL text into the MySQL-dialect AST of
// github.com/xwb1989/sqlparser. The binder consumes that AST directly.
package parser

import (
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/xwb1989/sqlparser"

	"github.com/tuannm99/novaquery/internal/alias/util"
)

// Statement is the root of a parsed SQL statement.
type Statement = sqlparser.Statement

var (
	ErrEmptyStatement = errors.New("parser: empty statement")
	ErrSyntax         = errors.New("parser: syntax error")
)

// Parse parses a single SQL statement. A trailing ';' is optional.
func Parse(sql string) (Statement, error) {
	s := strings.TrimSpace(sql)
	s = strings.TrimSpace(strings.TrimSuffix(s, ";"))
	if s == "" {
		return nil, ErrEmptyStatement
	}

	stmt, err := sqlparser.Parse(s)
	if err != nil {
		return nil, util.WithKind(errors.Wrapf(err, "parse %q", s), ErrSyntax)
	}
	return stmt, nil
}

// StatementComplete reports whether buf holds a ';' outside single quotes.
func StatementComplete(buf string) bool {
	inQuote := false
	escaped := false

	for _, r := range buf {
		if escaped {
			escaped = false
			continue
		}
		if r == '\\' {
			escaped = true
			continue
		}
		if r == '\'' {
			inQuote = !inQuote
			continue
		}
		if r == ';' && !inQuote {
			return true
		}
	}
	return false
}

// IsDual reports whether t is the implicit table the parser supplies for a
// SELECT without FROM.
func IsDual(t sqlparser.TableName) bool {
	return t.Qualifier.IsEmpty() && strings.EqualFold(t.Name.String(), "dual")
}
