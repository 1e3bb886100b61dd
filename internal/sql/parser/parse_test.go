package parser

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
	"github.com/xwb1989/sqlparser"
)

func TestParse_SemicolonOptional(t *testing.T) {
	for _, sql := range []string{
		"select first_name from employee",
		"select first_name from employee;",
		"  SELECT first_name FROM employee ;  ",
	} {
		stmt, err := Parse(sql)
		require.NoError(t, err, sql)
		_, ok := stmt.(*sqlparser.Select)
		require.True(t, ok, "want *sqlparser.Select, got %T", stmt)
	}
}

func TestParse_Empty(t *testing.T) {
	_, err := Parse("   ;  ")
	require.True(t, errors.Is(err, ErrEmptyStatement))
}

func TestParse_SyntaxError(t *testing.T) {
	_, err := Parse("selec 1 frm")
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrSyntax))
}

func TestParse_WhereClause(t *testing.T) {
	stmt, err := Parse("select first_name from employee where last_name = 'Hopkins'")
	require.NoError(t, err)

	sel := stmt.(*sqlparser.Select)
	require.NotNil(t, sel.Where)
	cmp, ok := sel.Where.Expr.(*sqlparser.ComparisonExpr)
	require.True(t, ok)
	require.Equal(t, sqlparser.EqualStr, cmp.Operator)
}

func TestParse_NoFromIsDual(t *testing.T) {
	stmt, err := Parse("select 1")
	require.NoError(t, err)

	sel := stmt.(*sqlparser.Select)
	require.Len(t, sel.From, 1)
	ate, ok := sel.From[0].(*sqlparser.AliasedTableExpr)
	require.True(t, ok)
	tn, ok := ate.Expr.(sqlparser.TableName)
	require.True(t, ok)
	require.True(t, IsDual(tn))
}

func TestStatementComplete(t *testing.T) {
	require.False(t, StatementComplete("select 1"))
	require.True(t, StatementComplete("select 1;"))
	require.False(t, StatementComplete("select ';"))
	require.True(t, StatementComplete(`select 'it\'s';`))
}
