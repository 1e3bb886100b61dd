package engine

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cockroachdb/datadriven"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"

	"github.com/tuannm99/novaquery/internal"
	"github.com/tuannm99/novaquery/internal/sql/binder"
	"github.com/tuannm99/novaquery/internal/sql/executor"
	"github.com/tuannm99/novaquery/internal/sql/parser"
	"github.com/tuannm99/novaquery/internal/storage"
)

func newEmployeeDB(t *testing.T) *Database {
	t.Helper()
	cfg := internal.DefaultConfig()
	cfg.Tables = []internal.TableConfig{{Name: "employee", Path: "testdata/employee.csv"}}
	db, err := Open(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, db.Close()) })
	return db
}

func TestQueries(t *testing.T) {
	db := newEmployeeDB(t)
	ctx := context.Background()

	datadriven.RunTest(t, "testdata/queries", func(t *testing.T, d *datadriven.TestData) string {
		switch d.Cmd {
		case "query":
			res, err := db.Query(ctx, d.Input)
			if err != nil {
				t.Fatalf("%s: %v", d.Pos, err)
			}
			return strings.Join(res.Columns, " ") + "\n" + res.String()
		case "explain":
			out, err := db.Explain(d.Input)
			if err != nil {
				t.Fatalf("%s: %v", d.Pos, err)
			}
			return out
		case "error":
			_, err := db.Query(ctx, d.Input)
			if err == nil {
				t.Fatalf("%s: expected an error", d.Pos)
			}
			return err.Error() + "\n"
		default:
			t.Fatalf("unknown command %s", d.Cmd)
			return ""
		}
	})
}

func TestQuery_StageErrors(t *testing.T) {
	db := newEmployeeDB(t)
	ctx := context.Background()

	_, err := db.Query(ctx, "selec first_name from employee")
	require.ErrorIs(t, err, ErrParse)
	require.ErrorIs(t, err, parser.ErrSyntax)

	_, err = db.Query(ctx, "select x from missing")
	require.ErrorIs(t, err, ErrBind)
	require.ErrorIs(t, err, binder.ErrInvalidTable)

	_, err = db.Query(ctx, "select 1")
	require.ErrorIs(t, err, ErrPlan)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = db.Query(cancelled, "select id from employee")
	require.ErrorIs(t, err, ErrExecute)
	require.ErrorIs(t, err, executor.ErrExecution)
	require.ErrorIs(t, err, context.Canceled)
	require.True(t, errors.Is(err, ErrExecute))
	require.True(t, errors.Is(err, context.Canceled))
	require.False(t, errors.Is(err, ErrBind))
}

func TestQuery_BlankCSVCells(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scores.csv")
	require.NoError(t, os.WriteFile(path, []byte("id,score,name\n1,,a\n2,5,\n3,7,c\n"), 0o644))
	cfg := internal.DefaultConfig()
	cfg.Tables = []internal.TableConfig{{Name: "t", Path: path}}
	db, err := Open(cfg)
	require.NoError(t, err)
	defer func() { require.NoError(t, db.Close()) }()
	ctx := context.Background()

	res, err := db.Query(ctx, "select id, score from t where score > 1")
	require.NoError(t, err)
	require.Equal(t, "2 5\n3 7\n", res.String())

	res, err = db.Query(ctx, "select sum(id), count(name), count(score), sum(score) from t")
	require.NoError(t, err)
	require.Equal(t, "6 2 2 12\n", res.String())

	res, err = db.Query(ctx, "select id from t where name = 'a' or score = 7")
	require.NoError(t, err)
	require.Equal(t, "1\n3\n", res.String())
}

func TestRun_ReturnsBatches(t *testing.T) {
	db := newEmployeeDB(t)
	cols, recs, err := db.Run(context.Background(), "select id, last_name from employee where salary >= 11500")
	require.NoError(t, err)
	defer func() {
		for _, r := range recs {
			r.Release()
		}
	}()
	require.Equal(t, []string{"id", "last_name"}, cols)

	var rows int64
	for _, r := range recs {
		rows += r.NumRows()
	}
	require.EqualValues(t, 3, rows)
}

func TestDatabase_Catalog(t *testing.T) {
	db := newEmployeeDB(t)
	require.Equal(t, storage.CSV, db.Storage().Backend())
	require.Equal(t, []string{"employee"}, db.Catalog().TableNames())

	tbl, ok := db.Catalog().GetTableByName("EMPLOYEE")
	require.True(t, ok)
	require.Len(t, tbl.GetAllColumns(), 6)
}

func TestPlan_Cached(t *testing.T) {
	db := newEmployeeDB(t)
	const q = "select first_name from employee where id = 1"

	first, err := db.Plan(q)
	require.NoError(t, err)
	second, err := db.Plan(q)
	require.NoError(t, err)
	require.Same(t, first, second)

	// failed compiles are not remembered
	_, err = db.Plan("select nope from employee")
	require.Error(t, err)
	_, err = db.Plan("select nope from employee")
	require.Error(t, err)

	hits, misses := db.PlanCacheStats()
	require.Equal(t, uint64(1), hits)
	require.Equal(t, uint64(3), misses)

	// cached plans execute again from scratch
	res, err := db.Query(context.Background(), q)
	require.NoError(t, err)
	require.Len(t, res.Rows, 4)
	res, err = db.Query(context.Background(), q)
	require.NoError(t, err)
	require.Len(t, res.Rows, 4)
}

func TestPlan_CacheDisabled(t *testing.T) {
	db := NewDatabase(newEmployeeDB(t).Storage(), WithPlanCache(0))
	first, err := db.Plan("select id from employee")
	require.NoError(t, err)
	second, err := db.Plan("select id from employee")
	require.NoError(t, err)
	require.NotSame(t, first, second)
}
