// Package engine runs SQL text end to end: parse, bind, plan, optimize and
// execute against one storage.
package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/apache/arrow/go/v11/arrow"
	"github.com/cockroachdb/errors"

	"github.com/tuannm99/novaquery/internal"
	"github.com/tuannm99/novaquery/internal/alias/util"
	"github.com/tuannm99/novaquery/internal/catalog"
	"github.com/tuannm99/novaquery/internal/plancache"
	"github.com/tuannm99/novaquery/internal/sql/binder"
	"github.com/tuannm99/novaquery/internal/sql/executor"
	"github.com/tuannm99/novaquery/internal/sql/optimizer"
	"github.com/tuannm99/novaquery/internal/sql/parser"
	"github.com/tuannm99/novaquery/internal/sql/plan"
	"github.com/tuannm99/novaquery/internal/sql/planner"
	"github.com/tuannm99/novaquery/internal/storage"
)

var (
	ErrParse   = errors.New("parse error")
	ErrBind    = errors.New("bind error")
	ErrPlan    = errors.New("plan error")
	ErrExecute = errors.New("execute error")
)

func stageErr(stage error, err error) error {
	return util.WithKind(errors.Wrap(err, stage.Error()), stage)
}

// Database is safe for concurrent queries: catalogs and plans are immutable
// and each query builds its own pipeline.
type Database struct {
	storage storage.Storage
	builder *executor.ExecutorBuilder
	plans   *plancache.Cache
}

const DefaultPlanCacheSize = 128

type Option func(*Database)

// WithPlanCache sets how many compiled plans are kept. Zero disables reuse.
func WithPlanCache(size int) Option {
	return func(db *Database) { db.plans = plancache.New(size) }
}

func NewDatabase(s storage.Storage, opts ...Option) *Database {
	db := &Database{
		storage: s,
		builder: executor.NewExecutorBuilder(s),
		plans:   plancache.New(DefaultPlanCacheSize),
	}
	for _, o := range opts {
		o(db)
	}
	return db
}

// Open builds the storage described by cfg and registers its tables.
func Open(cfg *internal.NovaQueryConfig) (*Database, error) {
	opts, err := cfg.StorageOptions()
	if err != nil {
		return nil, err
	}
	s, err := storage.Open(opts)
	if err != nil {
		return nil, err
	}
	slog.Info("engine: storage ready", "backend", s.Backend(), "tables", s.Catalog().TableNames())
	return NewDatabase(s, WithPlanCache(cfg.Engine.PlanCacheSize)), nil
}

func (db *Database) Storage() storage.Storage      { return db.storage }
func (db *Database) Catalog() *catalog.RootCatalog { return db.storage.Catalog() }
func (db *Database) Close() error                  { return db.storage.Close() }

// PlanCacheStats reports plan cache hits and misses since the database opened.
func (db *Database) PlanCacheStats() (hits, misses uint64) { return db.plans.Stats() }

// Plan compiles sql into an optimized physical plan. Successful plans are
// cached by their exact text; failures are not.
func (db *Database) Plan(sql string) (plan.Node, error) {
	if cached, ok := db.plans.Get(sql); ok {
		slog.Debug("engine: plan cache hit", "sql", sql)
		return cached, nil
	}
	stmt, err := parser.Parse(sql)
	if err != nil {
		return nil, stageErr(ErrParse, err)
	}
	bound, err := binder.New(db.storage.Catalog()).Bind(stmt)
	if err != nil {
		return nil, stageErr(ErrBind, err)
	}
	slog.Debug("engine: bound", "stmt", bound)

	logical, err := planner.BuildPlan(bound)
	if err != nil {
		return nil, stageErr(ErrPlan, err)
	}
	physical := optimizer.Optimize(logical)
	slog.Debug("engine: planned", "plan", physical)
	db.plans.Put(sql, physical)
	return physical, nil
}

// Run executes sql and returns the output column names and batches. The
// caller owns the batches.
func (db *Database) Run(ctx context.Context, sql string) ([]string, []arrow.Record, error) {
	root, err := db.Plan(sql)
	if err != nil {
		return nil, nil, err
	}

	start := time.Now()
	recs, err := executor.TryCollect(ctx, db.builder.Build(ctx, root))
	if err != nil {
		return nil, nil, stageErr(ErrExecute, err)
	}
	slog.Debug("engine: executed", "sql", sql, "batches", len(recs), "elapsed", time.Since(start))
	return columnNames(root), recs, nil
}

// Query is Run with the batches copied into a Result.
func (db *Database) Query(ctx context.Context, sql string) (*executor.Result, error) {
	cols, recs, err := db.Run(ctx, sql)
	if err != nil {
		return nil, err
	}
	defer func() {
		for _, r := range recs {
			r.Release()
		}
	}()
	return executor.NewResult(cols, recs), nil
}

// Explain renders the optimized plan for sql.
func (db *Database) Explain(sql string) (string, error) {
	root, err := db.Plan(sql)
	if err != nil {
		return "", err
	}
	return plan.Explain(root), nil
}

func columnNames(n plan.Node) []string {
	schema := n.Schema()
	out := make([]string, len(schema))
	for i, c := range schema {
		out[i] = c.Name()
	}
	return out
}
