package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/tuannm99/novaquery/internal"
	"github.com/tuannm99/novaquery/internal/engine"
	"github.com/tuannm99/novaquery/internal/render"
	"github.com/tuannm99/novaquery/internal/repl"
	"github.com/tuannm99/novaquery/internal/sql/executor"
)

type rootFlags struct {
	configPath string
	backend    string
	batchSize  int
	logLevel   string
	tables     map[string]string
}

func (f *rootFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.configPath, "config", "", "YAML config file")
	fs.StringVar(&f.backend, "backend", "", "storage backend: csv, parquet or memory")
	fs.IntVar(&f.batchSize, "batch-size", 0, "rows per batch read from storage")
	fs.StringVar(&f.logLevel, "log-level", "", "debug, info, warn or error")
	fs.StringToStringVar(&f.tables, "table", nil, "register a table as name=path (repeatable)")
}

// load merges the config file, environment and command line, flags winning.
func (f *rootFlags) load(fs *pflag.FlagSet) (*internal.NovaQueryConfig, error) {
	cfg, err := internal.LoadConfig(f.configPath)
	if err != nil {
		return nil, err
	}
	if fs.Changed("backend") {
		cfg.Storage.Backend = f.backend
	}
	if fs.Changed("batch-size") {
		cfg.Storage.BatchSize = f.batchSize
	}
	if fs.Changed("log-level") {
		cfg.Log.Level = f.logLevel
	}

	names := make([]string, 0, len(f.tables))
	for name := range f.tables {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		cfg.Tables = append(cfg.Tables, internal.TableConfig{Name: name, Path: f.tables[name]})
	}
	return cfg, nil
}

func (f *rootFlags) open(cmd *cobra.Command) (*engine.Database, error) {
	cfg, err := f.load(cmd.Flags())
	if err != nil {
		return nil, err
	}
	internal.SetupLogger(cfg.Log, os.Stderr)
	return engine.Open(cfg)
}

// localSession runs statements in process.
type localSession struct {
	db *engine.Database
}

func (s localSession) ExecContext(ctx context.Context, sql string) (*executor.Result, error) {
	return s.db.Query(ctx, sql)
}

func (s localSession) Explain(_ context.Context, sql string) (string, error) {
	return s.db.Explain(sql)
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}
	root := &cobra.Command{
		Use:           "novaquery",
		Short:         "Run read-only SQL over CSV and Parquet files",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	flags.register(root.PersistentFlags())

	var timing bool
	query := &cobra.Command{
		Use:   "query <sql>",
		Short: "Execute one statement and print the result",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := flags.open(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			start := time.Now()
			res, err := db.Query(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			render.Table(cmd.OutOrStdout(), res)
			if timing {
				fmt.Fprintf(cmd.OutOrStdout(), "Time: %s\n", time.Since(start).Round(time.Microsecond))
			}
			return nil
		},
	}
	query.Flags().BoolVar(&timing, "timing", false, "print elapsed time")

	explain := &cobra.Command{
		Use:   "explain <sql>",
		Short: "Print the optimized plan of a statement",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := flags.open(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			out, err := db.Explain(strings.Join(args, " "))
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), out)
			return nil
		},
	}

	tables := &cobra.Command{
		Use:   "tables",
		Short: "List registered tables and their columns",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := flags.open(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			cat := db.Catalog()
			for _, name := range cat.TableNames() {
				t, _ := cat.GetTableByName(name)
				cols := make([]string, 0, len(t.ColumnIDs))
				for _, c := range t.GetAllColumns() {
					cols = append(cols, fmt.Sprintf("%s %s", c.Name(), c.DataType()))
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s(%s)\n", name, strings.Join(cols, ", "))
			}
			return nil
		},
	}

	var histPath string
	shell := &cobra.Command{
		Use:   "shell",
		Short: "Interactive SQL prompt",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := flags.open(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			return repl.Run(cmd.Context(), localSession{db: db}, repl.Config{
				Banner:      fmt.Sprintf("tables: %s", strings.Join(db.Catalog().TableNames(), ", ")),
				HistoryPath: histPath,
				HistoryMax:  2000,
			})
		},
	}
	shell.Flags().StringVar(&histPath, "history", repl.DefaultHistoryPath(), "history file path")

	root.AddCommand(query, explain, tables, shell)
	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
