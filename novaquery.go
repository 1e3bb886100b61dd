// Package novaquery runs read-only SQL over CSV, parquet and in-memory
// arrow tables.
package novaquery

import (
	"github.com/tuannm99/novaquery/internal"
	"github.com/tuannm99/novaquery/internal/engine"
	"github.com/tuannm99/novaquery/internal/sql/executor"
)

type (
	Database = engine.Database
	Result   = executor.Result
	Config   = internal.NovaQueryConfig
)

// LoadConfig reads a YAML config file; see internal.LoadConfig.
func LoadConfig(path string) (*Config, error) { return internal.LoadConfig(path) }

func DefaultConfig() *Config { return internal.DefaultConfig() }

// Open builds a database from cfg.
func Open(cfg *Config) (*Database, error) { return engine.Open(cfg) }
