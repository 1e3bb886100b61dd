package internal

import (
	"strings"
	"unicode/utf8"

	"github.com/cockroachdb/errors"
	"github.com/spf13/viper"

	"github.com/tuannm99/novaquery/internal/storage"
)

const EnvPrefix = "NOVAQUERY"

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // text or json
}

type CSVConfig struct {
	HasHeader       bool   `mapstructure:"has_header"`
	Delimiter       string `mapstructure:"delimiter"`
	InferMaxRecords int    `mapstructure:"infer_max_records"`
}

type StorageConfig struct {
	Backend   string    `mapstructure:"backend"`
	BatchSize int       `mapstructure:"batch_size"`
	CSV       CSVConfig `mapstructure:"csv"`
}

type TableConfig struct {
	Name string `mapstructure:"name"`
	Path string `mapstructure:"path"`
}

type EngineConfig struct {
	PlanCacheSize int `mapstructure:"plan_cache_size"` // 0 disables plan reuse
}

type ServerConfig struct {
	Addr  string `mapstructure:"addr"`
	Debug bool   `mapstructure:"debug"`
}

type NovaQueryConfig struct {
	AppName string        `mapstructure:"app_name"`
	Log     LogConfig     `mapstructure:"log"`
	Storage StorageConfig `mapstructure:"storage"`
	Tables  []TableConfig `mapstructure:"tables"`
	Engine  EngineConfig  `mapstructure:"engine"`
	Server  ServerConfig  `mapstructure:"server"`
}

func DefaultConfig() *NovaQueryConfig {
	return &NovaQueryConfig{
		AppName: "novaquery",
		Log:     LogConfig{Level: "info", Format: "text"},
		Storage: StorageConfig{
			Backend:   storage.CSV.String(),
			BatchSize: storage.DefaultBatchSize,
			CSV: CSVConfig{
				HasHeader:       true,
				Delimiter:       string(storage.DefaultDelimiter),
				InferMaxRecords: storage.DefaultInferMaxRecords,
			},
		},
		Engine: EngineConfig{PlanCacheSize: 128},
		Server: ServerConfig{Addr: "127.0.0.1:8866"},
	}
}

func setDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("app_name", d.AppName)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("storage.backend", d.Storage.Backend)
	v.SetDefault("storage.batch_size", d.Storage.BatchSize)
	v.SetDefault("storage.csv.has_header", d.Storage.CSV.HasHeader)
	v.SetDefault("storage.csv.delimiter", d.Storage.CSV.Delimiter)
	v.SetDefault("storage.csv.infer_max_records", d.Storage.CSV.InferMaxRecords)
	v.SetDefault("engine.plan_cache_size", d.Engine.PlanCacheSize)
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.debug", d.Server.Debug)
}

// LoadConfig reads the YAML file at path on top of the defaults. An empty
// path loads defaults only. NOVAQUERY_* variables override both, e.g.
// NOVAQUERY_STORAGE_BATCH_SIZE.
func LoadConfig(path string) (*NovaQueryConfig, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrap(err, "read config")
		}
	}

	var cfg NovaQueryConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "unmarshal config")
	}
	return &cfg, nil
}

// StorageOptions translates the storage and tables sections.
func (c *NovaQueryConfig) StorageOptions() (storage.Options, error) {
	backend, err := storage.GetBackend(c.Storage.Backend)
	if err != nil {
		return storage.Options{}, err
	}

	delim := storage.DefaultDelimiter
	if d := c.Storage.CSV.Delimiter; d != "" {
		r, size := utf8.DecodeRuneInString(d)
		if size != len(d) {
			return storage.Options{}, errors.Newf("config: csv delimiter %q must be a single character", d)
		}
		delim = r
	}

	opts := storage.Options{
		Backend:   backend,
		BatchSize: c.Storage.BatchSize,
		CSV: storage.CSVOptions{
			HasHeader:       c.Storage.CSV.HasHeader,
			Delimiter:       delim,
			InferMaxRecords: c.Storage.CSV.InferMaxRecords,
			BatchSize:       c.Storage.BatchSize,
		},
	}
	for _, t := range c.Tables {
		opts.Tables = append(opts.Tables, storage.TableSpec{Name: t.Name, Path: t.Path})
	}
	return opts, nil
}
