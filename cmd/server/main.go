package main

import (
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/tuannm99/novaquery/internal"
	"github.com/tuannm99/novaquery/internal/engine"
	"github.com/tuannm99/novaquery/server/novaquerywire"
)

func main() {
	cfgPath := flag.String("config", "", "YAML config file")
	addr := flag.String("addr", "", "listen address (overrides config)")
	timeout := flag.Duration("query-timeout", 30*time.Second, "per-statement timeout, 0 for none")
	flag.Parse()

	cfg, err := internal.LoadConfig(*cfgPath)
	if err != nil {
		slog.Error("load config", "err", err)
		os.Exit(1)
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if cfg.Server.Debug {
		cfg.Log.Level = "debug"
	}
	internal.SetupLogger(cfg.Log, os.Stderr)

	db, err := engine.Open(cfg)
	if err != nil {
		slog.Error("open database", "err", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	srv := novaquerywire.NewServer(db, novaquerywire.ServerConfig{
		Addr:         cfg.Server.Addr,
		QueryTimeout: *timeout,
	})
	if err := srv.Run(); err != nil {
		slog.Error("server", "err", err)
		os.Exit(1)
	}
	slog.Info("shutting down")
}
