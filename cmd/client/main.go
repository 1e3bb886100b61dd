package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/tuannm99/novaquery/internal/render"
	"github.com/tuannm99/novaquery/internal/repl"
	"github.com/tuannm99/novaquery/sqlclient"
)

func main() {
	var (
		addr       = flag.String("addr", "127.0.0.1:8866", "server address")
		timeout    = flag.Duration("timeout", 3*time.Second, "dial timeout")
		rwTimeout  = flag.Duration("rw-timeout", 0, "per-request timeout, 0 for none")
		histPath   = flag.String("history", repl.DefaultHistoryPath(), "history file path")
		histMax    = flag.Int("history-max", 2000, "max history lines loaded into memory")
		oneShotSQL = flag.String("c", "", "execute one SQL statement and exit")
	)
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer stop()

	cli, err := sqlclient.DialContext(ctx, *addr, *timeout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "dial: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = cli.Close() }()
	cli.SetRWTimeout(*rwTimeout)

	// one-shot mode
	if strings.TrimSpace(*oneShotSQL) != "" {
		res, err := cli.ExecContext(ctx, *oneShotSQL)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			_ = cli.Close()
			os.Exit(1)
		}
		render.Table(os.Stdout, res)
		return
	}

	err = repl.Run(ctx, cli, repl.Config{
		Banner:      "connected to " + *addr,
		HistoryPath: *histPath,
		HistoryMax:  *histMax,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		_ = cli.Close()
		os.Exit(1)
	}
}
