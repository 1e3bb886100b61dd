package novaquerywire

import (
	"context"
	"io"
	"log/slog"
	"net"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/tuannm99/novaquery/internal/engine"
)

type ServerConfig struct {
	Addr string
	// QueryTimeout bounds each statement; zero means no limit.
	QueryTimeout time.Duration
}

// Server answers ExecuteRequests against one shared Database. Connections are
// served concurrently; requests on one connection run in order.
type Server struct {
	db  *engine.Database
	cfg ServerConfig

	wg sync.WaitGroup
}

func NewServer(db *engine.Database, cfg ServerConfig) *Server {
	return &Server{db: db, cfg: cfg}
}

// Run listens on cfg.Addr until SIGINT or SIGTERM.
func (s *Server) Run() error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return errors.Wrap(err, "listen")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return s.Serve(ctx, ln)
}

// Serve accepts on ln until ctx is done, then closes ln and waits for open
// connections to finish their current request.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	slog.Info("novaquery tcp server listening", "addr", ln.Addr().String())

	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()
	defer s.wg.Wait()

	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			slog.Warn("accept", "err", err)
			continue
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handleConn(ctx, conn)
		}()
	}
}

func (s *Server) handleConn(ctx context.Context, conn net.Conn) {
	defer func() { _ = conn.Close() }()
	remote := conn.RemoteAddr().String()
	slog.Debug("conn open", "remote", remote)
	defer slog.Debug("conn closed", "remote", remote)

	// unblock the pending Read on shutdown
	stop := context.AfterFunc(ctx, func() { _ = conn.SetReadDeadline(time.Now()) })
	defer stop()

	codec := NewCodec(conn)
	for {
		var req ExecuteRequest
		if err := codec.Read(&req); err != nil {
			if errors.Is(err, ErrBadFrame) {
				// the stream cannot be resynchronised; report and hang up
				_ = codec.Write(ExecuteResponse{Error: err.Error()})
			}
			if !errors.Is(err, io.EOF) && ctx.Err() == nil {
				slog.Debug("read frame", "remote", remote, "err", err)
			}
			return
		}

		resp := s.execute(ctx, req)
		if err := codec.Write(resp); err != nil {
			slog.Debug("write frame", "remote", remote, "err", err)
			return
		}
	}
}

func (s *Server) execute(ctx context.Context, req ExecuteRequest) ExecuteResponse {
	resp := ExecuteResponse{ID: req.ID}
	if req.Explain {
		out, err := s.db.Explain(req.SQL)
		if err != nil {
			resp.Error = err.Error()
			return resp
		}
		resp.Plan = out
		return resp
	}

	if s.cfg.QueryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.QueryTimeout)
		defer cancel()
	}
	res, err := s.db.Query(ctx, req.SQL)
	if err != nil {
		resp.Error = err.Error()
		return resp
	}
	resp.Result = res
	return resp
}
