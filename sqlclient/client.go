// Package sqlclient talks to a novaquery server over the framed JSON protocol.
package sqlclient

import (
	"context"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/tuannm99/novaquery/internal/alias/util"
	"github.com/tuannm99/novaquery/internal/sql/executor"
	"github.com/tuannm99/novaquery/server/novaquerywire"
)

var (
	// ErrServer marks errors the server reported for a statement.
	ErrServer = errors.New("sqlclient: server error")
	// ErrBroken is returned once a transport failure left the stream in an
	// unknown state. Dial again.
	ErrBroken = errors.New("sqlclient: connection broken")
)

// Client issues one request at a time; concurrent callers are serialized.
type Client struct {
	conn  net.Conn
	codec *novaquerywire.Codec

	mu     sync.Mutex
	broken error
	id     atomic.Uint64

	rwTimeout time.Duration
}

func Dial(addr string, timeout time.Duration) (*Client, error) {
	return DialContext(context.Background(), addr, timeout)
}

func DialContext(ctx context.Context, addr string, timeout time.Duration) (*Client, error) {
	d := net.Dialer{Timeout: timeout}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, errors.Wrapf(err, "dial %s", addr)
	}
	return &Client{conn: conn, codec: novaquerywire.NewCodec(conn)}, nil
}

// SetRWTimeout bounds each request when the context carries no deadline.
// Zero disables the bound.
func (c *Client) SetRWTimeout(d time.Duration) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.rwTimeout = d
	c.mu.Unlock()
}

func (c *Client) Close() error {
	if c == nil || c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

func (c *Client) Exec(sql string) (*executor.Result, error) {
	return c.ExecContext(context.Background(), sql)
}

func (c *Client) ExecContext(ctx context.Context, sql string) (*executor.Result, error) {
	resp, err := c.roundTrip(ctx, novaquerywire.ExecuteRequest{SQL: sql})
	if err != nil {
		return nil, err
	}
	if resp.Result == nil {
		return &executor.Result{}, nil
	}
	return resp.Result, nil
}

// Explain returns the server's rendering of the optimized plan for sql.
func (c *Client) Explain(ctx context.Context, sql string) (string, error) {
	resp, err := c.roundTrip(ctx, novaquerywire.ExecuteRequest{SQL: sql, Explain: true})
	if err != nil {
		return "", err
	}
	return resp.Plan, nil
}

func (c *Client) roundTrip(ctx context.Context, req novaquerywire.ExecuteRequest) (*novaquerywire.ExecuteResponse, error) {
	if c == nil || c.conn == nil {
		return nil, errors.New("sqlclient: nil client")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.broken != nil {
		return nil, util.WithKind(errors.Wrap(c.broken, "sqlclient"), ErrBroken)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	req.ID = c.id.Add(1)
	resp, err := c.exchange(ctx, req)
	if err != nil {
		c.broken = err
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, errors.WithSecondaryError(ctxErr, err)
		}
		return nil, err
	}
	if resp.ID != req.ID {
		c.broken = errors.Newf("response id mismatch: got=%d want=%d", resp.ID, req.ID)
		return nil, errors.Wrap(c.broken, "sqlclient")
	}
	if resp.Error != "" {
		return nil, util.WithKind(errors.Newf("%s", resp.Error), ErrServer)
	}
	return resp, nil
}

// exchange sends req and reads the reply under the request deadline. A
// cancelled ctx interrupts the pending I/O.
func (c *Client) exchange(ctx context.Context, req novaquerywire.ExecuteRequest) (*novaquerywire.ExecuteResponse, error) {
	if dl, ok := ctx.Deadline(); ok {
		_ = c.conn.SetDeadline(dl)
	} else if c.rwTimeout > 0 {
		_ = c.conn.SetDeadline(time.Now().Add(c.rwTimeout))
	}
	stop := context.AfterFunc(ctx, func() { _ = c.conn.SetDeadline(time.Now()) })
	defer func() {
		stop()
		_ = c.conn.SetDeadline(time.Time{})
	}()

	if err := c.codec.Write(req); err != nil {
		return nil, errors.Wrap(err, "sqlclient: send")
	}
	var resp novaquerywire.ExecuteResponse
	if err := c.codec.Read(&resp); err != nil {
		return nil, errors.Wrap(err, "sqlclient: receive")
	}
	return &resp, nil
}
