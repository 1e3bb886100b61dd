package util

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

type closer struct{ err error }

func (c closer) Close() error { return c.err }

func TestCloseLogged(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)
	var buf bytes.Buffer
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))

	CloseLogged(closer{}, "file")
	require.Empty(t, buf.String())

	CloseLogged(closer{err: errors.New("boom")}, "scan", "table", "t")
	require.Contains(t, buf.String(), `msg="close scan"`)
	require.Contains(t, buf.String(), "table=t")
	require.Contains(t, buf.String(), "err=boom")
}
