package util

import (
	"io"
	"log/slog"
)

// CloseLogged closes c and logs a failure instead of returning it. Use it in
// defers on paths whose result is already decided.
func CloseLogged(c io.Closer, what string, attrs ...any) {
	if err := c.Close(); err != nil {
		slog.Warn("close "+what, append(attrs, "err", err)...)
	}
}
