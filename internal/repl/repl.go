// Package repl is the interactive SQL prompt shared by the local shell and
// the network client.
package repl

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/chzyer/readline"
	"github.com/cockroachdb/errors"

	"github.com/tuannm99/novaquery/internal/render"
	"github.com/tuannm99/novaquery/internal/sql/executor"
	"github.com/tuannm99/novaquery/internal/sql/parser"
)

const (
	prompt     = "novaquery> "
	contPrompt = "...> "
)

// Session runs statements for the prompt, locally or over the wire.
type Session interface {
	ExecContext(ctx context.Context, sql string) (*executor.Result, error)
	Explain(ctx context.Context, sql string) (string, error)
}

type Config struct {
	Banner      string
	HistoryPath string
	HistoryMax  int
}

const helpText = `meta commands:
  \q | quit | exit       quit
  \history               print history
  \explain <sql>         show the plan for a statement
  \timing                toggle elapsed time after results
  \help                  show help

sql:
  end statement with ';'
  multiline is supported (the prompt waits until ';')`

// REPL holds the state of one prompt. It is driven by Run, or line by line
// through Feed.
type REPL struct {
	sess   Session
	out    io.Writer
	hist   *History
	buf    strings.Builder
	timing bool
}

func New(sess Session, out io.Writer, hist *History) *REPL {
	return &REPL{sess: sess, out: out, hist: hist}
}

// Run reads lines with readline until EOF or a quit command.
func Run(ctx context.Context, sess Session, cfg Config) error {
	h := NewHistory(cfg.HistoryPath)
	_ = h.Load(cfg.HistoryMax)

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          prompt,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return errors.Wrap(err, "readline")
	}
	defer func() { _ = rl.Close() }()

	for _, line := range h.Lines() {
		_ = rl.SaveHistory(line)
	}

	r := New(sess, rl.Stdout(), h)
	if cfg.Banner != "" {
		fmt.Fprintln(r.out, cfg.Banner)
	}
	fmt.Fprintln(r.out, `type \help for help`)

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			// Ctrl+C clears the pending statement
			if r.Pending() {
				r.Reset()
				rl.SetPrompt(prompt)
				continue
			}
			continue
		}
		if err != nil {
			fmt.Fprintln(r.out)
			return nil
		}

		stmt, quit := r.Feed(ctx, line)
		if quit {
			return nil
		}
		if stmt != "" {
			_ = rl.SaveHistory(compactOneLine(stmt))
		}
		if r.Pending() {
			rl.SetPrompt(contPrompt)
		} else {
			rl.SetPrompt(prompt)
		}
	}
}

func (r *REPL) Pending() bool { return r.buf.Len() > 0 }

func (r *REPL) Reset() { r.buf.Reset() }

// Feed consumes one input line. It returns the statement it executed, if
// any, and whether the user asked to quit.
func (r *REPL) Feed(ctx context.Context, line string) (string, bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return "", false
	}

	if !r.Pending() && isMetaCommand(line) {
		return "", r.meta(ctx, line)
	}

	if r.Pending() {
		r.buf.WriteByte(' ')
	}
	r.buf.WriteString(line)
	if !parser.StatementComplete(r.buf.String()) {
		return "", false
	}

	stmt := strings.TrimSpace(r.buf.String())
	r.buf.Reset()
	if r.hist != nil {
		_ = r.hist.Append(stmt)
	}

	start := time.Now()
	res, err := r.sess.ExecContext(ctx, stmt)
	if err != nil {
		fmt.Fprintf(r.out, "error: %v\n", err)
		return stmt, false
	}
	render.Table(r.out, res)
	if r.timing {
		fmt.Fprintf(r.out, "Time: %s\n", time.Since(start).Round(time.Microsecond))
	}
	return stmt, false
}

func isMetaCommand(line string) bool {
	return strings.HasPrefix(line, "\\") || line == "quit" || line == "exit"
}

func (r *REPL) meta(ctx context.Context, line string) bool {
	cmd, arg, _ := strings.Cut(line, " ")
	switch cmd {
	case "\\q", "quit", "exit":
		return true
	case "\\help":
		fmt.Fprintln(r.out, helpText)
	case "\\history":
		if r.hist != nil {
			r.hist.Print(r.out, 50)
		}
	case "\\timing":
		r.timing = !r.timing
		state := "off"
		if r.timing {
			state = "on"
		}
		fmt.Fprintf(r.out, "Timing is %s.\n", state)
	case "\\explain":
		if strings.TrimSpace(arg) == "" {
			fmt.Fprintln(r.out, `usage: \explain <sql>`)
			return false
		}
		out, err := r.sess.Explain(ctx, arg)
		if err != nil {
			fmt.Fprintf(r.out, "error: %v\n", err)
			return false
		}
		fmt.Fprint(r.out, out)
	default:
		fmt.Fprintf(r.out, "unknown command: %s\n", line)
	}
	return false
}
