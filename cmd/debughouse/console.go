package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/park285/debughouse/internal/premove"
	"github.com/park285/debughouse/internal/session"
	"github.com/park285/debughouse/pkg/bughousedto"
)

var errQuit = errors.New("quit")

// controller is the part of *session.Session the console drives.
type controller interface {
	Submit(ctx context.Context, board int, tok string) error
	Cancel(ctx context.Context) error
	Chat(ctx context.Context, text string) error
	Signal(ctx context.Context, name string) error
	Signals() []string
	SetUnderPromote(ctx context.Context, v bool) error
	Snapshot(ctx context.Context) (bughousedto.SessionSnapshot, error)
}

type console struct {
	s   controller
	out io.Writer
}

func newConsole(s controller, out io.Writer) *console {
	return &console{s: s, out: out}
}

// Run reads commands line by line until EOF, "quit" or ctx is done.
func (c *console) Run(ctx context.Context, in io.Reader) error {
	sc := bufio.NewScanner(in)
	for sc.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		err := c.exec(ctx, sc.Text())
		if errors.Is(err, errQuit) {
			return nil
		}
		if err != nil {
			fmt.Fprintf(c.out, "error: %v\n", err)
		}
	}
	return sc.Err()
}

func (c *console) exec(ctx context.Context, line string) error {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}
	// raw server command
	if strings.HasPrefix(line, "/") {
		return c.s.Chat(ctx, line)
	}
	parts := strings.Fields(line)
	cmd := strings.ToLower(parts[0])
	args := parts[1:]
	rest := strings.TrimSpace(strings.TrimPrefix(line, parts[0]))

	switch cmd {
	case "help", "?":
		fmt.Fprint(c.out, helpText())
		return nil
	case "quit", "exit":
		return errQuit
	case "m", "move":
		if len(args) != 1 {
			return fmt.Errorf("usage: m <move>")
		}
		return c.submit(ctx, session.UserBoard, args[0])
	case "p", "partner":
		if len(args) != 1 {
			return fmt.Errorf("usage: p <move>")
		}
		return c.submit(ctx, session.PartnerBoard, args[0])
	case "cancel", "c":
		return c.s.Cancel(ctx)
	case "say":
		return c.s.Chat(ctx, rest)
	case "sig", "signal":
		if len(args) != 1 {
			return fmt.Errorf("usage: sig <%s>", strings.Join(c.s.Signals(), "|"))
		}
		return c.s.Signal(ctx, args[0])
	case "underpromote", "up":
		if len(args) != 1 || (args[0] != "on" && args[0] != "off") {
			return fmt.Errorf("usage: underpromote on|off")
		}
		return c.s.SetUnderPromote(ctx, args[0] == "on")
	case "status", "s":
		snap, err := c.s.Snapshot(ctx)
		if err != nil {
			return err
		}
		b, err := json.MarshalIndent(snap, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(c.out, string(b))
		return nil
	}
	// a bare token is a move on the user board
	if len(parts) == 1 {
		return c.submit(ctx, session.UserBoard, parts[0])
	}
	return fmt.Errorf("unknown command %q, try help", cmd)
}

func (c *console) submit(ctx context.Context, board int, tok string) error {
	err := c.s.Submit(ctx, board, tok)
	switch {
	case errors.Is(err, premove.ErrMoveRejected):
		fmt.Fprintf(c.out, "rejected: %s\n", tok)
		return nil
	case errors.Is(err, premove.ErrNotPlaying):
		fmt.Fprintln(c.out, "no game in progress")
		return nil
	}
	return err
}

func helpText() string {
	return strings.Join([]string{
		"debughouse commands:",
		"  <move> | m <move>      move or premove on your board (e2e4, e7e8q, N@f3)",
		"  p <move>               suggest a move for your partner",
		"  cancel                 drop all premoves",
		"  say <text>             chat",
		"  /<command>             raw server command (/seek 5)",
		"  sig <name>             partner signal (sig bq, sig sit)",
		"  underpromote on|off    promote to knight instead of queen",
		"  status                 print both boards as JSON",
		"  quit",
		"",
	}, "\n")
}
