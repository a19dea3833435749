package shell

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/kafka-ops/trifecta/codec"
	"github.com/kafka-ops/trifecta/query"
	"github.com/kafka-ops/trifecta/zk"
)

// REPL is the interactive driver: read a line, classify it as an OS
// command, a select query, or a tokenized command, run it, and print a
// classification-specific message on failure.
type REPL struct {
	ctx     *Context
	planner *query.Planner
	out     io.Writer
	in      *bufio.Scanner
}

func NewREPL(ctx *Context, planner *query.Planner, in io.Reader, out io.Writer) *REPL {
	return &REPL{ctx: ctx, planner: planner, out: out, in: bufio.NewScanner(in)}
}

// Run reads lines until EOF, interpreting each one. It never returns an
// error for a failed command — failures are printed and the loop continues
// — but returns the underlying scanner error, if any, on exit.
func (r *REPL) Run(ctx context.Context) error {
	for {
		fmt.Fprint(r.out, r.ctx.Prompt())
		if !r.in.Scan() {
			break
		}
		line := strings.TrimSpace(r.in.Text())
		if line == "" {
			continue
		}
		r.interpret(ctx, line)
	}
	return r.in.Err()
}

func (r *REPL) interpret(ctx context.Context, line string) {
	if strings.HasPrefix(line, "`") && strings.HasSuffix(line, "`") && len(line) >= 2 {
		out, err := runShellCommand(ctx, line[1:len(line)-1])
		if err != nil {
			r.printError(err)
			return
		}
		fmt.Fprintln(r.out, out)
		return
	}

	result, err := r.InterpretCommandLine(ctx, line)
	if err != nil {
		r.printError(err)
		return
	}
	fmt.Fprintln(r.out, result)
}

// InterpretCommandLine interprets one already-read line: a leading "select"
// dispatches to the query planner; otherwise the line is tokenized,
// assembled against the registered command's schema, executed, and — on
// success — may auto-switch the active module.
func (r *REPL) InterpretCommandLine(ctx context.Context, line string) (interface{}, error) {
	if isSelectStatement(line) {
		q, err := query.Parse(line)
		if err != nil {
			return nil, err
		}
		return r.planner.Run(ctx, q, "")
	}

	tokens, err := Tokenize(line)
	if err != nil {
		return nil, err
	}
	if len(tokens) == 0 {
		return nil, nil
	}

	name := tokens[0].Text
	cmd, ok := r.ctx.Lookup(name)
	if !ok {
		return nil, invalidArgs(name, "unknown command")
	}

	args, err := cmd.Assemble(tokens[1:])
	if err != nil {
		return nil, err
	}

	result, err := cmd.Handler(ctx, r.ctx, args)
	if err != nil {
		return nil, err
	}
	r.ctx.MaybeAutoSwitch(cmd)
	return result, nil
}

func isSelectStatement(line string) bool {
	fields := strings.Fields(line)
	return len(fields) > 0 && strings.EqualFold(fields[0], "select")
}

func runShellCommand(ctx context.Context, command string) (string, error) {
	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("shell command failed: %w", err)
	}
	return strings.TrimRight(string(out), "\n"), nil
}

func (r *REPL) printError(err error) {
	var zkErr *zk.Error
	var shellErr *Error
	var queryErr *query.Error
	var codecErr *codec.Error
	switch {
	case errors.As(err, &zkErr) && zkErr.Kind == zk.ErrKindConnectionLost:
		fmt.Fprintf(r.out, "Connection lost to ZooKeeper: %v (try 'zreconnect')\n", err)
	case errors.As(err, &shellErr) && shellErr.Kind == ErrKindInvalidArgs:
		fmt.Fprintf(r.out, "Syntax error: %v\n", err)
	case errors.As(err, &queryErr):
		fmt.Fprintf(r.out, "Syntax error: %v\n", err)
	case errors.As(err, &codecErr):
		fmt.Fprintf(r.out, "Syntax error: %v\n", err)
	default:
		fmt.Fprintf(r.out, "Runtime error: %v\n", err)
		if r.ctx.Config.REPL.DebugOn {
			fmt.Fprintf(r.out, "%+v\n", err)
		}
	}
}
