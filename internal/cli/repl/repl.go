package repl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// Executor runs one parsed command line.
type Executor func(ctx context.Context, args []string) error

// Config configures a REPL. Zero fields take stdin, stdout and the
// "gridwire> " prompt.
type Config struct {
	In       io.Reader
	Out      io.Writer
	Prompt   string
	Commands []string
	History  *History
	// Filter rewrites a line before it is stored in the history.
	Filter func(line string) string
}

// REPL is the read-eval-print loop.
type REPL struct {
	input     io.Reader
	output    io.Writer
	prompt    string
	exec      Executor
	completer *Completer
	history   *History
	filter    func(string) string
}

// New creates a REPL that runs lines through exec.
func New(exec Executor, cfg Config) *REPL {
	r := &REPL{
		input:     cfg.In,
		output:    cfg.Out,
		prompt:    cfg.Prompt,
		exec:      exec,
		completer: NewCompleter(cfg.Commands),
		history:   cfg.History,
		filter:    cfg.Filter,
	}
	if r.input == nil {
		r.input = os.Stdin
	}
	if r.output == nil {
		r.output = os.Stdout
	}
	if r.prompt == "" {
		r.prompt = "gridwire> "
	}
	if r.history == nil {
		r.history = NewHistory("", DefaultHistorySize)
	}
	return r
}

// Run loops until exit, EOF, or ctx is done. Command errors are printed
// and do not end the loop.
func (r *REPL) Run(ctx context.Context) error {
	scanner := bufio.NewScanner(r.input)
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		fmt.Fprint(r.output, r.prompt)
		if !scanner.Scan() {
			fmt.Fprintln(r.output)
			return scanner.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		switch line {
		case "exit", "quit":
			return nil
		case "history":
			for i, e := range r.history.Entries() {
				fmt.Fprintf(r.output, "%4d  %s\n", i+1, e)
			}
			continue
		}
		if prefix, ok := strings.CutSuffix(line, "?"); ok {
			for _, s := range r.completer.Complete(strings.TrimSpace(prefix)) {
				fmt.Fprintln(r.output, s)
			}
			continue
		}

		if r.filter != nil {
			r.history.Add(r.filter(line))
		} else {
			r.history.Add(line)
		}
		if err := r.execute(ctx, line); err != nil {
			fmt.Fprintf(r.output, "error: %v\n", err)
		}
	}
}

func (r *REPL) execute(ctx context.Context, line string) error {
	args, err := SplitArgs(line)
	if err != nil {
		return err
	}
	return r.exec(ctx, args)
}

// ErrUnterminatedQuote is returned by SplitArgs for an open quote.
var ErrUnterminatedQuote = errors.New("unterminated quote")

// SplitArgs splits a line on whitespace, honoring single and double
// quotes and backslash escapes outside single quotes.
func SplitArgs(line string) ([]string, error) {
	var (
		args    []string
		cur     strings.Builder
		inArg   bool
		quote   rune
		escaped bool
	)
	for _, c := range line {
		switch {
		case escaped:
			cur.WriteRune(c)
			escaped = false
		case c == '\\' && quote != '\'':
			escaped, inArg = true, true
		case quote != 0:
			if c == quote {
				quote = 0
			} else {
				cur.WriteRune(c)
			}
		case c == '"' || c == '\'':
			quote, inArg = c, true
		case c == ' ' || c == '\t':
			if inArg {
				args = append(args, cur.String())
				cur.Reset()
				inArg = false
			}
		default:
			cur.WriteRune(c)
			inArg = true
		}
	}
	if quote != 0 || escaped {
		return nil, ErrUnterminatedQuote
	}
	if inArg {
		args = append(args, cur.String())
	}
	return args, nil
}
