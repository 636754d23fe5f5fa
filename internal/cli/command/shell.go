package command

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/gridwire-go/internal/cli/repl"
	"github.com/yndnr/gridwire-go/internal/telemetry/logger"
)

// ShellCommand starts interactive mode.
func ShellCommand() *cli.Command {
	return &cli.Command{
		Name:  "shell",
		Usage: "Run commands interactively against the selected node",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "no-history",
				Usage: "do not read or write the history file",
			},
		},
		Action: shellAction,
	}
}

func shellAction(c *cli.Context) error {
	app := c.App
	inherited := inheritedFlags(c)

	file := repl.DefaultHistoryFile()
	if c.Bool("no-history") {
		file = ""
	}
	hist := repl.NewHistory(file, repl.DefaultHistorySize)
	if err := hist.Load(); err != nil {
		PrintError("load history: %v", err)
	}

	exec := func(ctx context.Context, args []string) error {
		if len(args) > 0 && args[0] == "shell" {
			return fmt.Errorf("already in interactive mode")
		}
		argv := append([]string{app.Name}, inherited...)
		return app.RunContext(ctx, append(argv, args...))
	}
	r := repl.New(exec, repl.Config{
		In:       app.Reader,
		Out:      writer(c),
		Commands: commandPaths(app.Commands, ""),
		History:  hist,
		Filter:   redactLine,
	})

	ctx := c.Context
	if ctx == nil {
		ctx = context.Background()
	}
	runErr := r.Run(ctx)
	if err := hist.Save(); err != nil {
		PrintError("save history: %v", err)
	}
	return runErr
}

// inheritedFlags re-creates the global flags given to the shell so every
// line runs against the same node.
func inheritedFlags(c *cli.Context) []string {
	var out []string
	for _, f := range globalFlags() {
		name := f.Names()[0]
		if !c.IsSet(name) {
			continue
		}
		switch f.(type) {
		case *cli.BoolFlag:
			if c.Bool(name) {
				out = append(out, "--"+name)
			}
		case *cli.DurationFlag:
			out = append(out, "--"+name+"="+c.Duration(name).String())
		default:
			out = append(out, "--"+name+"="+c.String(name))
		}
	}
	return out
}

// commandPaths lists every command path, e.g. "stats clear".
func commandPaths(cmds []*cli.Command, prefix string) []string {
	var out []string
	for _, cmd := range cmds {
		if cmd.Hidden {
			continue
		}
		path := strings.TrimSpace(prefix + " " + cmd.Name)
		out = append(out, path)
		out = append(out, commandPaths(cmd.Subcommands, path)...)
	}
	return out
}

// redactLine masks --token values before a line reaches the history.
func redactLine(line string) string {
	args, err := repl.SplitArgs(line)
	if err != nil {
		return line
	}
	masked := false
	for i, a := range args {
		switch {
		case i > 0 && args[i-1] == "--token":
			args[i], masked = redactToken(a), true
		case strings.HasPrefix(a, "--token="):
			args[i], masked = "--token="+redactToken(strings.TrimPrefix(a, "--token=")), true
		}
	}
	if !masked {
		return line
	}
	return strings.Join(args, " ")
}

func redactToken(tok string) string {
	if r := logger.RedactString(tok); r != tok {
		return r
	}
	return "***"
}
