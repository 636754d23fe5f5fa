package command

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/gridwire-go/internal/cli/config"
	"github.com/yndnr/gridwire-go/internal/cli/connection"
	"github.com/yndnr/gridwire-go/internal/cli/output"
	"github.com/yndnr/gridwire-go/internal/infra/buildinfo"
)

const connMgrKey = "connMgr"

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:    "gridwire-cli",
		Usage:   "gridwire cluster administration tool",
		Version: buildinfo.String(),
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			ClusterCommand(),
			PartitionsCommand(),
			MessagesCommand(),
			MetadataCommand(),
			StatsCommand(),
			SystemCommand(),
			ConnectCommand(),
			ProfileCommand(),
			ConfigCommand(),
			ShellCommand(),
		},
		Before: func(c *cli.Context) error {
			path := c.String("config")
			cfg, err := config.Load(path)
			if err != nil {
				return err
			}
			if c.App.Metadata == nil {
				c.App.Metadata = make(map[string]any)
			}
			c.App.Metadata[connMgrKey] = connection.NewManager(cfg, path)
			return nil
		},
	}
}

// globalFlags returns the flags available to every command.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "server",
			Aliases: []string{"s"},
			Usage:   "admin address of a node, e.g. 127.0.0.1:7080 or https://node:7080",
			EnvVars: []string{"GRIDWIRE_SERVER"},
		},
		&cli.StringFlag{
			Name:    "profile",
			Aliases: []string{"p"},
			Usage:   "saved connection profile",
			EnvVars: []string{"GRIDWIRE_PROFILE"},
		},
		&cli.StringFlag{
			Name:    "token",
			Usage:   "admin bearer token (gwat_...)",
			EnvVars: []string{"GRIDWIRE_TOKEN"},
		},
		&cli.StringFlag{
			Name:  "ca-file",
			Usage: "PEM file with the CA that signed the admin certificate",
		},
		&cli.BoolFlag{
			Name:  "insecure",
			Usage: "skip admin certificate verification",
		},
		&cli.StringFlag{
			Name:  "subject",
			Usage: "security subject id sent with cluster-wide operations",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "output format: table, json, yaml",
		},
		&cli.BoolFlag{
			Name:    "wide",
			Aliases: []string{"w"},
			Usage:   "show additional columns",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"V"},
			Usage:   "print request targets to stderr",
		},
		&cli.DurationFlag{
			Name:  "timeout",
			Usage: "request timeout",
			Value: connection.DefaultTimeout,
		},
		&cli.StringFlag{
			Name:    "config",
			Usage:   "CLI profile file",
			EnvVars: []string{config.PathEnv},
			Value:   config.DefaultConfigPath(),
		},
	}
}

// GlobalFlags holds the parsed global flags.
type GlobalFlags struct {
	Server   string
	Profile  string
	Token    string
	CAFile   string
	Insecure bool
	Subject  string

	Output  string
	Wide    bool
	Verbose bool
	Timeout time.Duration
}

// ParseGlobalFlags extracts the global flags from c. An unset --output
// falls back to the profile file's preference.
func ParseGlobalFlags(c *cli.Context) *GlobalFlags {
	f := &GlobalFlags{
		Server:   c.String("server"),
		Profile:  c.String("profile"),
		Token:    c.String("token"),
		CAFile:   c.String("ca-file"),
		Insecure: c.Bool("insecure"),
		Subject:  c.String("subject"),
		Output:   c.String("output"),
		Wide:     c.Bool("wide"),
		Verbose:  c.Bool("verbose"),
		Timeout:  c.Duration("timeout"),
	}
	if f.Output == "" {
		f.Output = GetConnectionManager(c).Config().Output
	}
	return f
}

// override turns explicit connection flags into a Connection.
func (f *GlobalFlags) override() connection.Connection {
	return connection.Connection{
		Server:   f.Server,
		Token:    f.Token,
		CAFile:   f.CAFile,
		Insecure: f.Insecure,
		Subject:  f.Subject,
	}
}

// GetConnectionManager returns the manager installed by Before, or one
// without saved profiles.
func GetConnectionManager(c *cli.Context) *connection.Manager {
	if mgr, ok := c.App.Metadata[connMgrKey].(*connection.Manager); ok {
		return mgr
	}
	return connection.NewManager(nil, "")
}

// EnsureConnected resolves the target node and returns a client for it.
func EnsureConnected(c *cli.Context) (*connection.Client, error) {
	flags := ParseGlobalFlags(c)
	conn, err := GetConnectionManager(c).Resolve(flags.Profile, flags.override())
	if err != nil {
		return nil, err
	}
	client, err := connection.NewClient(conn, flags.Timeout)
	if err != nil {
		return nil, err
	}
	if flags.Verbose {
		fmt.Fprintf(errWriter(c), "target: %s\n", client.BaseURL())
	}
	return client, nil
}

// requestContext bounds one command's requests by --timeout.
func requestContext(c *cli.Context) (context.Context, context.CancelFunc) {
	parent := c.Context
	if parent == nil {
		parent = context.Background()
	}
	return context.WithTimeout(parent, c.Duration("timeout"))
}

// outputFormat returns the validated --output format.
func outputFormat(c *cli.Context) (output.Format, error) {
	return output.ParseFormat(ParseGlobalFlags(c).Output)
}

// render writes data in the selected format. table, when non-nil,
// replaces data for table output.
func render(c *cli.Context, data any, table *output.Table) error {
	format, err := outputFormat(c)
	if err != nil {
		return err
	}
	if format == output.FormatTable && table != nil {
		return table.Render(writer(c))
	}
	return output.NewFormatter(format, ParseGlobalFlags(c).Wide).Format(writer(c), data)
}

func writer(c *cli.Context) io.Writer {
	if c.App.Writer != nil {
		return c.App.Writer
	}
	return os.Stdout
}

func errWriter(c *cli.Context) io.Writer {
	if c.App.ErrWriter != nil {
		return c.App.ErrWriter
	}
	return os.Stderr
}

// PrintError prints an error message to stderr.
func PrintError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
}
