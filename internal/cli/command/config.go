package command

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/gridwire-go/internal/cli/output"
	"github.com/yndnr/gridwire-go/internal/infra/confloader"
	nodeconfig "github.com/yndnr/gridwire-go/internal/server/config"
)

// ConfigCommand works with node configuration files offline.
func ConfigCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Node configuration files",
		Subcommands: []*cli.Command{
			{
				Name:      "check",
				Usage:     "Validate a node configuration file against the defaults",
				ArgsUsage: "FILE",
				Action:    configCheck,
			},
			{
				Name:   "defaults",
				Usage:  "Print the default node configuration",
				Action: configDefaults,
			},
		},
	}
}

// configCheck layers FILE over the defaults exactly as the node does
// (environment excluded) and prints the effective settings.
func configCheck(c *cli.Context) error {
	path := c.Args().First()
	if path == "" {
		return fmt.Errorf("FILE is required")
	}

	l := confloader.NewLoader()
	if err := l.LoadMap(nodeconfig.DefaultMap()); err != nil {
		return err
	}
	if err := l.LoadFile(path); err != nil {
		return err
	}
	var cfg nodeconfig.NodeConfig
	if err := l.Unmarshal(&cfg); err != nil {
		return fmt.Errorf("unmarshal %s: %w", path, err)
	}
	if err := nodeconfig.Verify(&cfg); err != nil {
		return fmt.Errorf("%s is invalid:\n%w", path, err)
	}

	settings := l.All()
	if tok, ok := settings["admin.token"].(string); ok && tok != "" {
		settings["admin.token"] = nodeconfig.Sanitize(&cfg).Admin.Token
	}
	format, err := outputFormat(c)
	if err != nil {
		return err
	}
	if format == output.FormatTable {
		fmt.Fprintf(writer(c), "%s is valid\n\n", path)
	}
	return render(c, settings, nil)
}

func configDefaults(c *cli.Context) error {
	format, err := outputFormat(c)
	if err != nil {
		return err
	}
	if format == output.FormatTable {
		format = output.FormatYAML
	}
	return output.NewFormatter(format, false).Format(writer(c), nodeconfig.DefaultMap())
}
