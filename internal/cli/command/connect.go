package command

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/gridwire-go/internal/cli/config"
	"github.com/yndnr/gridwire-go/internal/cli/connection"
	"github.com/yndnr/gridwire-go/internal/cli/output"
)

// ConnectCommand checks a node and saves it as a profile.
func ConnectCommand() *cli.Command {
	return &cli.Command{
		Name:      "connect",
		Usage:     "Check a node and save it as a named profile",
		ArgsUsage: "NAME",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "no-check",
				Usage: "save without contacting the node",
			},
		},
		Action: connectAction,
	}
}

func connectAction(c *cli.Context) error {
	name := c.Args().First()
	if name == "" {
		return fmt.Errorf("profile NAME is required")
	}
	flags := ParseGlobalFlags(c)
	mgr := GetConnectionManager(c)

	conn := connection.Connection{Server: config.DefaultServer}
	if _, ok := mgr.Config().Profiles[name]; ok {
		var err error
		if conn, err = mgr.Resolve(name, connection.Connection{}); err != nil {
			return err
		}
	}
	conn = conn.With(flags.override())
	conn.Name = name

	if !c.Bool("no-check") {
		client, err := connection.NewClient(conn, flags.Timeout)
		if err != nil {
			return err
		}
		ctx, cancel := requestContext(c)
		defer cancel()
		var h healthView
		if err := client.Get(ctx, "/health", &h); err != nil {
			return fmt.Errorf("connect %s: %w", client.BaseURL(), err)
		}
	}
	if err := mgr.Save(conn); err != nil {
		return err
	}
	fmt.Fprintf(writer(c), "saved profile %q for %s\n", name, conn.Server)
	return nil
}

// ProfileCommand manages saved profiles.
func ProfileCommand() *cli.Command {
	return &cli.Command{
		Name:  "profile",
		Usage: "Saved connection profiles",
		Subcommands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List profiles",
				Action: profileList,
			},
			{
				Name:      "use",
				Usage:     "Make a profile current",
				ArgsUsage: "NAME",
				Action: func(c *cli.Context) error {
					if err := GetConnectionManager(c).Use(c.Args().First()); err != nil {
						return err
					}
					fmt.Fprintf(writer(c), "using profile %q\n", c.Args().First())
					return nil
				},
			},
			{
				Name:      "remove",
				Aliases:   []string{"rm"},
				Usage:     "Delete a profile",
				ArgsUsage: "NAME",
				Action: func(c *cli.Context) error {
					return GetConnectionManager(c).Remove(c.Args().First())
				},
			},
		},
	}
}

type profileRow struct {
	Name    string `json:"name"`
	Server  string `json:"server"`
	TLS     bool   `json:"tls"`
	Token   bool   `json:"token"`
	Subject string `json:"subject,omitempty" table:"wide"`
	Current bool   `json:"current"`
}

func profileList(c *cli.Context) error {
	cfg := GetConnectionManager(c).Config()
	rows := make([]profileRow, 0, len(cfg.Profiles))
	for _, name := range cfg.Names() {
		p := cfg.Profiles[name]
		rows = append(rows, profileRow{
			Name:    name,
			Server:  p.Server,
			TLS:     p.CAFile != "" || p.Insecure,
			Token:   p.Token != "",
			Subject: p.Subject,
			Current: name == cfg.Current,
		})
	}
	format, err := outputFormat(c)
	if err != nil {
		return err
	}
	return output.NewFormatter(format, ParseGlobalFlags(c).Wide).Format(writer(c), rows)
}
