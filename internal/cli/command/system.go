package command

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/gridwire-go/internal/cli/connection"
	"github.com/yndnr/gridwire-go/internal/cli/output"
	"github.com/yndnr/gridwire-go/internal/infra/buildinfo"
)

// SystemCommand returns the system subcommand group.
func SystemCommand() *cli.Command {
	return &cli.Command{
		Name:    "system",
		Aliases: []string{"sys"},
		Usage:   "Node liveness and version",
		Subcommands: []*cli.Command{
			{
				Name:   "health",
				Usage:  "Check that the admin API answers",
				Action: systemHealth,
			},
			{
				Name:   "ready",
				Usage:  "Check that the node has joined the ring",
				Action: systemReady,
			},
			{
				Name:   "version",
				Usage:  "Show CLI and node versions",
				Action: systemVersion,
			},
		},
	}
}

func systemHealth(c *cli.Context) error {
	client, err := EnsureConnected(c)
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	var h healthView
	if err := client.Get(ctx, "/health", &h); err != nil {
		return fmt.Errorf("server unhealthy: %w", err)
	}
	format, err := outputFormat(c)
	if err != nil {
		return err
	}
	if format != output.FormatTable {
		return render(c, h, nil)
	}
	fmt.Fprintf(writer(c), "%s is %s (version %s)\n", client.BaseURL(), h.Status, h.Version)
	return nil
}

func systemReady(c *cli.Context) error {
	client, err := EnsureConnected(c)
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	var h healthView
	err = client.Get(ctx, "/ready", &h)
	if connection.IsCode(err, "GW-SYS-5030") {
		return fmt.Errorf("%s has not joined the ring", client.BaseURL())
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(writer(c), "%s is %s\n", client.BaseURL(), h.Status)
	return nil
}

func systemVersion(c *cli.Context) error {
	info := struct {
		CLI  buildinfo.Info `json:"cli"`
		Node string         `json:"node,omitempty"`
	}{CLI: buildinfo.Get()}

	if client, err := EnsureConnected(c); err == nil {
		ctx, cancel := requestContext(c)
		defer cancel()
		var h healthView
		if err := client.Get(ctx, "/health", &h); err == nil {
			info.Node = h.Version
		}
	}

	format, err := outputFormat(c)
	if err != nil {
		return err
	}
	if format != output.FormatTable {
		return render(c, info, nil)
	}
	fmt.Fprintf(writer(c), "cli:  %s\n", info.CLI)
	if info.Node != "" {
		fmt.Fprintf(writer(c), "node: %s\n", info.Node)
	} else {
		fmt.Fprintln(writer(c), "node: unreachable")
	}
	return nil
}
