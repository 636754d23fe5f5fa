package command

import (
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/gridwire-go/internal/cli/output"
)

// StatsCommand returns the cache statistics subcommand group.
func StatsCommand() *cli.Command {
	return &cli.Command{
		Name:    "stats",
		Aliases: []string{"statistics"},
		Usage:   "Cache statistics collection",
		Subcommands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "Show statistics state of every cache on the node",
				Action: statsList,
			},
			{
				Name:      "enable",
				Usage:     "Enable statistics on every node",
				ArgsUsage: "CACHE...",
				Action:    statsOperation("/v1/statistics/enable", "enabling statistics"),
			},
			{
				Name:      "disable",
				Usage:     "Disable statistics on every node",
				ArgsUsage: "CACHE...",
				Action:    statsOperation("/v1/statistics/disable", "disabling statistics"),
			},
			{
				Name:      "clear",
				Usage:     "Clear collected statistics on every node",
				ArgsUsage: "CACHE...",
				Action:    statsOperation("/v1/statistics/clear", "clearing statistics"),
			},
		},
	}
}

func statsList(c *cli.Context) error {
	client, err := EnsureConnected(c)
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	var view statisticsView
	if err := client.Get(ctx, "/v1/statistics", &view); err != nil {
		return err
	}
	return render(c, view.Caches, nil)
}

// statsOperation runs one ring-wide statistics request for the caches
// named on the command line and prints their resulting local state.
func statsOperation(path, verb string) cli.ActionFunc {
	return func(c *cli.Context) error {
		caches := c.Args().Slice()
		if len(caches) == 0 {
			return fmt.Errorf("at least one CACHE is required")
		}
		client, err := EnsureConnected(c)
		if err != nil {
			return err
		}
		ctx, cancel := requestContext(c)
		defer cancel()

		format, err := outputFormat(c)
		if err != nil {
			return err
		}
		var spin *output.Spinner
		if format == output.FormatTable {
			spin = output.NewSpinner(errWriter(c), verb+" for "+strings.Join(caches, ","))
			spin.Start()
		}

		var view statisticsView
		err = client.Post(ctx, path, cachesRequest{Caches: caches}, &view)
		if spin != nil {
			if err != nil {
				spin.Fail(err.Error())
			} else {
				spin.Stop()
			}
		}
		if err != nil {
			return err
		}
		return render(c, view.Caches, nil)
	}
}
