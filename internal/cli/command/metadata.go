package command

import (
	"fmt"
	"strconv"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/gridwire-go/internal/cli/output"
)

// MetadataCommand returns the binary metadata subcommand group.
func MetadataCommand() *cli.Command {
	return &cli.Command{
		Name:    "metadata",
		Aliases: []string{"meta"},
		Usage:   "Binary type metadata",
		Subcommands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List types known to the node",
				Action: metadataList,
			},
			{
				Name:      "get",
				Usage:     "Show one type",
				ArgsUsage: "TYPE_ID",
				Action:    metadataGet,
			},
			{
				Name:  "register",
				Usage: "Register a type on the target node",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "id", Usage: "type id", Required: true},
					&cli.StringFlag{Name: "name", Usage: "type name", Required: true},
					&cli.StringSliceFlag{Name: "field", Usage: "field name, repeatable"},
					&cli.StringFlag{Name: "affinity-key", Usage: "affinity key field"},
				},
				Action: metadataRegister,
			},
			{
				Name:      "remove",
				Aliases:   []string{"rm"},
				Usage:     "Remove a type from every node (two-phase)",
				ArgsUsage: "TYPE_ID",
				Action:    metadataRemove,
			},
		},
	}
}

func typeIDArg(c *cli.Context) (int32, error) {
	if c.NArg() != 1 {
		return 0, fmt.Errorf("expected exactly one TYPE_ID argument")
	}
	v, err := strconv.ParseInt(c.Args().First(), 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid type id %q", c.Args().First())
	}
	return int32(v), nil
}

func metadataList(c *cli.Context) error {
	client, err := EnsureConnected(c)
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	var types []typeMeta
	if err := client.Get(ctx, "/v1/metadata", &types); err != nil {
		return err
	}
	return render(c, types, nil)
}

func metadataGet(c *cli.Context) error {
	id, err := typeIDArg(c)
	if err != nil {
		return err
	}
	client, err := EnsureConnected(c)
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	var meta typeMeta
	if err := client.Get(ctx, fmt.Sprintf("/v1/metadata/%d", id), &meta); err != nil {
		return err
	}
	return render(c, meta, nil)
}

func metadataRegister(c *cli.Context) error {
	client, err := EnsureConnected(c)
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	req := registerTypeRequest{
		TypeID:      int32(c.Int("id")),
		TypeName:    c.String("name"),
		Fields:      c.StringSlice("field"),
		AffinityKey: c.String("affinity-key"),
	}
	var meta typeMeta
	if err := client.Post(ctx, "/v1/metadata", req, &meta); err != nil {
		return err
	}
	return render(c, meta, nil)
}

// metadataRemove blocks until the ring has discarded the type, or the
// node gives up and reports a timeout.
func metadataRemove(c *cli.Context) error {
	id, err := typeIDArg(c)
	if err != nil {
		return err
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
		spin = output.NewSpinner(errWriter(c), fmt.Sprintf("removing type %d across the ring", id))
		spin.Start()
	}

	var res removeTypeResult
	err = client.Delete(ctx, fmt.Sprintf("/v1/metadata/%d", id), &res)
	if spin != nil {
		if err != nil {
			spin.Fail(err.Error())
			return err
		}
		spin.Success(fmt.Sprintf("type %d removed", id))
		return nil
	}
	if err != nil {
		return err
	}
	return render(c, res, nil)
}
