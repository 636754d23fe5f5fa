package command

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"

	"github.com/yndnr/gridwire-go/internal/cli/output"
)

// ClusterCommand shows the discovery ring as seen by the target node.
func ClusterCommand() *cli.Command {
	return &cli.Command{
		Name:   "cluster",
		Usage:  "Show ring order, coordinator and topology version",
		Action: clusterShow,
	}
}

// PartitionsCommand shows the partition assignment.
func PartitionsCommand() *cli.Command {
	return &cli.Command{
		Name:    "partitions",
		Aliases: []string{"parts"},
		Usage:   "Show partition ownership per node",
		Action:  partitionsShow,
	}
}

// MessagesCommand lists the registered wire message types.
func MessagesCommand() *cli.Command {
	return &cli.Command{
		Name:    "messages",
		Aliases: []string{"types"},
		Usage:   "List registered message type codes",
		Action:  messagesList,
	}
}

func clusterShow(c *cli.Context) error {
	client, err := EnsureConnected(c)
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	var view clusterView
	if err := client.Get(ctx, "/v1/cluster", &view); err != nil {
		return err
	}

	table := &output.Table{Headers: []string{"#", "NODE", "ROLE"}}
	for i, id := range view.Nodes {
		table.AddRow(strconv.Itoa(i), id.String(), nodeRole(id, &view))
	}
	format, err := outputFormat(c)
	if err != nil {
		return err
	}
	if format == output.FormatTable {
		fmt.Fprintf(writer(c), "Topology version: %d\nCoordinator:      %s\n\n", view.TopologyVersion, view.Coordinator)
	}
	return render(c, view, table)
}

func nodeRole(id uuid.UUID, view *clusterView) string {
	var roles []string
	if id == view.Coordinator {
		roles = append(roles, "coordinator")
	}
	if id == view.LocalID {
		roles = append(roles, "local")
	}
	if len(roles) == 0 {
		return "-"
	}
	return strings.Join(roles, ",")
}

func partitionsShow(c *cli.Context) error {
	client, err := EnsureConnected(c)
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	wide := ParseGlobalFlags(c).Wide
	path := "/v1/partitions"
	if wide {
		path += "?detail=true"
	}
	var view partitionsView
	if err := client.Get(ctx, path, &view); err != nil {
		return err
	}

	nodes := make([]uuid.UUID, 0, len(view.Counts))
	for id := range view.Counts {
		nodes = append(nodes, id)
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].String() < nodes[j].String() })

	table := &output.Table{Headers: []string{"NODE", "PARTITIONS"}}
	if wide {
		table.Headers = append(table.Headers, "OWNED")
	}
	for _, id := range nodes {
		row := []string{id.String(), strconv.Itoa(view.Counts[id])}
		if wide {
			row = append(row, formatRanges(view.Owned[id]))
		}
		table.AddRow(row...)
	}

	format, err := outputFormat(c)
	if err != nil {
		return err
	}
	if format == output.FormatTable {
		fmt.Fprintf(writer(c), "Partitions: %d  Assignment version: %d\n\n", view.Partitions, view.Version)
	}
	return render(c, view, table)
}

// formatRanges compresses sorted partition ids into ranges: 0-3,7,9-10.
func formatRanges(parts []int32) string {
	if len(parts) == 0 {
		return "-"
	}
	sorted := append([]int32(nil), parts...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	var b strings.Builder
	start, prev := sorted[0], sorted[0]
	flush := func() {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		if start == prev {
			fmt.Fprintf(&b, "%d", start)
		} else {
			fmt.Fprintf(&b, "%d-%d", start, prev)
		}
	}
	for _, p := range sorted[1:] {
		if p == prev+1 {
			prev = p
			continue
		}
		flush()
		start, prev = p, p
	}
	flush()
	return b.String()
}

func messagesList(c *cli.Context) error {
	client, err := EnsureConnected(c)
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	var types []messageType
	if err := client.Get(ctx, "/v1/messages", &types); err != nil {
		return err
	}
	return render(c, types, nil)
}
