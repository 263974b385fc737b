package cli

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/cloudsketch/pkg/graph"
	"github.com/matzehuels/cloudsketch/pkg/pipeline"
	"github.com/matzehuels/cloudsketch/pkg/render/topology"
)

// inspectCommand prints how each node of a document will be declared.
func (c *CLI) inspectCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect [file]",
		Short: "Show the clusters, node roles and unresolved edges of a document",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := stdinName
			if len(args) == 1 {
				input = args[0]
			}
			data, err := readInput(cmd.InOrStdin(), input)
			if err != nil {
				return err
			}
			doc, err := pipeline.Parse(cmd.Context(), input, data)
			if err != nil {
				return err
			}
			writeInspect(cmd.OutOrStdout(), doc)
			return nil
		},
	}
}

func writeInspect(w io.Writer, doc *graph.Document) {
	top := topology.Resolve(doc)

	fmt.Fprintln(w, StyleTitle.Render(doc.DiagramName))
	fmt.Fprintf(w, "%d nodes · %d edges · %d clusters · %d standalone\n",
		len(doc.Nodes), len(doc.Edges), len(top.Clusters), len(top.Standalone))

	if len(doc.Nodes) > 0 {
		rows := make([][]string, 0, len(doc.Nodes))
		for i := range doc.Nodes {
			n := &doc.Nodes[i]
			rows = append(rows, []string{n.ID, n.Type, n.DisplayLabel(), top.Role(n.ID).String(), n.Cluster, n.Subcluster})
		}
		fmt.Fprintln(w, newTable("ID", "TYPE", "LABEL", "ROLE", "CLUSTER", "SUBCLUSTER").Rows(rows...).String())
	}

	for _, c := range top.Clusters {
		fmt.Fprintf(w, "%s %s (%d)\n", StyleDim.Render(iconArrow), c.Name, c.Size())
		for _, s := range c.Subclusters {
			fmt.Fprintf(w, "    %s %s (%d)\n", StyleDim.Render(iconArrow), s.Name, len(s.Members))
		}
	}

	lookup := doc.Lookup()
	for i := range doc.Edges {
		e := &doc.Edges[i]
		for _, ep := range []graph.Endpoint{e.Source, e.Target} {
			if missing := unresolved(ep, lookup); missing != "" {
				fmt.Fprintln(w, StyleWarning.Render(fmt.Sprintf("%s edges[%d]: %s", iconWarning, i, missing)))
				break
			}
		}
	}
}

// unresolved describes why ep cannot be rendered, or returns "".
func unresolved(ep graph.Endpoint, lookup map[string]*graph.Node) string {
	ids := ep.IDs()
	if ep.IsGroup() && len(ids) == 0 {
		return "empty group endpoint"
	}
	for _, id := range ids {
		if _, ok := lookup[id]; !ok {
			return fmt.Sprintf("unknown node %q", id)
		}
	}
	return ""
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(StyleDim).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return styleTableHeader
			}
			return styleTableCell
		}).
		Headers(headers...)
}
