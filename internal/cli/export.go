package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/orgchart/pkg/errors"
	"github.com/matzehuels/orgchart/pkg/export/neo4j"
	"github.com/matzehuels/orgchart/pkg/graph"
)

// exportNeo4jCommand creates the export-neo4j command.
func (c *CLI) exportNeo4jCommand() *cobra.Command {
	var (
		snapshot  string
		chart     string
		clean     bool
		batchSize int
		uri       string
	)

	cmd := &cobra.Command{
		Use:   "export-neo4j [layout.json]",
		Short: "Write a chart into Neo4j",
		Long: `Write a chart into Neo4j as (:Department) nodes joined by [:PARENT_OF].

The chart is read from a layout JSON file (from 'orgchart layout' or
'orgchart fetch') or, with --snapshot, from the local history. Nodes carry
their label, status flags, rank and position, and are scoped by --chart
so several charts can share a database.

Connection settings come from the [neo4j] config section; the password
from ORGCHART_NEO4J_PASSWORD.`,
		Example: `  orgchart export-neo4j orgchart.json --chart q3
  orgchart export-neo4j --snapshot 5f1c2a9e --clean`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			l, err := c.exportSource(ctx, args, snapshot)
			if err != nil {
				return err
			}
			if uri == "" {
				uri = c.Config.Neo4j.URI
			}
			if uri == "" {
				return errors.New(errors.ErrCodeInvalidInput, "no neo4j uri: set neo4j.uri in the config or pass --uri")
			}
			return c.runExportNeo4j(ctx, l, uri, neo4j.ExportOptions{Chart: chart, Clean: clean}, batchSize)
		},
	}

	cmd.Flags().StringVar(&snapshot, "snapshot", "", "export a saved snapshot instead of a file")
	cmd.Flags().StringVar(&chart, "chart", neo4j.DefaultChart, "chart name the nodes are scoped by")
	cmd.Flags().BoolVar(&clean, "clean", false, "delete the chart's existing nodes first")
	cmd.Flags().IntVar(&batchSize, "batch-size", neo4j.DefaultBatchSize, "rows per UNWIND batch")
	cmd.Flags().StringVar(&uri, "uri", "", "neo4j uri (default from config)")

	return cmd
}

// exportSource loads the layout from the file argument or the snapshot.
func (c *CLI) exportSource(ctx context.Context, args []string, snapshot string) (graph.Layout, error) {
	switch {
	case snapshot != "" && len(args) > 0:
		return graph.Layout{}, errors.New(errors.ErrCodeInvalidInput, "give either a layout file or --snapshot, not both")
	case snapshot != "":
		history, err := c.openHistory()
		if err != nil {
			return graph.Layout{}, err
		}
		defer history.Close()
		snap, err := history.Get(ctx, snapshot)
		if err != nil {
			return graph.Layout{}, err
		}
		return snap.Layout, nil
	case len(args) == 1:
		l, err := graph.ReadLayoutFile(args[0])
		if err != nil {
			return graph.Layout{}, fmt.Errorf("load layout %s: %w", args[0], err)
		}
		return l, nil
	default:
		return graph.Layout{}, errors.New(errors.ErrCodeInvalidInput, "no chart given: pass a layout file or --snapshot")
	}
}

func (c *CLI) runExportNeo4j(ctx context.Context, l graph.Layout, uri string, opts neo4j.ExportOptions, batchSize int) error {
	cfg := c.Config.Neo4j
	exporter, err := neo4j.Open(ctx, uri, cfg.Username, cfg.Password, cfg.Database, c.Logger)
	if err != nil {
		return err
	}
	defer exporter.Close(context.WithoutCancel(ctx))
	exporter.SetBatchSize(batchSize)

	spinner := newSpinner(ctx, "Exporting to Neo4j...")
	spinner.Start()
	var stats neo4j.Stats
	if err := spinner.Step("Exporting to Neo4j...", "Export failed", func() (err error) {
		stats, err = exporter.Export(ctx, l, opts)
		return err
	}); err != nil {
		return err
	}
	spinner.Stop()

	printSuccess("Exported chart %q to %s", opts.Chart, uri)
	printDetail("%s · %s · %s",
		plural(stats.Departments, "department"),
		plural(stats.Relationships, "relationship"),
		plural(stats.Batches, "batch"))
	return nil
}
