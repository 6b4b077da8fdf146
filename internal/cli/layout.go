package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/orgchart/pkg/hierarchy"
	"github.com/matzehuels/orgchart/pkg/pipeline"
)

// layoutCommand creates the layout command for charting a local hierarchy file.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		noCache bool
		lf      layoutFlags
		rf      renderFlags
	)

	cmd := &cobra.Command{
		Use:   "layout [hierarchy.json|hierarchy.yaml]",
		Short: "Lay out a hierarchy file without contacting the backend",
		Long: `Lay out a department hierarchy read from a local file.

The file holds the same nested records the backend serves, as JSON or YAML:

  [{"id": 1, "name": "HQ", "is_active": true, "is_approved": true,
    "children": [{"id": 2, "name": "Sales"}]}]

The result is written as layout JSON by default (<input>.layout.json). Use -f to
pick other formats: dot, svg, png, pdf.

Layouts are cached locally, keyed by the flattened hierarchy and the box
and gap settings.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := rf.options()
			if err != nil {
				return err
			}
			opts.Layout = lf.options(c.Config)
			return c.runLayout(cmd.Context(), args[0], opts, rf.output, noCache)
		},
	}

	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	lf.register(cmd)
	rf.register(cmd)

	return cmd
}

// runLayout loads the hierarchy, computes the layout, and writes output.
func (c *CLI) runLayout(ctx context.Context, input string, opts pipeline.Options, output string, noCache bool) error {
	forest, err := hierarchy.ReadFile(input)
	if err != nil {
		return fmt.Errorf("load hierarchy %s: %w", input, err)
	}

	runner, err := c.newRunner(noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	prog := newProgress(c.Logger)
	res, err := runner.Build(ctx, forest, nil, opts)
	if err != nil {
		return err
	}
	prog.done("laid out", "nodes", res.Stats.NodeCount, "cached", res.CacheHit)

	base := strings.TrimSuffix(input, filepath.Ext(input)) + ".layout"
	written, err := c.renderAndWrite(ctx, runner, res.Layout, opts, output, base)
	if err != nil {
		return err
	}
	if output == stdoutPath {
		return nil
	}

	printResult("Layout complete", res, written)
	if !slices.Contains(opts.Formats, pipeline.FormatSVG) {
		printNewline()
		printNextStep("Render", fmt.Sprintf("%s layout %s -f svg", appName, input))
	}
	return nil
}
