package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/orgchart/pkg/errors"
	"github.com/matzehuels/orgchart/pkg/graph"
	"github.com/matzehuels/orgchart/pkg/pipeline"
)

// stdoutPath as --output writes a single format to standard output.
const stdoutPath = "-"

// renderFlags binds the output flags shared by layout, fetch and history.
type renderFlags struct {
	output   string
	formats  string
	legend   bool
	detailed bool
}

func (f *renderFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "output file (single format), base path (several), or - for stdout")
	cmd.Flags().StringVarP(&f.formats, "format", "f", "", "output format(s): json (default), dot, svg, png, pdf (comma-separated)")
	cmd.Flags().BoolVar(&f.legend, "legend", false, "draw the status legend (svg, png, pdf)")
	cmd.Flags().BoolVar(&f.detailed, "detailed", false, "add ids and status to box labels")
}

// options returns pipeline options for the flags, validating the formats.
func (f *renderFlags) options() (pipeline.Options, error) {
	opts := pipeline.Options{
		Formats:  parseFormats(f.formats),
		Legend:   f.legend,
		Detailed: f.detailed,
	}
	if err := pipeline.ValidateFormats(opts.Formats); err != nil {
		return opts, err
	}
	if f.output == stdoutPath && len(opts.Formats) != 1 {
		return opts, errors.New(errors.ErrCodeInvalidInput, "--output - needs exactly one format, got %d", len(opts.Formats))
	}
	if f.output != "" && f.output != stdoutPath {
		if err := errors.ValidateOutputPath(f.output); err != nil {
			return opts, err
		}
	}
	return opts, nil
}

// outputPaths maps each format to its destination. With one format and an
// explicit output the file is written as given; otherwise output (or
// defaultBase) is used as a base name and the format becomes the extension.
func outputPaths(output, defaultBase string, formats []string) map[string]string {
	paths := make(map[string]string, len(formats))
	if output != "" && len(formats) == 1 {
		paths[formats[0]] = output
		return paths
	}

	base := defaultBase
	if output != "" {
		base = strings.TrimSuffix(output, filepath.Ext(output))
	}
	for _, f := range formats {
		paths[f] = base + "." + f
	}
	return paths
}

// renderAndWrite renders l in every requested format and writes the
// artifacts, returning the written paths in format order.
func (c *CLI) renderAndWrite(ctx context.Context, runner *pipeline.Runner, l graph.Layout, opts pipeline.Options, output, defaultBase string) ([]string, error) {
	artifacts, _, err := runner.Render(ctx, l, opts)
	if err != nil {
		return nil, err
	}

	if output == stdoutPath {
		_, err := c.stdout.Write(artifacts[opts.Formats[0]])
		return nil, err
	}

	paths := outputPaths(output, defaultBase, opts.Formats)
	written := make([]string, 0, len(opts.Formats))
	for _, format := range opts.Formats {
		path := paths[format]
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return written, fmt.Errorf("create output dir: %w", err)
			}
		}
		if err := os.WriteFile(path, artifacts[format], 0o644); err != nil {
			return written, fmt.Errorf("write %s: %w", path, err)
		}
		written = append(written, path)
	}
	return written, nil
}

// printResult summarizes a pipeline result and the files it produced.
func printResult(title string, res *pipeline.Result, written []string) {
	if res.Layout.Empty {
		printWarning("%s: no departments", title)
	} else {
		printSuccess("%s", title)
	}
	for _, path := range written {
		printFile(path)
	}
	printStats(res.Stats.NodeCount, len(res.Layout.Rows), res.Crossings, res.CacheHit)
}
