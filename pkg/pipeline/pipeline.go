// Package pipeline runs the fixed orgchart pipeline shared by the CLI and
// the HTTP server:
//
//	hierarchy -> flatten -> layout -> render
//
// A [Runner] adds caching around each stage. Layouts are cached by the hash
// of the flattened graph plus the layout options, so an unchanged hierarchy
// is never laid out twice. Rendered artifacts are cached by the hash of the
// layout they were drawn from.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	res, err := runner.Build(ctx, forest, actions, pipeline.Options{})
//	if err != nil {
//	    return err
//	}
//	artifacts, _, err := runner.Render(ctx, res.Layout, pipeline.Options{
//	    Formats: []string{pipeline.FormatSVG},
//	})
//
// An empty hierarchy is not an error: Build returns a layout with Empty set
// so callers can show a "no results" state.
//
// A [Reloader] wraps any load function and guarantees that only the newest
// of several overlapping reloads delivers a result.
package pipeline

import (
	"io"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/orgchart/pkg/cache"
	"github.com/matzehuels/orgchart/pkg/errors"
	"github.com/matzehuels/orgchart/pkg/graph"
	"github.com/matzehuels/orgchart/pkg/layout"
)

// Format constants for output formats.
const (
	FormatJSON = "json"
	FormatDOT  = "dot"
	FormatSVG  = "svg"
	FormatPNG  = "png"
	FormatPDF  = "pdf"
)

// ValidFormats lists the supported output formats in display order.
var ValidFormats = []string{FormatJSON, FormatDOT, FormatSVG, FormatPNG, FormatPDF}

// PNGScale is the resolution multiplier for PNG output.
const PNGScale = 2.0

// Options configures one pipeline run.
type Options struct {
	// Layout holds the box size and gaps. Zero values take the defaults
	// from [layout.DefaultOptions].
	Layout layout.Options

	// Formats lists the outputs Render produces. Defaults to JSON.
	Formats []string

	// Legend draws the status legend under rendered charts.
	Legend bool

	// Detailed adds ids and status classes to rendered labels.
	Detailed bool

	// Refresh skips cache reads. Fresh results are still written back.
	Refresh bool

	// Logger overrides the runner's logger for this run.
	Logger *log.Logger
}

// Result is the outcome of [Runner.Build].
type Result struct {
	// Layout is the positioned chart. Layout.Empty is set when the
	// hierarchy had no records.
	Layout graph.Layout

	// Crossings is the number of edge crossings in the layout.
	Crossings int

	// GraphHash identifies the flattened graph. It is empty for an empty
	// hierarchy.
	GraphHash string

	// Stats contains sizes and stage timings.
	Stats Stats

	// CacheHit reports whether the layout came from the cache.
	CacheHit bool
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Records     int
	NodeCount   int
	EdgeCount   int
	FlattenTime time.Duration
	LayoutTime  time.Duration
}

// ValidateFormat checks that a format is supported.
func ValidateFormat(format string) error {
	if !slices.Contains(ValidFormats, format) {
		return errors.New(errors.ErrCodeInvalidFormat, "invalid format: %q (must be one of: %s)",
			format, strings.Join(ValidFormats, ", "))
	}
	return nil
}

// ValidateFormats checks that all formats are supported.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// SetDefaults fills in the layout defaults and the default format.
func (o *Options) SetDefaults() {
	def := layout.DefaultOptions()
	if o.Layout.Box == (graph.Box{}) {
		o.Layout.Box = def.Box
	}
	if o.Layout.HorizontalGap == 0 {
		o.Layout.HorizontalGap = def.HorizontalGap
	}
	if o.Layout.VerticalGap == 0 {
		o.Layout.VerticalGap = def.VerticalGap
	}
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatJSON}
	}
	if o.Logger == nil {
		o.Logger = log.New(io.Discard)
	}
}

// Validate sets defaults and checks the layout options and formats.
func (o *Options) Validate() error {
	o.SetDefaults()
	if err := o.Layout.Validate(); err != nil {
		return err
	}
	return ValidateFormats(o.Formats)
}

// LayoutKeyOpts returns cache key options for layout computation.
func (o *Options) LayoutKeyOpts() cache.LayoutKeyOpts {
	return cache.LayoutKeyOpts{
		Width:         o.Layout.Box.Width,
		Height:        o.Layout.Box.Height,
		HorizontalGap: o.Layout.HorizontalGap,
		VerticalGap:   o.Layout.VerticalGap,
	}
}

// ArtifactKeyOpts returns cache key options for one rendered format.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{
		Format:   format,
		Legend:   o.Legend,
		Detailed: o.Detailed,
	}
}
