package pipeline

import (
	"context"
	"time"

	"github.com/matzehuels/orgchart/pkg/cache"
	"github.com/matzehuels/orgchart/pkg/errors"
	"github.com/matzehuels/orgchart/pkg/graph"
	"github.com/matzehuels/orgchart/pkg/observability"
	"github.com/matzehuels/orgchart/pkg/render/nodelink"
)

// Render generates output artifacts in the requested formats.
// It does not touch any cache; see [Runner.Render].
func Render(ctx context.Context, l graph.Layout, opts Options) (map[string][]byte, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	dot := nodelink.ToDOT(l, nodelink.Options{Detailed: opts.Detailed, Legend: opts.Legend})
	artifacts := make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		data, err := renderFormat(ctx, l, dot, format)
		if err != nil {
			return nil, err
		}
		artifacts[format] = data
	}
	return artifacts, nil
}

func renderFormat(ctx context.Context, l graph.Layout, dot, format string) ([]byte, error) {
	hooks := observability.Pipeline()
	hooks.OnRenderStart(ctx, format)
	start := time.Now()

	var data []byte
	var err error
	switch format {
	case FormatJSON:
		data, err = graph.MarshalLayout(l)
	case FormatDOT:
		data = []byte(dot)
	case FormatSVG:
		data, err = nodelink.RenderSVG(dot)
	case FormatPNG:
		data, err = nodelink.RenderPNG(dot, PNGScale)
	case FormatPDF:
		data, err = nodelink.RenderPDF(dot)
	default:
		err = errors.New(errors.ErrCodeInvalidFormat, "unsupported format: %s", format)
	}

	hooks.OnRenderComplete(ctx, format, len(data), time.Since(start), err)
	if err != nil {
		if errors.GetCode(err) != "" {
			return nil, err
		}
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "render %s", format)
	}
	return data, nil
}

// Render generates artifacts with caching. The returned bool reports
// whether every requested format came from the cache.
func (r *Runner) Render(ctx context.Context, l graph.Layout, opts Options) (map[string][]byte, bool, error) {
	r.applyLogger(&opts)
	if err := opts.Validate(); err != nil {
		return nil, false, err
	}

	layoutHash, err := cache.HashJSON(l)
	if err != nil {
		return nil, false, errors.Wrap(errors.ErrCodeInternal, err, "hash layout")
	}

	artifacts := make(map[string][]byte, len(opts.Formats))
	var missing []string
	for _, format := range opts.Formats {
		if !opts.Refresh {
			key := r.Keyer.ArtifactKey(layoutHash, opts.ArtifactKeyOpts(format))
			if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
				observability.Cache().OnCacheHit(ctx, "artifact")
				artifacts[format] = data
				continue
			}
			observability.Cache().OnCacheMiss(ctx, "artifact")
		}
		missing = append(missing, format)
	}
	if len(missing) == 0 {
		return artifacts, true, nil
	}

	sub := opts
	sub.Formats = missing
	rendered, err := Render(ctx, l, sub)
	if err != nil {
		return nil, false, err
	}
	for format, data := range rendered {
		artifacts[format] = data
		key := r.Keyer.ArtifactKey(layoutHash, opts.ArtifactKeyOpts(format))
		if err := r.Cache.Set(ctx, key, data, cache.TTLArtifact); err != nil {
			opts.Logger.Warn("artifact cache write failed", "format", format, "error", err)
			continue
		}
		observability.Cache().OnCacheSet(ctx, "artifact", len(data))
	}

	opts.Logger.Debug("rendered outputs", "formats", missing)
	return artifacts, false, nil
}
