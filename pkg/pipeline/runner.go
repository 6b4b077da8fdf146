package pipeline

import (
	"context"
	"encoding/json"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/orgchart/pkg/cache"
	"github.com/matzehuels/orgchart/pkg/errors"
	"github.com/matzehuels/orgchart/pkg/graph"
	"github.com/matzehuels/orgchart/pkg/hierarchy"
	"github.com/matzehuels/orgchart/pkg/layout"
	"github.com/matzehuels/orgchart/pkg/observability"
)

// Runner encapsulates pipeline execution with caching.
// The CLI, the TUI and the HTTP server all go through a Runner.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// KeySchema prefixes the layout and artifact keys of runners built with
// the default keyer. Change it whenever placement or rendering output
// changes, so entries written by older builds are never served.
const KeySchema = "chart/v1:"

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, the default keyer scoped to [KeySchema] is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewScopedKeyer(cache.NewDefaultKeyer(), KeySchema)
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// cachedLayout is the cache entry for one layout.
type cachedLayout struct {
	Layout    graph.Layout `json:"layout"`
	Crossings int          `json:"crossings"`
}

// Build flattens forest and lays it out.
//
// actions is attached to every node, including nodes of a cached layout.
// An empty forest yields a Result whose Layout has Empty set and a nil
// error. Duplicate ids and malformed records fail with the coded error from
// [hierarchy.Flatten].
func (r *Runner) Build(ctx context.Context, forest hierarchy.Forest, actions graph.Actions, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	hooks := observability.Pipeline()
	res := &Result{}

	records, _ := forest.Count()
	res.Stats.Records = records
	hooks.OnFlattenStart(ctx, records)
	start := time.Now()
	nodes, edges, err := hierarchy.Flatten(forest, actions)
	res.Stats.FlattenTime = time.Since(start)
	if errors.IsSoft(err) {
		hooks.OnFlattenComplete(ctx, 0, 0, res.Stats.FlattenTime, nil)
		opts.Logger.Debug("empty hierarchy")
		return r.empty(res, opts)
	}
	hooks.OnFlattenComplete(ctx, len(nodes), len(edges), res.Stats.FlattenTime, err)
	if err != nil {
		return nil, err
	}
	res.Stats.NodeCount = len(nodes)
	res.Stats.EdgeCount = len(edges)

	res.GraphHash, err = cache.HashJSON(struct {
		Nodes []graph.Node `json:"nodes"`
		Edges []graph.Edge `json:"edges"`
	}{nodes, edges})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "hash graph")
	}
	key := r.Keyer.LayoutKey(res.GraphHash, opts.LayoutKeyOpts())

	if !opts.Refresh {
		if cached, ok := r.loadLayout(ctx, key); ok {
			attach(cached.Layout.Nodes, actions)
			res.Layout = cached.Layout
			res.Crossings = cached.Crossings
			res.CacheHit = true
			opts.Logger.Debug("layout cache hit", "nodes", len(nodes), "hash", res.GraphHash[:12])
			return res, nil
		}
	}

	hooks.OnLayoutStart(ctx, len(nodes))
	start = time.Now()
	lr, err := layout.Layout(nodes, edges, opts.Layout)
	res.Stats.LayoutTime = time.Since(start)
	hooks.OnLayoutComplete(ctx, len(nodes), res.Stats.LayoutTime, err)
	if err != nil {
		return nil, err
	}
	res.Layout = lr.Layout
	res.Crossings = lr.Crossings

	r.storeLayout(ctx, key, cachedLayout{Layout: lr.Layout, Crossings: lr.Crossings})

	opts.Logger.Debug("computed layout",
		"nodes", len(nodes),
		"edges", len(edges),
		"rows", len(lr.Layout.Rows),
		"duration", res.Stats.LayoutTime)

	return res, nil
}

// empty fills res with the layout of an empty hierarchy.
func (r *Runner) empty(res *Result, opts Options) (*Result, error) {
	lr, err := layout.Layout(nil, nil, opts.Layout)
	if err != nil {
		return nil, err
	}
	res.Layout = lr.Layout
	return res, nil
}

func (r *Runner) loadLayout(ctx context.Context, key string) (cachedLayout, bool) {
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil {
		r.Logger.Warn("layout cache read failed", "error", err)
	}
	if err != nil || !hit {
		observability.Cache().OnCacheMiss(ctx, "layout")
		return cachedLayout{}, false
	}
	var c cachedLayout
	if err := json.Unmarshal(data, &c); err != nil {
		observability.Cache().OnCacheMiss(ctx, "layout")
		return cachedLayout{}, false
	}
	observability.Cache().OnCacheHit(ctx, "layout")
	return c, true
}

func (r *Runner) storeLayout(ctx context.Context, key string, c cachedLayout) {
	data, err := json.Marshal(c)
	if err != nil {
		return
	}
	if err := r.Cache.Set(ctx, key, data, cache.TTLLayout); err != nil {
		r.Logger.Warn("layout cache write failed", "error", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, "layout", len(data))
}

// attach sets actions on every node.
func attach(nodes []graph.Node, actions graph.Actions) {
	for i := range nodes {
		nodes[i].Actions = actions
	}
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
