package pipeline

import (
	"context"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/orgchart/pkg/cache"
	"github.com/matzehuels/orgchart/pkg/errors"
	"github.com/matzehuels/orgchart/pkg/graph"
	"github.com/matzehuels/orgchart/pkg/hierarchy"
	"github.com/matzehuels/orgchart/pkg/layout"
)

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"json", false},
		{"dot", false},
		{"svg", false},
		{"png", false},
		{"pdf", false},
		{"invalid", true},
		{"SVG", true}, // case-sensitive
		{"", true},
	}

	for _, tt := range tests {
		err := ValidateFormat(tt.format)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateFormat(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
		}
		if tt.wantErr && !errors.Is(err, errors.ErrCodeInvalidFormat) {
			t.Errorf("ValidateFormat(%q) code = %s, want INVALID_FORMAT", tt.format, errors.GetCode(err))
		}
	}
}

func TestValidateFormats(t *testing.T) {
	if err := ValidateFormats([]string{"svg", "dot"}); err != nil {
		t.Errorf("Valid formats should pass: %v", err)
	}
	if err := ValidateFormats([]string{"svg", "invalid"}); err == nil {
		t.Error("Invalid format should fail")
	}
	// Empty slice is valid
	if err := ValidateFormats(nil); err != nil {
		t.Errorf("Empty formats should pass: %v", err)
	}
}

func TestOptionsSetDefaults(t *testing.T) {
	var o Options
	o.SetDefaults()

	def := layout.DefaultOptions()
	if o.Layout != def {
		t.Errorf("Layout = %+v, want %+v", o.Layout, def)
	}
	if len(o.Formats) != 1 || o.Formats[0] != FormatJSON {
		t.Errorf("Formats = %v, want [json]", o.Formats)
	}
	if o.Logger == nil {
		t.Error("Logger not defaulted")
	}

	o = Options{Layout: layout.Options{Box: graph.Box{Width: 10, Height: 5}, HorizontalGap: 1}}
	o.SetDefaults()
	if o.Layout.Box.Width != 10 || o.Layout.HorizontalGap != 1 || o.Layout.VerticalGap != def.VerticalGap {
		t.Errorf("explicit values overwritten: %+v", o.Layout)
	}
}

func TestLayoutKeyOpts(t *testing.T) {
	a := Options{}
	a.SetDefaults()
	b := a
	b.Layout.HorizontalGap = 10

	k := cache.NewDefaultKeyer()
	if k.LayoutKey("h", a.LayoutKeyOpts()) == k.LayoutKey("h", b.LayoutKeyOpts()) {
		t.Error("gap change should change the layout key")
	}
	if k.ArtifactKey("h", a.ArtifactKeyOpts("svg")) == k.ArtifactKey("h", a.ArtifactKeyOpts("dot")) {
		t.Error("format should change the artifact key")
	}
}

// =============================================================================
// Runner
// =============================================================================

type stubActions struct{ name string }

func (stubActions) OnEdit(context.Context, graph.EditRequest) error         { return nil }
func (stubActions) OnDelete(context.Context, string) error                  { return nil }
func (stubActions) OnAddChild(context.Context, graph.AddChildRequest) error { return nil }

func companyForest() hierarchy.Forest {
	return hierarchy.Forest{{
		ID:         "1",
		Name:       "Company",
		IsActive:   true,
		IsApproved: true,
		Children: []hierarchy.Record{
			{ID: "2", Name: "Engineering", IsActive: true},
			{ID: "3", Name: "Sales", IsActive: true},
		},
	}}
}

func newTestRunner(t *testing.T) *Runner {
	t.Helper()
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	r := NewRunner(c, nil, log.New(&strings.Builder{}))
	t.Cleanup(func() { r.Close() })
	return r
}

func TestRunnerBuild(t *testing.T) {
	r := newTestRunner(t)
	actions := stubActions{"a"}

	res, err := r.Build(context.Background(), companyForest(), actions, Options{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if res.CacheHit {
		t.Error("first build should miss the cache")
	}
	if res.Stats.Records != 3 || res.Stats.NodeCount != 3 || res.Stats.EdgeCount != 2 {
		t.Errorf("Stats = %+v", res.Stats)
	}
	if res.GraphHash == "" {
		t.Error("GraphHash empty")
	}

	l := res.Layout
	if l.Empty {
		t.Error("Layout.Empty set for a non-empty forest")
	}
	want := map[string]graph.Position{
		"1": {X: 100, Y: 0},
		"2": {X: 0, Y: 180},
		"3": {X: 200, Y: 180},
	}
	for _, n := range l.Nodes {
		if n.Position != want[n.ID] {
			t.Errorf("node %s at %+v, want %+v", n.ID, n.Position, want[n.ID])
		}
		if n.Actions != actions {
			t.Errorf("node %s lost its actions", n.ID)
		}
	}
}

func TestRunnerBuild_CacheHit(t *testing.T) {
	r := newTestRunner(t)
	ctx := context.Background()

	first, err := r.Build(ctx, companyForest(), stubActions{"first"}, Options{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	second := stubActions{"second"}
	res, err := r.Build(ctx, companyForest(), second, Options{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if !res.CacheHit {
		t.Fatal("second build should hit the cache")
	}
	if res.GraphHash != first.GraphHash {
		t.Error("same forest produced a different graph hash")
	}
	for i, n := range res.Layout.Nodes {
		if n.Position != first.Layout.Nodes[i].Position {
			t.Errorf("cached node %s at %+v, want %+v", n.ID, n.Position, first.Layout.Nodes[i].Position)
		}
		if n.Actions != second {
			t.Errorf("cached node %s not bound to the caller's actions", n.ID)
		}
	}
	if len(res.Layout.Rows[1]) != 2 {
		t.Errorf("cached Rows = %v", res.Layout.Rows)
	}

	res, err = r.Build(ctx, companyForest(), second, Options{Refresh: true})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if res.CacheHit {
		t.Error("Refresh should bypass the cache")
	}

	res, err = r.Build(ctx, companyForest(), second, Options{Layout: layout.Options{HorizontalGap: 10}})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if res.CacheHit {
		t.Error("different gaps should miss the cache")
	}
}

func TestRunnerBuild_Empty(t *testing.T) {
	r := newTestRunner(t)

	for _, forest := range []hierarchy.Forest{nil, {}} {
		res, err := r.Build(context.Background(), forest, nil, Options{})
		if err != nil {
			t.Fatalf("Build(empty) error = %v, want nil", err)
		}
		if !res.Layout.Empty {
			t.Error("Layout.Empty not set")
		}
		if res.Layout.Nodes == nil || len(res.Layout.Nodes) != 0 {
			t.Errorf("Nodes = %#v, want empty non-nil slice", res.Layout.Nodes)
		}
		if res.GraphHash != "" {
			t.Errorf("GraphHash = %q for empty forest", res.GraphHash)
		}
	}
}

func TestRunnerBuild_Errors(t *testing.T) {
	r := newTestRunner(t)
	ctx := context.Background()

	dup := hierarchy.Forest{
		{ID: "1", Name: "A"},
		{ID: "1", Name: "B"},
	}
	if _, err := r.Build(ctx, dup, nil, Options{}); !errors.Is(err, errors.ErrCodeDuplicateID) {
		t.Errorf("duplicate ids: got %v, want DUPLICATE_ID", err)
	}

	if _, err := r.Build(ctx, companyForest(), nil, Options{Formats: []string{"gif"}}); !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("bad format: got %v, want INVALID_FORMAT", err)
	}

	bad := Options{Layout: layout.Options{HorizontalGap: -1}}
	if _, err := r.Build(ctx, companyForest(), nil, bad); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("negative gap: got %v, want INVALID_INPUT", err)
	}
}

func TestRunnerRender(t *testing.T) {
	r := newTestRunner(t)
	ctx := context.Background()

	res, err := r.Build(ctx, companyForest(), nil, Options{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	opts := Options{Formats: []string{FormatJSON, FormatDOT}, Legend: true}
	artifacts, hit, err := r.Render(ctx, res.Layout, opts)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if hit {
		t.Error("first render should miss the cache")
	}

	parsed, err := graph.UnmarshalLayout(artifacts[FormatJSON])
	if err != nil {
		t.Fatalf("json artifact: %v", err)
	}
	if len(parsed.Nodes) != 3 {
		t.Errorf("json artifact has %d nodes", len(parsed.Nodes))
	}
	if dot := string(artifacts[FormatDOT]); !strings.Contains(dot, "legend-approved") {
		t.Errorf("dot artifact missing legend:\n%s", dot)
	}

	again, hit, err := r.Render(ctx, res.Layout, opts)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !hit {
		t.Error("second render should hit the cache")
	}
	if string(again[FormatDOT]) != string(artifacts[FormatDOT]) {
		t.Error("cached dot differs from rendered dot")
	}
}

func TestRender_SVG(t *testing.T) {
	r := newTestRunner(t)
	ctx := context.Background()

	res, err := r.Build(ctx, companyForest(), nil, Options{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	artifacts, err := Render(ctx, res.Layout, Options{Formats: []string{FormatSVG}})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if svg := string(artifacts[FormatSVG]); !strings.Contains(svg, "<svg") || !strings.Contains(svg, "Engineering") {
		t.Errorf("svg artifact incomplete: %.200s", svg)
	}
}

func TestRunnerDefaultKeyerIsVersioned(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	opts := Options{}
	opts.SetDefaults()

	if key := r.Keyer.LayoutKey("h", opts.LayoutKeyOpts()); !strings.HasPrefix(key, KeySchema) {
		t.Errorf("layout key %q lacks the schema prefix", key)
	}
	if key := r.Keyer.ArtifactKey("h", opts.ArtifactKeyOpts(FormatSVG)); !strings.HasPrefix(key, KeySchema) {
		t.Errorf("artifact key %q lacks the schema prefix", key)
	}
}
