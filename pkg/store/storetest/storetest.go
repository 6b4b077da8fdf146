// Package storetest is a conformance suite for store.Store
// implementations.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/matzehuels/orgchart/pkg/errors"
	"github.com/matzehuels/orgchart/pkg/graph"
	"github.com/matzehuels/orgchart/pkg/store"
)

// Layout returns a small positioned chart: one root with two children.
func Layout() graph.Layout {
	l := graph.Layout{
		Box:           graph.DefaultBox,
		HorizontalGap: 50,
		VerticalGap:   80,
		Width:         350,
		Height:        280,
		Nodes: []graph.Node{
			{ID: "1", Label: "Company", Status: graph.Status{Active: true, Approved: true}, Position: graph.Position{X: 100}},
			{ID: "2", ParentID: "1", Label: "Engineering", Status: graph.Status{Active: true}, Rank: 1, Position: graph.Position{Y: 180}},
			{ID: "3", ParentID: "1", Label: "Sales", Status: graph.Status{Deleted: true}, Rank: 1, Position: graph.Position{X: 200, Y: 180}},
		},
		Edges: []graph.Edge{graph.NewEdge("1", "2"), graph.NewEdge("1", "3")},
	}
	l.RebuildRows()
	return l
}

// Run exercises a Store. newStore must return an empty store; Run closes
// it.
func Run(t *testing.T, newStore func(t *testing.T) store.Store) {
	t.Run("SaveGet", func(t *testing.T) {
		s := newStore(t)
		defer s.Close()
		ctx := context.Background()

		snap := store.NewSnapshot("eng", "http://backend", Layout())
		if err := s.Save(ctx, snap); err != nil {
			t.Fatalf("Save: %v", err)
		}

		got, err := s.Get(ctx, snap.ID)
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if got.ID != snap.ID || got.Query != "eng" || got.Backend != "http://backend" || got.NodeCount != 3 {
			t.Errorf("Get = %+v", got)
		}
		if !got.CreatedAt.Equal(snap.CreatedAt) {
			t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, snap.CreatedAt)
		}
		if len(got.Layout.Nodes) != 3 || len(got.Layout.Edges) != 2 {
			t.Fatalf("layout not preserved: %+v", got.Layout)
		}
		n, _ := got.Layout.Node("3")
		if n.Position.X != 200 || n.Position.Y != 180 || !n.Status.Deleted || n.ParentID != "1" {
			t.Errorf("node 3 = %+v", n)
		}
		if ids := got.Layout.Rows[1]; len(ids) != 2 || ids[0] != "2" || ids[1] != "3" {
			t.Errorf("Rows = %v", got.Layout.Rows)
		}
	})

	t.Run("GetMissing", func(t *testing.T) {
		s := newStore(t)
		defer s.Close()

		_, err := s.Get(context.Background(), "does-not-exist")
		if !errors.Is(err, errors.ErrCodeSnapshotNotFound) {
			t.Errorf("Get(missing) = %v, want SNAPSHOT_NOT_FOUND", err)
		}
	})

	t.Run("DuplicateID", func(t *testing.T) {
		s := newStore(t)
		defer s.Close()
		ctx := context.Background()

		snap := store.NewSnapshot("", "", Layout())
		if err := s.Save(ctx, snap); err != nil {
			t.Fatalf("Save: %v", err)
		}
		again := *snap
		if err := s.Save(ctx, &again); !errors.Is(err, errors.ErrCodeDuplicateID) {
			t.Errorf("second Save = %v, want DUPLICATE_ID", err)
		}
	})

	t.Run("ListNewestFirst", func(t *testing.T) {
		s := newStore(t)
		defer s.Close()
		ctx := context.Background()

		base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
		for i, q := range []string{"a", "b", "c"} {
			snap := store.NewSnapshot(q, "", Layout())
			snap.CreatedAt = base.Add(time.Duration(i) * time.Minute)
			if err := s.Save(ctx, snap); err != nil {
				t.Fatalf("Save %s: %v", q, err)
			}
		}

		list, err := s.List(ctx, 0)
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if len(list) != 3 {
			t.Fatalf("List returned %d snapshots, want 3", len(list))
		}
		for i, want := range []string{"c", "b", "a"} {
			if list[i].Query != want {
				t.Errorf("List[%d].Query = %q, want %q", i, list[i].Query, want)
			}
			if len(list[i].Layout.Nodes) != 0 {
				t.Errorf("List[%d] carries a layout", i)
			}
			if list[i].NodeCount != 3 {
				t.Errorf("List[%d].NodeCount = %d", i, list[i].NodeCount)
			}
		}

		limited, err := s.List(ctx, 2)
		if err != nil {
			t.Fatalf("List(2): %v", err)
		}
		if len(limited) != 2 || limited[0].Query != "c" {
			t.Errorf("List(2) = %+v", limited)
		}
	})

	t.Run("EmptyLayout", func(t *testing.T) {
		s := newStore(t)
		defer s.Close()
		ctx := context.Background()

		snap := store.NewSnapshot("nothing", "", graph.Layout{Empty: true, Nodes: []graph.Node{}, Edges: []graph.Edge{}})
		if err := s.Save(ctx, snap); err != nil {
			t.Fatalf("Save: %v", err)
		}
		got, err := s.Get(ctx, snap.ID)
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if !got.Layout.Empty || got.NodeCount != 0 {
			t.Errorf("empty snapshot = %+v", got)
		}
	})
}
