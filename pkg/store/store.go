// Package store keeps a history of rendered org charts.
//
// Every successful fetch can be saved as a [Snapshot]: the search query it
// answered, when it was taken, and the positioned layout. Snapshots are
// immutable once saved.
//
// Implementations:
//   - [Memory]: in-process, for tests and servers without a database
//   - sqlite: a local file, used by the CLI (modernc.org/sqlite, no cgo)
//   - mongo: a shared MongoDB collection, used by the HTTP server
package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/orgchart/pkg/errors"
	"github.com/matzehuels/orgchart/pkg/graph"
)

// DefaultListLimit is the number of snapshots List returns for limit <= 0.
const DefaultListLimit = 20

// Snapshot is one saved chart.
type Snapshot struct {
	ID        string       `json:"id" bson:"_id"`
	Query     string       `json:"query" bson:"query"`
	Backend   string       `json:"backend,omitempty" bson:"backend,omitempty"`
	CreatedAt time.Time    `json:"created_at" bson:"created_at"`
	NodeCount int          `json:"node_count" bson:"node_count"`
	Layout    graph.Layout `json:"layout,omitzero" bson:"layout,omitempty"`
}

// NewSnapshot returns a snapshot of l with a fresh id and the current time.
// An empty query means the whole hierarchy.
func NewSnapshot(query, backend string, l graph.Layout) *Snapshot {
	return &Snapshot{
		ID:        uuid.NewString(),
		Query:     query,
		Backend:   backend,
		CreatedAt: time.Now().UTC().Truncate(time.Millisecond),
		NodeCount: len(l.Nodes),
		Layout:    l,
	}
}

// Summary returns s without its layout.
func (s Snapshot) Summary() Snapshot {
	s.Layout = graph.Layout{}
	return s
}

// Store persists snapshots.
//
// Save fails with DUPLICATE_ID if the id is taken. Get fails with
// SNAPSHOT_NOT_FOUND for an unknown id. List returns summaries (no layout),
// newest first.
type Store interface {
	Save(ctx context.Context, s *Snapshot) error
	Get(ctx context.Context, id string) (*Snapshot, error)
	List(ctx context.Context, limit int) ([]Snapshot, error)
	Close() error
}

// NotFound returns the SNAPSHOT_NOT_FOUND error for id.
func NotFound(id string) error {
	return errors.New(errors.ErrCodeSnapshotNotFound, "snapshot %q not found", id)
}

// Duplicate returns the DUPLICATE_ID error for id.
func Duplicate(id string) error {
	return errors.New(errors.ErrCodeDuplicateID, "snapshot %q already exists", id)
}

// Prepare fills in a missing id and timestamp and checks s before saving.
func Prepare(s *Snapshot) error {
	if s == nil {
		return errors.New(errors.ErrCodeInvalidInput, "nil snapshot")
	}
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	}
	s.NodeCount = len(s.Layout.Nodes)
	return s.Layout.Validate()
}

// Limit normalizes a List limit.
func Limit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	return limit
}
