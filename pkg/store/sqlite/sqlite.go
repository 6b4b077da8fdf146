// Package sqlite stores snapshots in a local SQLite database.
//
// The driver is modernc.org/sqlite, a pure-Go port, so the CLI builds
// without cgo. Layouts are stored as JSON.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/matzehuels/orgchart/pkg/graph"
	"github.com/matzehuels/orgchart/pkg/store"
)

// Store is a SQLite-backed store.Store.
type Store struct {
	db *sql.DB
}

var _ store.Store = (*Store)(nil)

// DefaultPath returns ~/.local/share/orgchart/history.db.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".local", "share", "orgchart", "history.db"), nil
}

// Open opens (creating if needed) the database at dbPath.
func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.ensureSchema(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS snapshots (
  id TEXT PRIMARY KEY,
  query TEXT NOT NULL,
  backend TEXT NOT NULL,
  created_at INTEGER NOT NULL,
  node_count INTEGER NOT NULL,
  layout BLOB NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_snapshots_created ON snapshots(created_at DESC);
`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create snapshots table: %w", err)
	}
	return nil
}

// Save inserts snap.
func (s *Store) Save(ctx context.Context, snap *store.Snapshot) error {
	if err := store.Prepare(snap); err != nil {
		return err
	}
	data, err := graph.MarshalLayout(snap.Layout)
	if err != nil {
		return fmt.Errorf("encode layout: %w", err)
	}

	const stmt = `
INSERT INTO snapshots (id, query, backend, created_at, node_count, layout)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO NOTHING;
`
	res, err := s.db.ExecContext(ctx, stmt,
		snap.ID, snap.Query, snap.Backend, snap.CreatedAt.UnixMilli(), snap.NodeCount, data)
	if err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return store.Duplicate(snap.ID)
	}
	return nil
}

// Get loads the snapshot with the given id.
func (s *Store) Get(ctx context.Context, id string) (*store.Snapshot, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT id, query, backend, created_at, node_count, layout
FROM snapshots
WHERE id = ?;
`, id)

	var (
		snap    store.Snapshot
		created int64
		data    []byte
	)
	err := row.Scan(&snap.ID, &snap.Query, &snap.Backend, &created, &snap.NodeCount, &data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.NotFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("get snapshot: %w", err)
	}
	snap.CreatedAt = time.UnixMilli(created).UTC()
	if snap.Layout, err = graph.UnmarshalLayout(data); err != nil {
		return nil, err
	}
	return &snap, nil
}

// List returns up to limit summaries, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]store.Snapshot, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, query, backend, created_at, node_count
FROM snapshots
ORDER BY created_at DESC, rowid DESC
LIMIT ?;
`, store.Limit(limit))
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	out := make([]store.Snapshot, 0)
	for rows.Next() {
		var (
			snap    store.Snapshot
			created int64
		)
		if err := rows.Scan(&snap.ID, &snap.Query, &snap.Backend, &created, &snap.NodeCount); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		snap.CreatedAt = time.UnixMilli(created).UTC()
		out = append(out, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshots: %w", err)
	}
	return out, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
