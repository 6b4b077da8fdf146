package store

import (
	"cmp"
	"context"
	"slices"
	"sync"
)

// Memory is an in-process Store. It is safe for concurrent use.
type Memory struct {
	mu    sync.RWMutex
	byID  map[string]Snapshot
	order []string
}

// NewMemory returns an empty Memory store.
func NewMemory() *Memory {
	return &Memory{byID: make(map[string]Snapshot)}
}

// Save stores a copy of s.
func (m *Memory) Save(_ context.Context, s *Snapshot) error {
	if err := Prepare(s); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[s.ID]; ok {
		return Duplicate(s.ID)
	}
	m.byID[s.ID] = *s
	m.order = append(m.order, s.ID)
	return nil
}

// Get returns the snapshot with the given id.
func (m *Memory) Get(_ context.Context, id string) (*Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.byID[id]
	if !ok {
		return nil, NotFound(id)
	}
	return &s, nil
}

// List returns up to limit summaries, newest first. Snapshots with equal
// timestamps are listed in reverse save order.
func (m *Memory) List(_ context.Context, limit int) ([]Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Snapshot, 0, len(m.order))
	for i := len(m.order) - 1; i >= 0; i-- {
		out = append(out, m.byID[m.order[i]].Summary())
	}
	slices.SortStableFunc(out, func(a, b Snapshot) int {
		return cmp.Compare(b.CreatedAt.UnixNano(), a.CreatedAt.UnixNano())
	})
	return out[:min(len(out), Limit(limit))], nil
}

// Close is a no-op.
func (m *Memory) Close() error { return nil }
