package session

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/matzehuels/orgchart/pkg/cache"
	"github.com/matzehuels/orgchart/pkg/errors"
)

// FileStore keeps each session in its own JSON file, readable only by the
// current user.
type FileStore struct {
	mu  sync.RWMutex
	dir string
}

var _ Store = (*FileStore)(nil)

// NewFileStore opens the session directory dir, creating it if needed.
// An empty dir means ~/.config/orgchart/sessions.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home dir: %w", err)
		}
		dir = filepath.Join(home, ".config", "orgchart", "sessions")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create session dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) sessionPath(id string) string {
	return filepath.Join(s.dir, id+".json")
}

// load reads the session file at path. A missing file yields nil, nil.
func load(path string) (*Session, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read session file: %w", err)
	}
	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("parse session %s: %w", filepath.Base(path), err)
	}
	return &sess, nil
}

// Get reads a session. An expired session file is removed and reported
// as ErrExpired once; later calls see nil, nil.
func (s *FileStore) Get(_ context.Context, id string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	path := s.sessionPath(id)
	sess, err := load(path)
	if err != nil || sess == nil {
		return nil, err
	}
	if sess.IsExpired() {
		os.Remove(path)
		return nil, ErrExpired
	}
	return sess, nil
}

// Set writes sess through a temporary file so a crash never leaves a
// truncated session behind.
func (s *FileStore) Set(_ context.Context, sess *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	tmp, err := os.CreateTemp(s.dir, ".session-*")
	if err != nil {
		return fmt.Errorf("write session file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write session file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.sessionPath(sess.ID)); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}
	return nil
}

func (s *FileStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.sessionPath(id)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove session file: %w", err)
	}
	return nil
}

// Cleanup removes session files that expired more than ExpiredGrace ago.
// A login that lapsed recently stays on disk so its backend still reports
// SESSION_EXPIRED. Files that cannot be read or parsed are left alone.
func (s *FileStore) Cleanup(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	paths, err := filepath.Glob(filepath.Join(s.dir, "*.json"))
	if err != nil {
		return fmt.Errorf("list sessions: %w", err)
	}
	cutoff := time.Now().Add(-ExpiredGrace)
	for _, path := range paths {
		if sess, err := load(path); err == nil && sess != nil && sess.ExpiresAt.Before(cutoff) {
			os.Remove(path)
		}
	}
	return nil
}

// CLIStore keeps one session per backend URL.
type CLIStore struct {
	store     *FileStore
	backend   string
	sessionID string
}

// NewCLIStore creates a store for the backend at backendURL. An empty dir
// uses the default session directory.
func NewCLIStore(dir, backendURL string) (*CLIStore, error) {
	store, err := NewFileStore(dir)
	if err != nil {
		return nil, err
	}
	return &CLIStore{
		store:     store,
		backend:   backendURL,
		sessionID: "backend-" + cache.Hash([]byte(backendURL))[:16],
	}, nil
}

// GetSession retrieves the session for this backend.
func (c *CLIStore) GetSession(ctx context.Context) (*Session, error) {
	return c.store.Get(ctx, c.sessionID)
}

// SaveSession stores sess as the session for this backend and prunes
// logins that lapsed more than ExpiredGrace ago.
func (c *CLIStore) SaveSession(ctx context.Context, sess *Session) error {
	sess.ID = c.sessionID
	sess.Backend = c.backend
	if err := c.store.Set(ctx, sess); err != nil {
		return err
	}
	return c.store.Cleanup(ctx)
}

// DeleteSession removes the session for this backend.
func (c *CLIStore) DeleteSession(ctx context.Context) error {
	return c.store.Delete(ctx, c.sessionID)
}

// Token returns the stored bearer token. It fails with UNAUTHORIZED when
// nobody is logged in and SESSION_EXPIRED when the login has lapsed.
func (c *CLIStore) Token(ctx context.Context) (string, error) {
	sess, err := c.GetSession(ctx)
	switch {
	case err == ErrExpired:
		return "", errors.Wrap(errors.ErrCodeSessionExpired, err, "session for %s expired, run 'orgchart login'", c.backend)
	case err != nil:
		return "", err
	case sess == nil:
		return "", errors.New(errors.ErrCodeUnauthorized, "not logged in to %s, run 'orgchart login'", c.backend)
	}
	return sess.Token, nil
}
