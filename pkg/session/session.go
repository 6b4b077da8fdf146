// Package session stores backend credentials between CLI invocations.
//
// A [Session] holds the bearer token returned by the backend's login
// endpoint. [FileStore] keeps one JSON file per session under
// ~/.config/orgchart/sessions with mode 0600; [CLIStore] wraps it with one
// session per backend URL.
//
// # Usage
//
//	store, err := session.NewCLIStore("", backendURL)
//	sess, err := session.New(token, username, session.DefaultTTL)
//	store.SaveSession(ctx, sess)
//
//	token, err := store.Token(ctx) // UNAUTHORIZED or SESSION_EXPIRED on failure
package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrExpired is returned by [Store.Get] for a session past its TTL.
var ErrExpired = errors.New("expired")

// DefaultTTL is how long a login stays valid locally. The backend may
// reject the token earlier, which surfaces as UNAUTHORIZED.
const DefaultTTL = 12 * time.Hour

// ExpiredGrace is how long an expired session is kept by Cleanup before
// its file is removed.
const ExpiredGrace = 7 * 24 * time.Hour

// Session is a backend login.
type Session struct {
	ID        string    `json:"id"`
	Token     string    `json:"token"`
	Username  string    `json:"username"`
	Backend   string    `json:"backend,omitempty"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// New starts a session for username that lasts ttl.
func New(token, username string, ttl time.Duration) (*Session, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return nil, err
	}
	now := time.Now()
	return &Session{
		ID:        id.String(),
		Token:     token,
		Username:  username,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}, nil
}

func (s *Session) IsExpired() bool { return time.Now().After(s.ExpiresAt) }

// Store persists sessions by ID.
type Store interface {
	// Get returns nil, nil for an unknown ID and nil, ErrExpired for a
	// session past its TTL.
	Get(ctx context.Context, id string) (*Session, error)
	Set(ctx context.Context, sess *Session) error
	Delete(ctx context.Context, id string) error
	// Cleanup removes sessions that expired more than ExpiredGrace ago.
	Cleanup(ctx context.Context) error
}
