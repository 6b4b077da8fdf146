package pipeline

import (
	"context"
	"errors"
	"sync"
)

// ErrSuperseded is returned by [Reloader.Reload] when a newer reload
// started before this one finished. Its result is discarded.
var ErrSuperseded = errors.New("reload superseded by a newer one")

// LoadFunc produces a fresh chart. It must honor ctx cancellation.
type LoadFunc func(ctx context.Context) (*Result, error)

// Reloader serializes chart refreshes so that the newest one wins.
//
// Every call to Reload cancels the run still in flight and bumps a
// generation counter. When a run finishes it only publishes its result if
// its generation is still the current one; otherwise it reports
// ErrSuperseded. Reloader is safe for concurrent use.
type Reloader struct {
	load LoadFunc

	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
	latest *Result
}

// NewReloader returns a Reloader that calls load on every Reload.
func NewReloader(load LoadFunc) *Reloader {
	return &Reloader{load: load}
}

// Reload cancels any in-flight run, runs load and returns its result.
func (r *Reloader) Reload(ctx context.Context) (*Result, error) {
	r.mu.Lock()
	if r.cancel != nil {
		r.cancel()
	}
	r.gen++
	gen := r.gen
	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.mu.Unlock()
	defer cancel()

	res, err := r.load(ctx)

	r.mu.Lock()
	defer r.mu.Unlock()
	if gen != r.gen {
		return nil, ErrSuperseded
	}
	r.cancel = nil
	if err != nil {
		return nil, err
	}
	r.latest = res
	return res, nil
}

// Latest returns the result of the newest successful reload, or nil.
func (r *Reloader) Latest() *Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.latest
}

// Generation returns the number of reloads started so far.
func (r *Reloader) Generation() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.gen
}

// Stop cancels the in-flight run, if any. Its Reload returns ErrSuperseded.
func (r *Reloader) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
	r.gen++
}
