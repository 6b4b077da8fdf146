package cache

import (
	"context"
	"time"
)

// NullCache misses on every lookup and drops every write. The CLI selects
// it for --no-cache or cache.disabled, and when the configured
// backend cannot be reached.
type NullCache struct{}

var _ Cache = (*NullCache)(nil)

func NewNullCache() Cache { return &NullCache{} }

func (*NullCache) Get(context.Context, string) ([]byte, bool, error)        { return nil, false, nil }
func (*NullCache) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (*NullCache) Delete(context.Context, string) error                     { return nil }
func (*NullCache) Close() error                                             { return nil }
