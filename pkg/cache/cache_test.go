package cache

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	data, hit, err := c.Get(ctx, "key")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if hit || data != nil {
		t.Error("NullCache.Get should always return a miss")
	}

	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}
	if _, hit, _ = c.Get(ctx, "key"); hit {
		t.Error("NullCache should not store data")
	}
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
}

func TestFileCache(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(filepath.Join(t.TempDir(), "cache"))
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}

	if _, hit, err := c.Get(ctx, "layout:1"); hit || err != nil {
		t.Fatalf("empty cache Get = %v, %v", hit, err)
	}

	if err := c.Set(ctx, "layout:1", []byte(`{"nodes":[]}`), time.Hour); err != nil {
		t.Fatalf("Set: %v", err)
	}
	data, hit, err := c.Get(ctx, "layout:1")
	if err != nil || !hit {
		t.Fatalf("Get after Set = %v, %v", hit, err)
	}
	if string(data) != `{"nodes":[]}` {
		t.Errorf("data = %s", data)
	}

	if err := c.Delete(ctx, "layout:1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "layout:1"); hit {
		t.Error("entry still present after Delete")
	}
	if err := c.Delete(ctx, "layout:1"); err != nil {
		t.Errorf("Delete of missing key: %v", err)
	}
}

func TestFileCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())

	if err := c.Set(ctx, "k", []byte("v"), time.Nanosecond); err != nil {
		t.Fatalf("Set: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("expired entry returned as hit")
	}
	if _, err := os.Stat(c.path("k")); !os.IsNotExist(err) {
		t.Error("expired entry not removed")
	}

	if err := c.Set(ctx, "forever", []byte("v"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "forever"); !hit {
		t.Error("zero ttl entry should not expire")
	}
}

func TestFileCacheCorruptEntry(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())

	path := c.path("bad")
	os.MkdirAll(filepath.Dir(path), 0755)
	os.WriteFile(path, []byte("not json"), 0644)

	if _, hit, err := c.Get(ctx, "bad"); hit || err != nil {
		t.Errorf("corrupt entry Get = %v, %v, want miss", hit, err)
	}
}

func TestFileCacheClear(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())
	for _, k := range []string{"a", "b", "c"} {
		c.Set(ctx, k, []byte(k), 0)
	}

	n, err := c.Clear()
	if err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if n != 3 {
		t.Errorf("Clear removed %d, want 3", n)
	}
	if _, hit, _ := c.Get(ctx, "a"); hit {
		t.Error("entry survived Clear")
	}
}

func TestHash(t *testing.T) {
	h1 := Hash([]byte("hello"))
	if h1 != Hash([]byte("hello")) {
		t.Error("Hash should be deterministic")
	}
	if h1 == Hash([]byte("world")) {
		t.Error("Different inputs should produce different hashes")
	}
	if len(h1) != 64 {
		t.Errorf("Hash length should be 64, got %d", len(h1))
	}
}

func TestHashJSON(t *testing.T) {
	type node struct {
		ID       string `json:"id"`
		Callback func() `json:"-"`
	}
	a, err := HashJSON(node{ID: "1", Callback: func() {}})
	if err != nil {
		t.Fatalf("HashJSON: %v", err)
	}
	b, _ := HashJSON(node{ID: "1"})
	if a != b {
		t.Error("json:\"-\" fields should not affect the hash")
	}

	if _, err := HashJSON(make(chan int)); err == nil {
		t.Error("HashJSON of a channel should fail")
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()

	if got := k.HTTPKey("hierarchy", "all"); got != "http:hierarchy:all" {
		t.Errorf("HTTPKey = %s", got)
	}

	hk1 := k.HierarchyKey("http://localhost:8080", "")
	hk2 := k.HierarchyKey("http://localhost:8080", "Sales")
	if hk1 == hk2 || !strings.HasPrefix(hk1, "hierarchy:") {
		t.Errorf("HierarchyKey: %s vs %s", hk1, hk2)
	}

	lk1 := k.LayoutKey("hash123", LayoutKeyOpts{Width: 150, Height: 100, HorizontalGap: 50})
	lk2 := k.LayoutKey("hash123", LayoutKeyOpts{Width: 150, Height: 100, HorizontalGap: 60})
	if lk1 == lk2 {
		t.Error("Different LayoutKeyOpts should produce different keys")
	}
	if lk1 != k.LayoutKey("hash123", LayoutKeyOpts{Width: 150, Height: 100, HorizontalGap: 50}) {
		t.Error("LayoutKey should be deterministic")
	}

	ak1 := k.ArtifactKey("hash123", ArtifactKeyOpts{Format: "svg"})
	ak2 := k.ArtifactKey("hash123", ArtifactKeyOpts{Format: "dot"})
	if ak1 == ak2 {
		t.Error("Different ArtifactKeyOpts should produce different keys")
	}
}

func TestScopedKeyer(t *testing.T) {
	scoped := NewScopedKeyer(NewDefaultKeyer(), "prod:")

	if got := scoped.HTTPKey("hierarchy", "all"); got != "prod:http:hierarchy:all" {
		t.Errorf("HTTPKey = %s", got)
	}
	if got := scoped.LayoutKey("h", LayoutKeyOpts{}); !strings.HasPrefix(got, "prod:layout:") {
		t.Errorf("LayoutKey should be prefixed: %s", got)
	}
	if got := scoped.HierarchyKey("b", "q"); !strings.HasPrefix(got, "prod:hierarchy:") {
		t.Errorf("HierarchyKey should be prefixed: %s", got)
	}
}

func TestScopedKeyerNilInner(t *testing.T) {
	scoped := NewScopedKeyer(nil, "prefix:")
	if key := scoped.HTTPKey("test", "key"); key != "prefix:http:test:key" {
		t.Errorf("Unexpected key with nil inner: %s", key)
	}
}

func TestRedisOptions(t *testing.T) {
	opts, err := redisOptions("localhost:6379")
	if err != nil || opts.Addr != "localhost:6379" {
		t.Errorf("host:port = %+v, %v", opts, err)
	}

	opts, err = redisOptions("redis://:secret@cache.internal:6380/2")
	if err != nil {
		t.Fatalf("url: %v", err)
	}
	if opts.Addr != "cache.internal:6380" || opts.DB != 2 || opts.Password != "secret" {
		t.Errorf("url options = %+v", opts)
	}

	if _, err := redisOptions(""); err == nil {
		t.Error("empty address should fail")
	}
}

func TestFileCachePrune(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	c, _ := NewFileCache(dir)
	c.Set(ctx, "live", []byte("v"), time.Hour)
	c.Set(ctx, "dead", []byte("v"), time.Nanosecond)
	time.Sleep(5 * time.Millisecond)

	n, err := c.Prune()
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if n != 1 {
		t.Errorf("Prune removed %d, want 1", n)
	}
	if _, hit, _ := c.Get(ctx, "live"); !hit {
		t.Error("live entry removed by Prune")
	}
}

func TestFileCacheClearRemovesShards(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	c, _ := NewFileCache(dir)
	c.Set(ctx, "a", []byte("a"), 0)

	if _, err := c.Clear(); err != nil {
		t.Fatal(err)
	}
	if entries, _ := os.ReadDir(dir); len(entries) != 0 {
		t.Errorf("cache dir holds %d entries after Clear", len(entries))
	}
}
