package cli

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/orgchart/pkg/cache"
)

func TestCacheDir(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "")

	dir, err := cacheDir()
	if err != nil {
		t.Fatalf("cacheDir() error: %v", err)
	}

	home, _ := os.UserHomeDir()
	expected := filepath.Join(home, ".cache", appName)
	if dir != expected {
		t.Errorf("cacheDir() = %q, want %q", dir, expected)
	}
}

func TestCacheDirXDG(t *testing.T) {
	customCache := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", customCache)

	dir, err := cacheDir()
	if err != nil {
		t.Fatalf("cacheDir() error: %v", err)
	}

	expected := filepath.Join(customCache, appName)
	if dir != expected {
		t.Errorf("cacheDir() with XDG_CACHE_HOME = %q, want %q", dir, expected)
	}
}

func TestCLICacheDirFromConfig(t *testing.T) {
	c := New(os.Stderr, LogInfo)
	c.Config.Cache.Dir = "/srv/orgchart-cache"

	dir, err := c.cacheDir()
	if err != nil {
		t.Fatal(err)
	}
	if dir != "/srv/orgchart-cache" {
		t.Errorf("cacheDir() = %q, want the configured directory", dir)
	}
}

func TestNewCache(t *testing.T) {
	c := New(os.Stderr, LogInfo)
	c.Config.Cache.Dir = t.TempDir()

	got, err := c.newCache(false)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := got.(*cache.FileCache); !ok {
		t.Errorf("newCache(false) = %T, want *cache.FileCache", got)
	}

	got, _ = c.newCache(true)
	if _, ok := got.(*cache.NullCache); !ok {
		t.Errorf("newCache(true) = %T, want *cache.NullCache", got)
	}

	c.Config.Cache.Disabled = true
	got, _ = c.newCache(false)
	if _, ok := got.(*cache.NullCache); !ok {
		t.Errorf("newCache with cache disabled = %T, want *cache.NullCache", got)
	}
}

func TestCacheClearCommand(t *testing.T) {
	env := newTestEnv(t, nil)

	fc, err := cache.NewFileCache(env.cacheDir)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	for _, key := range []string{"layout:a", "layout:b", "artifact:c"} {
		if err := fc.Set(ctx, key, []byte("{}"), time.Hour); err != nil {
			t.Fatal(err)
		}
	}

	env.run(t, "cache", "clear")

	for _, key := range []string{"layout:a", "layout:b", "artifact:c"} {
		if _, ok, _ := fc.Get(ctx, key); ok {
			t.Errorf("%s still cached after clear", key)
		}
	}

	out := env.run(t, "cache", "path")
	if strings.TrimSpace(out) != env.cacheDir {
		t.Errorf("cache path = %q, want %q", out, env.cacheDir)
	}
}

func TestCacheClearExpired(t *testing.T) {
	env := newTestEnv(t, nil)
	fc, err := cache.NewFileCache(env.cacheDir)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	fc.Set(ctx, "layout:live", []byte("{}"), time.Hour)
	fc.Set(ctx, "layout:dead", []byte("{}"), time.Nanosecond)
	time.Sleep(5 * time.Millisecond)

	env.run(t, "cache", "clear", "--expired")

	if _, ok, _ := fc.Get(ctx, "layout:live"); !ok {
		t.Error("live entry removed by clear --expired")
	}
	if _, ok, _ := fc.Get(ctx, "layout:dead"); ok {
		t.Error("expired entry survived clear --expired")
	}
}
