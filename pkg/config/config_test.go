package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/matzehuels/orgchart/pkg/errors"
	"github.com/matzehuels/orgchart/pkg/layout"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_MissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.BackendURL != "http://localhost:8080" {
		t.Errorf("BackendURL = %q", cfg.BackendURL)
	}
	if cfg.LayoutOptions() != layout.DefaultOptions() {
		t.Errorf("LayoutOptions() = %+v, want defaults", cfg.LayoutOptions())
	}
	if cfg.Server.Listen != DefaultListenAddr {
		t.Errorf("Server.Listen = %q", cfg.Server.Listen)
	}
}

func TestLoad_File(t *testing.T) {
	path := writeFile(t, `
backend_url = "https://hr.example.com"

[layout]
box_width = 180
horizontal_gap = 20

[cache]
redis_addr = "localhost:6379"

[neo4j]
uri = "neo4j://db:7687"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.BackendURL != "https://hr.example.com" {
		t.Errorf("BackendURL = %q", cfg.BackendURL)
	}
	opts := cfg.LayoutOptions()
	if opts.Box.Width != 180 || opts.Box.Height != 100 || opts.HorizontalGap != 20 || opts.VerticalGap != 80 {
		t.Errorf("LayoutOptions() = %+v", opts)
	}
	if cfg.Cache.RedisAddr != "localhost:6379" {
		t.Errorf("Cache.RedisAddr = %q", cfg.Cache.RedisAddr)
	}
	if cfg.Neo4j.URI != "neo4j://db:7687" || cfg.Neo4j.Username != "neo4j" {
		t.Errorf("Neo4j = %+v", cfg.Neo4j)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeFile(t, `backend_url = "https://file.example.com"`)
	t.Setenv(EnvBackendURL, "https://env.example.com")
	t.Setenv(EnvToken, "tok")
	t.Setenv(EnvMongoURI, "mongodb://localhost")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.BackendURL != "https://env.example.com" {
		t.Errorf("BackendURL = %q, want env value", cfg.BackendURL)
	}
	if cfg.Token != "tok" {
		t.Errorf("Token = %q", cfg.Token)
	}
	if cfg.Store.MongoURI != "mongodb://localhost" {
		t.Errorf("Store.MongoURI = %q", cfg.Store.MongoURI)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		code    errors.Code
	}{
		{"malformed", "backend_url = ", errors.ErrCodeInvalidFormat},
		{"bad url", `backend_url = "ftp://x"`, errors.ErrCodeInvalidInput},
		{"negative gap", "[layout]\nvertical_gap = -5", errors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, tt.content))
			if !errors.Is(err, tt.code) {
				t.Errorf("Load() error = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestDir_XDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	dir, err := Dir()
	if err != nil {
		t.Fatal(err)
	}
	if dir != filepath.Join("/tmp/xdg", "orgchart") {
		t.Errorf("Dir() = %q", dir)
	}
	path, _ := DefaultPath()
	if filepath.Base(path) != "config.toml" {
		t.Errorf("DefaultPath() = %q", path)
	}
}

func TestExpandHome(t *testing.T) {
	t.Setenv("HOME", "/home/test")
	if got := expandHome("~/data/h.db"); got != "/home/test/data/h.db" {
		t.Errorf("expandHome = %q", got)
	}
	if got := expandHome("/abs"); got != "/abs" {
		t.Errorf("expandHome(/abs) = %q", got)
	}
}

func TestWriteRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.toml")
	cfg := Default()
	cfg.BackendURL = "https://written.example.com"
	cfg.Layout.HorizontalGap = 12

	if err := Write(cfg, path); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.BackendURL != cfg.BackendURL || got.Layout.HorizontalGap != 12 {
		t.Errorf("round trip = %+v", got)
	}
}
