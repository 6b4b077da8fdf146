// Package config loads orgchart settings from a TOML file and the
// environment.
//
// Precedence, lowest to highest: built-in defaults, the config file
// ($XDG_CONFIG_HOME/orgchart/config.toml, falling back to
// ~/.config/orgchart/config.toml), environment variables, and finally
// command-line flags applied by the caller.
//
// A missing config file is not an error. Example file:
//
//	backend_url = "https://hr.example.com"
//
//	[layout]
//	box_width = 180
//	box_height = 90
//	horizontal_gap = 40
//	vertical_gap = 60
//
//	[cache]
//	redis_addr = "redis://localhost:6379/0"
//
//	[store]
//	sqlite_path = "~/.local/share/orgchart/history.db"
//
//	[neo4j]
//	uri = "neo4j://localhost:7687"
//	username = "neo4j"
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/orgchart/pkg/errors"
	"github.com/matzehuels/orgchart/pkg/graph"
	"github.com/matzehuels/orgchart/pkg/layout"
)

// Environment variables read by [Load].
const (
	EnvBackendURL    = "ORGCHART_BACKEND_URL"
	EnvToken         = "ORGCHART_TOKEN"
	EnvRedisAddr     = "ORGCHART_REDIS_ADDR"
	EnvMongoURI      = "ORGCHART_MONGO_URI"
	EnvNeo4jPassword = "ORGCHART_NEO4J_PASSWORD"
)

// DefaultListenAddr is the address `orgchart serve` binds by default.
const DefaultListenAddr = ":8090"

// Config is the merged configuration.
type Config struct {
	BackendURL string `toml:"backend_url"`

	// Token is a bearer token that bypasses the stored session. It is only
	// read from the environment.
	Token string `toml:"-"`

	Layout LayoutConfig `toml:"layout"`
	Cache  CacheConfig  `toml:"cache"`
	Store  StoreConfig  `toml:"store"`
	Neo4j  Neo4jConfig  `toml:"neo4j"`
	Server ServerConfig `toml:"server"`
}

// LayoutConfig overrides the layout box and gaps.
type LayoutConfig struct {
	BoxWidth      float64 `toml:"box_width"`
	BoxHeight     float64 `toml:"box_height"`
	HorizontalGap float64 `toml:"horizontal_gap"`
	VerticalGap   float64 `toml:"vertical_gap"`
}

// CacheConfig selects the cache backend. RedisAddr wins over Dir.
type CacheConfig struct {
	Dir       string `toml:"dir"`
	RedisAddr string `toml:"redis_addr"`
	Namespace string `toml:"namespace"`
	Disabled  bool   `toml:"disabled"`
}

// StoreConfig selects the snapshot store. MongoURI wins over SQLitePath.
type StoreConfig struct {
	SQLitePath string `toml:"sqlite_path"`
	MongoURI   string `toml:"mongo_uri"`
	MongoDB    string `toml:"mongo_database"`
}

// Neo4jConfig holds the graph export target.
type Neo4jConfig struct {
	URI      string `toml:"uri"`
	Username string `toml:"username"`
	Password string `toml:"password"`
	Database string `toml:"database"`
}

// ServerConfig configures `orgchart serve`.
type ServerConfig struct {
	Listen string `toml:"listen"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	opts := layout.DefaultOptions()
	return Config{
		BackendURL: "http://localhost:8080",
		Layout: LayoutConfig{
			BoxWidth:      opts.Box.Width,
			BoxHeight:     opts.Box.Height,
			HorizontalGap: opts.HorizontalGap,
			VerticalGap:   opts.VerticalGap,
		},
		Cache:  CacheConfig{Namespace: "orgchart"},
		Store:  StoreConfig{MongoDB: "orgchart"},
		Neo4j:  Neo4jConfig{Username: "neo4j", Database: "neo4j"},
		Server: ServerConfig{Listen: DefaultListenAddr},
	}
}

// Dir returns the orgchart config directory.
func Dir() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "orgchart"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidPath, err, "locate home directory")
	}
	return filepath.Join(home, ".config", "orgchart"), nil
}

// DefaultPath returns the default config file location.
func DefaultPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Load reads the config file at path over the defaults and applies
// environment overrides. An empty path means [DefaultPath]. A missing file
// is ignored; a malformed one fails with INVALID_FORMAT.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return cfg, err
		}
		path = p
	}

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return cfg, errors.Wrap(errors.ErrCodeInvalidPath, err, "read config %s", path)
	default:
		if _, err := toml.Decode(string(data), &cfg); err != nil {
			return cfg, errors.Wrap(errors.ErrCodeInvalidFormat, err, "parse config %s", path)
		}
	}

	cfg.applyEnv()
	cfg.expandPaths()
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvBackendURL); v != "" {
		c.BackendURL = v
	}
	if v := os.Getenv(EnvToken); v != "" {
		c.Token = v
	}
	if v := os.Getenv(EnvRedisAddr); v != "" {
		c.Cache.RedisAddr = v
	}
	if v := os.Getenv(EnvMongoURI); v != "" {
		c.Store.MongoURI = v
	}
	if v := os.Getenv(EnvNeo4jPassword); v != "" {
		c.Neo4j.Password = v
	}
}

func (c *Config) expandPaths() {
	c.Cache.Dir = expandHome(c.Cache.Dir)
	c.Store.SQLitePath = expandHome(c.Store.SQLitePath)
}

func expandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}

// Validate checks the backend URL and the layout settings.
func (c Config) Validate() error {
	if err := errors.ValidateURL(c.BackendURL); err != nil {
		return err
	}
	return c.LayoutOptions().Validate()
}

// LayoutOptions converts the layout section to engine options.
func (c Config) LayoutOptions() layout.Options {
	return layout.Options{
		Box:           graph.Box{Width: c.Layout.BoxWidth, Height: c.Layout.BoxHeight},
		HorizontalGap: c.Layout.HorizontalGap,
		VerticalGap:   c.Layout.VerticalGap,
	}
}

// Write saves c to path in TOML, creating the parent directory.
func Write(c Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "create config directory")
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "create config %s", path)
	}
	defer f.Close()
	if err := toml.NewEncoder(f).Encode(c); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "encode config")
	}
	return nil
}
