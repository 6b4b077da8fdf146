package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/matzehuels/orgchart/pkg/buildinfo"
	"github.com/matzehuels/orgchart/pkg/cache"
	"github.com/matzehuels/orgchart/pkg/config"
	"github.com/matzehuels/orgchart/pkg/integrations/departments"
	"github.com/matzehuels/orgchart/pkg/layout"
	"github.com/matzehuels/orgchart/pkg/observability"
	"github.com/matzehuels/orgchart/pkg/pipeline"
	"github.com/matzehuels/orgchart/pkg/session"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "orgchart"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// Config is loaded by the root command before any subcommand runs.
	Config config.Config

	configPath string
	stdout     io.Writer
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Config: config.Default(),
		stdout: os.Stdout,
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	version, _, _ := buildinfo.Resolved()
	root := &cobra.Command{
		Use:   appName,
		Short: "Orgchart lays out department hierarchies as layered charts",
		Long: `Orgchart fetches a department hierarchy from the backend, flattens it into
a forest and lays it out in layers, one row per depth. Charts are written
as layout JSON, Graphviz DOT, SVG, PNG or PDF, browsed in the terminal or
served over HTTP.`,
		Version:      version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			c.stdout = cmd.OutOrStdout()
			return c.loadConfig()
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default: ~/.config/orgchart/config.toml)")

	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.fetchCommand())
	root.AddCommand(c.loginCommand())
	root.AddCommand(c.logoutCommand())
	root.AddCommand(c.whoamiCommand())
	root.AddCommand(c.createCommand())
	root.AddCommand(c.updateCommand())
	root.AddCommand(c.deleteCommand())
	root.AddCommand(c.browseCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.historyCommand())
	root.AddCommand(c.exportNeo4jCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// loadConfig reads the config file and environment and registers the
// logging hooks so pipeline stages show up under --verbose.
func (c *CLI) loadConfig() error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	c.Config = cfg
	observability.NewLogHooks(c.Logger).Register()
	return nil
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(noCache bool) (*pipeline.Runner, error) {
	cache, err := c.newCache(noCache)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(cache, nil, c.Logger), nil
}

// newCache opens the configured cache. Redis wins over the file cache; a
// cache that cannot be opened degrades to no caching.
func (c *CLI) newCache(noCache bool) (cache.Cache, error) {
	if noCache || c.Config.Cache.Disabled {
		return cache.NewNullCache(), nil
	}
	if addr := c.Config.Cache.RedisAddr; addr != "" {
		rc, err := cache.NewRedisCache(context.Background(), addr, c.Config.Cache.Namespace)
		if err != nil {
			c.Logger.Warn("redis unavailable, caching disabled", "addr", addr, "error", err)
			return cache.NewNullCache(), nil
		}
		return rc, nil
	}
	dir, err := c.cacheDir()
	if err != nil {
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// newClient creates a backend client. The token comes from ORGCHART_TOKEN
// or, failing that, the stored login session; requireLogin controls
// whether a missing session is an error.
func (c *CLI) newClient(ctx context.Context, requireLogin bool) (*departments.Client, error) {
	httpCache, err := c.newCache(false)
	if err != nil {
		return nil, err
	}
	client := departments.NewClient(c.Config.BackendURL, c.Config.Token, httpCache, c.Logger)
	if c.Config.Token != "" {
		return client, nil
	}

	sessions, err := c.sessionStore()
	if err != nil {
		return nil, err
	}
	token, err := sessions.Token(ctx)
	if err != nil {
		if requireLogin {
			return nil, err
		}
		c.Logger.Debug("no session, continuing anonymously", "backend", c.Config.BackendURL, "reason", err)
		return client, nil
	}
	client.SetToken(token)
	return client, nil
}

// sessionStore opens the session store for the configured backend.
func (c *CLI) sessionStore() (*session.CLIStore, error) {
	dir, err := config.Dir()
	if err != nil {
		return nil, err
	}
	return session.NewCLIStore(filepath.Join(dir, "sessions"), c.Config.BackendURL)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the configured cache directory, or the XDG default
// (~/.cache/orgchart/).
func (c *CLI) cacheDir() (string, error) {
	if c.Config.Cache.Dir != "" {
		return c.Config.Cache.Dir, nil
	}
	return cacheDir()
}

// cacheDir returns the cache directory using XDG standard (~/.cache/orgchart/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// =============================================================================
// Options Helpers
// =============================================================================

// layoutFlags binds the box and gap flags shared by every command that
// computes a layout. Unset flags keep the configured values.
type layoutFlags struct {
	boxWidth, boxHeight float64
	hGap, vGap          float64

	flags *pflag.FlagSet
}

func (f *layoutFlags) register(cmd *cobra.Command) {
	f.flags = cmd.Flags()
	f.flags.Float64Var(&f.boxWidth, "box-width", 0, "box width (default from config, 150)")
	f.flags.Float64Var(&f.boxHeight, "box-height", 0, "box height (default from config, 100)")
	f.flags.Float64Var(&f.hGap, "hgap", 0, "horizontal gap between siblings (default from config, 50)")
	f.flags.Float64Var(&f.vGap, "vgap", 0, "vertical gap between rows (default from config, 80)")
}

func (f *layoutFlags) changed(name string) bool {
	return f.flags != nil && f.flags.Changed(name)
}

// options overlays the flags on the configured layout options. Invalid
// values pass through and are rejected when the layout is built.
func (f *layoutFlags) options(cfg config.Config) layout.Options {
	opts := cfg.LayoutOptions()
	if f.changed("box-width") {
		opts.Box.Width = f.boxWidth
	}
	if f.changed("box-height") {
		opts.Box.Height = f.boxHeight
	}
	if f.changed("hgap") {
		opts.HorizontalGap = f.hGap
	}
	if f.changed("vgap") {
		opts.VerticalGap = f.vGap
	}
	return opts
}

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return []string{pipeline.FormatJSON}
	}
	parts := strings.Split(s, ",")
	formats := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			formats = append(formats, p)
		}
	}
	return formats
}
