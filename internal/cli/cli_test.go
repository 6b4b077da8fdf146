package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/matzehuels/orgchart/pkg/config"
	"github.com/matzehuels/orgchart/pkg/errors"
	"github.com/matzehuels/orgchart/pkg/hierarchy"
	"github.com/matzehuels/orgchart/pkg/integrations/departments/departmentstest"
)

const testToken = "tok"

// testEnv isolates a CLI run: config, cache, sessions and history all
// live under temporary directories.
type testEnv struct {
	dir        string
	configPath string
	cacheDir   string
	dbPath     string
	backend    *departmentstest.Server
}

func newTestEnv(t *testing.T, backend *departmentstest.Server) *testEnv {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(dir, "cache"))
	for _, env := range []string{config.EnvBackendURL, config.EnvToken, config.EnvRedisAddr, config.EnvMongoURI, config.EnvNeo4jPassword} {
		t.Setenv(env, "")
	}

	e := &testEnv{
		dir:        dir,
		configPath: filepath.Join(dir, "config.toml"),
		cacheDir:   filepath.Join(dir, "cache", appName),
		dbPath:     filepath.Join(dir, "history.db"),
		backend:    backend,
	}

	backendURL := "http://127.0.0.1:1"
	if backend != nil {
		backendURL = backend.URL
	}
	cfg := fmt.Sprintf("backend_url = %q\n\n[cache]\ndir = %q\n\n[store]\nsqlite_path = %q\n", backendURL, e.cacheDir, e.dbPath)
	if err := os.WriteFile(e.configPath, []byte(cfg), 0o644); err != nil {
		t.Fatal(err)
	}
	return e
}

// withBackend starts a fake backend seeded with forest and authenticates
// through ORGCHART_TOKEN.
func withBackend(t *testing.T, forest hierarchy.Forest) *testEnv {
	t.Helper()
	backend := departmentstest.NewServer(testToken, forest)
	t.Cleanup(backend.Close)
	e := newTestEnv(t, backend)
	t.Setenv(config.EnvToken, testToken)
	return e
}

func (e *testEnv) command(args ...string) (*cobra.Command, *bytes.Buffer) {
	c := New(io.Discard, LogInfo)
	root := c.RootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(append([]string{"--config", e.configPath}, args...))
	return root, &out
}

func (e *testEnv) runErr(args ...string) (string, error) {
	root, out := e.command(args...)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func (e *testEnv) run(t *testing.T, args ...string) string {
	t.Helper()
	out, err := e.runErr(args...)
	if err != nil {
		t.Fatalf("orgchart %s: %v", strings.Join(args, " "), err)
	}
	return out
}

func seedForest() hierarchy.Forest {
	return hierarchy.Forest{{
		ID: "1", Name: "Company", IsActive: true, IsApproved: true,
		Children: []hierarchy.Record{
			{ID: "2", Name: "Engineering", IsActive: true},
			{ID: "3", Name: "Sales", IsActive: true, IsApproved: true},
		},
	}}
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	root := New(io.Discard, LogInfo).RootCommand()

	want := []string{
		"layout", "fetch", "login", "logout", "whoami", "create", "update", "delete",
		"browse", "serve", "history", "export-neo4j", "cache", "config", "completion",
	}
	for _, name := range want {
		cmd, _, err := root.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Errorf("subcommand %q not registered", name)
		}
	}
}

func TestRootCommandVersion(t *testing.T) {
	e := newTestEnv(t, nil)
	out := e.run(t, "--version")
	if !strings.Contains(out, "orgchart version") {
		t.Errorf("version output = %q", out)
	}
}

func TestMalformedConfig(t *testing.T) {
	e := newTestEnv(t, nil)
	if err := os.WriteFile(e.configPath, []byte("backend_url = ["), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := e.runErr("cache", "path")
	if !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("err = %v, want INVALID_FORMAT", err)
	}
}

func TestParseFormats(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"", []string{"json"}},
		{"svg", []string{"svg"}},
		{"json,dot,svg", []string{"json", "dot", "svg"}},
		{" svg , pdf ,", []string{"svg", "pdf"}},
	}

	for _, tt := range tests {
		if got := parseFormats(tt.input); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("parseFormats(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestLayoutFlagsOverlayConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Layout.HorizontalGap = 40

	var lf layoutFlags
	cmd := &cobra.Command{Use: "test"}
	lf.register(cmd)
	if err := cmd.ParseFlags([]string{"--box-width", "200", "--vgap", "30"}); err != nil {
		t.Fatal(err)
	}
	opts := lf.options(cfg)

	if opts.Box.Width != 200 || opts.Box.Height != 100 {
		t.Errorf("box = %+v, want 200x100", opts.Box)
	}
	if opts.HorizontalGap != 40 || opts.VerticalGap != 30 {
		t.Errorf("gaps = %g/%g, want 40/30", opts.HorizontalGap, opts.VerticalGap)
	}
}

func TestLayoutFlagsUnregistered(t *testing.T) {
	var lf layoutFlags
	if got, want := lf.options(config.Default()), config.Default().LayoutOptions(); got != want {
		t.Errorf("options() = %+v, want %+v", got, want)
	}
}

func TestRenderFlagsOptions(t *testing.T) {
	tests := []struct {
		name     string
		flags    renderFlags
		wantCode errors.Code
	}{
		{"defaults", renderFlags{}, ""},
		{"several formats", renderFlags{formats: "json,svg"}, ""},
		{"unknown format", renderFlags{formats: "gif"}, errors.ErrCodeInvalidFormat},
		{"stdout single", renderFlags{formats: "dot", output: "-"}, ""},
		{"stdout several", renderFlags{formats: "dot,svg", output: "-"}, errors.ErrCodeInvalidInput},
		{"bad path", renderFlags{output: "out\x00.json"}, errors.ErrCodeInvalidPath},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.flags.options()
			if got := errors.GetCode(err); got != tt.wantCode {
				t.Errorf("code = %q, want %q (err %v)", got, tt.wantCode, err)
			}
		})
	}
}

func TestOutputPaths(t *testing.T) {
	tests := []struct {
		name    string
		output  string
		formats []string
		want    map[string]string
	}{
		{"default base", "", []string{"json", "svg"}, map[string]string{"json": "chart.json", "svg": "chart.svg"}},
		{"explicit single", "out/org.svg", []string{"svg"}, map[string]string{"svg": "out/org.svg"}},
		{"explicit base", "out/org.json", []string{"json", "dot"}, map[string]string{"json": "out/org.json", "dot": "out/org.dot"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := outputPaths(tt.output, "chart", tt.formats); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("outputPaths() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestConfigCommands(t *testing.T) {
	e := newTestEnv(t, nil)

	out := e.run(t, "config", "path")
	if strings.TrimSpace(out) != e.configPath {
		t.Errorf("config path = %q, want %q", out, e.configPath)
	}

	if _, err := e.runErr("config", "init"); !errors.Is(err, errors.ErrCodeInvalidPath) {
		t.Errorf("config init over an existing file: err = %v, want INVALID_PATH", err)
	}
	e.run(t, "config", "init", "--force")

	cfg, err := config.Load(e.configPath)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.BackendURL != config.Default().BackendURL {
		t.Errorf("backend after init = %q, want the default", cfg.BackendURL)
	}
}

func TestCompletion(t *testing.T) {
	e := newTestEnv(t, nil)
	out := e.run(t, "completion", "bash")
	if !strings.Contains(out, appName) {
		t.Error("bash completion does not mention the command name")
	}
}
