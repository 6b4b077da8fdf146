package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/orgchart/pkg/graph"
	"github.com/matzehuels/orgchart/pkg/integrations/departments"
	"github.com/matzehuels/orgchart/pkg/server"
	"github.com/matzehuels/orgchart/pkg/store"
	"github.com/matzehuels/orgchart/pkg/store/mongo"
)

// serveCommand creates the serve command for the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr     string
		readOnly bool
		lf       layoutFlags
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve charts over HTTP",
		Long: `Serve the chart API over HTTP.

Routes:
  GET    /healthz
  GET    /api/chart?name=&save=       layout JSON
  GET    /api/chart.svg?name=&legend=
  POST   /api/departments
  PUT    /api/departments/{id}
  DELETE /api/departments/{id}
  POST   /api/departments/{id}/children
  GET    /api/snapshots
  GET    /api/snapshots/{id}

Layouts are cached in Redis when cache.redis_addr (or ORGCHART_REDIS_ADDR)
is set, otherwise on disk. Snapshots are kept in MongoDB when
store.mongo_uri (or ORGCHART_MONGO_URI) is set, otherwise in memory.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = c.Config.Server.Listen
			}
			return c.runServe(cmd.Context(), addr, readOnly, lf)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8090)")
	cmd.Flags().BoolVar(&readOnly, "read-only", false, "disable the department routes")
	lf.register(cmd)

	return cmd
}

func (c *CLI) runServe(ctx context.Context, addr string, readOnly bool, lf layoutFlags) error {
	client, err := c.newClient(ctx, false)
	if err != nil {
		return err
	}

	runner, err := c.newRunner(false)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	snapshots, err := c.openSnapshotStore(ctx)
	if err != nil {
		return err
	}
	defer snapshots.Close()

	var actions graph.Actions
	if !readOnly {
		actions = departments.NewActions(client, nil)
	}

	srv := server.New(server.Config{
		Source:  client,
		Actions: actions,
		Runner:  runner,
		Store:   snapshots,
		Layout:  lf.options(c.Config),
		Backend: c.Config.BackendURL,
		Logger:  c.Logger,
	})

	printSuccess("Serving on %s", StyleLink.Render(displayAddr(addr)))
	printDetail("Backend %s", c.Config.BackendURL)
	return srv.ListenAndServe(ctx, addr)
}

// openSnapshotStore opens MongoDB when configured and falls back to an
// in-memory store.
func (c *CLI) openSnapshotStore(ctx context.Context) (store.Store, error) {
	if uri := c.Config.Store.MongoURI; uri != "" {
		s, err := mongo.Open(ctx, uri, c.Config.Store.MongoDB)
		if err != nil {
			return nil, fmt.Errorf("open snapshot store: %w", err)
		}
		c.Logger.Info("snapshots in mongodb", "database", c.Config.Store.MongoDB)
		return s, nil
	}
	c.Logger.Info("snapshots in memory, set store.mongo_uri to keep them")
	return store.NewMemory(), nil
}

// displayAddr turns ":8090" into a clickable local URL.
func displayAddr(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "http://localhost" + addr
	}
	return "http://" + addr
}
