package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/orgchart/pkg/errors"
	"github.com/matzehuels/orgchart/pkg/hierarchy"
	"github.com/matzehuels/orgchart/pkg/pipeline"
	"github.com/matzehuels/orgchart/pkg/store"
	"github.com/matzehuels/orgchart/pkg/store/sqlite"
)

// fetchCommand creates the fetch command, which charts the backend hierarchy.
func (c *CLI) fetchCommand() *cobra.Command {
	var (
		search  string
		noSave  bool
		refresh bool
		lf      layoutFlags
		rf      renderFlags
	)

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch the hierarchy from the backend and lay it out",
		Long: `Fetch the department hierarchy from the backend and lay it out.

Without --search the whole hierarchy is charted. With --search only the
departments whose name matches, with their subtrees, are charted; a search
without matches produces an empty chart rather than an error.

Each fetch is saved to the local history (see 'orgchart history') unless
--no-save is given. When the backend is unreachable the last cached
hierarchy is used.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := errors.ValidateSearchQuery(search); err != nil {
				return err
			}
			opts, err := rf.options()
			if err != nil {
				return err
			}
			opts.Layout = lf.options(c.Config)
			opts.Refresh = refresh
			return c.runFetch(cmd.Context(), search, opts, rf.output, !noSave)
		},
	}

	cmd.Flags().StringVarP(&search, "search", "s", "", "chart only departments whose name matches")
	cmd.Flags().BoolVar(&noSave, "no-save", false, "do not record the chart in the local history")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "recompute the layout even if it is cached")
	lf.register(cmd)
	rf.register(cmd)

	return cmd
}

func (c *CLI) runFetch(ctx context.Context, search string, opts pipeline.Options, output string, save bool) error {
	client, err := c.newClient(ctx, false)
	if err != nil {
		return err
	}

	runner, err := c.newRunner(false)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	spinner := newSpinner(ctx, "Fetching hierarchy...")
	spinner.Start()

	var forest hierarchy.Forest
	if err := spinner.Step("Fetching hierarchy...", "Fetch failed", func() (err error) {
		forest, err = fetchForest(ctx, client, search)
		return err
	}); err != nil {
		return err
	}
	var res *pipeline.Result
	if err := spinner.Step("Laying out...", "Layout failed", func() (err error) {
		res, err = runner.Build(ctx, forest, nil, opts)
		return err
	}); err != nil {
		return err
	}
	spinner.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	written, err := c.renderAndWrite(ctx, runner, res.Layout, opts, output, defaultFetchBase(search))
	if err != nil {
		return err
	}
	if output != stdoutPath {
		printResult(fetchTitle(search), res, written)
	}

	if !save {
		return nil
	}
	snap, err := c.saveSnapshot(ctx, search, res)
	if err != nil {
		c.Logger.Warn("snapshot not saved", "error", err)
		return nil
	}
	if output != stdoutPath {
		printDetail("Saved as %s", snap.ID)
	}
	return nil
}

// fetcher is the part of the backend client fetch needs.
type fetcher interface {
	Fetch(ctx context.Context, query string) (hierarchy.Forest, error)
}

// fetchForest loads the hierarchy for query. A search that matches
// nothing is treated as an empty hierarchy.
func fetchForest(ctx context.Context, client fetcher, query string) (hierarchy.Forest, error) {
	forest, err := client.Fetch(ctx, query)
	if query != "" && errors.Is(err, errors.ErrCodeNotFound) {
		return hierarchy.Forest{}, nil
	}
	return forest, err
}

func defaultFetchBase(search string) string {
	if search == "" {
		return appName
	}
	return appName + "-search"
}

func fetchTitle(search string) string {
	if search == "" {
		return "Fetched hierarchy"
	}
	return fmt.Sprintf("Fetched departments matching %q", search)
}

// openHistory opens the local snapshot store.
func (c *CLI) openHistory() (*sqlite.Store, error) {
	path := c.Config.Store.SQLitePath
	if path == "" {
		p, err := sqlite.DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	return sqlite.Open(path)
}

func (c *CLI) saveSnapshot(ctx context.Context, query string, res *pipeline.Result) (*store.Snapshot, error) {
	history, err := c.openHistory()
	if err != nil {
		return nil, err
	}
	defer history.Close()

	snap := store.NewSnapshot(query, c.Config.BackendURL, res.Layout)
	if err := history.Save(ctx, snap); err != nil {
		return nil, err
	}
	return snap, nil
}
