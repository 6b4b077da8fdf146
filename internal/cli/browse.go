package cli

import (
	"context"
	stderrors "errors"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/orgchart/pkg/errors"
	"github.com/matzehuels/orgchart/pkg/integrations/departments"
	"github.com/matzehuels/orgchart/pkg/pipeline"
)

// browseCommand creates the browse command for the interactive chart.
func (c *CLI) browseCommand() *cobra.Command {
	var (
		search string
		lf     layoutFlags
	)

	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Browse and edit the hierarchy in the terminal",
		Long: `Browse the department hierarchy interactively.

Departments are listed in chart order, indented by depth and coloured by
status. When logged in you can add, rename, delete and change the status
of departments; the chart reloads after every change. Press ? for keys.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := errors.ValidateSearchQuery(search); err != nil {
				return err
			}
			return c.runBrowse(cmd.Context(), search, pipeline.Options{Layout: lf.options(c.Config)})
		},
	}

	cmd.Flags().StringVarP(&search, "search", "s", "", "start with a name search")
	lf.register(cmd)

	return cmd
}

func (c *CLI) runBrowse(ctx context.Context, search string, opts pipeline.Options) error {
	client, readOnly, err := c.browseClient(ctx)
	if err != nil {
		return err
	}

	runner, err := c.newRunner(false)
	if err != nil {
		return err
	}
	defer runner.Close()

	// Log lines would garble the alternate screen.
	opts.Logger = log.New(io.Discard)

	source := &chartSource{fetch: client, runner: runner, opts: opts, query: search}

	var program *tea.Program
	if !readOnly {
		source.actions = departments.NewActions(client, func(context.Context) {
			if program != nil {
				program.Send(reloadMsg{})
			}
		})
	}

	program = tea.NewProgram(newBrowseModel(ctx, source), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := program.Run(); err != nil && !stderrors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	return nil
}

// browseClient returns a client for the logged-in session, or an
// anonymous read-only client when there is none.
func (c *CLI) browseClient(ctx context.Context) (*departments.Client, bool, error) {
	client, err := c.newClient(ctx, true)
	switch {
	case err == nil:
		return client, false, nil
	case errors.Is(err, errors.ErrCodeUnauthorized), errors.Is(err, errors.ErrCodeSessionExpired):
		c.Logger.Info("not logged in, browsing read-only", "reason", errors.UserMessage(err))
		client, err = c.newClient(ctx, false)
		return client, true, err
	default:
		return nil, false, err
	}
}
