package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/orgchart/pkg/errors"
	"github.com/matzehuels/orgchart/pkg/graph"
	"github.com/matzehuels/orgchart/pkg/integrations/departments"
	"github.com/matzehuels/orgchart/pkg/pipeline"
)

// statusFlags binds --active, --deleted and --approved. Only flags given
// on the command line override the base status.
type statusFlags struct {
	active, deleted, approved bool
}

func (f *statusFlags) register(cmd *cobra.Command, withDeleted bool) {
	cmd.Flags().BoolVar(&f.active, "active", true, "department is active")
	cmd.Flags().BoolVar(&f.approved, "approved", false, "department is approved")
	if withDeleted {
		cmd.Flags().BoolVar(&f.deleted, "deleted", false, "department is marked deleted")
	}
}

func (f *statusFlags) apply(cmd *cobra.Command, base graph.Status) graph.Status {
	if cmd.Flags().Changed("active") {
		base.Active = f.active
	}
	if cmd.Flags().Changed("approved") {
		base.Approved = f.approved
	}
	if cmd.Flags().Changed("deleted") {
		base.Deleted = f.deleted
	}
	return base
}

// createCommand creates the create command.
func (c *CLI) createCommand() *cobra.Command {
	var (
		name   string
		parent string
		sf     statusFlags
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a department",
		Long: `Create a department, as a new root or under --parent.

New departments are active and awaiting approval unless --active=false or
--approved is given.`,
		Example: `  orgchart create --name Engineering
  orgchart create --name Platform --parent 4 --approved`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			actions, err := c.newActions(ctx)
			if err != nil {
				return err
			}

			req := graph.AddChildRequest{
				Name:   name,
				Status: sf.apply(cmd, graph.Status{Active: true}),
			}
			var target graph.Actions = actions
			if parent != "" {
				node, err := c.findNode(ctx, actions, parent)
				if err != nil {
					return err
				}
				req.ParentID = node.ID
				target = node.Actions
			}

			if err := target.OnAddChild(ctx, req); err != nil {
				return err
			}
			if req.ParentID == "" {
				printSuccess("Created %s", name)
			} else {
				printSuccess("Created %s under %s", name, req.ParentID)
			}
			printDetail("%s", statusText(req.Status))
			return nil
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "department name (required)")
	cmd.Flags().StringVarP(&parent, "parent", "p", "", "parent department id")
	sf.register(cmd, false)
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

// updateCommand creates the update command.
func (c *CLI) updateCommand() *cobra.Command {
	var (
		name   string
		parent string
		sf     statusFlags
	)

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Rename, move or change the status of a department",
		Long: `Update a department. Only the fields given as flags change; the others
keep their current values. Use --parent "" to make the department a root.`,
		Example: `  orgchart update 7 --name "Customer Success"
  orgchart update 7 --parent 2
  orgchart update 7 --approved --active=false`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			actions, err := c.newActions(ctx)
			if err != nil {
				return err
			}
			node, err := c.findNode(ctx, actions, args[0])
			if err != nil {
				return err
			}

			req := graph.EditRequest{
				ID:       node.ID,
				ParentID: node.ParentID,
				Name:     node.Label,
				Status:   sf.apply(cmd, node.Status),
			}
			if cmd.Flags().Changed("name") {
				req.Name = name
			}
			if cmd.Flags().Changed("parent") {
				req.ParentID = parent
			}
			if req.ParentID == req.ID {
				return errors.New(errors.ErrCodeStructural, "department %s cannot be its own parent", req.ID)
			}

			if err := node.Actions.OnEdit(ctx, req); err != nil {
				return err
			}
			printSuccess("Updated %s", req.Name)
			printDetail("%s", statusText(req.Status))
			return nil
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "new name")
	cmd.Flags().StringVarP(&parent, "parent", "p", "", "new parent department id")
	sf.register(cmd, true)

	return cmd
}

// deleteCommand creates the delete command.
func (c *CLI) deleteCommand() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a department",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			actions, err := c.newActions(ctx)
			if err != nil {
				return err
			}
			node, err := c.findNode(ctx, actions, args[0])
			if err != nil {
				return err
			}

			if !yes {
				ok, err := confirm(cmd.InOrStdin(), cmd.OutOrStdout(), fmt.Sprintf("Delete %s (%s)?", node.Label, node.ID))
				if err != nil {
					return err
				}
				if !ok {
					printInfo("Cancelled")
					return nil
				}
			}

			if err := node.Actions.OnDelete(ctx, node.ID); err != nil {
				return err
			}
			printSuccess("Deleted %s", node.Label)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")

	return cmd
}

// newActions returns backend actions for a logged-in client.
func (c *CLI) newActions(ctx context.Context) (*departments.Actions, error) {
	client, err := c.newClient(ctx, true)
	if err != nil {
		return nil, err
	}
	return departments.NewActions(client, nil), nil
}

// findNode lays out the whole hierarchy with actions attached and returns
// the node for id, so edits dispatch through the node like they do in the
// browser and the HTTP API.
func (c *CLI) findNode(ctx context.Context, actions *departments.Actions, id string) (graph.Node, error) {
	forest, err := actions.Client.Fetch(ctx, "")
	if err != nil {
		return graph.Node{}, err
	}

	runner, err := c.newRunner(false)
	if err != nil {
		return graph.Node{}, err
	}
	defer runner.Close()

	res, err := runner.Build(ctx, forest, actions, pipeline.Options{Layout: c.Config.LayoutOptions()})
	if err != nil {
		return graph.Node{}, err
	}
	n, ok := res.Layout.Node(id)
	if !ok {
		return graph.Node{}, errors.New(errors.ErrCodeNotFound, "department %q not found", id)
	}
	return *n, nil
}

// confirm asks a yes/no question on out and reads the answer from in.
func confirm(in io.Reader, out io.Writer, question string) (bool, error) {
	fmt.Fprintf(out, "%s %s ", question, StyleDim.Render("[y/N]"))
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}
