package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/orgchart/pkg/pipeline"
	"github.com/matzehuels/orgchart/pkg/store"
)

// historyCommand creates the history command for saved snapshots.
func (c *CLI) historyCommand() *cobra.Command {
	var (
		limit int
		rf    renderFlags
	)

	cmd := &cobra.Command{
		Use:   "history [id]",
		Short: "List saved charts, or write one out again",
		Long: `Without arguments, list the charts saved by 'orgchart fetch', newest first.

With a snapshot id, write that chart in the requested formats. The layout
is taken as it was saved; the backend is not contacted.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return c.runHistoryList(cmd.Context(), limit)
			}
			opts, err := rf.options()
			if err != nil {
				return err
			}
			return c.runHistoryShow(cmd.Context(), args[0], opts, rf.output)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", store.DefaultListLimit, "number of snapshots to list")
	rf.register(cmd)

	return cmd
}

func (c *CLI) runHistoryList(ctx context.Context, limit int) error {
	history, err := c.openHistory()
	if err != nil {
		return err
	}
	defer history.Close()

	snaps, err := history.List(ctx, limit)
	if err != nil {
		return err
	}
	if len(snaps) == 0 {
		printInfo("No saved charts")
		printNextStep("Save one", appName+" fetch")
		return nil
	}

	fmt.Fprintln(c.stdout, historyTable(snaps, time.Now()))
	printNextStep("Write one out", appName+" history <id> -f svg")
	return nil
}

func (c *CLI) runHistoryShow(ctx context.Context, id string, opts pipeline.Options, output string) error {
	history, err := c.openHistory()
	if err != nil {
		return err
	}
	defer history.Close()

	snap, err := history.Get(ctx, id)
	if err != nil {
		return err
	}

	runner, err := c.newRunner(false)
	if err != nil {
		return err
	}
	defer runner.Close()

	written, err := c.renderAndWrite(ctx, runner, snap.Layout, opts, output, "snapshot-"+shortID(snap.ID))
	if err != nil {
		return err
	}
	if output == stdoutPath {
		return nil
	}

	printSuccess("Snapshot %s", shortID(snap.ID))
	printKeyValue("Saved", snap.CreatedAt.Local().Format("Jan 2, 2006 15:04"))
	printKeyValue("Query", queryLabel(snap.Query))
	printKeyValue("Departments", fmt.Sprint(snap.NodeCount))
	for _, path := range written {
		printFile(path)
	}
	return nil
}

// historyTable renders snapshot summaries as a bordered table.
func historyTable(snaps []store.Snapshot, now time.Time) string {
	rows := make([][]string, 0, len(snaps))
	for _, s := range snaps {
		rows = append(rows, []string{
			s.ID,
			formatRelativeTime(s.CreatedAt, now),
			queryLabel(s.Query),
			fmt.Sprint(s.NodeCount),
		})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("ID", "Saved", "Query", "Departments").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			base := lipgloss.NewStyle().Padding(0, 1)
			switch {
			case row == table.HeaderRow:
				return headerStyle.Padding(0, 1)
			case col == 0 || col == 1:
				return base.Foreground(colorGray)
			case col == 3:
				return base.Foreground(colorCyan).Align(lipgloss.Right)
			}
			return base
		}).
		String()
}

func queryLabel(q string) string {
	if q == "" {
		return "(all)"
	}
	return fmt.Sprintf("%q", q)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func formatRelativeTime(t, now time.Time) string {
	diff := now.Sub(t)
	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	case diff < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(diff.Hours()/24))
	default:
		return t.Local().Format("Jan 2, 2006")
	}
}
