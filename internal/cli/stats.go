package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/yukikurage/taskflow/internal/backend"
	"github.com/yukikurage/taskflow/internal/stats"
)

func newStatsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show the dashboard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.tasks.Load(cmd.Context(), backend.OrderByCreatedDesc); err != nil {
				return err
			}
			d := stats.Compute(a.tasks.Tasks(), a.now())

			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(d)
			}
			printDashboard(cmd.OutOrStdout(), d)
			return nil
		},
	}
	cmd.Flags().Bool("json", false, "Print as JSON")
	return cmd
}

func newSuggestCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "suggest <text>",
		Short: "Draft tasks from free text with the server's AI assistant",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), a.cfg.RequestTimeout)
			defer cancel()

			drafts, err := a.client.SuggestTasks(ctx, strings.Join(args, " "))
			if err != nil {
				return err
			}
			if len(drafts) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No tasks found in that text.")
				return nil
			}

			save, _ := cmd.Flags().GetBool("save")
			for _, d := range drafts {
				if !save {
					fmt.Fprintf(cmd.OutOrStdout(), "- %s (due %s, %s)\n", d.Title, d.DueDate, d.Priority)
					continue
				}
				task, err := a.tasks.Create(cmd.Context(), d)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added %s %s\n", shortID(task.ID), task.Title)
			}
			return nil
		},
	}
	cmd.Flags().Bool("save", false, "Create the drafted tasks")
	return cmd
}
