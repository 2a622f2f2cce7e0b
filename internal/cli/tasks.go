package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/yukikurage/taskflow/internal/backend"
	"github.com/yukikurage/taskflow/internal/constants"
	"github.com/yukikurage/taskflow/internal/dto"
	"github.com/yukikurage/taskflow/internal/filter"
	"github.com/yukikurage/taskflow/internal/models"
	"github.com/yukikurage/taskflow/internal/validation"
)

func newListCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List tasks",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			status, _ := cmd.Flags().GetString("status")
			category, _ := cmd.Flags().GetString("category")
			search, _ := cmd.Flags().GetString("search")
			sortBy, _ := cmd.Flags().GetString("sort")
			order, _ := cmd.Flags().GetString("order")

			cfg, err := filter.ParseConfig(status, category, search, sortBy)
			if err != nil {
				return err
			}
			if err := a.tasks.Load(cmd.Context(), backend.Order(order)); err != nil {
				return err
			}

			result := filter.Apply(a.tasks.Tasks(), cfg)
			printTasks(cmd.OutOrStdout(), result.Tasks, a.now())

			counts := a.tasks.Counts()
			fmt.Fprintf(cmd.OutOrStdout(), "\n%d active, %d completed", counts.Active, counts.Completed)
			if result.HasActiveFilters {
				fmt.Fprintf(cmd.OutOrStdout(), " (showing %d of %d)", result.Filtered, result.Total)
			}
			fmt.Fprintln(cmd.OutOrStdout())
			return nil
		},
	}
	cmd.Flags().String("status", string(filter.StatusAll), "all, active or completed")
	cmd.Flags().String("category", filter.CategoryAll, "Category name or all")
	cmd.Flags().StringP("search", "s", "", "Match title or description")
	cmd.Flags().String("sort", string(filter.SortByDate), "date, priority or none")
	cmd.Flags().String("order", string(backend.OrderByDueDate), "Fetch order: due_date or created_at")
	return cmd
}

func newAddCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a task",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			due, _ := cmd.Flags().GetString("due")
			priority, _ := cmd.Flags().GetString("priority")
			category, _ := cmd.Flags().GetString("category")
			description, _ := cmd.Flags().GetString("description")

			now := a.now()
			if due == "" {
				due = now.Format(constants.DateLayout)
			}
			input := dto.CreateTaskDTO{
				Title:       strings.Join(args, " "),
				Description: description,
				DueDate:     due,
				Priority:    models.Priority(priority),
				Category:    category,
			}
			if err := validation.Form(input, now); err != nil {
				return err
			}

			task, err := a.tasks.Create(cmd.Context(), input)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s %s\n", shortID(task.ID), task.Title)
			return nil
		},
	}
	cmd.Flags().StringP("due", "d", "", "Due date YYYY-MM-DD (default today)")
	cmd.Flags().StringP("priority", "p", string(models.PriorityMedium), "Low, Medium or High")
	cmd.Flags().StringP("category", "c", "", "One of "+strings.Join(models.Categories, ", "))
	cmd.Flags().String("description", "", "Details")
	return cmd
}

func newEditCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change fields of a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var update dto.UpdateTaskDTO
			flags := cmd.Flags()
			if flags.Changed("title") {
				v, _ := flags.GetString("title")
				update.Title = &v
			}
			if flags.Changed("description") {
				v, _ := flags.GetString("description")
				update.Description = &v
			}
			if flags.Changed("due") {
				v, _ := flags.GetString("due")
				update.DueDate = &v
			}
			if flags.Changed("priority") {
				v, _ := flags.GetString("priority")
				p := models.Priority(v)
				update.Priority = &p
			}
			if flags.Changed("category") {
				v, _ := flags.GetString("category")
				update.Category = &v
			}
			if update.IsEmpty() {
				return fmt.Errorf("nothing to change: pass at least one flag")
			}

			id, err := a.resolve(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			task, err := a.tasks.Update(cmd.Context(), id, update)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated %s %s\n", shortID(task.ID), task.Title)
			return nil
		},
	}
	cmd.Flags().String("title", "", "New title")
	cmd.Flags().String("description", "", "New description (empty clears it)")
	cmd.Flags().StringP("due", "d", "", "New due date YYYY-MM-DD")
	cmd.Flags().StringP("priority", "p", "", "Low, Medium or High")
	cmd.Flags().StringP("category", "c", "", "New category (empty clears it)")
	return cmd
}

func newDoneCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "done <id>",
		Short: "Toggle a task between open and completed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := a.resolve(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			task, err := a.tasks.ToggleStatus(cmd.Context(), id)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s is now %s\n", shortID(task.ID), task.Title, task.Status)
			return nil
		},
	}
}

func newRmCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete a task",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := a.resolve(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if err := a.tasks.Delete(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", shortID(id))
			return nil
		},
	}
}

// resolve loads the collection and expands a unique id prefix.
func (a *app) resolve(ctx context.Context, prefix string) (string, error) {
	if err := a.tasks.Load(ctx, backend.OrderByDueDate); err != nil {
		return "", err
	}

	var matches []string
	for _, t := range a.tasks.Tasks() {
		if t.ID == prefix {
			return t.ID, nil
		}
		if strings.HasPrefix(t.ID, prefix) {
			matches = append(matches, t.ID)
		}
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("no task with id %q", prefix)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("id %q is ambiguous (%d tasks)", prefix, len(matches))
	}
}
