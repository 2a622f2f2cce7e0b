package cli

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/yukikurage/taskflow/internal/backend"
	"github.com/yukikurage/taskflow/internal/models"
	"github.com/yukikurage/taskflow/internal/stats"
	"github.com/yukikurage/taskflow/internal/taskstore"
	"github.com/yukikurage/taskflow/internal/validation"
)

const shortIDLength = 8

func shortID(id string) string {
	if len(id) <= shortIDLength {
		return id
	}
	return id[:shortIDLength]
}

var urgencyLabels = map[stats.Urgency]string{
	stats.UrgencyOverdue:  "OVERDUE",
	stats.UrgencyToday:    "today",
	stats.UrgencyTomorrow: "tomorrow",
	stats.UrgencySoon:     "soon",
	stats.UrgencyUpcoming: "this week",
}

func printTasks(w io.Writer, tasks []models.Task, now time.Time) {
	if len(tasks) == 0 {
		fmt.Fprintln(w, "No tasks.")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\t \tDUE\t\tPRIORITY\tCATEGORY\tTITLE")
	for _, t := range tasks {
		mark := " "
		if t.IsCompleted() {
			mark = "x"
		}
		fmt.Fprintf(tw, "%s\t[%s]\t%s\t%s\t%s\t%s\t%s\n",
			shortID(t.ID), mark, t.DueDate, urgencyLabels[stats.Classify(t, now)],
			t.Priority, t.EffectiveCategory(), t.Title)
	}
	tw.Flush()
}

func printDashboard(w io.Writer, d stats.Dashboard) {
	fmt.Fprintf(w, "Tasks:      %d total, %d active, %d completed (%d%%)\n", d.Total, d.Active, d.Completed, d.CompletionRate)
	fmt.Fprintf(w, "Due:        %d overdue, %d today, %d tomorrow\n", d.OverdueTasks, d.TodayTasks, d.TomorrowTasks)
	fmt.Fprintf(w, "Priority:   %d high, %d medium, %d low\n", d.HighPriority, d.MediumPriority, d.LowPriority)
	fmt.Fprintf(w, "This week:  %d created, %d completed\n", d.TasksThisWeek, d.CompletedThisWeek)
	if len(d.CategoryStats) > 0 {
		parts := make([]string, 0, len(d.CategoryStats))
		for _, c := range d.CategoryStats {
			parts = append(parts, fmt.Sprintf("%s %d", c.Category, c.Count))
		}
		fmt.Fprintf(w, "Categories: %s\n", strings.Join(parts, ", "))
	}
}

// describe turns command errors into user-facing messages.
func describe(err error) string {
	var fields validation.Errors
	var apiErr *backend.APIError
	switch {
	case errors.As(err, &fields):
		return "invalid task: " + fieldList(fields)
	case errors.Is(err, taskstore.ErrNotAuthenticated):
		return "not logged in, run `taskctl login <email>` first"
	case errors.As(err, &apiErr) && len(apiErr.Details) > 0:
		return apiErr.Message + ": " + fieldList(apiErr.Details)
	default:
		return err.Error()
	}
}

func fieldList(fields map[string]string) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+" "+fields[k])
	}
	return strings.Join(parts, "; ")
}
