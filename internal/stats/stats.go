// Package stats computes dashboard metrics over a user's task collection.
package stats

import (
	"math"
	"time"

	"github.com/yukikurage/taskflow/internal/models"
	"github.com/yukikurage/taskflow/internal/validation"
)

// CategoryCount is one entry of the category histogram.
type CategoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// Dashboard holds the aggregate metrics shown on the dashboard.
type Dashboard struct {
	Total             int             `json:"total"`
	Completed         int             `json:"completed"`
	Active            int             `json:"active"`
	CompletionRate    int             `json:"completionRate"`
	TodayTasks        int             `json:"todayTasks"`
	TomorrowTasks     int             `json:"tomorrowTasks"`
	OverdueTasks      int             `json:"overdueTasks"`
	CategoryStats     []CategoryCount `json:"categoryStats"`
	HighPriority      int             `json:"highPriority"`
	MediumPriority    int             `json:"mediumPriority"`
	LowPriority       int             `json:"lowPriority"`
	TasksThisWeek     int             `json:"tasksThisWeek"`
	CompletedThisWeek int             `json:"completedThisWeek"`
}

// Compute aggregates tasks relative to now, interpreted in now's location.
func Compute(tasks []models.Task, now time.Time) Dashboard {
	d := Dashboard{Total: len(tasks), CategoryStats: []CategoryCount{}}

	today := Midnight(now)
	weekStart := today.AddDate(0, 0, -int(today.Weekday()))
	perCategory := make(map[string]int, len(models.Categories))

	for _, t := range tasks {
		perCategory[t.EffectiveCategory()]++

		if !t.CreatedAt.IsZero() && !t.CreatedAt.Before(weekStart) {
			d.TasksThisWeek++
			if t.IsCompleted() {
				d.CompletedThisWeek++
			}
		}

		if t.IsCompleted() {
			d.Completed++
			continue
		}
		d.Active++

		switch t.Priority {
		case models.PriorityHigh:
			d.HighPriority++
		case models.PriorityMedium:
			d.MediumPriority++
		case models.PriorityLow:
			d.LowPriority++
		}

		days, ok := DaysUntil(t.DueDate, now)
		if !ok {
			continue
		}
		switch {
		case days < 0:
			d.OverdueTasks++
		case days == 0:
			d.TodayTasks++
		case days == 1:
			d.TomorrowTasks++
		}
	}

	if d.Total > 0 {
		d.CompletionRate = int(math.Round(float64(d.Completed) / float64(d.Total) * 100))
	}

	for _, c := range models.Categories {
		if n := perCategory[c]; n > 0 {
			d.CategoryStats = append(d.CategoryStats, CategoryCount{Category: c, Count: n})
		}
	}

	return d
}

// Midnight truncates t to the start of its calendar day in t's location.
func Midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// DaysUntil returns the number of calendar days from now's date to the due date.
// It is negative for past dates and false when the date does not parse.
func DaysUntil(dueDate string, now time.Time) (int, bool) {
	due, err := validation.ParseDate(dueDate, time.UTC)
	if err != nil {
		return 0, false
	}
	// Compare on a UTC calendar so DST transitions never yield 23h or 25h days.
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return int(math.Ceil(due.Sub(today).Hours() / 24)), true
}
