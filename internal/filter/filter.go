// Package filter derives the visible, ordered subset of a task collection.
package filter

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/yukikurage/taskflow/internal/constants"
	"github.com/yukikurage/taskflow/internal/models"
)

type StatusFilter string

const (
	StatusAll       StatusFilter = "all"
	StatusActive    StatusFilter = "active"
	StatusCompleted StatusFilter = "completed"
)

type SortBy string

const (
	SortByDate     SortBy = "date"
	SortByPriority SortBy = "priority"
	SortByNone     SortBy = "none"
)

// CategoryAll disables the category filter.
const CategoryAll = "all"

// Config is the filter configuration of a task view.
type Config struct {
	Status   StatusFilter `json:"status"`
	Category string       `json:"category"`
	Search   string       `json:"search"`
	SortBy   SortBy       `json:"sort_by"`
}

// DefaultConfig is the state a view returns to when its filters are cleared.
func DefaultConfig() Config {
	return Config{
		Status:   StatusAll,
		Category: CategoryAll,
		Search:   "",
		SortBy:   SortByDate,
	}
}

// HasActiveFilters reports whether the view differs from its default.
// Date is the implicit sort, so any other sort counts as a filter.
func (c Config) HasActiveFilters() bool {
	c = c.withDefaults()
	return c.Search != "" || c.Status != StatusAll || c.Category != CategoryAll || c.SortBy != SortByDate
}

// withDefaults fills empty fields, so the zero Config behaves like DefaultConfig.
func (c Config) withDefaults() Config {
	if c.Status == "" {
		c.Status = StatusAll
	}
	if c.Category == "" {
		c.Category = CategoryAll
	}
	if c.SortBy == "" {
		c.SortBy = SortByDate
	}
	return c
}

// ParseConfig builds a Config from raw values such as query parameters.
// Empty values keep their defaults.
func ParseConfig(status, category, search, sortBy string) (Config, error) {
	cfg := DefaultConfig()

	switch s := StatusFilter(status); s {
	case "":
	case StatusAll, StatusActive, StatusCompleted:
		cfg.Status = s
	default:
		return Config{}, fmt.Errorf("unknown status filter %q", status)
	}

	if category != "" {
		if category != CategoryAll && !models.IsKnownCategory(category) {
			return Config{}, fmt.Errorf("unknown category %q", category)
		}
		cfg.Category = category
	}

	cfg.Search = search

	switch s := SortBy(sortBy); s {
	case "":
	case SortByDate, SortByPriority, SortByNone:
		cfg.SortBy = s
	default:
		return Config{}, fmt.Errorf("unknown sort %q", sortBy)
	}

	return cfg, nil
}

// Result is the derived view.
type Result struct {
	Tasks            []models.Task
	Total            int
	Filtered         int
	HasActiveFilters bool
}

// Apply filters by status, then category, then search text, and finally sorts.
// The input slice is never modified. Empty Config fields mean their defaults.
func Apply(tasks []models.Task, cfg Config) Result {
	cfg = cfg.withDefaults()
	visible := make([]models.Task, 0, len(tasks))
	query := strings.ToLower(strings.TrimSpace(cfg.Search))

	for _, t := range tasks {
		if !matchStatus(t, cfg.Status) {
			continue
		}
		if cfg.Category != CategoryAll && t.EffectiveCategory() != cfg.Category {
			continue
		}
		if query != "" && !matchSearch(t, query) {
			continue
		}
		visible = append(visible, t)
	}

	switch cfg.SortBy {
	case SortByPriority:
		slices.SortStableFunc(visible, func(a, b models.Task) int {
			return b.Priority.Weight() - a.Priority.Weight()
		})
	case SortByDate:
		sortByDueDate(visible)
	}

	return Result{
		Tasks:            visible,
		Total:            len(tasks),
		Filtered:         len(visible),
		HasActiveFilters: cfg.HasActiveFilters(),
	}
}

func matchStatus(t models.Task, f StatusFilter) bool {
	switch f {
	case StatusActive:
		return t.Status == models.TaskStatusOpen
	case StatusCompleted:
		return t.Status == models.TaskStatusCompleted
	default:
		return true
	}
}

func matchSearch(t models.Task, query string) bool {
	if strings.Contains(strings.ToLower(t.Title), query) {
		return true
	}
	return t.Description != "" && strings.Contains(strings.ToLower(t.Description), query)
}

// sortByDueDate orders ascending by parsed due date; unparseable dates go last.
func sortByDueDate(tasks []models.Task) {
	type keyed struct {
		task models.Task
		due  time.Time
		ok   bool
	}
	keys := make([]keyed, len(tasks))
	for i, t := range tasks {
		d, err := time.Parse(constants.DateLayout, t.DueDate)
		keys[i] = keyed{task: t, due: d, ok: err == nil}
	}

	slices.SortStableFunc(keys, func(a, b keyed) int {
		switch {
		case a.ok && b.ok:
			return a.due.Compare(b.due)
		case a.ok:
			return -1
		case b.ok:
			return 1
		default:
			return 0
		}
	})

	for i, k := range keys {
		tasks[i] = k.task
	}
}
