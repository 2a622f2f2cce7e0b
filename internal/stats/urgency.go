package stats

import (
	"time"

	"github.com/yukikurage/taskflow/internal/models"
)

// Urgency is the deadline badge of a task.
type Urgency string

const (
	UrgencyOverdue  Urgency = "overdue"
	UrgencyToday    Urgency = "today"
	UrgencyTomorrow Urgency = "tomorrow"
	UrgencySoon     Urgency = "soon"
	UrgencyUpcoming Urgency = "upcoming"
	UrgencyNone     Urgency = "none"
)

// Classify maps a task's due date to its urgency band. Completed tasks and
// tasks due more than a week out carry no badge.
func Classify(t models.Task, now time.Time) Urgency {
	if t.IsCompleted() {
		return UrgencyNone
	}
	days, ok := DaysUntil(t.DueDate, now)
	if !ok {
		return UrgencyNone
	}
	switch {
	case days < 0:
		return UrgencyOverdue
	case days == 0:
		return UrgencyToday
	case days == 1:
		return UrgencyTomorrow
	case days <= 3:
		return UrgencySoon
	case days <= 7:
		return UrgencyUpcoming
	default:
		return UrgencyNone
	}
}
