package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TaskStatus string

const (
	TaskStatusOpen      TaskStatus = "open"
	TaskStatusCompleted TaskStatus = "completed"
)

// Valid reports whether s is one of the two task states.
func (s TaskStatus) Valid() bool {
	return s == TaskStatusOpen || s == TaskStatusCompleted
}

// Toggle returns the opposite state.
func (s TaskStatus) Toggle() TaskStatus {
	if s == TaskStatusCompleted {
		return TaskStatusOpen
	}
	return TaskStatusCompleted
}

type Priority string

const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
)

// Weight orders priorities for sorting. Unknown values weigh 0.
func (p Priority) Weight() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	default:
		return 0
	}
}

func (p Priority) Valid() bool {
	return p.Weight() > 0
}

// DefaultCategory is the effective category of a task stored without one.
const DefaultCategory = "Personal"

// Categories is the fixed, ordered category catalog.
var Categories = []string{
	DefaultCategory,
	"Work",
	"Shopping",
	"Health",
	"Study",
	"Other",
}

// IsKnownCategory reports whether name is part of the catalog.
func IsKnownCategory(name string) bool {
	for _, c := range Categories {
		if c == name {
			return true
		}
	}
	return false
}

type Task struct {
	ID          string     `gorm:"type:varchar(36);primarykey" json:"id"`
	Title       string     `gorm:"type:varchar(100);not null" json:"title"`
	Description string     `gorm:"type:text" json:"description,omitempty"`
	DueDate     string     `gorm:"type:varchar(10);not null;index" json:"due_date"`
	Priority    Priority   `gorm:"type:varchar(10);not null" json:"priority"`
	Category    string     `gorm:"type:varchar(50)" json:"category,omitempty"`
	Status      TaskStatus `gorm:"type:varchar(20);not null;default:'open'" json:"status"`
	UserID      string     `gorm:"type:varchar(36);not null;index" json:"user_id"`
	CreatedAt   time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// BeforeCreate assigns the task ID and forces new tasks open.
func (t *Task) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.Status == "" {
		t.Status = TaskStatusOpen
	}
	return nil
}

// EffectiveCategory returns the task's category, or DefaultCategory when unset.
func (t Task) EffectiveCategory() string {
	if t.Category == "" {
		return DefaultCategory
	}
	return t.Category
}

func (t Task) IsCompleted() bool {
	return t.Status == TaskStatusCompleted
}
