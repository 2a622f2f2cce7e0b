package dto

import (
	"time"

	"github.com/yukikurage/taskflow/internal/models"
)

// UserDTO represents a user in API responses
type UserDTO struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// AuthResponse is returned by signup and login.
type AuthResponse struct {
	User      UserDTO   `json:"user"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// CreateTaskDTO is the payload a user submits to create a task
type CreateTaskDTO struct {
	Title       string          `json:"title" yaml:"title" validate:"required"`
	Description string          `json:"description,omitempty" yaml:"description,omitempty"`
	DueDate     string          `json:"due_date" yaml:"due_date" validate:"required"`
	Priority    models.Priority `json:"priority" yaml:"priority"`
	Category    string          `json:"category,omitempty" yaml:"category,omitempty"`
}

// NewTaskRow is the insert payload: the user's input plus ownership and initial status.
type NewTaskRow struct {
	CreateTaskDTO
	UserID string            `json:"user_id"`
	Status models.TaskStatus `json:"status"`
}

// UpdateTaskDTO carries a partial update. Nil fields are left untouched.
type UpdateTaskDTO struct {
	Title       *string            `json:"title,omitempty"`
	Description *string            `json:"description,omitempty"`
	DueDate     *string            `json:"due_date,omitempty"`
	Priority    *models.Priority   `json:"priority,omitempty"`
	Category    *string            `json:"category,omitempty"`
	Status      *models.TaskStatus `json:"status,omitempty"`
}

// TaskListResponse wraps the full task list of the caller
type TaskListResponse struct {
	Tasks []models.Task `json:"tasks"`
}

// TaskViewResponse is the filtered and sorted view of the caller's tasks
type TaskViewResponse struct {
	Tasks            []models.Task `json:"tasks"`
	Total            int           `json:"total"`
	Filtered         int           `json:"filtered"`
	HasActiveFilters bool          `json:"has_active_filters"`
}

// GenerateTasksResponse holds AI-suggested task drafts; nothing is persisted.
type GenerateTasksResponse struct {
	Tasks []CreateTaskDTO `json:"tasks"`
}

// Conversion functions

// ToUserDTO converts a User model to UserDTO
func ToUserDTO(user models.User) UserDTO {
	return UserDTO{
		ID:    user.ID,
		Email: user.Email,
	}
}

// NewRow builds the insert payload for userID. Status is always open.
func (d CreateTaskDTO) NewRow(userID string) NewTaskRow {
	return NewTaskRow{
		CreateTaskDTO: d,
		UserID:        userID,
		Status:        models.TaskStatusOpen,
	}
}

// ToTask converts an insert payload into a model ready to be created.
func (r NewTaskRow) ToTask() models.Task {
	return models.Task{
		Title:       r.Title,
		Description: r.Description,
		DueDate:     r.DueDate,
		Priority:    r.Priority,
		Category:    r.Category,
		Status:      models.TaskStatusOpen,
		UserID:      r.UserID,
	}
}

// IsEmpty reports whether the update sets no field at all.
func (d UpdateTaskDTO) IsEmpty() bool {
	return d.Title == nil && d.Description == nil && d.DueDate == nil &&
		d.Priority == nil && d.Category == nil && d.Status == nil
}

// Apply merges the set fields into task.
func (d UpdateTaskDTO) Apply(task *models.Task) {
	if d.Title != nil {
		task.Title = *d.Title
	}
	if d.Description != nil {
		task.Description = *d.Description
	}
	if d.DueDate != nil {
		task.DueDate = *d.DueDate
	}
	if d.Priority != nil {
		task.Priority = *d.Priority
	}
	if d.Category != nil {
		task.Category = *d.Category
	}
	if d.Status != nil {
		task.Status = *d.Status
	}
}

// CopyChanged copies the fields set in d from stored into task.
func (d UpdateTaskDTO) CopyChanged(task *models.Task, stored models.Task) {
	if d.Title != nil {
		task.Title = stored.Title
	}
	if d.Description != nil {
		task.Description = stored.Description
	}
	if d.DueDate != nil {
		task.DueDate = stored.DueDate
	}
	if d.Priority != nil {
		task.Priority = stored.Priority
	}
	if d.Category != nil {
		task.Category = stored.Category
	}
	if d.Status != nil {
		task.Status = stored.Status
	}
}

// Columns returns the changed columns keyed by database column name.
func (d UpdateTaskDTO) Columns() map[string]any {
	cols := make(map[string]any, 6)
	if d.Title != nil {
		cols["title"] = *d.Title
	}
	if d.Description != nil {
		cols["description"] = *d.Description
	}
	if d.DueDate != nil {
		cols["due_date"] = *d.DueDate
	}
	if d.Priority != nil {
		cols["priority"] = *d.Priority
	}
	if d.Category != nil {
		cols["category"] = *d.Category
	}
	if d.Status != nil {
		cols["status"] = *d.Status
	}
	return cols
}
