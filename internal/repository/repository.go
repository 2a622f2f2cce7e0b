package repository

import (
	"github.com/yukikurage/taskflow/internal/models"
)

// TaskOrder selects the ordering of a task listing
type TaskOrder string

const (
	// OrderByDueDate lists tasks by due date ascending (list view)
	OrderByDueDate TaskOrder = "due_date"
	// OrderByCreatedDesc lists the newest tasks first (dashboard)
	OrderByCreatedDesc TaskOrder = "created_at"
)

// TaskRepository defines the interface for task data access.
// Every method is scoped to the owning user.
type TaskRepository interface {
	// Create inserts a new task
	Create(task *models.Task) error

	// FindByID finds one of the user's tasks
	FindByID(userID, id string) (*models.Task, error)

	// ListByUser lists all tasks of a user in the given order
	ListByUser(userID string, order TaskOrder) ([]models.Task, error)

	// Update writes the given columns and refreshes updated_at
	Update(task *models.Task, columns map[string]any) error

	// Delete hard deletes one of the user's tasks
	Delete(userID, id string) error
}

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user
	Create(user *models.User) error

	// FindByID finds a user by ID
	FindByID(id string) (*models.User, error)

	// FindByEmail finds a user by email
	FindByEmail(email string) (*models.User, error)
}
