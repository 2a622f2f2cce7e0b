// Package backend is the remote task store adapter: the auth and tasks calls
// the client makes against the hosted API.
package backend

import (
	"context"
	"time"

	"github.com/yukikurage/taskflow/internal/dto"
	"github.com/yukikurage/taskflow/internal/models"
)

// Order is the ordering of a task selection.
type Order string

const (
	// OrderByDueDate orders by due date ascending, used by list views.
	OrderByDueDate Order = "due_date"
	// OrderByCreatedDesc orders newest first, used by the dashboard.
	OrderByCreatedDesc Order = "created_at"
)

// Session is an authenticated session.
type Session struct {
	User      dto.UserDTO `yaml:"user"`
	Token     string      `yaml:"token"`
	ExpiresAt time.Time   `yaml:"expires_at"`
}

type AuthAPI interface {
	SignIn(ctx context.Context, email, password string) (*Session, error)
	SignUp(ctx context.Context, email, password string) (*Session, error)
	SignOut(ctx context.Context) error
	// CurrentUser returns nil without error when there is no active session.
	CurrentUser(ctx context.Context) (*dto.UserDTO, error)
}

// TaskAPI operates on the tasks of the authenticated user.
type TaskAPI interface {
	SelectTasks(ctx context.Context, order Order) ([]models.Task, error)
	InsertTask(ctx context.Context, row dto.NewTaskRow) (*models.Task, error)
	UpdateTask(ctx context.Context, id string, fields dto.UpdateTaskDTO) (*models.Task, error)
	DeleteTask(ctx context.Context, id string) error
}
