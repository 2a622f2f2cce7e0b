package taskstore

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/yukikurage/taskflow/internal/backend"
	"github.com/yukikurage/taskflow/internal/dto"
	"github.com/yukikurage/taskflow/internal/models"
)

// fakeBackend is an in-memory Backend. Selects return the rows of the user
// signed in when the call started.
type fakeBackend struct {
	mu      sync.Mutex
	user    *dto.UserDTO
	rows    []models.Task
	nextID  int
	clock   time.Time
	selects int
	inserts int
	updates []dto.UpdateTaskDTO

	selectErr error
	updateErr error
	deleteErr error

	// updateHook runs before an update is applied, outside the lock.
	updateHook  func(ctx context.Context) error
	selectBlock chan struct{}
	insertBlock chan struct{}
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		user:  &dto.UserDTO{ID: "user-1", Email: "user@example.com"},
		clock: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC),
	}
}

func (f *fakeBackend) switchUser(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.user = &dto.UserDTO{ID: id, Email: id + "@example.com"}
}

func (f *fakeBackend) selectCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.selects
}

func (f *fakeBackend) tick() time.Time {
	f.clock = f.clock.Add(time.Second)
	return f.clock
}

func (f *fakeBackend) SignIn(context.Context, string, string) (*backend.Session, error) {
	return nil, errors.New("not used")
}

func (f *fakeBackend) SignUp(context.Context, string, string) (*backend.Session, error) {
	return nil, errors.New("not used")
}

func (f *fakeBackend) SignOut(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.user = nil
	return nil
}

func (f *fakeBackend) CurrentUser(context.Context) (*dto.UserDTO, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.user == nil {
		return nil, nil
	}
	u := *f.user
	return &u, nil
}

func (f *fakeBackend) SelectTasks(ctx context.Context, order backend.Order) ([]models.Task, error) {
	f.mu.Lock()
	f.selects++
	block := f.selectBlock
	var owner string
	if f.user != nil {
		owner = f.user.ID
	}
	f.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.selectErr != nil {
		return nil, f.selectErr
	}
	if owner == "" {
		return nil, &backend.APIError{Status: http.StatusUnauthorized, Code: "UNAUTHORIZED", Message: "Authentication required"}
	}
	rows := slices.DeleteFunc(slices.Clone(f.rows), func(t models.Task) bool { return t.UserID != owner })
	switch order {
	case backend.OrderByCreatedDesc:
		slices.SortStableFunc(rows, func(a, b models.Task) int { return b.CreatedAt.Compare(a.CreatedAt) })
	default:
		slices.SortStableFunc(rows, func(a, b models.Task) int {
			if a.DueDate < b.DueDate {
				return -1
			}
			if a.DueDate > b.DueDate {
				return 1
			}
			return 0
		})
	}
	return rows, nil
}

func (f *fakeBackend) InsertTask(ctx context.Context, row dto.NewTaskRow) (*models.Task, error) {
	f.mu.Lock()
	f.inserts++
	block := f.insertBlock
	f.mu.Unlock()
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.user == nil || row.UserID != f.user.ID {
		return nil, &backend.APIError{Status: http.StatusBadRequest, Message: "task must belong to the authenticated user"}
	}

	f.nextID++
	now := f.tick()
	task := row.ToTask()
	task.ID = fmt.Sprintf("task-%d", f.nextID)
	task.CreatedAt = now
	task.UpdatedAt = now
	f.rows = append(f.rows, task)
	return &task, nil
}

func (f *fakeBackend) UpdateTask(ctx context.Context, id string, fields dto.UpdateTaskDTO) (*models.Task, error) {
	f.mu.Lock()
	hook := f.updateHook
	f.mu.Unlock()
	if hook != nil {
		if err := hook(ctx); err != nil {
			return nil, err
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	i := slices.IndexFunc(f.rows, func(t models.Task) bool { return t.ID == id })
	if i < 0 {
		return nil, &backend.APIError{Status: http.StatusNotFound, Code: "NOT_FOUND", Message: "Task not found"}
	}
	f.updates = append(f.updates, fields)
	fields.Apply(&f.rows[i])
	f.rows[i].UpdatedAt = f.tick()
	task := f.rows[i]
	return &task, nil
}

func (f *fakeBackend) DeleteTask(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	i := slices.IndexFunc(f.rows, func(t models.Task) bool { return t.ID == id })
	if i < 0 {
		return &backend.APIError{Status: http.StatusNotFound, Code: "NOT_FOUND", Message: "Task not found"}
	}
	f.rows = slices.Delete(f.rows, i, i+1)
	return nil
}
