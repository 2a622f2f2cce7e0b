// Package taskstore holds the client's authoritative copy of the current
// user's tasks and mediates every remote mutation.
package taskstore

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/yukikurage/taskflow/internal/backend"
	"github.com/yukikurage/taskflow/internal/constants"
	"github.com/yukikurage/taskflow/internal/dto"
	"github.com/yukikurage/taskflow/internal/models"
	"github.com/yukikurage/taskflow/internal/validation"
	"golang.org/x/sync/singleflight"
)

// Backend is what the collection needs from the remote store.
type Backend interface {
	backend.AuthAPI
	backend.TaskAPI
}

// Counts are the sizes of the status partitions.
type Counts struct {
	All       int `json:"all"`
	Active    int `json:"active"`
	Completed int `json:"completed"`
}

// Options configures a Collection.
type Options struct {
	// RequestTimeout bounds every remote call. Zero means constants.DefaultRequestTimeout.
	RequestTimeout time.Duration
	Logger         *slog.Logger
}

// Collection is safe for concurrent use. Mutations of the same task id are
// applied in submission order; separate instances do not see each other's writes.
type Collection struct {
	api     Backend
	timeout time.Duration
	logger  *slog.Logger

	mu     sync.RWMutex
	tasks  []models.Task
	userID string
	// epoch is bumped by Reset. Results of requests started in an older
	// epoch are dropped.
	epoch uint64

	loads singleflight.Group
	seq   *sequencer
}

func New(api Backend, opts Options) *Collection {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = constants.DefaultRequestTimeout
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Collection{
		api:     api,
		timeout: opts.RequestTimeout,
		logger:  opts.Logger,
		tasks:   []models.Task{},
		seq:     newSequencer(),
	}
}

// Load replaces the collection with the user's tasks in the given order.
// On failure the last-known collection is kept.
//
// Concurrent loads with the same order share one request. The shared request
// is not tied to any caller's cancellation; a caller whose ctx ends stops
// waiting and gets ctx.Err().
func (c *Collection) Load(ctx context.Context, order backend.Order) error {
	c.mu.RLock()
	key := fmt.Sprintf("%d/%s", c.epoch, order)
	c.mu.RUnlock()

	shared := context.WithoutCancel(ctx)
	ch := c.loads.DoChan(key, func() (any, error) {
		return nil, c.load(shared, order)
	})

	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Collection) load(ctx context.Context, order backend.Order) error {
	userID, epoch, err := c.currentUser(ctx)
	if err != nil {
		return err
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	tasks, err := c.api.SelectTasks(callCtx, order)
	if err != nil {
		return c.remoteFailure("load", epoch, err)
	}
	if tasks == nil {
		tasks = []models.Task{}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.sameSession(userID, epoch) {
		return ErrSessionChanged
	}
	c.tasks = tasks
	return nil
}

// Create inserts a new open task for the current user and appends the stored row.
func (c *Collection) Create(ctx context.Context, input dto.CreateTaskDTO) (models.Task, error) {
	if err := validation.Required(input); err != nil {
		return models.Task{}, err
	}

	userID, epoch, err := c.currentUser(ctx)
	if err != nil {
		return models.Task{}, err
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	task, err := c.api.InsertTask(callCtx, input.NewRow(userID))
	if err != nil {
		return models.Task{}, c.remoteFailure("create", epoch, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.sameSession(userID, epoch) {
		return models.Task{}, ErrSessionChanged
	}
	c.tasks = append(c.tasks, *task)
	return *task, nil
}

// Update applies a partial update. On success the changed fields, as stored
// by the server, and its updated_at are merged into the local copy.
func (c *Collection) Update(ctx context.Context, id string, fields dto.UpdateTaskDTO) (models.Task, error) {
	release, err := c.seq.acquire(ctx, id)
	if err != nil {
		return models.Task{}, err
	}
	defer release()

	return c.update(ctx, id, fields)
}

func (c *Collection) update(ctx context.Context, id string, fields dto.UpdateTaskDTO) (models.Task, error) {
	if err := validation.Update(fields); err != nil {
		return models.Task{}, err
	}
	userID, epoch, err := c.currentUser(ctx)
	if err != nil {
		return models.Task{}, err
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	stored, err := c.api.UpdateTask(callCtx, id, fields)
	if err != nil {
		return models.Task{}, c.remoteFailure("update", epoch, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.sameSession(userID, epoch) {
		return models.Task{}, ErrSessionChanged
	}
	i := c.indexOf(id)
	if i < 0 {
		return *stored, nil
	}
	merged := c.tasks[i]
	fields.CopyChanged(&merged, *stored)
	merged.UpdatedAt = stored.UpdatedAt
	c.tasks[i] = merged
	return merged, nil
}

// Delete removes a task remotely, then locally.
func (c *Collection) Delete(ctx context.Context, id string) error {
	release, err := c.seq.acquire(ctx, id)
	if err != nil {
		return err
	}
	defer release()

	_, epoch, err := c.currentUser(ctx)
	if err != nil {
		return err
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.api.DeleteTask(callCtx, id); err != nil {
		return c.remoteFailure("delete", epoch, err)
	}

	c.mu.Lock()
	c.tasks = slices.DeleteFunc(c.tasks, func(t models.Task) bool { return t.ID == id })
	c.mu.Unlock()
	return nil
}

// ToggleStatus flips a loaded task between open and completed.
func (c *Collection) ToggleStatus(ctx context.Context, id string) (models.Task, error) {
	release, err := c.seq.acquire(ctx, id)
	if err != nil {
		return models.Task{}, err
	}
	defer release()

	c.mu.RLock()
	i := c.indexOf(id)
	var status models.TaskStatus
	if i >= 0 {
		status = c.tasks[i].Status.Toggle()
	}
	c.mu.RUnlock()
	if i < 0 {
		return models.Task{}, ErrTaskNotFound
	}

	return c.update(ctx, id, dto.UpdateTaskDTO{Status: &status})
}

// Reset forgets the session and the loaded tasks, e.g. after a sign-out.
// Requests still in flight no longer touch the collection.
func (c *Collection) Reset() {
	c.mu.Lock()
	c.tasks = []models.Task{}
	c.userID = ""
	c.epoch++
	c.mu.Unlock()
}

// Tasks returns a snapshot of the collection.
func (c *Collection) Tasks() []models.Task {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.tasks)
}

// Find returns a copy of one loaded task.
func (c *Collection) Find(id string) (models.Task, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if i := c.indexOf(id); i >= 0 {
		return c.tasks[i], true
	}
	return models.Task{}, false
}

func (c *Collection) Active() []models.Task {
	return c.partition(false)
}

func (c *Collection) Completed() []models.Task {
	return c.partition(true)
}

func (c *Collection) Counts() Counts {
	c.mu.RLock()
	defer c.mu.RUnlock()

	counts := Counts{All: len(c.tasks)}
	for _, t := range c.tasks {
		if t.IsCompleted() {
			counts.Completed++
		} else {
			counts.Active++
		}
	}
	return counts
}

func (c *Collection) partition(completed bool) []models.Task {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]models.Task, 0, len(c.tasks))
	for _, t := range c.tasks {
		if t.IsCompleted() == completed {
			out = append(out, t)
		}
	}
	return out
}

// indexOf requires c.mu.
func (c *Collection) indexOf(id string) int {
	return slices.IndexFunc(c.tasks, func(t models.Task) bool { return t.ID == id })
}

// currentUser resolves the session once and remembers it until the backend
// rejects it or the collection is reset. It returns the epoch the id belongs to.
func (c *Collection) currentUser(ctx context.Context) (string, uint64, error) {
	c.mu.RLock()
	userID, epoch := c.userID, c.epoch
	c.mu.RUnlock()
	if userID != "" {
		return userID, epoch, nil
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	user, err := c.api.CurrentUser(callCtx)
	if err != nil {
		return "", 0, c.remoteFailure("current user", epoch, err)
	}
	if user == nil {
		return "", 0, ErrNotAuthenticated
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.epoch != epoch {
		return "", 0, ErrSessionChanged
	}
	c.userID = user.ID
	return user.ID, epoch, nil
}

// sameSession requires c.mu.
func (c *Collection) sameSession(userID string, epoch uint64) bool {
	return c.epoch == epoch && c.userID == userID
}

func (c *Collection) remoteFailure(op string, epoch uint64, err error) error {
	if backend.IsUnauthorized(err) {
		c.mu.Lock()
		if c.epoch == epoch {
			c.userID = ""
		}
		c.mu.Unlock()
		return ErrNotAuthenticated
	}

	c.logger.Warn("task store operation failed", "op", op, "error", err)
	return &RemoteError{Op: op, Err: err}
}
