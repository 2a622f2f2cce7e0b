package taskstore

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/taskflow/internal/backend"
	"github.com/yukikurage/taskflow/internal/dto"
	"github.com/yukikurage/taskflow/internal/models"
	"github.com/yukikurage/taskflow/internal/validation"
)

func seeded(t *testing.T) (*Collection, *fakeBackend, []models.Task) {
	t.Helper()
	api := newFakeBackend()
	c := New(api, Options{})
	ctx := context.Background()

	var created []models.Task
	for _, in := range []dto.CreateTaskDTO{
		{Title: "Write report", DueDate: "2025-03-04", Priority: models.PriorityHigh, Category: "Work"},
		{Title: "Buy milk", DueDate: "2025-03-02", Priority: models.PriorityLow, Category: "Shopping"},
		{Title: "Run", DueDate: "2025-03-03", Priority: models.PriorityMedium},
	} {
		task, err := c.Create(ctx, in)
		require.NoError(t, err)
		created = append(created, task)
	}
	return c, api, created
}

func TestCollection_CreateThenLoad(t *testing.T) {
	c := New(newFakeBackend(), Options{})
	ctx := context.Background()

	created, err := c.Create(ctx, dto.CreateTaskDTO{Title: "X", DueDate: "2099-01-01", Priority: models.PriorityLow})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, models.TaskStatusOpen, created.Status)
	assert.Equal(t, "user-1", created.UserID)

	require.NoError(t, c.Load(ctx, backend.OrderByDueDate))

	tasks := c.Tasks()
	require.Len(t, tasks, 1)
	assert.Equal(t, "X", tasks[0].Title)
	assert.Equal(t, models.TaskStatusOpen, tasks[0].Status)
	assert.Equal(t, created.ID, tasks[0].ID)
}

func TestCollection_LoadOrder(t *testing.T) {
	c, _, created := seeded(t)
	ctx := context.Background()

	require.NoError(t, c.Load(ctx, backend.OrderByDueDate))
	titles := func() []string {
		var out []string
		for _, task := range c.Tasks() {
			out = append(out, task.Title)
		}
		return out
	}
	assert.Equal(t, []string{"Buy milk", "Run", "Write report"}, titles())

	require.NoError(t, c.Load(ctx, backend.OrderByCreatedDesc))
	assert.Equal(t, []string{"Run", "Buy milk", "Write report"}, titles())
	assert.Len(t, created, 3)
}

func TestCollection_StatusPartition(t *testing.T) {
	c, _, created := seeded(t)
	ctx := context.Background()

	_, err := c.ToggleStatus(ctx, created[1].ID)
	require.NoError(t, err)

	active, completed := c.Active(), c.Completed()
	counts := c.Counts()
	assert.Equal(t, Counts{All: 3, Active: 2, Completed: 1}, counts)
	assert.Equal(t, counts.All, len(active)+len(completed))

	for _, a := range active {
		for _, d := range completed {
			assert.NotEqual(t, a.ID, d.ID)
		}
	}
}

func TestCollection_UpdateLeavesOtherTasksUntouched(t *testing.T) {
	c, _, created := seeded(t)
	before := c.Tasks()

	priority := models.PriorityLow
	updated, err := c.Update(context.Background(), created[0].ID, dto.UpdateTaskDTO{Priority: &priority})
	require.NoError(t, err)
	assert.Equal(t, models.PriorityLow, updated.Priority)
	assert.True(t, updated.UpdatedAt.After(before[0].UpdatedAt), "takes the server's updated_at")

	after := c.Tasks()
	require.Len(t, after, len(before))
	assert.Equal(t, before[1:], after[1:])

	expected := before[0]
	expected.Priority = models.PriorityLow
	expected.UpdatedAt = updated.UpdatedAt
	assert.Equal(t, expected, after[0])
}

func TestCollection_FailedMutationsLeaveStateUntouched(t *testing.T) {
	c, api, created := seeded(t)
	ctx := context.Background()
	before := c.Tasks()

	api.updateErr = &backend.APIError{Status: http.StatusBadRequest, Code: "VALIDATION_FAILED", Message: "Validation failed"}
	title := "Renamed"
	_, err := c.Update(ctx, created[0].ID, dto.UpdateTaskDTO{Title: &title})

	var remoteErr *RemoteError
	require.ErrorAs(t, err, &remoteErr)
	assert.Equal(t, "update", remoteErr.Op)
	assert.Equal(t, "Validation failed", err.Error())
	assert.Equal(t, before, c.Tasks())

	_, err = c.ToggleStatus(ctx, created[0].ID)
	require.ErrorAs(t, err, &remoteErr)
	assert.Equal(t, before, c.Tasks())

	api.deleteErr = errors.New("connection refused")
	err = c.Delete(ctx, created[1].ID)
	require.ErrorAs(t, err, &remoteErr)
	assert.Equal(t, "connection refused", err.Error())
	assert.Equal(t, before, c.Tasks())
}

func TestCollection_FailedLoadKeepsLastKnown(t *testing.T) {
	c, api, _ := seeded(t)
	ctx := context.Background()
	require.NoError(t, c.Load(ctx, backend.OrderByDueDate))
	before := c.Tasks()

	api.selectErr = errors.New("relation \"tasks\" does not exist")
	err := c.Load(ctx, backend.OrderByDueDate)

	var remoteErr *RemoteError
	require.ErrorAs(t, err, &remoteErr)
	assert.Equal(t, `relation "tasks" does not exist`, err.Error())
	assert.Equal(t, before, c.Tasks())
}

func TestCollection_Delete(t *testing.T) {
	c, _, created := seeded(t)
	ctx := context.Background()

	require.NoError(t, c.Delete(ctx, created[0].ID))
	_, found := c.Find(created[0].ID)
	assert.False(t, found)
	assert.Equal(t, 2, c.Counts().All)

	require.NoError(t, c.Load(ctx, backend.OrderByDueDate))
	assert.Equal(t, 2, c.Counts().All)
}

func TestCollection_ToggleRoundTrip(t *testing.T) {
	c, _, created := seeded(t)
	ctx := context.Background()

	task, err := c.ToggleStatus(ctx, created[2].ID)
	require.NoError(t, err)
	assert.Equal(t, models.TaskStatusCompleted, task.Status)

	task, err = c.ToggleStatus(ctx, created[2].ID)
	require.NoError(t, err)
	assert.Equal(t, models.TaskStatusOpen, task.Status)

	_, err = c.ToggleStatus(ctx, "missing")
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

func TestCollection_NotAuthenticated(t *testing.T) {
	api := newFakeBackend()
	api.user = nil
	c := New(api, Options{})
	ctx := context.Background()

	assert.ErrorIs(t, c.Load(ctx, backend.OrderByDueDate), ErrNotAuthenticated)

	_, err := c.Create(ctx, dto.CreateTaskDTO{Title: "X", DueDate: "2099-01-01"})
	assert.ErrorIs(t, err, ErrNotAuthenticated)
	assert.Zero(t, api.inserts)
	assert.Zero(t, api.selects)
}

func TestCollection_RejectedSessionBecomesNotAuthenticated(t *testing.T) {
	c, api, _ := seeded(t)

	api.selectErr = &backend.APIError{Status: http.StatusUnauthorized, Code: "UNAUTHORIZED", Message: "token has expired"}
	assert.ErrorIs(t, c.Load(context.Background(), backend.OrderByDueDate), ErrNotAuthenticated)

	api.selectErr = nil
	api.user = nil
	assert.ErrorIs(t, c.Load(context.Background(), backend.OrderByDueDate), ErrNotAuthenticated)
}

func TestCollection_CreateValidatesBeforeNetwork(t *testing.T) {
	api := newFakeBackend()
	c := New(api, Options{})

	_, err := c.Create(context.Background(), dto.CreateTaskDTO{Title: "   ", DueDate: ""})
	assert.ErrorIs(t, err, validation.ErrValidationFailed)

	var fields validation.Errors
	require.ErrorAs(t, err, &fields)
	assert.Equal(t, "is required", fields["title"])
	assert.Equal(t, "is required", fields["due_date"])
	assert.Zero(t, api.inserts)
	assert.Empty(t, c.Tasks())
}

func TestCollection_MutationsOnOneTaskRunInSubmissionOrder(t *testing.T) {
	c, api, created := seeded(t)
	id := created[0].ID

	entered := make(chan struct{}, 2)
	release := make(chan struct{})
	api.updateHook = func(ctx context.Context) error {
		entered <- struct{}{}
		<-release
		return nil
	}

	first, second := "First title", "Second title"
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, err := c.Update(context.Background(), id, dto.UpdateTaskDTO{Title: &first})
		assert.NoError(t, err)
	}()
	<-entered

	go func() {
		defer wg.Done()
		_, err := c.Update(context.Background(), id, dto.UpdateTaskDTO{Title: &second})
		assert.NoError(t, err)
	}()

	select {
	case <-entered:
		t.Fatal("second update reached the backend before the first finished")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	wg.Wait()

	require.Len(t, api.updates, 2)
	assert.Equal(t, first, *api.updates[0].Title)
	assert.Equal(t, second, *api.updates[1].Title)

	task, found := c.Find(id)
	require.True(t, found)
	assert.Equal(t, second, task.Title)
}

func TestCollection_QueuedMutationHonoursCancellation(t *testing.T) {
	c, api, created := seeded(t)
	id := created[0].ID

	entered := make(chan struct{}, 1)
	release := make(chan struct{})
	api.updateHook = func(ctx context.Context) error {
		select {
		case entered <- struct{}{}:
		default:
		}
		<-release
		return nil
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		title := "Slow"
		_, _ = c.Update(context.Background(), id, dto.UpdateTaskDTO{Title: &title})
	}()
	<-entered

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := c.Delete(ctx, id)
	assert.ErrorIs(t, err, context.Canceled)

	close(release)
	<-done

	api.updateHook = nil
	require.NoError(t, c.Delete(context.Background(), id))
}

func TestCollection_RequestTimeout(t *testing.T) {
	api := newFakeBackend()
	api.selectBlock = make(chan struct{})
	c := New(api, Options{RequestTimeout: 20 * time.Millisecond})

	err := c.Load(context.Background(), backend.OrderByDueDate)

	var remoteErr *RemoteError
	require.ErrorAs(t, err, &remoteErr)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestCollection_ConcurrentLoadsCollapse(t *testing.T) {
	c, api, _ := seeded(t)
	api.selectBlock = make(chan struct{})

	var wg sync.WaitGroup
	for range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, c.Load(context.Background(), backend.OrderByDueDate))
		}()
	}

	time.Sleep(50 * time.Millisecond)
	close(api.selectBlock)
	wg.Wait()

	assert.Equal(t, 1, api.selects)
	assert.Equal(t, 3, c.Counts().All)
}

func TestCollection_Reset(t *testing.T) {
	c, api, _ := seeded(t)
	c.Reset()
	assert.Empty(t, c.Tasks())

	api.user = &dto.UserDTO{ID: "user-2"}
	_, err := c.Create(context.Background(), dto.CreateTaskDTO{Title: "Theirs", DueDate: "2099-01-01"})
	require.NoError(t, err)
	assert.Equal(t, "user-2", c.Tasks()[0].UserID)
}

func TestCollection_ResetDropsInFlightLoad(t *testing.T) {
	c, api, _ := seeded(t)
	api.selectBlock = make(chan struct{})

	stale := make(chan error, 1)
	go func() { stale <- c.Load(context.Background(), backend.OrderByDueDate) }()
	require.Eventually(t, func() bool { return api.selectCount() == 1 }, time.Second, time.Millisecond)

	c.Reset()
	api.switchUser("user-2")
	api.mu.Lock()
	api.rows = append(api.rows, models.Task{ID: "theirs", UserID: "user-2", Title: "Theirs", DueDate: "2025-03-05"})
	api.mu.Unlock()

	fresh := make(chan error, 1)
	go func() { fresh <- c.Load(context.Background(), backend.OrderByDueDate) }()
	require.Eventually(t, func() bool { return api.selectCount() == 2 }, time.Second, time.Millisecond,
		"a load after Reset must not join the old request")

	close(api.selectBlock)
	assert.ErrorIs(t, <-stale, ErrSessionChanged)
	require.NoError(t, <-fresh)

	tasks := c.Tasks()
	require.Len(t, tasks, 1)
	assert.Equal(t, "user-2", tasks[0].UserID)
}

func TestCollection_ResetDropsInFlightMutations(t *testing.T) {
	c, api, created := seeded(t)

	entered := make(chan struct{}, 1)
	release := make(chan struct{})
	api.updateHook = func(ctx context.Context) error {
		entered <- struct{}{}
		<-release
		return nil
	}
	api.insertBlock = make(chan struct{})

	updateErr := make(chan error, 1)
	go func() {
		title := "Renamed"
		_, err := c.Update(context.Background(), created[0].ID, dto.UpdateTaskDTO{Title: &title})
		updateErr <- err
	}()
	createErr := make(chan error, 1)
	go func() {
		_, err := c.Create(context.Background(), dto.CreateTaskDTO{Title: "Late", DueDate: "2099-01-01"})
		createErr <- err
	}()
	<-entered
	require.Eventually(t, func() bool {
		api.mu.Lock()
		defer api.mu.Unlock()
		return api.inserts == 4
	}, time.Second, time.Millisecond)

	c.Reset()
	close(release)
	close(api.insertBlock)

	assert.ErrorIs(t, <-updateErr, ErrSessionChanged)
	assert.ErrorIs(t, <-createErr, ErrSessionChanged)
	assert.Empty(t, c.Tasks())
}

func TestCollection_CancelledLoadDoesNotFailSharedCallers(t *testing.T) {
	c, api, _ := seeded(t)
	api.selectBlock = make(chan struct{})

	ctxA, cancelA := context.WithCancel(context.Background())
	errA := make(chan error, 1)
	go func() { errA <- c.Load(ctxA, backend.OrderByDueDate) }()
	require.Eventually(t, func() bool { return api.selectCount() == 1 }, time.Second, time.Millisecond)

	errB := make(chan error, 1)
	go func() { errB <- c.Load(context.Background(), backend.OrderByDueDate) }()
	time.Sleep(20 * time.Millisecond)

	cancelA()
	assert.ErrorIs(t, <-errA, context.Canceled)

	close(api.selectBlock)
	require.NoError(t, <-errB)
	assert.Equal(t, 1, api.selectCount())
	assert.Equal(t, 3, c.Counts().All)
}
