package backend

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/taskflow/internal/constants"
	"github.com/yukikurage/taskflow/internal/database"
	"github.com/yukikurage/taskflow/internal/dto"
	"github.com/yukikurage/taskflow/internal/handlers"
	"github.com/yukikurage/taskflow/internal/models"
	"github.com/yukikurage/taskflow/internal/services"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.OpenInMemory()
	require.NoError(t, err)

	r := gin.New()
	r.Use(sessions.Sessions(constants.SessionCookieName, cookie.NewStore([]byte("secret"))))
	handlers.RegisterRoutes(r, handlers.NewServices(db, services.NewTokenManager("test-secret", time.Hour), handlers.Options{}))

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_AuthFlow(t *testing.T) {
	srv := newTestServer(t)
	client := NewClient(srv.URL+"/", nil)
	ctx := context.Background()

	user, err := client.CurrentUser(ctx)
	require.NoError(t, err)
	assert.Nil(t, user, "no session yet")

	session, err := client.SignUp(ctx, "alice@example.com", "supersecret")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", session.User.Email)
	assert.Equal(t, session.Token, client.Token())

	_, err = client.SignUp(ctx, "alice@example.com", "supersecret")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusConflict, apiErr.Status)
	assert.Equal(t, "email already registered", err.Error())

	require.NoError(t, client.SignOut(ctx))
	assert.Empty(t, client.Token())

	_, err = client.SignIn(ctx, "alice@example.com", "wrong-password")
	assert.True(t, IsUnauthorized(err))

	session, err = client.SignIn(ctx, "alice@example.com", "supersecret")
	require.NoError(t, err)

	user, err = client.CurrentUser(ctx)
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, session.User, *user)

	t.Run("restored token", func(t *testing.T) {
		restored := NewClient(srv.URL, srv.Client())
		restored.SetToken(session.Token)

		user, err := restored.CurrentUser(ctx)
		require.NoError(t, err)
		require.NotNil(t, user)
		assert.Equal(t, session.User.ID, user.ID)
	})

	t.Run("expired or foreign token reads as no session", func(t *testing.T) {
		stale := NewClient(srv.URL, nil)
		stale.SetToken("stale-token")

		user, err := stale.CurrentUser(ctx)
		require.NoError(t, err)
		assert.Nil(t, user)
	})
}

func TestClient_TaskCalls(t *testing.T) {
	srv := newTestServer(t)
	client := NewClient(srv.URL, nil)
	ctx := context.Background()

	session, err := client.SignUp(ctx, "bob@example.com", "supersecret")
	require.NoError(t, err)

	first, err := client.InsertTask(ctx, dto.CreateTaskDTO{
		Title: "Pay bills", DueDate: "2030-01-05", Priority: models.PriorityHigh, Category: "Work",
	}.NewRow(session.User.ID))
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID)
	assert.Equal(t, models.TaskStatusOpen, first.Status)
	assert.Equal(t, session.User.ID, first.UserID)

	second, err := client.InsertTask(ctx, dto.CreateTaskDTO{
		Title: "Book flights", DueDate: "2030-01-01", Priority: models.PriorityLow,
	}.NewRow(session.User.ID))
	require.NoError(t, err)

	byDue, err := client.SelectTasks(ctx, OrderByDueDate)
	require.NoError(t, err)
	require.Len(t, byDue, 2)
	assert.Equal(t, second.ID, byDue[0].ID)

	byCreated, err := client.SelectTasks(ctx, OrderByCreatedDesc)
	require.NoError(t, err)
	require.Len(t, byCreated, 2)
	assert.Equal(t, second.ID, byCreated[0].ID)

	status := models.TaskStatusCompleted
	updated, err := client.UpdateTask(ctx, first.ID, dto.UpdateTaskDTO{Status: &status})
	require.NoError(t, err)
	assert.Equal(t, models.TaskStatusCompleted, updated.Status)
	assert.Equal(t, "Pay bills", updated.Title)

	title := "x"
	_, err = client.UpdateTask(ctx, first.ID, dto.UpdateTaskDTO{Title: &title})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "VALIDATION_FAILED", apiErr.Code)
	assert.Contains(t, apiErr.Details, "title")

	require.NoError(t, client.DeleteTask(ctx, first.ID))
	err = client.DeleteTask(ctx, first.ID)
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)

	_, err = client.SuggestTasks(ctx, "call the plumber tomorrow")
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusServiceUnavailable, apiErr.Status)
}

func TestClient_NonJSONError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream unavailable", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, nil).SelectTasks(context.Background(), OrderByDueDate)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
	assert.Equal(t, "Bad Gateway", err.Error())
}

func TestClient_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	client := NewClient(srv.URL, nil)
	client.SetToken("token")

	_, err := client.SelectTasks(context.Background(), OrderByDueDate)
	assert.Error(t, err)
	assert.NoError(t, client.SignOut(context.Background()))
	assert.Empty(t, client.Token())
}
