package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/taskflow/internal/dto"
	apierrors "github.com/yukikurage/taskflow/internal/errors"
	"github.com/yukikurage/taskflow/internal/filter"
	"github.com/yukikurage/taskflow/internal/middleware"
	"github.com/yukikurage/taskflow/internal/repository"
	"github.com/yukikurage/taskflow/internal/services"
	"github.com/yukikurage/taskflow/internal/validation"
)

type TaskHandler struct {
	taskService  *services.TaskService
	statsService *services.StatsService
}

func NewTaskHandler(taskService *services.TaskService, statsService *services.StatsService) *TaskHandler {
	return &TaskHandler{
		taskService:  taskService,
		statsService: statsService,
	}
}

// ListTasks returns all of the current user's tasks
// ?order=due_date (default) or ?order=created_at
func (h *TaskHandler) ListTasks(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	order := repository.TaskOrder(c.DefaultQuery("order", string(repository.OrderByDueDate)))
	if order != repository.OrderByDueDate && order != repository.OrderByCreatedDesc {
		apierrors.BadRequest(c, "order must be due_date or created_at")
		return
	}

	tasks, err := h.taskService.ListTasks(userID, order)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.TaskListResponse{Tasks: tasks})
}

// ViewTasks returns the filtered and sorted task view
func (h *TaskHandler) ViewTasks(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	cfg, err := filter.ParseConfig(c.Query("status"), c.Query("category"), c.Query("search"), c.Query("sort"))
	if err != nil {
		apierrors.BadRequest(c, err.Error())
		return
	}

	result, err := h.taskService.ViewTasks(userID, cfg)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.TaskViewResponse{
		Tasks:            result.Tasks,
		Total:            result.Total,
		Filtered:         result.Filtered,
		HasActiveFilters: result.HasActiveFilters,
	})
}

// GetStats returns the dashboard statistics of the current user
func (h *TaskHandler) GetStats(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	dashboard, err := h.statsService.Dashboard(c.Request.Context(), userID)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dashboard)
}

// CreateTask inserts a task owned by the current user
func (h *TaskHandler) CreateTask(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var row dto.NewTaskRow
	if err := c.ShouldBindJSON(&row); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	task, err := h.taskService.CreateTask(c.Request.Context(), userID, row)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusCreated, task)
}

// GetTask returns a specific task
// Task is already loaded by RequireTaskOwner middleware
func (h *TaskHandler) GetTask(c *gin.Context) {
	task, ok := middleware.GetTask(c)
	if !ok {
		apierrors.NotFound(c, "Task not found")
		return
	}

	c.JSON(http.StatusOK, task)
}

// UpdateTask applies a partial update
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var input dto.UpdateTaskDTO
	if err := c.ShouldBindJSON(&input); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	task, err := h.taskService.UpdateTask(c.Request.Context(), userID, c.Param("id"), input)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, task)
}

// ToggleTask flips a task between open and completed
func (h *TaskHandler) ToggleTask(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	task, err := h.taskService.ToggleTaskStatus(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, task)
}

// DeleteTask hard deletes a task
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	if err := h.taskService.DeleteTask(c.Request.Context(), userID, c.Param("id")); err != nil {
		respondTaskError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// GenerateTasks returns AI task drafts for free text. Drafts are not saved.
func (h *TaskHandler) GenerateTasks(c *gin.Context) {
	var req struct {
		Text string `json:"text" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "text is required")
		return
	}

	drafts, err := h.taskService.GenerateTasks(c.Request.Context(), req.Text)
	if err != nil {
		if errors.Is(err, services.ErrAINoTasksGenerated) {
			c.JSON(http.StatusOK, dto.GenerateTasksResponse{Tasks: []dto.CreateTaskDTO{}})
			return
		}
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.GenerateTasksResponse{Tasks: drafts})
}

func respondTaskError(c *gin.Context, err error) {
	var fields validation.Errors
	switch {
	case errors.As(err, &fields):
		apierrors.ValidationFailed(c, fields)
	case errors.Is(err, services.ErrTaskNotFound):
		apierrors.NotFound(c, "Task not found")
	case errors.Is(err, services.ErrForeignOwner),
		errors.Is(err, services.ErrEmptyUpdate):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrAIServiceNotConfigured):
		apierrors.ServiceUnavailable(c, err.Error())
	default:
		slog.Error("task request failed", "path", c.FullPath(), "error", err)
		apierrors.InternalError(c, "")
	}
}
