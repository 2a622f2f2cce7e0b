package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/yukikurage/taskflow/internal/dto"
	"github.com/yukikurage/taskflow/internal/filter"
	"github.com/yukikurage/taskflow/internal/models"
	"github.com/yukikurage/taskflow/internal/repository"
	"github.com/yukikurage/taskflow/internal/validation"
	"gorm.io/gorm"
)

var (
	ErrTaskNotFound           = errors.New("task not found")
	ErrForeignOwner           = errors.New("task must belong to the authenticated user")
	ErrEmptyUpdate            = errors.New("no fields to update")
	ErrAIServiceNotConfigured = errors.New("AI service is not configured")
	ErrAINoTasksGenerated     = errors.New("AI did not generate any tasks")
)

// TaskService handles task business logic. Every operation is scoped to userID.
type TaskService struct {
	taskRepo  repository.TaskRepository
	stats     *StatsService
	aiService *AIService
	logger    *slog.Logger
	now       func() time.Time
}

// NewTaskService creates a new TaskService. stats and aiService may be nil.
func NewTaskService(taskRepo repository.TaskRepository, stats *StatsService, aiService *AIService, logger *slog.Logger) *TaskService {
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskService{
		taskRepo:  taskRepo,
		stats:     stats,
		aiService: aiService,
		logger:    logger,
		now:       time.Now,
	}
}

// ListTasks returns all of the user's tasks in the given order
func (s *TaskService) ListTasks(userID string, order repository.TaskOrder) ([]models.Task, error) {
	tasks, err := s.taskRepo.ListByUser(userID, order)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

// ViewTasks runs the filter engine over the user's tasks
func (s *TaskService) ViewTasks(userID string, cfg filter.Config) (filter.Result, error) {
	tasks, err := s.ListTasks(userID, repository.OrderByDueDate)
	if err != nil {
		return filter.Result{}, err
	}
	return filter.Apply(tasks, cfg), nil
}

// GetTask returns one of the user's tasks
func (s *TaskService) GetTask(userID, taskID string) (*models.Task, error) {
	task, err := s.taskRepo.FindByID(userID, taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	return task, nil
}

// CreateTask inserts a row for the user. The server owns id, status and timestamps.
func (s *TaskService) CreateTask(ctx context.Context, userID string, row dto.NewTaskRow) (*models.Task, error) {
	if row.UserID != "" && row.UserID != userID {
		return nil, ErrForeignOwner
	}

	input := row.CreateTaskDTO
	input.Title = strings.TrimSpace(input.Title)
	if input.Priority == "" {
		input.Priority = models.PriorityMedium
	}
	if err := validation.Task(input); err != nil {
		return nil, err
	}

	task := input.NewRow(userID).ToTask()
	if err := s.taskRepo.Create(&task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	s.invalidateStats(ctx, userID)
	return &task, nil
}

// UpdateTask applies a partial update and returns the stored row
func (s *TaskService) UpdateTask(ctx context.Context, userID, taskID string, input dto.UpdateTaskDTO) (*models.Task, error) {
	if input.IsEmpty() {
		return nil, ErrEmptyUpdate
	}
	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		input.Title = &title
	}
	if err := validation.Update(input); err != nil {
		return nil, err
	}

	task, err := s.GetTask(userID, taskID)
	if err != nil {
		return nil, err
	}

	if err := s.taskRepo.Update(task, input.Columns()); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	s.invalidateStats(ctx, userID)
	return s.GetTask(userID, taskID)
}

// ToggleTaskStatus flips a task between open and completed
func (s *TaskService) ToggleTaskStatus(ctx context.Context, userID, taskID string) (*models.Task, error) {
	task, err := s.GetTask(userID, taskID)
	if err != nil {
		return nil, err
	}

	next := task.Status.Toggle()
	return s.UpdateTask(ctx, userID, taskID, dto.UpdateTaskDTO{Status: &next})
}

// DeleteTask hard deletes one of the user's tasks
func (s *TaskService) DeleteTask(ctx context.Context, userID, taskID string) error {
	if err := s.taskRepo.Delete(userID, taskID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTaskNotFound
		}
		return fmt.Errorf("failed to delete task: %w", err)
	}

	s.invalidateStats(ctx, userID)
	return nil
}

// GenerateTasks asks the AI for task drafts. Nothing is persisted.
func (s *TaskService) GenerateTasks(ctx context.Context, text string) ([]dto.CreateTaskDTO, error) {
	if s.aiService == nil {
		return nil, ErrAIServiceNotConfigured
	}

	drafts, err := s.aiService.SuggestTasks(ctx, text, s.now())
	if err != nil {
		return nil, fmt.Errorf("failed to generate tasks: %w", err)
	}
	if len(drafts) == 0 {
		return nil, ErrAINoTasksGenerated
	}
	return drafts, nil
}

func (s *TaskService) invalidateStats(ctx context.Context, userID string) {
	if s.stats == nil {
		return
	}
	if err := s.stats.Invalidate(ctx, userID); err != nil {
		s.logger.Warn("stats cache invalidation failed", "user_id", userID, "error", err)
	}
}
