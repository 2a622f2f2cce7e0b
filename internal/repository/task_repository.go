package repository

import (
	"fmt"

	"github.com/yukikurage/taskflow/internal/models"
	"gorm.io/gorm"
)

// GormTaskRepository is a GORM implementation of TaskRepository
type GormTaskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new TaskRepository
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &GormTaskRepository{db: db}
}

// Create inserts a new task
func (r *GormTaskRepository) Create(task *models.Task) error {
	return r.db.Create(task).Error
}

// FindByID finds one of the user's tasks
func (r *GormTaskRepository) FindByID(userID, id string) (*models.Task, error) {
	var task models.Task
	if err := r.db.Where("id = ? AND user_id = ?", id, userID).First(&task).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

// ListByUser lists all tasks of a user in the given order
func (r *GormTaskRepository) ListByUser(userID string, order TaskOrder) ([]models.Task, error) {
	query := r.db.Where("user_id = ?", userID)

	switch order {
	case OrderByDueDate, "":
		query = query.Order("due_date ASC").Order("created_at ASC")
	case OrderByCreatedDesc:
		query = query.Order("created_at DESC")
	default:
		return nil, fmt.Errorf("unknown task order %q", order)
	}

	tasks := []models.Task{}
	if err := query.Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

// Update writes the given columns; gorm stamps updated_at
func (r *GormTaskRepository) Update(task *models.Task, columns map[string]any) error {
	result := r.db.Model(task).Where("user_id = ?", task.UserID).Updates(columns)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete hard deletes one of the user's tasks
func (r *GormTaskRepository) Delete(userID, id string) error {
	result := r.db.Where("id = ? AND user_id = ?", id, userID).Delete(&models.Task{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
