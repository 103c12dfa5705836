package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"teamtasks/internal/model"
)

// TaskFilter narrows a task listing. Empty fields do not filter.
type TaskFilter struct {
	Status model.Status
	Team   model.Team
	// From keeps tasks starting on or after this day.
	From string
	// To keeps tasks ending on or before this day.
	To string
}

type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// Create inserts a task together with its assignment rows in one transaction.
func (r *TaskRepository) Create(ctx context.Context, task *model.Task, assignees []model.TaskAssignee) error {
	if task.ID == uuid.Nil {
		task.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(task).Error; err != nil {
			return err
		}
		if len(assignees) == 0 {
			return nil
		}
		for i := range assignees {
			assignees[i].TaskID = task.ID
		}
		return tx.Create(&assignees).Error
	})
}

// GetByID retrieves a task by its ID
func (r *TaskRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Task, error) {
	var task model.Task
	result := r.db.WithContext(ctx).First(&task, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, result.Error
	}
	return &task, nil
}

// List returns tasks matching the filter, newest first.
func (r *TaskRepository) List(ctx context.Context, filter TaskFilter) ([]model.Task, error) {
	q := r.db.WithContext(ctx).Model(&model.Task{})
	if filter.Status != "" {
		q = q.Where("status = ?", string(filter.Status))
	}
	if filter.Team != "" {
		q = q.Where("assignee_team = ?", string(filter.Team))
	}
	if filter.From != "" {
		q = q.Where("start_date >= ?", filter.From)
	}
	if filter.To != "" {
		q = q.Where("end_date <= ?", filter.To)
	}

	var tasks []model.Task
	if err := q.Order("created_at DESC").Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

// Update applies a partial update. Only the given columns are written;
// a nil value clears the column.
func (r *TaskRepository) Update(ctx context.Context, id uuid.UUID, fields map[string]any) error {
	result := r.db.WithContext(ctx).Model(&model.Task{}).
		Where("id = ?", id).
		Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrTaskNotFound
	}
	return nil
}

// Delete removes a task by its ID
func (r *TaskRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&model.Task{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrTaskNotFound
	}
	return nil
}
