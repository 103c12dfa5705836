package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"teamtasks/internal/model"
)

type AssigneeRepository struct {
	db *gorm.DB
}

func NewAssigneeRepository(db *gorm.DB) *AssigneeRepository {
	return &AssigneeRepository{db: db}
}

// ListByTaskIDs fetches the assignment rows of all given tasks in one query.
func (r *AssigneeRepository) ListByTaskIDs(ctx context.Context, taskIDs []uuid.UUID) ([]model.TaskAssignee, error) {
	var rows []model.TaskAssignee
	if len(taskIDs) == 0 {
		return rows, nil
	}
	err := r.db.WithContext(ctx).Where("task_id IN ?", taskIDs).Find(&rows).Error
	return rows, err
}

// Create inserts a single assignment row.
func (r *AssigneeRepository) Create(ctx context.Context, row *model.TaskAssignee) error {
	return r.db.WithContext(ctx).Create(row).Error
}

// Replace swaps the whole assignee set of a task: existing rows are deleted,
// the new ones inserted, and the legacy single-assignee column cleared so the
// new set is the only source of truth.
func (r *AssigneeRepository) Replace(ctx context.Context, taskID uuid.UUID, userIDs []uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("task_id = ?", taskID).Delete(&model.TaskAssignee{}).Error; err != nil {
			return err
		}

		if err := tx.Model(&model.Task{}).
			Where("id = ?", taskID).
			Update("assignee_user_id", nil).Error; err != nil {
			return err
		}

		if len(userIDs) == 0 {
			return nil
		}
		rows := make([]model.TaskAssignee, len(userIDs))
		for i, uid := range userIDs {
			rows[i] = model.TaskAssignee{TaskID: taskID, UserID: uid}
		}
		return tx.Create(&rows).Error
	})
}

// SetDone updates the completion flag of one assignment and reports how many
// rows matched.
func (r *AssigneeRepository) SetDone(ctx context.Context, taskID, userID uuid.UUID, done bool, at *time.Time) (int64, error) {
	var doneAt any
	if at != nil {
		doneAt = *at
	}
	result := r.db.WithContext(ctx).Model(&model.TaskAssignee{}).
		Where("task_id = ? AND user_id = ?", taskID, userID).
		Updates(map[string]any{
			"is_done": done,
			"done_at": doneAt,
		})
	return result.RowsAffected, result.Error
}

// Delete removes one assignment row.
func (r *AssigneeRepository) Delete(ctx context.Context, taskID, userID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("task_id = ? AND user_id = ?", taskID, userID).
		Delete(&model.TaskAssignee{})
	return result.RowsAffected, result.Error
}

// DeleteByTask removes every assignment row of a task.
func (r *AssigneeRepository) DeleteByTask(ctx context.Context, taskID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("task_id = ?", taskID).
		Delete(&model.TaskAssignee{})
	return result.RowsAffected, result.Error
}
