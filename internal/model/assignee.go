package model

import (
	"time"

	"github.com/google/uuid"
)

// TaskAssignee links a user to a task with its own completion flag,
// independent of the task's status.
type TaskAssignee struct {
	TaskID uuid.UUID  `gorm:"type:uuid;primaryKey" json:"task_id"`
	UserID uuid.UUID  `gorm:"type:uuid;primaryKey;index" json:"user_id"`
	IsDone bool       `gorm:"not null" json:"is_done"`
	DoneAt *time.Time `json:"done_at"`
}

func (TaskAssignee) TableName() string {
	return "task_assignees"
}
