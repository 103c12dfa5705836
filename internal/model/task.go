package model

import (
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a task.
type Status string

const (
	StatusOpen     Status = "open"
	StatusAssigned Status = "assigned"
	StatusDone     Status = "done"
)

// Valid reports whether s is one of the known task statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusOpen, StatusAssigned, StatusDone:
		return true
	}
	return false
}

type Task struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Title        string    `gorm:"not null" json:"title"`
	Description  *string   `json:"description"`
	StartDate    *Day      `gorm:"type:date;index" json:"start_date" swaggertype:"string"`
	EndDate      *Day      `gorm:"type:date;index" json:"end_date" swaggertype:"string"`
	DueDate      *Day      `gorm:"type:date" json:"due_date" swaggertype:"string"`
	Status       Status    `gorm:"not null" json:"status"`
	AssigneeTeam *Team     `json:"assignee_team"`
	// AssigneeUserID is the legacy single-assignee reference. New writes go to
	// task_assignees; this column is only read as a fallback.
	AssigneeUserID *uuid.UUID `gorm:"type:uuid" json:"assignee_user_id"`
	CreatedBy      *uuid.UUID `gorm:"type:uuid" json:"created_by"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func (Task) TableName() string {
	return "task"
}
