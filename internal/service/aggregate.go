package service

import (
	"github.com/google/uuid"

	"teamtasks/internal/model"
)

// AssigneeState is one user's completion state on a task.
type AssigneeState struct {
	ID   uuid.UUID `json:"id"`
	Done bool      `json:"done"`
}

// TaskView is a task decorated with its resolved assignees.
type TaskView struct {
	model.Task
	Assignees []AssigneeState `json:"assignees"`
}

// HasAssignee reports whether userID is among the task's assignees.
func (v TaskView) HasAssignee(userID uuid.UUID) bool {
	for _, a := range v.Assignees {
		if a.ID == userID {
			return true
		}
	}
	return false
}

// Aggregate pairs every task with its assignment rows. Tasks keep their
// input order and assignees keep the order of rows. A task without rows
// falls back to its legacy single assignee, reported as not done.
func Aggregate(tasks []model.Task, rows []model.TaskAssignee) []TaskView {
	byTask := make(map[uuid.UUID][]AssigneeState, len(tasks))
	for _, row := range rows {
		byTask[row.TaskID] = append(byTask[row.TaskID], AssigneeState{ID: row.UserID, Done: row.IsDone})
	}

	views := make([]TaskView, 0, len(tasks))
	for _, task := range tasks {
		assignees := byTask[task.ID]
		if len(assignees) == 0 && task.AssigneeUserID != nil && *task.AssigneeUserID != uuid.Nil {
			assignees = []AssigneeState{{ID: *task.AssigneeUserID, Done: false}}
		}
		if assignees == nil {
			assignees = []AssigneeState{}
		}
		views = append(views, TaskView{Task: task, Assignees: assignees})
	}
	return views
}

// VisibleTo filters views down to what caller may read. Admins and captains
// see everything, members see tasks they are assigned to, anyone else
// sees nothing.
func VisibleTo(caller model.Identity, views []TaskView) []TaskView {
	switch caller.Role {
	case model.RoleAdmin, model.RoleCaptain:
		return views
	case model.RoleMember:
		visible := make([]TaskView, 0, len(views))
		for _, v := range views {
			if v.HasAssignee(caller.UserID) {
				visible = append(visible, v)
			}
		}
		return visible
	default:
		return []TaskView{}
	}
}
