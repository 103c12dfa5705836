package service

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/oapi-codegen/nullable"

	"teamtasks/internal/datefmt"
	"teamtasks/internal/model"
	"teamtasks/internal/repository"
)

// TaskStore is the task record store.
type TaskStore interface {
	Create(ctx context.Context, task *model.Task, assignees []model.TaskAssignee) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Task, error)
	List(ctx context.Context, filter repository.TaskFilter) ([]model.Task, error)
	Update(ctx context.Context, id uuid.UUID, fields map[string]any) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// AssigneeStore is the task/user assignment store.
type AssigneeStore interface {
	ListByTaskIDs(ctx context.Context, taskIDs []uuid.UUID) ([]model.TaskAssignee, error)
	Create(ctx context.Context, row *model.TaskAssignee) error
	Replace(ctx context.Context, taskID uuid.UUID, userIDs []uuid.UUID) error
	SetDone(ctx context.Context, taskID, userID uuid.UUID, done bool, at *time.Time) (int64, error)
	Delete(ctx context.Context, taskID, userID uuid.UUID) (int64, error)
	DeleteByTask(ctx context.Context, taskID uuid.UUID) (int64, error)
}

// ListQuery holds the raw list filters as received from the client.
type ListQuery struct {
	Status string
	Team   string
	From   string
	To     string
}

// CreateTaskInput is the body of a task creation. Dates accept anything
// the date normalizer understands.
type CreateTaskInput struct {
	Title           string   `json:"title" example:"Assemble gearbox"`
	Description     *string  `json:"description"`
	StartDate       any      `json:"start_date" swaggertype:"string" example:"2025-01-01"`
	EndDate         any      `json:"end_date" swaggertype:"string" example:"2025-01-05"`
	DueDate         any      `json:"due_date" swaggertype:"string"`
	Status          string   `json:"status" example:"open"`
	AssigneeTeam    *string  `json:"assignee_team" example:"mekanik"`
	AssigneeUserIDs []string `json:"assignee_user_ids"`
}

// UpdateTaskInput is a partial update. Only keys present in the JSON body
// are applied; an explicit null clears the column.
type UpdateTaskInput struct {
	ID              string                      `json:"id,omitempty"`
	Title           nullable.Nullable[string]   `json:"title" swaggertype:"string"`
	Description     nullable.Nullable[string]   `json:"description" swaggertype:"string"`
	StartDate       nullable.Nullable[any]      `json:"start_date" swaggertype:"string"`
	EndDate         nullable.Nullable[any]      `json:"end_date" swaggertype:"string"`
	DueDate         nullable.Nullable[any]      `json:"due_date" swaggertype:"string"`
	Status          nullable.Nullable[string]   `json:"status" swaggertype:"string"`
	AssigneeTeam    nullable.Nullable[string]   `json:"assignee_team" swaggertype:"string"`
	AssigneeUserIDs nullable.Nullable[[]string] `json:"assignee_user_ids" swaggertype:"array,string"`
}

type TaskService struct {
	tasks     TaskStore
	assignees AssigneeStore
	dates     *datefmt.Normalizer
	now       func() time.Time
}

func NewTaskService(tasks TaskStore, assignees AssigneeStore, dates *datefmt.Normalizer) *TaskService {
	if dates == nil {
		dates = datefmt.New(time.Local)
	}
	return &TaskService{
		tasks:     tasks,
		assignees: assignees,
		dates:     dates,
		now:       time.Now,
	}
}

// SetClock replaces the time source used for completion timestamps.
func (s *TaskService) SetClock(now func() time.Time) {
	s.now = now
}

// List returns the decorated tasks matching q that caller may see.
func (s *TaskService) List(ctx context.Context, caller model.Identity, q ListQuery) ([]TaskView, error) {
	filter, err := s.parseFilter(q)
	if err != nil {
		return nil, err
	}

	tasks, err := s.tasks.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if len(tasks) == 0 {
		return []TaskView{}, nil
	}

	ids := make([]uuid.UUID, len(tasks))
	for i, t := range tasks {
		ids[i] = t.ID
	}
	rows, err := s.assignees.ListByTaskIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	return VisibleTo(caller, Aggregate(tasks, rows)), nil
}

func (s *TaskService) parseFilter(q ListQuery) (repository.TaskFilter, error) {
	var filter repository.TaskFilter
	if q.From != "" {
		day, ok := s.dates.Normalize(q.From)
		if !ok {
			return filter, invalid("Invalid 'from' date")
		}
		filter.From = day
	}
	if q.To != "" {
		day, ok := s.dates.Normalize(q.To)
		if !ok {
			return filter, invalid("Invalid 'to' date")
		}
		filter.To = day
	}
	if q.Status != "" {
		status := model.Status(q.Status)
		if !status.Valid() {
			return filter, invalid("Invalid 'status' value")
		}
		filter.Status = status
	}
	if q.Team != "" {
		team := model.Team(q.Team)
		if !team.Valid() {
			return filter, invalid("Invalid 'team' value")
		}
		filter.Team = team
	}
	return filter, nil
}

// Get returns one decorated task. Tasks the caller may not see are reported
// as not found.
func (s *TaskService) Get(ctx context.Context, caller model.Identity, id uuid.UUID) (*TaskView, error) {
	view, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(VisibleTo(caller, []TaskView{*view})) == 0 {
		return nil, repository.ErrTaskNotFound
	}
	return view, nil
}

func (s *TaskService) load(ctx context.Context, id uuid.UUID) (*TaskView, error) {
	task, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	rows, err := s.assignees.ListByTaskIDs(ctx, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}
	view := Aggregate([]model.Task{*task}, rows)[0]
	return &view, nil
}

// Create validates in and stores the task with its assignees.
func (s *TaskService) Create(ctx context.Context, caller model.Identity, in CreateTaskInput) (*TaskView, error) {
	if !caller.Role.CanManageTasks() {
		return nil, ErrForbidden
	}

	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, invalid("Title is required")
	}

	start, okStart := s.dates.Normalize(in.StartDate)
	end, okEnd := s.dates.Normalize(in.EndDate)
	if !okStart || !okEnd {
		return nil, invalid("Start and end dates are required")
	}
	if end < start {
		return nil, invalid("End date cannot be before start date")
	}

	due := end
	if !isBlank(in.DueDate) {
		d, ok := s.dates.Normalize(in.DueDate)
		if !ok {
			return nil, invalid("Invalid due_date")
		}
		due = d
	}

	status := model.StatusOpen
	if in.Status != "" {
		status = model.Status(in.Status)
		if !status.Valid() {
			return nil, invalid("Invalid status")
		}
	}

	var team *model.Team
	if in.AssigneeTeam != nil && *in.AssigneeTeam != "" {
		t := model.Team(*in.AssigneeTeam)
		if !t.Valid() {
			return nil, invalid("Invalid assignee_team")
		}
		team = &t
	}

	userIDs, err := parseUserIDs(in.AssigneeUserIDs)
	if err != nil {
		return nil, err
	}

	task := &model.Task{
		ID:           uuid.New(),
		Title:        title,
		Description:  nonEmpty(in.Description),
		StartDate:    model.DayOf(start),
		EndDate:      model.DayOf(end),
		DueDate:      model.DayOf(due),
		Status:       status,
		AssigneeTeam: team,
	}
	if !caller.Anonymous() {
		createdBy := caller.UserID
		task.CreatedBy = &createdBy
	}

	rows := make([]model.TaskAssignee, len(userIDs))
	for i, uid := range userIDs {
		rows[i] = model.TaskAssignee{TaskID: task.ID, UserID: uid}
	}

	if err := s.tasks.Create(ctx, task, rows); err != nil {
		return nil, err
	}

	view := Aggregate([]model.Task{*task}, rows)[0]
	return &view, nil
}

// Update applies a partial update and, when assignee_user_ids is present,
// replaces the whole assignee set. The two steps are separate writes.
func (s *TaskService) Update(ctx context.Context, caller model.Identity, id uuid.UUID, in UpdateTaskInput) (*TaskView, error) {
	if !caller.Role.CanManageTasks() {
		return nil, ErrForbidden
	}

	fields, err := s.patchFields(in)
	if err != nil {
		return nil, err
	}

	rawIDs, replace := value(in.AssigneeUserIDs)
	var userIDs []uuid.UUID
	if replace {
		if userIDs, err = parseUserIDs(rawIDs); err != nil {
			return nil, err
		}
	}

	if len(fields) == 0 && !replace {
		return nil, ErrNoUpdatableFields
	}

	existing, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	start := mergedDay(fields, "start_date", existing.StartDate)
	end := mergedDay(fields, "end_date", existing.EndDate)
	if start != "" && end != "" && end < start {
		return nil, invalid("End date cannot be before start date")
	}

	if len(fields) > 0 {
		if err := s.tasks.Update(ctx, id, fields); err != nil {
			return nil, err
		}
	}
	if replace {
		if err := s.assignees.Replace(ctx, id, userIDs); err != nil {
			return nil, err
		}
	}

	return s.load(ctx, id)
}

// patchFields turns the present keys of in into column updates. Cleared
// columns map to an untyped nil.
func (s *TaskService) patchFields(in UpdateTaskInput) (map[string]any, error) {
	fields := map[string]any{}

	if in.Title.IsSpecified() {
		title, _ := value(in.Title)
		title = strings.TrimSpace(title)
		if title == "" {
			return nil, invalid("Title cannot be empty")
		}
		fields["title"] = title
	}

	if in.Description.IsSpecified() {
		desc, ok := value(in.Description)
		if !ok || strings.TrimSpace(desc) == "" {
			fields["description"] = nil
		} else {
			fields["description"] = desc
		}
	}

	if in.Status.IsSpecified() {
		raw, ok := value(in.Status)
		status := model.Status(raw)
		if !ok || !status.Valid() {
			return nil, invalid("Invalid status")
		}
		fields["status"] = string(status)
	}

	if in.AssigneeTeam.IsSpecified() {
		raw, ok := value(in.AssigneeTeam)
		if !ok || raw == "" {
			fields["assignee_team"] = nil
		} else {
			team := model.Team(raw)
			if !team.Valid() {
				return nil, invalid("Invalid assignee_team")
			}
			fields["assignee_team"] = string(team)
		}
	}

	dates := []struct {
		column string
		field  nullable.Nullable[any]
	}{
		{"start_date", in.StartDate},
		{"end_date", in.EndDate},
		{"due_date", in.DueDate},
	}
	for _, d := range dates {
		if !d.field.IsSpecified() {
			continue
		}
		raw, ok := value(d.field)
		if !ok || isBlank(raw) {
			fields[d.column] = nil
			continue
		}
		day, ok := s.dates.Normalize(raw)
		if !ok {
			return nil, invalid("Invalid %s", d.column)
		}
		fields[d.column] = day
	}

	// due_date follows end_date unless it was sent explicitly.
	if in.EndDate.IsSpecified() && !in.DueDate.IsSpecified() {
		fields["due_date"] = fields["end_date"]
	}

	return fields, nil
}

// Delete removes the task's assignments and then the task itself.
func (s *TaskService) Delete(ctx context.Context, caller model.Identity, id uuid.UUID) error {
	if !caller.Role.CanManageTasks() {
		return ErrForbidden
	}
	if _, err := s.assignees.DeleteByTask(ctx, id); err != nil {
		return err
	}
	return s.tasks.Delete(ctx, id)
}

// SetCompletion marks target's assignment on the task as done or not done.
// A nil target means the caller. Only admins and captains may act on
// someone else's assignment. The task's own status is never touched.
func (s *TaskService) SetCompletion(ctx context.Context, caller model.Identity, taskID, target uuid.UUID, done bool) error {
	if target == uuid.Nil {
		target = caller.UserID
	}
	if target == uuid.Nil {
		return ErrForbidden
	}
	if target != caller.UserID && !caller.Role.CanManageTasks() {
		return ErrForbidden
	}

	if done {
		return s.markDone(ctx, taskID, target)
	}
	return s.markUndone(ctx, taskID, target)
}

func (s *TaskService) markDone(ctx context.Context, taskID, userID uuid.UUID) error {
	at := s.now()
	n, err := s.assignees.SetDone(ctx, taskID, userID, true, &at)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	task, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		return err
	}
	if task.AssigneeUserID == nil || *task.AssigneeUserID != userID {
		return ErrAssignmentNotFound
	}

	// Legacy single assignee: move it into the join table, already done.
	return s.assignees.Create(ctx, &model.TaskAssignee{
		TaskID: taskID,
		UserID: userID,
		IsDone: true,
		DoneAt: &at,
	})
}

// markUndone clears the flag, falling back to removing the row when the
// store rejects the update. A missing row already reads as not done.
func (s *TaskService) markUndone(ctx context.Context, taskID, userID uuid.UUID) error {
	_, err := s.assignees.SetDone(ctx, taskID, userID, false, nil)
	if err == nil {
		return nil
	}

	log.Printf("⚠️ Undo update failed for task %s user %s, deleting assignment: %v", taskID, userID, err)
	if _, delErr := s.assignees.Delete(ctx, taskID, userID); delErr != nil {
		return delErr
	}
	return nil
}

func parseUserIDs(raw []string) ([]uuid.UUID, error) {
	seen := make(map[uuid.UUID]struct{}, len(raw))
	ids := make([]uuid.UUID, 0, len(raw))
	for _, s := range raw {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, invalid("Invalid assignee id %q", s)
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids, nil
}

func mergedDay(fields map[string]any, column string, current *model.Day) string {
	if v, ok := fields[column]; ok {
		s, _ := v.(string)
		return s
	}
	if current == nil {
		return ""
	}
	return current.String()
}

func nonEmpty(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	return s
}

// value returns the field's value and whether it was sent as a non-null value.
func value[T any](f nullable.Nullable[T]) (T, bool) {
	v, err := f.Get()
	return v, err == nil
}

func isBlank(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(x) == ""
	}
	return false
}

// IsNotFound reports whether err means the addressed task or assignment does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, repository.ErrTaskNotFound) ||
		errors.Is(err, ErrAssignmentNotFound) ||
		errors.Is(err, repository.ErrProfileNotFound)
}
