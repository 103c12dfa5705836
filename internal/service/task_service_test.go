package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"teamtasks/internal/datefmt"
	"teamtasks/internal/model"
	"teamtasks/internal/repository"
	"teamtasks/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var (
	admin  = model.Identity{UserID: uuid.New(), Role: model.RoleAdmin}
	member = model.Identity{UserID: uuid.New(), Role: model.RoleMember}
)

func newService() (*service.TaskService, *MockTaskStore, *MockAssigneeStore) {
	tasks := new(MockTaskStore)
	assignees := new(MockAssigneeStore)
	svc := service.NewTaskService(tasks, assignees, datefmt.New(time.UTC))
	return svc, tasks, assignees
}

func decodeUpdate(t *testing.T, body string) service.UpdateTaskInput {
	t.Helper()
	var in service.UpdateTaskInput
	require.NoError(t, json.Unmarshal([]byte(body), &in))
	return in
}

func storedTask(id uuid.UUID) *model.Task {
	team := model.TeamMechanical
	desc := "keep me"
	return &model.Task{
		ID:           id,
		Title:        "Original",
		Description:  &desc,
		StartDate:    model.DayOf("2025-01-01"),
		EndDate:      model.DayOf("2025-01-05"),
		DueDate:      model.DayOf("2025-01-05"),
		Status:       model.StatusOpen,
		AssigneeTeam: &team,
	}
}

func TestTaskService_List_ValidatesFilters(t *testing.T) {
	svc, _, _ := newService()

	tests := []struct {
		name  string
		query service.ListQuery
		msg   string
	}{
		{"bad status", service.ListQuery{Status: "closed"}, "Invalid 'status' value"},
		{"bad team", service.ListQuery{Team: "marketing"}, "Invalid 'team' value"},
		{"bad from", service.ListQuery{From: "someday"}, "Invalid 'from' date"},
		{"bad to", service.ListQuery{To: "later"}, "Invalid 'to' date"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.List(context.Background(), admin, tt.query)

			var verr *service.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.msg, verr.Message)
		})
	}
}

func TestTaskService_List_NormalizesAndAggregates(t *testing.T) {
	// Arrange
	svc, tasks, assignees := newService()
	ctx := context.Background()
	id := uuid.New()

	tasks.On("List", ctx, repository.TaskFilter{
		Status: model.StatusOpen,
		Team:   model.TeamSocial,
		From:   "2025-01-01",
		To:     "2025-01-31",
	}).Return([]model.Task{{ID: id, Title: "x"}}, nil)
	assignees.On("ListByTaskIDs", ctx, []uuid.UUID{id}).
		Return([]model.TaskAssignee{{TaskID: id, UserID: member.UserID}}, nil)

	// Act
	views, err := svc.List(ctx, member, service.ListQuery{
		Status: "open", Team: "sosyal", From: "2025-01-01T10:00:00Z", To: "2025/01/31",
	})

	// Assert
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, []service.AssigneeState{{ID: member.UserID}}, views[0].Assignees)
	tasks.AssertExpectations(t)
	assignees.AssertExpectations(t)
}

func TestTaskService_List_AssignmentFetchFailureFailsRead(t *testing.T) {
	svc, tasks, assignees := newService()
	ctx := context.Background()
	boom := errors.New("connection reset")

	tasks.On("List", ctx, repository.TaskFilter{}).Return([]model.Task{{ID: uuid.New()}}, nil)
	assignees.On("ListByTaskIDs", ctx, mock.Anything).Return(nil, boom)

	views, err := svc.List(ctx, admin, service.ListQuery{})

	assert.ErrorIs(t, err, boom)
	assert.Nil(t, views)
}

func TestTaskService_List_EmptySkipsAssignmentFetch(t *testing.T) {
	svc, tasks, assignees := newService()
	ctx := context.Background()

	tasks.On("List", ctx, repository.TaskFilter{}).Return([]model.Task{}, nil)

	views, err := svc.List(ctx, admin, service.ListQuery{})

	require.NoError(t, err)
	assert.NotNil(t, views)
	assert.Empty(t, views)
	assignees.AssertNotCalled(t, "ListByTaskIDs", mock.Anything, mock.Anything)
}

func TestTaskService_Get_HiddenFromUnassignedMember(t *testing.T) {
	svc, tasks, assignees := newService()
	ctx := context.Background()
	id := uuid.New()

	tasks.On("GetByID", ctx, id).Return(storedTask(id), nil)
	assignees.On("ListByTaskIDs", ctx, []uuid.UUID{id}).Return([]model.TaskAssignee{}, nil)

	view, err := svc.Get(ctx, member, id)

	assert.ErrorIs(t, err, repository.ErrTaskNotFound)
	assert.Nil(t, view)
}

func TestTaskService_Create(t *testing.T) {
	// Arrange
	svc, tasks, _ := newService()
	ctx := context.Background()
	u1, u2 := uuid.New(), uuid.New()
	team := "yazilim"

	var saved *model.Task
	tasks.On("Create", ctx, mock.AnythingOfType("*model.Task"), mock.Anything).
		Run(func(args mock.Arguments) {
			saved = args.Get(1).(*model.Task)
		}).
		Return(nil)

	// Act
	view, err := svc.Create(ctx, admin, service.CreateTaskInput{
		Title:           "  Build robot  ",
		StartDate:       "2025-01-01",
		EndDate:         "2025-01-05",
		AssigneeTeam:    &team,
		AssigneeUserIDs: []string{u1.String(), "", u2.String(), u1.String()},
	})

	// Assert
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Equal(t, "Build robot", saved.Title)
	assert.Equal(t, model.StatusOpen, saved.Status)
	assert.Equal(t, model.Day("2025-01-05"), *saved.DueDate)
	assert.Equal(t, model.TeamSoftware, *saved.AssigneeTeam)
	assert.Equal(t, admin.UserID, *saved.CreatedBy)
	assert.Nil(t, saved.AssigneeUserID)
	assert.ElementsMatch(t, []service.AssigneeState{{ID: u1}, {ID: u2}}, view.Assignees)

	rows := tasks.Calls[0].Arguments.Get(2).([]model.TaskAssignee)
	require.Len(t, rows, 2)
	assert.Equal(t, saved.ID, rows[0].TaskID)
	assert.NotEqual(t, uuid.Nil, saved.ID)
}

func TestTaskService_Create_Validation(t *testing.T) {
	tests := []struct {
		name string
		in   service.CreateTaskInput
		msg  string
	}{
		{"missing title", service.CreateTaskInput{Title: "  ", StartDate: "2025-01-01", EndDate: "2025-01-02"}, "Title is required"},
		{"missing dates", service.CreateTaskInput{Title: "A", StartDate: "2025-01-01"}, "Start and end dates are required"},
		{"end before start", service.CreateTaskInput{Title: "A", StartDate: "2025-01-05", EndDate: "2025-01-01"}, "End date cannot be before start date"},
		{"bad status", service.CreateTaskInput{Title: "A", StartDate: "2025-01-01", EndDate: "2025-01-02", Status: "closed"}, "Invalid status"},
		{"bad team", service.CreateTaskInput{Title: "A", StartDate: "2025-01-01", EndDate: "2025-01-02", AssigneeTeam: ptr("marketing")}, "Invalid assignee_team"},
		{"bad assignee", service.CreateTaskInput{Title: "A", StartDate: "2025-01-01", EndDate: "2025-01-02", AssigneeUserIDs: []string{"nope"}}, `Invalid assignee id "nope"`},
		{"bad due date", service.CreateTaskInput{Title: "A", StartDate: "2025-01-01", EndDate: "2025-01-02", DueDate: "whenever"}, "Invalid due_date"},
		{"epoch out of range", service.CreateTaskInput{Title: "A", StartDate: 1e20, EndDate: 1e20}, "Start and end dates are required"},
		{"due epoch out of range", service.CreateTaskInput{Title: "A", StartDate: "2025-01-01", EndDate: "2025-01-02", DueDate: 9e15}, "Invalid due_date"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, tasks, _ := newService()

			_, err := svc.Create(context.Background(), admin, tt.in)

			var verr *service.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.msg, verr.Message)
			tasks.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestTaskService_Create_Forbidden(t *testing.T) {
	svc, tasks, _ := newService()

	_, err := svc.Create(context.Background(), member, service.CreateTaskInput{Title: "A"})

	assert.ErrorIs(t, err, service.ErrForbidden)
	tasks.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}

func TestTaskService_Update_StatusOnly(t *testing.T) {
	// Arrange
	svc, tasks, assignees := newService()
	ctx := context.Background()
	id := uuid.New()

	tasks.On("GetByID", ctx, id).Return(storedTask(id), nil)
	tasks.On("Update", ctx, id, map[string]any{"status": "done"}).Return(nil)
	assignees.On("ListByTaskIDs", ctx, []uuid.UUID{id}).Return([]model.TaskAssignee{}, nil)

	// Act
	_, err := svc.Update(ctx, admin, id, decodeUpdate(t, `{"status":"done"}`))

	// Assert
	require.NoError(t, err)
	tasks.AssertExpectations(t)
	assignees.AssertNotCalled(t, "Replace", mock.Anything, mock.Anything, mock.Anything)
}

func TestTaskService_Update_ClearsAndFollowsEndDate(t *testing.T) {
	// Arrange
	svc, tasks, assignees := newService()
	ctx := context.Background()
	id := uuid.New()

	tasks.On("GetByID", ctx, id).Return(storedTask(id), nil)
	tasks.On("Update", ctx, id, map[string]any{
		"description":   nil,
		"assignee_team": nil,
		"end_date":      "2025-01-09",
		"due_date":      "2025-01-09",
	}).Return(nil)
	assignees.On("ListByTaskIDs", ctx, []uuid.UUID{id}).Return([]model.TaskAssignee{}, nil)

	// Act
	_, err := svc.Update(ctx, admin, id, decodeUpdate(t,
		`{"description":"","assignee_team":null,"end_date":"2025-01-09T12:00:00Z"}`))

	// Assert
	require.NoError(t, err)
	tasks.AssertExpectations(t)
}

func TestTaskService_Update_MergedDatesMustStayOrdered(t *testing.T) {
	svc, tasks, _ := newService()
	ctx := context.Background()
	id := uuid.New()

	tasks.On("GetByID", ctx, id).Return(storedTask(id), nil)

	_, err := svc.Update(ctx, admin, id, decodeUpdate(t, `{"start_date":"2025-02-01"}`))

	var verr *service.ValidationError
	require.ErrorAs(t, err, &verr)
	tasks.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}

func TestTaskService_Update_Validation(t *testing.T) {
	tests := []struct {
		name string
		body string
		msg  string
	}{
		{"nothing to update", `{}`, "No updatable fields"},
		{"only id", `{"id":"x"}`, "No updatable fields"},
		{"blank title", `{"title":"   "}`, "Title cannot be empty"},
		{"null title", `{"title":null}`, "Title cannot be empty"},
		{"bad status", `{"status":"closed"}`, "Invalid status"},
		{"bad team", `{"assignee_team":"marketing"}`, "Invalid assignee_team"},
		{"bad date", `{"start_date":"soon"}`, "Invalid start_date"},
		{"epoch out of range", `{"end_date":1e20}`, "Invalid end_date"},
		{"bad assignee", `{"assignee_user_ids":["nope"]}`, `Invalid assignee id "nope"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, tasks, _ := newService()

			_, err := svc.Update(context.Background(), admin, uuid.New(), decodeUpdate(t, tt.body))

			var verr *service.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.msg, verr.Message)
			tasks.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestTaskService_Update_ReplaceWithEmptySet(t *testing.T) {
	// Arrange
	svc, tasks, assignees := newService()
	ctx := context.Background()
	id := uuid.New()

	tasks.On("GetByID", ctx, id).Return(storedTask(id), nil)
	assignees.On("Replace", ctx, id, []uuid.UUID{}).Return(nil)
	assignees.On("ListByTaskIDs", ctx, []uuid.UUID{id}).Return([]model.TaskAssignee{}, nil)

	// Act
	view, err := svc.Update(ctx, admin, id, decodeUpdate(t, `{"assignee_user_ids":[]}`))

	// Assert
	require.NoError(t, err)
	assert.Empty(t, view.Assignees)
	assert.Equal(t, "Original", view.Title)
	tasks.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
	assignees.AssertExpectations(t)
}

func TestTaskService_Update_NotFound(t *testing.T) {
	svc, tasks, _ := newService()
	ctx := context.Background()
	id := uuid.New()

	tasks.On("GetByID", ctx, id).Return(nil, repository.ErrTaskNotFound)

	_, err := svc.Update(ctx, admin, id, decodeUpdate(t, `{"title":"x"}`))

	assert.ErrorIs(t, err, repository.ErrTaskNotFound)
	assert.True(t, service.IsNotFound(err))
}

func TestTaskService_Delete(t *testing.T) {
	// Arrange
	svc, tasks, assignees := newService()
	ctx := context.Background()
	id := uuid.New()

	var order []string
	assignees.On("DeleteByTask", ctx, id).Run(func(mock.Arguments) { order = append(order, "assignees") }).Return(int64(2), nil)
	tasks.On("Delete", ctx, id).Run(func(mock.Arguments) { order = append(order, "task") }).Return(nil)

	// Act
	err := svc.Delete(ctx, admin, id)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, []string{"assignees", "task"}, order)
}

func TestTaskService_Delete_NotFoundAfterCleanup(t *testing.T) {
	svc, tasks, assignees := newService()
	ctx := context.Background()
	id := uuid.New()

	assignees.On("DeleteByTask", ctx, id).Return(int64(0), nil)
	tasks.On("Delete", ctx, id).Return(repository.ErrTaskNotFound)

	err := svc.Delete(ctx, admin, id)

	assert.ErrorIs(t, err, repository.ErrTaskNotFound)
	assignees.AssertExpectations(t)
}

func TestTaskService_SetCompletion_Done(t *testing.T) {
	// Arrange
	svc, _, assignees := newService()
	ctx := context.Background()
	taskID := uuid.New()
	now := time.Date(2025, 1, 3, 8, 0, 0, 0, time.UTC)
	svc.SetClock(func() time.Time { return now })

	assignees.On("SetDone", ctx, taskID, member.UserID, true, &now).Return(int64(1), nil)

	// Act
	err := svc.SetCompletion(ctx, member, taskID, uuid.Nil, true)

	// Assert
	require.NoError(t, err)
	assignees.AssertExpectations(t)
}

func TestTaskService_SetCompletion_MemberCannotToggleOthers(t *testing.T) {
	svc, _, assignees := newService()

	err := svc.SetCompletion(context.Background(), member, uuid.New(), uuid.New(), true)

	assert.ErrorIs(t, err, service.ErrForbidden)
	assignees.AssertNotCalled(t, "SetDone", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestTaskService_SetCompletion_CaptainTogglesOthers(t *testing.T) {
	svc, _, assignees := newService()
	ctx := context.Background()
	captain := model.Identity{UserID: uuid.New(), Role: model.RoleCaptain}
	taskID, target := uuid.New(), uuid.New()

	assignees.On("SetDone", ctx, taskID, target, true, mock.Anything).Return(int64(1), nil)

	err := svc.SetCompletion(ctx, captain, taskID, target, true)

	assert.NoError(t, err)
}

func TestTaskService_SetCompletion_MigratesLegacyAssignee(t *testing.T) {
	// Arrange
	svc, tasks, assignees := newService()
	ctx := context.Background()
	taskID := uuid.New()
	task := storedTask(taskID)
	task.AssigneeUserID = &member.UserID

	assignees.On("SetDone", ctx, taskID, member.UserID, true, mock.Anything).Return(int64(0), nil)
	tasks.On("GetByID", ctx, taskID).Return(task, nil)
	assignees.On("Create", ctx, mock.MatchedBy(func(row *model.TaskAssignee) bool {
		return row.TaskID == taskID && row.UserID == member.UserID && row.IsDone && row.DoneAt != nil
	})).Return(nil)

	// Act
	err := svc.SetCompletion(ctx, member, taskID, uuid.Nil, true)

	// Assert
	require.NoError(t, err)
	assignees.AssertExpectations(t)
}

func TestTaskService_SetCompletion_NotAssigned(t *testing.T) {
	svc, tasks, assignees := newService()
	ctx := context.Background()
	taskID := uuid.New()

	assignees.On("SetDone", ctx, taskID, member.UserID, true, mock.Anything).Return(int64(0), nil)
	tasks.On("GetByID", ctx, taskID).Return(storedTask(taskID), nil)

	err := svc.SetCompletion(ctx, member, taskID, uuid.Nil, true)

	assert.ErrorIs(t, err, service.ErrAssignmentNotFound)
	assignees.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestTaskService_SetCompletion_UndoFallsBackToDelete(t *testing.T) {
	// Arrange
	svc, _, assignees := newService()
	ctx := context.Background()
	taskID := uuid.New()

	assignees.On("SetDone", ctx, taskID, member.UserID, false, (*time.Time)(nil)).
		Return(int64(0), errors.New("permission denied"))
	assignees.On("Delete", ctx, taskID, member.UserID).Return(int64(1), nil)

	// Act
	err := svc.SetCompletion(ctx, member, taskID, uuid.Nil, false)

	// Assert
	require.NoError(t, err)
	assignees.AssertExpectations(t)
}

func TestTaskService_SetCompletion_UndoFallbackError(t *testing.T) {
	svc, _, assignees := newService()
	ctx := context.Background()
	taskID := uuid.New()
	delErr := errors.New("delete rejected")

	assignees.On("SetDone", ctx, taskID, member.UserID, false, (*time.Time)(nil)).
		Return(int64(0), errors.New("update rejected"))
	assignees.On("Delete", ctx, taskID, member.UserID).Return(int64(0), delErr)

	err := svc.SetCompletion(ctx, member, taskID, uuid.Nil, false)

	assert.ErrorIs(t, err, delErr)
}

func TestTaskService_SetCompletion_UndoWithoutRow(t *testing.T) {
	svc, _, assignees := newService()
	ctx := context.Background()
	taskID := uuid.New()

	assignees.On("SetDone", ctx, taskID, member.UserID, false, (*time.Time)(nil)).Return(int64(0), nil)

	err := svc.SetCompletion(ctx, member, taskID, uuid.Nil, false)

	assert.NoError(t, err)
	assignees.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything, mock.Anything)
}

func ptr[T any](v T) *T { return &v }

func TestUpdateTaskInput_AbsentNullAndValue(t *testing.T) {
	in := decodeUpdate(t, `{"title":"hello","description":null,"end_date":1700000000000,"assignee_user_ids":[]}`)

	title, err := in.Title.Get()
	require.NoError(t, err)
	assert.Equal(t, "hello", title)

	assert.True(t, in.Description.IsSpecified())
	assert.True(t, in.Description.IsNull())

	end, err := in.EndDate.Get()
	require.NoError(t, err)
	assert.Equal(t, float64(1700000000000), end)

	ids, err := in.AssigneeUserIDs.Get()
	require.NoError(t, err)
	assert.Empty(t, ids)

	assert.False(t, in.Status.IsSpecified())
	assert.False(t, in.DueDate.IsSpecified())
}

func TestUpdateTaskInput_TypeMismatch(t *testing.T) {
	var in service.UpdateTaskInput

	err := json.Unmarshal([]byte(`{"title":42}`), &in)

	assert.Error(t, err)
}

func TestTaskService_Update_NullAssigneesLeavesSetAlone(t *testing.T) {
	svc, tasks, assignees := newService()

	_, err := svc.Update(context.Background(), admin, uuid.New(), decodeUpdate(t, `{"assignee_user_ids":null}`))

	assert.ErrorIs(t, err, service.ErrNoUpdatableFields)
	tasks.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
	assignees.AssertNotCalled(t, "Replace", mock.Anything, mock.Anything, mock.Anything)
}
