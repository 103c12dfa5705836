package service_test

import (
	"context"
	"time"

	"teamtasks/internal/model"
	"teamtasks/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type MockTaskStore struct {
	mock.Mock
}

func (m *MockTaskStore) Create(ctx context.Context, task *model.Task, assignees []model.TaskAssignee) error {
	args := m.Called(ctx, task, assignees)
	return args.Error(0)
}

func (m *MockTaskStore) GetByID(ctx context.Context, id uuid.UUID) (*model.Task, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Task), args.Error(1)
}

func (m *MockTaskStore) List(ctx context.Context, filter repository.TaskFilter) ([]model.Task, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Task), args.Error(1)
}

func (m *MockTaskStore) Update(ctx context.Context, id uuid.UUID, fields map[string]any) error {
	args := m.Called(ctx, id, fields)
	return args.Error(0)
}

func (m *MockTaskStore) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockAssigneeStore struct {
	mock.Mock
}

func (m *MockAssigneeStore) ListByTaskIDs(ctx context.Context, taskIDs []uuid.UUID) ([]model.TaskAssignee, error) {
	args := m.Called(ctx, taskIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.TaskAssignee), args.Error(1)
}

func (m *MockAssigneeStore) Create(ctx context.Context, row *model.TaskAssignee) error {
	args := m.Called(ctx, row)
	return args.Error(0)
}

func (m *MockAssigneeStore) Replace(ctx context.Context, taskID uuid.UUID, userIDs []uuid.UUID) error {
	args := m.Called(ctx, taskID, userIDs)
	return args.Error(0)
}

func (m *MockAssigneeStore) SetDone(ctx context.Context, taskID, userID uuid.UUID, done bool, at *time.Time) (int64, error) {
	args := m.Called(ctx, taskID, userID, done, at)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockAssigneeStore) Delete(ctx context.Context, taskID, userID uuid.UUID) (int64, error) {
	args := m.Called(ctx, taskID, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockAssigneeStore) DeleteByTask(ctx context.Context, taskID uuid.UUID) (int64, error) {
	args := m.Called(ctx, taskID)
	return args.Get(0).(int64), args.Error(1)
}
