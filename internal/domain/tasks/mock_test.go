package tasks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/elidorascodex/tecflow/internal/model"
	"github.com/elidorascodex/tecflow/internal/port/outbound"
)

// MockTracker is a mock implementation of outbound.TaskTrackerPort.
type MockTracker struct {
	mock.Mock
}

var _ outbound.TaskTrackerPort = (*MockTracker)(nil)

func (m *MockTracker) ListTasks(ctx context.Context, q model.TaskQuery) ([]*model.Task, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Task), args.Error(1)
}

func (m *MockTracker) GetTask(ctx context.Context, taskID string) (*model.Task, error) {
	args := m.Called(ctx, taskID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Task), args.Error(1)
}

func (m *MockTracker) UpdateStatus(ctx context.Context, taskID, status string) error {
	return m.Called(ctx, taskID, status).Error(0)
}

func (m *MockTracker) AddAssignees(ctx context.Context, taskID string, userIDs ...string) error {
	return m.Called(ctx, taskID, userIDs).Error(0)
}

func (m *MockTracker) AddTags(ctx context.Context, taskID string, tags ...string) error {
	return m.Called(ctx, taskID, tags).Error(0)
}

func (m *MockTracker) AddComment(ctx context.Context, taskID, text string) error {
	return m.Called(ctx, taskID, text).Error(0)
}

func (m *MockTracker) SetCustomField(ctx context.Context, taskID, fieldID string, value any) error {
	return m.Called(ctx, taskID, fieldID, value).Error(0)
}

func (m *MockTracker) CreateTask(ctx context.Context, t *model.NewTask) (*model.Task, error) {
	args := m.Called(ctx, t)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Task), args.Error(1)
}

func (m *MockTracker) AddChecklist(ctx context.Context, taskID, name string, items []model.ChecklistItem) error {
	return m.Called(ctx, taskID, name, items).Error(0)
}

func (m *MockTracker) CreateDoc(ctx context.Context, name, content string) (*model.Doc, error) {
	args := m.Called(ctx, name, content)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Doc), args.Error(1)
}

func (m *MockTracker) AttachDoc(ctx context.Context, taskID, docID string) error {
	return m.Called(ctx, taskID, docID).Error(0)
}

func (m *MockTracker) ListComments(ctx context.Context, taskID string) ([]*model.TaskComment, error) {
	args := m.Called(ctx, taskID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.TaskComment), args.Error(1)
}

func (m *MockTracker) ListSubtasks(ctx context.Context, taskID string) ([]*model.Task, error) {
	args := m.Called(ctx, taskID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Task), args.Error(1)
}
