package gin

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/elidorascodex/tecflow/internal/domain/content"
	"github.com/elidorascodex/tecflow/internal/domain/imagegen"
	"github.com/elidorascodex/tecflow/internal/model"
)

type MockImageDomain struct {
	mock.Mock
}

func (m *MockImageDomain) Submit(ctx context.Context, req *imagegen.Request) (*imagegen.Result, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*imagegen.Result), args.Error(1)
}

type MockAirthDomain struct {
	mock.Mock
}

func (m *MockAirthDomain) Respond(ctx context.Context, input string, includeMemories bool) (string, error) {
	args := m.Called(ctx, input, includeMemories)
	return args.String(0), args.Error(1)
}

func (m *MockAirthDomain) CreateBlogPost(ctx context.Context, req content.BlogRequest) (*content.BlogPost, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*content.BlogPost), args.Error(1)
}

func (m *MockAirthDomain) ProcessMemory(text string, memoryType model.MemoryType) (*model.Memory, error) {
	args := m.Called(text, memoryType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Memory), args.Error(1)
}

func (m *MockAirthDomain) AddMemory(ctx context.Context, mem *model.Memory) error {
	return m.Called(ctx, mem).Error(0)
}

type MockTaskDomain struct {
	mock.Mock
}

func (m *MockTaskDomain) FindRelated(ctx context.Context, taskID string, keywords, tags []string) ([]model.ScoredTask, error) {
	args := m.Called(ctx, taskID, keywords, tags)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ScoredTask), args.Error(1)
}

func (m *MockTaskDomain) ProcessAssessmentTrigger(ctx context.Context, taskID string) *model.RunResult {
	return m.Called(ctx, taskID).Get(0).(*model.RunResult)
}

func (m *MockTaskDomain) GenerateLoreDoc(ctx context.Context, taskID string) *model.RunResult {
	return m.Called(ctx, taskID).Get(0).(*model.RunResult)
}
