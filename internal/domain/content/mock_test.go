package content

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/elidorascodex/tecflow/internal/model"
	"github.com/elidorascodex/tecflow/internal/port/outbound"
)

type MockGenerator struct{ mock.Mock }

var _ outbound.TextGeneratorPort = (*MockGenerator)(nil)

func (m *MockGenerator) Complete(ctx context.Context, prompt string, opts outbound.CompletionOptions) (string, error) {
	args := m.Called(ctx, prompt, opts)
	return args.String(0), args.Error(1)
}

type MockPublisher struct{ mock.Mock }

var _ outbound.PublisherPort = (*MockPublisher)(nil)

func (m *MockPublisher) CreatePost(ctx context.Context, p *model.NewPost) (*model.Post, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Post), args.Error(1)
}

func (m *MockPublisher) ListPosts(ctx context.Context, page, perPage int) ([]*model.Post, error) {
	args := m.Called(ctx, page, perPage)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Post), args.Error(1)
}

// memStore is an in-memory MemoryStorePort keeping insertion order, newest first on List.
type memStore struct {
	items   []*model.Memory
	failAdd error
}

var _ outbound.MemoryStorePort = (*memStore)(nil)

func (s *memStore) Add(_ context.Context, m *model.Memory) error {
	if s.failAdd != nil {
		return s.failAdd
	}
	s.items = append(s.items, m)
	return nil
}

func (s *memStore) List(_ context.Context, t model.MemoryType, limit int) ([]*model.Memory, error) {
	var out []*model.Memory
	for i := len(s.items) - 1; i >= 0; i-- {
		if t == "" || s.items[i].Type == t {
			out = append(out, s.items[i])
		}
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}
