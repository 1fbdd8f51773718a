package outbound

import (
	"context"

	"github.com/elidorascodex/tecflow/internal/model"
)

// MemoryStorePort defines memory persistence.
type MemoryStorePort interface {
	// Add stores a memory.
	Add(ctx context.Context, m *model.Memory) error

	// List returns stored memories, newest first. A zero limit returns all.
	List(ctx context.Context, memoryType model.MemoryType, limit int) ([]*model.Memory, error)
}
