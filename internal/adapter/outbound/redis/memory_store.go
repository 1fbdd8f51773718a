package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/elidorascodex/tecflow/internal/model"
	"github.com/elidorascodex/tecflow/internal/port/outbound"
)

const defaultMemoryKeyPrefix = "airth:memory:"

// memoryStore implements outbound.MemoryStorePort. Each memory is a JSON string under
// {prefix}{id}; the sorted sets {prefix}index and {prefix}type:{type} order ids by
// creation time.
type memoryStore struct {
	client redis.UniversalClient
	prefix string
}

// NewMemoryStore creates a new memory store adapter.
func NewMemoryStore(client redis.UniversalClient, keyPrefix string) outbound.MemoryStorePort {
	if keyPrefix == "" {
		keyPrefix = defaultMemoryKeyPrefix
	}
	return &memoryStore{client: client, prefix: keyPrefix}
}

func (s *memoryStore) indexKey(t model.MemoryType) string {
	if t == "" {
		return s.prefix + "index"
	}
	return s.prefix + "type:" + string(t)
}

func (s *memoryStore) Add(ctx context.Context, m *model.Memory) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal memory: %w", err)
	}

	score := float64(m.CreatedAt.UnixMilli())
	id := m.ID.String()

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.prefix+id, data, 0)
	pipe.ZAdd(ctx, s.indexKey(""), redis.Z{Score: score, Member: id})
	pipe.ZAdd(ctx, s.indexKey(m.Type), redis.Z{Score: score, Member: id})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store memory %s: %w", id, err)
	}
	return nil
}

func (s *memoryStore) List(ctx context.Context, memoryType model.MemoryType, limit int) ([]*model.Memory, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit) - 1
	}
	ids, err := s.client.ZRevRange(ctx, s.indexKey(memoryType), 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("list memory index: %w", err)
	}
	if len(ids) == 0 {
		return []*model.Memory{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.prefix + id
	}
	vals, err := s.client.MGet(ctx, keys...).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("load memories: %w", err)
	}

	memories := make([]*model.Memory, 0, len(vals))
	for i, v := range vals {
		raw, ok := v.(string)
		if !ok {
			// Index entry without a body; skip it.
			continue
		}
		var m model.Memory
		if err := json.Unmarshal([]byte(raw), &m); err != nil {
			return nil, fmt.Errorf("decode memory %s: %w", ids[i], err)
		}
		memories = append(memories, &m)
	}
	return memories, nil
}
