package redis

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"

	"github.com/PxPatel/crossing-engine/internal/storage"
	"github.com/PxPatel/crossing-engine/internal/types"
)

const (
	executionsKey = "executions:recent"
)

// RedisExecutionStore implements ExecutionStore using a Redis sorted set trimmed to the newest N
type RedisExecutionStore struct {
	client        *redis.Client
	maxExecutions int
}

// NewRedisExecutionStore creates a new Redis-backed execution store
func NewRedisExecutionStore(cfg RedisConfig) (*RedisExecutionStore, error) {
	client, err := NewRedisClient(cfg)
	if err != nil {
		return nil, err
	}
	return NewRedisExecutionStoreWithClient(client, cfg.MaxExecutions), nil
}

// NewRedisExecutionStoreWithClient wraps an existing client
func NewRedisExecutionStoreWithClient(client *redis.Client, maxExecutions int) *RedisExecutionStore {
	return &RedisExecutionStore{
		client:        client,
		maxExecutions: maxExecutions,
	}
}

var _ storage.ExecutionStore = (*RedisExecutionStore)(nil)

func (s *RedisExecutionStore) SaveBatch(ctx context.Context, executions []*types.Execution) error {
	if len(executions) == 0 {
		return nil
	}

	pipe := s.client.Pipeline()

	for _, execution := range executions {
		data, err := json.Marshal(execution)
		if err != nil {
			return err
		}
		pipe.ZAdd(ctx, executionsKey, redis.Z{
			Score:  score(execution.ExecutedAt),
			Member: data,
		})
	}

	// Trim to keep only last N executions
	if s.maxExecutions > 0 {
		pipe.ZRemRangeByRank(ctx, executionsKey, 0, int64(-s.maxExecutions-1))
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return unavailable(err)
	}
	return nil
}

func (s *RedisExecutionStore) GetRecent(ctx context.Context, limit int) ([]*types.Execution, error) {
	if limit <= 0 {
		limit = 100
	}

	// Get last N executions (descending order)
	results, err := s.client.ZRevRange(ctx, executionsKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, unavailable(err)
	}

	executions := make([]*types.Execution, 0, len(results))
	for _, data := range results {
		var execution types.Execution
		if err := json.Unmarshal([]byte(data), &execution); err != nil {
			continue
		}
		executions = append(executions, &execution)
	}

	return executions, nil
}

func (s *RedisExecutionStore) Close() error {
	return s.client.Close()
}
