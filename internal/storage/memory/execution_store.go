package memory

import (
	"context"
	"sync"

	"github.com/PxPatel/crossing-engine/internal/storage"
	"github.com/PxPatel/crossing-engine/internal/types"
)

// InMemoryExecutionStore implements ExecutionStore using a bounded buffer.
// Keeps only the N most recent executions in memory.
type InMemoryExecutionStore struct {
	executions []*types.Execution
	maxSize    int
	mutex      sync.RWMutex
}

// NewInMemoryExecutionStore creates a new in-memory execution store with a size limit.
// A non-positive maxSize means unbounded.
func NewInMemoryExecutionStore(maxSize int) *InMemoryExecutionStore {
	return &InMemoryExecutionStore{
		executions: make([]*types.Execution, 0, max(maxSize, 0)),
		maxSize:    maxSize,
	}
}

var _ storage.ExecutionStore = (*InMemoryExecutionStore)(nil)

func (s *InMemoryExecutionStore) SaveBatch(_ context.Context, executions []*types.Execution) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.executions = append(s.executions, executions...)

	// Trim to max size
	if s.maxSize > 0 && len(s.executions) > s.maxSize {
		s.executions = s.executions[len(s.executions)-s.maxSize:]
	}

	return nil
}

func (s *InMemoryExecutionStore) GetRecent(_ context.Context, limit int) ([]*types.Execution, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	// Clamp limit to actual size
	if limit <= 0 || limit > len(s.executions) {
		limit = len(s.executions)
	}

	// Newest first
	result := make([]*types.Execution, 0, limit)
	for i := len(s.executions) - 1; i >= len(s.executions)-limit; i-- {
		result = append(result, s.executions[i])
	}

	return result, nil
}

func (s *InMemoryExecutionStore) Close() error {
	// No cleanup needed for in-memory store
	return nil
}
