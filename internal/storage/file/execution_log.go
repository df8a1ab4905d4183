package file

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/PxPatel/crossing-engine/internal/storage"
	"github.com/PxPatel/crossing-engine/internal/types"
)

// ExecutionLog implements ExecutionStore as an append-only JSON-lines audit file.
// Read operations return empty; pair it with the in-memory store in a
// CompositeExecutionStore for reads.
type ExecutionLog struct {
	file   *os.File
	writer *bufio.Writer
	mutex  sync.Mutex
}

// NewExecutionLog opens (or creates) the log at filePath for appending
func NewExecutionLog(filePath string) (*ExecutionLog, error) {
	file, err := os.OpenFile(filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open execution log: %w", err)
	}

	return &ExecutionLog{
		file:   file,
		writer: bufio.NewWriter(file),
	}, nil
}

var _ storage.ExecutionStore = (*ExecutionLog)(nil)

func (l *ExecutionLog) SaveBatch(_ context.Context, executions []*types.Execution) error {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	encoder := json.NewEncoder(l.writer)
	for _, execution := range executions {
		if err := encoder.Encode(execution); err != nil {
			return fmt.Errorf("failed to write execution %s: %w", execution.ID, err)
		}
	}
	return l.writer.Flush()
}

func (l *ExecutionLog) GetRecent(_ context.Context, _ int) ([]*types.Execution, error) {
	// Write-only log
	return []*types.Execution{}, nil
}

func (l *ExecutionLog) Close() error {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	if l.file == nil {
		return nil
	}
	if err := l.writer.Flush(); err != nil {
		l.file.Close()
		return err
	}
	err := l.file.Close()
	l.file = nil
	return err
}
