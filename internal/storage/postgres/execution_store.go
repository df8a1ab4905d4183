package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/PxPatel/crossing-engine/internal/storage"
	"github.com/PxPatel/crossing-engine/internal/types"
)

// PostgresExecutionStore implements ExecutionStore using PostgreSQL
type PostgresExecutionStore struct {
	pool *pgxpool.Pool
}

// NewPostgresExecutionStore creates a new PostgreSQL-backed execution store
func NewPostgresExecutionStore(cfg PostgresConfig) (*PostgresExecutionStore, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := NewPostgresPool(ctx, cfg)
	if err != nil {
		return nil, err
	}

	return NewPostgresExecutionStoreWithPool(ctx, pool)
}

// NewPostgresExecutionStoreWithPool migrates and wraps an existing pool
func NewPostgresExecutionStoreWithPool(ctx context.Context, pool *pgxpool.Pool) (*PostgresExecutionStore, error) {
	if err := RunMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return &PostgresExecutionStore{pool: pool}, nil
}

var _ storage.ExecutionStore = (*PostgresExecutionStore)(nil)

func (s *PostgresExecutionStore) SaveBatch(ctx context.Context, executions []*types.Execution) error {
	if len(executions) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, e := range executions {
		batch.Queue(`
			INSERT INTO executions (execution_id, incoming_order_id, resting_order_id, instrument, incoming_side, quantity, price, executed_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7::numeric, $8)
			ON CONFLICT (execution_id) DO NOTHING
		`, e.ID, e.IncomingOrderID, e.RestingOrderID, e.Instrument, e.IncomingSide.String(), e.Quantity, e.Price.String(), e.ExecutedAt)
	}

	results := s.pool.SendBatch(ctx, batch)
	defer results.Close()

	for range executions {
		if _, err := results.Exec(); err != nil {
			return classify(err)
		}
	}
	return nil
}

func (s *PostgresExecutionStore) GetRecent(ctx context.Context, limit int) ([]*types.Execution, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := s.pool.Query(ctx, `
		SELECT execution_id, incoming_order_id, resting_order_id, instrument, incoming_side, quantity, price::text, executed_at
		FROM executions
		ORDER BY executed_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	executions := []*types.Execution{}
	for rows.Next() {
		var (
			e           types.Execution
			side, price string
		)
		if err := rows.Scan(&e.ID, &e.IncomingOrderID, &e.RestingOrderID, &e.Instrument, &side, &e.Quantity, &price, &e.ExecutedAt); err != nil {
			return nil, classify(err)
		}
		if e.IncomingSide, err = types.ParseSide(side); err != nil {
			return nil, err
		}
		if e.Price, err = decimal.NewFromString(price); err != nil {
			return nil, err
		}
		executions = append(executions, &e)
	}
	return executions, rows.Err()
}

func (s *PostgresExecutionStore) Close() error {
	s.pool.Close()
	return nil
}
