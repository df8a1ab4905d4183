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

const orderColumns = `order_id, instrument, side, order_type, quantity, price::text, created_at`

// PostgresOrderStore implements OrderStore using PostgreSQL. Apply runs in a
// single transaction.
type PostgresOrderStore struct {
	pool *pgxpool.Pool
}

// NewPostgresOrderStore creates a new PostgreSQL-backed order store
func NewPostgresOrderStore(cfg PostgresConfig) (*PostgresOrderStore, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := NewPostgresPool(ctx, cfg)
	if err != nil {
		return nil, err
	}

	return NewPostgresOrderStoreWithPool(ctx, pool)
}

// NewPostgresOrderStoreWithPool migrates and wraps an existing pool
func NewPostgresOrderStoreWithPool(ctx context.Context, pool *pgxpool.Pool) (*PostgresOrderStore, error) {
	// Run migrations
	if err := RunMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return &PostgresOrderStore{pool: pool}, nil
}

var _ storage.OrderStore = (*PostgresOrderStore)(nil)

func (s *PostgresOrderStore) FindCandidates(ctx context.Context, instrument string, side types.SideType) ([]*types.Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE instrument = $1 AND side = $2 AND quantity > 0
		ORDER BY created_at DESC, seq DESC
	`
	return s.queryOrders(ctx, query, instrument, side.String())
}

func (s *PostgresOrderStore) FindByID(ctx context.Context, id string) (*types.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE order_id = $1`

	order, err := scanOrder(s.pool.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, fmt.Errorf("order %s: %w", id, types.ErrOrderNotFound)
	}
	if err != nil {
		return nil, classify(err)
	}
	return order, nil
}

func (s *PostgresOrderStore) Insert(ctx context.Context, order *types.Order) error {
	return s.Apply(ctx, storage.NewBatch().Insert(order))
}

func (s *PostgresOrderStore) UpdateQuantity(ctx context.Context, id string, quantity int) error {
	return s.Apply(ctx, storage.NewBatch().Update(id, quantity))
}

func (s *PostgresOrderStore) RemoveAll(ctx context.Context, ids []string) error {
	return s.Apply(ctx, storage.NewBatch().Remove(ids...))
}

func (s *PostgresOrderStore) RemoveOne(ctx context.Context, id string) (bool, error) {
	result, err := s.pool.Exec(ctx, `DELETE FROM orders WHERE order_id = $1`, id)
	if err != nil {
		return false, classify(err)
	}
	return result.RowsAffected() > 0, nil
}

func (s *PostgresOrderStore) QueryByCreatedRange(ctx context.Context, from, to time.Time) ([]*types.Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE created_at >= $1 AND created_at < $2 AND quantity > 0
		ORDER BY created_at, order_id
	`
	return s.queryOrders(ctx, query, from, to)
}

func (s *PostgresOrderStore) QueryAll(ctx context.Context) ([]*types.Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE quantity > 0
		ORDER BY created_at, order_id
	`
	return s.queryOrders(ctx, query)
}

func (s *PostgresOrderStore) Apply(ctx context.Context, batch *storage.Batch) error {
	if err := batch.Validate(); err != nil {
		return err
	}
	if batch.IsEmpty() {
		return nil
	}

	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if len(batch.Removes) > 0 {
			if _, err := tx.Exec(ctx, `DELETE FROM orders WHERE order_id = ANY($1)`, batch.Removes); err != nil {
				return err
			}
		}

		for _, update := range batch.Updates {
			result, err := tx.Exec(ctx, `UPDATE orders SET quantity = $2 WHERE order_id = $1`, update.ID, update.Quantity)
			if err != nil {
				return err
			}
			if result.RowsAffected() == 0 {
				return fmt.Errorf("update %s: %w", update.ID, types.ErrOrderNotFound)
			}
		}

		for _, order := range batch.Inserts {
			_, err := tx.Exec(ctx, `
				INSERT INTO orders (order_id, instrument, side, order_type, quantity, price, created_at)
				VALUES ($1, $2, $3, $4, $5, $6::numeric, $7)
			`,
				order.ID, order.Instrument, order.Side.String(), order.OrderType.String(),
				order.Quantity, order.Price.String(), order.CreatedAt,
			)
			if err != nil {
				return err
			}
		}
		return nil
	})

	return classify(err)
}

func (s *PostgresOrderStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresOrderStore) queryOrders(ctx context.Context, query string, args ...interface{}) ([]*types.Order, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	orders := []*types.Order{}
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, classify(err)
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}
	return orders, nil
}

// scanOrder reads one row selected with orderColumns
func scanOrder(row pgx.Row) (*types.Order, error) {
	var (
		order                  types.Order
		side, orderType, price string
	)
	err := row.Scan(&order.ID, &order.Instrument, &side, &orderType, &order.Quantity, &price, &order.CreatedAt)
	if err != nil {
		return nil, err
	}

	if order.Side, err = types.ParseSide(side); err != nil {
		return nil, err
	}
	if order.OrderType, err = types.ParseOrderType(orderType); err != nil {
		return nil, err
	}
	if order.Price, err = decimal.NewFromString(price); err != nil {
		return nil, fmt.Errorf("order %s: bad price: %w", order.ID, err)
	}
	return &order, nil
}
