package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/PxPatel/crossing-engine/internal/storage"
	"github.com/PxPatel/crossing-engine/internal/types"
)

const (
	orderKeyPrefix    = "order:"
	bookKeyPrefix     = "book:"
	ordersTimelineKey = "orders:timeline" // Sorted set by creation time
	maxTxRetries      = 5
)

// readIndex walks one sorted-set index and loads every order hash it names
// inside a single script, so a reader never lands between the index read and
// the hash reads of a concurrent MULTI/EXEC.
//
// ARGV: mode (asc, desc or score), order key prefix, then min and max for score.
var readIndex = redis.NewScript(`
local ids
if ARGV[1] == 'desc' then
	ids = redis.call('ZREVRANGE', KEYS[1], 0, -1)
elseif ARGV[1] == 'score' then
	ids = redis.call('ZRANGEBYSCORE', KEYS[1], ARGV[3], ARGV[4])
else
	ids = redis.call('ZRANGE', KEYS[1], 0, -1)
end
local orders = {}
for i, id in ipairs(ids) do
	orders[i] = redis.call('HGETALL', ARGV[2] .. id)
end
return orders
`)

// RedisOrderStore implements OrderStore using Redis hashes plus sorted-set
// indexes. Apply runs under WATCH on every touched order key and commits in
// one MULTI/EXEC, so a batch lands completely or not at all.
type RedisOrderStore struct {
	client *redis.Client
}

// NewRedisOrderStore creates a new Redis-backed order store
func NewRedisOrderStore(cfg RedisConfig) (*RedisOrderStore, error) {
	client, err := NewRedisClient(cfg)
	if err != nil {
		return nil, err
	}
	return NewRedisOrderStoreWithClient(client), nil
}

// NewRedisOrderStoreWithClient wraps an existing client
func NewRedisOrderStoreWithClient(client *redis.Client) *RedisOrderStore {
	return &RedisOrderStore{client: client}
}

var _ storage.OrderStore = (*RedisOrderStore)(nil)

func orderKey(id string) string {
	return orderKeyPrefix + id
}

func bookKey(instrument string, side types.SideType) string {
	return fmt.Sprintf("%s%s:%d", bookKeyPrefix, instrument, side)
}

// score uses microseconds, which float64 holds exactly for present-day times
func score(t time.Time) float64 {
	return float64(t.UnixMicro())
}

func (s *RedisOrderStore) FindCandidates(ctx context.Context, instrument string, side types.SideType) ([]*types.Order, error) {
	orders, err := s.readOrders(ctx, bookKey(instrument, side), "desc")
	if err != nil {
		return nil, err
	}
	storage.SortCandidates(orders)
	return storage.LiveOnly(orders), nil
}

func (s *RedisOrderStore) FindByID(ctx context.Context, id string) (*types.Order, error) {
	fields, err := s.client.HGetAll(ctx, orderKey(id)).Result()
	if err != nil {
		return nil, unavailable(err)
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("order %s: %w", id, types.ErrOrderNotFound)
	}
	return decodeOrder(fields)
}

func (s *RedisOrderStore) Insert(ctx context.Context, order *types.Order) error {
	return s.Apply(ctx, storage.NewBatch().Insert(order))
}

func (s *RedisOrderStore) UpdateQuantity(ctx context.Context, id string, quantity int) error {
	return s.Apply(ctx, storage.NewBatch().Update(id, quantity))
}

func (s *RedisOrderStore) RemoveAll(ctx context.Context, ids []string) error {
	return s.Apply(ctx, storage.NewBatch().Remove(ids...))
}

func (s *RedisOrderStore) RemoveOne(ctx context.Context, id string) (bool, error) {
	removed := false
	err := s.transact(ctx, []string{orderKey(id)}, func(tx *redis.Tx) (func(redis.Pipeliner), error) {
		order, err := txGetOrder(ctx, tx, id)
		if errors.Is(err, types.ErrOrderNotFound) {
			removed = false
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		removed = true
		return func(pipe redis.Pipeliner) { deleteOrder(ctx, pipe, order) }, nil
	})
	return removed, err
}

func (s *RedisOrderStore) QueryByCreatedRange(ctx context.Context, from, to time.Time) ([]*types.Order, error) {
	if !from.Before(to) {
		return []*types.Order{}, nil
	}

	// Score bounds are widened to whole microseconds; exact filtering follows
	orders, err := s.readOrders(ctx, ordersTimelineKey, "score",
		strconv.FormatInt(from.UnixMicro(), 10),
		strconv.FormatInt(to.UnixMicro(), 10),
	)
	if err != nil {
		return nil, err
	}

	inRange := orders[:0]
	for _, order := range orders {
		if storage.InCreatedRange(order, from, to) {
			inRange = append(inRange, order)
		}
	}
	storage.SortChronological(inRange)
	return inRange, nil
}

func (s *RedisOrderStore) QueryAll(ctx context.Context) ([]*types.Order, error) {
	orders, err := s.readOrders(ctx, ordersTimelineKey, "asc")
	if err != nil {
		return nil, err
	}
	orders = storage.LiveOnly(orders)
	storage.SortChronological(orders)
	return orders, nil
}

func (s *RedisOrderStore) Apply(ctx context.Context, batch *storage.Batch) error {
	if err := batch.Validate(); err != nil {
		return err
	}
	if batch.IsEmpty() {
		return nil
	}

	keys := make([]string, 0, len(batch.Inserts)+len(batch.Updates)+len(batch.Removes))
	for _, order := range batch.Inserts {
		keys = append(keys, orderKey(order.ID))
	}
	for _, update := range batch.Updates {
		keys = append(keys, orderKey(update.ID))
	}
	for _, id := range batch.Removes {
		keys = append(keys, orderKey(id))
	}

	return s.transact(ctx, keys, func(tx *redis.Tx) (func(redis.Pipeliner), error) {
		// Check every precondition against the watched keys
		removing := make(map[string]*types.Order, len(batch.Removes))
		for _, id := range batch.Removes {
			order, err := txGetOrder(ctx, tx, id)
			if errors.Is(err, types.ErrOrderNotFound) {
				continue
			}
			if err != nil {
				return nil, err
			}
			removing[id] = order
		}
		for _, update := range batch.Updates {
			n, err := tx.Exists(ctx, orderKey(update.ID)).Result()
			if err != nil {
				return nil, unavailable(err)
			}
			if _, gone := removing[update.ID]; n == 0 || gone {
				return nil, fmt.Errorf("update %s: %w", update.ID, types.ErrOrderNotFound)
			}
		}
		for _, order := range batch.Inserts {
			n, err := tx.Exists(ctx, orderKey(order.ID)).Result()
			if err != nil {
				return nil, unavailable(err)
			}
			if n > 0 {
				return nil, fmt.Errorf("insert %s: %w", order.ID, types.ErrDuplicateID)
			}
		}

		return func(pipe redis.Pipeliner) {
			for _, order := range removing {
				deleteOrder(ctx, pipe, order)
			}
			for _, update := range batch.Updates {
				pipe.HSet(ctx, orderKey(update.ID), "quantity", update.Quantity)
			}
			for _, order := range batch.Inserts {
				pipe.HSet(ctx, orderKey(order.ID), encodeOrder(order))
				pipe.ZAdd(ctx, bookKey(order.Instrument, order.Side), redis.Z{Score: score(order.CreatedAt), Member: order.ID})
				pipe.ZAdd(ctx, ordersTimelineKey, redis.Z{Score: score(order.CreatedAt), Member: order.ID})
			}
		}, nil
	})
}

// transact runs check under WATCH and, if it returns writes, queues them in
// MULTI/EXEC. Optimistic-lock conflicts are retried.
func (s *RedisOrderStore) transact(ctx context.Context, keys []string, check func(*redis.Tx) (func(redis.Pipeliner), error)) error {
	txf := func(tx *redis.Tx) error {
		writes, err := check(tx)
		if err != nil || writes == nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			writes(pipe)
			return nil
		})
		return err
	}

	for i := 0; i < maxTxRetries; i++ {
		err := s.client.Watch(ctx, txf, keys...)
		if err == redis.TxFailedErr {
			continue
		}
		if err != nil && !errors.Is(err, types.ErrOrderNotFound) && !errors.Is(err, types.ErrDuplicateID) &&
			!errors.Is(err, types.ErrStoreUnavailable) {
			return unavailable(err)
		}
		return err
	}
	return fmt.Errorf("%w: redis transaction kept conflicting", types.ErrStoreUnavailable)
}

func (s *RedisOrderStore) Close() error {
	return s.client.Close()
}

// readOrders runs readIndex over key, skipping ids whose hash is gone
func (s *RedisOrderStore) readOrders(ctx context.Context, key, mode string, bounds ...string) ([]*types.Order, error) {
	args := []interface{}{mode, orderKeyPrefix}
	for _, bound := range bounds {
		args = append(args, bound)
	}

	replies, err := readIndex.Run(ctx, s.client, []string{key}, args...).Slice()
	if err != nil {
		return nil, unavailable(err)
	}

	orders := make([]*types.Order, 0, len(replies))
	for _, reply := range replies {
		pairs, _ := reply.([]interface{})
		if len(pairs) == 0 {
			continue
		}
		fields := make(map[string]string, len(pairs)/2)
		for i := 0; i+1 < len(pairs); i += 2 {
			name, _ := pairs[i].(string)
			value, _ := pairs[i+1].(string)
			fields[name] = value
		}
		order, err := decodeOrder(fields)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	return orders, nil
}

func txGetOrder(ctx context.Context, tx *redis.Tx, id string) (*types.Order, error) {
	fields, err := tx.HGetAll(ctx, orderKey(id)).Result()
	if err != nil {
		return nil, unavailable(err)
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("order %s: %w", id, types.ErrOrderNotFound)
	}
	return decodeOrder(fields)
}

func deleteOrder(ctx context.Context, pipe redis.Pipeliner, order *types.Order) {
	pipe.Del(ctx, orderKey(order.ID))
	pipe.ZRem(ctx, bookKey(order.Instrument, order.Side), order.ID)
	pipe.ZRem(ctx, ordersTimelineKey, order.ID)
}

func encodeOrder(order *types.Order) map[string]interface{} {
	return map[string]interface{}{
		"id":         order.ID,
		"instrument": order.Instrument,
		"side":       order.Side.String(),
		"order_type": order.OrderType.String(),
		"quantity":   order.Quantity,
		"price":      order.Price.String(),
		"created_at": order.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func decodeOrder(fields map[string]string) (*types.Order, error) {
	side, err := types.ParseSide(fields["side"])
	if err != nil {
		return nil, err
	}
	orderType, err := types.ParseOrderType(fields["order_type"])
	if err != nil {
		return nil, err
	}
	quantity, err := strconv.Atoi(fields["quantity"])
	if err != nil {
		return nil, fmt.Errorf("order %s: bad quantity: %w", fields["id"], err)
	}
	price, err := decimal.NewFromString(fields["price"])
	if err != nil {
		return nil, fmt.Errorf("order %s: bad price: %w", fields["id"], err)
	}
	createdAt, err := time.Parse(time.RFC3339Nano, fields["created_at"])
	if err != nil {
		return nil, fmt.Errorf("order %s: bad created_at: %w", fields["id"], err)
	}

	return types.NewOrder(fields["id"], fields["instrument"], orderType, side, price, quantity, createdAt), nil
}

func unavailable(err error) error {
	return fmt.Errorf("%w: redis: %v", types.ErrStoreUnavailable, err)
}
