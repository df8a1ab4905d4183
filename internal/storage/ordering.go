package storage

import (
	"sort"
	"time"

	"github.com/PxPatel/crossing-engine/internal/types"
)

// SortCandidates orders by createdAt descending. The sort is stable, so
// callers that pass orders newest-inserted first keep that order on ties.
func SortCandidates(orders []*types.Order) {
	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
}

// SortChronological orders by createdAt ascending, then id
func SortChronological(orders []*types.Order) {
	sort.SliceStable(orders, func(i, j int) bool {
		if orders[i].CreatedAt.Equal(orders[j].CreatedAt) {
			return orders[i].ID < orders[j].ID
		}
		return orders[i].CreatedAt.Before(orders[j].CreatedAt)
	})
}

// InCreatedRange reports whether the order is live and createdAt is in [from, to)
func InCreatedRange(order *types.Order, from, to time.Time) bool {
	return order.IsLive() && !order.CreatedAt.Before(from) && order.CreatedAt.Before(to)
}

// LiveOnly drops orders whose quantity reached zero
func LiveOnly(orders []*types.Order) []*types.Order {
	live := orders[:0]
	for _, order := range orders {
		if order.IsLive() {
			live = append(live, order)
		}
	}
	return live
}
