package pebble

import (
	"fmt"
	"math"
	"time"

	"github.com/PxPatel/crossing-engine/internal/types"
)

// Key layout:
//
//	ord:{id}                                  → JSON order
//	bk:{instrument}\x00{side}:{ts}:{id}       → candidate index
//	ts:{ts}:{id}                              → creation-time index
//
// ts is a sign-flipped, zero-padded nanosecond timestamp so that
// lexicographic order equals chronological order.
const (
	prefixOrder    = "ord:"
	prefixBook     = "bk:"
	prefixTimeline = "ts:"
)

var (
	minTime = time.Unix(0, math.MinInt64)
	maxTime = time.Unix(0, math.MaxInt64)
)

func sortableNanos(t time.Time) uint64 {
	if t.Before(minTime) {
		return 0
	}
	if t.After(maxTime) {
		return math.MaxUint64
	}
	return uint64(t.UnixNano()) ^ (1 << 63)
}

func orderKey(id string) []byte {
	return []byte(prefixOrder + id)
}

func bookPrefix(instrument string, side types.SideType) []byte {
	return []byte(fmt.Sprintf("%s%s\x00%d:", prefixBook, instrument, side))
}

func bookKey(order *types.Order) []byte {
	return append(bookPrefix(order.Instrument, order.Side),
		[]byte(fmt.Sprintf("%020d:%s", sortableNanos(order.CreatedAt), order.ID))...)
}

func timelineBound(t time.Time) []byte {
	return []byte(fmt.Sprintf("%s%020d", prefixTimeline, sortableNanos(t)))
}

func timelineKey(order *types.Order) []byte {
	return []byte(fmt.Sprintf("%s%020d:%s", prefixTimeline, sortableNanos(order.CreatedAt), order.ID))
}

// idFromIndexKey extracts the trailing order id from an index key
func idFromIndexKey(key []byte, prefixLen int) string {
	// {ts:20}:{id}
	rest := key[prefixLen:]
	if len(rest) < 21 {
		return ""
	}
	return string(rest[21:])
}

// keyUpperBound returns the exclusive upper bound for a prefix scan
func keyUpperBound(prefix []byte) []byte {
	bound := make([]byte, len(prefix))
	copy(bound, prefix)
	bound[len(bound)-1]++
	return bound
}
