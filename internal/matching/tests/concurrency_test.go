package matching

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PxPatel/crossing-engine/internal/types"
)

// Concurrent buys against a fixed book must never consume more than the book holds
func TestConcurrentPlacementsConserveQuantity(t *testing.T) {
	engine, store := newEngine(t)
	ctx := context.Background()

	const restingOrders = 50
	for i := 0; i < restingOrders; i++ {
		rest(t, store, gtc(fmt.Sprintf("S%d", i), types.Sell, 10, at(i)))
	}

	const buyers = 40
	var wg sync.WaitGroup
	errs := make(chan error, buyers)
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := engine.PlaceOrder(ctx, ioc(fmt.Sprintf("B%d", i), types.Buy, 10, at(1000+i)))
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	// every buy exactly consumes one sell
	assert.Equal(t, (restingOrders-buyers)*10, totalQuantity(t, store))
	for id := range quantities(t, store) {
		assert.Equal(t, byte('S'), id[0])
	}
}

func TestConcurrentCancelsRemoveOnce(t *testing.T) {
	engine, store := newEngine(t)
	ctx := context.Background()
	rest(t, store, gtc("E1", types.Sell, 10, at(0)))

	const cancellers = 20
	var wg sync.WaitGroup
	successes := make(chan bool, cancellers)
	for i := 0; i < cancellers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := engine.CancelOrder(ctx, "E1")
			assert.NoError(t, err)
			successes <- result.Success
		}()
	}
	wg.Wait()
	close(successes)

	count := 0
	for ok := range successes {
		if ok {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestInstrumentsMatchIndependently(t *testing.T) {
	engine, store := newEngine(t)
	ctx := context.Background()

	instruments := []string{"AA01", "AA02", "AA03", "AA04"}
	for i, instrument := range instruments {
		o := gtc(fmt.Sprintf("S-%s", instrument), types.Sell, 100, at(i))
		o.Instrument = instrument
		rest(t, store, o)
	}

	var wg sync.WaitGroup
	for _, instrument := range instruments {
		for j := 0; j < 10; j++ {
			wg.Add(1)
			go func(instrument string, j int) {
				defer wg.Done()
				o := gtc(fmt.Sprintf("B-%s-%d", instrument, j), types.Buy, 10, at(100+j))
				o.Instrument = instrument
				_, err := engine.PlaceOrder(ctx, o)
				assert.NoError(t, err)
			}(instrument, j)
		}
	}
	wg.Wait()

	assert.Equal(t, 0, totalQuantity(t, store))
}
