package market

import (
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testFeed() *Feed {
	return NewFeed(map[string]decimal.Decimal{
		"BTC": decimal.NewFromInt(65000),
		"ETH": decimal.NewFromInt(3400),
	}, time.Second, zap.NewNop())
}

func TestFeed_SnapshotIsACopy(t *testing.T) {
	feed := testFeed()

	snapshot := feed.Snapshot()
	snapshot["BTC"] = decimal.Zero

	assert.True(t, feed.Snapshot()["BTC"].Equal(decimal.NewFromInt(65000)))
}

func TestFeed_TickMovesOneSymbolWithinBounds(t *testing.T) {
	feed := testFeed()
	before := feed.Snapshot()

	update := feed.Tick()

	assert.Contains(t, before, update.Symbol)
	assert.LessOrEqual(t, math.Abs(update.ChangePercent), 2.0)

	after := feed.Snapshot()
	changed := 0
	for symbol, price := range after {
		if !price.Equal(before[symbol]) {
			changed++
		}
	}
	assert.LessOrEqual(t, changed, 1)
	assert.True(t, after[update.Symbol].Equal(update.Price))
}

func TestFeed_SubscribersReceiveUpdates(t *testing.T) {
	feed := testFeed()

	ch := feed.Subscribe()
	defer feed.Unsubscribe(ch)

	sent := feed.Tick()
	feed.broadcast(sent)

	select {
	case got := <-ch:
		assert.Equal(t, sent.Symbol, got.Symbol)
		require.True(t, got.Price.Equal(sent.Price))
	case <-time.After(time.Second):
		t.Fatal("no update received")
	}
}
